package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"flowforge/internal/constant"
	"flowforge/internal/logic/onboarding"
	"flowforge/internal/pkg/auth"
	"flowforge/internal/svc"
	"flowforge/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noRecords struct{}

func (noRecords) FetchUserRecord(context.Context, string) (*types.UserRecord, error) {
	return nil, onboarding.ErrNoRecord
}

type nopToken struct{}

func (nopToken) SetToken(string) {}

var testChains = []types.ChainTarget{
	{Id: "sepolia", Name: "Sepolia", ChainId: 11155111, Testnet: true},
	{Id: "mainnet", Name: "Ethereum", ChainId: 1},
}

func newTestServiceContext(t *testing.T) (*svc.ServiceContext, *int) {
	builds := new(int)
	sessions, err := svc.NewSessions(time.Minute, func(id auth.Identity, token string) (*onboarding.Orchestrator, svc.TokenSetter) {
		*builds++
		deps := onboarding.Deps{Records: noRecords{}}
		return onboarding.New(id.UserId, id.Address, testChains, deps, onboarding.DefaultOptions()), nopToken{}
	})
	require.NoError(t, err)

	return &svc.ServiceContext{
		Chains:   testChains,
		Sessions: sessions,
	}, builds
}

func authed(r *http.Request) *http.Request {
	ctx := context.WithValue(r.Context(), auth.ClaimUserId, "user-1")
	ctx = context.WithValue(ctx, auth.ClaimAddress, "0x00000000000000000000000000000000000000aa")
	r.Header.Set("Authorization", "Bearer token-1")
	return r.WithContext(ctx)
}

func TestOnboardingStatusHandler(t *testing.T) {
	svcCtx, _ := newTestServiceContext(t)

	w := httptest.NewRecorder()
	r := authed(httptest.NewRequest(http.MethodGet, "/api/onboarding/status", nil))
	OnboardingStatusHandler(svcCtx)(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var resp types.OnboardingStatusResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Ready)
	assert.True(t, resp.NeedsOnboarding)
	assert.False(t, resp.InProgress)
	assert.Len(t, resp.Chains, 2)
	require.Contains(t, resp.Progress, "sepolia")
	assert.Equal(t, constant.StatusIdle, resp.Progress["sepolia"].WalletCreate)
	assert.Equal(t, constant.StatusIdle, resp.Progress["mainnet"].ModuleVerify)
}

func TestOnboardingStatusHandlerUnauthorized(t *testing.T) {
	svcCtx, builds := newTestServiceContext(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/onboarding/status", nil)
	OnboardingStatusHandler(svcCtx)(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 0, *builds)
}

func TestOnboardingRetryHandlerRequiresChain(t *testing.T) {
	svcCtx, _ := newTestServiceContext(t)

	w := httptest.NewRecorder()
	r := authed(httptest.NewRequest(http.MethodPost, "/api/onboarding/retry", strings.NewReader(`{"chain":"  "}`)))
	r.Header.Set("Content-Type", "application/json")
	OnboardingRetryHandler(svcCtx)(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOnboardingRetryHandlerUnknownChain(t *testing.T) {
	svcCtx, _ := newTestServiceContext(t)

	w := httptest.NewRecorder()
	r := authed(httptest.NewRequest(http.MethodPost, "/api/onboarding/retry", strings.NewReader(`{"chain":"polygon"}`)))
	r.Header.Set("Content-Type", "application/json")
	OnboardingRetryHandler(svcCtx)(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var resp types.OnboardingStatusResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Started)
	assert.False(t, resp.InProgress)
}

func TestOnboardingLogoutHandler(t *testing.T) {
	svcCtx, builds := newTestServiceContext(t)

	status := func() {
		w := httptest.NewRecorder()
		OnboardingStatusHandler(svcCtx)(w, authed(httptest.NewRequest(http.MethodGet, "/api/onboarding/status", nil)))
		require.Equal(t, http.StatusOK, w.Code)
	}

	status()
	status()
	assert.Equal(t, 1, *builds)

	w := httptest.NewRecorder()
	OnboardingLogoutHandler(svcCtx)(w, authed(httptest.NewRequest(http.MethodDelete, "/api/onboarding/session", nil)))
	require.Equal(t, http.StatusOK, w.Code)

	status()
	assert.Equal(t, 2, *builds)
}

func TestChainListHandler(t *testing.T) {
	svcCtx, _ := newTestServiceContext(t)

	w := httptest.NewRecorder()
	ChainListHandler(svcCtx)(w, authed(httptest.NewRequest(http.MethodGet, "/api/chains", nil)))

	require.Equal(t, http.StatusOK, w.Code)
	var resp types.ChainListResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Chains, 2)
	assert.Equal(t, "sepolia", resp.Chains[0].Id)
	assert.Equal(t, "mainnet", resp.Chains[1].Id)
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "bearer abc")
	assert.Equal(t, "abc", bearerToken(r))

	r.Header.Set("Authorization", "raw")
	assert.Equal(t, "raw", bearerToken(r))
}
