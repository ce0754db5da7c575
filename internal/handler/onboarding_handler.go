package handler

import (
	"errors"
	"net/http"
	"strings"

	"flowforge/internal/logic"
	"flowforge/internal/pkg/auth"
	"flowforge/internal/svc"
	"flowforge/internal/types"

	"github.com/zeromicro/go-zero/rest/httpx"
)

// OnboardingStatusHandler 查询当前用户的 onboarding 状态
func OnboardingStatusHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := logic.NewOnboardingLogic(r.Context(), svcCtx)
		resp, err := l.Status(bearerToken(r))
		writeResp(w, r, resp, err)
	}
}

// OnboardingRunHandler 在后台启动全部链的 onboarding
func OnboardingRunHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := logic.NewOnboardingLogic(r.Context(), svcCtx)
		resp, err := l.Run(bearerToken(r))
		writeResp(w, r, resp, err)
	}
}

// OnboardingRetryHandler 重试单条链
func OnboardingRetryHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.RetryChainReq
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		l := logic.NewOnboardingLogic(r.Context(), svcCtx)
		resp, err := l.Retry(bearerToken(r), &req)
		writeResp(w, r, resp, err)
	}
}

// OnboardingLogoutHandler 清空会话
func OnboardingLogoutHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := logic.NewOnboardingLogic(r.Context(), svcCtx)
		if err := l.Logout(); err != nil {
			writeError(w, r, err)
			return
		}
		httpx.Ok(w)
	}
}

func ChainListHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := logic.NewOnboardingLogic(r.Context(), svcCtx)
		httpx.OkJsonCtx(r.Context(), w, l.Chains())
	}
}

func writeResp(w http.ResponseWriter, r *http.Request, resp any, err error) {
	if err != nil {
		writeError(w, r, err)
	} else {
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, auth.ErrUnauthorized) {
		httpx.WriteJsonCtx(r.Context(), w, http.StatusUnauthorized, map[string]string{
			"error": err.Error(),
		})
		return
	}
	httpx.ErrorCtx(r.Context(), w, err)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return header[7:]
	}
	return header
}
