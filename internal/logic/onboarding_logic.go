package logic

import (
	"context"
	"errors"
	"strings"

	"flowforge/internal/logic/onboarding"
	"flowforge/internal/pkg/auth"
	"flowforge/internal/svc"
	"flowforge/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
)

var ErrChainRequired = errors.New("chain is required")

type OnboardingLogic struct {
	ctx    context.Context
	svcCtx *svc.ServiceContext
	logx.Logger
}

func NewOnboardingLogic(ctx context.Context, svcCtx *svc.ServiceContext) *OnboardingLogic {
	return &OnboardingLogic{
		ctx:    ctx,
		svcCtx: svcCtx,
		Logger: logx.WithContext(ctx),
	}
}

// Status 查询当前用户的 onboarding 状态, 首次访问时根据后端记录推导
func (l *OnboardingLogic) Status(token string) (*types.OnboardingStatusResp, error) {
	orch, err := l.orchestrator(token)
	if err != nil {
		return nil, err
	}

	if !orch.Ready() {
		orch.Reconcile(l.ctx)
	}
	return l.toResp(orch, false), nil
}

// Run 在后台对所有未完成的链执行 onboarding
func (l *OnboardingLogic) Run(token string) (*types.OnboardingStatusResp, error) {
	orch, err := l.orchestrator(token)
	if err != nil {
		return nil, err
	}

	started := orch.StartRun()
	if !started {
		l.Infof("onboarding 正在进行中, 忽略本次请求")
	}
	return l.toResp(orch, started), nil
}

// Retry 在后台重试单条链
func (l *OnboardingLogic) Retry(token string, req *types.RetryChainReq) (*types.OnboardingStatusResp, error) {
	key := strings.TrimSpace(req.Chain)
	if key == "" {
		return nil, ErrChainRequired
	}

	orch, err := l.orchestrator(token)
	if err != nil {
		return nil, err
	}

	started := orch.StartRetry(key)
	if !started {
		l.WithFields(logx.Field("chain", key)).Infof("忽略重试: 未知链或 onboarding 正在进行中")
	}
	return l.toResp(orch, started), nil
}

// Logout 清除用户会话并取消进行中的运行
func (l *OnboardingLogic) Logout() error {
	id, err := auth.IdentityFromContext(l.ctx)
	if err != nil {
		return err
	}

	l.svcCtx.Sessions.Drop(id.UserId)
	return nil
}

func (l *OnboardingLogic) Chains() *types.ChainListResp {
	return &types.ChainListResp{
		Chains: l.svcCtx.Chains,
	}
}

func (l *OnboardingLogic) orchestrator(token string) (*onboarding.Orchestrator, error) {
	id, err := auth.IdentityFromContext(l.ctx)
	if err != nil {
		return nil, err
	}

	return l.svcCtx.Sessions.Get(*id, token)
}

func (l *OnboardingLogic) toResp(orch *onboarding.Orchestrator, started bool) *types.OnboardingStatusResp {
	snap := orch.Snapshot()
	return &types.OnboardingStatusResp{
		Ready:           snap.Ready,
		NeedsOnboarding: snap.NeedsOnboarding,
		InProgress:      snap.InProgress,
		SigningChain:    snap.SigningChain,
		Chains:          orch.Chains(),
		Progress:        snap.Progress,
		Started:         started,
	}
}
