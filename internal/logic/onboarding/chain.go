package onboarding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"flowforge/internal/constant"
	"flowforge/internal/pkg/retry"
	"flowforge/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
)

// chainRun 单条链的一次 onboarding 尝试
type chainRun struct {
	o      *Orchestrator
	chain  types.ChainTarget
	gen    uint64
	slot   *SigningSlot
	logger logx.Logger
}

// ProcessChain 依次执行 wallet-create, module-sign, module-enable, module-verify,
// 每一步以上一步成功为前提, 返回这条链是否完成. 失败 (包括 panic) 只记录在
// 进度里, 不会向外抛出.
func (o *Orchestrator) ProcessChain(ctx context.Context, chain types.ChainTarget) bool {
	return o.processChain(ctx, chain, o.current())
}

func (o *Orchestrator) processChain(ctx context.Context, chain types.ChainTarget, sc runScope) (ok bool) {
	r := &chainRun{
		o:     o,
		chain: chain,
		gen:   sc.gen,
		slot:  sc.slot,
		logger: logx.WithContext(ctx).WithFields(
			logx.Field("user", o.userId),
			logx.Field("chain", chain.Id),
		),
	}

	start := time.Now()
	defer func() {
		if p := recover(); p != nil {
			r.logger.Errorf("❌ 链 %s onboarding 异常: %v", chain.Id, p)
			r.abort(fmt.Sprint(p))
			ok = false
		}
		// 被取消的尝试不计入指标
		if ctx.Err() == nil {
			observeChain(chain.Id, ok, time.Since(start))
		}
	}()

	if r.stopped(ctx) {
		return false
	}
	r.logger.Infof("第一步: 在 %s (%d) 上创建钱包", chain.Name, chain.ChainId)
	wallet, ok := r.createWallet(ctx)
	if !ok || r.stopped(ctx) {
		return false
	}

	r.logger.Infof("第二步: 为 %s 签名 enable module", wallet)
	alreadyEnabled, ok := r.signModule(ctx, wallet)
	if !ok || r.stopped(ctx) {
		return false
	}
	if alreadyEnabled {
		r.logger.Infof("%s 上模块已启用, 跳过提交与校验", wallet)
		r.set(constant.StepModuleEnable, constant.StatusSuccess)
		r.set(constant.StepModuleVerify, constant.StatusSuccess)
		return true
	}

	r.logger.Infof("第三步: 提交 enable module 交易")
	if !r.enableModule(ctx) || r.stopped(ctx) {
		return false
	}

	r.logger.Infof("第四步: 链上校验模块状态")
	if !r.verifyModule(ctx, wallet) {
		return false
	}

	r.logger.Infof("✅ 链 %s onboarding 完成, 钱包 %s", chain.Id, wallet)
	return true
}

// stopped ctx 已取消时记录原因并返回 true
func (r *chainRun) stopped(ctx context.Context) bool {
	err := ctx.Err()
	if err == nil {
		return false
	}
	r.logger.Infof("🛑 链 %s onboarding 已停止: %v", r.chain.Id, err)
	r.abort(err.Error())
	return true
}

func (r *chainRun) createWallet(ctx context.Context) (string, bool) {
	r.set(constant.StepWalletCreate, constant.StatusPending)

	res, err := r.o.deps.Wallets.CreateWallet(ctx, r.o.owner, r.chain.ChainId)
	if err != nil {
		return "", r.fail(constant.StepWalletCreate, err.Error())
	}
	if !res.Success || res.WalletAddress == "" {
		return "", r.fail(constant.StepWalletCreate, orDefault(res.Error, constant.ErrMsgWalletCreateFailed))
	}

	r.o.session.update(r.gen, r.chain.Id, func(p types.ChainProgress) types.ChainProgress {
		p.WalletAddress = res.WalletAddress
		return p.WithStep(constant.StepWalletCreate, constant.StatusSuccess)
	})
	return res.WalletAddress, true
}

// signModule 整个步骤期间占用签名槽, 任何退出路径都会释放.
// alreadyEnabled 为 true 表示签名没有产生交易.
func (r *chainRun) signModule(ctx context.Context, wallet string) (alreadyEnabled, ok bool) {
	r.set(constant.StepModuleSign, constant.StatusPending)

	release, err := r.slot.Acquire(r.chain.Id)
	if err != nil {
		return false, r.fail(constant.StepModuleSign, err.Error())
	}
	defer release()

	if err := r.switchChain(ctx); err != nil {
		return false, r.fail(constant.StepModuleSign, err.Error())
	}

	res, err := r.o.deps.Signer.SignEnableModule(ctx, wallet, r.chain.ChainId)
	if err != nil {
		return false, r.fail(constant.StepModuleSign, err.Error())
	}
	if !res.Success {
		return false, r.fail(constant.StepModuleSign, orDefault(res.Error, constant.ErrMsgSignFailed))
	}

	r.set(constant.StepModuleSign, constant.StatusSuccess)
	return res.SafeTxHash == "", true
}

func (r *chainRun) switchChain(ctx context.Context) error {
	switcher := r.o.deps.Switcher
	if err := switcher.SwitchChain(ctx, r.chain.ChainId); err != nil {
		return fmt.Errorf("failed to switch wallet to %s: %w", r.chain.Name, err)
	}

	err := retry.WaitFor(ctx, r.o.opts.SwitchTimeout, r.o.opts.SwitchInterval, func(ctx context.Context) (bool, error) {
		current, err := switcher.CurrentChainId(ctx)
		if err != nil {
			return false, err
		}
		return current == r.chain.ChainId, nil
	})
	switch {
	case errors.Is(err, retry.ErrTimeout):
		return fmt.Errorf("timed out switching wallet to %s", r.chain.Name)
	case err != nil:
		return fmt.Errorf("failed to switch wallet to %s: %w", r.chain.Name, err)
	}
	return nil
}

func (r *chainRun) enableModule(ctx context.Context) bool {
	r.set(constant.StepModuleEnable, constant.StatusPending)

	res, err := r.o.deps.Signer.SubmitEnableModule(ctx)
	if err != nil {
		return r.fail(constant.StepModuleEnable, err.Error())
	}
	if !res.Success {
		return r.fail(constant.StepModuleEnable, orDefault(res.Error, constant.ErrMsgSubmitFailed))
	}

	if res.TxHash != "" {
		r.logger.Infof("📤 enable module 交易已提交, txHash: %s", res.TxHash)
	}
	r.set(constant.StepModuleEnable, constant.StatusSuccess)
	return true
}

// verifyModule 刚提交的交易可能还不可见, 所以要重试
func (r *chainRun) verifyModule(ctx context.Context, wallet string) bool {
	r.set(constant.StepModuleVerify, constant.StatusPending)

	out := retry.Until(ctx, r.o.opts.Verify, func(ctx context.Context, attempt int) (bool, error) {
		enabled, err := r.o.deps.Reader.IsModuleEnabled(ctx, wallet, r.chain.ChainId)
		if err != nil {
			r.logger.Infof("⚠️ 读取模块状态失败 (第 %d/%d 次): %v", attempt, r.o.opts.Verify.MaxAttempts, err)
		} else if !enabled {
			r.logger.Infof("模块尚未启用 (第 %d/%d 次)", attempt, r.o.opts.Verify.MaxAttempts)
		}
		return enabled, err
	})

	switch {
	case out.Satisfied:
		r.set(constant.StepModuleVerify, constant.StatusSuccess)
		return true
	case out.SawFalse:
		return r.fail(constant.StepModuleVerify, constant.ErrMsgModuleNotEnabled)
	case out.LastErr != nil:
		return r.fail(constant.StepModuleVerify, out.LastErr.Error())
	}
	return r.fail(constant.StepModuleVerify, constant.ErrMsgModuleNotEnabled)
}

func (r *chainRun) set(step constant.Step, status constant.StepStatus) {
	r.o.session.update(r.gen, r.chain.Id, func(p types.ChainProgress) types.ChainProgress {
		if status == constant.StatusPending {
			p.Error = ""
		}
		return p.WithStep(step, status)
	})
}

// fail 把 step 标记为失败并记录 msg, 始终返回 false
func (r *chainRun) fail(step constant.Step, msg string) bool {
	r.logger.Errorf("❌ 步骤 %s 在 %s 上失败: %s", step, r.chain.Id, msg)
	r.o.session.update(r.gen, r.chain.Id, func(p types.ChainProgress) types.ChainProgress {
		p.Error = msg
		return p.WithStep(step, constant.StatusError)
	})
	return false
}

// abort 记录 msg, 所有 pending 的步骤转为 error
func (r *chainRun) abort(msg string) {
	r.o.session.update(r.gen, r.chain.Id, func(p types.ChainProgress) types.ChainProgress {
		for _, step := range constant.Steps {
			if p.Step(step) == constant.StatusPending {
				p = p.WithStep(step, constant.StatusError)
			}
		}
		p.Error = msg
		return p
	})
}

func orDefault(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}
