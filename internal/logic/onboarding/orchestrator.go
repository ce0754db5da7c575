package onboarding

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"flowforge/internal/pkg/retry"
	"flowforge/internal/types"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/threading"
)

// Options 每条链流程中与时间相关的参数
type Options struct {
	SwitchTimeout  time.Duration
	SwitchInterval time.Duration
	Verify         retry.Policy
}

// DefaultOptions 切链最多等 10s, 每 100ms 轮询一次; 校验 3 次, 首次间隔 2s, 每次 x1.5
func DefaultOptions() Options {
	return Options{
		SwitchTimeout:  10 * time.Second,
		SwitchInterval: 100 * time.Millisecond,
		Verify:         retry.DefaultPolicy(),
	}
}

// Orchestrator 为单个用户在所有配置的链上完成 Safe onboarding.
// 链按配置顺序逐条处理.
type Orchestrator struct {
	userId string
	owner  string
	chains []types.ChainTarget
	deps   Deps
	opts   Options

	session *Session

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	slot   *SigningSlot
}

// runScope 一次运行开始时绑定的代: 生命周期 ctx, 会话代号, 签名槽
type runScope struct {
	ctx  context.Context
	gen  uint64
	slot *SigningSlot
}

// bind 让 ctx 在运行所属的代被 Reset 时同样取消
func (sc runScope) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(sc.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// New 创建 orchestrator, owner 为用户的主钱包地址
func New(userId, owner string, chains []types.ChainTarget, deps Deps, opts Options) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		userId:  userId,
		owner:   owner,
		chains:  chains,
		deps:    deps,
		opts:    opts,
		session: newSession(),
		ctx:     ctx,
		cancel:  cancel,
		slot:    &SigningSlot{},
	}
}

// Chains 按处理顺序返回配置的链
func (o *Orchestrator) Chains() []types.ChainTarget {
	return o.chains
}

// Snapshot 返回当前会话的拷贝
func (o *Orchestrator) Snapshot() Snapshot {
	sc := o.current()
	snap := o.session.snapshot()
	snap.SigningChain = sc.slot.Holder()
	return snap
}

// Ready 创建或上次 Reset 之后会话是否已经填充
func (o *Orchestrator) Ready() bool {
	return o.session.isReady()
}

// Reconcile 根据后端用户记录推导会话. 除 ErrNoRecord 以外的查询失败一律按
// "需要 onboarding" 处理, 不会把用户卡住. 运行中不做任何事.
func (o *Orchestrator) Reconcile(ctx context.Context) {
	sc := o.current()
	if o.session.isInProgress() {
		return
	}
	o.reconcile(ctx, sc.gen)
}

func (o *Orchestrator) reconcile(ctx context.Context, gen uint64) {
	logger := logx.WithContext(ctx).WithFields(logx.Field("user", o.userId))

	record, err := o.deps.Records.FetchUserRecord(ctx, o.userId)
	switch {
	case errors.Is(err, ErrNoRecord):
		record = nil
	case err != nil:
		logger.Errorf("❌ 查询用户记录失败, 按需要 onboarding 处理: %v", err)
		progress := make(map[string]types.ChainProgress, len(o.chains))
		for _, chain := range o.chains {
			progress[chain.Id] = idleProgress()
		}
		o.session.populate(gen, true, progress, nil)
		return
	}

	needs, progress := DetermineRequiredChains(record, o.chains)
	o.session.populate(gen, needs, progress, record)
	logger.Infof("onboarding 状态已同步, needsOnboarding=%t", needs)
}

// RunAll 对所有未完成的链执行 onboarding. 已有运行时直接返回.
// 单条链失败只记录在进度里, 不会中断循环. Reset 会让它尽快停下.
func (o *Orchestrator) RunAll(ctx context.Context) {
	sc, ok := o.begin()
	if !ok {
		logx.WithContext(ctx).Infof("用户 %s 的 onboarding 正在进行中", o.userId)
		return
	}
	defer o.end(sc)

	o.runAll(ctx, sc)
}

// StartRun 在后台执行 RunAll, 绑定 orchestrator 的生命周期.
// 已有运行时返回 false.
func (o *Orchestrator) StartRun() bool {
	sc, ok := o.begin()
	if !ok {
		return false
	}

	threading.GoSafe(func() {
		defer o.end(sc)
		o.runAll(sc.ctx, sc)
	})
	return true
}

func (o *Orchestrator) runAll(ctx context.Context, sc runScope) {
	ctx, cancel := sc.bind(ctx)
	defer cancel()

	runId := uuid.NewString()
	logger := logx.WithContext(ctx).WithFields(logx.Field("user", o.userId), logx.Field("run", runId))

	if !o.session.isReady() {
		o.reconcile(ctx, sc.gen)
	}

	logger.Infof("--- onboarding 开始, 共 %d 条链 ---", len(o.chains))
	allSucceeded := true
	for _, chain := range o.chains {
		if err := ctx.Err(); err != nil {
			logger.Infof("🛑 onboarding 已停止: %v", err)
			return
		}
		if p, _ := o.session.progressOf(chain.Id); p.Complete() {
			logger.Infof("链 %s 已完成, 跳过", chain.Id)
			continue
		}

		o.restart(sc.gen, chain.Id)
		if !o.processChain(ctx, chain, sc) {
			allSucceeded = false
		}
	}
	if err := ctx.Err(); err != nil {
		logger.Infof("🛑 onboarding 已停止: %v", err)
		return
	}

	o.refreshRecord(ctx, sc.gen)
	if allSucceeded {
		o.session.setNeedsOnboarding(sc.gen, false)
	}
	logger.Infof("--- onboarding 结束, allSucceeded=%t ---", allSucceeded)
}

// RetryChain 对单条链重新执行完整流程, 链可以用 id 或数字 chain id 指定.
// 未知链或运行中调用都是空操作, 其他链的进度不受影响.
func (o *Orchestrator) RetryChain(ctx context.Context, key string) {
	chain, ok := o.FindChain(key)
	if !ok {
		logx.WithContext(ctx).Infof("重试未知链 %q, 忽略", key)
		return
	}
	sc, ok := o.begin()
	if !ok {
		logx.WithContext(ctx).Infof("用户 %s 的 onboarding 正在进行中", o.userId)
		return
	}
	defer o.end(sc)

	o.retryChain(ctx, chain, sc)
}

// StartRetry 在后台执行 RetryChain. 未知链或已有运行时返回 false.
func (o *Orchestrator) StartRetry(key string) bool {
	chain, ok := o.FindChain(key)
	if !ok {
		return false
	}
	sc, ok := o.begin()
	if !ok {
		return false
	}

	threading.GoSafe(func() {
		defer o.end(sc)
		o.retryChain(sc.ctx, chain, sc)
	})
	return true
}

func (o *Orchestrator) retryChain(ctx context.Context, chain types.ChainTarget, sc runScope) {
	ctx, cancel := sc.bind(ctx)
	defer cancel()

	if !o.session.isReady() {
		o.reconcile(ctx, sc.gen)
	}

	o.restart(sc.gen, chain.Id)
	if !o.processChain(ctx, chain, sc) || ctx.Err() != nil {
		return
	}

	o.refreshRecord(ctx, sc.gen)
	if o.session.allComplete(o.chains) {
		o.session.setNeedsOnboarding(sc.gen, false)
	}
}

// FindChain 按 id 或数字 chain id 查找链
func (o *Orchestrator) FindChain(key string) (types.ChainTarget, bool) {
	for _, chain := range o.chains {
		if chain.Id == key {
			return chain, true
		}
	}
	if chainId, err := strconv.ParseInt(key, 10, 64); err == nil {
		for _, chain := range o.chains {
			if chain.ChainId == chainId {
				return chain, true
			}
		}
	}
	return types.ChainTarget{}, false
}

// Reset 登出: 清空会话, 取消进行中的运行. 旧运行之后的写入全部丢弃,
// 在它真正退出之前新的运行不会开始.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.cancel()
	o.ctx, o.cancel = context.WithCancel(context.Background())
	o.slot = &SigningSlot{}
	o.session.clear()
}

// Close 永久取消后台任务
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cancel()
}

func (o *Orchestrator) current() runScope {
	o.mu.Lock()
	defer o.mu.Unlock()
	return runScope{ctx: o.ctx, gen: o.session.generation(), slot: o.slot}
}

func (o *Orchestrator) begin() (runScope, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	gen, ok := o.session.begin()
	if !ok {
		return runScope{}, false
	}
	return runScope{ctx: o.ctx, gen: gen, slot: o.slot}, true
}

func (o *Orchestrator) end(sc runScope) {
	o.session.end(sc.gen)
}

// restart 新一次尝试前把这条链的四个步骤重置为 idle
func (o *Orchestrator) restart(gen uint64, chainId string) {
	o.session.update(gen, chainId, func(p types.ChainProgress) types.ChainProgress {
		return idleProgress()
	})
}

func (o *Orchestrator) refreshRecord(ctx context.Context, gen uint64) {
	record, err := o.deps.Records.FetchUserRecord(ctx, o.userId)
	switch {
	case errors.Is(err, ErrNoRecord):
		o.session.setRecord(gen, nil)
	case err != nil:
		logx.WithContext(ctx).Errorf("❌ 重新查询用户 %s 记录失败: %v", o.userId, err)
	default:
		o.session.setRecord(gen, record)
	}
}
