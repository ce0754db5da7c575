package onboarding

import (
	"sync"

	"flowforge/internal/types"
)

// Session 单个用户的 onboarding 状态, 不落库, 每次登录后根据后端记录重建
type Session struct {
	mu sync.RWMutex
	// gen 每次 clear 自增, 旧一代的运行写入会被丢弃
	gen uint64
	// running 仍在执行的运行数 (不区分代)
	running         int
	ready           bool
	needsOnboarding bool
	inProgress      bool
	progress        map[string]types.ChainProgress
	record          *types.UserRecord
}

func newSession() *Session {
	return &Session{
		progress: make(map[string]types.ChainProgress),
	}
}

func (s *Session) generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// populate 用新推导出的状态整体替换会话
func (s *Session) populate(gen uint64, needs bool, progress map[string]types.ChainProgress, record *types.UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		return
	}
	s.ready = true
	s.needsOnboarding = needs
	s.progress = progress
	s.record = record
}

// clear 清空会话 (登出), 并开启新的一代
func (s *Session) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.ready = false
	s.needsOnboarding = false
	s.inProgress = false
	s.progress = make(map[string]types.ChainProgress)
	s.record = nil
}

// begin 占用 in-progress 标记. 已有运行 (包括上一代尚未退出的运行) 时返回 false
func (s *Session) begin() (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inProgress || s.running > 0 {
		return 0, false
	}
	s.inProgress = true
	s.running++
	return s.gen, true
}

func (s *Session) end(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running--
	if gen == s.gen {
		s.inProgress = false
	}
}

func (s *Session) isReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// isInProgress 只看当前一代的运行
func (s *Session) isInProgress() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inProgress
}

func (s *Session) setNeedsOnboarding(gen uint64, needs bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready && gen == s.gen {
		s.needsOnboarding = needs
	}
}

func (s *Session) setRecord(gen uint64, record *types.UserRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready && gen == s.gen {
		s.record = record
	}
}

func (s *Session) progressOf(chainId string) (types.ChainProgress, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.progress[chainId]
	return p, ok
}

// update 用 fn 的结果替换一条链的进度. 过期的代或会话中不存在的链直接忽略
func (s *Session) update(gen uint64, chainId string, fn func(types.ChainProgress) types.ChainProgress) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		return
	}
	p, ok := s.progress[chainId]
	if !ok {
		return
	}
	s.progress[chainId] = fn(p)
}

// allComplete 所有链都已 verify=success
func (s *Session) allComplete(chains []types.ChainTarget) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, chain := range chains {
		if !s.progress[chain.Id].Complete() {
			return false
		}
	}
	return true
}

// Snapshot 会话的时间点拷贝
type Snapshot struct {
	Ready           bool
	NeedsOnboarding bool
	// InProgress 在登出后旧运行尚未退出时也为 true
	InProgress   bool
	SigningChain string
	Progress     map[string]types.ChainProgress
	Record       *types.UserRecord
}

func (s *Session) snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	progress := make(map[string]types.ChainProgress, len(s.progress))
	for k, v := range s.progress {
		progress[k] = v
	}
	var record *types.UserRecord
	if s.record != nil {
		r := *s.record
		record = &r
	}
	return Snapshot{
		Ready:           s.ready,
		NeedsOnboarding: s.needsOnboarding,
		InProgress:      s.inProgress || s.running > 0,
		Progress:        progress,
		Record:          record,
	}
}
