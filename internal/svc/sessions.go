package svc

import (
	"sync"
	"time"

	"flowforge/internal/logic/onboarding"
	"flowforge/internal/pkg/auth"

	"github.com/zeromicro/go-zero/core/collection"
)

// TokenSetter 接收用户最新的访问令牌
type TokenSetter interface {
	SetToken(token string)
}

// BuildFunc 为首次出现的用户创建 orchestrator
type BuildFunc func(id auth.Identity, token string) (*onboarding.Orchestrator, TokenSetter)

type sessionEntry struct {
	orch  *onboarding.Orchestrator
	token TokenSetter
}

// Sessions 每个用户一个 orchestrator. 空闲超过 expiry 的条目会被丢弃,
// 下次请求时根据后端记录重建.
type Sessions struct {
	// Get 与 Drop 互斥, 避免已登出的 orchestrator 被重新放回缓存
	mu    sync.Mutex
	cache *collection.Cache
	build BuildFunc
}

func NewSessions(expiry time.Duration, build BuildFunc) (*Sessions, error) {
	cache, err := collection.NewCache(expiry, collection.WithName("onboarding-sessions"))
	if err != nil {
		return nil, err
	}

	return &Sessions{
		cache: cache,
		build: build,
	}, nil
}

// Get 返回用户的 orchestrator, 首次使用时创建
func (s *Sessions) Get(id auth.Identity, token string) (*onboarding.Orchestrator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	val, err := s.cache.Take(id.UserId, func() (any, error) {
		orch, setter := s.build(id, token)
		return &sessionEntry{orch: orch, token: setter}, nil
	})
	if err != nil {
		return nil, err
	}

	entry := val.(*sessionEntry)
	entry.token.SetToken(token)
	// 重新 Set 以顺延过期时间
	s.cache.Set(id.UserId, entry)
	return entry.orch, nil
}

// Drop 登出: 重置并移除用户的 orchestrator
func (s *Sessions) Drop(userId string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if val, ok := s.cache.Get(userId); ok {
		entry := val.(*sessionEntry)
		entry.orch.Reset()
		entry.orch.Close()
	}
	s.cache.Del(userId)
}
