package onboarding

import (
	"errors"
	"sync"
)

// ErrSlotBusy 签名槽已被另一条链占用
var ErrSlotBusy = errors.New("another chain is waiting for a signature")

// SigningSlot 面向用户的唯一签名提示, 同一时间最多一条链持有
type SigningSlot struct {
	mu     sync.Mutex
	holder string
}

// Acquire 为 chainId 占用签名槽, 返回的 release 可重复调用
func (s *SigningSlot) Acquire(chainId string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.holder != "" {
		return nil, ErrSlotBusy
	}
	s.holder = chainId

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.holder = ""
			s.mu.Unlock()
		})
	}, nil
}

// Holder 当前持有签名槽的链, 没有则为 ""
func (s *SigningSlot) Holder() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.holder
}
