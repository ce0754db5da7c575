package onboarding

import (
	"context"
	"errors"
	"sync"
	"time"

	"flowforge/internal/pkg/retry"
	"flowforge/internal/types"
)

var (
	sepolia = types.ChainTarget{Id: "sepolia", Name: "Sepolia", ChainId: 11155111, Testnet: true}
	mainnet = types.ChainTarget{Id: "mainnet", Name: "Ethereum", ChainId: 1, Testnet: false}
)

const owner = "0x1111111111111111111111111111111111111111"

type fakeRecords struct {
	mu     sync.Mutex
	record *types.UserRecord
	err    error
	calls  int
}

func (f *fakeRecords) FetchUserRecord(context.Context, string) (*types.UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.record == nil {
		return nil, ErrNoRecord
	}
	r := *f.record
	return &r, nil
}

type fakeWallets struct {
	mu      sync.Mutex
	results map[int64]*types.CreateWalletResult
	errs    map[int64]error
	calls   []int64

	// onCreate 在 CreateWallet 返回前调用
	onCreate func()
}

func (f *fakeWallets) CreateWallet(_ context.Context, _ string, chainId int64) (*types.CreateWalletResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, chainId)
	if f.onCreate != nil {
		f.onCreate()
	}
	if err := f.errs[chainId]; err != nil {
		return nil, err
	}
	if res, ok := f.results[chainId]; ok {
		return res, nil
	}
	return &types.CreateWalletResult{Success: true, WalletAddress: walletFor(chainId)}, nil
}

func walletFor(chainId int64) string {
	if chainId == 1 {
		return "0x000000000000000000000000000000000000aaaa"
	}
	return "0x000000000000000000000000000000000000bbbb"
}

type fakeSwitcher struct {
	mu      sync.Mutex
	current int64
	// stuck 为 true 时无论请求哪条链都停在当前链
	stuck     bool
	switchErr error
	onSwitch  func()
}

func (f *fakeSwitcher) SwitchChain(_ context.Context, chainId int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onSwitch != nil {
		f.onSwitch()
	}
	if f.switchErr != nil {
		return f.switchErr
	}
	if !f.stuck {
		f.current = chainId
	}
	return nil
}

func (f *fakeSwitcher) CurrentChainId(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current, nil
}

type fakeSigner struct {
	mu          sync.Mutex
	signResults map[int64]*types.SignResult
	signErr     error
	submitRes   *types.SubmitResult
	submitErr   error
	signCalls   []int64
	submitCalls int
	panicOnSign bool
	// signingSeen 签名时观察到的签名槽持有者
	slot        *SigningSlot
	signingSeen []string
}

func (f *fakeSigner) SignEnableModule(_ context.Context, _ string, chainId int64) (*types.SignResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signCalls = append(f.signCalls, chainId)
	if f.slot != nil {
		f.signingSeen = append(f.signingSeen, f.slot.Holder())
	}
	if f.panicOnSign {
		panic("wallet provider crashed")
	}
	if f.signErr != nil {
		return nil, f.signErr
	}
	if res, ok := f.signResults[chainId]; ok {
		return res, nil
	}
	return &types.SignResult{Success: true, SafeTxHash: "0xsafetx"}, nil
}

func (f *fakeSigner) SubmitEnableModule(context.Context) (*types.SubmitResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitCalls++
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	if f.submitRes != nil {
		return f.submitRes, nil
	}
	return &types.SubmitResult{Success: true, TxHash: "0xtx"}, nil
}

type readAnswer struct {
	enabled bool
	err     error
}

type fakeReader struct {
	mu      sync.Mutex
	answers []readAnswer
	calls   int
}

// IsModuleEnabled 按顺序回放 answers, 用完后重复最后一个
func (f *fakeReader) IsModuleEnabled(context.Context, string, int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.answers) == 0 {
		return true, nil
	}
	i := f.calls - 1
	if i >= len(f.answers) {
		i = len(f.answers) - 1
	}
	return f.answers[i].enabled, f.answers[i].err
}

type fixture struct {
	records  *fakeRecords
	wallets  *fakeWallets
	switcher *fakeSwitcher
	signer   *fakeSigner
	reader   *fakeReader
}

func newFixture() *fixture {
	return &fixture{
		records:  &fakeRecords{},
		wallets:  &fakeWallets{},
		switcher: &fakeSwitcher{},
		signer:   &fakeSigner{},
		reader:   &fakeReader{},
	}
}

func testOptions() Options {
	return Options{
		SwitchTimeout:  50 * time.Millisecond,
		SwitchInterval: time.Millisecond,
		Verify:         retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, Growth: 1.5},
	}
}

func (f *fixture) orchestrator(chains ...types.ChainTarget) *Orchestrator {
	o := New("user-1", owner, chains, Deps{
		Records:  f.records,
		Wallets:  f.wallets,
		Switcher: f.switcher,
		Signer:   f.signer,
		Reader:   f.reader,
	}, testOptions())
	f.signer.slot = o.slot
	return o
}

var errNetwork = errors.New("connection refused")
