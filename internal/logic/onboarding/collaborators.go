package onboarding

import (
	"context"
	"errors"

	"flowforge/internal/types"
)

// ErrNoRecord 后端还没有该用户的记录, 不算失败: 这是新用户
var ErrNoRecord = errors.New("no user record")

type (
	// UserRecordFetcher 查询用户在后端的 onboarding 记录
	UserRecordFetcher interface {
		FetchUserRecord(ctx context.Context, userId string) (*types.UserRecord, error)
	}

	// WalletCreator 在指定链上为 owner 创建 (或返回已有的) Safe 钱包
	WalletCreator interface {
		CreateWallet(ctx context.Context, owner string, chainId int64) (*types.CreateWalletResult, error)
	}

	// ChainSwitcher 切换用户钱包所在的网络
	ChainSwitcher interface {
		SwitchChain(ctx context.Context, chainId int64) error
		// 尚未选中任何链时 CurrentChainId 返回 0
		CurrentChainId(ctx context.Context) (int64, error)
	}

	// ModuleSigner 签名并提交 enable-module 交易.
	// SubmitEnableModule 提交最近一次产生的签名.
	ModuleSigner interface {
		SignEnableModule(ctx context.Context, wallet string, chainId int64) (*types.SignResult, error)
		SubmitEnableModule(ctx context.Context) (*types.SubmitResult, error)
	}

	// ModuleReader 单次读取链上模块状态
	ModuleReader interface {
		IsModuleEnabled(ctx context.Context, wallet string, chainId int64) (bool, error)
	}

	// Deps 单个用户 orchestrator 的全部依赖
	Deps struct {
		Records  UserRecordFetcher
		Wallets  WalletCreator
		Switcher ChainSwitcher
		Signer   ModuleSigner
		Reader   ModuleReader
	}
)
