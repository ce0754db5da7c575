package onboarding

import (
	"flowforge/internal/constant"
	"flowforge/internal/types"
)

// DetermineRequiredChains 判断用户还有哪些链需要配置.
// record 为 nil 表示新用户: 所有链都需要, 全部 idle.
// 不需要的链直接填充为全部成功.
func DetermineRequiredChains(record *types.UserRecord, chains []types.ChainTarget) (bool, map[string]types.ChainProgress) {
	needs := false
	progress := make(map[string]types.ChainProgress, len(chains))
	for _, chain := range chains {
		if chainRequired(record, chain) {
			needs = true
			progress[chain.Id] = idleProgress()
		} else {
			progress[chain.Id] = completeProgress()
		}
	}
	return needs, progress
}

func chainRequired(record *types.UserRecord, chain types.ChainTarget) bool {
	if record == nil {
		return true
	}
	if chain.Testnet {
		return record.SafeWalletAddressTestnet == ""
	}
	return record.SafeWalletAddressMainnet == ""
}

func idleProgress() types.ChainProgress {
	return allSteps(constant.StatusIdle)
}

func completeProgress() types.ChainProgress {
	return allSteps(constant.StatusSuccess)
}

func allSteps(status constant.StepStatus) types.ChainProgress {
	return types.ChainProgress{
		WalletCreate: status,
		ModuleSign:   status,
		ModuleEnable: status,
		ModuleVerify: status,
	}
}
