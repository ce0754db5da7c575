package types

import "flowforge/internal/constant"

// ChainTarget is one network the user must be onboarded onto.
type ChainTarget struct {
	Id      string `json:"id"`
	Name    string `json:"name"`
	ChainId int64  `json:"chainId"`
	Testnet bool   `json:"testnet"`
}

// ChainProgress is the per-chain onboarding state shown to the user.
type ChainProgress struct {
	WalletCreate  constant.StepStatus `json:"walletCreate"`
	ModuleSign    constant.StepStatus `json:"moduleSign"`
	ModuleEnable  constant.StepStatus `json:"moduleEnable"`
	ModuleVerify  constant.StepStatus `json:"moduleVerify"`
	Error         string              `json:"error,omitempty"`
	WalletAddress string              `json:"walletAddress,omitempty"`
}

// Step returns the status of a single step.
func (p ChainProgress) Step(step constant.Step) constant.StepStatus {
	switch step {
	case constant.StepWalletCreate:
		return p.WalletCreate
	case constant.StepModuleSign:
		return p.ModuleSign
	case constant.StepModuleEnable:
		return p.ModuleEnable
	case constant.StepModuleVerify:
		return p.ModuleVerify
	}
	return ""
}

// WithStep returns a copy of p with one step's status replaced.
func (p ChainProgress) WithStep(step constant.Step, status constant.StepStatus) ChainProgress {
	switch step {
	case constant.StepWalletCreate:
		p.WalletCreate = status
	case constant.StepModuleSign:
		p.ModuleSign = status
	case constant.StepModuleEnable:
		p.ModuleEnable = status
	case constant.StepModuleVerify:
		p.ModuleVerify = status
	}
	return p
}

// Complete reports whether the chain is fully onboarded.
func (p ChainProgress) Complete() bool {
	return p.ModuleVerify == constant.StatusSuccess
}

// UserRecord is the backend's coarse onboarding record for a user.
type UserRecord struct {
	UserId                   string `json:"userId"`
	PrimaryAddress           string `json:"primaryAddress"`
	SafeWalletAddressTestnet string `json:"safe_wallet_address_testnet,omitempty"`
	SafeWalletAddressMainnet string `json:"safe_wallet_address_mainnet,omitempty"`
}

// CreateWalletResult is the wallet backend's answer to a wallet creation request.
type CreateWalletResult struct {
	Success       bool
	WalletAddress string
	Error         string
}

// SignResult is the outcome of signing the enable-module transaction.
// An empty SafeTxHash on success means the module is already enabled.
type SignResult struct {
	Success    bool
	SafeTxHash string
	Error      string
}

// SubmitResult is the outcome of submitting the signed enable-module transaction.
type SubmitResult struct {
	Success bool
	TxHash  string
	Error   string
}

// OnboardingStatusResp is returned by every onboarding endpoint.
type OnboardingStatusResp struct {
	Ready           bool                     `json:"ready"`
	NeedsOnboarding bool                     `json:"needsOnboarding"`
	InProgress      bool                     `json:"inProgress"`
	SigningChain    string                   `json:"signingChain,omitempty"`
	Chains          []ChainTarget            `json:"chains"`
	Progress        map[string]ChainProgress `json:"progress"`
	// Started is set by run/retry: false means the request was a no-op.
	Started bool `json:"started"`
}

// RetryChainReq selects the chain to retry by stable id or numeric chain id.
type RetryChainReq struct {
	Chain string `json:"chain"`
}

// ChainListResp lists the configured chains in processing order.
type ChainListResp struct {
	Chains []ChainTarget `json:"chains"`
}
