package constant

// StepStatus is the state of a single onboarding step for one chain.
type StepStatus string

const (
	StatusIdle    StepStatus = "idle"
	StatusPending StepStatus = "pending"
	StatusSuccess StepStatus = "success"
	StatusError   StepStatus = "error"
)

// Step names, in the order they run for a chain.
type Step string

const (
	StepWalletCreate Step = "wallet_create"
	StepModuleSign   Step = "module_sign"
	StepModuleEnable Step = "module_enable"
	StepModuleVerify Step = "module_verify"
)

// Steps lists every step in execution order.
var Steps = []Step{
	StepWalletCreate,
	StepModuleSign,
	StepModuleEnable,
	StepModuleVerify,
}

const (
	ErrMsgModuleNotEnabled   = "module not enabled after transaction"
	ErrMsgWalletCreateFailed = "failed to create wallet"
	ErrMsgSignFailed         = "failed to sign enable module transaction"
	ErrMsgSubmitFailed       = "failed to submit enable module transaction"
)
