package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/zeromicro/go-zero/rest"
)

// ChainConf describes one network a user must be onboarded onto.
type ChainConf struct {
	// Stable identifier, e.g. "sepolia".
	Id      string `json:"Id"`
	Name    string `json:"Name"`
	ChainId int64  `json:"ChainId"`
	Testnet bool   `json:"Testnet,optional"`
	RpcUrl  string `json:"RpcUrl"`
	// Address of the automation module that gets enabled on the user's Safe.
	ModuleAddress string `json:"ModuleAddress"`
}

// OnboardingConf tunes the chain-switch wait and the module verification retries.
type OnboardingConf struct {
	SwitchTimeout   time.Duration `json:",default=10s"`
	SwitchInterval  time.Duration `json:",default=100ms"`
	VerifyAttempts  int           `json:",default=3"`
	VerifyBaseDelay time.Duration `json:",default=2s"`
	VerifyGrowth    float64       `json:",default=1.5"`
	// Idle per-user sessions are dropped after this long.
	SessionExpiry time.Duration `json:",default=30m"`
}

type Config struct {
	rest.RestConf
	Postgres struct {
		DSN string
	}
	Auth struct {
		AccessSecret string
	}
	SafeApi struct {
		ApiUrl  string
		Timeout time.Duration `json:",default=30s"`
	}
	Onboarding OnboardingConf
	// Chains are processed in the order they are listed.
	Chains []ChainConf
}

// Validate checks the chain list for the mistakes that would otherwise only show up mid-run.
func (c Config) Validate() error {
	if len(c.Chains) == 0 {
		return errors.New("no chains configured")
	}

	ids := make(map[string]struct{}, len(c.Chains))
	chainIds := make(map[int64]struct{}, len(c.Chains))
	for i, chain := range c.Chains {
		if chain.Id == "" {
			return fmt.Errorf("chain #%d: missing Id", i)
		}
		if chain.ChainId <= 0 {
			return fmt.Errorf("chain %s: invalid ChainId %d", chain.Id, chain.ChainId)
		}
		if _, ok := ids[chain.Id]; ok {
			return fmt.Errorf("chain %s: duplicate Id", chain.Id)
		}
		if _, ok := chainIds[chain.ChainId]; ok {
			return fmt.Errorf("chain %s: duplicate ChainId %d", chain.Id, chain.ChainId)
		}
		// a numeric Id would be ambiguous with another chain's ChainId on lookup
		if _, err := strconv.ParseInt(chain.Id, 10, 64); err == nil {
			return fmt.Errorf("chain %s: Id must not be numeric", chain.Id)
		}
		if !common.IsHexAddress(chain.ModuleAddress) {
			return fmt.Errorf("chain %s: invalid ModuleAddress %q", chain.Id, chain.ModuleAddress)
		}
		ids[chain.Id] = struct{}{}
		chainIds[chain.ChainId] = struct{}{}
	}

	if c.Onboarding.VerifyAttempts < 1 {
		return errors.New("onboarding verify attempts must be at least 1")
	}
	return nil
}

