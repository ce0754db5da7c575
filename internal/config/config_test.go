package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/conf"
)

const moduleAddr = "0x0000000000000000000000000000000000000001"

func validConfig() Config {
	var c Config
	c.Onboarding.VerifyAttempts = 3
	c.Chains = []ChainConf{
		{Id: "sepolia", Name: "Sepolia", ChainId: 11155111, Testnet: true, ModuleAddress: moduleAddr},
		{Id: "mainnet", Name: "Ethereum", ChainId: 1, ModuleAddress: moduleAddr},
	}
	return c
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "no chains",
			mutate:  func(c *Config) { c.Chains = nil },
			wantErr: "no chains configured",
		},
		{
			name:    "missing id",
			mutate:  func(c *Config) { c.Chains[1].Id = "" },
			wantErr: "chain #1: missing Id",
		},
		{
			name:    "bad chain id",
			mutate:  func(c *Config) { c.Chains[0].ChainId = 0 },
			wantErr: "invalid ChainId",
		},
		{
			name:    "duplicate id",
			mutate:  func(c *Config) { c.Chains[1].Id = "sepolia" },
			wantErr: "duplicate Id",
		},
		{
			name:    "duplicate chain id",
			mutate:  func(c *Config) { c.Chains[1].ChainId = 11155111 },
			wantErr: "duplicate ChainId",
		},
		{
			name:    "numeric id",
			mutate:  func(c *Config) { c.Chains[1].Id = "137" },
			wantErr: "must not be numeric",
		},
		{
			name:    "bad module address",
			mutate:  func(c *Config) { c.Chains[0].ModuleAddress = "0x1234" },
			wantErr: "invalid ModuleAddress",
		},
		{
			name:    "zero verify attempts",
			mutate:  func(c *Config) { c.Onboarding.VerifyAttempts = 0 },
			wantErr: "verify attempts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadSampleConfig(t *testing.T) {
	var c Config
	require.NoError(t, conf.Load("../../etc/flowforge.yaml", &c))
	require.NoError(t, c.Validate())

	require.Len(t, c.Chains, 2)
	assert.Equal(t, "sepolia", c.Chains[0].Id)
	assert.True(t, c.Chains[0].Testnet)
	assert.False(t, c.Chains[1].Testnet)
	assert.Equal(t, 10*time.Second, c.Onboarding.SwitchTimeout)
	assert.Equal(t, 1.5, c.Onboarding.VerifyGrowth)
	assert.Equal(t, 30*time.Minute, c.Onboarding.SessionExpiry)
	assert.Equal(t, 30*time.Second, c.SafeApi.Timeout)
}
