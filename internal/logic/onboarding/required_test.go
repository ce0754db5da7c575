package onboarding

import (
	"testing"

	"flowforge/internal/types"

	"github.com/stretchr/testify/assert"
)

func TestDetermineRequiredChains(t *testing.T) {
	chains := []types.ChainTarget{sepolia, mainnet}

	tests := []struct {
		name      string
		record    *types.UserRecord
		wantNeeds bool
		wantIdle  []string
		wantDone  []string
	}{
		{
			name:      "brand new user",
			record:    nil,
			wantNeeds: true,
			wantIdle:  []string{"sepolia", "mainnet"},
		},
		{
			name:      "testnet wallet only",
			record:    &types.UserRecord{SafeWalletAddressTestnet: "0xabc"},
			wantNeeds: true,
			wantIdle:  []string{"mainnet"},
			wantDone:  []string{"sepolia"},
		},
		{
			name:      "mainnet wallet only",
			record:    &types.UserRecord{SafeWalletAddressMainnet: "0xabc"},
			wantNeeds: true,
			wantIdle:  []string{"sepolia"},
			wantDone:  []string{"mainnet"},
		},
		{
			name:      "both wallets",
			record:    &types.UserRecord{SafeWalletAddressTestnet: "0xabc", SafeWalletAddressMainnet: "0xdef"},
			wantNeeds: false,
			wantDone:  []string{"sepolia", "mainnet"},
		},
		{
			name:      "record without wallets",
			record:    &types.UserRecord{UserId: "user-1"},
			wantNeeds: true,
			wantIdle:  []string{"sepolia", "mainnet"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			needs, progress := DetermineRequiredChains(tt.record, chains)

			assert.Equal(t, tt.wantNeeds, needs)
			assert.Len(t, progress, len(chains))
			for _, id := range tt.wantIdle {
				assert.Equal(t, idleProgress(), progress[id], id)
			}
			for _, id := range tt.wantDone {
				assert.Equal(t, completeProgress(), progress[id], id)
			}
		})
	}
}

func TestDetermineRequiredChains_MainnetOnlyConfig(t *testing.T) {
	needs, progress := DetermineRequiredChains(
		&types.UserRecord{SafeWalletAddressMainnet: "0xabc"},
		[]types.ChainTarget{mainnet},
	)

	assert.False(t, needs)
	assert.Equal(t, completeProgress(), progress["mainnet"])
}
