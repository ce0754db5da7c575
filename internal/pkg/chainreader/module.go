package chainreader

import (
	"context"
	"fmt"
	"strings"

	"flowforge/internal/config"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const safeModuleABI = `[{"inputs":[{"internalType":"address","name":"module","type":"address"}],"name":"isModuleEnabled","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"view","type":"function"}]`

const methodIsModuleEnabled = "isModuleEnabled"

// ClientSource hands out RPC clients per chain.
type ClientSource interface {
	Client(ctx context.Context, chainId int64) (Client, error)
}

// ModuleReader checks whether the automation module is enabled on a Safe.
type ModuleReader struct {
	clients ClientSource
	modules map[int64]common.Address
	abi     abi.ABI
}

// NewModuleReader creates a reader that checks each chain's configured module.
func NewModuleReader(clients ClientSource, chains []config.ChainConf) (*ModuleReader, error) {
	parsed, err := abi.JSON(strings.NewReader(safeModuleABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse Safe ABI: %w", err)
	}

	modules := make(map[int64]common.Address, len(chains))
	for _, chain := range chains {
		modules[chain.ChainId] = common.HexToAddress(chain.ModuleAddress)
	}
	return &ModuleReader{
		clients: clients,
		modules: modules,
		abi:     parsed,
	}, nil
}

// IsModuleEnabled performs one eth_call of Safe.isModuleEnabled at the latest block.
// A wallet without code yet reads as not enabled.
func (r *ModuleReader) IsModuleEnabled(ctx context.Context, wallet string, chainId int64) (bool, error) {
	module, ok := r.modules[chainId]
	if !ok {
		return false, fmt.Errorf("unsupported chain: %d", chainId)
	}
	if !common.IsHexAddress(wallet) {
		return false, fmt.Errorf("invalid wallet address: %s", wallet)
	}

	client, err := r.clients.Client(ctx, chainId)
	if err != nil {
		return false, err
	}

	data, err := r.abi.Pack(methodIsModuleEnabled, module)
	if err != nil {
		return false, fmt.Errorf("failed to pack %s: %w", methodIsModuleEnabled, err)
	}

	safe := common.HexToAddress(wallet)
	out, err := client.CallContract(ctx, ethereum.CallMsg{To: &safe, Data: data}, nil)
	if err != nil {
		return false, fmt.Errorf("failed to call %s: %w", methodIsModuleEnabled, err)
	}
	if len(out) == 0 {
		return false, nil
	}

	res, err := r.abi.Unpack(methodIsModuleEnabled, out)
	if err != nil {
		return false, fmt.Errorf("failed to unpack %s: %w", methodIsModuleEnabled, err)
	}
	enabled, ok := res[0].(bool)
	if !ok {
		return false, fmt.Errorf("unexpected %s result type %T", methodIsModuleEnabled, res[0])
	}
	return enabled, nil
}
