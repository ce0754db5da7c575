package chainreader

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"flowforge/internal/config"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/zeromicro/go-zero/core/logx"
)

// Client is the subset of *ethclient.Client the onboarding flow reads through.
type Client interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	Close()
}

// DialFunc connects to an RPC endpoint.
type DialFunc func(ctx context.Context, rpcUrl string) (Client, error)

func dialEth(ctx context.Context, rpcUrl string) (Client, error) {
	client, err := ethclient.DialContext(ctx, rpcUrl)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Pool keeps one lazily dialed RPC client per configured chain.
type Pool struct {
	mu      sync.Mutex
	rpcUrls map[int64]string
	clients map[int64]Client
	dial    DialFunc
}

// NewPool creates a pool over the configured chains' RPC endpoints.
func NewPool(chains []config.ChainConf) *Pool {
	return NewPoolWithDialer(chains, dialEth)
}

// NewPoolWithDialer is NewPool with a custom dialer.
func NewPoolWithDialer(chains []config.ChainConf, dial DialFunc) *Pool {
	rpcUrls := make(map[int64]string, len(chains))
	for _, chain := range chains {
		rpcUrls[chain.ChainId] = chain.RpcUrl
	}
	return &Pool{
		rpcUrls: rpcUrls,
		clients: make(map[int64]Client),
		dial:    dial,
	}
}

// Client returns the RPC client for chainId, dialing it on first use.
func (p *Pool) Client(ctx context.Context, chainId int64) (Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if client, ok := p.clients[chainId]; ok {
		return client, nil
	}
	rpcUrl, ok := p.rpcUrls[chainId]
	if !ok {
		return nil, fmt.Errorf("unsupported chain: %d", chainId)
	}

	client, err := p.dial(ctx, rpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chain %d: %w", chainId, err)
	}
	logx.WithContext(ctx).Infof("RPC client connected for chain %d", chainId)
	p.clients[chainId] = client
	return client, nil
}

// Close closes every dialed client.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for chainId, client := range p.clients {
		client.Close()
		delete(p.clients, chainId)
	}
}
