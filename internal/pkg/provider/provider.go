// Package provider is the custodial wallet provider behind a user's primary
// address: it tracks which network the wallet is on and signs on its behalf.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"flowforge/internal/model"
	"flowforge/internal/pkg/chainreader"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/zeromicro/go-zero/core/logx"
)

var ErrKeyMismatch = errors.New("stored key does not match owner address")

// Provider switches networks and signs for one owner address.
type Provider struct {
	owner   common.Address
	keys    model.OwnerKeysDao
	clients chainreader.ClientSource

	mu     sync.Mutex
	active chainreader.Client
}

// New creates a provider for owner, signing with the key stored in keys.
func New(owner string, keys model.OwnerKeysDao, clients chainreader.ClientSource) *Provider {
	return &Provider{
		owner:   common.HexToAddress(owner),
		keys:    keys,
		clients: clients,
	}
}

// SwitchChain points the provider at chainId's RPC endpoint. The switch is
// observable through CurrentChainId once the endpoint answers for that chain.
func (p *Provider) SwitchChain(ctx context.Context, chainId int64) error {
	client, err := p.clients.Client(ctx, chainId)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.active = client
	p.mu.Unlock()
	logx.WithContext(ctx).Infof("provider for %s switched to chain %d", p.owner.Hex(), chainId)
	return nil
}

// CurrentChainId asks the active endpoint which chain it serves; 0 if none is active.
func (p *Provider) CurrentChainId(ctx context.Context) (int64, error) {
	p.mu.Lock()
	active := p.active
	p.mu.Unlock()

	if active == nil {
		return 0, nil
	}
	chainId, err := active.ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get chain id: %w", err)
	}
	return chainId.Int64(), nil
}

// SignHash signs a 32-byte hash with the owner key and returns a 65-byte
// signature with v in {27, 28}, as Safe expects for owner signatures.
func (p *Provider) SignHash(ctx context.Context, hash common.Hash) ([]byte, error) {
	record, err := p.keys.FindOneByAddress(ctx, p.owner.Hex())
	if err != nil {
		return nil, fmt.Errorf("failed to load owner key for %s: %w", p.owner.Hex(), err)
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(record.EncryptedPrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid owner key for %s: %w", p.owner.Hex(), err)
	}
	if crypto.PubkeyToAddress(privateKey.PublicKey) != p.owner {
		return nil, ErrKeyMismatch
	}

	sig, err := crypto.Sign(hash.Bytes(), privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}
