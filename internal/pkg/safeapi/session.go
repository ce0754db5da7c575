package safeapi

import (
	"context"
	"sync"

	"flowforge/internal/types"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/zeromicro/go-zero/core/logx"
)

const errMsgNothingToSubmit = "no signed transaction to submit"

// Signer signs a Safe transaction hash on behalf of the wallet owner.
type Signer interface {
	SignHash(ctx context.Context, hash common.Hash) ([]byte, error)
}

type signedTx struct {
	safeAddress string
	chainId     int64
	safeTxHash  string
	signature   string
}

// Session is the backend as seen by one user: it forwards the user's access
// token and remembers the most recent signature until it is submitted.
type Session struct {
	client *Client
	signer Signer

	mu      sync.Mutex
	token   string
	pending *signedTx
}

// ForUser binds the client to a user's access token and signer.
func (c *Client) ForUser(token string, signer Signer) *Session {
	return &Session{
		client: c,
		signer: signer,
		token:  token,
	}
}

// SetToken replaces the forwarded access token, e.g. after a refresh.
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

func (s *Session) authorization() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return "Bearer " + s.token
}

// CreateWallet asks the backend to deploy (or return) the owner's Safe on chainId.
func (s *Session) CreateWallet(ctx context.Context, owner string, chainId int64) (*types.CreateWalletResult, error) {
	env, err := post[createSafeData](ctx, s.client, pathCreateSafe, createSafeReq{
		Authorization: s.authorization(),
		OwnerAddress:  owner,
		ChainId:       chainId,
	})
	if err != nil {
		return nil, err
	}

	res := &types.CreateWalletResult{Success: env.Success, Error: env.Error}
	if env.Data != nil {
		res.WalletAddress = env.Data.SafeAddress
	}
	return res, nil
}

// SignEnableModule prepares the enable-module Safe transaction and signs its
// hash. A successful result with an empty SafeTxHash means the module is
// already enabled and there is nothing to submit.
func (s *Session) SignEnableModule(ctx context.Context, wallet string, chainId int64) (*types.SignResult, error) {
	env, err := post[prepareData](ctx, s.client, pathPrepareEnableModule, prepareReq{
		Authorization: s.authorization(),
		SafeAddress:   wallet,
		ChainId:       chainId,
	})
	if err != nil {
		return nil, err
	}
	if !env.Success {
		return &types.SignResult{Error: env.Error}, nil
	}
	if env.Data == nil || env.Data.AlreadyEnabled || env.Data.SafeTxHash == "" {
		s.setPending(nil)
		return &types.SignResult{Success: true}, nil
	}

	hash, err := hexutil.Decode(env.Data.SafeTxHash)
	if err != nil || len(hash) != common.HashLength {
		return &types.SignResult{Error: "invalid safe tx hash: " + env.Data.SafeTxHash}, nil
	}

	sig, err := s.signer.SignHash(ctx, common.BytesToHash(hash))
	if err != nil {
		return &types.SignResult{Error: err.Error()}, nil
	}

	s.setPending(&signedTx{
		safeAddress: wallet,
		chainId:     chainId,
		safeTxHash:  env.Data.SafeTxHash,
		signature:   hexutil.Encode(sig),
	})
	logx.WithContext(ctx).Infof("enable module signed for %s on chain %d, safeTxHash: %s", wallet, chainId, env.Data.SafeTxHash)
	return &types.SignResult{Success: true, SafeTxHash: env.Data.SafeTxHash}, nil
}

// SubmitEnableModule relays the most recently signed transaction.
func (s *Session) SubmitEnableModule(ctx context.Context) (*types.SubmitResult, error) {
	s.mu.Lock()
	pending := s.pending
	s.mu.Unlock()
	if pending == nil {
		return &types.SubmitResult{Error: errMsgNothingToSubmit}, nil
	}

	env, err := post[submitData](ctx, s.client, pathSubmitEnableModule, submitReq{
		Authorization: s.authorization(),
		SafeAddress:   pending.safeAddress,
		ChainId:       pending.chainId,
		SafeTxHash:    pending.safeTxHash,
		Signature:     pending.signature,
	})
	if err != nil {
		return nil, err
	}

	res := &types.SubmitResult{Success: env.Success, Error: env.Error}
	if env.Data != nil {
		res.TxHash = env.Data.TxHash
	}
	if res.Success {
		s.setPending(nil)
	}
	return res, nil
}

func (s *Session) setPending(tx *signedTx) {
	s.mu.Lock()
	s.pending = tx
	s.mu.Unlock()
}

