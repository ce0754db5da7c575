// Package safeapi talks to the wallet backend that deploys Safe wallets and
// relays enable-module transactions.
package safeapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest/httpc"
)

const (
	pathCreateSafe          = "/safe/create"
	pathPrepareEnableModule = "/safe/enable-module/prepare"
	pathSubmitEnableModule  = "/safe/enable-module/submit"
)

// envelope is the backend's response shape: {success, data, error}.
type envelope[T any] struct {
	Success bool   `json:"success,optional"`
	Data    *T     `json:"data,optional"`
	Error   string `json:"error,optional"`
}

type (
	createSafeReq struct {
		Authorization string `header:"Authorization"`
		OwnerAddress  string `json:"ownerAddress"`
		ChainId       int64  `json:"chainId"`
	}

	createSafeData struct {
		SafeAddress string `json:"safeAddress,optional"`
	}

	prepareReq struct {
		Authorization string `header:"Authorization"`
		SafeAddress   string `json:"safeAddress"`
		ChainId       int64  `json:"chainId"`
	}

	prepareData struct {
		SafeTxHash     string `json:"safeTxHash,optional"`
		AlreadyEnabled bool   `json:"alreadyEnabled,optional"`
	}

	submitReq struct {
		Authorization string `header:"Authorization"`
		SafeAddress   string `json:"safeAddress"`
		ChainId       int64  `json:"chainId"`
		SafeTxHash    string `json:"safeTxHash"`
		Signature     string `json:"signature"`
	}

	submitData struct {
		TxHash string `json:"txHash,optional"`
	}
)

// Client is a thin wrapper over the wallet backend's REST API.
type Client struct {
	apiUrl  string
	timeout time.Duration
}

// NewClient creates a client for the backend rooted at apiUrl.
func NewClient(apiUrl string, timeout time.Duration) *Client {
	return &Client{
		apiUrl:  strings.TrimSuffix(apiUrl, "/"),
		timeout: timeout,
	}
}

func post[T any](ctx context.Context, c *Client, path string, req any) (*envelope[T], error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	url := c.apiUrl + path
	resp, err := httpc.Do(ctx, http.MethodPost, url, req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	var env envelope[T]
	if err := httpc.Parse(resp, &env); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%s returned status %d", path, resp.StatusCode)
		}
		return nil, fmt.Errorf("failed to parse %s response: %w", path, err)
	}
	if !env.Success && env.Error == "" && resp.StatusCode != http.StatusOK {
		env.Error = fmt.Sprintf("%s returned status %d", path, resp.StatusCode)
	}

	logx.WithContext(ctx).Infof("safe api %s: success=%t", path, env.Success)
	return &env, nil
}
