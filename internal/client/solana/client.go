// Package solana is a minimal JSON-RPC client for the one chain call the
// orchestrator needs directly: the wallet's SOL balance.
package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/mr-tron/base58"
	"github.com/shopspring/decimal"
)

const lamportsPerSol = 1_000_000_000

type Client struct {
	endpoint   string
	wallet     string
	httpClient *http.Client
	requestID  atomic.Uint64
}

// NewClient validates the wallet address (base58, 32 bytes) up front so a
// typoed pubkey fails at start instead of on the first balance poll.
func NewClient(httpClient *http.Client, endpoint, wallet string) (*Client, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if wallet != "" {
		raw, err := base58.Decode(wallet)
		if err != nil {
			return nil, fmt.Errorf("invalid wallet address: %w", err)
		}
		if len(raw) != 32 {
			return nil, fmt.Errorf("invalid wallet address: expected 32 bytes, got %d", len(raw))
		}
	}
	return &Client{endpoint: endpoint, wallet: wallet, httpClient: httpClient}, nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type balanceResponse struct {
	Result struct {
		Value uint64 `json:"value"`
	} `json:"result"`
	Error *rpcError `json:"error"`
}

func (c *Client) Balance(ctx context.Context) (decimal.Decimal, error) {
	if c.wallet == "" {
		return decimal.Zero, nil
	}
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  "getBalance",
		Params:  []any{c.wallet},
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("encode rpc request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("rpc status %d: %s", resp.StatusCode, string(body))
	}
	var out balanceResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return decimal.Zero, fmt.Errorf("decode rpc response: %w", err)
	}
	if out.Error != nil {
		return decimal.Zero, fmt.Errorf("rpc error %d: %s", out.Error.Code, out.Error.Message)
	}
	return decimal.New(int64(out.Result.Value), 0).Div(decimal.New(lamportsPerSol, 0)), nil
}
