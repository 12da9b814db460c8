// Package swapapi implements the swap gateway against the aggregator
// execution service, which owns routing, transaction construction, and
// signing. This process only submits intents and records outcomes.
package swapapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"swarm/internal/gateway"
)

type Client struct {
	host       string
	wallet     string
	httpClient *http.Client
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("swap API error (%d): %s", e.Status, e.Body)
}

func NewClient(httpClient *http.Client, host, wallet string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		host:       strings.TrimRight(host, "/"),
		wallet:     wallet,
		httpClient: httpClient,
	}
}

type swapRequest struct {
	ClientID     string          `json:"clientId"`
	Side         string          `json:"side"`
	TokenAddress string          `json:"tokenAddress"`
	SolAmount    decimal.Decimal `json:"solAmount,omitempty"`
	TokenAmount  decimal.Decimal `json:"tokenAmount,omitempty"`
	Decimals     int             `json:"decimals,omitempty"`
	SlippageBps  int             `json:"slippageBps"`
	Wallet       string          `json:"wallet"`
}

type swapResponse struct {
	Success      bool            `json:"success"`
	TxHash       string          `json:"txHash"`
	Error        string          `json:"error"`
	InputAmount  decimal.Decimal `json:"inputAmount"`
	OutputAmount decimal.Decimal `json:"outputAmount"`
	Price        decimal.Decimal `json:"price"`
}

func (c *Client) Buy(ctx context.Context, tokenAddress string, solAmount decimal.Decimal, slippageBps int) (gateway.TradeResult, error) {
	return c.swap(ctx, swapRequest{
		ClientID:     uuid.NewString(),
		Side:         "buy",
		TokenAddress: tokenAddress,
		SolAmount:    solAmount,
		SlippageBps:  slippageBps,
		Wallet:       c.wallet,
	})
}

func (c *Client) Sell(ctx context.Context, tokenAddress string, tokenAmount decimal.Decimal, decimals int, slippageBps int) (gateway.TradeResult, error) {
	return c.swap(ctx, swapRequest{
		ClientID:     uuid.NewString(),
		Side:         "sell",
		TokenAddress: tokenAddress,
		TokenAmount:  tokenAmount,
		Decimals:     decimals,
		SlippageBps:  slippageBps,
		Wallet:       c.wallet,
	})
}

func (c *Client) swap(ctx context.Context, in swapRequest) (gateway.TradeResult, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return gateway.TradeResult{}, fmt.Errorf("encode swap request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/swap", bytes.NewReader(payload))
	if err != nil {
		return gateway.TradeResult{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return gateway.TradeResult{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gateway.TradeResult{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return gateway.TradeResult{}, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	var out swapResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return gateway.TradeResult{}, fmt.Errorf("decode swap response: %w", err)
	}
	return gateway.TradeResult{
		Success:      out.Success,
		TxHash:       out.TxHash,
		Error:        out.Error,
		InputAmount:  out.InputAmount,
		OutputAmount: out.OutputAmount,
		Price:        out.Price,
		Timestamp:    time.Now().UTC(),
	}, nil
}
