// Package gateway defines the external collaborators of the orchestrator:
// market data, reasoning, swap execution, and wallet balance. Concrete
// implementations live under internal/client.
package gateway

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Token is the normalized market-data view of a tradable token.
type Token struct {
	Address     string          `json:"address"`
	Symbol      string          `json:"symbol"`
	Name        string          `json:"name"`
	Mcap        float64         `json:"mcap"`
	Price       decimal.Decimal `json:"price"`
	PriceChange PriceChange     `json:"priceChange"`
	Volume24h   float64         `json:"volume24h"`
	Liquidity   float64         `json:"liquidity"`
	Txns24h     Txns            `json:"txns24h"`
	FDV         float64         `json:"fdv"`
	CreatedAt   time.Time       `json:"createdAt"`
	DexID       string          `json:"dexId"`
}

type PriceChange struct {
	M5  float64 `json:"m5"`
	H1  float64 `json:"h1"`
	H24 float64 `json:"h24"`
}

type Txns struct {
	Buys  int `json:"buys"`
	Sells int `json:"sells"`
}

type MarketDataGateway interface {
	Trending(ctx context.Context) ([]Token, error)
	NewPairs(ctx context.Context, minLiquidity float64) ([]Token, error)
	ByAddress(ctx context.Context, address string) (*Token, error)
	Search(ctx context.Context, query string) ([]Token, error)
}

// Signal classifies a scored token.
type Signal string

const (
	SignalBuy   Signal = "BUY"
	SignalWatch Signal = "WATCH"
	SignalSkip  Signal = "SKIP"
	SignalRisky Signal = "RISKY"
)

type ScoreResult struct {
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
	Signal    Signal  `json:"signal"`
}

type NarrativeResult struct {
	Name   string   `json:"name"`
	Score  float64  `json:"score"`
	Trend  string   `json:"trend"`
	Tokens []string `json:"tokens"`
}

// ReasoningGateway scores tokens and clusters narratives. Malformed model
// output degrades to a neutral sentinel, never an error; only transport
// failures surface as errors.
type ReasoningGateway interface {
	Score(ctx context.Context, prompt string) (ScoreResult, error)
	NarrativeAnalysis(ctx context.Context, summary string) ([]NarrativeResult, error)
}

type TradeResult struct {
	Success      bool            `json:"success"`
	TxHash       string          `json:"txHash,omitempty"`
	Error        string          `json:"error,omitempty"`
	InputAmount  decimal.Decimal `json:"inputAmount"`
	OutputAmount decimal.Decimal `json:"outputAmount"`
	Price        decimal.Decimal `json:"price"`
	Timestamp    time.Time       `json:"timestamp"`
}

// SwapGateway executes swaps through an external aggregator. Routing and
// transaction construction are the aggregator's problem.
type SwapGateway interface {
	Buy(ctx context.Context, tokenAddress string, solAmount decimal.Decimal, slippageBps int) (TradeResult, error)
	Sell(ctx context.Context, tokenAddress string, tokenAmount decimal.Decimal, decimals int, slippageBps int) (TradeResult, error)
}

type WalletGateway interface {
	// Balance returns the wallet's spendable SOL balance.
	Balance(ctx context.Context) (decimal.Decimal, error)
}
