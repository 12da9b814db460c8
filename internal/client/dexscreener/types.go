package dexscreener

import (
	"time"

	"github.com/shopspring/decimal"

	"swarm/internal/gateway"
)

type pairsResponse struct {
	Pairs []pair `json:"pairs"`
}

type pair struct {
	ChainID   string `json:"chainId"`
	DexID     string `json:"dexId"`
	BaseToken struct {
		Address string `json:"address"`
		Name    string `json:"name"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	PriceUsd    string `json:"priceUsd"`
	PriceChange struct {
		M5  float64 `json:"m5"`
		H1  float64 `json:"h1"`
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
	Volume struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	Liquidity struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	Txns struct {
		H24 struct {
			Buys  int `json:"buys"`
			Sells int `json:"sells"`
		} `json:"h24"`
	} `json:"txns"`
	FDV           float64 `json:"fdv"`
	MarketCap     float64 `json:"marketCap"`
	PairCreatedAt int64   `json:"pairCreatedAt"`
}

type boostedToken struct {
	ChainID      string `json:"chainId"`
	TokenAddress string `json:"tokenAddress"`
}

type tokenProfile struct {
	ChainID      string `json:"chainId"`
	TokenAddress string `json:"tokenAddress"`
}

func (p pair) toToken() gateway.Token {
	price, err := decimal.NewFromString(p.PriceUsd)
	if err != nil {
		price = decimal.Zero
	}
	mcap := p.MarketCap
	if mcap == 0 {
		mcap = p.FDV
	}
	var createdAt time.Time
	if p.PairCreatedAt > 0 {
		createdAt = time.UnixMilli(p.PairCreatedAt).UTC()
	}
	return gateway.Token{
		Address: p.BaseToken.Address,
		Symbol:  p.BaseToken.Symbol,
		Name:    p.BaseToken.Name,
		Mcap:    mcap,
		Price:   price,
		PriceChange: gateway.PriceChange{
			M5:  p.PriceChange.M5,
			H1:  p.PriceChange.H1,
			H24: p.PriceChange.H24,
		},
		Volume24h: p.Volume.H24,
		Liquidity: p.Liquidity.USD,
		Txns24h: gateway.Txns{
			Buys:  p.Txns.H24.Buys,
			Sells: p.Txns.H24.Sells,
		},
		FDV:       p.FDV,
		CreatedAt: createdAt,
		DexID:     p.DexID,
	}
}
