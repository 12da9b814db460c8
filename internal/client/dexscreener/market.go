package dexscreener

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"swarm/internal/gateway"
)

// Trending returns the currently boosted Solana tokens resolved to pair data,
// best liquidity pair per token, sorted by 24h volume.
func (c *Client) Trending(ctx context.Context) ([]gateway.Token, error) {
	body, err := c.doRequest(ctx, "/token-boosts/top/v1", nil)
	if err != nil {
		return nil, err
	}
	var boosts []boostedToken
	if err := json.Unmarshal(body, &boosts); err != nil {
		return nil, fmt.Errorf("decode boosted tokens: %w", err)
	}
	addrs := make([]string, 0, maxAddressBatch)
	for _, b := range boosts {
		if b.ChainID != chainSolana || b.TokenAddress == "" {
			continue
		}
		addrs = append(addrs, b.TokenAddress)
		if len(addrs) == maxAddressBatch {
			break
		}
	}
	tokens, err := c.resolvePairs(ctx, addrs)
	if err != nil {
		return nil, err
	}
	sort.Slice(tokens, func(i, j int) bool {
		return tokens[i].Volume24h > tokens[j].Volume24h
	})
	return tokens, nil
}

// NewPairs returns recently profiled Solana tokens with at least minLiquidity
// USD of pooled liquidity.
func (c *Client) NewPairs(ctx context.Context, minLiquidity float64) ([]gateway.Token, error) {
	body, err := c.doRequest(ctx, "/token-profiles/latest/v1", nil)
	if err != nil {
		return nil, err
	}
	var profiles []tokenProfile
	if err := json.Unmarshal(body, &profiles); err != nil {
		return nil, fmt.Errorf("decode token profiles: %w", err)
	}
	addrs := make([]string, 0, maxAddressBatch)
	for _, p := range profiles {
		if p.ChainID != chainSolana || p.TokenAddress == "" {
			continue
		}
		addrs = append(addrs, p.TokenAddress)
		if len(addrs) == maxAddressBatch {
			break
		}
	}
	tokens, err := c.resolvePairs(ctx, addrs)
	if err != nil {
		return nil, err
	}
	out := tokens[:0]
	for _, t := range tokens {
		if t.Liquidity >= minLiquidity {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (c *Client) ByAddress(ctx context.Context, address string) (*gateway.Token, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, fmt.Errorf("address is required")
	}
	tokens, err := c.resolvePairs(ctx, []string{address})
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}
	return &tokens[0], nil
}

func (c *Client) Search(ctx context.Context, query string) ([]gateway.Token, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	q := url.Values{}
	q.Set("q", query)
	body, err := c.doRequest(ctx, "/latest/dex/search", q)
	if err != nil {
		return nil, err
	}
	var resp pairsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return bestPairPerToken(resp.Pairs), nil
}

// resolvePairs fetches pair data for up to 30 addresses per request and keeps
// the deepest pool per base token.
func (c *Client) resolvePairs(ctx context.Context, addrs []string) ([]gateway.Token, error) {
	if len(addrs) == 0 {
		return nil, nil
	}
	var all []pair
	for start := 0; start < len(addrs); start += maxAddressBatch {
		end := start + maxAddressBatch
		if end > len(addrs) {
			end = len(addrs)
		}
		body, err := c.doRequest(ctx, "/latest/dex/tokens/"+strings.Join(addrs[start:end], ","), nil)
		if err != nil {
			return nil, err
		}
		var resp pairsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("decode token pairs: %w", err)
		}
		all = append(all, resp.Pairs...)
	}
	return bestPairPerToken(all), nil
}

func bestPairPerToken(pairs []pair) []gateway.Token {
	best := map[string]pair{}
	order := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.ChainID != chainSolana || p.BaseToken.Address == "" {
			continue
		}
		prev, ok := best[p.BaseToken.Address]
		if !ok {
			order = append(order, p.BaseToken.Address)
			best[p.BaseToken.Address] = p
			continue
		}
		if p.Liquidity.USD > prev.Liquidity.USD {
			best[p.BaseToken.Address] = p
		}
	}
	out := make([]gateway.Token, 0, len(order))
	for _, addr := range order {
		out = append(out, best[addr].toToken())
	}
	return out
}
