package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"swarm/internal/gateway"
	"swarm/internal/models"
	"swarm/internal/repository"
)

// summaryTokenCap bounds the text sent to the reasoning gateway.
const summaryTokenCap = 30

// NarrativeScanner clusters the current market into named narratives and
// wholesale-replaces the narrative table each cycle.
type NarrativeScanner struct {
	Repo      repository.Repository
	Market    gateway.MarketDataGateway
	Reasoning gateway.ReasoningGateway
	Logger    *zap.Logger
}

func (s *NarrativeScanner) Scan(ctx context.Context) error {
	trending, err := s.Market.Trending(ctx)
	if err != nil {
		return fmt.Errorf("fetch trending: %w", err)
	}
	fresh, err := s.Market.NewPairs(ctx, minCandidateLiquidity)
	if err != nil {
		// Trending alone is still a usable summary.
		if s.Logger != nil {
			s.Logger.Warn("new pairs fetch failed, summarizing trending only", zap.Error(err))
		}
	}
	tokens := dedupeByAddress(append(trending, fresh...))
	if len(tokens) == 0 {
		return fmt.Errorf("no tokens to summarize")
	}

	summary := buildMarketSummary(tokens)
	results, err := s.Reasoning.NarrativeAnalysis(ctx, summary)
	if err != nil {
		return fmt.Errorf("narrative analysis: %w", err)
	}
	if len(results) == 0 {
		// Parse fallback: keep the previous narrative set instead of wiping it.
		if s.Logger != nil {
			s.Logger.Warn("narrative analysis returned nothing, keeping previous set")
		}
		return nil
	}

	items := make([]models.Narrative, 0, len(results))
	for _, n := range results {
		tokensJSON, _ := json.Marshal(n.Tokens)
		items = append(items, models.Narrative{
			Name:   n.Name,
			Score:  n.Score,
			Trend:  n.Trend,
			Tokens: datatypes.JSON(tokensJSON),
		})
	}
	if err := s.Repo.ReplaceNarratives(ctx, items); err != nil {
		return fmt.Errorf("replace narratives: %w", err)
	}
	if s.Logger != nil {
		for _, n := range results {
			s.Logger.Info("narrative",
				zap.String("name", n.Name),
				zap.Float64("score", n.Score),
				zap.String("trend", n.Trend),
				zap.Int("tokens", len(n.Tokens)),
				zap.Bool("hot", n.Score > 80),
			)
		}
	}
	return nil
}

// buildMarketSummary renders the top tokens by 24h volume as one line each,
// bounded so the prompt cannot grow with the market.
func buildMarketSummary(tokens []gateway.Token) string {
	sorted := append([]gateway.Token(nil), tokens...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Volume24h > sorted[j].Volume24h
	})
	if len(sorted) > summaryTokenCap {
		sorted = sorted[:summaryTokenCap]
	}
	var b strings.Builder
	b.WriteString("Current Solana tokens by 24h volume:\n")
	for _, t := range sorted {
		fmt.Fprintf(&b, "- %s (%s): mcap $%.0f, liquidity $%.0f, vol24h $%.0f, 1h %+.1f%%, 24h %+.1f%%\n",
			t.Symbol, t.Name, t.Mcap, t.Liquidity, t.Volume24h, t.PriceChange.H1, t.PriceChange.H24)
	}
	return b.String()
}

func dedupeByAddress(tokens []gateway.Token) []gateway.Token {
	seen := map[string]struct{}{}
	out := make([]gateway.Token, 0, len(tokens))
	for _, t := range tokens {
		if t.Address == "" {
			continue
		}
		if _, ok := seen[t.Address]; ok {
			continue
		}
		seen[t.Address] = struct{}{}
		out = append(out, t)
	}
	return out
}
