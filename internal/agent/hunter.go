package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"swarm/internal/config"
	"swarm/internal/executor"
	"swarm/internal/gateway"
	"swarm/internal/models"
	"swarm/internal/observability"
	"swarm/internal/repository"
)

// Candidate filter thresholds.
const (
	minCandidateLiquidity = 5000
	minCandidateMcap      = 10_000
	maxCandidateMcap      = 50_000_000
	minCandidateVolume    = 1000
	minCandidateBuys      = 5
)

const (
	// scoreCapPerCycle bounds reasoning spend per tick.
	scoreCapPerCycle = 15
	// scoreCallDelay is the fixed client-side gap between scoring calls.
	scoreCallDelay = time.Second
	// rescoreCooldown suppresses re-scoring a token seen recently.
	rescoreCooldown = 5 * time.Minute
)

const unknownNarrative = "Unknown"

// Hunter scans the market for candidates, scores them through the reasoning
// gateway, caches the results, and hands BUY signals to the executor.
type Hunter struct {
	Repo      repository.Repository
	Market    gateway.MarketDataGateway
	Reasoning gateway.ReasoningGateway
	Exec      *executor.Executor
	Logger    *zap.Logger
	Metrics   *observability.Metrics
	Config    config.SwarmConfig

	// now and delay are stubbed in tests.
	now   func() time.Time
	delay time.Duration
}

func (h *Hunter) Scan(ctx context.Context) error {
	trending, err := h.Market.Trending(ctx)
	if err != nil {
		return fmt.Errorf("fetch trending: %w", err)
	}
	fresh, err := h.Market.NewPairs(ctx, minCandidateLiquidity)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("new pairs fetch failed, hunting trending only", zap.Error(err))
		}
	}
	candidates := dedupeByAddress(append(trending, fresh...))

	narratives, err := h.Repo.ListNarratives(ctx)
	if err != nil && h.Logger != nil {
		h.Logger.Warn("narrative list failed, tagging Unknown", zap.Error(err))
	}

	scored := 0
	for _, token := range candidates {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if scored >= scoreCapPerCycle {
			break
		}
		if !candidateEligible(token) {
			continue
		}
		inCooldown, err := h.inCooldown(ctx, token.Address)
		if err != nil {
			if h.Logger != nil {
				h.Logger.Warn("cooldown lookup failed", zap.String("token", token.Address), zap.Error(err))
			}
			continue
		}
		if inCooldown {
			continue
		}
		if scored > 0 {
			wait := h.delay
			if wait <= 0 {
				wait = scoreCallDelay
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		scored++
		h.scoreOne(ctx, token, narratives)
	}
	if h.Logger != nil {
		h.Logger.Info("hunter cycle complete",
			zap.Int("candidates", len(candidates)),
			zap.Int("scored", scored),
		)
	}
	return nil
}

// scoreOne scores a single candidate and, on a strong BUY, buys it before the
// scan moves on. Failures here are isolated to the candidate.
func (h *Hunter) scoreOne(ctx context.Context, token gateway.Token, narratives []models.Narrative) {
	result, err := h.Reasoning.Score(ctx, buildScorePrompt(token))
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("score call failed", zap.String("token", token.Address), zap.Error(err))
		}
		return
	}
	if h.Metrics != nil {
		h.Metrics.TokensScored.Inc()
	}
	narrative := matchNarrative(narratives, token)
	now := h.clock()
	if err := h.Repo.UpsertScannedToken(ctx, &models.ScannedToken{
		Address:   token.Address,
		Symbol:    token.Symbol,
		Score:     result.Score,
		Signal:    string(result.Signal),
		Reasoning: result.Reasoning,
		Narrative: narrative,
		Mcap:      token.Mcap,
		Liquidity: token.Liquidity,
		FirstSeen: now,
		LastSeen:  now,
		TimesSeen: 1,
	}); err != nil {
		if h.Logger != nil {
			h.Logger.Warn("scanned token upsert failed", zap.String("token", token.Address), zap.Error(err))
		}
		return
	}
	if h.Logger != nil {
		h.Logger.Info("token scored",
			zap.String("token", token.Address),
			zap.String("symbol", token.Symbol),
			zap.Float64("score", result.Score),
			zap.String("signal", string(result.Signal)),
			zap.String("narrative", narrative),
		)
	}

	if result.Signal != gateway.SignalBuy || result.Score < h.Config.MinScoreToTrade {
		return
	}
	if !h.Config.HasWallet() || h.Exec == nil {
		return
	}
	// Synchronous by design: buys within a cycle are serialized.
	if _, err := h.Exec.Buy(ctx, executor.BuyRequest{
		Token:     token,
		Score:     result.Score,
		Narrative: narrative,
	}); err != nil && h.Logger != nil {
		h.Logger.Warn("hunter buy failed", zap.String("token", token.Address), zap.Error(err))
	}
}

func (h *Hunter) inCooldown(ctx context.Context, address string) (bool, error) {
	prev, err := h.Repo.GetScannedToken(ctx, address)
	if err != nil {
		return false, err
	}
	if prev == nil {
		return false, nil
	}
	return h.clock().Sub(prev.LastSeen) < rescoreCooldown, nil
}

func (h *Hunter) clock() time.Time {
	if h.now != nil {
		return h.now()
	}
	return time.Now().UTC()
}

func candidateEligible(t gateway.Token) bool {
	if t.Liquidity < minCandidateLiquidity {
		return false
	}
	if t.Mcap <= minCandidateMcap || t.Mcap >= maxCandidateMcap {
		return false
	}
	if t.Volume24h <= minCandidateVolume {
		return false
	}
	return t.Txns24h.Buys > minCandidateBuys
}

// matchNarrative picks the best current narrative by substring match between
// the narrative's name words and the token's symbol/name. Narratives arrive
// sorted by score, so the first hit is the strongest.
func matchNarrative(narratives []models.Narrative, t gateway.Token) string {
	symbol := strings.ToLower(t.Symbol)
	name := strings.ToLower(t.Name)
	for _, n := range narratives {
		for _, word := range strings.Fields(strings.ToLower(n.Name)) {
			if len(word) < 3 {
				continue
			}
			if strings.Contains(symbol, word) || strings.Contains(name, word) ||
				strings.Contains(word, symbol) && symbol != "" {
				return n.Name
			}
		}
	}
	return unknownNarrative
}

func buildScorePrompt(t gateway.Token) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Evaluate this Solana token for a short-term momentum trade.\n")
	fmt.Fprintf(&b, "Symbol: %s\nName: %s\nAddress: %s\n", t.Symbol, t.Name, t.Address)
	fmt.Fprintf(&b, "Market cap: $%.0f\nLiquidity: $%.0f\nVolume 24h: $%.0f\n", t.Mcap, t.Liquidity, t.Volume24h)
	fmt.Fprintf(&b, "Price change: 5m %+.1f%%, 1h %+.1f%%, 24h %+.1f%%\n",
		t.PriceChange.M5, t.PriceChange.H1, t.PriceChange.H24)
	fmt.Fprintf(&b, "Txns 24h: %d buys / %d sells\nDEX: %s\n", t.Txns24h.Buys, t.Txns24h.Sells, t.DexID)
	if !t.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "Pair age: %s\n", time.Since(t.CreatedAt).Round(time.Minute))
	}
	return b.String()
}
