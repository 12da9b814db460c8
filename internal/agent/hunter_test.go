package agent

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"swarm/internal/config"
	"swarm/internal/executor"
	"swarm/internal/gateway"
	"swarm/internal/models"
)

type stubMarket struct {
	trending []gateway.Token
	fresh    []gateway.Token
	err      error
}

func (s *stubMarket) Trending(ctx context.Context) ([]gateway.Token, error) {
	return s.trending, s.err
}
func (s *stubMarket) NewPairs(ctx context.Context, minLiquidity float64) ([]gateway.Token, error) {
	return s.fresh, nil
}
func (s *stubMarket) ByAddress(ctx context.Context, address string) (*gateway.Token, error) {
	return nil, nil
}
func (s *stubMarket) Search(ctx context.Context, query string) ([]gateway.Token, error) {
	return nil, nil
}

type stubReasoning struct {
	result     gateway.ScoreResult
	narratives []gateway.NarrativeResult
	scoreCalls int
	err        error
}

func (s *stubReasoning) Score(ctx context.Context, prompt string) (gateway.ScoreResult, error) {
	s.scoreCalls++
	return s.result, s.err
}
func (s *stubReasoning) NarrativeAnalysis(ctx context.Context, summary string) ([]gateway.NarrativeResult, error) {
	return s.narratives, s.err
}

type countingSwap struct {
	buys int
}

func (s *countingSwap) Buy(ctx context.Context, tokenAddress string, solAmount decimal.Decimal, slippageBps int) (gateway.TradeResult, error) {
	s.buys++
	return gateway.TradeResult{
		Success:      true,
		TxHash:       "tx",
		OutputAmount: decimal.NewFromInt(100),
		Price:        decimal.RequireFromString("0.001"),
		Timestamp:    time.Now().UTC(),
	}, nil
}
func (s *countingSwap) Sell(ctx context.Context, tokenAddress string, tokenAmount decimal.Decimal, decimals int, slippageBps int) (gateway.TradeResult, error) {
	return gateway.TradeResult{}, nil
}

type fixedWallet struct{}

func (fixedWallet) Balance(ctx context.Context) (decimal.Decimal, error) {
	return decimal.NewFromInt(10), nil
}

func goodToken(address string) gateway.Token {
	return gateway.Token{
		Address:   address,
		Symbol:    "TOK",
		Name:      "Token",
		Mcap:      500_000,
		Liquidity: 25_000,
		Volume24h: 80_000,
		Txns24h:   gateway.Txns{Buys: 120, Sells: 60},
		Price:     decimal.RequireFromString("0.001"),
	}
}

func hunterConfig() config.SwarmConfig {
	return config.SwarmConfig{
		WalletAddress:    "wallet",
		WalletPrivateKey: "key",
		MaxPositionSol:   0.1,
		MaxConcurrent:    3,
		MinScoreToTrade:  75,
		SlippageBps:      300,
	}
}

func TestCandidateEligible(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*gateway.Token)
		want bool
	}{
		{"healthy", func(t *gateway.Token) {}, true},
		{"thin liquidity", func(t *gateway.Token) { t.Liquidity = 2000 }, false},
		{"mcap too small", func(t *gateway.Token) { t.Mcap = 5000 }, false},
		{"mcap too large", func(t *gateway.Token) { t.Mcap = 80_000_000 }, false},
		{"dead volume", func(t *gateway.Token) { t.Volume24h = 500 }, false},
		{"no buyers", func(t *gateway.Token) { t.Txns24h.Buys = 2 }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token := goodToken("a")
			tc.mut(&token)
			if got := candidateEligible(token); got != tc.want {
				t.Fatalf("eligible=%v want %v", got, tc.want)
			}
		})
	}
}

func TestMatchNarrative(t *testing.T) {
	narratives := []models.Narrative{
		{Name: "AI Agents"},
		{Name: "Dog Coins"},
	}
	dog := gateway.Token{Symbol: "WOOF", Name: "Good Dog Coin"}
	if got := matchNarrative(narratives, dog); got != "Dog Coins" {
		t.Fatalf("narrative=%q want Dog Coins", got)
	}
	other := gateway.Token{Symbol: "XYZ", Name: "Something Else"}
	if got := matchNarrative(narratives, other); got != unknownNarrative {
		t.Fatalf("narrative=%q want %s", got, unknownNarrative)
	}
}

func TestScanCachesScore(t *testing.T) {
	repo := newStubRepo()
	repo.narratives = []models.Narrative{{Name: "AI Agents"}}
	market := &stubMarket{trending: []gateway.Token{goodToken("TokA")}}
	reason := &stubReasoning{result: gateway.ScoreResult{Score: 55, Signal: gateway.SignalWatch, Reasoning: "meh"}}
	h := &Hunter{Repo: repo, Market: market, Reasoning: reason, Config: hunterConfig(), delay: time.Millisecond}

	if err := h.Scan(context.Background()); err != nil {
		t.Fatalf("err=%v", err)
	}
	cached := repo.scanned["TokA"]
	if cached == nil || cached.Score != 55 || cached.Signal != string(gateway.SignalWatch) {
		t.Fatalf("cached=%+v want score 55 WATCH", cached)
	}
}

func TestScanRespectsCooldown(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	repo := newStubRepo()
	repo.scanned["TokA"] = &models.ScannedToken{Address: "TokA", LastSeen: base.Add(-2 * time.Minute)}
	market := &stubMarket{trending: []gateway.Token{goodToken("TokA")}}
	reason := &stubReasoning{result: gateway.ScoreResult{Score: 50, Signal: gateway.SignalWatch}}
	h := &Hunter{
		Repo: repo, Market: market, Reasoning: reason,
		Config: hunterConfig(),
		now:    func() time.Time { return base },
		delay:  time.Millisecond,
	}

	if err := h.Scan(context.Background()); err != nil {
		t.Fatalf("err=%v", err)
	}
	if reason.scoreCalls != 0 {
		t.Fatalf("score calls=%d want 0 inside cool-down", reason.scoreCalls)
	}

	// Past the window the same token is scored again.
	h.now = func() time.Time { return base.Add(6 * time.Minute) }
	if err := h.Scan(context.Background()); err != nil {
		t.Fatalf("err=%v", err)
	}
	if reason.scoreCalls != 1 {
		t.Fatalf("score calls=%d want 1 after cool-down", reason.scoreCalls)
	}
}

func TestScanCapsScoredPerCycle(t *testing.T) {
	repo := newStubRepo()
	market := &stubMarket{}
	for i := 0; i < 25; i++ {
		market.trending = append(market.trending, goodToken(fmt.Sprintf("Tok%02d", i)))
	}
	reason := &stubReasoning{result: gateway.ScoreResult{Score: 40, Signal: gateway.SignalSkip}}
	h := &Hunter{Repo: repo, Market: market, Reasoning: reason, Config: hunterConfig(), delay: time.Millisecond}

	if err := h.Scan(context.Background()); err != nil {
		t.Fatalf("err=%v", err)
	}
	if reason.scoreCalls != scoreCapPerCycle {
		t.Fatalf("score calls=%d want %d", reason.scoreCalls, scoreCapPerCycle)
	}
}

func TestScanBuysStrongSignal(t *testing.T) {
	repo := newStubRepo()
	market := &stubMarket{trending: []gateway.Token{goodToken("TokA")}}
	reason := &stubReasoning{result: gateway.ScoreResult{Score: 88, Signal: gateway.SignalBuy}}
	swap := &countingSwap{}
	exec := &executor.Executor{Repo: repo, Swap: swap, Wallet: fixedWallet{}, Config: hunterConfig()}
	h := &Hunter{Repo: repo, Market: market, Reasoning: reason, Exec: exec, Config: hunterConfig(), delay: time.Millisecond}

	if err := h.Scan(context.Background()); err != nil {
		t.Fatalf("err=%v", err)
	}
	if swap.buys != 1 {
		t.Fatalf("buys=%d want 1", swap.buys)
	}
	if len(repo.positions) != 1 || repo.positions[0].Status != models.PositionOpen {
		t.Fatalf("positions=%+v want one OPEN", repo.positions)
	}
}

func TestScanStopsBuyingAtMaxConcurrent(t *testing.T) {
	repo := newStubRepo()
	market := &stubMarket{trending: []gateway.Token{goodToken("TokA"), goodToken("TokB")}}
	reason := &stubReasoning{result: gateway.ScoreResult{Score: 90, Signal: gateway.SignalBuy}}
	swap := &countingSwap{}
	cfg := hunterConfig()
	cfg.MaxConcurrent = 1
	exec := &executor.Executor{Repo: repo, Swap: swap, Wallet: fixedWallet{}, Config: cfg}
	h := &Hunter{Repo: repo, Market: market, Reasoning: reason, Exec: exec, Config: cfg, delay: time.Millisecond}

	if err := h.Scan(context.Background()); err != nil {
		t.Fatalf("err=%v", err)
	}
	if swap.buys != 1 {
		t.Fatalf("buys=%d want 1 with slot cap of one", swap.buys)
	}
	if len(repo.positions) != 1 || repo.positions[0].TokenAddress != "TokA" || repo.positions[0].Status != models.PositionOpen {
		t.Fatalf("positions=%+v want one OPEN for TokA", repo.positions)
	}
	// The refused second buy never reaches the ledger.
	if len(repo.ledger) != 1 {
		t.Fatalf("ledger rows=%d want 1", len(repo.ledger))
	}
}

func TestScanDoesNotBuyBelowThreshold(t *testing.T) {
	repo := newStubRepo()
	market := &stubMarket{trending: []gateway.Token{goodToken("TokA")}}
	reason := &stubReasoning{result: gateway.ScoreResult{Score: 60, Signal: gateway.SignalBuy}}
	swap := &countingSwap{}
	exec := &executor.Executor{Repo: repo, Swap: swap, Wallet: fixedWallet{}, Config: hunterConfig()}
	h := &Hunter{Repo: repo, Market: market, Reasoning: reason, Exec: exec, Config: hunterConfig(), delay: time.Millisecond}

	if err := h.Scan(context.Background()); err != nil {
		t.Fatalf("err=%v", err)
	}
	if swap.buys != 0 {
		t.Fatalf("buys=%d want 0 for BUY below min score", swap.buys)
	}
}
