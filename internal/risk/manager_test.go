package risk

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"swarm/internal/config"
	"swarm/internal/executor"
	"swarm/internal/gateway"
	"swarm/internal/models"
	"swarm/internal/repository"
)

type stubMarket struct {
	tokens map[string]*gateway.Token
	err    error
}

func (s *stubMarket) Trending(ctx context.Context) ([]gateway.Token, error) { return nil, nil }
func (s *stubMarket) NewPairs(ctx context.Context, minLiquidity float64) ([]gateway.Token, error) {
	return nil, nil
}
func (s *stubMarket) Search(ctx context.Context, query string) ([]gateway.Token, error) {
	return nil, nil
}
func (s *stubMarket) ByAddress(ctx context.Context, address string) (*gateway.Token, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.tokens[address], nil
}

func testRiskConfig() config.SwarmConfig {
	return config.SwarmConfig{
		WalletAddress:    "wallet",
		WalletPrivateKey: "key",
		MaxPositionSol:   0.1,
		StopLossPct:      30,
		TakeProfitPct:    100,
		MaxConcurrent:    3,
		SlippageBps:      300,
	}
}

func openPosition(id uint64, pnl string) models.Position {
	return models.Position{
		ID:           id,
		TokenAddress: "TokA",
		Status:       models.PositionOpen,
		EntrySol:     decimal.RequireFromString("0.05"),
		TokenAmount:  decimal.NewFromInt(1000),
		EntryPrice:   decimal.RequireFromString("0.001"),
		CurrentPrice: decimal.RequireFromString("0.001"),
		PnlPct:       decimal.RequireFromString(pnl),
	}
}

func TestEvaluateStopLoss(t *testing.T) {
	m := &Manager{Config: testRiskConfig()}
	rule, status := m.Evaluate(context.Background(), openPosition(1, "-35"))
	if rule != ReasonStopLoss || status != models.PositionStopped {
		t.Fatalf("rule=%s status=%s want stop_loss/STOPPED", rule, status)
	}
}

func TestEvaluateStopLossBoundaryInclusive(t *testing.T) {
	m := &Manager{Config: testRiskConfig()}
	rule, _ := m.Evaluate(context.Background(), openPosition(1, "-30"))
	if rule != ReasonStopLoss {
		t.Fatalf("rule=%s want stop_loss at exactly -30", rule)
	}
}

func TestEvaluateTakeProfit(t *testing.T) {
	m := &Manager{Config: testRiskConfig()}
	rule, status := m.Evaluate(context.Background(), openPosition(1, "120"))
	if rule != ReasonTakeProfit || status != models.PositionTPHit {
		t.Fatalf("rule=%s status=%s want take_profit/TP_HIT", rule, status)
	}
}

func TestEvaluateStopLossWinsWhenBothFire(t *testing.T) {
	cfg := testRiskConfig()
	cfg.TakeProfitPct = -50
	m := &Manager{Config: cfg}
	rule, status := m.Evaluate(context.Background(), openPosition(1, "-40"))
	if rule != ReasonStopLoss || status != models.PositionStopped {
		t.Fatalf("rule=%s status=%s want stop-loss precedence", rule, status)
	}
}

func TestEvaluateLiquidityEmergency(t *testing.T) {
	market := &stubMarket{tokens: map[string]*gateway.Token{
		"TokA": {Address: "TokA", Liquidity: 1200},
	}}
	m := &Manager{Market: market, Config: testRiskConfig()}
	rule, status := m.Evaluate(context.Background(), openPosition(1, "5"))
	if rule != ReasonLiquidity || status != models.PositionStopped {
		t.Fatalf("rule=%s status=%s want liquidity_drain/STOPPED", rule, status)
	}
}

func TestEvaluateLiquidityFetchFailureDoesNotFire(t *testing.T) {
	market := &stubMarket{err: errors.New("gateway timeout")}
	m := &Manager{Market: market, Config: testRiskConfig()}
	rule, _ := m.Evaluate(context.Background(), openPosition(1, "5"))
	if rule != "" {
		t.Fatalf("rule=%s want none when liquidity is unknown", rule)
	}
}

func TestEvaluateHealthyPositionUntouched(t *testing.T) {
	market := &stubMarket{tokens: map[string]*gateway.Token{
		"TokA": {Address: "TokA", Liquidity: 50_000},
	}}
	m := &Manager{Market: market, Config: testRiskConfig()}
	rule, _ := m.Evaluate(context.Background(), openPosition(1, "12"))
	if rule != "" {
		t.Fatalf("rule=%s want none", rule)
	}
}

// riskRepo serves a fixed open-position set and records closes.
type riskRepo struct {
	positions []models.Position
	closed    []uint64
	ledger    int
}

func (r *riskRepo) InsertPosition(ctx context.Context, item *models.Position) error { return nil }
func (r *riskRepo) GetPositionByID(ctx context.Context, id uint64) (*models.Position, error) {
	for _, p := range r.positions {
		if p.ID == id {
			cp := p
			return &cp, nil
		}
	}
	return nil, nil
}
func (r *riskRepo) GetOpenPositionByToken(ctx context.Context, tokenAddress string) (*models.Position, error) {
	return nil, nil
}
func (r *riskRepo) ListPositions(ctx context.Context, params repository.ListPositionsParams) ([]models.Position, error) {
	return r.positions, nil
}
func (r *riskRepo) ListOpenPositions(ctx context.Context) ([]models.Position, error) {
	return r.positions, nil
}
func (r *riskRepo) CountOpenPositions(ctx context.Context) (int64, error) {
	return int64(len(r.positions)), nil
}
func (r *riskRepo) UpdatePositionPrice(ctx context.Context, id uint64, price, pnlPct decimal.Decimal) error {
	return nil
}
func (r *riskRepo) ClosePosition(ctx context.Context, id uint64, status string, exitPrice decimal.Decimal, exitTx string, exitTime time.Time) (bool, error) {
	r.closed = append(r.closed, id)
	return true, nil
}
func (r *riskRepo) GetScannedToken(ctx context.Context, address string) (*models.ScannedToken, error) {
	return nil, nil
}
func (r *riskRepo) UpsertScannedToken(ctx context.Context, item *models.ScannedToken) error {
	return nil
}
func (r *riskRepo) ListScannedTokens(ctx context.Context, params repository.ListScannedTokensParams) ([]models.ScannedToken, error) {
	return nil, nil
}
func (r *riskRepo) ReplaceNarratives(ctx context.Context, items []models.Narrative) error { return nil }
func (r *riskRepo) ListNarratives(ctx context.Context) ([]models.Narrative, error) {
	return nil, nil
}
func (r *riskRepo) InsertTradeHistory(ctx context.Context, item *models.TradeHistoryRecord) error {
	r.ledger++
	return nil
}
func (r *riskRepo) ListTradeHistory(ctx context.Context, params repository.ListTradeHistoryParams) ([]models.TradeHistoryRecord, error) {
	return nil, nil
}

type flakySwap struct {
	failFor map[string]bool
}

func (s *flakySwap) Buy(ctx context.Context, tokenAddress string, solAmount decimal.Decimal, slippageBps int) (gateway.TradeResult, error) {
	return gateway.TradeResult{}, errors.New("unexpected buy")
}
func (s *flakySwap) Sell(ctx context.Context, tokenAddress string, tokenAmount decimal.Decimal, decimals int, slippageBps int) (gateway.TradeResult, error) {
	if s.failFor[tokenAddress] {
		return gateway.TradeResult{}, errors.New("aggregator down")
	}
	return gateway.TradeResult{
		Success:   true,
		TxHash:    "tx",
		Price:     decimal.RequireFromString("0.001"),
		Timestamp: time.Now().UTC(),
	}, nil
}

func TestRunOnceIsolatesPerPositionFailures(t *testing.T) {
	a := openPosition(1, "-50")
	b := openPosition(2, "-50")
	b.TokenAddress = "TokB"
	repo := &riskRepo{positions: []models.Position{a, b}}
	exec := &executor.Executor{
		Repo:   repo,
		Swap:   &flakySwap{failFor: map[string]bool{"TokA": true}},
		Config: testRiskConfig(),
	}
	m := &Manager{Repo: repo, Exec: exec, Config: testRiskConfig()}

	if err := m.RunOnce(context.Background()); err != nil {
		t.Fatalf("err=%v", err)
	}
	// Both sell attempts hit the ledger; only the healthy swap closes.
	if repo.ledger != 2 {
		t.Fatalf("ledger=%d want 2", repo.ledger)
	}
	if len(repo.closed) != 1 || repo.closed[0] != 2 {
		t.Fatalf("closed=%v want [2]", repo.closed)
	}
}
