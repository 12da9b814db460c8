// Package risk evaluates open positions against the exit rules and triggers
// closes through the executor.
package risk

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"swarm/internal/config"
	"swarm/internal/executor"
	"swarm/internal/gateway"
	"swarm/internal/models"
	"swarm/internal/observability"
	"swarm/internal/repository"
)

// Liquidity below this triggers an emergency exit regardless of PnL.
const emergencyLiquidityUSD = 3000

const (
	ReasonStopLoss   = "stop_loss"
	ReasonTakeProfit = "take_profit"
	ReasonLiquidity  = "liquidity_drain"
)

type Manager struct {
	Repo    repository.Repository
	Market  gateway.MarketDataGateway
	Wallet  gateway.WalletGateway
	Exec    *executor.Executor
	Logger  *zap.Logger
	Metrics *observability.Metrics
	Config  config.SwarmConfig
}

// RunOnce evaluates every open position. Per-position failures are isolated:
// one bad lookup or failed close never aborts the sweep.
func (m *Manager) RunOnce(ctx context.Context) error {
	if m == nil || m.Repo == nil {
		return nil
	}
	positions, err := m.Repo.ListOpenPositions(ctx)
	if err != nil {
		return fmt.Errorf("list open positions: %w", err)
	}
	for _, p := range positions {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.checkPosition(ctx, p)
	}
	m.reportHeat(ctx, positions)
	return nil
}

func (m *Manager) checkPosition(ctx context.Context, p models.Position) {
	if p.IsTerminal() {
		return
	}
	reason, status := m.Evaluate(ctx, p)
	if reason == "" {
		return
	}
	if m.Logger != nil {
		m.Logger.Info("risk exit triggered",
			zap.Uint64("position_id", p.ID),
			zap.String("token", p.TokenAddress),
			zap.String("rule", reason),
			zap.String("pnl_pct", p.PnlPct.String()),
		)
	}
	if m.Exec == nil {
		return
	}
	if _, err := m.Exec.Sell(ctx, p.ID, status); err != nil && m.Logger != nil {
		m.Logger.Warn("risk close failed",
			zap.Uint64("position_id", p.ID),
			zap.String("rule", reason),
			zap.Error(err),
		)
	}
}

// Evaluate applies the exit rules in fixed precedence and returns the first
// matching rule with its target status. Stop-loss wins over take-profit when
// boundary configs make both true at once.
func (m *Manager) Evaluate(ctx context.Context, p models.Position) (rule string, status string) {
	stopLoss := decimal.NewFromFloat(m.Config.StopLossPct).Neg()
	takeProfit := decimal.NewFromFloat(m.Config.TakeProfitPct)

	if p.PnlPct.LessThanOrEqual(stopLoss) {
		return ReasonStopLoss, models.PositionStopped
	}
	if p.PnlPct.GreaterThanOrEqual(takeProfit) {
		return ReasonTakeProfit, models.PositionTPHit
	}
	if liq, ok := m.liveLiquidity(ctx, p.TokenAddress); ok && liq < emergencyLiquidityUSD {
		return ReasonLiquidity, models.PositionStopped
	}
	return "", ""
}

// liveLiquidity fetches current pool depth for one token. A gateway failure
// means the rule simply does not fire this tick.
func (m *Manager) liveLiquidity(ctx context.Context, address string) (float64, bool) {
	if m.Market == nil {
		return 0, false
	}
	token, err := m.Market.ByAddress(ctx, address)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Warn("liquidity check failed", zap.String("token", address), zap.Error(err))
		}
		return 0, false
	}
	if token == nil {
		return 0, false
	}
	return token.Liquidity, true
}

// reportHeat logs portfolio heat = exposure / (balance + exposure). It is
// observational: nothing is enforced from it.
func (m *Manager) reportHeat(ctx context.Context, positions []models.Position) {
	if m.Wallet == nil {
		return
	}
	exposure := decimal.Zero
	for _, p := range positions {
		if p.Status == models.PositionOpen {
			exposure = exposure.Add(p.EntrySol)
		}
	}
	balance, err := m.Wallet.Balance(ctx)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Warn("balance fetch failed for heat report", zap.Error(err))
		}
		return
	}
	total := balance.Add(exposure)
	heat := decimal.Zero
	if total.GreaterThan(decimal.Zero) {
		heat = exposure.Div(total)
	}
	if m.Metrics != nil {
		f, _ := heat.Float64()
		m.Metrics.PortfolioHeat.Set(f)
		m.Metrics.OpenPositions.Set(float64(len(positions)))
	}
	if m.Logger != nil {
		m.Logger.Info("portfolio heat",
			zap.String("exposure_sol", exposure.String()),
			zap.String("balance_sol", balance.String()),
			zap.String("heat", heat.StringFixed(4)),
			zap.Int("open_positions", len(positions)),
		)
	}
}
