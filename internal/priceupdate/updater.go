// Package priceupdate refreshes live price and PnL on open positions.
package priceupdate

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"swarm/internal/gateway"
	"swarm/internal/models"
	"swarm/internal/repository"
)

var hundred = decimal.NewFromInt(100)

type Updater struct {
	Repo   repository.Repository
	Market gateway.MarketDataGateway
	Logger *zap.Logger
	// Delay between per-position fetches, to stay under the market API's
	// rate limit. Defaults to 500ms.
	Delay time.Duration
}

// RunOnce refreshes every open position. A fetch failure on one position is
// swallowed so the rest still update.
func (u *Updater) RunOnce(ctx context.Context) error {
	if u == nil || u.Repo == nil || u.Market == nil {
		return nil
	}
	positions, err := u.Repo.ListOpenPositions(ctx)
	if err != nil {
		return fmt.Errorf("list open positions: %w", err)
	}
	delay := u.Delay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	for i, p := range positions {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		u.updateOne(ctx, p)
		if i < len(positions)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return nil
}

func (u *Updater) updateOne(ctx context.Context, p models.Position) {
	token, err := u.Market.ByAddress(ctx, p.TokenAddress)
	if err != nil || token == nil || token.Price.LessThanOrEqual(decimal.Zero) {
		return
	}
	pnl := PnlPct(p.EntryPrice, token.Price)
	if err := u.Repo.UpdatePositionPrice(ctx, p.ID, token.Price, pnl); err != nil && u.Logger != nil {
		u.Logger.Warn("position price update failed",
			zap.Uint64("position_id", p.ID),
			zap.Error(err),
		)
	}
}

// PnlPct returns (current − entry) / entry × 100, or zero for a zero entry.
func PnlPct(entry, current decimal.Decimal) decimal.Decimal {
	if entry.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return current.Sub(entry).Div(entry).Mul(hundred)
}
