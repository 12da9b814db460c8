// Package executor owns the trade pipeline. It is the only component allowed
// to call the swap gateway, and the only writer of position rows' lifecycle
// (creation and closure) and of the trade ledger.
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"swarm/internal/config"
	"swarm/internal/gateway"
	"swarm/internal/hub"
	"swarm/internal/models"
	"swarm/internal/observability"
	"swarm/internal/repository"
)

// Sizing and floor constants for auto-sized buys.
var (
	balanceFraction = decimal.NewFromFloat(0.3)
	dustFloorSol    = decimal.NewFromFloat(0.005)
)

// Skip reasons reported in Outcome.Skipped.
const (
	SkipNoWallet       = "no_wallet"
	SkipMaxConcurrent  = "max_concurrent"
	SkipPositionExists = "position_exists"
	SkipDustFloor      = "below_dust_floor"
	SkipNotFound       = "position_not_found"
	SkipNotOpen        = "position_not_open"
)

const defaultTokenDecimals = 9

type Executor struct {
	Repo    repository.Repository
	Swap    gateway.SwapGateway
	Wallet  gateway.WalletGateway
	Logger  *zap.Logger
	Hub     *hub.Hub
	Metrics *observability.Metrics
	Config  config.SwarmConfig

	// mu serializes the whole buy/sell pipeline. Scanner, risk, and manual
	// ticks overlap freely; this is the one place the max-open and
	// one-OPEN-per-token invariants are enforced, so it must be a single
	// critical section.
	mu sync.Mutex
}

type BuyRequest struct {
	Token     gateway.Token
	Score     float64
	Narrative string
	// SolAmount overrides auto-sizing when positive (manual buys).
	SolAmount decimal.Decimal
}

type Outcome struct {
	Executed bool                `json:"executed"`
	Skipped  string              `json:"skipped,omitempty"`
	Result   gateway.TradeResult `json:"result"`
	Position *models.Position    `json:"position,omitempty"`
}

// Buy runs the full entry pipeline: eligibility checks, sizing, swap,
// unconditional ledger append, and position creation on success. A refused
// buy is a logged no-op, not an error; errors are reserved for infrastructure
// failures before the swap is attempted.
func (e *Executor) Buy(ctx context.Context, req BuyRequest) (Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	token := req.Token
	if !e.Config.HasWallet() {
		e.logSkip(token, SkipNoWallet, "buy skipped: no wallet configured")
		return Outcome{Skipped: SkipNoWallet}, nil
	}

	open, err := e.Repo.CountOpenPositions(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("count open positions: %w", err)
	}
	if int(open) >= e.Config.MaxConcurrent {
		e.logSkip(token, SkipMaxConcurrent,
			fmt.Sprintf("buy skipped: max concurrent trades reached (%d)", e.Config.MaxConcurrent))
		return Outcome{Skipped: SkipMaxConcurrent}, nil
	}

	existing, err := e.Repo.GetOpenPositionByToken(ctx, token.Address)
	if err != nil {
		return Outcome{}, fmt.Errorf("lookup open position: %w", err)
	}
	if existing != nil {
		e.logSkip(token, SkipPositionExists, "buy skipped: open position already exists")
		return Outcome{Skipped: SkipPositionExists}, nil
	}

	size := req.SolAmount
	if size.LessThanOrEqual(decimal.Zero) {
		size, err = e.autoSize(ctx)
		if err != nil {
			return Outcome{}, err
		}
	}
	if size.LessThan(dustFloorSol) {
		e.logSkip(token, SkipDustFloor, "buy skipped: trade size below dust floor")
		return Outcome{Skipped: SkipDustFloor}, nil
	}

	result, err := e.Swap.Buy(ctx, token.Address, size, e.Config.SlippageBps)
	if err != nil {
		// Gateway transport failure: still an attempted trade, still ledgered.
		result = gateway.TradeResult{Success: false, Error: err.Error(), InputAmount: size, Timestamp: time.Now().UTC()}
	}

	e.appendLedger(ctx, &models.TradeHistoryRecord{
		TokenAddress: token.Address,
		Symbol:       token.Symbol,
		Side:         models.SideBuy,
		SolAmount:    size,
		TokenAmount:  result.OutputAmount,
		Price:        result.Price,
		TxHash:       result.TxHash,
		Success:      result.Success,
		Error:        result.Error,
		Timestamp:    result.Timestamp,
	})
	e.countTrade(models.SideBuy, result.Success)

	if !result.Success {
		if e.Logger != nil {
			e.Logger.Warn("buy failed",
				zap.String("token", token.Address),
				zap.String("symbol", token.Symbol),
				zap.String("error", result.Error),
			)
		}
		return Outcome{Result: result}, nil
	}

	entryPrice := result.Price
	if entryPrice.LessThanOrEqual(decimal.Zero) {
		entryPrice = token.Price
	}
	pos := &models.Position{
		TokenAddress:  token.Address,
		Symbol:        token.Symbol,
		EntryPrice:    entryPrice,
		EntrySol:      size,
		TokenAmount:   result.OutputAmount,
		TokenDecimals: defaultTokenDecimals,
		CurrentPrice:  entryPrice,
		Status:        models.PositionOpen,
		EntryTx:       result.TxHash,
		EntryTime:     result.Timestamp,
		Score:         req.Score,
		Narrative:     req.Narrative,
	}
	if err := e.Repo.InsertPosition(ctx, pos); err != nil {
		return Outcome{Result: result}, fmt.Errorf("insert position: %w", err)
	}
	if e.Metrics != nil {
		e.Metrics.OpenPositions.Set(float64(open + 1))
	}
	if e.Logger != nil {
		e.Logger.Info("position opened",
			zap.Uint64("position_id", pos.ID),
			zap.String("token", token.Address),
			zap.String("symbol", token.Symbol),
			zap.String("entry_sol", size.String()),
			zap.String("narrative", req.Narrative),
			zap.Float64("score", req.Score),
		)
	}
	e.publishTrade(pos, models.SideBuy, result)
	return Outcome{Executed: true, Result: result, Position: pos}, nil
}

// Sell exits a position. reason must be a terminal status (CLOSED, STOPPED,
// TP_HIT); on swap failure the position stays OPEN so risk checks can retry
// on a later tick.
func (e *Executor) Sell(ctx context.Context, positionID uint64, reason string) (Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}
	if !models.CloseReasonValid(reason) {
		return Outcome{}, fmt.Errorf("invalid close reason %q", reason)
	}
	if e.Swap == nil {
		return Outcome{}, fmt.Errorf("no swap gateway configured")
	}

	pos, err := e.Repo.GetPositionByID(ctx, positionID)
	if err != nil {
		return Outcome{}, fmt.Errorf("lookup position: %w", err)
	}
	if pos == nil {
		return Outcome{Skipped: SkipNotFound}, nil
	}
	if pos.IsTerminal() {
		return Outcome{Skipped: SkipNotOpen, Position: pos}, nil
	}

	result, err := e.Swap.Sell(ctx, pos.TokenAddress, pos.TokenAmount, pos.TokenDecimals, e.Config.SlippageBps)
	if err != nil {
		result = gateway.TradeResult{Success: false, Error: err.Error(), InputAmount: pos.TokenAmount, Timestamp: time.Now().UTC()}
	}

	e.appendLedger(ctx, &models.TradeHistoryRecord{
		TokenAddress: pos.TokenAddress,
		Symbol:       pos.Symbol,
		Side:         models.SideSell,
		SolAmount:    result.OutputAmount,
		TokenAmount:  pos.TokenAmount,
		Price:        result.Price,
		TxHash:       result.TxHash,
		Success:      result.Success,
		Error:        result.Error,
		Timestamp:    result.Timestamp,
	})
	e.countTrade(models.SideSell, result.Success)

	if !result.Success {
		if e.Logger != nil {
			e.Logger.Warn("sell failed, position stays open",
				zap.Uint64("position_id", pos.ID),
				zap.String("token", pos.TokenAddress),
				zap.String("error", result.Error),
			)
		}
		return Outcome{Result: result, Position: pos}, nil
	}

	exitPrice := result.Price
	if exitPrice.LessThanOrEqual(decimal.Zero) {
		exitPrice = pos.CurrentPrice
	}
	transitioned, err := e.Repo.ClosePosition(ctx, pos.ID, reason, exitPrice, result.TxHash, result.Timestamp)
	if err != nil {
		return Outcome{Result: result, Position: pos}, fmt.Errorf("close position: %w", err)
	}
	if !transitioned {
		// Lost the status race to another closer; the swap result is already
		// ledgered, nothing else to do.
		return Outcome{Skipped: SkipNotOpen, Result: result, Position: pos}, nil
	}
	pos.Status = reason
	pos.CurrentPrice = exitPrice
	pos.ExitTx = &result.TxHash
	t := result.Timestamp
	pos.ExitTime = &t
	if e.Metrics != nil {
		if open, err := e.Repo.CountOpenPositions(ctx); err == nil {
			e.Metrics.OpenPositions.Set(float64(open))
		}
	}
	if e.Logger != nil {
		e.Logger.Info("position closed",
			zap.Uint64("position_id", pos.ID),
			zap.String("token", pos.TokenAddress),
			zap.String("reason", reason),
			zap.String("exit_price", exitPrice.String()),
		)
	}
	e.publishTrade(pos, models.SideSell, result)
	return Outcome{Executed: true, Result: result, Position: pos}, nil
}

func (e *Executor) autoSize(ctx context.Context) (decimal.Decimal, error) {
	balance, err := e.Wallet.Balance(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetch wallet balance: %w", err)
	}
	size := decimal.NewFromFloat(e.Config.MaxPositionSol)
	if limit := balance.Mul(balanceFraction); limit.LessThan(size) {
		size = limit
	}
	return size, nil
}

func (e *Executor) appendLedger(ctx context.Context, rec *models.TradeHistoryRecord) {
	if err := e.Repo.InsertTradeHistory(ctx, rec); err != nil && e.Logger != nil {
		e.Logger.Error("trade ledger append failed",
			zap.String("token", rec.TokenAddress),
			zap.String("side", rec.Side),
			zap.Error(err),
		)
	}
}

func (e *Executor) countTrade(side string, success bool) {
	if e.Metrics == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	e.Metrics.TradesTotal.WithLabelValues(side, outcome).Inc()
}

func (e *Executor) publishTrade(pos *models.Position, side string, result gateway.TradeResult) {
	if e.Hub == nil {
		return
	}
	e.Hub.Publish(hub.EventTrade, map[string]any{
		"side":     side,
		"position": pos,
		"result":   result,
	})
}

func (e *Executor) logSkip(token gateway.Token, reason, msg string) {
	if e.Logger == nil {
		return
	}
	e.Logger.Info(msg,
		zap.String("token", token.Address),
		zap.String("symbol", token.Symbol),
		zap.String("skip_reason", reason),
	)
}
