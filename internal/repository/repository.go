package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"swarm/internal/models"
)

type ListPositionsParams struct {
	Status  *string
	Limit   int
	Offset  int
	OrderBy string
	Asc     bool
}

type ListScannedTokensParams struct {
	MinScore *float64
	Signal   *string
	Limit    int
	Offset   int
}

type ListTradeHistoryParams struct {
	TokenAddress *string
	Side         *string
	Limit        int
	Offset       int
}

// Repository is the single source of truth for positions, the token score
// cache, narratives, and the trade ledger.
type Repository interface {
	// Positions.
	InsertPosition(ctx context.Context, item *models.Position) error
	GetPositionByID(ctx context.Context, id uint64) (*models.Position, error)
	GetOpenPositionByToken(ctx context.Context, tokenAddress string) (*models.Position, error)
	ListPositions(ctx context.Context, params ListPositionsParams) ([]models.Position, error)
	ListOpenPositions(ctx context.Context) ([]models.Position, error)
	CountOpenPositions(ctx context.Context) (int64, error)
	UpdatePositionPrice(ctx context.Context, id uint64, price, pnlPct decimal.Decimal) error
	// ClosePosition transitions a position out of OPEN. The update is a
	// compare-and-swap on status so a second close of the same position is a
	// no-op; it reports whether the transition happened.
	ClosePosition(ctx context.Context, id uint64, status string, exitPrice decimal.Decimal, exitTx string, exitTime time.Time) (bool, error)

	// Scanned tokens.
	GetScannedToken(ctx context.Context, address string) (*models.ScannedToken, error)
	UpsertScannedToken(ctx context.Context, item *models.ScannedToken) error
	ListScannedTokens(ctx context.Context, params ListScannedTokensParams) ([]models.ScannedToken, error)

	// Narratives.
	ReplaceNarratives(ctx context.Context, items []models.Narrative) error
	ListNarratives(ctx context.Context) ([]models.Narrative, error)

	// Trade ledger.
	InsertTradeHistory(ctx context.Context, item *models.TradeHistoryRecord) error
	ListTradeHistory(ctx context.Context, params ListTradeHistoryParams) ([]models.TradeHistoryRecord, error)
}
