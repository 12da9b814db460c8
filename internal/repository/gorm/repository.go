package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"swarm/internal/models"
	"swarm/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// --- Positions --------------------------------------------------------------

func (s *Store) InsertPosition(ctx context.Context, item *models.Position) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) GetPositionByID(ctx context.Context, id uint64) (*models.Position, error) {
	if s == nil || s.db == nil || id == 0 {
		return nil, nil
	}
	var item models.Position
	err := s.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetOpenPositionByToken(ctx context.Context, tokenAddress string) (*models.Position, error) {
	if s == nil || s.db == nil || strings.TrimSpace(tokenAddress) == "" {
		return nil, nil
	}
	var item models.Position
	err := s.db.WithContext(ctx).
		Where("token_address = ?", tokenAddress).
		Where("status = ?", models.PositionOpen).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListPositions(ctx context.Context, params repository.ListPositionsParams) ([]models.Position, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.Position{})
	if params.Status != nil && strings.TrimSpace(*params.Status) != "" {
		query = query.Where("status = ?", strings.TrimSpace(*params.Status))
	}
	orderBy := params.OrderBy
	switch orderBy {
	case "entry_time", "pnl_pct", "created_at":
	default:
		orderBy = "entry_time"
	}
	dir := " DESC"
	if params.Asc {
		dir = " ASC"
	}
	limit := params.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var items []models.Position
	err := query.Order(orderBy + dir).Limit(limit).Offset(maxInt(params.Offset, 0)).Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListOpenPositions(ctx context.Context) ([]models.Position, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Position
	err := s.db.WithContext(ctx).
		Where("status = ?", models.PositionOpen).
		Order("entry_time ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountOpenPositions(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Position{}).
		Where("status = ?", models.PositionOpen).
		Count(&n).Error
	return n, err
}

func (s *Store) UpdatePositionPrice(ctx context.Context, id uint64, price, pnlPct decimal.Decimal) error {
	if s == nil || s.db == nil || id == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(&models.Position{}).
		Where("id = ?", id).
		Where("status = ?", models.PositionOpen).
		Updates(map[string]any{
			"current_price": price,
			"pnl_pct":       pnlPct,
			"updated_at":    time.Now().UTC(),
		}).Error
}

func (s *Store) ClosePosition(ctx context.Context, id uint64, status string, exitPrice decimal.Decimal, exitTx string, exitTime time.Time) (bool, error) {
	if s == nil || s.db == nil || id == 0 {
		return false, nil
	}
	if !models.CloseReasonValid(status) {
		return false, nil
	}
	res := s.db.WithContext(ctx).Model(&models.Position{}).
		Where("id = ?", id).
		Where("status = ?", models.PositionOpen).
		Updates(map[string]any{
			"status":        status,
			"current_price": exitPrice,
			"exit_tx":       exitTx,
			"exit_time":     exitTime,
			"updated_at":    time.Now().UTC(),
		})
	return res.RowsAffected > 0, res.Error
}

// --- Scanned tokens ---------------------------------------------------------

func (s *Store) GetScannedToken(ctx context.Context, address string) (*models.ScannedToken, error) {
	if s == nil || s.db == nil || strings.TrimSpace(address) == "" {
		return nil, nil
	}
	var item models.ScannedToken
	err := s.db.WithContext(ctx).First(&item, "address = ?", address).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpsertScannedToken(ctx context.Context, item *models.ScannedToken) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.Address) == "" {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "address"}},
		DoUpdates: clause.Assignments(map[string]any{
			"symbol":     item.Symbol,
			"score":      item.Score,
			"signal":     item.Signal,
			"reasoning":  item.Reasoning,
			"narrative":  item.Narrative,
			"mcap":       item.Mcap,
			"liquidity":  item.Liquidity,
			"last_seen":  item.LastSeen,
			"times_seen": gorm.Expr("scanned_tokens.times_seen + 1"),
		}),
	}).Create(item).Error
}

func (s *Store) ListScannedTokens(ctx context.Context, params repository.ListScannedTokensParams) ([]models.ScannedToken, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.ScannedToken{})
	if params.MinScore != nil {
		query = query.Where("score >= ?", *params.MinScore)
	}
	if params.Signal != nil && strings.TrimSpace(*params.Signal) != "" {
		query = query.Where("signal = ?", strings.ToUpper(strings.TrimSpace(*params.Signal)))
	}
	limit := params.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var items []models.ScannedToken
	err := query.Order("last_seen DESC").Limit(limit).Offset(maxInt(params.Offset, 0)).Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- Narratives -------------------------------------------------------------

// ReplaceNarratives swaps the whole table in one transaction so readers never
// observe a partially merged set.
func (s *Store) ReplaceNarratives(ctx context.Context, items []models.Narrative) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Narrative{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return tx.Create(&items).Error
	})
}

func (s *Store) ListNarratives(ctx context.Context) ([]models.Narrative, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Narrative
	err := s.db.WithContext(ctx).Order("score DESC").Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// --- Trade ledger -----------------------------------------------------------

func (s *Store) InsertTradeHistory(ctx context.Context, item *models.TradeHistoryRecord) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if item.Timestamp.IsZero() {
		item.Timestamp = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListTradeHistory(ctx context.Context, params repository.ListTradeHistoryParams) ([]models.TradeHistoryRecord, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.TradeHistoryRecord{})
	if params.TokenAddress != nil && strings.TrimSpace(*params.TokenAddress) != "" {
		query = query.Where("token_address = ?", strings.TrimSpace(*params.TokenAddress))
	}
	if params.Side != nil && strings.TrimSpace(*params.Side) != "" {
		query = query.Where("side = ?", strings.ToUpper(strings.TrimSpace(*params.Side)))
	}
	limit := params.Limit
	if limit <= 0 || limit > 1000 {
		limit = 200
	}
	var items []models.TradeHistoryRecord
	err := query.Order("timestamp DESC").Limit(limit).Offset(maxInt(params.Offset, 0)).Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
