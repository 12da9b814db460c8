package agent

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"swarm/internal/models"
	"swarm/internal/repository"
)

// stubRepo is a test-only in-memory implementation of repository.Repository.
type stubRepo struct {
	positions  []*models.Position
	scanned    map[string]*models.ScannedToken
	narratives []models.Narrative
	ledger     []models.TradeHistoryRecord
	replaces   int
	nextID     uint64
}

func newStubRepo() *stubRepo {
	return &stubRepo{scanned: map[string]*models.ScannedToken{}}
}

func (s *stubRepo) InsertPosition(ctx context.Context, item *models.Position) error {
	s.nextID++
	item.ID = s.nextID
	s.positions = append(s.positions, item)
	return nil
}

func (s *stubRepo) GetPositionByID(ctx context.Context, id uint64) (*models.Position, error) {
	for _, p := range s.positions {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) GetOpenPositionByToken(ctx context.Context, tokenAddress string) (*models.Position, error) {
	for _, p := range s.positions {
		if p.TokenAddress == tokenAddress && p.Status == models.PositionOpen {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) ListPositions(ctx context.Context, params repository.ListPositionsParams) ([]models.Position, error) {
	out := make([]models.Position, 0, len(s.positions))
	for _, p := range s.positions {
		out = append(out, *p)
	}
	return out, nil
}

func (s *stubRepo) ListOpenPositions(ctx context.Context) ([]models.Position, error) {
	out := []models.Position{}
	for _, p := range s.positions {
		if p.Status == models.PositionOpen {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *stubRepo) CountOpenPositions(ctx context.Context) (int64, error) {
	var n int64
	for _, p := range s.positions {
		if p.Status == models.PositionOpen {
			n++
		}
	}
	return n, nil
}

func (s *stubRepo) UpdatePositionPrice(ctx context.Context, id uint64, price, pnlPct decimal.Decimal) error {
	return nil
}

func (s *stubRepo) ClosePosition(ctx context.Context, id uint64, status string, exitPrice decimal.Decimal, exitTx string, exitTime time.Time) (bool, error) {
	for _, p := range s.positions {
		if p.ID == id && p.Status == models.PositionOpen {
			p.Status = status
			return true, nil
		}
	}
	return false, nil
}

func (s *stubRepo) GetScannedToken(ctx context.Context, address string) (*models.ScannedToken, error) {
	if t, ok := s.scanned[address]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (s *stubRepo) UpsertScannedToken(ctx context.Context, item *models.ScannedToken) error {
	cp := *item
	s.scanned[item.Address] = &cp
	return nil
}

func (s *stubRepo) ListScannedTokens(ctx context.Context, params repository.ListScannedTokensParams) ([]models.ScannedToken, error) {
	out := make([]models.ScannedToken, 0, len(s.scanned))
	for _, t := range s.scanned {
		out = append(out, *t)
	}
	return out, nil
}

func (s *stubRepo) ReplaceNarratives(ctx context.Context, items []models.Narrative) error {
	s.replaces++
	s.narratives = append([]models.Narrative(nil), items...)
	return nil
}

func (s *stubRepo) ListNarratives(ctx context.Context) ([]models.Narrative, error) {
	return append([]models.Narrative(nil), s.narratives...), nil
}

func (s *stubRepo) InsertTradeHistory(ctx context.Context, item *models.TradeHistoryRecord) error {
	s.ledger = append(s.ledger, *item)
	return nil
}

func (s *stubRepo) ListTradeHistory(ctx context.Context, params repository.ListTradeHistoryParams) ([]models.TradeHistoryRecord, error) {
	return append([]models.TradeHistoryRecord(nil), s.ledger...), nil
}
