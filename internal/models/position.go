package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PositionOpen    = "OPEN"
	PositionClosed  = "CLOSED"
	PositionStopped = "STOPPED"
	PositionTPHit   = "TP_HIT"
)

// Position is one trade lot for one token. At most one row per token address
// may be OPEN at a time; the executor enforces that under its trade mutex.
// Rows are never deleted.
type Position struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	TokenAddress string `gorm:"type:varchar(64);not null;index" json:"tokenAddress"`
	Symbol       string `gorm:"type:varchar(32)" json:"symbol"`

	EntryPrice    decimal.Decimal `gorm:"type:numeric(30,18);not null" json:"entryPrice"`
	EntrySol      decimal.Decimal `gorm:"type:numeric(20,9);not null" json:"entrySol"`
	TokenAmount   decimal.Decimal `gorm:"type:numeric(40,18);not null" json:"tokenAmount"`
	TokenDecimals int             `gorm:"not null;default:9" json:"tokenDecimals"`
	CurrentPrice  decimal.Decimal `gorm:"type:numeric(30,18);not null;default:0" json:"currentPrice"`
	PnlPct        decimal.Decimal `gorm:"column:pnl_pct;type:numeric(12,4);not null;default:0" json:"pnlPct"`

	Status  string  `gorm:"type:varchar(10);not null;default:'OPEN';index" json:"status"`
	EntryTx string  `gorm:"type:varchar(120)" json:"entryTx"`
	ExitTx  *string `gorm:"type:varchar(120)" json:"exitTx,omitempty"`

	EntryTime time.Time  `gorm:"type:timestamptz;not null" json:"entryTime"`
	ExitTime  *time.Time `gorm:"type:timestamptz" json:"exitTime,omitempty"`

	Score     float64 `gorm:"type:numeric(6,2);not null;default:0" json:"score"`
	Narrative string  `gorm:"type:varchar(100)" json:"narrative"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updatedAt"`
}

func (Position) TableName() string {
	return "positions"
}

// IsTerminal reports whether the position has left the OPEN state.
func (p Position) IsTerminal() bool {
	return p.Status != PositionOpen
}

// CloseReasonValid reports whether reason is a legal terminal status.
func CloseReasonValid(reason string) bool {
	switch reason {
	case PositionClosed, PositionStopped, PositionTPHit:
		return true
	}
	return false
}
