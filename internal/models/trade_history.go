package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	SideBuy  = "BUY"
	SideSell = "SELL"
)

// TradeHistoryRecord is the append-only audit ledger. One row per attempted
// trade, written whether or not the swap succeeded.
type TradeHistoryRecord struct {
	ID           uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	TokenAddress string          `gorm:"type:varchar(64);not null;index" json:"tokenAddress"`
	Symbol       string          `gorm:"type:varchar(32)" json:"symbol"`
	Side         string          `gorm:"type:varchar(4);not null" json:"side"`
	SolAmount    decimal.Decimal `gorm:"type:numeric(20,9);not null;default:0" json:"solAmount"`
	TokenAmount  decimal.Decimal `gorm:"type:numeric(40,18);not null;default:0" json:"tokenAmount"`
	Price        decimal.Decimal `gorm:"type:numeric(30,18);not null;default:0" json:"price"`
	TxHash       string          `gorm:"type:varchar(120)" json:"txHash"`
	Success      bool            `gorm:"not null" json:"success"`
	Error        string          `gorm:"type:text" json:"error,omitempty"`
	Timestamp    time.Time       `gorm:"type:timestamptz;not null;index" json:"timestamp"`
}

func (TradeHistoryRecord) TableName() string {
	return "trade_history"
}
