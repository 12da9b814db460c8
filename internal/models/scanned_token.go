package models

import (
	"time"
)

// ScannedToken is the score cache written by the hunter. Keyed by token
// address; re-scoring inside the cool-down window is suppressed upstream.
type ScannedToken struct {
	Address   string  `gorm:"primaryKey;type:varchar(64)" json:"address"`
	Symbol    string  `gorm:"type:varchar(32)" json:"symbol"`
	Score     float64 `gorm:"type:numeric(6,2);not null;default:0" json:"score"`
	Signal    string  `gorm:"type:varchar(10)" json:"signal"`
	Reasoning string  `gorm:"type:text" json:"reasoning"`
	Narrative string  `gorm:"type:varchar(100)" json:"narrative"`
	Mcap      float64 `gorm:"type:numeric(24,2)" json:"mcap"`
	Liquidity float64 `gorm:"type:numeric(24,2)" json:"liquidity"`

	FirstSeen time.Time `gorm:"type:timestamptz;not null" json:"firstSeen"`
	LastSeen  time.Time `gorm:"type:timestamptz;not null;index" json:"lastSeen"`
	TimesSeen int       `gorm:"not null;default:1" json:"timesSeen"`
}

func (ScannedToken) TableName() string {
	return "scanned_tokens"
}
