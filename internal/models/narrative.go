package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	TrendRising  = "rising"
	TrendStable  = "stable"
	TrendFalling = "falling"
)

// Narrative is one market theme from the latest narrative scan. The whole
// table is replaced per cycle, never merged.
type Narrative struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string         `gorm:"type:varchar(100);not null" json:"name"`
	Score     float64        `gorm:"type:numeric(6,2);not null;default:0" json:"score"`
	Trend     string         `gorm:"type:varchar(10);not null;default:'stable'" json:"trend"`
	Tokens    datatypes.JSON `gorm:"type:jsonb" json:"tokens"`
	UpdatedAt time.Time      `gorm:"type:timestamptz;autoUpdateTime" json:"updatedAt"`
}

func (Narrative) TableName() string {
	return "narratives"
}
