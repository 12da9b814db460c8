package db

import (
	"swarm/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil {
		return nil
	}
	return db.Gorm.AutoMigrate(
		&models.Position{},
		&models.ScannedToken{},
		&models.Narrative{},
		&models.TradeHistoryRecord{},
	)
}
