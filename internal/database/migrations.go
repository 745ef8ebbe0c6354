package database

import (
	"github.com/chachabrian/kwikliner/internal/models"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.NegotiationEvent{},
		&models.DeviceToken{},
	)
	if err != nil {
		return err
	}

	// Journal lookups are always "latest for a driver".
	return db.Exec(`CREATE INDEX IF NOT EXISTS idx_negotiation_events_driver_created
		ON negotiation_events (driver_id, created_at DESC)`).Error
}
