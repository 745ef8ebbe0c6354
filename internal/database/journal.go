package database

import (
	"context"

	"github.com/chachabrian/kwikliner/internal/models"
	"gorm.io/gorm"
)

// Journal stores negotiation attempts in postgres.
type Journal struct {
	db *gorm.DB
}

func NewJournal(db *gorm.DB) *Journal {
	return &Journal{db: db}
}

func (j *Journal) Record(ctx context.Context, event models.NegotiationEvent) error {
	return j.db.WithContext(ctx).Create(&event).Error
}

// Recent returns the driver's latest events, newest first.
func (j *Journal) Recent(ctx context.Context, driverID string, limit int) ([]models.NegotiationEvent, error) {
	var events []models.NegotiationEvent
	err := j.db.WithContext(ctx).
		Where("driver_id = ?", driverID).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}
