package database

import (
	"context"

	"github.com/chachabrian/kwikliner/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DeviceTokens keeps the FCM registration tokens of each driver's phones.
type DeviceTokens struct {
	db *gorm.DB
}

func NewDeviceTokens(db *gorm.DB) *DeviceTokens {
	return &DeviceTokens{db: db}
}

// Register stores token for driverID. A token that moved to another driver
// (shared phone, re-login) is reassigned.
func (s *DeviceTokens) Register(ctx context.Context, driverID, token string) error {
	row := models.DeviceToken{DriverID: driverID, Token: token}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "token"}},
		DoUpdates: clause.AssignmentColumns([]string{"driver_id", "updated_at"}),
	}).Create(&row).Error
}

func (s *DeviceTokens) Tokens(ctx context.Context, driverID string) ([]string, error) {
	var tokens []string
	err := s.db.WithContext(ctx).
		Model(&models.DeviceToken{}).
		Where("driver_id = ?", driverID).
		Pluck("token", &tokens).Error
	return tokens, err
}

func (s *DeviceTokens) Remove(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).Unscoped().Where("token = ?", token).Delete(&models.DeviceToken{}).Error
}

// RemoveForDriver deletes token only if it belongs to driverID.
func (s *DeviceTokens) RemoveForDriver(ctx context.Context, driverID, token string) (bool, error) {
	res := s.db.WithContext(ctx).Unscoped().
		Where("driver_id = ? AND token = ?", driverID, token).
		Delete(&models.DeviceToken{})
	return res.RowsAffected > 0, res.Error
}
