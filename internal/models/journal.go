package models

import (
	"gorm.io/gorm"
)

// Negotiation outcomes recorded in the journal
const (
	OutcomeSent   = "sent"
	OutcomeFailed = "failed"
)

// NegotiationEvent is one mutating request the BFF sent (or tried to send)
// to the listings service on a driver's behalf.
type NegotiationEvent struct {
	gorm.Model
	DriverID       string `json:"driverId" gorm:"not null;index"`
	LoadID         string `json:"loadId" gorm:"not null;index"`
	Action         string `json:"action" gorm:"not null"` // bid, counter_offer, commit, decline, start_trip, confirm_delivery
	Payload        string `json:"payload"`
	IdempotencyKey string `json:"idempotencyKey" gorm:"not null;uniqueIndex"`
	Outcome        string `json:"outcome" gorm:"not null"`
	Error          string `json:"error,omitempty"`
}

// TableName specifies the table name
func (NegotiationEvent) TableName() string {
	return "negotiation_events"
}

// DeviceToken is an FCM registration token for a driver's device.
type DeviceToken struct {
	gorm.Model
	DriverID string `json:"driverId" gorm:"not null;index"`
	Token    string `json:"token" gorm:"not null;uniqueIndex"`
}

// TableName specifies the table name
func (DeviceToken) TableName() string {
	return "device_tokens"
}
