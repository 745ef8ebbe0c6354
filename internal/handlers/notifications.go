package handlers

import (
	"context"
	"net/http"

	"github.com/chachabrian/kwikliner/internal/middleware"
	"github.com/gin-gonic/gin"
)

// DeviceTokenStore keeps push tokens per driver.
type DeviceTokenStore interface {
	Register(ctx context.Context, driverID, token string) error
	RemoveForDriver(ctx context.Context, driverID, token string) (bool, error)
}

// RegisterFCMToken registers a device for push notifications
func RegisterFCMToken(store DeviceTokenStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Push notifications are not configured"})
			return
		}
		driverID := c.GetString(middleware.DriverIDKey)

		var input struct {
			FCMToken string `json:"fcmToken" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := store.Register(c.Request.Context(), driverID, input.FCMToken); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register FCM token"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "FCM token registered successfully"})
	}
}

// RemoveFCMToken unregisters one of the driver's devices
func RemoveFCMToken(store DeviceTokenStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Push notifications are not configured"})
			return
		}
		driverID := c.GetString(middleware.DriverIDKey)

		var input struct {
			FCMToken string `json:"fcmToken" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		removed, err := store.RemoveForDriver(c.Request.Context(), driverID, input.FCMToken)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove FCM token"})
			return
		}
		if !removed {
			c.JSON(http.StatusNotFound, gin.H{"error": "FCM token not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "FCM token removed successfully"})
	}
}
