package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/chachabrian/kwikliner/internal/middleware"
	"github.com/chachabrian/kwikliner/internal/models"
	"github.com/gin-gonic/gin"
)

const (
	defaultJournalLimit = 50
	maxJournalLimit     = 200
)

// JournalReader lists a driver's past negotiation attempts.
type JournalReader interface {
	Recent(ctx context.Context, driverID string, limit int) ([]models.NegotiationEvent, error)
}

// GetJournal returns the driver's latest bids, commitments and trip updates,
// including the ones the listings service refused.
func GetJournal(journal JournalReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if journal == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Journal is not configured"})
			return
		}
		driverID := c.GetString(middleware.DriverIDKey)

		limit := defaultJournalLimit
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			limit = min(n, maxJournalLimit)
		}

		events, err := journal.Recent(c.Request.Context(), driverID, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load journal"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"events": events})
	}
}
