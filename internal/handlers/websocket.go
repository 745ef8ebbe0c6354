package handlers

import (
	"context"
	"errors"

	"github.com/chachabrian/kwikliner/internal/middleware"
	"github.com/chachabrian/kwikliner/internal/models"
	"github.com/chachabrian/kwikliner/internal/negotiation"
	"github.com/chachabrian/kwikliner/internal/services"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MarketFeed streams marketplace updates for one driver.
type MarketFeed interface {
	Run(ctx context.Context, driver models.Driver, onUpdate func([]models.MarketListing)) error
}

// WebSocketHandler attaches the driver's socket to the hub, sends the current
// dashboard, and follows the market feed for as long as the socket is open.
func WebSocketHandler(hub *services.Hub, n *negotiation.Negotiator, feed MarketFeed, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		driver := middleware.CurrentDriver(c)

		client, err := services.HandleWebSocket(hub, c.Writer, c.Request, driver.ID)
		if err != nil {
			return
		}

		hub.DashboardChanged(driver.ID, n.Session(driver.ID).Snapshot())

		if feed == nil {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			<-client.Done()
			cancel()
		}()
		go func() {
			err := feed.Run(ctx, driver, func(batch []models.MarketListing) {
				n.ApplyMarketUpdate(driver.ID, batch)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("market feed stopped", zap.String("driverId", driver.ID), zap.Error(err))
			}
		}()
	}
}
