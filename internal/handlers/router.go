package handlers

import (
	"github.com/chachabrian/kwikliner/internal/middleware"
	"github.com/chachabrian/kwikliner/internal/negotiation"
	"github.com/chachabrian/kwikliner/internal/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Dependencies are the components the routes are built from. Feed, Tokens
// and Journal may be nil.
type Dependencies struct {
	Negotiator *negotiation.Negotiator
	Hub        *services.Hub
	Feed       MarketFeed
	Tokens     DeviceTokenStore
	Journal    JournalReader
	JWTSecret  string
	Logger     *zap.Logger
}

func SetupRouter(r *gin.Engine, deps Dependencies) {
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	r.Use(cors.New(config))

	n := deps.Negotiator
	auth := middleware.AuthMiddleware(deps.JWTSecret)

	api := r.Group("/api")
	{
		api.GET("/health", Health(deps.Hub))

		api.GET("/ws", auth, WebSocketHandler(deps.Hub, n, deps.Feed, deps.Logger))

		protected := api.Group("/")
		protected.Use(auth)
		{
			driver := protected.Group("/driver")
			{
				driver.GET("/dashboard", GetDashboard(n))
				driver.POST("/dashboard/reload", ReloadDashboard(n))
				driver.PUT("/dashboard/tab", SetTab(n))

				driver.POST("/loads/:loadId/open", OpenLoad(n))
				driver.POST("/dialogs/close", CloseDialogs(n))
				driver.PUT("/bid-form", SetBidAmount(n))
				driver.PUT("/request-dialog/mode", SetRequestMode(n))
				driver.PUT("/commit-dialog/reason", SetDeclineReason(n))

				driver.POST("/loads/:loadId/bid", SubmitBid(n))
				driver.POST("/loads/:loadId/accept", AcceptRequest(n))
				driver.POST("/loads/:loadId/counter", CounterOffer(n))
				driver.POST("/loads/:loadId/commit", CommitLoad(n))
				driver.POST("/loads/:loadId/decline", DeclineLoad(n))
				driver.POST("/loads/:loadId/start", StartTrip(n))
				driver.POST("/loads/:loadId/deliver", ConfirmDelivery(n))

				driver.GET("/journal", GetJournal(deps.Journal))
			}

			protected.GET("/market", GetMarket(n))

			notifications := protected.Group("/notifications")
			{
				notifications.POST("/register-token", RegisterFCMToken(deps.Tokens))
				notifications.DELETE("/remove-token", RemoveFCMToken(deps.Tokens))
			}
		}
	}
}
