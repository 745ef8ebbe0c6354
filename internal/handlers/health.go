package handlers

import (
	"net/http"

	"github.com/chachabrian/kwikliner/internal/services"
	"github.com/gin-gonic/gin"
)

func Health(hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":           "ok",
			"connectedDrivers": hub.GetConnectedClients(),
		})
	}
}
