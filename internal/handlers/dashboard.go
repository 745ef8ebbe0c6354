package handlers

import (
	"net/http"

	"github.com/chachabrian/kwikliner/internal/middleware"
	"github.com/chachabrian/kwikliner/internal/models"
	"github.com/chachabrian/kwikliner/internal/negotiation"
	"github.com/gin-gonic/gin"
)

// GetDashboard returns the driver's dashboard. The first call for a driver
// loads their jobs.
func GetDashboard(n *negotiation.Negotiator) gin.HandlerFunc {
	return func(c *gin.Context) {
		driver := middleware.CurrentDriver(c)

		if n.Session(driver.ID).Snapshot().LoadedAt.IsZero() {
			if err := n.Reload(c.Request.Context(), driver); err != nil {
				respondError(c, err)
				return
			}
		}

		c.JSON(http.StatusOK, n.Session(driver.ID).Snapshot())
	}
}

func ReloadDashboard(n *negotiation.Negotiator) gin.HandlerFunc {
	return func(c *gin.Context) {
		driver := middleware.CurrentDriver(c)

		if err := n.Reload(c.Request.Context(), driver); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, n.Session(driver.ID).Snapshot())
	}
}

func SetTab(n *negotiation.Negotiator) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID := c.GetString(middleware.DriverIDKey)

		var input struct {
			Tab models.Category `json:"tab" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": negotiation.KindValidation})
			return
		}

		if err := n.SetTab(driverID, input.Tab); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, n.Session(driverID).Snapshot())
	}
}

// OpenLoad selects a load and opens the bid form, direct-request dialog or
// commit dialog for it.
func OpenLoad(n *negotiation.Negotiator) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID := c.GetString(middleware.DriverIDKey)

		if err := n.OpenLoad(driverID, c.Param("loadId")); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, n.Session(driverID).Snapshot())
	}
}

func CloseDialogs(n *negotiation.Negotiator) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID := c.GetString(middleware.DriverIDKey)
		n.CloseDialogs(driverID)
		c.JSON(http.StatusOK, n.Session(driverID).Snapshot())
	}
}

// SetBidAmount keeps what the driver typed in the bid form. An empty amount
// is allowed here; it is rejected on submit.
func SetBidAmount(n *negotiation.Negotiator) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID := c.GetString(middleware.DriverIDKey)

		var input struct {
			Amount string `json:"amount"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": negotiation.KindValidation})
			return
		}

		n.SetBidAmount(driverID, input.Amount)
		c.JSON(http.StatusOK, n.Session(driverID).Snapshot())
	}
}

func SetRequestMode(n *negotiation.Negotiator) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID := c.GetString(middleware.DriverIDKey)

		var input struct {
			Mode negotiation.RequestMode `json:"mode" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": negotiation.KindValidation})
			return
		}

		if err := n.SetRequestMode(driverID, input.Mode); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, n.Session(driverID).Snapshot())
	}
}

func SetDeclineReason(n *negotiation.Negotiator) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID := c.GetString(middleware.DriverIDKey)

		var input struct {
			Reason string `json:"reason"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": negotiation.KindValidation})
			return
		}

		n.SetDeclineReason(driverID, input.Reason)
		c.JSON(http.StatusOK, n.Session(driverID).Snapshot())
	}
}

func GetMarket(n *negotiation.Negotiator) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID := c.GetString(middleware.DriverIDKey)
		c.JSON(http.StatusOK, gin.H{"listings": n.Session(driverID).Market()})
	}
}
