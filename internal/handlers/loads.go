package handlers

import (
	"context"
	"net/http"

	"github.com/chachabrian/kwikliner/internal/middleware"
	"github.com/chachabrian/kwikliner/internal/models"
	"github.com/chachabrian/kwikliner/internal/negotiation"
	"github.com/gin-gonic/gin"
)

type amountInput struct {
	Amount string `json:"amount"`
}

type reasonInput struct {
	Reason string `json:"reason"`
}

// loadAction runs a negotiation action for the load in the path and answers
// with the refreshed dashboard.
func loadAction(n *negotiation.Negotiator, act func(ctx context.Context, driver models.Driver, loadID string) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		driver := middleware.CurrentDriver(c)

		if err := act(c.Request.Context(), driver, c.Param("loadId")); err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, n.Session(driver.ID).Snapshot())
	}
}

// bindOptional decodes the JSON body when there is one.
func bindOptional(c *gin.Context, v any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": negotiation.KindValidation})
		return false
	}
	return true
}

// SubmitBid bids on a Market load. The amount is sent as typed, prefixed with
// "MWK ". Without a body the amount typed into the open bid form is used.
func SubmitBid(n *negotiation.Negotiator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input amountInput
		if !bindOptional(c, &input) {
			return
		}
		loadAction(n, func(ctx context.Context, driver models.Driver, loadID string) error {
			amount := input.Amount
			if form := n.Session(driver.ID).Snapshot().BidForm; amount == "" && form.LoadID == loadID {
				amount = form.Amount
			}
			return n.SubmitBid(ctx, driver, loadID, amount)
		})(c)
	}
}

func AcceptRequest(n *negotiation.Negotiator) gin.HandlerFunc {
	return loadAction(n, n.AcceptDirectRequest)
}

func CounterOffer(n *negotiation.Negotiator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input amountInput
		if !bindOptional(c, &input) {
			return
		}
		loadAction(n, func(ctx context.Context, driver models.Driver, loadID string) error {
			return n.CounterOffer(ctx, driver, loadID, input.Amount)
		})(c)
	}
}

func CommitLoad(n *negotiation.Negotiator) gin.HandlerFunc {
	return loadAction(n, n.Commit)
}

// DeclineLoad declines a load waiting for commitment. The body may be
// omitted, in which case the reason typed into the commit dialog is used.
func DeclineLoad(n *negotiation.Negotiator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input reasonInput
		if !bindOptional(c, &input) {
			return
		}
		loadAction(n, func(ctx context.Context, driver models.Driver, loadID string) error {
			reason := input.Reason
			if dialog := n.Session(driver.ID).Snapshot().Commit; reason == "" && dialog.LoadID == loadID {
				reason = dialog.Reason
			}
			return n.Decline(ctx, driver, loadID, reason)
		})(c)
	}
}

func StartTrip(n *negotiation.Negotiator) gin.HandlerFunc {
	return loadAction(n, n.StartTrip)
}

func ConfirmDelivery(n *negotiation.Negotiator) gin.HandlerFunc {
	return loadAction(n, n.ConfirmDelivery)
}
