package handlers

import (
	"errors"
	"net/http"

	"github.com/chachabrian/kwikliner/internal/negotiation"
	"github.com/gin-gonic/gin"
)

var statusByKind = map[negotiation.Kind]int{
	negotiation.KindValidation: http.StatusBadRequest,
	negotiation.KindNotFound:   http.StatusNotFound,
	negotiation.KindBusy:       http.StatusConflict,
	negotiation.KindRequest:    http.StatusBadGateway,
}

// respondError renders a negotiation error as {"error", "kind"}.
func respondError(c *gin.Context, err error) {
	var ne *negotiation.Error
	if !errors.As(err, &ne) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	status, ok := statusByKind[ne.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"error": ne.Message, "kind": ne.Kind})
}
