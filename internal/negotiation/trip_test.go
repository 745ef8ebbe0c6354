package negotiation

import (
	"testing"

	"github.com/chachabrian/kwikliner/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestNextTripActionIsForwardOnly(t *testing.T) {
	a, ok := NextTripAction(models.LoadStatusActive)
	assert.True(t, ok)
	assert.Equal(t, models.TripActionStart, a)

	a, ok = NextTripAction(models.LoadStatusInTransit)
	assert.True(t, ok)
	assert.Equal(t, models.TripActionDeliver, a)

	for _, s := range []models.LoadStatus{
		models.LoadStatusDelivered,
		models.LoadStatusBiddingOpen,
		models.LoadStatusAwaitingCommitment,
		models.LoadStatusPendingDeposit,
	} {
		_, ok := NextTripAction(s)
		assert.False(t, ok, s)
	}
}

func TestTripTarget(t *testing.T) {
	to, ok := TripTarget(models.LoadStatusActive, models.TripActionStart)
	assert.True(t, ok)
	assert.Equal(t, models.LoadStatusInTransit, to)

	to, ok = TripTarget(models.LoadStatusInTransit, models.TripActionDeliver)
	assert.True(t, ok)
	assert.Equal(t, models.LoadStatusDelivered, to)

	_, ok = TripTarget(models.LoadStatusInTransit, models.TripActionStart)
	assert.False(t, ok)
	_, ok = TripTarget(models.LoadStatusActive, models.TripActionDeliver)
	assert.False(t, ok)
	_, ok = TripTarget(models.LoadStatusDelivered, models.TripActionDeliver)
	assert.False(t, ok)
}

func TestAvailableActions(t *testing.T) {
	tests := []struct {
		name string
		load models.Load
		want []Action
	}{
		{"in transit", models.Load{Status: models.LoadStatusInTransit}, []Action{ActionConfirmDelivery}},
		{"waiting delivery", models.Load{Status: models.LoadStatusActive}, []Action{ActionStartTrip}},
		{"commitment", models.Load{Status: models.LoadStatusAwaitingCommitment}, []Action{ActionCommit, ActionDecline}},
		{"direct request", models.Load{AssignedDriverID: "D1", Status: models.LoadStatusFindingDriver}, []Action{ActionAcceptRequest, ActionCounterOffer}},
		{"market", models.Load{Status: models.LoadStatusBiddingOpen}, []Action{ActionBid}},
		{"proposed", models.Load{BidderIDs: []string{"D1"}, Status: models.LoadStatusBiddingOpen}, nil},
		{"pending deposit", models.Load{Status: models.LoadStatusPendingDeposit}, nil},
		{"history", models.Load{Status: models.LoadStatusDelivered}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AvailableActions(tt.load, "D1"))
		})
	}
}
