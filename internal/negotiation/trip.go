package negotiation

import (
	"github.com/chachabrian/kwikliner/internal/models"
)

type tripStep struct {
	action models.TripAction
	to     models.LoadStatus
}

var tripSteps = map[models.LoadStatus]tripStep{
	models.LoadStatusActive:    {action: models.TripActionStart, to: models.LoadStatusInTransit},
	models.LoadStatusInTransit: {action: models.TripActionDeliver, to: models.LoadStatusDelivered},
}

// NextTripAction returns the single forward trip action offered for status.
func NextTripAction(status models.LoadStatus) (models.TripAction, bool) {
	step, ok := tripSteps[status]
	return step.action, ok
}

// TripTarget returns the status a trip action moves a load from `from` to.
// It fails when action is not the one offered for from.
func TripTarget(from models.LoadStatus, action models.TripAction) (models.LoadStatus, bool) {
	step, ok := tripSteps[from]
	if !ok || step.action != action {
		return "", false
	}
	return step.to, true
}

// Action is something the driver app may offer on a load card.
type Action string

const (
	ActionBid             Action = "bid"
	ActionAcceptRequest   Action = "accept_request"
	ActionCounterOffer    Action = "counter_offer"
	ActionCommit          Action = "commit"
	ActionDecline         Action = "decline"
	ActionStartTrip       Action = Action(models.TripActionStart)
	ActionConfirmDelivery Action = Action(models.TripActionDeliver)
)

// AvailableActions lists what driverID may do on load right now. Commitment
// and trip steps follow the status alone; bidding follows the category.
func AvailableActions(load models.Load, driverID string) []Action {
	if load.Status == models.LoadStatusAwaitingCommitment {
		return []Action{ActionCommit, ActionDecline}
	}
	if a, ok := NextTripAction(load.Status); ok {
		return []Action{Action(a)}
	}

	switch Classify(load, driverID) {
	case models.CategoryRequests:
		return []Action{ActionAcceptRequest, ActionCounterOffer}
	case models.CategoryMarket:
		return []Action{ActionBid}
	}
	return nil
}
