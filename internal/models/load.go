package models

// LoadStatus is the lifecycle status owned by the listings service.
type LoadStatus string

const (
	LoadStatusBiddingOpen        LoadStatus = "Bidding Open"
	LoadStatusFindingDriver      LoadStatus = "Finding Driver"
	LoadStatusAwaitingCommitment LoadStatus = "Waiting for Driver Commitment"
	LoadStatusPendingDeposit     LoadStatus = "Pending Deposit"
	LoadStatusActive             LoadStatus = "Active (Waiting Delivery)"
	LoadStatusInTransit          LoadStatus = "In Transit"
	LoadStatusDelivered          LoadStatus = "Delivered"
	LoadStatusCompleted          LoadStatus = "Completed"
	LoadStatusCancelled          LoadStatus = "Cancelled"
)

// PricingType constants
const (
	PricingDirect  = "Direct"
	PricingOpenBid = "OpenBid"
)

// Load is a freight shipment listing posted by a shipper.
type Load struct {
	ID               string     `json:"id"`
	Route            string     `json:"route,omitempty"`
	Cargo            string     `json:"cargo,omitempty"`
	Weight           string     `json:"weight,omitempty"`
	Price            string     `json:"price,omitempty"`
	PricingType      string     `json:"pricing_type,omitempty"`
	AssignedDriverID string     `json:"assigned_driver_id,omitempty"`
	BidderIDs        []string   `json:"bidder_ids,omitempty"`
	BidsCount        int        `json:"bids_count"`
	Status           LoadStatus `json:"status"`
}

// HasBidder reports whether driverID has a bid recorded on the load.
func (l Load) HasBidder(driverID string) bool {
	for _, id := range l.BidderIDs {
		if id == driverID {
			return true
		}
	}
	return false
}

// Category is the dashboard tab a load is shown under.
type Category string

const (
	CategoryMarket   Category = "Market"
	CategoryRequests Category = "Requests"
	CategoryProposed Category = "Proposed"
	CategoryRejected Category = "Rejected"
	CategoryActive   Category = "Active"
	CategoryHistory  Category = "History"
)

// Categories lists the tabs in display order.
var Categories = []Category{
	CategoryMarket,
	CategoryRequests,
	CategoryProposed,
	CategoryRejected,
	CategoryActive,
	CategoryHistory,
}

// ValidCategory reports whether c names a dashboard tab.
func ValidCategory(c Category) bool {
	for _, known := range Categories {
		if known == c {
			return true
		}
	}
	return false
}

// Decision is the driver's answer on a load waiting for commitment.
type Decision string

const (
	DecisionCommit  Decision = "COMMIT"
	DecisionDecline Decision = "DECLINE"
)

// TripAction is a driver-initiated, one-way trip progress step.
type TripAction string

const (
	TripActionStart   TripAction = "start_trip"
	TripActionDeliver TripAction = "confirm_delivery"
)

// MarketListing is a marketplace record pushed over the market feed. Only the
// id is interpreted; the rest is passed through to the driver app.
type MarketListing struct {
	ID     string
	Fields map[string]any
}

// Driver identifies the driver a request is made for. Token is the bearer
// token forwarded to the listings service.
type Driver struct {
	ID    string
	Token string
}

// Notice kinds
const (
	NoticeSuccess = "success"
	NoticeError   = "error"
	NoticeInfo    = "info"
)

// Notice is a user-facing outcome message for a driver action.
type Notice struct {
	Kind    string `json:"kind"`
	Title   string `json:"title"`
	Message string `json:"message"`
	LoadID  string `json:"loadId,omitempty"`
}
