package negotiation

import (
	"testing"

	"github.com/chachabrian/kwikliner/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		load models.Load
		want models.Category
	}{
		{
			name: "bidder wins over direct request",
			load: models.Load{ID: "L1", BidderIDs: []string{"D1"}, AssignedDriverID: "D1", Status: models.LoadStatusFindingDriver},
			want: models.CategoryProposed,
		},
		{
			name: "bidder on active load is still proposed",
			load: models.Load{ID: "L2", BidderIDs: []string{"D9", "D1"}, Status: models.LoadStatusInTransit},
			want: models.CategoryProposed,
		},
		{
			name: "direct request",
			load: models.Load{ID: "L3", AssignedDriverID: "D1", Status: models.LoadStatusFindingDriver},
			want: models.CategoryRequests,
		},
		{
			name: "assigned to someone else is market",
			load: models.Load{ID: "L4", AssignedDriverID: "D2", Status: models.LoadStatusFindingDriver},
			want: models.CategoryMarket,
		},
		{
			name: "open bidding",
			load: models.Load{ID: "L5", Status: models.LoadStatusBiddingOpen},
			want: models.CategoryMarket,
		},
		{
			name: "assigned but bidding open is market",
			load: models.Load{ID: "L6", AssignedDriverID: "D1", Status: models.LoadStatusBiddingOpen},
			want: models.CategoryMarket,
		},
		{
			name: "waiting for commitment",
			load: models.Load{ID: "L7", Status: models.LoadStatusAwaitingCommitment},
			want: models.CategoryActive,
		},
		{
			name: "pending deposit",
			load: models.Load{ID: "L8", Status: models.LoadStatusPendingDeposit},
			want: models.CategoryActive,
		},
		{
			name: "waiting delivery",
			load: models.Load{ID: "L9", Status: models.LoadStatusActive},
			want: models.CategoryActive,
		},
		{
			name: "in transit",
			load: models.Load{ID: "L10", Status: models.LoadStatusInTransit},
			want: models.CategoryActive,
		},
		{
			name: "delivered",
			load: models.Load{ID: "L11", Status: models.LoadStatusDelivered},
			want: models.CategoryHistory,
		},
		{
			name: "unknown status",
			load: models.Load{ID: "L12", Status: "Archived"},
			want: models.CategoryHistory,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.load, "D1"))
		})
	}
}

func TestClassifyAllIsStable(t *testing.T) {
	loads := []models.Load{
		{ID: "A", Status: models.LoadStatusBiddingOpen},
		{ID: "B", Status: models.LoadStatusInTransit},
		{ID: "C", Status: models.LoadStatusBiddingOpen, BidderIDs: []string{"D1"}},
		{ID: "D", Status: models.LoadStatusFindingDriver},
		{ID: "E", Status: models.LoadStatusCompleted},
	}

	first := ClassifyAll(loads, "D1")
	second := ClassifyAll(loads, "D1")
	assert.Equal(t, first, second)

	for _, c := range models.Categories {
		_, ok := first[c]
		assert.True(t, ok, "tab %s missing", c)
	}
	assert.Empty(t, first[models.CategoryRejected])
	require.Len(t, first[models.CategoryMarket], 2)
	assert.Equal(t, "A", first[models.CategoryMarket][0].ID)
	assert.Equal(t, "D", first[models.CategoryMarket][1].ID)
	assert.Equal(t, "C", first[models.CategoryProposed][0].ID)
	assert.Equal(t, "B", first[models.CategoryActive][0].ID)
	assert.Equal(t, "E", first[models.CategoryHistory][0].ID)
}

func TestMergeJobsFirstSeenWins(t *testing.T) {
	available := []models.Load{{ID: "L1", Status: "A"}, {ID: "L2", Status: "A"}}
	trips := []models.Load{{ID: "L1", Status: "B"}, {ID: "L3", Status: "B"}, {ID: "L3", Status: "C"}}

	merged := MergeJobs(available, trips)

	require.Len(t, merged, 3)
	assert.Equal(t, models.Load{ID: "L1", Status: "A"}, merged[0])
	assert.Equal(t, "L2", merged[1].ID)
	assert.Equal(t, models.Load{ID: "L3", Status: "B"}, merged[2])
}

func TestApplyUpsert(t *testing.T) {
	current := []models.MarketListing{
		{ID: "m1", Fields: map[string]any{"price": "MWK 10"}},
		{ID: "m2", Fields: map[string]any{"price": "MWK 20"}},
	}
	incoming := []models.MarketListing{
		{ID: "m2", Fields: map[string]any{"price": "MWK 25"}},
		{ID: "m3", Fields: map[string]any{"price": "MWK 30"}},
		{ID: "m3", Fields: map[string]any{"price": "MWK 35"}},
	}

	out := ApplyUpsert(current, incoming)

	require.Len(t, out, 3)
	assert.Equal(t, "m1", out[0].ID)
	assert.Equal(t, "MWK 25", out[1].Fields["price"])
	assert.Equal(t, "MWK 35", out[2].Fields["price"])
	assert.Equal(t, "MWK 20", current[1].Fields["price"], "input must not be modified")
}
