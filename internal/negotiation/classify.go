package negotiation

import (
	"github.com/chachabrian/kwikliner/internal/models"
)

// Tabs groups loads by dashboard category. Every category is present, empty
// ones included.
type Tabs map[models.Category][]models.Load

var activeStatuses = map[models.LoadStatus]bool{
	models.LoadStatusAwaitingCommitment: true,
	models.LoadStatusPendingDeposit:     true,
	models.LoadStatusActive:             true,
	models.LoadStatusInTransit:          true,
}

// Classify assigns a load to exactly one category from driverID's point of
// view. Rules are checked in order and the first match wins, so a driver who
// already bid on a direct request sees it under Proposed, not Requests.
func Classify(load models.Load, driverID string) models.Category {
	switch {
	case load.HasBidder(driverID):
		return models.CategoryProposed
	case load.AssignedDriverID == driverID && load.Status == models.LoadStatusFindingDriver:
		return models.CategoryRequests
	case load.Status == models.LoadStatusBiddingOpen || load.Status == models.LoadStatusFindingDriver:
		return models.CategoryMarket
	case activeStatuses[load.Status]:
		return models.CategoryActive
	default:
		return models.CategoryHistory
	}
}

// ClassifyAll buckets loads into tabs, preserving input order inside each tab.
func ClassifyAll(loads []models.Load, driverID string) Tabs {
	tabs := make(Tabs, len(models.Categories))
	for _, c := range models.Categories {
		tabs[c] = []models.Load{}
	}
	for _, load := range loads {
		c := Classify(load, driverID)
		tabs[c] = append(tabs[c], load)
	}
	return tabs
}

// MergeJobs concatenates the available-jobs and my-trips lists, dropping any
// record whose id was already seen. The first occurrence wins.
func MergeJobs(available, trips []models.Load) []models.Load {
	seen := make(map[string]bool, len(available)+len(trips))
	merged := make([]models.Load, 0, len(available)+len(trips))
	for _, list := range [][]models.Load{available, trips} {
		for _, load := range list {
			if seen[load.ID] {
				continue
			}
			seen[load.ID] = true
			merged = append(merged, load)
		}
	}
	return merged
}

// ApplyUpsert merges pushed listings into current: a record with a known id
// replaces the old one in place, anything else is appended. The last write
// wins and there is no conflict detection. current is not modified.
func ApplyUpsert(current, incoming []models.MarketListing) []models.MarketListing {
	out := make([]models.MarketListing, len(current), len(current)+len(incoming))
	copy(out, current)

	index := make(map[string]int, len(out))
	for i, l := range out {
		index[l.ID] = i
	}
	for _, l := range incoming {
		if i, ok := index[l.ID]; ok {
			out[i] = l
			continue
		}
		index[l.ID] = len(out)
		out = append(out, l)
	}
	return out
}

// FindLoad returns the load with id from loads.
func FindLoad(loads []models.Load, id string) (models.Load, bool) {
	for _, l := range loads {
		if l.ID == id {
			return l, true
		}
	}
	return models.Load{}, false
}
