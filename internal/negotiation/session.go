package negotiation

import (
	"sync"
	"time"

	"github.com/chachabrian/kwikliner/internal/models"
	"github.com/chachabrian/kwikliner/pkg/utils"
)

// RequestMode is the local mode of the direct-request dialog.
type RequestMode string

const (
	RequestModeView      RequestMode = "view"
	RequestModeNegotiate RequestMode = "negotiate"
)

type BidForm struct {
	Open   bool   `json:"open"`
	LoadID string `json:"loadId,omitempty"`
	Amount string `json:"amount"`
}

type RequestDialog struct {
	Open   bool        `json:"open"`
	LoadID string      `json:"loadId,omitempty"`
	Mode   RequestMode `json:"mode"`
}

// CommitDialog collects the commit/decline decision. ReasonError is the
// validation state shown when a decline is attempted without a reason.
type CommitDialog struct {
	Open        bool   `json:"open"`
	LoadID      string `json:"loadId,omitempty"`
	Reason      string `json:"reason"`
	ReasonError string `json:"reasonError,omitempty"`
}

// Card is one load as rendered on a dashboard tab.
type Card struct {
	models.Load
	Category models.Category `json:"category"`
	Actions  []Action        `json:"actions"`
	PriceMWK string          `json:"price_mwk,omitempty"`
}

// Snapshot is a read-only copy of a driver's dashboard.
type Snapshot struct {
	DriverID   string                     `json:"driverId"`
	ActiveTab  models.Category            `json:"activeTab"`
	Tabs       map[models.Category][]Card `json:"tabs"`
	SelectedID string                     `json:"selectedLoadId,omitempty"`
	BidForm    BidForm                    `json:"bidForm"`
	Request    RequestDialog              `json:"requestDialog"`
	Commit     CommitDialog               `json:"commitDialog"`
	Notice     *models.Notice             `json:"notice,omitempty"`
	LoadedAt   time.Time                  `json:"loadedAt"`
}

// Session is the dashboard state of one driver. The job list is a projection
// of the listings service and is replaced wholesale on every reload.
type Session struct {
	mu sync.Mutex

	driverID   string
	jobs       []models.Load
	tabs       Tabs
	activeTab  models.Category
	selectedID string
	bid        BidForm
	request    RequestDialog
	commit     CommitDialog
	market     []models.MarketListing
	notice     *models.Notice
	loadedAt   time.Time
}

func newSession(driverID string) *Session {
	return &Session{
		driverID:  driverID,
		tabs:      ClassifyAll(nil, driverID),
		activeTab: models.CategoryMarket,
		request:   RequestDialog{Mode: RequestModeView},
	}
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		DriverID:   s.driverID,
		ActiveTab:  s.activeTab,
		Tabs:       make(map[models.Category][]Card, len(s.tabs)),
		SelectedID: s.selectedID,
		BidForm:    s.bid,
		Request:    s.request,
		Commit:     s.commit,
		LoadedAt:   s.loadedAt,
	}
	if s.notice != nil {
		n := *s.notice
		snap.Notice = &n
	}
	for category, loads := range s.tabs {
		cards := make([]Card, 0, len(loads))
		for _, l := range loads {
			cards = append(cards, Card{
				Load:     l,
				Category: category,
				Actions:  AvailableActions(l, s.driverID),
				PriceMWK: priceInMWK(l.Price),
			})
		}
		snap.Tabs[category] = cards
	}
	return snap
}

// Jobs returns a copy of the merged job list.
func (s *Session) Jobs() []models.Load {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Load, len(s.jobs))
	copy(out, s.jobs)
	return out
}

// Market returns a copy of the merged market listings.
func (s *Session) Market() []models.MarketListing {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.MarketListing, len(s.market))
	copy(out, s.market)
	return out
}

func (s *Session) load(id string) (models.Load, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return FindLoad(s.jobs, id)
}

func (s *Session) setJobs(jobs []models.Load, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = jobs
	s.tabs = ClassifyAll(jobs, s.driverID)
	s.loadedAt = at
}

func (s *Session) upsertMarket(records []models.MarketListing) []models.MarketListing {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.market = ApplyUpsert(s.market, records)
	out := make([]models.MarketListing, len(s.market))
	copy(out, s.market)
	return out
}

func (s *Session) setTab(tab models.Category) {
	s.mu.Lock()
	s.activeTab = tab
	s.mu.Unlock()
}

func (s *Session) setNotice(n models.Notice) {
	s.mu.Lock()
	s.notice = &n
	s.mu.Unlock()
}

func (s *Session) open(load models.Load) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closeDialogsLocked()
	s.selectedID = load.ID

	switch {
	case load.Status == models.LoadStatusAwaitingCommitment:
		s.commit = CommitDialog{Open: true, LoadID: load.ID}
	case Classify(load, s.driverID) == models.CategoryRequests:
		s.request = RequestDialog{Open: true, LoadID: load.ID, Mode: RequestModeView}
	case Classify(load, s.driverID) == models.CategoryMarket:
		amount := ""
		if s.bid.LoadID == load.ID {
			amount = s.bid.Amount
		}
		s.bid = BidForm{Open: true, LoadID: load.ID, Amount: amount}
	}
}

func (s *Session) closeDialogs() {
	s.mu.Lock()
	s.closeDialogsLocked()
	s.mu.Unlock()
}

func (s *Session) closeDialogsLocked() {
	s.bid.Open = false
	s.request = RequestDialog{Mode: RequestModeView}
	s.commit = CommitDialog{}
}

func (s *Session) setBidAmount(amount string) {
	s.mu.Lock()
	s.bid.Amount = amount
	s.mu.Unlock()
}

func (s *Session) setRequestMode(mode RequestMode) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.request.Open {
		return false
	}
	s.request.Mode = mode
	return true
}

func (s *Session) setDeclineReason(reason string) {
	s.mu.Lock()
	s.commit.Reason = reason
	s.commit.ReasonError = ""
	s.mu.Unlock()
}

func (s *Session) rejectDeclineReason(message string) {
	s.mu.Lock()
	s.commit.ReasonError = message
	s.mu.Unlock()
}

func (s *Session) bidSent() {
	s.mu.Lock()
	s.bid = BidForm{}
	s.activeTab = models.CategoryProposed
	s.mu.Unlock()
}

func (s *Session) requestAnswered() {
	s.mu.Lock()
	s.request = RequestDialog{Mode: RequestModeView}
	s.mu.Unlock()
}

func (s *Session) commitAnswered() {
	s.mu.Lock()
	s.commit = CommitDialog{}
	s.mu.Unlock()
}

// SessionStore holds the in-memory sessions of connected drivers.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

// Get returns driverID's session, creating an empty one on first use.
func (s *SessionStore) Get(driverID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[driverID]
	if !ok {
		sess = newSession(driverID)
		s.sessions[driverID] = sess
	}
	return sess
}

// Drop forgets driverID's session.
func (s *SessionStore) Drop(driverID string) {
	s.mu.Lock()
	delete(s.sessions, driverID)
	s.mu.Unlock()
}

func priceInMWK(price string) string {
	if price == "" {
		return ""
	}
	m, err := utils.ParseMoney(price)
	if err != nil {
		return ""
	}
	return m.ToMWK().StringFixed(0)
}
