package negotiation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chachabrian/kwikliner/internal/models"
	"github.com/chachabrian/kwikliner/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Listings is the external listings/marketplace service.
type Listings interface {
	AvailableJobs(ctx context.Context, driver models.Driver) ([]models.Load, error)
	DriverTrips(ctx context.Context, driver models.Driver) ([]models.Load, error)
	SubmitBid(ctx context.Context, driver models.Driver, loadID, amount, idempotencyKey string) error
	DriverCommit(ctx context.Context, driver models.Driver, loadID string, decision models.Decision, reason, idempotencyKey string) error
	UpdateStatus(ctx context.Context, driver models.Driver, loadID string, status models.LoadStatus, idempotencyKey string) error
}

// Journal records every mutation attempt.
type Journal interface {
	Record(ctx context.Context, event models.NegotiationEvent) error
}

// Notifier delivers outcome notices to a driver.
type Notifier interface {
	Notify(ctx context.Context, driverID string, notice models.Notice) error
}

// Publisher announces successful load mutations to other BFF replicas.
type Publisher interface {
	PublishLoadUpdate(ctx context.Context, loadID, action string) error
}

// Observer is told whenever a driver's projection changes.
type Observer interface {
	DashboardChanged(driverID string, snap Snapshot)
	MarketChanged(driverID string, listings []models.MarketListing)
}

// Journal actions
const (
	opBid     = "bid"
	opCounter = "counter_offer"
	opAccept  = "accept_request"
	opCommit  = "commit"
	opDecline = "decline"
	opReload  = "reload"
)

const (
	msgBidFailed    = "Failed to submit bid."
	msgCommitFailed = "Failed to process commitment."
	msgAcceptFailed = "Failed to accept request."
	msgTripFailed   = "Failed to update trip status."
	msgReloadFailed = "Failed to load jobs."
)

// Negotiator runs the driver side of the bid, counter-offer and commitment
// workflow. Each mutation is sent once, then the driver's jobs are reloaded
// from the listings service; nothing is updated optimistically.
type Negotiator struct {
	listings  Listings
	sessions  *SessionStore
	locker    Locker
	journal   Journal
	notifier  Notifier
	publisher Publisher
	observer  Observer
	logger    *zap.Logger
	newKey    func() string
	now       func() time.Time
}

type Option func(*Negotiator)

func WithLocker(l Locker) Option       { return func(n *Negotiator) { n.locker = l } }
func WithJournal(j Journal) Option     { return func(n *Negotiator) { n.journal = j } }
func WithNotifier(nt Notifier) Option  { return func(n *Negotiator) { n.notifier = nt } }
func WithPublisher(p Publisher) Option { return func(n *Negotiator) { n.publisher = p } }
func WithObserver(o Observer) Option   { return func(n *Negotiator) { n.observer = o } }

// WithKeyFunc replaces the idempotency key generator.
func WithKeyFunc(f func() string) Option { return func(n *Negotiator) { n.newKey = f } }

func NewNegotiator(listings Listings, sessions *SessionStore, logger *zap.Logger, opts ...Option) *Negotiator {
	n := &Negotiator{
		listings: listings,
		sessions: sessions,
		locker:   NewMemoryLocker(),
		logger:   logger,
		newKey:   func() string { return uuid.NewString() },
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Session returns the driver's dashboard session.
func (n *Negotiator) Session(driverID string) *Session {
	return n.sessions.Get(driverID)
}

// Reload fetches available jobs and the driver's trips, merges them (first
// seen wins) and reclassifies. On failure the previous projection is kept.
func (n *Negotiator) Reload(ctx context.Context, driver models.Driver) error {
	var available, trips []models.Load

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		available, err = n.listings.AvailableJobs(gctx, driver)
		return err
	})
	g.Go(func() error {
		var err error
		trips, err = n.listings.DriverTrips(gctx, driver)
		return err
	})
	if err := g.Wait(); err != nil {
		n.logger.Warn("reload jobs failed", zap.String("driverId", driver.ID), zap.Error(err))
		return requestError(opReload, "", msgReloadFailed, err)
	}

	sess := n.sessions.Get(driver.ID)
	sess.setJobs(MergeJobs(available, trips), n.now())
	n.changed(driver.ID, sess)
	return nil
}

// OpenLoad selects a load and opens the dialog its state calls for.
func (n *Negotiator) OpenLoad(driverID, loadID string) error {
	sess := n.sessions.Get(driverID)
	load, ok := sess.load(loadID)
	if !ok {
		return notFoundError("open", loadID)
	}
	sess.open(load)
	n.changed(driverID, sess)
	return nil
}

func (n *Negotiator) CloseDialogs(driverID string) {
	sess := n.sessions.Get(driverID)
	sess.closeDialogs()
	n.changed(driverID, sess)
}

func (n *Negotiator) SetTab(driverID string, tab models.Category) error {
	if !models.ValidCategory(tab) {
		return validationError("set_tab", "", fmt.Errorf("%w %q", ErrUnknownTab, tab))
	}
	sess := n.sessions.Get(driverID)
	sess.setTab(tab)
	n.changed(driverID, sess)
	return nil
}

func (n *Negotiator) SetBidAmount(driverID, amount string) {
	sess := n.sessions.Get(driverID)
	sess.setBidAmount(amount)
	n.changed(driverID, sess)
}

// SetRequestMode toggles the open direct-request dialog between view and
// negotiate. Nothing is sent.
func (n *Negotiator) SetRequestMode(driverID string, mode RequestMode) error {
	if mode != RequestModeView && mode != RequestModeNegotiate {
		return validationError("set_request_mode", "", fmt.Errorf("%w %q", ErrUnknownMode, mode))
	}
	sess := n.sessions.Get(driverID)
	if !sess.setRequestMode(mode) {
		return validationError("set_request_mode", "", ErrNoRequestOpen)
	}
	n.changed(driverID, sess)
	return nil
}

func (n *Negotiator) SetDeclineReason(driverID, reason string) {
	sess := n.sessions.Get(driverID)
	sess.setDeclineReason(reason)
	n.changed(driverID, sess)
}

// ApplyMarketUpdate merges pushed marketplace listings by id.
func (n *Negotiator) ApplyMarketUpdate(driverID string, records []models.MarketListing) []models.MarketListing {
	merged := n.sessions.Get(driverID).upsertMarket(records)
	if n.observer != nil {
		n.observer.MarketChanged(driverID, merged)
	}
	return merged
}

// SubmitBid sends "MWK " + amount as the driver's bid on loadID. On success
// the bid form is closed and cleared and the Proposed tab is selected.
func (n *Negotiator) SubmitBid(ctx context.Context, driver models.Driver, loadID, amount string) error {
	if strings.TrimSpace(amount) == "" {
		return validationError(opBid, loadID, ErrEmptyAmount)
	}
	sess := n.sessions.Get(driver.ID)
	load, ok := sess.load(loadID)
	if !ok {
		return notFoundError(opBid, loadID)
	}
	if Classify(load, driver.ID) != models.CategoryMarket {
		return validationError(opBid, loadID, ErrActionNotAllowed)
	}

	formatted := utils.FormatBidAmount(amount)
	err := n.mutate(ctx, driver, opBid, loadID, formatted, msgBidFailed, func(key string) error {
		return n.listings.SubmitBid(ctx, driver, loadID, formatted, key)
	})
	if err != nil {
		n.fail(ctx, driver.ID, sess, err)
		return err
	}

	sess.bidSent()
	n.succeed(ctx, driver, sess, models.Notice{
		Kind:    models.NoticeSuccess,
		Title:   "Bid submitted",
		Message: "Your bid of " + formatted + " was sent to the shipper.",
		LoadID:  loadID,
	})
	return nil
}

// AcceptDirectRequest commits to a load the shipper offered to this driver.
// The shipper's confirmation is followed by a separate commitment step.
func (n *Negotiator) AcceptDirectRequest(ctx context.Context, driver models.Driver, loadID string) error {
	sess := n.sessions.Get(driver.ID)
	if _, err := n.directRequest(sess, driver.ID, opAccept, loadID); err != nil {
		return err
	}

	err := n.mutate(ctx, driver, opAccept, loadID, string(models.DecisionCommit), msgAcceptFailed, func(key string) error {
		return n.listings.DriverCommit(ctx, driver, loadID, models.DecisionCommit, "", key)
	})
	if err != nil {
		n.fail(ctx, driver.ID, sess, err)
		return err
	}

	sess.requestAnswered()
	n.succeed(ctx, driver, sess, models.Notice{
		Kind:    models.NoticeSuccess,
		Title:   "Request accepted",
		Message: "You will be asked to confirm your commitment before the trip starts.",
		LoadID:  loadID,
	})
	return nil
}

// CounterOffer answers a direct request with a different price. A counter
// offer is a bid and goes through the same channel.
func (n *Negotiator) CounterOffer(ctx context.Context, driver models.Driver, loadID, amount string) error {
	if strings.TrimSpace(amount) == "" {
		return validationError(opCounter, loadID, ErrEmptyAmount)
	}
	sess := n.sessions.Get(driver.ID)
	if _, err := n.directRequest(sess, driver.ID, opCounter, loadID); err != nil {
		return err
	}

	formatted := utils.FormatBidAmount(amount)
	err := n.mutate(ctx, driver, opCounter, loadID, formatted, msgBidFailed, func(key string) error {
		return n.listings.SubmitBid(ctx, driver, loadID, formatted, key)
	})
	if err != nil {
		n.fail(ctx, driver.ID, sess, err)
		return err
	}

	sess.requestAnswered()
	n.succeed(ctx, driver, sess, models.Notice{
		Kind:    models.NoticeSuccess,
		Title:   "Counter offer sent",
		Message: "Your offer of " + formatted + " was sent to the shipper.",
		LoadID:  loadID,
	})
	return nil
}

// Commit confirms the driver's commitment on a load waiting for it.
func (n *Negotiator) Commit(ctx context.Context, driver models.Driver, loadID string) error {
	return n.decide(ctx, driver, loadID, models.DecisionCommit, "")
}

// Decline refuses a load waiting for commitment. A blank reason sends
// nothing and marks the commit dialog's reason as missing.
func (n *Negotiator) Decline(ctx context.Context, driver models.Driver, loadID, reason string) error {
	if strings.TrimSpace(reason) == "" {
		vErr := validationError(opDecline, loadID, ErrReasonRequired)
		n.sessions.Get(driver.ID).rejectDeclineReason(vErr.Message)
		n.changed(driver.ID, n.sessions.Get(driver.ID))
		return vErr
	}
	return n.decide(ctx, driver, loadID, models.DecisionDecline, reason)
}

func (n *Negotiator) decide(ctx context.Context, driver models.Driver, loadID string, decision models.Decision, reason string) error {
	op := opCommit
	if decision == models.DecisionDecline {
		op = opDecline
	}

	sess := n.sessions.Get(driver.ID)
	load, ok := sess.load(loadID)
	if !ok {
		return notFoundError(op, loadID)
	}
	if load.Status != models.LoadStatusAwaitingCommitment {
		return validationError(op, loadID, ErrActionNotAllowed)
	}

	payload := string(decision)
	if reason != "" {
		payload += ": " + reason
	}
	err := n.mutate(ctx, driver, op, loadID, payload, msgCommitFailed, func(key string) error {
		return n.listings.DriverCommit(ctx, driver, loadID, decision, reason, key)
	})
	if err != nil {
		n.fail(ctx, driver.ID, sess, err)
		return err
	}

	sess.commitAnswered()
	notice := models.Notice{
		Kind:    models.NoticeSuccess,
		Title:   "Commitment confirmed",
		Message: "Your trip is now active.",
		LoadID:  loadID,
	}
	if decision == models.DecisionDecline {
		notice.Kind = models.NoticeInfo
		notice.Title = "Load declined"
		notice.Message = "You declined this load."
	}
	n.succeed(ctx, driver, sess, notice)
	return nil
}

// StartTrip moves an active load to In Transit.
func (n *Negotiator) StartTrip(ctx context.Context, driver models.Driver, loadID string) error {
	return n.advanceTrip(ctx, driver, loadID, models.TripActionStart, "Trip started")
}

// ConfirmDelivery moves an in-transit load to Delivered.
func (n *Negotiator) ConfirmDelivery(ctx context.Context, driver models.Driver, loadID string) error {
	return n.advanceTrip(ctx, driver, loadID, models.TripActionDeliver, "Delivery confirmed")
}

func (n *Negotiator) advanceTrip(ctx context.Context, driver models.Driver, loadID string, action models.TripAction, title string) error {
	op := string(action)
	sess := n.sessions.Get(driver.ID)
	load, ok := sess.load(loadID)
	if !ok {
		return notFoundError(op, loadID)
	}
	target, ok := TripTarget(load.Status, action)
	if !ok {
		return validationError(op, loadID, ErrActionNotAllowed)
	}

	err := n.mutate(ctx, driver, op, loadID, string(target), msgTripFailed, func(key string) error {
		return n.listings.UpdateStatus(ctx, driver, loadID, target, key)
	})
	if err != nil {
		n.fail(ctx, driver.ID, sess, err)
		return err
	}

	n.succeed(ctx, driver, sess, models.Notice{
		Kind:    models.NoticeSuccess,
		Title:   title,
		Message: "Load is now " + string(target) + ".",
		LoadID:  loadID,
	})
	return nil
}

func (n *Negotiator) directRequest(sess *Session, driverID, op, loadID string) (models.Load, error) {
	load, ok := sess.load(loadID)
	if !ok {
		return load, notFoundError(op, loadID)
	}
	if load.AssignedDriverID != driverID || load.Status != models.LoadStatusFindingDriver {
		return load, validationError(op, loadID, ErrActionNotAllowed)
	}
	return load, nil
}

// mutate sends one request under the load's lock and journals it.
func (n *Negotiator) mutate(ctx context.Context, driver models.Driver, op, loadID, payload, failMsg string, send func(key string) error) error {
	release, err := n.locker.Acquire(ctx, loadID)
	if err != nil {
		if errors.Is(err, ErrLoadBusy) {
			return busyError(op, loadID)
		}
		return requestError(op, loadID, failMsg, err)
	}
	defer release()

	key := n.newKey()
	sendErr := send(key)

	event := models.NegotiationEvent{
		DriverID:       driver.ID,
		LoadID:         loadID,
		Action:         op,
		Payload:        payload,
		IdempotencyKey: key,
		Outcome:        models.OutcomeSent,
	}
	if sendErr != nil {
		event.Outcome = models.OutcomeFailed
		event.Error = sendErr.Error()
	}
	if n.journal != nil {
		if err := n.journal.Record(ctx, event); err != nil {
			n.logger.Warn("journal negotiation event", zap.String("loadId", loadID), zap.Error(err))
		}
	}

	if sendErr != nil {
		n.logger.Error("negotiation request failed",
			zap.String("driverId", driver.ID),
			zap.String("loadId", loadID),
			zap.String("action", op),
			zap.Error(sendErr))
		return requestError(op, loadID, failMsg, sendErr)
	}

	if n.publisher != nil {
		if err := n.publisher.PublishLoadUpdate(ctx, loadID, op); err != nil {
			n.logger.Warn("publish load update", zap.String("loadId", loadID), zap.Error(err))
		}
	}
	return nil
}

func (n *Negotiator) succeed(ctx context.Context, driver models.Driver, sess *Session, notice models.Notice) {
	sess.setNotice(notice)
	n.notify(ctx, driver.ID, notice)

	if err := n.Reload(ctx, driver); err != nil {
		// The action went through; the stale projection is replaced on the
		// next successful reload.
		n.changed(driver.ID, sess)
	}
}

func (n *Negotiator) fail(ctx context.Context, driverID string, sess *Session, err error) {
	var ne *Error
	if !errors.As(err, &ne) || ne.Kind != KindRequest {
		return
	}
	notice := models.Notice{Kind: models.NoticeError, Title: "Action failed", Message: ne.Message, LoadID: ne.LoadID}
	sess.setNotice(notice)
	n.notify(ctx, driverID, notice)
	n.changed(driverID, sess)
}

func (n *Negotiator) notify(ctx context.Context, driverID string, notice models.Notice) {
	if n.notifier == nil {
		return
	}
	if err := n.notifier.Notify(ctx, driverID, notice); err != nil {
		n.logger.Warn("notify driver", zap.String("driverId", driverID), zap.Error(err))
	}
}

func (n *Negotiator) changed(driverID string, sess *Session) {
	if n.observer != nil {
		n.observer.DashboardChanged(driverID, sess.Snapshot())
	}
}
