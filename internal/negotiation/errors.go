package negotiation

import (
	"errors"
	"fmt"
)

// Kind classifies a failed negotiation action.
type Kind string

const (
	// KindValidation: the action was rejected locally, nothing was sent.
	KindValidation Kind = "validation"
	// KindBusy: another mutation on the same load is in flight.
	KindBusy Kind = "busy"
	// KindNotFound: the load is not in the driver's current projection.
	KindNotFound Kind = "not_found"
	// KindRequest: the listings service could not be reached or refused.
	// Business-rule refusals are not distinguishable from transport errors.
	KindRequest Kind = "request"
)

var (
	ErrEmptyAmount      = errors.New("amount is required")
	ErrReasonRequired   = errors.New("a reason is required to decline")
	ErrLoadNotFound     = errors.New("load not found")
	ErrActionNotAllowed = errors.New("action not allowed for load status")
	ErrLoadBusy         = errors.New("another action on this load is in progress")
	ErrUnknownTab       = errors.New("unknown tab")
	ErrUnknownMode      = errors.New("unknown request mode")
	ErrNoRequestOpen    = errors.New("no direct request is open")
)

// validationMessages are the texts shown to the driver for local rejections.
var validationMessages = map[error]string{
	ErrEmptyAmount:      "Please enter an amount.",
	ErrReasonRequired:   "Please give a reason for declining.",
	ErrActionNotAllowed: "This action is not available for the load.",
	ErrUnknownTab:       "Unknown tab.",
	ErrUnknownMode:      "Unknown request mode.",
	ErrNoRequestOpen:    "No direct request is open.",
}

// Error is the result of a failed action. Message is safe to show to the
// driver; Err carries the cause.
type Error struct {
	Kind    Kind
	Op      string
	LoadID  string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", e.Op, e.LoadID, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %s: %s", e.Op, e.LoadID, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of err, or "" when err is not a negotiation error.
func KindOf(err error) Kind {
	var ne *Error
	if errors.As(err, &ne) {
		return ne.Kind
	}
	return ""
}

func validationError(op, loadID string, cause error) *Error {
	message := "This action is not available."
	for sentinel, text := range validationMessages {
		if errors.Is(cause, sentinel) {
			message = text
			break
		}
	}
	return &Error{Kind: KindValidation, Op: op, LoadID: loadID, Message: message, Err: cause}
}

func notFoundError(op, loadID string) *Error {
	return &Error{Kind: KindNotFound, Op: op, LoadID: loadID, Message: "Load not found.", Err: ErrLoadNotFound}
}

func busyError(op, loadID string) *Error {
	return &Error{Kind: KindBusy, Op: op, LoadID: loadID, Message: "Another action on this load is in progress.", Err: ErrLoadBusy}
}

func requestError(op, loadID, message string, cause error) *Error {
	return &Error{Kind: KindRequest, Op: op, LoadID: loadID, Message: message, Err: cause}
}
