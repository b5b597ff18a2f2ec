package syncer

import (
	"errors"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/harborline/harbormaster/internal/api"
)

// Feed names one of the three data streams a tick fetches.
type Feed string

const (
	FeedStatus        Feed = "status"
	FeedOperations    Feed = "operations"
	FeedNotifications Feed = "notifications"
)

// Feeds lists every feed in display order.
var Feeds = []Feed{FeedStatus, FeedOperations, FeedNotifications}

// Outcome is how a single feed fetch settled.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailure
	OutcomeTimedOut
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeTimedOut:
		return "timed_out"
	default:
		return "failure"
	}
}

// Trigger records why a tick ran.
type Trigger string

const (
	TriggerTimer     Trigger = "timer"
	TriggerManual    Trigger = "manual"
	TriggerReconnect Trigger = "reconnect"
)

// FeedResult is the settled outcome of one feed. When the fetch failed,
// Payload holds the stub and Stub is true.
type FeedResult[T any] struct {
	Feed        Feed
	Outcome     Outcome
	Payload     T
	Stub        bool
	Err         error
	CompletedAt time.Time
}

// OK reports whether the feed delivered real data.
func (r FeedResult[T]) OK() bool {
	return r.Outcome == OutcomeSuccess
}

// TickResult aggregates the three feeds of one tick. It is only built after
// all of them settled.
type TickResult struct {
	Trigger       Trigger
	StartedAt     time.Time
	CompletedAt   time.Time
	NextSync      time.Time
	Status        FeedResult[api.SyncStatus]
	Operations    FeedResult[[]api.Operation]
	Notifications FeedResult[[]api.Notification]
	// Err is an *AggregateError when every feed failed, nil otherwise.
	Err error
}

// OK reports whether at least one feed succeeded.
func (r TickResult) OK() bool {
	return r.Status.OK() || r.Operations.OK() || r.Notifications.OK()
}

// Degraded reports whether some but not all feeds failed.
func (r TickResult) Degraded() bool {
	return r.OK() && len(r.Failed()) > 0
}

// Failed lists the feeds that fell back to a stub.
func (r TickResult) Failed() []Feed {
	var out []Feed
	if !r.Status.OK() {
		out = append(out, FeedStatus)
	}
	if !r.Operations.OK() {
		out = append(out, FeedOperations)
	}
	if !r.Notifications.OK() {
		out = append(out, FeedNotifications)
	}
	return out
}

// Outcome returns the settled outcome of feed.
func (r TickResult) Outcome(feed Feed) Outcome {
	switch feed {
	case FeedStatus:
		return r.Status.Outcome
	case FeedOperations:
		return r.Operations.Outcome
	default:
		return r.Notifications.Outcome
	}
}

// Clone returns a copy whose payload slices are not shared with r.
func (r TickResult) Clone() TickResult {
	out := r
	if r.Operations.Payload != nil {
		out.Operations.Payload = append([]api.Operation(nil), r.Operations.Payload...)
	}
	if r.Notifications.Payload != nil {
		out.Notifications.Payload = append([]api.Notification(nil), r.Notifications.Payload...)
	}
	return out
}

// ErrAggregateSyncFailure matches an *AggregateError.
var ErrAggregateSyncFailure = errors.New("all feeds failed, system may be offline")

// AggregateError is reported once per tick when every feed failed.
type AggregateError struct {
	errs *multierror.Error
}

func newAggregateError(errs ...error) *AggregateError {
	var merr *multierror.Error
	for _, err := range errs {
		merr = multierror.Append(merr, err)
	}
	merr.ErrorFormat = func(es []error) string {
		parts := make([]string, 0, len(es))
		for _, e := range es {
			parts = append(parts, e.Error())
		}
		return strings.Join(parts, "; ")
	}
	return &AggregateError{errs: merr}
}

func (e *AggregateError) Error() string {
	return ErrAggregateSyncFailure.Error() + ": " + e.errs.Error()
}

// Unwrap exposes the per-feed errors.
func (e *AggregateError) Unwrap() []error {
	return e.errs.WrappedErrors()
}

func (e *AggregateError) Is(target error) bool {
	return target == ErrAggregateSyncFailure
}
