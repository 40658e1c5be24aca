// Package audit provides the activity log contract.
// Every commit of a purchase, sale or reversal emits an event; delivery is
// fire-and-forget so a failed append never aborts the underlying transaction.
package audit

import (
	"context"
	"time"

	"pharmaledger/internal/core/id"
	"pharmaledger/pkg/logger"
)

// Actions emitted by the ledger core.
const (
	ActionRecordPurchase  = "record_purchase"
	ActionReversePurchase = "reverse_purchase"
	ActionRecordSale      = "record_sale"
	ActionReverseSale     = "reverse_sale"
)

// Event is a single activity log entry.
type Event struct {
	ID        id.ID          `db:"id" json:"id"`
	Actor     string         `db:"actor" json:"actor"`
	Action    string         `db:"action" json:"action"`
	SubjectID id.ID          `db:"subject_id" json:"subjectId"`
	Details   map[string]any `db:"-" json:"details,omitempty"`
	Timestamp time.Time      `db:"timestamp" json:"timestamp"`
}

// Filter for listing events.
type Filter struct {
	Actor    string
	Action   string
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
	Offset   int
}

// Store persists events.
type Store interface {
	Append(ctx context.Context, event Event) error
	List(ctx context.Context, filter Filter) ([]Event, error)
}

// Recorder wraps a Store with the fire-and-forget policy.
// Record is called after the business transaction commits, so an append
// failure can only lose a log line, never ledger state.
type Recorder struct {
	store Store
}

// NewRecorder creates a new recorder.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Record appends an event, logging and swallowing any failure.
func (r *Recorder) Record(ctx context.Context, actor, action string, subjectID id.ID, details map[string]any) {
	if r == nil || r.store == nil {
		return
	}

	event := Event{
		ID:        id.New(),
		Actor:     actor,
		Action:    action,
		SubjectID: subjectID,
		Details:   details,
		Timestamp: time.Now().UTC(),
	}

	// Detach from request cancellation: the business work is already
	// committed by the time we get here.
	if err := r.store.Append(context.WithoutCancel(ctx), event); err != nil {
		logger.Error(ctx, "audit append failed",
			"action", action,
			"subject_id", subjectID,
			"error", err,
		)
	}
}

// List returns events, newest first.
func (r *Recorder) List(ctx context.Context, filter Filter) ([]Event, error) {
	return r.store.List(ctx, filter)
}
