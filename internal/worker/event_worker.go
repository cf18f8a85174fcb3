// Package worker processes transaction event messages off the queue into the
// append-only audit table.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"libretto/internal/amqp"
)

// EventStore is the slice of storage the worker needs.
type EventStore interface {
	AppendEvent(ctx context.Context, transactionID int64, op string, occurredAt time.Time) error
}

type EventRecorder struct {
	store EventStore
}

func NewEventRecorder(store EventStore) *EventRecorder {
	return &EventRecorder{store: store}
}

// HandleTransactionEvent appends one consumed message to the audit table.
// An error nacks and requeues the delivery, so the write must be idempotent
// enough to tolerate a retry; duplicate audit rows are acceptable.
func (w *EventRecorder) HandleTransactionEvent(msg *amqp.TransactionEventMessage) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := w.store.AppendEvent(ctx, msg.ID, msg.Op, msg.Timestamp); err != nil {
		return fmt.Errorf("record transaction event: %w", err)
	}

	slog.InfoContext(ctx, "Recorded transaction event",
		"id", msg.ID,
		"op", msg.Op,
		"occurred_at", msg.Timestamp)
	return nil
}
