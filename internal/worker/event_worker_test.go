package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libretto/internal/amqp"
)

type recordedEvent struct {
	transactionID int64
	op            string
	occurredAt    time.Time
}

type fakeEventStore struct {
	events []recordedEvent
	err    error
}

func (f *fakeEventStore) AppendEvent(ctx context.Context, transactionID int64, op string, occurredAt time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, recordedEvent{transactionID, op, occurredAt})
	return nil
}

func TestHandleTransactionEvent(t *testing.T) {
	store := &fakeEventStore{}
	rec := NewEventRecorder(store)

	msg := amqp.NewTransactionEventMessage(42, "insert", time.Date(2024, 2, 14, 12, 0, 0, 0, time.UTC))
	require.NoError(t, rec.HandleTransactionEvent(msg))

	require.Len(t, store.events, 1)
	assert.Equal(t, int64(42), store.events[0].transactionID)
	assert.Equal(t, "insert", store.events[0].op)
	assert.Equal(t, msg.Timestamp, store.events[0].occurredAt)
}

func TestHandleTransactionEvent_StoreFailure(t *testing.T) {
	storeErr := errors.New("disk full")
	rec := NewEventRecorder(&fakeEventStore{err: storeErr})

	msg := amqp.NewTransactionEventMessage(7, "delete", time.Now())
	err := rec.HandleTransactionEvent(msg)
	assert.ErrorIs(t, err, storeErr)
}
