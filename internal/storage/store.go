package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"libretto/internal/core"
)

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

type (
	// Op names a mutation applied to the transaction table.
	Op string

	// Change is the in-process notification emitted after every committed
	// mutation. Tx carries the affected record so observers can decide
	// whether their date range overlaps without re-reading the store.
	Change struct {
		Op Op
		Tx core.Transaction
	}
)

// Store is the queryable transaction store the rest of the application
// consumes. Reads are safe for concurrent use; mutations are serialized by
// the implementation and emit a Change on the Changes notifier once applied.
type Store interface {
	TransactionsInRange(ctx context.Context, start, end time.Time) ([]core.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	IncomeSum(ctx context.Context, start, end time.Time) (core.Money, error)
	ExpenseSum(ctx context.Context, start, end time.Time) (core.Money, error)

	InsertTransaction(ctx context.Context, tx core.Transaction) (int64, error)
	UpdateTransaction(ctx context.Context, tx core.Transaction) error
	DeleteTransaction(ctx context.Context, id int64) error

	CategoriesByType(ctx context.Context, t core.Type) ([]core.Category, error)
	InsertCategory(ctx context.Context, c core.Category) (int64, error)
	CategoryCount(ctx context.Context) (int64, error)

	Changes() *Notifier
	Close() error
}

// Open selects the configured backend. The sqlite backend is the durable
// default; memory exists for tests and throwaway runs.
func Open(backend, dbPath string) (Store, error) {
	switch backend {
	case "sqlite":
		return OpenSQLite(dbPath)
	case "memory":
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown data backend %q", backend)
}

// Notifier fans mutation notifications out to subscribers. Delivery is
// best-effort: a subscriber whose buffer is full misses the change rather
// than blocking the writer, so observers must treat a notification as "go
// look", never as a complete event log.
type Notifier struct {
	mu   sync.Mutex
	subs map[int]chan Change
	next int
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]chan Change)}
}

// Subscribe registers a buffered change channel. The returned cancel func
// must be called to release the subscription; the channel is closed then.
func (n *Notifier) Subscribe(buffer int) (<-chan Change, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Change, buffer)

	n.mu.Lock()
	id := n.next
	n.next++
	n.subs[id] = ch
	n.mu.Unlock()

	cancel := func() {
		n.mu.Lock()
		if sub, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(sub)
		}
		n.mu.Unlock()
	}
	return ch, cancel
}

func (n *Notifier) publish(c Change) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- c:
		default: // subscriber lagging, it will requery on its next signal
		}
	}
}
