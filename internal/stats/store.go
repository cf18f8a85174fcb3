package stats

import (
	"context"
	"time"

	"libretto/internal/core"
	"libretto/internal/storage"
)

// Store is the read surface the pipelines need. Defined here, on the
// consumer side, so tests can hand in small fakes; *storage.SQLite and
// *storage.Memory both satisfy it.
type Store interface {
	TransactionsInRange(ctx context.Context, start, end time.Time) ([]core.Transaction, error)
	IncomeSum(ctx context.Context, start, end time.Time) (core.Money, error)
	ExpenseSum(ctx context.Context, start, end time.Time) (core.Money, error)
	Changes() *storage.Notifier
}

// changeBuffer sizes the change subscription. Notifications are collapsed
// into a single requery anyway, so a small buffer is plenty.
const changeBuffer = 16

// overlaps reports whether a mutation can affect the resolved range. Updates
// always can: the record may have moved into or out of the range and the
// notification only carries its new date.
func overlaps(c storage.Change, start, end time.Time) bool {
	if c.Op == storage.OpUpdate {
		return true
	}
	ms := c.Tx.Date.UnixMilli()
	return ms >= start.UnixMilli() && ms <= end.UnixMilli()
}
