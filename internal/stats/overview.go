package stats

import (
	"context"
	"time"

	"libretto/internal/core"
	"libretto/internal/log"
	"libretto/internal/storage"
)

// OverviewSelector is the home screen's filter: a week or month window
// around an anchor instant. Other range kinds never appear here.
type OverviewSelector struct {
	Filter core.RangeKind
	Anchor time.Time
}

// OverviewResult is the home screen payload: the period's transaction list
// plus its two headline sums.
type OverviewResult struct {
	Filter       core.RangeKind
	Start        time.Time
	End          time.Time
	Transactions []core.Transaction
	Income       core.Money
	Expense      core.Money
}

// Overview drives the home screen. It runs independently of Statistics on
// its own selector and subscription; the two screens never share state.
type Overview struct {
	eng     *Engine[OverviewSelector, OverviewResult]
	compute func(ctx context.Context, sel OverviewSelector) (OverviewResult, error)
	now     func() time.Time
	unsub   func()
	done    chan struct{}
}

type OverviewOption func(*Overview)

func WithOverviewClock(now func() time.Time) OverviewOption {
	return func(o *Overview) { o.now = now }
}

func NewOverview(store Store, logger *log.Logger, opts ...OverviewOption) *Overview {
	o := &Overview{
		now:  time.Now,
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}

	initial := OverviewSelector{Filter: core.RangeMonth, Anchor: o.now()}

	compute := func(ctx context.Context, sel OverviewSelector) (OverviewResult, error) {
		start, end := core.ResolveRange(sel.Filter, sel.Anchor, time.Time{}, time.Time{})
		txs, err := store.TransactionsInRange(ctx, start, end)
		if err != nil {
			return OverviewResult{}, err
		}
		income, err := store.IncomeSum(ctx, start, end)
		if err != nil {
			return OverviewResult{}, err
		}
		expense, err := store.ExpenseSum(ctx, start, end)
		if err != nil {
			return OverviewResult{}, err
		}
		return OverviewResult{
			Filter:       sel.Filter,
			Start:        start,
			End:          end,
			Transactions: txs,
			Income:       income,
			Expense:      expense,
		}, nil
	}
	o.compute = compute
	o.eng = NewEngine(initial, compute, logger.WithComponent(log.ComponentOverview))

	ch, unsub := store.Changes().Subscribe(changeBuffer)
	o.unsub = unsub
	go o.watch(ch)

	return o
}

func (o *Overview) watch(ch <-chan storage.Change) {
	defer close(o.done)
	for c := range ch {
		sel := o.eng.State()
		start, end := core.ResolveRange(sel.Filter, sel.Anchor, time.Time{}, time.Time{})
		if overlaps(c, start, end) {
			o.eng.Refresh()
		}
	}
}

// SetFilter switches between month and week view, snapping back to the
// current period.
func (o *Overview) SetFilter(k core.RangeKind) {
	now := o.now()
	o.eng.Update(func(sel *OverviewSelector) {
		sel.Filter = k
		sel.Anchor = now
	})
}

// SetAnchor moves the window to the period containing the given instant.
func (o *Overview) SetAnchor(anchor time.Time) {
	o.eng.Update(func(sel *OverviewSelector) { sel.Anchor = anchor })
}

func (o *Overview) Selector() OverviewSelector {
	return o.eng.State()
}

func (o *Overview) Subscribe() (<-chan OverviewResult, func()) {
	return o.eng.Subscribe()
}

func (o *Overview) Snapshot(ctx context.Context) (OverviewResult, error) {
	return o.eng.Snapshot(ctx)
}

// Query computes an overview for an explicit selector without touching the
// pipeline's own state. Request handlers use this for parameterized reads.
func (o *Overview) Query(ctx context.Context, sel OverviewSelector) (OverviewResult, error) {
	return o.compute(ctx, sel)
}

func (o *Overview) Close() {
	o.unsub()
	<-o.done
	o.eng.Close()
}
