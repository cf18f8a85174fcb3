package stats

import (
	"context"
	"time"

	"libretto/internal/core"
	"libretto/internal/log"
	"libretto/internal/storage"
)

// Selector is everything the statistics screen's state distills to. Anchor
// is any instant inside the period of interest; the resolver widens it to
// the full calendar period. CustomStart/CustomEnd only matter when Kind is
// RangeCustom.
type Selector struct {
	Type        core.Type
	Kind        core.RangeKind
	Anchor      time.Time
	CustomStart time.Time
	CustomEnd   time.Time
}

// Statistics drives the statistics screen: a Selector in, a core.Result
// stream out, recomputed on every selector move and on every overlapping
// data mutation.
type Statistics struct {
	eng   *Engine[Selector, core.Result]
	now   func() time.Time
	unsub func()
	done  chan struct{}
}

// StatisticsOption customizes construction; tests pin the clock with
// WithClock.
type StatisticsOption func(*Statistics)

func WithClock(now func() time.Time) StatisticsOption {
	return func(s *Statistics) { s.now = now }
}

func NewStatistics(store Store, logger *log.Logger, opts ...StatisticsOption) *Statistics {
	s := &Statistics{
		now:  time.Now,
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	initial := Selector{
		Type:   core.Expense,
		Kind:   core.RangeWeek,
		Anchor: s.now(),
	}

	compute := func(ctx context.Context, sel Selector) (core.Result, error) {
		start, end := core.ResolveRange(sel.Kind, sel.Anchor, sel.CustomStart, sel.CustomEnd)
		txs, err := store.TransactionsInRange(ctx, start, end)
		if err != nil {
			return core.Result{}, err
		}
		return core.Aggregate(txs, sel.Type, sel.Kind, start, end), nil
	}
	s.eng = NewEngine(initial, compute, logger.WithComponent(log.ComponentStats))

	ch, unsub := store.Changes().Subscribe(changeBuffer)
	s.unsub = unsub
	go s.watch(ch)

	return s
}

// watch turns overlapping data mutations into requeries.
func (s *Statistics) watch(ch <-chan storage.Change) {
	defer close(s.done)
	for c := range ch {
		sel := s.eng.State()
		start, end := core.ResolveRange(sel.Kind, sel.Anchor, sel.CustomStart, sel.CustomEnd)
		if overlaps(c, start, end) {
			s.eng.Refresh()
		}
	}
}

// SetType switches between expense and income statistics.
func (s *Statistics) SetType(t core.Type) {
	s.eng.Update(func(sel *Selector) { sel.Type = t })
}

// SetRangeKind switches the period shape and snaps back to the current
// period: changing from "this week" to month view shows this month, not the
// month the anchor drifted into.
func (s *Statistics) SetRangeKind(k core.RangeKind) {
	now := s.now()
	s.eng.Update(func(sel *Selector) {
		sel.Kind = k
		sel.Anchor = now
	})
}

// NavigateWeek moves the anchor offset weeks away from now. Offsets are
// absolute from the current instant, not relative to the previous anchor.
func (s *Statistics) NavigateWeek(offset int) {
	anchor := s.now().AddDate(0, 0, 7*offset)
	s.eng.Update(func(sel *Selector) {
		sel.Kind = core.RangeWeek
		sel.Anchor = anchor
	})
}

func (s *Statistics) NavigateMonth(offset int) {
	anchor := s.now().AddDate(0, offset, 0)
	s.eng.Update(func(sel *Selector) {
		sel.Kind = core.RangeMonth
		sel.Anchor = anchor
	})
}

func (s *Statistics) NavigateYear(offset int) {
	anchor := s.now().AddDate(offset, 0, 0)
	s.eng.Update(func(sel *Selector) {
		sel.Kind = core.RangeYear
		sel.Anchor = anchor
	})
}

// SetCustomRange selects an explicit date window. The bounds are day
// precision; ordering is not enforced, an inverted window simply resolves to
// an empty range.
func (s *Statistics) SetCustomRange(start, end time.Time) {
	s.eng.Update(func(sel *Selector) {
		sel.Kind = core.RangeCustom
		sel.CustomStart = start
		sel.CustomEnd = end
	})
}

// Selector returns the current selector state.
func (s *Statistics) Selector() Selector {
	return s.eng.State()
}

// Subscribe attaches to the result stream. See Engine.Subscribe.
func (s *Statistics) Subscribe() (<-chan core.Result, func()) {
	return s.eng.Subscribe()
}

// Snapshot computes the current result synchronously for request/response
// callers.
func (s *Statistics) Snapshot(ctx context.Context) (core.Result, error) {
	return s.eng.Snapshot(ctx)
}

func (s *Statistics) Close() {
	s.unsub()
	<-s.done
	s.eng.Close()
}
