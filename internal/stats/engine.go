// Package stats hosts the reactive recomputation pipelines behind the
// statistics and overview screens. Each pipeline owns a selector (what the
// user is looking at), recomputes a derived value whenever the selector or
// the underlying data changes, and pushes the newest value to subscribers.
// Only the newest value matters: stale in-flight work is discarded, and a
// pipeline with no subscribers goes dormant.
package stats

import (
	"context"
	"errors"
	"sync"

	"libretto/internal/log"
)

// Engine is the latest-wins recomputation core shared by the pipelines.
// S is the selector state, R the published result.
//
// Every selector change bumps a generation and cancels the in-flight
// compute; a compute finishing with a stale generation is dropped without
// publishing. Computes only run while at least one subscriber is attached.
type Engine[S, R any] struct {
	compute func(ctx context.Context, state S) (R, error)
	logger  *log.Logger

	mu      sync.Mutex
	state   S
	gen     uint64
	cancel  context.CancelFunc
	subs    map[int]chan R
	nextSub int
	last    *R
	closed  bool
}

func NewEngine[S, R any](initial S, compute func(ctx context.Context, state S) (R, error), logger *log.Logger) *Engine[S, R] {
	return &Engine[S, R]{
		compute: compute,
		logger:  logger,
		state:   initial,
		subs:    make(map[int]chan R),
	}
}

// Update applies a selector mutation and schedules a recompute. The previous
// in-flight compute, if any, is cancelled even when the engine is dormant,
// so its result can never surface after the selector moved on.
func (e *Engine[S, R]) Update(mutate func(*S)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	mutate(&e.state)
	e.kickLocked()
}

// Refresh recomputes with the current selector, typically after the
// underlying data changed.
func (e *Engine[S, R]) Refresh() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.kickLocked()
}

// kickLocked invalidates any in-flight compute and, if anyone is listening,
// starts a new one. Callers hold e.mu.
func (e *Engine[S, R]) kickLocked() {
	e.gen++
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	if e.closed || len(e.subs) == 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	go e.run(ctx, e.state, e.gen)
}

func (e *Engine[S, R]) run(ctx context.Context, state S, gen uint64) {
	result, err := e.compute(ctx, state)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			e.logger.ErrorContext(ctx, "Pipeline compute failed", log.FieldError, err.Error())
		}
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen || e.closed {
		return
	}
	e.last = &result
	for _, ch := range e.subs {
		sendLatest(ch, result)
	}
}

// sendLatest delivers on a capacity-1 channel, replacing an unread value so
// a slow subscriber sees the newest result instead of blocking the engine.
func sendLatest[R any](ch chan R, v R) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Subscribe attaches a latest-value channel. The first subscriber wakes the
// engine; the last one leaving cancels any in-flight compute. A previously
// published value is replayed immediately so new subscribers never start
// blank.
func (e *Engine[S, R]) Subscribe() (<-chan R, func()) {
	ch := make(chan R, 1)

	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = ch
	if e.last != nil {
		sendLatest(ch, *e.last)
	}
	if len(e.subs) == 1 {
		e.kickLocked()
	}
	e.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.subs, id)
			if len(e.subs) == 0 && e.cancel != nil {
				e.cancel()
				e.cancel = nil
			}
			e.mu.Unlock()
		})
	}
	return ch, cancel
}

// State returns a copy of the current selector.
func (e *Engine[S, R]) State() S {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Last returns the most recently published result, if any.
func (e *Engine[S, R]) Last() (R, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.last == nil {
		var zero R
		return zero, false
	}
	return *e.last, true
}

// Snapshot computes synchronously against the current selector, outside the
// generation machinery. Request/response callers use this; it neither
// publishes nor caches.
func (e *Engine[S, R]) Snapshot(ctx context.Context) (R, error) {
	e.mu.Lock()
	state := e.state
	e.mu.Unlock()
	return e.compute(ctx, state)
}

// Close cancels in-flight work and closes all subscriber channels.
func (e *Engine[S, R]) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	for id, ch := range e.subs {
		delete(e.subs, id)
		close(ch)
	}
}
