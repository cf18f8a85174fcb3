package stats

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libretto/internal/log"
)

func testLogger() *log.Logger {
	return log.New(log.DefaultConfig())
}

func waitFor[R any](t *testing.T, ch <-chan R) R {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for pipeline result")
		panic("unreachable")
	}
}

func TestEngine_DormantWithoutSubscribers(t *testing.T) {
	var calls int32
	eng := NewEngine(0, func(ctx context.Context, s int) (int, error) {
		atomic.AddInt32(&calls, 1)
		return s, nil
	}, testLogger())
	defer eng.Close()

	eng.Update(func(s *int) { *s = 1 })
	eng.Refresh()
	time.Sleep(50 * time.Millisecond)

	assert.Zero(t, atomic.LoadInt32(&calls))
	assert.Equal(t, 1, eng.State())
}

func TestEngine_SubscribeWakesAndReplays(t *testing.T) {
	eng := NewEngine(7, func(ctx context.Context, s int) (int, error) {
		return s * 10, nil
	}, testLogger())
	defer eng.Close()

	ch, cancel := eng.Subscribe()
	defer cancel()
	assert.Equal(t, 70, waitFor(t, ch))

	// A late subscriber gets the last published value immediately.
	ch2, cancel2 := eng.Subscribe()
	defer cancel2()
	assert.Equal(t, 70, waitFor(t, ch2))
}

func TestEngine_StaleComputeDiscarded(t *testing.T) {
	release := make(chan struct{})
	var calls int32
	eng := NewEngine(0, func(ctx context.Context, s int) (int, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			// First compute ignores cancellation and finishes late with the
			// old state; the generation check must still discard it.
			<-release
		}
		return s, nil
	}, testLogger())
	defer eng.Close()

	ch, cancel := eng.Subscribe()
	defer cancel()

	eng.Update(func(s *int) { *s = 42 })
	assert.Equal(t, 42, waitFor(t, ch))

	close(release)
	time.Sleep(50 * time.Millisecond)
	select {
	case v := <-ch:
		t.Fatalf("stale result %v was published", v)
	default:
	}
}

func TestEngine_SlowSubscriberSeesNewest(t *testing.T) {
	eng := NewEngine(0, func(ctx context.Context, s int) (int, error) {
		return s, nil
	}, testLogger())
	defer eng.Close()

	ch, cancel := eng.Subscribe()
	defer cancel()
	waitFor(t, ch)

	// Publish several results without reading; only the newest must remain.
	for i := 1; i <= 5; i++ {
		i := i
		eng.Update(func(s *int) { *s = i })
		require.Eventually(t, func() bool {
			last, ok := eng.Last()
			return ok && last == i
		}, time.Second, 5*time.Millisecond)
	}

	assert.Equal(t, 5, waitFor(t, ch))
}

func TestEngine_SnapshotBypassesSubscription(t *testing.T) {
	eng := NewEngine(3, func(ctx context.Context, s int) (int, error) {
		return s + 1, nil
	}, testLogger())
	defer eng.Close()

	got, err := eng.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, got)

	_, ok := eng.Last()
	assert.False(t, ok, "snapshot must not publish")
}

func TestEngine_LastSubscriberCancelsInflight(t *testing.T) {
	cancelled := make(chan struct{})
	started := make(chan struct{})
	eng := NewEngine(0, func(ctx context.Context, s int) (int, error) {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return 0, ctx.Err()
	}, testLogger())
	defer eng.Close()

	_, cancel := eng.Subscribe()
	<-started
	cancel()

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight compute was not cancelled")
	}
}
