package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libretto/internal/core"
	"libretto/internal/storage"
)

// fixedNow is a Wednesday; its week runs 2024-02-12 through 2024-02-18.
var fixedNow = time.Date(2024, 2, 14, 10, 0, 0, 0, time.UTC)

func clock() func() time.Time {
	return func() time.Time { return fixedNow }
}

func seedTx(t *testing.T, store storage.Store, typ core.Type, category string, cents int64, when time.Time) int64 {
	t.Helper()
	id, err := store.InsertTransaction(context.Background(), core.Transaction{
		Amount:       core.Money{Cents: cents},
		CategoryID:   1,
		CategoryName: category,
		CategoryIcon: "Restaurant",
		Type:         typ,
		Date:         when,
	})
	require.NoError(t, err)
	return id
}

func TestStatistics_InitialResult(t *testing.T) {
	store := storage.NewMemory()
	seedTx(t, store, core.Expense, "Dining", 2500, fixedNow)
	seedTx(t, store, core.Expense, "Dining", 1500, fixedNow.AddDate(0, 0, -20)) // outside the week

	s := NewStatistics(store, testLogger(), WithClock(clock()))
	defer s.Close()

	ch, cancel := s.Subscribe()
	defer cancel()

	res := waitFor(t, ch)
	assert.Equal(t, core.RangeWeek, res.Kind)
	assert.Equal(t, core.Expense, res.Type)
	assert.Equal(t, int64(2500), res.Total.Cents)
	assert.Len(t, res.Series, 7)
}

func TestStatistics_RecomputesOnOverlappingMutation(t *testing.T) {
	store := storage.NewMemory()
	seedTx(t, store, core.Expense, "Dining", 2500, fixedNow)

	s := NewStatistics(store, testLogger(), WithClock(clock()))
	defer s.Close()

	ch, cancel := s.Subscribe()
	defer cancel()
	require.Equal(t, int64(2500), waitFor(t, ch).Total.Cents)

	seedTx(t, store, core.Expense, "Transport", 1000, fixedNow)

	require.Eventually(t, func() bool {
		last, ok := s.eng.Last()
		return ok && last.Total.Cents == 3500
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStatistics_IgnoresMutationOutsideRange(t *testing.T) {
	store := storage.NewMemory()
	s := NewStatistics(store, testLogger(), WithClock(clock()))
	defer s.Close()

	ch, cancel := s.Subscribe()
	defer cancel()
	waitFor(t, ch)

	// An insert two months back cannot affect the current week.
	seedTx(t, store, core.Expense, "Dining", 9999, fixedNow.AddDate(0, -2, 0))

	time.Sleep(100 * time.Millisecond)
	last, ok := s.eng.Last()
	require.True(t, ok)
	assert.Zero(t, last.Total.Cents)
}

func TestStatistics_SetRangeKindResetsAnchor(t *testing.T) {
	store := storage.NewMemory()
	s := NewStatistics(store, testLogger(), WithClock(clock()))
	defer s.Close()

	s.NavigateMonth(-3)
	sel := s.Selector()
	require.Equal(t, core.RangeMonth, sel.Kind)
	require.Equal(t, fixedNow.AddDate(0, -3, 0), sel.Anchor)

	// Switching the kind snaps back to the current period.
	s.SetRangeKind(core.RangeYear)
	sel = s.Selector()
	assert.Equal(t, core.RangeYear, sel.Kind)
	assert.Equal(t, fixedNow, sel.Anchor)
}

func TestStatistics_NavigationOffsetsFromNow(t *testing.T) {
	store := storage.NewMemory()
	s := NewStatistics(store, testLogger(), WithClock(clock()))
	defer s.Close()

	// Offsets are computed from now each time, never chained.
	s.NavigateWeek(-1)
	s.NavigateWeek(-1)
	sel := s.Selector()
	assert.Equal(t, core.RangeWeek, sel.Kind)
	assert.Equal(t, fixedNow.AddDate(0, 0, -7), sel.Anchor)

	s.NavigateYear(2)
	assert.Equal(t, fixedNow.AddDate(2, 0, 0), s.Selector().Anchor)
}

func TestStatistics_SetCustomRange(t *testing.T) {
	store := storage.NewMemory()
	seedTx(t, store, core.Expense, "Travel", 80000, time.Date(2023, 7, 10, 0, 0, 0, 0, time.UTC))

	s := NewStatistics(store, testLogger(), WithClock(clock()))
	defer s.Close()

	s.SetCustomRange(
		time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 7, 31, 0, 0, 0, 0, time.UTC),
	)

	res, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, core.RangeCustom, res.Kind)
	assert.Equal(t, int64(80000), res.Total.Cents)
	assert.Len(t, res.Series, 31)
}

func TestStatistics_SetType(t *testing.T) {
	store := storage.NewMemory()
	seedTx(t, store, core.Expense, "Dining", 2500, fixedNow)
	seedTx(t, store, core.Income, "Salary", 300000, fixedNow)

	s := NewStatistics(store, testLogger(), WithClock(clock()))
	defer s.Close()

	s.SetType(core.Income)
	res, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, core.Income, res.Type)
	assert.Equal(t, int64(300000), res.Total.Cents)
}

func TestOverview_SnapshotAndQuery(t *testing.T) {
	store := storage.NewMemory()
	seedTx(t, store, core.Expense, "Dining", 2500, fixedNow)
	seedTx(t, store, core.Income, "Salary", 300000, fixedNow)
	seedTx(t, store, core.Expense, "Travel", 7000, fixedNow.AddDate(0, -1, 0))

	o := NewOverview(store, testLogger(), WithOverviewClock(clock()))
	defer o.Close()

	res, err := o.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, core.RangeMonth, res.Filter)
	assert.Equal(t, int64(300000), res.Income.Cents)
	assert.Equal(t, int64(2500), res.Expense.Cents)
	assert.Len(t, res.Transactions, 2)

	// Query computes for an explicit selector without moving the pipeline.
	prev, err := o.Query(context.Background(), OverviewSelector{
		Filter: core.RangeMonth,
		Anchor: fixedNow.AddDate(0, -1, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7000), prev.Expense.Cents)
	assert.Equal(t, core.RangeMonth, o.Selector().Filter)
}

func TestOverview_SetFilterSnapsToCurrentPeriod(t *testing.T) {
	store := storage.NewMemory()
	o := NewOverview(store, testLogger(), WithOverviewClock(clock()))
	defer o.Close()

	o.SetAnchor(fixedNow.AddDate(0, -6, 0))
	o.SetFilter(core.RangeWeek)

	sel := o.Selector()
	assert.Equal(t, core.RangeWeek, sel.Filter)
	assert.Equal(t, fixedNow, sel.Anchor)
}
