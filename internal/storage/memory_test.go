package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libretto/internal/core"
)

func newTx(category string, typ core.Type, cents int64, when time.Time) core.Transaction {
	return core.Transaction{
		Amount:       core.Money{Cents: cents},
		CategoryID:   1,
		CategoryName: category,
		CategoryIcon: "Restaurant",
		Type:         typ,
		Date:         when,
	}
}

func TestMemory_InsertAndGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	when := time.Date(2024, 2, 14, 12, 0, 0, 0, time.UTC)

	id, err := m.InsertTransaction(ctx, newTx("Dining", core.Expense, 2500, when))
	require.NoError(t, err)
	require.Equal(t, int64(1), id)

	got, err := m.GetTransaction(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), got.Amount.Cents)
	assert.Equal(t, core.DefaultBookID, got.BookID)

	_, err = m.GetTransaction(ctx, 99)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestMemory_TransactionsInRange(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	day := func(d int) time.Time { return time.Date(2024, 2, d, 12, 0, 0, 0, time.UTC) }

	for _, d := range []int{10, 14, 12, 20} {
		_, err := m.InsertTransaction(ctx, newTx("Dining", core.Expense, 1000, day(d)))
		require.NoError(t, err)
	}

	start := time.Date(2024, 2, 11, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 15, 23, 59, 59, 999e6, time.UTC)
	got, err := m.TransactionsInRange(ctx, start, end)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Newest first.
	assert.Equal(t, 14, got[0].Date.Day())
	assert.Equal(t, 12, got[1].Date.Day())
}

func TestMemory_Sums(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	when := time.Date(2024, 2, 14, 12, 0, 0, 0, time.UTC)

	_, err := m.InsertTransaction(ctx, newTx("Dining", core.Expense, 2500, when))
	require.NoError(t, err)
	_, err = m.InsertTransaction(ctx, newTx("Salary", core.Income, 300000, when))
	require.NoError(t, err)
	_, err = m.InsertTransaction(ctx, newTx("Travel", core.Expense, 7000, when.AddDate(0, -2, 0)))
	require.NoError(t, err)

	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 29, 23, 59, 59, 999e6, time.UTC)

	income, err := m.IncomeSum(ctx, start, end)
	require.NoError(t, err)
	assert.Equal(t, int64(300000), income.Cents)

	expense, err := m.ExpenseSum(ctx, start, end)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), expense.Cents)
}

func TestMemory_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	when := time.Date(2024, 2, 14, 12, 0, 0, 0, time.UTC)

	id, err := m.InsertTransaction(ctx, newTx("Dining", core.Expense, 2500, when))
	require.NoError(t, err)

	// A full-record replacement without an explicit book must stay in the
	// default book, same as inserts.
	updated := newTx("Transport", core.Expense, 4000, when)
	updated.ID = id
	require.NoError(t, m.UpdateTransaction(ctx, updated))

	got, err := m.GetTransaction(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Transport", got.CategoryName)
	assert.Equal(t, int64(4000), got.Amount.Cents)
	assert.Equal(t, core.DefaultBookID, got.BookID)

	missing := updated
	missing.ID = 99
	assert.ErrorIs(t, m.UpdateTransaction(ctx, missing), core.ErrNotFound)

	require.NoError(t, m.DeleteTransaction(ctx, id))
	_, err = m.GetTransaction(ctx, id)
	assert.ErrorIs(t, err, core.ErrNotFound)
	assert.ErrorIs(t, m.DeleteTransaction(ctx, id), core.ErrNotFound)
}

func TestMemory_ChangeNotifications(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	when := time.Date(2024, 2, 14, 12, 0, 0, 0, time.UTC)

	ch, cancel := m.Changes().Subscribe(4)
	defer cancel()

	id, err := m.InsertTransaction(ctx, newTx("Dining", core.Expense, 2500, when))
	require.NoError(t, err)

	c := <-ch
	assert.Equal(t, OpInsert, c.Op)
	assert.Equal(t, id, c.Tx.ID)
	assert.Equal(t, when, c.Tx.Date)

	require.NoError(t, m.DeleteTransaction(ctx, id))
	c = <-ch
	assert.Equal(t, OpDelete, c.Op)
	assert.Equal(t, when, c.Tx.Date, "delete notifications carry the removed record's date")
}

func TestNotifier_DropsWhenSubscriberLags(t *testing.T) {
	n := NewNotifier()
	ch, cancel := n.Subscribe(1)
	defer cancel()

	n.publish(Change{Op: OpInsert})
	n.publish(Change{Op: OpUpdate}) // buffer full, dropped

	assert.Equal(t, OpInsert, (<-ch).Op)
	select {
	case c := <-ch:
		t.Fatalf("unexpected second delivery %v", c.Op)
	default:
	}
}

func TestNotifier_CancelClosesChannel(t *testing.T) {
	n := NewNotifier()
	ch, cancel := n.Subscribe(1)
	cancel()
	cancel() // idempotent

	_, open := <-ch
	assert.False(t, open)
}

func TestOpen(t *testing.T) {
	store, err := Open("memory", "")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = Open("postgres", "")
	assert.Error(t, err)
}
