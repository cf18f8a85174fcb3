package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"libretto/internal/core"
)

// Memory is an in-process Store for tests and throwaway runs. It mirrors the
// sqlite backend's observable behavior, including newest-first range reads
// and change notifications.
type Memory struct {
	mu        sync.Mutex
	txs       []core.Transaction
	cats      []core.Category
	nextTxID  int64
	nextCatID int64
	changes   *Notifier
}

func NewMemory() *Memory {
	return &Memory{nextTxID: 1, nextCatID: 1, changes: NewNotifier()}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) Changes() *Notifier { return m.changes }

func (m *Memory) TransactionsInRange(_ context.Context, start, end time.Time) ([]core.Transaction, error) {
	startMs, endMs := start.UnixMilli(), end.UnixMilli()

	m.mu.Lock()
	var out []core.Transaction
	for _, tx := range m.txs {
		if ms := tx.Date.UnixMilli(); ms >= startMs && ms <= endMs {
			out = append(out, tx)
		}
	}
	m.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out, nil
}

func (m *Memory) GetTransaction(_ context.Context, id int64) (core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tx := range m.txs {
		if tx.ID == id {
			return tx, nil
		}
	}
	return core.Transaction{}, core.ErrNotFound
}

func (m *Memory) IncomeSum(ctx context.Context, start, end time.Time) (core.Money, error) {
	return m.typeSum(ctx, core.Income, start, end)
}

func (m *Memory) ExpenseSum(ctx context.Context, start, end time.Time) (core.Money, error) {
	return m.typeSum(ctx, core.Expense, start, end)
}

func (m *Memory) typeSum(_ context.Context, t core.Type, start, end time.Time) (core.Money, error) {
	startMs, endMs := start.UnixMilli(), end.UnixMilli()

	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, tx := range m.txs {
		if tx.Type != t {
			continue
		}
		if ms := tx.Date.UnixMilli(); ms >= startMs && ms <= endMs {
			sum += tx.Amount.Cents
		}
	}
	return core.Money{Cents: sum}, nil
}

func (m *Memory) InsertTransaction(_ context.Context, tx core.Transaction) (int64, error) {
	if tx.BookID == 0 {
		tx.BookID = core.DefaultBookID
	}

	m.mu.Lock()
	tx.ID = m.nextTxID
	m.nextTxID++
	m.txs = append(m.txs, tx)
	m.mu.Unlock()

	m.changes.publish(Change{Op: OpInsert, Tx: tx})
	return tx.ID, nil
}

func (m *Memory) UpdateTransaction(_ context.Context, tx core.Transaction) error {
	if tx.BookID == 0 {
		tx.BookID = core.DefaultBookID
	}

	m.mu.Lock()
	found := false
	for i := range m.txs {
		if m.txs[i].ID == tx.ID {
			m.txs[i] = tx
			found = true
			break
		}
	}
	m.mu.Unlock()

	if !found {
		return core.ErrNotFound
	}
	m.changes.publish(Change{Op: OpUpdate, Tx: tx})
	return nil
}

func (m *Memory) DeleteTransaction(_ context.Context, id int64) error {
	m.mu.Lock()
	idx := -1
	for i := range m.txs {
		if m.txs[i].ID == id {
			idx = i
			break
		}
	}
	var removed core.Transaction
	if idx >= 0 {
		removed = m.txs[idx]
		m.txs = append(m.txs[:idx], m.txs[idx+1:]...)
	}
	m.mu.Unlock()

	if idx < 0 {
		return core.ErrNotFound
	}
	m.changes.publish(Change{Op: OpDelete, Tx: removed})
	return nil
}

func (m *Memory) CategoriesByType(_ context.Context, t core.Type) ([]core.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Category
	for _, c := range m.cats {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *Memory) InsertCategory(_ context.Context, c core.Category) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.nextCatID
	m.nextCatID++
	m.cats = append(m.cats, c)
	return c.ID, nil
}

func (m *Memory) CategoryCount(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.cats)), nil
}
