package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"libretto/internal/core"

	_ "modernc.org/sqlite"
)

// SQLite is the durable Store backed by an embedded sqlite database.
// database/sql serializes writes; reads run concurrently.
type SQLite struct {
	db      *sql.DB
	changes *Notifier
}

func OpenSQLite(dbPath string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db, changes: NewNotifier()}, nil
}

func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLite) Changes() *Notifier {
	return s.changes
}

const transactionColumns = `id, amount_cents, category_id, category_name, category_icon, type, note, date_ms, book_id`

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var tx core.Transaction
	var dateMillis int64
	err := row.Scan(&tx.ID, &tx.Amount.Cents, &tx.CategoryID, &tx.CategoryName,
		&tx.CategoryIcon, &tx.Type, &tx.Note, &dateMillis, &tx.BookID)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.Date = time.UnixMilli(dateMillis)
	return tx, nil
}

// TransactionsInRange returns records whose date falls inside the inclusive
// millisecond range, newest first. Newest-first matters downstream: ranking
// icons come from the first transaction of each category group.
func (s *SQLite) TransactionsInRange(ctx context.Context, start, end time.Time) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE date_ms BETWEEN ? AND ? ORDER BY date_ms DESC`,
		start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query transactions in range: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (s *SQLite) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return tx, nil
}

func (s *SQLite) IncomeSum(ctx context.Context, start, end time.Time) (core.Money, error) {
	return s.typeSum(ctx, core.Income, start, end)
}

func (s *SQLite) ExpenseSum(ctx context.Context, start, end time.Time) (core.Money, error) {
	return s.typeSum(ctx, core.Expense, start, end)
}

// typeSum folds SQL's NULL-on-empty into zero cents: no matching rows is a
// valid zero result, not an error.
func (s *SQLite) typeSum(ctx context.Context, t core.Type, start, end time.Time) (core.Money, error) {
	var sum sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT SUM(amount_cents) FROM transactions WHERE type = ? AND date_ms BETWEEN ? AND ?`,
		string(t), start.UnixMilli(), end.UnixMilli()).Scan(&sum)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum %s in range: %w", t, err)
	}
	return core.Money{Cents: sum.Int64}, nil
}

func (s *SQLite) InsertTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	if tx.BookID == 0 {
		tx.BookID = core.DefaultBookID
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (amount_cents, category_id, category_name, category_icon, type, note, date_ms, book_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.Amount.Cents, tx.CategoryID, tx.CategoryName, tx.CategoryIcon,
		string(tx.Type), tx.Note, tx.Date.UnixMilli(), tx.BookID)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction insert id: %w", err)
	}
	tx.ID = id

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"type", tx.Type,
		"amount_cents", tx.Amount.Cents,
		"category", tx.CategoryName)

	s.changes.publish(Change{Op: OpInsert, Tx: tx})
	return id, nil
}

// UpdateTransaction rewrites the whole record; the edit screen resubmits
// every field.
func (s *SQLite) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	if tx.BookID == 0 {
		tx.BookID = core.DefaultBookID
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions
		 SET amount_cents = ?, category_id = ?, category_name = ?, category_icon = ?,
		     type = ?, note = ?, date_ms = ?, book_id = ?
		 WHERE id = ?`,
		tx.Amount.Cents, tx.CategoryID, tx.CategoryName, tx.CategoryIcon,
		string(tx.Type), tx.Note, tx.Date.UnixMilli(), tx.BookID, tx.ID)
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", tx.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	s.changes.publish(Change{Op: OpUpdate, Tx: tx})
	return nil
}

func (s *SQLite) DeleteTransaction(ctx context.Context, id int64) error {
	// Fetch first so the change notification carries the record's date and
	// observers can match it against their range.
	tx, err := s.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Transaction deleted", "id", id, "category", tx.CategoryName)
	s.changes.publish(Change{Op: OpDelete, Tx: tx})
	return nil
}

func (s *SQLite) CategoriesByType(ctx context.Context, t core.Type) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, icon_name, type, is_custom, parent_id FROM categories WHERE type = ? ORDER BY id`,
		string(t))
	if err != nil {
		return nil, fmt.Errorf("query categories by type: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		var parent sql.NullInt64
		if err := rows.Scan(&c.ID, &c.Name, &c.IconName, &c.Type, &c.IsCustom, &parent); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		if parent.Valid {
			p := parent.Int64
			c.ParentID = &p
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLite) InsertCategory(ctx context.Context, c core.Category) (int64, error) {
	var parent any
	if c.ParentID != nil {
		parent = *c.ParentID
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (name, icon_name, type, is_custom, parent_id) VALUES (?, ?, ?, ?, ?)`,
		c.Name, c.IconName, string(c.Type), c.IsCustom, parent)
	if err != nil {
		return 0, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("category insert id: %w", err)
	}
	return id, nil
}

func (s *SQLite) CategoryCount(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return count, nil
}

// AppendEvent records a processed mutation message in the audit table. Only
// the worker writes here; the table is append-only.
func (s *SQLite) AppendEvent(ctx context.Context, transactionID int64, op string, occurredAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (transaction_id, op, occurred_at_ms) VALUES (?, ?, ?)`,
		transactionID, op, occurredAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}
