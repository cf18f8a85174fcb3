package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  Type = "income"
	Expense Type = "expense"
)

// DefaultBookID is the implicit ledger every transaction belongs to until
// multi-book support exists.
const DefaultBookID int64 = 1

type (
	// Type distinguishes money coming in from money going out. Direction is
	// carried here, never by the sign of an amount.
	Type string

	Money struct {
		Cents int64
	}

	// Transaction is an immutable bookkeeping record. Category name and icon
	// are denormalized at write time so lists and charts render without a
	// join. Edits replace the whole record.
	Transaction struct {
		ID           int64
		Amount       Money
		CategoryID   int64
		CategoryName string
		CategoryIcon string
		Type         Type
		Note         string
		Date         time.Time // millisecond precision
		BookID       int64
	}

	// Category belongs to exactly one transaction type. ParentID allows a
	// hierarchy but aggregation ignores it.
	Category struct {
		ID       int64
		Name     string
		IconName string
		Type     Type
		IsCustom bool
		ParentID *int64
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrMissingCategory = errors.New("missing category")
	ErrUnknownType     = errors.New("unknown transaction type")
	ErrUnknownRange    = errors.New("unknown range kind")
	ErrZeroDate        = errors.New("date cannot be zero")
	ErrNotFound        = errors.New("not found")
)

func (t Type) Validate() error {
	switch t {
	case Income, Expense:
		return nil
	}
	return ErrUnknownType
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (tx Transaction) Validate() error {
	if err := tx.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(tx.CategoryName) == "" {
		return ErrMissingCategory
	}
	if err := tx.Type.Validate(); err != nil {
		return err
	}
	if tx.Date.IsZero() {
		return ErrZeroDate
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("empty category name")
	}
	return c.Type.Validate()
}
