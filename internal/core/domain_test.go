package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validTransaction() Transaction {
	return Transaction{
		Amount:       Money{Cents: 1250},
		CategoryID:   3,
		CategoryName: "Dining",
		CategoryIcon: "Restaurant",
		Type:         Expense,
		Date:         time.Date(2024, 2, 14, 12, 0, 0, 0, time.UTC),
	}
}

func TestTransaction_Validate(t *testing.T) {
	assert.NoError(t, validTransaction().Validate())

	t.Run("rejects non-positive amount", func(t *testing.T) {
		tx := validTransaction()
		tx.Amount.Cents = 0
		assert.ErrorIs(t, tx.Validate(), ErrInvalidAmount)
	})

	t.Run("rejects blank category name", func(t *testing.T) {
		tx := validTransaction()
		tx.CategoryName = "   "
		assert.ErrorIs(t, tx.Validate(), ErrMissingCategory)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		tx := validTransaction()
		tx.Type = "transfer"
		assert.ErrorIs(t, tx.Validate(), ErrUnknownType)
	})

	t.Run("rejects zero date", func(t *testing.T) {
		tx := validTransaction()
		tx.Date = time.Time{}
		assert.ErrorIs(t, tx.Validate(), ErrZeroDate)
	})
}

func TestCategory_Validate(t *testing.T) {
	assert.NoError(t, Category{Name: "Dining", Type: Expense}.Validate())
	assert.Error(t, Category{Name: "", Type: Expense}.Validate())
	assert.ErrorIs(t, Category{Name: "Dining", Type: "transfer"}.Validate(), ErrUnknownType)
}
