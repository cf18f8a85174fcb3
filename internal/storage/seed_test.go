package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libretto/internal/core"
)

func TestSeedDefaultCategories(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, SeedDefaultCategories(ctx, m))

	expense, err := m.CategoriesByType(ctx, core.Expense)
	require.NoError(t, err)
	assert.Len(t, expense, 36)
	assert.Equal(t, "Dining", expense[0].Name)
	assert.Equal(t, "Restaurant", expense[0].IconName)
	assert.Equal(t, "Other", expense[len(expense)-1].Name)

	income, err := m.CategoriesByType(ctx, core.Income)
	require.NoError(t, err)
	assert.Len(t, income, 16)
	assert.Equal(t, "Salary", income[0].Name)

	for _, c := range append(expense, income...) {
		assert.False(t, c.IsCustom, "seeded categories are stock, not custom")
	}
}

func TestSeedDefaultCategories_SkipsNonEmptyStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.InsertCategory(ctx, core.Category{Name: "Mine", Type: core.Expense, IsCustom: true})
	require.NoError(t, err)

	require.NoError(t, SeedDefaultCategories(ctx, m))

	count, err := m.CategoryCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "seeding must not run once any category exists")
}
