package storage

import (
	"context"
	"fmt"
	"log/slog"

	"libretto/internal/core"
)

type seedCategory struct {
	name string
	icon string
}

// Seed order is display order, so these are slices, not maps.
var defaultExpenseCategories = []seedCategory{
	{"Dining", "Restaurant"},
	{"Shopping", "ShoppingCart"},
	{"Daily Necessities", "Home"},
	{"Transport", "DirectionsCar"},
	{"Vegetables", "Grass"},
	{"Fruit", "LocalFlorist"},
	{"Snacks", "Fastfood"},
	{"Sports", "FitnessCenter"},
	{"Entertainment", "Theaters"},
	{"Communication", "PhoneAndroid"},
	{"Clothing", "Checkroom"},
	{"Beauty", "Face"},
	{"Transfer", "SwapHoriz"},
	{"Housing", "Home"},
	{"Jewelry", "Diamond"},
	{"Education", "School"},
	{"Travel", "Flight"},
	{"Drinks", "LocalCafe"},
	{"Electronics", "Smartphone"},
	{"Medical", "LocalHospital"},
	{"Online Services", "Cloud"},
	{"Office", "Work"},
	{"Children", "ChildCare"},
	{"Elders", "Elderly"},
	{"Pets", "Pets"},
	{"Social", "Groups"},
	{"Fandom", "Star"},
	{"Family & Friends", "People"},
	{"Lending", "TrendingUp"},
	{"Furniture", "Chair"},
	{"Car", "DirectionsCar"},
	{"Repairs", "Build"},
	{"Tobacco & Alcohol", "LocalBar"},
	{"Gifts", "CardGiftcard"},
	{"Insurance", "Security"},
	{"Other", "MoreHoriz"},
}

var defaultIncomeCategories = []seedCategory{
	{"Salary", "AccountBalance"},
	{"Cash Gift", "CardGiftcard"},
	{"Payments Received", "AccountBalanceWallet"},
	{"Part-Time", "WorkOutline"},
	{"Bonus", "EmojiEvents"},
	{"Investments", "TrendingUp"},
	{"Secondhand Sales", "Sell"},
	{"Gift Received", "Redeem"},
	{"Refund", "Undo"},
	{"Rent Income", "MeetingRoom"},
	{"Borrowing", "TrendingDown"},
	{"Lottery", "ConfirmationNumber"},
	{"Insurance Payout", "Security"},
	{"Dividends", "Paid"},
	{"Reimbursement", "Receipt"},
	{"Other", "MoreHoriz"},
}

// SeedDefaultCategories inserts the stock category set on an empty database.
// It runs on every startup but is a no-op once any category exists, including
// user-created ones, so it never fights with customization.
func SeedDefaultCategories(ctx context.Context, store Store) error {
	count, err := store.CategoryCount(ctx)
	if err != nil {
		return fmt.Errorf("check category count: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, sc := range defaultExpenseCategories {
		if _, err := store.InsertCategory(ctx, core.Category{
			Name:     sc.name,
			IconName: sc.icon,
			Type:     core.Expense,
		}); err != nil {
			return fmt.Errorf("seed expense category %q: %w", sc.name, err)
		}
	}
	for _, sc := range defaultIncomeCategories {
		if _, err := store.InsertCategory(ctx, core.Category{
			Name:     sc.name,
			IconName: sc.icon,
			Type:     core.Income,
		}); err != nil {
			return fmt.Errorf("seed income category %q: %w", sc.name, err)
		}
	}

	slog.InfoContext(ctx, "Seeded default categories",
		"expense", len(defaultExpenseCategories),
		"income", len(defaultIncomeCategories))
	return nil
}
