package core

import (
	"sort"
	"time"
)

// rankingSize caps the category ranking shown on the statistics screen.
const rankingSize = 5

type (
	// CategoryRank is one row of the top-N category ranking. Percentage is a
	// 0..1 share of the filtered total. IconName comes from the most recent
	// transaction of the group, since input arrives sorted by date
	// descending.
	CategoryRank struct {
		Name       string
		Amount     Money
		Percentage float64
		IconName   string
	}

	// PieShare is a category's slice of the pie chart: every category, no
	// truncation. Display ordering is by amount descending; color assignment
	// is the caller's job.
	PieShare struct {
		Name       string
		Amount     Money
		Percentage float64
	}

	// Result is everything the statistics view derives from one range of
	// transactions.
	Result struct {
		Type      Type
		Kind      RangeKind
		Start     time.Time
		End       time.Time
		Total     Money
		Average   float64 // cents per day across the resolved range
		Ranking   []CategoryRank
		Series    []Money
		PieShares []PieShare
	}
)

// Aggregate reduces a fetched transaction list to the derived statistics for
// one type and resolved range. The fetch is by date range only; filtering by
// type happens here, so income/expense toggles reuse the same fetch.
//
// Grouping uses the denormalized category name, not the category ID,
// matching how records are displayed: two categories sharing a display name
// merge into one group.
func Aggregate(txs []Transaction, typ Type, kind RangeKind, start, end time.Time) Result {
	res := Result{Type: typ, Kind: kind, Start: start, End: end}

	filtered := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Type == typ {
			filtered = append(filtered, tx)
		}
	}

	for _, tx := range filtered {
		res.Total.Cents += tx.Amount.Cents
	}

	if days := DayCount(start, end); days > 0 {
		res.Average = float64(res.Total.Cents) / float64(days)
	}

	groups := groupByCategory(filtered)
	res.Ranking = ranking(groups, res.Total)
	res.PieShares = pieShares(groups, res.Total)
	res.Series = series(filtered, kind, start, end)

	return res
}

type categoryGroup struct {
	name string
	sum  int64
	icon string
}

// groupByCategory sums per display name, preserving first-encounter order so
// later stable sorts break amount ties by recency.
func groupByCategory(txs []Transaction) []categoryGroup {
	index := make(map[string]int, len(txs))
	groups := make([]categoryGroup, 0, len(txs))
	for _, tx := range txs {
		i, ok := index[tx.CategoryName]
		if !ok {
			i = len(groups)
			index[tx.CategoryName] = i
			groups = append(groups, categoryGroup{name: tx.CategoryName, icon: tx.CategoryIcon})
		}
		groups[i].sum += tx.Amount.Cents
	}
	return groups
}

func share(amount int64, total Money) float64 {
	if total.Cents <= 0 {
		return 0
	}
	return float64(amount) / float64(total.Cents)
}

func ranking(groups []categoryGroup, total Money) []CategoryRank {
	sorted := make([]categoryGroup, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].sum > sorted[j].sum })
	if len(sorted) > rankingSize {
		sorted = sorted[:rankingSize]
	}
	out := make([]CategoryRank, len(sorted))
	for i, g := range sorted {
		out[i] = CategoryRank{
			Name:       g.name,
			Amount:     Money{Cents: g.sum},
			Percentage: share(g.sum, total),
			IconName:   g.icon,
		}
	}
	return out
}

func pieShares(groups []categoryGroup, total Money) []PieShare {
	sorted := make([]categoryGroup, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].sum > sorted[j].sum })
	out := make([]PieShare, len(sorted))
	for i, g := range sorted {
		out[i] = PieShare{Name: g.name, Amount: Money{Cents: g.sum}, Percentage: share(g.sum, total)}
	}
	return out
}

// series produces the chart buckets for the range kind. Bucket cursors step
// by calendar arithmetic (AddDate) in the range's location; membership tests
// use half-open millisecond intervals [bucketStart, nextBucket) derived from
// those steps, so boundary transactions are never counted twice.
func series(txs []Transaction, kind RangeKind, start, end time.Time) []Money {
	switch kind {
	case RangeWeek:
		return dayBuckets(txs, start, 7)
	case RangeMonth:
		return dayBuckets(txs, start, DayCount(start, end))
	case RangeYear:
		return monthBuckets(txs, start, 12)
	case RangeCustom:
		days := DayCount(start, end)
		if days > 31 {
			// Large custom spans collapse to a single bucket: a per-day
			// breakdown is unreadable on the chart and pointless to compute.
			var sum int64
			for _, tx := range txs {
				sum += tx.Amount.Cents
			}
			return []Money{{Cents: sum}}
		}
		return dayBuckets(txs, start, days)
	}
	return nil
}

func dayBuckets(txs []Transaction, start time.Time, n int) []Money {
	if n < 0 {
		n = 0
	}
	out := make([]Money, n)
	cursor := start
	for i := 0; i < n; i++ {
		next := cursor.AddDate(0, 0, 1)
		out[i] = bucketSum(txs, cursor.UnixMilli(), next.UnixMilli())
		cursor = next
	}
	return out
}

func monthBuckets(txs []Transaction, start time.Time, n int) []Money {
	out := make([]Money, n)
	cursor := start
	for i := 0; i < n; i++ {
		next := cursor.AddDate(0, 1, 0)
		out[i] = bucketSum(txs, cursor.UnixMilli(), next.UnixMilli())
		cursor = next
	}
	return out
}

func bucketSum(txs []Transaction, fromMillis, toMillis int64) Money {
	var sum int64
	for _, tx := range txs {
		if ms := tx.Date.UnixMilli(); ms >= fromMillis && ms < toMillis {
			sum += tx.Amount.Cents
		}
	}
	return Money{Cents: sum}
}
