package core

import "time"

const (
	RangeWeek   RangeKind = "week"
	RangeMonth  RangeKind = "month"
	RangeYear   RangeKind = "year"
	RangeCustom RangeKind = "custom"
)

// RangeKind selects how an anchor date expands into a concrete span.
type RangeKind string

func (k RangeKind) Validate() error {
	switch k {
	case RangeWeek, RangeMonth, RangeYear, RangeCustom:
		return nil
	}
	return ErrUnknownRange
}

// millisPerDay is the fixed day length used for day counting. Bucket
// boundaries never use it directly; they advance by calendar arithmetic.
const millisPerDay = 24 * 60 * 60 * 1000

// ResolveRange maps a range kind plus an anchor date to concrete start/end
// instants, aligned to local-day boundaries (00:00:00.000 / 23:59:59.999) in
// the anchor's location.
//
// Weeks run Monday through Sunday regardless of locale. Month and year ends
// are derived from the actual calendar (28/29/30/31 days, leap years).
// Custom bounds are day-truncated as given: the function is total and does
// not enforce customEnd >= customStart — an inverted pair resolves to an
// inverted (empty) range and the caller owns the consequences.
func ResolveRange(kind RangeKind, anchor, customStart, customEnd time.Time) (start, end time.Time) {
	switch kind {
	case RangeWeek:
		start = startOfWeek(anchor)
		end = endOfDay(start.AddDate(0, 0, 6))
	case RangeMonth:
		start = time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, anchor.Location())
		end = endOfDay(start.AddDate(0, 1, -1))
	case RangeYear:
		start = time.Date(anchor.Year(), time.January, 1, 0, 0, 0, 0, anchor.Location())
		end = endOfDay(time.Date(anchor.Year(), time.December, 31, 0, 0, 0, 0, anchor.Location()))
	case RangeCustom:
		start = startOfDay(customStart)
		end = endOfDay(customEnd)
	default:
		start = startOfDay(anchor)
		end = endOfDay(anchor)
	}
	return start, end
}

// DayCount is the inclusive number of calendar days a resolved range spans,
// computed over millisecond timestamps. Inverted ranges yield values <= 0.
func DayCount(start, end time.Time) int {
	return int((end.UnixMilli()-start.UnixMilli())/millisPerDay) + 1
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// endOfDay is 23:59:59.999 of t's calendar day.
func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Millisecond)
}

// startOfWeek returns Monday 00:00 of the week containing t.
func startOfWeek(t time.Time) time.Time {
	sinceMonday := (int(t.Weekday()) + 6) % 7
	return startOfDay(t).AddDate(0, 0, -sinceMonday)
}
