package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/now"
	"github.com/petstore/backend/internal/domain/shared"
)

// PeriodKey names a reporting period relative to today
type PeriodKey string

const (
	PeriodToday      PeriodKey = "today"
	PeriodYesterday  PeriodKey = "yesterday"
	PeriodThisWeek   PeriodKey = "this_week"
	PeriodLastWeek   PeriodKey = "last_week"
	PeriodThisMonth  PeriodKey = "this_month"
	PeriodLastMonth  PeriodKey = "last_month"
	PeriodLast7Days  PeriodKey = "last_7_days"
	PeriodLast30Days PeriodKey = "last_30_days"
	PeriodThisYear   PeriodKey = "this_year"
	PeriodCustom     PeriodKey = "custom"
)

// AllPeriodKeys lists the named periods
var AllPeriodKeys = []PeriodKey{
	PeriodToday, PeriodYesterday, PeriodThisWeek, PeriodLastWeek, PeriodThisMonth,
	PeriodLastMonth, PeriodLast7Days, PeriodLast30Days, PeriodThisYear, PeriodCustom,
}

// ParsePeriodKey parses a period token, case-insensitively. Empty means today.
func ParsePeriodKey(s string) (PeriodKey, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PeriodToday, nil
	}
	for _, k := range AllPeriodKeys {
		if string(k) == s {
			return k, nil
		}
	}
	return "", shared.NewDomainError("INVALID_PERIOD", fmt.Sprintf("Unknown period %q", s))
}

// Granularity is the bucket size of a time series
type Granularity string

const (
	GranularityHour Granularity = "hour"
	GranularityDay  Granularity = "day"
)

// Range is a half-open time interval [Start, End)
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the range
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Days returns the number of calendar days the range covers
func (r Range) Days() int {
	return calendarDaysBetween(r.Start, r.End)
}

// Period is a reporting range together with the equal-length range just
// before it, used to compute period-over-period change.
type Period struct {
	Key         PeriodKey   `json:"key"`
	Current     Range       `json:"current"`
	Previous    Range       `json:"previous"`
	Granularity Granularity `json:"granularity"`
}

// Comparator resolves period tokens into calendar ranges in a fixed
// location with a configurable first day of the week.
type Comparator struct {
	config *now.Config
}

// NewComparator creates a comparator. A nil location means time.Local.
func NewComparator(weekStart time.Weekday, loc *time.Location) *Comparator {
	if loc == nil {
		loc = time.Local
	}
	return &Comparator{
		config: &now.Config{
			WeekStartDay: weekStart,
			TimeLocation: loc,
		},
	}
}

// Location returns the comparator's time zone
func (c *Comparator) Location() *time.Location {
	return c.config.TimeLocation
}

// WeekStart returns the configured first day of the week
func (c *Comparator) WeekStart() time.Weekday {
	return c.config.WeekStartDay
}

// Resolve returns the period named by key as of ref. Ranges are whole
// calendar periods: this_month runs from the 1st to the 1st of next month.
// Use Custom for PeriodCustom.
func (c *Comparator) Resolve(key PeriodKey, ref time.Time) (Period, error) {
	n := c.config.With(ref.In(c.config.TimeLocation))
	today := n.BeginningOfDay()

	var cur Range
	switch key {
	case PeriodToday:
		cur = Range{today, today.AddDate(0, 0, 1)}
	case PeriodYesterday:
		cur = Range{today.AddDate(0, 0, -1), today}
	case PeriodThisWeek:
		start := n.BeginningOfWeek()
		cur = Range{start, start.AddDate(0, 0, 7)}
	case PeriodLastWeek:
		end := n.BeginningOfWeek()
		cur = Range{end.AddDate(0, 0, -7), end}
	case PeriodThisMonth:
		start := n.BeginningOfMonth()
		cur = Range{start, start.AddDate(0, 1, 0)}
	case PeriodLastMonth:
		end := n.BeginningOfMonth()
		cur = Range{end.AddDate(0, -1, 0), end}
	case PeriodLast7Days:
		end := today.AddDate(0, 0, 1)
		cur = Range{end.AddDate(0, 0, -7), end}
	case PeriodLast30Days:
		end := today.AddDate(0, 0, 1)
		cur = Range{end.AddDate(0, 0, -30), end}
	case PeriodThisYear:
		start := n.BeginningOfYear()
		cur = Range{start, start.AddDate(1, 0, 0)}
	case PeriodCustom:
		return Period{}, shared.NewDomainError("INVALID_PERIOD", "Custom period requires from and to dates")
	default:
		return Period{}, shared.NewDomainError("INVALID_PERIOD", fmt.Sprintf("Unknown period %q", key))
	}

	return c.compare(key, cur), nil
}

// MaxCustomPeriodDays bounds a custom period, a leap year at most
const MaxCustomPeriodDays = 366

// Custom returns the period covering the calendar days from..to inclusive.
// Spans longer than MaxCustomPeriodDays are rejected.
func (c *Comparator) Custom(from, to time.Time) (Period, error) {
	if from.IsZero() || to.IsZero() {
		return Period{}, shared.NewDomainError("INVALID_PERIOD", "Custom period requires from and to dates")
	}
	start := c.config.With(from.In(c.config.TimeLocation)).BeginningOfDay()
	last := c.config.With(to.In(c.config.TimeLocation)).BeginningOfDay()
	if last.Before(start) {
		return Period{}, shared.NewDomainError("INVALID_PERIOD", "Period end cannot be before its start")
	}
	cur := Range{start, last.AddDate(0, 0, 1)}
	if cur.Days() > MaxCustomPeriodDays {
		return Period{}, shared.NewDomainError("INVALID_PERIOD",
			fmt.Sprintf("Custom period cannot exceed %d days", MaxCustomPeriodDays))
	}
	return c.compare(PeriodCustom, cur), nil
}

// compare derives the previous range and the granularity. The previous
// range is shifted by whole calendar days so it stays aligned to local
// midnight across DST changes.
func (c *Comparator) compare(key PeriodKey, cur Range) Period {
	days := cur.Days()
	g := GranularityDay
	if days == 1 {
		g = GranularityHour
	}
	return Period{
		Key:         key,
		Current:     cur,
		Previous:    Range{cur.Start.AddDate(0, 0, -days), cur.Start},
		Granularity: g,
	}
}

// calendarDaysBetween counts calendar dates from a to b, ignoring clock time
// and DST offsets.
func calendarDaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
