package report

import (
	"time"

	"github.com/shopspring/decimal"
)

// Buckets enumerates bucket start times in [start, end)
func Buckets(start, end time.Time, g Granularity) []time.Time {
	var out []time.Time
	for t := start; t.Before(end); t = next(t, g) {
		out = append(out, t)
	}
	return out
}

func next(t time.Time, g Granularity) time.Time {
	if g == GranularityHour {
		return t.Add(time.Hour)
	}
	return t.AddDate(0, 0, 1)
}

// BucketIndex returns the bucket offset of t from start, or -1 if t is
// before start
func BucketIndex(start, t time.Time, g Granularity) int {
	if t.Before(start) {
		return -1
	}
	if g == GranularityHour {
		return int(t.Sub(start) / time.Hour)
	}
	return calendarDaysBetween(start, t.In(start.Location()))
}

// Point is a timestamped value
type Point struct {
	At    time.Time
	Value decimal.Decimal
}

// Series holds per-bucket totals for the current and previous ranges.
// Each range has its own buckets, so on a DST change or across months of
// different length the two may differ in count; Previous[i] is the bucket
// starting at PreviousBuckets[i].
type Series struct {
	Granularity     Granularity       `json:"granularity"`
	Buckets         []time.Time       `json:"buckets"`
	Current         []decimal.Decimal `json:"current"`
	PreviousBuckets []time.Time       `json:"previous_buckets"`
	Previous        []decimal.Decimal `json:"previous"`
}

// Bucketize sums points into the period's current and previous series.
// Points outside both ranges are ignored.
func (p Period) Bucketize(points []Point) Series {
	current := Buckets(p.Current.Start, p.Current.End, p.Granularity)
	previous := Buckets(p.Previous.Start, p.Previous.End, p.Granularity)
	s := Series{
		Granularity:     p.Granularity,
		Buckets:         current,
		Current:         zeros(len(current)),
		PreviousBuckets: previous,
		Previous:        zeros(len(previous)),
	}

	for _, pt := range points {
		var target []decimal.Decimal
		var idx int
		switch {
		case p.Current.Contains(pt.At):
			target, idx = s.Current, BucketIndex(p.Current.Start, pt.At, p.Granularity)
		case p.Previous.Contains(pt.At):
			target, idx = s.Previous, BucketIndex(p.Previous.Start, pt.At, p.Granularity)
		default:
			continue
		}
		if idx >= 0 && idx < len(target) {
			target[idx] = target[idx].Add(pt.Value)
		}
	}

	return s
}

func zeros(n int) []decimal.Decimal {
	out := make([]decimal.Decimal, n)
	for i := range out {
		out[i] = decimal.Zero
	}
	return out
}
