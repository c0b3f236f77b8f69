package series

import (
	"errors"
	"sort"
	"time"
)

// ErrInvalidInput indicates a structurally invalid request against a series,
// such as an extraction window whose start falls after its end.
var ErrInvalidInput = errors.New("series: invalid input")

// Reading is a sea-level or residual measurement that may be absent. The
// zero value is "missing"; a missing reading is never confused with 0.0.
type Reading struct {
	Value float64
	Valid bool
}

// Some builds a present reading.
func Some(v float64) Reading {
	return Reading{Value: v, Valid: true}
}

// Record is a single tide-gauge observation keyed by its timestamp.
// Timestamps are UTC instants; localization happens once, at parse time.
type Record struct {
	Station   string
	Cycle     int
	Timestamp time.Time
	SeaLevel  Reading
	Residual  Reading
}

// Series is an ordered sequence of records. The timestamp is the ordering
// key but is not necessarily unique; duplicates are legitimate data.
type Series []Record

// Span reports the first and last timestamps. ok is false for an empty series.
func (s Series) Span() (first, last time.Time, ok bool) {
	if len(s) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return s[0].Timestamp, s[len(s)-1].Timestamp, true
}

// ValidCount reports how many records carry a sea-level value.
func (s Series) ValidCount() int {
	n := 0
	for _, r := range s {
		if r.SeaLevel.Valid {
			n++
		}
	}
	return n
}

// Mean computes the mean of the valid sea-level values. ok is false when no
// record has a value, leaving the mean undefined.
func (s Series) Mean() (mean float64, ok bool) {
	sum := 0.0
	n := 0
	for _, r := range s {
		if r.SeaLevel.Valid {
			sum += r.SeaLevel.Value
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// Merge combines two series into one, re-sorted ascending by timestamp.
// The sort is stable, so equal-timestamp records from the same input keep
// their relative order. Duplicate timestamps are preserved, never collapsed.
// Either input may be empty; neither input is modified.
func Merge(a, b Series) Series {
	merged := make(Series, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})
	return merged
}

// ExtractYear selects the records of one calendar year and removes the mean
// of their valid sea-level values, so the selection oscillates around zero.
// A year with no matching records yields an empty series.
func ExtractYear(year int, s Series) Series {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	out, err := ExtractRange(start, end, s)
	if err != nil {
		// start/end are computed from a single year and cannot be inverted
		return Series{}
	}
	return out
}

// ExtractRange selects records between two calendar days, the end day
// inclusive through 23:59:59, and removes the mean of the selection's valid
// sea-level values. Day-granularity bounds: any time-of-day on start/end is
// truncated. Returns ErrInvalidInput when start falls after end.
func ExtractRange(start, end time.Time, s Series) (Series, error) {
	lo := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	hi := time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, time.UTC)
	if lo.After(hi) {
		return nil, ErrInvalidInput
	}

	out := make(Series, 0)
	for _, r := range s {
		if r.Timestamp.Before(lo) || r.Timestamp.After(hi) {
			continue
		}
		out = append(out, r)
	}

	mean, ok := out.Mean()
	if !ok {
		return out, nil
	}
	for i := range out {
		if out[i].SeaLevel.Valid {
			out[i].SeaLevel.Value -= mean
		}
	}
	return out, nil
}

// LongestContiguous returns the longest prefix of s that ends strictly
// before the first missing sea-level value. This is deliberately a prefix
// search, not a longest-run-anywhere search: a single forward pass with an
// early exit at the first gap. A series with no gaps comes back whole, as a
// copy the caller may mutate freely; a series whose first value is missing
// comes back empty.
func LongestContiguous(s Series) Series {
	end := len(s)
	for i, r := range s {
		if !r.SeaLevel.Valid {
			end = i
			break
		}
	}
	out := make(Series, end)
	copy(out, s[:end])
	return out
}
