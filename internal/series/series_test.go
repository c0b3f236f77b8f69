package series

import (
	"errors"
	"math"
	"testing"
	"time"
)

func ts(y int, m time.Month, d, hh int) time.Time {
	return time.Date(y, m, d, hh, 0, 0, 0, time.UTC)
}

func rec(t time.Time, level float64) Record {
	return Record{Timestamp: t, SeaLevel: Some(level)}
}

func missing(t time.Time) Record {
	return Record{Timestamp: t}
}

func TestMergeLengthAndOrder(t *testing.T) {
	a := Series{rec(ts(2000, 1, 2, 0), 1.0), rec(ts(2000, 1, 4, 0), 2.0)}
	b := Series{rec(ts(2000, 1, 1, 0), 3.0), rec(ts(2000, 1, 3, 0), 4.0)}

	m := Merge(a, b)
	if len(m) != len(a)+len(b) {
		t.Fatalf("merged length = %d, want %d", len(m), len(a)+len(b))
	}
	for i := 1; i < len(m); i++ {
		if m[i].Timestamp.Before(m[i-1].Timestamp) {
			t.Fatalf("merged series not sorted at index %d", i)
		}
	}
}

func TestMergeCommutativeContent(t *testing.T) {
	a := Series{rec(ts(2000, 1, 2, 0), 1.0), rec(ts(2000, 1, 2, 0), 1.5)}
	b := Series{rec(ts(2000, 1, 1, 0), 3.0)}

	ab := Merge(a, b)
	ba := Merge(b, a)
	if len(ab) != len(ba) {
		t.Fatalf("lengths differ: %d vs %d", len(ab), len(ba))
	}

	count := func(s Series, r Record) int {
		n := 0
		for _, x := range s {
			if x.Timestamp.Equal(r.Timestamp) && x.SeaLevel == r.SeaLevel {
				n++
			}
		}
		return n
	}
	for _, r := range ab {
		if count(ab, r) != count(ba, r) {
			t.Fatalf("record %v occurs a different number of times in each merge", r)
		}
	}
}

func TestMergePreservesDuplicatesAndEmptyInputs(t *testing.T) {
	dup := ts(2000, 6, 1, 12)
	a := Series{rec(dup, 1.0), rec(dup, 2.0)}

	m := Merge(a, nil)
	if len(m) != 2 {
		t.Fatalf("duplicates must be preserved, got %d records", len(m))
	}
	if m[0].SeaLevel.Value != 1.0 || m[1].SeaLevel.Value != 2.0 {
		t.Fatal("stable sort must keep relative order of equal timestamps")
	}

	if got := Merge(nil, nil); len(got) != 0 {
		t.Fatalf("merge of two empty series should be empty, got %d", len(got))
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	a := Series{rec(ts(2000, 1, 5, 0), 1.0), rec(ts(2000, 1, 1, 0), 2.0)}
	_ = Merge(a, Series{rec(ts(2000, 1, 3, 0), 3.0)})
	if !a[0].Timestamp.Equal(ts(2000, 1, 5, 0)) {
		t.Fatal("input series was reordered by Merge")
	}
}

func TestExtractYearRemovesMean(t *testing.T) {
	s := Series{
		rec(ts(1999, 12, 31, 23), 10.0),
		rec(ts(2000, 3, 1, 0), 1.0),
		rec(ts(2000, 6, 1, 0), 2.0),
		rec(ts(2000, 9, 1, 0), 3.0),
		rec(ts(2001, 1, 1, 0), 10.0),
	}

	got := ExtractYear(2000, s)
	if len(got) != 3 {
		t.Fatalf("expected 3 records from 2000, got %d", len(got))
	}
	sum := 0.0
	for _, r := range got {
		sum += r.SeaLevel.Value
	}
	if math.Abs(sum) > 1e-9 {
		t.Fatalf("values should sum to ~0 after mean removal, got %g", sum)
	}
}

func TestExtractYearEmptySelection(t *testing.T) {
	s := Series{rec(ts(2000, 1, 1, 0), 1.0)}
	if got := ExtractYear(1980, s); len(got) != 0 {
		t.Fatalf("year with no records should yield empty series, got %d", len(got))
	}
}

func TestExtractYearIgnoresMissingInMean(t *testing.T) {
	s := Series{
		rec(ts(2000, 1, 1, 0), 2.0),
		missing(ts(2000, 1, 2, 0)),
		rec(ts(2000, 1, 3, 0), 4.0),
	}
	got := ExtractYear(2000, s)
	if len(got) != 3 {
		t.Fatalf("missing records still belong to the selection, got %d", len(got))
	}
	if got[0].SeaLevel.Value != -1.0 || got[2].SeaLevel.Value != 1.0 {
		t.Fatalf("mean should be computed over valid values only: %+v", got)
	}
	if got[1].SeaLevel.Valid {
		t.Fatal("missing reading must stay missing after mean removal")
	}
}

func TestExtractRangeInclusiveEnd(t *testing.T) {
	s := Series{
		rec(ts(2000, 1, 1, 0), 1.0),
		rec(time.Date(2000, 1, 2, 23, 59, 59, 0, time.UTC), 2.0),
		rec(ts(2000, 1, 3, 0), 3.0),
	}
	got, err := ExtractRange(ts(2000, 1, 1, 0), ts(2000, 1, 2, 0), s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("end day must be inclusive through 23:59:59, got %d records", len(got))
	}
}

func TestExtractRangeInvalidBounds(t *testing.T) {
	_, err := ExtractRange(ts(2000, 2, 1, 0), ts(2000, 1, 1, 0), Series{})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestLongestContiguousNoGaps(t *testing.T) {
	s := Series{rec(ts(2000, 1, 1, 0), 1.0), rec(ts(2000, 1, 1, 1), 2.0)}
	got := LongestContiguous(s)
	if len(got) != len(s) {
		t.Fatalf("gap-free series should come back whole, got %d of %d", len(got), len(s))
	}

	// result must be a copy, not an alias
	got[0].SeaLevel.Value = 99.0
	if s[0].SeaLevel.Value == 99.0 {
		t.Fatal("LongestContiguous must not alias its input")
	}
}

func TestLongestContiguousStopsAtFirstGap(t *testing.T) {
	s := Series{
		rec(ts(2000, 1, 1, 0), 1.0),
		rec(ts(2000, 1, 1, 1), 2.0),
		missing(ts(2000, 1, 1, 2)),
		rec(ts(2000, 1, 1, 3), 3.0),
		rec(ts(2000, 1, 1, 4), 4.0),
		rec(ts(2000, 1, 1, 5), 5.0),
	}
	got := LongestContiguous(s)
	if len(got) != 2 {
		t.Fatalf("prefix search must stop at the first gap, got %d records", len(got))
	}
}

func TestLongestContiguousFirstMissing(t *testing.T) {
	s := Series{missing(ts(2000, 1, 1, 0)), rec(ts(2000, 1, 1, 1), 1.0)}
	if got := LongestContiguous(s); len(got) != 0 {
		t.Fatalf("series starting with a gap should yield empty prefix, got %d", len(got))
	}
}

func TestReadingZeroDistinctFromMissing(t *testing.T) {
	zero := Some(0.0)
	if !zero.Valid {
		t.Fatal("an explicit 0.0 reading is a value, not a gap")
	}
	var gap Reading
	if gap.Valid {
		t.Fatal("zero-value Reading must be missing")
	}
}
