package storage

import (
	"testing"
	"time"
)

func TestSeriesFromObservations(t *testing.T) {
	level := 1.25
	residual := -0.04
	ts := time.Date(2000, 6, 1, 12, 0, 0, 0, time.UTC)
	observations := []Observation{
		{Station: "testhaven", Timestamp: ts, SeaLevel: &level, Residual: &residual},
		{Station: "testhaven", Timestamp: ts.Add(time.Hour)},
	}

	got := SeriesFromObservations(observations)
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}

	first := got[0]
	if first.Station != "testhaven" || !first.Timestamp.Equal(ts) {
		t.Fatalf("unexpected first record: %+v", first)
	}
	if !first.SeaLevel.Valid || first.SeaLevel.Value != level {
		t.Fatalf("sea level not carried over: %+v", first.SeaLevel)
	}
	if !first.Residual.Valid || first.Residual.Value != residual {
		t.Fatalf("residual not carried over: %+v", first.Residual)
	}

	// NULL columns become missing readings, not zeros
	second := got[1]
	if second.SeaLevel.Valid || second.Residual.Valid {
		t.Fatalf("nil columns must map to missing readings: %+v", second)
	}
}

func TestSeriesFromObservationsEmpty(t *testing.T) {
	if got := SeriesFromObservations(nil); len(got) != 0 {
		t.Fatalf("expected empty series, got %d records", len(got))
	}
}
