package analysis

import (
	"errors"
	"math"
	"testing"
	"time"

	"tidal-pipeline/internal/series"
)

func sinusoidSeries(start time.Time, hours int, build func(tSeconds float64) float64) series.Series {
	s := make(series.Series, 0, hours)
	for i := 0; i < hours; i++ {
		ts := start.Add(time.Duration(i) * time.Hour)
		s = append(s, series.Record{
			Timestamp: ts,
			SeaLevel:  series.Some(build(ts.Sub(start).Seconds())),
		})
	}
	return s
}

func TestHarmonicFitRecoversPureM2(t *testing.T) {
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	omega, err := AngularFrequency("M2")
	if err != nil {
		t.Fatalf("M2 must be known: %v", err)
	}

	const amp, phase = 1.5, 0.7
	s := sinusoidSeries(start, 24*30, func(ts float64) float64 {
		return 2.0 + amp*math.Cos(omega*ts-phase)
	})

	res, err := HarmonicFit(s, []string{"M2"}, start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Amplitudes) != 1 || len(res.Phases) != 1 {
		t.Fatalf("one constituent in, one amplitude/phase out: %+v", res)
	}
	if math.Abs(res.Amplitudes[0]-amp)/amp > 0.01 {
		t.Fatalf("amplitude = %g, want %g within 1%%", res.Amplitudes[0], amp)
	}
	if math.Abs(res.Phases[0]-phase) > 0.01 {
		t.Fatalf("phase = %g, want %g", res.Phases[0], phase)
	}
}

func TestHarmonicFitSeparatesM2AndS2(t *testing.T) {
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	m2, _ := AngularFrequency("M2")
	s2, _ := AngularFrequency("S2")

	s := sinusoidSeries(start, 24*60, func(ts float64) float64 {
		return 1.2*math.Cos(m2*ts-0.3) + 0.4*math.Cos(s2*ts-1.1)
	})

	res, err := HarmonicFit(s, []string{"M2", "S2"}, start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantAmps := []float64{1.2, 0.4}
	wantPhases := []float64{0.3, 1.1}
	for i := range wantAmps {
		if math.Abs(res.Amplitudes[i]-wantAmps[i])/wantAmps[i] > 0.01 {
			t.Errorf("%s amplitude = %g, want %g", res.Constituents[i], res.Amplitudes[i], wantAmps[i])
		}
		if math.Abs(res.Phases[i]-wantPhases[i]) > 0.02 {
			t.Errorf("%s phase = %g, want %g", res.Constituents[i], res.Phases[i], wantPhases[i])
		}
	}
}

func TestHarmonicFitDropsMissing(t *testing.T) {
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	omega, _ := AngularFrequency("M2")
	s := sinusoidSeries(start, 24*30, func(ts float64) float64 {
		return math.Cos(omega * ts)
	})
	for i := 5; i < len(s); i += 50 {
		s[i].SeaLevel = series.Reading{}
	}

	res, err := HarmonicFit(s, []string{"M2"}, start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(res.Amplitudes[0]-1.0) > 0.01 {
		t.Fatalf("amplitude = %g, want ~1.0 despite gaps", res.Amplitudes[0])
	}
}

func TestHarmonicFitUnknownConstituent(t *testing.T) {
	s := sinusoidSeries(time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), 48, func(float64) float64 { return 1.0 })
	if _, err := HarmonicFit(s, []string{"XX"}, time.Now()); err == nil {
		t.Fatal("unknown constituent name must be an error")
	}
}

func TestHarmonicFitInsufficientData(t *testing.T) {
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	s := sinusoidSeries(start, 2, func(float64) float64 { return 1.0 })
	_, err := HarmonicFit(s, []string{"M2"}, start)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestHarmonicFitReferenceOffsetShiftsPhaseOnly(t *testing.T) {
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	omega, _ := AngularFrequency("M2")
	s := sinusoidSeries(start, 24*30, func(ts float64) float64 {
		return 1.5 * math.Cos(omega*ts)
	})

	shifted := start.Add(-6 * time.Hour)
	res, err := HarmonicFit(s, []string{"M2"}, shifted)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// amplitude is invariant under the choice of reference time
	if math.Abs(res.Amplitudes[0]-1.5) > 0.02 {
		t.Fatalf("amplitude = %g, want 1.5 regardless of reference", res.Amplitudes[0])
	}
}
