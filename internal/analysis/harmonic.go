package analysis

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"tidal-pipeline/internal/series"
)

// HarmonicResult pairs each requested constituent with its fitted amplitude
// (sea-level units) and phase (radians, in [0, 2π)), in request order.
type HarmonicResult struct {
	Constituents []string
	Amplitudes   []float64
	Phases       []float64
}

// HarmonicFit decomposes the series into the requested tidal constituents
// by least squares against their known angular frequencies.
//
// Missing readings are dropped first. Each timestamp is treated as a UTC
// instant and reduced to elapsed seconds from reference; mixing naive and
// localized times here is the classic way to smuggle in a silent phase
// offset, so the reduction happens in exactly one place. The dense solve is
// delegated to gonum's QR factorization.
func HarmonicFit(s series.Series, constituents []string, reference time.Time) (HarmonicResult, error) {
	if len(constituents) == 0 {
		return HarmonicResult{}, fmt.Errorf("no tidal constituents requested")
	}

	omegas := make([]float64, len(constituents))
	for i, name := range constituents {
		omega, err := AngularFrequency(name)
		if err != nil {
			return HarmonicResult{}, err
		}
		omegas[i] = omega
	}

	ref := reference.UTC()
	var elapsed, levels []float64
	for _, r := range s {
		if !r.SeaLevel.Valid {
			continue
		}
		elapsed = append(elapsed, r.Timestamp.UTC().Sub(ref).Seconds())
		levels = append(levels, r.SeaLevel.Value)
	}

	// one mean column plus a cos/sin pair per constituent
	cols := 2*len(constituents) + 1
	if len(elapsed) < cols {
		return HarmonicResult{}, fmt.Errorf("%w: %d valid points for %d coefficients",
			ErrInsufficientData, len(elapsed), cols)
	}

	design := mat.NewDense(len(elapsed), cols, nil)
	for i, t := range elapsed {
		design.Set(i, 0, 1.0)
		for j, omega := range omegas {
			design.Set(i, 2*j+1, math.Cos(omega*t))
			design.Set(i, 2*j+2, math.Sin(omega*t))
		}
	}
	rhs := mat.NewDense(len(levels), 1, levels)

	var qr mat.QR
	qr.Factorize(design)
	var coef mat.Dense
	if err := qr.SolveTo(&coef, false, rhs); err != nil {
		return HarmonicResult{}, fmt.Errorf("harmonic least squares: %w", err)
	}

	result := HarmonicResult{
		Constituents: constituents,
		Amplitudes:   make([]float64, len(constituents)),
		Phases:       make([]float64, len(constituents)),
	}
	for j := range constituents {
		a := coef.At(2*j+1, 0)
		b := coef.At(2*j+2, 0)
		result.Amplitudes[j] = math.Hypot(a, b)
		phase := math.Atan2(b, a)
		if phase < 0 {
			phase += 2 * math.Pi
		}
		result.Phases[j] = phase
	}
	return result, nil
}
