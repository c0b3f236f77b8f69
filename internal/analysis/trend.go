package analysis

import (
	"errors"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"tidal-pipeline/internal/series"
)

// ErrInsufficientData indicates a statistical fit was requested with too few
// valid points. This is an explicit failure rather than a NaN pair so a
// degenerate series cannot slip through into downstream reporting.
var ErrInsufficientData = errors.New("analysis: insufficient data")

// TrendResult is the outcome of an ordinary least-squares fit of sea level
// against elapsed time.
type TrendResult struct {
	// Slope in sea-level units per day.
	Slope float64
	// PValue is the two-sided p-value for the null hypothesis of zero slope.
	PValue float64
	// Points is the number of valid observations in the fit.
	Points int
	// Epoch is the time origin of the fit's numeric axis.
	Epoch time.Time
}

// SlopeMMPerYear converts the slope to millimetres per year, assuming the
// series carries sea levels in metres.
func (r TrendResult) SlopeMMPerYear() float64 {
	return r.Slope * 1000.0 * 365.25
}

// Trend fits a linear sea-level trend over the series. Missing readings are
// dropped first; timestamps become fractional days since the first retained
// observation. The epoch choice does not affect the slope, only its
// intercept, as long as one epoch covers the whole call.
func Trend(s series.Series) (TrendResult, error) {
	var xs, ys []float64
	var epoch time.Time
	for _, r := range s {
		if !r.SeaLevel.Valid {
			continue
		}
		if len(xs) == 0 {
			epoch = r.Timestamp
		}
		xs = append(xs, r.Timestamp.Sub(epoch).Hours()/24.0)
		ys = append(ys, r.SeaLevel.Value)
	}

	if len(xs) < 2 {
		return TrendResult{}, ErrInsufficientData
	}
	if !hasSpread(xs) {
		// every observation at the same instant; no time axis to regress on
		return TrendResult{}, ErrInsufficientData
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)

	return TrendResult{
		Slope:  beta,
		PValue: slopePValue(xs, ys, alpha, beta),
		Points: len(xs),
		Epoch:  epoch,
	}, nil
}

func hasSpread(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return true
		}
	}
	return false
}

// slopePValue computes the two-sided p-value of the fitted slope from the
// residual sum of squares and a Student's t distribution with n-2 degrees
// of freedom.
func slopePValue(xs, ys []float64, alpha, beta float64) float64 {
	n := float64(len(xs))
	df := n - 2
	if df <= 0 {
		// two points always fit exactly; no evidence either way
		return 1.0
	}

	xbar := stat.Mean(xs, nil)
	var sse, ssx float64
	for i := range xs {
		resid := ys[i] - (alpha + beta*xs[i])
		sse += resid * resid
		dx := xs[i] - xbar
		ssx += dx * dx
	}
	if sse == 0 {
		// perfect fit
		return 0.0
	}

	se := math.Sqrt(sse / df / ssx)
	tStat := math.Abs(beta / se)
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * dist.Survival(tStat)
}
