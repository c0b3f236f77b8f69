package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// Observation is one archived tide-gauge record. SeaLevel and Residual are
// nil for readings the gauge flagged as missing.
type Observation struct {
	Station   string
	Timestamp time.Time
	SeaLevel  *float64
	Residual  *float64
}

// ConstituentFit is one fitted tidal constituent within an analysis run.
type ConstituentFit struct {
	Name      string  `json:"name"`
	Amplitude float64 `json:"amplitude"`
	PhaseRad  float64 `json:"phase_rad"`
}

// AnalysisRun captures one completed pipeline invocation for auditing.
type AnalysisRun struct {
	ID            int64
	Directory     string
	Records       int
	ValidRecords  int
	SkippedFiles  int
	Slope         decimal.Decimal
	PValue        decimal.Decimal
	Constituents  []ConstituentFit
	ContiguousLen int
	ContiguousEnd *time.Time
	CreatedAt     time.Time
}
