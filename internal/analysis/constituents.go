package analysis

import (
	"fmt"
	"math"
)

// Constituent speeds in degrees per mean solar hour. The usual suspects for
// UK gauge work; amplitudes/phases for anything else would need the nodal
// corrections a full harmonic package applies.
var constituentSpeeds = map[string]float64{
	"M2": 28.9841042, // principal lunar semidiurnal
	"S2": 30.0000000, // principal solar semidiurnal
	"N2": 28.4397295, // larger lunar elliptic semidiurnal
	"K2": 30.0821373, // lunisolar semidiurnal
	"K1": 15.0410686, // lunisolar diurnal
	"O1": 13.9430356, // lunar diurnal
	"P1": 14.9589314, // solar diurnal
	"Q1": 13.3986609, // larger lunar elliptic diurnal
	"M4": 57.9682084, // shallow water overtide of M2
}

// AngularFrequency returns the constituent's angular frequency in radians
// per second, or an error for a name outside the table.
func AngularFrequency(name string) (float64, error) {
	speed, ok := constituentSpeeds[name]
	if !ok {
		return 0, fmt.Errorf("unknown tidal constituent %q", name)
	}
	return speed * (math.Pi / 180.0) / 3600.0, nil
}

// KnownConstituents reports whether every requested name is in the table.
func KnownConstituents(names []string) error {
	for _, name := range names {
		if _, ok := constituentSpeeds[name]; !ok {
			return fmt.Errorf("unknown tidal constituent %q", name)
		}
	}
	return nil
}
