package coldsnap

import "time"

// TemperatureSample is one hour of forecast, with pre-computed band flags.
// Samples are immutable once produced by the forecast source.
type TemperatureSample struct {
	// TimestampUTC is the absolute instant of the sample.
	TimestampUTC time.Time
	// TimestampLocal is the same instant rendered in the configured zone.
	// Detection and all stored timestamps use the local rendering, matching
	// what the gardener reads on notifications.
	TimestampLocal time.Time
	// TemperatureC is the forecast temperature in degrees Celsius.
	TemperatureC float64
	// BelowVigilance reports TemperatureC at or below the vigilance band.
	BelowVigilance bool
	// BelowFreeze reports TemperatureC at or below the freeze band.
	BelowFreeze bool
}

// Band identifies one configured temperature threshold tracked independently.
type Band int

const (
	// BandVigilance is the upper band (default 3 °C).
	BandVigilance Band = iota
	// BandFreeze is the lower band (default 0 °C).
	BandFreeze
)

// bandOrder is the fixed detection order. It mirrors the threshold
// configuration order, not severity.
//
//nolint:gochecknoglobals // Closed enumeration of bands, never mutated.
var bandOrder = []Band{BandVigilance, BandFreeze}

// coldPredicates maps each band to the pure predicate deciding whether a
// sample is cold for it. A closed mapping keeps per-band dispatch
// compiler-checkable while leaving room for more bands later.
//
//nolint:gochecknoglobals // Closed mapping, never mutated.
var coldPredicates = map[Band]func(TemperatureSample) bool{
	BandVigilance: func(s TemperatureSample) bool { return s.BelowVigilance },
	BandFreeze:    func(s TemperatureSample) bool { return s.BelowFreeze },
}

// Thresholds carries the configured band values, in degrees Celsius.
type Thresholds struct {
	// Vigilance is the vigilance band value.
	Vigilance float64
	// Freeze is the freeze band value.
	Freeze float64
}

// Value returns the configured threshold for the band.
func (t Thresholds) Value(b Band) float64 {
	if b == BandFreeze {
		return t.Freeze
	}

	return t.Vigilance
}

// IsFreeze reports whether a threshold value belongs to the freeze band.
// Anything at or below the configured freeze value counts.
func (t Thresholds) IsFreeze(threshold float64) bool {
	return threshold <= t.Freeze
}

// NewSample derives the band flags for a forecast hour against the thresholds.
func NewSample(utc, local time.Time, temperatureC float64, t Thresholds) TemperatureSample {
	return TemperatureSample{
		TimestampUTC:   utc,
		TimestampLocal: local,
		TemperatureC:   temperatureC,
		BelowVigilance: temperatureC <= t.Vigilance,
		BelowFreeze:    temperatureC <= t.Freeze,
	}
}
