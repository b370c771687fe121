package coldsnap

import "sort"

// Detector converts an hourly temperature series into continuous cold
// intervals, independently per threshold band.
type Detector struct {
	// thresholds holds the configured band values stamped onto intervals.
	thresholds Thresholds
}

// NewDetector creates a detector for the provided thresholds.
func NewDetector(t Thresholds) *Detector {
	return &Detector{thresholds: t}
}

// Detect scans the samples once per band and returns every maximal run of
// consecutive cold samples as an interval, sorted by (threshold, start).
// The input is sorted by local timestamp first, so callers need not
// guarantee order. Empty input yields an empty result.
func (d *Detector) Detect(samples []TemperatureSample) []ColdInterval {
	if len(samples) == 0 {
		return nil
	}

	sorted := make([]TemperatureSample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TimestampLocal.Before(sorted[j].TimestampLocal)
	})

	var intervals []ColdInterval
	for _, band := range bandOrder {
		intervals = append(intervals, d.detectBand(sorted, band)...)
	}

	sort.SliceStable(intervals, func(i, j int) bool {
		if intervals[i].Threshold != intervals[j].Threshold {
			return intervals[i].Threshold < intervals[j].Threshold
		}

		return intervals[i].Start.Before(intervals[j].Start)
	})

	return intervals
}

// detectBand performs the linear pass for one band over time-ordered samples.
func (d *Detector) detectBand(sorted []TemperatureSample, band Band) []ColdInterval {
	var (
		isCold    = coldPredicates[band]
		threshold = d.thresholds.Value(band)
		current   *ColdInterval
		intervals []ColdInterval
	)

	for _, sample := range sorted {
		if !isCold(sample) {
			if current != nil {
				intervals = append(intervals, *current)
				current = nil
			}

			continue
		}

		if current == nil {
			current = &ColdInterval{
				Threshold: threshold,
				Start:     sample.TimestampLocal,
				End:       sample.TimestampLocal,
				MinTemp:   sample.TemperatureC,
				MinTempAt: sample.TimestampLocal,
			}

			continue
		}

		current.End = sample.TimestampLocal

		// First-seen tie-break: an equal minimum later on does not move
		// the minimum timestamp.
		if sample.TemperatureC < current.MinTemp {
			current.MinTemp = sample.TemperatureC
			current.MinTempAt = sample.TimestampLocal
		}
	}

	// A run still open at the end of the series closes as a final interval.
	if current != nil {
		intervals = append(intervals, *current)
	}

	return intervals
}
