package coldsnap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// testThresholds mirrors the default configuration: vigilance 3 °C, freeze 0 °C.
var testThresholds = Thresholds{Vigilance: 3.0, Freeze: 0.0}

// at returns a timestamp hours after the reference evening used by the tests.
func at(hoursFromBase int) time.Time {
	base := time.Date(2024, time.November, 15, 22, 0, 0, 0, time.UTC)

	return base.Add(time.Duration(hoursFromBase) * time.Hour)
}

// hourly builds one sample per temperature, one hour apart, starting at at(0).
func hourly(temps ...float64) []TemperatureSample {
	samples := make([]TemperatureSample, 0, len(temps))
	for i, temp := range temps {
		ts := at(i)
		samples = append(samples, NewSample(ts, ts, temp, testThresholds))
	}

	return samples
}

// TestDetectEmptyInput verifies that no samples produce no intervals.
func TestDetectEmptyInput(t *testing.T) {
	t.Parallel()

	d := NewDetector(testThresholds)
	require.Empty(t, d.Detect(nil))
	require.Empty(t, d.Detect([]TemperatureSample{}))
}

// TestDetectContinuousRun checks that consecutive cold hours form one
// interval spanning first to last cold sample.
func TestDetectContinuousRun(t *testing.T) {
	t.Parallel()

	d := NewDetector(testThresholds)

	// 5 warm, then 4 hours at/below vigilance, then warm again.
	intervals := d.Detect(hourly(8, 7, 6, 5, 4, 3, 2, 1.5, 2.5, 6, 9))

	require.Len(t, intervals, 1)
	require.InDelta(t, 3.0, intervals[0].Threshold, 1e-9)
	require.Equal(t, at(5), intervals[0].Start)
	require.Equal(t, at(8), intervals[0].End)
	require.InDelta(t, 1.5, intervals[0].MinTemp, 1e-9)
	require.Equal(t, at(7), intervals[0].MinTempAt)
	require.InDelta(t, 3.0, intervals[0].DurationHours(), 1e-9)
}

// TestDetectIsolatedSample verifies a lone cold hour yields a zero-duration
// interval.
func TestDetectIsolatedSample(t *testing.T) {
	t.Parallel()

	d := NewDetector(testThresholds)

	intervals := d.Detect(hourly(6, 2, 6))

	require.Len(t, intervals, 1)
	require.Equal(t, intervals[0].Start, intervals[0].End)
	require.Zero(t, intervals[0].DurationHours())
}

// TestDetectOpenRunAtEnd checks a run still cold at the end of the series is
// closed as a final interval.
func TestDetectOpenRunAtEnd(t *testing.T) {
	t.Parallel()

	d := NewDetector(testThresholds)

	intervals := d.Detect(hourly(6, 2, 1, 0.5))

	require.Len(t, intervals, 1)
	require.Equal(t, at(1), intervals[0].Start)
	require.Equal(t, at(3), intervals[0].End)
}

// TestDetectMinFirstSeenTieBreak verifies a later equal minimum does not move
// the minimum timestamp.
func TestDetectMinFirstSeenTieBreak(t *testing.T) {
	t.Parallel()

	d := NewDetector(testThresholds)

	intervals := d.Detect(hourly(2, 1, 2.5, 1, 2))

	require.Len(t, intervals, 1)
	require.InDelta(t, 1.0, intervals[0].MinTemp, 1e-9)
	require.Equal(t, at(1), intervals[0].MinTempAt)
}

// TestDetectSortsUnorderedInput ensures detection does not depend on the
// caller pre-sorting the samples.
func TestDetectSortsUnorderedInput(t *testing.T) {
	t.Parallel()

	d := NewDetector(testThresholds)

	ordered := hourly(6, 2, 1, 6)
	shuffled := []TemperatureSample{ordered[2], ordered[0], ordered[3], ordered[1]}

	require.Equal(t, d.Detect(ordered), d.Detect(shuffled))
}

// TestDetectBandsIndependently runs the reference night scenario: vigilance
// from 22:00 to 06:00 with a freeze dip from 02:00 to 04:00, minimum −1 °C at
// 03:00. Expect one interval per band, sorted by (threshold, start), and
// non-overlapping intervals within each band.
func TestDetectBandsIndependently(t *testing.T) {
	t.Parallel()

	d := NewDetector(testThresholds)

	// 22:00 .. 06:00, hourly. Freeze hours at 02:00-04:00 (indexes 4-6).
	intervals := d.Detect(hourly(3, 2.5, 2, 1, 0, -1, 0, 1, 2))

	require.Len(t, intervals, 2)

	// Ascending threshold order: freeze band first.
	freeze, vigilance := intervals[0], intervals[1]
	require.InDelta(t, 0.0, freeze.Threshold, 1e-9)
	require.Equal(t, at(4), freeze.Start)
	require.Equal(t, at(6), freeze.End)
	require.InDelta(t, -1.0, freeze.MinTemp, 1e-9)
	require.Equal(t, at(5), freeze.MinTempAt)

	require.InDelta(t, 3.0, vigilance.Threshold, 1e-9)
	require.Equal(t, at(0), vigilance.Start)
	require.Equal(t, at(8), vigilance.End)
	require.InDelta(t, -1.0, vigilance.MinTemp, 1e-9)
}

// TestDetectMultipleRunsPerBand checks that separate cold runs within one
// band yield disjoint intervals sorted by start.
func TestDetectMultipleRunsPerBand(t *testing.T) {
	t.Parallel()

	d := NewDetector(testThresholds)

	intervals := d.Detect(hourly(2, 1, 6, 7, 2, 0.5, 6))

	require.Len(t, intervals, 2)
	require.True(t, intervals[0].Start.Before(intervals[1].Start))
	require.True(t, intervals[0].End.Before(intervals[1].Start))
}
