package coldsnap

import "time"

// ColdInterval is a maximal continuous time span during which the forecast
// stays at or below one threshold band.
type ColdInterval struct {
	// Threshold is the band value the interval was detected under.
	Threshold float64
	// Start is the timestamp of the first cold sample.
	Start time.Time
	// End is the timestamp of the last cold sample, inclusive.
	End time.Time
	// MinTemp is the lowest temperature observed inside the interval.
	MinTemp float64
	// MinTempAt is when the minimum was first observed.
	MinTempAt time.Time
}

// DurationHours returns the interval length in hours, never negative.
// A single-sample interval has duration zero.
func (i ColdInterval) DurationHours() float64 {
	d := i.End.Sub(i.Start).Hours()
	if d < 0 {
		return 0
	}

	return d
}

// Overlaps reports whether the two spans share at least one instant.
func (i ColdInterval) Overlaps(other ColdInterval) bool {
	return spansOverlap(i.Start, i.End, other.Start, other.End)
}

// spansOverlap implements the closed-interval overlap test:
// [startA, endA] and [startB, endB] overlap iff startA ≤ endB and startB ≤ endA.
func spansOverlap(startA, endA, startB, endB time.Time) bool {
	return !startA.After(endB) && !startB.After(endA)
}

// StoredAlert is the durable record of a previously detected interval.
type StoredAlert struct {
	// ID is the store-assigned identifier.
	ID int64
	// Threshold is the band value, immutable after creation.
	Threshold float64
	// Start is the beginning of the recorded cold period.
	Start time.Time
	// End is the inclusive end of the recorded cold period.
	End time.Time
	// MinTemp is the recorded minimum temperature.
	MinTemp float64
	// MinTempAt is when the recorded minimum occurs.
	MinTempAt time.Time
	// CreatedAt is when the alert row was inserted.
	CreatedAt time.Time
	// LastNotifiedAt is when a notification last referenced this alert,
	// nil when none has been sent yet.
	LastNotifiedAt *time.Time
}

// Interval returns the cold interval this alert records.
func (a StoredAlert) Interval() ColdInterval {
	return ColdInterval{
		Threshold: a.Threshold,
		Start:     a.Start,
		End:       a.End,
		MinTemp:   a.MinTemp,
		MinTempAt: a.MinTempAt,
	}
}
