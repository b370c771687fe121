package coldsnap

import (
	"math"
	"sort"
)

// minTempTolerance is the minimum-temperature difference, in °C, below which
// a matched pair still counts as unchanged.
const minTempTolerance = 0.1

// Reconciler matches newly detected intervals against previously stored
// alerts and classifies each pairing as a create/update/ignore/delete action.
type Reconciler struct {
	// thresholds decides which band a threshold value belongs to.
	thresholds Thresholds
}

// NewReconciler creates a reconciler for the provided thresholds.
func NewReconciler(t Thresholds) *Reconciler {
	return &Reconciler{thresholds: t}
}

// Reconcile diffs intervals against stored alerts, band by band.
//
// Bands are processed in descending threshold order (vigilance before
// freeze); the ordering carries no correctness dependency between bands but
// fixes the emission order of actions, which callers rely on for
// deterministic output. Within a band both sides are sorted by start and
// each interval takes the first not-yet-matched stored alert whose span
// overlaps it (first-fit, ties resolved by store order). Stored alerts left
// unmatched at the end of their band emit DELETE with the alert's own span.
func (r *Reconciler) Reconcile(intervals []ColdInterval, alerts []StoredAlert) []AlertAction {
	var (
		intervalsByThreshold = make(map[float64][]ColdInterval)
		alertsByThreshold    = make(map[float64][]StoredAlert)
	)

	for _, interval := range intervals {
		intervalsByThreshold[interval.Threshold] = append(intervalsByThreshold[interval.Threshold], interval)
	}

	for _, alert := range alerts {
		alertsByThreshold[alert.Threshold] = append(alertsByThreshold[alert.Threshold], alert)
	}

	thresholds := make([]float64, 0, len(intervalsByThreshold)+len(alertsByThreshold))
	for threshold := range intervalsByThreshold {
		thresholds = append(thresholds, threshold)
	}

	for threshold := range alertsByThreshold {
		if _, seen := intervalsByThreshold[threshold]; !seen {
			thresholds = append(thresholds, threshold)
		}
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(thresholds)))

	var actions []AlertAction
	for _, threshold := range thresholds {
		actions = append(actions, r.reconcileBand(
			threshold,
			intervalsByThreshold[threshold],
			alertsByThreshold[threshold],
		)...)
	}

	return actions
}

// reconcileBand runs first-fit matching and classification for one band.
func (r *Reconciler) reconcileBand(
	threshold float64,
	intervals []ColdInterval,
	alerts []StoredAlert,
) []AlertAction {
	sort.SliceStable(intervals, func(i, j int) bool {
		return intervals[i].Start.Before(intervals[j].Start)
	})
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Start.Before(alerts[j].Start)
	})

	var (
		actions []AlertAction
		matched = make(map[int64]bool, len(alerts))
	)

	for _, interval := range intervals {
		match := r.firstOverlap(interval, alerts, matched)
		if match == nil {
			reason := ReasonNewPeriod
			if r.thresholds.IsFreeze(threshold) {
				reason = ReasonNewThreshold
			}

			actions = append(actions, AlertAction{
				Type:     ActionCreate,
				Interval: interval,
				Reason:   reason,
			})

			continue
		}

		matched[match.ID] = true

		previous := match.Interval()
		reason, extended, shortened := classifyChange(previous, interval)

		if reason == ReasonNoChange {
			// IGNORE still carries the matched id for traceability.
			actions = append(actions, AlertAction{
				Type:     ActionIgnore,
				Interval: interval,
				AlertID:  match.ID,
				Reason:   reason,
				Previous: match,
			})

			continue
		}

		actions = append(actions, AlertAction{
			Type:           ActionUpdate,
			Interval:       interval,
			AlertID:        match.ID,
			Reason:         reason,
			Previous:       match,
			HoursExtended:  extended,
			HoursShortened: shortened,
		})
	}

	// Every stored alert no interval claimed has ended.
	for i := range alerts {
		alert := alerts[i]
		if matched[alert.ID] {
			continue
		}

		actions = append(actions, AlertAction{
			Type:     ActionDelete,
			Interval: alert.Interval(),
			AlertID:  alert.ID,
			Reason:   ReasonPeriodEnded,
			Previous: &alert,
		})
	}

	return actions
}

// firstOverlap returns the first not-yet-matched alert whose span overlaps
// the interval, or nil. First-fit, not best-fit: among several overlapping
// candidates, store order wins over temporal alignment.
func (r *Reconciler) firstOverlap(
	interval ColdInterval,
	alerts []StoredAlert,
	matched map[int64]bool,
) *StoredAlert {
	for i := range alerts {
		if matched[alerts[i].ID] {
			continue
		}

		if spansOverlap(interval.Start, interval.End, alerts[i].Start, alerts[i].End) {
			return &alerts[i]
		}
	}

	return nil
}

// classifyChange compares the previous and current spans of a matched pair
// and returns the change reason plus the signed duration deltas
// (hours extended, hours shortened — at most one of them non-zero).
func classifyChange(previous, current ColdInterval) (Reason, float64, float64) {
	var (
		durationDelta  = current.DurationHours() - previous.DurationHours()
		startChanged   = !previous.Start.Equal(current.Start)
		endChanged     = !previous.End.Equal(current.End)
		minTempChanged = math.Abs(previous.MinTemp-current.MinTemp) >= minTempTolerance
	)

	switch {
	case !startChanged && !endChanged && !minTempChanged:
		return ReasonNoChange, 0, 0
	case durationDelta > 0:
		return ReasonPeriodExtended, durationDelta, 0
	case durationDelta < 0:
		return ReasonPeriodShortened, 0, math.Abs(durationDelta)
	case startChanged || endChanged:
		return ReasonPeriodShifted, 0, 0
	case minTempChanged:
		return ReasonMinTempChanged, 0, 0
	default:
		// Unreachable given the cases above; kept as a safe fallback.
		return ReasonPeriodShifted, 0, 0
	}
}
