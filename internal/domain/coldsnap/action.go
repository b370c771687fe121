package coldsnap

// ActionType is the reconciler's verdict for one interval/alert pairing.
type ActionType int

const (
	// ActionCreate inserts a new stored alert for an unmatched interval.
	ActionCreate ActionType = iota
	// ActionUpdate mutates span/min fields of a matched stored alert.
	ActionUpdate
	// ActionDelete removes a stored alert no interval overlaps anymore.
	ActionDelete
	// ActionIgnore records a matched pair with no material change.
	ActionIgnore
)

// String returns the canonical upper-case name of the action type.
func (t ActionType) String() string {
	switch t {
	case ActionCreate:
		return "CREATE"
	case ActionUpdate:
		return "UPDATE"
	case ActionDelete:
		return "DELETE"
	case ActionIgnore:
		return "IGNORE"
	default:
		return "UNKNOWN"
	}
}

// Reason sub-classifies an action, explaining what changed.
type Reason int

const (
	// ReasonNewPeriod marks a newly detected vigilance-band period.
	ReasonNewPeriod Reason = iota
	// ReasonNewThreshold marks a newly detected freeze-band period.
	ReasonNewThreshold
	// ReasonNoChange marks a matched pair with identical boundaries and a
	// minimum within tolerance.
	ReasonNoChange
	// ReasonPeriodExtended marks a matched period that grew longer.
	ReasonPeriodExtended
	// ReasonPeriodShortened marks a matched period that shrank.
	ReasonPeriodShortened
	// ReasonPeriodShifted marks a window that moved without changing length.
	ReasonPeriodShifted
	// ReasonMinTempChanged marks a minimum change with unchanged boundaries.
	ReasonMinTempChanged
	// ReasonPeriodEnded marks a stored alert no longer present in the forecast.
	ReasonPeriodEnded
)

// String returns the canonical upper-case name of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonNewPeriod:
		return "NEW_PERIOD"
	case ReasonNewThreshold:
		return "NEW_THRESHOLD"
	case ReasonNoChange:
		return "NO_CHANGE"
	case ReasonPeriodExtended:
		return "PERIOD_EXTENDED"
	case ReasonPeriodShortened:
		return "PERIOD_SHORTENED"
	case ReasonPeriodShifted:
		return "PERIOD_SHIFTED"
	case ReasonMinTempChanged:
		return "MIN_TEMP_CHANGED"
	case ReasonPeriodEnded:
		return "PERIOD_ENDED"
	default:
		return "UNKNOWN"
	}
}

// AlertAction is one reconciliation verdict together with everything the
// persister and the notification formatter need to act on it.
type AlertAction struct {
	// Type is the store operation this action calls for.
	Type ActionType
	// Interval is the triggering interval. For DELETE it carries the stored
	// alert's own span, so downstream formatting can describe what ended.
	Interval ColdInterval
	// AlertID is the matched stored-alert identifier, zero when none.
	// The persister writes the assigned id back here after a CREATE.
	AlertID int64
	// Reason explains what changed.
	Reason Reason
	// Previous is the matched stored alert before the change, nil for CREATE.
	Previous *StoredAlert
	// HoursExtended is the positive duration delta for PERIOD_EXTENDED.
	// Mutually exclusive with HoursShortened.
	HoursExtended float64
	// HoursShortened is the absolute duration delta for PERIOD_SHORTENED.
	HoursShortened float64
}
