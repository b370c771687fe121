package coldsnap

// ShouldNotify decides whether an action warrants a notification.
//
// IGNORE never notifies, CREATE and DELETE always do. UPDATE notifies for
// extensions, new freeze thresholds, minimum changes and shifts; a shortened
// period only notifies when it lost at least minChangeHours, which keeps
// forecasts that shrink by small margins between runs from churning out
// notifications. Unknown reasons stay silent.
func ShouldNotify(action AlertAction, minChangeHours float64) bool {
	switch action.Type {
	case ActionIgnore:
		return false
	case ActionCreate, ActionDelete:
		return true
	case ActionUpdate:
		// Classified below by reason.
	default:
		return false
	}

	switch action.Reason {
	case ReasonPeriodExtended, ReasonNewThreshold, ReasonMinTempChanged, ReasonPeriodShifted:
		return true
	case ReasonPeriodShortened:
		return action.HoursShortened >= minChangeHours
	default:
		return false
	}
}
