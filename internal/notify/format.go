package notify

import (
	"fmt"
	"time"

	"github.com/vlambert/plantalert/internal/domain/coldsnap"
)

// rangeLayout renders period boundaries as day/month and hour, e.g. "15/11 22h".
const rangeLayout = "02/01 15h"

// DefaultChannels lists the delivery channels recorded for each notification.
//
//nolint:gochecknoglobals // Closed channel list, never mutated.
var DefaultChannels = []string{"discord", "notify"}

// BuildMessage renders the notification for one notifiable action.
// Severity and title derive from the triggering interval's band, except for
// DELETE which always reports an ended period as info.
func BuildMessage(action coldsnap.AlertAction, thresholds coldsnap.Thresholds, now time.Time) Message {
	isFreeze := thresholds.IsFreeze(action.Interval.Threshold)

	switch action.Type {
	case coldsnap.ActionCreate:
		return Message{
			Title:       alertTitle(action.Interval.Threshold, isFreeze),
			Description: newPeriodText(action.Interval),
			Severity:    bandSeverity(isFreeze),
			Timestamp:   now,
		}
	case coldsnap.ActionDelete:
		return Message{
			Title:       "✅ Fin période froide",
			Description: endedText(action.Previous),
			Severity:    SeverityInfo,
			Timestamp:   now,
		}
	default:
		title := "🌡️ Vigilance froid"
		if isFreeze {
			title = "🥶 Alerte gel"
		}

		return Message{
			Title:       title,
			Description: updateText(action),
			Severity:    bandSeverity(isFreeze),
			Timestamp:   now,
		}
	}
}

// FormatPlantAlert renders the full stand-alone alert message used by the
// self-test, including the minimum temperature and the call to action.
func FormatPlantAlert(threshold float64, start, end time.Time, minTemp float64, now time.Time) Message {
	isFreeze := threshold <= 0

	description := fmt.Sprintf(
		"📅 Période froide prévue : %s → %s\n🥶 Température mini : %.1f°C\n➡️ Rentrer les plantes sensibles avant ce soir",
		start.Format(rangeLayout), end.Format(rangeLayout), minTemp,
	)

	return Message{
		Title:       alertTitle(threshold, isFreeze),
		Description: description,
		Severity:    bandSeverity(isFreeze),
		Timestamp:   now,
	}
}

// alertTitle is the headline for newly announced periods.
func alertTitle(threshold float64, isFreeze bool) string {
	if isFreeze {
		return "🥶 ALERTE PLANTES - Gel"
	}

	return fmt.Sprintf("🌡️ ALERTE PLANTES - Vigilance %.0f°C", threshold)
}

// bandSeverity maps a band to its severity: freeze is critical, vigilance warning.
func bandSeverity(isFreeze bool) Severity {
	if isFreeze {
		return SeverityCritical
	}

	return SeverityWarning
}

// formatRange renders a period span.
func formatRange(start, end time.Time) string {
	return fmt.Sprintf("%s → %s", start.Format(rangeLayout), end.Format(rangeLayout))
}

// newPeriodText announces a newly detected period.
func newPeriodText(interval coldsnap.ColdInterval) string {
	return "📅 Période froide prévue : " + formatRange(interval.Start, interval.End)
}

// updateText describes what changed on an updated period.
func updateText(action coldsnap.AlertAction) string {
	if action.Previous == nil {
		return newPeriodText(action.Interval)
	}

	if action.Reason == coldsnap.ReasonMinTempChanged {
		return fmt.Sprintf(
			"⚠️ Période froide modifiée : mini %.1f°C → %.1f°C",
			action.Previous.MinTemp, action.Interval.MinTemp,
		)
	}

	return fmt.Sprintf(
		"⚠️ Période froide modifiée : était %s → maintenant %s",
		formatRange(action.Previous.Start, action.Previous.End),
		formatRange(action.Interval.Start, action.Interval.End),
	)
}

// endedText describes a period that left the forecast.
func endedText(previous *coldsnap.StoredAlert) string {
	if previous == nil {
		return "✅ Fin période froide : plus de risque prévu"
	}

	return fmt.Sprintf(
		"✅ Fin période froide : plus de risque prévu (❄️ %s)",
		formatRange(previous.Start, previous.End),
	)
}
