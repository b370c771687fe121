package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vlambert/plantalert/internal/domain/coldsnap"
)

// testNow is the fixed timestamp stamped onto messages in these tests.
var testNow = time.Date(2024, time.November, 15, 18, 0, 0, 0, time.UTC)

// testThresholds mirrors the default configuration.
var testThresholds = coldsnap.Thresholds{Vigilance: 3.0, Freeze: 0.0}

// span builds an interval between two hours of the reference night.
func span(threshold float64, startHour, endHour int) coldsnap.ColdInterval {
	base := time.Date(2024, time.November, 15, 22, 0, 0, 0, time.UTC)

	return coldsnap.ColdInterval{
		Threshold: threshold,
		Start:     base.Add(time.Duration(startHour) * time.Hour),
		End:       base.Add(time.Duration(endHour) * time.Hour),
		MinTemp:   -1.0,
		MinTempAt: base.Add(time.Duration(startHour) * time.Hour),
	}
}

// TestBuildMessageCreate checks titles and severities per band for new periods.
func TestBuildMessageCreate(t *testing.T) {
	t.Parallel()

	vigilance := BuildMessage(coldsnap.AlertAction{
		Type:     coldsnap.ActionCreate,
		Interval: span(3.0, 0, 8),
		Reason:   coldsnap.ReasonNewPeriod,
	}, testThresholds, testNow)

	require.Equal(t, SeverityWarning, vigilance.Severity)
	require.Contains(t, vigilance.Title, "Vigilance 3°C")
	require.Contains(t, vigilance.Description, "15/11 22h → 16/11 06h")

	freeze := BuildMessage(coldsnap.AlertAction{
		Type:     coldsnap.ActionCreate,
		Interval: span(0.0, 4, 6),
		Reason:   coldsnap.ReasonNewThreshold,
	}, testThresholds, testNow)

	require.Equal(t, SeverityCritical, freeze.Severity)
	require.Contains(t, freeze.Title, "Gel")
}

// TestBuildMessageUpdate checks the changed-period and min-temp descriptions.
func TestBuildMessageUpdate(t *testing.T) {
	t.Parallel()

	previous := span(3.0, 0, 10)
	previousAlert := &coldsnap.StoredAlert{
		ID:        1,
		Threshold: previous.Threshold,
		Start:     previous.Start,
		End:       previous.End,
		MinTemp:   previous.MinTemp,
		MinTempAt: previous.MinTempAt,
	}

	shortened := BuildMessage(coldsnap.AlertAction{
		Type:           coldsnap.ActionUpdate,
		Interval:       span(3.0, 0, 4),
		AlertID:        1,
		Reason:         coldsnap.ReasonPeriodShortened,
		Previous:       previousAlert,
		HoursShortened: 6,
	}, testThresholds, testNow)

	require.Contains(t, shortened.Description, "était")
	require.Contains(t, shortened.Description, "maintenant")

	minChanged := BuildMessage(coldsnap.AlertAction{
		Type:     coldsnap.ActionUpdate,
		Interval: span(3.0, 0, 10),
		AlertID:  1,
		Reason:   coldsnap.ReasonMinTempChanged,
		Previous: previousAlert,
	}, testThresholds, testNow)

	require.Contains(t, minChanged.Description, "mini")
}

// TestBuildMessageDelete checks ended periods always report as info with the
// previous span, regardless of band.
func TestBuildMessageDelete(t *testing.T) {
	t.Parallel()

	previous := span(0.0, 4, 6)
	ended := BuildMessage(coldsnap.AlertAction{
		Type:    coldsnap.ActionDelete,
		AlertID: 2,
		Reason:  coldsnap.ReasonPeriodEnded,
		Previous: &coldsnap.StoredAlert{
			ID:        2,
			Threshold: previous.Threshold,
			Start:     previous.Start,
			End:       previous.End,
			MinTemp:   previous.MinTemp,
			MinTempAt: previous.MinTempAt,
		},
		Interval: previous,
	}, testThresholds, testNow)

	require.Equal(t, SeverityInfo, ended.Severity)
	require.Contains(t, ended.Title, "Fin période froide")
	require.Contains(t, ended.Description, "16/11 02h → 16/11 04h")
}

// TestDiscordPayload verifies the embed shape, severity color and mentions.
func TestDiscordPayload(t *testing.T) {
	t.Parallel()

	m := Message{
		Title:       "🥶 ALERTE PLANTES - Gel",
		Description: "test",
		Severity:    SeverityCritical,
		Timestamp:   testNow,
	}

	body, err := m.DiscordPayload([]string{"42"})
	require.NoError(t, err)

	var payload struct {
		Embeds []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Timestamp   string `json:"timestamp"`
			Color       int    `json:"color"`
		} `json:"embeds"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.Len(t, payload.Embeds, 1)
	require.Equal(t, m.Title, payload.Embeds[0].Title)
	require.Contains(t, payload.Embeds[0].Description, "<@&42>")
	require.Equal(t, 0x8B0000, payload.Embeds[0].Color)

	// Unknown severities fall back to the default color.
	require.Equal(t, defaultEmbedColor, Severity("purple").Color())
}

// TestDiscordSenderSend posts against a test server and checks the request.
func TestDiscordSenderSend(t *testing.T) {
	t.Parallel()

	var received []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		received, _ = io.ReadAll(r.Body)

		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	sender := NewDiscordSender(server.URL, nil, server.Client())
	require.True(t, sender.Configured())

	err := sender.Send(context.Background(), Message{
		Title:     "🌡️ Vigilance froid",
		Severity:  SeverityWarning,
		Timestamp: testNow,
	})
	require.NoError(t, err)
	require.Contains(t, string(received), "Vigilance froid")
}

// TestSenderConfigured checks empty and placeholder targets are skipped.
func TestSenderConfigured(t *testing.T) {
	t.Parallel()

	require.False(t, NewDiscordSender("", nil, nil).Configured())
	require.False(t, NewDiscordSender(PlaceholderWebhook, nil, nil).Configured())

	require.False(t, NewDesktopSender("").Configured())
	require.False(t, NewDesktopSender(PlaceholderSSHHost).Configured())
	require.True(t, NewDesktopSender("val@10.0.0.2").Configured())
}

// TestNotifySendArgs verifies the notify-send invocation shape.
func TestNotifySendArgs(t *testing.T) {
	t.Parallel()

	args := Message{
		Title:       "🥶 ALERTE PLANTES - Gel",
		Description: "desc",
		Severity:    SeverityCritical,
	}.NotifySendArgs()

	require.Equal(t, "notify-send", args[0])
	require.Equal(t, "PlantAlert :: CRITICAL", args[1])
	require.Contains(t, args[2], "desc")
}

// TestFormatPlantAlert checks the stand-alone self-test message.
func TestFormatPlantAlert(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, time.November, 15, 22, 0, 0, 0, time.UTC)

	m := FormatPlantAlert(3.0, start, start.Add(8*time.Hour), 1.5, testNow)
	require.Equal(t, SeverityWarning, m.Severity)
	require.Contains(t, m.Description, "1.5°C")
	require.Contains(t, m.Description, "Rentrer les plantes")

	m = FormatPlantAlert(0.0, start, start.Add(2*time.Hour), -1.0, testNow)
	require.Equal(t, SeverityCritical, m.Severity)
}
