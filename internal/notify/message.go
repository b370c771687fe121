package notify

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Severity tags a message for color and urgency mapping on each channel.
type Severity string

const (
	// SeverityInfo marks end-of-period and test messages.
	SeverityInfo Severity = "info"
	// SeverityWarning marks vigilance-band alerts.
	SeverityWarning Severity = "warning"
	// SeverityCritical marks freeze-band alerts.
	SeverityCritical Severity = "critical"
)

// Message is the channel-independent form of one outbound notification.
type Message struct {
	// Title is the short headline.
	Title string
	// Description is the human-readable body.
	Description string
	// Severity drives per-channel urgency rendering.
	Severity Severity
	// Timestamp is when the message was produced.
	Timestamp time.Time
}

// severityColors maps severities to Discord embed colors.
//
//nolint:gochecknoglobals // Closed mapping, never mutated.
var severityColors = map[Severity]int{
	SeverityInfo:     0x1E90FF,
	SeverityWarning:  0xFFA500,
	SeverityCritical: 0x8B0000,
}

// defaultEmbedColor is used for unrecognized severities.
const defaultEmbedColor = 0x2E8B57

// Color returns the Discord embed color for the severity.
func (s Severity) Color() int {
	if color, ok := severityColors[s]; ok {
		return color
	}

	return defaultEmbedColor
}

// DiscordPayload renders the message as a Discord webhook body with one
// embed, optionally prefixed with role mentions.
func (m Message) DiscordPayload(mentionRoles []string) ([]byte, error) {
	mentions := make([]string, 0, len(mentionRoles))
	for _, role := range mentionRoles {
		mentions = append(mentions, fmt.Sprintf("<@&%s>", role))
	}

	description := m.Description
	if len(mentions) > 0 {
		description = strings.Join(mentions, " ") + "\n" + description
	}

	payload := map[string]any{
		"embeds": []map[string]any{{
			"title":       m.Title,
			"description": description,
			"timestamp":   m.Timestamp.Format(time.RFC3339),
			"color":       m.Severity.Color(),
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal discord payload: %w", err)
	}

	return body, nil
}

// NotifySendArgs renders the message as a notify-send invocation.
func (m Message) NotifySendArgs() []string {
	return []string{
		"notify-send",
		fmt.Sprintf("PlantAlert :: %s", strings.ToUpper(string(m.Severity))),
		fmt.Sprintf("%s\n%s", m.Title, m.Description),
	}
}
