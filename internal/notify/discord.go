package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/vlambert/plantalert/internal/logger"
)

// PlaceholderWebhook is the template value shipped in the example settings;
// a webhook equal to it is treated as not configured.
const PlaceholderWebhook = "https://discord.com/api/webhooks/CHANGEME"

// DiscordSender delivers messages to a Discord webhook.
type DiscordSender struct {
	// webhookURL is the full webhook endpoint.
	webhookURL string
	// mentionRoles lists role ids to mention in every message.
	mentionRoles []string
	// client performs the HTTP calls.
	client *http.Client
}

// NewDiscordSender creates a sender for the provided webhook.
// A nil client falls back to one with a 10 s timeout.
func NewDiscordSender(webhookURL string, mentionRoles []string, client *http.Client) *DiscordSender {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &DiscordSender{
		webhookURL:   strings.TrimSpace(webhookURL),
		mentionRoles: mentionRoles,
		client:       client,
	}
}

// Name identifies the channel in logs and history records.
func (d *DiscordSender) Name() string {
	return "discord"
}

// Configured reports whether a real webhook is set.
func (d *DiscordSender) Configured() bool {
	return d.webhookURL != "" && d.webhookURL != PlaceholderWebhook
}

// Send posts the message to the webhook.
func (d *DiscordSender) Send(ctx context.Context, m Message) error {
	payload, err := m.DiscordPayload(d.mentionRoles)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}

	logger.InfoKV(ctx, "Discord notification sent", "title", m.Title, "status", resp.StatusCode)

	return nil
}
