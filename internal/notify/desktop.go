package notify

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/vlambert/plantalert/internal/logger"
)

// PlaceholderSSHHost is the template value shipped in the example settings;
// a host equal to it is treated as not configured.
const PlaceholderSSHHost = "val@192.168.1.100"

// sshTimeout bounds a remote notify-send invocation.
const sshTimeout = 20 * time.Second

// ErrNotifySendMissing indicates notify-send is not installed locally.
var ErrNotifySendMissing = errors.New("notify-send not found on this system")

// DesktopSender delivers messages as desktop notifications via notify-send,
// either on this machine or on a remote host over SSH.
type DesktopSender struct {
	// sshHost is the user@host target. "local" or "localhost" delivers on
	// this machine.
	sshHost string
}

// NewDesktopSender creates a sender for the provided SSH target.
func NewDesktopSender(sshHost string) *DesktopSender {
	return &DesktopSender{sshHost: strings.TrimSpace(sshHost)}
}

// Name identifies the channel in logs and history records.
func (s *DesktopSender) Name() string {
	return "notify"
}

// Configured reports whether a real delivery target is set.
func (s *DesktopSender) Configured() bool {
	return s.sshHost != "" && s.sshHost != PlaceholderSSHHost
}

// Send shows the message as a desktop notification.
func (s *DesktopSender) Send(ctx context.Context, m Message) error {
	if s.sshHost == "local" || s.sshHost == "localhost" {
		return s.sendLocal(ctx, m)
	}

	return s.sendSSH(ctx, m)
}

// sendLocal runs notify-send on this machine.
func (s *DesktopSender) sendLocal(ctx context.Context, m Message) error {
	if _, err := exec.LookPath("notify-send"); err != nil {
		return ErrNotifySendMissing
	}

	args := m.NotifySendArgs()
	if err := exec.CommandContext(ctx, args[0], args[1:]...).Run(); err != nil {
		return fmt.Errorf("notify-send: %w", err)
	}

	logger.InfoKV(ctx, "Desktop notification sent", "title", m.Title)

	return nil
}

// sendSSH runs notify-send on the remote host over SSH.
func (s *DesktopSender) sendSSH(ctx context.Context, m Message) error {
	ctx, cancel := context.WithTimeout(ctx, sshTimeout)
	defer cancel()

	args := append([]string{s.sshHost}, m.NotifySendArgs()...)
	if err := exec.CommandContext(ctx, "ssh", args...).Run(); err != nil {
		return fmt.Errorf("ssh notify-send on %s: %w", s.sshHost, err)
	}

	logger.InfoKV(ctx, "Desktop notification sent over SSH", "host", s.sshHost, "title", m.Title)

	return nil
}
