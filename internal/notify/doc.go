// Package notify formats and delivers alert notifications.
//
// It defines the channel-independent Message type, renders messages for each
// reconciliation action (French user-facing texts, as deployed), and ships
// them over two transports: a Discord webhook and notify-send, either locally
// or on a remote desktop over SSH.
package notify
