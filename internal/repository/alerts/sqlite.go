package alerts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vlambert/plantalert/internal/domain/coldsnap"
	"github.com/vlambert/plantalert/internal/logger"
)

// Repository defines the persistence operations the alerting service needs.
type Repository interface {
	// ActiveAlerts returns alerts whose end is not strictly before the
	// reference time, ordered by start ascending.
	ActiveAlerts(ctx context.Context, reference time.Time) ([]coldsnap.StoredAlert, error)
	// SaveAlert inserts a new alert and returns its assigned identifier.
	SaveAlert(ctx context.Context, threshold float64, start, end time.Time, minTemp float64, minTempAt time.Time) (int64, error)
	// UpdateAlert mutates span and minimum fields of an existing alert.
	// Threshold and identifier are immutable.
	UpdateAlert(ctx context.Context, id int64, start, end time.Time, minTemp float64, minTempAt time.Time) error
	// DeleteAlert removes an alert by identifier; absent ids are a no-op.
	DeleteAlert(ctx context.Context, id int64) error
	// RecordNotification appends a notification-history entry.
	// A zero alertID records an entry not tied to a stored alert.
	RecordNotification(ctx context.Context, alertID int64, message string, channels []string) error
	// UpdateLastNotified refreshes the alert's last-notified timestamp.
	UpdateLastNotified(ctx context.Context, id int64) error
}

// NotificationRecord is one row of the notification delivery log.
type NotificationRecord struct {
	// ID is the row identifier.
	ID int64
	// AlertID is the related alert, zero when the entry is unattached.
	AlertID int64
	// Message is the notification text that was sent.
	Message string
	// Channels lists the delivery channels used.
	Channels []string
	// SentAt is when the notification was recorded.
	SentAt time.Time
}

// ForecastCacheEntry holds the most recently fetched raw forecast payload.
type ForecastCacheEntry struct {
	// Payload is the raw forecast body as fetched from the provider.
	Payload []byte
	// FetchedAt is when the payload was stored.
	FetchedAt time.Time
}

// SQLiteStore is the sqlite-backed Repository implementation.
type SQLiteStore struct {
	// db is the underlying sqlite handle.
	db *sql.DB
	// timeout bounds each individual store operation.
	timeout time.Duration
	// now is the clock, overridable in tests.
	now func() time.Time
}

// storeDirPermissions is the mode for the created database directory.
const storeDirPermissions = 0o755

var _ Repository = (*SQLiteStore)(nil)

// Open creates (if needed) and opens the sqlite database at path.
func Open(path string, timeout time.Duration) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, storeDirPermissions); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	return &SQLiteStore{
		db:      db,
		timeout: timeout,
		now:     time.Now,
	}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// InitSchema creates the tables and indexes used by the store.
func (s *SQLiteStore) InitSchema(ctx context.Context) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS current_alerts (
			id INTEGER PRIMARY KEY,
			threshold REAL NOT NULL,
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			min_temp REAL NOT NULL,
			min_temp_date TEXT NOT NULL,
			created_at TEXT NOT NULL,
			last_notified_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS notification_history (
			id INTEGER PRIMARY KEY,
			alert_id INTEGER,
			message TEXT NOT NULL,
			channels TEXT NOT NULL,
			sent_at TEXT NOT NULL,
			FOREIGN KEY (alert_id) REFERENCES current_alerts (id)
		)`,
		`CREATE TABLE IF NOT EXISTS forecast_cache (
			id INTEGER PRIMARY KEY,
			forecast_data TEXT NOT NULL,
			fetched_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_current_alerts_threshold
			ON current_alerts(threshold, start_date)`,
		`CREATE INDEX IF NOT EXISTS idx_notification_history_alert
			ON notification_history(alert_id, sent_at DESC)`,
	}

	for _, statement := range statements {
		if _, err := s.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

// ActiveAlerts returns alerts still relevant at the reference time,
// ordered by start ascending.
func (s *SQLiteStore) ActiveAlerts(ctx context.Context, reference time.Time) ([]coldsnap.StoredAlert, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	const query = `SELECT id, threshold, start_date, end_date, min_temp, min_temp_date,
		created_at, last_notified_at
		FROM current_alerts WHERE end_date >= ? ORDER BY start_date ASC`

	rows, err := s.db.QueryContext(ctx, query, formatTime(reference))
	if err != nil {
		return nil, fmt.Errorf("query active alerts: %w", err)
	}
	defer rows.Close()

	var alerts []coldsnap.StoredAlert
	for rows.Next() {
		var (
			alert                                    coldsnap.StoredAlert
			startRaw, endRaw, minAtRaw, createdAtRaw string
			lastNotifiedRaw                          sql.NullString
		)

		err = rows.Scan(
			&alert.ID, &alert.Threshold, &startRaw, &endRaw,
			&alert.MinTemp, &minAtRaw, &createdAtRaw, &lastNotifiedRaw,
		)
		if err != nil {
			return nil, fmt.Errorf("scan alert row: %w", err)
		}

		if alert.Start, err = parseTime(startRaw); err != nil {
			return nil, err
		}

		if alert.End, err = parseTime(endRaw); err != nil {
			return nil, err
		}

		if alert.MinTempAt, err = parseTime(minAtRaw); err != nil {
			return nil, err
		}

		if alert.CreatedAt, err = parseTime(createdAtRaw); err != nil {
			return nil, err
		}

		if lastNotifiedRaw.Valid {
			lastNotified, parseErr := parseTime(lastNotifiedRaw.String)
			if parseErr != nil {
				return nil, parseErr
			}

			alert.LastNotifiedAt = &lastNotified
		}

		alerts = append(alerts, alert)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alert rows: %w", err)
	}

	return alerts, nil
}

// SaveAlert inserts a new alert and returns its identifier.
func (s *SQLiteStore) SaveAlert(
	ctx context.Context,
	threshold float64,
	start, end time.Time,
	minTemp float64,
	minTempAt time.Time,
) (int64, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	const query = `INSERT INTO current_alerts
		(threshold, start_date, end_date, min_temp, min_temp_date, created_at, last_notified_at)
		VALUES (?, ?, ?, ?, ?, ?, NULL)`

	result, err := s.db.ExecContext(ctx, query,
		threshold, formatTime(start), formatTime(end),
		minTemp, formatTime(minTempAt), formatTime(s.now()),
	)
	if err != nil {
		return 0, fmt.Errorf("insert alert: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("alert id: %w", err)
	}

	logger.InfoKV(ctx, "Cold period saved", "alert_id", id, "threshold", threshold)

	return id, nil
}

// UpdateAlert mutates the span and minimum fields of an existing alert.
func (s *SQLiteStore) UpdateAlert(
	ctx context.Context,
	id int64,
	start, end time.Time,
	minTemp float64,
	minTempAt time.Time,
) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	const query = `UPDATE current_alerts
		SET start_date = ?, end_date = ?, min_temp = ?, min_temp_date = ?
		WHERE id = ?`

	if _, err := s.db.ExecContext(ctx, query,
		formatTime(start), formatTime(end), minTemp, formatTime(minTempAt), id,
	); err != nil {
		return fmt.Errorf("update alert: %w", err)
	}

	return nil
}

// DeleteAlert removes the alert by identifier. Absent ids are a no-op.
func (s *SQLiteStore) DeleteAlert(ctx context.Context, id int64) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM current_alerts WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete alert: %w", err)
	}

	return nil
}

// RecordNotification appends a row to the notification delivery log.
func (s *SQLiteStore) RecordNotification(ctx context.Context, alertID int64, message string, channels []string) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	var alertRef any
	if alertID != 0 {
		alertRef = alertID
	}

	const query = `INSERT INTO notification_history (alert_id, message, channels, sent_at)
		VALUES (?, ?, ?, ?)`

	if _, err := s.db.ExecContext(ctx, query,
		alertRef, message, strings.Join(channels, ","), formatTime(s.now()),
	); err != nil {
		return fmt.Errorf("record notification: %w", err)
	}

	return nil
}

// UpdateLastNotified refreshes the alert's last-notified timestamp.
func (s *SQLiteStore) UpdateLastNotified(ctx context.Context, id int64) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	const query = "UPDATE current_alerts SET last_notified_at = ? WHERE id = ?"

	if _, err := s.db.ExecContext(ctx, query, formatTime(s.now()), id); err != nil {
		return fmt.Errorf("update last notified: %w", err)
	}

	return nil
}

// NotificationHistory returns the delivery log for one alert,
// newest entries first.
func (s *SQLiteStore) NotificationHistory(ctx context.Context, alertID int64) ([]NotificationRecord, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	const query = `SELECT id, alert_id, message, channels, sent_at
		FROM notification_history WHERE alert_id = ? ORDER BY sent_at DESC`

	rows, err := s.db.QueryContext(ctx, query, alertID)
	if err != nil {
		return nil, fmt.Errorf("query notification history: %w", err)
	}
	defer rows.Close()

	var records []NotificationRecord
	for rows.Next() {
		var (
			record      NotificationRecord
			alertRef    sql.NullInt64
			channelsRaw string
			sentAtRaw   string
		)

		if err = rows.Scan(&record.ID, &alertRef, &record.Message, &channelsRaw, &sentAtRaw); err != nil {
			return nil, fmt.Errorf("scan notification row: %w", err)
		}

		record.AlertID = alertRef.Int64

		if channelsRaw != "" {
			record.Channels = strings.Split(channelsRaw, ",")
		}

		if record.SentAt, err = parseTime(sentAtRaw); err != nil {
			return nil, err
		}

		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notification rows: %w", err)
	}

	return records, nil
}

// SaveForecastCache upserts the single cached raw forecast payload.
func (s *SQLiteStore) SaveForecastCache(ctx context.Context, payload []byte) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	const query = `INSERT INTO forecast_cache (id, forecast_data, fetched_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			forecast_data = excluded.forecast_data,
			fetched_at = excluded.fetched_at`

	if _, err := s.db.ExecContext(ctx, query, string(payload), formatTime(s.now())); err != nil {
		return fmt.Errorf("save forecast cache: %w", err)
	}

	return nil
}

// ForecastCache returns the cached forecast payload, or nil when none exists.
func (s *SQLiteStore) ForecastCache(ctx context.Context) (*ForecastCacheEntry, error) {
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	const query = `SELECT forecast_data, fetched_at FROM forecast_cache
		ORDER BY fetched_at DESC LIMIT 1`

	var (
		payload      string
		fetchedAtRaw string
	)

	err := s.db.QueryRowContext(ctx, query).Scan(&payload, &fetchedAtRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("query forecast cache: %w", err)
	}

	fetchedAt, err := parseTime(fetchedAtRaw)
	if err != nil {
		return nil, err
	}

	return &ForecastCacheEntry{
		Payload:   []byte(payload),
		FetchedAt: fetchedAt,
	}, nil
}

// opContext bounds a single store operation with the configured timeout.
func (s *SQLiteStore) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, s.timeout)
}

// formatTime renders a timestamp the way rows store it.
func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

// parseTime reads a timestamp back from its stored representation.
func parseTime(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", raw, err)
	}

	return t, nil
}
