package alerts

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// openTestStore creates a fresh store in a temp directory with the schema applied.
func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "alerts.db"), 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.InitSchema(context.Background()))

	return store
}

// TestSaveAndActiveAlerts round-trips an alert through insert and the
// active-alert query, including the reference-time cutoff and start ordering.
func TestSaveAndActiveAlerts(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, time.November, 15, 22, 0, 0, 0, time.UTC)

	// Two alerts, inserted out of start order.
	laterID, err := store.SaveAlert(ctx, 3.0, base.Add(30*time.Hour), base.Add(38*time.Hour), 1.5, base.Add(33*time.Hour))
	require.NoError(t, err)

	earlierID, err := store.SaveAlert(ctx, 3.0, base, base.Add(8*time.Hour), -1.0, base.Add(5*time.Hour))
	require.NoError(t, err)

	alerts, err := store.ActiveAlerts(ctx, base)
	require.NoError(t, err)
	require.Len(t, alerts, 2)

	// Ordered by start ascending, not by id.
	require.Equal(t, earlierID, alerts[0].ID)
	require.Equal(t, laterID, alerts[1].ID)
	require.True(t, alerts[0].Start.Equal(base))
	require.InDelta(t, -1.0, alerts[0].MinTemp, 1e-9)
	require.Nil(t, alerts[0].LastNotifiedAt)
	require.False(t, alerts[0].CreatedAt.IsZero())

	// A reference past the first alert's end filters it out.
	alerts, err = store.ActiveAlerts(ctx, base.Add(9*time.Hour))
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	require.Equal(t, laterID, alerts[0].ID)
}

// TestUpdateAlert verifies only span and minimum fields change.
func TestUpdateAlert(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, time.November, 15, 22, 0, 0, 0, time.UTC)

	id, err := store.SaveAlert(ctx, 3.0, base, base.Add(8*time.Hour), -1.0, base.Add(5*time.Hour))
	require.NoError(t, err)

	err = store.UpdateAlert(ctx, id, base, base.Add(12*time.Hour), -2.0, base.Add(6*time.Hour))
	require.NoError(t, err)

	alerts, err := store.ActiveAlerts(ctx, base)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	require.True(t, alerts[0].End.Equal(base.Add(12*time.Hour)))
	require.InDelta(t, -2.0, alerts[0].MinTemp, 1e-9)
	require.InDelta(t, 3.0, alerts[0].Threshold, 1e-9)
}

// TestDeleteAlert checks deletion removes the row and tolerates absent ids.
func TestDeleteAlert(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, time.November, 15, 22, 0, 0, 0, time.UTC)

	id, err := store.SaveAlert(ctx, 0.0, base, base.Add(2*time.Hour), -1.0, base.Add(time.Hour))
	require.NoError(t, err)

	require.NoError(t, store.DeleteAlert(ctx, id))

	alerts, err := store.ActiveAlerts(ctx, base)
	require.NoError(t, err)
	require.Empty(t, alerts)

	// Deleting again is a no-op.
	require.NoError(t, store.DeleteAlert(ctx, id))
}

// TestNotificationHistory verifies the delivery log round-trip and the
// last-notified refresh.
func TestNotificationHistory(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, time.November, 15, 22, 0, 0, 0, time.UTC)

	id, err := store.SaveAlert(ctx, 3.0, base, base.Add(8*time.Hour), -1.0, base.Add(5*time.Hour))
	require.NoError(t, err)

	require.NoError(t, store.RecordNotification(ctx, id, "période froide prévue", []string{"discord", "notify"}))
	require.NoError(t, store.UpdateLastNotified(ctx, id))

	records, err := store.NotificationHistory(ctx, id)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, id, records[0].AlertID)
	require.Equal(t, "période froide prévue", records[0].Message)
	require.Equal(t, []string{"discord", "notify"}, records[0].Channels)

	alerts, err := store.ActiveAlerts(ctx, base)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	require.NotNil(t, alerts[0].LastNotifiedAt)
}

// TestRecordNotificationWithoutAlert checks DELETE-style entries that carry
// no alert reference.
func TestRecordNotificationWithoutAlert(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordNotification(ctx, 0, "fin de période froide", []string{"discord"}))
}

// TestForecastCacheUpsert verifies the single-row forecast cache.
func TestForecastCacheUpsert(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	entry, err := store.ForecastCache(ctx)
	require.NoError(t, err)
	require.Nil(t, entry)

	require.NoError(t, store.SaveForecastCache(ctx, []byte(`{"hourly":1}`)))
	require.NoError(t, store.SaveForecastCache(ctx, []byte(`{"hourly":2}`)))

	entry, err = store.ForecastCache(ctx)
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.JSONEq(t, `{"hourly":2}`, string(entry.Payload))
	require.False(t, entry.FetchedAt.IsZero())
}
