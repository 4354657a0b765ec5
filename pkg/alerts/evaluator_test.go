package alerts

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrosense/agrosense/pkg/database"
)

var evalNow = time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

func seedReading(t *testing.T, db *sql.DB, ts time.Time, sensor string, value float64) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO sensor_data (ts, sensor_type, value, unit) VALUES (?, ?, ?, ?)`,
		database.FormatTime(ts), sensor, value, "°C")
	require.NoError(t, err)
}

func newTestEvaluator(t *testing.T, db *sql.DB) (*Evaluator, *Service) {
	t.Helper()
	store := NewService(db)
	eval := NewEvaluator(db, store, DefaultSuppression)
	eval.SetClock(func() time.Time { return evalNow })
	return eval, store
}

func TestMonitorFiresOnLatestValue(t *testing.T) {
	db := newTestDB(t)
	eval, store := newTestEvaluator(t, db)
	ctx := context.Background()

	spec := sampleSpec("sess-1")
	require.NoError(t, store.Create(ctx, spec))
	seedReading(t, db, evalNow.Add(-time.Minute), "temperature", 36.5)

	fired, err := eval.Monitor(ctx, "")
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, spec.ID, fired[0].Alert.ID)
	assert.Equal(t, 36.5, fired[0].Value)
	assert.Contains(t, fired[0].Message, "temperature is 36.50")
	assert.Contains(t, fired[0].Message, "> 35.00")

	// The action is recorded in the history.
	logs, err := store.ListActions(ctx, "sess-1", 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "log", logs[0].ActionType)
	assert.Equal(t, "success", logs[0].Status)
}

func TestMonitorDoesNotFireBelowThreshold(t *testing.T) {
	db := newTestDB(t)
	eval, store := newTestEvaluator(t, db)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, sampleSpec("sess-1")))
	seedReading(t, db, evalNow.Add(-time.Minute), "temperature", 30)

	fired, err := eval.Monitor(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, fired)
}

func TestMonitorSkipsSensorsWithoutData(t *testing.T) {
	db := newTestDB(t)
	eval, store := newTestEvaluator(t, db)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, sampleSpec("sess-1")))

	fired, err := eval.Monitor(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, fired)
}

func TestMonitorWindowedAverage(t *testing.T) {
	db := newTestDB(t)
	eval, store := newTestEvaluator(t, db)
	ctx := context.Background()

	spec := sampleSpec("sess-1")
	spec.TimeWindowMinutes = 60
	require.NoError(t, store.Create(ctx, spec))

	// Window average is (34+38)/2 = 36; a stale 90 stays outside.
	seedReading(t, db, evalNow.Add(-10*time.Minute), "temperature", 34)
	seedReading(t, db, evalNow.Add(-20*time.Minute), "temperature", 38)
	seedReading(t, db, evalNow.Add(-3*time.Hour), "temperature", 90)

	fired, err := eval.Monitor(ctx, "")
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.InDelta(t, 36.0, fired[0].Value, 0.001)
}

func TestMonitorSuppressesRepeatedFires(t *testing.T) {
	db := newTestDB(t)
	eval, store := newTestEvaluator(t, db)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, sampleSpec("sess-1")))
	seedReading(t, db, evalNow.Add(-time.Minute), "temperature", 40)

	fired, err := eval.Monitor(ctx, "")
	require.NoError(t, err)
	require.Len(t, fired, 1)

	// Still inside the quiet window.
	eval.SetClock(func() time.Time { return evalNow.Add(time.Minute) })
	fired, err = eval.Monitor(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, fired)

	// Past the quiet window it fires again.
	eval.SetClock(func() time.Time { return evalNow.Add(DefaultSuppression + time.Minute) })
	fired, err = eval.Monitor(ctx, "")
	require.NoError(t, err)
	assert.Len(t, fired, 1)
}

func TestMonitorIgnoresDisabledRules(t *testing.T) {
	db := newTestDB(t)
	eval, store := newTestEvaluator(t, db)
	ctx := context.Background()

	spec := sampleSpec("sess-1")
	require.NoError(t, store.Create(ctx, spec))
	require.NoError(t, store.SetActive(ctx, spec.ID, "sess-1", false))
	seedReading(t, db, evalNow.Add(-time.Minute), "temperature", 40)

	fired, err := eval.Monitor(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, fired)
}

func TestMonitorScopedToSession(t *testing.T) {
	db := newTestDB(t)
	eval, store := newTestEvaluator(t, db)
	ctx := context.Background()

	mine := sampleSpec("sess-1")
	require.NoError(t, store.Create(ctx, mine))
	other := sampleSpec("sess-2")
	require.NoError(t, store.Create(ctx, other))
	seedReading(t, db, evalNow.Add(-time.Minute), "temperature", 40)

	// A session-scoped pass only evaluates that session's rules.
	fired, err := eval.Monitor(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, mine.ID, fired[0].Alert.ID)

	// The unscoped sweep covers the rest.
	fired, err = eval.Monitor(ctx, "")
	require.NoError(t, err)
	require.Len(t, fired, 1)
	assert.Equal(t, other.ID, fired[0].Alert.ID)
}

func TestMonitorUnknownActionFallsBackToLog(t *testing.T) {
	db := newTestDB(t)
	eval, store := newTestEvaluator(t, db)
	ctx := context.Background()

	spec := sampleSpec("sess-1")
	spec.Action = "carrier-pigeon"
	require.NoError(t, store.Create(ctx, spec))
	seedReading(t, db, evalNow.Add(-time.Minute), "temperature", 40)

	fired, err := eval.Monitor(ctx, "")
	require.NoError(t, err)
	require.Len(t, fired, 1)

	logs, err := store.ListActions(ctx, "sess-1", 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "log", logs[0].ActionType)
}
