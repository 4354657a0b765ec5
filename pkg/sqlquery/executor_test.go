package sqlquery

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrosense/agrosense/pkg/database"
	"github.com/agrosense/agrosense/pkg/models"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	client, err := database.NewClient(context.Background(), database.DefaultConfig(path))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client.DB()
}

func seedReading(t *testing.T, db *sql.DB, ts time.Time, sensor string, value float64, unit string) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO sensor_data (ts, sensor_type, value, unit) VALUES (?, ?, ?, ?)`,
		database.FormatTime(ts), sensor, value, unit)
	require.NoError(t, err)
}

func TestExecuteCurrentReturnsLatestRow(t *testing.T) {
	db := newTestDB(t)
	seedReading(t, db, pinnedNow.Add(-2*time.Hour), "temperature", 21.5, "°C")
	seedReading(t, db, pinnedNow.Add(-time.Hour), "temperature", 23.0, "°C")
	seedReading(t, db, pinnedNow.Add(-time.Hour), "humidity", 55.0, "%")

	exec := NewExecutor(db, testValidator())
	q, err := NewBuilderAt(func() time.Time { return pinnedNow }).Build(models.SemanticIR{
		Entities:    []string{"temperature"},
		Aggregation: models.AggCurrent,
		TimeRanges:  []models.RangeToken{models.DefaultRange},
		Grouping:    models.GroupNone,
		Format:      models.FormatValue,
	})
	require.NoError(t, err)

	rs, err := exec.Execute(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, rs.Rows, 1)
	assert.Equal(t, "temperature", rs.Rows[0]["sensor_type"])
	assert.Equal(t, 23.0, rs.Rows[0]["value"])
	assert.Equal(t, "°C", rs.Rows[0]["unit"])
}

func TestExecuteAggregate(t *testing.T) {
	db := newTestDB(t)
	seedReading(t, db, pinnedNow.Add(-3*time.Hour), "humidity", 50, "%")
	seedReading(t, db, pinnedNow.Add(-2*time.Hour), "humidity", 60, "%")
	seedReading(t, db, pinnedNow.Add(-48*time.Hour), "humidity", 90, "%") // outside window

	exec := NewExecutor(db, testValidator())
	q, err := NewBuilderAt(func() time.Time { return pinnedNow }).Build(models.SemanticIR{
		Entities:    []string{"humidity"},
		Aggregation: models.AggAverage,
		TimeRanges:  []models.RangeToken{"last_24_hours"},
		Grouping:    models.GroupNone,
		Format:      models.FormatValue,
	})
	require.NoError(t, err)

	rs, err := exec.Execute(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, rs.Rows, 1)
	assert.Equal(t, 55.0, rs.Rows[0]["avg_value"])
	assert.Equal(t, 50.0, rs.Rows[0]["min_value"])
	assert.Equal(t, 60.0, rs.Rows[0]["max_value"])
	assert.Equal(t, int64(2), rs.Rows[0]["data_points"])
}

func TestExecuteEmptyResultIsNotAnError(t *testing.T) {
	db := newTestDB(t)

	exec := NewExecutor(db, testValidator())
	rs, err := exec.Execute(context.Background(), Query{
		SQL:  "SELECT ts, value FROM sensor_data WHERE sensor_type = ?",
		Args: []any{"temperature"},
	})
	require.NoError(t, err)
	assert.True(t, rs.Empty())
	assert.Equal(t, []string{"ts", "value"}, rs.Columns)
}

func TestExecuteRejectsBeforeTouchingStore(t *testing.T) {
	db := newTestDB(t)
	exec := NewExecutor(db, testValidator())

	_, err := exec.Execute(context.Background(), Query{SQL: "DELETE FROM sensor_data"})
	require.Error(t, err)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sensor_data`).Scan(&count))
	assert.Zero(t, count)
}

func TestExecuteCancelledContext(t *testing.T) {
	db := newTestDB(t)
	seedReading(t, db, pinnedNow, "temperature", 20, "°C")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := NewExecutor(db, testValidator())
	_, err := exec.Execute(ctx, Query{
		SQL:  "SELECT ts, value FROM sensor_data WHERE sensor_type = ?",
		Args: []any{"temperature"},
	})
	require.Error(t, err)
}
