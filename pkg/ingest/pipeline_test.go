package ingest

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrosense/agrosense/pkg/database"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	client, err := database.NewClient(context.Background(), database.DefaultConfig(path))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client.DB()
}

func TestPipelineCommitsOnStop(t *testing.T) {
	db := newTestDB(t)
	registry := normRegistry(t)

	p := NewPipeline(registry, db, Options{BatchSize: 50, FlushInterval: time.Hour})
	p.Start(context.Background())

	records := []RawRecord{
		{Sensor: "temperature", Value: 21.5, Unit: "°C"},
		{Sensor: "humidity", Value: 60.0},
		{Sensor: "temperature", Value: 71.6, Unit: "°F"},
	}
	for _, r := range records {
		_, err := p.Ingest(context.Background(), r)
		require.NoError(t, err)
	}

	// Stop drains the queue and commits the partial batch.
	p.Stop()
	require.NoError(t, p.Err())

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sensor_data`).Scan(&count))
	assert.Equal(t, 3, count)

	var value float64
	var unit string
	require.NoError(t, db.QueryRow(
		`SELECT value, unit FROM sensor_data WHERE sensor_type = 'temperature' AND unit = '°C' ORDER BY value DESC LIMIT 1`,
	).Scan(&value, &unit))
	assert.InDelta(t, 22.0, value, 0.01) // 71.6°F converted on the way in
}

func TestPipelineFlushesOnBatchSize(t *testing.T) {
	db := newTestDB(t)
	registry := normRegistry(t)

	p := NewPipeline(registry, db, Options{BatchSize: 2, FlushInterval: time.Hour})
	p.Start(context.Background())
	defer p.Stop()

	for i := 0; i < 4; i++ {
		_, err := p.Ingest(context.Background(), RawRecord{Sensor: "humidity", Value: 50.0 + float64(i)})
		require.NoError(t, err)
	}

	// Two full batches should land without waiting for the ticker.
	require.Eventually(t, func() bool {
		var count int
		if err := db.QueryRow(`SELECT COUNT(*) FROM sensor_data`).Scan(&count); err != nil {
			return false
		}
		return count == 4
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPipelineRejectsWithoutEnqueueing(t *testing.T) {
	db := newTestDB(t)
	registry := normRegistry(t)

	p := NewPipeline(registry, db, Options{})
	p.Start(context.Background())

	_, err := p.Ingest(context.Background(), RawRecord{Sensor: "humidity", Value: 250.0})
	require.Error(t, err)
	assert.Equal(t, ReasonOutOfRange, ReasonOf(err))

	p.Stop()
	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sensor_data`).Scan(&count))
	assert.Zero(t, count)
}

func TestPipelineStopIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	p := NewPipeline(normRegistry(t), db, Options{})
	p.Start(context.Background())
	p.Stop()
	p.Stop()
}
