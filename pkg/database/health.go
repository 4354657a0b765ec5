package database

import (
	"context"
	"database/sql"
	"time"
)

// HealthStatus reports store connectivity for the health endpoint.
type HealthStatus struct {
	Connected bool          `json:"connected"`
	Latency   time.Duration `json:"latency_ms"`
	Error     string        `json:"error,omitempty"`
}

// Health pings the store and measures round-trip latency.
func Health(ctx context.Context, db *sql.DB) (HealthStatus, error) {
	start := time.Now()
	err := db.PingContext(ctx)
	status := HealthStatus{
		Connected: err == nil,
		Latency:   time.Since(start),
	}
	if err != nil {
		status.Error = err.Error()
		return status, err
	}
	return status, nil
}
