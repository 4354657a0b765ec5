// Package models defines the fixed-shape records exchanged between the
// pipeline components: sensor readings, the semantic IR, alert specs,
// conversation turns, and the unified query result.
package models

import "time"

// Reading is a committed row in the sensor store. Rows are append-only and
// never updated after commit.
type Reading struct {
	ID         int64     `json:"id"`
	Timestamp  time.Time `json:"timestamp"` // always UTC, microsecond resolution
	SensorType string    `json:"sensor_type"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"` // canonical unit for SensorType
	Source     string    `json:"source"`
	Raw        string    `json:"raw,omitempty"` // pre-normalization record, JSON
}
