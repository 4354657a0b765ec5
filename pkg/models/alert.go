package models

import (
	"fmt"
	"math"
	"time"
)

// Operator is the comparison applied between a reading and a threshold.
type Operator string

const (
	OpGreater      Operator = ">"
	OpLess         Operator = "<"
	OpEqual        Operator = "="
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
)

// Valid reports whether the operator is one of the allowed values.
func (o Operator) Valid() bool {
	switch o {
	case OpGreater, OpLess, OpEqual, OpGreaterEqual, OpLessEqual:
		return true
	}
	return false
}

// Apply evaluates `value <op> threshold`. Equality uses a small epsilon to
// survive float round-tripping through the store.
func (o Operator) Apply(value, threshold float64) bool {
	switch o {
	case OpGreater:
		return value > threshold
	case OpLess:
		return value < threshold
	case OpGreaterEqual:
		return value >= threshold
	case OpLessEqual:
		return value <= threshold
	case OpEqual:
		return math.Abs(value-threshold) < 1e-9
	}
	return false
}

// Severity classifies an alert rule.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Valid reports whether the severity is one of the allowed values.
func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return true
	}
	return false
}

// AlertSpec is a persisted alert rule. Only the Active flag is mutated after
// creation.
type AlertSpec struct {
	ID                string    `json:"id"`
	SessionID         string    `json:"session_id"`
	Name              string    `json:"name"`
	SensorType        string    `json:"sensor_type"`
	Operator          Operator  `json:"operator"`
	Threshold         float64   `json:"threshold"`
	Severity          Severity  `json:"severity"`
	TimeWindowMinutes int       `json:"time_window_minutes"` // 0 = evaluate latest point
	Action            string    `json:"action,omitempty"`    // email|sms|notification|auto|log
	Active            bool      `json:"active"`
	CreatedAt         time.Time `json:"created_at"`
}

// Validate enforces the alert-spec invariants.
func (a *AlertSpec) Validate() error {
	if a.SensorType == "" {
		return fmt.Errorf("alert: sensor_type is empty")
	}
	if !a.Operator.Valid() {
		return fmt.Errorf("alert: invalid operator %q", a.Operator)
	}
	if math.IsNaN(a.Threshold) || math.IsInf(a.Threshold, 0) {
		return fmt.Errorf("alert: threshold is not finite")
	}
	if !a.Severity.Valid() {
		return fmt.Errorf("alert: invalid severity %q", a.Severity)
	}
	if a.TimeWindowMinutes < 0 {
		return fmt.Errorf("alert: negative time window")
	}
	return nil
}

// TriggeredAlert is emitted when an active rule matches a live reading.
type TriggeredAlert struct {
	Alert       AlertSpec `json:"alert"`
	Value       float64   `json:"value"`
	Observed    time.Time `json:"observed"`
	TriggeredAt time.Time `json:"triggered_at"`
	Message     string    `json:"message"`
}

// ActionLog records one alert action dispatch.
type ActionLog struct {
	ID          int64     `json:"id"`
	AlertID     string    `json:"alert_id"`
	SessionID   string    `json:"session_id"`
	ActionType  string    `json:"action_type"`
	Status      string    `json:"status"` // success | failed
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	CompletedAt time.Time `json:"completed_at"`
}
