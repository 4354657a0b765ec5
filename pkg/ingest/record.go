// Package ingest implements the ingestion pipeline: validation and
// normalization of raw sensor records, and a batched single-writer commit
// path into the sensor store.
package ingest

import (
	"errors"
	"fmt"
)

// RawRecord is an uncommitted reading as received from a producer. Value and
// Timestamp are loosely typed; normalization pins them down.
type RawRecord struct {
	Sensor    string         `json:"sensor"`
	Value     any            `json:"value"`
	Unit      string         `json:"unit,omitempty"`
	Timestamp any            `json:"timestamp,omitempty"`
	Extras    map[string]any `json:"extras,omitempty"`
}

// RejectReason is a typed validation failure kind.
type RejectReason string

const (
	ReasonValueMissing     RejectReason = "value_missing"
	ReasonValueNotNumeric  RejectReason = "value_not_numeric"
	ReasonValueNotFinite   RejectReason = "value_not_finite"
	ReasonUnknownSensor    RejectReason = "unknown_sensor"
	ReasonOutOfRange       RejectReason = "out_of_range"
	ReasonExtremeMagnitude RejectReason = "extreme_magnitude"
	ReasonExcessPrecision  RejectReason = "excess_precision"
	ReasonBadTimestamp     RejectReason = "bad_timestamp"
)

// RejectionError reports why a record was refused.
type RejectionError struct {
	Reason RejectReason
	Detail string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("record rejected (%s): %s", e.Reason, e.Detail)
}

func reject(reason RejectReason, format string, args ...any) error {
	return &RejectionError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// ReasonOf extracts the rejection reason, or "" when the error is not a
// rejection.
func ReasonOf(err error) RejectReason {
	var re *RejectionError
	if errors.As(err, &re) {
		return re.Reason
	}
	return ""
}
