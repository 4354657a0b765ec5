// Package agrierr defines the typed error kinds shared across the query
// pipeline. Services wrap failures with a kind; the API layer maps kinds to
// HTTP status codes and the formatter maps them to bilingual summaries.
package agrierr

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure. Kinds are stable identifiers that end
// up in validation.error_details.kind of the unified result.
type Kind string

const (
	KindBadRequest     Kind = "BadRequest"
	KindValidation     Kind = "ValidationError"
	KindMapping        Kind = "MappingError"
	KindExecution      Kind = "ExecutionError"
	KindEmptyResult    Kind = "EmptyResult"
	KindLLMUnavailable Kind = "LLMUnavailable"
	KindTimeout        Kind = "Timeout"
	KindCancelled      Kind = "Cancelled"
	KindInternal       Kind = "Internal"
)

// Error is a failure tagged with a Kind. It may wrap an underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New creates a tagged error without a cause.
func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap tags an underlying error with a kind and message. Returns nil when
// cause is nil so call sites can wrap unconditionally.
func Wrap(cause error, kind Kind, format string, args ...any) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf extracts the kind from an error chain. Unrecognized errors are
// classified as Internal; context cancellation and deadline errors get their
// dedicated kinds even when untagged.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	switch {
	case errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	}
	return KindInternal
}

// Is reports whether the error chain carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
