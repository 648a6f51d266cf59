package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingRecord is matched by MissingRecordError.
	ErrMissingRecord = errors.New("missing record")

	// ErrCapacityExceeded is matched by CapacityExceededError.
	ErrCapacityExceeded = errors.New("output capacity exceeded")

	// ErrMalformedCandidate marks a candidate line that could not be parsed.
	// It is logged and the line is skipped; it never aborts a run.
	ErrMalformedCandidate = errors.New("malformed candidate")

	// ErrInvalidConfig is returned for invalid engine parameters.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// MissingRecordError reports a key that is absent from a store. Fatal.
type MissingRecordError struct {
	Store string // "query" or "target"
	Key   string
	cause error
}

func (e *MissingRecordError) Error() string {
	return fmt.Sprintf("missing record: key %q not found in %s database", e.Key, e.Store)
}

func (e *MissingRecordError) Is(target error) bool { return target == ErrMissingRecord }

func (e *MissingRecordError) Unwrap() error { return e.cause }

// CapacityExceededError reports a serialized result blob that does not fit
// the configured output capacity. Fatal.
type CapacityExceededError struct {
	QueryKey string
	Capacity int
	Required int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("output capacity exceeded for query %q: capacity %d bytes, required %d bytes",
		e.QueryKey, e.Capacity, e.Required)
}

func (e *CapacityExceededError) Is(target error) bool { return target == ErrCapacityExceeded }
