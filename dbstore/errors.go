package dbstore

import "errors"

var (
	// ErrNotFound is returned when a key or id is not in the database.
	ErrNotFound = errors.New("record not found")

	// ErrCorrupt is returned when the index, manifest or a record is invalid.
	ErrCorrupt = errors.New("corrupt database")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("database closed")

	// ErrInvalidSlot is returned for a writer slot outside [0, slots).
	ErrInvalidSlot = errors.New("invalid writer slot")

	// ErrInvalidKey is returned for keys that cannot be stored in the index.
	ErrInvalidKey = errors.New("invalid record key")
)
