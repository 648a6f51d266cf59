package profile

import "errors"

var (
	// ErrInvalidMSA is returned for empty or ragged alignments.
	ErrInvalidMSA = errors.New("invalid multiple sequence alignment")

	// ErrInvalidParameter is returned for out-of-range builder parameters.
	ErrInvalidParameter = errors.New("invalid profile parameter")

	// ErrCorrupt is returned when a serialized profile cannot be decoded.
	ErrCorrupt = errors.New("corrupt profile")
)
