package seqsearch

import (
	"errors"
	"fmt"

	"github.com/hupe1980/seqsearch/dbstore"
	"github.com/hupe1980/seqsearch/engine"
	"github.com/hupe1980/seqsearch/profile"
	"github.com/hupe1980/seqsearch/submat"
)

var (
	// ErrMissingRecord is returned when a query or target key is absent.
	ErrMissingRecord = engine.ErrMissingRecord

	// ErrCapacityExceeded is returned when a query's hits overflow the
	// output capacity.
	ErrCapacityExceeded = engine.ErrCapacityExceeded

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrCorrupt is returned when a database fails validation.
	ErrCorrupt = dbstore.ErrCorrupt

	// ErrInvalidMSA is returned for unusable alignments.
	ErrInvalidMSA = profile.ErrInvalidMSA
)

// MissingRecordError reports the store and key of a missing record.
type MissingRecordError = engine.MissingRecordError

// CapacityExceededError reports the query whose hits did not fit.
type CapacityExceededError = engine.CapacityExceededError

// translateError maps lower-layer configuration errors onto the package
// sentinels, keeping the original error in the chain.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrInvalidConfig):
		return err
	case errors.Is(err, engine.ErrInvalidConfig),
		errors.Is(err, profile.ErrInvalidParameter),
		errors.Is(err, submat.ErrInvalidMatrix),
		errors.Is(err, dbstore.ErrInvalidSlot):
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return err
}
