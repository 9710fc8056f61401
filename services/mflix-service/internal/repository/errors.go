package repository

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/mflix-api/shared/metrics"
)

var (
	// ErrDuplicateKey is returned when a write would break a uniqueness invariant.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidArgument is returned for missing or malformed input.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrStore wraps a document store failure on a read path.
	ErrStore = errors.New("document store failure")
)

// IsCallerFault reports whether err was caused by the caller's input rather than the store.
func IsCallerFault(err error) bool {
	return errors.Is(err, ErrDuplicateKey) || errors.Is(err, ErrInvalidArgument)
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}

// writeFailed logs and counts a write failure that is reported to the caller as false.
func writeFailed(logger *zerolog.Logger, collection, op string, err error) *zerolog.Event {
	metrics.StoreFault(collection, op)

	return logger.Error().Err(err).Str("collection", collection).Str("operation", op)
}
