package service

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable wraps infrastructure failures from the store so
	// handlers can distinguish them from domain outcomes.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// storeErr tags an unexpected store failure while preserving the cause.
func storeErr(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
