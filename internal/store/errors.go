package store

import "errors"

// Domain errors for the store package.
var (
	// ErrDeviceNotFound is returned when an update targets a device that
	// was never stored or has been pruned.
	ErrDeviceNotFound = errors.New("store: device not found")
)
