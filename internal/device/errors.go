package device

import "errors"

// Domain errors for the device package.
var (
	// ErrDeviceNotFound is returned when an operation targets a device
	// the manager is not tracking.
	ErrDeviceNotFound = errors.New("device: device not found")

	// ErrNoChannels is returned when an operation needs at least one
	// channel and the aggregate has none.
	ErrNoChannels = errors.New("device: no channels attached")
)
