package channel

import "errors"

// Domain errors for the channel package.
var (
	// ErrConnectionFailed is returned when a transport-level connect or
	// reconnect attempt fails.
	ErrConnectionFailed = errors.New("channel: connection failed")

	// ErrNotConnected is returned when an operation requires an active
	// connection but the channel is disconnected.
	ErrNotConnected = errors.New("channel: not connected")

	// ErrPairingRequired marks a connect failure caused by an outstanding
	// pairing requirement. Observers should react by invoking Pair, not
	// by treating the channel as failed.
	ErrPairingRequired = errors.New("channel: pairing required")

	// ErrPairingFailed is returned when a pairing attempt is rejected.
	ErrPairingFailed = errors.New("channel: pairing failed")

	// ErrPairingNotSupported is returned when Pair is called on a channel
	// whose pairing type is "none".
	ErrPairingNotSupported = errors.New("channel: pairing not supported")

	// ErrMissingSession is returned when a close request carries no
	// session reference.
	ErrMissingSession = errors.New("channel: session reference missing")

	// ErrMissingChannel is returned when a session carries no owning
	// channel reference.
	ErrMissingChannel = errors.New("channel: channel reference missing")

	// ErrUnknownSessionKind is returned when a session's kind is not one
	// of the dispatchable kinds.
	ErrUnknownSessionKind = errors.New("channel: unknown session kind")

	// ErrCapabilityUnsupported is returned when a request has no matching
	// capability on the target channel.
	ErrCapabilityUnsupported = errors.New("channel: capability not supported")
)
