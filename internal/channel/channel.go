package channel

import (
	"github.com/nerrad567/castlink-core/internal/capability"
	"github.com/nerrad567/castlink-core/internal/record"
)

// Type identifies a channel implementation ("webos", "dial", ...).
// A device aggregate holds at most one channel per type.
type Type string

// State is a channel's position in the connection lifecycle.
type State string

// Connection states.
const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StatePairing      State = "pairing"
	StateConnected    State = "connected"
)

// PairingType describes the out-of-band trust step a channel requires
// before normal use. PairingNone means no pairing is ever needed.
type PairingType string

// Pairing types.
const (
	PairingNone    PairingType = "none"
	PairingPINCode PairingType = "pin_code"
	PairingPrompt  PairingType = "prompt"
	PairingMixed   PairingType = "mixed"
)

// Required reports whether this pairing type implies a pairing step.
func (p PairingType) Required() bool {
	return p != "" && p != PairingNone
}

// Channel is the provider contract implemented by each protocol-specific
// control endpoint. Provider packages usually embed Base, which supplies
// everything except the transport operations.
type Channel interface {
	// Type returns the channel's type tag.
	Type() Type

	// ID returns the channel's unique identifier, assigned at discovery.
	ID() string

	// Description returns the discovered metadata for this endpoint.
	Description() *Description

	// Config returns the channel's persistence data (pairing keys etc.)
	// as a codec entity, or nil if the channel persists nothing.
	Config() record.Entity

	// Snapshot returns the channel's persisted form for the device store.
	Snapshot() *Snapshot

	// Capabilities returns the channel's mutable capability registry.
	Capabilities() *capability.Set

	// Priority returns the channel's declared priority for a capability
	// family, or capability.PriorityNone if it never serves that family.
	Priority(f capability.Family) capability.PriorityLevel

	// State returns the current lifecycle state.
	State() State

	// IsConnectable reports whether the channel maintains an active
	// connection. Stateless channels never meaningfully leave
	// StateDisconnected and are excluded from aggregate readiness.
	IsConnectable() bool

	// RequiresPairing reports whether the channel's pairing type implies
	// a pairing step.
	RequiresPairing() bool

	// PairingType returns the channel's pairing type.
	PairingType() PairingType

	// PairingData returns auxiliary pairing information (key length,
	// prompt text, ...), or nil.
	PairingData() any

	// SetObserver injects the owner's observer. Passing nil detaches the
	// channel; subsequent events are dropped.
	SetObserver(o Observer)

	// Connect starts connecting. Asynchronous and idempotent: the
	// outcome is reported through the Observer.
	Connect()

	// Disconnect tears the connection down. Asynchronous and idempotent;
	// callable at any time, including mid-connect, in which case the
	// disconnect outcome supersedes the in-flight connect.
	Disconnect()

	// Pair submits pairing data (PIN code, key, ...). Only meaningful
	// when RequiresPairing is true; the outcome is reported through the
	// Observer.
	Pair(data any)
}

// Observer receives lifecycle and capability events from a channel.
// Channels identify themselves by type tag; they never hold a reference
// to their owner.
//
// All methods have no-op defaults via NoopObserver; implementations
// embed it and override what they need.
type Observer interface {
	// ChannelConnected reports a successful connect (and, for channels
	// that pair, a resolved pairing).
	ChannelConnected(t Type)

	// ChannelConnectionFailed reports a failed connect attempt. Pairing
	// requirements are reported through ChannelPairingRequired instead.
	ChannelConnectionFailed(t Type, err error)

	// ChannelDisconnected reports a completed disconnect. err is nil for
	// a clean, requested disconnect.
	ChannelDisconnected(t Type, err error)

	// ChannelPairingRequired reports that connecting revealed an
	// outstanding pairing requirement.
	ChannelPairingRequired(t Type, pt PairingType, data any)

	// ChannelPairingSucceeded reports a successful pairing. The channel
	// continues connecting and will report ChannelConnected separately.
	ChannelPairingSucceeded(t Type)

	// ChannelPairingFailed reports a rejected pairing attempt.
	ChannelPairingFailed(t Type, err error)

	// ChannelCapabilitiesChanged reports a capability delta on the
	// channel's registry.
	ChannelCapabilitiesChanged(t Type, added, removed []string)
}

// NoopObserver implements Observer with empty methods.
type NoopObserver struct{}

func (NoopObserver) ChannelConnected(Type)                            {}
func (NoopObserver) ChannelConnectionFailed(Type, error)              {}
func (NoopObserver) ChannelDisconnected(Type, error)                  {}
func (NoopObserver) ChannelPairingRequired(Type, PairingType, any)    {}
func (NoopObserver) ChannelPairingSucceeded(Type)                     {}
func (NoopObserver) ChannelPairingFailed(Type, error)                 {}
func (NoopObserver) ChannelCapabilitiesChanged(Type, []string, []string) {}
