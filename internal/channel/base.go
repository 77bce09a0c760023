package channel

import (
	"sync"

	"github.com/google/uuid"

	"github.com/nerrad567/castlink-core/internal/capability"
	"github.com/nerrad567/castlink-core/internal/record"
)

// BaseOptions configures a Base.
type BaseOptions struct {
	// Type is the channel type tag. Required.
	Type Type

	// ID is the channel identifier. A UUID is generated when empty.
	ID string

	// Class is the registered record tag for this channel's snapshot.
	Class string

	// Description is the discovered endpoint metadata, or nil.
	Description *Description

	// Capabilities seeds the capability registry.
	Capabilities []string

	// Priorities declares the channel's priority per capability family.
	// Families absent from the map resolve to capability.PriorityNone.
	Priorities map[capability.Family]capability.PriorityLevel

	// PairingType is the channel's pairing requirement.
	PairingType PairingType

	// Connectable reports whether the channel maintains an active
	// connection.
	Connectable bool

	// Config is the channel's persistence entity, or nil.
	Config record.Entity
}

// Base supplies the bookkeeping half of the Channel contract: identity,
// capability registry, state machine, observer plumbing and snapshot
// building. Provider packages embed a *Base and implement the transport
// operations (Connect, Disconnect and optionally Pair) on top of its
// Begin/Notify helpers.
type Base struct {
	typ         Type
	id          string
	class       string
	desc        *Description
	caps        *capability.Set
	priorities  map[capability.Family]capability.PriorityLevel
	pairingType PairingType
	connectable bool
	config      record.Entity

	mu          sync.Mutex
	state       State
	observer    Observer
	pairingData any
}

// NewBase constructs a Base from opts.
func NewBase(opts BaseOptions) *Base {
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}

	priorities := make(map[capability.Family]capability.PriorityLevel, len(opts.Priorities))
	for f, lvl := range opts.Priorities {
		priorities[f] = lvl
	}

	b := &Base{
		typ:         opts.Type,
		id:          id,
		class:       opts.Class,
		desc:        opts.Description,
		caps:        capability.NewSet(opts.Capabilities...),
		priorities:  priorities,
		pairingType: opts.PairingType,
		connectable: opts.Connectable,
		config:      opts.Config,
		state:       StateDisconnected,
		observer:    NoopObserver{},
	}
	b.caps.SetObserver(b)
	return b
}

// Type implements Channel.
func (b *Base) Type() Type { return b.typ }

// ID implements Channel.
func (b *Base) ID() string { return b.id }

// Description implements Channel.
func (b *Base) Description() *Description { return b.desc }

// Config implements Channel.
func (b *Base) Config() record.Entity { return b.config }

// Capabilities implements Channel.
func (b *Base) Capabilities() *capability.Set { return b.caps }

// Priority implements Channel.
func (b *Base) Priority(f capability.Family) capability.PriorityLevel {
	return b.priorities[f]
}

// State implements Channel.
func (b *Base) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// IsConnectable implements Channel.
func (b *Base) IsConnectable() bool { return b.connectable }

// RequiresPairing implements Channel.
func (b *Base) RequiresPairing() bool { return b.pairingType.Required() }

// PairingType implements Channel.
func (b *Base) PairingType() PairingType { return b.pairingType }

// PairingData implements Channel.
func (b *Base) PairingData() any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pairingData
}

// SetPairingData records auxiliary pairing information for the owner.
func (b *Base) SetPairingData(data any) {
	b.mu.Lock()
	b.pairingData = data
	b.mu.Unlock()
}

// SetObserver implements Channel.
func (b *Base) SetObserver(o Observer) {
	b.mu.Lock()
	if o == nil {
		o = NoopObserver{}
	}
	b.observer = o
	b.mu.Unlock()
}

// Pair implements Channel with a rejection; channels that pair override
// this method.
func (b *Base) Pair(data any) {
	_ = data
	b.NotifyPairingFailed(ErrPairingNotSupported)
}

// Snapshot implements Channel.
func (b *Base) Snapshot() *Snapshot {
	return &Snapshot{
		Class:       b.class,
		Type:        b.typ,
		Config:      b.config,
		Description: b.desc,
	}
}

// BeginConnecting transitions Disconnected -> Connecting. It returns
// false when a connect or pairing is already in flight or the channel is
// connected, making Connect idempotent.
func (b *Base) BeginConnecting() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateDisconnected {
		return false
	}
	b.state = StateConnecting
	return true
}

// BeginPairing transitions Connecting -> Pairing. It returns false when
// the channel is not mid-connect.
func (b *Base) BeginPairing() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateConnecting {
		return false
	}
	b.state = StatePairing
	return true
}

// NotifyConnected marks the channel connected and reports it.
func (b *Base) NotifyConnected() {
	b.mu.Lock()
	b.state = StateConnected
	o := b.observer
	b.mu.Unlock()
	o.ChannelConnected(b.typ)
}

// NotifyConnectionFailed returns the channel to Disconnected and reports
// the failure.
func (b *Base) NotifyConnectionFailed(err error) {
	b.mu.Lock()
	b.state = StateDisconnected
	o := b.observer
	b.mu.Unlock()
	o.ChannelConnectionFailed(b.typ, err)
}

// NotifyDisconnected returns the channel to Disconnected and reports it.
// err is nil for a clean, requested disconnect.
func (b *Base) NotifyDisconnected(err error) {
	b.mu.Lock()
	b.state = StateDisconnected
	o := b.observer
	b.mu.Unlock()
	o.ChannelDisconnected(b.typ, err)
}

// NotifyPairingRequired reports an outstanding pairing requirement,
// recording data for later PairingData calls.
func (b *Base) NotifyPairingRequired(data any) {
	b.mu.Lock()
	b.pairingData = data
	o := b.observer
	b.mu.Unlock()
	o.ChannelPairingRequired(b.typ, b.pairingType, data)
}

// NotifyPairingSucceeded returns the channel to Connecting and reports
// the resolved pairing.
func (b *Base) NotifyPairingSucceeded() {
	b.mu.Lock()
	if b.state == StatePairing {
		b.state = StateConnecting
	}
	o := b.observer
	b.mu.Unlock()
	o.ChannelPairingSucceeded(b.typ)
}

// NotifyPairingFailed reports a rejected pairing attempt.
func (b *Base) NotifyPairingFailed(err error) {
	b.mu.Lock()
	o := b.observer
	b.mu.Unlock()
	o.ChannelPairingFailed(b.typ, err)
}

// CapabilitiesAdded implements capability.Observer, forwarding registry
// deltas to the channel observer.
func (b *Base) CapabilitiesAdded(tags []string) {
	b.mu.Lock()
	o := b.observer
	b.mu.Unlock()
	o.ChannelCapabilitiesChanged(b.typ, tags, nil)
}

// CapabilitiesRemoved implements capability.Observer.
func (b *Base) CapabilitiesRemoved(tags []string) {
	b.mu.Lock()
	o := b.observer
	b.mu.Unlock()
	o.ChannelCapabilitiesChanged(b.typ, nil, tags)
}
