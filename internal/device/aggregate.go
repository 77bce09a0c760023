package device

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/castlink-core/internal/capability"
	"github.com/nerrad567/castlink-core/internal/channel"
)

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Warn(msg string, args ...any)
	Debug(msg string, args ...any)
}

// Observer receives aggregate-level events. All callbacks are delivered
// through the aggregate's dispatcher.
type Observer interface {
	// DeviceReady reports that every connectable channel has connected.
	DeviceReady(d *Aggregate)

	// DeviceDisconnected reports that the device lost its last connected
	// channel. err is nil for a requested disconnect.
	DeviceDisconnected(d *Aggregate, err error)

	// DeviceCapabilitiesChanged reports a change to the device's merged
	// capability union.
	DeviceCapabilitiesChanged(d *Aggregate, added, removed []string)

	// DevicePairingRequired reports that a channel needs pairing before
	// the device can finish connecting.
	DevicePairingRequired(d *Aggregate, t channel.Type, pt channel.PairingType, data any)

	// DeviceChannelConnected reports a single channel coming up.
	DeviceChannelConnected(d *Aggregate, t channel.Type)

	// DeviceChannelConnectionFailed reports a single channel failing to
	// connect or pair.
	DeviceChannelConnectionFailed(d *Aggregate, t channel.Type, err error)

	// DeviceChannelDisconnected reports a single channel going down.
	DeviceChannelDisconnected(d *Aggregate, t channel.Type, err error)
}

// NoopObserver implements Observer with empty methods.
type NoopObserver struct{}

func (NoopObserver) DeviceReady(*Aggregate)                                                     {}
func (NoopObserver) DeviceDisconnected(*Aggregate, error)                                       {}
func (NoopObserver) DeviceCapabilitiesChanged(*Aggregate, []string, []string)                   {}
func (NoopObserver) DevicePairingRequired(*Aggregate, channel.Type, channel.PairingType, any)   {}
func (NoopObserver) DeviceChannelConnected(*Aggregate, channel.Type)                            {}
func (NoopObserver) DeviceChannelConnectionFailed(*Aggregate, channel.Type, error)              {}
func (NoopObserver) DeviceChannelDisconnected(*Aggregate, channel.Type, error)                  {}

// AggregateOptions configures an Aggregate.
type AggregateOptions struct {
	// ID is the device identifier. A UUID is generated when empty.
	ID string

	// Observer receives device events; nil installs a no-op.
	Observer Observer

	// Dispatcher serialises observer callbacks. Nil runs them inline on
	// the caller's goroutine.
	Dispatcher *Dispatcher

	// Logger is optional.
	Logger Logger
}

// Aggregate is one logical device assembled from the channels discovered
// for it. It implements channel.Observer to track its channels' state.
type Aggregate struct {
	id       string
	dispatch *Dispatcher
	logger   Logger

	mu           sync.Mutex
	observer     Observer
	friendlyName string
	modelName    string
	modelNumber  string
	lastKnownIP  string
	lastSeenWifi string

	lastConnected time.Time
	lastDetection time.Time

	channels map[channel.Type]channel.Channel
	order    []channel.Type
	resolved map[capability.Family]channel.Channel

	pending   map[channel.Type]struct{}
	connected map[channel.Type]struct{}
	ready     bool
}

// NewAggregate constructs an empty aggregate.
func NewAggregate(opts AggregateOptions) *Aggregate {
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	obs := opts.Observer
	if obs == nil {
		obs = NoopObserver{}
	}
	return &Aggregate{
		id:        id,
		dispatch:  opts.Dispatcher,
		logger:    opts.Logger,
		observer:  obs,
		channels:  make(map[channel.Type]channel.Channel),
		resolved:  make(map[capability.Family]channel.Channel),
		pending:   make(map[channel.Type]struct{}),
		connected: make(map[channel.Type]struct{}),
	}
}

// post runs fn through the dispatcher, or inline when there is none.
func (a *Aggregate) post(fn func()) {
	if a.dispatch != nil {
		a.dispatch.Post(fn)
		return
	}
	fn()
}

// ID returns the device identifier.
func (a *Aggregate) ID() string { return a.id }

// FriendlyName returns the device's display name, first channel wins.
func (a *Aggregate) FriendlyName() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.friendlyName
}

// ModelName returns the device's model name.
func (a *Aggregate) ModelName() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.modelName
}

// ModelNumber returns the device's model number.
func (a *Aggregate) ModelNumber() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.modelNumber
}

// LastKnownIP returns the device's most recently seen address.
func (a *Aggregate) LastKnownIP() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastKnownIP
}

// LastSeenWifi returns the SSID the device was last detected on.
func (a *Aggregate) LastSeenWifi() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastSeenWifi
}

// SetLastSeenWifi records the SSID the device was detected on.
func (a *Aggregate) SetLastSeenWifi(ssid string) {
	a.mu.Lock()
	a.lastSeenWifi = ssid
	a.mu.Unlock()
}

// LastConnected returns when the device last became ready.
func (a *Aggregate) LastConnected() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastConnected
}

// LastDetection returns when the device was last seen on the network.
func (a *Aggregate) LastDetection() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastDetection
}

// MarkDetected records a network sighting.
func (a *Aggregate) MarkDetected(at time.Time) {
	a.mu.Lock()
	a.lastDetection = at
	a.mu.Unlock()
}

// Ready reports whether every connectable channel is connected.
func (a *Aggregate) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ready
}

// SetObserver replaces the device observer; nil installs a no-op.
func (a *Aggregate) SetObserver(o Observer) {
	a.mu.Lock()
	if o == nil {
		o = NoopObserver{}
	}
	a.observer = o
	a.mu.Unlock()
}

// Channel returns the channel with the given type tag.
func (a *Aggregate) Channel(t channel.Type) (channel.Channel, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ch, ok := a.channels[t]
	return ch, ok
}

// Channels returns the attached channels in attachment order.
func (a *Aggregate) Channels() []channel.Channel {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]channel.Channel, 0, len(a.order))
	for _, t := range a.order {
		out = append(out, a.channels[t])
	}
	return out
}

// AddChannel attaches a channel to the device. A channel whose type tag
// is already attached is rejected; the update path is RemoveChannel
// followed by AddChannel. Returns whether the channel was attached.
//
// If the device is already connected, a newly attached connectable
// channel is connected immediately.
func (a *Aggregate) AddChannel(ch channel.Channel) bool {
	if ch == nil {
		return false
	}

	a.mu.Lock()
	t := ch.Type()
	if _, exists := a.channels[t]; exists {
		a.mu.Unlock()
		if a.logger != nil {
			a.logger.Debug("ignoring duplicate channel type",
				"device_id", a.id, "channel_type", string(t))
		}
		return false
	}

	before := a.unionLocked()
	a.channels[t] = ch
	a.order = append(a.order, t)
	a.mergeDescriptionLocked(ch.Description())
	a.resolveLocked()
	added, _ := diffUnions(before, a.unionLocked())

	connectNow := a.ready && ch.IsConnectable()
	if connectNow {
		a.pending[t] = struct{}{}
	}
	obs := a.observer
	a.mu.Unlock()

	ch.SetObserver(a)
	if connectNow {
		ch.Connect()
	}
	if len(added) > 0 {
		a.post(func() { obs.DeviceCapabilitiesChanged(a, added, nil) })
	}
	return true
}

// RemoveChannel detaches the channel with the given type tag, tearing
// its connection down. Returns whether a channel was removed.
func (a *Aggregate) RemoveChannel(t channel.Type) bool {
	a.mu.Lock()
	ch, ok := a.channels[t]
	if !ok {
		a.mu.Unlock()
		return false
	}

	before := a.unionLocked()
	delete(a.channels, t)
	for i, ot := range a.order {
		if ot == t {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
	delete(a.pending, t)
	delete(a.connected, t)
	a.resolveLocked()
	_, removed := diffUnions(before, a.unionLocked())

	lostDevice := a.ready && !a.anyConnectedLocked()
	if lostDevice {
		a.ready = false
	}
	obs := a.observer
	a.mu.Unlock()

	ch.SetObserver(nil)
	if ch.IsConnectable() {
		ch.Disconnect()
	}

	if len(removed) > 0 {
		a.post(func() { obs.DeviceCapabilitiesChanged(a, nil, removed) })
	}
	if lostDevice {
		a.post(func() { obs.DeviceDisconnected(a, nil) })
	}
	return true
}

// Connect starts connecting every connectable channel that is not
// already connected. A device with no connectable channels is ready
// immediately.
func (a *Aggregate) Connect() {
	a.mu.Lock()
	var toConnect []channel.Channel
	for _, t := range a.order {
		ch := a.channels[t]
		if !ch.IsConnectable() {
			continue
		}
		if _, up := a.connected[t]; up {
			continue
		}
		a.pending[t] = struct{}{}
		toConnect = append(toConnect, ch)
	}

	readyNow := len(a.pending) == 0 && !a.ready
	if readyNow {
		a.ready = true
		a.lastConnected = time.Now()
	}
	obs := a.observer
	a.mu.Unlock()

	for _, ch := range toConnect {
		ch.Connect()
	}
	if readyNow {
		a.post(func() { obs.DeviceReady(a) })
	}
}

// Disconnect tears down every connectable channel. A device with
// nothing connected reports the disconnect immediately.
func (a *Aggregate) Disconnect() {
	a.mu.Lock()
	var toDisconnect []channel.Channel
	for _, t := range a.order {
		ch := a.channels[t]
		if ch.IsConnectable() {
			toDisconnect = append(toDisconnect, ch)
		}
	}
	a.pending = make(map[channel.Type]struct{})

	wasReady := a.ready
	a.ready = false
	nothingUp := !a.anyConnectedLocked()
	obs := a.observer
	a.mu.Unlock()

	for _, ch := range toDisconnect {
		ch.Disconnect()
	}
	if wasReady && nothingUp {
		a.post(func() { obs.DeviceDisconnected(a, nil) })
	}
}

// mergeDescriptionLocked folds channel metadata into the device view.
// Names are first-wins so the earliest channel's labels stick; the
// address always tracks the latest sighting.
func (a *Aggregate) mergeDescriptionLocked(desc *channel.Description) {
	if desc == nil {
		return
	}
	if a.friendlyName == "" {
		a.friendlyName = desc.FriendlyName
	}
	if a.modelName == "" {
		a.modelName = desc.ModelName
	}
	if a.modelNumber == "" {
		a.modelNumber = desc.ModelNumber
	}
	if desc.Address != "" {
		a.lastKnownIP = desc.Address
	}
}

func (a *Aggregate) anyConnectedLocked() bool {
	return len(a.connected) > 0
}

// unionLocked returns the merged capability set across all channels.
func (a *Aggregate) unionLocked() map[string]struct{} {
	union := make(map[string]struct{})
	for _, ch := range a.channels {
		for _, tag := range ch.Capabilities().All() {
			union[tag] = struct{}{}
		}
	}
	return union
}

func diffUnions(before, after map[string]struct{}) (added, removed []string) {
	for tag := range after {
		if _, ok := before[tag]; !ok {
			added = append(added, tag)
		}
	}
	for tag := range before {
		if _, ok := after[tag]; !ok {
			removed = append(removed, tag)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}

// resolveLocked recomputes the family-to-channel routing table. For each
// family the winning channel is the one declaring the highest priority
// among those registering capabilities under the family; ties keep the
// earlier-attached channel.
func (a *Aggregate) resolveLocked() {
	for _, f := range capability.AllFamilies() {
		var best channel.Channel
		var bestLevel capability.PriorityLevel
		for _, t := range a.order {
			ch := a.channels[t]
			if !ch.Capabilities().Has(f.Wildcard()) {
				continue
			}
			lvl := ch.Priority(f)
			if best == nil || lvl > bestLevel {
				best = ch
				bestLevel = lvl
			}
		}
		if best == nil {
			delete(a.resolved, f)
			continue
		}
		a.resolved[f] = best
	}
}

// ChannelForFamily returns the channel currently routing a capability
// family.
func (a *Aggregate) ChannelForFamily(f capability.Family) (channel.Channel, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ch, ok := a.resolved[f]
	return ch, ok
}

// Launcher returns the channel routing app-launch capabilities.
func (a *Aggregate) Launcher() (channel.Channel, bool) {
	return a.ChannelForFamily(capability.FamilyLauncher)
}

// MediaPlayer returns the channel routing media-playback capabilities.
func (a *Aggregate) MediaPlayer() (channel.Channel, bool) {
	return a.ChannelForFamily(capability.FamilyMediaPlayer)
}

// MediaControl returns the channel routing transport-control capabilities.
func (a *Aggregate) MediaControl() (channel.Channel, bool) {
	return a.ChannelForFamily(capability.FamilyMediaControl)
}

// VolumeControl returns the channel routing volume capabilities.
func (a *Aggregate) VolumeControl() (channel.Channel, bool) {
	return a.ChannelForFamily(capability.FamilyVolumeControl)
}

// TVControl returns the channel routing tuner capabilities.
func (a *Aggregate) TVControl() (channel.Channel, bool) {
	return a.ChannelForFamily(capability.FamilyTVControl)
}

// KeyControl returns the channel routing key-input capabilities.
func (a *Aggregate) KeyControl() (channel.Channel, bool) {
	return a.ChannelForFamily(capability.FamilyKeyControl)
}

// PowerControl returns the channel routing power capabilities.
func (a *Aggregate) PowerControl() (channel.Channel, bool) {
	return a.ChannelForFamily(capability.FamilyPowerControl)
}

// ExternalInputControl returns the channel routing input-switch
// capabilities.
func (a *Aggregate) ExternalInputControl() (channel.Channel, bool) {
	return a.ChannelForFamily(capability.FamilyExternalInputControl)
}

// WebAppLauncher returns the channel routing web-app capabilities.
func (a *Aggregate) WebAppLauncher() (channel.Channel, bool) {
	return a.ChannelForFamily(capability.FamilyWebAppLauncher)
}

// Capabilities returns the merged capability union, sorted.
func (a *Aggregate) Capabilities() []string {
	a.mu.Lock()
	union := a.unionLocked()
	a.mu.Unlock()

	out := make([]string, 0, len(union))
	for tag := range union {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// HasCapability reports whether any channel satisfies the query, which
// may use the ".Any" wildcard.
func (a *Aggregate) HasCapability(query string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, ch := range a.channels {
		if ch.Capabilities().Has(query) {
			return true
		}
	}
	return false
}

// HasCapabilities reports whether every query is satisfied.
func (a *Aggregate) HasCapabilities(queries []string) bool {
	for _, q := range queries {
		if !a.HasCapability(q) {
			return false
		}
	}
	return true
}

// HasAnyCapability reports whether at least one query is satisfied.
func (a *Aggregate) HasAnyCapability(queries ...string) bool {
	for _, q := range queries {
		if a.HasCapability(q) {
			return true
		}
	}
	return false
}

// CloseSession routes a session-close request back through the channel
// that created the session, by session kind. The outcome is delivered
// through complete on the dispatcher.
func (a *Aggregate) CloseSession(s *channel.Session, complete channel.CompletionFunc) {
	fail := func(err error) {
		if complete != nil {
			a.post(func() { complete(err) })
		}
	}

	if s == nil {
		fail(channel.ErrMissingSession)
		return
	}
	ch := s.Channel
	if ch == nil {
		fail(channel.ErrMissingChannel)
		return
	}

	switch s.Kind {
	case channel.SessionKindApp:
		closer, ok := ch.(channel.AppCloser)
		if !ok || !ch.Capabilities().Has(capability.LauncherAppClose) {
			fail(fmt.Errorf("%w: %s", channel.ErrCapabilityUnsupported, capability.LauncherAppClose))
			return
		}
		closer.CloseApp(s, complete)

	case channel.SessionKindMedia:
		closer, ok := ch.(channel.MediaCloser)
		if !ok || !ch.Capabilities().Has(capability.MediaPlayerClose) {
			fail(fmt.Errorf("%w: %s", channel.ErrCapabilityUnsupported, capability.MediaPlayerClose))
			return
		}
		closer.CloseMedia(s, complete)

	case channel.SessionKindExternalInput:
		closer, ok := ch.(channel.InputPickerCloser)
		if !ok || !ch.Capabilities().Has(capability.ExternalInputPickerClose) {
			fail(fmt.Errorf("%w: %s", channel.ErrCapabilityUnsupported, capability.ExternalInputPickerClose))
			return
		}
		closer.CloseInputPicker(s, complete)

	case channel.SessionKindWebApp:
		closer, ok := ch.(channel.WebAppCloser)
		if !ok || !ch.Capabilities().Has(capability.WebAppLauncherClose) {
			fail(fmt.Errorf("%w: %s", channel.ErrCapabilityUnsupported, capability.WebAppLauncherClose))
			return
		}
		closer.CloseWebApp(s, complete)

	default:
		fail(fmt.Errorf("%w: %q", channel.ErrUnknownSessionKind, s.Kind))
	}
}

// ChannelConnected implements channel.Observer.
func (a *Aggregate) ChannelConnected(t channel.Type) {
	a.mu.Lock()
	delete(a.pending, t)
	a.connected[t] = struct{}{}

	readyNow := !a.ready && len(a.pending) == 0
	if readyNow {
		a.ready = true
		a.lastConnected = time.Now()
	}
	obs := a.observer
	a.mu.Unlock()

	a.post(func() { obs.DeviceChannelConnected(a, t) })
	if readyNow {
		a.post(func() { obs.DeviceReady(a) })
	}
}

// ChannelConnectionFailed implements channel.Observer. The channel stays
// pending so the device does not report ready without it; callers retry
// or remove the channel.
func (a *Aggregate) ChannelConnectionFailed(t channel.Type, err error) {
	a.mu.Lock()
	obs := a.observer
	a.mu.Unlock()

	if a.logger != nil {
		a.logger.Warn("channel connection failed",
			"device_id", a.id, "channel_type", string(t), "error", err)
	}
	a.post(func() { obs.DeviceChannelConnectionFailed(a, t, err) })
}

// ChannelDisconnected implements channel.Observer.
func (a *Aggregate) ChannelDisconnected(t channel.Type, err error) {
	a.mu.Lock()
	delete(a.pending, t)
	delete(a.connected, t)

	lostDevice := a.ready && !a.anyConnectedLocked()
	if lostDevice {
		a.ready = false
	}
	obs := a.observer
	a.mu.Unlock()

	a.post(func() { obs.DeviceChannelDisconnected(a, t, err) })
	if lostDevice {
		a.post(func() { obs.DeviceDisconnected(a, err) })
	}
}

// ChannelPairingRequired implements channel.Observer.
func (a *Aggregate) ChannelPairingRequired(t channel.Type, pt channel.PairingType, data any) {
	a.mu.Lock()
	obs := a.observer
	a.mu.Unlock()
	a.post(func() { obs.DevicePairingRequired(a, t, pt, data) })
}

// ChannelPairingSucceeded implements channel.Observer. The channel keeps
// connecting and reports ChannelConnected on its own; nothing to do.
func (a *Aggregate) ChannelPairingSucceeded(channel.Type) {}

// ChannelPairingFailed implements channel.Observer. A rejected pairing
// means the channel cannot come up, so it surfaces as a channel
// connection failure.
func (a *Aggregate) ChannelPairingFailed(t channel.Type, err error) {
	if err == nil {
		err = errors.New("pairing rejected")
	}
	a.ChannelConnectionFailed(t, err)
}

// ChannelCapabilitiesChanged implements channel.Observer. The channel
// delta is reduced to the effective union delta: a tag another channel
// still provides produces no device-level event.
func (a *Aggregate) ChannelCapabilitiesChanged(_ channel.Type, added, removed []string) {
	a.mu.Lock()
	var effAdded, effRemoved []string
	for _, tag := range added {
		if a.providerCountLocked(tag) == 1 {
			effAdded = append(effAdded, tag)
		}
	}
	for _, tag := range removed {
		if a.providerCountLocked(tag) == 0 {
			effRemoved = append(effRemoved, tag)
		}
	}
	a.resolveLocked()
	obs := a.observer
	a.mu.Unlock()

	if len(effAdded) > 0 || len(effRemoved) > 0 {
		a.post(func() { obs.DeviceCapabilitiesChanged(a, effAdded, effRemoved) })
	}
}

func (a *Aggregate) providerCountLocked(tag string) int {
	n := 0
	for _, ch := range a.channels {
		if ch.Capabilities().Has(tag) {
			n++
		}
	}
	return n
}
