package device

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/castlink-core/internal/channel"
	"github.com/nerrad567/castlink-core/internal/store"
)

// DeviceStore is the persistence surface the manager needs. Satisfied
// by *store.Store.
type DeviceStore interface {
	AddDevice(d *store.Device) error
	UpdateDevice(d *store.Device) error
	RemoveDevice(id string) error
	Device(id string) (*store.Device, bool)
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	// Store persists ready devices; nil disables persistence.
	Store DeviceStore

	// Publisher mirrors device events onto the bus; nil disables it.
	Publisher EventPublisher

	// Observer receives device events after the manager has handled
	// them; nil installs a no-op.
	Observer Observer

	// Dispatcher serialises all device callbacks. Nil runs them inline.
	Dispatcher *Dispatcher

	// Logger is optional.
	Logger Logger
}

// Manager tracks every aggregate the system knows about. Discovery
// collaborators feed it channels via ChannelFound/ChannelLost; it
// persists devices once they connect and mirrors their events.
type Manager struct {
	storage   DeviceStore
	publisher EventPublisher
	observer  Observer
	dispatch  *Dispatcher
	logger    Logger

	mu      sync.Mutex
	devices map[string]*Aggregate

	now func() time.Time // test seam
}

// NewManager constructs a Manager.
func NewManager(opts ManagerOptions) *Manager {
	obs := opts.Observer
	if obs == nil {
		obs = NoopObserver{}
	}
	return &Manager{
		storage:   opts.Store,
		publisher: opts.Publisher,
		observer:  obs,
		dispatch:  opts.Dispatcher,
		logger:    opts.Logger,
		devices:   make(map[string]*Aggregate),
		now:       time.Now,
	}
}

// Device returns the aggregate with the given ID.
func (m *Manager) Device(id string) (*Aggregate, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[id]
	return d, ok
}

// Devices returns all tracked aggregates, sorted by ID for stable
// iteration.
func (m *Manager) Devices() []*Aggregate {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Aggregate, 0, len(m.devices))
	for _, d := range m.devices {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// ChannelFound attaches a freshly discovered channel to its device,
// creating the aggregate on first sight. An empty deviceID allocates a
// new identity. Returns the owning aggregate.
func (m *Manager) ChannelFound(deviceID string, ch channel.Channel) *Aggregate {
	if deviceID == "" {
		deviceID = uuid.NewString()
	}

	m.mu.Lock()
	d, ok := m.devices[deviceID]
	if !ok {
		d = NewAggregate(AggregateOptions{
			ID:         deviceID,
			Observer:   m,
			Dispatcher: m.dispatch,
			Logger:     m.logger,
		})
		m.devices[deviceID] = d
	}
	m.mu.Unlock()

	d.MarkDetected(m.now())
	if !d.AddChannel(ch) {
		return d
	}

	if m.logger != nil {
		m.logger.Debug("channel attached",
			"device_id", deviceID, "channel_type", string(ch.Type()))
	}

	// Keep the stored detection timestamp fresh for devices already on
	// disk, so they are not pruned while still on the network.
	if m.storage != nil {
		if stored, known := m.storage.Device(deviceID); known {
			sd := m.snapshot(d)
			if sd.LastConnected.IsZero() {
				sd.LastConnected = stored.LastConnected
			}
			if err := m.storage.UpdateDevice(sd); err != nil && m.logger != nil {
				m.logger.Warn("updating stored device",
					"device_id", deviceID, "error", err)
			}
		}
	}
	return d
}

// ChannelLost detaches a channel whose endpoint disappeared. Aggregates
// left without channels are dropped from tracking; their stored entry
// survives until the retention window expires.
func (m *Manager) ChannelLost(deviceID string, t channel.Type) {
	m.mu.Lock()
	d, ok := m.devices[deviceID]
	m.mu.Unlock()
	if !ok {
		return
	}

	if !d.RemoveChannel(t) {
		return
	}
	if m.logger != nil {
		m.logger.Debug("channel detached",
			"device_id", deviceID, "channel_type", string(t))
	}

	if len(d.Channels()) == 0 {
		m.mu.Lock()
		delete(m.devices, deviceID)
		m.mu.Unlock()
	}
}

// StoredChannels returns the persisted channel snapshots for a device,
// keyed by channel UUID. Discovery collaborators use it to rehydrate
// pairing keys before reconnecting.
func (m *Manager) StoredChannels(deviceID string) map[string]*channel.Snapshot {
	if m.storage == nil {
		return nil
	}
	d, ok := m.storage.Device(deviceID)
	if !ok {
		return nil
	}
	return d.Channels
}

// Forget disconnects a device and removes it from tracking and from
// disk.
func (m *Manager) Forget(deviceID string) error {
	m.mu.Lock()
	d, ok := m.devices[deviceID]
	delete(m.devices, deviceID)
	m.mu.Unlock()

	if ok {
		d.SetObserver(nil)
		d.Disconnect()
	}
	if m.storage != nil {
		return m.storage.RemoveDevice(deviceID)
	}
	return nil
}

// Stop disconnects every tracked device. Persistence is untouched.
func (m *Manager) Stop() {
	for _, d := range m.Devices() {
		d.Disconnect()
	}
}

// snapshot converts an aggregate to its persisted form.
func (m *Manager) snapshot(d *Aggregate) *store.Device {
	sd := &store.Device{
		ID:            d.ID(),
		FriendlyName:  d.FriendlyName(),
		ModelName:     d.ModelName(),
		LastKnownIP:   d.LastKnownIP(),
		LastSeenWifi:  d.LastSeenWifi(),
		LastConnected: d.LastConnected(),
		LastDetection: d.LastDetection(),
		Channels:      make(map[string]*channel.Snapshot),
	}
	for _, ch := range d.Channels() {
		sd.Channels[ch.ID()] = ch.Snapshot()
	}
	return sd
}

// DeviceReady implements Observer. The device is persisted the moment
// it first connects; devices that never connect never reach disk.
func (m *Manager) DeviceReady(d *Aggregate) {
	if m.storage != nil {
		if err := m.storage.AddDevice(m.snapshot(d)); err != nil && m.logger != nil {
			m.logger.Warn("persisting device", "device_id", d.ID(), "error", err)
		}
	}
	m.publish(busEvent{
		DeviceID:     d.ID(),
		Event:        EventReady,
		FriendlyName: d.FriendlyName(),
	})
	m.observer.DeviceReady(d)
}

// DeviceDisconnected implements Observer.
func (m *Manager) DeviceDisconnected(d *Aggregate, err error) {
	ev := busEvent{DeviceID: d.ID(), Event: EventDisconnected}
	if err != nil {
		ev.Error = err.Error()
	}
	m.publish(ev)
	m.observer.DeviceDisconnected(d, err)
}

// DeviceCapabilitiesChanged implements Observer. The stored snapshot is
// refreshed so reconnect-time capability checks see the current shape.
func (m *Manager) DeviceCapabilitiesChanged(d *Aggregate, added, removed []string) {
	if m.storage != nil {
		if _, known := m.storage.Device(d.ID()); known {
			if err := m.storage.UpdateDevice(m.snapshot(d)); err != nil && m.logger != nil {
				m.logger.Warn("updating stored device", "device_id", d.ID(), "error", err)
			}
		}
	}
	m.publish(busEvent{
		DeviceID: d.ID(),
		Event:    EventCapabilitiesChange,
		Added:    added,
		Removed:  removed,
	})
	m.observer.DeviceCapabilitiesChanged(d, added, removed)
}

// DevicePairingRequired implements Observer.
func (m *Manager) DevicePairingRequired(d *Aggregate, t channel.Type, pt channel.PairingType, data any) {
	m.publish(busEvent{
		DeviceID:    d.ID(),
		Event:       EventPairingRequired,
		ChannelType: string(t),
	})
	m.observer.DevicePairingRequired(d, t, pt, data)
}

// DeviceChannelConnected implements Observer.
func (m *Manager) DeviceChannelConnected(d *Aggregate, t channel.Type) {
	m.observer.DeviceChannelConnected(d, t)
}

// DeviceChannelConnectionFailed implements Observer.
func (m *Manager) DeviceChannelConnectionFailed(d *Aggregate, t channel.Type, err error) {
	m.observer.DeviceChannelConnectionFailed(d, t, err)
}

// DeviceChannelDisconnected implements Observer.
func (m *Manager) DeviceChannelDisconnected(d *Aggregate, t channel.Type, err error) {
	m.observer.DeviceChannelDisconnected(d, t, err)
}
