package device

import (
	"encoding/json"
	"time"
)

// EventPublisher mirrors device events onto a message bus. Satisfied by
// the infrastructure/mqtt client; nil publishers are tolerated
// everywhere so the bus stays optional.
type EventPublisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// Bus event names.
const (
	EventReady              = "ready"
	EventDisconnected       = "disconnected"
	EventPairingRequired    = "pairing_required"
	EventCapabilitiesChange = "capabilities_changed"
)

// deviceTopic builds "castlink/device/<id>/<event>".
func deviceTopic(deviceID, event string) string {
	return "castlink/device/" + deviceID + "/" + event
}

// busEvent is the JSON payload published for device events.
type busEvent struct {
	DeviceID     string    `json:"device_id"`
	Event        string    `json:"event"`
	FriendlyName string    `json:"friendly_name,omitempty"`
	ChannelType  string    `json:"channel_type,omitempty"`
	Added        []string  `json:"added,omitempty"`
	Removed      []string  `json:"removed,omitempty"`
	Error        string    `json:"error,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// publish mirrors an event onto the bus, best effort. Publish failures
// are logged and swallowed; the bus is an observer, not a dependency.
func (m *Manager) publish(ev busEvent) {
	if m.publisher == nil || !m.publisher.IsConnected() {
		return
	}
	ev.Timestamp = time.Now().UTC()

	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := m.publisher.Publish(deviceTopic(ev.DeviceID, ev.Event), payload, 0, false); err != nil {
		if m.logger != nil {
			m.logger.Warn("publishing device event",
				"device_id", ev.DeviceID, "event", ev.Event, "error", err)
		}
	}
}
