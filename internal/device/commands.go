package device

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CommandSubscriber receives device command messages from the bus.
// Satisfied by the infrastructure/mqtt client via a thin adapter in
// the entry point (the handler signatures differ by a named type).
type CommandSubscriber interface {
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error
}

// Bus command actions accepted on castlink/device/<id>/command.
const (
	ActionConnect    = "connect"
	ActionDisconnect = "disconnect"
	ActionForget     = "forget"
)

// commandTopicPattern matches every per-device command topic.
const commandTopicPattern = "castlink/device/+/command"

// busCommand is the JSON payload expected on command topics.
type busCommand struct {
	Action string `json:"action"`
}

// BindCommands subscribes the manager to the per-device command topics
// so external automation can drive devices over the bus.
//
// Payloads are JSON: {"action": "connect" | "disconnect" | "forget"}.
func (m *Manager) BindCommands(sub CommandSubscriber, qos byte) error {
	return sub.Subscribe(commandTopicPattern, qos, m.handleCommand)
}

// handleCommand dispatches a single bus command. Errors are returned to
// the subscriber, which logs them; a bad command never stops the bus.
func (m *Manager) handleCommand(topic string, payload []byte) error {
	deviceID, ok := commandDeviceID(topic)
	if !ok {
		return fmt.Errorf("device: unexpected command topic %q", topic)
	}

	var cmd busCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return fmt.Errorf("device: decoding command for %q: %w", deviceID, err)
	}

	if m.logger != nil {
		m.logger.Debug("bus command received",
			"device_id", deviceID, "action", cmd.Action)
	}

	switch cmd.Action {
	case ActionConnect:
		d, ok := m.Device(deviceID)
		if !ok {
			return fmt.Errorf("%w: %q", ErrDeviceNotFound, deviceID)
		}
		d.Connect()
	case ActionDisconnect:
		d, ok := m.Device(deviceID)
		if !ok {
			return fmt.Errorf("%w: %q", ErrDeviceNotFound, deviceID)
		}
		d.Disconnect()
	case ActionForget:
		return m.Forget(deviceID)
	default:
		return fmt.Errorf("device: unknown command action %q", cmd.Action)
	}
	return nil
}

// commandDeviceID extracts the device ID from a command topic.
func commandDeviceID(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != "castlink" || parts[1] != "device" || parts[3] != "command" {
		return "", false
	}
	return parts[2], parts[2] != ""
}
