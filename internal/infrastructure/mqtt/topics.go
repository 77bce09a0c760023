package mqtt

import "fmt"

// Topic prefixes for the Castlink MQTT hierarchy.
//
// Device topics use the scheme: castlink/device/{device_id}/{suffix}
const (
	// TopicPrefix is the base for all Castlink topics.
	TopicPrefix = "castlink"

	// TopicPrefixDevice is the base for per-device topics.
	TopicPrefixDevice = "castlink/device"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "castlink/system"
)

// Topics provides builders for Castlink MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	readyTopic := topics.DeviceEvent("tv-living", "ready")
//	// Returns: "castlink/device/tv-living/ready"
type Topics struct{}

// DeviceEvent returns the topic for a device lifecycle event.
//
// Example: castlink/device/tv-living/ready
func (Topics) DeviceEvent(deviceID, event string) string {
	return fmt.Sprintf("%s/%s/%s", TopicPrefixDevice, deviceID, event)
}

// DeviceCommand returns the topic external callers use to command a
// device.
//
// Example: castlink/device/tv-living/command
func (Topics) DeviceCommand(deviceID string) string {
	return fmt.Sprintf("%s/%s/command", TopicPrefixDevice, deviceID)
}

// DeviceState returns the retained device state topic.
//
// Example: castlink/device/tv-living/state
func (Topics) DeviceState(deviceID string) string {
	return fmt.Sprintf("%s/%s/state", TopicPrefixDevice, deviceID)
}

// SystemStatus returns the service status topic, also used for the LWT.
//
// Example: castlink/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllDeviceCommands returns a pattern matching every device command
// topic.
//
// Pattern: castlink/device/+/command
func (Topics) AllDeviceCommands() string {
	return fmt.Sprintf("%s/+/command", TopicPrefixDevice)
}

// AllDeviceEvents returns a pattern matching every per-device topic.
// Use with caution, this receives all device traffic.
//
// Pattern: castlink/device/#
func (Topics) AllDeviceEvents() string {
	return TopicPrefixDevice + "/#"
}
