// Package mqtt provides MQTT client connectivity for Castlink Core.
//
// This package manages:
//   - Connection to Mosquitto broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// Castlink uses MQTT as the outward-facing message bus. Device lifecycle
// events (ready, disconnected, pairing) are published to per-device
// topics, and external automation drives devices through command topics.
// The broker (Mosquitto) decouples Castlink from its consumers.
//
//	Castlink Core ↔ MQTT Broker ↔ Home automation / dashboards
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Performance Characteristics
//
//   - Connection: <1 second to local broker
//   - Publish latency: <10ms for QoS 1 to local broker
//   - Reconnect: Exponential backoff 1s-60s with jitter
//   - Message throughput: Broker-limited (typically 10K+ msg/sec)
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Listen for device commands
//	err = client.Subscribe(mqtt.Topics{}.AllDeviceCommands(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish a device event
//	topic := mqtt.Topics{}.DeviceEvent("tv-living", "ready")
//	client.Publish(topic, []byte(`{"device_id":"tv-living"}`), 1, false)
package mqtt
