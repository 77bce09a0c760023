// Package channel defines the contract between Castlink Core and the
// protocol-specific control channels discovered on a device.
//
// A physical device (TV, streaming box) typically exposes several
// independent control endpoints: an app-launch channel, a media-control
// channel, a volume channel. Each is implemented by a provider package
// (see internal/bridges) that satisfies the Channel interface; the device
// aggregator in internal/device merges them into one logical device.
//
// # Lifecycle
//
//	Disconnected ──▶ Connecting ──▶ Connected
//	                     │  ▲
//	                     ▼  │
//	                   Pairing
//
// Connect, Disconnect and Pair are asynchronous: outcomes are reported
// through the Observer, never returned synchronously. A connect failure
// caused by an outstanding pairing requirement is reported through
// ChannelPairingRequired so the owner can prompt for pairing instead of
// treating it as terminal.
//
// Channels never hold a strong reference to their owner. They report
// events through the injected Observer, identified by their type tag.
//
// # Persistence
//
// Each channel contributes a class-tagged Snapshot (config + description
// sub-records) to the device store, reconstructed through the
// internal/record codec. Provider packages register their class tags at
// init time.
package channel
