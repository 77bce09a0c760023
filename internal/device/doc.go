// Package device merges the control channels discovered for one physical
// device into a single logical device and keeps the merged view current
// as channels come and go.
//
//	┌─────────────┐   ChannelFound/Lost   ┌───────────┐
//	│   Manager    │──────────────────────▶│ Aggregate │
//	│ (per system) │                       │ (per TV)  │
//	└──────┬──────┘                        └─────┬─────┘
//	       │ persists ready devices              │ owns
//	       ▼                                     ▼
//	  device store                        webos / dial / ... channels
//
// # Readiness
//
// An aggregate is ready when every connectable channel it held at
// Connect time has reported in. Channels that never maintain a
// connection (DIAL) are excluded from the count; a device made solely of
// such channels is ready immediately.
//
// # Capability routing
//
// Each capability family resolves to the channel that declares the
// highest priority for it and actually registers capabilities under the
// family. Resolution reruns on every channel or capability change, so
// losing the preferred channel falls back to the next best one.
//
// # Event ordering
//
// All observer callbacks are posted through a single Dispatcher
// goroutine, so events arrive in the order they occurred regardless of
// which channel goroutine produced them. A nil dispatcher runs callbacks
// inline, which tests rely on.
package device
