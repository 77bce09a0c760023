// Package capability provides the capability model for Castlink Core.
//
// Every control channel on a device advertises a set of capability tags
// (strings such as "MediaControl.Play") describing the discrete functions
// it offers. The Set type owns one channel's tags and answers queries,
// including the ".Any" wildcard form used throughout the public API:
//
//	caps.Has("Launcher.App.Any") // true if any tag contains "Launcher.App"
//
// Tags group into families (Launcher, MediaControl, VolumeControl, ...).
// A family is the unit of capability resolution: the device aggregator
// picks exactly one channel per family, preferring the channel that
// declared the highest PriorityLevel for it.
//
// # Key Types
//
//   - Set: mutable, observable set of capability tags for one channel
//   - Observer: receives added/removed deltas from a Set
//   - Family: named accessor grouping (one resolved channel at a time)
//   - PriorityLevel: channel-declared preference used during resolution
//
// # Thread Safety
//
// Set is safe for concurrent use. Delta notifications are emitted outside
// the internal lock, so observers may query the Set re-entrantly.
package capability
