// Package record provides the polymorphic tagged-record codec used by the
// device store.
//
// Persistable entities encode themselves to a structural Record (a plain
// map that marshals to JSON) carrying the entity's concrete kind under the
// "class" key. Decoding is driven by a Registry: a dispatch table from
// class tag to reconstruction function, registered by each entity's
// package at init time.
//
//	┌────────────┐  Encode   ┌───────────────────────────────┐
//	│   Entity   │──────────▶│ Record{"class": tag, fields…} │
//	└────────────┘           └───────────────┬───────────────┘
//	      ▲                                  │ Decode (Registry lookup)
//	      └──────────────────────────────────┘
//
// Unknown tags produce ErrUnknownTag rather than a crash, so a store
// written by a newer build can be loaded with the unrecognised entries
// skipped instead of the whole load aborting.
//
// # Usage
//
//	func init() {
//	    record.Register("WebOSChannelConfig", decodeConfig)
//	}
//
//	rec := record.Encode(cfg)          // tag written alongside fields
//	ent, err := record.Decode(rec)     // reconstruction by tag
package record
