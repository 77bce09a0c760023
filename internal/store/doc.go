// Package store persists discovered devices to a JSON file so pairing
// keys and metadata survive restarts.
//
// # File format
//
//	{
//	  "version": 1,
//	  "created": 1700000000.0,
//	  "updated": 1700000100.5,
//	  "devices": [
//	    {
//	      "id": "...",
//	      "friendlyName": "Living Room TV",
//	      "lastConnected": 1700000050.0,
//	      "lastDetection": 1700000100.5,
//	      "services": {
//	        "<channel-uuid>": { "class": "WebOSChannel", "config": {...}, "description": {...} }
//	      }
//	    }
//	  ]
//	}
//
// Timestamps are epoch seconds as JSON numbers. Channel entries are
// class-tagged records reconstructed through the internal/record codec;
// entries with an unrecognised class tag are skipped rather than failing
// the whole load, so downgraded builds keep working.
//
// # Retention
//
// Only devices that have actually connected at least once are written;
// merely-discovered devices never reach disk. Devices unseen for longer
// than the retention window (default three days) are pruned on load and
// on every save.
//
// All methods are safe for concurrent use.
package store
