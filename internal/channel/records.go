package channel

import (
	"errors"
	"fmt"

	"github.com/nerrad567/castlink-core/internal/record"
)

// DescriptionClass is the record tag for channel descriptions.
const DescriptionClass = "ChannelDescription"

func init() {
	record.Register(DescriptionClass, decodeDescription)
}

// Description holds the discovered metadata for one channel endpoint.
// Fields are best effort; discovery collaborators fill what they know.
type Description struct {
	UUID         string
	FriendlyName string
	Manufacturer string
	ModelName    string
	ModelNumber  string
	Address      string // last known IP
	Port         int
	Version      string
}

// RecordTag implements record.Entity.
func (d *Description) RecordTag() string { return DescriptionClass }

// EncodeRecord implements record.Entity.
func (d *Description) EncodeRecord() record.Record {
	return record.Record{
		"UUID":         d.UUID,
		"friendlyName": d.FriendlyName,
		"manufacturer": d.Manufacturer,
		"modelName":    d.ModelName,
		"modelNumber":  d.ModelNumber,
		"address":      d.Address,
		"port":         d.Port,
		"version":      d.Version,
	}
}

func decodeDescription(rec record.Record) (record.Entity, error) {
	return &Description{
		UUID:         record.String(rec, "UUID"),
		FriendlyName: record.String(rec, "friendlyName"),
		Manufacturer: record.String(rec, "manufacturer"),
		ModelName:    record.String(rec, "modelName"),
		ModelNumber:  record.String(rec, "modelNumber"),
		Address:      record.String(rec, "address"),
		Port:         record.Int(rec, "port"),
		Version:      record.String(rec, "version"),
	}, nil
}

// Config is the persistence data common to all channel types. Provider
// packages embed it in their own config entity and add protocol fields
// (client keys, certificates, ...).
type Config struct {
	UUID          string
	WasConnected  bool
	LastDetection float64 // epoch seconds
}

// EncodeFields writes the common config fields into rec.
func (c *Config) EncodeFields(rec record.Record) {
	rec["UUID"] = c.UUID
	rec["wasConnected"] = c.WasConnected
	rec["lastDetection"] = c.LastDetection
}

// DecodeFields reads the common config fields from rec.
func (c *Config) DecodeFields(rec record.Record) {
	c.UUID = record.String(rec, "UUID")
	c.WasConnected = record.Bool(rec, "wasConnected")
	c.LastDetection = record.Float64(rec, "lastDetection")
}

// Snapshot is the persisted form of one channel: its class tag plus
// config and description sub-records, each encoded through the codec.
// Provider packages register a decode function for their class tag that
// delegates to DecodeSnapshot.
type Snapshot struct {
	// Class is the channel's registered class tag, e.g. "WebOSChannel".
	Class string

	// Type is the channel type tag the class corresponds to.
	Type Type

	// Config is the channel's decoded config entity, or nil.
	Config record.Entity

	// Description is the channel's decoded description, or nil.
	Description *Description
}

// RecordTag implements record.Entity.
func (s *Snapshot) RecordTag() string { return s.Class }

// EncodeRecord implements record.Entity.
func (s *Snapshot) EncodeRecord() record.Record {
	rec := record.Record{}
	if s.Config != nil {
		rec["config"] = record.Encode(s.Config)
	}
	if s.Description != nil {
		rec["description"] = record.Encode(s.Description)
	}
	return rec
}

// DecodeSnapshot reconstructs a Snapshot from a tagged channel record,
// decoding the config and description sub-records through the package
// codec. Provider packages wrap it in their registered decode function:
//
//	record.Register(ClassName, func(rec record.Record) (record.Entity, error) {
//	    return channel.DecodeSnapshot(ChannelType, ClassName, rec)
//	})
func DecodeSnapshot(typ Type, class string, rec record.Record) (*Snapshot, error) {
	snap := &Snapshot{Class: class, Type: typ}

	if sub, ok := record.Sub(rec, "config"); ok {
		cfg, err := record.Decode(sub)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		snap.Config = cfg
	}

	if sub, ok := record.Sub(rec, "description"); ok {
		ent, err := record.Decode(sub)
		if err != nil {
			return nil, fmt.Errorf("description: %w", err)
		}
		desc, ok := ent.(*Description)
		if !ok {
			return nil, errors.New("description record is not a ChannelDescription")
		}
		snap.Description = desc
	}

	return snap, nil
}
