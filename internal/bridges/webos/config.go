package webos

import (
	"github.com/nerrad567/castlink-core/internal/channel"
	"github.com/nerrad567/castlink-core/internal/record"
)

// Record class tags for persisted webOS channel data.
const (
	ClassName       = "WebOSChannel"
	ConfigClassName = "WebOSChannelConfig"
)

func init() {
	record.Register(ClassName, func(rec record.Record) (record.Entity, error) {
		return channel.DecodeSnapshot(ChannelType, ClassName, rec)
	})
	record.Register(ConfigClassName, decodeConfig)
}

// Config is the persisted webOS channel state. The client key is the
// pairing credential handed out by the TV; losing it forces a new
// on-screen prompt.
type Config struct {
	channel.Config
	ClientKey string
}

// RecordTag implements record.Entity.
func (c *Config) RecordTag() string { return ConfigClassName }

// EncodeRecord implements record.Entity.
func (c *Config) EncodeRecord() record.Record {
	rec := record.Record{"clientKey": c.ClientKey}
	c.EncodeFields(rec)
	return rec
}

func decodeConfig(rec record.Record) (record.Entity, error) {
	c := &Config{ClientKey: record.String(rec, "clientKey")}
	c.DecodeFields(rec)
	return c, nil
}
