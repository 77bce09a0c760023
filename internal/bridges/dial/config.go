package dial

import (
	"github.com/nerrad567/castlink-core/internal/channel"
	"github.com/nerrad567/castlink-core/internal/record"
)

// Record class tags for persisted DIAL channel data.
const (
	ClassName       = "DIALChannel"
	ConfigClassName = "DIALChannelConfig"
)

func init() {
	record.Register(ClassName, func(rec record.Record) (record.Entity, error) {
		return channel.DecodeSnapshot(ChannelType, ClassName, rec)
	})
	record.Register(ConfigClassName, decodeConfig)
}

// Config is the persisted DIAL channel state. DIAL has no credentials;
// the application URL is kept so known devices can be controlled before
// rediscovery completes.
type Config struct {
	channel.Config
	ApplicationURL string
}

// RecordTag implements record.Entity.
func (c *Config) RecordTag() string { return ConfigClassName }

// EncodeRecord implements record.Entity.
func (c *Config) EncodeRecord() record.Record {
	rec := record.Record{"applicationURL": c.ApplicationURL}
	c.EncodeFields(rec)
	return rec
}

func decodeConfig(rec record.Record) (record.Entity, error) {
	c := &Config{ApplicationURL: record.String(rec, "applicationURL")}
	c.DecodeFields(rec)
	return c, nil
}
