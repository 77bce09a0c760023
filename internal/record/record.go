package record

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// TagKey is the record field carrying the entity's concrete kind name.
const TagKey = "class"

// Record is the tagged structural form of a persisted entity. It marshals
// directly to JSON.
type Record map[string]any

// Entity is a value that can be persisted through the codec. The tag must
// be stable across releases; it is the key future builds use to
// reconstruct the entity.
type Entity interface {
	// RecordTag returns the entity's stable kind name, e.g. "WebOSChannelConfig".
	RecordTag() string

	// EncodeRecord returns the entity's own fields. The class tag is
	// added by Encode; implementations must not write it themselves.
	EncodeRecord() Record
}

// DecodeFunc reconstructs an entity from its structural form.
// The record still contains the class tag under TagKey.
type DecodeFunc func(Record) (Entity, error)

// Encode converts an entity to its tagged structural form.
func Encode(e Entity) Record {
	rec := e.EncodeRecord()
	if rec == nil {
		rec = Record{}
	}
	rec[TagKey] = e.RecordTag()
	return rec
}

// Registry is a dispatch table from class tag to reconstruction function.
//
// All methods are safe for concurrent use, though registration normally
// happens once at init time.
type Registry struct {
	mu       sync.RWMutex
	decoders map[string]DecodeFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{decoders: make(map[string]DecodeFunc)}
}

// Register adds a reconstruction function for a class tag.
// It panics on an empty tag, a nil function, or a duplicate registration —
// all programmer errors surfaced at init time.
func (r *Registry) Register(tag string, fn DecodeFunc) {
	if tag == "" {
		panic("record: Register called with empty tag")
	}
	if fn == nil {
		panic("record: Register called with nil decode function")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.decoders[tag]; exists {
		panic(fmt.Sprintf("record: duplicate registration for tag %q", tag))
	}
	r.decoders[tag] = fn
}

// Known reports whether a reconstruction function is registered for tag.
func (r *Registry) Known(tag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.decoders[tag]
	return ok
}

// Tags returns all registered class tags in sorted order.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tags := make([]string, 0, len(r.decoders))
	for tag := range r.decoders {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Decode reconstructs an entity from its tagged structural form.
//
// Returns ErrMissingTag if the record has no class tag, ErrUnknownTag if
// no function is registered for it, and a wrapped ErrDecode if the
// reconstruction function rejects the record.
func (r *Registry) Decode(rec Record) (Entity, error) {
	tag := String(rec, TagKey)
	if tag == "" {
		return nil, ErrMissingTag
	}

	r.mu.RLock()
	fn, ok := r.decoders[tag]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTag, tag)
	}

	ent, err := fn(rec)
	if err != nil {
		return nil, fmt.Errorf("%w: tag %q: %w", ErrDecode, tag, err)
	}
	return ent, nil
}

// defaultRegistry backs the package-level Register/Decode helpers.
// Entity packages register here from init, the way database/sql drivers do.
var defaultRegistry = NewRegistry()

// Default returns the package-level registry.
func Default() *Registry {
	return defaultRegistry
}

// Register adds a reconstruction function to the package-level registry.
func Register(tag string, fn DecodeFunc) {
	defaultRegistry.Register(tag, fn)
}

// Decode reconstructs an entity using the package-level registry.
func Decode(rec Record) (Entity, error) {
	return defaultRegistry.Decode(rec)
}

// String returns the string value under key, or "" if the key is missing
// or holds a different type. Lenient by design: unknown or malformed
// optional fields are ignored for forward compatibility.
func String(rec Record, key string) string {
	if v, ok := rec[key].(string); ok {
		return v
	}
	return ""
}

// Bool returns the boolean value under key, or false if missing.
func Bool(rec Record, key string) bool {
	if v, ok := rec[key].(bool); ok {
		return v
	}
	return false
}

// Float64 returns the numeric value under key, or 0 if missing.
// JSON numbers arrive as float64; int and json.Number are accepted for
// records built in code rather than parsed from disk.
func Float64(rec Record, key string) float64 {
	switch v := rec[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Int returns the numeric value under key truncated to int, or 0 if missing.
func Int(rec Record, key string) int {
	return int(Float64(rec, key))
}

// Sub returns the nested record under key. Handles both Record values
// built in code and the map[string]any produced by encoding/json.
func Sub(rec Record, key string) (Record, bool) {
	switch v := rec[key].(type) {
	case Record:
		return v, true
	case map[string]any:
		return Record(v), true
	default:
		return nil, false
	}
}
