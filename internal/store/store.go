package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nerrad567/castlink-core/internal/channel"
	"github.com/nerrad567/castlink-core/internal/record"
)

// Version is the on-disk format version written by this build.
const Version = 1

// DefaultMaxStoreDuration is the retention window for devices that have
// not been detected on the network.
const DefaultMaxStoreDuration = 3 * 24 * time.Hour

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Warn(msg string, args ...any)
	Debug(msg string, args ...any)
}

// Device is the persisted view of one aggregated device.
type Device struct {
	ID            string
	FriendlyName  string
	ModelName     string
	LastKnownIP   string
	LastSeenWifi  string
	LastConnected time.Time
	LastDetection time.Time

	// Channels maps channel UUID to its persisted snapshot.
	Channels map[string]*channel.Snapshot
}

func (d *Device) clone() *Device {
	cp := *d
	cp.Channels = make(map[string]*channel.Snapshot, len(d.Channels))
	for id, snap := range d.Channels {
		cp.Channels[id] = snap
	}
	return &cp
}

// Options configures a Store.
type Options struct {
	// Path is the JSON file location. Required.
	Path string

	// MaxAge is the retention window; zero selects
	// DefaultMaxStoreDuration.
	MaxAge time.Duration

	// Codec reconstructs channel entries; nil selects the package-level
	// record registry.
	Codec *record.Registry

	// Logger is optional.
	Logger Logger
}

// Store is a file-backed device registry. Every mutation is written
// through to disk immediately.
type Store struct {
	mu     sync.Mutex
	path   string
	maxAge time.Duration
	codec  *record.Registry
	logger Logger

	created time.Time
	updated time.Time
	devices []*Device
	byID    map[string]*Device

	now func() time.Time // test seam
}

// Open loads the store at opts.Path, creating a fresh one when the file
// is missing. A file that cannot be parsed is discarded with a warning
// rather than failing startup; the next save overwrites it.
func Open(opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, errors.New("store: path is required")
	}

	maxAge := opts.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxStoreDuration
	}
	codec := opts.Codec
	if codec == nil {
		codec = record.Default()
	}

	s := &Store{
		path:   opts.Path,
		maxAge: maxAge,
		codec:  codec,
		logger: opts.Logger,
		byID:   make(map[string]*Device),
		now:    time.Now,
	}

	data, err := os.ReadFile(opts.Path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.created = s.now()
		s.updated = s.created
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("store: reading %s: %w", opts.Path, err)
	}

	if err := s.load(data); err != nil {
		if s.logger != nil {
			s.logger.Warn("device store unreadable, starting fresh",
				"path", opts.Path, "error", err)
		}
		s.created = s.now()
		s.updated = s.created
		s.devices = nil
		s.byID = make(map[string]*Device)
		return s, nil
	}

	s.pruneLocked(s.now())
	return s, nil
}

// MaxStoreDuration returns the current retention window.
func (s *Store) MaxStoreDuration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxAge
}

// SetMaxStoreDuration changes the retention window and applies it
// immediately, pruning and saving.
func (s *Store) SetMaxStoreDuration(d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d <= 0 {
		d = DefaultMaxStoreDuration
	}
	s.maxAge = d
	s.pruneLocked(s.now())
	return s.saveLocked()
}

// AddDevice upserts a device. Devices that have never connected are not
// persisted: discovery alone must leave no trace on disk.
func (s *Store) AddDevice(d *Device) error {
	if d == nil || d.ID == "" {
		return errors.New("store: device with ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, known := s.byID[d.ID]; !known && d.LastConnected.IsZero() {
		if s.logger != nil {
			s.logger.Debug("skipping never-connected device", "device_id", d.ID)
		}
		return nil
	}

	cp := d.clone()
	if existing, ok := s.byID[d.ID]; ok {
		*existing = *cp
		s.byID[d.ID] = existing
	} else {
		s.devices = append(s.devices, cp)
		s.byID[d.ID] = cp
	}

	s.pruneLocked(s.now())
	return s.saveLocked()
}

// UpdateDevice rewrites a stored device. Returns ErrDeviceNotFound when
// the device was never stored or has been pruned.
func (s *Store) UpdateDevice(d *Device) error {
	if d == nil || d.ID == "" {
		return errors.New("store: device with ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byID[d.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrDeviceNotFound, d.ID)
	}
	*existing = *d.clone()

	s.pruneLocked(s.now())
	return s.saveLocked()
}

// RemoveDevice deletes a device. Removing an unknown ID is a no-op.
func (s *Store) RemoveDevice(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return nil
	}
	s.removeLocked(id)
	return s.saveLocked()
}

// RemoveAll deletes every stored device.
func (s *Store) RemoveAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.devices = nil
	s.byID = make(map[string]*Device)
	return s.saveLocked()
}

// Device returns a copy of the stored device with the given ID.
func (s *Store) Device(id string) (*Device, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return d.clone(), true
}

// Devices returns copies of all stored devices in insertion order.
func (s *Store) Devices() []*Device {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Device, 0, len(s.devices))
	for _, d := range s.devices {
		out = append(out, d.clone())
	}
	return out
}

func (s *Store) removeLocked(id string) {
	delete(s.byID, id)
	for i, d := range s.devices {
		if d.ID == id {
			s.devices = append(s.devices[:i], s.devices[i+1:]...)
			break
		}
	}
}

// pruneLocked drops devices unseen for longer than the retention window.
func (s *Store) pruneLocked(now time.Time) {
	kept := s.devices[:0]
	for _, d := range s.devices {
		if now.Sub(d.LastDetection) > s.maxAge {
			delete(s.byID, d.ID)
			if s.logger != nil {
				s.logger.Debug("pruning stale device",
					"device_id", d.ID, "last_detection", d.LastDetection)
			}
			continue
		}
		kept = append(kept, d)
	}
	s.devices = kept
}

// envelope is the top-level on-disk structure.
type envelope struct {
	Version int           `json:"version"`
	Created float64       `json:"created"`
	Updated float64       `json:"updated"`
	Devices []deviceEntry `json:"devices"`
}

type deviceEntry struct {
	ID            string                   `json:"id"`
	FriendlyName  string                   `json:"friendlyName,omitempty"`
	ModelName     string                   `json:"modelName,omitempty"`
	LastKnownIP   string                   `json:"lastKnownIPAddress,omitempty"`
	LastSeenWifi  string                   `json:"lastSeenOnWifi,omitempty"`
	LastConnected float64                  `json:"lastConnected,omitempty"`
	LastDetection float64                  `json:"lastDetection,omitempty"`
	Services      map[string]record.Record `json:"services,omitempty"`
}

func epochSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixNano()) / float64(time.Second)
}

func timeFromEpoch(f float64) time.Time {
	if f == 0 {
		return time.Time{}
	}
	return time.Unix(0, int64(f*float64(time.Second)))
}

func (s *Store) load(data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	s.created = timeFromEpoch(env.Created)
	if s.created.IsZero() {
		s.created = s.now()
	}
	s.updated = timeFromEpoch(env.Updated)

	for _, entry := range env.Devices {
		if entry.ID == "" {
			continue
		}
		d := &Device{
			ID:            entry.ID,
			FriendlyName:  entry.FriendlyName,
			ModelName:     entry.ModelName,
			LastKnownIP:   entry.LastKnownIP,
			LastSeenWifi:  entry.LastSeenWifi,
			LastConnected: timeFromEpoch(entry.LastConnected),
			LastDetection: timeFromEpoch(entry.LastDetection),
			Channels:      make(map[string]*channel.Snapshot, len(entry.Services)),
		}
		for chID, rec := range entry.Services {
			ent, err := s.codec.Decode(rec)
			if err != nil {
				// Unknown or malformed channel classes are dropped, not
				// fatal: a build without a provider still loads the rest.
				if s.logger != nil {
					s.logger.Warn("skipping unreadable channel entry",
						"device_id", entry.ID, "channel_id", chID, "error", err)
				}
				continue
			}
			snap, ok := ent.(*channel.Snapshot)
			if !ok {
				if s.logger != nil {
					s.logger.Warn("channel entry decoded to unexpected type",
						"device_id", entry.ID, "channel_id", chID)
				}
				continue
			}
			d.Channels[chID] = snap
		}
		s.devices = append(s.devices, d)
		s.byID[d.ID] = d
	}
	return nil
}

// saveLocked writes the store atomically: marshal, write to a temp file
// in the same directory, rename over the target.
func (s *Store) saveLocked() error {
	s.updated = s.now()

	env := envelope{
		Version: Version,
		Created: epochSeconds(s.created),
		Updated: epochSeconds(s.updated),
		Devices: make([]deviceEntry, 0, len(s.devices)),
	}
	for _, d := range s.devices {
		entry := deviceEntry{
			ID:            d.ID,
			FriendlyName:  d.FriendlyName,
			ModelName:     d.ModelName,
			LastKnownIP:   d.LastKnownIP,
			LastSeenWifi:  d.LastSeenWifi,
			LastConnected: epochSeconds(d.LastConnected),
			LastDetection: epochSeconds(d.LastDetection),
		}
		if len(d.Channels) > 0 {
			entry.Services = make(map[string]record.Record, len(d.Channels))
			for chID, snap := range d.Channels {
				entry.Services[chID] = record.Encode(snap)
			}
		}
		env.Devices = append(env.Devices, entry)
	}

	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encoding: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("store: creating %s: %w", dir, err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("store: writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("store: replacing %s: %w", s.path, err)
	}
	return nil
}
