package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/castlink-core/internal/channel"
	"github.com/nerrad567/castlink-core/internal/record"
)

const fakeChannelClass = "FakeChannel"

func testCodec() *record.Registry {
	codec := record.NewRegistry()
	codec.Register(fakeChannelClass, func(rec record.Record) (record.Entity, error) {
		return channel.DecodeSnapshot("fake", fakeChannelClass, rec)
	})
	return codec
}

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "devices.json")
	s, err := Open(Options{Path: path, Codec: testCodec()})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return s, path
}

func connectedDevice(id string, seen time.Time) *Device {
	return &Device{
		ID:            id,
		FriendlyName:  "TV " + id,
		LastConnected: seen,
		LastDetection: seen,
		Channels: map[string]*channel.Snapshot{
			"chan-" + id: {
				Class:       fakeChannelClass,
				Type:        "fake",
				Description: &channel.Description{UUID: "chan-" + id, FriendlyName: "TV " + id},
			},
		},
	}
}

func TestOpenMissingFile(t *testing.T) {
	s, path := testStore(t)
	if got := len(s.Devices()); got != 0 {
		t.Errorf("fresh store has %d devices, want 0", got)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Error("Open() should not create the file before the first save")
	}
}

func TestOpenMalformedFileStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devices.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := Open(Options{Path: path, Codec: testCodec()})
	if err != nil {
		t.Fatalf("Open() error = %v, want fresh store", err)
	}
	if got := len(s.Devices()); got != 0 {
		t.Errorf("store has %d devices, want 0", got)
	}
}

func TestAddDeviceRoundTrip(t *testing.T) {
	s, path := testStore(t)
	now := time.Now()

	if err := s.AddDevice(connectedDevice("dev-1", now)); err != nil {
		t.Fatalf("AddDevice() error = %v", err)
	}

	reloaded, err := Open(Options{Path: path, Codec: testCodec()})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}

	d, ok := reloaded.Device("dev-1")
	if !ok {
		t.Fatal("device missing after reload")
	}
	if d.FriendlyName != "TV dev-1" {
		t.Errorf("FriendlyName = %q, want TV dev-1", d.FriendlyName)
	}
	if d.LastConnected.Unix() != now.Unix() {
		t.Errorf("LastConnected = %v, want ~%v", d.LastConnected, now)
	}
	snap, ok := d.Channels["chan-dev-1"]
	if !ok {
		t.Fatal("channel entry missing after reload")
	}
	if snap.Class != fakeChannelClass || snap.Type != "fake" {
		t.Errorf("snapshot = %+v, want class %s", snap, fakeChannelClass)
	}
	if snap.Description == nil || snap.Description.UUID != "chan-dev-1" {
		t.Errorf("description = %+v, want UUID chan-dev-1", snap.Description)
	}
}

func TestAddDeviceSkipsNeverConnected(t *testing.T) {
	s, path := testStore(t)

	d := connectedDevice("dev-1", time.Now())
	d.LastConnected = time.Time{}
	if err := s.AddDevice(d); err != nil {
		t.Fatalf("AddDevice() error = %v", err)
	}

	if _, ok := s.Device("dev-1"); ok {
		t.Error("never-connected device was stored")
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Error("never-connected device reached disk")
	}
}

func TestAddDeviceUpsert(t *testing.T) {
	s, _ := testStore(t)
	now := time.Now()

	if err := s.AddDevice(connectedDevice("dev-1", now)); err != nil {
		t.Fatal(err)
	}
	if err := s.AddDevice(connectedDevice("dev-2", now)); err != nil {
		t.Fatal(err)
	}

	updated := connectedDevice("dev-1", now)
	updated.FriendlyName = "Renamed"
	if err := s.AddDevice(updated); err != nil {
		t.Fatal(err)
	}

	devices := s.Devices()
	if len(devices) != 2 {
		t.Fatalf("got %d devices, want 2", len(devices))
	}
	if devices[0].ID != "dev-1" || devices[1].ID != "dev-2" {
		t.Errorf("order = [%s %s], want insertion order preserved",
			devices[0].ID, devices[1].ID)
	}
	if devices[0].FriendlyName != "Renamed" {
		t.Errorf("FriendlyName = %q, want Renamed", devices[0].FriendlyName)
	}
}

func TestUpdateDeviceUnknown(t *testing.T) {
	s, _ := testStore(t)
	err := s.UpdateDevice(connectedDevice("ghost", time.Now()))
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("UpdateDevice() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestRemoveDevice(t *testing.T) {
	s, _ := testStore(t)
	now := time.Now()

	if err := s.AddDevice(connectedDevice("dev-1", now)); err != nil {
		t.Fatal(err)
	}
	if err := s.RemoveDevice("dev-1"); err != nil {
		t.Fatalf("RemoveDevice() error = %v", err)
	}
	if _, ok := s.Device("dev-1"); ok {
		t.Error("device still present after removal")
	}
	if err := s.RemoveDevice("dev-1"); err != nil {
		t.Errorf("removing absent device: error = %v, want nil", err)
	}
}

func TestPruneOnRetentionBoundary(t *testing.T) {
	s, _ := testStore(t)
	now := time.Now()
	s.now = func() time.Time { return now }

	fresh := connectedDevice("fresh", now)
	stale := connectedDevice("stale", now.Add(-DefaultMaxStoreDuration-time.Second))
	edge := connectedDevice("edge", now.Add(-DefaultMaxStoreDuration))

	for _, d := range []*Device{fresh, stale, edge} {
		if err := s.AddDevice(d); err != nil {
			t.Fatal(err)
		}
	}

	if _, ok := s.Device("stale"); ok {
		t.Error("device past the retention window survived")
	}
	if _, ok := s.Device("fresh"); !ok {
		t.Error("fresh device was pruned")
	}
	if _, ok := s.Device("edge"); !ok {
		t.Error("device exactly at the retention boundary was pruned")
	}
}

func TestSetMaxStoreDuration(t *testing.T) {
	s, _ := testStore(t)
	now := time.Now()
	s.now = func() time.Time { return now }

	if err := s.AddDevice(connectedDevice("old", now.Add(-2*time.Hour))); err != nil {
		t.Fatal(err)
	}
	if err := s.AddDevice(connectedDevice("new", now)); err != nil {
		t.Fatal(err)
	}

	if err := s.SetMaxStoreDuration(time.Hour); err != nil {
		t.Fatalf("SetMaxStoreDuration() error = %v", err)
	}

	if _, ok := s.Device("old"); ok {
		t.Error("device outside the shrunk window survived")
	}
	if _, ok := s.Device("new"); !ok {
		t.Error("recent device was pruned")
	}
	if got := s.MaxStoreDuration(); got != time.Hour {
		t.Errorf("MaxStoreDuration() = %v, want 1h", got)
	}
}

func TestLoadSkipsUnknownChannelClass(t *testing.T) {
	s, path := testStore(t)
	now := time.Now()
	if err := s.AddDevice(connectedDevice("dev-1", now)); err != nil {
		t.Fatal(err)
	}

	// Inject an entry with a class this build does not know.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var env map[string]any
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatal(err)
	}
	devices := env["devices"].([]any)
	services := devices[0].(map[string]any)["services"].(map[string]any)
	services["chan-vanished"] = map[string]any{"class": "VanishedChannel"}
	data, err = json.Marshal(env)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	reloaded, err := Open(Options{Path: path, Codec: testCodec()})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	d, ok := reloaded.Device("dev-1")
	if !ok {
		t.Fatal("device missing after reload")
	}
	if _, ok := d.Channels["chan-vanished"]; ok {
		t.Error("unknown channel class was not skipped")
	}
	if _, ok := d.Channels["chan-dev-1"]; !ok {
		t.Error("known channel entry lost alongside the unknown one")
	}
}

func TestEnvelopeCreatedPreserved(t *testing.T) {
	s, path := testStore(t)
	if err := s.AddDevice(connectedDevice("dev-1", time.Now())); err != nil {
		t.Fatal(err)
	}
	created := s.created

	time.Sleep(10 * time.Millisecond)
	if err := s.AddDevice(connectedDevice("dev-2", time.Now())); err != nil {
		t.Fatal(err)
	}

	reloaded, err := Open(Options{Path: path, Codec: testCodec()})
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.created.Unix() != created.Unix() {
		t.Errorf("created = %v after reload, want %v", reloaded.created, created)
	}
	if !reloaded.updated.After(created) {
		t.Errorf("updated = %v, want after created %v", reloaded.updated, created)
	}
}
