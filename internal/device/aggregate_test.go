package device

import (
	"errors"
	"reflect"
	"testing"

	"github.com/nerrad567/castlink-core/internal/capability"
	"github.com/nerrad567/castlink-core/internal/channel"
)

// fakeChannel is a scriptable channel built on channel.Base. With auto
// set it connects synchronously; otherwise the test drives the outcome
// through the Notify helpers.
type fakeChannel struct {
	*channel.Base

	auto        bool
	connects    int
	disconnects int

	closedApps    []*channel.Session
	closedMedia   []*channel.Session
	closedWebApps []*channel.Session
}

type fakeChannelOptions struct {
	typ          channel.Type
	connectable  bool
	auto         bool
	capabilities []string
	priorities   map[capability.Family]capability.PriorityLevel
	description  *channel.Description
}

func newFakeChannel(opts fakeChannelOptions) *fakeChannel {
	return &fakeChannel{
		Base: channel.NewBase(channel.BaseOptions{
			Type:         opts.typ,
			Class:        "FakeChannel",
			Connectable:  opts.connectable,
			Capabilities: opts.capabilities,
			Priorities:   opts.priorities,
			Description:  opts.description,
		}),
		auto: opts.auto,
	}
}

func (f *fakeChannel) Connect() {
	if !f.BeginConnecting() {
		return
	}
	f.connects++
	if f.auto {
		f.NotifyConnected()
	}
}

func (f *fakeChannel) Disconnect() {
	f.disconnects++
	f.NotifyDisconnected(nil)
}

func (f *fakeChannel) CloseApp(s *channel.Session, complete channel.CompletionFunc) {
	f.closedApps = append(f.closedApps, s)
	complete(nil)
}

func (f *fakeChannel) CloseMedia(s *channel.Session, complete channel.CompletionFunc) {
	f.closedMedia = append(f.closedMedia, s)
	complete(nil)
}

func (f *fakeChannel) CloseWebApp(s *channel.Session, complete channel.CompletionFunc) {
	f.closedWebApps = append(f.closedWebApps, s)
	complete(nil)
}

// deviceRecorder records aggregate events; callbacks run inline because
// tests use a nil dispatcher.
type deviceRecorder struct {
	NoopObserver

	ready       int
	disconnects []error
	added       []string
	removed     []string
	pairingReqs []channel.Type
	chanUps     []channel.Type
	chanFails   []error
	chanDowns   []channel.Type
}

func (r *deviceRecorder) DeviceReady(*Aggregate) { r.ready++ }

func (r *deviceRecorder) DeviceDisconnected(_ *Aggregate, err error) {
	r.disconnects = append(r.disconnects, err)
}

func (r *deviceRecorder) DeviceCapabilitiesChanged(_ *Aggregate, added, removed []string) {
	r.added = append(r.added, added...)
	r.removed = append(r.removed, removed...)
}

func (r *deviceRecorder) DevicePairingRequired(_ *Aggregate, t channel.Type, _ channel.PairingType, _ any) {
	r.pairingReqs = append(r.pairingReqs, t)
}

func (r *deviceRecorder) DeviceChannelConnected(_ *Aggregate, t channel.Type) {
	r.chanUps = append(r.chanUps, t)
}

func (r *deviceRecorder) DeviceChannelConnectionFailed(_ *Aggregate, _ channel.Type, err error) {
	r.chanFails = append(r.chanFails, err)
}

func (r *deviceRecorder) DeviceChannelDisconnected(_ *Aggregate, t channel.Type, _ error) {
	r.chanDowns = append(r.chanDowns, t)
}

func newTestAggregate() (*Aggregate, *deviceRecorder) {
	rec := &deviceRecorder{}
	return NewAggregate(AggregateOptions{ID: "dev-1", Observer: rec}), rec
}

func TestAggregateGeneratesID(t *testing.T) {
	a := NewAggregate(AggregateOptions{})
	if a.ID() == "" {
		t.Error("expected generated device ID")
	}
}

func TestAggregateDuplicateChannelType(t *testing.T) {
	a, _ := newTestAggregate()

	if !a.AddChannel(newFakeChannel(fakeChannelOptions{typ: "webos"})) {
		t.Fatal("first AddChannel rejected")
	}
	if a.AddChannel(newFakeChannel(fakeChannelOptions{typ: "webos"})) {
		t.Error("duplicate channel type accepted")
	}
	if got := len(a.Channels()); got != 1 {
		t.Errorf("got %d channels, want 1", got)
	}
}

func TestAggregateZeroConnectableReadyImmediately(t *testing.T) {
	a, rec := newTestAggregate()
	a.AddChannel(newFakeChannel(fakeChannelOptions{typ: "dial", connectable: false}))

	a.Connect()

	if rec.ready != 1 {
		t.Errorf("ready events = %d, want 1", rec.ready)
	}
	if !a.Ready() {
		t.Error("Ready() = false after connect with no connectable channels")
	}
}

func TestAggregateReadyAfterAllChannelsConnect(t *testing.T) {
	a, rec := newTestAggregate()
	first := newFakeChannel(fakeChannelOptions{typ: "webos", connectable: true})
	second := newFakeChannel(fakeChannelOptions{typ: "netcast", connectable: true})
	a.AddChannel(first)
	a.AddChannel(second)

	a.Connect()
	if rec.ready != 0 {
		t.Fatalf("ready before any channel connected: %d events", rec.ready)
	}

	// Completions arrive in reverse attachment order.
	second.NotifyConnected()
	if rec.ready != 0 {
		t.Fatal("ready with one of two channels connected")
	}
	first.NotifyConnected()
	if rec.ready != 1 {
		t.Errorf("ready events = %d, want 1", rec.ready)
	}
	if got := []channel.Type{"netcast", "webos"}; !reflect.DeepEqual(rec.chanUps, got) {
		t.Errorf("channel-up order = %v, want %v", rec.chanUps, got)
	}
	if a.LastConnected().IsZero() {
		t.Error("LastConnected not set on ready")
	}
}

func TestAggregateConnectionFailureBlocksReady(t *testing.T) {
	a, rec := newTestAggregate()
	ch := newFakeChannel(fakeChannelOptions{typ: "webos", connectable: true})
	a.AddChannel(ch)

	a.Connect()
	wantErr := errors.New("refused")
	ch.NotifyConnectionFailed(wantErr)

	if rec.ready != 0 {
		t.Error("device reported ready after its only channel failed")
	}
	if len(rec.chanFails) != 1 || !errors.Is(rec.chanFails[0], wantErr) {
		t.Errorf("channel failures = %v, want [%v]", rec.chanFails, wantErr)
	}
}

func TestAggregateDisconnect(t *testing.T) {
	a, rec := newTestAggregate()
	ch := newFakeChannel(fakeChannelOptions{typ: "webos", connectable: true, auto: true})
	a.AddChannel(ch)

	a.Connect()
	if rec.ready != 1 {
		t.Fatalf("ready events = %d, want 1", rec.ready)
	}

	a.Disconnect()
	if ch.disconnects != 1 {
		t.Errorf("channel disconnects = %d, want 1", ch.disconnects)
	}
	if len(rec.disconnects) != 1 || rec.disconnects[0] != nil {
		t.Errorf("device disconnects = %v, want one nil", rec.disconnects)
	}
	if a.Ready() {
		t.Error("Ready() = true after disconnect")
	}
}

func TestAggregateReconnectAfterDisconnect(t *testing.T) {
	a, rec := newTestAggregate()
	ch := newFakeChannel(fakeChannelOptions{typ: "webos", connectable: true, auto: true})
	a.AddChannel(ch)

	a.Connect()
	a.Disconnect()
	a.Connect()

	if rec.ready != 2 {
		t.Errorf("ready events = %d, want 2", rec.ready)
	}
}

func TestAggregateChannelAddedWhileReady(t *testing.T) {
	a, rec := newTestAggregate()
	a.AddChannel(newFakeChannel(fakeChannelOptions{typ: "webos", connectable: true, auto: true}))
	a.Connect()
	if rec.ready != 1 {
		t.Fatal("device not ready")
	}

	late := newFakeChannel(fakeChannelOptions{typ: "netcast", connectable: true, auto: true})
	a.AddChannel(late)

	if late.connects != 1 {
		t.Error("late channel was not connected automatically")
	}
}

func TestAggregatePriorityRouting(t *testing.T) {
	a, _ := newTestAggregate()

	dial := newFakeChannel(fakeChannelOptions{
		typ:          "dial",
		capabilities: []string{capability.LauncherApp},
		priorities: map[capability.Family]capability.PriorityLevel{
			capability.FamilyLauncher: capability.PriorityNormal,
		},
	})
	webos := newFakeChannel(fakeChannelOptions{
		typ:          "webos",
		capabilities: []string{capability.LauncherApp, capability.LauncherAppClose},
		priorities: map[capability.Family]capability.PriorityLevel{
			capability.FamilyLauncher: capability.PriorityHigh,
		},
	})

	a.AddChannel(dial)
	a.AddChannel(webos)

	ch, ok := a.Launcher()
	if !ok {
		t.Fatal("no launcher resolved")
	}
	if ch.Type() != "webos" {
		t.Errorf("launcher = %q, want webos (higher priority)", ch.Type())
	}

	a.RemoveChannel("webos")
	ch, ok = a.Launcher()
	if !ok {
		t.Fatal("no launcher after removing preferred channel")
	}
	if ch.Type() != "dial" {
		t.Errorf("launcher = %q, want dial fallback", ch.Type())
	}

	a.RemoveChannel("dial")
	if _, ok := a.Launcher(); ok {
		t.Error("launcher still resolved with no channels")
	}
}

func TestAggregatePriorityTieKeepsFirstAttached(t *testing.T) {
	a, _ := newTestAggregate()
	mk := func(typ channel.Type) *fakeChannel {
		return newFakeChannel(fakeChannelOptions{
			typ:          typ,
			capabilities: []string{capability.VolumeControlSet},
			priorities: map[capability.Family]capability.PriorityLevel{
				capability.FamilyVolumeControl: capability.PriorityNormal,
			},
		})
	}
	a.AddChannel(mk("first"))
	a.AddChannel(mk("second"))

	ch, ok := a.VolumeControl()
	if !ok || ch.Type() != "first" {
		t.Errorf("volume control = %v, want first-attached channel", ch)
	}
}

func TestAggregateCapabilityUnionDeltas(t *testing.T) {
	a, rec := newTestAggregate()

	a.AddChannel(newFakeChannel(fakeChannelOptions{
		typ:          "webos",
		capabilities: []string{capability.LauncherApp, capability.VolumeControlSet},
	}))
	wantAdded := []string{capability.LauncherApp, capability.VolumeControlSet}
	if !reflect.DeepEqual(rec.added, wantAdded) {
		t.Errorf("added = %v, want %v", rec.added, wantAdded)
	}

	// Overlapping tag: only the genuinely new tag surfaces.
	rec.added = nil
	a.AddChannel(newFakeChannel(fakeChannelOptions{
		typ:          "dial",
		capabilities: []string{capability.LauncherApp, capability.LauncherAppClose},
	}))
	if !reflect.DeepEqual(rec.added, []string{capability.LauncherAppClose}) {
		t.Errorf("added = %v, want only the new tag", rec.added)
	}

	// Removing the overlap provider drops only its exclusive tag.
	a.RemoveChannel("dial")
	if !reflect.DeepEqual(rec.removed, []string{capability.LauncherAppClose}) {
		t.Errorf("removed = %v, want only the exclusive tag", rec.removed)
	}
}

func TestAggregateLiveCapabilityChange(t *testing.T) {
	a, rec := newTestAggregate()
	ch := newFakeChannel(fakeChannelOptions{typ: "webos"})
	a.AddChannel(ch)

	ch.Capabilities().Add(capability.MediaControlPlay)
	if !reflect.DeepEqual(rec.added, []string{capability.MediaControlPlay}) {
		t.Errorf("added = %v, want live-registered tag", rec.added)
	}

	ch.Capabilities().Remove(capability.MediaControlPlay)
	if !reflect.DeepEqual(rec.removed, []string{capability.MediaControlPlay}) {
		t.Errorf("removed = %v, want live-removed tag", rec.removed)
	}
}

func TestAggregateHasCapabilityWildcard(t *testing.T) {
	a, _ := newTestAggregate()
	a.AddChannel(newFakeChannel(fakeChannelOptions{
		typ:          "webos",
		capabilities: []string{capability.VolumeControlSet},
	}))
	a.AddChannel(newFakeChannel(fakeChannelOptions{
		typ:          "dial",
		capabilities: []string{capability.LauncherApp},
	}))

	if !a.HasCapability(capability.FamilyVolumeControl.Wildcard()) {
		t.Error("wildcard query missed a providing channel")
	}
	if !a.HasCapabilities([]string{capability.VolumeControlSet, capability.LauncherApp}) {
		t.Error("HasCapabilities() = false across channels")
	}
	if a.HasCapability(capability.TVControlChannelUp) {
		t.Error("HasCapability() = true for unregistered tag")
	}
	if !a.HasAnyCapability(capability.TVControlChannelUp, capability.LauncherApp) {
		t.Error("HasAnyCapability() = false with one satisfied query")
	}
}

func TestAggregateMetadataMerge(t *testing.T) {
	a, _ := newTestAggregate()
	a.AddChannel(newFakeChannel(fakeChannelOptions{
		typ:         "webos",
		description: &channel.Description{FriendlyName: "Living Room TV", ModelName: "OLED55", Address: "10.0.0.5"},
	}))
	a.AddChannel(newFakeChannel(fakeChannelOptions{
		typ:         "dial",
		description: &channel.Description{FriendlyName: "LG SmartTV", Address: "10.0.0.9"},
	}))

	if a.FriendlyName() != "Living Room TV" {
		t.Errorf("FriendlyName = %q, want first channel's name", a.FriendlyName())
	}
	if a.ModelName() != "OLED55" {
		t.Errorf("ModelName = %q, want OLED55", a.ModelName())
	}
	if a.LastKnownIP() != "10.0.0.9" {
		t.Errorf("LastKnownIP = %q, want latest address", a.LastKnownIP())
	}
}

func TestAggregatePairingForwarded(t *testing.T) {
	a, rec := newTestAggregate()
	ch := newFakeChannel(fakeChannelOptions{typ: "webos", connectable: true})
	a.AddChannel(ch)

	a.Connect()
	ch.BeginPairing()
	ch.NotifyPairingRequired("prompt")

	if len(rec.pairingReqs) != 1 || rec.pairingReqs[0] != "webos" {
		t.Errorf("pairing events = %v, want [webos]", rec.pairingReqs)
	}
}

func TestCloseSession(t *testing.T) {
	a, _ := newTestAggregate()
	ch := newFakeChannel(fakeChannelOptions{
		typ: "webos",
		capabilities: []string{
			capability.LauncherAppClose,
			capability.MediaPlayerClose,
			capability.WebAppLauncherClose,
		},
	})
	a.AddChannel(ch)

	result := func() (channel.CompletionFunc, *error) {
		var got error = errors.New("not called")
		p := &got
		return func(err error) { *p = err }, p
	}

	t.Run("app session", func(t *testing.T) {
		complete, err := result()
		a.CloseSession(&channel.Session{Kind: channel.SessionKindApp, Channel: ch}, complete)
		if *err != nil {
			t.Errorf("close error = %v, want nil", *err)
		}
		if len(ch.closedApps) != 1 {
			t.Errorf("CloseApp calls = %d, want 1", len(ch.closedApps))
		}
	})

	t.Run("media session", func(t *testing.T) {
		complete, err := result()
		a.CloseSession(&channel.Session{Kind: channel.SessionKindMedia, Channel: ch}, complete)
		if *err != nil {
			t.Errorf("close error = %v, want nil", *err)
		}
		if len(ch.closedMedia) != 1 {
			t.Errorf("CloseMedia calls = %d, want 1", len(ch.closedMedia))
		}
	})

	t.Run("web app session", func(t *testing.T) {
		complete, err := result()
		a.CloseSession(&channel.Session{Kind: channel.SessionKindWebApp, Channel: ch}, complete)
		if *err != nil {
			t.Errorf("close error = %v, want nil", *err)
		}
		if len(ch.closedWebApps) != 1 {
			t.Errorf("CloseWebApp calls = %d, want 1", len(ch.closedWebApps))
		}
	})

	t.Run("nil session", func(t *testing.T) {
		complete, err := result()
		a.CloseSession(nil, complete)
		if !errors.Is(*err, channel.ErrMissingSession) {
			t.Errorf("error = %v, want ErrMissingSession", *err)
		}
	})

	t.Run("session without channel", func(t *testing.T) {
		complete, err := result()
		a.CloseSession(&channel.Session{Kind: channel.SessionKindApp}, complete)
		if !errors.Is(*err, channel.ErrMissingChannel) {
			t.Errorf("error = %v, want ErrMissingChannel", *err)
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		complete, err := result()
		a.CloseSession(&channel.Session{Kind: "bogus", Channel: ch}, complete)
		if !errors.Is(*err, channel.ErrUnknownSessionKind) {
			t.Errorf("error = %v, want ErrUnknownSessionKind", *err)
		}
	})

	t.Run("capability missing", func(t *testing.T) {
		bare := newFakeChannel(fakeChannelOptions{typ: "bare"})
		complete, err := result()
		a.CloseSession(&channel.Session{Kind: channel.SessionKindApp, Channel: bare}, complete)
		if !errors.Is(*err, channel.ErrCapabilityUnsupported) {
			t.Errorf("error = %v, want ErrCapabilityUnsupported", *err)
		}
	})

	t.Run("closer not implemented", func(t *testing.T) {
		// fakeChannel has no CloseInputPicker.
		picker := newFakeChannel(fakeChannelOptions{
			typ:          "picker",
			capabilities: []string{capability.ExternalInputPickerClose},
		})
		complete, err := result()
		a.CloseSession(&channel.Session{Kind: channel.SessionKindExternalInput, Channel: picker}, complete)
		if !errors.Is(*err, channel.ErrCapabilityUnsupported) {
			t.Errorf("error = %v, want ErrCapabilityUnsupported", *err)
		}
	})
}
