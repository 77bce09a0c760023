package webos

import (
	"crypto/tls"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/castlink-core/internal/capability"
	"github.com/nerrad567/castlink-core/internal/channel"
)

// ChannelType is the channel type tag for webOS endpoints.
const ChannelType channel.Type = "webos"

// DefaultPort is the TV's secure WebSocket port.
const DefaultPort = 3001

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Warn(msg string, args ...any)
	Debug(msg string, args ...any)
}

// Options configures a webOS channel.
type Options struct {
	// ID is the channel identifier; generated when empty.
	ID string

	// Description is the discovered endpoint metadata.
	Description *channel.Description

	// Config is the rehydrated channel config from the device store, or
	// nil for a first sighting.
	Config *Config

	// URL overrides the WebSocket endpoint derived from the
	// description. Used by tests.
	URL string

	// Logger is optional.
	Logger Logger
}

// Channel drives one webOS television over SSAP.
type Channel struct {
	*channel.Base

	cfg    *Config
	url    string
	logger Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	done    chan struct{}
	pending map[int]func(*response, error)
	nextID  int

	registerID int
	pairing    bool

	// silent suppresses the read pump's disconnect notification when the
	// socket was torn down for a failure already reported.
	silent bool

	writeMu sync.Mutex
}

// New constructs a webOS channel. The connection is not opened until
// Connect.
func New(opts Options) *Channel {
	cfg := opts.Config
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.UUID == "" && opts.Description != nil {
		cfg.UUID = opts.Description.UUID
	}

	url := opts.URL
	if url == "" && opts.Description != nil {
		port := opts.Description.Port
		if port == 0 {
			port = DefaultPort
		}
		url = fmt.Sprintf("wss://%s:%d", opts.Description.Address, port)
	}

	return &Channel{
		Base: channel.NewBase(channel.BaseOptions{
			Type:         ChannelType,
			ID:           opts.ID,
			Class:        ClassName,
			Description:  opts.Description,
			Capabilities: defaultCapabilities(),
			Priorities:   defaultPriorities(),
			PairingType:  channel.PairingPrompt,
			Connectable:  true,
			Config:       cfg,
		}),
		cfg:    cfg,
		url:    url,
		logger: opts.Logger,
	}
}

func defaultCapabilities() []string {
	return []string{
		capability.LauncherApp,
		capability.LauncherAppParams,
		capability.LauncherAppClose,
		capability.LauncherAppList,
		capability.LauncherBrowser,
		capability.LauncherYouTube,
		capability.LauncherNetflix,
		capability.MediaPlayerDisplayImage,
		capability.MediaPlayerPlayVideo,
		capability.MediaPlayerPlayAudio,
		capability.MediaPlayerClose,
		capability.MediaControlPlay,
		capability.MediaControlPause,
		capability.MediaControlStop,
		capability.MediaControlRewind,
		capability.MediaControlFastForward,
		capability.VolumeControlGet,
		capability.VolumeControlSet,
		capability.VolumeControlUpDown,
		capability.VolumeControlMuteGet,
		capability.VolumeControlMuteSet,
		capability.TVControlChannelUp,
		capability.TVControlChannelDown,
		capability.PowerControlOff,
		capability.ExternalInputList,
		capability.ExternalInputSet,
		capability.WebAppLauncherLaunch,
		capability.WebAppLauncherClose,
	}
}

func defaultPriorities() map[capability.Family]capability.PriorityLevel {
	p := make(map[capability.Family]capability.PriorityLevel)
	for _, f := range capability.AllFamilies() {
		p[f] = capability.PriorityHigh
	}
	return p
}

// ClientKey returns the pairing credential, empty before first pairing.
func (c *Channel) ClientKey() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.ClientKey
}

// Connect implements channel.Channel.
func (c *Channel) Connect() {
	if !c.BeginConnecting() {
		return
	}
	go c.run()
}

func (c *Channel) run() {
	dialer := websocket.Dialer{
		// TVs serve self-signed certificates.
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
	}
	conn, _, err := dialer.Dial(c.url, nil)
	if err != nil {
		c.NotifyConnectionFailed(fmt.Errorf("%w: %v", channel.ErrConnectionFailed, err))
		return
	}

	// Disconnect requested while the dial was in flight.
	if c.State() == channel.StateDisconnected {
		conn.Close()
		return
	}

	c.mu.Lock()
	c.conn = conn
	c.done = make(chan struct{})
	c.pending = make(map[int]func(*response, error))
	c.pairing = false
	done := c.done
	c.mu.Unlock()

	go c.readPump(conn, done)
	c.register()
}

// register starts the SSAP handshake. A stored client key skips the
// on-screen prompt.
func (c *Channel) register() {
	payload := map[string]any{"manifest": registerManifest}

	c.mu.Lock()
	if c.cfg.ClientKey != "" {
		payload["client-key"] = c.cfg.ClientKey
	}
	c.nextID++
	c.registerID = c.nextID
	req := request{Type: typeRegister, ID: c.registerID, Payload: payload}
	conn := c.conn
	c.mu.Unlock()

	if err := c.write(conn, req); err != nil {
		c.teardown(fmt.Errorf("%w: %v", channel.ErrConnectionFailed, err))
	}
}

func (c *Channel) write(conn *websocket.Conn, req request) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return conn.WriteJSON(req)
}

func (c *Channel) readPump(conn *websocket.Conn, done chan struct{}) {
	for {
		var resp response
		if err := conn.ReadJSON(&resp); err != nil {
			c.failPending(channel.ErrNotConnected)

			c.mu.Lock()
			silent := c.silent
			c.silent = false
			c.mu.Unlock()

			select {
			case <-done:
				if !silent {
					c.NotifyDisconnected(nil)
				}
			default:
				c.closeConn()
				c.NotifyDisconnected(err)
			}
			return
		}
		c.handle(&resp)
	}
}

func (c *Channel) handle(resp *response) {
	c.mu.Lock()
	isRegister := resp.ID == c.registerID
	fn := c.pending[resp.ID]
	delete(c.pending, resp.ID)
	c.mu.Unlock()

	switch resp.Type {
	case typeRegistered:
		key, _ := resp.Payload["client-key"].(string)
		c.mu.Lock()
		c.cfg.ClientKey = key
		c.cfg.WasConnected = true
		wasPairing := c.pairing
		c.pairing = false
		c.mu.Unlock()

		if wasPairing {
			c.NotifyPairingSucceeded()
		}
		c.NotifyConnected()

	case typeResponse:
		if isRegister {
			if pt, _ := resp.Payload["pairingType"].(string); pt == pairingPrompt {
				c.mu.Lock()
				c.pairing = true
				c.mu.Unlock()
				c.BeginPairing()
				c.NotifyPairingRequired(nil)
			}
			return
		}
		if fn != nil {
			fn(resp, nil)
		}

	case typeError:
		if isRegister {
			c.mu.Lock()
			wasPairing := c.pairing
			c.pairing = false
			c.mu.Unlock()

			if wasPairing {
				c.teardownPairing(fmt.Errorf("%w: %s", channel.ErrPairingFailed, resp.Error))
				return
			}
			c.teardown(fmt.Errorf("%w: %s", channel.ErrConnectionFailed, resp.Error))
			return
		}
		if fn != nil {
			fn(resp, fmt.Errorf("%s", resp.Error))
		}

	default:
		if c.logger != nil {
			c.logger.Debug("ignoring unexpected ssap frame", "type", resp.Type)
		}
	}
}

// failPending completes every in-flight request with err.
func (c *Channel) failPending(err error) {
	c.mu.Lock()
	pending := c.pending
	c.pending = make(map[int]func(*response, error))
	c.mu.Unlock()

	for _, fn := range pending {
		fn(nil, err)
	}
}

// teardown closes the socket and reports a connect failure. The read
// pump sees the closed done channel and stays quiet.
func (c *Channel) teardown(err error) {
	c.mu.Lock()
	c.silent = true
	c.mu.Unlock()
	if conn := c.closeConn(); conn != nil {
		c.NotifyConnectionFailed(err)
	}
}

// teardownPairing closes the socket and reports a pairing failure.
func (c *Channel) teardownPairing(err error) {
	c.mu.Lock()
	c.silent = true
	c.mu.Unlock()
	if conn := c.closeConn(); conn != nil {
		c.NotifyPairingFailed(err)
	}
}

// closeConn detaches and closes the socket. Returns the previous conn,
// nil when already closed.
func (c *Channel) closeConn() *websocket.Conn {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	if c.done != nil {
		close(c.done)
		c.done = nil
	}
	c.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	return conn
}

// Disconnect implements channel.Channel. The read pump observes the
// closed socket and emits the disconnected event.
func (c *Channel) Disconnect() {
	if c.closeConn() == nil && c.State() != channel.StateDisconnected {
		c.NotifyDisconnected(nil)
	}
}

// Pair implements channel.Channel. Prompt pairing resolves on the TV
// itself, so there is no client-side data to submit.
func (c *Channel) Pair(any) {}

// send issues an SSAP request; fn receives the correlated response.
func (c *Channel) send(uri string, payload map[string]any, fn func(*response, error)) {
	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		if fn != nil {
			fn(nil, channel.ErrNotConnected)
		}
		return
	}
	c.nextID++
	id := c.nextID
	if fn != nil {
		c.pending[id] = fn
	}
	c.mu.Unlock()

	req := request{Type: typeRequest, ID: id, URI: uri, Payload: payload}
	if err := c.write(conn, req); err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		if fn != nil {
			fn(nil, err)
		}
	}
}

// sendSimple issues a request whose response carries no useful payload.
func (c *Channel) sendSimple(uri string, payload map[string]any, complete channel.CompletionFunc) {
	c.send(uri, payload, func(_ *response, err error) {
		if complete != nil {
			complete(err)
		}
	})
}

// LaunchApp starts an app and hands back its session.
func (c *Channel) LaunchApp(appID string, complete func(*channel.Session, error)) {
	c.send(uriLaunch, map[string]any{"id": appID}, func(resp *response, err error) {
		if complete == nil {
			return
		}
		if err != nil {
			complete(nil, err)
			return
		}
		sessionID, _ := resp.Payload["sessionId"].(string)
		complete(&channel.Session{
			ID:      sessionID,
			AppID:   appID,
			Kind:    channel.SessionKindApp,
			Channel: c,
		}, nil)
	})
}

// ListApps fetches the installed apps as raw payload entries.
func (c *Channel) ListApps(complete func([]map[string]any, error)) {
	c.send(uriListApps, nil, func(resp *response, err error) {
		if complete == nil {
			return
		}
		if err != nil {
			complete(nil, err)
			return
		}
		raw, _ := resp.Payload["apps"].([]any)
		apps := make([]map[string]any, 0, len(raw))
		for _, entry := range raw {
			if app, ok := entry.(map[string]any); ok {
				apps = append(apps, app)
			}
		}
		complete(apps, nil)
	})
}

// CloseApp implements channel.AppCloser.
func (c *Channel) CloseApp(s *channel.Session, complete channel.CompletionFunc) {
	payload := map[string]any{"id": s.AppID}
	if s.ID != "" {
		payload["sessionId"] = s.ID
	}
	c.sendSimple(uriCloseApp, payload, complete)
}

// CloseMedia implements channel.MediaCloser.
func (c *Channel) CloseMedia(s *channel.Session, complete channel.CompletionFunc) {
	payload := map[string]any{}
	if s.ID != "" {
		payload["sessionId"] = s.ID
	}
	c.sendSimple(uriCloseMediaViewer, payload, complete)
}

// CloseWebApp implements channel.WebAppCloser.
func (c *Channel) CloseWebApp(s *channel.Session, complete channel.CompletionFunc) {
	c.sendSimple(uriCloseWebApp, map[string]any{"webAppId": s.AppID}, complete)
}

// VolumeUp raises the volume one step.
func (c *Channel) VolumeUp(complete channel.CompletionFunc) {
	c.sendSimple(uriVolumeUp, nil, complete)
}

// VolumeDown lowers the volume one step.
func (c *Channel) VolumeDown(complete channel.CompletionFunc) {
	c.sendSimple(uriVolumeDown, nil, complete)
}

// SetVolume sets the volume to an absolute level, 0-100.
func (c *Channel) SetVolume(level int, complete channel.CompletionFunc) {
	c.sendSimple(uriSetVolume, map[string]any{"volume": level}, complete)
}

// GetVolume reads the current volume level.
func (c *Channel) GetVolume(complete func(level int, muted bool, err error)) {
	c.send(uriGetVolume, nil, func(resp *response, err error) {
		if complete == nil {
			return
		}
		if err != nil {
			complete(0, false, err)
			return
		}
		level, _ := resp.Payload["volume"].(float64)
		muted, _ := resp.Payload["muted"].(bool)
		complete(int(level), muted, nil)
	})
}

// SetMute mutes or unmutes the TV.
func (c *Channel) SetMute(mute bool, complete channel.CompletionFunc) {
	c.sendSimple(uriSetMute, map[string]any{"mute": mute}, complete)
}

// Play resumes media playback.
func (c *Channel) Play(complete channel.CompletionFunc) {
	c.sendSimple(uriPlay, nil, complete)
}

// Pause pauses media playback.
func (c *Channel) Pause(complete channel.CompletionFunc) {
	c.sendSimple(uriPause, nil, complete)
}

// Stop stops media playback.
func (c *Channel) Stop(complete channel.CompletionFunc) {
	c.sendSimple(uriStop, nil, complete)
}

// Rewind rewinds media playback.
func (c *Channel) Rewind(complete channel.CompletionFunc) {
	c.sendSimple(uriRewind, nil, complete)
}

// FastForward fast-forwards media playback.
func (c *Channel) FastForward(complete channel.CompletionFunc) {
	c.sendSimple(uriFastForward, nil, complete)
}

// ChannelUp steps to the next tuner channel.
func (c *Channel) ChannelUp(complete channel.CompletionFunc) {
	c.sendSimple(uriChannelUp, nil, complete)
}

// ChannelDown steps to the previous tuner channel.
func (c *Channel) ChannelDown(complete channel.CompletionFunc) {
	c.sendSimple(uriChannelDown, nil, complete)
}

// SetExternalInput switches to the named input.
func (c *Channel) SetExternalInput(inputID string, complete channel.CompletionFunc) {
	c.sendSimple(uriSwitchInput, map[string]any{"inputId": inputID}, complete)
}

// PowerOff turns the TV off. The TV drops the socket shortly after.
func (c *Channel) PowerOff(complete channel.CompletionFunc) {
	c.sendSimple(uriPowerOff, nil, complete)
}
