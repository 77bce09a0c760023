package dial

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nerrad567/castlink-core/internal/capability"
	"github.com/nerrad567/castlink-core/internal/channel"
)

// ChannelType is the channel type tag for DIAL endpoints.
const ChannelType channel.Type = "dial"

// requestTimeout bounds every HTTP exchange with the device.
const requestTimeout = 10 * time.Second

// Options configures a DIAL channel.
type Options struct {
	// ID is the channel identifier; generated when empty.
	ID string

	// Description is the discovered endpoint metadata.
	Description *channel.Description

	// Config is the rehydrated channel config, or nil.
	Config *Config

	// ApplicationURL is the device's DIAL application URL from
	// discovery, e.g. "http://10.0.0.5:8080/apps". Overrides the URL
	// kept in Config.
	ApplicationURL string

	// HTTPClient overrides the default client. Used by tests.
	HTTPClient *http.Client
}

// Channel drives one DIAL endpoint. It is stateless: every operation is
// an independent HTTP exchange.
type Channel struct {
	*channel.Base

	cfg    *Config
	appURL string
	client *http.Client
}

// New constructs a DIAL channel.
func New(opts Options) *Channel {
	cfg := opts.Config
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.UUID == "" && opts.Description != nil {
		cfg.UUID = opts.Description.UUID
	}
	if opts.ApplicationURL != "" {
		cfg.ApplicationURL = opts.ApplicationURL
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: requestTimeout}
	}

	return &Channel{
		Base: channel.NewBase(channel.BaseOptions{
			Type:        ChannelType,
			ID:          opts.ID,
			Class:       ClassName,
			Description: opts.Description,
			Capabilities: []string{
				capability.LauncherApp,
				capability.LauncherAppParams,
				capability.LauncherAppClose,
				capability.LauncherYouTube,
				capability.LauncherNetflix,
			},
			Priorities: map[capability.Family]capability.PriorityLevel{
				capability.FamilyLauncher: capability.PriorityNormal,
			},
			PairingType: channel.PairingNone,
			Connectable: false,
			Config:      cfg,
		}),
		cfg:    cfg,
		appURL: strings.TrimRight(cfg.ApplicationURL, "/"),
		client: client,
	}
}

// Connect implements channel.Channel. DIAL keeps no session, so the
// channel reports up immediately.
func (c *Channel) Connect() {
	if !c.BeginConnecting() {
		return
	}
	c.NotifyConnected()
}

// Disconnect implements channel.Channel.
func (c *Channel) Disconnect() {
	if c.State() == channel.StateDisconnected {
		return
	}
	c.NotifyDisconnected(nil)
}

// appEndpoint builds the per-app URL.
func (c *Channel) appEndpoint(appID string) string {
	return c.appURL + "/" + appID
}

// LaunchApp starts an app, passing params as the POST body. The session
// carries the instance URL the device returns, used later to stop it.
func (c *Channel) LaunchApp(appID, params string, complete func(*channel.Session, error)) {
	go func() {
		s, err := c.launch(appID, params)
		if complete != nil {
			complete(s, err)
		}
	}()
}

func (c *Channel) launch(appID, params string) (*channel.Session, error) {
	req, err := http.NewRequest(http.MethodPost, c.appEndpoint(appID), strings.NewReader(params))
	if err != nil {
		return nil, fmt.Errorf("dial: building launch request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dial: launching %s: %w", appID, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusNotFound:
		return nil, fmt.Errorf("dial: %w: app %q not installed", channel.ErrCapabilityUnsupported, appID)
	default:
		return nil, fmt.Errorf("dial: launching %s: unexpected status %d", appID, resp.StatusCode)
	}

	s := &channel.Session{
		AppID:   appID,
		Name:    appID,
		Kind:    channel.SessionKindApp,
		Channel: c,
	}
	if loc := resp.Header.Get("Location"); loc != "" {
		s.Raw = map[string]any{"instanceURL": loc}
	}
	return s, nil
}

// CloseApp implements channel.AppCloser. The instance URL from the
// launch response is preferred; older devices accept DELETE on the
// conventional "run" path.
func (c *Channel) CloseApp(s *channel.Session, complete channel.CompletionFunc) {
	go func() {
		err := c.stop(s)
		if complete != nil {
			complete(err)
		}
	}()
}

func (c *Channel) stop(s *channel.Session) error {
	target := c.appEndpoint(s.AppID) + "/run"
	if loc, ok := s.Raw["instanceURL"].(string); ok && loc != "" {
		target = loc
	}

	req, err := http.NewRequest(http.MethodDelete, target, nil)
	if err != nil {
		return fmt.Errorf("dial: building stop request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("dial: stopping %s: %w", s.AppID, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("dial: stopping %s: unexpected status %d", s.AppID, resp.StatusCode)
	}
	return nil
}

// AppState reports whether an app is currently running.
func (c *Channel) AppState(appID string, complete func(running bool, err error)) {
	go func() {
		running, err := c.state(appID)
		if complete != nil {
			complete(running, err)
		}
	}()
}

func (c *Channel) state(appID string) (bool, error) {
	resp, err := c.client.Get(c.appEndpoint(appID))
	if err != nil {
		return false, fmt.Errorf("dial: querying %s: %w", appID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("dial: querying %s: unexpected status %d", appID, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("dial: reading state for %s: %w", appID, err)
	}
	return strings.Contains(string(body), "<state>running</state>"), nil
}
