package channel

// SessionKind classifies a running session for close dispatch.
type SessionKind string

// Session kinds.
const (
	SessionKindApp           SessionKind = "app"
	SessionKindMedia         SessionKind = "media"
	SessionKindExternalInput SessionKind = "external_input"
	SessionKindWebApp        SessionKind = "web_app"
	SessionKindUnknown       SessionKind = "unknown"
)

// Session is a handle to something running on a device: a launched app, a
// media playback, an input picker, a web app. It is created by the
// channel that launched it and routed back through that channel to close.
type Session struct {
	// ID is the channel-assigned session identifier, if any.
	ID string

	// AppID identifies the launched app or web app.
	AppID string

	// Name is a human-readable label, best effort.
	Name string

	// Kind selects the close dispatch path.
	Kind SessionKind

	// Channel is the owning channel. Close requests fail with
	// ErrMissingChannel when this is nil.
	Channel Channel

	// Raw carries protocol-specific payload data the channel needs to
	// close the session (URLs, tokens, ...).
	Raw map[string]any
}

// CompletionFunc reports the outcome of an asynchronous operation.
// It is invoked exactly once; a nil error means success.
type CompletionFunc func(err error)

// AppCloser is implemented by channels that can close app sessions.
type AppCloser interface {
	CloseApp(s *Session, complete CompletionFunc)
}

// MediaCloser is implemented by channels that can close media playback
// sessions.
type MediaCloser interface {
	CloseMedia(s *Session, complete CompletionFunc)
}

// InputPickerCloser is implemented by channels that can close an input
// picker session.
type InputPickerCloser interface {
	CloseInputPicker(s *Session, complete CompletionFunc)
}

// WebAppCloser is implemented by channels that can close web app
// sessions.
type WebAppCloser interface {
	CloseWebApp(s *Session, complete CompletionFunc)
}
