package webos

// SSAP message types.
const (
	typeRegister   = "register"
	typeRequest    = "request"
	typeResponse   = "response"
	typeRegistered = "registered"
	typeError      = "error"
)

// pairingPrompt is the pairingType the TV reports while waiting for the
// on-screen prompt to be accepted.
const pairingPrompt = "PROMPT"

// request is an outbound SSAP frame.
type request struct {
	Type    string         `json:"type"`
	ID      int            `json:"id"`
	URI     string         `json:"uri,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// response is an inbound SSAP frame.
type response struct {
	Type    string         `json:"type"`
	ID      int            `json:"id"`
	Error   string         `json:"error,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// SSAP endpoint URIs.
const (
	uriLaunch           = "ssap://system.launcher/launch"
	uriCloseApp         = "ssap://system.launcher/close"
	uriListApps         = "ssap://com.webos.applicationManager/listApps"
	uriCloseMediaViewer = "ssap://media.viewer/close"
	uriVolumeUp         = "ssap://audio/volumeUp"
	uriVolumeDown       = "ssap://audio/volumeDown"
	uriSetVolume        = "ssap://audio/setVolume"
	uriGetVolume        = "ssap://audio/getVolume"
	uriSetMute          = "ssap://audio/setMute"
	uriPlay             = "ssap://media.controls/play"
	uriPause            = "ssap://media.controls/pause"
	uriStop             = "ssap://media.controls/stop"
	uriRewind           = "ssap://media.controls/rewind"
	uriFastForward      = "ssap://media.controls/fastForward"
	uriChannelUp        = "ssap://tv/channelUp"
	uriChannelDown      = "ssap://tv/channelDown"
	uriPowerOff         = "ssap://system/turnOff"
	uriCloseWebApp      = "ssap://webapp/closeWebApp"
	uriSwitchInput      = "ssap://tv/switchInput"
)

// registerManifest is the permission manifest sent with registration.
// The TV shows it on the pairing prompt.
var registerManifest = map[string]any{
	"manifestVersion": 1,
	"permissions": []string{
		"LAUNCH",
		"LAUNCH_WEBAPP",
		"APP_TO_APP",
		"CONTROL_AUDIO",
		"CONTROL_DISPLAY",
		"CONTROL_INPUT_JOYSTICK",
		"CONTROL_INPUT_MEDIA_PLAYBACK",
		"CONTROL_INPUT_TV",
		"CONTROL_POWER",
		"READ_APP_STATUS",
		"READ_CURRENT_CHANNEL",
		"READ_INPUT_DEVICE_LIST",
		"READ_RUNNING_APPS",
		"READ_TV_CHANNEL_LIST",
		"WRITE_NOTIFICATION_TOAST",
	},
}
