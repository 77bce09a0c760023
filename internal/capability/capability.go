package capability

// Any is the wildcard marker accepted by Set queries. A query ending in
// ".Any" matches every tag containing the text before the marker, so
// "Launcher.App.Any" matches "Launcher.App" and "Launcher.App.Params".
const Any = ".Any"

// Family identifies a group of related capability tags that resolve to a
// single channel at a time (the "accessor" families of the public API).
type Family string

// Capability families.
const (
	FamilyLauncher             Family = "Launcher"
	FamilyMediaPlayer          Family = "MediaPlayer"
	FamilyMediaControl         Family = "MediaControl"
	FamilyVolumeControl        Family = "VolumeControl"
	FamilyTVControl            Family = "TVControl"
	FamilyKeyControl           Family = "KeyControl"
	FamilyPowerControl         Family = "PowerControl"
	FamilyExternalInputControl Family = "ExternalInputControl"
	FamilyWebAppLauncher       Family = "WebAppLauncher"
)

// AllFamilies returns all capability families in stable order.
func AllFamilies() []Family {
	return []Family{
		FamilyLauncher, FamilyMediaPlayer, FamilyMediaControl,
		FamilyVolumeControl, FamilyTVControl, FamilyKeyControl,
		FamilyPowerControl, FamilyExternalInputControl, FamilyWebAppLauncher,
	}
}

// Wildcard returns the wildcard query matching any tag in the family.
func (f Family) Wildcard() string {
	return string(f) + Any
}

// PriorityLevel is a channel-declared preference for a capability family.
// When several channels on one device support the same family, the channel
// with the highest level wins; ties go to the first-registered channel.
type PriorityLevel int

// Priority levels.
const (
	PriorityNone     PriorityLevel = 0
	PriorityVeryLow  PriorityLevel = 1
	PriorityLow      PriorityLevel = 25
	PriorityNormal   PriorityLevel = 50
	PriorityHigh     PriorityLevel = 75
	PriorityVeryHigh PriorityLevel = 100
)

// Launcher capabilities.
const (
	LauncherApp       = "Launcher.App"
	LauncherAppParams = "Launcher.App.Params"
	LauncherAppClose  = "Launcher.App.Close"
	LauncherAppList   = "Launcher.App.List"
	LauncherBrowser   = "Launcher.Browser"
	LauncherYouTube   = "Launcher.YouTube"
	LauncherNetflix   = "Launcher.Netflix"
	LauncherAppStore  = "Launcher.AppStore"
)

// MediaPlayer capabilities.
const (
	MediaPlayerDisplayImage = "MediaPlayer.Display.Image"
	MediaPlayerPlayVideo    = "MediaPlayer.Play.Video"
	MediaPlayerPlayAudio    = "MediaPlayer.Play.Audio"
	MediaPlayerClose        = "MediaPlayer.Close"
	MediaPlayerMetaDataTitle = "MediaPlayer.MetaData.Title"
)

// MediaControl capabilities.
const (
	MediaControlPlay        = "MediaControl.Play"
	MediaControlPause       = "MediaControl.Pause"
	MediaControlStop        = "MediaControl.Stop"
	MediaControlRewind      = "MediaControl.Rewind"
	MediaControlFastForward = "MediaControl.FastForward"
	MediaControlSeek        = "MediaControl.Seek"
	MediaControlPosition    = "MediaControl.Position"
	MediaControlDuration    = "MediaControl.Duration"
	MediaControlPlayState   = "MediaControl.PlayState"
)

// VolumeControl capabilities.
const (
	VolumeControlGet     = "VolumeControl.Get"
	VolumeControlSet     = "VolumeControl.Set"
	VolumeControlUpDown  = "VolumeControl.UpDown"
	VolumeControlMuteGet = "VolumeControl.Mute.Get"
	VolumeControlMuteSet = "VolumeControl.Mute.Set"
)

// TVControl capabilities.
const (
	TVControlChannelGet  = "TVControl.Channel.Get"
	TVControlChannelSet  = "TVControl.Channel.Set"
	TVControlChannelUp   = "TVControl.Channel.Up"
	TVControlChannelDown = "TVControl.Channel.Down"
	TVControlChannelList = "TVControl.Channel.List"
)

// KeyControl capabilities.
const (
	KeyControlUp    = "KeyControl.Up"
	KeyControlDown  = "KeyControl.Down"
	KeyControlLeft  = "KeyControl.Left"
	KeyControlRight = "KeyControl.Right"
	KeyControlOK    = "KeyControl.OK"
	KeyControlBack  = "KeyControl.Back"
	KeyControlHome  = "KeyControl.Home"
	KeyControlSend  = "KeyControl.Send"
)

// PowerControl capabilities.
const (
	PowerControlOff = "PowerControl.Off"
	PowerControlOn  = "PowerControl.On"
)

// ExternalInputControl capabilities.
const (
	ExternalInputPickerLaunch = "ExternalInputControl.Picker.Launch"
	ExternalInputPickerClose  = "ExternalInputControl.Picker.Close"
	ExternalInputList         = "ExternalInputControl.List"
	ExternalInputSet          = "ExternalInputControl.Set"
)

// WebAppLauncher capabilities.
const (
	WebAppLauncherLaunch         = "WebAppLauncher.Launch"
	WebAppLauncherLaunchParams   = "WebAppLauncher.Launch.Params"
	WebAppLauncherMessageSend    = "WebAppLauncher.Message.Send"
	WebAppLauncherMessageReceive = "WebAppLauncher.Message.Receive"
	WebAppLauncherClose          = "WebAppLauncher.Close"
)
