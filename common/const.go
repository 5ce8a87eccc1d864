package common

// NotifyMethod is the JSON-RPC method name of a server push notification.
type NotifyMethod string

const (
	NOTIFY_BUTTON_LABEL    NotifyMethod = "view.buttonLabel"
	NOTIFY_TIMER_LABEL     NotifyMethod = "view.timerLabel"
	NOTIFY_PAUSE_LABEL     NotifyMethod = "view.pauseLabel"
	NOTIFY_VIDEO_STATE     NotifyMethod = "video.state"
	NOTIFY_PLAYER_PHASE    NotifyMethod = "player.phase"
	NOTIFY_PLAYER_POSITION NotifyMethod = "player.position"
)

// DefaultFileName is the fixed name of the local video file.
const DefaultFileName = "test.mp4"
