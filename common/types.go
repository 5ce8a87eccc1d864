package common

// LabelNotification carries the new text of a view label.
type LabelNotification struct {
	Label string `json:"label"`
}

// VideoStateNotification mirrors a download state change.
type VideoStateNotification struct {
	State    string  `json:"state"`
	Progress float64 `json:"progress"`
	Error    string  `json:"error,omitempty"`
}

// PlayerPhaseNotification is sent when the scheduler changes phase or
// segment.
type PlayerPhaseNotification struct {
	Index          int    `json:"index"`
	Phase          string `json:"phase"`
	PauseRemaining int    `json:"pauseRemaining"`
	PlayRemaining  int    `json:"playRemaining"`
}

// PlayerPositionNotification reports the media position while a segment
// plays.
type PlayerPositionNotification struct {
	PositionMs int64 `json:"positionMs"`
	Seconds    int   `json:"seconds"`
}
