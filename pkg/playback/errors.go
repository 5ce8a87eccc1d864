package playback

import "errors"

var (
	ErrNoSegments       = errors.New("segment table is empty")
	ErrInvalidSegment   = errors.New("segment has a negative duration")
	ErrNotStarted       = errors.New("playback has not been started")
	ErrMediaUnavailable = errors.New("local media file is not available")
	ErrClosed           = errors.New("scheduler is closed")
)
