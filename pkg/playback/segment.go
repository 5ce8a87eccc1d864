package playback

import (
	"fmt"
	"time"
)

// Segment is one unit of the playback sequence.
type Segment struct {
	// Start is the seek offset into the media.
	Start time.Duration
	// Pause is the countdown shown before the segment plays.
	Pause time.Duration
	// Play is how long the segment plays before advancing.
	Play time.Duration
}

// Table is the ordered, fixed sequence of segments to play.
type Table []Segment

// DefaultTable is the built-in sequence used by the CLI.
var DefaultTable = Table{
	{Start: 0, Pause: 5 * time.Second, Play: 10 * time.Second},
	{Start: 30 * time.Second, Pause: 5 * time.Second, Play: 10 * time.Second},
	{Start: 60 * time.Second, Pause: 5 * time.Second, Play: 10 * time.Second},
	{Start: 90 * time.Second, Pause: 5 * time.Second, Play: 10 * time.Second},
}

// Validate reports the first segment with a negative field.
func (t Table) Validate() error {
	for i, s := range t {
		if s.Start < 0 || s.Pause < 0 || s.Play < 0 {
			return fmt.Errorf("segment %d: %w", i, ErrInvalidSegment)
		}
	}
	return nil
}

// Last returns the index of the final segment, or -1 for an empty table.
func (t Table) Last() int {
	return len(t) - 1
}

// Seconds converts a duration to the whole-second countdown length shown to
// the user. Fractions are truncated.
func Seconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(d / time.Second)
}
