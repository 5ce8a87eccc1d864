// Package playback implements segmented, interruptible playback of a local
// media file.
//
// A Table lists segments {Start, Pause, Play}. For every segment the
// Scheduler seeks the media to Start, counts Pause seconds down, plays for
// Play seconds and then advances to the next segment, stopping after the last
// one. Next, Previous, Start and Stop may be called at any time.
//
// The state machine itself is the pure Transition function; the Scheduler is
// a single-goroutine active object that feeds it commands and ticks and
// carries out the returned effects on a Media adapter.
package playback
