package playback

import "fmt"

// Phase is the current step of the playback state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePausing
	PhasePlaying
	PhaseStopped
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePausing:
		return "pausing"
	case PhasePlaying:
		return "playing"
	case PhaseStopped:
		return "stopped"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// State is the scheduler's playback state. The zero value is Idle at index 0.
type State struct {
	Index          int
	Phase          Phase
	PauseRemaining int
	PlayRemaining  int
}

// Labels renders the pause and timer label text for s. Idle renders empty
// labels.
func Labels(s State) (pause, timer string) {
	if s.Phase == PhaseIdle {
		return "", ""
	}
	pause = "Pause: 0"
	if s.PauseRemaining > 0 {
		pause = fmt.Sprintf("Pause: -%d", s.PauseRemaining)
	}
	timer = fmt.Sprintf("Play: %d", s.PlayRemaining)
	return pause, timer
}
