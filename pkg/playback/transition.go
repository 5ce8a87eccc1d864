package playback

import (
	"fmt"
	"time"
)

// Event is an input to the state machine.
type Event int

const (
	EventStart Event = iota
	EventTick
	EventNext
	EventPrevious
	EventStop
)

func (e Event) String() string {
	switch e {
	case EventStart:
		return "start"
	case EventTick:
		return "tick"
	case EventNext:
		return "next"
	case EventPrevious:
		return "previous"
	case EventStop:
		return "stop"
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// Effect is a side effect the Scheduler performs after a transition, in
// order.
type Effect interface {
	effect()
}

type (
	// EffectSeek moves the media to Pos.
	EffectSeek struct{ Pos time.Duration }
	// EffectPlay resumes media playback from the current position.
	EffectPlay struct{}
	// EffectPause pauses media playback.
	EffectPause struct{}
	// EffectStopCountdown cancels the live countdown ticker, if any.
	EffectStopCountdown struct{}
	// EffectStartCountdown starts the one-second countdown for Phase.
	EffectStartCountdown struct{ Phase Phase }
)

func (EffectSeek) effect()           {}
func (EffectPlay) effect()           {}
func (EffectPause) effect()          {}
func (EffectStopCountdown) effect()  {}
func (EffectStartCountdown) effect() {}

// TransitionOpts tunes navigation policy.
type TransitionOpts struct {
	// PreviousFloor is the lowest index from which Previous is a no-op.
	// 0 allows stepping back to the first segment; 1 reproduces the
	// original app, which refused to step back from the second segment.
	PreviousFloor int
}

// Transition applies ev to s and returns the new state together with the
// effects to carry out. It never mutates its inputs. Rejected events return
// the unchanged state, no effects and an error; no-op events return the
// unchanged state and no effects.
func Transition(t Table, s State, ev Event, opts TransitionOpts) (State, []Effect, error) {
	var fx []Effect
	switch ev {
	case EventStart:
		if len(t) == 0 {
			return s, nil, ErrNoSegments
		}
		fx = append(fx, EffectStopCountdown{})
		if s.Phase == PhasePlaying {
			fx = append(fx, EffectPause{})
		}
		s, fx = enterSegment(t, s, 0, fx)

	case EventTick:
		switch s.Phase {
		case PhasePausing:
			if s.PauseRemaining > 0 {
				s.PauseRemaining--
			}
			if s.PauseRemaining == 0 {
				fx = append(fx, EffectStopCountdown{})
				s, fx = enterPlaying(t, s, fx)
			}
		case PhasePlaying:
			if s.PlayRemaining > 0 {
				s.PlayRemaining--
			}
			if s.PlayRemaining == 0 {
				fx = append(fx, EffectStopCountdown{})
				s, fx = finishSegment(t, s, fx)
			}
		}

	case EventNext, EventPrevious:
		if s.Phase == PhaseIdle {
			return s, nil, ErrNotStarted
		}
		target := s.Index + 1
		if ev == EventPrevious {
			if s.Index <= opts.PreviousFloor || s.Index <= 0 {
				return s, nil, nil
			}
			target = s.Index - 1
		} else if s.Index >= t.Last() {
			return s, nil, nil
		}
		fx = append(fx, EffectStopCountdown{})
		if s.Phase == PhasePlaying {
			fx = append(fx, EffectPause{})
		}
		s, fx = enterSegment(t, s, target, fx)

	case EventStop:
		if s.Phase == PhaseIdle || s.Phase == PhaseStopped {
			return s, nil, nil
		}
		fx = append(fx, EffectStopCountdown{})
		if s.Phase == PhasePlaying {
			fx = append(fx, EffectPause{})
		}
		s.Phase = PhaseStopped
		s.PauseRemaining, s.PlayRemaining = 0, 0

	default:
		return s, nil, fmt.Errorf("unknown event %v", ev)
	}
	return s, fx, nil
}

func enterSegment(t Table, s State, idx int, fx []Effect) (State, []Effect) {
	s.Index = idx
	fx = append(fx, EffectSeek{Pos: t[idx].Start})
	return enterPausing(t, s, fx)
}

func enterPausing(t Table, s State, fx []Effect) (State, []Effect) {
	s.Phase = PhasePausing
	s.PlayRemaining = 0
	s.PauseRemaining = Seconds(t[s.Index].Pause)
	if s.PauseRemaining == 0 {
		return enterPlaying(t, s, fx)
	}
	return s, append(fx, EffectStartCountdown{Phase: PhasePausing})
}

func enterPlaying(t Table, s State, fx []Effect) (State, []Effect) {
	s.Phase = PhasePlaying
	s.PauseRemaining = 0
	s.PlayRemaining = Seconds(t[s.Index].Play)
	fx = append(fx, EffectPlay{})
	if s.PlayRemaining == 0 {
		return finishSegment(t, s, fx)
	}
	return s, append(fx, EffectStartCountdown{Phase: PhasePlaying})
}

func finishSegment(t Table, s State, fx []Effect) (State, []Effect) {
	fx = append(fx, EffectPause{})
	if s.Index >= t.Last() {
		s.Phase = PhaseStopped
		s.PauseRemaining, s.PlayRemaining = 0, 0
		return s, fx
	}
	return enterSegment(t, s, s.Index+1, fx)
}
