package playback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/warpdl/warpreel/pkg/logger"
)

// Media is the playback engine the Scheduler drives. It is only ever given
// a local file, never a remote URL.
type Media interface {
	Seek(pos time.Duration) error
	Play() error
	Pause() error
}

// LocalSource reports whether the local media file can be played.
type LocalSource interface {
	IsLocalAvailable() bool
}

// Options configure a Scheduler. The zero value plays DefaultTable on the
// real clock without an availability check.
type Options struct {
	// Segments is the table to play. nil selects DefaultTable; an empty
	// non-nil table makes Start fail with ErrNoSegments.
	Segments Table
	// PreviousFloor, see TransitionOpts.
	PreviousFloor int
	Clock         Clock
	// Source is consulted by Start; a missing file fails Start with
	// ErrMediaUnavailable.
	Source   LocalSource
	Handlers *Handlers
	Logger   logger.Logger
}

type cmdKind int

const (
	cmdEvent cmdKind = iota
	cmdSnapshot
)

type command struct {
	kind  cmdKind
	ev    Event
	reply chan result
}

type result struct {
	state  State
	active Phase
	err    error
}

// Scheduler runs the playback state machine on a single goroutine. Commands
// and countdown ticks are handled strictly one at a time, in arrival order.
type Scheduler struct {
	ctx  context.Context
	cmds chan command
	done chan struct{}

	table    Table
	topts    TransitionOpts
	media    Media
	clock    Clock
	source   LocalSource
	handlers *Handlers
	log      logger.Logger

	// owned by the loop goroutine
	state          State
	countdown      Ticker
	countdownPhase Phase
	pauseLabel     string
	timerLabel     string
}

// New validates opts and starts the scheduler goroutine. The goroutine exits
// when ctx is cancelled, stopping the countdown and pausing the media if it
// was playing; view handlers are not called after that point.
func New(ctx context.Context, media Media, opts *Options) (*Scheduler, error) {
	if media == nil {
		return nil, errors.New("playback: nil media")
	}
	if opts == nil {
		opts = &Options{}
	}
	table := opts.Segments
	if table == nil {
		table = DefaultTable
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	if opts.PreviousFloor < 0 {
		return nil, fmt.Errorf("playback: negative previous floor %d", opts.PreviousFloor)
	}
	clock := opts.Clock
	if clock == nil {
		clock = RealClock{}
	}
	handlers := &Handlers{}
	if opts.Handlers != nil {
		*handlers = *opts.Handlers
	}
	handlers.setDefault()

	s := &Scheduler{
		ctx:      ctx,
		cmds:     make(chan command),
		done:     make(chan struct{}),
		table:    append(Table(nil), table...),
		topts:    TransitionOpts{PreviousFloor: opts.PreviousFloor},
		media:    media,
		clock:    clock,
		source:   opts.Source,
		handlers: handlers,
		log:      logger.OrNop(opts.Logger),
	}
	go s.run()
	return s, nil
}

// Start seeks to the first segment and begins its pause countdown,
// restarting from the top if playback is already under way.
func (s *Scheduler) Start() error { return s.event(EventStart) }

// Next moves to the following segment. It is a no-op on the last one.
func (s *Scheduler) Next() error { return s.event(EventNext) }

// Previous moves to the preceding segment. It is a no-op at or below the
// configured floor.
func (s *Scheduler) Previous() error { return s.event(EventPrevious) }

// Stop cancels the countdown and pauses the media.
func (s *Scheduler) Stop() error { return s.event(EventStop) }

// Snapshot returns the current state.
func (s *Scheduler) Snapshot() (State, error) {
	r, err := s.send(command{kind: cmdSnapshot})
	return r.state, err
}

// ActiveCountdown returns the phase whose countdown ticker is live, or
// PhaseIdle when none is.
func (s *Scheduler) ActiveCountdown() (Phase, error) {
	r, err := s.send(command{kind: cmdSnapshot})
	return r.active, err
}

// Done is closed once the scheduler goroutine has exited.
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// Segments returns a copy of the table being played.
func (s *Scheduler) Segments() Table {
	return append(Table(nil), s.table...)
}

func (s *Scheduler) event(ev Event) error {
	r, err := s.send(command{kind: cmdEvent, ev: ev})
	if err != nil {
		return err
	}
	return r.err
}

func (s *Scheduler) send(c command) (result, error) {
	c.reply = make(chan result, 1)
	select {
	case s.cmds <- c:
	case <-s.done:
		return result{}, ErrClosed
	}
	return <-c.reply, nil
}

func (s *Scheduler) run() {
	defer close(s.done)
	defer s.teardown()
	for {
		select {
		case <-s.ctx.Done():
			return
		case c := <-s.cmds:
			c.reply <- s.handle(c)
		case <-s.tickC():
			if err := s.apply(EventTick); err != nil {
				s.log.Error("segment %d: %v", s.state.Index, err)
			}
		}
	}
}

// tickC returns the live countdown channel. A nil channel blocks forever,
// so ticks of a stopped countdown are never observed.
func (s *Scheduler) tickC() <-chan time.Time {
	if s.countdown == nil {
		return nil
	}
	return s.countdown.C()
}

func (s *Scheduler) handle(c command) result {
	if c.kind == cmdEvent {
		if c.ev == EventStart && s.source != nil && !s.source.IsLocalAvailable() {
			return s.result(ErrMediaUnavailable)
		}
		return s.result(s.apply(c.ev))
	}
	return s.result(nil)
}

func (s *Scheduler) result(err error) result {
	active := PhaseIdle
	if s.countdown != nil {
		active = s.countdownPhase
	}
	return result{state: s.state, active: active, err: err}
}

// apply runs one transition. Effects are all carried out even if one of
// them fails; the first failure is returned.
func (s *Scheduler) apply(ev Event) error {
	next, fx, err := Transition(s.table, s.state, ev, s.topts)
	if err != nil {
		return err
	}
	prev := s.state
	s.state = next

	var firstErr error
	for _, f := range fx {
		if err := s.exec(f); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.render(prev)
	return firstErr
}

func (s *Scheduler) exec(f Effect) error {
	switch f := f.(type) {
	case EffectSeek:
		if err := s.media.Seek(f.Pos); err != nil {
			return fmt.Errorf("seek to %s: %w", f.Pos, err)
		}
	case EffectPlay:
		if err := s.media.Play(); err != nil {
			return fmt.Errorf("play: %w", err)
		}
	case EffectPause:
		if err := s.media.Pause(); err != nil {
			return fmt.Errorf("pause: %w", err)
		}
	case EffectStopCountdown:
		s.stopCountdown()
	case EffectStartCountdown:
		s.stopCountdown()
		s.countdown = s.clock.NewTicker(time.Second)
		s.countdownPhase = f.Phase
	}
	return nil
}

func (s *Scheduler) stopCountdown() {
	if s.countdown != nil {
		s.countdown.Stop()
		s.countdown = nil
	}
	s.countdownPhase = PhaseIdle
}

func (s *Scheduler) render(prev State) {
	pause, timer := Labels(s.state)
	if pause != s.pauseLabel {
		s.pauseLabel = pause
		s.handlers.PauseLabelHandler(pause)
	}
	if timer != s.timerLabel {
		s.timerLabel = timer
		s.handlers.TimerLabelHandler(timer)
	}
	if prev.Phase != s.state.Phase || prev.Index != s.state.Index {
		s.handlers.PhaseChangedHandler(s.state)
	}
}

func (s *Scheduler) teardown() {
	s.stopCountdown()
	if s.state.Phase == PhasePlaying {
		if err := s.media.Pause(); err != nil {
			s.log.Warning("pause on teardown: %v", err)
		}
	}
	if s.state.Phase == PhasePausing || s.state.Phase == PhasePlaying {
		s.state.Phase = PhaseStopped
	}
}
