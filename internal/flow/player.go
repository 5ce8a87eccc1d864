package flow

import (
	"context"
	"sync"
	"time"

	"github.com/warpdl/warpreel/internal/media"
	"github.com/warpdl/warpreel/pkg/fetch"
	"github.com/warpdl/warpreel/pkg/logger"
	"github.com/warpdl/warpreel/pkg/playback"
)

// PlayerScreenOpts configure a PlayerScreen.
type PlayerScreenOpts struct {
	Segments      playback.Table
	PreviousFloor int
	Clock         playback.Clock
	Handlers      *playback.Handlers
	Logger        logger.Logger
	// PositionHandler, if set, receives the media position every
	// PositionInterval (default one second) while playing.
	PositionHandler  func(time.Duration)
	PositionInterval time.Duration
	// Now is passed to the media player.
	Now func() time.Time
}

// PlayerScreen owns the media player and the scheduler driving it for as
// long as the player is shown.
type PlayerScreen struct {
	media  *media.Player
	sched  *playback.Scheduler
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewPlayerScreen plays the store's file. Nothing is played until Open.
func NewPlayerScreen(ctx context.Context, store *fetch.Store, opts *PlayerScreenOpts) (*PlayerScreen, error) {
	if opts == nil {
		opts = &PlayerScreenOpts{}
	}
	ctx, cancel := context.WithCancel(ctx)
	m := media.NewPlayer(store.Fs(), store.Path(), &media.PlayerOpts{
		Now:    opts.Now,
		Logger: opts.Logger,
	})
	sched, err := playback.New(ctx, m, &playback.Options{
		Segments:      opts.Segments,
		PreviousFloor: opts.PreviousFloor,
		Clock:         opts.Clock,
		Source:        storeSource{store},
		Handlers:      opts.Handlers,
		Logger:        opts.Logger,
	})
	if err != nil {
		cancel()
		return nil, err
	}
	ps := &PlayerScreen{media: m, sched: sched, cancel: cancel}
	if opts.PositionHandler != nil {
		interval := opts.PositionInterval
		if interval <= 0 {
			interval = time.Second
		}
		ps.wg.Add(1)
		go func() {
			defer ps.wg.Done()
			m.Observe(ctx, interval, opts.PositionHandler)
		}()
	}
	return ps, nil
}

// Open starts playback from the first segment.
func (ps *PlayerScreen) Open() error {
	return ps.sched.Start()
}

// Scheduler returns the scheduler driving playback.
func (ps *PlayerScreen) Scheduler() *playback.Scheduler {
	return ps.sched
}

func (ps *PlayerScreen) Media() *media.Player {
	return ps.media
}

// Close cancels the countdown, pauses the media and waits for the
// scheduler to exit. It is safe to call more than once.
func (ps *PlayerScreen) Close() error {
	var err error
	ps.once.Do(func() {
		ps.cancel()
		<-ps.sched.Done()
		ps.wg.Wait()
		err = ps.media.Close()
	})
	return err
}

type storeSource struct {
	store *fetch.Store
}

func (s storeSource) IsLocalAvailable() bool {
	return s.store.Exists()
}
