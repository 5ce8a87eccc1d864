package server

import (
	"context"
	"sync"

	"github.com/warpdl/warpreel/internal/flow"
	"github.com/warpdl/warpreel/pkg/fetch"
	"github.com/warpdl/warpreel/pkg/playback"
)

// playerSession opens the player screen on first use and keeps it for the
// life of the server. It is the presenter's Router.
type playerSession struct {
	ctx   context.Context
	store *fetch.Store
	opts  flow.PlayerScreenOpts

	mu     sync.Mutex
	screen *flow.PlayerScreen
	closed bool
}

func newPlayerSession(ctx context.Context, store *fetch.Store, opts flow.PlayerScreenOpts) *playerSession {
	return &playerSession{ctx: ctx, store: store, opts: opts}
}

func (p *playerSession) ShowPlayer() error {
	return p.start()
}

// start opens the screen if needed and (re)starts playback.
func (p *playerSession) start() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return playback.ErrClosed
	}
	if p.screen == nil {
		opts := p.opts
		screen, err := flow.NewPlayerScreen(p.ctx, p.store, &opts)
		if err != nil {
			p.mu.Unlock()
			return err
		}
		p.screen = screen
	}
	screen := p.screen
	p.mu.Unlock()
	return screen.Open()
}

func (p *playerSession) scheduler() (*playback.Scheduler, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, playback.ErrClosed
	}
	if p.screen == nil {
		return nil, playback.ErrNotStarted
	}
	return p.screen.Scheduler(), nil
}

func (p *playerSession) segments() playback.Table {
	if p.opts.Segments != nil {
		return p.opts.Segments
	}
	return playback.DefaultTable
}

func (p *playerSession) close() error {
	p.mu.Lock()
	screen := p.screen
	p.screen = nil
	p.closed = true
	p.mu.Unlock()
	if screen == nil {
		return nil
	}
	return screen.Close()
}
