// Package media provides a virtual playback engine over a local file.
//
// Player does not decode anything. It tracks the position a real engine
// would report, which is enough to drive the segment scheduler and to
// feed position observers.
package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/warpdl/warpreel/pkg/logger"
)

var ErrClosed = errors.New("media: player closed")

// PlayerOpts configure a Player.
type PlayerOpts struct {
	// Now defaults to time.Now.
	Now    func() time.Time
	Logger logger.Logger
}

// Player implements playback.Media for a single local file.
type Player struct {
	fs   afero.Fs
	path string
	now  func() time.Time
	log  logger.Logger

	mu      sync.Mutex
	file    afero.File
	size    int64
	closed  bool
	playing bool
	pos     time.Duration
	since   time.Time
}

// NewPlayer creates a paused player for the file at path. The file is
// opened on first use.
func NewPlayer(fs afero.Fs, path string, opts *PlayerOpts) *Player {
	if opts == nil {
		opts = &PlayerOpts{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Player{
		fs:   fs,
		path: path,
		now:  now,
		log:  logger.OrNop(opts.Logger),
	}
}

// open lazily opens the file. It must be called with mu held.
func (p *Player) open() error {
	if p.closed {
		return ErrClosed
	}
	if p.file != nil {
		return nil
	}
	f, err := p.fs.Open(p.path)
	if err != nil {
		return fmt.Errorf("media: open: %w", err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("media: stat: %w", err)
	}
	if !fi.Mode().IsRegular() {
		f.Close()
		return fmt.Errorf("media: %s: %w", p.path, os.ErrInvalid)
	}
	p.file = f
	p.size = fi.Size()
	p.log.Info("media: opened %s (%d bytes)", p.path, p.size)
	return nil
}

// Seek moves the playhead. Playback continues from pos if it was playing.
func (p *Player) Seek(pos time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.open(); err != nil {
		return err
	}
	if pos < 0 {
		pos = 0
	}
	p.pos = pos
	if p.playing {
		p.since = p.now()
	}
	return nil
}

// Play resumes playback from the current position.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.open(); err != nil {
		return err
	}
	if !p.playing {
		p.playing = true
		p.since = p.now()
	}
	return nil
}

// Pause freezes the position.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if p.playing {
		p.pos += p.now().Sub(p.since)
		p.playing = false
	}
	return nil
}

// Position is the seek offset plus the time spent playing since.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position()
}

func (p *Player) position() time.Duration {
	if p.playing {
		return p.pos + p.now().Sub(p.since)
	}
	return p.pos
}

// Playing reports whether the player is playing.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Size returns the file size once the file has been opened.
func (p *Player) Size() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size
}

// Observe calls fn with the current position every interval while the
// player is playing. It blocks until ctx is done.
func (p *Player) Observe(ctx context.Context, interval time.Duration, fn func(time.Duration)) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.mu.Lock()
			playing, pos := p.playing, p.position()
			p.mu.Unlock()
			if playing {
				fn(pos)
			}
		}
	}
}

// Close stops playback and releases the file.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	p.playing = false
	if p.file != nil {
		return p.file.Close()
	}
	return nil
}
