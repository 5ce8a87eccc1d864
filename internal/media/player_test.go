package media

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
)

type fakeNow struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeNow) now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeNow) advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func newTestPlayer(t *testing.T) (*Player, *fakeNow) {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/m/test.mp4", []byte("not really a video"), 0644); err != nil {
		t.Fatal(err)
	}
	clk := &fakeNow{t: time.Unix(100, 0)}
	return NewPlayer(fs, "/m/test.mp4", &PlayerOpts{Now: clk.now}), clk
}

func TestPlayer_PositionTracking(t *testing.T) {
	p, clk := newTestPlayer(t)
	defer p.Close()

	if err := p.Seek(30 * time.Second); err != nil {
		t.Fatal(err)
	}
	if p.Size() != int64(len("not really a video")) {
		t.Fatalf("size = %d", p.Size())
	}
	clk.advance(5 * time.Second)
	if got := p.Position(); got != 30*time.Second {
		t.Fatalf("paused position moved: %v", got)
	}

	if err := p.Play(); err != nil {
		t.Fatal(err)
	}
	clk.advance(4 * time.Second)
	if got := p.Position(); got != 34*time.Second {
		t.Fatalf("position = %v, want 34s", got)
	}
	if err := p.Pause(); err != nil {
		t.Fatal(err)
	}
	clk.advance(time.Minute)
	if got := p.Position(); got != 34*time.Second {
		t.Fatalf("position after pause = %v, want 34s", got)
	}

	if err := p.Play(); err != nil {
		t.Fatal(err)
	}
	clk.advance(2 * time.Second)
	if err := p.Seek(60 * time.Second); err != nil {
		t.Fatal(err)
	}
	clk.advance(time.Second)
	if got := p.Position(); got != 61*time.Second || !p.Playing() {
		t.Fatalf("seek while playing: %v playing=%v", got, p.Playing())
	}
}

func TestPlayer_MissingFile(t *testing.T) {
	p := NewPlayer(afero.NewMemMapFs(), "/nope.mp4", nil)
	if err := p.Seek(0); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if err := p.Play(); err == nil {
		t.Fatal("play must fail without a file")
	}
}

func TestPlayer_Directory(t *testing.T) {
	fs := afero.NewMemMapFs()
	fs.MkdirAll("/m/test.mp4", 0755)
	p := NewPlayer(fs, "/m/test.mp4", nil)
	if err := p.Seek(0); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestPlayer_Close(t *testing.T) {
	p, _ := newTestPlayer(t)
	if err := p.Play(); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatal("second close should be a no-op")
	}
	if err := p.Seek(0); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := p.Pause(); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestPlayer_Observe(t *testing.T) {
	p, _ := newTestPlayer(t)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan time.Duration, 16)
	done := make(chan struct{})
	go func() {
		p.Observe(ctx, time.Millisecond, func(pos time.Duration) {
			select {
			case got <- pos:
			default:
			}
		})
		close(done)
	}()

	if err := p.Seek(10 * time.Second); err != nil {
		t.Fatal(err)
	}
	select {
	case pos := <-got:
		t.Fatalf("observer fired while paused: %v", pos)
	case <-time.After(20 * time.Millisecond):
	}

	if err := p.Play(); err != nil {
		t.Fatal(err)
	}
	select {
	case pos := <-got:
		if pos != 10*time.Second {
			t.Fatalf("position = %v, want 10s on a frozen clock", pos)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("observer never fired while playing")
	}
	cancel()
	<-done
}
