package flow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/goleak"

	"github.com/warpdl/warpreel/pkg/fetch"
	"github.com/warpdl/warpreel/pkg/playback"
)

func TestPlayerScreen_PlaysAndCloses(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	fs := afero.NewMemMapFs()
	store := fetch.NewStore(fs, "/m", "test.mp4", nil)
	if err := store.Replace([]byte("video")); err != nil {
		t.Fatal(err)
	}
	clock := playback.NewManualClock(time.Unix(0, 0))
	ps, err := NewPlayerScreen(context.Background(), store, &PlayerScreenOpts{
		Segments: playback.Table{
			{Start: 0, Pause: time.Second, Play: 2 * time.Second},
			{Start: 30 * time.Second, Pause: time.Second, Play: 2 * time.Second},
		},
		Clock:           clock,
		PositionHandler: func(time.Duration) {},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := ps.Open(); err != nil {
		t.Fatal(err)
	}
	clock.Tick()
	st, err := ps.Scheduler().Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if st.Phase != playback.PhasePlaying || !ps.Media().Playing() {
		t.Fatalf("expected playing, got %+v playing=%v", st, ps.Media().Playing())
	}

	if err := ps.Scheduler().Next(); err != nil {
		t.Fatal(err)
	}
	if ps.Media().Playing() {
		t.Fatal("next must pause the media")
	}
	if pos := ps.Media().Position(); pos != 30*time.Second {
		t.Fatalf("position = %v, want 30s", pos)
	}

	if err := ps.Close(); err != nil {
		t.Fatal(err)
	}
	if err := ps.Close(); err != nil {
		t.Fatal(err)
	}
	if clock.Live() != 0 {
		t.Fatal("countdown still live after close")
	}
	if err := ps.Scheduler().Next(); !errors.Is(err, playback.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestPlayerScreen_RequiresLocalFile(t *testing.T) {
	store := fetch.NewStore(afero.NewMemMapFs(), "/m", "test.mp4", nil)
	ps, err := NewPlayerScreen(context.Background(), store, &PlayerScreenOpts{
		Clock: playback.NewManualClock(time.Unix(0, 0)),
	})
	if err != nil {
		t.Fatal(err)
	}
	defer ps.Close()
	if err := ps.Open(); !errors.Is(err, playback.ErrMediaUnavailable) {
		t.Fatalf("expected ErrMediaUnavailable, got %v", err)
	}
}

func TestPlayerScreen_InvalidTable(t *testing.T) {
	store := fetch.NewStore(afero.NewMemMapFs(), "/m", "test.mp4", nil)
	_, err := NewPlayerScreen(context.Background(), store, &PlayerScreenOpts{
		Segments: playback.Table{{Pause: -time.Second}},
	})
	if !errors.Is(err, playback.ErrInvalidSegment) {
		t.Fatalf("expected ErrInvalidSegment, got %v", err)
	}
}
