package playback

import (
	"context"
	"testing"
	"time"
)

func TestManualClock_TickDelivers(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	if clock.Tick() {
		t.Fatal("Tick with no tickers reported a delivery")
	}
	tk := clock.NewTicker(time.Second)
	got := make(chan time.Time, 1)
	go func() { got <- <-tk.C() }()
	if !clock.Tick() {
		t.Fatal("Tick did not deliver to a live ticker")
	}
	if at := <-got; !at.Equal(time.Unix(2, 0)) {
		t.Fatalf("tick time = %v", at)
	}
	tk.Stop()
	tk.Stop()
	if clock.Live() != 0 {
		t.Fatalf("Live() = %d after Stop", clock.Live())
	}
}

func TestManualClock_TickSkipsTickerStoppedWhileWaiting(t *testing.T) {
	clock := NewManualClock(time.Unix(0, 0))
	tk := clock.NewTicker(time.Second)

	done := make(chan bool)
	go func() { done <- clock.Tick() }()
	time.Sleep(20 * time.Millisecond)
	tk.Stop()

	select {
	case fired := <-done:
		if fired {
			t.Fatal("no tick was received, Tick should report false")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Tick blocked on a stopped ticker")
	}
}

func TestManualClock_TickRacingNavigation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	clock := NewManualClock(time.Unix(0, 0))
	tbl := Table{
		{Pause: sec(50), Play: sec(50)},
		{Start: sec(10), Pause: sec(50), Play: sec(50)},
	}
	s, err := New(ctx, &fakeMedia{}, &Options{Segments: tbl, Clock: clock})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}

	navDone := make(chan struct{})
	go func() {
		defer close(navDone)
		for i := 0; i < 200; i++ {
			if i%2 == 0 {
				s.Next()
			} else {
				s.Previous()
			}
		}
	}()

	ticksDone := make(chan struct{})
	go func() {
		defer close(ticksDone)
		for i := 0; i < 200; i++ {
			clock.Tick()
		}
	}()

	for _, ch := range []chan struct{}{navDone, ticksDone} {
		select {
		case <-ch:
		case <-time.After(5 * time.Second):
			t.Fatal("ticks and navigation deadlocked")
		}
	}
}
