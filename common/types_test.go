package common

import (
	"encoding/json"
	"testing"
)

func TestVideoStateNotificationOmitsEmptyError(t *testing.T) {
	b, err := json.Marshal(VideoStateNotification{State: "downloading", Progress: 0.5})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if got := string(b); got != `{"state":"downloading","progress":0.5}` {
		t.Fatalf("unexpected encoding: %s", got)
	}
}

func TestPlayerPhaseNotificationFieldNames(t *testing.T) {
	b, err := json.Marshal(PlayerPhaseNotification{Index: 2, Phase: "playing", PlayRemaining: 7})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"index":2,"phase":"playing","pauseRemaining":0,"playRemaining":7}`
	if string(b) != want {
		t.Fatalf("got %s, want %s", b, want)
	}
}
