package playback

type (
	// LabelHandlerFunc receives new label text.
	LabelHandlerFunc func(text string)
	// PhaseChangedHandlerFunc receives the state after a transition that
	// changed the phase or the segment index.
	PhaseChangedHandlerFunc func(s State)
)

// Handlers are the view callbacks of a Scheduler. They run on the scheduler
// goroutine, must not block for long and must not call back into the
// Scheduler.
type Handlers struct {
	TimerLabelHandler   LabelHandlerFunc
	PauseLabelHandler   LabelHandlerFunc
	PhaseChangedHandler PhaseChangedHandlerFunc
}

func (h *Handlers) setDefault() {
	if h.TimerLabelHandler == nil {
		h.TimerLabelHandler = func(string) {}
	}
	if h.PauseLabelHandler == nil {
		h.PauseLabelHandler = func(string) {}
	}
	if h.PhaseChangedHandler == nil {
		h.PhaseChangedHandler = func(State) {}
	}
}
