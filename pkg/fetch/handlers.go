package fetch

type (
	// StateChangedHandlerFunc receives every state the controller enters.
	StateChangedHandlerFunc func(s State)
	// StartHandlerFunc receives the transfer id and the content length once
	// the source has been opened. The length is -1 when unknown.
	StartHandlerFunc func(id string, length int64)
	// ProgressHandlerFunc receives the transfer id and the number of bytes
	// in each received chunk.
	ProgressHandlerFunc func(id string, nread int)
	// ErrorHandlerFunc receives the transfer id and the error that ended it.
	ErrorHandlerFunc func(id string, err error)
)

// Handlers are called from the transfer goroutine, except for the first
// Downloading state which is emitted by Fetch itself. They are never called
// with the controller lock held.
type Handlers struct {
	StateChangedHandler StateChangedHandlerFunc
	StartHandler        StartHandlerFunc
	ProgressHandler     ProgressHandlerFunc
	ErrorHandler        ErrorHandlerFunc
}

func (h *Handlers) setDefault() {
	if h.StateChangedHandler == nil {
		h.StateChangedHandler = func(State) {}
	}
	if h.StartHandler == nil {
		h.StartHandler = func(string, int64) {}
	}
	if h.ProgressHandler == nil {
		h.ProgressHandler = func(string, int) {}
	}
	if h.ErrorHandler == nil {
		h.ErrorHandler = func(string, error) {}
	}
}
