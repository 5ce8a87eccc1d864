// Package flow wires the download controller and the segment scheduler to
// a view: the fetch screen's single button and the player screen.
package flow

import (
	"context"
	"fmt"
	"sync"

	"github.com/warpdl/warpreel/pkg/fetch"
	"github.com/warpdl/warpreel/pkg/logger"
)

// Fetcher is the part of fetch.Controller the fetch screen uses.
type Fetcher interface {
	IsLocalAvailable() bool
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// Router switches screens.
type Router interface {
	ShowPlayer() error
}

// ButtonState is what the fetch screen button currently offers.
type ButtonState int

const (
	ButtonDownload ButtonState = iota
	ButtonProgress
	ButtonPlay
	ButtonRetry
)

func (b ButtonState) String() string {
	switch b {
	case ButtonDownload:
		return "download"
	case ButtonProgress:
		return "progress"
	case ButtonPlay:
		return "play"
	case ButtonRetry:
		return "retry"
	}
	return fmt.Sprintf("ButtonState(%d)", int(b))
}

// PresenterOpts configure a FetchPresenter.
type PresenterOpts struct {
	URL string
	// ButtonLabelHandler receives the new label whenever it changes.
	ButtonLabelHandler func(label string)
	Logger             logger.Logger
}

// FetchPresenter maps download states to the fetch screen button and routes
// taps to the controller or the player.
type FetchPresenter struct {
	ctx     context.Context
	fetcher Fetcher
	router  Router
	url     string
	onLabel func(string)
	log     logger.Logger

	mu    sync.Mutex
	state ButtonState
	label string
}

// NewFetchPresenter creates a presenter in the Download state. Call
// TryFetch to pick the initial state.
func NewFetchPresenter(ctx context.Context, fetcher Fetcher, router Router, opts *PresenterOpts) *FetchPresenter {
	if opts == nil {
		opts = &PresenterOpts{}
	}
	onLabel := opts.ButtonLabelHandler
	if onLabel == nil {
		onLabel = func(string) {}
	}
	return &FetchPresenter{
		ctx:     ctx,
		fetcher: fetcher,
		router:  router,
		url:     opts.URL,
		onLabel: onLabel,
		log:     logger.OrNop(opts.Logger),
	}
}

// ButtonLabel returns the label currently shown.
func (p *FetchPresenter) ButtonLabel() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.label
}

// State returns what the button currently offers.
func (p *FetchPresenter) State() ButtonState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// TryFetch sets the button to Play when the file is already local and to
// Download otherwise.
func (p *FetchPresenter) TryFetch() {
	if p.fetcher.IsLocalAvailable() {
		p.set(ButtonPlay, "Play")
		return
	}
	p.set(ButtonDownload, "Download")
}

// Tap handles a button press. Taps while a download is running are ignored.
func (p *FetchPresenter) Tap() error {
	switch p.State() {
	case ButtonPlay:
		return p.router.ShowPlayer()
	case ButtonProgress:
		return nil
	}
	// The controller reports Downloading through HandleState before Fetch
	// returns, so p.mu must not be held here.
	if _, err := p.fetcher.Fetch(p.ctx, p.url); err != nil {
		p.log.Error("fetch %s: %v", p.url, err)
		p.set(ButtonRetry, retryLabel(err))
		return err
	}
	return nil
}

// HandleState is the controller's StateChangedHandler.
func (p *FetchPresenter) HandleState(s fetch.State) {
	switch s.Kind {
	case fetch.KindDownload:
		p.set(ButtonDownload, "Download")
	case fetch.KindDownloading:
		p.set(ButtonProgress, fmt.Sprintf("Progress: %d%%", int(s.Progress*100)))
	case fetch.KindDownloaded:
		p.set(ButtonPlay, "Play")
	case fetch.KindFailed:
		p.set(ButtonRetry, retryLabel(s.Err))
	}
}

func retryLabel(err error) string {
	if err == nil {
		return "Retry"
	}
	return "Retry: " + err.Error()
}

func (p *FetchPresenter) set(state ButtonState, label string) {
	p.mu.Lock()
	p.state = state
	changed := label != p.label
	p.label = label
	p.mu.Unlock()
	if changed {
		p.onLabel(label)
	}
}
