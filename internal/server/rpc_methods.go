package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/creachadair/jrpc2/jhttp"

	"github.com/warpdl/warpreel/internal/flow"
	"github.com/warpdl/warpreel/pkg/fetch"
	"github.com/warpdl/warpreel/pkg/logger"
	"github.com/warpdl/warpreel/pkg/playback"
)

// Custom JSON-RPC error codes.
const (
	codeInvalidParams    = jrpc2.Code(-32602)
	codeInternal         = jrpc2.Code(-32603)
	codeTransferBusy     = jrpc2.Code(-32010)
	codeMediaUnavailable = jrpc2.Code(-32011)
	codeNotStarted       = jrpc2.Code(-32012)
	codePlayerClosed     = jrpc2.Code(-32013)
)

// RPCConfig holds configuration for the JSON-RPC endpoints.
type RPCConfig struct {
	Secret    string // Auth token; empty disables RPC
	Version   string
	Commit    string
	BuildType string
	// URL is fetched by video.fetch when no url param is given.
	URL string
}

// RPCServer holds the method table shared by the HTTP bridge and every
// websocket peer.
type RPCServer struct {
	ctx        context.Context
	cfg        RPCConfig
	methods    handler.Map
	bridge     jhttp.Bridge
	controller *fetch.Controller
	presenter  *flow.FetchPresenter
	player     *playerSession
	notifier   *RPCNotifier
	log        logger.Logger
}

// VersionResult is returned by system.getVersion.
type VersionResult struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	BuildType string `json:"buildType,omitempty"`
}

// VideoStatusResult is the response for video.status.
type VideoStatusResult struct {
	State    string  `json:"state"`
	Progress float64 `json:"progress"`
	Error    string  `json:"error,omitempty"`
	Local    bool    `json:"local"`
	Path     string  `json:"path"`
	Size     int64   `json:"size"`
	Button   string  `json:"button"`
}

// FetchParams is the input for video.fetch.
type FetchParams struct {
	URL string `json:"url,omitempty"`
}

// FetchResult carries the id of the started transfer.
type FetchResult struct {
	ID string `json:"id"`
}

// ButtonResult is the response for view.tap.
type ButtonResult struct {
	State string `json:"state"`
	Label string `json:"label"`
}

// PlayerStatusResult describes the scheduler after a player method.
type PlayerStatusResult struct {
	Index          int    `json:"index"`
	Phase          string `json:"phase"`
	PauseRemaining int    `json:"pauseRemaining"`
	PlayRemaining  int    `json:"playRemaining"`
	PauseLabel     string `json:"pauseLabel"`
	TimerLabel     string `json:"timerLabel"`
	Segments       int    `json:"segments"`
}

// EmptyResult is returned by methods with nothing to report.
type EmptyResult struct{}

// NewRPCServer registers every method. Transfers started over RPC are
// bound to ctx rather than to the request.
func NewRPCServer(ctx context.Context, cfg *RPCConfig, c *fetch.Controller, p *flow.FetchPresenter, player *playerSession, n *RPCNotifier, l logger.Logger) *RPCServer {
	rs := &RPCServer{
		ctx:        ctx,
		cfg:        *cfg,
		controller: c,
		presenter:  p,
		player:     player,
		notifier:   n,
		log:        logger.OrNop(l),
	}
	rs.methods = handler.Map{
		"system.getVersion": handler.New(rs.systemGetVersion),
		"video.status":      handler.New(rs.videoStatus),
		"video.fetch":       handler.New(rs.videoFetch),
		"video.cancel":      handler.New(rs.videoCancel),
		"view.tap":          handler.New(rs.viewTap),
		"player.start":      handler.New(rs.playerStart),
		"player.next":       handler.New(rs.playerNext),
		"player.previous":   handler.New(rs.playerPrevious),
		"player.stop":       handler.New(rs.playerStop),
		"player.status":     handler.New(rs.playerStatus),
	}
	rs.bridge = jhttp.NewBridge(rs.methods, nil)
	return rs
}

// ServeHTTP serves plain HTTP JSON-RPC requests.
func (rs *RPCServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rs.bridge.ServeHTTP(w, r)
}

func (rs *RPCServer) systemGetVersion(_ context.Context) (*VersionResult, error) {
	return &VersionResult{
		Version:   rs.cfg.Version,
		Commit:    rs.cfg.Commit,
		BuildType: rs.cfg.BuildType,
	}, nil
}

func (rs *RPCServer) videoStatus(_ context.Context) (*VideoStatusResult, error) {
	st := rs.controller.State()
	store := rs.controller.Store()
	res := &VideoStatusResult{
		State:    st.Kind.String(),
		Progress: st.Progress,
		Local:    store.Exists(),
		Path:     store.Path(),
		Button:   rs.presenter.ButtonLabel(),
	}
	if st.Err != nil {
		res.Error = st.Err.Error()
	}
	if res.Local {
		if fi, err := store.Stat(); err == nil {
			res.Size = fi.Size()
		}
	}
	return res, nil
}

// videoFetch starts a transfer. It is bound to the server's lifetime, not
// to the request.
func (rs *RPCServer) videoFetch(_ context.Context, p *FetchParams) (*FetchResult, error) {
	url := p.URL
	if url == "" {
		url = rs.cfg.URL
	}
	id, err := rs.controller.Fetch(rs.ctx, url)
	if err != nil {
		return nil, rpcError(err)
	}
	return &FetchResult{ID: id}, nil
}

func (rs *RPCServer) videoCancel(_ context.Context) (*EmptyResult, error) {
	rs.controller.Cancel()
	return &EmptyResult{}, nil
}

func (rs *RPCServer) viewTap(_ context.Context) (*ButtonResult, error) {
	if err := rs.presenter.Tap(); err != nil {
		return nil, rpcError(err)
	}
	return &ButtonResult{
		State: rs.presenter.State().String(),
		Label: rs.presenter.ButtonLabel(),
	}, nil
}

func (rs *RPCServer) playerStart(_ context.Context) (*PlayerStatusResult, error) {
	if err := rs.player.start(); err != nil {
		return nil, rpcError(err)
	}
	return rs.status()
}

func (rs *RPCServer) playerNext(_ context.Context) (*PlayerStatusResult, error) {
	return rs.playerCommand((*playback.Scheduler).Next)
}

func (rs *RPCServer) playerPrevious(_ context.Context) (*PlayerStatusResult, error) {
	return rs.playerCommand((*playback.Scheduler).Previous)
}

func (rs *RPCServer) playerStop(_ context.Context) (*PlayerStatusResult, error) {
	return rs.playerCommand((*playback.Scheduler).Stop)
}

func (rs *RPCServer) playerCommand(cmd func(*playback.Scheduler) error) (*PlayerStatusResult, error) {
	sched, err := rs.player.scheduler()
	if err != nil {
		return nil, rpcError(err)
	}
	if err := cmd(sched); err != nil {
		return nil, rpcError(err)
	}
	return rs.status()
}

func (rs *RPCServer) playerStatus(_ context.Context) (*PlayerStatusResult, error) {
	return rs.status()
}

// status reports Idle when no player has been opened yet.
func (rs *RPCServer) status() (*PlayerStatusResult, error) {
	sched, err := rs.player.scheduler()
	if errors.Is(err, playback.ErrNotStarted) {
		pause, timer := playback.Labels(playback.State{})
		return &PlayerStatusResult{
			Phase:      playback.PhaseIdle.String(),
			PauseLabel: pause,
			TimerLabel: timer,
			Segments:   len(rs.player.segments()),
		}, nil
	}
	if err != nil {
		return nil, rpcError(err)
	}
	st, err := sched.Snapshot()
	if err != nil {
		return nil, rpcError(err)
	}
	pause, timer := playback.Labels(st)
	return &PlayerStatusResult{
		Index:          st.Index,
		Phase:          st.Phase.String(),
		PauseRemaining: st.PauseRemaining,
		PlayRemaining:  st.PlayRemaining,
		PauseLabel:     pause,
		TimerLabel:     timer,
		Segments:       len(sched.Segments()),
	}, nil
}

// rpcError maps package errors to JSON-RPC error codes.
func rpcError(err error) error {
	code := codeInternal
	switch {
	case errors.Is(err, fetch.ErrInvalidURL), errors.Is(err, fetch.ErrUnsupportedScheme):
		code = codeInvalidParams
	case errors.Is(err, fetch.ErrTransferInProgress):
		code = codeTransferBusy
	case errors.Is(err, playback.ErrMediaUnavailable):
		code = codeMediaUnavailable
	case errors.Is(err, playback.ErrNotStarted):
		code = codeNotStarted
	case errors.Is(err, playback.ErrClosed):
		code = codePlayerClosed
	}
	return &jrpc2.Error{Code: code, Message: err.Error()}
}

// Close shuts down the bridge.
func (rs *RPCServer) Close() {
	rs.bridge.Close()
}
