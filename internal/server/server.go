// Package server exposes the download controller and the player over
// JSON-RPC 2.0, on plain HTTP and on websockets with push notifications.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/warpdl/warpreel/internal/flow"
	"github.com/warpdl/warpreel/pkg/fetch"
	"github.com/warpdl/warpreel/pkg/logger"
	"github.com/warpdl/warpreel/pkg/playback"
)

const shutdownTimeout = 5 * time.Second

// Config configures a Server.
type Config struct {
	RPC   RPCConfig
	Store *fetch.Store
	// Client is used for http(s) transfers.
	Client        *http.Client
	Segments      playback.Table
	PreviousFloor int
	Clock         playback.Clock
	// PositionInterval is how often player.position is pushed while a
	// segment plays. Zero means one second.
	PositionInterval time.Duration
	Logger           logger.Logger
}

// Server wires the fetch screen and the player screen to the RPC surface.
type Server struct {
	log        logger.Logger
	secret     string
	controller *fetch.Controller
	presenter  *flow.FetchPresenter
	player     *playerSession
	notifier   *RPCNotifier
	rpc        *RPCServer

	closeOnce sync.Once
}

// New builds the server. Transfers and playback are bound to ctx.
func New(ctx context.Context, cfg *Config) *Server {
	l := logger.OrNop(cfg.Logger)
	n := NewRPCNotifier(l)
	player := newPlayerSession(ctx, cfg.Store, flow.PlayerScreenOpts{
		Segments:         cfg.Segments,
		PreviousFloor:    cfg.PreviousFloor,
		Clock:            cfg.Clock,
		Handlers:         n.PlaybackHandlers(),
		Logger:           l,
		PositionHandler:  n.Position,
		PositionInterval: cfg.PositionInterval,
	})

	s := &Server{
		log:      l,
		secret:   cfg.RPC.Secret,
		player:   player,
		notifier: n,
	}
	s.controller = fetch.NewController(cfg.Store, &fetch.ControllerOpts{
		Client: cfg.Client,
		Logger: l,
		Handlers: &fetch.Handlers{
			StateChangedHandler: func(st fetch.State) {
				s.presenter.HandleState(st)
				n.VideoState(st)
			},
		},
	})
	s.presenter = flow.NewFetchPresenter(ctx, s.controller, player, &flow.PresenterOpts{
		URL:                cfg.RPC.URL,
		ButtonLabelHandler: n.ButtonLabel,
		Logger:             l,
	})
	s.presenter.TryFetch()
	s.rpc = NewRPCServer(ctx, &cfg.RPC, s.controller, s.presenter, player, n, l)
	return s
}

// Controller returns the download controller.
func (s *Server) Controller() *fetch.Controller {
	return s.controller
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully and releases the player and any running transfer.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("rpc: listening on %s", ln.Addr())
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(sctx)
		s.Close()
		return err
	})
	return g.Wait()
}

// Close stops the player, cancels the running transfer and disconnects
// websocket peers. It is safe to call more than once.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		if err := s.player.close(); err != nil {
			s.log.Warning("rpc: close player: %v", err)
		}
		s.controller.Cancel()
		s.controller.Wait()
		s.notifier.StopAll()
		s.rpc.Close()
	})
}
