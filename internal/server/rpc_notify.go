package server

import (
	"context"
	"sync"
	"time"

	"github.com/creachadair/jrpc2"

	"github.com/warpdl/warpreel/common"
	"github.com/warpdl/warpreel/pkg/fetch"
	"github.com/warpdl/warpreel/pkg/logger"
	"github.com/warpdl/warpreel/pkg/playback"
)

// pushTimeout bounds a single notification to one peer.
const pushTimeout = 2 * time.Second

// RPCNotifier keeps the connected websocket peers and pushes view updates
// to all of them. It is the view adapter for remote UIs.
type RPCNotifier struct {
	mu      sync.RWMutex
	servers map[*jrpc2.Server]struct{}
	log     logger.Logger
	timeout time.Duration
}

// NewRPCNotifier creates a notifier with no peers.
func NewRPCNotifier(l logger.Logger) *RPCNotifier {
	return &RPCNotifier{
		servers: make(map[*jrpc2.Server]struct{}),
		log:     logger.OrNop(l),
		timeout: pushTimeout,
	}
}

// Register adds a peer to receive notifications.
func (n *RPCNotifier) Register(srv *jrpc2.Server) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.servers[srv] = struct{}{}
}

// Unregister removes a peer. Unknown peers are ignored.
func (n *RPCNotifier) Unregister(srv *jrpc2.Server) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.servers, srv)
}

// Broadcast pushes a notification to every peer. Peers that fail to
// receive it within the push timeout are dropped and stopped.
func (n *RPCNotifier) Broadcast(method common.NotifyMethod, params any) {
	n.mu.RLock()
	servers := make([]*jrpc2.Server, 0, len(n.servers))
	for srv := range n.servers {
		servers = append(servers, srv)
	}
	n.mu.RUnlock()

	var failed []*jrpc2.Server
	for _, srv := range servers {
		if err := n.push(srv, method, params); err != nil {
			n.log.Warning("rpc: push %s failed: %v", method, err)
			failed = append(failed, srv)
		}
	}
	if len(failed) > 0 {
		n.mu.Lock()
		for _, srv := range failed {
			delete(n.servers, srv)
		}
		n.mu.Unlock()
		for _, srv := range failed {
			go srv.Stop()
		}
	}
}

// push sends one notification, giving up on the peer after n.timeout.
func (n *RPCNotifier) push(srv *jrpc2.Server, method common.NotifyMethod, params any) error {
	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()
	errc := make(chan error, 1)
	go func() {
		errc <- srv.Notify(ctx, string(method), params)
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Count returns the number of registered peers.
func (n *RPCNotifier) Count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.servers)
}

// ButtonLabel is a flow.PresenterOpts.ButtonLabelHandler.
func (n *RPCNotifier) ButtonLabel(label string) {
	n.Broadcast(common.NOTIFY_BUTTON_LABEL, &common.LabelNotification{Label: label})
}

// VideoState forwards a download state.
func (n *RPCNotifier) VideoState(s fetch.State) {
	p := &common.VideoStateNotification{State: s.Kind.String(), Progress: s.Progress}
	if s.Err != nil {
		p.Error = s.Err.Error()
	}
	n.Broadcast(common.NOTIFY_VIDEO_STATE, p)
}

// Position is a flow.PlayerScreenOpts.PositionHandler.
func (n *RPCNotifier) Position(pos time.Duration) {
	n.Broadcast(common.NOTIFY_PLAYER_POSITION, &common.PlayerPositionNotification{
		PositionMs: pos.Milliseconds(),
		Seconds:    playback.Seconds(pos),
	})
}

// PlaybackHandlers returns scheduler handlers pushing label and phase
// changes to every peer.
func (n *RPCNotifier) PlaybackHandlers() *playback.Handlers {
	return &playback.Handlers{
		TimerLabelHandler: func(text string) {
			n.Broadcast(common.NOTIFY_TIMER_LABEL, &common.LabelNotification{Label: text})
		},
		PauseLabelHandler: func(text string) {
			n.Broadcast(common.NOTIFY_PAUSE_LABEL, &common.LabelNotification{Label: text})
		},
		PhaseChangedHandler: func(s playback.State) {
			n.Broadcast(common.NOTIFY_PLAYER_PHASE, phaseNotification(s))
		},
	}
}

func phaseNotification(s playback.State) *common.PlayerPhaseNotification {
	return &common.PlayerPhaseNotification{
		Index:          s.Index,
		Phase:          s.Phase.String(),
		PauseRemaining: s.PauseRemaining,
		PlayRemaining:  s.PlayRemaining,
	}
}

// StopAll stops every peer's server, closing its connection.
func (n *RPCNotifier) StopAll() {
	n.mu.Lock()
	servers := n.servers
	n.servers = make(map[*jrpc2.Server]struct{})
	n.mu.Unlock()
	for srv := range servers {
		srv.Stop()
	}
}
