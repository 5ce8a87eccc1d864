package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/warpdl/warpreel/pkg/logger"
)

// DefaultChunkSize is the read size used when copying a transfer body.
const DefaultChunkSize = 32 * 1024

// ControllerOpts configure a Controller. nil or zero fields get defaults.
type ControllerOpts struct {
	// Client is used by the default router for http(s).
	Client *http.Client
	// Router overrides the scheme router. Client and UserAgent are ignored
	// when it is set.
	Router    *SchemeRouter
	Handlers  *Handlers
	Logger    logger.Logger
	ChunkSize int
	UserAgent string
}

// Controller owns the one transfer session and its byte buffer.
type Controller struct {
	store     *Store
	router    *SchemeRouter
	handlers  *Handlers
	log       logger.Logger
	chunkSize int

	mu      sync.Mutex
	state   State
	buf     bytes.Buffer
	running bool
	id      string
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewController creates a controller writing to store. The initial state
// is Downloaded when the file already exists.
func NewController(store *Store, opts *ControllerOpts) *Controller {
	if opts == nil {
		opts = &ControllerOpts{}
	}
	router := opts.Router
	if router == nil {
		router = newSchemeRouter(opts.Client, opts.UserAgent)
	}
	handlers := &Handlers{}
	if opts.Handlers != nil {
		*handlers = *opts.Handlers
	}
	handlers.setDefault()
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	c := &Controller{
		store:     store,
		router:    router,
		handlers:  handlers,
		log:       logger.OrNop(opts.Logger),
		chunkSize: chunkSize,
	}
	if store.Exists() {
		c.state = State{Kind: KindDownloaded}
	}
	return c
}

// IsLocalAvailable reports whether the local file exists and is readable.
func (c *Controller) IsLocalAvailable() bool {
	return c.store.Exists()
}

// Store returns the store transfers are written to.
func (c *Controller) Store() *Store {
	return c.store
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Buffered returns the number of bytes held for the running transfer.
func (c *Controller) Buffered() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Len()
}

// Fetch starts downloading rawURL and returns the transfer id. The
// Downloading state is emitted before Fetch returns; the transfer itself runs
// in the background until it completes, fails or ctx is cancelled.
func (c *Controller) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return "", err
	}
	src, err := c.router.NewSource(u)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return "", ErrTransferInProgress
	}
	tctx, cancel := context.WithCancel(ctx)
	id := uuid.NewString()
	c.running = true
	c.id = id
	c.cancel = cancel
	c.buf.Reset()
	c.wg.Add(1)
	c.mu.Unlock()

	c.log.Info("fetch %s: starting %s", id, u.Redacted())
	c.setState(State{Kind: KindDownloading})
	go c.transfer(tctx, id, src)
	return id, nil
}

// Cancel aborts the running transfer, if any. The transfer ends Failed.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

// Wait blocks until no transfer is running.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) transfer(ctx context.Context, id string, src Source) {
	defer c.wg.Done()

	final := c.download(ctx, id, src)
	if final.Kind == KindFailed {
		c.log.Error("fetch %s: %v", id, final.Err)
		c.handlers.ErrorHandler(id, final.Err)
	} else {
		c.log.Info("fetch %s: saved %s", id, c.store.Path())
	}

	// running is cleared before the final state is announced; handlers may
	// call Fetch.
	c.mu.Lock()
	c.buf = bytes.Buffer{}
	c.cancel()
	c.cancel = nil
	c.running = false
	c.state = final
	c.mu.Unlock()

	c.handlers.StateChangedHandler(final)
}

// download copies the body into the buffer and persists it. It returns the
// terminal state of the transfer.
func (c *Controller) download(ctx context.Context, id string, src Source) State {
	body, length, err := src.Open(ctx)
	if err != nil {
		return failed(ctx, err)
	}
	defer body.Close()
	c.handlers.StartHandler(id, length)

	var (
		received int64
		lastPct  int
	)
	pr := NewCallbackProxyReader(body, func(n int) {
		c.handlers.ProgressHandler(id, n)
		received += int64(n)
		if length <= 0 {
			return
		}
		p := float64(received) / float64(length)
		if p > 1 {
			p = 1
		}
		if pct := int(p * 100); pct > lastPct {
			lastPct = pct
			c.setState(State{Kind: KindDownloading, Progress: p})
		}
	})
	if _, err := io.CopyBuffer(bufferWriter{c}, pr, make([]byte, c.chunkSize)); err != nil {
		return failed(ctx, err)
	}
	if err := ctx.Err(); err != nil {
		return failed(ctx, err)
	}
	if length >= 0 && received != length {
		return failed(ctx, fmt.Errorf("received %d of %d bytes: %w", received, length, io.ErrUnexpectedEOF))
	}

	// The transfer goroutine is the only writer of buf.
	if err := c.store.Replace(c.buf.Bytes()); err != nil {
		return State{Kind: KindFailed, Err: err}
	}
	return State{Kind: KindDownloaded}
}

func failed(ctx context.Context, err error) State {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		err = fmt.Errorf("%w: %v", ctxErr, err)
	}
	return State{Kind: KindFailed, Err: err}
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	c.handlers.StateChangedHandler(s)
}

// bufferWriter appends received chunks to the controller buffer.
type bufferWriter struct {
	c *Controller
}

func (w bufferWriter) Write(p []byte) (int, error) {
	w.c.mu.Lock()
	defer w.c.mu.Unlock()
	return w.c.buf.Write(p)
}
