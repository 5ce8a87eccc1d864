package fetch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/warpdl/warpreel/pkg/logger"
)

// stateRecorder collects everything the controller reports.
type stateRecorder struct {
	mu     sync.Mutex
	states []State
	chunks int
	bytes  int
	errs   []error
	length int64
	starts int
}

func (r *stateRecorder) handlers() *Handlers {
	return &Handlers{
		StateChangedHandler: func(s State) {
			r.mu.Lock()
			r.states = append(r.states, s)
			r.mu.Unlock()
		},
		StartHandler: func(_ string, length int64) {
			r.mu.Lock()
			r.starts++
			r.length = length
			r.mu.Unlock()
		},
		ProgressHandler: func(_ string, n int) {
			r.mu.Lock()
			r.chunks++
			r.bytes += n
			r.mu.Unlock()
		},
		ErrorHandler: func(_ string, err error) {
			r.mu.Lock()
			r.errs = append(r.errs, err)
			r.mu.Unlock()
		},
	}
}

func (r *stateRecorder) snapshot() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

func newTestController(t *testing.T, fs afero.Fs, opts *ControllerOpts) (*Controller, *stateRecorder) {
	t.Helper()
	rec := &stateRecorder{}
	if opts == nil {
		opts = &ControllerOpts{}
	}
	opts.Handlers = rec.handlers()
	if opts.Logger == nil {
		opts.Logger = logger.NewMockLogger()
	}
	store := NewStore(fs, "/media", "test.mp4", opts.Logger)
	return NewController(store, opts), rec
}

func servePayload(payload []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
		w.Write(payload)
	}
}

func TestController_RoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte("0123456789"), 5000)
	srv := httptest.NewServer(servePayload(payload))
	defer srv.Close()

	fs := afero.NewMemMapFs()
	c, rec := newTestController(t, fs, &ControllerOpts{ChunkSize: 1024})
	if c.IsLocalAvailable() {
		t.Fatal("file should not exist yet")
	}
	if got := c.State().Kind; got != KindDownload {
		t.Fatalf("initial state = %v, want download", got)
	}

	id, err := c.Fetch(context.Background(), srv.URL+"/video11.mp4")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if id == "" {
		t.Fatal("expected a transfer id")
	}
	c.Wait()

	got, err := afero.ReadFile(fs, "/media/test.mp4")
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("stored %d bytes, want %d", len(got), len(payload))
	}
	if !c.IsLocalAvailable() {
		t.Fatal("IsLocalAvailable should be true after download")
	}
	if c.State().Kind != KindDownloaded {
		t.Fatalf("final state = %v", c.State())
	}
	if c.Buffered() != 0 {
		t.Fatalf("buffer not cleared: %d bytes", c.Buffered())
	}

	states := rec.snapshot()
	if first := states[0]; first.Kind != KindDownloading || first.Progress != 0 {
		t.Fatalf("first state = %v, want downloading(0)", first)
	}
	if last := states[len(states)-1]; last.Kind != KindDownloaded {
		t.Fatalf("last state = %v, want downloaded", last)
	}
	prev := -1.0
	for _, s := range states[:len(states)-1] {
		if s.Kind != KindDownloading {
			t.Fatalf("unexpected intermediate state %v", s)
		}
		if s.Progress < prev {
			t.Fatalf("progress went backwards: %v after %v", s.Progress, prev)
		}
		prev = s.Progress
	}
	if prev != 1 {
		t.Fatalf("progress ended at %v, want 1", prev)
	}
	if rec.bytes != len(payload) || rec.chunks < 2 {
		t.Fatalf("progress handler saw %d bytes in %d chunks", rec.bytes, rec.chunks)
	}
	if rec.starts != 1 || rec.length != int64(len(payload)) {
		t.Fatalf("start handler: %d calls, length %d", rec.starts, rec.length)
	}
}

func TestController_ReplacesPreviousFile(t *testing.T) {
	srv := httptest.NewServer(servePayload([]byte("new")))
	defer srv.Close()

	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/media/test.mp4", []byte("an older, longer file"), 0644); err != nil {
		t.Fatal(err)
	}
	c, _ := newTestController(t, fs, nil)
	if c.State().Kind != KindDownloaded {
		t.Fatalf("existing file should start as downloaded, got %v", c.State())
	}
	if _, err := c.Fetch(context.Background(), srv.URL); err != nil {
		t.Fatal(err)
	}
	c.Wait()
	got, _ := afero.ReadFile(fs, "/media/test.mp4")
	if string(got) != "new" {
		t.Fatalf("file = %q, want %q", got, "new")
	}
}

func TestController_EmptyPayload(t *testing.T) {
	srv := httptest.NewServer(servePayload(nil))
	defer srv.Close()

	fs := afero.NewMemMapFs()
	c, _ := newTestController(t, fs, nil)
	if _, err := c.Fetch(context.Background(), srv.URL); err != nil {
		t.Fatal(err)
	}
	c.Wait()
	if c.State().Kind != KindDownloaded {
		t.Fatalf("state = %v, want downloaded", c.State())
	}
	fi, err := fs.Stat("/media/test.mp4")
	if err != nil {
		t.Fatalf("empty payload should still write the file: %v", err)
	}
	if fi.Size() != 0 {
		t.Fatalf("size = %d, want 0", fi.Size())
	}
}

func TestController_BadStatusFails(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	fs := afero.NewMemMapFs()
	log := logger.NewMockLogger()
	c, rec := newTestController(t, fs, &ControllerOpts{Logger: log})
	if _, err := c.Fetch(context.Background(), srv.URL); err != nil {
		t.Fatal(err)
	}
	c.Wait()

	st := c.State()
	if st.Kind != KindFailed {
		t.Fatalf("state = %v, want failed", st)
	}
	var te *TransferError
	if !errors.As(st.Err, &te) || te.Op != "status" || !errors.Is(st.Err, ErrBadStatus) {
		t.Fatalf("unexpected error %v", st.Err)
	}
	if ok, _ := afero.Exists(fs, "/media/test.mp4"); ok {
		t.Fatal("no file should be written on failure")
	}
	if len(rec.errs) != 1 || len(log.ErrorCalls()) == 0 {
		t.Fatalf("failure not reported: handler=%v log=%v", rec.errs, log.ErrorCalls())
	}
}

func TestController_FailedTransferLeavesNoStaleBytes(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			// Promise more than is sent; the connection is closed early.
			w.Header().Set("Content-Length", "100")
			w.Write([]byte("STALE"))
			return
		}
		servePayload([]byte("fresh"))(w, r)
	}))
	defer srv.Close()

	fs := afero.NewMemMapFs()
	c, _ := newTestController(t, fs, nil)

	if _, err := c.Fetch(context.Background(), srv.URL); err != nil {
		t.Fatal(err)
	}
	c.Wait()
	if c.State().Kind != KindFailed {
		t.Fatalf("short body should fail, got %v", c.State())
	}
	if c.Buffered() != 0 {
		t.Fatal("buffer must be cleared after a failed transfer")
	}

	if _, err := c.Fetch(context.Background(), srv.URL); err != nil {
		t.Fatal(err)
	}
	c.Wait()
	got, _ := afero.ReadFile(fs, "/media/test.mp4")
	if string(got) != "fresh" {
		t.Fatalf("file = %q, want %q", got, "fresh")
	}
}

func TestController_RejectsOverlappingFetch(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		w.Write([]byte("done"))
	}))
	defer srv.Close()

	c, rec := newTestController(t, afero.NewMemMapFs(), nil)
	if _, err := c.Fetch(context.Background(), srv.URL); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Fetch(context.Background(), srv.URL); !errors.Is(err, ErrTransferInProgress) {
		t.Fatalf("expected ErrTransferInProgress, got %v", err)
	}
	close(release)
	c.Wait()

	if c.State().Kind != KindDownloaded {
		t.Fatalf("state = %v", c.State())
	}
	downloading := 0
	for _, s := range rec.snapshot() {
		if s.Kind == KindDownloading && s.Progress == 0 {
			downloading++
		}
	}
	if downloading != 1 {
		t.Fatalf("rejected fetch must not emit a state, saw %d downloading(0)", downloading)
	}
}

func TestController_Cancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
		w.Write([]byte("partial"))
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	c, rec := newTestController(t, afero.NewMemMapFs(), nil)
	if _, err := c.Fetch(context.Background(), srv.URL); err != nil {
		t.Fatal(err)
	}
	// Wait until the first chunk has arrived.
	for {
		rec.mu.Lock()
		n := rec.bytes
		rec.mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	c.Cancel()
	c.Wait()

	st := c.State()
	if st.Kind != KindFailed || !errors.Is(st.Err, context.Canceled) {
		t.Fatalf("state = %v, want failed(context canceled)", st)
	}
	if c.IsLocalAvailable() {
		t.Fatal("cancelled transfer must not write the file")
	}
	// Cancel with nothing running is harmless.
	c.Cancel()
}

func TestController_WriteFailure(t *testing.T) {
	srv := httptest.NewServer(servePayload([]byte("data")))
	defer srv.Close()

	log := logger.NewMockLogger()
	c, _ := newTestController(t, afero.NewReadOnlyFs(afero.NewMemMapFs()), &ControllerOpts{Logger: log})
	if _, err := c.Fetch(context.Background(), srv.URL); err != nil {
		t.Fatal(err)
	}
	c.Wait()
	if st := c.State(); st.Kind != KindFailed || !strings.Contains(st.Err.Error(), "write") {
		t.Fatalf("state = %v, want failed write", st)
	}
	if len(log.WarningCalls()) == 0 {
		t.Fatal("directory and removal failures should be logged")
	}
}

func TestController_InvalidURLs(t *testing.T) {
	c, rec := newTestController(t, afero.NewMemMapFs(), nil)
	tests := []struct {
		raw  string
		want error
	}{
		{"", ErrInvalidURL},
		{"not a url", ErrInvalidURL},
		{"/relative/path.mp4", ErrInvalidURL},
		{"http://[::1", ErrInvalidURL},
		{"gopher://example.com/video.mp4", ErrUnsupportedScheme},
	}
	for _, tt := range tests {
		if _, err := c.Fetch(context.Background(), tt.raw); !errors.Is(err, tt.want) {
			t.Errorf("Fetch(%q) = %v, want %v", tt.raw, err, tt.want)
		}
	}
	if len(rec.snapshot()) != 0 {
		t.Fatal("rejected URLs must not change state")
	}
}

func TestController_UnknownLengthStaysAtZero(t *testing.T) {
	router := NewSchemeRouter(nil)
	router.Register("mem", func(u *url.URL) (Source, error) {
		return memSource{data: []byte(strings.Repeat("x", 4096)), length: -1}, nil
	})
	c, rec := newTestController(t, afero.NewMemMapFs(), &ControllerOpts{Router: router, ChunkSize: 512})
	if _, err := c.Fetch(context.Background(), "mem://host/video.mp4"); err != nil {
		t.Fatal(err)
	}
	c.Wait()
	states := rec.snapshot()
	if len(states) != 2 || states[0].Progress != 0 || states[1].Kind != KindDownloaded {
		t.Fatalf("states = %v", states)
	}
	if rec.chunks != 8 {
		t.Fatalf("chunks = %d, want 8", rec.chunks)
	}
	if rec.length != -1 {
		t.Fatalf("start length = %d, want -1", rec.length)
	}
}

// memSource serves data from memory.
type memSource struct {
	data   []byte
	length int64
}

func (m memSource) Open(ctx context.Context) (io.ReadCloser, int64, error) {
	return io.NopCloser(bytes.NewReader(m.data)), m.length, nil
}

func TestController_FetchFromFinalStateHandler(t *testing.T) {
	tests := []struct {
		name    string
		handler http.Handler
		kind    Kind
	}{
		{"downloaded", servePayload([]byte("frames")), KindDownloaded},
		{"failed", http.NotFoundHandler(), KindFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			var (
				c        *Controller
				retried  bool
				retryID  string
				retryErr error
			)
			store := NewStore(afero.NewMemMapFs(), "/media", "test.mp4", nil)
			c = NewController(store, &ControllerOpts{
				Handlers: &Handlers{
					StateChangedHandler: func(s State) {
						if s.Kind != tt.kind || retried {
							return
						}
						retried = true
						retryID, retryErr = c.Fetch(context.Background(), srv.URL+"/video.mp4")
					},
				},
			})
			if _, err := c.Fetch(context.Background(), srv.URL+"/video.mp4"); err != nil {
				t.Fatal(err)
			}
			// the retry is added to the wait group before the first
			// transfer is done, so one Wait covers both
			c.Wait()
			if !retried {
				t.Fatal("final state never announced")
			}
			if retryErr != nil || retryID == "" {
				t.Fatalf("Fetch from the %s handler: id=%q err=%v", tt.name, retryID, retryErr)
			}
			if got := c.State().Kind; got != tt.kind {
				t.Fatalf("state after retry = %v, want %v", got, tt.kind)
			}
		})
	}
}
