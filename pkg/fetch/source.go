package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// DefaultUserAgent is sent with http(s) requests unless overridden.
const DefaultUserAgent = "warpreel/1.0"

// Source is one remote resource. Open starts the transfer and returns the
// body together with its length, or -1 if the length is unknown.
type Source interface {
	Open(ctx context.Context) (body io.ReadCloser, length int64, err error)
}

// SourceFactory builds a Source for a parsed absolute URL.
type SourceFactory func(u *url.URL) (Source, error)

// SchemeRouter maps URL schemes to source factories.
// The zero value is not usable; use NewSchemeRouter.
type SchemeRouter struct {
	routes map[string]SourceFactory
}

// NewSchemeRouter creates a router serving http, https, ftp and ftps.
func NewSchemeRouter(client *http.Client) *SchemeRouter {
	return newSchemeRouter(client, DefaultUserAgent)
}

func newSchemeRouter(client *http.Client, userAgent string) *SchemeRouter {
	if client == nil {
		client = http.DefaultClient
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	r := &SchemeRouter{
		routes: make(map[string]SourceFactory),
	}
	httpFactory := func(u *url.URL) (Source, error) {
		return &httpSource{client: client, url: u.String(), userAgent: userAgent}, nil
	}
	r.routes["http"] = httpFactory
	r.routes["https"] = httpFactory
	r.routes["ftp"] = newFTPSource
	r.routes["ftps"] = newFTPSource
	return r
}

// Register adds or replaces the factory for scheme.
func (r *SchemeRouter) Register(scheme string, factory SourceFactory) {
	r.routes[strings.ToLower(scheme)] = factory
}

// SupportedSchemes returns the registered schemes, sorted.
func (r *SchemeRouter) SupportedSchemes() []string {
	schemes := make([]string, 0, len(r.routes))
	for s := range r.routes {
		schemes = append(schemes, s)
	}
	sort.Strings(schemes)
	return schemes
}

// NewSource picks the factory for u's scheme (case-insensitive).
func (r *SchemeRouter) NewSource(u *url.URL) (Source, error) {
	scheme := strings.ToLower(u.Scheme)
	factory, ok := r.routes[scheme]
	if !ok {
		return nil, fmt.Errorf("%w %q, supported: %s",
			ErrUnsupportedScheme, scheme, strings.Join(r.SupportedSchemes(), ", "))
	}
	return factory(u)
}

// ParseURL accepts only absolute URLs with a host.
func ParseURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not an absolute url", ErrInvalidURL, rawURL)
	}
	return u, nil
}

type httpSource struct {
	client    *http.Client
	url       string
	userAgent string
}

func (s *httpSource) Open(ctx context.Context) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, 0, newTransferError("http", "request", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, 0, newTransferError("http", "connect", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, 0, newTransferError("http", "status", fmt.Errorf("%w: %s", ErrBadStatus, resp.Status))
	}
	return resp.Body, resp.ContentLength, nil
}
