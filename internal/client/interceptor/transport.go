// Package interceptor implements the fetch policy of the worker as an
// http.RoundTripper: network first, then the cached response, then the
// offline page (for navigations), then a synthetic 503.
package interceptor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/posmart/internal/client/cache"
	"github.com/dmitrijs2005/posmart/internal/logging"
)

// StatusHeader tells the caller where a response came from. It is only set
// with WithStatusHeader; by default responses are returned as fetched or as
// stored.
const StatusHeader = "X-Cache-Status"

const (
	StatusNetwork     = "NETWORK"
	StatusHit         = "HIT"
	StatusOfflinePage = "OFFLINE-PAGE"
	StatusOffline     = "OFFLINE"
)

const (
	DefaultOfflinePath = "/offline.html"
	offlineBody        = "Offline - Resource unavailable"
)

// Store is the part of the response cache the transport needs.
type Store interface {
	Put(ctx context.Context, e *cache.Entry) error
	Match(ctx context.Context, requestKey string) (*cache.Entry, error)
}

type Transport struct {
	next        http.RoundTripper
	store       Store
	logger      logging.Logger
	offlinePath string
	markStatus  bool
	now         func() time.Time
	pending     sync.WaitGroup
}

type Option func(*Transport)

// WithOfflinePath sets the same-origin path of the offline document.
func WithOfflinePath(p string) Option {
	return func(t *Transport) { t.offlinePath = p }
}

// WithStatusHeader adds StatusHeader to every intercepted response.
func WithStatusHeader() Option {
	return func(t *Transport) { t.markStatus = true }
}

func New(next http.RoundTripper, store Store, logger logging.Logger, opts ...Option) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}
	t := &Transport{
		next:        next,
		store:       store,
		logger:      logger.With("module", "interceptor"),
		offlinePath: DefaultOfflinePath,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RoundTrip never returns an error for an intercepted GET: every failure of
// the network is turned into a cached or synthetic response.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet || !interceptable(req.URL) {
		return t.next.RoundTrip(req)
	}

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		return t.fallback(req, err), nil
	}
	if resp.StatusCode != http.StatusOK {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return t.fallback(req, err), nil
	}

	entry := &cache.Entry{
		RequestKey: cache.RequestKey(req),
		StatusCode: resp.StatusCode,
		Header:     cache.StripHopByHop(resp.Header, StatusHeader),
		Body:       body,
		StoredAt:   t.now(),
	}
	t.storeDetached(req.Context(), entry)

	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	return t.mark(resp, StatusNetwork), nil
}

// Wait blocks until all detached cache writes have finished.
func (t *Transport) Wait() {
	t.pending.Wait()
}

func (t *Transport) storeDetached(ctx context.Context, e *cache.Entry) {
	ctx = context.WithoutCancel(ctx)

	t.pending.Add(1)
	go func() {
		defer t.pending.Done()
		defer func() {
			if p := recover(); p != nil {
				t.logger.Error(ctx, "cache write panicked", "key", e.RequestKey, "panic", p)
			}
		}()

		if err := t.store.Put(ctx, e); err != nil {
			if errors.Is(err, cache.ErrNoActiveGeneration) {
				t.logger.Debug(ctx, "response not cached, no active generation", "key", e.RequestKey)
				return
			}
			t.logger.Warn(ctx, "failed to cache response", "key", e.RequestKey, "error", err)
		}
	}()
}

func (t *Transport) fallback(req *http.Request, cause error) *http.Response {
	// the request context may already be past its deadline
	ctx := context.WithoutCancel(req.Context())

	t.logger.Debug(ctx, "network failed, using cache", "url", req.URL.String(), "error", cause)

	if e := t.match(ctx, cache.RequestKey(req)); e != nil {
		return t.mark(e.Response(req), StatusHit)
	}

	if isNavigation(req) {
		offline := req.URL.ResolveReference(&url.URL{Path: t.offlinePath})
		if e := t.match(ctx, cache.KeyFor(http.MethodGet, offline.String())); e != nil {
			return t.mark(e.Response(req), StatusOfflinePage)
		}
	}

	return t.mark(offlineResponse(req), StatusOffline)
}

func (t *Transport) mark(resp *http.Response, status string) *http.Response {
	if t.markStatus {
		resp.Header.Set(StatusHeader, status)
	}
	return resp
}

func (t *Transport) match(ctx context.Context, key string) *cache.Entry {
	e, err := t.store.Match(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			t.logger.Warn(ctx, "cache lookup failed", "key", key, "error", err)
		}
		return nil
	}
	return e
}

func offlineResponse(req *http.Request) *http.Response {
	return &http.Response{
		Status:     "503 Service Unavailable",
		StatusCode: http.StatusServiceUnavailable,
		Proto:      "HTTP/1.1",
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header: http.Header{
			"Content-Type": {"text/plain"},
		},
		Body:          io.NopCloser(strings.NewReader(offlineBody)),
		ContentLength: int64(len(offlineBody)),
		Request:       req,
	}
}

func interceptable(u *url.URL) bool {
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return true
	default:
		return false
	}
}

// isNavigation reports whether req loads a document rather than a
// subresource.
func isNavigation(req *http.Request) bool {
	if req.Header.Get("Sec-Fetch-Dest") == "document" || req.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	return strings.Contains(req.Header.Get("Accept"), "text/html")
}
