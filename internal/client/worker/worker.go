// Package worker runs the local gateway that stands between pages and the
// asset origin. It proxies GETs through the intercepting transport, keeps
// the response cache versioned, bridges the message bus to websocket pages
// and runs background sync.
package worker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/posmart/internal/client/lifecycle"
	"github.com/dmitrijs2005/posmart/internal/client/messages"
	"github.com/dmitrijs2005/posmart/internal/client/reconcile"
	"github.com/dmitrijs2005/posmart/internal/common"
	"github.com/dmitrijs2005/posmart/internal/logging"
)

// VersionFunc reports the cache generation the worker should be running.
type VersionFunc func(ctx context.Context) (string, error)

type Options struct {
	Address string
	// Origin serves the application assets.
	Origin string
	// Transport is the intercepting round tripper used for proxied requests.
	Transport http.RoundTripper

	Lifecycle *lifecycle.Manager
	Bus       *messages.Bus
	Sync      *reconcile.BackgroundSync

	// Version is polled every UpdateInterval. Only a change in what it
	// reports installs a new generation, so an Update made in between is
	// kept until the source moves on.
	Version        VersionFunc
	UpdateInterval time.Duration

	Logger logging.Logger
}

type Worker struct {
	address        string
	proxy          *httputil.ReverseProxy
	lifecycle      *lifecycle.Manager
	bus            *messages.Bus
	sync           *reconcile.BackgroundSync
	version        VersionFunc
	updateInterval time.Duration
	logger         logging.Logger

	// last value reported by version
	polled atomic.Pointer[string]
}

func New(opts Options) (*Worker, error) {
	origin, err := url.Parse(opts.Origin)
	if err != nil {
		return nil, fmt.Errorf("parse origin: %w", err)
	}
	if opts.Lifecycle == nil || opts.Bus == nil || opts.Sync == nil || opts.Version == nil {
		return nil, errors.New("worker: lifecycle, bus, sync and version are required")
	}

	w := &Worker{
		address:        opts.Address,
		lifecycle:      opts.Lifecycle,
		bus:            opts.Bus,
		sync:           opts.Sync,
		version:        opts.Version,
		updateInterval: opts.UpdateInterval,
		logger:         opts.Logger.With("module", "worker"),
	}

	w.proxy = &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			r.SetURL(origin)
			r.Out.Host = origin.Host
		},
		Transport: opts.Transport,
		ErrorHandler: func(rw http.ResponseWriter, r *http.Request, err error) {
			w.logger.Warn(r.Context(), "proxy request failed", "method", r.Method, "path", r.URL.Path, "error", err)
			rw.WriteHeader(http.StatusBadGateway)
		},
	}
	return w, nil
}

// Start installs the configured generation. The first install activates it
// at once.
func (w *Worker) Start(ctx context.Context) error {
	generation, err := w.version(ctx)
	if err != nil {
		return fmt.Errorf("resolve version: %w", err)
	}
	w.polled.Store(&generation)
	return w.lifecycle.Install(ctx, generation)
}

// Update installs generation if it is new. It reports whether anything was
// installed.
func (w *Worker) Update(ctx context.Context, generation string) (bool, error) {
	return w.lifecycle.CheckForUpdate(ctx, generation)
}

// HandleMessage applies a page→worker message.
func (w *Worker) HandleMessage(ctx context.Context, msg messages.Message) error {
	switch msg.Type {
	case messages.SkipWaiting:
		return w.lifecycle.SkipWaiting(ctx)
	case messages.SyncNow:
		go w.fire(context.WithoutCancel(ctx), common.SyncTagSales)
		return nil
	default:
		return fmt.Errorf("unsupported message type %q", msg.Type)
	}
}

func (w *Worker) fire(ctx context.Context, tag string) {
	if err := w.sync.Fire(ctx, tag); err != nil {
		w.logger.Warn(ctx, "background sync failed", "tag", tag, "error", err)
	}
}

// Run serves the gateway until ctx is done and polls for updates in the
// background.
func (w *Worker) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", w.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           w.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go w.pollUpdates(ctx)

	go func() {
		<-ctx.Done()
		w.logger.Info(ctx, "Stopping worker gateway...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	w.logger.Info(ctx, "Starting worker gateway", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (w *Worker) pollUpdates(ctx context.Context) {
	if w.updateInterval <= 0 {
		return
	}

	ticker := time.NewTicker(w.updateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.checkUpdate(ctx)
		}
	}
}

func (w *Worker) checkUpdate(ctx context.Context) {
	generation, err := w.version(ctx)
	if err != nil {
		w.logger.Warn(ctx, "update check failed", "error", err)
		return
	}
	if prev := w.polled.Swap(&generation); prev != nil && *prev == generation {
		return
	}
	if _, err := w.Update(ctx, generation); err != nil {
		w.logger.Error(ctx, "update install failed", "generation", generation, "error", err)
	}
}
