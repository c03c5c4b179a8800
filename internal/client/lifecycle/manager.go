// Package lifecycle versions the response cache. A new version is installed
// into its own generation, pre-populated from the asset manifest, and then
// activated, which evicts every other generation.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/dmitrijs2005/posmart/internal/client/cache"
	"github.com/dmitrijs2005/posmart/internal/client/messages"
	"github.com/dmitrijs2005/posmart/internal/logging"
	"golang.org/x/sync/errgroup"
)

type State string

const (
	StateIdle       State = ""
	StateInstalling State = "installing"
	StateInstalled  State = "installed"
	StateActivating State = "activating"
	StateActivated  State = "activated"
	StateRedundant  State = "redundant"
)

var ErrNothingWaiting = errors.New("no installed version is waiting")

// DefaultManifest lists the application shell pre-cached on install.
var DefaultManifest = []string{
	"/",
	"/index.html",
	"/login.html",
	"/register.html",
	"/auth.html",
	"/products.html",
	"/sales.html",
	"/reports.html",
	"/offline.html",
	"/manifest.json",
	"/js/auth.js",
	"/js/data.js",
	"/js/supabase.js",
	"/js/pwa.js",
}

// CacheName joins the application name and version, e.g. "posmart-v1".
func CacheName(app, version string) string {
	return fmt.Sprintf("%s-%s", app, version)
}

type Options struct {
	Storage  cache.Storage
	Registry *cache.Registry
	Bus      *messages.Bus
	// HTTPClient fetches manifest entries. It should talk to the network
	// directly, not through the intercepting transport.
	HTTPClient *http.Client
	// Origin is the scheme and host manifest paths are resolved against.
	Origin   string
	Manifest []string
	// SkipWaiting activates every installed version at once.
	SkipWaiting bool
	// Concurrency bounds parallel manifest fetches.
	Concurrency int
	Logger      logging.Logger
}

type Manager struct {
	storage     cache.Storage
	registry    *cache.Registry
	bus         *messages.Bus
	client      *http.Client
	origin      *url.URL
	manifest    []string
	concurrency int
	logger      logging.Logger
	now         func() time.Time

	mu          sync.Mutex
	state       State
	waiting     string
	skipWaiting bool
}

func New(opts Options) (*Manager, error) {
	origin, err := url.Parse(opts.Origin)
	if err != nil {
		return nil, fmt.Errorf("parse origin: %w", err)
	}
	if origin.Scheme == "" || origin.Host == "" {
		return nil, fmt.Errorf("origin %q must be absolute", opts.Origin)
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Manager{
		storage:     opts.Storage,
		registry:    opts.Registry,
		bus:         opts.Bus,
		client:      client,
		origin:      origin,
		manifest:    opts.Manifest,
		concurrency: concurrency,
		logger:      logger.With("module", "lifecycle"),
		now:         time.Now,
		skipWaiting: opts.SkipWaiting,
	}, nil
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Waiting returns the installed generation awaiting activation, if any.
func (m *Manager) Waiting() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.waiting
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
}

// Install creates the generation and fills it from the manifest. Failed
// manifest fetches are logged and skipped. When nothing is active yet, or
// skip-waiting is set, the generation is activated right away; otherwise it
// waits for SkipWaiting.
func (m *Manager) Install(ctx context.Context, generation string) error {
	m.setState(StateInstalling)

	if err := m.storage.Create(ctx, generation); err != nil {
		m.setState(StateRedundant)
		return fmt.Errorf("create generation %s: %w", generation, err)
	}

	stored := m.prefetch(ctx, generation)
	m.logger.Info(ctx, "generation installed", "generation", generation, "cached", stored)

	m.mu.Lock()
	m.state = StateInstalled
	m.waiting = generation
	activate := m.skipWaiting || m.registry.Active() == ""
	m.mu.Unlock()

	if activate {
		return m.Activate(ctx)
	}
	return nil
}

// SkipWaiting activates the waiting generation, if there is one. Later
// installs activate immediately too.
func (m *Manager) SkipWaiting(ctx context.Context) error {
	m.mu.Lock()
	m.skipWaiting = true
	waiting := m.waiting
	m.mu.Unlock()

	if waiting == "" {
		return nil
	}
	return m.Activate(ctx)
}

// Activate makes the waiting generation the only one: every other generation
// is deleted, deletion failures are logged, and open pages are told to
// switch with CLIENTS_CLAIMED.
func (m *Manager) Activate(ctx context.Context) error {
	m.mu.Lock()
	generation := m.waiting
	if generation == "" {
		m.mu.Unlock()
		return ErrNothingWaiting
	}
	m.state = StateActivating
	m.mu.Unlock()

	names, err := m.storage.Generations(ctx)
	if err != nil {
		m.logger.Error(ctx, "failed to list generations", "error", err)
	}
	for _, name := range names {
		if name == generation {
			continue
		}
		if err := m.storage.DeleteGeneration(ctx, name); err != nil {
			m.logger.Error(ctx, "failed to delete generation", "generation", name, "error", err)
			continue
		}
		m.logger.Info(ctx, "deleted old generation", "generation", name)
	}

	m.registry.SetActive(generation)

	m.mu.Lock()
	m.state = StateActivated
	m.waiting = ""
	m.mu.Unlock()

	m.publish(ctx, messages.ClientsClaimed, messages.Version{Cache: generation})
	m.logger.Info(ctx, "generation activated", "generation", generation)
	return nil
}

// CheckForUpdate installs generation when it differs from the active one.
// If the new generation ends up waiting, pages get UPDATE_AVAILABLE. It
// reports whether anything was installed.
func (m *Manager) CheckForUpdate(ctx context.Context, generation string) (bool, error) {
	if generation == m.registry.Active() || generation == m.Waiting() {
		return false, nil
	}

	if err := m.Install(ctx, generation); err != nil {
		return false, err
	}
	if m.Waiting() == generation {
		m.publish(ctx, messages.UpdateAvailable, messages.Version{Cache: generation})
	}
	return true, nil
}

func (m *Manager) publish(ctx context.Context, t messages.Type, data any) {
	if m.bus == nil {
		return
	}
	msg, err := messages.New(t, data)
	if err != nil {
		m.logger.Error(ctx, "failed to build message", "type", t, "error", err)
		return
	}
	m.bus.Publish(msg)
}

// prefetch stores every same-origin manifest entry in generation and
// returns how many were stored.
func (m *Manager) prefetch(ctx context.Context, generation string) int {
	urls := m.sameOrigin()

	var (
		mu     sync.Mutex
		stored int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for _, u := range urls {
		g.Go(func() error {
			if err := m.fetchInto(gctx, generation, u); err != nil {
				m.logger.Warn(gctx, "failed to pre-cache asset", "url", u, "error", err)
				return nil
			}
			mu.Lock()
			stored++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return stored
}

func (m *Manager) fetchInto(ctx context.Context, generation, rawURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	return m.storage.Put(ctx, generation, &cache.Entry{
		RequestKey: cache.KeyFor(http.MethodGet, rawURL),
		StatusCode: resp.StatusCode,
		Header:     cache.StripHopByHop(resp.Header),
		Body:       body,
		StoredAt:   m.now(),
	})
}

// sameOrigin resolves manifest entries against the origin and drops those
// on another host, such as CDN scripts.
func (m *Manager) sameOrigin() []string {
	out := make([]string, 0, len(m.manifest))
	seen := make(map[string]struct{}, len(m.manifest))

	for _, entry := range m.manifest {
		ref, err := url.Parse(entry)
		if err != nil {
			m.logger.Warn(context.Background(), "skipping malformed manifest entry", "entry", entry, "error", err)
			continue
		}
		abs := m.origin.ResolveReference(ref)
		if abs.Scheme != m.origin.Scheme || abs.Host != m.origin.Host {
			continue
		}
		abs.Fragment = ""
		s := abs.String()
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
