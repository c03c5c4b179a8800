package interceptor

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/posmart/internal/client/cache"
	"github.com/dmitrijs2005/posmart/internal/client/storage"
	"github.com/dmitrijs2005/posmart/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const generation = "posmart-v1"

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

var errOffline = errors.New("dial tcp: connection refused")

func offlineRT() http.RoundTripper {
	return roundTripFunc(func(*http.Request) (*http.Response, error) { return nil, errOffline })
}

func newCache(t *testing.T) (*cache.Cache, *cache.SQLiteStorage) {
	t.Helper()
	ctx := context.Background()
	db, err := storage.InitDatabase(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := cache.NewSQLiteStorage(db)
	require.NoError(t, s.Create(ctx, generation))
	reg := cache.NewRegistry()
	reg.SetActive(generation)
	return cache.New(s, reg), s
}

func get(t *testing.T, rt http.RoundTripper, url string, header http.Header) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := rt.RoundTrip(req)
	require.NoError(t, err)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp, string(b)
}

func TestRoundTrip_NetworkSuccessIsCached(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Connection", "keep-alive")
		_, _ = w.Write([]byte(`{"products":[]}`))
	}))
	defer srv.Close()

	c, _ := newCache(t)
	tr := New(http.DefaultTransport, c, logging.NewNop(), WithStatusHeader())

	resp, body := get(t, tr, srv.URL+"/api/products", nil)
	tr.Wait()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"products":[]}`, body)
	assert.Equal(t, StatusNetwork, resp.Header.Get(StatusHeader))

	e, err := c.Match(context.Background(), cache.KeyFor(http.MethodGet, srv.URL+"/api/products"))
	require.NoError(t, err)
	assert.Equal(t, `{"products":[]}`, string(e.Body))
	assert.Equal(t, "application/json", e.Header.Get("Content-Type"))
	assert.Empty(t, e.Header.Get("Connection"))
	assert.Empty(t, e.Header.Get(StatusHeader))
}

func TestRoundTrip_FallbackIsByteIdentical(t *testing.T) {
	payload := "<html>products</html>\x00\xff"
	var online atomic.Bool
	online.Store(true)

	next := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		if !online.Load() {
			return nil, errOffline
		}
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": {"text/html"}, "Etag": {`"v1"`}},
			Body:       io.NopCloser(strings.NewReader(payload)),
			Request:    r,
		}, nil
	})

	c, _ := newCache(t)
	tr := New(next, c, logging.NewNop(), WithStatusHeader())

	_, first := get(t, tr, "http://shop.local/products.html", nil)
	tr.Wait()
	online.Store(false)
	resp, second := get(t, tr, "http://shop.local/products.html", nil)

	assert.Equal(t, first, second)
	assert.Equal(t, payload, second)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html", resp.Header.Get("Content-Type"))
	assert.Equal(t, `"v1"`, resp.Header.Get("Etag"))
	assert.Equal(t, StatusHit, resp.Header.Get(StatusHeader))
}

func TestRoundTrip_NavigationFallsBackToOfflinePage(t *testing.T) {
	c, s := newCache(t)
	require.NoError(t, s.Put(context.Background(), generation, &cache.Entry{
		RequestKey: cache.KeyFor(http.MethodGet, "http://shop.local/offline.html"),
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": {"text/html"}},
		Body:       []byte("<h1>You are offline</h1>"),
	}))
	tr := New(offlineRT(), c, logging.NewNop(), WithStatusHeader())

	for name, h := range map[string]http.Header{
		"sec-fetch-dest": {"Sec-Fetch-Dest": {"document"}},
		"sec-fetch-mode": {"Sec-Fetch-Mode": {"navigate"}},
		"accept":         {"Accept": {"text/html,application/xhtml+xml"}},
	} {
		t.Run(name, func(t *testing.T) {
			resp, body := get(t, tr, "http://shop.local/reports.html?day=1", h)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "<h1>You are offline</h1>", body)
			assert.Equal(t, StatusOfflinePage, resp.Header.Get(StatusHeader))
		})
	}
}

func TestRoundTrip_SubresourceGetsSynthetic503(t *testing.T) {
	c, _ := newCache(t)
	tr := New(offlineRT(), c, logging.NewNop(), WithStatusHeader())

	resp, body := get(t, tr, "http://shop.local/js/missing.js", http.Header{"Accept": {"*/*"}})

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "503 Service Unavailable", resp.Status)
	assert.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
	assert.Equal(t, "Offline - Resource unavailable", body)
	assert.Equal(t, StatusOffline, resp.Header.Get(StatusHeader))
}

func TestRoundTrip_NavigationWithoutOfflinePageGets503(t *testing.T) {
	c, _ := newCache(t)
	tr := New(offlineRT(), c, logging.NewNop(), WithStatusHeader())

	resp, _ := get(t, tr, "http://shop.local/sales.html", http.Header{"Sec-Fetch-Dest": {"document"}})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestRoundTrip_Non200IsReturnedAndNotCached(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	c, _ := newCache(t)
	tr := New(http.DefaultTransport, c, logging.NewNop(), WithStatusHeader())

	resp, _ := get(t, tr, srv.URL+"/gone", nil)
	tr.Wait()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Empty(t, resp.Header.Get(StatusHeader))

	_, err := c.Match(context.Background(), cache.KeyFor(http.MethodGet, srv.URL+"/gone"))
	require.ErrorIs(t, err, cache.ErrNotFound)
}

func TestRoundTrip_NonGETPassesThrough(t *testing.T) {
	var calls int
	next := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		return nil, errOffline
	})
	c, _ := newCache(t)
	tr := New(next, c, logging.NewNop(), WithStatusHeader())

	req, err := http.NewRequest(http.MethodPost, "http://shop.local/api/sales", strings.NewReader("{}"))
	require.NoError(t, err)
	_, err = tr.RoundTrip(req)
	require.ErrorIs(t, err, errOffline, "non-GET failures are not masked")
	assert.Equal(t, 1, calls)
}

func TestRoundTrip_UnsupportedSchemePassesThrough(t *testing.T) {
	c, _ := newCache(t)
	tr := New(offlineRT(), c, logging.NewNop(), WithStatusHeader())

	req, err := http.NewRequest(http.MethodGet, "chrome-extension://abc/script.js", nil)
	require.NoError(t, err)
	_, err = tr.RoundTrip(req)
	require.ErrorIs(t, err, errOffline)
}

type failingStore struct {
	*cache.Cache
	puts atomic.Int32
}

func (f *failingStore) Put(context.Context, *cache.Entry) error {
	f.puts.Add(1)
	return errors.New("disk full")
}

func TestRoundTrip_CacheWriteFailureDoesNotAffectCaller(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("fresh"))
	}))
	defer srv.Close()

	c, _ := newCache(t)
	fs := &failingStore{Cache: c}
	tr := New(http.DefaultTransport, fs, logging.NewNop(), WithStatusHeader())

	resp, body := get(t, tr, srv.URL+"/index.html", nil)
	tr.Wait()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "fresh", body)
	assert.Equal(t, int32(1), fs.puts.Load())
}

func TestClient_TimeoutServesOfflineDocument(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c, s := newCache(t)
	require.NoError(t, s.Put(context.Background(), generation, &cache.Entry{
		RequestKey: cache.KeyFor(http.MethodGet, srv.URL+"/offline.html"),
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": {"text/html"}},
		Body:       []byte("offline document"),
	}))

	client := &http.Client{Timeout: 100 * time.Millisecond, Transport: New(http.DefaultTransport, c, logging.NewNop(), WithStatusHeader())}
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/products.html", nil)
	require.NoError(t, err)
	req.Header.Set("Sec-Fetch-Dest", "document")

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, "offline document", string(body))
	assert.Equal(t, StatusOfflinePage, resp.Header.Get(StatusHeader))
}

func TestClient_SecondFetchServedFromCacheWhenServerGone(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("catalog v1"))
	}))

	c, _ := newCache(t)
	tr := New(http.DefaultTransport, c, logging.NewNop(), WithStatusHeader())
	client := &http.Client{Transport: tr}

	resp, err := client.Get(srv.URL + "/api/catalog")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	tr.Wait()

	url := srv.URL + "/api/catalog"
	srv.Close()

	resp, err = client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, "catalog v1", string(body))
	assert.Equal(t, int32(1), hits.Load())
}

func TestRoundTrip_CachedResponseIsVerbatimByDefault(t *testing.T) {
	c, s := newCache(t)
	stored := http.Header{"Content-Type": {"text/html"}, "Etag": {`"v7"`}}
	require.NoError(t, s.Put(context.Background(), generation, &cache.Entry{
		RequestKey: cache.KeyFor(http.MethodGet, "http://shop.local/sales.html"),
		StatusCode: http.StatusOK,
		Header:     stored,
		Body:       []byte("<h1>sales</h1>"),
	}))

	tr := New(offlineRT(), c, logging.NewNop())
	resp, body := get(t, tr, "http://shop.local/sales.html", nil)

	assert.Equal(t, "<h1>sales</h1>", body)
	assert.Equal(t, stored, resp.Header)

	resp, _ = get(t, tr, "http://shop.local/js/data.js", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, http.Header{"Content-Type": {"text/plain"}}, resp.Header)
}
