package server

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/pitwall/internal/storage/badger"
)

type upstreamStub struct {
	hits      atomic.Int32
	lastPath  atomic.Value
	lastAgent atomic.Value
	status    int
	body      string
}

func (u *upstreamStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.hits.Add(1)
	u.lastPath.Store(r.URL.RequestURI())
	u.lastAgent.Store(r.Header.Get("User-Agent"))
	w.WriteHeader(u.status)
	w.Write([]byte(u.body))
}

func newProxyServer(t *testing.T, stub *upstreamStub) *Server {
	t.Helper()
	upstream := httptest.NewServer(stub)
	t.Cleanup(upstream.Close)

	logger := arbor.NewLogger()
	config := newTestConfig(t)
	config.Proxy.UpstreamURL = upstream.URL + "/ergast/f1"
	config.Proxy.RateLimit = 0

	db, err := badger.NewBadgerDB(logger, "")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cache := badger.NewResponseCache(db, logger, config.CacheTTL())
	return New(config, logger, NewProxy(config, cache, logger))
}

func TestProxy_MissThenHit(t *testing.T) {
	stub := &upstreamStub{status: http.StatusOK, body: `{"MRData":{"RaceTable":{"Races":[]}}}`}
	s := newProxyServer(t, stub)

	rec := serve(t, s, http.MethodGet, "/api/f1/current.json")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, stub.body, rec.Body.String())
	assert.Equal(t, "/ergast/f1/current.json", stub.lastPath.Load())
	assert.Equal(t, "CircuitWeather/1.0", stub.lastAgent.Load())

	rec = serve(t, s, http.MethodGet, "/api/f1/current.json")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, stub.body, rec.Body.String())
	assert.Equal(t, int32(1), stub.hits.Load(), "second request served from cache")
}

func TestProxy_EmptyPathDefaultsToCurrent(t *testing.T) {
	stub := &upstreamStub{status: http.StatusOK, body: `{}`}
	s := newProxyServer(t, stub)

	rec := serve(t, s, http.MethodGet, "/api/f1/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/ergast/f1/current", stub.lastPath.Load())
}

func TestProxy_UpstreamError(t *testing.T) {
	stub := &upstreamStub{status: http.StatusServiceUnavailable, body: `busy`}
	s := newProxyServer(t, stub)

	rec := serve(t, s, http.MethodGet, "/api/f1/2024.json")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"error":"Upstream API error","status":503}`, rec.Body.String())

	// Errors are not cached
	serve(t, s, http.MethodGet, "/api/f1/2024.json")
	assert.Equal(t, int32(2), stub.hits.Load())
}

func TestProxy_UpstreamUnreachable(t *testing.T) {
	stub := &upstreamStub{status: http.StatusOK}
	s := newProxyServer(t, stub)
	s.proxy.(*Proxy).upstream = "http://127.0.0.1:1/ergast/f1"

	rec := serve(t, s, http.MethodGet, "/api/f1/current.json")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"Failed to fetch from upstream"`)
}

func TestProxy_QueryForwarded(t *testing.T) {
	stub := &upstreamStub{status: http.StatusOK, body: `{}`}
	s := newProxyServer(t, stub)

	serve(t, s, http.MethodGet, "/api/f1/2024/results.json?limit=100")
	assert.Equal(t, "/ergast/f1/2024/results.json?limit=100", stub.lastPath.Load())
}

func TestProxy_OversizedBodyIsRejected(t *testing.T) {
	stub := &upstreamStub{status: http.StatusOK, body: `{"MRData":{"RaceTable":{"Races":[]}}}`}
	s := newProxyServer(t, stub)
	s.proxy.(*Proxy).maxBody = 16

	rec := serve(t, s, http.MethodGet, "/api/f1/current.json")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"Failed to fetch from upstream"`)
	assert.Contains(t, rec.Body.String(), "exceeds 16 bytes")

	// Truncated bodies are never cached
	serve(t, s, http.MethodGet, "/api/f1/current.json")
	assert.Equal(t, int32(2), stub.hits.Load())
}

func TestProxy_BodyAtLimitIsServed(t *testing.T) {
	stub := &upstreamStub{status: http.StatusOK, body: `{"a":1}`}
	s := newProxyServer(t, stub)
	s.proxy.(*Proxy).maxBody = int64(len(stub.body))

	rec := serve(t, s, http.MethodGet, "/api/f1/current.json")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, stub.body, rec.Body.String())
}
