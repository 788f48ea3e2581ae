package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/pitwall/internal/common"
)

func newTestConfig(t *testing.T) *common.Config {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte(`<html><body><select id="roundSelect"></select></body></html>`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte(`console.log("app")`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "PRIVACY.md"), []byte(`# Privacy`), 0644))

	config := common.NewDefaultConfig()
	config.Server.Host = "127.0.0.1"
	config.Server.Port = 0
	config.Server.PublicDir = dir
	return config
}

func serve(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestRoutes_Static(t *testing.T) {
	s := New(newTestConfig(t), arbor.NewLogger(), nil)

	rec := serve(t, s, http.MethodGet, "/app.js")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `console.log("app")`, rec.Body.String())

	rec = serve(t, s, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="roundSelect"`)

	rec = serve(t, s, http.MethodGet, "/PRIVACY.md")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRoutes_SPAFallback(t *testing.T) {
	s := New(newTestConfig(t), arbor.NewLogger(), nil)

	rec := serve(t, s, http.MethodGet, "/race/2024/1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="roundSelect"`)

	rec = serve(t, s, http.MethodGet, "/missing.js")
	assert.Equal(t, http.StatusNotFound, rec.Code, "files with an extension are not rewritten")
}

func TestRoutes_API(t *testing.T) {
	s := New(newTestConfig(t), arbor.NewLogger(), nil)

	rec := serve(t, s, http.MethodGet, "/api/other")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"API endpoint not found"}`, rec.Body.String())

	rec = serve(t, s, http.MethodGet, "/api/f1/current.json")
	assert.Equal(t, http.StatusNotFound, rec.Code, "proxy disabled")

	rec = serve(t, s, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	var health map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])

	rec = serve(t, s, http.MethodPost, "/app.js")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRoutes_Preflight(t *testing.T) {
	s := New(newTestConfig(t), arbor.NewLogger(), nil)

	rec := serve(t, s, http.MethodOptions, "/api/f1/current")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
}

func TestServer_StartServeShutdown(t *testing.T) {
	s := New(newTestConfig(t), arbor.NewLogger(), nil)
	require.NoError(t, s.Start())
	assert.NotEqual(t, "http://127.0.0.1:0", s.URL(), "URL reports the bound port")

	done := make(chan error, 1)
	go func() { done <- s.Serve() }()

	resp, err := http.Get(s.URL() + "/app.js")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, `console.log("app")`, string(body))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.NoError(t, <-done)
}

func TestServer_PortInUse(t *testing.T) {
	config := newTestConfig(t)
	first := New(config, arbor.NewLogger(), nil)
	require.NoError(t, first.Start())
	go first.Serve()
	defer first.Shutdown(context.Background())

	busy := *config
	busy.Server.Port = portOf(t, first.URL())

	second := New(&busy, arbor.NewLogger(), nil)
	err := second.Start()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPortInUse)
}

func TestServer_ServeWithoutStart(t *testing.T) {
	s := New(newTestConfig(t), arbor.NewLogger(), nil)
	assert.Error(t, s.Serve())
}

func portOf(t *testing.T, rawURL string) int {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return port
}
