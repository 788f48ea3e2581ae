package app

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/pitwall/internal/common"
	"github.com/ternarybob/pitwall/internal/fixtures"
)

func testConfig(t *testing.T) *common.Config {
	t.Helper()

	public := t.TempDir()
	page := `<html><body><select id="roundSelect"></select><button id="shareBtn"></button></body></html>`
	require.NoError(t, os.WriteFile(filepath.Join(public, "index.html"), []byte(page), 0644))

	config := common.NewDefaultConfig()
	config.Server.Host = "127.0.0.1"
	config.Server.Port = 0
	config.Server.PublicDir = public
	config.Output.Dir = t.TempDir()
	return config
}

func TestNew_WithProxy(t *testing.T) {
	a, err := New(testConfig(t), arbor.NewLogger())
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Proxy)
	assert.NotNil(t, a.Cache)
	assert.Contains(t, a.Fixtures.Names(), fixtures.F1Current)
}

func TestNew_ProxyDisabled(t *testing.T) {
	config := testConfig(t)
	config.Proxy.Enabled = false

	a, err := New(config, arbor.NewLogger())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Proxy)
	assert.Nil(t, a.DB)

	baseURL, err := a.Start()
	require.NoError(t, err)

	resp, err := http.Get(baseURL + "/api/f1/current")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestStartServesStatic(t *testing.T) {
	a, err := New(testConfig(t), arbor.NewLogger())
	require.NoError(t, err)

	baseURL, err := a.Start()
	require.NoError(t, err)

	resp, err := http.Get(baseURL + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "roundSelect")

	require.NoError(t, a.Close())
	_, err = http.Get(baseURL + "/")
	assert.Error(t, err)
}

func TestPreflight(t *testing.T) {
	config := testConfig(t)
	config.Preflight.RequiredIDs = []string{"roundSelect", "radarSlider"}

	a, err := New(config, arbor.NewLogger())
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, []string{"radarSlider"}, a.Preflight())

	config.Preflight.Enabled = false
	assert.Nil(t, a.Preflight())
}

func TestNew_BadFixtureDir(t *testing.T) {
	config := testConfig(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f1_current.json"), []byte(`{"MRData":{}}`), 0644))
	config.Fixtures.Dir = dir

	_, err := New(config, arbor.NewLogger())
	assert.Error(t, err)
}
