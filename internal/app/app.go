// -----------------------------------------------------------------------
// Composition root: wires config, logger, fixtures, proxy cache and server
// -----------------------------------------------------------------------

package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/pitwall/internal/common"
	"github.com/ternarybob/pitwall/internal/fixtures"
	"github.com/ternarybob/pitwall/internal/harness"
	"github.com/ternarybob/pitwall/internal/server"
	"github.com/ternarybob/pitwall/internal/storage/badger"
)

const shutdownTimeout = 5 * time.Second

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Mock payloads substituted for external APIs
	Fixtures *fixtures.Set

	// F1 proxy and its response cache (nil when the proxy is disabled)
	DB    *badger.BadgerDB
	Cache *badger.ResponseCache
	Proxy *server.Proxy

	// Local static server
	Server *server.Server
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	set, err := fixtures.Load(cfg.Fixtures.Dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load fixtures: %w", err)
	}
	app.Fixtures = set

	if err := app.initProxy(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize proxy: %w", err)
	}

	// A nil *Proxy must not reach the server as a non-nil interface
	var proxy http.Handler
	if app.Proxy != nil {
		proxy = app.Proxy
	}
	app.Server = server.New(cfg, logger, proxy)

	logger.Debug().
		Str("public_dir", cfg.Server.PublicDir).
		Bool("proxy", app.Proxy != nil).
		Strs("fixtures", set.Names()).
		Msg("Application initialized")

	return app, nil
}

func (a *App) initProxy() error {
	if !a.Config.Proxy.Enabled {
		return nil
	}

	db, err := badger.NewBadgerDB(a.Logger, a.Config.Proxy.CachePath)
	if err != nil {
		return err
	}
	a.DB = db
	a.Cache = badger.NewResponseCache(db, a.Logger, a.Config.CacheTTL())
	a.Proxy = server.NewProxy(a.Config, a.Cache, a.Logger)

	a.Logger.Debug().
		Str("upstream", a.Config.Proxy.UpstreamURL).
		Str("cache_path", a.Config.Proxy.CachePath).
		Msg("F1 proxy initialized")
	return nil
}

// Start binds the server and serves in the background. It returns the base URL.
// Serve errors after startup are logged.
func (a *App) Start() (string, error) {
	if err := a.Server.Start(); err != nil {
		return "", err
	}
	common.SafeGo(a.Logger, "server", func() {
		if err := a.Server.Serve(); err != nil {
			a.Logger.Error().Err(err).Msg("Server stopped unexpectedly")
		}
	})
	return a.Server.URL(), nil
}

// Preflight logs DOM contract ids missing from index.html.
// Missing ids are warnings: the frontend may create them at runtime.
func (a *App) Preflight() []string {
	if !a.Config.Preflight.Enabled {
		return nil
	}

	missing, err := harness.Preflight(a.Config.Server.PublicDir, a.Config.Preflight.RequiredIDs)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Preflight skipped")
		return nil
	}
	for _, id := range missing {
		a.Logger.Warn().Str("id", id).Msg("Element id not found in index.html")
	}
	return missing
}

// Runner returns a scenario runner writing verdict lines to out.
func (a *App) Runner(out io.Writer) *harness.Runner {
	return harness.NewRunner(a.Config, a.Fixtures, a.Logger, out)
}

// PruneCache drops expired proxy responses.
func (a *App) PruneCache() {
	if a.Cache == nil {
		return
	}
	if err := a.Cache.Prune(); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to prune proxy cache")
	}
}

// Close shuts down the server and closes the cache database.
func (a *App) Close() error {
	if a.Server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.Server.Shutdown(ctx); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to shut down server")
		}
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			return fmt.Errorf("failed to close cache database: %w", err)
		}
		a.DB = nil
	}

	a.Logger.Debug().Msg("Application closed")
	return nil
}
