package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"github.com/lepinkainen/concierge/internal/cache"
	"github.com/lepinkainen/concierge/internal/config"
	"github.com/lepinkainen/concierge/internal/datastore"
	"github.com/lepinkainen/concierge/internal/fallback"
	"github.com/lepinkainen/concierge/internal/proxy"
	"github.com/lepinkainen/concierge/internal/ratelimit"
)

const shutdownTimeout = 10 * time.Second

var listenAndServe = func(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// ServeCmd represents the serve command
type ServeCmd struct {
	Addr         string `help:"Listen address (defaults to :$PORT)"`
	Backend      string `help:"Where sheets live: appsscript or sqlite (defaults to $CONCIERGE_BACKEND)"`
	ScriptURL    string `name:"script-url" help:"Apps Script web app URL (defaults to $APPS_SCRIPT_URL)"`
	DBFile       string `name:"db-file" help:"SQLite sheet store for the sqlite backend"`
	FallbackFile string `name:"fallback-file" help:"YAML dataset served when the backend is unreachable"`
	NoCache      bool   `name:"no-cache" help:"Do not cache successful reads for use as fallback data"`
}

func (s *ServeCmd) Run() error {
	env, err := config.LoadProxyEnv()
	if err != nil {
		return err
	}
	s.applyTo(&env)

	store, err := openStore(env)
	if err != nil {
		return err
	}
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	policy, err := loadFallback(env.FallbackFile)
	if err != nil {
		return err
	}

	opts := []proxy.Option{proxy.WithFallback(policy)}
	if !s.NoCache {
		cacheFile := env.CacheFile
		if cacheFile == "" {
			cacheFile = viper.GetString("cache.dbfile")
		}
		db, err := cache.NewCacheDB(cacheFile)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		lastGood := cache.NewLastGood(db, env.CacheTTL, policy)
		opts = []proxy.Option{proxy.WithFallback(lastGood), proxy.WithRecorder(lastGood)}
		slog.Info("Caching sheet reads", "database", cacheFile, "ttl", env.CacheTTL)
	}

	server := proxy.NewServer(store, opts...)
	defer server.Feed().Close()

	addr := s.Addr
	if addr == "" {
		addr = ":" + env.Port
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Server listening", "addr", addr, "backend", env.Backend)
	if err := listenAndServe(ctx, srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}

// applyTo lets flags override the environment.
func (s *ServeCmd) applyTo(env *config.ProxyEnv) {
	if s.Backend != "" {
		env.Backend = s.Backend
	}
	if s.ScriptURL != "" {
		env.AppsScriptURL = s.ScriptURL
	}
	if s.DBFile != "" {
		env.DBFile = s.DBFile
	}
	if s.FallbackFile != "" {
		env.FallbackFile = s.FallbackFile
	}
}

// openStore returns nil without error when the Apps Script backend has no
// URL; the proxy then serves fallback data only.
func openStore(env config.ProxyEnv) (datastore.Store, error) {
	switch env.Backend {
	case "sqlite":
		store := datastore.NewSQLiteStore(env.DBFile)
		if err := store.Connect(); err != nil {
			return nil, err
		}
		return store, nil
	case "appsscript", "":
		if env.AppsScriptURL == "" {
			slog.Warn("Apps Script URL not configured, serving fallback data")
			return nil, nil
		}
		client, err := datastore.NewAppsScriptClient(env.AppsScriptURL,
			datastore.WithRateLimiter(ratelimit.New("apps-script", env.RatePerSecond)),
			datastore.WithTimeout(env.UpstreamTimeout))
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown backend %q (expected appsscript or sqlite)", env.Backend)
	}
}

func loadFallback(path string) (fallback.Policy, error) {
	load := fallback.Default
	if path != "" {
		load = func() (*fallback.Static, error) { return fallback.LoadFile(path) }
	}
	policy, err := load()
	if err != nil {
		return nil, fmt.Errorf("failed to load fallback data: %w", err)
	}
	return policy, nil
}
