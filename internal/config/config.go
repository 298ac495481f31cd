package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"
)

// Global configuration variables
var (
	// APIURL is the base URL of the proxy serving fetch-sheets-data and sheets-crud
	APIURL string
	// APIKey is sent to the proxy as the apikey header, if set
	APIKey string
	// LocalDB points the CLI at a SQLite store instead of the proxy when set
	LocalDB string
	// RoomCount is the number of rooms used for occupancy figures
	RoomCount int
)

// InitConfig initializes the global configuration
func InitConfig() {
	// Set default values
	viper.SetDefault("api.url", "http://localhost:8787")
	viper.SetDefault("stats.rooms", 14)

	// Get values from viper
	APIURL = viper.GetString("api.url")
	APIKey = viper.GetString("api.key")
	LocalDB = viper.GetString("local.dbfile")
	RoomCount = viper.GetInt("stats.rooms")
}

// SetAPIURL overrides the proxy URL, ignoring empty values
func SetAPIURL(url string) {
	if url != "" {
		APIURL = url
	}
}

// SetAPIKey overrides the proxy API key, ignoring empty values
func SetAPIKey(key string) {
	if key != "" {
		APIKey = key
	}
}

// SetLocalDB overrides the local SQLite store path, ignoring empty values
func SetLocalDB(path string) {
	if path != "" {
		LocalDB = path
	}
}

// ProxyEnv holds the deploy-time settings of the proxy server.
// Command line flags take precedence over these.
type ProxyEnv struct {
	Port            string        `env:"PORT"                       envDefault:"8787"`
	AppsScriptURL   string        `env:"APPS_SCRIPT_URL"`
	Backend         string        `env:"CONCIERGE_BACKEND"          envDefault:"appsscript"`
	DBFile          string        `env:"CONCIERGE_DB_FILE"          envDefault:"./concierge.db"`
	RatePerSecond   int           `env:"CONCIERGE_UPSTREAM_RATE"    envDefault:"5"`
	UpstreamTimeout time.Duration `env:"CONCIERGE_UPSTREAM_TIMEOUT"`
	CacheFile       string        `env:"CONCIERGE_CACHE_FILE"`
	CacheTTL        time.Duration `env:"CONCIERGE_CACHE_TTL"        envDefault:"24h"`
	FallbackFile    string        `env:"CONCIERGE_FALLBACK_FILE"`
}

// LoadProxyEnv parses ProxyEnv from the environment.
func LoadProxyEnv() (ProxyEnv, error) {
	var cfg ProxyEnv
	if err := env.Parse(&cfg); err != nil {
		return ProxyEnv{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.AppsScriptURL == "" {
		cfg.AppsScriptURL = viper.GetString("appsscript.url")
	}
	return cfg, nil
}
