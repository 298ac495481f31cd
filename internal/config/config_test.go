package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	InitConfig()

	assert.Equal(t, "http://localhost:8787", APIURL)
	assert.Equal(t, "", APIKey)
	assert.Equal(t, 14, RoomCount)
}

func TestInitConfigReadsViper(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("api.url", "https://proxy.example.com")
	viper.Set("api.key", "anon-key")
	viper.Set("local.dbfile", "./sheets.db")
	viper.Set("stats.rooms", 20)

	InitConfig()

	assert.Equal(t, "https://proxy.example.com", APIURL)
	assert.Equal(t, "anon-key", APIKey)
	assert.Equal(t, "./sheets.db", LocalDB)
	assert.Equal(t, 20, RoomCount)
}

func TestSettersIgnoreEmpty(t *testing.T) {
	APIURL = "http://a"
	SetAPIURL("")
	assert.Equal(t, "http://a", APIURL)
	SetAPIURL("http://b")
	assert.Equal(t, "http://b", APIURL)
}

func TestLoadProxyEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("PORT", "9000")
	t.Setenv("APPS_SCRIPT_URL", "https://script.example.com/exec")
	t.Setenv("CONCIERGE_CACHE_TTL", "2h")
	t.Setenv("CONCIERGE_UPSTREAM_TIMEOUT", "45s")

	cfg, err := LoadProxyEnv()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "https://script.example.com/exec", cfg.AppsScriptURL)
	assert.Equal(t, "appsscript", cfg.Backend)
	assert.Equal(t, 5, cfg.RatePerSecond)
	assert.Equal(t, 2*time.Hour, cfg.CacheTTL)
	assert.Equal(t, 45*time.Second, cfg.UpstreamTimeout)
}

func TestLoadProxyEnvFallsBackToConfigFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("APPS_SCRIPT_URL", "")
	viper.Set("appsscript.url", "https://script.example.com/from-config")

	cfg, err := LoadProxyEnv()
	require.NoError(t, err)
	assert.Equal(t, "https://script.example.com/from-config", cfg.AppsScriptURL)
}

func TestLoadProxyEnvRejectsBadDuration(t *testing.T) {
	t.Setenv("CONCIERGE_CACHE_TTL", "soon")

	_, err := LoadProxyEnv()
	assert.Error(t, err)
}
