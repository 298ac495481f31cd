package testutil

import (
	"testing"

	"github.com/spf13/viper"

	"github.com/lepinkainen/concierge/internal/config"
)

// ConfigState holds the state of the config package variables.
type ConfigState struct {
	APIURL    string
	APIKey    string
	LocalDB   string
	RoomCount int
}

// SaveConfigState captures the current state of config package variables.
func SaveConfigState() ConfigState {
	return ConfigState{
		APIURL:    config.APIURL,
		APIKey:    config.APIKey,
		LocalDB:   config.LocalDB,
		RoomCount: config.RoomCount,
	}
}

// RestoreConfigState restores the config package variables to a saved state.
func RestoreConfigState(state ConfigState) {
	config.APIURL = state.APIURL
	config.APIKey = state.APIKey
	config.LocalDB = state.LocalDB
	config.RoomCount = state.RoomCount
}

// ResetConfig saves the current config state, resets viper, and restores
// both when the test completes.
func ResetConfig(t *testing.T) {
	t.Helper()

	state := SaveConfigState()
	viper.Reset()

	t.Cleanup(func() {
		RestoreConfigState(state)
		viper.Reset()
	})
}

// UseLocalStore points the CLI configuration at a SQLite file inside env.
func UseLocalStore(t *testing.T, env *TestEnv) string {
	t.Helper()

	ResetConfig(t)
	dbPath := env.DBPath("sheets")
	config.LocalDB = dbPath
	config.RoomCount = 14
	return dbPath
}
