package config

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) string { return "" }

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil, noEnv)
	require.NoError(t, err)
	assert.Equal(t, defaultStateDBFsPath, cfg.StateDBFsPath)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
	assert.Equal(t, ":9090", cfg.MetricsAddr)
}

func TestLoadFlagsOverrideEnvDefaults(t *testing.T) {
	getenv := func(k string) string {
		if k == "SURVEILR_STATEDB_FS_PATH" {
			return "/env/path.db"
		}
		return ""
	}
	cfg, err := Load([]string{"-db", "/flag/path.db"}, getenv)
	require.NoError(t, err)
	assert.Equal(t, "/flag/path.db", cfg.StateDBFsPath)
}

func TestLoadEnvSeedsFlagDefault(t *testing.T) {
	getenv := func(k string) string {
		if k == "SURVEILR_STATEDB_FS_PATH" {
			return "/env/path.db"
		}
		return ""
	}
	cfg, err := Load(nil, getenv)
	require.NoError(t, err)
	assert.Equal(t, "/env/path.db", cfg.StateDBFsPath)
}

func TestLoadRepeatedRootFlags(t *testing.T) {
	cfg, err := Load([]string{"-root", "/a", "-root", "/b"}, noEnv)
	require.NoError(t, err)
	assert.Equal(t, []string{"/a", "/b"}, cfg.RootPaths)
}

func TestLoadInvalidLogLevelFallsBackToInfo(t *testing.T) {
	cfg, err := Load([]string{"-log-level", "not-a-level"}, noEnv)
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, cfg.LogLevel)
}
