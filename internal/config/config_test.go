package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempIni(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.ini")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadRealmConfigParsesWorldSections(t *testing.T) {
	path := writeTempIni(t, `
[net]
realm_port = 3724

[world1]
type = 1
isLocked = 0
color = 0
name = Testrealm
address = 10.0.0.9
game_port = 8085
comm_port = 8086
timezone = 1
`)

	cfg, err := LoadRealmConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3724, cfg.RealmPort)
	require.Len(t, cfg.Worlds, 1)
	assert.Equal(t, "Testrealm", cfg.Worlds[0].Name)
	assert.Equal(t, 8085, cfg.Worlds[0].GamePort)
	assert.Equal(t, 8086, cfg.Worlds[0].CommPort)
}

func TestLoadRealmConfigNonNumericPortIsError(t *testing.T) {
	path := writeTempIni(t, `
[net]
realm_port = not-a-number
`)
	_, err := LoadRealmConfig(path)
	require.Error(t, err)
}

func TestLoadRealmConfigWithNoWorldsIsFine(t *testing.T) {
	path := writeTempIni(t, `
[net]
realm_port = 3724
`)
	cfg, err := LoadRealmConfig(path)
	require.NoError(t, err)
	assert.Empty(t, cfg.Worlds)
}

func TestLoadWorldConfig(t *testing.T) {
	path := writeTempIni(t, `
[net]
game_port = 8085

[realm]
comm_port = 8086
address = 10.0.0.1
`)

	cfg, err := LoadWorldConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8085, cfg.GamePort)
	assert.Equal(t, 8086, cfg.RealmCommPort)
	assert.Equal(t, "10.0.0.1", cfg.RealmAddress)
}

func TestLoadRealmConfigRejectsMissingFile(t *testing.T) {
	_, err := LoadRealmConfig("/nonexistent/path.ini")
	require.Error(t, err)
}
