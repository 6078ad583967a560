package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Nil(t, cfg.Panel.Target)

	_, err = LoadConfig("")
	require.Error(t, err)
}

func TestLoadConfigPanel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `[panel]
category = "Chatter"
start = "2023-02-01"
target = 1250.5
target-color = "#ff8800"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Panel.Category)
	assert.Equal(t, "Chatter", *cfg.Panel.Category)
	assert.Equal(t, "2023-02-01", *cfg.Panel.Start)
	assert.Nil(t, cfg.Panel.End)
	assert.Equal(t, 1250.5, *cfg.Panel.Target)
	assert.Equal(t, "#ff8800", *cfg.Panel.TargetColor)
}

func TestLoadConfigUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[panel]\ncolour = \"red\"\n"), 0o644))
	_, err := LoadConfig(path)
	require.ErrorContains(t, err, "panel.colour")
}

func TestDefaultPathsFollowXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("XDG_DATA_HOME", "/tmp/data")
	assert.Equal(t, "/tmp/cfg/usagechart/config.toml", DefaultConfigPath())
	assert.Equal(t, "/tmp/data/usagechart/usagechart.db", DefaultDBPath())
}
