package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, "en0", cfg.Interface)
	assert.Equal(t, uint16(5555), cfg.Port)
	assert.Equal(t, "schema.json", cfg.SchemaPath)
}

func TestLoadFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dofuscap.yaml")
	require.NoError(t, os.WriteFile(path, []byte("interface: wlan0\nport: 9999\n"), 0o644))

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "wlan0", cfg.Interface)
	assert.Equal(t, uint16(9999), cfg.Port)
}

func TestLoadEnvOverridesConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dofuscap.yaml")
	require.NoError(t, os.WriteFile(path, []byte("interface: wlan0\n"), 0o644))

	t.Setenv("DOFUSCAP_INTERFACE", "tun0")
	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "tun0", cfg.Interface)
}

func TestLoadMissingConfigFileIsNotAnError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "")
	require.NoError(t, err)
}
