package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonvc/stockledger/internal/inventory"
)

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)
	cfg := Default()
	cfg.Accounting.Method = "lifo"
	cfg.Database.Path = "/var/lib/stockledger/shop.db"
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
	assert.Equal(t, inventory.LIFO, got.Method())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPath)
	require.NoError(t, os.WriteFile(path, []byte("accounting:\n  method: average\nlog:\n  level: debug\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, inventory.AVCO, cfg.Method())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, ":8080", cfg.Server.Addr)

	eps, err := cfg.Epsilon()
	require.NoError(t, err)
	assert.Equal(t, "0.01", eps.String())
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"method":      "accounting:\n  method: hifo\n",
		"granularity": "reports:\n  trend_granularity: weekly\n",
		"epsilon":     "reports:\n  epsilon: \"-1\"\n",
		"yaml":        "accounting: [",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
