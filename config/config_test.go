package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir = "/var/lib/uniart"

[logging]
level = "debug"
format = "json"

[marketplace]
royalty_ceiling_bps = 2500
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/uniart", cfg.DataDir)
	require.Equal(t, "debug", cfg.Logging.Level)
	require.Equal(t, "json", cfg.Logging.Format)
	require.Equal(t, uint32(2500), cfg.Marketplace.RoyaltyCeilingBps)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[logging]
level = "warn"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.Logging.Level)
	require.Equal(t, Default().DataDir, cfg.DataDir)
	require.Equal(t, Default().Marketplace.RoyaltyCeilingBps, cfg.Marketplace.RoyaltyCeilingBps)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Marketplace.RoyaltyCeilingBps = 10001
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Marketplace.RoyaltyCeilingBps = 0
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.DataDir = ""
	require.Error(t, cfg.Validate())
}
