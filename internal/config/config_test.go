package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadNormalizesPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "listen: 0.0.0.0:9000\nsite_url: https://events.example.org/\nfeed:\n  calendar_name: Test Events\nimport:\n  horizon_days: -3\n  retry_max: -1\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9000", cfg.Listen)
	assert.Equal(t, "https://events.example.org", cfg.SiteURL)
	assert.Equal(t, "Test Events", cfg.Feed.CalendarName)
	assert.Equal(t, defaultProdID, cfg.Feed.ProdID)
	assert.Equal(t, defaultUIDDomain, cfg.Feed.UIDDomain)
	assert.Equal(t, defaultSnapshotCron, cfg.Snapshot.Cron)
	assert.Empty(t, cfg.Snapshot.Path)
	assert.Equal(t, defaultHorizonDays, cfg.Import.HorizonDays)
	assert.Equal(t, 0, cfg.Import.RetryMax)
	assert.Nil(t, cfg.BasicAuth)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Snapshot.Path = "/srv/www/events.ics"
	cfg.BasicAuth = &BasicAuthConfig{Username: "admin", Password: "secret"}
	cfg.Import.Tags = []string{"imported"}

	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unclosed"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)

	assert.Error(t, Save(path, nil))
}
