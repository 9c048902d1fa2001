package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Type)
	assert.Equal(t, "https://nominatim.openstreetmap.org", cfg.Geocoder.BaseURL)
	assert.Equal(t, 10, cfg.Geocoder.TimeoutSecs)
	assert.Equal(t, "lsi", cfg.Index.Type)
	assert.Equal(t, 100, cfg.Index.NumTopics)
	assert.InDelta(t, 0.01, cfg.Index.MinScore, 1e-12)
	assert.Equal(t, 5, cfg.Filter.MinGroupCount)
	assert.Equal(t, "Fogg", cfg.Segmenter.Protagonist)
	assert.Len(t, cfg.Segmenter.MetadataKeys, 5)
	assert.NotEmpty(t, cfg.Annotator.Patterns)
}

func TestLoad_YAMLOverridesAndDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geotext.yaml")
	content := `
store:
  type: bolt
  path: /tmp/loc.bolt
index:
  num_topics: 20
filter:
  allowed_types: [bay]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "bolt", cfg.Store.Type)
	assert.Equal(t, "/tmp/loc.bolt", cfg.Store.Path)
	assert.Equal(t, 20, cfg.Index.NumTopics)
	assert.Equal(t, []string{"bay"}, cfg.Filter.AllowedTypes)
	assert.Equal(t, []string{"natural", "waterway"}, cfg.Filter.AllowedClasses)
	assert.InDelta(t, 0.5, cfg.Index.NoAbove, 1e-12)
}

func TestLoad_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geotext.toml")
	content := `
[store]
type = "memory"

[geocoder]
user_agent = "test-agent"
requests_per_second = 2.5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Type)
	assert.Equal(t, "test-agent", cfg.Geocoder.UserAgent)
	assert.InDelta(t, 2.5, cfg.Geocoder.RequestsPerSecond, 1e-12)
	assert.Equal(t, 3, cfg.Geocoder.MaxRetries)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store: [unterminated"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GEOTEXT_STORE_PATH", "/data/x.db")
	t.Setenv("GEOTEXT_USER_AGENT", "env-agent")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/data/x.db", cfg.Store.Path)
	assert.Equal(t, "env-agent", cfg.Geocoder.UserAgent)
}

func TestSave_RoundTripsThroughLoad(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"c.yaml", "c.toml"} {
		path := filepath.Join(dir, "nested", name)
		cfg := defaultConfig()
		cfg.Index.NumTopics = 42
		require.NoError(t, Save(path, cfg))

		loaded, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 42, loaded.Index.NumTopics, name)
		assert.Equal(t, cfg.Filter, loaded.Filter, name)
	}
}
