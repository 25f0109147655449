package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/beacondash/internal/config"
)

// newDefaultTarget returns a Config with known non-zero values so tests can
// verify that absent overlay keys leave the original values intact.
func newDefaultTarget() *config.Config {
	return &config.Config{
		Version: "1.0.0",
		Tavern: config.TavernConfig{
			URL:         "https://tavern.example/graphql",
			TokenHeader: "X-Tavern-Auth",
			Timeout:     10 * time.Second,
		},
		Table: config.TableConfig{
			Height:            30,
			EstimateRowHeight: 1,
			Overscan:          5,
			PollInterval:      5 * time.Second,
			LoadMoreThreshold: 5,
			PageSize:          50,
		},
		Cache: config.CacheConfig{
			Enabled:    true,
			TTLSeconds: 3600,
			MaxSizeMB:  100,
		},
		Logging: config.LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// writeOverlay is a test helper that writes YAML content to a temp file
// and returns its path.
func writeOverlay(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "overlay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestShallowMergeYAML_SingleKeyOverride(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, `
table:
  page_size: 100
  poll_interval: 2s
`)

	require.NoError(t, config.ShallowMergeYAML(target, overlay))

	assert.Equal(t, 100, target.Table.PageSize)
	assert.Equal(t, 2*time.Second, target.Table.PollInterval)
	// The section is replaced as a whole.
	assert.Zero(t, target.Table.Height)

	assert.Equal(t, "info", target.Logging.Level)
	assert.Equal(t, "https://tavern.example/graphql", target.Tavern.URL)
	assert.Equal(t, 3600, target.Cache.TTLSeconds)
}

func TestShallowMergeYAML_MultipleKeyOverride(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, `
tavern:
  url: http://localhost:8000/graphql
  timeout: 1m
cache:
  enabled: false
  ttl_seconds: 600
  max_size_mb: 50
`)

	require.NoError(t, config.ShallowMergeYAML(target, overlay))

	assert.Equal(t, "http://localhost:8000/graphql", target.Tavern.URL)
	assert.Equal(t, time.Minute, target.Tavern.Timeout)
	assert.Empty(t, target.Tavern.TokenHeader)
	assert.False(t, target.Cache.Enabled)
	assert.Equal(t, 600, target.Cache.TTLSeconds)
	assert.Equal(t, 50, target.Cache.MaxSizeMB)
	assert.Equal(t, 30, target.Table.Height)
}

func TestShallowMergeYAML_Version(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, "version: 1.2.0\n")

	require.NoError(t, config.ShallowMergeYAML(target, overlay))
	assert.Equal(t, "1.2.0", target.Version)
}

func TestShallowMergeYAML_EmptyOverlayFile(t *testing.T) {
	target := newDefaultTarget()
	original := *target

	require.NoError(t, config.ShallowMergeYAML(target, writeOverlay(t, "")))

	assert.Equal(t, original.Tavern, target.Tavern)
	assert.Equal(t, original.Table, target.Table)
	assert.Equal(t, original.Cache, target.Cache)
	assert.Equal(t, original.Logging, target.Logging)
}

func TestShallowMergeYAML_CommentOnlyFile(t *testing.T) {
	target := newDefaultTarget()
	original := *target
	overlay := writeOverlay(t, "# this file is intentionally empty\n# just comments\n")

	require.NoError(t, config.ShallowMergeYAML(target, overlay))

	assert.Equal(t, original.Table, target.Table)
	assert.Equal(t, original.Logging, target.Logging)
}

func TestShallowMergeYAML_UnknownKeysIgnored(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, `
theme: dark
logging:
  level: debug
`)

	require.NoError(t, config.ShallowMergeYAML(target, overlay))
	assert.Equal(t, "debug", target.Logging.Level)
}

func TestShallowMergeYAML_CorruptedYAMLReturnsError(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, "{{{{not valid yaml at all")

	err := config.ShallowMergeYAML(target, overlay)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing overlay YAML")
}

func TestShallowMergeYAML_BadSectionReturnsError(t *testing.T) {
	target := newDefaultTarget()
	overlay := writeOverlay(t, `
table:
  page_size: lots
`)

	err := config.ShallowMergeYAML(target, overlay)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `applying overlay section "table"`)
}

func TestShallowMergeYAML_MissingFileReturnsError(t *testing.T) {
	err := config.ShallowMergeYAML(newDefaultTarget(), "/nonexistent/path/overlay.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading overlay file")
}

func TestShallowMergeYAML_NilTarget(t *testing.T) {
	err := config.ShallowMergeYAML(nil, writeOverlay(t, "version: 1.0.0\n"))
	require.Error(t, err)
}
