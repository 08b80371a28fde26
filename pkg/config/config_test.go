package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	assert.Equal(t, "1", c.Graph.ID)
	assert.Equal(t, IDTypeUint64, c.Graph.IDType)
	assert.Equal(t, IDSourceSequence, c.Graph.IDSource)
	assert.Equal(t, "Id", c.Graph.IDKey)
	assert.Equal(t, "RevId", c.Graph.RevisionKey)
	assert.Equal(t, StoreMap, c.Index.Store)
	assert.Positive(t, c.Loader.Workers)
	assert.False(t, c.Metrics.Enabled)
	assert.Zero(t, c.Memory.RuntimeLimit)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HYPERGRAPH_GRAPH_ID", "people")
	t.Setenv("HYPERGRAPH_ID_TYPE", "STRING")
	t.Setenv("HYPERGRAPH_ID_SOURCE", "digest")
	t.Setenv("HYPERGRAPH_DIGEST_NAMESPACE", "fixtures")
	t.Setenv("HYPERGRAPH_INDEX_STORE", "badger")
	t.Setenv("HYPERGRAPH_LOAD_WORKERS", "2")
	t.Setenv("HYPERGRAPH_LOG_FORMAT", "JSON")
	t.Setenv("HYPERGRAPH_LOG_COMPRESS", "yes")
	t.Setenv("HYPERGRAPH_METRICS_ENABLED", "1")
	t.Setenv("HYPERGRAPH_METRICS_ADDRESS", "127.0.0.1:9100")
	t.Setenv("HYPERGRAPH_MEMORY_LIMIT", "2GiB")

	c := LoadFromEnv()
	require.NoError(t, c.Validate())

	assert.Equal(t, "people", c.Graph.ID)
	assert.Equal(t, IDTypeString, c.Graph.IDType)
	assert.Equal(t, IDSourceDigest, c.Graph.IDSource)
	assert.Equal(t, "fixtures", c.Graph.DigestNamespace)
	assert.Equal(t, StoreBadger, c.Index.Store)
	assert.Equal(t, 2, c.Loader.Workers)
	assert.Equal(t, "json", c.Logging.Format)
	assert.True(t, c.Logging.Compress)
	assert.True(t, c.Metrics.Enabled)
	assert.Equal(t, "127.0.0.1:9100", c.Metrics.Address)
	assert.Equal(t, int64(2<<30), c.Memory.RuntimeLimit)
}

func TestLoadFromEnv_BadIntKeepsDefault(t *testing.T) {
	t.Setenv("HYPERGRAPH_LOAD_WORKERS", "many")
	assert.Equal(t, Default().Loader.Workers, LoadFromEnv().Loader.Workers)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hypergraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
graph:
  id: "7"
index:
  store: bitmap
logging:
  level: debug
  output: hypergraph.log
metrics:
  enabled: true
`), 0o600))

	t.Run("file over defaults", func(t *testing.T) {
		c, err := LoadFile(path)
		require.NoError(t, err)
		require.NoError(t, c.Validate())

		assert.Equal(t, "7", c.Graph.ID)
		assert.Equal(t, StoreBitmap, c.Index.Store)
		assert.Equal(t, "debug", c.Logging.Level)
		assert.Equal(t, "hypergraph.log", c.Logging.Output)
		assert.True(t, c.Metrics.Enabled)
		// untouched keys keep their defaults
		assert.Equal(t, "/metrics", c.Metrics.Path)
		assert.Equal(t, 100, c.Logging.MaxSizeMB)
	})

	t.Run("env over file", func(t *testing.T) {
		t.Setenv("HYPERGRAPH_LOG_LEVEL", "warn")
		t.Setenv("HYPERGRAPH_GRAPH_ID", "9")

		c, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "warn", c.Logging.Level)
		assert.Equal(t, "9", c.Graph.ID)
		assert.Equal(t, StoreBitmap, c.Index.Store)
	})

	t.Run("empty file", func(t *testing.T) {
		empty := filepath.Join(dir, "empty.yaml")
		require.NoError(t, os.WriteFile(empty, nil, 0o600))

		c, err := LoadFile(empty)
		require.NoError(t, err)
		assert.Equal(t, Default().Graph, c.Graph)
	})

	t.Run("unknown key", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("graph:\n  colour: red\n"), 0o600))

		_, err := LoadFile(bad)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown id type", func(c *Config) { c.Graph.IDType = "float" }},
		{"uuid with uint64", func(c *Config) { c.Graph.IDSource = IDSourceUUID }},
		{"sequence with string", func(c *Config) { c.Graph.IDType = IDTypeString }},
		{"zero graph id", func(c *Config) { c.Graph.ID = "0" }},
		{"non numeric graph id", func(c *Config) { c.Graph.ID = "abc" }},
		{"empty string graph id", func(c *Config) {
			c.Graph.IDType, c.Graph.IDSource, c.Graph.ID = IDTypeString, IDSourceUUID, ""
		}},
		{"same keys", func(c *Config) { c.Graph.RevisionKey = c.Graph.IDKey }},
		{"empty id key", func(c *Config) { c.Graph.IDKey = "" }},
		{"unknown store", func(c *Config) { c.Index.Store = "redis" }},
		{"bitmap with strings", func(c *Config) {
			c.Graph.IDType, c.Graph.IDSource, c.Index.Store = IDTypeString, IDSourceUUID, StoreBitmap
		}},
		{"no workers", func(c *Config) { c.Loader.Workers = 0 }},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }},
		{"empty output", func(c *Config) { c.Logging.Output = "" }},
		{"metrics without address", func(c *Config) { c.Metrics.Enabled, c.Metrics.Address = true, "" }},
		{"metrics bad path", func(c *Config) { c.Metrics.Enabled, c.Metrics.Path = true, "metrics" }},
		{"bad memory limit", func(c *Config) { c.Memory.RuntimeLimitStr = "lots" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestParseMemorySize(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"", 0},
		{"0", 0},
		{"unlimited", 0},
		{"UNLIMITED", 0},
		{"1024", 1024},
		{"1KiB", 1024},
		{"512MiB", 512 << 20},
		{"  2GiB  ", 2 << 30},
		{"1GB", 1_000_000_000},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseMemorySize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseMemorySize("abc")
	assert.Error(t, err)
}

func TestString(t *testing.T) {
	c := Default()
	c.Memory.RuntimeLimitStr = "1GiB"
	c.Metrics.Enabled = true
	require.NoError(t, c.Validate())

	s := c.String()
	assert.Contains(t, s, "Graph: 1 (uint64/sequence)")
	assert.Contains(t, s, "Metrics: :2112/metrics")
	assert.Contains(t, s, "MemLimit: 1.0 GiB")
}

func TestYAMLRoundTrip(t *testing.T) {
	c := Default()
	c.Graph.ID = "42"
	out, err := c.YAML()
	require.NoError(t, err)
	assert.Contains(t, out, `id: "42"`)

	path := filepath.Join(t.TempDir(), "round.yaml")
	require.NoError(t, os.WriteFile(path, []byte(out), 0o600))
	back, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, c.Graph, back.Graph)
	assert.Equal(t, c.Logging, back.Logging)
}
