// Package config handles hypergraph configuration via environment variables
// and optional YAML files.
//
// Configuration starts from Default(), is optionally overlaid with a YAML file
// (LoadFile), and is finally overridden by HYPERGRAPH_* environment variables.
// Validate() should be called before use.
//
// Example Usage:
//
//	cfg, err := config.LoadFile("hypergraph.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("Invalid config: %v", err)
//	}
//
// Environment Variables:
//   - HYPERGRAPH_GRAPH_ID="1"
//   - HYPERGRAPH_ID_TYPE="uint64" or "string"
//   - HYPERGRAPH_ID_SOURCE="sequence", "uuid" or "digest"
//   - HYPERGRAPH_DIGEST_NAMESPACE="fixtures"
//   - HYPERGRAPH_ID_KEY="Id", HYPERGRAPH_REVISION_KEY="RevId"
//   - HYPERGRAPH_INDEX_STORE="map", "bitmap" or "badger"
//   - HYPERGRAPH_LOAD_WORKERS=4
//   - HYPERGRAPH_LOG_LEVEL="info", HYPERGRAPH_LOG_FORMAT="text" or "json"
//   - HYPERGRAPH_LOG_OUTPUT="stderr", "stdout" or a file path
//   - HYPERGRAPH_LOG_MAX_SIZE_MB=100, HYPERGRAPH_LOG_MAX_BACKUPS=3,
//     HYPERGRAPH_LOG_MAX_AGE_DAYS=28, HYPERGRAPH_LOG_COMPRESS=true
//   - HYPERGRAPH_METRICS_ENABLED=true, HYPERGRAPH_METRICS_ADDRESS=":2112",
//     HYPERGRAPH_METRICS_PATH="/metrics"
//   - HYPERGRAPH_MEMORY_LIMIT="2GiB", HYPERGRAPH_GC_PERCENT=100
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Identifier types and sources.
const (
	IDTypeUint64 = "uint64"
	IDTypeString = "string"

	IDSourceSequence = "sequence"
	IDSourceUUID     = "uuid"
	IDSourceDigest   = "digest"
)

// Index store backends.
const (
	StoreMap    = "map"
	StoreBitmap = "bitmap"
	StoreBadger = "badger"
)

// Config holds all hypergraph configuration.
//
// Configuration is organized into logical sections:
//   - Graph: identity, identifier issuance and property keys
//   - Index: backing store for declared property indexes
//   - Loader: fixture loading concurrency
//   - Logging: level, format and output rotation
//   - Metrics: Prometheus exporter
//   - Memory: Go runtime tuning
type Config struct {
	Graph   GraphConfig   `yaml:"graph"`
	Index   IndexConfig   `yaml:"index"`
	Loader  LoaderConfig  `yaml:"loader"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Memory  MemoryConfig  `yaml:"memory"`
}

// GraphConfig holds graph identity and identifier settings.
type GraphConfig struct {
	// ID of the graph; must parse as uint64 when IDType is uint64
	ID string `yaml:"id"`
	// IDType (uint64, string)
	IDType string `yaml:"id_type"`
	// IDSource (sequence for uint64; uuid or digest for string)
	IDSource string `yaml:"id_source"`
	// DigestNamespace seeds deterministic digest identifiers
	DigestNamespace string `yaml:"digest_namespace"`
	// IDKey is the property key holding element identifiers
	IDKey string `yaml:"id_key"`
	// RevisionKey is the property key holding revisions
	RevisionKey string `yaml:"revision_key"`
}

// IndexConfig selects the store used for property indexes.
type IndexConfig struct {
	// Store (map, bitmap, badger); bitmap requires uint64 identifiers
	Store string `yaml:"store"`
}

// LoaderConfig holds fixture loading settings.
type LoaderConfig struct {
	// Workers bounds the number of fixture files parsed concurrently
	Workers int `yaml:"workers"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level (debug, info, warn, error)
	Level string `yaml:"level"`
	// Format (json, text)
	Format string `yaml:"format"`
	// Output path (stdout, stderr, or file path)
	Output string `yaml:"output"`
	// Rotation settings, used when Output is a file
	MaxSizeMB  int  `yaml:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days"`
	Compress   bool `yaml:"compress"`
}

// MetricsConfig holds Prometheus exporter settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
	Path    string `yaml:"path"`
}

// MemoryConfig holds Go runtime memory tuning.
type MemoryConfig struct {
	// RuntimeLimitStr is the human-readable soft memory limit (e.g. "2GiB").
	// Empty or "0" means unlimited.
	RuntimeLimitStr string `yaml:"runtime_limit"`
	// RuntimeLimit is RuntimeLimitStr in bytes, filled in by Validate
	RuntimeLimit int64 `yaml:"-"`
	// GCPercent controls GC aggressiveness (GOGC)
	GCPercent int `yaml:"gc_percent"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Graph: GraphConfig{
			ID:              "1",
			IDType:          IDTypeUint64,
			IDSource:        IDSourceSequence,
			DigestNamespace: "hypergraph",
			IDKey:           "Id",
			RevisionKey:     "RevId",
		},
		Index:  IndexConfig{Store: StoreMap},
		Loader: LoaderConfig{Workers: runtime.NumCPU()},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Metrics: MetricsConfig{
			Address: ":2112",
			Path:    "/metrics",
		},
		Memory: MemoryConfig{GCPercent: 100},
	}
}

// LoadFromEnv returns Default() overridden by environment variables.
//
// Thread Safety:
//
//	LoadFromEnv reads environment variables which are process-global and
//	should not be modified after startup.
func LoadFromEnv() *Config {
	c := Default()
	c.applyEnv()
	return c
}

// LoadFile reads a YAML configuration file over Default() and applies
// environment overrides on top. Unknown keys are rejected.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.applyEnv()
	return c, nil
}

func (c *Config) applyEnv() {
	c.Graph.ID = getEnv("HYPERGRAPH_GRAPH_ID", c.Graph.ID)
	c.Graph.IDType = strings.ToLower(getEnv("HYPERGRAPH_ID_TYPE", c.Graph.IDType))
	c.Graph.IDSource = strings.ToLower(getEnv("HYPERGRAPH_ID_SOURCE", c.Graph.IDSource))
	c.Graph.DigestNamespace = getEnv("HYPERGRAPH_DIGEST_NAMESPACE", c.Graph.DigestNamespace)
	c.Graph.IDKey = getEnv("HYPERGRAPH_ID_KEY", c.Graph.IDKey)
	c.Graph.RevisionKey = getEnv("HYPERGRAPH_REVISION_KEY", c.Graph.RevisionKey)

	c.Index.Store = strings.ToLower(getEnv("HYPERGRAPH_INDEX_STORE", c.Index.Store))
	c.Loader.Workers = getEnvInt("HYPERGRAPH_LOAD_WORKERS", c.Loader.Workers)

	c.Logging.Level = getEnv("HYPERGRAPH_LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = strings.ToLower(getEnv("HYPERGRAPH_LOG_FORMAT", c.Logging.Format))
	c.Logging.Output = getEnv("HYPERGRAPH_LOG_OUTPUT", c.Logging.Output)
	c.Logging.MaxSizeMB = getEnvInt("HYPERGRAPH_LOG_MAX_SIZE_MB", c.Logging.MaxSizeMB)
	c.Logging.MaxBackups = getEnvInt("HYPERGRAPH_LOG_MAX_BACKUPS", c.Logging.MaxBackups)
	c.Logging.MaxAgeDays = getEnvInt("HYPERGRAPH_LOG_MAX_AGE_DAYS", c.Logging.MaxAgeDays)
	c.Logging.Compress = getEnvBool("HYPERGRAPH_LOG_COMPRESS", c.Logging.Compress)

	c.Metrics.Enabled = getEnvBool("HYPERGRAPH_METRICS_ENABLED", c.Metrics.Enabled)
	c.Metrics.Address = getEnv("HYPERGRAPH_METRICS_ADDRESS", c.Metrics.Address)
	c.Metrics.Path = getEnv("HYPERGRAPH_METRICS_PATH", c.Metrics.Path)

	c.Memory.RuntimeLimitStr = getEnv("HYPERGRAPH_MEMORY_LIMIT", c.Memory.RuntimeLimitStr)
	c.Memory.GCPercent = getEnvInt("HYPERGRAPH_GC_PERCENT", c.Memory.GCPercent)
}

// Validate checks the configuration for errors and resolves derived values
// (Memory.RuntimeLimit).
//
// Returns nil if configuration is valid, or an error describing the problem.
func (c *Config) Validate() error {
	switch c.Graph.IDType {
	case IDTypeUint64:
		if c.Graph.IDSource != IDSourceSequence {
			return fmt.Errorf("id source %q requires string identifiers", c.Graph.IDSource)
		}
		id, err := strconv.ParseUint(c.Graph.ID, 10, 64)
		if err != nil || id == 0 {
			return fmt.Errorf("graph id %q must be a positive integer", c.Graph.ID)
		}
	case IDTypeString:
		if c.Graph.IDSource != IDSourceUUID && c.Graph.IDSource != IDSourceDigest {
			return fmt.Errorf("id source %q is not valid for string identifiers", c.Graph.IDSource)
		}
		if c.Graph.ID == "" {
			return fmt.Errorf("graph id must not be empty")
		}
	default:
		return fmt.Errorf("invalid id type: %q", c.Graph.IDType)
	}
	if c.Graph.IDKey == "" || c.Graph.RevisionKey == "" || c.Graph.IDKey == c.Graph.RevisionKey {
		return fmt.Errorf("id key and revision key must be set and distinct")
	}

	switch c.Index.Store {
	case StoreMap, StoreBadger:
	case StoreBitmap:
		if c.Graph.IDType != IDTypeUint64 {
			return fmt.Errorf("bitmap index store requires uint64 identifiers")
		}
	default:
		return fmt.Errorf("invalid index store: %q", c.Index.Store)
	}

	if c.Loader.Workers <= 0 {
		return fmt.Errorf("invalid loader workers: %d", c.Loader.Workers)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.Logging.Level)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("invalid log format: %q", c.Logging.Format)
	}
	if c.Logging.Output == "" {
		return fmt.Errorf("log output must not be empty")
	}

	if c.Metrics.Enabled {
		if c.Metrics.Address == "" {
			return fmt.Errorf("metrics enabled but no address provided")
		}
		if !strings.HasPrefix(c.Metrics.Path, "/") {
			return fmt.Errorf("invalid metrics path: %q", c.Metrics.Path)
		}
	}

	limit, err := parseMemorySize(c.Memory.RuntimeLimitStr)
	if err != nil {
		return fmt.Errorf("invalid memory limit %q: %w", c.Memory.RuntimeLimitStr, err)
	}
	c.Memory.RuntimeLimit = limit
	return nil
}

// String returns a one-line summary of the Config, suitable for logging.
func (c *Config) String() string {
	limit := "unlimited"
	if c.Memory.RuntimeLimit > 0 {
		limit = humanize.IBytes(uint64(c.Memory.RuntimeLimit))
	}
	metrics := "off"
	if c.Metrics.Enabled {
		metrics = c.Metrics.Address + c.Metrics.Path
	}
	return fmt.Sprintf(
		"Config{Graph: %s (%s/%s), Index: %s, Workers: %d, Log: %s/%s -> %s, Metrics: %s, MemLimit: %s}",
		c.Graph.ID, c.Graph.IDType, c.Graph.IDSource,
		c.Index.Store, c.Loader.Workers,
		c.Logging.Level, c.Logging.Format, c.Logging.Output,
		metrics, limit,
	)
}

// YAML renders the configuration as a YAML document.
func (c *Config) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// ApplyRuntimeMemory applies the runtime memory settings to the Go runtime.
// Should be called early in main() before heavy allocations.
func (c *MemoryConfig) ApplyRuntimeMemory() {
	if c.RuntimeLimit > 0 {
		debug.SetMemoryLimit(c.RuntimeLimit)
	}
	if c.GCPercent != 100 {
		debug.SetGCPercent(c.GCPercent)
	}
}

// Helper functions for environment variable parsing

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(val)
		return val == "true" || val == "1" || val == "yes" || val == "on"
	}
	return defaultVal
}

// parseMemorySize parses a human-readable memory size such as "512MB",
// "2GiB" or "1073741824". Empty, "0" and "unlimited" mean no limit.
func parseMemorySize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" || strings.EqualFold(s, "unlimited") {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}
