// Package config loads docforge's runtime configuration from the
// environment. A .env file in the working directory is honored when
// present, so the server can be configured the same way whether it is
// launched by hand or by an MCP host.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Default TTLs for the cache buckets. Each can be overridden via the
// corresponding environment variable (as a Go duration string).
const (
	DefaultBackendTTL   = 1 * time.Hour
	DefaultGuidelineTTL = 30 * time.Minute
	DefaultSiteTTL      = 10 * time.Minute
	DefaultSessionTTL   = 1 * time.Hour
)

// Config holds everything the server needs to run. It is built once at
// startup and passed by reference to the composition root.
type Config struct {
	Backend  BackendConfig
	Tracker  TrackerConfig
	Cache    CacheConfig
	Workflow WorkflowConfig
	ExtDB    ExtDBConfig

	// DefaultSite is the site id or name used when a tool call does not
	// name one explicitly.
	DefaultSite string

	// Quiet suppresses diagnostic logging on stderr (errors still print).
	Quiet bool
}

// BackendConfig points at the document/knowledge backend.
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

// TrackerConfig points at the read-only issue tracker. Optional: when
// BaseURL is empty the tracker client is not constructed at all.
type TrackerConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// CacheConfig controls the fingerprint disk cache and the guideline
// merge cache.
type CacheConfig struct {
	// Dir is the cache root; one file per fingerprint lives under it.
	Dir          string
	BackendTTL   time.Duration
	GuidelineTTL time.Duration
	SiteTTL      time.Duration
}

// WorkflowConfig controls the interactive session store.
type WorkflowConfig struct {
	SessionTTL time.Duration
}

// ExtDBConfig is an optional external database used only as a fallback
// input for table specifications. Driver must be "sqlite" when set.
type ExtDBConfig struct {
	Driver string
	DSN    string
}

// Load reads configuration from the environment. The only hard
// requirement is the backend URL; everything else has a default.
func Load() (*Config, error) {
	// Missing .env is fine — the process environment still applies.
	_ = godotenv.Load()

	backendURL := os.Getenv("DOCFORGE_BACKEND_URL")
	if backendURL == "" {
		return nil, fmt.Errorf("DOCFORGE_BACKEND_URL is required")
	}

	cacheDir := os.Getenv("DOCFORGE_CACHE_DIR")
	if cacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory for cache: %w", err)
		}
		cacheDir = filepath.Join(home, ".docforge", "cache")
	}

	cfg := &Config{
		Backend: BackendConfig{
			BaseURL: backendURL,
			Timeout: getDuration("DOCFORGE_BACKEND_TIMEOUT", 30*time.Second),
		},
		Tracker: TrackerConfig{
			BaseURL: os.Getenv("DOCFORGE_TRACKER_URL"),
			Token:   os.Getenv("DOCFORGE_TRACKER_TOKEN"),
			Timeout: getDuration("DOCFORGE_TRACKER_TIMEOUT", 15*time.Second),
		},
		Cache: CacheConfig{
			Dir:          cacheDir,
			BackendTTL:   getDuration("DOCFORGE_BACKEND_CACHE_TTL", DefaultBackendTTL),
			GuidelineTTL: getDuration("DOCFORGE_GUIDELINE_CACHE_TTL", DefaultGuidelineTTL),
			SiteTTL:      getDuration("DOCFORGE_SITE_CACHE_TTL", DefaultSiteTTL),
		},
		Workflow: WorkflowConfig{
			SessionTTL: getDuration("DOCFORGE_SESSION_TTL", DefaultSessionTTL),
		},
		ExtDB: ExtDBConfig{
			Driver: os.Getenv("DOCFORGE_EXTDB_DRIVER"),
			DSN:    os.Getenv("DOCFORGE_EXTDB_DSN"),
		},
		DefaultSite: os.Getenv("DOCFORGE_DEFAULT_SITE"),
		Quiet:       getBool("DOCFORGE_QUIET", false),
	}

	if cfg.ExtDB.DSN != "" && cfg.ExtDB.Driver == "" {
		cfg.ExtDB.Driver = "sqlite"
	}

	return cfg, nil
}

// getDuration parses an environment variable as a time.Duration,
// falling back to def when unset or malformed.
func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// getBool parses an environment variable as a bool, falling back to
// def when unset or malformed.
func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
