package config

import (
	"testing"
	"time"
)

func TestLoad_RequiresBackendURL(t *testing.T) {
	t.Setenv("DOCFORGE_BACKEND_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load succeeded without DOCFORGE_BACKEND_URL")
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DOCFORGE_BACKEND_URL", "http://localhost:8080")
	t.Setenv("DOCFORGE_CACHE_DIR", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Cache.BackendTTL != DefaultBackendTTL {
		t.Errorf("BackendTTL = %v, want %v", cfg.Cache.BackendTTL, DefaultBackendTTL)
	}
	if cfg.Cache.GuidelineTTL != DefaultGuidelineTTL {
		t.Errorf("GuidelineTTL = %v, want %v", cfg.Cache.GuidelineTTL, DefaultGuidelineTTL)
	}
	if cfg.Cache.SiteTTL != DefaultSiteTTL {
		t.Errorf("SiteTTL = %v, want %v", cfg.Cache.SiteTTL, DefaultSiteTTL)
	}
	if cfg.Workflow.SessionTTL != DefaultSessionTTL {
		t.Errorf("SessionTTL = %v, want %v", cfg.Workflow.SessionTTL, DefaultSessionTTL)
	}
	if cfg.Quiet {
		t.Error("Quiet = true, want false by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DOCFORGE_BACKEND_URL", "http://backend:9000")
	t.Setenv("DOCFORGE_CACHE_DIR", t.TempDir())
	t.Setenv("DOCFORGE_BACKEND_CACHE_TTL", "2h")
	t.Setenv("DOCFORGE_SESSION_TTL", "45m")
	t.Setenv("DOCFORGE_DEFAULT_SITE", "acme-main")
	t.Setenv("DOCFORGE_QUIET", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Backend.BaseURL != "http://backend:9000" {
		t.Errorf("BaseURL = %s", cfg.Backend.BaseURL)
	}
	if cfg.Cache.BackendTTL != 2*time.Hour {
		t.Errorf("BackendTTL = %v, want 2h", cfg.Cache.BackendTTL)
	}
	if cfg.Workflow.SessionTTL != 45*time.Minute {
		t.Errorf("SessionTTL = %v, want 45m", cfg.Workflow.SessionTTL)
	}
	if cfg.DefaultSite != "acme-main" {
		t.Errorf("DefaultSite = %s", cfg.DefaultSite)
	}
	if !cfg.Quiet {
		t.Error("Quiet = false, want true")
	}
}

func TestLoad_MalformedDurationFallsBack(t *testing.T) {
	t.Setenv("DOCFORGE_BACKEND_URL", "http://localhost:8080")
	t.Setenv("DOCFORGE_CACHE_DIR", t.TempDir())
	t.Setenv("DOCFORGE_GUIDELINE_CACHE_TTL", "not-a-duration")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cache.GuidelineTTL != DefaultGuidelineTTL {
		t.Errorf("GuidelineTTL = %v, want default", cfg.Cache.GuidelineTTL)
	}
}

func TestLoad_ExtDBDriverDefaultsToSQLite(t *testing.T) {
	t.Setenv("DOCFORGE_BACKEND_URL", "http://localhost:8080")
	t.Setenv("DOCFORGE_CACHE_DIR", t.TempDir())
	t.Setenv("DOCFORGE_EXTDB_DSN", "file:fallback.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ExtDB.Driver != "sqlite" {
		t.Errorf("ExtDB.Driver = %s, want sqlite", cfg.ExtDB.Driver)
	}
}
