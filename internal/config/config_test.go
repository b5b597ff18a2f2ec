package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIBind != defaultAPIBind {
		t.Fatalf("APIBind = %q, want %q", cfg.APIBind, defaultAPIBind)
	}
	wantLog, err := expandPath(defaultLogPath)
	if err != nil {
		t.Fatalf("expandPath(defaultLogPath) returned error: %v", err)
	}
	if cfg.LogPath != wantLog {
		t.Fatalf("LogPath = %q, want %q", cfg.LogPath, wantLog)
	}
	if cfg.ProbeTimeout != 8*time.Second || cfg.FeedTimeout != 8*time.Second {
		t.Fatalf("timeouts = %v/%v, want 8s/8s", cfg.ProbeTimeout, cfg.FeedTimeout)
	}
	if cfg.OfflineInterval != 10*time.Second || cfg.RestoredNotice != 5*time.Second {
		t.Fatalf("offline/restored = %v/%v, want 10s/5s", cfg.OfflineInterval, cfg.RestoredNotice)
	}
	if cfg.MetricsAddr != "" {
		t.Fatalf("MetricsAddr = %q, want metrics disabled by default", cfg.MetricsAddr)
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := writeConfig(t, `
api_bind = "  10.0.0.5:9999  "
log_path = "  ~/.harbor/console.log  "
log_level = "DEBUG"
metrics_addr = ":9464"
probe_timeout = "3s"
offline_interval = "30s"
database_dsn = "host=db user=harbor dbname=harbor"
demo = true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIBind != "10.0.0.5:9999" {
		t.Fatalf("APIBind = %q, want %q", cfg.APIBind, "10.0.0.5:9999")
	}
	if !strings.HasPrefix(cfg.LogPath, home) {
		t.Fatalf("LogPath = %q, want it under HOME %q", cfg.LogPath, home)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if cfg.ProbeTimeout != 3*time.Second || cfg.OfflineInterval != 30*time.Second {
		t.Fatalf("durations = %v/%v, want 3s/30s", cfg.ProbeTimeout, cfg.OfflineInterval)
	}
	if cfg.FeedTimeout != defaultFeedTimeout {
		t.Fatalf("FeedTimeout = %v, want default", cfg.FeedTimeout)
	}
	if !cfg.Demo || cfg.DatabaseDSN == "" || cfg.MetricsAddr != ":9464" {
		t.Fatalf("server fields not parsed: %#v", cfg)
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("HARBOR_API_BIND", "backoffice:8087")
	t.Setenv("HARBOR_FEED_TIMEOUT", "2s")

	path := writeConfig(t, `api_bind = "10.0.0.5:9999"`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIBind != "backoffice:8087" {
		t.Fatalf("APIBind = %q, want env override", cfg.APIBind)
	}
	if cfg.FeedTimeout != 2*time.Second {
		t.Fatalf("FeedTimeout = %v, want 2s", cfg.FeedTimeout)
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	path := writeConfig(t, `
api_bind = "   "
log_path = ""
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIBind != defaultAPIBind {
		t.Fatalf("APIBind = %q, want %q", cfg.APIBind, defaultAPIBind)
	}
	if cfg.Listen != defaultListen {
		t.Fatalf("Listen = %q, want %q", cfg.Listen, defaultListen)
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	path := writeConfig(t, `api_bind = [`)
	_, err := Load(path)
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestLoad_InvalidDurations(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	if _, err := Load(writeConfig(t, `probe_timeout = "soon"`)); err == nil || !strings.Contains(err.Error(), "probe_timeout") {
		t.Fatalf("Load error = %v, want probe_timeout parse error", err)
	}
	if _, err := Load(writeConfig(t, `restored_notice = "-1s"`)); err == nil || !strings.Contains(err.Error(), "must be positive") {
		t.Fatalf("Load error = %v, want positive duration error", err)
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}
