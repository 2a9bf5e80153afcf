package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"drivemover/internal/config"
	"drivemover/internal/services"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsExpandPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "drivemover", "data")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.CookieFile() != filepath.Join(wantData, "115-cookies.txt") {
		t.Fatalf("unexpected cookie file: %q", cfg.CookieFile())
	}
	if cfg.MinFileSizeBytes != 200*1024*1024 {
		t.Fatalf("unexpected min size: %d", cfg.MinFileSizeBytes)
	}
	if cfg.CheckInterval() != 5*time.Minute {
		t.Fatalf("unexpected interval: %s", cfg.CheckInterval())
	}
	if cfg.Retry.Count != 3 || cfg.CallTimeout() != 120*time.Second || cfg.RetryBackoff() != 5*time.Second {
		t.Fatalf("unexpected retry defaults: %+v", cfg.Retry)
	}
	if cfg.MovePause() != 500*time.Millisecond {
		t.Fatalf("unexpected move pause: %s", cfg.MovePause())
	}
	if cfg.Logging.RetentionDays != 7 {
		t.Fatalf("unexpected retention: %d", cfg.Logging.RetentionDays)
	}
	if len(cfg.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", cfg.Warnings)
	}
	if err := cfg.Validate(); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error without mappings, got %v", err)
	}
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := writeConfig(t, `
[[mappings]]
source = "/from-file"
target = "/to-file"

[filter]
min_file_size = "1GB"
exclude_extensions = ["tmp"]

[schedule]
check_interval_minutes = 7
`)
	t.Setenv("PATH_MAPPINGS", "/a->/b, c->d")
	t.Setenv("MIN_FILE_SIZE", "500k")
	t.Setenv("COOKIE", "  UID=1; CID=2  ")

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected file to be found at %q, got %q exists=%v", path, resolved, exists)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	want := []config.PathMapping{{Source: "/a", Target: "/b"}, {Source: "/c", Target: "/d"}}
	if len(cfg.Mappings) != len(want) {
		t.Fatalf("unexpected mappings: %+v", cfg.Mappings)
	}
	for i := range want {
		if cfg.Mappings[i] != want[i] {
			t.Fatalf("mapping %d: got %+v want %+v", i, cfg.Mappings[i], want[i])
		}
	}
	if cfg.MinFileSizeBytes != 500*1024 {
		t.Fatalf("expected env min size to win, got %d", cfg.MinFileSizeBytes)
	}
	if cfg.Schedule.CheckIntervalMinutes != 7 {
		t.Fatalf("expected file interval, got %d", cfg.Schedule.CheckIntervalMinutes)
	}
	if len(cfg.Filter.ExcludeExtensions) != 1 || cfg.Filter.ExcludeExtensions[0] != ".tmp" {
		t.Fatalf("unexpected extensions: %v", cfg.Filter.ExcludeExtensions)
	}
	if cfg.Remote.Cookie != "UID=1; CID=2" {
		t.Fatalf("unexpected cookie: %q", cfg.Remote.Cookie)
	}
}

func TestLoadSourceTargetFallback(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SOURCE_PATH", "downloads")
	t.Setenv("TARGET_PATH", "/media")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if len(cfg.Mappings) != 1 || cfg.Mappings[0].Source != "/downloads" || cfg.Mappings[0].Target != "/media" {
		t.Fatalf("unexpected mappings: %+v", cfg.Mappings)
	}
}

func TestLoadClampsWithWarnings(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PATH_MAPPINGS", "/a->/b,broken,/x->")
	t.Setenv("CHECK_INTERVAL", "1")
	t.Setenv("API_TIMEOUT", "3")
	t.Setenv("API_RETRY_COUNT", "25")
	t.Setenv("LOG_RETENTION_DAYS", "abc")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Schedule.CheckIntervalMinutes != 2 {
		t.Fatalf("expected interval floor, got %d", cfg.Schedule.CheckIntervalMinutes)
	}
	if cfg.Retry.TimeoutSeconds != 10 {
		t.Fatalf("expected timeout floor, got %d", cfg.Retry.TimeoutSeconds)
	}
	if cfg.Retry.Count != 10 {
		t.Fatalf("expected retry count clamp, got %d", cfg.Retry.Count)
	}
	if cfg.Logging.RetentionDays != 7 {
		t.Fatalf("expected retention fallback, got %d", cfg.Logging.RetentionDays)
	}
	if len(cfg.Mappings) != 1 {
		t.Fatalf("expected malformed mappings dropped, got %+v", cfg.Mappings)
	}
	joined := strings.Join(cfg.Warnings, "\n")
	for _, fragment := range []string{"broken", "/x->", "check interval", "api timeout", "retry count", "LOG_RETENTION_DAYS"} {
		if !strings.Contains(joined, fragment) {
			t.Fatalf("expected warning mentioning %q, got:\n%s", fragment, joined)
		}
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
	}{
		{name: "interval", key: "CHECK_INTERVAL", val: "soon"},
		{name: "size", key: "MIN_FILE_SIZE", val: "big"},
		{name: "format", key: "LOG_FORMAT", val: "xml"},
		{name: "notify url", key: "NOTIFY_URL", val: "ftp://example"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("HOME", t.TempDir())
			t.Setenv(tc.key, tc.val)
			_, _, _, err := config.Load("")
			if !errors.Is(err, services.ErrConfiguration) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestSampleConfigLoads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		t.Fatalf("sample config is not valid TOML: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config should validate: %v", err)
	}
	if len(cfg.Filter.ExcludeExtensions) == 0 {
		t.Fatal("expected sample exclusions")
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q: %v", dir, err)
		}
	}
}
