package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"drivemover/internal/config"
	"drivemover/internal/remote"
	"drivemover/internal/testsupport"
)

var clearedEnv = []string{
	"COOKIE", "DATA_DIR", "LOG_DIR", "PATH_MAPPINGS", "SOURCE_PATH", "TARGET_PATH",
	"MIN_FILE_SIZE", "EXCLUDE_EXTENSIONS", "CHECK_INTERVAL", "SESSION_CHECK_CYCLES",
	"MOVE_PAUSE_MS", "LOG_RETENTION_DAYS", "API_TIMEOUT", "API_RETRY_COUNT",
	"API_RETRY_BACKOFF", "LOG_LEVEL", "LOG_FORMAT", "NOTIFY_URL", "CALLBACK_URL",
}

type cliTestEnv struct {
	configPath string
	drive      *testsupport.FakeDrive
	dataDir    string
}

func setupCLITestEnv(t *testing.T, extraTOML string) *cliTestEnv {
	t.Helper()
	for _, key := range clearedEnv {
		t.Setenv(key, "")
	}
	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("COOKIE", "UID=1; CID=2")

	dataDir := filepath.Join(base, "data")
	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q

[[mappings]]
source = "/incoming"
target = "/library"

[filter]
min_file_size = "500KB"
exclude_extensions = [".tmp"]

[schedule]
move_pause_ms = 0

[retry]
count = 1
backoff_seconds = 0

[logging]
level = "error"
%s`, dataDir, filepath.Join(base, "logs"), extraTOML)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	drive := testsupport.NewFakeDrive()
	previous := newDriveClient
	newDriveClient = func(*config.Config, string) remote.Client { return drive }
	t.Cleanup(func() { newDriveClient = previous })

	return &cliTestEnv{configPath: configPath, drive: drive, dataDir: dataDir}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestResolvePrintsFolderID(t *testing.T) {
	env := setupCLITestEnv(t, "")
	id := env.drive.MkdirAll("/Media/Movies")

	out, _, err := runCLI(t, []string{"resolve", "/Media/Movies"}, env.configPath)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if strings.TrimSpace(out) != string(id) {
		t.Fatalf("expected %s, got %q", id, out)
	}
}

func TestResolveReportsMissingSegment(t *testing.T) {
	env := setupCLITestEnv(t, "")
	env.drive.MkdirAll("/Media")

	_, _, err := runCLI(t, []string{"resolve", "/Media/Shows"}, env.configPath)
	if err == nil {
		t.Fatal("expected error for missing folder")
	}
	requireContains(t, err.Error(), "Shows")
}

func TestListPrintsSubfoldersPlain(t *testing.T) {
	env := setupCLITestEnv(t, "")
	env.drive.MkdirAll("/Media/Movies")
	env.drive.MkdirAll("/Media/Shows")

	out, _, err := runCLI(t, []string{"ls", "/Media"}, env.configPath)
	if err != nil {
		t.Fatalf("ls: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two rows, got %q", out)
	}
	if !strings.HasSuffix(lines[0], "\tMovies") || !strings.HasSuffix(lines[1], "\tShows") {
		t.Fatalf("unexpected rows: %q", lines)
	}
}

func TestScanShowsCandidatesAndStats(t *testing.T) {
	env := setupCLITestEnv(t, "")
	env.drive.AddFile("/incoming", "a.mp4", 600*1024)
	env.drive.AddFile("/incoming", "b.tmp", 900*1024)
	env.drive.AddFile("/incoming", "c.mp4", 100*1024)

	out, _, err := runCLI(t, []string{"scan", "/incoming"}, env.configPath)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	requireContains(t, out, "a.mp4\t600.00 KB")
	requireContains(t, out, "Candidates: 1 of 3 (excluded 1, too small 1, minimum 500.00 KB)")
	if len(env.drive.Moves()) != 0 {
		t.Fatal("scan must not move files")
	}
}

func TestRunOnceMovesFiles(t *testing.T) {
	env := setupCLITestEnv(t, "")
	env.drive.AddFile("/incoming", "a.mp4", 600*1024)
	target := env.drive.MkdirAll("/library")

	out, _, err := runCLI(t, []string{"run", "--once"}, env.configPath)
	if err != nil {
		t.Fatalf("run --once: %v", err)
	}
	requireContains(t, out, "/incoming\t/library\t1\t1\t0\tno")
	requireContains(t, out, "Stopped: completed (moved 1, failed 0)")
	if names := env.drive.FileNames(target); len(names) != 1 {
		t.Fatalf("expected file in target, got %v", names)
	}
	if _, err := os.Stat(filepath.Join(env.dataDir, "115-cookies.txt")); err != nil {
		t.Fatalf("expected cookie persisted: %v", err)
	}
}

func TestRunWithoutMappingsFails(t *testing.T) {
	env := setupCLITestEnv(t, "")
	t.Setenv("PATH_MAPPINGS", "broken-entry")

	_, _, err := runCLI(t, []string{"run", "--once"}, env.configPath)
	if err == nil {
		t.Fatal("expected configuration error")
	}
	requireContains(t, err.Error(), "no path mappings")
}

func TestSessionCheck(t *testing.T) {
	env := setupCLITestEnv(t, "")
	env.drive.Identity = remote.Identity{Success: true, UserID: "42", UserName: "alice"}

	out, _, err := runCLI(t, []string{"session", "check"}, env.configPath)
	if err != nil {
		t.Fatalf("session check: %v", err)
	}
	requireContains(t, out, "Session valid")
	requireContains(t, out, "User: alice (42)")

	env.drive.Identity = remote.Identity{Success: false}
	if _, _, err := runCLI(t, []string{"session", "check"}, env.configPath); err == nil {
		t.Fatal("expected rejected session to fail")
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t, "")

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "/incoming\t/library")
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
}

func TestTestNotifyWithoutEndpoints(t *testing.T) {
	env := setupCLITestEnv(t, "")
	_, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err != errNoNotifyTarget {
		t.Fatalf("expected errNoNotifyTarget, got %v", err)
	}
}

func TestTestNotifySendsAlert(t *testing.T) {
	var title string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		title = r.Header.Get("Title")
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	env := setupCLITestEnv(t, fmt.Sprintf("\n[notifications]\nalert_url = %q\n", srv.URL))
	out, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Test notification sent")
	if title != "drivemover - Test" {
		t.Fatalf("unexpected title %q", title)
	}
}

func TestRenderTableIncludesHeaders(t *testing.T) {
	out := renderTable([]string{"ID", "Name"}, [][]string{{"7", "Movies"}}, []columnAlignment{alignRight})
	requireContains(t, out, "ID")
	requireContains(t, out, "Movies")
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("expected empty render without headers")
	}
}

func TestStatusWhenStopped(t *testing.T) {
	env := setupCLITestEnv(t, "")
	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Running: no")

	out, _, err = runCLI(t, []string{"stop"}, env.configPath)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	requireContains(t, out, "Agent is not running")
}

func TestLogsPrintsLastLines(t *testing.T) {
	env := setupCLITestEnv(t, "")
	logDir := filepath.Join(filepath.Dir(env.configPath), "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := "one\ntwo\nthree\n"
	if err := os.WriteFile(filepath.Join(logDir, "drivemover-2026-03-04.log"), []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs", "-n", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if out != "two\nthree\n" {
		t.Fatalf("unexpected output %q", out)
	}
}
