package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"drivemover/internal/config"
	"drivemover/internal/logging"
	"drivemover/internal/services"
)

func TestNewFromConfigWritesDailyFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, daily, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	t.Cleanup(func() { _ = daily.Close() })

	logger.Info("hello from test")

	content, err := os.ReadFile(daily.Path())
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello from test") {
		t.Fatalf("expected message in log file, got %q", content)
	}
	if !strings.HasPrefix(daily.Path(), cfg.Paths.LogDir) || !strings.Contains(daily.Path(), "drivemover-") {
		t.Fatalf("unexpected log path %q", daily.Path())
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message without caller")
	if strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", buf.String())
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message with caller")
	if !strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", buf.String())
	}
}

func TestConsoleLoggerRendersSubjectAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := services.WithCycle(context.Background(), 4)
	ctx = services.WithMapping(ctx, "/a->/b")
	ctx = services.WithRequestID(ctx, "corr-1")

	component := logging.NewComponentLogger(logger, "mover")
	logging.WithContext(ctx, component).Info("file moved", logging.String("file", "a.mp4"), logging.Int64("size", 600*1024))

	out := buf.String()
	for _, fragment := range []string{"[mover]", "Cycle 4 · /a->/b", "file moved", "- File: a.mp4", "- Size: 600.00 KB", "1 more field hidden"} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected %q in output:\n%s", fragment, out)
		}
	}
	if strings.Contains(out, "corr-1") {
		t.Fatalf("correlation id should be hidden at info level:\n%s", out)
	}
}

func TestJSONLoggerWritesToFileAndWriter(t *testing.T) {
	var terminal, file bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &terminal, File: &file})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("json message", logging.String("k", "v"))

	for name, buf := range map[string]*bytes.Buffer{"terminal": &terminal, "file": &file} {
		var payload map[string]any
		if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
			t.Fatalf("%s output is not JSON: %v (%q)", name, err, buf.String())
		}
		if payload["msg"] != "json message" || payload["k"] != "v" || payload["level"] != "info" {
			t.Fatalf("%s payload unexpected: %v", name, payload)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "scan failed", "scan_failed", logging.String(logging.FieldImpact, "mapping skipped"))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload[logging.FieldEventType] != "scan_failed" {
		t.Fatalf("unexpected event type: %v", payload)
	}
	if payload[logging.FieldImpact] != "mapping skipped" {
		t.Fatalf("explicit impact should win: %v", payload)
	}
	if payload[logging.FieldErrorHint] == nil {
		t.Fatalf("expected default error hint: %v", payload)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := services.WithCycle(context.Background(), 2)
	ctx = services.WithRequestID(ctx, "req-xyz")
	fields := logging.ContextFields(ctx)
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %v", fields)
	}
	if fields[0].Key != logging.FieldCycle || fields[0].Value.Int64() != 2 {
		t.Fatalf("unexpected cycle field: %v", fields[0])
	}
	if fields[1].Key != logging.FieldCorrelationID || fields[1].Value.String() != "req-xyz" {
		t.Fatalf("unexpected correlation field: %v", fields[1])
	}
}

func TestAlertAndAnyAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("stopped",
		logging.Alert("session_expired"),
		logging.Any("per_mapping", map[string]int{"/a -> /b": 2}),
	)

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload[logging.FieldAlert] != "session_expired" {
		t.Fatalf("unexpected alert field: %v", payload)
	}
	perMapping, ok := payload["per_mapping"].(map[string]any)
	if !ok || perMapping["/a -> /b"] != float64(2) {
		t.Fatalf("unexpected per_mapping field: %v", payload)
	}
}
