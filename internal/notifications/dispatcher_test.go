package notifications_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"drivemover/internal/config"
	"drivemover/internal/logging"
	"drivemover/internal/notifications"
	"drivemover/internal/services"
)

type captured struct {
	mu       sync.Mutex
	title    string
	tags     string
	priority string
	ctype    string
	body     string
	calls    int
}

func (c *captured) handler(status int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		c.mu.Lock()
		c.title = r.Header.Get("Title")
		c.tags = r.Header.Get("Tags")
		c.priority = r.Header.Get("Priority")
		c.ctype = r.Header.Get("Content-Type")
		c.body = string(body)
		c.calls++
		c.mu.Unlock()
		w.WriteHeader(status)
	}
}

func TestNewDispatcherNoopWhenUnconfigured(t *testing.T) {
	cfg := config.Default()
	d := notifications.NewDispatcher(&cfg, logging.NewNop())
	d.Alert(context.Background(), "t", "b", notifications.UrgencyHigh)
	d.Callback(context.Background(), notifications.Summary{Moved: 1})
	if err := d.Test(context.Background()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error from noop Test, got %v", err)
	}
}

func TestAlertFormatsNtfyRequest(t *testing.T) {
	var got captured
	server := httptest.NewServer(got.handler(http.StatusOK))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.AlertURL = server.URL
	d := notifications.NewDispatcher(&cfg, logging.NewNop())
	d.Alert(context.Background(), "drivemover - Session expired", "refresh COOKIE", notifications.UrgencyUrgent)

	if got.title != "drivemover - Session expired" || got.body != "refresh COOKIE" {
		t.Fatalf("unexpected alert: %+v", got)
	}
	if got.priority != "urgent" || !strings.Contains(got.tags, "alert") {
		t.Fatalf("unexpected headers: priority=%q tags=%q", got.priority, got.tags)
	}
}

func TestAlertDefaultUrgencyOmitsPriority(t *testing.T) {
	var got captured
	server := httptest.NewServer(got.handler(http.StatusOK))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.AlertURL = server.URL
	notifications.NewDispatcher(&cfg, logging.NewNop()).Alert(context.Background(), "t", "b", notifications.UrgencyDefault)
	if got.priority != "" {
		t.Fatalf("expected no priority header, got %q", got.priority)
	}
}

func TestCallbackPostsJSONSummary(t *testing.T) {
	var got captured
	server := httptest.NewServer(got.handler(http.StatusNoContent))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.CallbackURL = server.URL
	d := notifications.NewDispatcher(&cfg, logging.NewNop())
	d.Callback(context.Background(), notifications.Summary{
		Cycle:      3,
		Moved:      2,
		TotalMoved: 7,
		Mappings:   []notifications.MappingSummary{{Source: "/a", Target: "/b", Moved: 2}},
	})

	if got.ctype != "application/json" {
		t.Fatalf("unexpected content type %q", got.ctype)
	}
	var payload notifications.Summary
	if err := json.Unmarshal([]byte(got.body), &payload); err != nil {
		t.Fatalf("decode callback: %v", err)
	}
	if payload.Event != "cycle_completed" || payload.Cycle != 3 || payload.Moved != 2 || payload.TotalMoved != 7 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if payload.Timestamp.IsZero() || len(payload.Mappings) != 1 {
		t.Fatalf("expected timestamp and mappings, got %+v", payload)
	}
}

func TestFailuresAreSwallowedAndLogged(t *testing.T) {
	var got captured
	server := httptest.NewServer(got.handler(http.StatusInternalServerError))
	defer server.Close()

	var logs bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &logs})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	cfg := config.Default()
	cfg.Notifications.AlertURL = server.URL
	cfg.Notifications.CallbackURL = server.URL
	d := notifications.NewDispatcher(&cfg, logger)
	d.Alert(context.Background(), "t", "b", notifications.UrgencyHigh)
	d.Callback(context.Background(), notifications.Summary{Moved: 1})

	if got.calls != 2 {
		t.Fatalf("expected two deliveries, got %d", got.calls)
	}
	out := logs.String()
	if strings.Count(out, `"level":"warn"`) != 2 {
		t.Fatalf("expected two warnings, got:\n%s", out)
	}
	if err := d.Test(context.Background()); !errors.Is(err, services.ErrNotification) {
		t.Fatalf("expected Test to report notification error, got %v", err)
	}
}

func TestAlertTimeoutIsBounded(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	cfg := config.Default()
	cfg.Notifications.AlertURL = server.URL
	cfg.Notifications.RequestTimeout = 1
	d := notifications.NewDispatcher(&cfg, logging.NewNop())

	start := time.Now()
	d.Alert(context.Background(), "t", "b", notifications.UrgencyHigh)
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("alert blocked for %s", elapsed)
	}
}
