package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"drivemover/internal/config"
	"drivemover/internal/logging"
	"drivemover/internal/services"
)

const userAgent = "drivemover/1.0"

// Urgency maps onto ntfy priorities.
type Urgency string

const (
	UrgencyLow     Urgency = "low"
	UrgencyDefault Urgency = "default"
	UrgencyHigh    Urgency = "high"
	UrgencyUrgent  Urgency = "urgent"
)

// MappingSummary carries per-mapping counts for a cycle.
type MappingSummary struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Moved  int    `json:"moved"`
	Failed int    `json:"failed"`
}

// Summary is the callback payload sent after a productive cycle.
type Summary struct {
	Event         string           `json:"event"`
	Cycle         int              `json:"cycle"`
	CorrelationID string           `json:"correlation_id,omitempty"`
	Moved         int              `json:"moved"`
	Failed        int              `json:"failed"`
	TotalMoved    int              `json:"total_moved"`
	TotalFailed   int              `json:"total_failed"`
	Mappings      []MappingSummary `json:"mappings,omitempty"`
	Timestamp     time.Time        `json:"timestamp"`
}

// Dispatcher is the notification surface used by the agent.
type Dispatcher interface {
	// Alert publishes an operator alert. Errors are logged, never returned.
	Alert(ctx context.Context, title, body string, urgency Urgency)
	// Callback posts a cycle summary. Errors are logged, never returned.
	Callback(ctx context.Context, summary Summary)
	// Test sends a test message and reports delivery failures.
	Test(ctx context.Context) error
}

// NewDispatcher builds a dispatcher for the configured endpoints.
func NewDispatcher(cfg *config.Config, logger *slog.Logger) Dispatcher {
	if cfg == nil {
		return noopDispatcher{}
	}
	alertURL := strings.TrimSpace(cfg.Notifications.AlertURL)
	callbackURL := strings.TrimSpace(cfg.Notifications.CallbackURL)
	if alertURL == "" && callbackURL == "" {
		return noopDispatcher{}
	}
	timeout := cfg.NotificationTimeout()
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &httpDispatcher{
		alertURL:    alertURL,
		callbackURL: callbackURL,
		timeout:     timeout,
		client:      &http.Client{Timeout: timeout},
		logger:      logging.NewComponentLogger(logger, "notify"),
	}
}

type httpDispatcher struct {
	alertURL    string
	callbackURL string
	timeout     time.Duration
	client      *http.Client
	logger      *slog.Logger
}

func (d *httpDispatcher) Alert(ctx context.Context, title, body string, urgency Urgency) {
	if d.alertURL == "" {
		return
	}
	if err := d.sendAlert(ctx, title, body, urgency, "drivemover,alert"); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, d.logger), "alert delivery failed", "notification_failed",
			logging.String("title", title),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.alert_url and network reachability"),
			logging.String(logging.FieldImpact, "operator was not alerted"),
		)
	}
}

func (d *httpDispatcher) Callback(ctx context.Context, summary Summary) {
	if d.callbackURL == "" {
		return
	}
	if err := d.sendCallback(ctx, summary); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, d.logger), "callback delivery failed", "callback_failed",
			logging.Int("moved", summary.Moved),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.callback_url and the receiving service"),
			logging.String(logging.FieldImpact, "downstream refresh was not triggered"),
		)
	}
}

func (d *httpDispatcher) Test(ctx context.Context) error {
	if d.alertURL != "" {
		if err := d.sendAlert(ctx, "drivemover - Test", "Notification system test", UrgencyLow, "drivemover,test"); err != nil {
			return err
		}
	}
	if d.callbackURL != "" {
		if err := d.sendCallback(ctx, Summary{Event: "test", Timestamp: time.Now().UTC()}); err != nil {
			return err
		}
	}
	return nil
}

func (d *httpDispatcher) sendAlert(ctx context.Context, title, body string, urgency Urgency, tags string) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.alertURL, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: build alert request: %w", services.ErrNotification, err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if title = strings.TrimSpace(title); title != "" {
		req.Header.Set("Title", title)
	}
	req.Header.Set("Tags", tags)
	if urgency != "" && urgency != UrgencyDefault {
		req.Header.Set("Priority", string(urgency))
	}
	return d.do(req, "alert")
}

func (d *httpDispatcher) sendCallback(ctx context.Context, summary Summary) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if summary.Event == "" {
		summary.Event = "cycle_completed"
	}
	if summary.Timestamp.IsZero() {
		summary.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("%w: encode callback: %w", services.ErrNotification, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.callbackURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: build callback request: %w", services.ErrNotification, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return d.do(req, "callback")
}

func (d *httpDispatcher) do(req *http.Request, kind string) error {
	req.Header.Set("User-Agent", userAgent)
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: send %s: %w", services.ErrNotification, kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("%w: %s returned %d: %s", services.ErrNotification, kind, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopDispatcher struct{}

func (noopDispatcher) Alert(context.Context, string, string, Urgency) {}

func (noopDispatcher) Callback(context.Context, Summary) {}

func (noopDispatcher) Test(context.Context) error {
	return fmt.Errorf("%w: no alert_url or callback_url configured", services.ErrConfiguration)
}
