package testsupport

import (
	"path/filepath"
	"testing"

	"drivemover/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Mappings = []config.PathMapping{{Source: "/incoming", Target: "/library"}}
	cfgVal.MinFileSizeBytes = 500 * 1024
	cfgVal.Filter.MinFileSize = "500KB"
	cfgVal.Schedule.CheckIntervalMinutes = 2
	cfgVal.Schedule.MovePauseMillis = 0
	cfgVal.Retry.Count = 1
	cfgVal.Retry.BackoffSeconds = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithMappings replaces the configured mappings.
func WithMappings(mappings ...config.PathMapping) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Mappings = mappings
	}
}

// WithExcluded sets the normalized excluded extensions.
func WithExcluded(exts ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Filter.ExcludeExtensions = exts
	}
}

// WithNotifyURLs points alerts and callbacks at test servers.
func WithNotifyURLs(alertURL, callbackURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.AlertURL = alertURL
		b.cfg.Notifications.CallbackURL = callbackURL
	}
}

// WithRemoteURL points the drive client at a test server.
func WithRemoteURL(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Remote.BaseURL = baseURL
		b.cfg.Remote.AccountURL = baseURL + "/account"
	}
}
