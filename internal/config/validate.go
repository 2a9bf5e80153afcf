package config

import (
	"fmt"
	"net/url"
	"strings"

	"drivemover/internal/services"
)

// Validate ensures the configuration is usable by the daemon, which also
// requires at least one path mapping.
func (c *Config) Validate() error {
	if len(c.Mappings) == 0 {
		return fmt.Errorf("%w: no path mappings configured; %s", services.ErrConfiguration, mappingSyntaxHint)
	}
	return c.validateCore()
}

// validateCore checks everything the browsing commands depend on.
func (c *Config) validateCore() error {
	if c.MinFileSizeBytes < 0 {
		return fmt.Errorf("%w: min_file_size must not be negative", services.ErrConfiguration)
	}
	if c.Schedule.CheckIntervalMinutes < minCheckIntervalMinutes {
		return fmt.Errorf("%w: check_interval_minutes must be at least %d", services.ErrConfiguration, minCheckIntervalMinutes)
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := validateURL("remote.base_url", c.Remote.BaseURL, true); err != nil {
		return err
	}
	if err := validateURL("remote.account_url", c.Remote.AccountURL, true); err != nil {
		return err
	}
	if err := validateURL("notifications.alert_url", c.Notifications.AlertURL, false); err != nil {
		return err
	}
	if err := validateURL("notifications.callback_url", c.Notifications.CallbackURL, false); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: logging.format must be 'console' or 'json', got %q", services.ErrConfiguration, c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: logging.level must be one of debug, info, warn, error; got %q", services.ErrConfiguration, c.Logging.Level)
	}
	return nil
}

func validateURL(field, value string, required bool) error {
	value = strings.TrimSpace(value)
	if value == "" {
		if required {
			return fmt.Errorf("%w: %s must be set", services.ErrConfiguration, field)
		}
		return nil
	}
	parsed, err := url.Parse(value)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("%w: %s must be an http(s) URL, got %q", services.ErrConfiguration, field, value)
	}
	return nil
}
