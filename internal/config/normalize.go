package config

import (
	"fmt"
	"strings"

	"drivemover/internal/services"
)

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return fmt.Errorf("data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("log_dir: %w", err)
	}

	c.Remote.Cookie = strings.TrimSpace(c.Remote.Cookie)
	c.Remote.BaseURL = strings.TrimRight(strings.TrimSpace(c.Remote.BaseURL), "/")
	if c.Remote.BaseURL == "" {
		c.Remote.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(c.Remote.AccountURL) == "" {
		c.Remote.AccountURL = defaultAccountURL
	}
	if strings.TrimSpace(c.Remote.UserAgent) == "" {
		c.Remote.UserAgent = defaultUserAgent
	}

	c.normalizeMappings()

	if strings.TrimSpace(c.Filter.MinFileSize) == "" {
		c.Filter.MinFileSize = defaultMinFileSize
	}
	size, err := ParseSize(c.Filter.MinFileSize)
	if err != nil {
		return fmt.Errorf("%w: min_file_size: %w (examples: 200MB, 1.5G, 500K)", services.ErrConfiguration, err)
	}
	c.MinFileSizeBytes = size
	c.Filter.ExcludeExtensions = normalizeExtensions(c.Filter.ExcludeExtensions)

	if c.Schedule.CheckIntervalMinutes < minCheckIntervalMinutes {
		c.warnf("check interval %d minutes is below the %d minute floor; using %d", c.Schedule.CheckIntervalMinutes, minCheckIntervalMinutes, minCheckIntervalMinutes)
		c.Schedule.CheckIntervalMinutes = minCheckIntervalMinutes
	}
	if c.Schedule.SessionCheckCycles < 1 {
		c.warnf("session check cadence %d is invalid; using %d", c.Schedule.SessionCheckCycles, defaultSessionCheckCycles)
		c.Schedule.SessionCheckCycles = defaultSessionCheckCycles
	}
	if c.Schedule.MovePauseMillis < 0 {
		c.Schedule.MovePauseMillis = 0
	}

	if c.Retry.TimeoutSeconds < minRetryTimeoutSeconds {
		c.warnf("api timeout %ds is below the %ds floor; using %ds", c.Retry.TimeoutSeconds, minRetryTimeoutSeconds, minRetryTimeoutSeconds)
		c.Retry.TimeoutSeconds = minRetryTimeoutSeconds
	}
	if c.Retry.Count < minRetryCount || c.Retry.Count > maxRetryCount {
		clamped := min(max(c.Retry.Count, minRetryCount), maxRetryCount)
		c.warnf("api retry count %d is outside [%d,%d]; using %d", c.Retry.Count, minRetryCount, maxRetryCount, clamped)
		c.Retry.Count = clamped
	}
	if c.Retry.BackoffSeconds < 0 {
		c.warnf("api retry backoff %ds is negative; using %ds", c.Retry.BackoffSeconds, defaultRetryBackoffSeconds)
		c.Retry.BackoffSeconds = defaultRetryBackoffSeconds
	}

	c.Notifications.AlertURL = strings.TrimSpace(c.Notifications.AlertURL)
	c.Notifications.CallbackURL = strings.TrimSpace(c.Notifications.CallbackURL)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 1 {
		c.warnf("log retention %d days is invalid; using %d", c.Logging.RetentionDays, defaultLogRetentionDays)
		c.Logging.RetentionDays = defaultLogRetentionDays
	}
	return nil
}

func (c *Config) normalizeMappings() {
	var collected []PathMapping
	if strings.TrimSpace(c.MappingList) != "" {
		parsed, dropped := ParseMappings(c.MappingList)
		collected = append(collected, parsed...)
		for _, entry := range dropped {
			c.warnf("ignoring malformed mapping %q; %s", entry, mappingSyntaxHint)
		}
	}
	for _, m := range c.Mappings {
		normalized, ok := normalizeMapping(m.Source, m.Target)
		if !ok {
			c.warnf("ignoring incomplete mapping %q; %s", m.String(), mappingSyntaxHint)
			continue
		}
		collected = append(collected, normalized)
	}
	c.Mappings = collected
}

func normalizeExtensions(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, raw := range values {
		ext := strings.TrimSpace(raw)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}
