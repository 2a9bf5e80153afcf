package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"drivemover/internal/services"
)

// applyEnv layers container-style environment variables over the file values.
func (c *Config) applyEnv() error {
	if v, ok := lookupEnv("COOKIE"); ok {
		c.Remote.Cookie = v
	}
	if v, ok := lookupEnv("DATA_DIR"); ok {
		c.Paths.DataDir = v
	}
	if v, ok := lookupEnv("LOG_DIR"); ok {
		c.Paths.LogDir = v
	}

	if v, ok := lookupEnv("PATH_MAPPINGS"); ok {
		c.MappingList = v
		c.Mappings = nil
	} else {
		source, hasSource := lookupEnv("SOURCE_PATH")
		target, hasTarget := lookupEnv("TARGET_PATH")
		if hasSource || hasTarget {
			c.MappingList = ""
			c.Mappings = []PathMapping{{Source: source, Target: target}}
		}
	}

	if v, ok := lookupEnv("MIN_FILE_SIZE"); ok {
		c.Filter.MinFileSize = v
	}
	if v, ok := lookupEnv("EXCLUDE_EXTENSIONS"); ok {
		c.Filter.ExcludeExtensions = splitList(v)
	}

	if v, ok := lookupEnv("CHECK_INTERVAL"); ok {
		minutes, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: CHECK_INTERVAL must be a whole number of minutes, got %q", services.ErrConfiguration, v)
		}
		c.Schedule.CheckIntervalMinutes = minutes
	}

	c.envInt("SESSION_CHECK_CYCLES", &c.Schedule.SessionCheckCycles, defaultSessionCheckCycles)
	c.envInt("MOVE_PAUSE_MS", &c.Schedule.MovePauseMillis, defaultMovePauseMillis)
	c.envInt("LOG_RETENTION_DAYS", &c.Logging.RetentionDays, defaultLogRetentionDays)
	c.envInt("API_TIMEOUT", &c.Retry.TimeoutSeconds, defaultRetryTimeoutSeconds)
	c.envInt("API_RETRY_COUNT", &c.Retry.Count, defaultRetryCount)
	c.envInt("API_RETRY_BACKOFF", &c.Retry.BackoffSeconds, defaultRetryBackoffSeconds)

	if v, ok := lookupEnv("LOG_LEVEL"); ok {
		c.Logging.Level = v
	}
	if v, ok := lookupEnv("LOG_FORMAT"); ok {
		c.Logging.Format = v
	}
	if v, ok := lookupEnv("NOTIFY_URL"); ok {
		c.Notifications.AlertURL = v
	}
	if v, ok := lookupEnv("CALLBACK_URL"); ok {
		c.Notifications.CallbackURL = v
	}
	return nil
}

// envInt reads an integer variable; unparsable values fall back to def with a warning.
func (c *Config) envInt(key string, target *int, def int) {
	v, ok := lookupEnv(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		c.warnf("%s=%q is not a number; using %d", key, v, def)
		*target = def
		return
	}
	*target = n
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	return v, true
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
