package config

const (
	defaultConfigPath            = "~/.config/drivemover/config.toml"
	defaultDataDir               = "~/.local/share/drivemover/data"
	defaultLogDir                = "~/.local/share/drivemover/logs"
	cookieFileName               = "115-cookies.txt"
	defaultBaseURL               = "https://webapi.115.com"
	defaultAccountURL            = "https://my.115.com/?ct=ajax&ac=nav"
	defaultUserAgent             = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_5_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Mobile/15E148 115wangpan_ios/36.2.20"
	defaultMinFileSize           = "200MB"
	defaultCheckIntervalMinutes  = 5
	minCheckIntervalMinutes      = 2
	defaultSessionCheckCycles    = 10
	defaultMovePauseMillis       = 500
	defaultRetryTimeoutSeconds   = 120
	minRetryTimeoutSeconds       = 10
	defaultRetryCount            = 3
	minRetryCount                = 1
	maxRetryCount                = 10
	defaultRetryBackoffSeconds   = 5
	defaultNotifyRequestTimeout  = 5
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogRetentionDays      = 7
	mappingSyntaxHint            = "use PATH_MAPPINGS='/source->/target,/other->/dest' or SOURCE_PATH and TARGET_PATH"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Remote: Remote{
			BaseURL:    defaultBaseURL,
			AccountURL: defaultAccountURL,
			UserAgent:  defaultUserAgent,
		},
		Filter: Filter{
			MinFileSize: defaultMinFileSize,
		},
		Schedule: Schedule{
			CheckIntervalMinutes: defaultCheckIntervalMinutes,
			SessionCheckCycles:   defaultSessionCheckCycles,
			MovePauseMillis:      defaultMovePauseMillis,
		},
		Retry: Retry{
			TimeoutSeconds: defaultRetryTimeoutSeconds,
			Count:          defaultRetryCount,
			BackoffSeconds: defaultRetryBackoffSeconds,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
