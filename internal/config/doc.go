// Package config loads, normalizes, and validates drivemover configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the container-style environment
// variables (COOKIE, PATH_MAPPINGS, MIN_FILE_SIZE, CHECK_INTERVAL, ...) which
// take precedence over the file. Out-of-range values are clamped with a
// recorded warning; unusable values fail with services.ErrConfiguration.
//
// Always obtain settings through this package so downstream code receives
// normalized mappings, parsed size thresholds, and clear validation errors.
package config
