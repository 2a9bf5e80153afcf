package config

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var sizePattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*([KMGT]?B?)$`)

var sizeUnits = map[string]float64{
	"":   1,
	"B":  1,
	"K":  1 << 10,
	"KB": 1 << 10,
	"M":  1 << 20,
	"MB": 1 << 20,
	"G":  1 << 30,
	"GB": 1 << 30,
	"T":  1 << 40,
	"TB": 1 << 40,
}

// ParseSize converts a human size such as "200MB", "1.5G" or "512" to bytes.
// Units are binary multiples and case-insensitive.
func ParseSize(value string) (int64, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	match := sizePattern.FindStringSubmatch(normalized)
	if match == nil {
		return 0, fmt.Errorf("invalid size %q", value)
	}
	number, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", value, err)
	}
	multiplier, ok := sizeUnits[match[2]]
	if !ok {
		return 0, fmt.Errorf("invalid size unit in %q", value)
	}
	bytes := number * multiplier
	if bytes > math.MaxInt64 {
		return 0, fmt.Errorf("size %q is too large", value)
	}
	return int64(bytes), nil
}

// FormatSize renders bytes with two decimals in the largest unit up to GB.
func FormatSize(bytes int64) string {
	switch {
	case bytes < 1<<10:
		return fmt.Sprintf("%d B", bytes)
	case bytes < 1<<20:
		return fmt.Sprintf("%.2f KB", float64(bytes)/(1<<10))
	case bytes < 1<<30:
		return fmt.Sprintf("%.2f MB", float64(bytes)/(1<<20))
	default:
		return fmt.Sprintf("%.2f GB", float64(bytes)/(1<<30))
	}
}
