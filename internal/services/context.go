package services

import "context"

type contextKey string

const (
	cycleKey     contextKey = "cycle"
	mappingKey   contextKey = "mapping"
	requestIDKey contextKey = "request_id"
)

// WithCycle annotates context with the 1-based cycle number.
func WithCycle(ctx context.Context, cycle int) context.Context {
	return context.WithValue(ctx, cycleKey, cycle)
}

// CycleFromContext extracts the cycle number if present.
func CycleFromContext(ctx context.Context) (int, bool) {
	v := ctx.Value(cycleKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	default:
		return 0, false
	}
}

// WithMapping annotates context with the mapping label (source -> target).
func WithMapping(ctx context.Context, label string) context.Context {
	if label == "" {
		return ctx
	}
	return context.WithValue(ctx, mappingKey, label)
}

// MappingFromContext returns the mapping label if present.
func MappingFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(mappingKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
