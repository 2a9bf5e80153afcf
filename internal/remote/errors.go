package remote

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"drivemover/internal/services"
)

// Kind classifies a remote failure.
type Kind int

const (
	// KindUnknown means the drive gave no structured hint; callers fall back
	// to inspecting the message.
	KindUnknown Kind = iota
	KindAuth
	KindRateLimited
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindRateLimited:
		return "rate_limited"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Error is the structured failure returned by Client implementations.
type Error struct {
	Kind    Kind
	Op      string
	Code    int
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("remote ")
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(" ")
	}
	b.WriteString("failed (")
	b.WriteString(e.Kind.String())
	if e.Code != 0 {
		fmt.Fprintf(&b, ", code %d", e.Code)
	}
	b.WriteString(")")
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match the service markers.
func (e *Error) Is(target error) bool {
	switch target {
	case services.ErrAuth:
		return e.Kind == KindAuth
	case services.ErrTransient:
		return e.Kind == KindRateLimited || e.Kind == KindTransient
	}
	return false
}

// IsAuth classifies err as an authentication failure. A structured Kind is
// authoritative; errors without one are matched against the service markers
// and then the message heuristic. Timeouts, cancellations, and errors already
// tagged transient never reach the heuristic.
func IsAuth(err error) bool {
	if err == nil {
		return false
	}
	var rerr *Error
	if errors.As(err, &rerr) && rerr.Kind != KindUnknown {
		return rerr.Kind == KindAuth
	}
	if errors.Is(err, services.ErrAuth) {
		return true
	}
	if rerr != nil && rerr.Code == services.AuthErrorCode {
		return true
	}
	if errors.Is(err, services.ErrTimeout) || errors.Is(err, services.ErrTransient) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	return services.LooksLikeAuth(err.Error())
}
