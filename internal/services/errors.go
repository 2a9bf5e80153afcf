package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrAuth          = errors.New("authentication failure")
	ErrTransient     = errors.New("transient failure")
	ErrTimeout       = errors.New("timeout")
	ErrNotification  = errors.New("notification failure")
	ErrNotFound      = errors.New("not found")
)

// AuthErrorCode is the numeric code the drive API returns when the session
// cookie has expired or was revoked.
const AuthErrorCode = 990001

var authTokens = []string{"login", "auth", "cookie", "登录", strconv.Itoa(AuthErrorCode)}

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsAuth reports whether err was tagged as an authentication failure.
func IsAuth(err error) bool {
	return err != nil && errors.Is(err, ErrAuth)
}

// LooksLikeAuth inspects a free-form error message for authentication
// markers. It is only consulted for errors that carry no structured kind.
func LooksLikeAuth(message string) bool {
	lower := strings.ToLower(message)
	if lower == "" {
		return false
	}
	for _, token := range authTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
