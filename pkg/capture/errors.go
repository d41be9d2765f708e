package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrURLsFileNotFound is returned when the URLs file does not exist.
	ErrURLsFileNotFound = errors.New("URLs file not found")

	// ErrInvalidOptions wraps every Options.Validate failure.
	ErrInvalidOptions = errors.New("invalid options")
)

// UnknownDeviceError is returned when the requested device profile is not
// registered.
type UnknownDeviceError struct {
	Name      string
	Available []string
}

func (e *UnknownDeviceError) Error() string {
	return fmt.Sprintf("unknown device %q", e.Name)
}

// IsDNSError reports whether err looks like a failed name lookup.
func IsDNSError(err error) bool {
	if err == nil {
		return false
	}

	msg := fullErrorMessage(err)
	return strings.Contains(msg, "net::ERR_NAME_NOT_RESOLVED") ||
		strings.Contains(msg, "no such host")
}

// IsTimeoutError reports whether err is, or looks like, a deadline.
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := fullErrorMessage(err)
	return strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "net::ERR_TIMED_OUT") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "timed out")
}

// RootCause returns the message of the innermost wrapped error.
func RootCause(err error) string {
	if err == nil {
		return ""
	}
	for {
		unwrapped := errors.Unwrap(err)
		if unwrapped == nil {
			return err.Error()
		}
		err = unwrapped
	}
}

func fullErrorMessage(err error) string {
	var sb strings.Builder
	for err != nil {
		sb.WriteString(err.Error())
		err = errors.Unwrap(err)
		if err != nil {
			sb.WriteString(" | ")
		}
	}
	return sb.String()
}
