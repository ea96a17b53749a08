package weatherapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/couchcryptid/weather-daemon/internal/domain"
)

var (
	// ErrDecode marks a response body that was not valid JSON.
	ErrDecode = errors.New("decode response")

	// ErrTotalFailure is returned by Fetcher.Fetch when no section could be fetched.
	ErrTotalFailure = errors.New("all weather sections failed")
)

// maxErrorBody bounds how much of a non-2xx body is kept on a StatusError.
const maxErrorBody = 512

// StatusError is returned when the API answers with a non-2xx status.
// It is an application-level failure and is never retried.
type StatusError struct {
	Section    domain.Section
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("weather API error: %s: status %d: %s", e.Section, e.StatusCode, e.Body)
}

// IsTransportError reports whether err is a network-level failure (timeout,
// refused connection, reset) worth retrying. Cancellation is not.
func IsTransportError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) || errors.Is(err, ErrDecode) {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// outcome classifies a final fetch error for metrics.
func outcome(err error) string {
	var statusErr *StatusError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &statusErr):
		return "status_error"
	case errors.Is(err, ErrDecode):
		return "decode_error"
	default:
		return "transport_error"
	}
}
