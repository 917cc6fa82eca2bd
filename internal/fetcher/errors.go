package fetcher

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
)

// StatusError is a response other than 200 OK.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetcher: http %d from %s", e.StatusCode, e.URL)
}

// IsRetryable reports whether another attempt may succeed: 408, 429 and 5xx
// responses, network timeouts, and refused or reset connections.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusRequestTimeout ||
			se.StatusCode == http.StatusTooManyRequests ||
			se.StatusCode >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED)
}
