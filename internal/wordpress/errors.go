package wordpress

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrShellRequired is returned for operations that only WP-CLI can do
	// when no shell credentials were supplied.
	ErrShellRequired = errors.New("wordpress: operation requires shell access")

	// ErrRetriesExhausted wraps the last error of a create call that used
	// up all its attempts.
	ErrRetriesExhausted = errors.New("wordpress: retries exhausted")
)

// RemoteError is a non-success response from the REST API.
type RemoteError struct {
	Op         string
	StatusCode int
	Code       string
	Body       string
}

func (e *RemoteError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("wordpress: %s: status %d: %s: %s", e.Op, e.StatusCode, e.Code, e.Body)
	}
	return fmt.Sprintf("wordpress: %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

// retryable reports whether repeating the request could succeed.
func (e *RemoteError) retryable() bool {
	switch {
	case e.StatusCode == http.StatusTooManyRequests, e.StatusCode == http.StatusRequestTimeout:
		return true
	case e.StatusCode >= 500:
		return true
	}
	return false
}

// isRetryable treats transport errors as retryable and defers to
// RemoteError otherwise.
func isRetryable(err error) bool {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.retryable()
	}
	return !errors.Is(err, ErrShellRequired)
}
