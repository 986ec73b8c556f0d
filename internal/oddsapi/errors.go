package oddsapi

import (
	"errors"
	"fmt"
	"net/http"
)

// RequestError reports a non-success response from the upstream odds API.
type RequestError struct {
	StatusCode int
	Path       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("odds api request to %s failed with status %d", e.Path, e.StatusCode)
}

// RateLimited reports whether the failure was an upstream 429, meaning the
// retry budget was exhausted before the request ever succeeded.
func (e *RequestError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// IsRateLimited reports whether err wraps a rate-limited request failure.
func IsRateLimited(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.RateLimited()
}
