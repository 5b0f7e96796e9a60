package core

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound marks lookups whose subject does not exist upstream (unknown
// Riot ID, missing match). Callers branch on it with errors.Is.
var ErrNotFound = errors.New("not found")

// ThrottledError reports an upstream 429. RetryAfter is zero when the
// response carried no Retry-After header.
type ThrottledError struct {
	Endpoint   string
	RetryAfter time.Duration
}

func (e *ThrottledError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: rate limited, retry after %s", e.Endpoint, e.RetryAfter)
	}
	return fmt.Sprintf("%s: rate limited", e.Endpoint)
}

// AsThrottled unwraps err into a ThrottledError if one is in the chain.
func AsThrottled(err error) (*ThrottledError, bool) {
	var te *ThrottledError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}
