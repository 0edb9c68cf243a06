package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthorized matches any *StatusError carrying HTTP 401.
var ErrUnauthorized = errors.New("unauthorized")

// StatusError is returned by Do for any non-2xx response. Body is the raw
// response payload, left untouched so callers can attribute field errors.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// Is reports whether target is ErrUnauthorized and the status is 401.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}
