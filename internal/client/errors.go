package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized means the session is missing or was rejected. The caller
	// has to obtain a new session; retrying with the same one will not help.
	ErrUnauthorized = errors.New("client: unauthorized")
	ErrNetwork      = errors.New("client: network failure")
)

// APIError is a non-2xx answer other than an authorization failure.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("client: HTTP %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("client: HTTP %d: %s", e.Status, e.Message)
}

func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
