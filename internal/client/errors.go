package client

import (
	"fmt"
	"net/http"

	"github.com/mesh-intelligence/planbook/pkg/types"
)

// HTTPError is a non-2xx response. Detail is the server's {"detail"}
// message. Callers can match the status family with errors.Is against
// ErrUnauthorized, ErrForbidden, ErrNotFound and ErrInvalidData.
type HTTPError struct {
	Status int
	Detail string
}

func (e *HTTPError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Detail)
}

// Unwrap maps the status to the matching sentinel, or nil.
func (e *HTTPError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return types.ErrUnauthorized
	case http.StatusForbidden:
		return types.ErrForbidden
	case http.StatusNotFound:
		return types.ErrNotFound
	case http.StatusRequestEntityTooLarge:
		return types.ErrImageTooLarge
	case http.StatusBadRequest:
		return types.ErrInvalidData
	}
	return nil
}
