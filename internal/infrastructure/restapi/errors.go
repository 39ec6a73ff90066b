package restapi

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError a failed upstream call, status is 0 when no response was received
type APIError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("upstream unreachable: %s", e.Message)
	}
	return fmt.Sprintf("upstream responded %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// HTTPStatusCode upstream status code
func (e *APIError) HTTPStatusCode() int { return e.Status }

// Retryable tells the client whether offering a manual retry makes sense
func (e *APIError) Retryable() bool {
	if e.Status == 0 || e.Status == http.StatusRequestTimeout || e.Status == http.StatusTooManyRequests {
		return true
	}
	return e.Status >= 500 && e.Status <= 599
}

// AsAPIError unwraps err into *APIError
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsStatus reports whether err is an upstream failure with the given status
func IsStatus(err error, status int) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Status == status
}
