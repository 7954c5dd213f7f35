package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError carries the HTTP status and message returned by the rental
// backend for a failed request
type APIError struct {
	Status  int
	Message string
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend error (status %d)", e.Status)
}

// newAPIError builds an APIError from a non-2xx backend response body.
// The backend reports failures as {"success": false, "error": "..."} or
// {"message": "..."} depending on the endpoint.
func newAPIError(status int, body []byte) *APIError {
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}

	message := ""
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Error != "" {
			message = envelope.Error
		} else {
			message = envelope.Message
		}
	}

	return &APIError{Status: status, Message: message}
}

// IsNotFound reports whether the error is a backend 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
