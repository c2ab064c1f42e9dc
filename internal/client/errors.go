// ABOUTME: Error types separating "no response" from "backend rejected"
// ABOUTME: Callers branch on NetworkError vs APIError and the APIError kind

package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// NetworkError means no HTTP response was received: dial failure, timeout,
// or cancellation. It is transient from the caller's point of view.
type NetworkError struct {
	Method   string
	Path     string
	BaseURL  string
	Err      error
	timeout  bool
	canceled bool
}

func (e *NetworkError) Error() string {
	switch {
	case e.canceled:
		return "request canceled"
	case e.timeout:
		return "request timed out"
	default:
		return fmt.Sprintf("cannot connect to backend at %s: %v", e.BaseURL, e.Err)
	}
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Timeout reports whether the request exceeded its deadline
func (e *NetworkError) Timeout() bool { return e.timeout }

// Canceled reports whether the caller canceled the request
func (e *NetworkError) Canceled() bool { return e.canceled }

// Kind classifies an APIError for presentation
type Kind int

const (
	// KindValidation is a 4xx other than 401; the message is user-actionable
	KindValidation Kind = iota
	// KindUnauthorized is a 401; the session has already been cleared
	KindUnauthorized
	// KindUnavailable is a 5xx
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindUnavailable:
		return "unavailable"
	default:
		return "validation"
	}
}

// APIError is a response with a non-2xx status
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
	Details    string
}

func (e *APIError) Error() string {
	if e.Kind() == KindUnavailable {
		return fmt.Sprintf("service unavailable (%d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend error (%d): %s", e.StatusCode, e.Message)
}

// Kind classifies the status code
func (e *APIError) Kind() Kind {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return KindUnauthorized
	case e.StatusCode >= 500:
		return KindUnavailable
	default:
		return KindValidation
	}
}

// IsNetwork reports whether err is (or wraps) a NetworkError
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsUnauthorized reports whether err is a 401 APIError
func IsUnauthorized(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Kind() == KindUnauthorized
}

// IsUnavailable reports whether err is a 5xx APIError
func IsUnavailable(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Kind() == KindUnavailable
}

// AsAPIError unwraps err to an APIError
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	ok := errors.As(err, &ae)
	return ae, ok
}

// errorResponse covers both backend error payload styles:
// {"message": "..." | ["..."], "error": "Bad Request", "statusCode": 400}
// {"error": "...", "details": "...", "code": 400}
type errorResponse struct {
	Message json.RawMessage `json:"message"`
	Error   string          `json:"error"`
	Details string          `json:"details"`
}

// parseErrorBody builds an APIError from a non-2xx response body
func parseErrorBody(method, path string, status int, body []byte) *APIError {
	apiErr := &APIError{Method: method, Path: path, StatusCode: status}

	var resp errorResponse
	if err := json.Unmarshal(body, &resp); err == nil {
		apiErr.Message = messageText(resp.Message)
		apiErr.Details = resp.Details
		if apiErr.Message == "" {
			apiErr.Message = resp.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.ToLower(http.StatusText(status))
	}
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("backend returned status %d", status)
	}
	return apiErr
}

func messageText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, "; ")
	}
	return ""
}
