package client

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ErrorClass buckets failures the way callers want to react to them.
type ErrorClass int

const (
	ClassUnknown    ErrorClass = iota
	ClassAuth                  // 401, recoverable via refresh
	ClassForbidden             // 403
	ClassNotFound              // 404
	ClassValidation            // 400 and 422
	ClassConflict              // 409
	ClassServer                // 500
	ClassGateway               // 502/503/504, retried with backoff
	ClassTimeout               // client-side timeout, no response
	ClassNetwork               // connectivity failure, no response
)

// APIError is every failure the SDK surfaces: HTTP errors carry the status
// code, transport failures carry StatusCode 0 and a Timeout/Network class.
type APIError struct {
	StatusCode int
	Class      ErrorClass
	Message    string
	Detail     string
	cause      error
}

func (e *APIError) Error() string {
	if e.Detail != "" && e.Detail != e.Message {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

func (e *APIError) Unwrap() error { return e.cause }

// IsSessionExpired reports the fatal auth case: a 401 that refresh could not
// recover.
func IsSessionExpired(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Class == ClassAuth
}

func classForStatus(status int) ErrorClass {
	switch status {
	case 400, 422:
		return ClassValidation
	case 401:
		return ClassAuth
	case 403:
		return ClassForbidden
	case 404:
		return ClassNotFound
	case 409:
		return ClassConflict
	case 502, 503, 504:
		return ClassGateway
	default:
		if status >= 500 {
			return ClassServer
		}
		return ClassUnknown
	}
}

func messageForStatus(status int) string {
	switch status {
	case 400:
		return "Invalid request"
	case 401:
		return "Session expired. Please log in again."
	case 403:
		return "You do not have permission to perform this action"
	case 404:
		return "The requested resource was not found"
	case 409:
		return "The request conflicts with the current state"
	case 422:
		return "Validation failed"
	case 500:
		return "The server encountered an internal error"
	case 502, 503, 504:
		return "The service is temporarily unavailable"
	default:
		return fmt.Sprintf("Request failed with status %d", status)
	}
}

// httpError builds an APIError from a decoded error envelope. For validation
// failures every field message is concatenated into the detail.
func httpError(status int, envelope *apiEnvelope) *APIError {
	apiErr := &APIError{
		StatusCode: status,
		Class:      classForStatus(status),
		Message:    messageForStatus(status),
	}
	if envelope == nil {
		return apiErr
	}

	var parts []string
	if envelope.Message != "" {
		parts = append(parts, envelope.Message)
	}
	if envelope.Error != "" && envelope.Error != envelope.Message {
		parts = append(parts, envelope.Error)
	}
	apiErr.Detail = strings.Join(parts, "; ")
	return apiErr
}

// transportError classifies a failure with no HTTP response: timeout or
// network.
func transportError(err error) *APIError {
	apiErr := &APIError{Class: ClassNetwork, Message: "Network error. Check your connection.", cause: err}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		apiErr.Class = ClassTimeout
		apiErr.Message = "Request timed out"
		return apiErr
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		apiErr.Class = ClassTimeout
		apiErr.Message = "Request timed out"
	}
	return apiErr
}
