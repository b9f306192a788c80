package transport

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Common errors returned by the transport.
var (
	// ErrRateLimited is returned when the retry budget for a rate limited
	// call is exhausted.
	ErrRateLimited = errors.New("rate limited")

	// ErrContextCancelled is returned when the context is cancelled while
	// waiting to retry.
	ErrContextCancelled = errors.New("context cancelled")
)

// ServerError represents a non-success response from the API for reasons
// other than rate limiting. Message carries the provider's error summary
// when the body is parseable JSON, otherwise Body holds the raw text.
type ServerError struct {
	StatusCode int
	Message    string
	Body       string
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("okta server error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("okta server error (status %d): %s", e.StatusCode, e.Body)
}

// oktaError is the provider's wire-level error payload.
type oktaError struct {
	ErrorCode    string `json:"errorCode"`
	ErrorSummary string `json:"errorSummary"`
}

// NewServerError builds a ServerError from a failed response, extracting
// the provider's errorSummary when the body parses as the Okta error shape.
func NewServerError(resp *Response) *ServerError {
	serr := &ServerError{
		StatusCode: resp.StatusCode,
		Body:       resp.Text(),
	}
	var oe oktaError
	if err := json.Unmarshal(resp.Body, &oe); err == nil && oe.ErrorSummary != "" {
		serr.Message = oe.ErrorSummary
	}
	return serr
}
