package cowin

import "errors"

var (
	// ErrInvalidRequest is returned when the API rejects the request (HTTP 400).
	ErrInvalidRequest = errors.New("cowin: invalid request")
	// ErrRateLimited is returned when the API refuses to serve us (HTTP 403).
	ErrRateLimited = errors.New("cowin: rate limited")
)

// Known provider error codes.
const (
	CodeInvalidPincode  = "APPOIN0018"
	CodeTooManyRequests = "403: Too many requests"
)

// APIError carries the provider's error code and message.
// It unwraps to ErrInvalidRequest or ErrRateLimited.
type APIError struct {
	Kind    error  `json:"-"`
	Code    string `json:"errorCode"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

func (e *APIError) Unwrap() error {
	return e.Kind
}

func rateLimitedError() *APIError {
	return &APIError{
		Kind:    ErrRateLimited,
		Code:    CodeTooManyRequests,
		Message: CodeTooManyRequests,
	}
}
