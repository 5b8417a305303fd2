package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrorKind tags which branch of the error taxonomy an Error belongs to.
type ErrorKind string

const (
	// KindAPI is any non-2xx answer from the API that is not a 401 or an exhausted 429.
	KindAPI ErrorKind = "api"

	// KindAuthentication means the credentials are missing or were rejected.
	KindAuthentication ErrorKind = "authentication"

	// KindNetwork is a transport-level failure (DNS, refused, reset).
	KindNetwork ErrorKind = "network"

	// KindRateLimit means the API kept answering 429 until the retry budget ran out.
	KindRateLimit ErrorKind = "rate_limit"

	// KindTimeout means an attempt exceeded its deadline.
	KindTimeout ErrorKind = "timeout"

	// KindClient is the catch-all for anything the engine could not classify.
	KindClient ErrorKind = "client"
)

// String returns the kind name.
func (k ErrorKind) String() string {
	return string(k)
}

// Error codes produced by the client itself. Codes sent by the API are passed through untouched.
const (
	CodeAPIError        = "api_error"
	CodeInvalidAPIKey   = "invalid_api_key"
	CodeAPIKeyRequired  = "api_key_required"
	CodeRateLimit       = "rate_limit_error"
	CodeRequestTimeout  = "request_timeout"
	CodeNetworkError    = "network_error"
	CodeUnknownError    = "unknown_error"
	CodeRequestCanceled = "request_canceled"
	CodeInvalidConfig   = "invalid_config"
	CodeInvalidRequest  = "invalid_request"
	CodeDecodeError     = "decode_error"
)

// Error is the single error type returned by the request engine and everything built on it.
type Error struct {
	// Kind is the taxonomy branch.
	Kind ErrorKind

	// Message is a human-readable description.
	Message string

	// Code is the machine-readable error code, either from the API body or a client default.
	Code string

	// StatusCode is the HTTP status, zero when no response was received.
	StatusCode int

	// RequestID is the x-request-id response header, empty when absent.
	RequestID string

	// RetryAfter is the parsed Retry-After header of a 429 answer, zero when absent.
	RetryAfter time.Duration

	// Data carries the response body (JSON value or text) or transport details.
	Data any

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("smashsend: ")
	b.WriteString(string(e.Kind))
	if e.Code != "" {
		b.WriteString(" [" + e.Code + "]")
	}
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, " (status: %d)", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": " + e.Message)
	}
	if e.RequestID != "" {
		b.WriteString(" (request id: " + e.RequestID + ")")
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind. A target with a
// non-empty Code additionally requires the codes to match.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// Retryable implements RetryableError.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindRateLimit, KindNetwork:
		return true
	case KindAPI:
		return e.StatusCode >= 500
	default:
		return false
	}
}

// Sentinel values for errors.Is matching by kind.
var (
	ErrAPI            = &Error{Kind: KindAPI}
	ErrAuthentication = &Error{Kind: KindAuthentication}
	ErrNetwork        = &Error{Kind: KindNetwork}
	ErrRateLimit      = &Error{Kind: KindRateLimit}
	ErrTimeout        = &Error{Kind: KindTimeout}
	ErrClient         = &Error{Kind: KindClient}
)

// NewError creates an Error of the given kind.
func NewError(kind ErrorKind, code, message string) *Error {
	return &Error{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// NewClientError wraps cause as a client-kind error.
func NewClientError(code, message string, cause error) *Error {
	return &Error{
		Kind:    KindClient,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// RetryableError interface indicates whether an error can be retried.
type RetryableError interface {
	Retryable() bool
}

// IsRetryable checks if an error is one the engine retries: rate limits,
// transport failures and 5xx answers.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Retryable()
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.IsRetryable
	}

	if re, ok := err.(RetryableError); ok {
		return re.Retryable()
	}

	return false
}

// KindOf returns the kind of the first *Error in err's chain, or the empty kind.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// RequestIDOf returns the request id carried by err, if any.
func RequestIDOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.RequestID
	}
	return ""
}

// ValidationError represents a validation error with specific field information.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string

	// Message is the validation error message.
	Message string

	// Value is the invalid value (optional).
	Value any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("validation error in %s: %s (value: %v)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

// Is implements error matching for errors.Is.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewValidationErrorWithValue creates a new validation error with a value.
func NewValidationErrorWithValue(field, message string, value any) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// ProviderError represents an error from a relay email provider.
type ProviderError struct {
	// Provider is the name of the provider that generated the error.
	Provider string

	// Code is the provider-specific error code.
	Code string

	// Message is the error message from the provider.
	Message string

	// StatusCode is the HTTP status code (for HTTP-based providers).
	StatusCode int

	// IsRetryable indicates whether the error can be retried.
	IsRetryable bool

	// Cause is the underlying error that caused this provider error.
	Cause error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %s error [%s] (status: %d): %s",
			e.Provider, e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %s error [%s]: %s", e.Provider, e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProviderError creates a new provider error.
func NewProviderError(provider, code, message string, cause error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Code:     code,
		Message:  message,
		Cause:    cause,
	}
}
