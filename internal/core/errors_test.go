package core

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Is(t *testing.T) {
	err := &Error{Kind: KindAPI, Code: "invalid_email", StatusCode: http.StatusBadRequest}
	wrapped := fmt.Errorf("create contact: %w", err)

	assert.ErrorIs(t, wrapped, ErrAPI)
	assert.NotErrorIs(t, wrapped, ErrClient)
	assert.ErrorIs(t, wrapped, &Error{Kind: KindAPI, Code: "invalid_email"})
	assert.NotErrorIs(t, wrapped, &Error{Kind: KindAPI, Code: "other"})
}

func TestError_Message(t *testing.T) {
	err := &Error{
		Kind:       KindRateLimit,
		Code:       CodeRateLimit,
		Message:    "Rate limit exceeded",
		StatusCode: http.StatusTooManyRequests,
		RequestID:  "req_1",
	}

	assert.Equal(t,
		"smashsend: rate_limit [rate_limit_error] (status: 429): Rate limit exceeded (request id: req_1)",
		err.Error())
	assert.Equal(t, "smashsend: client", (&Error{Kind: KindClient}).Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := &Error{Kind: KindNetwork, Cause: cause}

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "rate limit", err: &Error{Kind: KindRateLimit}, want: true},
		{name: "network", err: &Error{Kind: KindNetwork}, want: true},
		{name: "server error", err: &Error{Kind: KindAPI, StatusCode: 503}, want: true},
		{name: "client error", err: &Error{Kind: KindAPI, StatusCode: 404}, want: false},
		{name: "timeout", err: &Error{Kind: KindTimeout}, want: false},
		{name: "authentication", err: &Error{Kind: KindAuthentication, StatusCode: 401}, want: false},
		{name: "wrapped", err: fmt.Errorf("x: %w", &Error{Kind: KindNetwork}), want: true},
		{name: "provider", err: &ProviderError{Provider: "smtp", IsRetryable: true}, want: true},
		{name: "plain", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestKindOfAndRequestIDOf(t *testing.T) {
	err := fmt.Errorf("send: %w", &Error{Kind: KindTimeout, RequestID: "req_9"})

	assert.Equal(t, KindTimeout, KindOf(err))
	assert.Equal(t, "req_9", RequestIDOf(err))
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
	assert.Empty(t, RequestIDOf(nil))
}

func TestValidationError(t *testing.T) {
	err := NewValidationErrorWithValue("port", "invalid port number", "abc")
	assert.Equal(t, "validation error in port: invalid port number (value: abc)", err.Error())
	assert.ErrorIs(t, fmt.Errorf("wrap: %w", err), &ValidationError{})

	client := NewClientError(CodeInvalidRequest, err.Error(), err)
	var ve *ValidationError
	assert.ErrorAs(t, client, &ve)
	assert.Equal(t, "port", ve.Field)
}

func TestProviderError(t *testing.T) {
	cause := errors.New("throttled")
	err := NewProviderError("aws_ses", "Throttling", "rate exceeded", cause)
	err.StatusCode = 400

	assert.Equal(t, "provider aws_ses error [Throttling] (status: 400): rate exceeded", err.Error())
	assert.ErrorIs(t, err, cause)
}
