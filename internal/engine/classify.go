package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"syscall"
	"time"

	"github.com/smashsend/smashsend-go/internal/core"
)

// classifyStatus maps a received response to the error taxonomy. It returns
// nil for 2xx. Whether the error is retried is decided by the caller.
func classifyStatus(r *Response) error {
	switch {
	case r.StatusCode == http.StatusTooManyRequests:
		return &core.Error{
			Kind:       core.KindRateLimit,
			Code:       core.CodeRateLimit,
			Message:    "Rate limit exceeded",
			StatusCode: r.StatusCode,
			RequestID:  r.RequestID,
			RetryAfter: parseRetryAfter(r.Header.Get("Retry-After")),
			Data:       r.value,
		}

	case r.StatusCode == http.StatusUnauthorized:
		return &core.Error{
			Kind:       core.KindAuthentication,
			Code:       core.CodeInvalidAPIKey,
			Message:    "Invalid API key",
			StatusCode: r.StatusCode,
			RequestID:  r.RequestID,
			Data:       r.value,
		}

	case r.StatusCode < 200 || r.StatusCode >= 300:
		message := r.field("message")
		if message == "" {
			message = r.field("error")
		}
		if message == "" {
			message = fmt.Sprintf("HTTP error %d", r.StatusCode)
		}
		code := r.field("code")
		if code == "" {
			code = core.CodeAPIError
		}
		return &core.Error{
			Kind:       core.KindAPI,
			Code:       code,
			Message:    message,
			StatusCode: r.StatusCode,
			RequestID:  r.RequestID,
			Data:       r.value,
		}
	}
	return nil
}

// classifyTransport maps an error raised before a response was fully read.
// callCtx is the caller's context, attemptCtx the one carrying the attempt timer.
func classifyTransport(callCtx, attemptCtx context.Context, err error) error {
	if callCtx.Err() != nil {
		return contextError(callCtx)
	}

	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return &core.Error{
			Kind:    core.KindTimeout,
			Code:    core.CodeRequestTimeout,
			Message: "Request timed out",
			Cause:   err,
		}
	}

	if isConnectionError(err) {
		return &core.Error{
			Kind:    core.KindNetwork,
			Code:    core.CodeNetworkError,
			Message: "Network error",
			Data:    err.Error(),
			Cause:   err,
		}
	}

	return core.NewClientError(core.CodeUnknownError, err.Error(), err)
}

// contextError classifies the end of the caller's context: an expired
// deadline is a timeout, anything else a cancellation.
func contextError(ctx context.Context) error {
	err := ctx.Err()
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &core.Error{
			Kind:    core.KindTimeout,
			Code:    core.CodeRequestTimeout,
			Message: "Request timed out",
			Cause:   err,
		}
	case err != nil:
		return core.NewClientError(core.CodeRequestCanceled, "Request canceled", err)
	default:
		return core.NewClientError(core.CodeUnknownError, "Request interrupted", nil)
	}
}

// isConnectionError reports whether err is a connection-level failure: DNS,
// refused, reset, or a connection dropped mid-response.
func isConnectionError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNABORTED),
		errors.Is(err, syscall.EPIPE),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.EOF),
		errors.Is(err, net.ErrClosed):
		return true
	}
	return false
}

// parseRetryAfter reads a Retry-After value given in seconds or as an HTTP date.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
