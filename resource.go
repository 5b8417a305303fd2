package smashsend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/smashsend/smashsend-go/internal/core"
	"github.com/smashsend/smashsend-go/internal/engine"
)

// requester is the part of the engine the resource services depend on.
type requester interface {
	Do(ctx context.Context, method, path string, body any, opts ...RequestOption) (*Response, error)
}

// doJSON performs a call and decodes the whole body into T.
func doJSON[T any](ctx context.Context, r requester, method, path string, body any, opts ...RequestOption) (*T, error) {
	resp, err := r.Do(ctx, method, path, body, opts...)
	if err != nil {
		return nil, err
	}

	var result T
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// doEnvelope performs a call and decodes the named member of the JSON object
// body into T. A missing or null member yields nil without error.
func doEnvelope[T any](ctx context.Context, r requester, method, path, member string, body any, opts ...RequestOption) (*T, error) {
	resp, err := r.Do(ctx, method, path, body, opts...)
	if err != nil {
		return nil, err
	}

	var envelope map[string]json.RawMessage
	if err := resp.Decode(&envelope); err != nil {
		return nil, err
	}

	raw, ok := envelope[member]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, nil
	}

	var result T
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &core.Error{
			Kind:       core.KindClient,
			Code:       core.CodeDecodeError,
			Message:    "failed to decode " + member + ": " + err.Error(),
			StatusCode: resp.StatusCode,
			RequestID:  resp.RequestID,
			Cause:      err,
		}
	}
	return &result, nil
}

// resourcePath joins path segments, escaping each id.
func resourcePath(prefix string, ids ...string) (string, error) {
	var b strings.Builder
	b.WriteString(prefix)
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return "", invalidRequest(core.NewValidationError("id", "id is required"))
		}
		b.WriteByte('/')
		b.WriteString(url.PathEscape(id))
	}
	return b.String(), nil
}

func validateStruct(v any) error {
	if err := structValidator.Struct(v); err != nil {
		return invalidRequest(toValidationError(err))
	}
	return nil
}

// queryParams collects list filters, dropping unset values.
type queryParams map[string]any

func (q queryParams) setString(key, value string) {
	if value != "" {
		q[key] = value
	}
}

func (q queryParams) setInt(key string, value int) {
	if value > 0 {
		q[key] = value
	}
}

func (q queryParams) setBool(key string, value *bool) {
	if value != nil {
		q[key] = *value
	}
}

func (q queryParams) setTime(key string, value time.Time) {
	if !value.IsZero() {
		q[key] = engine.FormatTime(value)
	}
}

func (q queryParams) option() RequestOption {
	return RequestParams(q)
}

var _ requester = (*engine.Engine)(nil)

// Bool returns a pointer to v, for optional boolean filters.
func Bool(v bool) *bool {
	return &v
}
