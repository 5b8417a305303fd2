package engine

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/smashsend/smashsend-go/internal/core"
)

// RequestIDHeader carries the server-side correlation id.
const RequestIDHeader = "X-Request-Id"

// Response is the envelope of one HTTP round trip.
type Response struct {
	StatusCode int
	Header     http.Header
	// RequestID is empty when the server sent no x-request-id header.
	RequestID string
	// Body is the raw payload.
	Body []byte
	// JSON reports whether the declared content type is JSON.
	JSON bool

	value any
}

func newResponse(resp *http.Response, raw []byte) (*Response, error) {
	r := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		RequestID:  resp.Header.Get(RequestIDHeader),
		Body:       raw,
		JSON:       strings.Contains(resp.Header.Get("Content-Type"), "application/json"),
	}

	if !r.JSON {
		r.value = string(raw)
		return r, nil
	}
	if len(raw) == 0 {
		return r, nil
	}
	if err := json.Unmarshal(raw, &r.value); err != nil {
		// Error pages from proxies often claim JSON. Keep the text so the
		// status is still classified and retried.
		if r.StatusCode < 200 || r.StatusCode >= 300 {
			r.value = string(raw)
			return r, nil
		}
		return nil, &core.Error{
			Kind:       core.KindClient,
			Code:       core.CodeDecodeError,
			Message:    "failed to parse JSON response: " + err.Error(),
			StatusCode: r.StatusCode,
			RequestID:  r.RequestID,
			Data:       string(raw),
			Cause:      err,
		}
	}
	return r, nil
}

// Value returns the parsed body: a decoded JSON value when the content type
// is JSON, the body text otherwise.
func (r *Response) Value() any {
	return r.value
}

// Text returns the raw body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &core.Error{
			Kind:       core.KindClient,
			Code:       core.CodeDecodeError,
			Message:    "failed to decode response: " + err.Error(),
			StatusCode: r.StatusCode,
			RequestID:  r.RequestID,
			Cause:      err,
		}
	}
	return nil
}

// field returns a string field of a JSON object body.
func (r *Response) field(name string) string {
	obj, ok := r.value.(map[string]any)
	if !ok {
		return ""
	}
	s, _ := obj[name].(string)
	return s
}
