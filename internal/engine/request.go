package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/smashsend/smashsend-go/internal/core"
)

// RequestOption customizes a single call.
type RequestOption func(*callOptions)

type callOptions struct {
	headers    map[string]string
	params     map[string]any
	maxRetries *int
	timeout    time.Duration
	retryDelay time.Duration
}

// WithHeader sets a header for this call only. Per-call headers win over
// instance headers and defaults.
func WithHeader(name, value string) RequestOption {
	return func(o *callOptions) {
		if o.headers == nil {
			o.headers = make(map[string]string)
		}
		o.headers[name] = value
	}
}

// WithHeaders sets several per-call headers.
func WithHeaders(headers map[string]string) RequestOption {
	return func(o *callOptions) {
		for k, v := range headers {
			WithHeader(k, v)(o)
		}
	}
}

// WithParam adds a query parameter. Slice values repeat the key once per
// element in order; nil values are dropped.
func WithParam(key string, value any) RequestOption {
	return func(o *callOptions) {
		if o.params == nil {
			o.params = make(map[string]any)
		}
		o.params[key] = value
	}
}

// WithParams adds several query parameters.
func WithParams(params map[string]any) RequestOption {
	return func(o *callOptions) {
		for k, v := range params {
			WithParam(k, v)(o)
		}
	}
}

// WithMaxRetries overrides the retry budget for this call.
func WithMaxRetries(n int) RequestOption {
	return func(o *callOptions) {
		o.maxRetries = &n
	}
}

// WithTimeout overrides the per-attempt timeout for this call.
func WithTimeout(d time.Duration) RequestOption {
	return func(o *callOptions) {
		o.timeout = d
	}
}

// WithRetryDelay overrides the backoff base for this call.
func WithRetryDelay(d time.Duration) RequestOption {
	return func(o *callOptions) {
		o.retryDelay = d
	}
}

// descriptor is the immutable per-call snapshot every attempt is built from.
type descriptor struct {
	method     string
	url        string
	headers    http.Header
	body       []byte
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	debug      bool
}

func (e *Engine) newDescriptor(method, path string, body any, o *callOptions) (*descriptor, error) {
	if method == "" {
		method = http.MethodGet
	}

	u, err := buildURL(e.cfg.BaseURL, e.cfg.APIVersion, path, o.params)
	if err != nil {
		return nil, core.NewClientError(core.CodeInvalidRequest, "invalid request url: "+err.Error(), err)
	}

	d := &descriptor{
		method:     method,
		url:        u,
		headers:    e.buildHeaders(o.headers),
		timeout:    e.cfg.Timeout,
		maxRetries: e.cfg.MaxRetries,
		retryDelay: e.cfg.RetryDelay,
		debug:      e.cfg.Debug,
	}
	if o.timeout > 0 {
		d.timeout = o.timeout
	}
	if o.maxRetries != nil && *o.maxRetries >= 0 {
		d.maxRetries = *o.maxRetries
	}
	if o.retryDelay > 0 {
		d.retryDelay = o.retryDelay
	}

	if method != http.MethodGet && body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, core.NewClientError(core.CodeInvalidRequest, "failed to encode request body: "+err.Error(), err)
		}
		d.body = payload
	}

	return d, nil
}

// buildURL joins base, version and path as {base}/{version}/{path} and
// appends params to any query already present in path.
func buildURL(base, version, path string, params map[string]any) (string, error) {
	raw := strings.TrimRight(base, "/") + "/" + strings.Trim(version, "/") + "/" + strings.TrimLeft(path, "/")

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if len(params) == 0 {
		return u.String(), nil
	}

	q := u.Query()
	for key, value := range params {
		appendParam(q, key, value)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func appendParam(q url.Values, key string, value any) {
	switch v := value.(type) {
	case nil:
		return
	case string:
		q.Add(key, v)
		return
	case []string:
		for _, s := range v {
			q.Add(key, s)
		}
		return
	case time.Time:
		q.Add(key, FormatTime(v))
		return
	case fmt.Stringer:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Pointer && rv.IsNil() {
			return
		}
		q.Add(key, v.String())
		return
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return
		}
		appendParam(q, key, rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			appendParam(q, key, rv.Index(i).Interface())
		}
	case reflect.Map:
		if rv.IsNil() {
			return
		}
		q.Add(key, fmt.Sprint(value))
	default:
		q.Add(key, fmt.Sprint(value))
	}
}

// FormatTime renders t the way the API expects timestamps: UTC with
// millisecond precision.
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// buildHeaders layers defaults, User-Agent, instance headers and per-call
// headers; later layers override earlier ones by key.
func (e *Engine) buildHeaders(perCall map[string]string) http.Header {
	h := make(http.Header)
	h.Set("Authorization", "Bearer "+e.cfg.APIKey)
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	h.Set("User-Agent", e.cfg.UserAgent)
	for k, v := range e.cfg.Headers {
		h.Set(k, v)
	}
	for k, v := range perCall {
		h.Set(k, v)
	}
	return h
}

// attempt performs one network round trip under its own timeout. The timer
// is released on every return path.
func (e *Engine) attempt(ctx context.Context, d *descriptor) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if e.limiter != nil {
		if err := e.limiter.Wait(attemptCtx); err != nil {
			if ctx.Err() != nil {
				return nil, contextError(ctx)
			}
			return nil, &core.Error{
				Kind:    core.KindTimeout,
				Code:    core.CodeRequestTimeout,
				Message: "Request timed out waiting for client rate limiter",
				Cause:   err,
			}
		}
	}

	var body io.Reader
	if d.body != nil {
		body = bytes.NewReader(d.body)
	}
	req, err := http.NewRequestWithContext(attemptCtx, d.method, d.url, body)
	if err != nil {
		return nil, core.NewClientError(core.CodeInvalidRequest, err.Error(), err)
	}
	req.Header = d.headers.Clone()

	if d.debug {
		e.logRequest(d)
	}

	start := time.Now()
	resp, err := e.doer.Do(req)
	if err != nil {
		e.metrics.observeAttempt(d.method, "error", time.Since(start))
		if d.debug {
			e.debugLog().Debug().Err(err).Msg("smashsend: transport error")
		}
		return nil, classifyTransport(ctx, attemptCtx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		e.metrics.observeAttempt(d.method, "error", time.Since(start))
		return nil, classifyTransport(ctx, attemptCtx, err)
	}
	e.metrics.observeAttempt(d.method, statusLabel(resp.StatusCode), time.Since(start))

	out, err := newResponse(resp, raw)
	if err != nil {
		return nil, err
	}

	if d.debug {
		e.logResponse(out)
	}

	if err := classifyStatus(out); err != nil {
		return nil, err
	}
	return out, nil
}
