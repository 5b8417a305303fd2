// Package engine executes calls against the SmashSend HTTP API. It owns
// credential injection, URL and header construction, the per-attempt timeout,
// the retry loop with exponential backoff and the mapping of every outcome to
// the core error taxonomy.
package engine

import (
	"context"
	"maps"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/smashsend/smashsend-go/internal/core"
)

// Defaults applied by New when the corresponding Config field is zero.
const (
	DefaultBaseURL    = "https://api.smashsend.com"
	DefaultAPIVersion = "v1"
	DefaultMaxRetries = 3
	DefaultTimeout    = 30 * time.Second
	DefaultRetryDelay = 100 * time.Millisecond

	tracerName = "github.com/smashsend/smashsend-go/internal/engine"
)

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config is the engine's mutable instance configuration.
type Config struct {
	APIKey     string
	BaseURL    string
	APIVersion string
	// MaxRetries is the retry budget; negative selects DefaultMaxRetries.
	MaxRetries int
	Timeout    time.Duration
	RetryDelay time.Duration
	Headers    map[string]string
	Debug      bool
	UserAgent  string
}

// Engine executes logical calls. Configuration setters are not synchronized:
// callers that change configuration while calls are in flight must provide
// their own ordering. A call snapshots the configuration when it starts, so a
// setter never affects an in-flight call or its retries.
type Engine struct {
	cfg     Config
	doer    Doer
	logger  zerolog.Logger
	tracer  trace.Tracer
	metrics *Metrics
	limiter *rate.Limiter
	sleep   func(ctx context.Context, d time.Duration) error
	jitter  func() float64
}

// Option configures an Engine.
type Option func(*Engine)

// WithDoer sets the transport used for every attempt.
func WithDoer(d Doer) Option {
	return func(e *Engine) {
		if d != nil {
			e.doer = d
		}
	}
}

// WithLogger sets the debug sink.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithTracerProvider sets the provider spans are created from.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) {
		if tp != nil {
			e.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLimiter throttles attempts client-side.
func WithLimiter(l *rate.Limiter) Option {
	return func(e *Engine) {
		e.limiter = l
	}
}

// WithSleep replaces the backoff sleep.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Engine) {
		if fn != nil {
			e.sleep = fn
		}
	}
}

// WithJitter replaces the jitter source. fn must return a factor in [0.8, 1.2].
func WithJitter(fn func() float64) Option {
	return func(e *Engine) {
		if fn != nil {
			e.jitter = fn
		}
	}
}

// New creates an engine. An empty API key fails with an authentication error
// before anything touches the network.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if cfg.APIKey == "" {
		return nil, core.NewError(core.KindAuthentication, core.CodeAPIKeyRequired, "API key is required")
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "smashsend-go/unknown"
	}
	cfg.Headers = maps.Clone(cfg.Headers)
	if cfg.Headers == nil {
		cfg.Headers = make(map[string]string)
	}

	e := &Engine{
		cfg:    cfg,
		doer:   &http.Client{},
		logger: zerolog.Nop(),
		tracer: otel.Tracer(tracerName),
		sleep:  sleepContext,
		jitter: randomJitter,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns a copy of the current configuration.
func (e *Engine) Config() Config {
	cfg := e.cfg
	cfg.Headers = maps.Clone(e.cfg.Headers)
	return cfg
}

// SetHeader sets one instance-level header sent with every later call.
func (e *Engine) SetHeader(name, value string) {
	e.cfg.Headers[name] = value
}

// SetHeaders merges headers into the instance-level headers.
func (e *Engine) SetHeaders(headers map[string]string) {
	maps.Copy(e.cfg.Headers, headers)
}

// SetDebug toggles request and response logging.
func (e *Engine) SetDebug(enabled bool) {
	e.cfg.Debug = enabled
}

// SetAPIVersion changes the version path segment for later calls.
func (e *Engine) SetAPIVersion(version string) {
	e.cfg.APIVersion = version
}

// Get issues a GET call.
func (e *Engine) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return e.Do(ctx, http.MethodGet, path, nil, opts...)
}

// Post issues a POST call with body encoded as JSON.
func (e *Engine) Post(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return e.Do(ctx, http.MethodPost, path, body, opts...)
}

// Put issues a PUT call with body encoded as JSON.
func (e *Engine) Put(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return e.Do(ctx, http.MethodPut, path, body, opts...)
}

// Patch issues a PATCH call with body encoded as JSON.
func (e *Engine) Patch(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return e.Do(ctx, http.MethodPatch, path, body, opts...)
}

// Delete issues a DELETE call.
func (e *Engine) Delete(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return e.Do(ctx, http.MethodDelete, path, nil, opts...)
}

// Do executes one logical call to completion. It returns the response of the
// first 2xx attempt, or exactly one *core.Error.
func (e *Engine) Do(ctx context.Context, method, path string, body any, opts ...RequestOption) (*Response, error) {
	o := &callOptions{}
	for _, opt := range opts {
		opt(o)
	}

	d, err := e.newDescriptor(method, path, body, o)
	if err != nil {
		return nil, err
	}

	ctx, span := e.tracer.Start(ctx, "smashsend.request",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", d.method),
			attribute.String("smashsend.path", path),
			attribute.Int("smashsend.max_retries", d.maxRetries),
		),
	)
	defer span.End()

	for retryCount := 0; ; retryCount++ {
		resp, err := e.attempt(ctx, d)
		if err == nil {
			span.SetAttributes(
				attribute.Int("http.response.status_code", resp.StatusCode),
				attribute.Int("smashsend.attempts", retryCount+1),
				attribute.String("smashsend.request_id", resp.RequestID),
			)
			span.SetStatus(codes.Ok, "")
			return resp, nil
		}

		if !core.IsRetryable(err) || retryCount >= d.maxRetries {
			span.SetAttributes(attribute.Int("smashsend.attempts", retryCount+1))
			if id := core.RequestIDOf(err); id != "" {
				span.SetAttributes(attribute.String("smashsend.request_id", id))
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		delay := Backoff(d.retryDelay, retryCount, e.jitter())
		kind := core.KindOf(err)
		e.metrics.observeRetry(kind)
		span.AddEvent("retry", trace.WithAttributes(
			attribute.Int("smashsend.retry_count", retryCount+1),
			attribute.String("smashsend.retry_reason", kind.String()),
			attribute.Int64("smashsend.retry_delay_ms", delay.Milliseconds()),
		))
		if d.debug {
			e.debugLog().Debug().
				Str("reason", kind.String()).
				Dur("delay", delay).
				Str("attempt", strconv.Itoa(retryCount+1)+"/"+strconv.Itoa(d.maxRetries)).
				Msg("smashsend: retrying")
		}

		if err := e.sleep(ctx, delay); err != nil {
			cerr := contextError(ctx)
			span.RecordError(cerr)
			span.SetStatus(codes.Error, cerr.Error())
			return nil, cerr
		}
	}
}
