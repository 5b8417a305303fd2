package smashsend

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/smashsend/smashsend-go/internal/engine"
	"github.com/smashsend/smashsend-go/internal/providers"
)

// Per-call types re-exported from the engine.
type (
	// RequestOption customizes a single call.
	RequestOption = engine.RequestOption

	// Response is the envelope of one successful HTTP round trip.
	Response = engine.Response
)

// Per-call options.
var (
	RequestHeader     = engine.WithHeader
	RequestHeaders    = engine.WithHeaders
	RequestParam      = engine.WithParam
	RequestParams     = engine.WithParams
	RequestTimeout    = engine.WithTimeout
	RequestMaxRetries = engine.WithMaxRetries
	RequestRetryDelay = engine.WithRetryDelay
)

// Client is the SmashSend API client. Resource services share one request
// engine and therefore one configuration.
//
// The configuration setters are not synchronized with in-flight calls. A call
// reads the configuration once when it starts; changing it concurrently with
// a call starting requires external ordering.
type Client struct {
	Contacts      *ContactsService
	Emails        *EmailsService
	Transactional *TransactionalService
	Webhooks      *WebhooksService
	APIKeys       *APIKeysService
	Domains       *DomainsService
	Events        *EventsService

	engine *engine.Engine
	relay  Provider
	logger zerolog.Logger
	config Config
}

// New creates a client for apiKey with the API defaults and opts applied.
// An empty key fails with an authentication error before any network activity.
func New(apiKey string, opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	cfg.APIKey = apiKey
	return NewFromConfig(cfg, opts...)
}

// NewFromConfig creates a client from a complete configuration.
func NewFromConfig(cfg Config, opts ...Option) (*Client, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := newLogger(cfg)

	engineOpts := []engine.Option{
		engine.WithLogger(logger),
	}
	if cfg.HTTPClient != nil {
		engineOpts = append(engineOpts, engine.WithDoer(cfg.HTTPClient))
	}
	if cfg.TracerProvider != nil {
		engineOpts = append(engineOpts, engine.WithTracerProvider(cfg.TracerProvider))
	}
	if cfg.Metrics.Registerer != nil {
		engineOpts = append(engineOpts, engine.WithMetrics(engine.NewMetrics(cfg.Metrics.Registerer, cfg.Metrics.Namespace)))
	}
	if cfg.RateLimit.Enabled {
		burst := cfg.RateLimit.Burst
		if burst <= 0 {
			burst = 1
		}
		engineOpts = append(engineOpts, engine.WithLimiter(rate.NewLimiter(rate.Limit(cfg.RateLimit.Rate), burst)))
	}

	eng, err := engine.New(engine.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		APIVersion: cfg.APIVersion,
		MaxRetries: cfg.MaxRetries,
		Timeout:    cfg.Timeout,
		RetryDelay: cfg.RetryDelay,
		Headers:    cfg.Headers,
		Debug:      cfg.Debug,
		UserAgent:  UserAgent(),
	}, engineOpts...)
	if err != nil {
		return nil, err
	}

	c := &Client{
		engine: eng,
		logger: logger,
		config: cfg,
	}

	switch {
	case cfg.Relay != nil:
		c.relay = cfg.Relay
	case cfg.Fallback != nil:
		relay, err := providers.New(cfg.Fallback.Type.String(), cfg.Fallback.Settings)
		if err != nil {
			return nil, fmt.Errorf("failed to create fallback provider: %w", err)
		}
		c.relay = relay
	}

	c.Contacts = &ContactsService{client: eng}
	c.Emails = &EmailsService{client: eng, relay: c.relay, logger: logger}
	if c.relay != nil && cfg.RelayBreaker.Enabled {
		c.Emails.breaker = NewCircuitBreaker(cfg.RelayBreaker)
	}
	c.Transactional = &TransactionalService{client: eng}
	c.Webhooks = &WebhooksService{client: eng}
	c.APIKeys = &APIKeysService{client: eng}
	c.Domains = &DomainsService{client: eng}
	c.Events = &EventsService{client: eng}

	return c, nil
}

func newLogger(cfg Config) zerolog.Logger {
	if cfg.Logging.Logger != nil {
		return *cfg.Logging.Logger
	}

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil || cfg.Logging.Level == "" {
		level = zerolog.DebugLevel
	}
	if cfg.Debug && level > zerolog.DebugLevel {
		level = zerolog.DebugLevel
	}

	var logger zerolog.Logger
	if cfg.Logging.Format == "json" {
		logger = zerolog.New(os.Stderr)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	return logger.Level(level).With().Timestamp().Str("component", "smashsend").Logger()
}

// Config returns a copy of the configuration the client was built with,
// reflecting later setter calls.
func (c *Client) Config() Config {
	cfg := c.config
	ec := c.engine.Config()
	cfg.APIVersion = ec.APIVersion
	cfg.Headers = ec.Headers
	cfg.Debug = ec.Debug
	return cfg
}

// SetHeader sets a header sent with every later request.
func (c *Client) SetHeader(name, value string) *Client {
	c.engine.SetHeader(name, value)
	return c
}

// SetHeaders merges headers into the headers sent with every later request.
func (c *Client) SetHeaders(headers map[string]string) *Client {
	c.engine.SetHeaders(headers)
	return c
}

// SetDebugMode toggles request and response logging. Debug events are
// written even when the client logger is set to a higher level.
func (c *Client) SetDebugMode(enabled bool) *Client {
	c.engine.SetDebug(enabled)
	return c
}

// SetAPIVersion changes the API version used by later requests.
func (c *Client) SetAPIVersion(version string) *Client {
	c.engine.SetAPIVersion(version)
	return c
}

// Relay returns the configured fallback provider, or nil.
func (c *Client) Relay() Provider {
	return c.relay
}

// Request performs a raw call against path, relative to the versioned base URL.
// body is encoded as JSON and ignored for GET.
func (c *Client) Request(ctx context.Context, method, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.engine.Do(ctx, method, path, body, opts...)
}

// Get performs a raw GET call.
func (c *Client) Get(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.engine.Get(ctx, path, opts...)
}

// Post performs a raw POST call.
func (c *Client) Post(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.engine.Post(ctx, path, body, opts...)
}

// Put performs a raw PUT call.
func (c *Client) Put(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.engine.Put(ctx, path, body, opts...)
}

// Patch performs a raw PATCH call.
func (c *Client) Patch(ctx context.Context, path string, body any, opts ...RequestOption) (*Response, error) {
	return c.engine.Patch(ctx, path, body, opts...)
}

// Delete performs a raw DELETE call.
func (c *Client) Delete(ctx context.Context, path string, opts ...RequestOption) (*Response, error) {
	return c.engine.Delete(ctx, path, opts...)
}
