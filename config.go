package smashsend

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/smashsend/smashsend-go/internal/core"
	"github.com/smashsend/smashsend-go/internal/engine"
)

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer = engine.Doer

// Config holds the complete client configuration.
type Config struct {
	// APIKey is the SmashSend API key. Required.
	APIKey string

	// BaseURL is the API host (default: https://api.smashsend.com).
	BaseURL string `validate:"required,url"`

	// APIVersion is the path version segment (default: v1).
	APIVersion string `validate:"required"`

	// MaxRetries is the retry budget for 429, 5xx and connection failures.
	// Zero disables retries.
	MaxRetries int `validate:"gte=0"`

	// Timeout bounds each individual attempt, not the whole retry sequence.
	Timeout time.Duration `validate:"gt=0"`

	// RetryDelay is the backoff base; attempt k waits about RetryDelay * 4^k.
	RetryDelay time.Duration `validate:"gt=0"`

	// Headers are sent with every request, over the defaults.
	Headers map[string]string

	// Debug logs every request and response to the logger.
	Debug bool

	// HTTPClient is the transport. Defaults to a plain *http.Client.
	HTTPClient Doer `validate:"-"`

	// TracerProvider creates spans. Defaults to the global provider.
	TracerProvider trace.TracerProvider `validate:"-"`

	// Logging contains logging configuration.
	Logging LoggingConfig

	// RateLimit contains client-side throttling configuration.
	RateLimit RateLimitConfig

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig

	// Fallback configures a relay provider that takes over raw email sends
	// when the API keeps failing with a retryable error.
	Fallback *FallbackConfig

	// Relay is a ready-made relay provider. It takes precedence over Fallback.
	Relay Provider `validate:"-"`

	// RelayBreaker stops relaying after repeated relay failures.
	RelayBreaker CircuitBreakerConfig
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Logger overrides the default logger.
	Logger *zerolog.Logger `validate:"-"`

	// Level is the level of the default logger (trace, debug, info, warn,
	// error). Debug mode output is written at debug level and is only
	// visible when Level admits it.
	Level string `validate:"omitempty,oneof=trace debug info warn error"`

	// Format is the log format of the default logger (json, console).
	Format string `validate:"omitempty,oneof=json console"`
}

// RateLimitConfig contains client-side rate limiting configuration.
type RateLimitConfig struct {
	// Enabled indicates whether throttling is enabled.
	Enabled bool

	// Rate is the number of requests per second.
	Rate float64 `validate:"gte=0"`

	// Burst is the maximum number of requests that can be made immediately.
	Burst int `validate:"gte=0"`
}

// MetricsConfig contains Prometheus configuration.
type MetricsConfig struct {
	// Registerer receives the collectors. Metrics are disabled when nil.
	Registerer prometheus.Registerer `validate:"-"`

	// Namespace is the metric name prefix (default: smashsend).
	Namespace string
}

// CircuitBreakerConfig contains relay circuit breaker configuration.
type CircuitBreakerConfig struct {
	// Enabled indicates whether the circuit breaker is enabled.
	Enabled bool

	// FailureThreshold is the number of consecutive relay failures that opens the circuit.
	FailureThreshold int `validate:"gte=0"`

	// SuccessThreshold is the number of half-open successes needed to close the circuit.
	SuccessThreshold int `validate:"gte=0"`

	// Timeout is how long the circuit stays open before probing the relay again.
	Timeout time.Duration `validate:"gte=0"`
}

// FallbackConfig selects the relay provider.
type FallbackConfig struct {
	// Type is the relay provider.
	Type ProviderType `validate:"required,oneof=aws_ses sendgrid mailgun smtp"`

	// Settings holds provider-specific settings.
	Settings ProviderSettings
}

// ProviderType represents the type of relay provider.
type ProviderType string

const (
	// ProviderAWSSES represents Amazon Simple Email Service.
	ProviderAWSSES ProviderType = "aws_ses"

	// ProviderSendGrid represents the SendGrid email service.
	ProviderSendGrid ProviderType = "sendgrid"

	// ProviderMailgun represents the Mailgun email service.
	ProviderMailgun ProviderType = "mailgun"

	// ProviderSMTP represents a generic SMTP server.
	ProviderSMTP ProviderType = "smtp"
)

// String returns the string representation of the provider type.
func (pt ProviderType) String() string {
	return string(pt)
}

// DefaultConfig returns a configuration with the API defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:    engine.DefaultBaseURL,
		APIVersion: engine.DefaultAPIVersion,
		MaxRetries: engine.DefaultMaxRetries,
		Timeout:    engine.DefaultTimeout,
		RetryDelay: engine.DefaultRetryDelay,
		Logging: LoggingConfig{
			Level:  "debug",
			Format: "console",
		},
		RateLimit: RateLimitConfig{
			Enabled: false,
			Rate:    10,
			Burst:   10,
		},
		Metrics: MetricsConfig{
			Namespace: "smashsend",
		},
		RelayBreaker: CircuitBreakerConfig{
			Enabled:          false,
			FailureThreshold: 5,
			SuccessThreshold: 1,
			Timeout:          60 * time.Second,
		},
	}
}

var structValidator = validator.New()

// toValidationError reduces a validator failure to its first field error.
func toValidationError(err error) *core.ValidationError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return core.NewValidationErrorWithValue(fe.Namespace(), fmt.Sprintf("failed on the '%s' rule", fe.Tag()), fe.Value())
	}
	return core.NewValidationError("", err.Error())
}

// Validate checks the configuration. A missing API key is an authentication
// error; anything else is a client error with code invalid_config.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return core.NewError(core.KindAuthentication, core.CodeAPIKeyRequired, "API key is required")
	}

	if err := structValidator.Struct(c); err != nil {
		ve := toValidationError(err)
		return core.NewClientError(core.CodeInvalidConfig, ve.Error(), ve)
	}

	if c.RateLimit.Enabled && c.RateLimit.Rate <= 0 {
		ve := core.NewValidationError("Config.RateLimit.Rate", "rate must be greater than 0")
		return core.NewClientError(core.CodeInvalidConfig, ve.Error(), ve)
	}

	return nil
}
