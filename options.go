package smashsend

import (
	"maps"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Option is a functional option for configuring the client.
type Option func(*Config)

// WithBaseURL overrides the API host.
func WithBaseURL(baseURL string) Option {
	return func(c *Config) {
		c.BaseURL = baseURL
	}
}

// WithAPIVersion overrides the path version segment.
func WithAPIVersion(version string) Option {
	return func(c *Config) {
		c.APIVersion = version
	}
}

// WithMaxRetries sets the retry budget. Zero disables retries.
func WithMaxRetries(n int) Option {
	return func(c *Config) {
		c.MaxRetries = n
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Timeout = timeout
	}
}

// WithRetryDelay sets the backoff base.
func WithRetryDelay(delay time.Duration) Option {
	return func(c *Config) {
		c.RetryDelay = delay
	}
}

// WithHeaders adds headers sent with every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Config) {
		if c.Headers == nil {
			c.Headers = make(map[string]string, len(headers))
		}
		maps.Copy(c.Headers, headers)
	}
}

// WithDebug enables request and response logging.
func WithDebug(enabled bool) Option {
	return func(c *Config) {
		c.Debug = enabled
	}
}

// WithHTTPClient sets the transport, e.g. an *http.Client with a custom RoundTripper.
func WithHTTPClient(client Doer) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithLogger sets the logger used for debug output and relay warnings.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Config) {
		c.Logging.Logger = &logger
	}
}

// WithLogging configures the default logger.
func WithLogging(level, format string) Option {
	return func(c *Config) {
		c.Logging.Level = level
		c.Logging.Format = format
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Config) {
		c.TracerProvider = tp
	}
}

// WithRateLimit throttles requests client-side to rate per second.
func WithRateLimit(rate float64, burst int) Option {
	return func(c *Config) {
		c.RateLimit.Enabled = true
		c.RateLimit.Rate = rate
		c.RateLimit.Burst = burst
	}
}

// WithoutRateLimit disables client-side throttling.
func WithoutRateLimit() Option {
	return func(c *Config) {
		c.RateLimit.Enabled = false
	}
}

// WithMetrics registers Prometheus collectors with reg.
func WithMetrics(reg prometheus.Registerer, namespace string) Option {
	return func(c *Config) {
		c.Metrics.Registerer = reg
		if namespace != "" {
			c.Metrics.Namespace = namespace
		}
	}
}

// WithFallbackProvider sets a relay provider for raw email sends.
func WithFallbackProvider(providerType ProviderType, settings ProviderSettings) Option {
	return func(c *Config) {
		c.Fallback = &FallbackConfig{
			Type:     providerType,
			Settings: maps.Clone(settings),
		}
	}
}

// WithRelay sets a ready-made relay provider for raw email sends.
func WithRelay(p Provider) Option {
	return func(c *Config) {
		c.Relay = p
	}
}

// WithRelayBreaker stops relaying for timeout after threshold consecutive
// relay failures.
func WithRelayBreaker(threshold int, timeout time.Duration) Option {
	return func(c *Config) {
		c.RelayBreaker.Enabled = true
		c.RelayBreaker.FailureThreshold = threshold
		c.RelayBreaker.Timeout = timeout
	}
}

// WithSESFallback relays through AWS SES in region, using the default credential chain.
func WithSESFallback(region string) Option {
	return WithFallbackProvider(ProviderAWSSES, ProviderSettings{
		"region": region,
	})
}

// WithSESFallbackCredentials relays through AWS SES with explicit credentials.
func WithSESFallbackCredentials(region, accessKey, secretKey string) Option {
	return WithFallbackProvider(ProviderAWSSES, ProviderSettings{
		"region":     region,
		"access_key": accessKey,
		"secret_key": secretKey,
	})
}

// WithSendGridFallback relays through SendGrid.
func WithSendGridFallback(apiKey string) Option {
	return WithFallbackProvider(ProviderSendGrid, ProviderSettings{
		"api_key": apiKey,
	})
}

// WithMailgunFallback relays through Mailgun.
func WithMailgunFallback(apiKey, domain string) Option {
	return WithFallbackProvider(ProviderMailgun, ProviderSettings{
		"api_key": apiKey,
		"domain":  domain,
	})
}

// WithMailgunEUFallback relays through Mailgun's EU region.
func WithMailgunEUFallback(apiKey, domain string) Option {
	return WithFallbackProvider(ProviderMailgun, ProviderSettings{
		"api_key": apiKey,
		"domain":  domain,
		"region":  "eu",
	})
}

// WithSMTPFallback relays through an SMTP server.
func WithSMTPFallback(host, port, username, password string) Option {
	return WithFallbackProvider(ProviderSMTP, ProviderSettings{
		"host":     host,
		"port":     port,
		"username": username,
		"password": password,
	})
}
