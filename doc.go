// Package smashsend is a Go client for the SmashSend HTTP API.
//
// Every call goes through one request engine that injects the API key,
// builds the versioned URL, bounds each attempt with a timeout and retries
// rate-limited, 5xx and connection failures with exponential backoff. Failures
// are always reported as an *Error whose Kind tells them apart.
//
// # Basic Usage
//
//	client, err := smashsend.New(os.Getenv("SMASHSEND_API_KEY"))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	email, err := client.Emails.Send(ctx, smashsend.RawEmailOptions{
//		From:    "noreply@example.com",
//		To:      smashsend.Recipients{"user@example.com"},
//		Subject: "Welcome",
//		HTML:    "<h1>Welcome!</h1>",
//	})
//	switch {
//	case errors.Is(err, smashsend.ErrRateLimit):
//		// retry budget exhausted on 429
//	case errors.Is(err, smashsend.ErrAuthentication):
//		// bad key
//	}
//
// # Resources
//
//   - Contacts and custom contact properties
//   - Emails (raw and templated) and transactional templates
//   - Webhooks
//   - API keys
//   - Verified sender identities
//   - Events
//
// # Features
//
//   - Per-attempt timeout and retries with jittered exponential backoff
//   - Typed error taxonomy usable with errors.Is and errors.As
//   - Debug logging with zerolog, credentials redacted
//   - Distributed tracing with OpenTelemetry
//   - Prometheus metrics and client-side rate limiting
//   - Optional relay through AWS SES, SendGrid, Mailgun or SMTP when the API is unavailable
//   - Circuit breaker around the relay
package smashsend
