// Package sendgrid relays email through the SendGrid v3 API.
package sendgrid

import (
	"context"
	"maps"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/smashsend/smashsend-go/internal/core"
)

const name = "sendgrid"

// Provider implements core.Provider for SendGrid.
type Provider struct {
	client *sendgrid.Client
	config core.ProviderSettings
}

// NewProvider creates a SendGrid relay. Settings: api_key (required),
// base_url (optional, for regional or test hosts).
func NewProvider(settings core.ProviderSettings) (*Provider, error) {
	p := &Provider{config: settings}
	if err := p.ValidateConfig(); err != nil {
		return nil, err
	}

	if host := settings.Get("base_url"); host != "" {
		req := sendgrid.GetRequest(settings.Get("api_key"), "/v3/mail/send", host)
		req.Method = "POST"
		p.client = &sendgrid.Client{Request: req}
	} else {
		p.client = sendgrid.NewSendClient(settings.Get("api_key"))
	}
	return p, nil
}

// buildMessage converts the relay email to a SendGrid message.
func buildMessage(email *core.Email) *mail.SGMailV3 {
	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(email.From.Name, email.From.Email))
	message.Subject = email.Subject

	personalization := mail.NewPersonalization()
	for _, recipient := range email.To {
		personalization.AddTos(mail.NewEmail(recipient.Name, recipient.Email))
	}
	message.AddPersonalizations(personalization)

	if email.TextBody != "" {
		message.AddContent(mail.NewContent("text/plain", email.TextBody))
	}
	if email.HTMLBody != "" {
		message.AddContent(mail.NewContent("text/html", email.HTMLBody))
	}

	if len(email.ReplyTo) > 0 {
		message.SetReplyTo(mail.NewEmail(email.ReplyTo[0].Name, email.ReplyTo[0].Email))
	}

	if len(email.Headers) > 0 {
		message.Headers = maps.Clone(email.Headers)
	}

	if len(email.Tags) > 0 {
		message.AddCategories(email.Tags...)
	}

	return message
}

// Send relays a single email.
func (p *Provider) Send(ctx context.Context, email *core.Email) (*core.SendResult, error) {
	if err := email.Validate(); err != nil {
		return nil, err
	}

	response, err := p.client.SendWithContext(ctx, buildMessage(email))
	if err != nil {
		perr := core.NewProviderError(name, "send_error", "failed to send email", err)
		perr.IsRetryable = true
		return nil, perr
	}

	if response.StatusCode >= 400 {
		perr := core.NewProviderError(name, "api_error", "SendGrid API error: "+response.Body, nil)
		perr.StatusCode = response.StatusCode
		perr.IsRetryable = response.StatusCode == 429 || response.StatusCode >= 500
		return nil, perr
	}

	messageID := "unknown"
	if ids := response.Headers["X-Message-Id"]; len(ids) > 0 {
		messageID = ids[0]
	}

	return &core.SendResult{
		MessageID: messageID,
		Provider:  p.Name(),
		Timestamp: time.Now(),
	}, nil
}

// SendBatch relays emails one by one.
func (p *Provider) SendBatch(ctx context.Context, emails []*core.Email) (*core.BatchResult, error) {
	return core.SendEach(ctx, p, emails), nil
}

// ValidateConfig validates the provider configuration.
func (p *Provider) ValidateConfig() error {
	if p.config.Get("api_key") == "" {
		return core.NewValidationError("api_key", "SendGrid API key is required")
	}
	return nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return name
}
