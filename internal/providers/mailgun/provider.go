// Package mailgun relays email through the Mailgun API.
package mailgun

import (
	"context"
	"time"

	"github.com/mailgun/mailgun-go/v4"

	"github.com/smashsend/smashsend-go/internal/core"
)

const name = "mailgun"

// Provider implements core.Provider for Mailgun.
type Provider struct {
	client mailgun.Mailgun
	config core.ProviderSettings
}

// NewProvider creates a Mailgun relay. Settings: api_key and domain
// (required), region=eu for the EU API host, base_url (optional override).
func NewProvider(settings core.ProviderSettings) (*Provider, error) {
	p := &Provider{config: settings}
	if err := p.ValidateConfig(); err != nil {
		return nil, err
	}

	client := mailgun.NewMailgun(settings.Get("domain"), settings.Get("api_key"))
	switch {
	case settings.Get("base_url") != "":
		client.SetAPIBase(settings.Get("base_url"))
	case settings.Get("region") == "eu":
		client.SetAPIBase(mailgun.APIBaseEU)
	}
	p.client = client
	return p, nil
}

// Send relays a single email.
func (p *Provider) Send(ctx context.Context, email *core.Email) (*core.SendResult, error) {
	if err := email.Validate(); err != nil {
		return nil, err
	}

	message := mailgun.NewMessage(email.From.String(), email.Subject, email.TextBody, email.To[0].String())
	for _, to := range email.To[1:] {
		if err := message.AddRecipient(to.String()); err != nil {
			return nil, core.NewProviderError(name, "recipient_add_failed", "failed to add recipient "+to.Email, err)
		}
	}

	if email.HTMLBody != "" {
		message.SetHTML(email.HTMLBody)
	}
	if len(email.ReplyTo) > 0 {
		message.SetReplyTo(email.ReplyTo[0].String())
	}
	for key, value := range email.Headers {
		message.AddHeader(key, value)
	}
	if len(email.Tags) > 0 {
		if err := message.AddTag(email.Tags...); err != nil {
			return nil, core.NewProviderError(name, "tag_add_failed", "failed to add tags", err)
		}
	}

	_, id, err := p.client.Send(ctx, message)
	if err != nil {
		perr := core.NewProviderError(name, "send_failed", "failed to send email", err)
		if status := mailgun.GetStatusFromErr(err); status > 0 {
			perr.StatusCode = status
			perr.IsRetryable = status == 429 || status >= 500
		}
		return nil, perr
	}

	return &core.SendResult{
		MessageID: id,
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
		return core.NewValidationError("api_key", "Mailgun API key is required")
	}
	if p.config.Get("domain") == "" {
		return core.NewValidationError("domain", "Mailgun domain is required")
	}
	if region := p.config.Get("region"); region != "" && region != "us" && region != "eu" {
		return core.NewValidationErrorWithValue("region", "region must be us or eu", region)
	}
	return nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return name
}
