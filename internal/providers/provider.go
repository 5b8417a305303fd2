// Package providers builds relay providers by type.
package providers

import (
	"fmt"

	"github.com/smashsend/smashsend-go/internal/core"
	"github.com/smashsend/smashsend-go/internal/providers/mailgun"
	"github.com/smashsend/smashsend-go/internal/providers/sendgrid"
	"github.com/smashsend/smashsend-go/internal/providers/ses"
	"github.com/smashsend/smashsend-go/internal/providers/smtp"
)

// Provider types accepted by New.
const (
	TypeSES      = "aws_ses"
	TypeSendGrid = "sendgrid"
	TypeMailgun  = "mailgun"
	TypeSMTP     = "smtp"
)

// New creates a relay provider of the given type.
func New(providerType string, settings core.ProviderSettings) (core.Provider, error) {
	if settings == nil {
		settings = core.ProviderSettings{}
	}

	switch providerType {
	case TypeSES:
		return NewSESProvider(settings)
	case TypeSendGrid:
		return NewSendGridProvider(settings)
	case TypeMailgun:
		return NewMailgunProvider(settings)
	case TypeSMTP:
		return NewSMTPProvider(settings)
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}

// NewSESProvider creates a new AWS SES provider.
func NewSESProvider(settings core.ProviderSettings) (core.Provider, error) {
	p, err := ses.NewProvider(settings)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// NewSendGridProvider creates a new SendGrid provider.
func NewSendGridProvider(settings core.ProviderSettings) (core.Provider, error) {
	p, err := sendgrid.NewProvider(settings)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// NewMailgunProvider creates a new Mailgun provider.
func NewMailgunProvider(settings core.ProviderSettings) (core.Provider, error) {
	p, err := mailgun.NewProvider(settings)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// NewSMTPProvider creates a new SMTP provider.
func NewSMTPProvider(settings core.ProviderSettings) (core.Provider, error) {
	p, err := smtp.NewProvider(settings)
	if err != nil {
		return nil, err
	}
	return p, nil
}
