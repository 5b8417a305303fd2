package core

import (
	"context"
	"mime"
	"net/mail"
	"strconv"
	"strings"
	"time"
)

// Provider defines the interface for relay email providers. A relay takes over
// delivery of a raw email when the SmashSend API cannot accept it.
type Provider interface {
	// Send sends a single email using the provider's API.
	Send(ctx context.Context, email *Email) (*SendResult, error)

	// SendBatch sends multiple emails, individually if the provider has no batch API.
	SendBatch(ctx context.Context, emails []*Email) (*BatchResult, error)

	// ValidateConfig validates the provider configuration.
	ValidateConfig() error

	// Name returns the provider's name for identification and logging.
	Name() string
}

// ProviderSettings represents configuration settings for relay providers.
type ProviderSettings map[string]string

// Get retrieves a configuration value by key.
func (ps ProviderSettings) Get(key string) string {
	return ps[key]
}

// Set sets a configuration value.
func (ps ProviderSettings) Set(key, value string) {
	ps[key] = value
}

// Address represents an email address with optional display name.
type Address struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// ParseAddress parses "Name <email>" or a bare address.
func ParseAddress(s string) (Address, error) {
	a, err := mail.ParseAddress(s)
	if err != nil {
		return Address{}, err
	}
	return Address{Name: a.Name, Email: a.Address}, nil
}

// String returns "Name <email>" when a name is set, otherwise the bare address.
func (a Address) String() string {
	if a.Name != "" {
		return mime.QEncoding.Encode("UTF-8", a.Name) + " <" + a.Email + ">"
	}
	return a.Email
}

// Valid checks if the address has a valid email format.
func (a Address) Valid() bool {
	if a.Email == "" {
		return false
	}
	_, err := mail.ParseAddress(a.String())
	return err == nil
}

// Email is the provider-neutral message handed to a relay.
type Email struct {
	From     Address
	To       []Address
	ReplyTo  []Address
	Subject  string
	HTMLBody string
	TextBody string
	Headers  map[string]string
	Tags     []string
}

// Validate checks if the email has valid structure and required fields.
func (e *Email) Validate() error {
	if !e.From.Valid() {
		return &ValidationError{Field: "from", Message: "invalid or missing sender address"}
	}

	if len(e.To) == 0 {
		return &ValidationError{Field: "to", Message: "at least one recipient required"}
	}

	for i, to := range e.To {
		if !to.Valid() {
			return &ValidationError{
				Field:   "to",
				Message: "invalid recipient address at index " + strconv.Itoa(i),
			}
		}
	}

	if strings.TrimSpace(e.Subject) == "" {
		return &ValidationError{Field: "subject", Message: "subject is required"}
	}

	if strings.TrimSpace(e.TextBody) == "" && strings.TrimSpace(e.HTMLBody) == "" {
		return &ValidationError{Field: "body", Message: "either text or HTML body is required"}
	}

	return nil
}

// SendResult contains the result of relaying a single email.
type SendResult struct {
	// MessageID is the unique identifier assigned by the provider.
	MessageID string

	// Provider is the name of the provider that sent the email.
	Provider string

	// Timestamp when the email was accepted by the provider.
	Timestamp time.Time
}

// BatchResult contains the results of relaying multiple emails.
type BatchResult struct {
	Total      int
	Successful []*SendResult
	Failed     []BatchFailure
	Provider   string
}

// BatchFailure represents a failed email in a batch operation.
type BatchFailure struct {
	Index int
	Email *Email
	Error error
}

// SendEach relays emails one by one through send. Providers without a native
// batch API use it for SendBatch.
func SendEach(ctx context.Context, p Provider, emails []*Email) *BatchResult {
	result := &BatchResult{
		Total:    len(emails),
		Provider: p.Name(),
	}

	for i, email := range emails {
		if err := ctx.Err(); err != nil {
			result.Failed = append(result.Failed, BatchFailure{Index: i, Email: email, Error: err})
			continue
		}
		sendResult, err := p.Send(ctx, email)
		if err != nil {
			result.Failed = append(result.Failed, BatchFailure{Index: i, Email: email, Error: err})
			continue
		}
		result.Successful = append(result.Successful, sendResult)
	}

	return result
}
