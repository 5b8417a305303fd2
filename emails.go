package smashsend

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/smashsend/smashsend-go/internal/core"
)

// Recipients is a list of addresses. A single recipient is encoded as a plain
// string, several as an array; both forms decode.
type Recipients []string

// MarshalJSON implements json.Marshaler.
func (r Recipients) MarshalJSON() ([]byte, error) {
	if len(r) == 1 {
		return json.Marshal(r[0])
	}
	return json.Marshal([]string(r))
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Recipients) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*r = Recipients{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*r = many
	return nil
}

// RawEmailOptions describe an email whose content is supplied by the caller.
type RawEmailOptions struct {
	From     string            `json:"from" validate:"required"`
	FromName string            `json:"fromName,omitempty"`
	To       Recipients        `json:"to" validate:"required,min=1"`
	CC       Recipients        `json:"cc,omitempty"`
	BCC      Recipients        `json:"bcc,omitempty"`
	ReplyTo  string            `json:"replyTo,omitempty"`
	Subject  string            `json:"subject"`
	HTML     string            `json:"html,omitempty"`
	Text     string            `json:"text,omitempty"`
	Tags     []string          `json:"tags,omitempty"`
	Headers  map[string]string `json:"headers,omitempty"`
	Metadata map[string]any    `json:"metadata,omitempty"`

	// SendAt schedules delivery. Scheduled emails are never relayed.
	SendAt time.Time `json:"sendAt,omitzero"`
}

// TemplatedEmailOptions describe an email rendered server-side from a template.
type TemplatedEmailOptions struct {
	Template  string         `json:"template" validate:"required"`
	To        Recipients     `json:"to" validate:"required,min=1"`
	From      string         `json:"from,omitempty"`
	FromName  string         `json:"fromName,omitempty"`
	ReplyTo   string         `json:"replyTo,omitempty"`
	Variables map[string]any `json:"variables,omitempty"`
	Tags      []string       `json:"tags,omitempty"`
	SendAt    time.Time      `json:"sendAt,omitzero"`
}

// EmailSendResponse is the accepted email.
type EmailSendResponse struct {
	ID          string     `json:"id"`
	MessageID   string     `json:"messageId,omitempty"`
	Status      string     `json:"status,omitempty"`
	From        string     `json:"from,omitempty"`
	To          Recipients `json:"to,omitempty"`
	Subject     string     `json:"subject,omitempty"`
	CreatedAt   time.Time  `json:"createdAt,omitzero"`
	ScheduledAt time.Time  `json:"scheduledAt,omitzero"`

	// RelayedBy names the fallback provider that delivered the email when
	// the API could not. Empty for API deliveries.
	RelayedBy string `json:"-"`
}

// EmailDetails is a sent email as reported by the API.
type EmailDetails struct {
	ID              string         `json:"id"`
	Status          string         `json:"status"`
	From            string         `json:"from,omitempty"`
	To              Recipients     `json:"to,omitempty"`
	Subject         string         `json:"subject,omitempty"`
	TransactionalID string         `json:"transactionalId,omitempty"`
	Events          []EmailEvent   `json:"events,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedAt       time.Time      `json:"createdAt,omitzero"`
	SentAt          time.Time      `json:"sentAt,omitzero"`
}

// EmailEvent is one delivery event of a sent email.
type EmailEvent struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// EmailsService sends emails and reads their status.
type EmailsService struct {
	client  requester
	relay   Provider
	breaker *CircuitBreaker
	logger  zerolog.Logger
}

// Send sends a raw email. When a fallback relay is configured and the API
// call fails with a retryable error after all retries, the email is handed
// to the relay instead.
func (s *EmailsService) Send(ctx context.Context, opts RawEmailOptions) (*EmailSendResponse, error) {
	if opts.HTML == "" && opts.Text == "" {
		return nil, invalidRequest(NewValidationError("html", "either html or text must be provided"))
	}
	if err := validateStruct(&opts); err != nil {
		return nil, err
	}

	resp, err := doEnvelope[EmailSendResponse](ctx, s.client, http.MethodPost, "/emails", "email", opts)
	if err == nil {
		if resp == nil {
			resp = &EmailSendResponse{}
		}
		return resp, nil
	}

	if s.relay == nil || !opts.SendAt.IsZero() || !core.IsRetryable(err) {
		return nil, err
	}
	return s.sendViaRelay(ctx, &opts, err)
}

func (s *EmailsService) sendViaRelay(ctx context.Context, opts *RawEmailOptions, apiErr error) (*EmailSendResponse, error) {
	name := s.relay.Name()
	s.logger.Warn().
		Err(apiErr).
		Str("relay", name).
		Str("request_id", core.RequestIDOf(apiErr)).
		Msg("smashsend: API send failed, relaying")

	email, err := relayEmail(opts)
	if err != nil {
		return nil, &RelayError{Err: apiErr, Relay: name, RelayErr: err}
	}

	var result *SendResult
	send := func() error {
		var err error
		result, err = s.relay.Send(ctx, email)
		if err == nil && result == nil {
			err = ErrRelayNoResult
		}
		return err
	}
	if s.breaker != nil {
		err = s.breaker.Execute(send)
	} else {
		err = send()
	}
	if err != nil {
		s.logger.Error().Err(err).Str("relay", name).Msg("smashsend: relay failed")
		return nil, &RelayError{Err: apiErr, Relay: name, RelayErr: err}
	}

	return &EmailSendResponse{
		ID:        result.MessageID,
		MessageID: result.MessageID,
		Status:    "RELAYED",
		From:      opts.From,
		To:        opts.To,
		Subject:   opts.Subject,
		CreatedAt: result.Timestamp,
		RelayedBy: result.Provider,
	}, nil
}

// relayEmail converts raw email options to the relay message.
func relayEmail(opts *RawEmailOptions) (*core.Email, error) {
	from, err := core.ParseAddress(opts.From)
	if err != nil {
		return nil, core.NewValidationErrorWithValue("from", "invalid sender address", opts.From)
	}
	if opts.FromName != "" {
		from.Name = opts.FromName
	}

	email := &core.Email{
		From:     from,
		Subject:  opts.Subject,
		HTMLBody: opts.HTML,
		TextBody: opts.Text,
		Headers:  opts.Headers,
		Tags:     opts.Tags,
	}

	for _, to := range opts.To {
		addr, err := core.ParseAddress(to)
		if err != nil {
			return nil, core.NewValidationErrorWithValue("to", "invalid recipient address", to)
		}
		email.To = append(email.To, addr)
	}

	if strings.TrimSpace(opts.ReplyTo) != "" {
		addr, err := core.ParseAddress(opts.ReplyTo)
		if err != nil {
			return nil, core.NewValidationErrorWithValue("replyTo", "invalid reply-to address", opts.ReplyTo)
		}
		email.ReplyTo = []Address{addr}
	}

	if err := email.Validate(); err != nil {
		return nil, err
	}
	return email, nil
}

// SendWithTemplate sends an email rendered from a stored template.
func (s *EmailsService) SendWithTemplate(ctx context.Context, opts TemplatedEmailOptions) (*EmailSendResponse, error) {
	if err := validateStruct(&opts); err != nil {
		return nil, err
	}
	resp, err := doEnvelope[EmailSendResponse](ctx, s.client, http.MethodPost, "/emails", "email", opts)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		resp = &EmailSendResponse{}
	}
	return resp, nil
}

// Get fetches a sent email by id.
func (s *EmailsService) Get(ctx context.Context, id string) (*EmailDetails, error) {
	path, err := resourcePath("/emails", id)
	if err != nil {
		return nil, err
	}
	return doEnvelope[EmailDetails](ctx, s.client, http.MethodGet, path, "email", nil)
}

// ListTransactional lists transactional email templates.
func (s *EmailsService) ListTransactional(ctx context.Context, opts *ListTransactionalOptions) (*TransactionalList, error) {
	return listTransactional(ctx, s.client, opts)
}
