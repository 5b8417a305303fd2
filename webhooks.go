package smashsend

import (
	"context"
	"net/http"
	"time"
)

// WebhookEvent is an event type a webhook can subscribe to.
type WebhookEvent string

const (
	WebhookEventContactCreated      WebhookEvent = "CONTACT_CREATED"
	WebhookEventContactUpdated      WebhookEvent = "CONTACT_UPDATED"
	WebhookEventContactDeleted      WebhookEvent = "CONTACT_DELETED"
	WebhookEventContactUnsubscribed WebhookEvent = "CONTACT_UNSUBSCRIBED"
	WebhookEventEmailSent           WebhookEvent = "EMAIL_SENT"
	WebhookEventEmailDelivered      WebhookEvent = "EMAIL_DELIVERED"
	WebhookEventEmailOpened         WebhookEvent = "EMAIL_OPENED"
	WebhookEventEmailClicked        WebhookEvent = "EMAIL_CLICKED"
	WebhookEventEmailBounced        WebhookEvent = "EMAIL_BOUNCED"
	WebhookEventEmailComplained     WebhookEvent = "EMAIL_COMPLAINED"
)

// Webhook is a webhook subscription.
type Webhook struct {
	ID          string         `json:"id"`
	URL         string         `json:"url"`
	Events      []WebhookEvent `json:"events"`
	Description string         `json:"description,omitempty"`
	Enabled     bool           `json:"enabled"`
	Secret      string         `json:"secret,omitempty"`
	CreatedAt   time.Time      `json:"createdAt,omitzero"`
	UpdatedAt   time.Time      `json:"updatedAt,omitzero"`
}

// WebhookOptions create a webhook.
type WebhookOptions struct {
	URL         string         `json:"url" validate:"required,url"`
	Events      []WebhookEvent `json:"events" validate:"required,min=1"`
	Description string         `json:"description,omitempty"`
	Enabled     *bool          `json:"enabled,omitempty"`
	Secret      string         `json:"secret,omitempty"`
}

// WebhookUpdateOptions change a webhook. Unset fields are left alone.
type WebhookUpdateOptions struct {
	URL         string         `json:"url,omitempty" validate:"omitempty,url"`
	Events      []WebhookEvent `json:"events,omitempty"`
	Description string         `json:"description,omitempty"`
	Enabled     *bool          `json:"enabled,omitempty"`
	Secret      string         `json:"secret,omitempty"`
}

// ListWebhooksOptions filters and paginates a webhook listing.
type ListWebhooksOptions struct {
	Limit   int
	Offset  int
	Enabled *bool
	Event   WebhookEvent
}

// WebhookList is one page of webhooks.
type WebhookList struct {
	Data   []Webhook `json:"data"`
	Total  int       `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

// DeleteWebhookResponse is the result of a webhook delete.
type DeleteWebhookResponse struct {
	Success bool `json:"success"`
}

// WebhooksService manages webhook subscriptions.
type WebhooksService struct {
	client requester
}

// Create creates a webhook.
func (s *WebhooksService) Create(ctx context.Context, opts WebhookOptions) (*Webhook, error) {
	if err := validateStruct(&opts); err != nil {
		return nil, err
	}
	return doJSON[Webhook](ctx, s.client, http.MethodPost, "/webhooks", opts)
}

// Get fetches a webhook by id.
func (s *WebhooksService) Get(ctx context.Context, id string) (*Webhook, error) {
	path, err := resourcePath("/webhooks", id)
	if err != nil {
		return nil, err
	}
	return doJSON[Webhook](ctx, s.client, http.MethodGet, path, nil)
}

// Update patches a webhook.
func (s *WebhooksService) Update(ctx context.Context, id string, opts WebhookUpdateOptions) (*Webhook, error) {
	path, err := resourcePath("/webhooks", id)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(&opts); err != nil {
		return nil, err
	}
	return doJSON[Webhook](ctx, s.client, http.MethodPatch, path, opts)
}

// Delete deletes a webhook.
func (s *WebhooksService) Delete(ctx context.Context, id string) (*DeleteWebhookResponse, error) {
	path, err := resourcePath("/webhooks", id)
	if err != nil {
		return nil, err
	}
	return doJSON[DeleteWebhookResponse](ctx, s.client, http.MethodDelete, path, nil)
}

// List returns one page of webhooks.
func (s *WebhooksService) List(ctx context.Context, opts *ListWebhooksOptions) (*WebhookList, error) {
	q := queryParams{}
	if opts != nil {
		q.setInt("limit", opts.Limit)
		q.setInt("offset", opts.Offset)
		q.setBool("enabled", opts.Enabled)
		q.setString("event", string(opts.Event))
	}
	return doJSON[WebhookList](ctx, s.client, http.MethodGet, "/webhooks", nil, q.option())
}

// Enable turns a webhook on.
func (s *WebhooksService) Enable(ctx context.Context, id string) (*Webhook, error) {
	return s.action(ctx, id, "enable")
}

// Disable turns a webhook off.
func (s *WebhooksService) Disable(ctx context.Context, id string) (*Webhook, error) {
	return s.action(ctx, id, "disable")
}

// RotateSecret issues a new signing secret. The returned webhook carries it.
func (s *WebhooksService) RotateSecret(ctx context.Context, id string) (*Webhook, error) {
	return s.action(ctx, id, "rotate-secret")
}

func (s *WebhooksService) action(ctx context.Context, id, action string) (*Webhook, error) {
	path, err := resourcePath("/webhooks", id)
	if err != nil {
		return nil, err
	}
	return doJSON[Webhook](ctx, s.client, http.MethodPost, path+"/"+action, struct{}{})
}
