package smashsend

import (
	"context"
	"net/http"
	"time"
)

// Identify ties an event to a contact. Traits update the contact's properties.
type Identify struct {
	Email  string         `json:"email" validate:"required,email"`
	Traits map[string]any `json:"traits,omitempty"`
}

// Event is a tracked product event.
type Event struct {
	Event      string         `json:"event" validate:"required"`
	Identify   Identify       `json:"identify"`
	Properties map[string]any `json:"properties,omitempty"`
	Timestamp  time.Time      `json:"timestamp,omitzero"`

	// MessageID deduplicates retried events. The API generates one when empty.
	MessageID string `json:"messageId,omitempty"`
}

// EventOptions customize a single events call.
type EventOptions struct {
	Headers map[string]string
	Timeout time.Duration
}

func (o *EventOptions) requestOptions() []RequestOption {
	if o == nil {
		return nil
	}
	var opts []RequestOption
	if len(o.Headers) > 0 {
		opts = append(opts, RequestHeaders(o.Headers))
	}
	if o.Timeout > 0 {
		opts = append(opts, RequestTimeout(o.Timeout))
	}
	return opts
}

// EventResponse acknowledges a single event.
type EventResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
	Info      string `json:"info,omitempty"`
}

// BatchEventResponse reports the outcome of a batch of events.
type BatchEventResponse struct {
	Accepted   int `json:"accepted"`
	Failed     int `json:"failed"`
	Duplicated int `json:"duplicated"`
	Events     []struct {
		Index     int    `json:"index"`
		MessageID string `json:"messageId"`
		Status    string `json:"status"`
	} `json:"events,omitempty"`
	Errors []struct {
		Index  int `json:"index"`
		Errors []struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"errors"`
	} `json:"errors,omitempty"`
}

// EventsService tracks events.
type EventsService struct {
	client requester
}

// Send tracks one event.
func (s *EventsService) Send(ctx context.Context, event Event, opts *EventOptions) (*EventResponse, error) {
	if err := validateStruct(&event); err != nil {
		return nil, err
	}
	return doJSON[EventResponse](ctx, s.client, http.MethodPost, "/events", event, opts.requestOptions()...)
}

// SendBatch tracks several events in one call.
func (s *EventsService) SendBatch(ctx context.Context, events []Event, opts *EventOptions) (*BatchEventResponse, error) {
	if len(events) == 0 {
		return nil, invalidRequest(NewValidationError("events", "at least one event is required"))
	}
	for i := range events {
		if err := validateStruct(&events[i]); err != nil {
			return nil, err
		}
	}
	body := struct {
		Events []Event `json:"events"`
	}{Events: events}
	return doJSON[BatchEventResponse](ctx, s.client, http.MethodPost, "/events/batch", body, opts.requestOptions()...)
}
