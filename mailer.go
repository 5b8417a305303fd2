package smashsend

import (
	"context"
)

// Public interfaces for the client
type (
	// Mailer sends emails through SmashSend. *EmailsService implements it.
	Mailer interface {
		// Send sends an email whose content is supplied by the caller.
		Send(ctx context.Context, opts RawEmailOptions) (*EmailSendResponse, error)

		// SendWithTemplate sends an email rendered from a stored template.
		SendWithTemplate(ctx context.Context, opts TemplatedEmailOptions) (*EmailSendResponse, error)
	}

	// Requester performs raw API calls. *Client implements it, which lets
	// callers reach endpoints the resource services do not cover.
	Requester interface {
		Request(ctx context.Context, method, path string, body any, opts ...RequestOption) (*Response, error)
	}
)

var (
	_ Mailer    = (*EmailsService)(nil)
	_ Requester = (*Client)(nil)
)
