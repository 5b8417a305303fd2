package smashsend

import (
	"context"
	"net/http"
	"time"
)

// TransactionalStatus is the publication state of a transactional template.
type TransactionalStatus string

const (
	TransactionalStatusActive TransactionalStatus = "ACTIVE"
	TransactionalStatusDraft  TransactionalStatus = "DRAFT"
)

// Transactional is a transactional email template.
type Transactional struct {
	ID        string              `json:"id"`
	Title     string              `json:"title"`
	Slug      string              `json:"slug,omitempty"`
	Status    TransactionalStatus `json:"status"`
	Variables []string            `json:"variables,omitempty"`
	CreatedAt time.Time           `json:"createdAt,omitzero"`
	UpdatedAt time.Time           `json:"updatedAt,omitzero"`
}

// ListTransactionalOptions filters and paginates transactional templates.
type ListTransactionalOptions struct {
	Limit  int
	Cursor string
	Status TransactionalStatus
	Search string
}

// TransactionalList is one page of transactional templates.
type TransactionalList struct {
	Items      []Transactional `json:"items"`
	Cursor     string          `json:"cursor,omitempty"`
	HasMore    bool            `json:"hasMore"`
	TotalCount *int            `json:"totalCount,omitempty"`
}

// TransactionalService reads transactional email templates.
type TransactionalService struct {
	client requester
}

// Get fetches a transactional template by id.
func (s *TransactionalService) Get(ctx context.Context, id string) (*Transactional, error) {
	path, err := resourcePath("/transactional", id)
	if err != nil {
		return nil, err
	}
	return doEnvelope[Transactional](ctx, s.client, http.MethodGet, path, "transactional", nil)
}

// List returns one page of transactional templates.
func (s *TransactionalService) List(ctx context.Context, opts *ListTransactionalOptions) (*TransactionalList, error) {
	return listTransactional(ctx, s.client, opts)
}

func listTransactional(ctx context.Context, r requester, opts *ListTransactionalOptions) (*TransactionalList, error) {
	q := queryParams{}
	if opts != nil {
		q.setInt("limit", opts.Limit)
		q.setString("cursor", opts.Cursor)
		q.setString("status", string(opts.Status))
		q.setString("search", opts.Search)
	}

	list, err := doEnvelope[TransactionalList](ctx, r, http.MethodGet, "/transactional", "transactional", nil, q.option())
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = &TransactionalList{}
	}
	return list, nil
}
