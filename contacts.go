package smashsend

import (
	"context"
	"encoding/json"
	"maps"
	"net/http"
	"time"

	"github.com/smashsend/smashsend-go/internal/engine"
)

// ContactStatus is the subscription state of a contact.
type ContactStatus string

const (
	ContactStatusSubscribed   ContactStatus = "SUBSCRIBED"
	ContactStatusUnsubscribed ContactStatus = "UNSUBSCRIBED"
	ContactStatusBanned       ContactStatus = "BANNED"
)

// PropertyType is the value type of a custom contact property.
type PropertyType string

const (
	PropertyTypeSelect      PropertyType = "SELECT"
	PropertyTypeMultiSelect PropertyType = "MULTI_SELECT"
	PropertyTypeString      PropertyType = "STRING"
	PropertyTypeNumber      PropertyType = "NUMBER"
	PropertyTypeDate        PropertyType = "DATE"
	PropertyTypeBoolean     PropertyType = "BOOLEAN"
)

// Contact is a contact record.
type Contact struct {
	ID         string         `json:"id"`
	Properties map[string]any `json:"properties"`
	CreatedAt  time.Time      `json:"createdAt,omitzero"`
	UpdatedAt  time.Time      `json:"updatedAt,omitzero"`
}

// Email returns the email property, or "".
func (c *Contact) Email() string {
	s, _ := c.Properties["email"].(string)
	return s
}

// ContactOptions are the fields of a contact create or update. Custom
// properties are merged into the standard ones and win on conflict.
type ContactOptions struct {
	Email       string `validate:"omitempty,email"`
	FirstName   string
	LastName    string
	Phone       string
	AvatarURL   string `validate:"omitempty,url"`
	Language    string
	CountryCode string `validate:"omitempty,len=2"`
	City        string
	Status      ContactStatus `validate:"omitempty,oneof=SUBSCRIBED UNSUBSCRIBED BANNED"`
	Custom      map[string]any
}

func (o *ContactOptions) properties() map[string]any {
	props := make(map[string]any, 9+len(o.Custom))
	set := func(key, value string) {
		if value != "" {
			props[key] = value
		}
	}
	set("email", o.Email)
	set("firstName", o.FirstName)
	set("lastName", o.LastName)
	set("phone", o.Phone)
	set("avatarUrl", o.AvatarURL)
	set("language", o.Language)
	set("countryCode", o.CountryCode)
	set("city", o.City)
	set("status", string(o.Status))
	maps.Copy(props, o.Custom)
	return props
}

type contactBody struct {
	Properties map[string]any `json:"properties"`
	CreatedAt  string         `json:"createdAt,omitempty"`
}

// BatchContact is one entry of a batch create. A zero CreatedAt is omitted.
type BatchContact struct {
	ContactOptions
	CreatedAt time.Time
}

// BatchOptions controls batch create behaviour.
type BatchOptions struct {
	AllowPartialSuccess   bool `json:"allowPartialSuccess,omitempty"`
	IncludeFailedContacts bool `json:"includeFailedContacts,omitempty"`
	OverrideCreatedAt     bool `json:"overrideCreatedAt,omitempty"`
}

// BatchSummary counts the outcome of a batch create.
type BatchSummary struct {
	Total          int     `json:"total"`
	Created        int     `json:"created"`
	Updated        int     `json:"updated"`
	Failed         int     `json:"failed"`
	ProcessingTime float64 `json:"processingTime"`
}

// BatchContactError describes one rejected batch entry.
type BatchContactError struct {
	Index  int    `json:"index"`
	Email  string `json:"email,omitempty"`
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Field   string `json:"field,omitempty"`
	} `json:"errors"`
}

// BatchContactsResponse is the result of a batch create.
type BatchContactsResponse struct {
	Contacts       []Contact           `json:"contacts"`
	Summary        BatchSummary        `json:"summary"`
	Errors         []BatchContactError `json:"errors,omitempty"`
	FailedContacts []json.RawMessage   `json:"failedContacts,omitempty"`
	RequestID      string              `json:"-"`
}

// DeleteContactResponse is the result of a contact delete.
type DeleteContactResponse struct {
	IsDeleted bool    `json:"isDeleted"`
	Contact   Contact `json:"contact"`
}

// ListContactsOptions filters and paginates a contact listing.
type ListContactsOptions struct {
	Limit        int
	Cursor       string
	Sort         string // createdAt.desc or createdAt.asc
	Search       string
	Status       ContactStatus
	Filter       any
	IncludeCount bool
}

// ContactPage is one page of contacts.
type ContactPage struct {
	Items      []Contact `json:"items"`
	Cursor     string    `json:"cursor,omitempty"`
	HasMore    bool      `json:"hasMore"`
	TotalCount *int      `json:"totalCount,omitempty"`
}

// CustomProperty is a custom contact property definition.
type CustomProperty struct {
	ID          string       `json:"id"`
	DisplayName string       `json:"displayName"`
	APISlug     string       `json:"apiSlug,omitempty"`
	Description string       `json:"description,omitempty"`
	Type        PropertyType `json:"type"`
	TypeConfig  any          `json:"typeConfig,omitempty"`
	CreatedAt   time.Time    `json:"createdAt,omitzero"`
	UpdatedAt   time.Time    `json:"updatedAt,omitzero"`
}

// CustomPropertyList is the custom property listing.
type CustomPropertyList struct {
	Items   []CustomProperty `json:"items"`
	Cursor  string           `json:"cursor,omitempty"`
	HasMore bool             `json:"hasMore"`
}

// CustomPropertyOptions create or update a custom property.
type CustomPropertyOptions struct {
	DisplayName string       `json:"displayName,omitempty"`
	Description string       `json:"description,omitempty"`
	Type        PropertyType `json:"type,omitempty" validate:"omitempty,oneof=SELECT MULTI_SELECT STRING NUMBER DATE BOOLEAN"`
	TypeConfig  any          `json:"typeConfig,omitempty"`
}

// ContactsService manages contacts and their custom properties.
type ContactsService struct {
	client requester
}

// Create creates a contact. Email is required.
func (s *ContactsService) Create(ctx context.Context, opts ContactOptions) (*Contact, error) {
	if opts.Email == "" {
		return nil, invalidRequest(NewValidationError("email", "email is required"))
	}
	if err := validateStruct(&opts); err != nil {
		return nil, err
	}
	return doEnvelope[Contact](ctx, s.client, http.MethodPost, "/contacts", "contact",
		contactBody{Properties: opts.properties()})
}

// CreateBatch creates or updates many contacts in one call.
func (s *ContactsService) CreateBatch(ctx context.Context, contacts []BatchContact, opts BatchOptions) (*BatchContactsResponse, error) {
	if len(contacts) == 0 {
		return nil, invalidRequest(NewValidationError("contacts", "at least one contact is required"))
	}

	body := struct {
		Contacts []contactBody `json:"contacts"`
		Options  BatchOptions  `json:"options"`
	}{
		Contacts: make([]contactBody, 0, len(contacts)),
		Options:  opts,
	}
	for i := range contacts {
		if err := validateStruct(&contacts[i].ContactOptions); err != nil {
			return nil, err
		}
		entry := contactBody{Properties: contacts[i].properties()}
		if !contacts[i].CreatedAt.IsZero() {
			entry.CreatedAt = engine.FormatTime(contacts[i].CreatedAt)
		}
		body.Contacts = append(body.Contacts, entry)
	}

	resp, err := s.client.Do(ctx, http.MethodPost, "/contacts/batch", body)
	if err != nil {
		return nil, err
	}
	var result BatchContactsResponse
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	result.RequestID = resp.RequestID
	return &result, nil
}

// Search looks a contact up by email. It returns nil when none matches.
func (s *ContactsService) Search(ctx context.Context, email string) (*Contact, error) {
	if email == "" {
		return nil, invalidRequest(NewValidationError("email", "email is required"))
	}
	return doEnvelope[Contact](ctx, s.client, http.MethodGet, "/contacts/search", "contact", nil,
		RequestParam("email", email))
}

// Get fetches a contact by id.
func (s *ContactsService) Get(ctx context.Context, id string) (*Contact, error) {
	path, err := resourcePath("/contacts", id)
	if err != nil {
		return nil, err
	}
	return doEnvelope[Contact](ctx, s.client, http.MethodGet, path, "contact", nil)
}

// Update replaces the given properties of a contact.
func (s *ContactsService) Update(ctx context.Context, id string, opts ContactOptions) (*Contact, error) {
	path, err := resourcePath("/contacts", id)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(&opts); err != nil {
		return nil, err
	}
	return doEnvelope[Contact](ctx, s.client, http.MethodPut, path, "contact",
		contactBody{Properties: opts.properties()})
}

// Delete deletes a contact.
func (s *ContactsService) Delete(ctx context.Context, id string) (*DeleteContactResponse, error) {
	path, err := resourcePath("/contacts", id)
	if err != nil {
		return nil, err
	}
	return doJSON[DeleteContactResponse](ctx, s.client, http.MethodDelete, path, nil)
}

// List returns one page of contacts.
func (s *ContactsService) List(ctx context.Context, opts *ListContactsOptions) (*ContactPage, error) {
	q := queryParams{}
	if opts != nil {
		q.setInt("limit", opts.Limit)
		q.setString("cursor", opts.Cursor)
		q.setString("sort", opts.Sort)
		q.setString("search", opts.Search)
		q.setString("status", string(opts.Status))
		if opts.Filter != nil {
			filter, err := json.Marshal(opts.Filter)
			if err != nil {
				return nil, invalidRequest(err)
			}
			q["filter"] = string(filter)
		}
		if opts.IncludeCount {
			q["includeCount"] = true
		}
	}

	page, err := doEnvelope[ContactPage](ctx, s.client, http.MethodGet, "/contacts", "contacts", nil, q.option())
	if err != nil {
		return nil, err
	}
	if page == nil {
		page = &ContactPage{}
	}
	return page, nil
}

// ListProperties returns the custom contact properties.
func (s *ContactsService) ListProperties(ctx context.Context) (*CustomPropertyList, error) {
	return doEnvelope[CustomPropertyList](ctx, s.client, http.MethodGet, "/contacts/properties", "properties", nil,
		RequestParams(map[string]any{"type": "CUSTOM", "limit": 50}))
}

// CreateProperty defines a custom contact property.
func (s *ContactsService) CreateProperty(ctx context.Context, opts CustomPropertyOptions) (*CustomProperty, error) {
	if opts.DisplayName == "" {
		return nil, invalidRequest(NewValidationError("displayName", "display name is required"))
	}
	if opts.Type == "" {
		return nil, invalidRequest(NewValidationError("type", "type is required"))
	}
	if err := validateStruct(&opts); err != nil {
		return nil, err
	}
	return doEnvelope[CustomProperty](ctx, s.client, http.MethodPost, "/contact-properties", "property", opts)
}

// UpdateProperty changes a custom contact property.
func (s *ContactsService) UpdateProperty(ctx context.Context, id string, opts CustomPropertyOptions) (*CustomProperty, error) {
	path, err := resourcePath("/contact-properties", id)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(&opts); err != nil {
		return nil, err
	}
	return doEnvelope[CustomProperty](ctx, s.client, http.MethodPut, path, "property", opts)
}
