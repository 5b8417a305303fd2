package smashsend

import (
	"context"
	"net/http"
	"time"
)

// APIKeyRole is the permission level of an API key.
type APIKeyRole string

const (
	APIKeyRoleAdmin    APIKeyRole = "ADMIN"
	APIKeyRoleReadOnly APIKeyRole = "READ_ONLY"
)

// APIKeyStatus is the lifecycle state of an API key.
type APIKeyStatus string

const (
	APIKeyStatusActive  APIKeyStatus = "ACTIVE"
	APIKeyStatusRevoked APIKeyStatus = "REVOKED"
)

// APIKeyValidation is the result of checking the configured key.
type APIKeyValidation struct {
	Status      string `json:"status"`
	Message     string `json:"message,omitempty"`
	WorkspaceID string `json:"workspaceId,omitempty"`
	Workspace   *struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Slug string `json:"slug,omitempty"`
	} `json:"workspace,omitempty"`

	// Valid reports whether Status is SUCCEED.
	Valid bool `json:"-"`
}

// APIKey describes an API key. The secret Token is only present on create.
type APIKey struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Role        APIKeyRole   `json:"role,omitempty"`
	Status      APIKeyStatus `json:"status,omitempty"`
	Token       string       `json:"token,omitempty"`
	Preview     string       `json:"preview,omitempty"`
	WorkspaceID string       `json:"workspaceId,omitempty"`
	LastUsedAt  time.Time    `json:"lastUsedAt,omitzero"`
	ExpiresAt   time.Time    `json:"expiresAt,omitzero"`
	CreatedAt   time.Time    `json:"createdAt,omitzero"`
	UpdatedAt   time.Time    `json:"updatedAt,omitzero"`
}

// APIKeyOptions create an API key.
type APIKeyOptions struct {
	Name      string     `json:"name" validate:"required"`
	Role      APIKeyRole `json:"role,omitempty"`
	ExpiresAt time.Time  `json:"expiresAt,omitzero"`
}

// APIKeyUpdateOptions change an API key.
type APIKeyUpdateOptions struct {
	Name   string       `json:"name,omitempty"`
	Role   APIKeyRole   `json:"role,omitempty"`
	Status APIKeyStatus `json:"status,omitempty"`
}

// ListAPIKeysOptions paginate an API key listing.
type ListAPIKeysOptions struct {
	StartAt time.Time
	Sort    string
	Limit   int
}

// APIKeyList is one page of API keys.
type APIKeyList struct {
	APIKeys struct {
		Items   []APIKey `json:"items"`
		HasMore bool     `json:"hasMore"`
		Cursor  string   `json:"cursor,omitempty"`
	} `json:"apiKeys"`
}

// APIKeyResponse wraps a single API key.
type APIKeyResponse struct {
	APIKey APIKey `json:"apiKey"`
}

// DeleteAPIKeyResponse is the result of an API key delete.
type DeleteAPIKeyResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
}

// APIKeysService inspects and manages API keys.
type APIKeysService struct {
	client requester
}

// Validate checks the configured API key.
func (s *APIKeysService) Validate(ctx context.Context) (*APIKeyValidation, error) {
	result, err := doJSON[APIKeyValidation](ctx, s.client, http.MethodGet, "/api-keys/check", nil)
	if err != nil {
		return nil, err
	}
	result.Valid = result.Status == "SUCCEED"
	return result, nil
}

// Current describes the configured API key.
func (s *APIKeysService) Current(ctx context.Context) (*APIKey, error) {
	return doJSON[APIKey](ctx, s.client, http.MethodGet, "/api-keys/current", nil)
}

// List returns the API keys of a workspace.
func (s *APIKeysService) List(ctx context.Context, workspaceID string, opts *ListAPIKeysOptions) (*APIKeyList, error) {
	path, err := resourcePath("/workspaces", workspaceID)
	if err != nil {
		return nil, err
	}
	q := queryParams{}
	if opts != nil {
		q.setTime("startAt", opts.StartAt)
		q.setString("sort", opts.Sort)
		q.setInt("limit", opts.Limit)
	}
	return doJSON[APIKeyList](ctx, s.client, http.MethodGet, path+"/api-keys", nil, q.option())
}

// Create creates an API key in a workspace.
func (s *APIKeysService) Create(ctx context.Context, workspaceID string, opts APIKeyOptions) (*APIKeyResponse, error) {
	path, err := resourcePath("/workspaces", workspaceID)
	if err != nil {
		return nil, err
	}
	if err := validateStruct(&opts); err != nil {
		return nil, err
	}
	return doJSON[APIKeyResponse](ctx, s.client, http.MethodPost, path+"/api-keys", opts)
}

// Update changes an API key.
func (s *APIKeysService) Update(ctx context.Context, workspaceID, apiKeyID string, opts APIKeyUpdateOptions) (*APIKeyResponse, error) {
	path, err := apiKeyPath(workspaceID, apiKeyID)
	if err != nil {
		return nil, err
	}
	return doJSON[APIKeyResponse](ctx, s.client, http.MethodPost, path, opts)
}

// Delete deletes an API key.
func (s *APIKeysService) Delete(ctx context.Context, workspaceID, apiKeyID string) (*DeleteAPIKeyResponse, error) {
	path, err := apiKeyPath(workspaceID, apiKeyID)
	if err != nil {
		return nil, err
	}
	return doJSON[DeleteAPIKeyResponse](ctx, s.client, http.MethodDelete, path, nil)
}

func apiKeyPath(workspaceID, apiKeyID string) (string, error) {
	ws, err := resourcePath("/workspaces", workspaceID)
	if err != nil {
		return "", err
	}
	return resourcePath(ws+"/api-keys", apiKeyID)
}
