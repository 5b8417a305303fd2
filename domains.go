package smashsend

import (
	"context"
	"net/http"
)

// VerifiedIdentities are the sender addresses and domains the workspace may send from.
type VerifiedIdentities struct {
	Emails  []string `json:"emails"`
	Domains []string `json:"domains"`
}

// DomainsService reads sender identities.
type DomainsService struct {
	client requester
}

// VerifiedIdentities returns the verified sender emails and domains.
func (s *DomainsService) VerifiedIdentities(ctx context.Context) (*VerifiedIdentities, error) {
	ids, err := doEnvelope[VerifiedIdentities](ctx, s.client, http.MethodGet, "/identities", "identities", nil)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = &VerifiedIdentities{}
	}
	return ids, nil
}
