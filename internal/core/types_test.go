package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEmail() *Email {
	return &Email{
		From:     Address{Email: "sender@example.com"},
		To:       []Address{{Email: "rcpt@example.com"}},
		Subject:  "Hello",
		TextBody: "Hi",
	}
}

func TestEmail_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Email)
		field  string
	}{
		{name: "valid", mutate: func(*Email) {}},
		{name: "missing sender", mutate: func(e *Email) { e.From = Address{} }, field: "from"},
		{name: "no recipients", mutate: func(e *Email) { e.To = nil }, field: "to"},
		{name: "bad recipient", mutate: func(e *Email) { e.To = append(e.To, Address{Email: "nope"}) }, field: "to"},
		{name: "blank subject", mutate: func(e *Email) { e.Subject = "  " }, field: "subject"},
		{name: "no body", mutate: func(e *Email) { e.TextBody = "" }, field: "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email := validEmail()
			tt.mutate(email)

			err := email.Validate()
			if tt.field == "" {
				require.NoError(t, err)
				return
			}

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("Ada Lovelace <ada@example.com>")
	require.NoError(t, err)
	assert.Equal(t, Address{Name: "Ada Lovelace", Email: "ada@example.com"}, addr)
	assert.Equal(t, "Ada Lovelace <ada@example.com>", addr.String())

	addr, err = ParseAddress("bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", addr.String())
	assert.True(t, addr.Valid())

	_, err = ParseAddress("not an address")
	assert.Error(t, err)
}

func TestAddress_StringEncodesNonASCIINames(t *testing.T) {
	addr := Address{Name: "Zoë", Email: "zoe@example.com"}
	assert.Equal(t, "=?UTF-8?q?Zo=C3=AB?= <zoe@example.com>", addr.String())
	assert.True(t, addr.Valid())
}

type stubProvider struct {
	fail map[string]bool
}

func (p *stubProvider) Send(_ context.Context, email *Email) (*SendResult, error) {
	if p.fail[email.To[0].Email] {
		return nil, errors.New("rejected")
	}
	return &SendResult{MessageID: "id-" + email.To[0].Email, Provider: p.Name()}, nil
}

func (p *stubProvider) SendBatch(ctx context.Context, emails []*Email) (*BatchResult, error) {
	return SendEach(ctx, p, emails), nil
}

func (p *stubProvider) ValidateConfig() error { return nil }

func (p *stubProvider) Name() string { return "stub" }

func TestSendEach(t *testing.T) {
	p := &stubProvider{fail: map[string]bool{"b@example.com": true}}
	emails := []*Email{
		{To: []Address{{Email: "a@example.com"}}},
		{To: []Address{{Email: "b@example.com"}}},
		{To: []Address{{Email: "c@example.com"}}},
	}

	result, err := p.SendBatch(context.Background(), emails)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, "stub", result.Provider)
	assert.Len(t, result.Successful, 2)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, 1, result.Failed[0].Index)
}

func TestSendEach_StopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &stubProvider{}
	result := SendEach(ctx, p, []*Email{
		{To: []Address{{Email: "a@example.com"}}},
		{To: []Address{{Email: "b@example.com"}}},
	})

	assert.Empty(t, result.Successful)
	require.Len(t, result.Failed, 2)
	assert.ErrorIs(t, result.Failed[0].Error, context.Canceled)
}

func TestProviderSettings(t *testing.T) {
	s := ProviderSettings{}
	s.Set("region", "eu-west-1")
	assert.Equal(t, "eu-west-1", s.Get("region"))
	assert.Empty(t, s.Get("missing"))
}
