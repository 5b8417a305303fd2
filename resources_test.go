package smashsend_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	smashsend "github.com/smashsend/smashsend-go"
)

func TestWebhooks_CRUD(t *testing.T) {
	t.Parallel()

	const hook = `{"id":"wh_1","url":"https://example.com/hook","events":["EMAIL_OPENED"],"enabled":true}`
	api := newFakeAPI(t, http.StatusOK, hook)
	client := newTestClient(t, api.server.URL)
	ctx := context.Background()

	created, err := client.Webhooks.Create(ctx, smashsend.WebhookOptions{
		URL:     "https://example.com/hook",
		Events:  []smashsend.WebhookEvent{smashsend.WebhookEventEmailOpened},
		Enabled: smashsend.Bool(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "wh_1", created.ID)
	req := api.last(t)
	assert.Equal(t, "/v1/webhooks", req.Path)
	assert.Equal(t, true, req.Body["enabled"])

	_, err = client.Webhooks.Update(ctx, "wh_1", smashsend.WebhookUpdateOptions{Description: "opens"})
	require.NoError(t, err)
	req = api.last(t)
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.JSONEq(t, `{"description":"opens"}`, string(req.Raw))

	for action, call := range map[string]func(context.Context, string) (*smashsend.Webhook, error){
		"enable":        client.Webhooks.Enable,
		"disable":       client.Webhooks.Disable,
		"rotate-secret": client.Webhooks.RotateSecret,
	} {
		_, err := call(ctx, "wh_1")
		require.NoError(t, err)
		req := api.last(t)
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "/v1/webhooks/wh_1/"+action, req.Path)
	}

	_, err = client.Webhooks.Create(ctx, smashsend.WebhookOptions{URL: "nope"})
	assert.ErrorIs(t, err, smashsend.ErrClient)
}

func TestWebhooks_List(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t, http.StatusOK, `{"data":[{"id":"wh_1"}],"total":1,"limit":20,"offset":0}`)
	client := newTestClient(t, api.server.URL)

	list, err := client.Webhooks.List(context.Background(), &smashsend.ListWebhooksOptions{
		Limit:   20,
		Enabled: smashsend.Bool(false),
		Event:   smashsend.WebhookEventEmailBounced,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)
	require.Len(t, list.Data, 1)

	q := api.last(t).Query
	assert.Equal(t, "20", q.Get("limit"))
	assert.Equal(t, "false", q.Get("enabled"))
	assert.Equal(t, "EMAIL_BOUNCED", q.Get("event"))
	assert.False(t, q.Has("offset"))
}

func TestAPIKeys_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		body  string
		valid bool
	}{
		{name: "succeeded", body: `{"status":"SUCCEED","workspaceId":"ws_1"}`, valid: true},
		{name: "failed", body: `{"status":"FAILED","message":"revoked"}`, valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			api := newFakeAPI(t, http.StatusOK, tt.body)
			client := newTestClient(t, api.server.URL)

			result, err := client.APIKeys.Validate(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.valid, result.Valid)
			assert.Equal(t, "/v1/api-keys/check", api.last(t).Path)
		})
	}
}

func TestAPIKeys_WorkspaceScopedCalls(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t, http.StatusOK, `{"apiKeys":{"items":[{"id":"key_1","name":"ci"}],"hasMore":false}}`)
	client := newTestClient(t, api.server.URL)
	ctx := context.Background()

	list, err := client.APIKeys.List(ctx, "ws_1", &smashsend.ListAPIKeysOptions{
		StartAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Limit:   10,
	})
	require.NoError(t, err)
	require.Len(t, list.APIKeys.Items, 1)
	req := api.last(t)
	assert.Equal(t, "/v1/workspaces/ws_1/api-keys", req.Path)
	assert.Equal(t, "2025-03-01T00:00:00.000Z", req.Query.Get("startAt"))

	api.mu.Lock()
	api.body = `{"apiKey":{"id":"key_2","name":"deploy","token":"sk_live_x"}}`
	api.mu.Unlock()

	created, err := client.APIKeys.Create(ctx, "ws_1", smashsend.APIKeyOptions{Name: "deploy", Role: smashsend.APIKeyRoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, "sk_live_x", created.APIKey.Token)

	_, err = client.APIKeys.Update(ctx, "ws_1", "key_2", smashsend.APIKeyUpdateOptions{Status: smashsend.APIKeyStatusRevoked})
	require.NoError(t, err)
	req = api.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/v1/workspaces/ws_1/api-keys/key_2", req.Path)

	_, err = client.APIKeys.Delete(ctx, "ws_1", "")
	assert.ErrorIs(t, err, smashsend.ErrClient)

	_, err = client.APIKeys.Create(ctx, "ws_1", smashsend.APIKeyOptions{})
	assert.ErrorIs(t, err, smashsend.ErrClient)
}

func TestDomains_VerifiedIdentities(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t, http.StatusOK, `{"identities":{"emails":["hi@example.com"],"domains":["example.com"]}}`)
	client := newTestClient(t, api.server.URL)

	ids, err := client.Domains.VerifiedIdentities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"example.com"}, ids.Domains)
	assert.Equal(t, []string{"hi@example.com"}, ids.Emails)

	api.mu.Lock()
	api.body = `{}`
	api.mu.Unlock()

	ids, err = client.Domains.VerifiedIdentities(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids.Domains)
}

func TestEvents_SendAndBatch(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t, http.StatusOK, `{"success":true,"messageId":"msg_1"}`)
	client := newTestClient(t, api.server.URL)
	ctx := context.Background()

	resp, err := client.Events.Send(ctx, smashsend.Event{
		Event:    "user.signup",
		Identify: smashsend.Identify{Email: "ada@example.com"},
	}, &smashsend.EventOptions{Headers: map[string]string{"X-Source": "tests"}})
	require.NoError(t, err)
	assert.Equal(t, "msg_1", resp.MessageID)

	req := api.last(t)
	assert.Equal(t, "/v1/events", req.Path)
	assert.Equal(t, "tests", req.Header.Get("X-Source"))
	assert.NotContains(t, req.Body, "timestamp")

	_, err = client.Events.Send(ctx, smashsend.Event{Event: "x", Identify: smashsend.Identify{Email: "bad"}}, nil)
	assert.ErrorIs(t, err, smashsend.ErrClient)

	api.mu.Lock()
	api.body = `{"accepted":2,"failed":0,"duplicated":0}`
	api.mu.Unlock()

	batch, err := client.Events.SendBatch(ctx, []smashsend.Event{
		{Event: "a", Identify: smashsend.Identify{Email: "a@example.com"}},
		{Event: "b", Identify: smashsend.Identify{Email: "b@example.com"}, Timestamp: time.Unix(0, 0)},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, batch.Accepted)
	assert.Equal(t, "/v1/events/batch", api.last(t).Path)

	_, err = client.Events.SendBatch(ctx, nil, nil)
	assert.ErrorIs(t, err, smashsend.ErrClient)
}

func TestTransactional_GetAndList(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t, http.StatusOK, `{"transactional":{"id":"tx_1","title":"Welcome","status":"DRAFT","variables":["name"]}}`)
	client := newTestClient(t, api.server.URL)

	tx, err := client.Transactional.Get(context.Background(), "tx_1")
	require.NoError(t, err)
	assert.Equal(t, smashsend.TransactionalStatusDraft, tx.Status)
	assert.Equal(t, []string{"name"}, tx.Variables)

	api.mu.Lock()
	api.body = `{"transactional":null}`
	api.mu.Unlock()

	list, err := client.Transactional.List(context.Background(), &smashsend.ListTransactionalOptions{Status: smashsend.TransactionalStatusActive})
	require.NoError(t, err)
	assert.Empty(t, list.Items)
	assert.Equal(t, "ACTIVE", api.last(t).Query.Get("status"))
}
