package smashsend_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	smashsend "github.com/smashsend/smashsend-go"
)

const testAPIKey = "sk_test_1234567890"

type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   map[string]any
	Raw    []byte
}

// fakeAPI answers every request with a fixed response and records it.
type fakeAPI struct {
	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
	server   *httptest.Server
}

func newFakeAPI(t *testing.T, status int, body string) *fakeAPI {
	t.Helper()

	f := &fakeAPI{status: status, body: body}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		rec := recordedRequest{
			Method: r.Method,
			Path:   r.URL.EscapedPath(),
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Raw:    raw,
		}
		if len(raw) > 0 {
			_ = json.Unmarshal(raw, &rec.Body)
		}

		f.mu.Lock()
		f.requests = append(f.requests, rec)
		status, body := f.status, f.body
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Request-Id", "req_test")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(f.server.Close)

	return f
}

func (f *fakeAPI) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeAPI) last(t *testing.T) recordedRequest {
	t.Helper()

	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests, "no request reached the server")
	return f.requests[len(f.requests)-1]
}

func newTestClient(t *testing.T, baseURL string, opts ...smashsend.Option) *smashsend.Client {
	t.Helper()

	all := append([]smashsend.Option{
		smashsend.WithBaseURL(baseURL),
		smashsend.WithRetryDelay(time.Millisecond),
		smashsend.WithTimeout(2 * time.Second),
		smashsend.WithLogger(zerolog.Nop()),
	}, opts...)

	client, err := smashsend.New(testAPIKey, all...)
	require.NoError(t, err)
	return client
}

func TestNew_RejectsEmptyAPIKey(t *testing.T) {
	t.Parallel()

	client, err := smashsend.New("")

	require.Error(t, err)
	assert.Nil(t, client)
	assert.ErrorIs(t, err, smashsend.ErrAuthentication)
	assert.Equal(t, smashsend.KindAuthentication, smashsend.KindOf(err))

	var apiErr *smashsend.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "api_key_required", apiErr.Code)
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	client, err := smashsend.New(testAPIKey)
	require.NoError(t, err)

	cfg := client.Config()
	assert.Equal(t, "https://api.smashsend.com", cfg.BaseURL)
	assert.Equal(t, "v1", cfg.APIVersion)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Nil(t, client.Relay())
}

func TestNew_InvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opt  smashsend.Option
	}{
		{name: "bad base url", opt: smashsend.WithBaseURL("not a url")},
		{name: "negative retries", opt: smashsend.WithMaxRetries(-1)},
		{name: "zero timeout", opt: smashsend.WithTimeout(0)},
		{name: "zero rate", opt: smashsend.WithRateLimit(0, 1)},
		{name: "unknown log level", opt: smashsend.WithLogging("loud", "json")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := smashsend.New(testAPIKey, tt.opt)

			require.Error(t, err)
			assert.ErrorIs(t, err, smashsend.ErrClient)

			var ve *smashsend.ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
}

func TestNew_AcceptsLargeRetryBudget(t *testing.T) {
	t.Parallel()

	client, err := smashsend.New(testAPIKey, smashsend.WithMaxRetries(25))
	require.NoError(t, err)
	assert.Equal(t, 25, client.Config().MaxRetries)
}

func TestNew_InvalidFallbackSettings(t *testing.T) {
	t.Parallel()

	_, err := smashsend.New(testAPIKey, smashsend.WithSendGridFallback(""))
	require.Error(t, err)

	var ve *smashsend.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "api_key", ve.Field)
}

func TestNew_BuildsFallbackRelay(t *testing.T) {
	t.Parallel()

	client, err := smashsend.New(testAPIKey,
		smashsend.WithSMTPFallback("localhost", "2525", "", ""),
		smashsend.WithLogger(zerolog.Nop()),
	)
	require.NoError(t, err)
	require.NotNil(t, client.Relay())
	assert.Equal(t, "smtp", client.Relay().Name())
}

func TestClient_SettersChainAndApplyToLaterCalls(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t, http.StatusOK, `{"ok":true}`)
	client := newTestClient(t, api.server.URL)

	same := client.
		SetHeader("X-Team", "growth").
		SetHeaders(map[string]string{"X-Trace": "abc"}).
		SetAPIVersion("v2").
		SetDebugMode(false)
	assert.Same(t, client, same)

	_, err := client.Get(context.Background(), "/ping")
	require.NoError(t, err)

	req := api.last(t)
	assert.Equal(t, "/v2/ping", req.Path)
	assert.Equal(t, "growth", req.Header.Get("X-Team"))
	assert.Equal(t, "abc", req.Header.Get("X-Trace"))
	assert.Equal(t, "Bearer "+testAPIKey, req.Header.Get("Authorization"))
	assert.Contains(t, req.Header.Get("User-Agent"), "smashsend-go/")

	cfg := client.Config()
	assert.Equal(t, "v2", cfg.APIVersion)
	assert.Equal(t, "growth", cfg.Headers["X-Team"])
}

func TestClient_RequestPassesOptionsThrough(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t, http.StatusOK, `{"id":"x"}`)
	client := newTestClient(t, api.server.URL)

	resp, err := client.Request(context.Background(), http.MethodPost, "/custom", map[string]any{"a": 1},
		smashsend.RequestHeader("X-Idempotency-Key", "k1"),
		smashsend.RequestParam("dryRun", true),
	)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "req_test", resp.RequestID)

	req := api.last(t)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "k1", req.Header.Get("X-Idempotency-Key"))
	assert.Equal(t, "true", req.Query.Get("dryRun"))
	assert.JSONEq(t, `{"a":1}`, string(req.Raw))
}

func TestClient_RateLimitedAfterRetries(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t, http.StatusTooManyRequests, `{"message":"slow down"}`)
	client := newTestClient(t, api.server.URL, smashsend.WithMaxRetries(2))

	_, err := client.Get(context.Background(), "/contacts")

	require.Error(t, err)
	assert.ErrorIs(t, err, smashsend.ErrRateLimit)
	assert.Equal(t, 3, api.count())
	assert.Equal(t, "req_test", smashsend.RequestIDOf(err))
}

func TestClient_ServerErrorsAreAPIErrors(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t, http.StatusBadRequest, `{"message":"bad email","code":"invalid_email"}`)
	client := newTestClient(t, api.server.URL)

	_, err := client.Post(context.Background(), "/contacts", map[string]any{})

	var apiErr *smashsend.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, smashsend.KindAPI, apiErr.Kind)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "invalid_email", apiErr.Code)
	assert.Equal(t, "bad email", apiErr.Message)
	assert.False(t, smashsend.IsRetryable(err))
	assert.Equal(t, 1, api.count())
}

func TestClient_DebugModeLogsThroughConfiguredLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	api := newFakeAPI(t, http.StatusOK, `{"ok":true}`)
	client := newTestClient(t, api.server.URL, smashsend.WithLogger(zerolog.New(&buf)))

	_, err := client.Get(context.Background(), "/quiet")
	require.NoError(t, err)
	assert.Empty(t, buf.String())

	client.SetDebugMode(true)
	_, err = client.Get(context.Background(), "/loud")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "/v1/loud")
	assert.NotContains(t, out, testAPIKey)
}

func TestClient_DebugModeEnabledLaterOnWarnLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	api := newFakeAPI(t, http.StatusOK, `{"ok":true}`)
	client := newTestClient(t, api.server.URL, smashsend.WithLogger(zerolog.New(&buf).Level(zerolog.WarnLevel)))

	client.SetDebugMode(true)
	_, err := client.Get(context.Background(), "/contacts")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "/v1/contacts")
}

func TestClient_CanceledContext(t *testing.T) {
	t.Parallel()

	api := newFakeAPI(t, http.StatusOK, `{}`)
	client := newTestClient(t, api.server.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Get(ctx, "/contacts")
	require.Error(t, err)
	assert.True(t, errors.Is(err, smashsend.ErrClient) || errors.Is(err, context.Canceled))
}
