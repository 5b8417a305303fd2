package engine

import (
	"context"
	"math"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoff_StaysWithinJitterBounds(t *testing.T) {
	t.Parallel()

	base := 100 * time.Millisecond
	for k := 0; k < 8; k++ {
		nominal := float64(base) * math.Pow(4, float64(k))
		low := time.Duration(math.Round(math.Min(nominal*0.8, float64(MaxBackoff))))
		high := time.Duration(math.Round(math.Min(nominal*1.2, float64(MaxBackoff))))

		for i := 0; i < 200; i++ {
			d := Backoff(base, k, randomJitter())
			assert.GreaterOrEqual(t, d, low, "retryCount=%d", k)
			assert.LessOrEqual(t, d, high, "retryCount=%d", k)
		}
	}
}

func TestBackoff_Extremes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 80*time.Millisecond, Backoff(100*time.Millisecond, 0, 0.8))
	assert.Equal(t, 480*time.Millisecond, Backoff(100*time.Millisecond, 1, 1.2))
	assert.Equal(t, MaxBackoff, Backoff(100*time.Millisecond, 5, 1.0))
	assert.Equal(t, MaxBackoff, Backoff(time.Second, 1000, 1.0))
}

func TestRandomJitter_Range(t *testing.T) {
	t.Parallel()

	for i := 0; i < 1000; i++ {
		j := randomJitter()
		require.GreaterOrEqual(t, j, 0.8)
		require.LessOrEqual(t, j, 1.2)
	}
}

func TestSleepContext_ReturnsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	start := time.Now()
	err := sleepContext(ctx, time.Hour)

	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestBuildURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		base    string
		version string
		path    string
		params  map[string]any
		want    string
	}{
		{
			name:    "leading slash",
			base:    "https://api.smashsend.com",
			version: "v1",
			path:    "/contacts",
			want:    "https://api.smashsend.com/v1/contacts",
		},
		{
			name:    "no leading slash and trailing base slash",
			base:    "https://api.smashsend.com/",
			version: "v2",
			path:    "contacts/c1",
			want:    "https://api.smashsend.com/v2/contacts/c1",
		},
		{
			name:    "params merge with existing query",
			base:    "https://api.smashsend.com",
			version: "v1",
			path:    "contacts/search?email=a%40b.co",
			params:  map[string]any{"limit": 5},
			want:    "https://api.smashsend.com/v1/contacts/search?email=a%40b.co&limit=5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := buildURL(tt.base, tt.version, tt.path, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAppendParam_TimeUsesMillisecondUTC(t *testing.T) {
	t.Parallel()

	q := url.Values{}
	ts := time.Date(2025, 3, 4, 5, 6, 7, 890_000_000, time.FixedZone("X", 3600))
	appendParam(q, "startAt", ts)
	appendParam(q, "skipped", (*time.Time)(nil))

	assert.Equal(t, "2025-03-04T04:06:07.890Z", q.Get("startAt"))
	assert.NotContains(t, q, "skipped")
}

func TestRedact(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Bearer ****7890", redact("Bearer sk_test_1234567890"))
	assert.Equal(t, "Bearer ****", redact("Bearer abc"))
	assert.Equal(t, "****", redact("garbage"))
}
