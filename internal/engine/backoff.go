package engine

import (
	"context"
	"crypto/rand"
	"math"
	"math/big"
	"time"
)

// MaxBackoff caps every computed delay.
const MaxBackoff = 30 * time.Second

const (
	jitterMin   = 0.8
	jitterMax   = 1.2
	jitterSpan  = jitterMax - jitterMin
	jitterSteps = 1 << 53
)

// Backoff returns base * 4^retryCount * jitter, capped at MaxBackoff.
func Backoff(base time.Duration, retryCount int, jitter float64) time.Duration {
	delay := float64(base) * math.Pow(4, float64(retryCount)) * jitter
	if delay > float64(MaxBackoff) || math.IsInf(delay, 1) {
		return MaxBackoff
	}
	if delay < 0 {
		return 0
	}
	return time.Duration(math.Round(delay))
}

// randomJitter returns a uniform factor in [0.8, 1.2].
func randomJitter() float64 {
	n, err := rand.Int(rand.Reader, big.NewInt(jitterSteps))
	if err != nil {
		return 1
	}
	return math.Min(jitterMin+jitterSpan*float64(n.Int64())/float64(jitterSteps-1), jitterMax)
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
