package resilience

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     1.5,
	}
}

func TestDoValRetriesTransient(t *testing.T) {
	calls := 0
	val, err := DoVal(context.Background(), fastRetryConfig(3), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", NewTransientError(eris.New("overloaded"), 529)
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", val)
	assert.Equal(t, 3, calls)
}

func TestDoValStopsOnPermanentError(t *testing.T) {
	calls := 0
	_, err := DoVal(context.Background(), fastRetryConfig(3), func(ctx context.Context) (int, error) {
		calls++
		return 0, eris.New("invalid request")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoValExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := DoVal(context.Background(), fastRetryConfig(2), func(ctx context.Context) (int, error) {
		calls++
		return 0, NewTransientError(eris.New("503"), 503)
	})

	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestDoValHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := DoVal(ctx, fastRetryConfig(5), func(ctx context.Context) (int, error) {
		calls++
		cancel()
		return 0, NewTransientError(eris.New("timeout"), 504)
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(NewTransientError(eris.New("429"), 429)))
	assert.True(t, IsTransient(eris.New("api error: overloaded")))
	assert.False(t, IsTransient(eris.New("invalid api key")))
	assert.False(t, IsTransient(nil))
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 529} {
		assert.True(t, IsTransientHTTPStatus(code), "code %d", code)
	}
	for _, code := range []int{200, 400, 401, 404} {
		assert.False(t, IsTransientHTTPStatus(code), "code %d", code)
	}
}

func TestBreakerOpensAndProbes(t *testing.T) {
	b := NewBreaker(2, 10*time.Millisecond)
	boom := eris.New("down")

	assert.True(t, b.Allow())
	b.Record(boom)
	assert.True(t, b.Allow())
	b.Record(boom)

	// Two consecutive failures: open.
	assert.False(t, b.Allow())

	time.Sleep(15 * time.Millisecond)
	// Probe allowed after reset window; success closes the breaker.
	assert.True(t, b.Allow())
	b.Record(nil)
	assert.True(t, b.Allow())
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, "transient", ClassifyError(NewTransientError(eris.New("x"), 503)))
	assert.Equal(t, "permanent", ClassifyError(eris.New("bad input")))
}
