package keypool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteReturnsSuccessOnFirstKey(t *testing.T) {
	p, err := New([]string{"k1", "k2"})
	require.NoError(t, err)

	attempts := 0
	result, err := Execute(context.Background(), p, func(ctx context.Context, key string) (string, error) {
		attempts++
		assert.Equal(t, "k1", key)
		return "payload", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "payload", result)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 2, p.AvailableCount())
}

func TestExecuteRotatesPastExhaustedKeys(t *testing.T) {
	p, err := New([]string{"k1", "k2", "k3"})
	require.NoError(t, err)

	var used []string
	result, err := Execute(context.Background(), p, func(ctx context.Context, key string) (int, error) {
		used = append(used, key)
		if key == "k3" {
			return 42, nil
		}
		return 0, &QuotaError{Key: key, Message: "daily points limit reached"}
	})

	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.Equal(t, []string{"k1", "k2", "k3"}, used)
	assert.Equal(t, 1, p.AvailableCount())

	key, ok := p.CurrentKey()
	require.True(t, ok)
	assert.Equal(t, "k3", key)
}

func TestExecuteAllKeysExhausted(t *testing.T) {
	p, err := New([]string{"k1", "k2", "k3"})
	require.NoError(t, err)

	attempts := 0
	_, err = Execute(context.Background(), p, func(ctx context.Context, key string) (string, error) {
		attempts++
		return "", &QuotaError{Key: key, Message: "daily points limit reached"}
	})

	var exhausted *AllKeysExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Total)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, 0, p.AvailableCount())
	assert.Contains(t, err.Error(), "all 3 API key(s)")
}

func TestExecuteDoesNotRetryUpstreamErrors(t *testing.T) {
	p, err := New([]string{"k1", "k2"})
	require.NoError(t, err)

	attempts := 0
	_, err = Execute(context.Background(), p, func(ctx context.Context, key string) (string, error) {
		attempts++
		return "", &UpstreamError{StatusCode: 404, Message: "recipe not found"}
	})

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, 404, upstream.StatusCode)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 2, p.AvailableCount())
}

func TestExecuteDoesNotRetryTransportErrors(t *testing.T) {
	p, err := New([]string{"k1", "k2"})
	require.NoError(t, err)

	cause := errors.New("connection refused")
	attempts := 0
	_, err = Execute(context.Background(), p, func(ctx context.Context, key string) (string, error) {
		attempts++
		return "", &TransportError{Err: cause}
	})

	var transport *TransportError
	require.ErrorAs(t, err, &transport)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 2, p.AvailableCount())
}

func TestExecuteStopsOnCancelledContext(t *testing.T) {
	p, err := New([]string{"k1"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = Execute(ctx, p, func(ctx context.Context, key string) (string, error) {
		t.Fatal("call must not run after cancellation")
		return "", nil
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecuteConcurrentCallsSharingOneKey(t *testing.T) {
	p, err := New([]string{"k1"})
	require.NoError(t, err)

	const callers = 8
	var marks atomic.Int64

	var wg sync.WaitGroup
	wg.Add(callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = Execute(context.Background(), p, func(ctx context.Context, key string) (string, error) {
				marks.Add(1)
				return "", &QuotaError{Key: key, Message: "daily points limit reached"}
			})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		var exhausted *AllKeysExhaustedError
		require.ErrorAs(t, err, &exhausted)
		assert.Equal(t, 1, exhausted.Total)
	}

	// Each caller attempts at most once before the key disappears from the
	// pool; the pool itself records a single exhaustion regardless of how
	// many callers reported it.
	assert.Equal(t, 0, p.AvailableCount())
	assert.LessOrEqual(t, marks.Load(), int64(callers))
	assert.GreaterOrEqual(t, marks.Load(), int64(1))
}
