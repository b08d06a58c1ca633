package keypool

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

// Call performs one attempt of a remote operation using the given API key.
// Implementations classify the response: a spent quota must come back as a
// *QuotaError, other upstream failures as *UpstreamError, and connectivity
// failures as *TransportError.
type Call[T any] func(ctx context.Context, key string) (T, error)

// Execute runs call against pool-selected keys, rotating to the next key
// whenever the current one reports a spent quota. Keys are tried in their
// configured order and a key is never revisited within the process. Any
// non-quota error stops the rotation and is returned unchanged.
//
// Execute holds no state of its own; it is safe to invoke from any number
// of goroutines sharing one pool.
func Execute[T any](ctx context.Context, pool *Pool, call Call[T]) (T, error) {
	var zero T

	for {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		key, ok := pool.CurrentKey()
		if !ok {
			break
		}

		result, err := call(ctx, key)
		if err == nil {
			return result, nil
		}

		var quota *QuotaError
		if errors.As(err, &quota) {
			pool.MarkExhausted(key)
			log.Warn().
				Str("pool", pool.Status()).
				Msg("API key quota exhausted, rotating to next key")
			continue
		}

		return zero, err
	}

	return zero, &AllKeysExhaustedError{Total: pool.TotalCount()}
}
