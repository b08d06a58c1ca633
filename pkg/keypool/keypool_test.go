package keypool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsEmptyKeyList(t *testing.T) {
	_, err := New(nil)
	require.ErrorIs(t, err, ErrNoKeys)

	_, err = New([]string{})
	require.ErrorIs(t, err, ErrNoKeys)
}

func TestNewStartsWithFirstKeyAvailable(t *testing.T) {
	p, err := New([]string{"k1", "k2", "k3"})
	require.NoError(t, err)

	key, ok := p.CurrentKey()
	require.True(t, ok)
	assert.Equal(t, "k1", key)
	assert.Equal(t, 3, p.TotalCount())
	assert.Equal(t, 3, p.AvailableCount())
	assert.True(t, p.HasAvailable())
}

func TestNewCopiesKeySlice(t *testing.T) {
	keys := []string{"k1", "k2"}
	p, err := New(keys)
	require.NoError(t, err)

	keys[0] = "mutated"

	key, ok := p.CurrentKey()
	require.True(t, ok)
	assert.Equal(t, "k1", key)
}

func TestMarkExhaustedIsIdempotent(t *testing.T) {
	p, err := New([]string{"k1", "k2"})
	require.NoError(t, err)

	p.MarkExhausted("k1")
	p.MarkExhausted("k1")
	p.MarkExhausted("k1")

	assert.Equal(t, 1, p.AvailableCount())
	key, ok := p.CurrentKey()
	require.True(t, ok)
	assert.Equal(t, "k2", key)
}

func TestMarkExhaustedIgnoresUnknownKey(t *testing.T) {
	p, err := New([]string{"k1"})
	require.NoError(t, err)

	p.MarkExhausted("not-a-key")

	assert.Equal(t, 1, p.AvailableCount())
	assert.True(t, p.HasAvailable())
}

func TestCurrentKeyReturnsEarliestAvailable(t *testing.T) {
	p, err := New([]string{"k1", "k2", "k3"})
	require.NoError(t, err)

	p.MarkExhausted("k2")

	key, ok := p.CurrentKey()
	require.True(t, ok)
	assert.Equal(t, "k1", key)

	p.MarkExhausted("k1")

	key, ok = p.CurrentKey()
	require.True(t, ok)
	assert.Equal(t, "k3", key)
}

func TestExhaustionWalkVisitsEveryKeyInOrder(t *testing.T) {
	keys := []string{"k1", "k2", "k3", "k4"}
	p, err := New(keys)
	require.NoError(t, err)

	var visited []string
	for {
		key, ok := p.CurrentKey()
		if !ok {
			break
		}
		visited = append(visited, key)
		p.MarkExhausted(key)
	}

	assert.Equal(t, keys, visited)
	assert.Equal(t, 0, p.AvailableCount())
	assert.False(t, p.HasAvailable())
}

func TestStatus(t *testing.T) {
	p, err := New([]string{"k1", "k2", "k3"})
	require.NoError(t, err)

	assert.Equal(t, "3/3 key(s) available", p.Status())

	p.MarkExhausted("k1")
	assert.Equal(t, "2/3 key(s) available", p.Status())

	p.MarkExhausted("k2")
	p.MarkExhausted("k3")
	assert.Equal(t, "0/3 key(s) available", p.Status())
}

func TestConcurrentMarkExhaustedSameKey(t *testing.T) {
	p, err := New([]string{"k1", "k2"})
	require.NoError(t, err)

	const goroutines = 50
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			p.MarkExhausted("k1")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, p.AvailableCount())
	key, ok := p.CurrentKey()
	require.True(t, ok)
	assert.Equal(t, "k2", key)
}

func TestConcurrentReadsDuringMarks(t *testing.T) {
	p, err := New([]string{"k1", "k2", "k3"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(60)
	for i := 0; i < 60; i++ {
		go func(i int) {
			defer wg.Done()
			switch i % 3 {
			case 0:
				p.MarkExhausted("k1")
			case 1:
				_, _ = p.CurrentKey()
			default:
				avail := p.AvailableCount()
				assert.GreaterOrEqual(t, avail, 0)
				assert.LessOrEqual(t, avail, p.TotalCount())
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 2, p.AvailableCount())
}
