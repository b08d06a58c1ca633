package keypool

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNoKeys is returned by New when no credentials are configured.
var ErrNoKeys = errors.New("keypool: no API keys configured")

// Pool tracks which API keys have hit their quota in the current process.
// Keys are tried in configuration order; a key marked exhausted stays
// exhausted until the process restarts (there is no calendar-based reset,
// so a restarted process retries all keys optimistically).
type Pool struct {
	mu        sync.Mutex
	keys      []string
	exhausted map[string]struct{}
}

// New creates a pool from an ordered list of API keys. The order is the
// priority order: the first key is used until it exhausts, then the second,
// and so on.
func New(keys []string) (*Pool, error) {
	if len(keys) == 0 {
		return nil, ErrNoKeys
	}
	p := &Pool{
		keys:      make([]string, len(keys)),
		exhausted: make(map[string]struct{}),
	}
	copy(p.keys, keys)
	return p, nil
}

// CurrentKey returns the first key in configuration order that has not been
// marked exhausted, or ("", false) if every key is exhausted.
func (p *Pool) CurrentKey() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentLocked()
}

func (p *Pool) currentLocked() (string, bool) {
	for _, k := range p.keys {
		if _, ok := p.exhausted[k]; !ok {
			return k, true
		}
	}
	return "", false
}

// HasAvailable reports whether any key is still usable. It takes the same
// lock as CurrentKey, so the two observe a consistent snapshot, but a key
// may still exhaust between a HasAvailable/CurrentKey pair; callers that
// need both should rely on CurrentKey's ok result alone.
func (p *Pool) HasAvailable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.currentLocked()
	return ok
}

// MarkExhausted records that key has hit its quota. Marking a key twice is
// a no-op, as is marking a key the pool does not know about.
func (p *Pool) MarkExhausted(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, k := range p.keys {
		if k == key {
			p.exhausted[key] = struct{}{}
			return
		}
	}
}

// TotalCount returns the number of configured keys.
func (p *Pool) TotalCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys)
}

// AvailableCount returns the number of keys not yet exhausted.
func (p *Pool) AvailableCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys) - len(p.exhausted)
}

// Status returns a human-readable availability summary for logging.
func (p *Pool) Status() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fmt.Sprintf("%d/%d key(s) available", len(p.keys)-len(p.exhausted), len(p.keys))
}
