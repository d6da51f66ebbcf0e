package collector

import (
	"errors"
	"sync"
)

// KeyPool hands out API keys round-robin. The cursor is the only state
// shared with worker goroutines, so the critical section is just the
// read-and-advance.
type KeyPool struct {
	mu   sync.Mutex
	keys []string
	next int
}

// NewKeyPool builds a pool from the configured keys, dropping blanks.
func NewKeyPool(keys []string) (*KeyPool, error) {
	var clean []string
	for _, k := range keys {
		if k != "" {
			clean = append(clean, k)
		}
	}
	if len(clean) == 0 {
		return nil, errors.New("no API keys provided")
	}
	return &KeyPool{keys: clean}, nil
}

// Next returns the next key in round-robin order, advancing the cursor.
func (p *KeyPool) Next() string {
	p.mu.Lock()
	key := p.keys[p.next]
	p.next = (p.next + 1) % len(p.keys)
	p.mu.Unlock()
	return key
}

// Size reports the number of keys in the pool.
func (p *KeyPool) Size() int {
	return len(p.keys)
}
