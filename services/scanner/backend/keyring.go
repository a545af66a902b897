package backend

import (
	"errors"
	"sync"
)

// KeyRing rotates through a set of API keys round-robin, spreading load
// across per-key quotas the way the upstream provider meters them.
type KeyRing struct {
	mu   sync.Mutex
	keys []string
	next int
}

// NewKeyRing returns a ring over the given keys.
func NewKeyRing(keys []string) (*KeyRing, error) {
	if len(keys) == 0 {
		return nil, errors.New("at least one API key is required")
	}
	ring := make([]string, len(keys))
	copy(ring, keys)
	return &KeyRing{keys: ring}, nil
}

// Next returns the next key in rotation.
func (r *KeyRing) Next() string {
	return r.keys[r.NextIndex()]
}

// NextIndex advances the rotation and returns the slot it landed on.
// Useful when a resource (such as a client) is held per key.
func (r *KeyRing) NextIndex() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.next
	r.next = (r.next + 1) % len(r.keys)
	return i
}

// Len returns the number of keys in the ring.
func (r *KeyRing) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.keys)
}
