package gemini

import (
	"errors"
	"sync"

	"github.com/spigell/hh-analyst/internal/secrets"
)

// KeyRing hands out API keys round-robin. It is safe for concurrent use.
type KeyRing struct {
	mu   sync.Mutex
	keys []secrets.Key
	next int
}

func NewKeyRing(keys []secrets.Key) (*KeyRing, error) {
	if len(keys) == 0 {
		return nil, errors.New("at least one gemini api key is required")
	}
	return &KeyRing{keys: append([]secrets.Key(nil), keys...)}, nil
}

// Next returns the index and the key to use for the next call.
func (r *KeyRing) Next() (int, secrets.Key) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.next
	r.next = (r.next + 1) % len(r.keys)
	return i, r.keys[i]
}

func (r *KeyRing) Len() int {
	return len(r.keys)
}

func (r *KeyRing) Keys() []secrets.Key {
	return append([]secrets.Key(nil), r.keys...)
}
