package gate

import (
	"errors"
	"sync"
)

var (
	// ErrAlreadyPending is returned when a member already has an
	// unresolved challenge in the chat.
	ErrAlreadyPending = errors.New("challenge already pending")
	// ErrNotFound is returned when no challenge exists for the key.
	// In a remove race, exactly one caller gets the challenge and
	// everyone else gets ErrNotFound.
	ErrNotFound = errors.New("challenge not found")
)

// Registry is the single source of truth for pending challenges. Every
// mutation happens under one lock; whoever removes an entry owns its
// terminal side effect.
type Registry struct {
	mu      sync.Mutex
	pending map[Key]*Challenge
}

func NewRegistry() *Registry {
	return &Registry{pending: make(map[Key]*Challenge)}
}

func (r *Registry) Create(c *Challenge) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.pending[c.key()]; ok {
		return ErrAlreadyPending
	}
	r.pending[c.key()] = c
	return nil
}

// Get returns a snapshot of the challenge.
func (r *Registry) Get(key Key) (Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.pending[key]
	if !ok {
		return Challenge{}, ErrNotFound
	}
	return *c, nil
}

// Update applies mutate to the stored challenge under the registry
// lock. If mutate returns true the entry is removed in the same
// critical section, so "increment attempts and evict at the limit" is
// a single atomic step. The returned snapshot reflects the mutation.
func (r *Registry) Update(key Key, mutate func(*Challenge) bool) (Challenge, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.pending[key]
	if !ok {
		return Challenge{}, false, ErrNotFound
	}

	removed := mutate(c)
	if removed {
		delete(r.pending, key)
	}
	return *c, removed, nil
}

// Remove atomically removes and returns the challenge. The caller that
// gets a challenge back (rather than ErrNotFound) is the one allowed
// to perform the terminal side effect.
func (r *Registry) Remove(key Key) (Challenge, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.pending[key]
	if !ok {
		return Challenge{}, ErrNotFound
	}
	delete(r.pending, key)
	return *c, nil
}

// RemoveAllForChat purges every pending challenge in the chat and
// returns the removed entries so their timers can be cancelled.
func (r *Registry) RemoveAllForChat(chatID int64) []Challenge {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []Challenge
	for key, c := range r.pending {
		if key.ChatID == chatID {
			removed = append(removed, *c)
			delete(r.pending, key)
		}
	}
	return removed
}

// Len reports the number of pending challenges.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
