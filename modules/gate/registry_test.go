package gate_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/modules/gate"
)

func TestRegistryCreateDuplicate(t *testing.T) {
	t.Parallel()
	r := gate.NewRegistry()

	require.NoError(t, r.Create(gate.NewChallenge(1, 2, "alice", 7)))
	err := r.Create(gate.NewChallenge(1, 2, "alice", 9))
	assert.ErrorIs(t, err, gate.ErrAlreadyPending)

	// Same member in a different chat is a separate challenge.
	require.NoError(t, r.Create(gate.NewChallenge(3, 2, "alice", 7)))
	assert.Equal(t, 2, r.Len())
}

func TestRegistryGetRemove(t *testing.T) {
	t.Parallel()
	r := gate.NewRegistry()
	key := gate.Key{ChatID: 1, UserID: 2}

	_, err := r.Get(key)
	assert.ErrorIs(t, err, gate.ErrNotFound)

	require.NoError(t, r.Create(gate.NewChallenge(1, 2, "alice", 7)))

	c, err := r.Get(key)
	require.NoError(t, err)
	assert.Equal(t, 7, c.Answer)

	removed, err := r.Remove(key)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed.UserID)

	_, err = r.Remove(key)
	assert.ErrorIs(t, err, gate.ErrNotFound)
}

func TestRegistryUpdate(t *testing.T) {
	t.Parallel()
	r := gate.NewRegistry()
	key := gate.Key{ChatID: 1, UserID: 2}

	_, _, err := r.Update(key, func(c *gate.Challenge) bool { return false })
	assert.ErrorIs(t, err, gate.ErrNotFound)

	require.NoError(t, r.Create(gate.NewChallenge(1, 2, "alice", 7)))

	c, removed, err := r.Update(key, func(c *gate.Challenge) bool {
		c.Attempts++
		return false
	})
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, 1, c.Attempts)

	c, removed, err = r.Update(key, func(c *gate.Challenge) bool {
		c.Attempts++
		return c.Attempts >= 2
	})
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, 2, c.Attempts)

	_, err = r.Get(key)
	assert.ErrorIs(t, err, gate.ErrNotFound)
}

func TestRegistryConcurrentRemoveExactlyOneWins(t *testing.T) {
	t.Parallel()
	r := gate.NewRegistry()
	key := gate.Key{ChatID: 1, UserID: 2}
	require.NoError(t, r.Create(gate.NewChallenge(1, 2, "alice", 7)))

	var wins atomic.Int32
	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Remove(key); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestRegistryRemoveAllForChat(t *testing.T) {
	t.Parallel()
	r := gate.NewRegistry()

	require.NoError(t, r.Create(gate.NewChallenge(1, 10, "a", 1)))
	require.NoError(t, r.Create(gate.NewChallenge(1, 11, "b", 2)))
	require.NoError(t, r.Create(gate.NewChallenge(2, 10, "a", 3)))

	removed := r.RemoveAllForChat(1)
	assert.Len(t, removed, 2)

	_, err := r.Get(gate.Key{ChatID: 1, UserID: 10})
	assert.ErrorIs(t, err, gate.ErrNotFound)
	_, err = r.Get(gate.Key{ChatID: 2, UserID: 10})
	assert.NoError(t, err, "other chats must be untouched")

	assert.Empty(t, r.RemoveAllForChat(1))
}
