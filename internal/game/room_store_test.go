// internal/game/room_store_test.go
package game

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateReturnsSameInstance(t *testing.T) {
	s := NewRoomStore()
	r1 := s.GetOrCreate("alpha")
	r2 := s.GetOrCreate("alpha")
	assert.Same(t, r1, r2, "exactly one room instance exists per id")
	assert.Equal(t, 1, s.Len())

	r3 := s.GetOrCreate("beta")
	assert.NotSame(t, r1, r3)
	assert.Equal(t, 2, s.Len())
}

func TestGetOrCreateConcurrent(t *testing.T) {
	s := NewRoomStore()
	var wg sync.WaitGroup
	rooms := make([]*Room, 16)
	for i := range rooms {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rooms[i] = s.GetOrCreate("shared")
		}(i)
	}
	wg.Wait()
	for _, r := range rooms[1:] {
		assert.Same(t, rooms[0], r)
	}
	assert.Equal(t, 1, s.Len())
}

func TestDeleteAndGet(t *testing.T) {
	s := NewRoomStore()
	s.GetOrCreate("gone")

	r, ok := s.Get("gone")
	require.True(t, ok)
	require.NotNil(t, r)

	s.Delete("gone")
	_, ok = s.Get("gone")
	assert.False(t, ok)
	assert.Zero(t, s.Len())
}

func TestDeleteIfEmpty(t *testing.T) {
	s := NewRoomStore()
	r := s.GetOrCreate("idle")
	conn := uuid.New()
	r.Mu.Lock()
	r.Join("p1", "", conn, make(chan []byte, 1))
	r.Mu.Unlock()

	assert.False(t, s.DeleteIfEmpty("idle"), "a connected seat keeps the room")
	assert.Equal(t, 1, s.Len())

	r.Mu.Lock()
	_, ok := r.MarkDisconnected(conn)
	r.Mu.Unlock()
	require.True(t, ok)

	assert.True(t, s.DeleteIfEmpty("idle"))
	assert.Zero(t, s.Len())
	assert.False(t, s.DeleteIfEmpty("idle"), "a removed room cannot be removed twice")
}
