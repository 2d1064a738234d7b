// internal/game/room_store.go
package game

import (
	"sync"
)

// RoomStore is the process-wide registry of live rooms. Its lock only guards
// the map itself, never a room's state, so a slow room cannot stall creation
// or teardown elsewhere.
type RoomStore struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[string]*Room),
	}
}

// GetOrCreate returns the room for id, creating it atomically on first
// reference. Exactly one Room instance exists per id at any time.
func (s *RoomStore) GetOrCreate(id string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[id]; ok {
		return r
	}
	r := NewRoom(id)
	s.rooms[id] = r
	return r
}

// Get returns the room for id if it exists.
func (s *RoomStore) Get(id string) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	return r, ok
}

// Delete removes the room for id.
func (s *RoomStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, id)
}

// DeleteIfEmpty removes the room for id only when every seat is disconnected.
// The check and the removal happen under both the store lock and the room
// lock, so a join that seated a player between a caller's own emptiness check
// and this call keeps the room alive. Reports whether the room was removed.
func (s *RoomStore) DeleteIfEmpty(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return false
	}
	r.Mu.Lock()
	defer r.Mu.Unlock()
	if !r.AllDisconnected() {
		return false
	}
	delete(s.rooms, id)
	return true
}

// Rooms returns a snapshot of all live rooms, for the disconnect sweep.
func (s *RoomStore) Rooms() []*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	return out
}

// Len returns the number of live rooms.
func (s *RoomStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}
