// internal/relay/hub.go
package relay

import (
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"
)

// Client is one connection's presence in a relay room. Info is the opaque
// player blob supplied at join time and is echoed back in room_state
// broadcasts without interpretation.
type Client struct {
	ID   string
	Info json.RawMessage
	Out  chan []byte
}

// send pushes msg onto the client's sink without blocking.
func (c *Client) send(msg []byte) bool {
	if c.Out == nil {
		return false
	}
	select {
	case c.Out <- msg:
		return true
	default:
		return false
	}
}

// Hub is the registry for the relay-only variant: rooms of connections with
// no rules engine, pure message forwarding.
type Hub struct {
	logger *logrus.Logger
	mu     sync.Mutex
	rooms  map[string]map[string]*Client
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		logger: logger,
		rooms:  make(map[string]map[string]*Client),
	}
}

// Join adds the client to the named room, creating the room lazily, and
// broadcasts the updated room_state to every member.
func (h *Hub) Join(roomName string, c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[roomName]
	if !ok {
		room = make(map[string]*Client)
		h.rooms[roomName] = room
	}
	room[c.ID] = c
	h.broadcastRoomState(roomName, room)
	h.mu.Unlock()
}

// Forward relays raw to every member of the room except the sender. Members
// whose sink rejects the message are swept from the room.
func (h *Hub) Forward(roomName, senderID string, raw []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[roomName]
	if !ok {
		return
	}
	var dead []string
	for id, member := range room {
		if id == senderID {
			continue
		}
		if !member.send(raw) {
			dead = append(dead, id)
		}
	}
	for _, id := range dead {
		h.logger.Debugf("relay: sweeping dead member %s from room %s", id, roomName)
		delete(room, id)
	}
}

// Leave removes the client from the room, broadcasts the updated room_state
// to the remaining members, and drops the room once empty.
func (h *Hub) Leave(roomName, clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[roomName]
	if !ok {
		return
	}
	delete(room, clientID)
	if len(room) == 0 {
		delete(h.rooms, roomName)
		return
	}
	h.broadcastRoomState(roomName, room)
}

// Members returns the current member count of a room.
func (h *Hub) Members(roomName string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[roomName])
}

// broadcastRoomState sends the member list to everyone in the room.
// Assumes the hub lock is held.
func (h *Hub) broadcastRoomState(roomName string, room map[string]*Client) {
	players := make([]json.RawMessage, 0, len(room))
	for _, member := range room {
		players = append(players, member.Info)
	}
	msg, err := json.Marshal(map[string]interface{}{
		"action":  "room_state",
		"players": players,
	})
	if err != nil {
		h.logger.Errorf("relay: failed to marshal room_state for %s: %v", roomName, err)
		return
	}
	var dead []string
	for id, member := range room {
		if !member.send(msg) {
			dead = append(dead, id)
		}
	}
	for _, id := range dead {
		delete(room, id)
	}
}
