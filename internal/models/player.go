// internal/models/player.go
package models

import (
	"github.com/google/uuid"
)

// Player is one seat in a room. The ID is client-supplied and stable across
// reconnects; Out is the connection's outbound sink and is replaced (not
// recreated) when the same ID rejoins.
type Player struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Hand      []Card `json:"-"`
	Score     int    `json:"score"`
	SaidUno   bool   `json:"saidUno"`
	Connected bool   `json:"connected"`

	// ConnID identifies the websocket connection currently bound to this
	// player, so a disconnect can be matched back to the right seats.
	ConnID uuid.UUID `json:"-"`

	Out chan []byte `json:"-"`
}

// Send pushes msg onto the player's sink without blocking. Delivery is
// best-effort: a full or missing channel drops the message and returns false,
// and the player is reconciled later via the disconnect path.
func (p *Player) Send(msg []byte) bool {
	if p.Out == nil {
		return false
	}
	select {
	case p.Out <- msg:
		return true
	default:
		return false
	}
}
