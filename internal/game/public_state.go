// internal/game/public_state.go
package game

import (
	"github.com/tkhuang/uno/internal/models"
)

// PublicPlayer is the broadcastable view of one seat: hand size only, never
// hand contents.
type PublicPlayer struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	HandSize      int    `json:"handSize"`
	Score         int    `json:"score"`
	SaidUno       bool   `json:"saidUno"`
	Connected     bool   `json:"connected"`
	IsCurrentTurn bool   `json:"isCurrentTurn"`
}

// PublicState is the canonical projection of a room that is safe to send to
// every member.
type PublicState struct {
	RoomID          string         `json:"roomId"`
	Started         bool           `json:"started"`
	Players         []PublicPlayer `json:"players"`
	DiscardTop      *models.Card   `json:"discardTop,omitempty"`
	CurrentColor    models.Color   `json:"currentColor,omitempty"`
	CurrentValue    models.Value   `json:"currentValue,omitempty"`
	CurrentPlayerID string         `json:"currentPlayerId,omitempty"`
	Direction       int            `json:"direction"`
	AccumulatedDraw int            `json:"accumulatedDraw"`
	DrawPileSize    int            `json:"drawPileSize"`
	DiscardSize     int            `json:"discardSize"`
	Rules           models.Rules   `json:"rules"`
}

// PublicState builds the snapshot. Take it while still holding the room lock
// so a broadcast always sees a consistent state.
func (r *Room) PublicState() PublicState {
	st := PublicState{
		RoomID:          r.ID,
		Started:         r.Started,
		CurrentColor:    r.CurrentColor,
		CurrentValue:    r.CurrentValue,
		Direction:       r.Direction,
		AccumulatedDraw: r.AccumulatedDraw,
		DrawPileSize:    len(r.DrawPile),
		DiscardSize:     len(r.DiscardPile),
		Rules:           r.Rules,
		Players:         make([]PublicPlayer, 0, len(r.Players)),
	}
	if len(r.DiscardPile) > 0 {
		top := r.DiscardPile[len(r.DiscardPile)-1]
		st.DiscardTop = &top
	}
	if cur := r.currentPlayer(); cur != nil {
		st.CurrentPlayerID = cur.ID
	}
	for i, p := range r.Players {
		st.Players = append(st.Players, PublicPlayer{
			ID:            p.ID,
			Name:          p.Name,
			HandSize:      len(p.Hand),
			Score:         p.Score,
			SaidUno:       p.SaidUno,
			Connected:     p.Connected,
			IsCurrentTurn: i == r.CurrentPlayerIndex,
		})
	}
	return st
}
