// internal/game/room.go
package game

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/tkhuang/uno/internal/models"
)

// Rule violations surfaced to the acting player. Every rejected action leaves
// room state unchanged.
var (
	ErrGameNotStarted = errors.New("game not started")
	ErrNeedTwoPlayers = errors.New("need at least two players")
	ErrInvalidPlayer  = errors.New("player not in room")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrCardNotInHand  = errors.New("card not in hand")
	ErrIllegalMove    = errors.New("illegal move")
)

// Room holds the entire authoritative state for one game session. All reads
// and mutations happen under Mu; the store that owns the room has its own
// lock, so two rooms never contend with each other.
type Room struct {
	ID   string
	Name string

	Rules models.Rules

	// Players in seating order. Seats persist for the life of the room;
	// disconnects only flip the Connected flag.
	Players []*models.Player

	DrawPile    []models.Card
	DiscardPile []models.Card

	CurrentColor       models.Color
	CurrentValue       models.Value
	CurrentPlayerIndex int
	Direction          int
	AccumulatedDraw    int
	Started            bool

	Mu sync.Mutex
}

// NewRoom builds an empty, not-yet-started room.
func NewRoom(id string) *Room {
	return &Room{
		ID:        id,
		Name:      id,
		Rules:     models.DefaultRules(),
		Direction: 1,
	}
}

// RulesUpdate is a partial rules patch; nil fields keep the current value.
type RulesUpdate struct {
	StackingPlus *bool `json:"stackingPlus,omitempty"`
	SkipChain    *bool `json:"skipChain,omitempty"`
}

// SetRules applies a partial update to the room's rule flags.
// Assumes the room lock is held.
func (r *Room) SetRules(upd RulesUpdate) {
	if upd.StackingPlus != nil {
		r.Rules.StackingPlus = *upd.StackingPlus
	}
	if upd.SkipChain != nil {
		r.Rules.SkipChain = *upd.SkipChain
	}
}

// Join seats a new player or rebinds an existing seat to a fresh connection.
// Reconnecting under the same id keeps hand and score; only the sink and the
// connection identity are replaced. Returns the seat and whether it already
// existed. Assumes the room lock is held.
func (r *Room) Join(playerID, name string, connID uuid.UUID, out chan []byte) (*models.Player, bool) {
	if p := r.getPlayerByID(playerID); p != nil {
		p.Connected = true
		p.ConnID = connID
		p.Out = out
		if name != "" {
			p.Name = name
		}
		return p, true
	}
	if name == "" {
		name = playerID
	}
	p := &models.Player{
		ID:        playerID,
		Name:      name,
		Connected: true,
		ConnID:    connID,
		Out:       out,
	}
	r.Players = append(r.Players, p)
	return p, false
}

// Start begins a round. Subsequent calls reset the room for a new round with
// a reshuffled deck and cleared hands. Assumes the room lock is held.
func (r *Room) Start() error {
	if len(r.Players) < 2 {
		return ErrNeedTwoPlayers
	}
	r.deal()
	return nil
}

// deal shuffles a fresh deck, deals 7 cards to each seat round-robin, flips a
// non-wild starting card and applies its flip effect.
// Assumes the room lock is held.
func (r *Room) deal() {
	r.DrawPile = BuildDeck()
	shuffleCards(r.DrawPile)
	r.DiscardPile = nil
	r.AccumulatedDraw = 0
	r.Direction = 1
	r.CurrentPlayerIndex = 0

	for _, p := range r.Players {
		p.Hand = nil
		p.SaidUno = false
	}
	for i := 0; i < 7; i++ {
		for _, p := range r.Players {
			r.drawInto(p, 1)
		}
	}

	// Flip the starting card, re-drawing while it is wild. The wild goes back
	// into the pile at a random spot so the 108-card multiset is preserved.
	for {
		card, _ := r.drawOne()
		if !card.IsWild() {
			r.DiscardPile = append(r.DiscardPile, card)
			r.CurrentColor = card.Color
			r.CurrentValue = card.Value
			r.applyFlipEffect(card)
			break
		}
		r.DrawPile = append(r.DrawPile, card)
		shuffleCards(r.DrawPile)
	}

	r.Started = true
}

// applyFlipEffect applies the turn-order consequence of an action card flipped
// as the round's starting card. Assumes the room lock is held.
func (r *Room) applyFlipEffect(card models.Card) {
	switch card.Value {
	case models.ValueSkip:
		r.advance(1)
	case models.ValueReverse:
		r.Direction = -r.Direction
		if len(r.Players) == 2 {
			r.advance(1)
		}
	case models.ValueDrawTwo:
		r.drawInto(r.currentPlayer(), 2)
		r.advance(1)
	}
}

// CanPlay reports whether card is legal against the current discard. While a
// draw penalty is pending, only a card matching the penalty's value counters
// it, and only when stacking is enabled. Assumes the room lock is held.
func (r *Room) CanPlay(card models.Card) bool {
	if r.AccumulatedDraw > 0 {
		return r.Rules.StackingPlus && card.Value == r.CurrentValue
	}
	return card.IsWild() || card.Color == r.CurrentColor || card.Value == r.CurrentValue
}

// PlayCard validates and applies a play by playerID. chosenColor resolves a
// wild; when omitted or not a real color, the prior color stays in effect.
// Returns the winner's id when the play emptied their hand and ended the
// round, or "" while the round continues. Assumes the room lock is held.
func (r *Room) PlayCard(playerID string, card models.Card, chosenColor models.Color) (string, error) {
	if !r.Started {
		return "", ErrGameNotStarted
	}
	p := r.getPlayerByID(playerID)
	if p == nil {
		return "", ErrInvalidPlayer
	}
	if r.currentPlayer() != p {
		return "", ErrNotYourTurn
	}
	handIdx := -1
	for i, c := range p.Hand {
		if c.Color == card.Color && c.Value == card.Value {
			handIdx = i
			break
		}
	}
	if handIdx < 0 {
		return "", ErrCardNotInHand
	}
	if !r.CanPlay(card) {
		return "", ErrIllegalMove
	}

	p.Hand = append(p.Hand[:handIdx], p.Hand[handIdx+1:]...)
	r.DiscardPile = append(r.DiscardPile, card)
	if len(p.Hand) == 1 {
		p.SaidUno = false
	}

	if card.IsWild() && models.IsPlayableColor(chosenColor) {
		r.CurrentColor = chosenColor
	} else if !card.IsWild() {
		r.CurrentColor = card.Color
	}
	r.CurrentValue = card.Value

	if len(p.Hand) == 0 {
		p.Score += r.opponentPoints(p)
		// Winning with a penalty card leaves no one to absorb the stack.
		r.AccumulatedDraw = 0
		r.Started = false
		return p.ID, nil
	}

	switch card.Value {
	case models.ValueSkip:
		r.advance(2)
	case models.ValueReverse:
		r.Direction = -r.Direction
		r.advance(1)
	case models.ValueDrawTwo:
		if r.Rules.StackingPlus {
			r.AccumulatedDraw += 2
			r.advance(1)
		} else {
			r.advance(1)
			r.drawInto(r.currentPlayer(), 2)
			r.advance(1)
		}
	case models.ValueWildDrawFour:
		r.AccumulatedDraw += 4
		r.advance(1)
	default:
		r.advance(1)
	}
	return "", nil
}

// DrawCard resolves the current player's draw: the full pending penalty if one
// is accumulated, otherwise a single card. The turn always advances by one and
// drawing never grants an extra play. Returns how many cards were actually
// drawn; a fully exhausted deck yields zero and the turn still passes.
// Assumes the room lock is held.
func (r *Room) DrawCard(playerID string) (int, error) {
	if !r.Started {
		return 0, ErrGameNotStarted
	}
	p := r.getPlayerByID(playerID)
	if p == nil {
		return 0, ErrInvalidPlayer
	}
	if r.currentPlayer() != p {
		return 0, ErrNotYourTurn
	}

	n := 1
	if r.AccumulatedDraw > 0 {
		n = r.AccumulatedDraw
		r.AccumulatedDraw = 0
	}
	drawn := r.drawInto(p, n)
	r.advance(1)
	return drawn, nil
}

// SayUno sets the player's declaration flag, but only when they actually hold
// exactly one card. The announcement is broadcast either way; the return value
// reports whether it had effect. Assumes the room lock is held.
func (r *Room) SayUno(playerID string) (bool, error) {
	p := r.getPlayerByID(playerID)
	if p == nil {
		return false, ErrInvalidPlayer
	}
	if len(p.Hand) == 1 {
		p.SaidUno = true
		return true, nil
	}
	return false, nil
}

// CalloutUno penalizes every player caught holding one card without having
// declared it: each offender draws 2 cards immediately. One call can catch
// multiple offenders. Assumes the room lock is held.
func (r *Room) CalloutUno(callerID string) ([]string, error) {
	if r.getPlayerByID(callerID) == nil {
		return nil, ErrInvalidPlayer
	}
	offenders := []string{}
	for _, p := range r.Players {
		if len(p.Hand) == 1 && !p.SaidUno {
			r.drawInto(p, 2)
			offenders = append(offenders, p.ID)
		}
	}
	return offenders, nil
}

// MarkDisconnected flips the seat bound to connID to inactive and clears its
// sink. Returns the player's id and whether a seat matched.
// Assumes the room lock is held.
func (r *Room) MarkDisconnected(connID uuid.UUID) (string, bool) {
	for _, p := range r.Players {
		if p.ConnID == connID && p.Connected {
			p.Connected = false
			p.Out = nil
			return p.ID, true
		}
	}
	return "", false
}

// AllDisconnected reports whether no seat has a live connection.
// Assumes the room lock is held.
func (r *Room) AllDisconnected() bool {
	for _, p := range r.Players {
		if p.Connected {
			return false
		}
	}
	return true
}

// ConnectedPlayers returns the seats that currently have a live sink.
// Assumes the room lock is held.
func (r *Room) ConnectedPlayers() []*models.Player {
	out := make([]*models.Player, 0, len(r.Players))
	for _, p := range r.Players {
		if p.Connected && p.Out != nil {
			out = append(out, p)
		}
	}
	return out
}

// advance moves the turn cursor by step seats in the current direction. The
// index is recomputed fresh from the modulo form each time to avoid sign bugs
// at the boundaries. Assumes the room lock is held.
func (r *Room) advance(step int) {
	n := len(r.Players)
	if n == 0 {
		return
	}
	r.CurrentPlayerIndex = ((r.CurrentPlayerIndex+r.Direction*step)%n + n) % n
}

// currentPlayer returns the seated current player, or nil before anyone joins.
// Assumes the room lock is held.
func (r *Room) currentPlayer() *models.Player {
	if len(r.Players) == 0 || r.CurrentPlayerIndex < 0 || r.CurrentPlayerIndex >= len(r.Players) {
		return nil
	}
	return r.Players[r.CurrentPlayerIndex]
}

// getPlayerByID returns the seat with the given id, or nil.
// Assumes the room lock is held.
func (r *Room) getPlayerByID(playerID string) *models.Player {
	for _, p := range r.Players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

// opponentPoints sums the point value of every other player's remaining hand.
// Assumes the room lock is held.
func (r *Room) opponentPoints(winner *models.Player) int {
	total := 0
	for _, p := range r.Players {
		if p == winner {
			continue
		}
		for _, c := range p.Hand {
			total += c.PointValue()
		}
	}
	return total
}
