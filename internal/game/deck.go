// internal/game/deck.go
package game

import (
	"math/rand"
	"time"

	"github.com/tkhuang/uno/internal/models"
)

// DeckSize is the fixed number of cards in play per room.
const DeckSize = 108

// BuildDeck returns the canonical 108-card deck: per color one zero, two each
// of one..nine and skip/reverse/drawTwo, plus 4 wild and 4 wildDrawFour.
func BuildDeck() []models.Card {
	deck := make([]models.Card, 0, DeckSize)
	for _, color := range models.PlayableColors {
		deck = append(deck, models.Card{Color: color, Value: models.ValueZero})
		for _, v := range models.NumberValues[1:] {
			deck = append(deck,
				models.Card{Color: color, Value: v},
				models.Card{Color: color, Value: v})
		}
		for _, v := range []models.Value{models.ValueSkip, models.ValueReverse, models.ValueDrawTwo} {
			deck = append(deck,
				models.Card{Color: color, Value: v},
				models.Card{Color: color, Value: v})
		}
	}
	for i := 0; i < 4; i++ {
		deck = append(deck,
			models.Card{Color: models.ColorWild, Value: models.ValueWild},
			models.Card{Color: models.ColorWild, Value: models.ValueWildDrawFour})
	}
	return deck
}

// shuffleCards permutes cards in place.
func shuffleCards(cards []models.Card) {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	r.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

// drawOne pops the top card of the draw pile. When the draw pile is empty it
// reshuffles the discard pile, all but its top card, into a new draw pile.
// Returns false when no card can be produced at all (draw pile empty and at
// most one discard left); the piles are left untouched in that case.
// Assumes the room lock is held.
func (r *Room) drawOne() (models.Card, bool) {
	if len(r.DrawPile) == 0 {
		if len(r.DiscardPile) <= 1 {
			return models.Card{}, false
		}
		top := r.DiscardPile[len(r.DiscardPile)-1]
		r.DrawPile = append(r.DrawPile, r.DiscardPile[:len(r.DiscardPile)-1]...)
		r.DiscardPile = []models.Card{top}
		shuffleCards(r.DrawPile)
	}

	card := r.DrawPile[len(r.DrawPile)-1]
	r.DrawPile = r.DrawPile[:len(r.DrawPile)-1]
	return card, true
}

// drawInto moves up to n cards from the draw pile into p's hand and returns
// how many were actually drawn. Fewer than n means the deck is exhausted.
// Assumes the room lock is held.
func (r *Room) drawInto(p *models.Player, n int) int {
	drawn := 0
	for i := 0; i < n; i++ {
		card, ok := r.drawOne()
		if !ok {
			break
		}
		p.Hand = append(p.Hand, card)
		drawn++
	}
	return drawn
}
