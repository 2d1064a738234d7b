// internal/models/card_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPointValue(t *testing.T) {
	assert.Equal(t, 0, Card{Color: ColorRed, Value: ValueZero}.PointValue())
	assert.Equal(t, 5, Card{Color: ColorGreen, Value: ValueFive}.PointValue())
	assert.Equal(t, 9, Card{Color: ColorBlue, Value: ValueNine}.PointValue())
	assert.Equal(t, 20, Card{Color: ColorRed, Value: ValueSkip}.PointValue())
	assert.Equal(t, 20, Card{Color: ColorYellow, Value: ValueReverse}.PointValue())
	assert.Equal(t, 20, Card{Color: ColorBlue, Value: ValueDrawTwo}.PointValue())
	assert.Equal(t, 50, Card{Color: ColorWild, Value: ValueWild}.PointValue())
	assert.Equal(t, 50, Card{Color: ColorWild, Value: ValueWildDrawFour}.PointValue())
}

func TestIsWild(t *testing.T) {
	assert.True(t, Card{Color: ColorWild, Value: ValueWild}.IsWild())
	assert.True(t, Card{Color: ColorWild, Value: ValueWildDrawFour}.IsWild())
	assert.False(t, Card{Color: ColorRed, Value: ValueDrawTwo}.IsWild())
	assert.False(t, Card{Color: ColorGreen, Value: ValueZero}.IsWild())
}

func TestPlayerSendBestEffort(t *testing.T) {
	p := &Player{ID: "p1"}
	assert.False(t, p.Send([]byte("x")), "nil sink should drop")

	p.Out = make(chan []byte, 1)
	assert.True(t, p.Send([]byte("x")))
	assert.False(t, p.Send([]byte("y")), "full sink should drop, not block")
}
