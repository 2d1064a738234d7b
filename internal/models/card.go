// internal/models/card.go
package models

// Color is one of the four playable colors, or "wild" for cards that have
// no color until the player who plays them chooses one.
type Color string

const (
	ColorRed    Color = "red"
	ColorYellow Color = "yellow"
	ColorGreen  Color = "green"
	ColorBlue   Color = "blue"
	ColorWild   Color = "wild"
)

// Value is the face value of a card. The string forms double as the wire
// encoding; no other card encoding is supported.
type Value string

const (
	ValueZero         Value = "zero"
	ValueOne          Value = "one"
	ValueTwo          Value = "two"
	ValueThree        Value = "three"
	ValueFour         Value = "four"
	ValueFive         Value = "five"
	ValueSix          Value = "six"
	ValueSeven        Value = "seven"
	ValueEight        Value = "eight"
	ValueNine         Value = "nine"
	ValueSkip         Value = "skip"
	ValueReverse      Value = "reverse"
	ValueDrawTwo      Value = "drawTwo"
	ValueWild         Value = "wild"
	ValueWildDrawFour Value = "wildDrawFour"
)

// PlayableColors are the colors a wild card can resolve to.
var PlayableColors = []Color{ColorRed, ColorYellow, ColorGreen, ColorBlue}

// NumberValues lists zero through nine in order; the index is the numeral.
var NumberValues = []Value{
	ValueZero, ValueOne, ValueTwo, ValueThree, ValueFour,
	ValueFive, ValueSix, ValueSeven, ValueEight, ValueNine,
}

// Card is an immutable color/value pair.
type Card struct {
	Color Color `json:"color"`
	Value Value `json:"value"`
}

// IsWild reports whether the card has no fixed color.
func (c Card) IsWild() bool {
	return c.Value == ValueWild || c.Value == ValueWildDrawFour
}

// PointValue returns the scoring value of the card: numerals score their
// numeral, action cards 20, wilds 50.
func (c Card) PointValue() int {
	switch c.Value {
	case ValueSkip, ValueReverse, ValueDrawTwo:
		return 20
	case ValueWild, ValueWildDrawFour:
		return 50
	default:
		for i, v := range NumberValues {
			if v == c.Value {
				return i
			}
		}
		return 0
	}
}

// IsPlayableColor reports whether col is one of the four real colors.
func IsPlayableColor(col Color) bool {
	for _, c := range PlayableColors {
		if c == col {
			return true
		}
	}
	return false
}
