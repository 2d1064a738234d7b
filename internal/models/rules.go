// internal/models/rules.go
package models

// Rules captures the per-room rule configuration set from the lobby.
type Rules struct {
	// StackingPlus lets a pending drawTwo/wildDrawFour penalty be countered
	// with a matching card, adding to the accumulator instead of drawing.
	StackingPlus bool `json:"stackingPlus"`

	// SkipChain is reserved; it carries no effect beyond the standard skip.
	SkipChain bool `json:"skipChain"`
}

// DefaultRules returns the rule set a fresh room starts with.
func DefaultRules() Rules {
	return Rules{
		StackingPlus: true,
		SkipChain:    true,
	}
}
