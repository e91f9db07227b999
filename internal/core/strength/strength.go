// Package strength scores secrets on a 0–100 scale.
//
// Scoring is additive over independent criteria so that, at a fixed length,
// satisfying an extra character class never lowers the score:
//
//	length >= 8     20
//	uppercase       15
//	lowercase       15
//	digit           15
//	symbol          15
//	length bonus    2 per rune beyond 8, at most 20
package strength

import "unicode"

const (
	// WeakMax is the highest score still classified as weak.
	WeakMax = 39
	// StrongMin is the lowest score classified as strong.
	StrongMin = 70

	minLength      = 8
	lengthWeight   = 20
	classWeight    = 15
	bonusPerRune   = 2
	maxLengthBonus = 20
	maxScore       = 100
)

// Class is the band a score falls into.
type Class string

const (
	ClassWeak   Class = "weak"
	ClassMedium Class = "medium"
	ClassStrong Class = "strong"
)

type classes struct {
	upper, lower, digit, symbol bool
	length                      int
}

func inspect(secret string) classes {
	var c classes
	for _, r := range secret {
		c.length++
		switch {
		case unicode.IsUpper(r):
			c.upper = true
		case unicode.IsLower(r):
			c.lower = true
		case unicode.IsDigit(r):
			c.digit = true
		case unicode.IsSpace(r):
		case unicode.IsLetter(r):
			// caseless scripts count as letters but not as a class
		default:
			c.symbol = true
		}
	}
	return c
}

// Score returns the strength of secret in [0,100]. It never fails; an empty
// secret scores 0.
func Score(secret string) int {
	c := inspect(secret)
	if c.length == 0 {
		return 0
	}

	score := 0
	if c.length >= minLength {
		score += lengthWeight
		bonus := (c.length - minLength) * bonusPerRune
		if bonus > maxLengthBonus {
			bonus = maxLengthBonus
		}
		score += bonus
	}
	for _, ok := range []bool{c.upper, c.lower, c.digit, c.symbol} {
		if ok {
			score += classWeight
		}
	}

	if score > maxScore {
		return maxScore
	}
	return score
}

// IsStrong is the admission rule for account passwords: at least eight runes
// with upper, lower, digit and symbol all present.
func IsStrong(secret string) bool {
	c := inspect(secret)
	return c.length >= minLength && c.upper && c.lower && c.digit && c.symbol
}

// Classify maps a score onto its band.
func Classify(score int) Class {
	switch {
	case score <= WeakMax:
		return ClassWeak
	case score >= StrongMin:
		return ClassStrong
	default:
		return ClassMedium
	}
}
