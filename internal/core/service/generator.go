package service

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/vaultguard/credential-vault/internal/core/domain"
	"github.com/vaultguard/credential-vault/internal/core/ports"
	"github.com/vaultguard/credential-vault/internal/core/strength"
)

const (
	MinGeneratedLength = 4
	MaxGeneratedLength = 128

	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	digitChars  = "0123456789"
	symbolChars = "!@#$%^&*()-_=+[]{};:,.<>?/~"
)

// Generator produces random passwords from crypto/rand.
type Generator struct{}

func NewGenerator() *Generator { return &Generator{} }

// Generate returns a password containing at least one character of every
// requested class, scored with the same scorer as vault entries.
func (g *Generator) Generate(opts ports.GeneratorOptions) (*ports.GeneratedPassword, error) {
	if opts.Length < MinGeneratedLength || opts.Length > MaxGeneratedLength {
		return nil, domain.NewValidationError("length", fmt.Sprintf("must be between %d and %d", MinGeneratedLength, MaxGeneratedLength))
	}

	var sets []string
	if opts.Upper {
		sets = append(sets, upperChars)
	}
	if opts.Lower {
		sets = append(sets, lowerChars)
	}
	if opts.Numbers {
		sets = append(sets, digitChars)
	}
	if opts.Symbols {
		sets = append(sets, symbolChars)
	}
	if len(sets) == 0 {
		return nil, domain.NewValidationError("", "at least one character set must be selected")
	}

	var pool string
	out := make([]byte, 0, opts.Length)
	for _, set := range sets {
		pool += set
		c, err := pick(set)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	for len(out) < opts.Length {
		c, err := pick(pool)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}

	// Fisher-Yates so the guaranteed characters are not always up front.
	for i := len(out) - 1; i > 0; i-- {
		j, err := randInt(i + 1)
		if err != nil {
			return nil, err
		}
		out[i], out[j] = out[j], out[i]
	}

	pw := string(out)
	return &ports.GeneratedPassword{Password: pw, Strength: strength.Score(pw)}, nil
}

func pick(set string) (byte, error) {
	i, err := randInt(len(set))
	if err != nil {
		return 0, err
	}
	return set[i], nil
}

func randInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("read random: %w", err)
	}
	return int(v.Int64()), nil
}
