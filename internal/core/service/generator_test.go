package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/vaultguard/credential-vault/internal/core/domain"
	"github.com/vaultguard/credential-vault/internal/core/ports"
	"github.com/vaultguard/credential-vault/internal/core/strength"
)

func TestGenerator_AllClasses(t *testing.T) {
	g := NewGenerator()
	opts := ports.GeneratorOptions{Length: 16, Upper: true, Lower: true, Numbers: true, Symbols: true}

	for i := 0; i < 50; i++ {
		out, err := g.Generate(opts)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if len(out.Password) != 16 {
			t.Fatalf("expected length 16, got %d", len(out.Password))
		}
		if !strength.IsStrong(out.Password) {
			t.Fatalf("expected every class in %q", out.Password)
		}
		if out.Strength != strength.Score(out.Password) {
			t.Fatalf("strength mismatch for %q", out.Password)
		}
	}
}

func TestGenerator_SingleClass(t *testing.T) {
	out, err := NewGenerator().Generate(ports.GeneratorOptions{Length: 32, Numbers: true})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if strings.Trim(out.Password, digitChars) != "" {
		t.Fatalf("expected digits only, got %q", out.Password)
	}
}

func TestGenerator_Validation(t *testing.T) {
	g := NewGenerator()
	cases := []ports.GeneratorOptions{
		{Length: MinGeneratedLength - 1, Lower: true},
		{Length: MaxGeneratedLength + 1, Lower: true},
		{Length: 12},
	}
	for _, opts := range cases {
		if _, err := g.Generate(opts); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("Generate(%+v): expected ErrValidation, got %v", opts, err)
		}
	}
}
