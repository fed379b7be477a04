package bank

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
)

// NumeroChecker reports whether a numero de compte is already assigned.
type NumeroChecker interface {
	NumeroExists(ctx context.Context, numero string) (bool, error)
}

// NumeroGenerator produces account numbers of the form "C" followed by a
// zero-padded random suffix. The pre-check against existing numbers is an
// optimization only; the unique index on comptes.numero_compte is the real
// guarantee under concurrent creation.
type NumeroGenerator struct {
	Digits      int
	MaxAttempts int

	checker NumeroChecker
}

const (
	DefaultNumeroDigits      = 8
	DefaultNumeroMaxAttempts = 10
)

func NewNumeroGenerator(checker NumeroChecker, digits, maxAttempts int) *NumeroGenerator {
	if digits <= 0 {
		digits = DefaultNumeroDigits
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultNumeroMaxAttempts
	}
	return &NumeroGenerator{Digits: digits, MaxAttempts: maxAttempts, checker: checker}
}

// Generate draws random candidates until one is unused, bounded by
// MaxAttempts. Exhausting the bound returns ErrNumeroExhausted.
func (g *NumeroGenerator) Generate(ctx context.Context) (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(g.Digits)), nil)
	max.Sub(max, big.NewInt(1))

	for attempt := 0; attempt < g.MaxAttempts; attempt++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate numero: %w", err)
		}
		n.Add(n, big.NewInt(1))

		numero := fmt.Sprintf("C%0*d", g.Digits, n)
		exists, err := g.checker.NumeroExists(ctx, numero)
		if err != nil {
			return "", fmt.Errorf("generate numero: %w", err)
		}
		if !exists {
			return numero, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrNumeroExhausted, g.MaxAttempts)
}
