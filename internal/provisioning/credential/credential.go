// Package credential generates the one-time initial password issued to a
// newly provisioned account holder.
package credential

import (
	"crypto/rand"
	"io"

	dErrors "corebank/pkg/domain-errors"
)

const (
	prefixLength = 4
	randomLength = 6

	symbols      = "!@#$%&*"
	alphanumeric = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789"
)

// Generator produces 11-character one-time credentials: a fixed 4-character
// prefix, one symbol, then 6 random alphanumerics. The random source is
// injected so tests can assert format without true randomness; production
// wiring uses crypto/rand.
type Generator struct {
	prefix string
	source io.Reader
}

// New builds a Generator. The prefix must be exactly 4 characters. A nil
// source defaults to crypto/rand.
func New(prefix string, source io.Reader) (*Generator, error) {
	if len(prefix) != prefixLength {
		return nil, dErrors.Newf(dErrors.CodeValidation, "credential prefix must be %d characters", prefixLength)
	}
	if source == nil {
		source = rand.Reader
	}
	return &Generator{prefix: prefix, source: source}, nil
}

// Generate returns a fresh one-time credential. Uniqueness is per-generation;
// the character space makes collisions negligible.
func (g *Generator) Generate() (string, error) {
	buf := make([]byte, 1+randomLength)
	if _, err := io.ReadFull(g.source, buf); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "read random source")
	}

	out := make([]byte, 0, prefixLength+1+randomLength)
	out = append(out, g.prefix...)
	out = append(out, symbols[int(buf[0])%len(symbols)])
	for _, b := range buf[1:] {
		out = append(out, alphanumeric[int(b)%len(alphanumeric)])
	}
	return string(out), nil
}
