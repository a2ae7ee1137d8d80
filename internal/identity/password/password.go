// Package password wraps credential hashing behind a small interface so
// service tests can swap in a cheap fake.
package password

import (
	"golang.org/x/crypto/bcrypt"

	dErrors "corebank/pkg/domain-errors"
)

// Hasher hashes and verifies plaintext credentials.
type Hasher interface {
	Hash(plaintext string) (string, error)
	// Compare reports whether plaintext matches the stored hash. A mismatch
	// is a false return, not an error.
	Compare(hash, plaintext string) (bool, error)
}

// BcryptHasher is the production Hasher.
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: bcrypt.DefaultCost}
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "hash password")
	}
	return string(hashed), nil
}

func (h *BcryptHasher) Compare(hash, plaintext string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case err == bcrypt.ErrMismatchedHashAndPassword:
		return false, nil
	default:
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "compare password")
	}
}
