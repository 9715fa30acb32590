package security

import (
	"errors"
	"fmt"

	"bookshelf_api/internal/common"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns a bcrypt digest with a fresh salt at the library's
// default cost.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hashed), nil
}

// CheckPasswordHash reports whether password matches the digest. A mismatch is
// not an error; an unparseable digest is ErrCorruptCredential.
func CheckPasswordHash(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", common.ErrCorruptCredential, err)
	}
}
