package password

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const (
	defaultCost = 12
	MinLength   = 8
)

// ErrTooShort is returned by Validate for passwords under MinLength.
var ErrTooShort = errors.New("password must be at least 8 characters")

// dummyHash is a bcrypt hash of no known password, compared against when the
// account does not exist so lookups cost the same either way.
const dummyHash = "$2a$12$0000000000000000000000000000000000000000000000000000."

func Validate(plain string) error {
	if len(plain) < MinLength {
		return ErrTooShort
	}
	return nil
}

// Hash returns a bcrypt hash of the plain-text password.
func Hash(plain string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(plain), defaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify compares a bcrypt hashed password with a plain-text candidate.
// Returns nil on success or an error if they do not match.
func Verify(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

// VerifyDummy burns the same work as Verify without a real hash.
func VerifyDummy(plain string) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(plain))
}
