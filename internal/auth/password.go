// Package auth holds the password hashing rules shared by the signup flow
// and the legacy password migration.
package auth

import (
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt cost GrowNet has always used.
const DefaultCost = 10

// HashedPattern matches values that already carry a bcrypt algorithm prefix.
// The same pattern is sent to MongoDB to select legacy plaintext passwords.
const HashedPattern = `^\$2[aby]\$`

var hashedRe = regexp.MustCompile(HashedPattern)

// IsHashed reports whether stored looks like a bcrypt hash rather than a
// legacy plaintext password.
func IsHashed(stored string) bool {
	return hashedRe.MatchString(stored)
}

// HashPassword returns a bcrypt hash for the provided plaintext. Costs
// outside bcrypt's accepted range fall back to DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	// Fails with bcrypt.ErrPasswordTooLong for inputs over 72 bytes
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func CheckPassword(hash, password string) error {
	// CompareHashAndPassword returns nil if password matches hash, error otherwise
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
