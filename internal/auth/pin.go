// pin.go handles hashing and verification of account passwords and the
// secondary vault PIN. Both are bcrypt-hashed: neither ever needs to be
// recovered, only compared, and bcrypt's per-hash salt and work factor make
// offline guessing expensive if the database leaks.
package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 12

	// PINMinLength and PINMaxLength bound the vault PIN. The PIN is a
	// second factor on top of the session, not a full password, so a short
	// numeric secret is acceptable.
	PINMinLength = 4
	PINMaxLength = 8
)

// ErrInvalidPINFormat is returned when an enrolled PIN is not 4-8 digits.
var ErrInvalidPINFormat = errors.New("auth: PIN must be 4 to 8 digits")

// HashSecret bcrypt-hashes an account password or PIN for storage.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifySecret reports whether the provided secret matches the stored
// bcrypt hash. bcrypt performs the comparison internally with a fixed-cost
// check, so this is not a raw string equality.
func VerifySecret(provided, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(provided)) == nil
}

// ValidatePINFormat checks that a PIN being enrolled is 4-8 ASCII digits.
func ValidatePINFormat(pin string) error {
	if len(pin) < PINMinLength || len(pin) > PINMaxLength {
		return ErrInvalidPINFormat
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return ErrInvalidPINFormat
		}
	}
	return nil
}
