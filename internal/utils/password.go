package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Password length bounds.  bcrypt ignores everything past 72 bytes, so
// longer secrets are refused rather than silently truncated.
const (
	MinPasswordLen = 8
	MaxPasswordLen = 72
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong  = errors.New("password must be at most 72 bytes")
)

// CheckPassword applies the account password policy.
func CheckPassword(plain string) error {
	switch {
	case len(plain) < MinPasswordLen:
		return ErrPasswordTooShort
	case len(plain) > MaxPasswordLen:
		return ErrPasswordTooLong
	}
	return nil
}

// HashPassword checks the policy and returns the bcrypt hash.  A cost
// outside bcrypt's range falls back to bcrypt.DefaultCost.
func HashPassword(plain string, cost int) (string, error) {
	if err := CheckPassword(plain); err != nil {
		return "", err
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches hash.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
