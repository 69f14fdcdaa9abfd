// Package cryptox holds the one-way hashing used for account secrets:
// bcrypt for passwords and one-time codes, SHA-256 for reset tokens.
package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/dmitrijs2005/equitygate/internal/common"
	"golang.org/x/crypto/bcrypt"
)

const (
	otpMin   = 100000
	otpRange = 900000

	// ResetTokenBytes is the entropy of a raw password reset token.
	ResetTokenBytes = 32
)

// HashSecret returns the bcrypt hash of secret at the given cost.
func HashSecret(secret string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckSecret compares a candidate with a bcrypt hash in constant time.
func CheckSecret(hash, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}

// GenerateOTPCode returns a six digit code uniformly distributed over
// [100000, 999999].
func GenerateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpRange))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+otpMin), nil
}

// HashToken returns the hex SHA-256 digest of a raw token. Reset tokens
// carry enough entropy that a fast hash is sufficient.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// NewResetToken returns a raw token for the email and the hash to store.
func NewResetToken() (raw, hash string, err error) {
	raw, err = common.MakeRandHexString(ResetTokenBytes)
	if err != nil {
		return "", "", err
	}
	return raw, HashToken(raw), nil
}
