package models

import "time"

// ResetToken stores only the SHA-256 hash of the emailed raw token.
type ResetToken struct {
	TokenHash    string
	CredentialID string
	ExpiresAt    time.Time
	CreatedAt    time.Time
}
