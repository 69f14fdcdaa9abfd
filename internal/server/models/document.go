package models

import "time"

// DocumentKind enumerates onboarding documents a company can upload.
type DocumentKind string

const (
	DocumentPitchDeck     DocumentKind = "pitch_deck"
	DocumentCapTable      DocumentKind = "cap_table"
	DocumentIncorporation DocumentKind = "incorporation"
)

func (k DocumentKind) Valid() bool {
	switch k {
	case DocumentPitchDeck, DocumentCapTable, DocumentIncorporation:
		return true
	}
	return false
}

// CompanyDocument describes an object stored in S3-compatible storage.
type CompanyDocument struct {
	ID         string
	CompanyID  string
	Kind       DocumentKind
	StorageKey string
	CreatedAt  time.Time
}
