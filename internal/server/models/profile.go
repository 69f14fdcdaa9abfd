package models

import "time"

// Company is the dependent profile of a company founder. Its contact email
// is verified independently of the owner's account email.
type Company struct {
	ID           string
	OwnerID      string
	Name         string
	ContactEmail string
	Website      string
	Verified     bool
	OTPHash      *string
	OTPExpiresAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Investor struct {
	CredentialID string
	InvestorType string
	Budget       float64
	CreatedAt    time.Time
}

type Shareholder struct {
	CredentialID string
	SharesHeld   int64
	ShareValue   float64
	CreatedAt    time.Time
}
