package models

import (
	"encoding/json"
	"time"
)

// CredentialState is the verification state of an account.
type CredentialState string

const (
	StatePending  CredentialState = "pending"
	StateVerified CredentialState = "verified"
)

// Role discriminates the shape of the dependent profile.
type Role string

const (
	RoleCompany     Role = "company"
	RoleInvestor    Role = "investor"
	RoleShareholder Role = "shareholder"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCompany, RoleInvestor, RoleShareholder:
		return true
	}
	return false
}

// Credential is the canonical account record. OTP fields are set only while
// the record is pending.
type Credential struct {
	ID           string
	Email        string
	PasswordHash string
	State        CredentialState
	Role         Role
	FirstName    string
	LastName     string

	// PendingProfile holds the role-specific onboarding fields captured at
	// registration until the dependent profile is created.
	PendingProfile *PendingProfile

	OTPHash       *string
	OTPExpiresAt  *time.Time
	OTPIssuedAt   *time.Time
	OTPIssueCount int

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Credential) Verified() bool {
	return c.State == StateVerified
}

// HasOTP reports whether a code is currently stored.
func (c *Credential) HasOTP() bool {
	return c.OTPHash != nil && c.OTPExpiresAt != nil
}

// PendingProfile is stored as JSON next to the pending credential.
type PendingProfile struct {
	CompanyName  string  `json:"company_name,omitempty"`
	ContactEmail string  `json:"contact_email,omitempty"`
	Website      string  `json:"website,omitempty"`
	InvestorType string  `json:"investor_type,omitempty"`
	Budget       float64 `json:"budget,omitempty"`
	SharesHeld   int64   `json:"shares_held,omitempty"`
	ShareValue   float64 `json:"share_value,omitempty"`
}

// MarshalPendingProfile returns nil for a nil profile so the column stays NULL.
func MarshalPendingProfile(p *PendingProfile) ([]byte, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

// UnmarshalPendingProfile is the inverse of MarshalPendingProfile.
func UnmarshalPendingProfile(b []byte) (*PendingProfile, error) {
	if len(b) == 0 {
		return nil, nil
	}
	p := &PendingProfile{}
	if err := json.Unmarshal(b, p); err != nil {
		return nil, err
	}
	return p, nil
}
