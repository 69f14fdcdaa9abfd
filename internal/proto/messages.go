package proto

import "time"

type Empty struct{}

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`

	CompanyName  string `json:"company_name,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	Website      string `json:"website,omitempty"`

	InvestorType string  `json:"investor_type,omitempty"`
	Budget       float64 `json:"budget,omitempty"`

	SharesHeld int64   `json:"shares_held,omitempty"`
	ShareValue float64 `json:"share_value,omitempty"`
}

type RegisterResponse struct {
	Status       string `json:"status"`
	CredentialID string `json:"credential_id,omitempty"`
}

type EmailRequest struct {
	Email string `json:"email"`
}

type VerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type VerifyResponse struct {
	CredentialID                string `json:"credential_id"`
	Role                        string `json:"role"`
	CompanyID                   string `json:"company_id,omitempty"`
	CompanyVerificationRequired bool   `json:"company_verification_required,omitempty"`
}

type CompanyRequest struct {
	CompanyID string `json:"company_id"`
}

type VerifyCompanyRequest struct {
	CompanyID string `json:"company_id"`
	Code      string `json:"code"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	CredentialID string    `json:"credential_id"`
	Role         string    `json:"role"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type PresignUploadRequest struct {
	CompanyID string `json:"company_id"`
	Kind      string `json:"kind"`
}

type PresignUploadResponse struct {
	DocumentID string    `json:"document_id"`
	StorageKey string    `json:"storage_key"`
	URL        string    `json:"url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

type PresignDownloadRequest struct {
	DocumentID string `json:"document_id"`
}

type PresignDownloadResponse struct {
	URL string `json:"url"`
}

type Document struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	StorageKey string    `json:"storage_key"`
	CreatedAt  time.Time `json:"created_at"`
}

type ListDocumentsResponse struct {
	Documents []*Document `json:"documents"`
}

type PingResponse struct {
	Status string `json:"status"`
}
