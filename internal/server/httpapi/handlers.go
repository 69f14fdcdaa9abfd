package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/equitygate/internal/logging"
	"github.com/dmitrijs2005/equitygate/internal/server/models"
	"github.com/dmitrijs2005/equitygate/internal/server/services"
	"github.com/gin-gonic/gin"
)

// API holds the HTTP handlers.
type API struct {
	services services.Set
	logger   logging.Logger
	now      func() time.Time
}

type emailBody struct {
	Email string `json:"email"`
}

type verifyBody struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type resetBody struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type codeBody struct {
	Code string `json:"code"`
}

type uploadBody struct {
	Kind string `json:"kind"`
}

// bind decodes the JSON body; field validation happens in the services.
func bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		respond(c, http.StatusBadRequest, "invalid_body", "request body must be a JSON object")
		return false
	}
	return true
}

// Heartbeat answers HEAD /api/v1/heartbeat.
func (a *API) Heartbeat(c *gin.Context) {
	c.Status(http.StatusOK)
}

func (a *API) Register(c *gin.Context) {
	var in services.RegisterInput
	if !bind(c, &in) {
		return
	}

	res, err := a.services.Registration.Register(c.Request.Context(), in)
	if err != nil {
		a.writeError(c, err)
		return
	}

	code := http.StatusCreated
	if res.Status == services.StatusAlreadyRegistered {
		code = http.StatusOK
	}
	c.JSON(code, gin.H{
		"status":        res.Status,
		"credential_id": res.CredentialID,
	})
}

func (a *API) ResendOTP(c *gin.Context) {
	var in emailBody
	if !bind(c, &in) {
		return
	}
	if err := a.services.Registration.ResendOTP(c.Request.Context(), in.Email); err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": services.StatusOTPSent})
}

func (a *API) Verify(c *gin.Context) {
	var in verifyBody
	if !bind(c, &in) {
		return
	}

	res, err := a.services.Verification.Verify(c.Request.Context(), in.Email, in.Code)
	if err != nil {
		a.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"credential_id":                 res.CredentialID,
		"role":                          res.Role,
		"company_id":                    res.CompanyID,
		"company_verification_required": res.CompanyVerificationRequired,
	})
}

func (a *API) Login(c *gin.Context) {
	var in loginBody
	if !bind(c, &in) {
		return
	}

	session, err := a.services.Sessions.Login(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		a.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  session.Token,
		"token_type":    "Bearer",
		"expires_at":    session.ExpiresAt.UTC().Format(time.RFC3339),
		"credential_id": session.CredentialID,
		"role":          session.Role,
	})
}

// ForgotPassword answers 202 for known and unknown emails alike.
func (a *API) ForgotPassword(c *gin.Context) {
	var in emailBody
	if !bind(c, &in) {
		return
	}
	if err := a.services.PasswordReset.Request(c.Request.Context(), in.Email); err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "reset_requested"})
}

func (a *API) ResetPassword(c *gin.Context) {
	var in resetBody
	if !bind(c, &in) {
		return
	}
	if err := a.services.PasswordReset.Reset(c.Request.Context(), in.Token, in.NewPassword); err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "password_updated"})
}

func (a *API) RequestCompanyVerification(c *gin.Context) {
	claims := claimsFrom(c)
	if err := a.services.Verification.RequestCompanyVerification(c.Request.Context(), claims.Subject, c.Param("id")); err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": services.StatusOTPSent})
}

func (a *API) ConfirmCompanyVerification(c *gin.Context) {
	var in codeBody
	if !bind(c, &in) {
		return
	}
	claims := claimsFrom(c)
	if err := a.services.Verification.VerifyCompany(c.Request.Context(), claims.Subject, c.Param("id"), in.Code); err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "verified"})
}

func (a *API) PresignUpload(c *gin.Context) {
	var in uploadBody
	if !bind(c, &in) {
		return
	}
	claims := claimsFrom(c)

	ticket, err := a.services.Documents.PresignUpload(c.Request.Context(), claims.Subject, c.Param("id"), models.DocumentKind(in.Kind))
	if err != nil {
		a.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"document_id": ticket.DocumentID,
		"storage_key": ticket.StorageKey,
		"url":         ticket.URL,
		"expires_at":  ticket.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (a *API) ListDocuments(c *gin.Context) {
	claims := claimsFrom(c)

	docs, err := a.services.Documents.ListDocuments(c.Request.Context(), claims.Subject, c.Param("id"))
	if err != nil {
		a.writeError(c, err)
		return
	}

	out := make([]gin.H, 0, len(docs))
	for _, d := range docs {
		out = append(out, gin.H{
			"id":          d.ID,
			"kind":        d.Kind,
			"storage_key": d.StorageKey,
			"created_at":  d.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, gin.H{"documents": out})
}

func (a *API) PresignDownload(c *gin.Context) {
	claims := claimsFrom(c)

	url, err := a.services.Documents.PresignDownload(c.Request.Context(), claims.Subject, c.Param("id"))
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
