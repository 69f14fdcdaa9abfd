package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/equitygate/internal/common"
	"github.com/dmitrijs2005/equitygate/internal/server/models"
	"github.com/dmitrijs2005/equitygate/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeartbeat(t *testing.T) {
	h := newFixture().server().Handler()

	w, _ := do(t, h, http.MethodHead, "/api/v1/heartbeat", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegister_Created(t *testing.T) {
	f := newFixture()
	f.reg.result = &services.RegisterResult{Status: services.StatusOTPSent, CredentialID: "cred-1"}
	h := f.server().Handler()

	w, body := do(t, h, http.MethodPost, "/api/v1/auth/register", map[string]any{
		"email":         "inv@fund.io",
		"password":      "s3cret-pass",
		"first_name":    "Grace",
		"last_name":     "Hopper",
		"role":          "investor",
		"investor_type": "angel",
		"budget":        250000,
	}, "")

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, services.StatusOTPSent, body["status"])
	assert.Equal(t, "angel", f.reg.gotInput.InvestorType)
	assert.Equal(t, 250000.0, f.reg.gotInput.Budget)
	assert.True(t, f.reg.deadline, "request context must carry the request timeout")
}

func TestRegister_AlreadyRegisteredIsOK(t *testing.T) {
	f := newFixture()
	f.reg.result = &services.RegisterResult{Status: services.StatusAlreadyRegistered}
	h := f.server().Handler()

	w, body := do(t, h, http.MethodPost, "/api/v1/auth/register", map[string]any{"email": "a@b.io"}, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, services.StatusAlreadyRegistered, body["status"])
}

func TestRegister_ValidationFields(t *testing.T) {
	f := newFixture()
	f.reg.err = common.NewValidationError(map[string]string{"website": "is required"})
	h := f.server().Handler()

	w, body := do(t, h, http.MethodPost, "/api/v1/auth/register", map[string]any{"role": "company"}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_failed", body["error"])
	fields, ok := body["fields"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "is required", fields["website"])
}

func TestRegister_MalformedBody(t *testing.T) {
	h := newFixture().server().Handler()

	w, body := do(t, h, http.MethodPost, "/api/v1/auth/register", "{not json", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_body", body["error"])
}

func TestLogin_Success(t *testing.T) {
	f := newFixture()
	f.sessions.session = &services.Session{
		Token:        "jwt",
		ExpiresAt:    testNow.Add(24 * time.Hour),
		CredentialID: "cred-1",
		Role:         models.RoleShareholder,
	}
	h := f.server().Handler()

	w, body := do(t, h, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "a@b.io", "password": "pw"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jwt", body["access_token"])
	assert.Equal(t, "Bearer", body["token_type"])
	assert.Equal(t, "2025-03-02T12:00:00Z", body["expires_at"])
}

func TestLogin_RateLimited(t *testing.T) {
	f := newFixture()
	f.sessions.loginErr = &common.RateLimitError{Limit: 5, ResetAt: time.Now().Add(90 * time.Second)}
	h := f.server().Handler()

	w, body := do(t, h, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "a@b.io", "password": "pw"}, "")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limited", body["error"])
	assert.NotEmpty(t, body["reset_at"])
}

func TestVerify_Success(t *testing.T) {
	f := newFixture()
	f.verify.result = &services.VerifyResult{CredentialID: "cred-1", Role: models.RoleCompany, CompanyID: "co-1"}
	h := f.server().Handler()

	w, body := do(t, h, http.MethodPost, "/api/v1/auth/verify", map[string]string{"email": "a@b.io", "code": "123456"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "co-1", body["company_id"])
	assert.Equal(t, "123456", f.verify.gotCode)
}

func TestForgotPassword_Accepted(t *testing.T) {
	f := newFixture()
	h := f.server().Handler()

	w, _ := do(t, h, http.MethodPost, "/api/v1/auth/password/forgot", map[string]string{"email": "nobody@x.io"}, "")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"nobody@x.io"}, f.reset.requested)
}

func TestCompanyRoutes_RequireToken(t *testing.T) {
	h := newFixture().server().Handler()

	w, body := do(t, h, http.MethodPost, "/api/v1/companies/co-1/verification", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "missing_token", body["error"])

	w, body = do(t, h, http.MethodPost, "/api/v1/companies/co-1/verification", nil, "forged")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "token_invalid", body["error"])
}

func TestCompanyVerification_Flow(t *testing.T) {
	f := newFixture()
	h := f.server().Handler()

	w, _ := do(t, h, http.MethodPost, "/api/v1/companies/co-1/verification", nil, validToken)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "owner-1", f.verify.gotOwner)
	assert.Equal(t, "co-1", f.verify.gotCompanyID)

	w, body := do(t, h, http.MethodPost, "/api/v1/companies/co-1/verification/confirm", map[string]string{"code": "654321"}, validToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "verified", body["status"])
	assert.Equal(t, "654321", f.verify.gotCode)
}

func TestPresignUpload(t *testing.T) {
	f := newFixture()
	f.docs.ticket = &services.UploadTicket{
		DocumentID: "doc-1",
		StorageKey: "companies/co-1/cap_table/x",
		URL:        "http://s3/put",
		ExpiresAt:  testNow.Add(15 * time.Minute),
	}
	h := f.server().Handler()

	w, body := do(t, h, http.MethodPost, "/api/v1/companies/co-1/documents", map[string]string{"kind": "cap_table"}, validToken)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "http://s3/put", body["url"])
	assert.Equal(t, models.DocumentCapTable, f.docs.gotKind)
	assert.Equal(t, "co-1", f.docs.gotCompanyID)
}

func TestPresignUpload_UnverifiedCompany(t *testing.T) {
	f := newFixture()
	f.docs.err = common.ErrAccountNotVerified
	h := f.server().Handler()

	w, body := do(t, h, http.MethodPost, "/api/v1/companies/co-1/documents", map[string]string{"kind": "cap_table"}, validToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "account_not_verified", body["error"])
}

func TestListDocumentsAndDownload(t *testing.T) {
	f := newFixture()
	f.docs.docs = []*models.CompanyDocument{{ID: "doc-1", Kind: models.DocumentPitchDeck, StorageKey: "k", CreatedAt: testNow}}
	h := f.server().Handler()

	w, body := do(t, h, http.MethodGet, "/api/v1/companies/co-1/documents", nil, validToken)
	require.Equal(t, http.StatusOK, w.Code)
	docs, ok := body["documents"].([]any)
	require.True(t, ok)
	require.Len(t, docs, 1)

	w, body = do(t, h, http.MethodGet, "/api/v1/documents/doc-1/url", nil, validToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://s3/get/doc-1", body["url"])
}

func TestIPLimiter_RejectsBurst(t *testing.T) {
	f := newFixture()
	f.cfg.HTTPRequestRate = 0.001
	f.cfg.HTTPRequestBurst = 1
	h := f.server().Handler()

	w, _ := do(t, h, http.MethodHead, "/api/v1/heartbeat", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, h, http.MethodHead, "/api/v1/heartbeat", nil, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestIPLimiter_Cleanup(t *testing.T) {
	l := newIPLimiter(1, 1)
	now := testNow
	l.now = func() time.Time { return now }

	l.get("10.0.0.1")
	l.get("10.0.0.2")

	now = now.Add(2 * time.Minute)
	l.get("10.0.0.2")

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, l.cleanup())
	assert.Len(t, l.visitors, 1)
}

func TestWriteError_StatusCodes(t *testing.T) {
	a := &API{logger: nopLogger{}, now: func() time.Time { return testNow }}

	tests := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("register: %w", common.ErrConflict), http.StatusConflict},
		{common.ErrAlreadyVerified, http.StatusConflict},
		{common.ErrorNotFound, http.StatusNotFound},
		{common.ErrInvalidCredentials, http.StatusUnauthorized},
		{common.ErrInvalidCode, http.StatusUnauthorized},
		{common.ErrNoOTPRequested, http.StatusUnauthorized},
		{common.ErrInvalidToken, http.StatusUnauthorized},
		{common.ErrOTPExpired, http.StatusBadRequest},
		{common.ErrAccountNotVerified, http.StatusForbidden},
		{common.ErrTransientStore, http.StatusServiceUnavailable},
		{common.ErrTransactionConflict, http.StatusServiceUnavailable},
		{common.ErrDependencyFailure, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

			a.writeError(c, tt.err)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestWriteError_RetryAfterRoundsUp(t *testing.T) {
	a := &API{logger: nopLogger{}, now: func() time.Time { return testNow }}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	a.writeError(c, &common.RateLimitError{Limit: 1, ResetAt: testNow.Add(1500 * time.Millisecond)})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "2", w.Header().Get("Retry-After"))
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	s := newFixture().server()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("HTTP server did not stop after context cancel")
	}
}
