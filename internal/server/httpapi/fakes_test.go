package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/equitygate/internal/common"
	"github.com/dmitrijs2005/equitygate/internal/logging"
	"github.com/dmitrijs2005/equitygate/internal/server/auth"
	"github.com/dmitrijs2005/equitygate/internal/server/config"
	"github.com/dmitrijs2005/equitygate/internal/server/models"
	"github.com/dmitrijs2005/equitygate/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

const validToken = "valid-token"

type fakeRegistration struct {
	gotInput services.RegisterInput
	result   *services.RegisterResult
	err      error
	deadline bool
}

func (f *fakeRegistration) Register(ctx context.Context, in services.RegisterInput) (*services.RegisterResult, error) {
	f.gotInput = in
	_, f.deadline = ctx.Deadline()
	return f.result, f.err
}
func (f *fakeRegistration) ResendOTP(ctx context.Context, address string) error { return f.err }

type fakeVerification struct {
	result       *services.VerifyResult
	err          error
	gotOwner     string
	gotCompanyID string
	gotCode      string
}

func (f *fakeVerification) Verify(ctx context.Context, address, code string) (*services.VerifyResult, error) {
	f.gotCode = code
	return f.result, f.err
}
func (f *fakeVerification) RequestCompanyVerification(ctx context.Context, ownerID, companyID string) error {
	f.gotOwner, f.gotCompanyID = ownerID, companyID
	return f.err
}
func (f *fakeVerification) VerifyCompany(ctx context.Context, ownerID, companyID, code string) error {
	f.gotOwner, f.gotCompanyID, f.gotCode = ownerID, companyID, code
	return f.err
}

type fakeSessions struct {
	session  *services.Session
	loginErr error
}

func (f *fakeSessions) Login(ctx context.Context, address, password string) (*services.Session, error) {
	return f.session, f.loginErr
}
func (f *fakeSessions) Authenticate(token string) (*auth.Claims, error) {
	if token != validToken {
		return nil, common.ErrInvalidToken
	}
	return &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "owner-1"},
		Role:             string(models.RoleCompany),
	}, nil
}

type fakeReset struct {
	err       error
	requested []string
}

func (f *fakeReset) Request(ctx context.Context, address string) error {
	f.requested = append(f.requested, address)
	return f.err
}
func (f *fakeReset) Reset(ctx context.Context, rawToken, newPassword string) error { return f.err }

type fakeDocuments struct {
	ticket       *services.UploadTicket
	docs         []*models.CompanyDocument
	err          error
	gotOwner     string
	gotCompanyID string
	gotKind      models.DocumentKind
}

func (f *fakeDocuments) PresignUpload(ctx context.Context, ownerID, companyID string, kind models.DocumentKind) (*services.UploadTicket, error) {
	f.gotOwner, f.gotCompanyID, f.gotKind = ownerID, companyID, kind
	return f.ticket, f.err
}
func (f *fakeDocuments) PresignDownload(ctx context.Context, ownerID, documentID string) (string, error) {
	f.gotOwner = ownerID
	return "http://s3/get/" + documentID, f.err
}
func (f *fakeDocuments) ListDocuments(ctx context.Context, ownerID, companyID string) ([]*models.CompanyDocument, error) {
	f.gotOwner, f.gotCompanyID = ownerID, companyID
	return f.docs, f.err
}

type fixture struct {
	reg      *fakeRegistration
	verify   *fakeVerification
	sessions *fakeSessions
	reset    *fakeReset
	docs     *fakeDocuments
	cfg      *config.Config
}

func newFixture() *fixture {
	return &fixture{
		reg:      &fakeRegistration{},
		verify:   &fakeVerification{},
		sessions: &fakeSessions{},
		reset:    &fakeReset{},
		docs:     &fakeDocuments{},
		cfg: &config.Config{
			EndpointAddrHTTP: "127.0.0.1:0",
			HTTPRequestRate:  1000,
			HTTPRequestBurst: 1000,
			RequestTimeout:   time.Second,
			CORSOrigins:      []string{"http://localhost:3000"},
		},
	}
}

func (f *fixture) server() *HTTPServer {
	s := NewHTTPServer(f.cfg, services.Set{
		Registration:  f.reg,
		Verification:  f.verify,
		Sessions:      f.sessions,
		PasswordReset: f.reset,
		Documents:     f.docs,
	}, nopLogger{}, nil)
	return s
}

// do sends a JSON request through the router and decodes the JSON answer.
func do(t *testing.T, h http.Handler, method, path string, body any, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", common.BearerPrefix+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}
