package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/equitygate/internal/common"
	"github.com/dmitrijs2005/equitygate/internal/logging"
	pb "github.com/dmitrijs2005/equitygate/internal/proto"
	"github.com/dmitrijs2005/equitygate/internal/server/auth"
	"github.com/dmitrijs2005/equitygate/internal/server/models"
	"github.com/dmitrijs2005/equitygate/internal/server/services"
	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

// ---- test logger ----

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// ---- fakes ----

type fakeRegistration struct {
	gotInput services.RegisterInput
	result   *services.RegisterResult
	err      error
	resent   []string
}

func (f *fakeRegistration) Register(ctx context.Context, in services.RegisterInput) (*services.RegisterResult, error) {
	f.gotInput = in
	return f.result, f.err
}
func (f *fakeRegistration) ResendOTP(ctx context.Context, address string) error {
	f.resent = append(f.resent, address)
	return f.err
}

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

// fakeSessions accepts exactly one token.
type fakeSessions struct {
	session  *services.Session
	loginErr error
	token    string
	claims   *auth.Claims
}

func (f *fakeSessions) Login(ctx context.Context, address, password string) (*services.Session, error) {
	return f.session, f.loginErr
}
func (f *fakeSessions) Authenticate(token string) (*auth.Claims, error) {
	if token != f.token || f.claims == nil {
		return nil, common.ErrInvalidToken
	}
	return f.claims, nil
}

type fakeReset struct {
	err         error
	requested   []string
	gotToken    string
	gotPassword string
}

func (f *fakeReset) Request(ctx context.Context, address string) error {
	f.requested = append(f.requested, address)
	return f.err
}
func (f *fakeReset) Reset(ctx context.Context, rawToken, newPassword string) error {
	f.gotToken, f.gotPassword = rawToken, newPassword
	return f.err
}

type fakeDocuments struct {
	ticket   *services.UploadTicket
	url      string
	docs     []*models.CompanyDocument
	err      error
	gotOwner string
	gotKind  models.DocumentKind
}

func (f *fakeDocuments) PresignUpload(ctx context.Context, ownerID, companyID string, kind models.DocumentKind) (*services.UploadTicket, error) {
	f.gotOwner, f.gotKind = ownerID, kind
	return f.ticket, f.err
}
func (f *fakeDocuments) PresignDownload(ctx context.Context, ownerID, documentID string) (string, error) {
	f.gotOwner = ownerID
	return f.url, f.err
}
func (f *fakeDocuments) ListDocuments(ctx context.Context, ownerID, companyID string) ([]*models.CompanyDocument, error) {
	f.gotOwner = ownerID
	return f.docs, f.err
}

type fixture struct {
	reg      *fakeRegistration
	verify   *fakeVerification
	sessions *fakeSessions
	reset    *fakeReset
	docs     *fakeDocuments
}

const validToken = "valid-token"

func newFixture() *fixture {
	return &fixture{
		reg:    &fakeRegistration{},
		verify: &fakeVerification{},
		sessions: &fakeSessions{
			token: validToken,
			claims: &auth.Claims{
				RegisteredClaims: jwt.RegisteredClaims{Subject: "owner-1"},
				Role:             string(models.RoleCompany),
			},
		},
		reset: &fakeReset{},
		docs:  &fakeDocuments{},
	}
}

func (f *fixture) set() services.Set {
	return services.Set{
		Registration:  f.reg,
		Verification:  f.verify,
		Sessions:      f.sessions,
		PasswordReset: f.reset,
		Documents:     f.docs,
	}
}

func (f *fixture) server() *GRPCServer {
	s := NewGRPCServer("127.0.0.1:0", nopLogger{}, f.set())
	s.now = func() time.Time { return testNow }
	return s
}

// dial starts the server on an in-memory listener and returns a client.
func dial(t *testing.T, s *GRPCServer) *pb.OnboardingClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		<-done
	})
	return pb.NewOnboardingClient(conn)
}
