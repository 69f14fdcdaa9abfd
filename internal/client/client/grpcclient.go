package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/equitygate/internal/common"
	pb "github.com/dmitrijs2005/equitygate/internal/proto"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      *pb.OnboardingClient

	mu          sync.RWMutex
	accessToken string

	now func() time.Time
}

var _ Client = (*GRPCClient)(nil)

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AuthorizationHeaderName)
	md.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if token := s.token(); token != "" {
		ctx = withAccessToken(ctx, token)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewGRPCClient connects to endpointURL. Extra dial options are appended
// after the defaults (insecure transport, JSON codec, token interceptor).
func NewGRPCClient(endpointURL string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, now: time.Now}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(pb.CodecName)),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = pb.NewOnboardingClient(conn)
	return c, nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.client.Ping(ctx)
	if err != nil {
		return s.mapError(err)
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) Register(ctx context.Context, req *pb.RegisterRequest) (*pb.RegisterResponse, error) {
	resp, err := s.client.Register(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) ResendOTP(ctx context.Context, email string) error {
	_, err := s.client.ResendOTP(ctx, &pb.EmailRequest{Email: email})
	return s.mapError(err)
}

func (s *GRPCClient) Verify(ctx context.Context, email, code string) (*pb.VerifyResponse, error) {
	resp, err := s.client.Verify(ctx, &pb.VerifyRequest{Email: email, Code: code})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

// Login stores the returned token for subsequent calls.
func (s *GRPCClient) Login(ctx context.Context, email string, password []byte) (*pb.LoginResponse, error) {
	resp, err := s.client.Login(ctx, &pb.LoginRequest{Email: email, Password: string(password)})
	if err != nil {
		return nil, s.mapError(err)
	}

	s.mu.Lock()
	s.accessToken = resp.AccessToken
	s.mu.Unlock()

	return resp, nil
}

func (s *GRPCClient) Logout() {
	s.mu.Lock()
	s.accessToken = ""
	s.mu.Unlock()
}

func (s *GRPCClient) LoggedIn() bool {
	return s.token() != ""
}

func (s *GRPCClient) RequestPasswordReset(ctx context.Context, email string) error {
	_, err := s.client.RequestPasswordReset(ctx, &pb.EmailRequest{Email: email})
	return s.mapError(err)
}

func (s *GRPCClient) ResetPassword(ctx context.Context, token string, newPassword []byte) error {
	_, err := s.client.ResetPassword(ctx, &pb.ResetPasswordRequest{Token: token, NewPassword: string(newPassword)})
	return s.mapError(err)
}

func (s *GRPCClient) RequestCompanyVerification(ctx context.Context, companyID string) error {
	if !s.LoggedIn() {
		return ErrNotLoggedIn
	}
	_, err := s.client.RequestCompanyVerification(ctx, &pb.CompanyRequest{CompanyID: companyID})
	return s.mapError(err)
}

func (s *GRPCClient) VerifyCompany(ctx context.Context, companyID, code string) error {
	if !s.LoggedIn() {
		return ErrNotLoggedIn
	}
	_, err := s.client.VerifyCompany(ctx, &pb.VerifyCompanyRequest{CompanyID: companyID, Code: code})
	return s.mapError(err)
}

func (s *GRPCClient) PresignUpload(ctx context.Context, companyID, kind string) (*pb.PresignUploadResponse, error) {
	if !s.LoggedIn() {
		return nil, ErrNotLoggedIn
	}
	resp, err := s.client.PresignDocumentUpload(ctx, &pb.PresignUploadRequest{CompanyID: companyID, Kind: kind})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) ListDocuments(ctx context.Context, companyID string) ([]*pb.Document, error) {
	if !s.LoggedIn() {
		return nil, ErrNotLoggedIn
	}
	resp, err := s.client.ListDocuments(ctx, &pb.CompanyRequest{CompanyID: companyID})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Documents, nil
}

func (s *GRPCClient) PresignDownload(ctx context.Context, documentID string) (string, error) {
	if !s.LoggedIn() {
		return "", ErrNotLoggedIn
	}
	resp, err := s.client.PresignDocumentDownload(ctx, &pb.PresignDownloadRequest{DocumentID: documentID})
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.URL, nil
}

// mapError turns a gRPC status into the project's error vocabulary,
// decoding BadRequest and RetryInfo details when present.
func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)

	switch st.Code() {
	case codes.InvalidArgument:
		fields := map[string]string{}
		for _, d := range st.Details() {
			if br, ok := d.(*errdetails.BadRequest); ok {
				for _, v := range br.GetFieldViolations() {
					fields[v.GetField()] = v.GetDescription()
				}
			}
		}
		if len(fields) == 0 {
			return fmt.Errorf("%w: %s", common.ErrValidation, st.Message())
		}
		return common.NewValidationError(fields)

	case codes.ResourceExhausted:
		rl := &common.RateLimitError{ResetAt: s.now()}
		for _, d := range st.Details() {
			if ri, ok := d.(*errdetails.RetryInfo); ok {
				rl.ResetAt = rl.ResetAt.Add(ri.GetRetryDelay().AsDuration())
			}
		}
		return rl

	case codes.NotFound:
		return fmt.Errorf("%w: %s", common.ErrorNotFound, st.Message())
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %s", common.ErrConflict, st.Message())
	case codes.FailedPrecondition:
		return fmt.Errorf("precondition failed: %s", st.Message())
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
