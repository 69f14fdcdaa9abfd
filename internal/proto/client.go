package proto

import (
	"context"

	"google.golang.org/grpc"
)

// OnboardingClient is the client API for the Onboarding service.
type OnboardingClient struct {
	cc grpc.ClientConnInterface
}

func NewOnboardingClient(cc grpc.ClientConnInterface) *OnboardingClient {
	return &OnboardingClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OnboardingClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	return invoke[RegisterResponse](ctx, c.cc, MethodRegister, in, opts)
}

func (c *OnboardingClient) ResendOTP(ctx context.Context, in *EmailRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodResendOTP, in, opts)
}

func (c *OnboardingClient) Verify(ctx context.Context, in *VerifyRequest, opts ...grpc.CallOption) (*VerifyResponse, error) {
	return invoke[VerifyResponse](ctx, c.cc, MethodVerify, in, opts)
}

func (c *OnboardingClient) RequestCompanyVerification(ctx context.Context, in *CompanyRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodRequestCompanyVerification, in, opts)
}

func (c *OnboardingClient) VerifyCompany(ctx context.Context, in *VerifyCompanyRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodVerifyCompany, in, opts)
}

func (c *OnboardingClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke[LoginResponse](ctx, c.cc, MethodLogin, in, opts)
}

func (c *OnboardingClient) RequestPasswordReset(ctx context.Context, in *EmailRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodRequestPasswordReset, in, opts)
}

func (c *OnboardingClient) ResetPassword(ctx context.Context, in *ResetPasswordRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, MethodResetPassword, in, opts)
}

func (c *OnboardingClient) PresignDocumentUpload(ctx context.Context, in *PresignUploadRequest, opts ...grpc.CallOption) (*PresignUploadResponse, error) {
	return invoke[PresignUploadResponse](ctx, c.cc, MethodPresignDocumentUpload, in, opts)
}

func (c *OnboardingClient) PresignDocumentDownload(ctx context.Context, in *PresignDownloadRequest, opts ...grpc.CallOption) (*PresignDownloadResponse, error) {
	return invoke[PresignDownloadResponse](ctx, c.cc, MethodPresignDocumentDownload, in, opts)
}

func (c *OnboardingClient) ListDocuments(ctx context.Context, in *CompanyRequest, opts ...grpc.CallOption) (*ListDocumentsResponse, error) {
	return invoke[ListDocumentsResponse](ctx, c.cc, MethodListDocuments, in, opts)
}

func (c *OnboardingClient) Ping(ctx context.Context, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, MethodPing, &Empty{}, opts)
}
