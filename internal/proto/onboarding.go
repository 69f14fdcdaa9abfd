package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "equitygate.v1.Onboarding"

// Method names of the Onboarding service.
const (
	MethodRegister                   = "Register"
	MethodResendOTP                  = "ResendOTP"
	MethodVerify                     = "Verify"
	MethodRequestCompanyVerification = "RequestCompanyVerification"
	MethodVerifyCompany              = "VerifyCompany"
	MethodLogin                      = "Login"
	MethodRequestPasswordReset       = "RequestPasswordReset"
	MethodResetPassword              = "ResetPassword"
	MethodPresignDocumentUpload      = "PresignDocumentUpload"
	MethodPresignDocumentDownload    = "PresignDocumentDownload"
	MethodListDocuments              = "ListDocuments"
	MethodPing                       = "Ping"
)

// FullMethod returns the "/service/method" path used by interceptors.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// OnboardingServer is the server API for the Onboarding service.
type OnboardingServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	ResendOTP(context.Context, *EmailRequest) (*Empty, error)
	Verify(context.Context, *VerifyRequest) (*VerifyResponse, error)
	RequestCompanyVerification(context.Context, *CompanyRequest) (*Empty, error)
	VerifyCompany(context.Context, *VerifyCompanyRequest) (*Empty, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	RequestPasswordReset(context.Context, *EmailRequest) (*Empty, error)
	ResetPassword(context.Context, *ResetPasswordRequest) (*Empty, error)
	PresignDocumentUpload(context.Context, *PresignUploadRequest) (*PresignUploadResponse, error)
	PresignDocumentDownload(context.Context, *PresignDownloadRequest) (*PresignDownloadResponse, error)
	ListDocuments(context.Context, *CompanyRequest) (*ListDocumentsResponse, error)
	Ping(context.Context, *Empty) (*PingResponse, error)
}

// UnimplementedOnboardingServer can be embedded to have forward compatible
// implementations.
type UnimplementedOnboardingServer struct{}

func unimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}

func (UnimplementedOnboardingServer) Register(context.Context, *RegisterRequest) (*RegisterResponse, error) {
	return nil, unimplemented(MethodRegister)
}
func (UnimplementedOnboardingServer) ResendOTP(context.Context, *EmailRequest) (*Empty, error) {
	return nil, unimplemented(MethodResendOTP)
}
func (UnimplementedOnboardingServer) Verify(context.Context, *VerifyRequest) (*VerifyResponse, error) {
	return nil, unimplemented(MethodVerify)
}
func (UnimplementedOnboardingServer) RequestCompanyVerification(context.Context, *CompanyRequest) (*Empty, error) {
	return nil, unimplemented(MethodRequestCompanyVerification)
}
func (UnimplementedOnboardingServer) VerifyCompany(context.Context, *VerifyCompanyRequest) (*Empty, error) {
	return nil, unimplemented(MethodVerifyCompany)
}
func (UnimplementedOnboardingServer) Login(context.Context, *LoginRequest) (*LoginResponse, error) {
	return nil, unimplemented(MethodLogin)
}
func (UnimplementedOnboardingServer) RequestPasswordReset(context.Context, *EmailRequest) (*Empty, error) {
	return nil, unimplemented(MethodRequestPasswordReset)
}
func (UnimplementedOnboardingServer) ResetPassword(context.Context, *ResetPasswordRequest) (*Empty, error) {
	return nil, unimplemented(MethodResetPassword)
}
func (UnimplementedOnboardingServer) PresignDocumentUpload(context.Context, *PresignUploadRequest) (*PresignUploadResponse, error) {
	return nil, unimplemented(MethodPresignDocumentUpload)
}
func (UnimplementedOnboardingServer) PresignDocumentDownload(context.Context, *PresignDownloadRequest) (*PresignDownloadResponse, error) {
	return nil, unimplemented(MethodPresignDocumentDownload)
}
func (UnimplementedOnboardingServer) ListDocuments(context.Context, *CompanyRequest) (*ListDocumentsResponse, error) {
	return nil, unimplemented(MethodListDocuments)
}
func (UnimplementedOnboardingServer) Ping(context.Context, *Empty) (*PingResponse, error) {
	return nil, unimplemented(MethodPing)
}

// unary builds the method descriptor for one request/response call.
func unary[Req, Resp any](name string, call func(OnboardingServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(OnboardingServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(OnboardingServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// OnboardingServiceDesc is the grpc.ServiceDesc for the Onboarding service.
var OnboardingServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OnboardingServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodRegister, OnboardingServer.Register),
		unary(MethodResendOTP, OnboardingServer.ResendOTP),
		unary(MethodVerify, OnboardingServer.Verify),
		unary(MethodRequestCompanyVerification, OnboardingServer.RequestCompanyVerification),
		unary(MethodVerifyCompany, OnboardingServer.VerifyCompany),
		unary(MethodLogin, OnboardingServer.Login),
		unary(MethodRequestPasswordReset, OnboardingServer.RequestPasswordReset),
		unary(MethodResetPassword, OnboardingServer.ResetPassword),
		unary(MethodPresignDocumentUpload, OnboardingServer.PresignDocumentUpload),
		unary(MethodPresignDocumentDownload, OnboardingServer.PresignDocumentDownload),
		unary(MethodListDocuments, OnboardingServer.ListDocuments),
		unary(MethodPing, OnboardingServer.Ping),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "equitygate/v1/onboarding",
}

func RegisterOnboardingServer(s grpc.ServiceRegistrar, srv OnboardingServer) {
	s.RegisterService(&OnboardingServiceDesc, srv)
}
