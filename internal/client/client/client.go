package client

import (
	"context"

	pb "github.com/dmitrijs2005/equitygate/internal/proto"
)

// Client is the API surface used by the CLI.
type Client interface {
	Close() error
	Ping(ctx context.Context) error

	Register(ctx context.Context, req *pb.RegisterRequest) (*pb.RegisterResponse, error)
	ResendOTP(ctx context.Context, email string) error
	Verify(ctx context.Context, email, code string) (*pb.VerifyResponse, error)

	Login(ctx context.Context, email string, password []byte) (*pb.LoginResponse, error)
	Logout()
	LoggedIn() bool

	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token string, newPassword []byte) error

	RequestCompanyVerification(ctx context.Context, companyID string) error
	VerifyCompany(ctx context.Context, companyID, code string) error

	PresignUpload(ctx context.Context, companyID, kind string) (*pb.PresignUploadResponse, error)
	ListDocuments(ctx context.Context, companyID string) ([]*pb.Document, error)
	PresignDownload(ctx context.Context, documentID string) (string, error)
}
