package grpc

import (
	"context"

	pb "github.com/dmitrijs2005/equitygate/internal/proto"
	"github.com/dmitrijs2005/equitygate/internal/server/models"
	"github.com/dmitrijs2005/equitygate/internal/server/services"
)

func (s *GRPCServer) Register(ctx context.Context, req *pb.RegisterRequest) (*pb.RegisterResponse, error) {

	s.logger.Info(ctx, "Registration request", "role", req.Role)

	result, err := s.services.Registration.Register(ctx, services.RegisterInput{
		Email:        req.Email,
		Password:     req.Password,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
		CompanyName:  req.CompanyName,
		ContactEmail: req.ContactEmail,
		Website:      req.Website,
		InvestorType: req.InvestorType,
		Budget:       req.Budget,
		SharesHeld:   req.SharesHeld,
		ShareValue:   req.ShareValue,
	})
	if err != nil {
		return nil, s.toStatus(ctx, pb.MethodRegister, err)
	}

	return &pb.RegisterResponse{Status: result.Status, CredentialID: result.CredentialID}, nil
}

func (s *GRPCServer) ResendOTP(ctx context.Context, req *pb.EmailRequest) (*pb.Empty, error) {
	if err := s.services.Registration.ResendOTP(ctx, req.Email); err != nil {
		return nil, s.toStatus(ctx, pb.MethodResendOTP, err)
	}
	return &pb.Empty{}, nil
}

func (s *GRPCServer) Verify(ctx context.Context, req *pb.VerifyRequest) (*pb.VerifyResponse, error) {

	result, err := s.services.Verification.Verify(ctx, req.Email, req.Code)
	if err != nil {
		return nil, s.toStatus(ctx, pb.MethodVerify, err)
	}

	return &pb.VerifyResponse{
		CredentialID:                result.CredentialID,
		Role:                        string(result.Role),
		CompanyID:                   result.CompanyID,
		CompanyVerificationRequired: result.CompanyVerificationRequired,
	}, nil
}

func (s *GRPCServer) RequestCompanyVerification(ctx context.Context, req *pb.CompanyRequest) (*pb.Empty, error) {
	claims, err := claimsFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.services.Verification.RequestCompanyVerification(ctx, claims.Subject, req.CompanyID); err != nil {
		return nil, s.toStatus(ctx, pb.MethodRequestCompanyVerification, err)
	}
	return &pb.Empty{}, nil
}

func (s *GRPCServer) VerifyCompany(ctx context.Context, req *pb.VerifyCompanyRequest) (*pb.Empty, error) {
	claims, err := claimsFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.services.Verification.VerifyCompany(ctx, claims.Subject, req.CompanyID, req.Code); err != nil {
		return nil, s.toStatus(ctx, pb.MethodVerifyCompany, err)
	}
	return &pb.Empty{}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *pb.LoginRequest) (*pb.LoginResponse, error) {

	session, err := s.services.Sessions.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, pb.MethodLogin, err)
	}

	return &pb.LoginResponse{
		AccessToken:  session.Token,
		ExpiresAt:    session.ExpiresAt,
		CredentialID: session.CredentialID,
		Role:         string(session.Role),
	}, nil
}

func (s *GRPCServer) RequestPasswordReset(ctx context.Context, req *pb.EmailRequest) (*pb.Empty, error) {
	if err := s.services.PasswordReset.Request(ctx, req.Email); err != nil {
		return nil, s.toStatus(ctx, pb.MethodRequestPasswordReset, err)
	}
	return &pb.Empty{}, nil
}

func (s *GRPCServer) ResetPassword(ctx context.Context, req *pb.ResetPasswordRequest) (*pb.Empty, error) {
	if err := s.services.PasswordReset.Reset(ctx, req.Token, req.NewPassword); err != nil {
		return nil, s.toStatus(ctx, pb.MethodResetPassword, err)
	}
	return &pb.Empty{}, nil
}

func (s *GRPCServer) PresignDocumentUpload(ctx context.Context, req *pb.PresignUploadRequest) (*pb.PresignUploadResponse, error) {
	claims, err := claimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	ticket, err := s.services.Documents.PresignUpload(ctx, claims.Subject, req.CompanyID, models.DocumentKind(req.Kind))
	if err != nil {
		return nil, s.toStatus(ctx, pb.MethodPresignDocumentUpload, err)
	}

	return &pb.PresignUploadResponse{
		DocumentID: ticket.DocumentID,
		StorageKey: ticket.StorageKey,
		URL:        ticket.URL,
		ExpiresAt:  ticket.ExpiresAt,
	}, nil
}

func (s *GRPCServer) PresignDocumentDownload(ctx context.Context, req *pb.PresignDownloadRequest) (*pb.PresignDownloadResponse, error) {
	claims, err := claimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	url, err := s.services.Documents.PresignDownload(ctx, claims.Subject, req.DocumentID)
	if err != nil {
		return nil, s.toStatus(ctx, pb.MethodPresignDocumentDownload, err)
	}
	return &pb.PresignDownloadResponse{URL: url}, nil
}

func (s *GRPCServer) ListDocuments(ctx context.Context, req *pb.CompanyRequest) (*pb.ListDocumentsResponse, error) {
	claims, err := claimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	docs, err := s.services.Documents.ListDocuments(ctx, claims.Subject, req.CompanyID)
	if err != nil {
		return nil, s.toStatus(ctx, pb.MethodListDocuments, err)
	}

	resp := &pb.ListDocumentsResponse{Documents: make([]*pb.Document, 0, len(docs))}
	for _, d := range docs {
		resp.Documents = append(resp.Documents, &pb.Document{
			ID:         d.ID,
			Kind:       string(d.Kind),
			StorageKey: d.StorageKey,
			CreatedAt:  d.CreatedAt,
		})
	}
	return resp, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *pb.Empty) (*pb.PingResponse, error) {

	return &pb.PingResponse{Status: "OK"}, nil

}
