package grpc

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/equitygate/internal/common"
	pb "github.com/dmitrijs2005/equitygate/internal/proto"
	"github.com/dmitrijs2005/equitygate/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// protectedMethods require a bearer token.
var protectedMethods = map[string]bool{
	pb.FullMethod(pb.MethodRequestCompanyVerification): true,
	pb.FullMethod(pb.MethodVerifyCompany):              true,
	pb.FullMethod(pb.MethodPresignDocumentUpload):      true,
	pb.FullMethod(pb.MethodPresignDocumentDownload):    true,
	pb.FullMethod(pb.MethodListDocuments):              true,
}

func bearerToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(common.AuthorizationHeaderName)
	if len(values) == 0 {
		return ""
	}
	token, found := strings.CutPrefix(values[0], common.BearerPrefix)
	if !found {
		return ""
	}
	return strings.TrimSpace(token)
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {

	if protectedMethods[info.FullMethod] {

		accessToken := bearerToken(ctx)
		if len(accessToken) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing token")
		}

		claims, err := s.services.Sessions.Authenticate(accessToken)
		if err != nil {
			s.logger.Info(ctx, "rejected access token", "method", info.FullMethod, "error", err)
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}

		ctx = context.WithValue(ctx, claimsKey, claims)
	}

	return handler(ctx, req)
}

// claimsFromContext returns the claims stored by accessTokenInterceptor.
func claimsFromContext(ctx context.Context) (*auth.Claims, error) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	if !ok || claims == nil {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}
	return claims, nil
}
