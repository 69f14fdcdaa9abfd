package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/equitygate/internal/logging"
	pb "github.com/dmitrijs2005/equitygate/internal/proto"
	"github.com/dmitrijs2005/equitygate/internal/server/services"
	"google.golang.org/grpc"
)

type GRPCServer struct {
	pb.UnimplementedOnboardingServer
	address  string
	services services.Set
	logger   logging.Logger
	now      func() time.Time
}

func NewGRPCServer(a string, l logging.Logger, set services.Set) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		services: set,
		now:      time.Now,
	}
}

// newServer creates the gRPC server with the auth interceptor and the
// Onboarding service registered.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))
	pb.RegisterOnboardingServer(srv, s)
	return srv
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}
	<-stopped
	return nil
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}
