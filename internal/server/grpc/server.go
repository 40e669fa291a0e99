// Package grpc serves the standard gRPC health service so orchestrators can
// probe the scoresheets server. Serving status follows the readiness checks.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/bjcp-scoresheets/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const defaultRefreshInterval = 10 * time.Second

// Readiness is satisfied by health.Service.
type Readiness interface {
	Ready(ctx context.Context) error
}

type GRPCServer struct {
	address   string
	logger    logging.Logger
	readiness Readiness
	health    *health.Server
	interval  time.Duration
}

func NewGRPCServer(a string, l logging.Logger, r Readiness) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		readiness: r,
		health:    health.NewServer(),
		interval:  defaultRefreshInterval,
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.recoveryInterceptor, s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)

	s.refresh(ctx)

	go func() {
		s.watch(ctx)
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
