// Package health serves the gRPC health checking protocol with a status that
// follows the process lifecycle.
package health

import (
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/AltairaLabs/mermaider-mcp/internal/lifecycle"
)

// ServiceName is the health service name reported for the diagram tools.
// The empty name reports the same status for the whole server.
const ServiceName = "mermaider.v1.Diagrams"

// Server is a gRPC server exposing only the health service
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	logger     *slog.Logger
}

// NewServer creates a health server reporting NOT_SERVING until told otherwise
func NewServer(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	hs := health.NewServer()
	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)

	s := &Server{
		grpcServer: grpcServer,
		health:     hs,
		logger:     logger,
	}
	s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// SetState maps a lifecycle state to a serving status. It has the signature
// of a lifecycle state listener.
func (s *Server) SetState(state lifecycle.State) {
	switch state {
	case lifecycle.Serving:
		s.setStatus(healthpb.HealthCheckResponse_SERVING)
	case lifecycle.Closed:
		s.health.Shutdown()
	default:
		s.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	}
}

func (s *Server) setStatus(status healthpb.HealthCheckResponse_ServingStatus) {
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Serve accepts health checks on lis until Stop is called
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("Starting gRPC health server", "address", lis.Addr().String())
	return s.grpcServer.Serve(lis)
}

// Stop stops the server, closing open connections
func (s *Server) Stop() {
	s.grpcServer.Stop()
}
