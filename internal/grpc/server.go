package grpc

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name reported for the feed.
const ServiceName = "disasterfeed.Feed"

// Pinger is satisfied by the volunteer store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes the standard gRPC health service so orchestrators can probe
// the feed without going through the rate-limited HTTP router.
type Server struct {
	health     *health.Server
	grpcServer *grpc.Server
	store      Pinger
	interval   time.Duration
	done       chan struct{}
}

func NewServer(store Pinger, interval time.Duration) *Server {
	hs := health.NewServer()
	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	return &Server{
		health:     hs,
		grpcServer: gs,
		store:      store,
		interval:   interval,
		done:       make(chan struct{}),
	}
}

func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	slog.Info("gRPC server listening", "addr", addr)
	return s.Serve(lis)
}

// Serve blocks serving on lis until Stop.
func (s *Server) Serve(lis net.Listener) error {
	s.refresh(context.Background())
	go s.watch()
	return s.grpcServer.Serve(lis)
}

func (s *Server) watch() {
	if s.interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			s.refresh(ctx)
			cancel()
		}
	}
}

func (s *Server) refresh(ctx context.Context) {
	status := healthpb.HealthCheckResponse_SERVING
	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			slog.Warn("health check failed", "error", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

func (s *Server) Stop() {
	select {
	case <-s.done:
		return
	default:
		close(s.done)
	}
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
