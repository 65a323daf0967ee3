package healthcheck

import (
	"context"
	"net"
	"sync"
	"time"

	"smart_cycle_market/pkg/logger"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Probe reports whether one backing dependency is reachable
type Probe func(ctx context.Context) error

// Server grpc health service whose status follows the registered probes
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	service    string

	mu     sync.Mutex
	probes map[string]Probe
}

// NewServer create a health server for service
func NewServer(service string) *Server {
	s := &Server{
		grpcServer: grpc.NewServer(),
		health:     health.NewServer(),
		service:    service,
		probes:     map[string]Probe{},
	}
	healthpb.RegisterHealthServer(s.grpcServer, s.health)
	s.health.SetServingStatus(service, healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

// AddProbe registers a dependency check under name
func (s *Server) AddProbe(name string, p Probe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.probes[name] = p
}

// Check runs every probe once and updates the serving status
func (s *Server) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	s.mu.Lock()
	probes := make(map[string]Probe, len(s.probes))
	for k, v := range s.probes {
		probes[k] = v
	}
	s.mu.Unlock()

	status := healthpb.HealthCheckResponse_SERVING
	for name, p := range probes {
		if err := p(ctx); err != nil {
			logger.Log.Warn("health probe failed", zap.String("probe", name), zap.Error(err))
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	s.health.SetServingStatus(s.service, status)
	s.health.SetServingStatus("", status)
	return status
}

// Serve runs the grpc server on lis and re-checks probes every interval until ctx ends
func (s *Server) Serve(ctx context.Context, lis net.Listener, interval time.Duration) error {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		s.Check(ctx)
		for {
			select {
			case <-ticker.C:
				s.Check(ctx)
			case <-ctx.Done():
				s.health.Shutdown()
				s.grpcServer.GracefulStop()
				return
			}
		}
	}()
	return s.grpcServer.Serve(lis)
}
