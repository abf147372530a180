package server

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthServer serves grpc.health.v1 for orchestrators that probe over gRPC.
// With a Pinger attached, serving status follows the job store.
type HealthServer struct {
	grpc   *grpc.Server
	health *health.Server
	pinger Pinger
	logger *slog.Logger
	stop   chan struct{}
}

func NewHealthServer(pinger Pinger, logger *slog.Logger) *HealthServer {
	if logger == nil {
		logger = slog.Default()
	}
	gs := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	// reflection for grpcurl
	reflection.Register(gs)
	return &HealthServer{grpc: gs, health: hs, pinger: pinger, logger: logger, stop: make(chan struct{})}
}

// Serve blocks serving on lis until Stop.
func (h *HealthServer) Serve(lis net.Listener) error {
	if h.pinger != nil {
		go h.watch(15 * time.Second)
	}
	h.logger.Info("grpc.health.serve", "addr", lis.Addr().String())
	return h.grpc.Serve(lis)
}

// Check refreshes the serving status from the pinger and returns it.
func (h *HealthServer) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := h.pinger.Ping(ctx); err != nil {
			h.logger.Warn("health.ping.failed", "error", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	h.health.SetServingStatus("", status)
	return status
}

func (h *HealthServer) watch(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-h.stop:
			return
		case <-t.C:
			h.Check(context.Background())
		}
	}
}

func (h *HealthServer) Stop() {
	select {
	case <-h.stop:
	default:
		close(h.stop)
	}
	h.health.Shutdown()
	h.grpc.GracefulStop()
}
