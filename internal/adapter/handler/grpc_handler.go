package handler

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/24f2006233/vyappar-smart/internal/port"
	"github.com/24f2006233/vyappar-smart/pkg/logger"
)

// StoreServiceName is the gRPC health service name that tracks the backing store.
const StoreServiceName = "vyappar.Store"

// GRPCHealthHandler serves grpc.health.v1 and keeps the reported status in
// line with the store's reachability.
type GRPCHealthHandler struct {
	server *health.Server
	store  port.KVStore
	log    *logger.Logger
}

func NewGRPCHealthHandler(store port.KVStore, log *logger.Logger) *GRPCHealthHandler {
	return &GRPCHealthHandler{
		server: health.NewServer(),
		store:  store,
		log:    log,
	}
}

func (h *GRPCHealthHandler) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
}

// Refresh pings the store once and publishes the resulting status.
func (h *GRPCHealthHandler) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if err := h.store.Ping(ctx); err != nil {
		h.log.Warnw("store health check failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(StoreServiceName, status)
	return status
}

// Run refreshes the status every interval until ctx is done.
func (h *GRPCHealthHandler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, interval)
			h.Refresh(pingCtx)
			cancel()
		}
	}
}

// Shutdown marks every service NOT_SERVING and ignores later updates.
func (h *GRPCHealthHandler) Shutdown() {
	h.server.Shutdown()
}
