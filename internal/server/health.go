package server

import (
	"net"
	"sync/atomic"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// SchedulerService is the health-check service name reported for the
// due-game scheduler. The empty name reports overall server health.
const SchedulerService = "hockeysim.Scheduler"

// HealthService serves the standard gRPC health protocol on a listener.
type HealthService struct {
	logger *zap.Logger
	lis    net.Listener
	grpc   *grpc.Server
	health *health.Server

	overallReported atomic.Bool
}

// NewHealthService registers a health server on a new gRPC server bound to lis.
// Both the overall and scheduler statuses start as NOT_SERVING.
//
// Precondition: lis and logger must be non-nil.
func NewHealthService(lis net.Listener, logger *zap.Logger) *HealthService {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(SchedulerService, healthpb.HealthCheckResponse_NOT_SERVING)

	srv := grpc.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	return &HealthService{logger: logger.Named("health"), lis: lis, grpc: srv, health: hs}
}

// SetServing flips the status reported for service ("" for overall).
func (h *HealthService) SetServing(service string, serving bool) {
	if service == "" {
		h.overallReported.Store(true)
	}
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus(service, status)
}

// Start serves until Stop is called. The overall status is marked SERVING
// unless a check has already reported it.
func (h *HealthService) Start() error {
	h.logger.Info("health server listening", zap.String("addr", h.lis.Addr().String()))
	if h.overallReported.CompareAndSwap(false, true) {
		h.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	}
	return h.grpc.Serve(h.lis)
}

// Stop marks every service NOT_SERVING and drains in-flight RPCs.
func (h *HealthService) Stop() {
	h.health.Shutdown()
	h.grpc.GracefulStop()
}
