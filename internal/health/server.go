package health

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"
)

// ServiceName - имя сервиса для grpc.health.v1.Health/Check
const ServiceName = "todo.v1.TodoService"

const pingTimeout = 2 * time.Second

// Pinger проверяет доступность хранилища
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server отвечает на health-check по состоянию хранилища. Watch не поддерживается.
type Server struct {
	healthpb.UnimplementedHealthServer
	store  Pinger
	logger *logrus.Logger
}

func NewServer(store Pinger, logger *logrus.Logger) *Server {
	return &Server{store: store, logger: logger}
}

// Check: пустое имя - весь процесс, ServiceName - хранилище задач
func (s *Server) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	var requestID string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get("x-request-id"); len(values) > 0 {
			requestID = values[0]
		}
	}

	logEntry := s.logger.WithFields(logrus.Fields{
		"component":       "grpc_health",
		"request_id":      requestID,
		"checked_service": req.GetService(),
	})

	switch req.GetService() {
	case "", ServiceName:
	default:
		logEntry.Warn("health check for unknown service")
		return nil, status.Error(codes.NotFound, "unknown service")
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := s.store.Ping(pingCtx); err != nil {
		logEntry.WithError(err).Warn("store is not reachable")
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}

	logEntry.Debug("health check passed")
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}

// NewGRPCServer создаёт gRPC сервер с health и reflection
func NewGRPCServer(store Pinger, logger *logrus.Logger) *grpc.Server {
	s := grpc.NewServer()
	healthpb.RegisterHealthServer(s, NewServer(store, logger))
	reflection.Register(s)
	return s
}
