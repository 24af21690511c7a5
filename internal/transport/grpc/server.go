// Package grpcx: служебный gRPC-сервер: стандартный grpc.health.v1.
package grpcx

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName: имя в health-протоколе для всего процесса.
const ServiceName = "globalbus.Session"

type Server struct {
	addr   string
	srv    *grpc.Server
	health *health.Server
}

func NewServer(addr string) *Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(StreamServerInterceptor()),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &Server{addr: addr, srv: srv, health: hs}
}

// Serve слушает lis до отмены ctx. SERVING выставляется после старта,
// NOT_SERVING: перед остановкой.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(lis)
	}()
	s.setServing(true)
	slog.Info("grpc listen", "addr", lis.Addr().String())

	select {
	case <-ctx.Done():
		s.setServing(false)
		s.srv.GracefulStop()
		return nil
	case err := <-errCh:
		s.setServing(false)
		return err
	}
}

// Run открывает TCP на addr и вызывает Serve.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("grpc listen %s: %w", s.addr, err)
	}
	return s.Serve(ctx, lis)
}

func (s *Server) setServing(ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}
