package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/syntrixbase/exprcheck/internal/server/ratelimit"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// HealthServiceName is the gRPC health service name reported for the API.
const HealthServiceName = "exprcheck.v1.Validator"

type serverImpl struct {
	cfg    Config
	logger *slog.Logger

	// HTTP State
	httpMux    *http.ServeMux
	httpServer *http.Server

	rateLimiter ratelimit.Limiter
	auth        *Authenticator

	// gRPC State
	grpcServer *grpc.Server
	health     *health.Server

	// Lifecycle State
	mu      sync.Mutex
	started bool
}

// New creates a new Service instance. It fails when auth is enabled
// without a usable secret.
func New(cfg Config, logger *slog.Logger) (Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "server")

	s := &serverImpl{
		cfg:     cfg,
		logger:  logger,
		httpMux: http.NewServeMux(),
		health:  health.NewServer(),
	}

	if cfg.RateLimit.Enabled {
		s.rateLimiter = ratelimit.NewMemoryLimiter(cfg.RateLimit)
	}

	if cfg.Auth.Enabled {
		auth, err := NewAuthenticator(cfg.Auth)
		if err != nil {
			return nil, fmt.Errorf("server: %w", err)
		}
		s.auth = auth
	}

	// gRPC server is created up front so services can register before Start.
	opts := []grpc.ServerOption{s.unaryInterceptors()}
	if cfg.GRPCMaxConcurrent > 0 {
		opts = append(opts, grpc.MaxConcurrentStreams(uint32(cfg.GRPCMaxConcurrent)))
	}
	s.grpcServer = grpc.NewServer(opts...)
	s.RegisterGRPCService(&healthpb.Health_ServiceDesc, s.health)
	s.health.SetServingStatus(HealthServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	if cfg.EnableReflection {
		reflection.Register(s.grpcServer)
	}

	return s, nil
}

func (s *serverImpl) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("server already started")
	}
	s.started = true
	s.initHTTPServer()
	s.mu.Unlock()

	errChan := make(chan error, 2)
	go s.runHTTPServer(errChan)
	go s.runGRPCServer(errChan)

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(HealthServiceName, healthpb.HealthCheckResponse_SERVING)

	select {
	case err := <-errChan:
		s.health.Shutdown()
		return err
	case <-ctx.Done():
		return nil
	}
}

func (s *serverImpl) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.health.Shutdown()

	var wg sync.WaitGroup
	errChan := make(chan error, 1)

	if s.httpServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.logger.Info("Stopping HTTP server")
			if err := s.httpServer.Shutdown(ctx); err != nil {
				errChan <- fmt.Errorf("http shutdown error: %w", err)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		s.logger.Info("Stopping gRPC server")
		done := make(chan struct{})
		go func() {
			s.grpcServer.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			s.logger.Warn("Context deadline exceeded, forcing gRPC stop")
			s.grpcServer.Stop()
		}
	}()

	wg.Wait()
	close(errChan)

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}

	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *serverImpl) RegisterHTTPHandler(pattern string, handler http.Handler) {
	s.httpMux.Handle(pattern, handler)
}

func (s *serverImpl) RegisterGRPCService(desc *grpc.ServiceDesc, impl interface{}) {
	s.grpcServer.RegisterService(desc, impl)
}

func (s *serverImpl) HTTPMux() *http.ServeMux {
	return s.httpMux
}

func (s *serverImpl) Handler() http.Handler {
	return s.wrapMiddleware(s.httpMux)
}
