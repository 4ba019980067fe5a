package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func localConfig() Config {
	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.HTTPPort = 0
	cfg.GRPCPort = 0
	return cfg
}

func healthStatus(t *testing.T, srv *serverImpl, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := srv.health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	require.NoError(t, err)
	return resp.Status
}

func TestServer_Lifecycle(t *testing.T) {
	svc, err := New(localConfig(), nil)
	require.NoError(t, err)
	srv := svc.(*serverImpl)

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, healthStatus(t, srv, HealthServiceName))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Start(ctx) }()

	require.Eventually(t, func() bool {
		return healthStatus(t, srv, HealthServiceName) == healthpb.HealthCheckResponse_SERVING
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, healthStatus(t, srv, ""))

	assert.EqualError(t, svc.Start(context.Background()), "server already started")

	cancel()
	require.NoError(t, <-done)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	require.NoError(t, svc.Stop(stopCtx))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, healthStatus(t, srv, HealthServiceName))
}

func freePort(t *testing.T) int {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := lis.Addr().(*net.TCPAddr).Port
	require.NoError(t, lis.Close())
	return port
}

type pingServer interface{}

func TestServer_RegisterGRPCService(t *testing.T) {
	cfg := localConfig()
	cfg.GRPCPort = freePort(t)
	svc, err := New(cfg, nil)
	require.NoError(t, err)
	srv := svc.(*serverImpl)

	svc.RegisterGRPCService(&grpc.ServiceDesc{
		ServiceName: "exprcheck.test.Ping",
		HandlerType: (*pingServer)(nil),
	}, struct{}{})

	info := srv.grpcServer.GetServiceInfo()
	assert.Contains(t, info, "exprcheck.test.Ping")
	assert.Contains(t, info, healthpb.Health_ServiceDesc.ServiceName)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Start(ctx) }()
	defer func() {
		cancel()
		<-done
		stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
		defer stopCancel()
		_ = svc.Stop(stopCtx)
	}()

	conn, err := grpc.NewClient(net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.GRPCPort)),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	client := healthpb.NewHealthClient(conn)
	require.Eventually(t, func() bool {
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: HealthServiceName})
		return err == nil && resp.Status == healthpb.HealthCheckResponse_SERVING
	}, 2*time.Second, 20*time.Millisecond)
}

func TestServer_StopWithoutStart(t *testing.T) {
	svc, err := New(localConfig(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, svc.Stop(ctx))
}

func TestServer_HandlerServesRegisteredRoutes(t *testing.T) {
	svc, err := New(localConfig(), nil)
	require.NoError(t, err)

	svc.RegisterHTTPHandler("GET /hello", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(GetRequestID(r.Context())))
	}))

	w := httptest.NewRecorder()
	svc.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/hello", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, w.Header().Get("X-Request-ID"), w.Body.String())
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}
