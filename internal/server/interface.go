package server

import (
	"context"
	"net/http"

	"google.golang.org/grpc"
)

// Service is the network layer: one HTTP listener for the REST API and one
// gRPC listener carrying the health service.
type Service interface {
	// Start runs both listeners and blocks until one fails or ctx is done.
	Start(ctx context.Context) error

	// Stop drains connections until ctx expires.
	Stop(ctx context.Context) error

	// RegisterHTTPHandler must be called before Start.
	RegisterHTTPHandler(pattern string, handler http.Handler)

	// RegisterGRPCService must be called before Start.
	RegisterGRPCService(desc *grpc.ServiceDesc, impl interface{})

	HTTPMux() *http.ServeMux

	// Handler returns the mux wrapped in the configured middleware chain.
	Handler() http.Handler
}
