package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"runtime/debug"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/syntrixbase/exprcheck/internal/ctxkeys"
	"github.com/syntrixbase/exprcheck/internal/server/ratelimit"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// APIError represents a structured error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(APIError{Code: code, Message: message}); err != nil {
		slog.Warn("Failed to encode error response", "error", err)
	}
}

// GetRequestID retrieves the request ID from the context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(ctxkeys.KeyRequestID).(string); ok {
		return id
	}
	return ""
}

// Middleware defines a function that wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain applies middlewares so that the first one listed runs outermost.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func (s *serverImpl) wrapMiddleware(h http.Handler) http.Handler {
	mws := []Middleware{
		s.recoveryMiddleware,
		s.requestIDMiddleware,
		s.loggingMiddleware,
		s.securityHeadersMiddleware,
	}
	if s.cfg.CORS.Enabled {
		mws = append(mws, s.corsMiddleware)
	}
	if s.rateLimiter != nil {
		mws = append(mws, s.rateLimitMiddleware)
	}
	if s.auth != nil {
		mws = append(mws, s.authMiddleware)
	}
	if s.cfg.MaxBodyBytes > 0 {
		mws = append(mws, BodyLimitMiddleware(s.cfg.MaxBodyBytes))
	}
	if s.cfg.RequestTimeout > 0 {
		mws = append(mws, TimeoutMiddleware(s.cfg.RequestTimeout))
	}
	return Chain(h, mws...)
}

func (s *serverImpl) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("Panic recovered",
					"method", r.Method,
					"path", r.URL.Path,
					"error", err,
					"stack", string(debug.Stack()),
					"request_id", GetRequestID(r.Context()),
				)
				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *serverImpl) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" || len(reqID) > 128 {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		ctx := context.WithValue(r.Context(), ctxkeys.KeyRequestID, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *serverImpl) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(ww, r)

		level := slog.LevelInfo
		if ww.statusCode >= 500 {
			if r.Context().Err() != nil {
				level = slog.LevelWarn
			} else {
				level = slog.LevelError
			}
		}

		s.logger.Log(r.Context(), level, "HTTP Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", GetRequestID(r.Context()),
			"ip", r.RemoteAddr,
		)
	})
}

// TimeoutMiddleware wraps a handler with a context timeout
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BodyLimitMiddleware caps the request body. Reads past the limit fail with
// *http.MaxBytesError.
func BodyLimitMiddleware(limit int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large")
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

func (s *serverImpl) corsMiddleware(next http.Handler) http.Handler {
	cors := s.cfg.CORS
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowed := origin != "" &&
			(len(cors.AllowedOrigins) == 0 || slices.Contains(cors.AllowedOrigins, "*") || slices.Contains(cors.AllowedOrigins, origin))

		if allowed {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			if cors.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			h.Set("Access-Control-Allow-Methods", strings.Join(cors.AllowedMethods, ", "))
			h.Set("Access-Control-Allow-Headers", strings.Join(cors.AllowedHeaders, ", "))
			h.Set("Access-Control-Max-Age", strconv.Itoa(cors.MaxAge))
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *serverImpl) securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'none'")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func (s *serverImpl) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := ratelimit.ClientKey(r, s.cfg.RateLimit.TrustProxy)
		ok, wait := s.rateLimiter.Allow(key)
		if !ok {
			retry := int64(math.Ceil(wait.Seconds()))
			if retry < 1 {
				retry = 1
			}
			w.Header().Set("Retry-After", strconv.FormatInt(retry, 10))
			writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// responseWriter captures the status code for logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// --- gRPC Interceptors ---

func (s *serverImpl) unaryInterceptors() grpc.ServerOption {
	return grpc.ChainUnaryInterceptor(
		s.recoveryUnaryInterceptor,
		s.loggingUnaryInterceptor,
	)
}

func (s *serverImpl) recoveryUnaryInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("gRPC panic recovered",
				"method", info.FullMethod,
				"error", r,
				"stack", string(debug.Stack()),
			)
			err = status.Errorf(codes.Internal, "Internal server error")
		}
	}()
	return handler(ctx, req)
}

func (s *serverImpl) loggingUnaryInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	code := status.Code(err)
	level := slog.LevelDebug
	switch code {
	case codes.OK:
	case codes.Canceled, codes.DeadlineExceeded:
		level = slog.LevelWarn
	case codes.NotFound, codes.InvalidArgument, codes.Unauthenticated, codes.FailedPrecondition:
		level = slog.LevelInfo
	default:
		level = slog.LevelError
	}

	s.logger.Log(ctx, level, "gRPC Request",
		"method", info.FullMethod,
		"code", code.String(),
		"duration", time.Since(start),
		"error", err,
	)
	return resp, err
}
