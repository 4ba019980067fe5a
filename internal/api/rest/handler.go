// Package rest exposes the validator over HTTP.
package rest

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	form "github.com/gorilla/schema"
	"github.com/syntrixbase/exprcheck/internal/store"
	"github.com/syntrixbase/exprcheck/internal/validator"
	"github.com/syntrixbase/exprcheck/pkg/schema"
)

// Error codes
const (
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeEntityNotFound  = "ENTITY_NOT_FOUND"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeQueryDisabled   = "QUERY_DISABLED"
	ErrCodeInternalError   = "INTERNAL_ERROR"
)

// StatusClientClosedRequest is written when the caller went away before the
// response was ready.
const StatusClientClosedRequest = 499

// APIError represents a structured error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Handler struct {
	validator *validator.Service
	registry  *schema.Registry
	store     store.Store
	decoder   *form.Decoder
}

// NewHandler wires the REST handlers. st may be nil, in which case the
// query endpoint reports QUERY_DISABLED.
func NewHandler(v *validator.Service, registry *schema.Registry, st store.Store) *Handler {
	if v == nil {
		panic("validator service cannot be nil")
	}
	if registry == nil {
		panic("schema registry cannot be nil")
	}

	decoder := form.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	return &Handler{
		validator: v,
		registry:  registry,
		store:     st,
		decoder:   decoder,
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Request ID, recovery, auth, body limits and timeouts come from the
	// server middleware chain.
	mux.HandleFunc("GET /health", h.handleHealth)

	mux.HandleFunc("POST /api/v1/validate", h.handleValidate)
	mux.HandleFunc("POST /api/v1/query", h.handleQuery)

	mux.HandleFunc("GET /api/v1/schemas", h.handleListSchemas)
	mux.HandleFunc("GET /api/v1/schemas/{entity}", h.handleGetSchema)
}

func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, APIError{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("Failed to encode JSON response", "error", err)
	}
}

// writeInternalError answers 499 for canceled requests and 500 otherwise.
func writeInternalError(w http.ResponseWriter, err error, message string) {
	if store.IsCanceled(err) {
		w.WriteHeader(StatusClientClosedRequest)
		return
	}
	slog.Error(message, "error", err)
	writeError(w, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// readBody reads the request body, answering 413 or 400 itself on failure.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodeRequestTooLarge, "Request body too large")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Failed to read request body")
		return nil, false
	}
	return body, true
}

// writeValidationError maps errors returned by validator.Service.Validate.
func writeValidationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schema.ErrUnknownEntity):
		writeError(w, http.StatusNotFound, ErrCodeEntityNotFound, "Entity not found")
	case errors.Is(err, validator.ErrNoEntity):
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Entity is required")
	default:
		writeInternalError(w, err, "Validation failed")
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
