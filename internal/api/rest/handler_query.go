package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/syntrixbase/exprcheck/internal/store"
)

// DefaultQueryLimit applies when the limit parameter is absent.
const DefaultQueryLimit = 100

// QueryParams are the query parameters of POST /api/v1/query.
type QueryParams struct {
	Entity string `schema:"entity"`
	Limit  int    `schema:"limit"`
}

// QueryResponse is the body of a successful query.
type QueryResponse struct {
	Entity     string           `json:"entity"`
	Normalized json.RawMessage  `json:"normalized"`
	Count      int              `json:"count"`
	Documents  []store.Document `json:"documents"`
}

func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	var params QueryParams
	if err := h.decoder.Decode(&params, r.URL.Query()); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid query parameters")
		return
	}
	if params.Limit == 0 {
		params.Limit = DefaultQueryLimit
	}
	if params.Limit < 0 || params.Limit > store.MaxLimit {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("Limit must be between 1 and %d", store.MaxLimit))
		return
	}

	if h.store == nil {
		writeError(w, http.StatusNotImplemented, ErrCodeQueryDisabled, "No query backend configured")
		return
	}

	body, ok := readBody(w, r)
	if !ok {
		return
	}

	out, err := h.validator.Validate(r.Context(), body, params.Entity)
	if err != nil {
		writeValidationError(w, err)
		return
	}
	if !out.Valid {
		writeJSON(w, http.StatusUnprocessableEntity, out)
		return
	}

	entity, err := h.registry.Entity(out.Entity)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	docs, err := h.store.Find(r.Context(), entity, out.Predicate, params.Limit)
	if err != nil {
		if errors.Is(err, store.ErrNoBackend) {
			writeError(w, http.StatusNotImplemented, ErrCodeQueryDisabled, "No query backend configured")
			return
		}
		writeInternalError(w, err, "Query failed")
		return
	}
	if docs == nil {
		docs = []store.Document{}
	}

	writeJSON(w, http.StatusOK, QueryResponse{
		Entity:     out.Entity,
		Normalized: out.Normalized,
		Count:      len(docs),
		Documents:  docs,
	})
}
