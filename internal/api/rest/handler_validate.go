package rest

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/syntrixbase/exprcheck/internal/validator"
)

// ValidateParams are the query parameters of POST /api/v1/validate.
type ValidateParams struct {
	Entity string   `schema:"entity"`
	Render []string `schema:"render"`
}

// Formats resolves the render parameter. Values may repeat or be comma
// separated.
func (p ValidateParams) Formats() ([]validator.Format, error) {
	var formats []validator.Format
	seen := make(map[validator.Format]bool)
	for _, raw := range p.Render {
		for _, name := range strings.Split(raw, ",") {
			if strings.TrimSpace(name) == "" {
				continue
			}
			f, err := validator.ParseFormat(name)
			if err != nil {
				return nil, err
			}
			if !seen[f] {
				seen[f] = true
				formats = append(formats, f)
			}
		}
	}
	return formats, nil
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var params ValidateParams
	if err := h.decoder.Decode(&params, r.URL.Query()); err != nil {
		slog.Warn("Validate: invalid query parameters", "error", err)
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, "Invalid query parameters")
		return
	}
	formats, err := params.Formats()
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	body, ok := readBody(w, r)
	if !ok {
		return
	}

	out, err := h.validator.Validate(r.Context(), body, params.Entity, formats...)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	status := http.StatusOK
	if !out.Valid {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, out)
}
