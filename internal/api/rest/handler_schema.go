package rest

import (
	"net/http"

	"github.com/syntrixbase/exprcheck/internal/translator"
	"github.com/syntrixbase/exprcheck/pkg/model"
	"github.com/syntrixbase/exprcheck/pkg/schema"
)

// FieldView describes a field and the operators it accepts.
type FieldView struct {
	schema.Field
	Operators []model.Operator `json:"operators"`
}

// EntityView is the public description of an entity.
type EntityView struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Fields      []FieldView `json:"fields"`
}

// SchemasResponse is the body of GET /api/v1/schemas.
type SchemasResponse struct {
	MatrixVersion string                                `json:"matrixVersion"`
	DefaultEntity string                                `json:"defaultEntity,omitempty"`
	Operators     map[schema.FieldType][]model.Operator `json:"operators"`
	Entities      []EntityView                          `json:"entities"`
}

func entityView(e *schema.Entity) EntityView {
	view := EntityView{
		Name:        e.Name,
		Description: e.Description,
		Fields:      make([]FieldView, len(e.Fields)),
	}
	for i, f := range e.Fields {
		view.Fields[i] = FieldView{Field: f, Operators: translator.OperatorsFor(f.Type)}
	}
	return view
}

func (h *Handler) handleListSchemas(w http.ResponseWriter, r *http.Request) {
	entities := h.registry.Entities()
	resp := SchemasResponse{
		MatrixVersion: translator.MatrixVersion,
		DefaultEntity: h.validator.DefaultEntity(),
		Operators:     translator.Matrix(),
		Entities:      make([]EntityView, len(entities)),
	}
	for i, e := range entities {
		resp.Entities[i] = entityView(e)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	e, err := h.registry.Entity(r.PathValue("entity"))
	if err != nil {
		writeError(w, http.StatusNotFound, ErrCodeEntityNotFound, "Entity not found")
		return
	}
	writeJSON(w, http.StatusOK, entityView(e))
}
