// Package validator runs the full validation pipeline for one filter
// document: parse, translate against the schema, render and report.
package validator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/syntrixbase/exprcheck/internal/ctxkeys"
	"github.com/syntrixbase/exprcheck/internal/events"
	"github.com/syntrixbase/exprcheck/internal/predicate"
	"github.com/syntrixbase/exprcheck/internal/predicate/cel"
	"github.com/syntrixbase/exprcheck/internal/predicate/mongo"
	"github.com/syntrixbase/exprcheck/internal/predicate/sql"
	"github.com/syntrixbase/exprcheck/internal/translator"
	"github.com/syntrixbase/exprcheck/pkg/model"
	"github.com/syntrixbase/exprcheck/pkg/schema"
	"go.mongodb.org/mongo-driver/bson"
)

// ErrNoEntity is returned when neither the request nor the configuration
// names an entity.
var ErrNoEntity = errors.New("no entity given and no default entity configured")

// Format names a backend rendering of a valid predicate.
type Format string

const (
	FormatMongo Format = "mongo"
	FormatSQL   Format = "sql"
	FormatCEL   Format = "cel"
)

// ParseFormat resolves a format name, ignoring case.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatMongo, FormatSQL, FormatCEL:
		return f, nil
	default:
		return "", fmt.Errorf("unknown render format %q (must be mongo, sql, or cel)", name)
	}
}

// Renderings holds the requested backend forms of a valid predicate.
type Renderings struct {
	Mongo json.RawMessage `json:"mongo,omitempty"`
	SQL   *sql.Clause     `json:"sql,omitempty"`
	CEL   string          `json:"cel,omitempty"`
}

// Outcome is the typed result of one validation. Exactly one of
// Normalized and Errors is set.
type Outcome struct {
	Valid  bool   `json:"valid"`
	Entity string `json:"entity"`

	Normalized json.RawMessage `json:"normalized,omitempty"`
	Fields     []string        `json:"fields,omitempty"`
	Renderings *Renderings     `json:"renderings,omitempty"`

	Errors []translator.Problem `json:"errors,omitempty"`

	// Pretty is the indented normalized expression.
	Pretty string `json:"-"`
	// Predicate is the translated predicate of a valid expression.
	Predicate predicate.Predicate `json:"-"`
}

// Service validates filter documents against one schema snapshot.
type Service struct {
	translator    *translator.Translator
	publisher     events.Publisher
	logger        *slog.Logger
	defaultEntity string
}

// New wires a Service. A nil publisher drops events and a nil logger uses
// slog.Default.
func New(tr *translator.Translator, publisher events.Publisher, logger *slog.Logger, defaultEntity string) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		translator:    tr,
		publisher:     publisher,
		logger:        logger.With("component", "validator"),
		defaultEntity: defaultEntity,
	}
}

// DefaultEntity returns the entity used when a request names none.
func (s *Service) DefaultEntity() string {
	return s.defaultEntity
}

// Validate checks body against entity. Problems in the document are
// reported in the Outcome; the error is reserved for an unknown entity
// (wrapping schema.ErrUnknownEntity), ErrNoEntity and rendering failures.
func (s *Service) Validate(ctx context.Context, body []byte, entity string, formats ...Format) (*Outcome, error) {
	if entity == "" {
		entity = s.defaultEntity
	}
	if entity == "" {
		return nil, ErrNoEntity
	}
	logger := s.logger.With("entity", entity)
	if id, ok := ctx.Value(ctxkeys.KeyRequestID).(string); ok {
		logger = logger.With("request_id", id)
	}

	expr, err := model.Parse(body)
	if err != nil {
		var malformed *model.MalformedExpressionError
		if !errors.As(err, &malformed) {
			return nil, fmt.Errorf("parse: %w", err)
		}
		logger.Warn("Malformed expression", "path", malformed.Pointer.String(), "reason", malformed.Reason)
		return s.reject(ctx, entity, []translator.Problem{translator.ProblemOf(err)}), nil
	}

	pred, err := s.translator.Translate(expr, entity)
	if err != nil {
		var verrs translator.ValidationErrors
		if errors.As(err, &verrs) {
			problems := verrs.Problems()
			logger.Info("Expression rejected", "problems", len(problems), "first", problems[0].Message)
			return s.reject(ctx, entity, problems), nil
		}
		if errors.Is(err, schema.ErrUnknownEntity) {
			logger.Info("Unknown entity")
		}
		return nil, err
	}

	normalized, err := expr.Normalize()
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}
	pretty, err := expr.Indent()
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}

	out := &Outcome{
		Valid:      true,
		Entity:     entity,
		Normalized: normalized,
		Fields:     predicate.Fields(pred),
		Pretty:     pretty,
		Predicate:  pred,
	}
	if len(formats) > 0 {
		out.Renderings, err = Render(pred, formats...)
		if err != nil {
			return nil, err
		}
	}

	logger.Info("Expression validated", "fields", len(out.Fields))
	s.publish(ctx, events.TypeValidated, out)
	return out, nil
}

func (s *Service) reject(ctx context.Context, entity string, problems []translator.Problem) *Outcome {
	out := &Outcome{Entity: entity, Errors: problems}
	s.publish(ctx, events.TypeRejected, out)
	return out
}

// publish reports the outcome. Delivery failures are logged and never fail
// the validation.
func (s *Service) publish(ctx context.Context, t events.Type, out *Outcome) {
	evt := events.NewEvent(t, out.Entity)
	evt.Fields = out.Fields
	evt.Problems = out.Errors
	if id, ok := ctx.Value(ctxkeys.KeyRequestID).(string); ok {
		evt.RequestID = id
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("Failed to publish outcome event", "type", t, "entity", out.Entity, "error", err)
	}
}

// Render produces the requested backend forms of p.
func Render(p predicate.Predicate, formats ...Format) (*Renderings, error) {
	r := &Renderings{}
	for _, f := range formats {
		switch f {
		case FormatMongo:
			filter, err := mongo.Render(p)
			if err != nil {
				return nil, fmt.Errorf("render mongo: %w", err)
			}
			data, err := bson.MarshalExtJSON(filter, false, false)
			if err != nil {
				return nil, fmt.Errorf("render mongo: %w", err)
			}
			r.Mongo = data
		case FormatSQL:
			clause, err := sql.Render(p)
			if err != nil {
				return nil, fmt.Errorf("render sql: %w", err)
			}
			r.SQL = &clause
		case FormatCEL:
			src, err := cel.Source(p)
			if err != nil {
				return nil, fmt.Errorf("render cel: %w", err)
			}
			r.CEL = src
		default:
			return nil, fmt.Errorf("unknown render format %q", f)
		}
	}
	return r, nil
}
