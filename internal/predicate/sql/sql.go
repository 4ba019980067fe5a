// Package sql renders predicates as PostgreSQL WHERE clauses over a JSONB
// properties column.
package sql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/syntrixbase/exprcheck/internal/predicate"
	"github.com/syntrixbase/exprcheck/pkg/model"
	"github.com/syntrixbase/exprcheck/pkg/schema"
)

// DefaultColumn is the JSONB column fields are read from.
const DefaultColumn = "properties"

// Clause is a WHERE body with positional ($n) arguments.
type Clause struct {
	SQL  string `json:"sql"`
	Args []any  `json:"args"`
}

// Renderer renders predicates against one JSONB column.
type Renderer struct {
	Column string
}

// Render renders p against DefaultColumn.
func Render(p predicate.Predicate) (Clause, error) {
	return Renderer{Column: DefaultColumn}.Render(p)
}

// Render renders p. A nil predicate renders as TRUE.
func (r Renderer) Render(p predicate.Predicate) (Clause, error) {
	if p == nil {
		return Clause{SQL: "TRUE"}, nil
	}
	column := r.Column
	if column == "" {
		column = DefaultColumn
	}
	b := &builder{column: quoteIdentifier(column)}
	s, err := b.render(p)
	if err != nil {
		return Clause{}, err
	}
	return Clause{SQL: s, Args: b.args}, nil
}

type builder struct {
	column string
	args   []any
}

func (b *builder) render(p predicate.Predicate) (string, error) {
	switch p := p.(type) {
	case *predicate.Comparison:
		return b.comparison(p)
	case *predicate.Conjunction:
		sep := " AND "
		if p.Kind == predicate.Or {
			sep = " OR "
		}
		parts := make([]string, len(p.Children))
		for i, child := range p.Children {
			s, err := b.render(child)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return "(" + strings.Join(parts, sep) + ")", nil
	case *predicate.Negation:
		s, err := b.render(p.Child)
		if err != nil {
			return "", err
		}
		return "NOT " + s, nil
	default:
		return "", fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (b *builder) bind(v any) string {
	if id, ok := v.(uuid.UUID); ok {
		v = id.String()
	}
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

func (b *builder) comparison(c *predicate.Comparison) (string, error) {
	text := b.textPath(c.Field.Path)

	switch c.Op {
	case model.OpIsNull:
		return text + " IS NULL", nil
	case model.OpIsNotNull:
		return text + " IS NOT NULL", nil
	}

	value := cast(text, c.Type)
	switch c.Op {
	case model.OpEq, model.OpNe, model.OpGt, model.OpGte, model.OpLt, model.OpLte:
		return fmt.Sprintf("%s %s %s", value, mapOp(c.Op), b.bind(c.Values[0])), nil
	case model.OpIn, model.OpNotIn:
		params := make([]string, len(c.Values))
		for i, v := range c.Values {
			params[i] = b.bind(v)
		}
		kw := "IN"
		if c.Op == model.OpNotIn {
			kw = "NOT IN"
		}
		return fmt.Sprintf("%s %s (%s)", value, kw, strings.Join(params, ", ")), nil
	case model.OpLike:
		return fmt.Sprintf("%s LIKE %s", value, b.bind(c.Values[0])), nil
	case model.OpILike:
		return fmt.Sprintf("%s ILIKE %s", value, b.bind(c.Values[0])), nil
	case model.OpBetween:
		lo := b.bind(c.Values[0])
		hi := b.bind(c.Values[1])
		return fmt.Sprintf("%s BETWEEN %s AND %s", value, lo, hi), nil
	default:
		return "", fmt.Errorf("unsupported operator: %s", c.Op)
	}
}

// textPath addresses a nested property as text: col->'a'->>'b'.
func (b *builder) textPath(path []string) string {
	var sb strings.Builder
	sb.WriteString(b.column)
	for i, seg := range path {
		if i == len(path)-1 {
			sb.WriteString("->>")
		} else {
			sb.WriteString("->")
		}
		sb.WriteString(quoteLiteral(seg))
	}
	return sb.String()
}

func cast(expr string, t schema.FieldType) string {
	switch t {
	case schema.TypeInteger:
		return "(" + expr + ")::bigint"
	case schema.TypeFloat:
		return "(" + expr + ")::double precision"
	case schema.TypeBoolean:
		return "(" + expr + ")::boolean"
	case schema.TypeTimestamp:
		return "(" + expr + ")::timestamptz"
	case schema.TypeUUID:
		return "(" + expr + ")::uuid"
	default:
		return expr
	}
}

func mapOp(op model.Operator) string {
	switch op {
	case model.OpEq:
		return "="
	case model.OpNe:
		return "<>"
	case model.OpGt:
		return ">"
	case model.OpGte:
		return ">="
	case model.OpLt:
		return "<"
	case model.OpLte:
		return "<="
	default:
		return ""
	}
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteIdentifier(name string) string {
	for _, r := range name {
		if !(r == '_' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
		}
	}
	return name
}
