// Package mongo renders predicates as MongoDB filter documents.
package mongo

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/syntrixbase/exprcheck/internal/predicate"
	"github.com/syntrixbase/exprcheck/pkg/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Render builds a filter document for p. Field paths are used as dotted
// document paths.
func Render(p predicate.Predicate) (bson.D, error) {
	return RenderWithPrefix(p, "")
}

// RenderWithPrefix is Render with every field path nested under prefix.
func RenderWithPrefix(p predicate.Predicate, prefix string) (bson.D, error) {
	if p == nil {
		return bson.D{}, nil
	}
	return render(p, prefix)
}

func render(p predicate.Predicate, prefix string) (bson.D, error) {
	switch p := p.(type) {
	case *predicate.Comparison:
		return renderComparison(p, prefix)
	case *predicate.Conjunction:
		children := make(bson.A, 0, len(p.Children))
		for _, child := range p.Children {
			d, err := render(child, prefix)
			if err != nil {
				return nil, err
			}
			children = append(children, d)
		}
		key := "$and"
		if p.Kind == predicate.Or {
			key = "$or"
		}
		return bson.D{{Key: key, Value: children}}, nil
	case *predicate.Negation:
		d, err := render(p.Child, prefix)
		if err != nil {
			return nil, err
		}
		return bson.D{{Key: "$nor", Value: bson.A{d}}}, nil
	default:
		return nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func renderComparison(c *predicate.Comparison, prefix string) (bson.D, error) {
	field := c.Field.String()
	if prefix != "" {
		field = prefix + "." + field
	}

	values := make([]any, len(c.Values))
	for i, v := range c.Values {
		values[i] = mapValue(v)
	}

	var cond bson.D
	switch c.Op {
	case model.OpEq, model.OpNe, model.OpGt, model.OpGte, model.OpLt, model.OpLte:
		cond = bson.D{{Key: mapOp(c.Op), Value: values[0]}}
	case model.OpIn, model.OpNotIn:
		cond = bson.D{{Key: mapOp(c.Op), Value: bson.A(values)}}
	case model.OpLike, model.OpILike:
		pattern, ok := c.Values[0].(string)
		if !ok {
			return nil, fmt.Errorf("%s on %s needs a string pattern, got %T", c.Op, field, c.Values[0])
		}
		cond = bson.D{{Key: "$regex", Value: primitive.Regex{Pattern: predicate.LikeRegexp(pattern, c.Op == model.OpILike)}}}
	case model.OpIsNull:
		// Matches both explicit null and missing fields.
		cond = bson.D{{Key: "$eq", Value: nil}}
	case model.OpIsNotNull:
		cond = bson.D{{Key: "$ne", Value: nil}}
	case model.OpBetween:
		cond = bson.D{{Key: "$gte", Value: values[0]}, {Key: "$lte", Value: values[1]}}
	default:
		return nil, fmt.Errorf("unsupported operator: %s", c.Op)
	}

	return bson.D{{Key: field, Value: cond}}, nil
}

func mapOp(op model.Operator) string {
	switch op {
	case model.OpEq:
		return "$eq"
	case model.OpNe:
		return "$ne"
	case model.OpGt:
		return "$gt"
	case model.OpGte:
		return "$gte"
	case model.OpLt:
		return "$lt"
	case model.OpLte:
		return "$lte"
	case model.OpIn:
		return "$in"
	case model.OpNotIn:
		return "$nin"
	default:
		return ""
	}
}

func mapValue(v any) any {
	if id, ok := v.(uuid.UUID); ok {
		return id.String()
	}
	return v
}
