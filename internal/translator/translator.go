// Package translator compiles parsed filter expressions into predicates bound
// to an entity schema. Translation is a pure function of the expression and
// the schema snapshot; nothing is executed against a data backend.
package translator

import (
	"errors"
	"fmt"

	"github.com/syntrixbase/exprcheck/internal/predicate"
	"github.com/syntrixbase/exprcheck/pkg/model"
	"github.com/syntrixbase/exprcheck/pkg/schema"
)

// Translator resolves expressions against a schema provider. It holds no
// mutable state and is safe for concurrent use.
type Translator struct {
	provider schema.Provider
}

// New returns a translator backed by provider.
func New(provider schema.Provider) *Translator {
	return &Translator{provider: provider}
}

// Translate walks expr once and returns either the composed predicate or
// every problem found. The error is ValidationErrors for problems in the
// expression and wraps schema.ErrUnknownEntity when entity is not declared.
func (t *Translator) Translate(expr model.Expressions, entity string) (predicate.Predicate, error) {
	if _, err := t.provider.DeclaredRelations(entity); err != nil {
		return nil, fmt.Errorf("translate: %w", err)
	}

	if expr.Root == nil {
		return nil, ValidationErrors{&model.MalformedExpressionError{Reason: "empty document"}}
	}

	p := &pass{provider: t.provider, entity: entity}
	pred := model.Accept[predicate.Predicate]("", expr.Root, p)
	if len(p.errs) > 0 {
		return nil, p.errs
	}
	if pred == nil {
		return nil, ValidationErrors{&model.MalformedExpressionError{Reason: "expression is empty"}}
	}
	return pred, nil
}

// pass is the state of one translation. Children are always visited, even
// after a failure, so that every problem is reported.
type pass struct {
	provider schema.Provider
	entity   string
	errs     ValidationErrors
}

func (p *pass) fail(err error) predicate.Predicate {
	p.errs = append(p.errs, err)
	return nil
}

func (p *pass) VisitCondition(ptr model.Pointer, c *model.Condition) predicate.Predicate {
	before := len(p.errs)

	field, err := p.provider.ResolveField(p.entity, c.Field)
	if err != nil {
		segment := c.Field
		var unresolved *schema.UnresolvedFieldError
		if errors.As(err, &unresolved) {
			segment = unresolved.Segment
		}
		p.fail(&UnknownFieldError{Pointer: ptr.Member("field"), Field: c.Field, Segment: segment})
	}

	op, known := model.ParseOperator(c.Op)
	if !known {
		p.fail(&UnknownOperatorError{Pointer: ptr.Member("op"), Token: c.Op})
	}

	if len(p.errs) > before {
		return nil
	}

	values := c.Values()
	mismatch := &TypeMismatchError{
		Pointer:       ptr.Member("op"),
		Field:         c.Field,
		Operator:      op,
		FieldType:     field.Type,
		ExpectedArity: op.Arity(),
		GotArity:      len(values),
	}

	if !Allowed(field.Type, op) {
		mismatch.Reason = ReasonOperator
		return p.fail(mismatch)
	}
	if !op.Arity().Accepts(len(values)) {
		mismatch.Pointer = ptr.Member("value")
		mismatch.Reason = ReasonArity
		return p.fail(mismatch)
	}

	_, isList := c.Value.([]any)
	coerced := make([]any, len(values))
	for i, v := range values {
		cv, err := coerce(field.Type, v)
		if err != nil {
			mismatch.Pointer = ptr.Member("value")
			if isList {
				mismatch.Pointer = mismatch.Pointer.Index(i)
			}
			mismatch.Reason = ReasonValue
			mismatch.Detail = err.Error()
			return p.fail(mismatch)
		}
		coerced[i] = cv
	}

	return &predicate.Comparison{
		Field:  predicate.ParseRef(c.Field),
		Type:   field.Type,
		Op:     op,
		Values: coerced,
	}
}

func (p *pass) VisitGroup(ptr model.Pointer, g *model.Group) predicate.Predicate {
	before := len(p.errs)

	comb, known := model.ParseCombinator(g.Op)
	if !known {
		p.fail(&UnknownOperatorError{Pointer: ptr.Member("op"), Token: g.Op})
	}
	if len(g.Children) == 0 {
		p.fail(&model.MalformedExpressionError{
			Pointer: ptr.Member("expressions"),
			Reason:  "a group needs at least one expression",
		})
	}

	children := make([]predicate.Predicate, 0, len(g.Children))
	for i, child := range g.Children {
		mark := len(p.errs)
		pred := model.Accept[predicate.Predicate](ptr.Child(i), child, p)
		switch {
		case pred != nil:
			children = append(children, pred)
		case len(p.errs) == mark:
			p.fail(&model.MalformedExpressionError{Pointer: ptr.Child(i), Reason: "expression is empty"})
		}
	}

	if len(p.errs) > before {
		return nil
	}

	switch comb {
	case model.CombOr:
		return &predicate.Conjunction{Kind: predicate.Or, Children: children}
	case model.CombNot:
		if len(children) == 1 {
			return &predicate.Negation{Child: children[0]}
		}
		return &predicate.Negation{Child: &predicate.Conjunction{Kind: predicate.And, Children: children}}
	default:
		return &predicate.Conjunction{Kind: predicate.And, Children: children}
	}
}
