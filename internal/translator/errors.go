package translator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/syntrixbase/exprcheck/pkg/model"
	"github.com/syntrixbase/exprcheck/pkg/schema"
)

// Kind classifies a validation problem.
type Kind string

const (
	KindMalformed       Kind = "malformed_expression"
	KindUnknownField    Kind = "unknown_field"
	KindUnknownOperator Kind = "unknown_operator"
	KindTypeMismatch    Kind = "type_mismatch"
)

// Problem is the transport-neutral form of a validation error.
type Problem struct {
	Kind     Kind   `json:"kind"`
	Path     string `json:"path"`
	Field    string `json:"field,omitempty"`
	Segment  string `json:"segment,omitempty"`
	Operator string `json:"operator,omitempty"`
	Expected string `json:"expected,omitempty"`
	Message  string `json:"message"`
}

// UnknownFieldError reports a field path that does not resolve against the
// entity schema.
type UnknownFieldError struct {
	Pointer model.Pointer
	Field   string
	Segment string
}

func (e *UnknownFieldError) Error() string {
	if e.Segment != "" && e.Segment != e.Field {
		return fmt.Sprintf("unknown field %q: segment %q is not declared", e.Field, e.Segment)
	}
	return fmt.Sprintf("unknown field %q", e.Field)
}

// UnknownOperatorError reports an operator or combinator token outside the
// enumerated set.
type UnknownOperatorError struct {
	Pointer model.Pointer
	Token   string
}

func (e *UnknownOperatorError) Error() string {
	return fmt.Sprintf("unknown operator %q", e.Token)
}

// MismatchReason says which check a TypeMismatchError failed.
type MismatchReason string

const (
	ReasonOperator MismatchReason = "operator" // operator not valid for the field type
	ReasonArity    MismatchReason = "arity"    // wrong number of values
	ReasonValue    MismatchReason = "value"    // value not convertible to the field type
)

// TypeMismatchError reports an operator that does not fit the field it is
// applied to, or values that do not fit the operator or field.
type TypeMismatchError struct {
	Pointer       model.Pointer
	Field         string
	Operator      model.Operator
	FieldType     schema.FieldType
	ExpectedArity model.Arity
	GotArity      int
	Reason        MismatchReason
	Detail        string
}

func (e *TypeMismatchError) Error() string {
	switch e.Reason {
	case ReasonOperator:
		return fmt.Sprintf("operator %s is not supported for %s field %q", e.Operator, e.FieldType, e.Field)
	case ReasonArity:
		return fmt.Sprintf("operator %s on %q takes %s value(s), got %d", e.Operator, e.Field, e.ExpectedArity, e.GotArity)
	default:
		return fmt.Sprintf("invalid value for %s field %q: %s", e.FieldType, e.Field, e.Detail)
	}
}

// ValidationErrors is the non-empty set of problems found in one expression,
// in document order.
type ValidationErrors []error

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, err := range v {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) Unwrap() []error {
	return v
}

// Problems converts every error to its Problem form.
func (v ValidationErrors) Problems() []Problem {
	out := make([]Problem, len(v))
	for i, err := range v {
		out[i] = ProblemOf(err)
	}
	return out
}

// ProblemOf converts one validation error. Errors outside the taxonomy
// become a malformed problem at the document root.
func ProblemOf(err error) Problem {
	var (
		malformed *model.MalformedExpressionError
		field     *UnknownFieldError
		operator  *UnknownOperatorError
		mismatch  *TypeMismatchError
	)

	switch {
	case errors.As(err, &field):
		return Problem{
			Kind:    KindUnknownField,
			Path:    field.Pointer.String(),
			Field:   field.Field,
			Segment: field.Segment,
			Message: field.Error(),
		}
	case errors.As(err, &operator):
		return Problem{
			Kind:     KindUnknownOperator,
			Path:     operator.Pointer.String(),
			Operator: operator.Token,
			Message:  operator.Error(),
		}
	case errors.As(err, &mismatch):
		p := Problem{
			Kind:     KindTypeMismatch,
			Path:     mismatch.Pointer.String(),
			Field:    mismatch.Field,
			Operator: string(mismatch.Operator),
			Message:  mismatch.Error(),
		}
		switch mismatch.Reason {
		case ReasonOperator:
			p.Expected = "one of " + joinOps(OperatorsFor(mismatch.FieldType))
		case ReasonArity:
			p.Expected = mismatch.ExpectedArity.String() + " value(s)"
		case ReasonValue:
			p.Expected = describeType(mismatch.FieldType)
		}
		return p
	case errors.As(err, &malformed):
		return Problem{
			Kind:    KindMalformed,
			Path:    malformed.Pointer.String(),
			Message: malformed.Error(),
		}
	default:
		return Problem{Kind: KindMalformed, Message: err.Error()}
	}
}

func joinOps(ops []model.Operator) string {
	s := make([]string, len(ops))
	for i, op := range ops {
		s[i] = string(op)
	}
	return strings.Join(s, ", ")
}
