// Package predicate holds the validated, schema-bound filter tree produced by
// the translator. Renderers in the sub-packages turn it into backend queries.
package predicate

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/syntrixbase/exprcheck/pkg/model"
	"github.com/syntrixbase/exprcheck/pkg/schema"
)

// Predicate is one of *Comparison, *Conjunction or *Negation.
type Predicate interface {
	predicate()
	String() string
}

// Ref is a resolved field path.
type Ref struct {
	Path []string
}

// ParseRef splits a dotted path.
func ParseRef(dotted string) Ref {
	return Ref{Path: strings.Split(dotted, ".")}
}

func (r Ref) String() string {
	return strings.Join(r.Path, ".")
}

// Comparison tests one field. Values are already coerced to the field type:
// string, int64, float64, bool, time.Time or uuid.UUID.
type Comparison struct {
	Field  Ref
	Type   schema.FieldType
	Op     model.Operator
	Values []any
}

func (*Comparison) predicate() {}

func (c *Comparison) String() string {
	switch len(c.Values) {
	case 0:
		return fmt.Sprintf("%s %s", c.Field, c.Op)
	case 1:
		return fmt.Sprintf("%s %s %s", c.Field, c.Op, formatValue(c.Values[0]))
	}
	parts := make([]string, len(c.Values))
	for i, v := range c.Values {
		parts[i] = formatValue(v)
	}
	return fmt.Sprintf("%s %s [%s]", c.Field, c.Op, strings.Join(parts, ", "))
}

// Kind is the logical connective of a Conjunction.
type Kind string

const (
	And Kind = "AND"
	Or  Kind = "OR"
)

// Conjunction joins children with AND or OR, in input order.
type Conjunction struct {
	Kind     Kind
	Children []Predicate
}

func (*Conjunction) predicate() {}

func (c *Conjunction) String() string {
	parts := make([]string, len(c.Children))
	for i, child := range c.Children {
		parts[i] = child.String()
	}
	return "(" + strings.Join(parts, " "+string(c.Kind)+" ") + ")"
}

// Negation inverts its child.
type Negation struct {
	Child Predicate
}

func (*Negation) predicate() {}

func (n *Negation) String() string {
	return "NOT " + n.Child.String()
}

// Walk calls fn for p and its descendants, depth first. Returning false
// skips the children of the current node.
func Walk(p Predicate, fn func(Predicate) bool) {
	if p == nil || !fn(p) {
		return
	}
	switch p := p.(type) {
	case *Conjunction:
		for _, child := range p.Children {
			Walk(child, fn)
		}
	case *Negation:
		Walk(p.Child, fn)
	}
}

// Fields returns the sorted, distinct field paths referenced by p.
func Fields(p Predicate) []string {
	seen := make(map[string]struct{})
	Walk(p, func(n Predicate) bool {
		if c, ok := n.(*Comparison); ok {
			seen[c.Field.String()] = struct{}{}
		}
		return true
	})

	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func formatValue(v any) string {
	switch v := v.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case uuid.UUID:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
