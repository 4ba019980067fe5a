package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Node is either a *Condition or a *Group.
type Node interface {
	node()
}

// Condition is a leaf {field, op, value} triple. Op holds the raw wire token;
// resolving it against the operator set is left to the translator.
type Condition struct {
	Field string
	Op    string

	// Value is the decoded "value" member: a scalar, a []any, or nil when the
	// member was absent or null. Numbers are json.Number.
	Value any
}

// Values returns the condition's values as a list. A scalar is a list of one;
// an absent or null value is an empty list.
func (c *Condition) Values() []any {
	switch v := c.Value.(type) {
	case nil:
		return nil
	case []any:
		return v
	default:
		return []any{v}
	}
}

func (*Condition) node() {}

// Group combines child nodes with a logical operator. Op holds the raw token.
type Group struct {
	Op       string
	Children []Node
}

func (*Group) node() {}

// Expressions is the root of a filter document.
type Expressions struct {
	Root Node
}

// Pointer is an RFC 6901 JSON pointer into the filter document. The root
// document is the empty pointer.
type Pointer string

// Member returns the pointer to a member of the object at p.
func (p Pointer) Member(name string) Pointer {
	name = strings.ReplaceAll(name, "~", "~0")
	name = strings.ReplaceAll(name, "/", "~1")
	return p + "/" + Pointer(name)
}

// Index returns the pointer to the i-th element of the array at p.
func (p Pointer) Index(i int) Pointer {
	return p + "/" + Pointer(strconv.Itoa(i))
}

// Child returns the pointer to the i-th child of the group at p.
func (p Pointer) Child(i int) Pointer {
	return p.Member("expressions").Index(i)
}

func (p Pointer) String() string {
	return string(p)
}

// Visitor is implemented by passes over the expression tree.
type Visitor[T any] interface {
	VisitCondition(ptr Pointer, c *Condition) T
	VisitGroup(ptr Pointer, g *Group) T
}

// Accept dispatches n to the matching Visitor method. Unknown or nil nodes
// yield the zero value of T.
func Accept[T any](ptr Pointer, n Node, v Visitor[T]) T {
	switch n := n.(type) {
	case *Condition:
		if n != nil {
			return v.VisitCondition(ptr, n)
		}
	case *Group:
		if n != nil {
			return v.VisitGroup(ptr, n)
		}
	}
	var zero T
	return zero
}

type wireCondition struct {
	Field string `json:"field"`
	Op    string `json:"op"`
	Value any    `json:"value,omitempty"`
}

type wireGroup struct {
	Op          string `json:"op"`
	Expressions []Node `json:"expressions"`
}

// MarshalJSON writes the normalized wire form: canonical key order and
// upper-case operator names for recognized tokens.
func (c *Condition) MarshalJSON() ([]byte, error) {
	op := c.Op
	if known, ok := ParseOperator(op); ok {
		op = string(known)
	}
	return encodeLiteral(wireCondition{Field: c.Field, Op: op, Value: c.Value}, "")
}

// MarshalJSON writes the normalized wire form of the group.
func (g *Group) MarshalJSON() ([]byte, error) {
	op := g.Op
	if known, ok := ParseCombinator(op); ok {
		op = string(known)
	}
	children := g.Children
	if children == nil {
		children = []Node{}
	}
	return encodeLiteral(wireGroup{Op: op, Expressions: children}, "")
}

// MarshalJSON writes the root node.
func (e Expressions) MarshalJSON() ([]byte, error) {
	return encodeLiteral(e.Root, "")
}

// Normalize returns the compact normalized form. Unlike json.Marshal it
// leaves <, > and & in string values as written.
func (e Expressions) Normalize() ([]byte, error) {
	return encodeLiteral(e.Root, "")
}

// UnmarshalJSON decodes the wire format, failing with a
// *MalformedExpressionError on any shape violation.
func (e *Expressions) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// Indent returns the pretty-printed normalized form.
func (e Expressions) Indent() (string, error) {
	data, err := encodeLiteral(e.Root, "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func encodeLiteral(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
