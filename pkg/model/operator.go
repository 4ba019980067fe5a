package model

import (
	"strconv"
	"strings"
)

// Operator is a leaf comparison operator.
type Operator string

const (
	OpEq        Operator = "EQ"          // Equal
	OpNe        Operator = "NE"          // Not equal
	OpGt        Operator = "GT"          // Greater than
	OpGte       Operator = "GTE"         // Greater than or equal
	OpLt        Operator = "LT"          // Less than
	OpLte       Operator = "LTE"         // Less than or equal
	OpIn        Operator = "IN"          // Value in list
	OpNotIn     Operator = "NOT_IN"      // Value not in list
	OpLike      Operator = "LIKE"        // SQL-style pattern, case sensitive
	OpILike     Operator = "ILIKE"       // SQL-style pattern, case insensitive
	OpIsNull    Operator = "IS_NULL"     // Field absent or null
	OpIsNotNull Operator = "IS_NOT_NULL" // Field present and not null
	OpBetween   Operator = "BETWEEN"     // Inclusive range
)

// Combinator is a logical group operator.
type Combinator string

const (
	CombAnd Combinator = "AND"
	CombOr  Combinator = "OR"
	CombNot Combinator = "NOT"
)

// Arity describes how many values an operator takes.
type Arity struct {
	Min int
	Max int // -1 means unbounded
}

// Accepts reports whether n values satisfy the arity.
func (a Arity) Accepts(n int) bool {
	if n < a.Min {
		return false
	}
	return a.Max < 0 || n <= a.Max
}

func (a Arity) String() string {
	switch {
	case a.Max < 0:
		return "at least " + strconv.Itoa(a.Min)
	case a.Min == a.Max:
		return "exactly " + strconv.Itoa(a.Min)
	default:
		return strconv.Itoa(a.Min) + ".." + strconv.Itoa(a.Max)
	}
}

var operatorArity = map[Operator]Arity{
	OpEq:        {1, 1},
	OpNe:        {1, 1},
	OpGt:        {1, 1},
	OpGte:       {1, 1},
	OpLt:        {1, 1},
	OpLte:       {1, 1},
	OpIn:        {1, -1},
	OpNotIn:     {1, -1},
	OpLike:      {1, 1},
	OpILike:     {1, 1},
	OpIsNull:    {0, 0},
	OpIsNotNull: {0, 0},
	OpBetween:   {2, 2},
}

// ValidOps returns all leaf operators in declaration order.
func ValidOps() []Operator {
	return []Operator{OpEq, OpNe, OpGt, OpGte, OpLt, OpLte, OpIn, OpNotIn, OpLike, OpILike, OpIsNull, OpIsNotNull, OpBetween}
}

// IsValid checks if the operator is one of the enumerated names.
func (op Operator) IsValid() bool {
	_, ok := operatorArity[op]
	return ok
}

// Arity returns the value arity of the operator.
func (op Operator) Arity() Arity {
	return operatorArity[op]
}

// ParseOperator resolves a wire token to an Operator, ignoring case.
// Surrounding whitespace is part of the token and makes it unknown.
func ParseOperator(token string) (Operator, bool) {
	op := Operator(strings.ToUpper(token))
	if !op.IsValid() {
		return "", false
	}
	return op, true
}

// IsValid checks if the combinator is AND, OR or NOT.
func (c Combinator) IsValid() bool {
	switch c {
	case CombAnd, CombOr, CombNot:
		return true
	}
	return false
}

// ParseCombinator resolves a group token, ignoring case.
func ParseCombinator(token string) (Combinator, bool) {
	c := Combinator(strings.ToUpper(token))
	if !c.IsValid() {
		return "", false
	}
	return c, true
}
