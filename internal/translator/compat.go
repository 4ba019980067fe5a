package translator

import (
	"github.com/syntrixbase/exprcheck/pkg/model"
	"github.com/syntrixbase/exprcheck/pkg/schema"
)

// MatrixVersion identifies the operator compatibility table below. Bump it
// whenever an entry changes; clients may cache the matrix by version.
const MatrixVersion = "v1"

var (
	nullOps     = []model.Operator{model.OpIsNull, model.OpIsNotNull}
	equalityOps = []model.Operator{model.OpEq, model.OpNe, model.OpIn, model.OpNotIn}
	orderingOps = []model.Operator{model.OpGt, model.OpGte, model.OpLt, model.OpLte, model.OpBetween}
	patternOps  = []model.Operator{model.OpLike, model.OpILike}
)

var compatibility = map[schema.FieldType]map[model.Operator]struct{}{
	schema.TypeString:    opSet(equalityOps, orderingOps, patternOps, nullOps),
	schema.TypeInteger:   opSet(equalityOps, orderingOps, nullOps),
	schema.TypeFloat:     opSet(equalityOps, orderingOps, nullOps),
	schema.TypeTimestamp: opSet(equalityOps, orderingOps, nullOps),
	schema.TypeBoolean:   opSet([]model.Operator{model.OpEq, model.OpNe}, nullOps),
	schema.TypeUUID:      opSet(equalityOps, nullOps),
	schema.TypeJSON:      opSet(nullOps),
	schema.TypeRelation:  opSet(nullOps),
}

func opSet(groups ...[]model.Operator) map[model.Operator]struct{} {
	set := make(map[model.Operator]struct{})
	for _, g := range groups {
		for _, op := range g {
			set[op] = struct{}{}
		}
	}
	return set
}

// Allowed reports whether op may be applied to a field of type t.
func Allowed(t schema.FieldType, op model.Operator) bool {
	_, ok := compatibility[t][op]
	return ok
}

// OperatorsFor lists the operators valid for t in declaration order.
func OperatorsFor(t schema.FieldType) []model.Operator {
	var out []model.Operator
	for _, op := range model.ValidOps() {
		if Allowed(t, op) {
			out = append(out, op)
		}
	}
	return out
}

// Matrix returns a copy of the whole compatibility table.
func Matrix() map[schema.FieldType][]model.Operator {
	out := make(map[schema.FieldType][]model.Operator, len(compatibility))
	for t := range compatibility {
		out[t] = OperatorsFor(t)
	}
	return out
}
