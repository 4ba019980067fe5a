package sql

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syntrixbase/exprcheck/internal/predicate"
	"github.com/syntrixbase/exprcheck/pkg/model"
	"github.com/syntrixbase/exprcheck/pkg/schema"
)

func cmp(field string, typ schema.FieldType, op model.Operator, values ...any) *predicate.Comparison {
	return &predicate.Comparison{Field: predicate.ParseRef(field), Type: typ, Op: op, Values: values}
}

func TestRender_Comparisons(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	id := uuid.MustParse("0b6f4c1e-1f7e-4c4b-9a3b-6a3f0f1d2e3c")

	tests := []struct {
		name string
		in   predicate.Predicate
		sql  string
		args []any
	}{
		{"eq string", cmp("name", schema.TypeString, model.OpEq, "Bob"), `properties->>'name' = $1`, []any{"Bob"}},
		{"ne int", cmp("age", schema.TypeInteger, model.OpNe, int64(3)), `(properties->>'age')::bigint <> $1`, []any{int64(3)}},
		{"gt float", cmp("score", schema.TypeFloat, model.OpGt, 1.5), `(properties->>'score')::double precision > $1`, []any{1.5}},
		{"lte timestamp", cmp("created", schema.TypeTimestamp, model.OpLte, ts), `(properties->>'created')::timestamptz <= $1`, []any{ts}},
		{"eq bool", cmp("active", schema.TypeBoolean, model.OpEq, true), `(properties->>'active')::boolean = $1`, []any{true}},
		{"eq uuid", cmp("id", schema.TypeUUID, model.OpEq, id), `(properties->>'id')::uuid = $1`, []any{id.String()}},
		{"in", cmp("city", schema.TypeString, model.OpIn, "a", "b"), `properties->>'city' IN ($1, $2)`, []any{"a", "b"}},
		{"not in", cmp("city", schema.TypeString, model.OpNotIn, "a"), `properties->>'city' NOT IN ($1)`, []any{"a"}},
		{"like", cmp("name", schema.TypeString, model.OpLike, "Jo%"), `properties->>'name' LIKE $1`, []any{"Jo%"}},
		{"ilike", cmp("name", schema.TypeString, model.OpILike, "jo%"), `properties->>'name' ILIKE $1`, []any{"jo%"}},
		{"is null", cmp("email", schema.TypeString, model.OpIsNull), `properties->>'email' IS NULL`, nil},
		{"is not null json", cmp("meta", schema.TypeJSON, model.OpIsNotNull), `properties->>'meta' IS NOT NULL`, nil},
		{"between", cmp("age", schema.TypeInteger, model.OpBetween, int64(1), int64(9)), `(properties->>'age')::bigint BETWEEN $1 AND $2`, []any{int64(1), int64(9)}},
		{"nested", cmp("address.geo.lat", schema.TypeFloat, model.OpLt, 1.0), `(properties->'address'->'geo'->>'lat')::double precision < $1`, []any{1.0}},
		{"quoted key", cmp("o'brien", schema.TypeString, model.OpEq, "x"), `properties->>'o''brien' = $1`, []any{"x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.sql, got.SQL)
			assert.Equal(t, tt.args, got.Args)
		})
	}
}

func TestRender_Groups(t *testing.T) {
	p := &predicate.Conjunction{Kind: predicate.And, Children: []predicate.Predicate{
		cmp("a", schema.TypeString, model.OpEq, "x"),
		&predicate.Negation{Child: &predicate.Conjunction{Kind: predicate.Or, Children: []predicate.Predicate{
			cmp("b", schema.TypeInteger, model.OpGt, int64(1)),
			cmp("c", schema.TypeString, model.OpIsNull),
		}}},
	}}

	got, err := Render(p)
	require.NoError(t, err)
	assert.Equal(t, `(properties->>'a' = $1 AND NOT ((properties->>'b')::bigint > $2 OR properties->>'c' IS NULL))`, got.SQL)
	assert.Equal(t, []any{"x", int64(1)}, got.Args)
}

func TestRenderer_Column(t *testing.T) {
	got, err := Renderer{Column: "Data"}.Render(cmp("a", schema.TypeString, model.OpEq, "x"))
	require.NoError(t, err)
	assert.Equal(t, `"Data"->>'a' = $1`, got.SQL)

	got, err = Renderer{}.Render(nil)
	require.NoError(t, err)
	assert.Equal(t, "TRUE", got.SQL)
	assert.Empty(t, got.Args)
}

func TestRender_UnknownOperator(t *testing.T) {
	_, err := Render(cmp("a", schema.TypeString, model.Operator("CONTAINS"), "x"))
	assert.Error(t, err)
}
