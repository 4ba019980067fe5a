package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointer(t *testing.T) {
	var root Pointer
	assert.Equal(t, "", root.String())
	assert.Equal(t, Pointer("/expressions/2"), root.Child(2))
	assert.Equal(t, Pointer("/expressions/0/expressions/1/field"), root.Child(0).Child(1).Member("field"))
	assert.Equal(t, Pointer("/a~0b~1c"), root.Member("a~b/c"))
	assert.Equal(t, Pointer("/value/1"), root.Member("value").Index(1))
}

func TestMarshalJSON_Normalizes(t *testing.T) {
	input := `{"expressions":[{"value":18,"op":"gte","field":"age"},{"op":"not","expressions":[{"op":"is_null","field":"email"}]}],"op":"and"}`
	expr, err := Parse([]byte(input))
	require.NoError(t, err)

	out, err := json.Marshal(expr)
	require.NoError(t, err)
	assert.Equal(t,
		`{"op":"AND","expressions":[{"field":"age","op":"GTE","value":18},{"op":"NOT","expressions":[{"field":"email","op":"IS_NULL"}]}]}`,
		string(out))
}

func TestMarshalJSON_KeepsUnknownTokens(t *testing.T) {
	expr, err := Parse([]byte(`{"field":"age","op":"contains","value":[1.50,"x",true,null]}`))
	require.NoError(t, err)

	out, err := json.Marshal(expr)
	require.NoError(t, err)
	assert.Equal(t, `{"field":"age","op":"contains","value":[1.50,"x",true,null]}`, string(out))
}

func TestMarshalJSON_RoundTripIsStable(t *testing.T) {
	expr, err := Parse([]byte(`{"op":"or","expressions":[{"field":"a.b","op":"in","value":["x","y"]}]}`))
	require.NoError(t, err)

	first, err := json.Marshal(expr)
	require.NoError(t, err)

	again, err := Parse(first)
	require.NoError(t, err)
	second, err := json.Marshal(again)
	require.NoError(t, err)

	assert.JSONEq(t, string(first), string(second))
}

func TestIndent(t *testing.T) {
	expr, err := Parse([]byte(`{"field":"age","op":"gte","value":18}`))
	require.NoError(t, err)

	s, err := expr.Indent()
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"field\": \"age\",\n  \"op\": \"GTE\",\n  \"value\": 18\n}", s)
}

func TestNormalize_KeepsMarkupLiterals(t *testing.T) {
	expr, err := Parse([]byte(`{"field":"name","op":"eq","value":"x<y&z>"}`))
	require.NoError(t, err)

	out, err := expr.Normalize()
	require.NoError(t, err)
	assert.Equal(t, `{"field":"name","op":"EQ","value":"x<y&z>"}`, string(out))

	s, err := expr.Indent()
	require.NoError(t, err)
	assert.Contains(t, s, `"value": "x<y&z>"`)
	assert.NotContains(t, s, `\u003c`)

	group, err := Parse([]byte(`{"op":"or","expressions":[{"field":"a&b","op":"LIKE","value":"<%"}]}`))
	require.NoError(t, err)
	out, err = group.Normalize()
	require.NoError(t, err)
	assert.Equal(t, `{"op":"OR","expressions":[{"field":"a&b","op":"LIKE","value":"<%"}]}`, string(out))
}

type leafCounter struct{}

func (leafCounter) VisitCondition(_ Pointer, _ *Condition) int { return 1 }

func (v leafCounter) VisitGroup(ptr Pointer, g *Group) int {
	n := 0
	for i, child := range g.Children {
		n += Accept[int](ptr.Child(i), child, v)
	}
	return n
}

type pointerCollector struct {
	seen []Pointer
}

func (p *pointerCollector) VisitCondition(ptr Pointer, _ *Condition) struct{} {
	p.seen = append(p.seen, ptr)
	return struct{}{}
}

func (p *pointerCollector) VisitGroup(ptr Pointer, g *Group) struct{} {
	p.seen = append(p.seen, ptr)
	for i, child := range g.Children {
		Accept[struct{}](ptr.Child(i), child, p)
	}
	return struct{}{}
}

func TestAccept(t *testing.T) {
	expr, err := Parse([]byte(`{"op":"AND","expressions":[
		{"field":"a","op":"EQ","value":1},
		{"op":"OR","expressions":[{"field":"b","op":"EQ","value":2},{"field":"c","op":"EQ","value":3}]}
	]}`))
	require.NoError(t, err)

	assert.Equal(t, 3, Accept[int]("", expr.Root, leafCounter{}))

	collector := &pointerCollector{}
	Accept[struct{}]("", expr.Root, collector)
	assert.Equal(t, []Pointer{
		"",
		"/expressions/0",
		"/expressions/1",
		"/expressions/1/expressions/0",
		"/expressions/1/expressions/1",
	}, collector.seen)

	assert.Equal(t, 0, Accept[int]("", nil, leafCounter{}))
}
