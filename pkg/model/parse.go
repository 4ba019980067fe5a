package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
)

// MaxDepth bounds group nesting in a single document.
const MaxDepth = 64

const (
	keyField       = "field"
	keyOp          = "op"
	keyValue       = "value"
	keyExpressions = "expressions"
)

// Parse decodes a filter document. Only the shape is checked here: field
// names and operator tokens are kept verbatim for the translator.
func Parse(data []byte) (Expressions, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Expressions{}, &MalformedExpressionError{Reason: "empty document"}
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return Expressions{}, &MalformedExpressionError{Reason: describeJSONError(err)}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Expressions{}, &MalformedExpressionError{Reason: "unexpected data after top-level value"}
	}

	root, err := parseNode(raw, "", 0)
	if err != nil {
		return Expressions{}, err
	}
	return Expressions{Root: root}, nil
}

func parseNode(raw json.RawMessage, ptr Pointer, depth int) (Node, error) {
	if depth > MaxDepth {
		return nil, &MalformedExpressionError{Pointer: ptr, Reason: fmt.Sprintf("nesting exceeds %d levels", MaxDepth)}
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, &MalformedExpressionError{Pointer: ptr, Reason: "expected an object, got " + jsonKind(raw)}
	}

	members, err := decodeMembers(raw, ptr)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(members))
	for k := range members {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch k {
		case keyField, keyOp, keyValue, keyExpressions:
		default:
			return nil, &MalformedExpressionError{Pointer: ptr.Member(k), Reason: fmt.Sprintf("unknown key %q", k)}
		}
	}

	_, hasField := members[keyField]
	_, hasChildren := members[keyExpressions]
	switch {
	case hasField && hasChildren:
		return nil, &MalformedExpressionError{Pointer: ptr, Reason: `node has both "field" and "expressions"`}
	case hasChildren:
		return parseGroup(members, ptr, depth)
	case hasField:
		return parseCondition(members, ptr)
	default:
		return nil, &MalformedExpressionError{Pointer: ptr, Reason: `node needs either "field" or "expressions"`}
	}
}

// decodeMembers reads an object member by member so a repeated key is
// reported instead of silently overwriting the earlier one.
func decodeMembers(raw json.RawMessage, ptr Pointer) (map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, &MalformedExpressionError{Pointer: ptr, Reason: describeJSONError(err)}
	}

	members := make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, &MalformedExpressionError{Pointer: ptr, Reason: describeJSONError(err)}
		}
		key, ok := tok.(string)
		if !ok {
			return nil, &MalformedExpressionError{Pointer: ptr, Reason: fmt.Sprintf("invalid JSON: unexpected token %v", tok)}
		}
		if _, dup := members[key]; dup {
			return nil, &MalformedExpressionError{Pointer: ptr.Member(key), Reason: fmt.Sprintf("duplicate key %q", key)}
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, &MalformedExpressionError{Pointer: ptr.Member(key), Reason: describeJSONError(err)}
		}
		members[key] = value
	}
	return members, nil
}

func parseCondition(members map[string]json.RawMessage, ptr Pointer) (*Condition, error) {
	field, err := stringMember(members, keyField, ptr)
	if err != nil {
		return nil, err
	}
	if field == "" {
		return nil, &MalformedExpressionError{Pointer: ptr.Member(keyField), Reason: "field must not be empty"}
	}

	op, err := stringMember(members, keyOp, ptr)
	if err != nil {
		return nil, err
	}

	c := &Condition{Field: field, Op: op}
	if raw, ok := members[keyValue]; ok {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&c.Value); err != nil {
			return nil, &MalformedExpressionError{Pointer: ptr.Member(keyValue), Reason: describeJSONError(err)}
		}
	}
	return c, nil
}

func parseGroup(members map[string]json.RawMessage, ptr Pointer, depth int) (*Group, error) {
	if _, ok := members[keyValue]; ok {
		return nil, &MalformedExpressionError{Pointer: ptr.Member(keyValue), Reason: "a group cannot carry a value"}
	}

	op, err := stringMember(members, keyOp, ptr)
	if err != nil {
		return nil, err
	}

	raw := bytes.TrimSpace(members[keyExpressions])
	if len(raw) == 0 || raw[0] != '[' {
		return nil, &MalformedExpressionError{Pointer: ptr.Member(keyExpressions), Reason: "expressions must be an array, got " + jsonKind(raw)}
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &MalformedExpressionError{Pointer: ptr.Member(keyExpressions), Reason: describeJSONError(err)}
	}

	g := &Group{Op: op, Children: make([]Node, 0, len(items))}
	for i, item := range items {
		child, err := parseNode(item, ptr.Child(i), depth+1)
		if err != nil {
			return nil, err
		}
		g.Children = append(g.Children, child)
	}
	return g, nil
}

func stringMember(members map[string]json.RawMessage, key string, ptr Pointer) (string, error) {
	raw, ok := members[key]
	if !ok {
		return "", &MalformedExpressionError{Pointer: ptr, Reason: fmt.Sprintf("missing required key %q", key)}
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", &MalformedExpressionError{Pointer: ptr.Member(key), Reason: key + " must be a string, got " + jsonKind(raw)}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", &MalformedExpressionError{Pointer: ptr.Member(key), Reason: describeJSONError(err)}
	}
	return s, nil
}

func jsonKind(raw []byte) string {
	if len(raw) == 0 {
		return "nothing"
	}
	switch raw[0] {
	case '{':
		return "object"
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	default:
		return "number"
	}
}

func describeJSONError(err error) string {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Sprintf("invalid JSON at offset %d: %s", syntaxErr.Offset, syntaxErr.Error())
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return "invalid JSON: unexpected end of input"
	}
	return "invalid JSON: " + err.Error()
}
