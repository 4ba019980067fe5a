package translator

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/syntrixbase/exprcheck/pkg/schema"
)

// coerce converts a decoded JSON value into the Go type used for t in
// predicates.
func coerce(t schema.FieldType, v any) (any, error) {
	if v == nil {
		return nil, fmt.Errorf("null is not a %s value, use IS_NULL or IS_NOT_NULL", t)
	}

	switch t {
	case schema.TypeString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case schema.TypeInteger:
		if n, ok := toInt(v); ok {
			return n, nil
		}
		if isNumber(v) {
			return nil, fmt.Errorf("expected an integer, got %v", v)
		}
	case schema.TypeFloat:
		if f, ok := toFloat(v); ok {
			return f, nil
		}
	case schema.TypeBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case schema.TypeTimestamp:
		if s, ok := v.(string); ok {
			ts, err := parseTimestamp(s)
			if err != nil {
				return nil, err
			}
			return ts, nil
		}
	case schema.TypeUUID:
		if s, ok := v.(string); ok {
			id, err := uuid.Parse(s)
			if err != nil {
				return nil, fmt.Errorf("invalid UUID %q", s)
			}
			return id, nil
		}
	default:
		return nil, fmt.Errorf("%s fields take no values", t)
	}

	return nil, fmt.Errorf("expected %s, got %s", describeType(t), kindOf(v))
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return floatToInt(n)
	}
	return 0, false
}

func floatToInt(f float64) (int64, bool) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func isNumber(v any) bool {
	switch v.(type) {
	case json.Number, int, int64, float64:
		return true
	}
	return false
}

func parseTimestamp(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts, nil
	}
	if ts, err := time.Parse(time.DateOnly, s); err == nil {
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q, expected RFC 3339", s)
}

func describeType(t schema.FieldType) string {
	switch t {
	case schema.TypeString:
		return "a string"
	case schema.TypeInteger:
		return "an integer"
	case schema.TypeFloat:
		return "a number"
	case schema.TypeBoolean:
		return "a boolean"
	case schema.TypeTimestamp:
		return "an RFC 3339 timestamp string"
	case schema.TypeUUID:
		return "a UUID string"
	default:
		return string(t)
	}
}

func kindOf(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number, int, int64, float64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
