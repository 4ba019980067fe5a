// Package cel renders predicates as CEL programs over a document map bound
// to the variable "doc".
package cel

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/uuid"
	"github.com/syntrixbase/exprcheck/internal/predicate"
	"github.com/syntrixbase/exprcheck/pkg/model"
	"github.com/syntrixbase/exprcheck/pkg/schema"
)

// Compiler compiles predicates into CEL programs.
type Compiler struct {
	env *cel.Env
}

// NewCompiler creates a compiler with "doc" declared as map(string, dyn).
func NewCompiler() (*Compiler, error) {
	env, err := cel.NewEnv(
		cel.Variable("doc", cel.MapType(cel.StringType, cel.DynType)),
		cel.CrossTypeNumericComparisons(true),
	)
	if err != nil {
		return nil, fmt.Errorf("CEL environment error: %w", err)
	}
	return &Compiler{env: env}, nil
}

// Compile renders p and compiles the result.
func (c *Compiler) Compile(p predicate.Predicate) (cel.Program, error) {
	src, err := Source(p)
	if err != nil {
		return nil, err
	}
	return c.CompileSource(src)
}

// CompileSource compiles a CEL expression string.
func (c *Compiler) CompileSource(expr string) (cel.Program, error) {
	ast, issues := c.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL compile error: %w", issues.Err())
	}

	prg, err := c.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("CEL program creation error: %w", err)
	}
	return prg, nil
}

// Evaluate runs prg against doc.
func Evaluate(prg cel.Program, doc map[string]any) (bool, error) {
	if prg == nil {
		return true, nil // No predicate = match all
	}

	out, _, err := prg.Eval(map[string]any{
		"doc": doc,
	})
	if err != nil {
		return false, err
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("CEL result is not boolean: %T", out.Value())
	}
	return result, nil
}

// Source renders p as a CEL expression. Missing or null fields never match
// a value comparison; NE and NOT_IN hold for them, as in MongoDB.
func Source(p predicate.Predicate) (string, error) {
	if p == nil {
		return "true", nil
	}

	switch p := p.(type) {
	case *predicate.Comparison:
		return comparisonSource(p)
	case *predicate.Conjunction:
		sep := " && "
		if p.Kind == predicate.Or {
			sep = " || "
		}
		parts := make([]string, len(p.Children))
		for i, child := range p.Children {
			s, err := Source(child)
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return "(" + strings.Join(parts, sep) + ")", nil
	case *predicate.Negation:
		s, err := Source(p.Child)
		if err != nil {
			return "", err
		}
		return "!" + s, nil
	default:
		return "", fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func comparisonSource(c *predicate.Comparison) (string, error) {
	access := accessor(c.Field.Path)
	present := presence(c.Field.Path, access)

	lits := make([]string, len(c.Values))
	for i, v := range c.Values {
		lit, err := formatValue(v)
		if err != nil {
			return "", err
		}
		lits[i] = lit
	}

	value := access
	if c.Type == schema.TypeTimestamp {
		value = "timestamp(" + access + ")"
	}

	switch c.Op {
	case model.OpEq:
		return fmt.Sprintf("(%s && %s == %s)", present, value, lits[0]), nil
	case model.OpNe:
		return fmt.Sprintf("!(%s && %s == %s)", present, value, lits[0]), nil
	case model.OpGt:
		return fmt.Sprintf("(%s && %s > %s)", present, value, lits[0]), nil
	case model.OpGte:
		return fmt.Sprintf("(%s && %s >= %s)", present, value, lits[0]), nil
	case model.OpLt:
		return fmt.Sprintf("(%s && %s < %s)", present, value, lits[0]), nil
	case model.OpLte:
		return fmt.Sprintf("(%s && %s <= %s)", present, value, lits[0]), nil
	case model.OpIn:
		return fmt.Sprintf("(%s && %s in [%s])", present, value, strings.Join(lits, ", ")), nil
	case model.OpNotIn:
		return fmt.Sprintf("!(%s && %s in [%s])", present, value, strings.Join(lits, ", ")), nil
	case model.OpLike, model.OpILike:
		pattern, ok := c.Values[0].(string)
		if !ok {
			return "", fmt.Errorf("%s on %s needs a string pattern, got %T", c.Op, c.Field, c.Values[0])
		}
		re := predicate.LikeRegexp(pattern, c.Op == model.OpILike)
		return fmt.Sprintf("(%s && %s.matches(%s))", present, access, strconv.Quote(re)), nil
	case model.OpIsNull:
		return "!" + present, nil
	case model.OpIsNotNull:
		return present, nil
	case model.OpBetween:
		return fmt.Sprintf("(%s && %s >= %s && %s <= %s)", present, value, lits[0], value, lits[1]), nil
	default:
		return "", fmt.Errorf("unsupported operator: %s", c.Op)
	}
}

func accessor(path []string) string {
	var b strings.Builder
	b.WriteString("doc")
	for _, seg := range path {
		b.WriteString("[")
		b.WriteString(strconv.Quote(seg))
		b.WriteString("]")
	}
	return b.String()
}

// presence guards every step of the path so that missing keys and non-map
// intermediates evaluate to false instead of failing.
func presence(path []string, access string) string {
	parts := make([]string, 0, 2*len(path))
	for i, seg := range path {
		parent := accessor(path[:i])
		if i > 0 {
			parts = append(parts, fmt.Sprintf("type(%s) == map", parent))
		}
		parts = append(parts, fmt.Sprintf("%s in %s", strconv.Quote(seg), parent))
	}
	parts = append(parts, access+" != null")
	return "(" + strings.Join(parts, " && ") + ")"
}

func formatValue(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return strconv.Quote(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		s := strconv.FormatFloat(val, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s, nil
	case bool:
		return strconv.FormatBool(val), nil
	case time.Time:
		return "timestamp(" + strconv.Quote(val.UTC().Format(time.RFC3339Nano)) + ")", nil
	case uuid.UUID:
		return strconv.Quote(val.String()), nil
	default:
		return "", fmt.Errorf("unsupported value type: %T", v)
	}
}
