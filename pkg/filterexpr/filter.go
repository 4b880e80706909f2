// Package filterexpr compiles CEL boolean expressions over flat rows, e.g.
//
//	country == "Nigeria" && progress >= 50.0 && name.startsWith("A")
package filterexpr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
)

// ErrInvalidFilter wraps every compile-time failure of an expression.
var ErrInvalidFilter = errors.New("invalid filter")

// ValueKind describes the type of a row field.
type ValueKind string

const (
	KindString ValueKind = "string"
	KindNumber ValueKind = "number"
	KindBool   ValueKind = "bool"
)

// Schema maps field names to their kinds.
type Schema map[string]ValueKind

// Row is one record to match, keyed by the field names of the schema.
type Row map[string]any

// Filter is a compiled expression. A nil Filter matches every row.
type Filter struct {
	source  string
	schema  Schema
	program cel.Program
}

// Compile parses and type-checks the expression against the schema. An
// empty expression yields a nil Filter.
func Compile(expr string, schema Schema) (*Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	if len(schema) == 0 {
		return nil, fmt.Errorf("%w: schema has no fields defined", ErrInvalidFilter)
	}

	env, err := buildEnv(schema)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("%w: must evaluate to bool, got %s", ErrInvalidFilter, ast.OutputType())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	return &Filter{source: expr, schema: schema, program: prg}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.source
}

// Match evaluates the filter against a row. Fields missing from the row
// take the zero value of their kind.
func (f *Filter) Match(row Row) (bool, error) {
	if f == nil {
		return true, nil
	}

	vars := make(map[string]any, len(f.schema))
	for name, kind := range f.schema {
		v, err := coerce(kind, row[name])
		if err != nil {
			return false, fmt.Errorf("field %q: %w", name, err)
		}
		vars[name] = v
	}

	out, _, err := f.program.Eval(vars)
	if err != nil {
		return false, fmt.Errorf("evaluate filter: %w", err)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("filter returned %T, want bool", out.Value())
	}
	return matched, nil
}

func buildEnv(schema Schema) (*cel.Env, error) {
	opts := make([]cel.EnvOption, 0, len(schema)+1)
	for name, kind := range schema {
		celType, err := celTypeForKind(kind)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		opts = append(opts, cel.Variable(name, celType))
	}
	opts = append(opts, cel.CrossTypeNumericComparisons(true))
	return cel.NewEnv(opts...)
}

func celTypeForKind(kind ValueKind) (*cel.Type, error) {
	switch kind {
	case KindString:
		return cel.StringType, nil
	case KindNumber:
		return cel.DoubleType, nil
	case KindBool:
		return cel.BoolType, nil
	default:
		return nil, fmt.Errorf("unsupported field kind %s", kind)
	}
}

func coerce(kind ValueKind, v any) (any, error) {
	switch kind {
	case KindString:
		switch t := v.(type) {
		case nil:
			return "", nil
		case string:
			return t, nil
		case fmt.Stringer:
			return t.String(), nil
		default:
			return fmt.Sprint(t), nil
		}
	case KindNumber:
		switch t := v.(type) {
		case nil:
			return float64(0), nil
		case int:
			return float64(t), nil
		case int32:
			return float64(t), nil
		case int64:
			return float64(t), nil
		case float32:
			return float64(t), nil
		case float64:
			return t, nil
		default:
			return nil, fmt.Errorf("value %v (%T) is not a number", v, v)
		}
	case KindBool:
		switch t := v.(type) {
		case nil:
			return false, nil
		case bool:
			return t, nil
		default:
			return nil, fmt.Errorf("value %v (%T) is not a bool", v, v)
		}
	default:
		return nil, fmt.Errorf("unsupported field kind %s", kind)
	}
}
