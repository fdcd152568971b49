package query

import (
	"strings"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/rzbill/logbook/internal/journal"
	"github.com/rzbill/logbook/internal/logtype"
)

// celFilter wraps a compiled CEL program. When disabled, Eval always returns
// true.
type celFilter struct {
	prog    cel.Program
	enabled bool
}

func newCELFilter(expr string) (celFilter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return celFilter{enabled: false}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("content", cel.StringType),
		cel.Variable("type_id", cel.StringType),
		cel.Variable("type_name", cel.StringType),
		cel.Variable("create_ms", cel.IntType),
		// values by placeholder id
		cel.Variable("values", cel.MapType(cel.StringType, cel.StringType)),
		// values by placeholder name
		cel.Variable("fields", cel.MapType(cel.StringType, cel.StringType)),
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return celFilter{}, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return celFilter{}, iss.Err()
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return celFilter{}, iss2.Err()
	}
	prog, err := env.Program(checked)
	if err != nil {
		return celFilter{}, err
	}
	return celFilter{prog: prog, enabled: true}, nil
}

// Eval evaluates the expression against l. Evaluation errors count as no
// match.
func (f celFilter) Eval(l journal.Log) bool {
	if !f.enabled {
		return true
	}
	values := make(map[string]string, len(l.PlaceholderValues))
	for _, v := range l.PlaceholderValues {
		values[v.ID] = v.Value
	}
	fields := make(map[string]string, len(l.LogType.Placeholders))
	for _, p := range l.LogType.Placeholders {
		if p.Name == "" {
			continue
		}
		if v, ok := values[p.ID]; ok {
			fields[p.Name] = v
		}
	}
	out, _, err := f.prog.Eval(map[string]any{
		"content":   l.Content,
		"type_id":   logtype.CanonicalID(l.LogType.ID),
		"type_name": l.LogType.Name,
		"create_ms": l.CreateAt.UnixMilli(),
		"values":    values,
		"fields":    fields,
		"now_ms":    time.Now().UnixMilli(),
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
