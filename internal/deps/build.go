package deps

import (
	"fmt"

	"github.com/goliatone/go-formcode/pkg/ast"
)

// ResolveReference maps the text of a dependency clause to a field id. The
// reference is matched against labels first, then against the slug of the
// reference, then against raw ids.
func ResolveReference(fields []ast.Field, reference string) (string, bool) {
	for _, field := range fields {
		if field.Label == reference {
			return field.ID, true
		}
	}
	slug := ast.AsInternalID(reference)
	for _, field := range fields {
		if field.ID == slug {
			return field.ID, true
		}
	}
	for _, field := range fields {
		if field.ID == reference {
			return field.ID, true
		}
	}
	return "", false
}

// Build creates the graph for a form whose dependencies carry resolved field
// ids. It fails with ast.FieldCompileError when a dependency points to an
// unknown field, requires a value a choice field cannot hold, or closes a
// cycle.
func Build(form ast.Form) (*Graph, error) {
	fields := ast.Flatten(form)
	byID := make(map[string]ast.Field, len(fields))
	g := New()
	for _, field := range fields {
		byID[field.ID] = field
		g.AddNode(field.ID)
	}

	for _, field := range fields {
		dep := field.Dependency
		if dep == nil {
			continue
		}
		target, ok := byID[dep.FieldID]
		if !ok {
			return nil, ast.FieldCompileError{
				FieldName: field.Label,
				Reason:    fmt.Sprintf("depends on unknown field %q", referenceText(dep)),
			}
		}
		if target.Type.Kind.IsChoice() && !target.HasChoice(dep.Value) {
			return nil, ast.FieldCompileError{
				FieldName: field.Label,
				Reason:    fmt.Sprintf("%q is not an option of %q", dep.Value, target.Label),
			}
		}
		if err := g.AddEdge(field.ID, target.ID); err != nil {
			return nil, ast.FieldCompileError{FieldName: field.Label, Reason: err.Error()}
		}
	}

	if id, found := g.FindCycle(); found {
		return nil, ast.FieldCompileError{FieldName: byID[id].Label, Reason: "dependency cycle"}
	}
	return g, nil
}

func referenceText(dep *ast.Dependency) string {
	if dep.Reference != "" {
		return dep.Reference
	}
	return dep.FieldID
}
