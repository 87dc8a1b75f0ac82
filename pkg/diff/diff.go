// Package diff compares two versions of a form definition and reports the
// edits that would break submissions already stored against the old one.
// It never migrates data.
package diff

import (
	"github.com/goliatone/go-formcode/pkg/ast"
)

// Issue is a migration problem. Concrete values are
// ast.RequiredFieldAddedError and ast.MixedTypeError.
type Issue = error

// Diff reports every migration issue between old and updated. existing
// holds the ids of fields that already carry submitted values; an empty set
// means the form has no submissions yet.
//
// Required fields new to the form produce a single RequiredFieldAddedError
// listing them in document order, but only when submissions exist. Fields
// present in both versions whose type changed incompatibly produce a
// MixedTypeError when they already hold data.
func Diff(old, updated ast.Form, existing map[string]struct{}) []Issue {
	before := make(map[string]ast.Field)
	for _, field := range ast.Flatten(old) {
		before[field.ID] = field
	}

	var issues []Issue
	var added []string
	for _, field := range ast.Flatten(updated) {
		prev, ok := before[field.ID]
		if !ok {
			if field.Required && len(existing) > 0 {
				added = append(added, field.Label)
			}
			continue
		}
		if _, hasData := existing[field.ID]; hasData && !Compatible(prev, field) {
			issues = append(issues, ast.MixedTypeError{FieldName: field.Label})
		}
	}

	if len(added) > 0 {
		issues = append([]Issue{ast.RequiredFieldAddedError{FieldNames: added}}, issues...)
	}
	return issues
}

// IDSet builds the existing-values set from a list of ids.
func IDSet(ids ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

// stringKinds hold values stored as a single line of text.
var stringKinds = map[ast.Kind]bool{
	ast.KindText:      true,
	ast.KindPassword:  true,
	ast.KindEmail:     true,
	ast.KindURL:       true,
	ast.KindValidated: true,
	ast.KindRadio:     true,
}

// Compatible reports whether data stored for before can be read as after.
// Same kinds are compatible; single-line string data may become free text;
// integers may become decimals.
func Compatible(before, after ast.Field) bool {
	from, to := before.Type.Kind, after.Type.Kind
	switch {
	case from == to:
		return true
	case stringKinds[from] && (to == ast.KindText || to == ast.KindTextarea):
		return true
	case from == ast.KindInteger && to == ast.KindDecimal:
		return true
	default:
		return false
	}
}
