// Package formcode compiles the formcode form-definition language. Staff
// write forms as indented text:
//
//	Personal =
//	Name *= ___
//	<< As written in your passport >>
//	Age = 0..150
//	Newsletter (Age = 18) =
//	    [ ] Weekly
//	    [x] Monthly
//
// Parse turns such text into an ast.Form, Compile binds the tree to a
// runtime form that validates and (de)serializes submissions, and Diff
// reports edits that would break stored submissions.
package formcode

import (
	"strings"

	"github.com/goliatone/go-formcode/internal/lexer"
	"github.com/goliatone/go-formcode/internal/parser"
	"github.com/goliatone/go-formcode/internal/patterns"
	"github.com/goliatone/go-formcode/pkg/ast"
	"github.com/goliatone/go-formcode/pkg/compiler"
	"github.com/goliatone/go-formcode/pkg/diff"
)

// Parse compiles source text into a validated tree. It fails on the first
// syntax or semantic error and never returns a partial tree.
func Parse(source string) (ast.Form, error) {
	return parser.Parse(source)
}

// Compile binds a tree to a reusable runtime form.
func Compile(form ast.Form) (*compiler.Form, error) {
	return compiler.Compile(form)
}

// ParseAndCompile runs Parse followed by Compile.
func ParseAndCompile(source string) (*compiler.Form, error) {
	form, err := Parse(source)
	if err != nil {
		return nil, err
	}
	return Compile(form)
}

// FlattenFieldsets returns every field in document order.
func FlattenFieldsets(form ast.Form) []ast.Field {
	return ast.Flatten(form)
}

// FindField returns the field with the given id.
func FindField(form ast.Form, id string) (ast.Field, bool) {
	return ast.Find(form, id)
}

// MoveFields returns a copy of form with field id moved before or after
// target.
func MoveFields(form ast.Form, id, target string, position ast.Position) (ast.Form, error) {
	return ast.Move(form, id, target, position)
}

// AsInternalID derives the slug used as field id from a label.
func AsInternalID(label string) string {
	return ast.AsInternalID(label)
}

// Diff reports the migration issues between two versions of a form.
func Diff(old, updated ast.Form, existingValueIDs map[string]struct{}) []diff.Issue {
	return diff.Diff(old, updated, existingValueIDs)
}

// Format prints a tree back to canonical source. Parsing the output yields
// the same tree.
func Format(form ast.Form) string {
	var b strings.Builder
	for i, set := range form.Fieldsets {
		if i > 0 {
			b.WriteString("\n")
		}
		if set.Title != "" {
			b.WriteString(set.Title + " =\n\n")
		}
		for _, field := range set.Fields {
			writeField(&b, field)
		}
	}
	return b.String()
}

func writeField(b *strings.Builder, field ast.Field) {
	pattern, options := patterns.Format(field)

	b.WriteString(field.Label)
	if dep := field.Dependency; dep != nil {
		ref := dep.Reference
		if ref == "" {
			ref = dep.FieldID
		}
		b.WriteString(" (" + ref + " = " + dep.Value + ")")
	}
	if field.Required {
		b.WriteString(" *=")
	} else {
		b.WriteString(" =")
	}
	if pattern != "" {
		b.WriteString(" " + pattern)
	}
	b.WriteString("\n")

	for _, option := range options {
		b.WriteString(strings.Repeat(" ", lexer.IndentUnit) + option + "\n")
	}
	if field.Hint != "" {
		for _, line := range strings.Split(field.Hint, "\n") {
			b.WriteString(lexer.CommentMarker + " " + line + " " + lexer.CommentCloser + "\n")
		}
	}
}
