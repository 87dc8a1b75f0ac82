// Package compiler binds a validated ast.Form to a reusable runtime form.
// A compiled Form is immutable: it coerces and validates raw submissions,
// serializes typed values into a flat id-keyed map and back, and offers the
// positional helpers of the ast package. It is safe for concurrent use.
package compiler

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/goliatone/go-formcode/internal/deps"
	"github.com/goliatone/go-formcode/pkg/ast"
)

// Check runs after a value was coerced. It is the hook extensions use to
// derive stricter forms.
type Check func(field ast.Field, value any) error

type rangeBounds struct {
	min       decimal.Decimal
	max       decimal.Decimal
	precision int32
}

// Form is the compiled, immutable form descriptor.
type Form struct {
	tree   ast.Form
	fields []ast.Field
	index  map[string]int
	order  []string
	ranges map[string]rangeBounds
	checks map[string][]Check
	// wants holds the canonical dependency value of every dependent field.
	wants map[string]string
}

// Compile verifies the tree invariants and builds a Form from a deep copy
// of tree.
func Compile(tree ast.Form) (*Form, error) {
	tree = tree.Clone()
	f := &Form{
		tree:   tree,
		index:  make(map[string]int),
		ranges: make(map[string]rangeBounds),
		checks: make(map[string][]Check),
		wants:  make(map[string]string),
	}

	labels := make(map[string]struct{})
	for _, set := range tree.Fieldsets {
		if len(set.Fields) == 0 {
			return nil, ast.EmptyFieldsetError{FieldName: set.Title}
		}
		for _, field := range set.Fields {
			if field.ID == "" {
				return nil, ast.FieldCompileError{FieldName: field.Label, Reason: "missing id"}
			}
			if _, dup := f.index[field.ID]; dup {
				return nil, ast.FieldCompileError{FieldName: field.Label, Reason: fmt.Sprintf("duplicate id %q", field.ID)}
			}
			if _, dup := labels[field.Label]; dup {
				return nil, ast.DuplicateLabelError{Label: field.Label}
			}
			labels[field.Label] = struct{}{}
			if err := f.bindType(field); err != nil {
				return nil, err
			}
			f.index[field.ID] = len(f.fields)
			f.fields = append(f.fields, field)
		}
	}
	if len(f.fields) == 0 {
		return nil, ast.EmptyFieldsetError{}
	}

	graph, err := deps.Build(tree)
	if err != nil {
		return nil, err
	}
	if f.order, err = graph.Order(); err != nil {
		return nil, err
	}
	if err := f.bindDependencyValues(); err != nil {
		return nil, err
	}
	return f, nil
}

// bindDependencyValues coerces every dependency value through the type of
// the field it refers to. A value that field can never hold is a compile
// error.
func (f *Form) bindDependencyValues() error {
	for _, field := range f.fields {
		dep := field.Dependency
		if dep == nil {
			continue
		}
		dependee := f.fields[f.index[dep.FieldID]]
		switch dependee.Type.Kind {
		case ast.KindRadio, ast.KindCheckbox, ast.KindFile:
			f.wants[field.ID] = dep.Value
			continue
		}
		value, ferr := f.coerce(dependee, dep.Value)
		if ferr != nil {
			return ast.FieldCompileError{
				FieldName: field.Label,
				Reason:    fmt.Sprintf("%q is not a valid value of %q: %s", dep.Value, dependee.Label, ferr.Message),
			}
		}
		f.wants[field.ID] = valueStrings(dependee, value)[0]
	}
	return nil
}

// MustCompile is like Compile but panics on error. Useful for tests and
// package-level forms.
func MustCompile(tree ast.Form) *Form {
	form, err := Compile(tree)
	if err != nil {
		panic(err)
	}
	return form
}

func (f *Form) bindType(field ast.Field) error {
	kind := field.Type.Kind
	switch {
	case kind.IsRange():
		if field.Bounds == nil {
			return ast.FieldCompileError{FieldName: field.Label, Reason: "range without bounds"}
		}
		lo, err := decimal.NewFromString(field.Bounds.Min)
		if err != nil {
			return ast.FieldCompileError{FieldName: field.Label, Reason: err.Error()}
		}
		hi, err := decimal.NewFromString(field.Bounds.Max)
		if err != nil {
			return ast.FieldCompileError{FieldName: field.Label, Reason: err.Error()}
		}
		if lo.GreaterThan(hi) {
			return ast.FieldCompileError{FieldName: field.Label, Reason: "range minimum exceeds maximum"}
		}
		if kind == ast.KindInteger && (!fitsInt64(lo) || !fitsInt64(hi)) {
			return ast.FieldCompileError{FieldName: field.Label, Reason: "range bound exceeds the 64-bit integer range"}
		}
		f.ranges[field.ID] = rangeBounds{min: lo, max: hi, precision: int32(field.Bounds.Precision)}
	case kind.IsChoice():
		if len(field.Choices) == 0 {
			return ast.FieldCompileError{FieldName: field.Label, Reason: "choice field without options"}
		}
		if kind == ast.KindRadio && len(field.SelectedValues()) > 1 {
			return ast.FieldCompileError{FieldName: field.Label, Reason: "more than one pre-selected option"}
		}
	case kind == ast.KindValidated:
		if _, ok := namedValidators[field.Type.Validator]; !ok {
			return ast.FieldCompileError{FieldName: field.Label, Reason: fmt.Sprintf("unknown validator %q", field.Type.Validator)}
		}
	case kind == "":
		return ast.FieldCompileError{FieldName: field.Label, Reason: "missing type"}
	}
	return nil
}

// AST returns a deep copy of the compiled tree.
func (f *Form) AST() ast.Form {
	return f.tree.Clone()
}

// Flatten returns every field in document order.
func (f *Form) Flatten() []ast.Field {
	return ast.Flatten(f.tree)
}

// Find returns the field with the given id.
func (f *Form) Find(id string) (ast.Field, bool) {
	idx, ok := f.index[id]
	if !ok {
		return ast.Field{}, false
	}
	return f.fields[idx].Clone(), true
}

// Order returns field ids in evaluation order: every field follows the
// field it depends on, otherwise document order is kept.
func (f *Form) Order() []string {
	return append([]string(nil), f.order...)
}

// Move returns a new Form with field id placed before or after target.
// Checks attached with WithCheck are carried over.
func (f *Form) Move(id, target string, position ast.Position) (*Form, error) {
	moved, err := ast.Move(f.tree, id, target, position)
	if err != nil {
		return nil, err
	}
	return f.Rebuild(moved)
}

// Rebuild compiles tree into a new Form and carries over the checks of
// fields that still exist in it.
func (f *Form) Rebuild(tree ast.Form) (*Form, error) {
	out, err := Compile(tree)
	if err != nil {
		return nil, err
	}
	for id, checks := range f.checks {
		if _, ok := out.index[id]; ok {
			out.checks[id] = append([]Check(nil), checks...)
		}
	}
	return out, nil
}

// WithCheck returns a new Form that runs check after coercing field id.
func (f *Form) WithCheck(id string, check Check) (*Form, error) {
	if check == nil {
		return nil, fmt.Errorf("compiler: check for field %q is nil", id)
	}
	if _, ok := f.index[id]; !ok {
		return nil, fmt.Errorf("compiler: field %q not found", id)
	}
	out := *f
	out.checks = f.copyChecks()
	out.checks[id] = append(out.checks[id], check)
	return &out, nil
}

func (f *Form) copyChecks() map[string][]Check {
	out := make(map[string][]Check, len(f.checks))
	for id, checks := range f.checks {
		out[id] = append([]Check(nil), checks...)
	}
	return out
}
