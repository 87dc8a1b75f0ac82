package ast

import (
	"fmt"
	"strings"
)

// SyntaxError is implemented by every error that points at a source line.
type SyntaxError interface {
	error
	LineNumber() int
}

// InvalidFormSyntaxError reports a line that does not follow the grammar.
type InvalidFormSyntaxError struct {
	Line   int
	Reason string
}

func (e InvalidFormSyntaxError) Error() string {
	return withReason(fmt.Sprintf("formcode: invalid syntax on line %d", e.Line), e.Reason)
}

// LineNumber returns the 1-based line of the error.
func (e InvalidFormSyntaxError) LineNumber() int { return e.Line }

// InvalidIndentSyntaxError reports leading whitespace that is not a multiple
// of the indent unit, contains tabs, or nests deeper than allowed.
type InvalidIndentSyntaxError struct {
	Line int
}

func (e InvalidIndentSyntaxError) Error() string {
	return fmt.Sprintf("formcode: invalid indentation on line %d", e.Line)
}

// LineNumber returns the 1-based line of the error.
func (e InvalidIndentSyntaxError) LineNumber() int { return e.Line }

// InvalidCommentIndentSyntaxError reports a comment that is not indented at
// the depth of the field it annotates.
type InvalidCommentIndentSyntaxError struct {
	Line int
}

func (e InvalidCommentIndentSyntaxError) Error() string {
	return fmt.Sprintf("formcode: invalid comment indentation on line %d", e.Line)
}

// LineNumber returns the 1-based line of the error.
func (e InvalidCommentIndentSyntaxError) LineNumber() int { return e.Line }

// InvalidCommentLocationSyntaxError reports a comment that does not directly
// follow a field.
type InvalidCommentLocationSyntaxError struct {
	Line int
}

func (e InvalidCommentLocationSyntaxError) Error() string {
	return fmt.Sprintf("formcode: comment on line %d does not follow a field", e.Line)
}

// LineNumber returns the 1-based line of the error.
func (e InvalidCommentLocationSyntaxError) LineNumber() int { return e.Line }

// DuplicateLabelError reports two fields sharing the exact same label.
type DuplicateLabelError struct {
	Label string
}

func (e DuplicateLabelError) Error() string {
	return fmt.Sprintf("formcode: duplicate label %q", e.Label)
}

// EmptyFieldsetError reports a fieldset without fields. FieldName holds the
// fieldset title and is empty for the default fieldset.
type EmptyFieldsetError struct {
	FieldName string
}

func (e EmptyFieldsetError) Error() string {
	if e.FieldName == "" {
		return "formcode: form has no fields"
	}
	return fmt.Sprintf("formcode: fieldset %q has no fields", e.FieldName)
}

// FieldCompileError reports a field that cannot be compiled, most often
// because of an unresolvable or cyclic dependency.
type FieldCompileError struct {
	FieldName string
	Reason    string
}

func (e FieldCompileError) Error() string {
	return withReason(fmt.Sprintf("formcode: cannot compile field %q", e.FieldName), e.Reason)
}

// MixedTypeError reports a field whose type changed incompatibly.
type MixedTypeError struct {
	FieldName string
}

func (e MixedTypeError) Error() string {
	return fmt.Sprintf("formcode: field %q changed to an incompatible type", e.FieldName)
}

// RequiredFieldAddedError reports required fields added to a form that
// already has submissions.
type RequiredFieldAddedError struct {
	FieldNames []string
}

func (e RequiredFieldAddedError) Error() string {
	quoted := make([]string, len(e.FieldNames))
	for i, name := range e.FieldNames {
		quoted[i] = fmt.Sprintf("%q", name)
	}
	return fmt.Sprintf("formcode: required fields added to a form with submissions: %s", strings.Join(quoted, ", "))
}

func withReason(msg, reason string) string {
	if reason == "" {
		return msg
	}
	return msg + ": " + reason
}
