package lexer

import "github.com/goliatone/go-formcode/pkg/ast"

// Validate enforces placement rules that depend on neighbouring lines:
// options sit one level below the field they belong to, comments sit at the
// depth of their field and directly follow it (or its options, or another
// comment for the same field).
func Validate(lines []Line) error {
	prev := Blank
	hasPrev := false
	for _, line := range lines {
		switch line.Kind {
		case Option:
			if line.Depth != 1 {
				return ast.InvalidIndentSyntaxError{Line: line.Number}
			}
			if !hasPrev || (prev != FieldDeclaration && prev != Option) {
				return ast.InvalidFormSyntaxError{Line: line.Number, Reason: "choice option without a field"}
			}
		case Comment:
			if line.Depth != 0 {
				return ast.InvalidCommentIndentSyntaxError{Line: line.Number}
			}
			if !hasPrev || (prev != FieldDeclaration && prev != Option && prev != Comment) {
				return ast.InvalidCommentLocationSyntaxError{Line: line.Number}
			}
		}
		prev = line.Kind
		hasPrev = true
	}
	return nil
}
