package parser

import (
	"strings"

	"github.com/goliatone/go-formcode/internal/lexer"
	"github.com/goliatone/go-formcode/pkg/ast"
)

// declaration is a field line split into its parts; the pattern is not yet
// resolved.
type declaration struct {
	line     int
	label    string
	required bool
	depRef   string
	depValue string
	hasDep   bool
	pattern  string
}

func parseDeclaration(line lexer.Line) (declaration, error) {
	decl := declaration{line: line.Number}
	text := line.Text

	sep := lexer.SeparatorIndex(text)
	if sep < 0 {
		return decl, syntaxError(line.Number, "missing `=` separator")
	}
	left := strings.TrimSpace(text[:sep])
	right := strings.TrimSpace(text[sep+1:])

	if strings.HasSuffix(left, "*") {
		decl.required = true
		left = strings.TrimSpace(strings.TrimSuffix(left, "*"))
	}

	if strings.HasSuffix(left, ")") {
		open := matchingOpen(left)
		if open < 0 {
			return decl, syntaxError(line.Number, "unbalanced parenthesis in label")
		}
		if inner := left[open+1 : len(left)-1]; strings.Contains(inner, "=") {
			if err := decl.setDependency(inner); err != nil {
				return decl, err
			}
			left = strings.TrimSpace(left[:open])
		}
	}
	if !balanced(left) {
		return decl, syntaxError(line.Number, "unbalanced parenthesis in label")
	}

	if !decl.hasDep && strings.HasPrefix(right, "(") {
		closing := matchingClose(right)
		if closing < 0 {
			return decl, syntaxError(line.Number, "dangling dependency clause")
		}
		if inner := right[1:closing]; strings.Contains(inner, "=") {
			if err := decl.setDependency(inner); err != nil {
				return decl, err
			}
			right = strings.TrimSpace(right[closing+1:])
		}
	}

	if left == "" {
		return decl, syntaxError(line.Number, "missing label")
	}
	decl.label = left
	decl.pattern = right
	return decl, nil
}

func (d *declaration) setDependency(clause string) error {
	ref, value, _ := strings.Cut(clause, "=")
	ref = strings.TrimSpace(ref)
	value = unquote(strings.TrimSpace(value))
	if ref == "" || value == "" {
		return syntaxError(d.line, "incomplete dependency clause")
	}
	d.depRef = ref
	d.depValue = value
	d.hasDep = true
	return nil
}

func unquote(value string) string {
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if (first == '"' || first == '\'') && first == last {
			return value[1 : len(value)-1]
		}
	}
	return value
}

// matchingOpen returns the index of the `(` that closes the final `)`.
func matchingOpen(text string) int {
	depth := 0
	for i := len(text) - 1; i >= 0; i-- {
		switch text[i] {
		case ')':
			depth++
		case '(':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// matchingClose returns the index of the `)` matching the leading `(`.
func matchingClose(text string) int {
	depth := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func balanced(text string) bool {
	depth := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

func syntaxError(line int, reason string) error {
	return ast.InvalidFormSyntaxError{Line: line, Reason: reason}
}
