// Package lexer splits formcode source into classified lines and enforces
// the indentation and comment placement rules.
package lexer

import (
	"regexp"
	"strings"

	"github.com/goliatone/go-formcode/pkg/ast"
)

// IndentUnit is the number of spaces per indentation level. Tabs are never
// accepted as indentation.
const IndentUnit = 4

// CommentMarker opens a comment line; an optional CommentCloser is stripped.
const (
	CommentMarker = "<<"
	CommentCloser = ">>"
)

// Kind classifies a line.
type Kind int

const (
	Blank Kind = iota
	Comment
	FieldsetHeader
	FieldDeclaration
	Option
)

func (k Kind) String() string {
	switch k {
	case Blank:
		return "blank"
	case Comment:
		return "comment"
	case FieldsetHeader:
		return "fieldset"
	case FieldDeclaration:
		return "field"
	case Option:
		return "option"
	default:
		return "unknown"
	}
}

// Line is one classified source line. Text holds the content without
// indentation; for comments the markers are removed, for fieldset headers
// the trailing `=` is removed.
type Line struct {
	Number int
	Depth  int
	Kind   Kind
	Text   string
}

var optionPattern = regexp.MustCompile(`^(\([ xX]?\)|\[[ xX]?\])\s*(.*)$`)

// ParseOption splits an option line into its box (`( )`, `(x)`, `[ ]`,
// `[x]`) and label. ok is false when the text is not an option.
func ParseOption(text string) (radio bool, selected bool, label string, ok bool) {
	match := optionPattern.FindStringSubmatch(text)
	if match == nil {
		return false, false, "", false
	}
	box := match[1]
	radio = box[0] == '('
	selected = strings.ContainsAny(box, "xX")
	return radio, selected, strings.TrimSpace(match[2]), true
}

// Lex normalises line endings, splits the source and classifies every line.
// It stops at the first error; no partial result is returned.
func Lex(source string) ([]Line, error) {
	source = strings.ReplaceAll(source, "\r\n", "\n")
	source = strings.ReplaceAll(source, "\r", "\n")
	raw := strings.Split(source, "\n")

	lines := make([]Line, 0, len(raw))
	for idx, text := range raw {
		line, err := classify(idx+1, text)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	resolveHeaders(lines)

	if err := Validate(lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func classify(number int, text string) (Line, error) {
	line := Line{Number: number}
	trimmed := strings.TrimRight(text, " \t")
	content := strings.TrimLeft(trimmed, " \t")
	if content == "" {
		line.Kind = Blank
		return line, nil
	}

	indent := trimmed[:len(trimmed)-len(content)]
	if strings.ContainsRune(indent, '\t') || len(indent)%IndentUnit != 0 {
		return Line{}, ast.InvalidIndentSyntaxError{Line: number}
	}
	line.Depth = len(indent) / IndentUnit

	switch {
	case strings.HasPrefix(content, CommentMarker):
		line.Kind = Comment
		body := strings.TrimPrefix(content, CommentMarker)
		body = strings.TrimSuffix(body, CommentCloser)
		line.Text = strings.TrimSpace(body)
	case line.Depth > 0:
		if _, _, _, ok := ParseOption(content); !ok {
			return Line{}, ast.InvalidFormSyntaxError{Line: number, Reason: "indented line is not a choice option"}
		}
		line.Kind = Option
		line.Text = content
	case separatorIndex(content) >= 0:
		line.Kind = FieldDeclaration
		line.Text = content
	default:
		return Line{}, ast.InvalidFormSyntaxError{Line: number, Reason: "expected a field declaration or fieldset header"}
	}
	return line, nil
}

// resolveHeaders turns bare `Title =` declarations into fieldset headers
// unless an option block follows them directly.
func resolveHeaders(lines []Line) {
	for i := range lines {
		line := &lines[i]
		if line.Kind != FieldDeclaration || !isHeaderCandidate(line.Text) {
			continue
		}
		if i+1 < len(lines) && lines[i+1].Kind == Option {
			continue
		}
		line.Kind = FieldsetHeader
		line.Text = strings.TrimSpace(strings.TrimSuffix(line.Text, "="))
	}
}

func isHeaderCandidate(text string) bool {
	if !strings.HasSuffix(text, "=") || strings.HasSuffix(text, "*=") {
		return false
	}
	title := strings.TrimSpace(strings.TrimSuffix(text, "="))
	return title != "" && !strings.Contains(title, "=")
}

// SeparatorIndex returns the byte index of the first `=` that is not nested
// in parentheses, or -1.
func SeparatorIndex(text string) int {
	return separatorIndex(text)
}

func separatorIndex(text string) int {
	depth := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case '=':
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
