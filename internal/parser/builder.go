// Package parser turns formcode source into a validated ast.Form. It drives
// the lexer, parses declarations, resolves pattern types, builds the
// fieldset tree and links dependencies. Parsing is all-or-nothing.
package parser

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-formcode/internal/deps"
	"github.com/goliatone/go-formcode/internal/lexer"
	"github.com/goliatone/go-formcode/internal/patterns"
	"github.com/goliatone/go-formcode/pkg/ast"
)

// Parse compiles source text into a validated tree.
func Parse(source string) (ast.Form, error) {
	lines, err := lexer.Lex(source)
	if err != nil {
		return ast.Form{}, err
	}

	b := newBuilder()
	for i := 0; i < len(lines); {
		line := lines[i]
		switch line.Kind {
		case lexer.FieldsetHeader:
			if err := b.openFieldset(line); err != nil {
				return ast.Form{}, err
			}
			i++
		case lexer.FieldDeclaration:
			next, err := b.addField(lines, i)
			if err != nil {
				return ast.Form{}, err
			}
			i = next
		case lexer.Blank:
			i++
		default:
			// Options and comments are consumed together with their field.
			return ast.Form{}, syntaxError(line.Number, fmt.Sprintf("unexpected %s line", line.Kind))
		}
	}

	form, err := b.finish()
	if err != nil {
		return ast.Form{}, err
	}
	if err := resolveDependencies(&form, b.refs); err != nil {
		return ast.Form{}, err
	}
	return form, nil
}

type builder struct {
	form    ast.Form
	current *ast.Fieldset
	ids     map[string]struct{}
	labels  map[string]struct{}
	refs    map[string]string
}

func newBuilder() *builder {
	return &builder{
		ids:    make(map[string]struct{}),
		labels: make(map[string]struct{}),
		refs:   make(map[string]string),
	}
}

func (b *builder) openFieldset(line lexer.Line) error {
	if err := b.closeFieldset(); err != nil {
		return err
	}
	title, err := plainText(line.Number, line.Text)
	if err != nil {
		return err
	}
	if title == "" {
		return syntaxError(line.Number, "missing fieldset title")
	}
	b.current = &ast.Fieldset{Title: title}
	return nil
}

func (b *builder) closeFieldset() error {
	if b.current == nil {
		return nil
	}
	if len(b.current.Fields) == 0 {
		return ast.EmptyFieldsetError{FieldName: b.current.Title}
	}
	b.form.Fieldsets = append(b.form.Fieldsets, *b.current)
	b.current = nil
	return nil
}

// addField consumes the declaration at lines[start] together with its option
// and comment lines and returns the index of the next unconsumed line.
func (b *builder) addField(lines []lexer.Line, start int) (int, error) {
	decl, err := parseDeclaration(lines[start])
	if err != nil {
		return 0, err
	}

	i := start + 1
	var options []patterns.OptionLine
	for ; i < len(lines) && lines[i].Kind == lexer.Option; i++ {
		radio, selected, text, _ := lexer.ParseOption(lines[i].Text)
		label, err := plainText(lines[i].Number, text)
		if err != nil {
			return 0, err
		}
		options = append(options, patterns.OptionLine{
			Line:     lines[i].Number,
			Radio:    radio,
			Selected: selected,
			Label:    label,
		})
	}
	var hints []string
	for ; i < len(lines) && lines[i].Kind == lexer.Comment; i++ {
		text, err := plainText(lines[i].Number, lines[i].Text)
		if err != nil {
			return 0, err
		}
		if text != "" {
			hints = append(hints, text)
		}
	}

	resolved, err := patterns.Resolve(patterns.Candidate{Line: decl.line, Text: decl.pattern, Options: options})
	if err != nil {
		return 0, err
	}

	label, err := plainText(decl.line, decl.label)
	if err != nil {
		return 0, err
	}
	if label == "" {
		return 0, syntaxError(decl.line, "missing label")
	}
	if _, dup := b.labels[label]; dup {
		return 0, ast.DuplicateLabelError{Label: label}
	}
	b.labels[label] = struct{}{}

	id := ast.UniqueID(ast.AsInternalID(label), b.ids)
	b.ids[id] = struct{}{}

	field := ast.Field{
		ID:       id,
		Label:    label,
		Type:     resolved.Type,
		Required: decl.required,
		Choices:  resolved.Choices,
		Bounds:   resolved.Bounds,
		Hint:     strings.Join(hints, "\n"),
	}
	if decl.hasDep {
		field.Dependency = &ast.Dependency{Value: decl.depValue, Reference: decl.depRef}
		b.refs[id] = decl.depRef
	}

	if b.current == nil {
		b.current = &ast.Fieldset{}
	}
	b.current.Fields = append(b.current.Fields, field)
	return i, nil
}

func (b *builder) finish() (ast.Form, error) {
	if err := b.closeFieldset(); err != nil {
		return ast.Form{}, err
	}
	if len(b.form.Fieldsets) == 0 {
		return ast.Form{}, ast.EmptyFieldsetError{}
	}
	return b.form, nil
}

// resolveDependencies links dependency references to field ids once the
// whole tree is known, so forward references resolve, then checks the graph.
func resolveDependencies(form *ast.Form, refs map[string]string) error {
	all := ast.Flatten(*form)
	for si := range form.Fieldsets {
		fields := form.Fieldsets[si].Fields
		for fi := range fields {
			field := &fields[fi]
			if field.Dependency == nil {
				continue
			}
			id, ok := deps.ResolveReference(all, refs[field.ID])
			if !ok {
				return ast.FieldCompileError{
					FieldName: field.Label,
					Reason:    fmt.Sprintf("depends on unknown field %q", refs[field.ID]),
				}
			}
			field.Dependency.FieldID = id
		}
	}
	_, err := deps.Build(*form)
	return err
}
