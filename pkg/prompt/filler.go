// Package prompt fills a compiled form interactively. Fields are asked in
// dependency order, fields whose dependency does not hold are skipped, and
// every answer is checked before moving on.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-formcode/pkg/ast"
	"github.com/goliatone/go-formcode/pkg/compiler"
)

// SkipOption is the extra choice offered for optional radio fields.
const SkipOption = "(skip)"

const defaultMaxAttempts = 3

// Filler asks for every active field of a form.
type Filler struct {
	driver      PromptDriver
	readFile    func(name string) ([]byte, error)
	maxAttempts int
}

// New creates a Filler. Without WithPromptDriver it prompts on the terminal.
func New(opts ...Option) *Filler {
	f := &Filler{
		driver:      NewSurveyDriver(os.Stdout),
		readFile:    os.ReadFile,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Fill prompts for the form and returns the validated values.
func (f *Filler) Fill(ctx context.Context, form *compiler.Form) (compiler.Values, error) {
	if form == nil {
		return nil, errors.New("prompt: form is required")
	}

	titles := fieldsetTitles(form.AST())
	raw := make(map[string]any)
	typed := make(compiler.Values)
	lastTitle := ""

	for _, id := range form.Order() {
		if !form.Active(id, typed) {
			continue
		}
		field, _ := form.Find(id)
		if title := titles[id]; title != "" && title != lastTitle {
			if err := f.driver.Info(ctx, title); err != nil {
				return nil, err
			}
			lastTitle = title
		}

		answer, value, err := f.askValid(ctx, form, field)
		if err != nil {
			return nil, err
		}
		raw[id] = answer
		if value != nil {
			typed[id] = value
		}
	}

	return form.Validate(raw)
}

func (f *Filler) askValid(ctx context.Context, form *compiler.Form, field ast.Field) (any, any, error) {
	for attempt := 0; attempt < f.maxAttempts; attempt++ {
		answer, err := f.ask(ctx, form, field)
		if err != nil {
			return nil, nil, err
		}
		value, err := form.Coerce(field.ID, answer)
		if err == nil {
			return answer, value, nil
		}
		var fieldErr compiler.FieldError
		if !errors.As(err, &fieldErr) {
			return nil, nil, err
		}
		if err := f.driver.Info(ctx, fmt.Sprintf("%s: %s", field.Label, fieldErr.Message)); err != nil {
			return nil, nil, err
		}
	}
	return nil, nil, fmt.Errorf("%w: %s", ErrTooManyAttempts, field.Label)
}

func (f *Filler) ask(ctx context.Context, form *compiler.Form, field ast.Field) (any, error) {
	message := field.Label
	if field.Required {
		message += " *"
	}
	check := func(text string) error { return form.Check(field.ID, text) }

	switch field.Type.Kind {
	case ast.KindRadio:
		return f.askRadio(ctx, field, message)
	case ast.KindCheckbox:
		return f.askCheckbox(ctx, field, message)
	case ast.KindPassword:
		return f.driver.Password(ctx, InputConfig{Message: message, Help: field.Hint, Validator: check})
	case ast.KindTextarea:
		return f.driver.TextArea(ctx, TextAreaConfig{Message: message, Help: field.Hint})
	case ast.KindFile:
		return f.askUpload(ctx, field, message)
	default:
		return f.driver.Input(ctx, InputConfig{
			Message:   message,
			Help:      joinHelp(field.Hint, inputHint(field.Type.Kind)),
			Validator: check,
		})
	}
}

func (f *Filler) askRadio(ctx context.Context, field ast.Field, message string) (any, error) {
	options := make([]string, 0, len(field.Choices)+1)
	defaultIndex := 0
	for i, choice := range field.Choices {
		options = append(options, choice.Label)
		if choice.Selected {
			defaultIndex = i
		}
	}
	if !field.Required {
		options = append(options, SkipOption)
	}
	idx, err := f.driver.Select(ctx, SelectConfig{
		Message:      message,
		Options:      options,
		DefaultIndex: defaultIndex,
		Help:         field.Hint,
	})
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(field.Choices) {
		return "", nil
	}
	return field.Choices[idx].Value, nil
}

func (f *Filler) askCheckbox(ctx context.Context, field ast.Field, message string) (any, error) {
	options := make([]string, len(field.Choices))
	var defaults []int
	for i, choice := range field.Choices {
		options[i] = choice.Label
		if choice.Selected {
			defaults = append(defaults, i)
		}
	}
	picked, err := f.driver.MultiSelect(ctx, SelectConfig{
		Message:  message,
		Options:  options,
		Defaults: defaults,
		Help:     field.Hint,
	})
	if err != nil {
		return nil, err
	}
	values := make([]string, 0, len(picked))
	for _, idx := range picked {
		if idx >= 0 && idx < len(field.Choices) {
			values = append(values, field.Choices[idx].Value)
		}
	}
	return values, nil
}

// askUpload reads the file at the entered path. An empty path means no
// upload.
func (f *Filler) askUpload(ctx context.Context, field ast.Field, message string) (any, error) {
	help := field.Hint
	if len(field.Type.Extensions) > 0 {
		help = joinHelp(help, "allowed: "+strings.Join(field.Type.Extensions, ", "))
	}
	name, err := f.driver.Input(ctx, InputConfig{Message: message, Help: help})
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil
	}
	content, err := f.readFile(name)
	if err != nil {
		return nil, fmt.Errorf("prompt: read upload %s: %w", name, err)
	}
	return compiler.Upload{
		Filename: filepath.Base(name),
		MimeType: mime.TypeByExtension(filepath.Ext(name)),
		Content:  content,
	}, nil
}

func inputHint(kind ast.Kind) string {
	switch kind {
	case ast.KindDate:
		return "format: YYYY-MM-DD"
	case ast.KindTime:
		return "format: HH:MM"
	case ast.KindDateTime:
		return "format: YYYY-MM-DD HH:MM"
	default:
		return ""
	}
}

func joinHelp(parts ...string) string {
	var out []string
	for _, part := range parts {
		if part != "" {
			out = append(out, part)
		}
	}
	return strings.Join(out, "\n")
}

func fieldsetTitles(form ast.Form) map[string]string {
	titles := make(map[string]string)
	for _, set := range form.Fieldsets {
		for _, field := range set.Fields {
			titles[field.ID] = set.Title
		}
	}
	return titles
}
