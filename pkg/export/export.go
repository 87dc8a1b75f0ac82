package export

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formcode/internal/patterns"
	"github.com/goliatone/go-formcode/pkg/ast"
)

//go:embed templates/*.txt
var templateFS embed.FS

const outlineTemplate = "templates/outline.txt"

// JSON encodes the tree with two-space indentation.
func JSON(form ast.Form) ([]byte, error) {
	data, err := json.MarshalIndent(form, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: encode json: %w", err)
	}
	return append(data, '\n'), nil
}

// YAML encodes the tree as a YAML document.
func YAML(form ast.Form) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(form); err != nil {
		return nil, fmt.Errorf("export: encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("export: encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeYAML reads a tree written by YAML.
func DecodeYAML(data []byte) (ast.Form, error) {
	var form ast.Form
	if err := yaml.Unmarshal(data, &form); err != nil {
		return ast.Form{}, fmt.Errorf("export: decode yaml: %w", err)
	}
	return form, nil
}

var (
	outlineOnce sync.Once
	outlineTpl  *pongo2.Template
	outlineErr  error
)

func loadOutline() (*pongo2.Template, error) {
	outlineOnce.Do(func() {
		set := pongo2.NewSet("formcode", pongo2.NewFSLoader(templateFS))
		set.Options.TrimBlocks = true
		set.Options.LStripBlocks = true
		outlineTpl, outlineErr = set.FromFile(outlineTemplate)
	})
	return outlineTpl, outlineErr
}

// Outline renders a plain text overview of the form: one block per fieldset,
// one line per field with its type and id, followed by options and hints.
// Required fields are marked with `*`.
func Outline(form ast.Form) (string, error) {
	tpl, err := loadOutline()
	if err != nil {
		return "", fmt.Errorf("export: load outline template: %w", err)
	}

	labels := make(map[string]string)
	for _, field := range ast.Flatten(form) {
		labels[field.ID] = field.Label
	}

	sets := make([]map[string]any, 0, len(form.Fieldsets))
	for _, set := range form.Fieldsets {
		fields := make([]map[string]any, 0, len(set.Fields))
		for _, field := range set.Fields {
			fields = append(fields, outlineField(field, labels))
		}
		sets = append(sets, map[string]any{"title": set.Title, "fields": fields})
	}

	out, err := tpl.Execute(pongo2.Context{"fieldsets": sets})
	if err != nil {
		return "", fmt.Errorf("export: render outline: %w", err)
	}
	return strings.TrimLeft(out, "\n"), nil
}

func outlineField(field ast.Field, labels map[string]string) map[string]any {
	marker := "-"
	if field.Required {
		marker = "*"
	}
	pattern, options := patterns.Format(field)
	typ := string(field.Type.Kind)
	if pattern != "" {
		typ += " " + pattern
	}
	depends := ""
	if dep := field.Dependency; dep != nil {
		depends = fmt.Sprintf("%s = %s", labels[dep.FieldID], dep.Value)
	}
	return map[string]any{
		"marker":  marker,
		"label":   field.Label,
		"type":    typ,
		"id":      field.ID,
		"depends": depends,
		"options": options,
		"hint":    strings.ReplaceAll(field.Hint, "\n", " "),
	}
}
