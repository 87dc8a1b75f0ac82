package extensions

import (
	"errors"
	"strings"

	"github.com/goliatone/go-formcode/pkg/ast"
	"github.com/goliatone/go-formcode/pkg/compiler"
)

// Names of the built-in extensions.
const (
	Honeypot  = "honeypot"
	Submitter = "submitter"
)

// Labels of the fields added by the built-in extensions.
const (
	HoneypotLabel       = "Duplicate of"
	SubmitterLabel      = "E-Mail"
	SubmitterFieldset   = "Submitter"
	honeypotNotEmptyMsg = "this field must be left empty"
)

// Default is the process-wide registry, populated with the built-ins.
var Default = NewRegistry()

func init() {
	Default.MustRegister(Honeypot, ExtensionFunc(addHoneypot))
	Default.MustRegister(Submitter, ExtensionFunc(addSubmitter))
}

// addHoneypot appends an optional text field that humans leave empty. Any
// value submitted for it is rejected.
func addHoneypot(form *compiler.Form) (*compiler.Form, error) {
	tree := form.AST()
	last := &tree.Fieldsets[len(tree.Fieldsets)-1]
	field := ast.Field{
		ID:    uniqueID(tree, ast.AsInternalID(HoneypotLabel)),
		Label: HoneypotLabel,
		Type:  ast.FieldType{Kind: ast.KindText},
	}
	last.Fields = append(last.Fields, field)

	derived, err := form.Rebuild(tree)
	if err != nil {
		return nil, err
	}
	return derived.WithCheck(field.ID, func(_ ast.Field, value any) error {
		if text, _ := value.(string); strings.TrimSpace(text) != "" {
			return errors.New(honeypotNotEmptyMsg)
		}
		return nil
	})
}

// addSubmitter makes sure the form asks for the submitter's e-mail address.
// Forms that already contain an email field are returned unchanged.
func addSubmitter(form *compiler.Form) (*compiler.Form, error) {
	for _, field := range form.Flatten() {
		if field.Type.Kind == ast.KindEmail {
			return form, nil
		}
	}
	tree := form.AST()
	tree.Fieldsets = append(tree.Fieldsets, ast.Fieldset{
		Title: SubmitterFieldset,
		Fields: []ast.Field{{
			ID:       uniqueID(tree, ast.AsInternalID(SubmitterLabel)),
			Label:    SubmitterLabel,
			Type:     ast.FieldType{Kind: ast.KindEmail},
			Required: true,
		}},
	})
	return form.Rebuild(tree)
}

func uniqueID(tree ast.Form, base string) string {
	taken := make(map[string]struct{})
	for _, id := range tree.IDs() {
		taken[id] = struct{}{}
	}
	return ast.UniqueID(base, taken)
}
