// Package export renders a parsed form tree into formats other tools read:
// an OpenAPI object schema describing the serialized submission, JSON and
// YAML dumps of the tree, and a plain text outline.
package export

import (
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/shopspring/decimal"

	"github.com/goliatone/go-formcode/pkg/ast"
)

// Extension keys set on exported property schemas.
const (
	ExtDependsOn = "x-formcode-depends-on"
	ExtKind      = "x-formcode-kind"
	ExtValidator = "x-formcode-validator"
	ExtFieldset  = "x-formcode-fieldset"
	ExtRows      = "x-formcode-rows"
	ExtAccept    = "x-formcode-accept"
	ExtMinimum   = "x-formcode-minimum"
	ExtMaximum   = "x-formcode-maximum"
)

// OpenAPISchema describes the serialized submission of form as an OpenAPI
// object schema. Property names are field ids; required fields without a
// dependency are listed as required, since dependent fields may be skipped.
func OpenAPISchema(form ast.Form) *openapi3.Schema {
	schema := openapi3.NewObjectSchema()
	var required []string
	for _, set := range form.Fieldsets {
		for _, field := range set.Fields {
			prop := propertySchema(field)
			if set.Title != "" {
				prop.Extensions[ExtFieldset] = set.Title
			}
			schema.WithProperty(field.ID, prop)
			if field.Required && field.Dependency == nil {
				required = append(required, field.ID)
			}
		}
	}
	schema.Required = required
	return schema
}

func propertySchema(field ast.Field) *openapi3.Schema {
	var s *openapi3.Schema
	switch field.Type.Kind {
	case ast.KindText, ast.KindPassword:
		s = openapi3.NewStringSchema()
		if field.Type.MaxLength > 0 {
			s.WithMaxLength(int64(field.Type.MaxLength))
		}
		if field.Type.Kind == ast.KindPassword {
			s.WithFormat("password")
		}
	case ast.KindTextarea:
		s = openapi3.NewStringSchema()
	case ast.KindEmail:
		s = openapi3.NewStringSchema().WithFormat("email")
	case ast.KindURL:
		s = openapi3.NewStringSchema().WithFormat("uri")
	case ast.KindDate:
		s = openapi3.NewStringSchema().WithFormat("date")
	case ast.KindTime:
		s = openapi3.NewStringSchema().WithFormat("time").WithPattern(`^\d{2}:\d{2}$`)
	case ast.KindDateTime:
		s = openapi3.NewStringSchema().WithPattern(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}$`)
	case ast.KindInteger:
		s = openapi3.NewIntegerSchema()
		withBounds(s, field.Bounds)
	case ast.KindDecimal:
		s = decimalSchema(field.Bounds)
	case ast.KindFile:
		s = fileSchema()
	case ast.KindValidated:
		s = openapi3.NewStringSchema()
		if pattern, ok := validatorPatterns[field.Type.Validator]; ok {
			s.WithPattern(pattern)
		}
	case ast.KindRadio:
		s = openapi3.NewStringSchema().WithEnum(choiceValues(field)...)
	case ast.KindCheckbox:
		items := openapi3.NewStringSchema().WithEnum(choiceValues(field)...)
		s = openapi3.NewArraySchema().WithItems(items)
		s.UniqueItems = true
	default:
		s = openapi3.NewStringSchema()
	}

	s.Title = field.Label
	s.Description = field.Hint
	if s.Extensions == nil {
		s.Extensions = make(map[string]any)
	}
	s.Extensions[ExtKind] = string(field.Type.Kind)
	if field.Type.Validator != "" {
		s.Extensions[ExtValidator] = field.Type.Validator
	}
	if field.Type.Rows > 0 {
		s.Extensions[ExtRows] = field.Type.Rows
	}
	if len(field.Type.Extensions) > 0 {
		s.Extensions[ExtAccept] = append([]string(nil), field.Type.Extensions...)
	}
	if dep := field.Dependency; dep != nil {
		s.Extensions[ExtDependsOn] = map[string]any{
			"field": dep.FieldID,
			"value": dep.Value,
		}
	}
	if defaults := field.SelectedValues(); len(defaults) > 0 {
		if field.Type.Kind == ast.KindRadio {
			s.Default = defaults[0]
		} else {
			s.Default = defaults
		}
	}
	return s
}

// validatorPatterns hold the formatted shape of normalized validator output.
var validatorPatterns = map[string]string{
	ast.ValidatorIBAN:  `^[A-Z]{2}[0-9]{2}[A-Z0-9]{11,30}$`,
	ast.ValidatorCHSSN: `^756\.[0-9]{4}\.[0-9]{4}\.[0-9]{2}$`,
	ast.ValidatorCHUID: `^CHE-[0-9]{3}\.[0-9]{3}\.[0-9]{3}$`,
	ast.ValidatorCHVAT: `^CHE-[0-9]{3}\.[0-9]{3}\.[0-9]{3} (MWST|TVA|IVA)$`,
}

func withBounds(s *openapi3.Schema, bounds *ast.Bounds) {
	if bounds == nil {
		return
	}
	if lo, ok := parseBound(bounds.Min); ok {
		s.WithMin(lo)
	}
	if hi, ok := parseBound(bounds.Max); ok {
		s.WithMax(hi)
	}
}

func parseBound(text string) (float64, bool) {
	d, err := decimal.NewFromString(text)
	if err != nil {
		return 0, false
	}
	return d.InexactFloat64(), true
}

// decimalSchema describes decimals serialized as fixed-point strings.
func decimalSchema(bounds *ast.Bounds) *openapi3.Schema {
	s := openapi3.NewStringSchema().WithFormat("decimal")
	s.Extensions = make(map[string]any)
	if bounds == nil {
		return s
	}
	pattern := `^-?[0-9]+$`
	if bounds.Precision > 0 {
		pattern = fmt.Sprintf(`^-?[0-9]+\.[0-9]{%d}$`, bounds.Precision)
	}
	s.WithPattern(pattern)
	s.Extensions[ExtMinimum] = bounds.Min
	s.Extensions[ExtMaximum] = bounds.Max
	return s
}

func fileSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().
		WithProperty("filename", openapi3.NewStringSchema()).
		WithProperty("mimetype", openapi3.NewStringSchema()).
		WithProperty("size", openapi3.NewIntegerSchema()).
		WithProperty("data", openapi3.NewStringSchema().WithFormat("byte"))
}

func choiceValues(field ast.Field) []any {
	values := make([]any, len(field.Choices))
	for i, choice := range field.Choices {
		values[i] = choice.Value
	}
	return values
}
