package export

import (
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formcode/internal/parser"
	"github.com/goliatone/go-formcode/pkg/ast"
)

const sample = `Name *= ___[60]
<< As on your passport
Age = 0..150
Height = 0.50..2.50

Preferences =

Colour *=
    ( ) Red
    (x) Blue
Shade (Colour = Blue) *= ...[3]
Extras =
    [ ] Wifi
    [x] Parking
CV = *.pdf
IBAN = # iban
`

func mustParse(t *testing.T) ast.Form {
	t.Helper()
	form, err := parser.Parse(sample)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return form
}

func TestOpenAPISchema_Required(t *testing.T) {
	schema := OpenAPISchema(mustParse(t))
	if diff := cmp.Diff([]string{"name", "colour"}, schema.Required); diff != "" {
		t.Fatalf("required mismatch (-want +got):\n%s", diff)
	}
	if len(schema.Properties) != 8 {
		t.Fatalf("expected 8 properties, got %d", len(schema.Properties))
	}
}

func TestOpenAPISchema_Properties(t *testing.T) {
	props := OpenAPISchema(mustParse(t)).Properties
	prop := func(id string) *openapi3.Schema {
		t.Helper()
		ref, ok := props[id]
		if !ok || ref.Value == nil {
			t.Fatalf("missing property %q", id)
		}
		return ref.Value
	}

	name := prop("name")
	if name.MaxLength == nil || *name.MaxLength != 60 || name.Title != "Name" || name.Description != "As on your passport" {
		t.Fatalf("unexpected name schema %+v", name)
	}
	if _, ok := name.Extensions[ExtFieldset]; ok {
		t.Fatalf("default fieldset must not be exported")
	}

	age := prop("age")
	if !age.Type.Is(openapi3.TypeInteger) || age.Min == nil || *age.Min != 0 || age.Max == nil || *age.Max != 150 {
		t.Fatalf("unexpected age schema %+v", age)
	}

	height := prop("height")
	if height.Pattern != `^-?[0-9]+\.[0-9]{2}$` || height.Extensions[ExtMinimum] != "0.50" || height.Extensions[ExtMaximum] != "2.50" {
		t.Fatalf("unexpected height schema %+v", height)
	}

	colour := prop("colour")
	if diff := cmp.Diff([]any{"Red", "Blue"}, colour.Enum); diff != "" {
		t.Fatalf("colour enum mismatch (-want +got):\n%s", diff)
	}
	if colour.Default != "Blue" || colour.Extensions[ExtFieldset] != "Preferences" {
		t.Fatalf("unexpected colour schema %+v", colour)
	}

	shade := prop("shade")
	wantDep := map[string]any{"field": "colour", "value": "Blue"}
	if diff := cmp.Diff(wantDep, shade.Extensions[ExtDependsOn]); diff != "" {
		t.Fatalf("dependency extension mismatch (-want +got):\n%s", diff)
	}
	if shade.Extensions[ExtRows] != 3 {
		t.Fatalf("expected rows extension, got %v", shade.Extensions[ExtRows])
	}

	extras := prop("extras")
	if !extras.Type.Is(openapi3.TypeArray) || !extras.UniqueItems || extras.Items == nil {
		t.Fatalf("unexpected extras schema %+v", extras)
	}
	if diff := cmp.Diff([]string{"Parking"}, extras.Default); diff != "" {
		t.Fatalf("extras default mismatch (-want +got):\n%s", diff)
	}

	cv := prop("cv")
	if _, ok := cv.Properties["data"]; !ok {
		t.Fatalf("file schema lacks data property")
	}
	if diff := cmp.Diff([]string{"pdf"}, cv.Extensions[ExtAccept]); diff != "" {
		t.Fatalf("accept mismatch (-want +got):\n%s", diff)
	}

	iban := prop("iban")
	if iban.Pattern == "" || iban.Extensions[ExtValidator] != ast.ValidatorIBAN {
		t.Fatalf("unexpected iban schema %+v", iban)
	}
}

func TestYAML_RoundTrip(t *testing.T) {
	form := mustParse(t)
	data, err := YAML(form)
	if err != nil {
		t.Fatalf("YAML: %v", err)
	}
	got, err := DecodeYAML(data)
	if err != nil {
		t.Fatalf("DecodeYAML: %v", err)
	}
	if diff := cmp.Diff(form, got); diff != "" {
		t.Fatalf("yaml round trip mismatch (-want +got):\n%s", diff)
	}

	if _, err := DecodeYAML([]byte("fieldsets: [")); err == nil {
		t.Fatalf("expected error for broken yaml")
	}
}

func TestJSON_EndsWithNewline(t *testing.T) {
	data, err := JSON(mustParse(t))
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if !strings.HasPrefix(string(data), "{\n  \"fieldsets\"") || !strings.HasSuffix(string(data), "}\n") {
		t.Fatalf("unexpected json layout:\n%s", data)
	}
}

func TestOutline(t *testing.T) {
	out, err := Outline(mustParse(t))
	if err != nil {
		t.Fatalf("Outline: %v", err)
	}
	for _, want := range []string{
		"  * Name [text ___[60]] (name)\n",
		"      As on your passport\n",
		"  - Age [integer_range 0..150] (age)\n",
		"Preferences\n",
		"  * Shade [textarea ...[3]] (shade) if Colour = Blue\n",
		"      (x) Blue\n",
		"      [ ] Wifi\n",
		"  - IBAN [validated # iban] (iban)\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("outline lacks %q:\n%s", want, out)
		}
	}
	if strings.HasPrefix(out, "\n") {
		t.Fatalf("outline starts with a blank line")
	}
}
