package deps

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formcode/pkg/ast"
)

func field(id, label string, dependsOn string, value string) ast.Field {
	f := ast.Field{ID: id, Label: label, Type: ast.FieldType{Kind: ast.KindText}}
	if dependsOn != "" {
		f.Dependency = &ast.Dependency{FieldID: dependsOn, Value: value}
	}
	return f
}

func form(fields ...ast.Field) ast.Form {
	return ast.Form{Fieldsets: []ast.Fieldset{{Fields: fields}}}
}

func TestGraph_OrderPlacesDependeesFirst(t *testing.T) {
	g := New()
	for _, id := range []string{"a", "b", "c", "d"} {
		g.AddNode(id)
	}
	// a depends on c, which depends on d
	if err := g.AddEdge("a", "c"); err != nil {
		t.Fatal(err)
	}
	if err := g.AddEdge("c", "d"); err != nil {
		t.Fatal(err)
	}

	got, err := g.Order()
	if err != nil {
		t.Fatalf("Order: %v", err)
	}
	if diff := cmp.Diff([]string{"d", "c", "a", "b"}, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestGraph_AddEdgeUnknownNodes(t *testing.T) {
	g := New()
	g.AddNode("a")
	if err := g.AddEdge("a", "missing"); err == nil {
		t.Fatalf("expected error for unknown dependency")
	}
	if err := g.AddEdge("missing", "a"); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestGraph_FindCycle(t *testing.T) {
	g := New()
	for _, id := range []string{"x", "a", "b"} {
		g.AddNode(id)
	}
	_ = g.AddEdge("a", "b")
	_ = g.AddEdge("b", "a")

	id, found := g.FindCycle()
	if !found || id != "a" {
		t.Fatalf("expected cycle through a, got %q (found=%v)", id, found)
	}
	if _, err := g.Order(); err == nil {
		t.Fatalf("expected Order to fail on a cycle")
	}
}

func TestResolveReference(t *testing.T) {
	fields := []ast.Field{
		{ID: "first_name", Label: "First name"},
		{ID: "age", Label: "Years"},
		{ID: "years", Label: "Age in years"},
	}
	cases := []struct {
		ref  string
		want string
		ok   bool
	}{
		{ref: "First name", want: "first_name", ok: true},
		{ref: "first name", want: "first_name", ok: true},
		{ref: "Years", want: "age", ok: true},
		{ref: "age", want: "age", ok: true},
		{ref: "Unknown", ok: false},
	}
	for _, tc := range cases {
		got, ok := ResolveReference(fields, tc.ref)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ResolveReference(%q) = (%q, %v), want (%q, %v)", tc.ref, got, ok, tc.want, tc.ok)
		}
	}
}

func TestBuild(t *testing.T) {
	colour := ast.Field{
		ID:    "colour",
		Label: "Colour",
		Type:  ast.FieldType{Kind: ast.KindRadio},
		Choices: []ast.Choice{
			{Value: "Red", Label: "Red"},
			{Value: "Blue", Label: "Blue"},
		},
	}

	t.Run("valid forward reference", func(t *testing.T) {
		g, err := Build(form(field("a", "A", "b", "x"), field("b", "B", "", "")))
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if to, ok := g.DependsOn("a"); !ok || to != "b" {
			t.Fatalf("expected a to depend on b, got %q (ok=%v)", to, ok)
		}
	})

	cases := []struct {
		name  string
		form  ast.Form
		field string
	}{
		{name: "unknown field", form: form(field("a", "A", "missing", "x")), field: "A"},
		{name: "cycle", form: form(field("a", "A", "b", "x"), field("b", "B", "a", "y")), field: "A"},
		{name: "self reference", form: form(field("a", "A", "a", "x")), field: "A"},
		{name: "value not an option", form: form(colour, field("a", "A", "colour", "Green")), field: "A"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(tc.form)
			var compileErr ast.FieldCompileError
			if !errors.As(err, &compileErr) {
				t.Fatalf("expected FieldCompileError, got %v", err)
			}
			if compileErr.FieldName != tc.field {
				t.Fatalf("expected error for %q, got %q", tc.field, compileErr.FieldName)
			}
		})
	}
}
