package parser

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formcode/pkg/ast"
	"github.com/goliatone/go-formcode/pkg/testsupport"
)

func TestParse_RegistrationGolden(t *testing.T) {
	source := testsupport.MustReadSource(t, filepath.Join("testdata", "registration.fc"))
	golden := filepath.Join("testdata", "registration.golden.json")

	got, err := Parse(source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	testsupport.WriteGolden(t, golden, got)

	want := testsupport.MustLoadForm(t, golden)
	if diff := testsupport.CompareForms(want, got); diff != "" {
		t.Fatalf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_IsDeterministic(t *testing.T) {
	source := testsupport.MustReadSource(t, filepath.Join("testdata", "registration.fc"))
	first, err := Parse(source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	second, err := Parse(source)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("parse is not deterministic (-first +second):\n%s", diff)
	}
}

func TestParse_UniqueIDs(t *testing.T) {
	form, err := Parse("Name = ___\nname = ___\nNAME! = ___\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var ids []string
	for _, field := range ast.Flatten(form) {
		ids = append(ids, field.ID)
	}
	if diff := cmp.Diff([]string{"name", "name_2", "name_3"}, ids); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_DefaultFieldsetOnly(t *testing.T) {
	form, err := Parse("A = ___\nB = @@@")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(form.Fieldsets) != 1 || form.Fieldsets[0].Title != "" || len(form.Fieldsets[0].Fields) != 2 {
		t.Fatalf("unexpected fieldsets %+v", form.Fieldsets)
	}
}

func TestParse_DeclarationForms(t *testing.T) {
	cases := []struct {
		name   string
		source string
		want   ast.Field
	}{
		{
			name:   "label with parentheses",
			source: "Document (Upload) *= *.*",
			want: ast.Field{
				ID: "document_upload", Label: "Document (Upload)", Required: true,
				Type: ast.FieldType{Kind: ast.KindFile},
			},
		},
		{
			name:   "entities kept as written",
			source: "R&D budget = ___",
			want: ast.Field{
				ID: "r_d_budget", Label: "R&D budget",
				Type: ast.FieldType{Kind: ast.KindText},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			form, err := Parse(tc.source)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if diff := cmp.Diff(tc.want, form.Fieldsets[0].Fields[0]); diff != "" {
				t.Fatalf("field mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_ForwardReference(t *testing.T) {
	form, err := Parse("Details (Member = yes) = ...\nMember =\n    ( ) yes\n    ( ) no\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	details, _ := ast.Find(form, "details")
	want := &ast.Dependency{FieldID: "member", Value: "yes", Reference: "Member"}
	if diff := cmp.Diff(want, details.Dependency); diff != "" {
		t.Fatalf("dependency mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_ReferenceBySlug(t *testing.T) {
	form, err := Parse("First name = ___\nGreeting (first_name = Ann) = ___\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	greeting, _ := ast.Find(form, "greeting")
	if greeting.Dependency == nil || greeting.Dependency.FieldID != "first_name" {
		t.Fatalf("expected dependency on first_name, got %+v", greeting.Dependency)
	}
}

func TestParse_SemanticErrors(t *testing.T) {
	t.Run("duplicate label", func(t *testing.T) {
		_, err := Parse("Name = ___\nName = @@@\n")
		var target ast.DuplicateLabelError
		if !errors.As(err, &target) || target.Label != "Name" {
			t.Fatalf("expected DuplicateLabelError for Name, got %v", err)
		}
	})

	t.Run("empty fieldset", func(t *testing.T) {
		_, err := Parse("Personal =\n\nExtra =\n\nName = ___\n")
		var target ast.EmptyFieldsetError
		if !errors.As(err, &target) || target.FieldName != "Personal" {
			t.Fatalf("expected EmptyFieldsetError for Personal, got %v", err)
		}
	})

	t.Run("trailing empty fieldset", func(t *testing.T) {
		_, err := Parse("Name = ___\n\nExtra =\n")
		var target ast.EmptyFieldsetError
		if !errors.As(err, &target) || target.FieldName != "Extra" {
			t.Fatalf("expected EmptyFieldsetError for Extra, got %v", err)
		}
	})

	for name, source := range map[string]string{"empty": "", "blank": "\n\n   \n"} {
		t.Run(name+" source", func(t *testing.T) {
			_, err := Parse(source)
			var target ast.EmptyFieldsetError
			if !errors.As(err, &target) || target.FieldName != "" {
				t.Fatalf("expected EmptyFieldsetError without name, got %v", err)
			}
		})
	}

	compileCases := []struct {
		name   string
		source string
		field  string
	}{
		{name: "unknown reference", source: "A (Missing = 1) = ___\n", field: "A"},
		{name: "cycle", source: "A (B = x) = ___\nB (A = y) = ___\n", field: "A"},
		{name: "value not an option", source: "Colour =\n    ( ) Red\nShade (Colour = Blue) = ___\n", field: "Shade"},
	}
	for _, tc := range compileCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.source)
			var target ast.FieldCompileError
			if !errors.As(err, &target) || target.FieldName != tc.field {
				t.Fatalf("expected FieldCompileError for %s, got %v", tc.field, err)
			}
		})
	}
}

func TestParse_SyntaxErrors(t *testing.T) {
	cases := []struct {
		name   string
		source string
		line   int
	}{
		{name: "missing label", source: "Name = ___\n= ___\n", line: 2},
		{name: "unknown pattern", source: "Name = ___\nAge = lots\n", line: 2},
		{name: "unbalanced label", source: "Name (x = ___\n", line: 1},
		{name: "incomplete dependency", source: "Name ( = 1) = ___\n", line: 1},
		{name: "dangling dependency", source: "Name = (A = 1 ___\n", line: 1},
		{name: "pattern with options", source: "Colour = ___\n    ( ) Red\n", line: 2},
		{name: "missing pattern", source: "Name = ___\nAge (Name = x) =\n", line: 2},
		{name: "unclosed tag in label", source: "a <b = ___\n", line: 1},
		{name: "tag in label", source: "Size <small> = ___\n", line: 1},
		{name: "markup beside plain label", source: "Name = ___\n<b>Name</b> = ___\n", line: 2},
		{name: "markup in option", source: "Colour =\n    ( ) x\n    ( ) <i>x</i>\n", line: 3},
		{name: "markup in hint", source: "Name = ___\n<< see <a href=\"x\">here</a>\n", line: 2},
		{name: "markup in title", source: "<i>Contact</i> =\n\nName = ___\n", line: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.source)
			var target ast.SyntaxError
			if !errors.As(err, &target) {
				t.Fatalf("expected a syntax error, got %v", err)
			}
			if target.LineNumber() != tc.line {
				t.Fatalf("expected line %d, got %d (%v)", tc.line, target.LineNumber(), err)
			}
		})
	}
}
