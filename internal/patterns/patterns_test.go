package patterns

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formcode/pkg/ast"
)

var samples = []string{
	"___", "___[40]", "...", "...[5]", "***", "@@@", "http://", "https://",
	"YYYY.MM.DD HH:MM", "YYYY.MM.DD", "HH:MM",
	"0..150", "-10 .. 10", "0.5..9.5", "-1.25..1.25",
	"*.pdf", "*.PDF|*.png", "*.*",
	"# iban", "#ch.ssn", "# ch.uid", "# ch.vat",
}

func TestTable_NoSampleMatchesTwoRules(t *testing.T) {
	blocks := []Candidate{
		{Options: []OptionLine{{Radio: true, Label: "A"}}},
		{Options: []OptionLine{{Radio: false, Label: "A"}}},
	}
	candidates := append([]Candidate(nil), blocks...)
	for _, text := range samples {
		candidates = append(candidates, Candidate{Text: text})
	}

	for _, c := range candidates {
		var names []string
		for _, rule := range Rules() {
			if rule.Match(c) {
				names = append(names, rule.Name)
			}
		}
		if len(names) != 1 {
			t.Errorf("candidate %q matched %v, want exactly one rule", c.Text, names)
		}
	}
}

func TestTable_EveryKindHasARule(t *testing.T) {
	kinds := map[ast.Kind]bool{}
	for _, rule := range Rules() {
		kinds[rule.Kind] = true
	}
	for _, kind := range []ast.Kind{
		ast.KindText, ast.KindTextarea, ast.KindPassword, ast.KindEmail, ast.KindURL,
		ast.KindDate, ast.KindTime, ast.KindDateTime, ast.KindInteger, ast.KindDecimal,
		ast.KindFile, ast.KindValidated, ast.KindRadio, ast.KindCheckbox,
	} {
		if !kinds[kind] {
			t.Errorf("no rule for kind %q", kind)
		}
	}
}

func TestResolve_Types(t *testing.T) {
	cases := []struct {
		text string
		want Result
	}{
		{text: "___", want: Result{Type: ast.FieldType{Kind: ast.KindText}}},
		{text: "___[40]", want: Result{Type: ast.FieldType{Kind: ast.KindText, MaxLength: 40}}},
		{text: "...[5]", want: Result{Type: ast.FieldType{Kind: ast.KindTextarea, Rows: 5}}},
		{text: "***", want: Result{Type: ast.FieldType{Kind: ast.KindPassword}}},
		{text: " @@@ ", want: Result{Type: ast.FieldType{Kind: ast.KindEmail}}},
		{text: "https://", want: Result{Type: ast.FieldType{Kind: ast.KindURL}}},
		{text: "YYYY.MM.DD HH:MM", want: Result{Type: ast.FieldType{Kind: ast.KindDateTime}}},
		{text: "HH:MM", want: Result{Type: ast.FieldType{Kind: ast.KindTime}}},
		{
			text: "-10 .. 10",
			want: Result{Type: ast.FieldType{Kind: ast.KindInteger}, Bounds: &ast.Bounds{Min: "-10", Max: "10"}},
		},
		{
			text: "0.50..9.50",
			want: Result{Type: ast.FieldType{Kind: ast.KindDecimal}, Bounds: &ast.Bounds{Min: "0.50", Max: "9.50", Precision: 2}},
		},
		{
			text: "*.PDF|*.png|*.pdf",
			want: Result{Type: ast.FieldType{Kind: ast.KindFile, Extensions: []string{"pdf", "png"}}},
		},
		{text: "*.*", want: Result{Type: ast.FieldType{Kind: ast.KindFile}}},
		{text: "# ch.uid", want: Result{Type: ast.FieldType{Kind: ast.KindValidated, Validator: ast.ValidatorCHUID}}},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			got, err := Resolve(Candidate{Line: 1, Text: tc.text})
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("result mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolve_Choices(t *testing.T) {
	got, err := Resolve(Candidate{Line: 1, Options: []OptionLine{
		{Line: 2, Label: "Weekly"},
		{Line: 3, Selected: true, Label: "Monthly"},
		{Line: 4, Selected: true, Label: "Yearly"},
	}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := Result{
		Type: ast.FieldType{Kind: ast.KindCheckbox},
		Choices: []ast.Choice{
			{Value: "Weekly", Label: "Weekly"},
			{Value: "Monthly", Label: "Monthly", Selected: true},
			{Value: "Yearly", Label: "Yearly", Selected: true},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
}

func TestResolve_Errors(t *testing.T) {
	cases := []struct {
		name string
		c    Candidate
		line int
	}{
		{name: "unknown pattern", c: Candidate{Line: 4, Text: "???"}, line: 4},
		{name: "missing pattern", c: Candidate{Line: 4}, line: 4},
		{name: "reversed range", c: Candidate{Line: 4, Text: "10..1"}, line: 4},
		{name: "integer bound beyond int64", c: Candidate{Line: 4, Text: "0..99999999999999999999"}, line: 4},
		{name: "negative bound beyond int64", c: Candidate{Line: 4, Text: "-99999999999999999999..0"}, line: 4},
		{name: "precision mismatch", c: Candidate{Line: 4, Text: "0.5..1.25"}, line: 4},
		{name: "zero size", c: Candidate{Line: 4, Text: "___[0]"}, line: 4},
		{
			name: "pattern with options",
			c:    Candidate{Line: 4, Text: "___", Options: []OptionLine{{Line: 5, Radio: true, Label: "A"}}},
			line: 5,
		},
		{
			name: "mixed boxes",
			c: Candidate{Line: 4, Options: []OptionLine{
				{Line: 5, Radio: true, Label: "A"},
				{Line: 6, Label: "B"},
			}},
			line: 6,
		},
		{
			name: "duplicate option",
			c: Candidate{Line: 4, Options: []OptionLine{
				{Line: 5, Radio: true, Label: "A"},
				{Line: 6, Radio: true, Label: "A"},
			}},
			line: 6,
		},
		{
			name: "two selected radios",
			c: Candidate{Line: 4, Options: []OptionLine{
				{Line: 5, Radio: true, Selected: true, Label: "A"},
				{Line: 6, Radio: true, Selected: true, Label: "B"},
			}},
			line: 6,
		},
		{
			name: "empty option label",
			c:    Candidate{Line: 4, Options: []OptionLine{{Line: 5, Radio: true}}},
			line: 5,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Resolve(tc.c)
			var syntax ast.InvalidFormSyntaxError
			if !errors.As(err, &syntax) {
				t.Fatalf("expected InvalidFormSyntaxError, got %v", err)
			}
			if syntax.Line != tc.line {
				t.Fatalf("expected line %d, got %d", tc.line, syntax.Line)
			}
		})
	}
}

func TestFormat_RoundTrip(t *testing.T) {
	for _, text := range samples {
		t.Run(text, func(t *testing.T) {
			first, err := Resolve(Candidate{Line: 1, Text: text})
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			field := ast.Field{Type: first.Type, Bounds: first.Bounds}
			pattern, options := Format(field)
			if len(options) != 0 {
				t.Fatalf("unexpected options %v", options)
			}
			second, err := Resolve(Candidate{Line: 1, Text: pattern})
			if err != nil {
				t.Fatalf("Resolve(%q): %v", pattern, err)
			}
			if diff := cmp.Diff(first, second); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormat_Options(t *testing.T) {
	field := ast.Field{
		Type: ast.FieldType{Kind: ast.KindRadio},
		Choices: []ast.Choice{
			{Value: "Red", Label: "Red"},
			{Value: "Blue", Label: "Blue", Selected: true},
		},
	}
	pattern, options := Format(field)
	if pattern != "" {
		t.Fatalf("expected empty pattern, got %q", pattern)
	}
	if diff := cmp.Diff([]string{"( ) Red", "(x) Blue"}, options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}
