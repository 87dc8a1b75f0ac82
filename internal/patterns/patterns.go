// Package patterns resolves the right-hand side of a field declaration into
// a concrete field type. The grammar is a closed table of rules, each with a
// matcher, a constructor and a formatter that prints the type back to its
// canonical pattern.
package patterns

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/goliatone/go-formcode/pkg/ast"
)

// OptionLine is a single `( )`/`[x]` line following a declaration.
type OptionLine struct {
	Line     int
	Radio    bool
	Selected bool
	Label    string
}

// Candidate is the unresolved right-hand side of a declaration.
type Candidate struct {
	Line    int
	Text    string
	Options []OptionLine
}

// Result is the resolved type plus the attributes stored beside it on the
// field.
type Result struct {
	Type    ast.FieldType
	Choices []ast.Choice
	Bounds  *ast.Bounds
}

// Rule is one entry of the pattern table.
type Rule struct {
	Name   string
	Kind   ast.Kind
	Match  func(Candidate) bool
	Build  func(Candidate) (Result, error)
	Format func(ast.Field) string
}

var (
	textPattern      = regexp.MustCompile(`^___(?:\[(\d+)\])?$`)
	textareaPattern  = regexp.MustCompile(`^\.\.\.(?:\[(\d+)\])?$`)
	urlPattern       = regexp.MustCompile(`^https?://$`)
	integerPattern   = regexp.MustCompile(`^(-?\d+)\s*\.\.\s*(-?\d+)$`)
	decimalPattern   = regexp.MustCompile(`^(-?\d+\.(\d+))\s*\.\.\s*(-?\d+\.(\d+))$`)
	filePattern      = regexp.MustCompile(`^\*\.(\*|[A-Za-z0-9]+(?:\s*\|\s*\*\.[A-Za-z0-9]+)*)$`)
	validatedPattern = regexp.MustCompile(`^#\s*(iban|ch\.ssn|ch\.uid|ch\.vat)$`)
)

const (
	dateToken     = "YYYY.MM.DD"
	timeToken     = "HH:MM"
	dateTimeToken = "YYYY.MM.DD HH:MM"
)

var table = []Rule{
	{
		Name:  "text",
		Kind:  ast.KindText,
		Match: matchRegexp(textPattern),
		Build: func(c Candidate) (Result, error) {
			n, err := optionalSize(textPattern, c)
			return Result{Type: ast.FieldType{Kind: ast.KindText, MaxLength: n}}, err
		},
		Format: func(f ast.Field) string { return sized("___", f.Type.MaxLength) },
	},
	{
		Name:  "textarea",
		Kind:  ast.KindTextarea,
		Match: matchRegexp(textareaPattern),
		Build: func(c Candidate) (Result, error) {
			n, err := optionalSize(textareaPattern, c)
			return Result{Type: ast.FieldType{Kind: ast.KindTextarea, Rows: n}}, err
		},
		Format: func(f ast.Field) string { return sized("...", f.Type.Rows) },
	},
	literal("password", ast.KindPassword, "***"),
	literal("email", ast.KindEmail, "@@@"),
	{
		Name:   "url",
		Kind:   ast.KindURL,
		Match:  matchRegexp(urlPattern),
		Build:  func(Candidate) (Result, error) { return Result{Type: ast.FieldType{Kind: ast.KindURL}}, nil },
		Format: func(ast.Field) string { return "http://" },
	},
	literal("datetime", ast.KindDateTime, dateTimeToken),
	literal("date", ast.KindDate, dateToken),
	literal("time", ast.KindTime, timeToken),
	{
		Name:  "integer_range",
		Kind:  ast.KindInteger,
		Match: matchRegexp(integerPattern),
		Build: func(c Candidate) (Result, error) {
			m := integerPattern.FindStringSubmatch(c.Text)
			return buildRange(c, ast.KindInteger, m[1], m[2], 0)
		},
		Format: formatRange,
	},
	{
		Name:  "decimal_range",
		Kind:  ast.KindDecimal,
		Match: matchRegexp(decimalPattern),
		Build: func(c Candidate) (Result, error) {
			m := decimalPattern.FindStringSubmatch(c.Text)
			if len(m[2]) != len(m[4]) {
				return Result{}, ast.InvalidFormSyntaxError{Line: c.Line, Reason: "range bounds must share the same precision"}
			}
			return buildRange(c, ast.KindDecimal, m[1], m[3], len(m[2]))
		},
		Format: formatRange,
	},
	{
		Name:  "file",
		Kind:  ast.KindFile,
		Match: matchRegexp(filePattern),
		Build: func(c Candidate) (Result, error) {
			return Result{Type: ast.FieldType{Kind: ast.KindFile, Extensions: fileExtensions(c.Text)}}, nil
		},
		Format: func(f ast.Field) string {
			if len(f.Type.Extensions) == 0 {
				return "*.*"
			}
			globs := make([]string, len(f.Type.Extensions))
			for i, ext := range f.Type.Extensions {
				globs[i] = "*." + ext
			}
			return strings.Join(globs, "|")
		},
	},
	{
		Name:  "validated",
		Kind:  ast.KindValidated,
		Match: matchRegexp(validatedPattern),
		Build: func(c Candidate) (Result, error) {
			name := validatedPattern.FindStringSubmatch(c.Text)[1]
			return Result{Type: ast.FieldType{Kind: ast.KindValidated, Validator: name}}, nil
		},
		Format: func(f ast.Field) string { return "# " + f.Type.Validator },
	},
	{
		Name:   "radio",
		Kind:   ast.KindRadio,
		Match:  matchBlock(true),
		Build:  func(c Candidate) (Result, error) { return buildChoices(c, ast.KindRadio) },
		Format: func(ast.Field) string { return "" },
	},
	{
		Name:   "checkbox",
		Kind:   ast.KindCheckbox,
		Match:  matchBlock(false),
		Build:  func(c Candidate) (Result, error) { return buildChoices(c, ast.KindCheckbox) },
		Format: func(ast.Field) string { return "" },
	},
}

// Rules returns a copy of the pattern table in priority order.
func Rules() []Rule {
	return append([]Rule(nil), table...)
}

// Resolve matches a candidate against the table. A candidate matching no
// rule is a user error; a candidate matching several rules means the table
// itself is ambiguous and Resolve panics.
func Resolve(c Candidate) (Result, error) {
	c.Text = strings.TrimSpace(c.Text)
	if c.Text != "" && len(c.Options) > 0 {
		return Result{}, ast.InvalidFormSyntaxError{Line: c.Options[0].Line, Reason: "choice options follow a field that already has a pattern"}
	}
	if c.Text == "" && len(c.Options) == 0 {
		return Result{}, ast.InvalidFormSyntaxError{Line: c.Line, Reason: "missing pattern"}
	}

	var matched []Rule
	for _, rule := range table {
		if rule.Match(c) {
			matched = append(matched, rule)
		}
	}
	switch len(matched) {
	case 0:
		return Result{}, ast.InvalidFormSyntaxError{Line: c.Line, Reason: fmt.Sprintf("unknown pattern %q", c.Text)}
	case 1:
		return matched[0].Build(c)
	default:
		names := make([]string, len(matched))
		for i, rule := range matched {
			names[i] = rule.Name
		}
		panic(fmt.Sprintf("patterns: %q matches several rules: %s", c.Text, strings.Join(names, ", ")))
	}
}

// Format prints the field's type back to its pattern text. Choice fields
// return an empty pattern plus one option line per choice.
func Format(field ast.Field) (string, []string) {
	for _, rule := range table {
		if rule.Kind != field.Type.Kind {
			continue
		}
		pattern := rule.Format(field)
		if !field.Type.Kind.IsChoice() {
			return pattern, nil
		}
		options := make([]string, len(field.Choices))
		for i, choice := range field.Choices {
			options[i] = optionBox(field.Type.Kind, choice.Selected) + " " + choice.Label
		}
		return pattern, options
	}
	return "", nil
}

func optionBox(kind ast.Kind, selected bool) string {
	switch {
	case kind == ast.KindRadio && selected:
		return "(x)"
	case kind == ast.KindRadio:
		return "( )"
	case selected:
		return "[x]"
	default:
		return "[ ]"
	}
}

func literal(name string, kind ast.Kind, token string) Rule {
	return Rule{
		Name:   name,
		Kind:   kind,
		Match:  func(c Candidate) bool { return c.Text == token },
		Build:  func(Candidate) (Result, error) { return Result{Type: ast.FieldType{Kind: kind}}, nil },
		Format: func(ast.Field) string { return token },
	}
}

func matchRegexp(re *regexp.Regexp) func(Candidate) bool {
	return func(c Candidate) bool {
		return len(c.Options) == 0 && re.MatchString(c.Text)
	}
}

func matchBlock(radio bool) func(Candidate) bool {
	return func(c Candidate) bool {
		return c.Text == "" && len(c.Options) > 0 && c.Options[0].Radio == radio
	}
}

func optionalSize(re *regexp.Regexp, c Candidate) (int, error) {
	m := re.FindStringSubmatch(c.Text)
	if m[1] == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, ast.InvalidFormSyntaxError{Line: c.Line, Reason: fmt.Sprintf("invalid size %q", m[1])}
	}
	return n, nil
}

func sized(token string, n int) string {
	if n <= 0 {
		return token
	}
	return token + "[" + strconv.Itoa(n) + "]"
}

func buildRange(c Candidate, kind ast.Kind, rawMin, rawMax string, precision int) (Result, error) {
	lo, err := decimal.NewFromString(rawMin)
	if err != nil {
		return Result{}, ast.InvalidFormSyntaxError{Line: c.Line, Reason: err.Error()}
	}
	hi, err := decimal.NewFromString(rawMax)
	if err != nil {
		return Result{}, ast.InvalidFormSyntaxError{Line: c.Line, Reason: err.Error()}
	}
	if lo.GreaterThan(hi) {
		return Result{}, ast.InvalidFormSyntaxError{Line: c.Line, Reason: "range minimum exceeds maximum"}
	}
	if kind == ast.KindInteger && (!fitsInt64(lo) || !fitsInt64(hi)) {
		return Result{}, ast.InvalidFormSyntaxError{Line: c.Line, Reason: "range bound exceeds the 64-bit integer range"}
	}
	return Result{
		Type: ast.FieldType{Kind: kind},
		Bounds: &ast.Bounds{
			Min:       lo.StringFixed(int32(precision)),
			Max:       hi.StringFixed(int32(precision)),
			Precision: precision,
		},
	}, nil
}

var (
	minInt64 = decimal.NewFromInt(math.MinInt64)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

func fitsInt64(d decimal.Decimal) bool {
	return !d.LessThan(minInt64) && !d.GreaterThan(maxInt64)
}

func formatRange(f ast.Field) string {
	if f.Bounds == nil {
		return ""
	}
	return f.Bounds.Min + ".." + f.Bounds.Max
}

func fileExtensions(text string) []string {
	if text == "*.*" {
		return nil
	}
	var out []string
	seen := make(map[string]struct{})
	for _, glob := range strings.Split(text, "|") {
		ext := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(glob), "*."))
		if _, dup := seen[ext]; dup {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}

func buildChoices(c Candidate, kind ast.Kind) (Result, error) {
	radio := kind == ast.KindRadio
	choices := make([]ast.Choice, 0, len(c.Options))
	seen := make(map[string]struct{}, len(c.Options))
	selected := 0
	for _, opt := range c.Options {
		if opt.Radio != radio {
			return Result{}, ast.InvalidFormSyntaxError{Line: opt.Line, Reason: "mixed radio and checkbox options"}
		}
		if opt.Label == "" {
			return Result{}, ast.InvalidFormSyntaxError{Line: opt.Line, Reason: "option without label"}
		}
		if _, dup := seen[opt.Label]; dup {
			return Result{}, ast.InvalidFormSyntaxError{Line: opt.Line, Reason: fmt.Sprintf("duplicate option %q", opt.Label)}
		}
		seen[opt.Label] = struct{}{}
		if opt.Selected {
			selected++
			if radio && selected > 1 {
				return Result{}, ast.InvalidFormSyntaxError{Line: opt.Line, Reason: "only one option may be pre-selected"}
			}
		}
		choices = append(choices, ast.Choice{Value: opt.Label, Label: opt.Label, Selected: opt.Selected})
	}
	return Result{Type: ast.FieldType{Kind: kind}, Choices: choices}, nil
}
