package compiler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/goliatone/go-formcode/pkg/ast"
)

// Error codes carried by FieldError.
const (
	CodeRequired         = "required"
	CodeInvalid          = "invalid"
	CodeOutOfRange       = "out_of_range"
	CodeTooLong          = "too_long"
	CodeInvalidChoice    = "invalid_choice"
	CodeInvalidExtension = "invalid_extension"
	CodeCheckFailed      = "check_failed"
)

// FieldError is a validation problem scoped to one field.
type FieldError struct {
	FieldID string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.FieldID, e.Message)
}

// ValidationErrors lists every field error of a submission in document
// order.
type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "compiler: no validation errors"
	}
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Error()
	}
	return "compiler: invalid submission: " + strings.Join(parts, "; ")
}

// ByField groups messages by field id.
func (e ValidationErrors) ByField() map[string][]string {
	if len(e) == 0 {
		return nil
	}
	out := make(map[string][]string, len(e))
	for _, fe := range e {
		out[fe.FieldID] = append(out[fe.FieldID], fe.Message)
	}
	return out
}

// Validate coerces every active field of raw into its typed value. Fields
// whose dependency does not hold are skipped, including their required
// flag. Every field is evaluated; the returned error, when non-nil, is a
// ValidationErrors holding all problems. Values of valid fields are always
// returned.
func (f *Form) Validate(raw map[string]any) (Values, error) {
	values := make(Values)
	found := make(map[string]FieldError)

	for _, id := range f.order {
		field := f.fields[f.index[id]]
		if !f.dependencyHolds(field, values) {
			continue
		}
		value, ferr := f.bind(field, raw[id])
		if ferr != nil {
			found[id] = *ferr
			continue
		}
		if value != nil {
			values[id] = value
		}
	}

	if len(found) == 0 {
		return values, nil
	}
	errs := make(ValidationErrors, 0, len(found))
	for _, field := range f.fields {
		if fe, ok := found[field.ID]; ok {
			errs = append(errs, fe)
		}
	}
	return values, errs
}

// Check validates a single raw value for field id without looking at
// dependencies. An empty value fails only when the field is required.
func (f *Form) Check(id string, raw any) error {
	_, err := f.Coerce(id, raw)
	return err
}

// Coerce is like Check but also returns the typed value, nil for an empty
// optional field. Field problems are returned as FieldError.
func (f *Form) Coerce(id string, raw any) (any, error) {
	idx, ok := f.index[id]
	if !ok {
		return nil, fmt.Errorf("compiler: field %q not found", id)
	}
	value, ferr := f.bind(f.fields[idx], raw)
	if ferr != nil {
		return nil, *ferr
	}
	return value, nil
}

// Active reports whether field id is active given already typed values:
// its dependency chain must hold all the way up.
func (f *Form) Active(id string, values Values) bool {
	idx, ok := f.index[id]
	if !ok {
		return false
	}
	field := f.fields[idx]
	for depth := 0; field.Dependency != nil && depth <= len(f.fields); depth++ {
		if !f.dependencyHolds(field, values) {
			return false
		}
		field = f.fields[f.index[field.Dependency.FieldID]]
	}
	return true
}

// bind returns the typed value for one field, or nil when the field is
// empty and optional.
func (f *Form) bind(field ast.Field, raw any) (any, *FieldError) {
	if isEmpty(raw) {
		if field.Required {
			return nil, &FieldError{FieldID: field.ID, Code: CodeRequired, Message: "this field is required"}
		}
		return nil, nil
	}
	value, ferr := f.coerce(field, raw)
	if ferr != nil {
		return nil, ferr
	}
	for _, check := range f.checks[field.ID] {
		if err := check(field, value); err != nil {
			return nil, &FieldError{FieldID: field.ID, Code: CodeCheckFailed, Message: err.Error()}
		}
	}
	return value, nil
}

// dependencyHolds compares the dependee's typed value with the required
// value. A dependee without a value (absent, invalid or itself inactive)
// never satisfies the dependency.
func (f *Form) dependencyHolds(field ast.Field, values Values) bool {
	dep := field.Dependency
	if dep == nil {
		return true
	}
	value, ok := values[dep.FieldID]
	if !ok {
		return false
	}
	dependee := f.fields[f.index[dep.FieldID]]
	want := f.wants[field.ID]
	for _, text := range valueStrings(dependee, value) {
		if text == want {
			return true
		}
	}
	return false
}

// valueStrings renders a typed value the way it is written in dependency
// clauses. Checkbox values yield one entry per selected option.
func valueStrings(field ast.Field, value any) []string {
	switch v := value.(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case int64:
		return []string{strconv.FormatInt(v, 10)}
	case decimal.Decimal:
		precision := 0
		if field.Bounds != nil {
			precision = field.Bounds.Precision
		}
		return []string{v.StringFixed(int32(precision))}
	case time.Time:
		return []string{formatTime(field.Type.Kind, v)}
	case Upload:
		return []string{v.Filename}
	default:
		return []string{fmt.Sprint(v)}
	}
}

func formatTime(kind ast.Kind, t time.Time) string {
	switch kind {
	case ast.KindDate:
		return t.Format(DateLayout)
	case ast.KindTime:
		return t.Format(TimeLayout)
	default:
		return t.Format(DateTimeLayout)
	}
}
