package compiler

import (
	"errors"
	"fmt"
	"math"
	"net/mail"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/goliatone/go-formcode/pkg/ast"
)

// Upload is the raw and typed value of a file field. Content storage is the
// caller's concern; the form only checks the file name.
type Upload struct {
	Filename string
	MimeType string
	Content  []byte
}

// Values maps field ids to typed values: string, time.Time, int64,
// decimal.Decimal, []string or Upload depending on the field kind.
type Values map[string]any

// Layouts used to print typed date and time values.
const (
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04"
	DateTimeLayout = "2006-01-02T15:04"
)

var (
	dateLayouts     = []string{DateLayout, "02.01.2006"}
	timeLayouts     = []string{TimeLayout, "15:04:05"}
	dateTimeLayouts = []string{DateTimeLayout, "2006-01-02T15:04:05", "2006-01-02 15:04", "2006-01-02 15:04:05", "02.01.2006 15:04"}
)

// isEmpty reports whether a raw value counts as "not submitted".
func isEmpty(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []byte:
		return len(strings.TrimSpace(string(v))) == 0
	case []string:
		for _, item := range v {
			if strings.TrimSpace(item) != "" {
				return false
			}
		}
		return true
	case Upload:
		return v.Filename == "" && len(v.Content) == 0
	case *Upload:
		return v == nil || (v.Filename == "" && len(v.Content) == 0)
	default:
		return false
	}
}

func (f *Form) coerce(field ast.Field, raw any) (any, *FieldError) {
	if field.Type.Kind == ast.KindFile {
		return coerceUpload(field, raw)
	}
	if field.Type.Kind == ast.KindCheckbox {
		return coerceCheckbox(field, raw)
	}

	text, ok := rawString(raw)
	if !ok {
		return nil, invalid(field, "unsupported value")
	}

	switch field.Type.Kind {
	case ast.KindTextarea:
		return normalizeNewlines(text), nil
	case ast.KindText, ast.KindPassword:
		text = strings.TrimSpace(text)
		if strings.ContainsAny(text, "\r\n") {
			return nil, invalid(field, "must be a single line")
		}
		if limit := field.Type.MaxLength; limit > 0 && utf8.RuneCountInString(text) > limit {
			return nil, &FieldError{FieldID: field.ID, Code: CodeTooLong, Message: fmt.Sprintf("must be at most %d characters", limit)}
		}
		return text, nil
	case ast.KindEmail:
		return coerceEmail(field, strings.TrimSpace(text))
	case ast.KindURL:
		return coerceURL(field, strings.TrimSpace(text))
	case ast.KindDate:
		return parseTime(field, text, dateLayouts)
	case ast.KindTime:
		return parseTime(field, text, timeLayouts)
	case ast.KindDateTime:
		return parseTime(field, text, dateTimeLayouts)
	case ast.KindInteger:
		return f.coerceInteger(field, strings.TrimSpace(text))
	case ast.KindDecimal:
		return f.coerceDecimal(field, strings.TrimSpace(text))
	case ast.KindValidated:
		return coerceValidated(field, strings.TrimSpace(text))
	case ast.KindRadio:
		value := strings.TrimSpace(text)
		if !field.HasChoice(value) {
			return nil, &FieldError{FieldID: field.ID, Code: CodeInvalidChoice, Message: fmt.Sprintf("%q is not a valid choice", value)}
		}
		return value, nil
	default:
		return nil, invalid(field, fmt.Sprintf("unsupported field kind %q", field.Type.Kind))
	}
}

func rawString(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	case []string:
		if len(v) == 1 {
			return v[0], true
		}
	}
	return "", false
}

func normalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

func coerceEmail(field ast.Field, text string) (any, *FieldError) {
	addr, err := mail.ParseAddress(text)
	if err != nil || addr.Address != text || !strings.Contains(text[strings.LastIndex(text, "@")+1:], ".") {
		return nil, invalid(field, "not a valid email address")
	}
	return text, nil
}

func coerceURL(field ast.Field, text string) (any, *FieldError) {
	parsed, err := url.Parse(text)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, invalid(field, "not a valid http(s) URL")
	}
	return text, nil
}

func parseTime(field ast.Field, text string, layouts []string) (any, *FieldError) {
	text = strings.TrimSpace(text)
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, text); err == nil {
			return parsed.Truncate(time.Minute), nil
		}
	}
	return nil, invalid(field, fmt.Sprintf("expected format %s", layouts[0]))
}

func (f *Form) coerceInteger(field ast.Field, text string) (any, *FieldError) {
	n, err := strconv.ParseInt(text, 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		// bounds always fit in int64, so an overflowing value is outside them
		return nil, outOfRange(field)
	}
	if err != nil {
		return nil, invalid(field, "not a whole number")
	}
	if ferr := f.checkRange(field, decimal.NewFromInt(n)); ferr != nil {
		return nil, ferr
	}
	return n, nil
}

func (f *Form) coerceDecimal(field ast.Field, text string) (any, *FieldError) {
	d, err := decimal.NewFromString(strings.Replace(text, ",", ".", 1))
	if err != nil {
		return nil, invalid(field, "not a number")
	}
	d = d.Round(f.ranges[field.ID].precision)
	if ferr := f.checkRange(field, d); ferr != nil {
		return nil, ferr
	}
	return d, nil
}

func (f *Form) checkRange(field ast.Field, value decimal.Decimal) *FieldError {
	bounds := f.ranges[field.ID]
	if value.LessThan(bounds.min) || value.GreaterThan(bounds.max) {
		return outOfRange(field)
	}
	return nil
}

var (
	minInt64 = decimal.NewFromInt(math.MinInt64)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

func fitsInt64(d decimal.Decimal) bool {
	return !d.LessThan(minInt64) && !d.GreaterThan(maxInt64)
}

func outOfRange(field ast.Field) *FieldError {
	return &FieldError{
		FieldID: field.ID,
		Code:    CodeOutOfRange,
		Message: fmt.Sprintf("must be between %s and %s", field.Bounds.Min, field.Bounds.Max),
	}
}

func coerceValidated(field ast.Field, text string) (any, *FieldError) {
	validate := namedValidators[field.Type.Validator]
	normalized, err := validate(text)
	if err != nil {
		return nil, invalid(field, err.Error())
	}
	return normalized, nil
}

func coerceCheckbox(field ast.Field, raw any) (any, *FieldError) {
	var items []string
	switch v := raw.(type) {
	case string:
		items = []string{v}
	case []byte:
		items = []string{string(v)}
	case []string:
		items = v
	default:
		return nil, invalid(field, "unsupported value")
	}

	picked := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if !field.HasChoice(item) {
			return nil, &FieldError{FieldID: field.ID, Code: CodeInvalidChoice, Message: fmt.Sprintf("%q is not a valid choice", item)}
		}
		picked[item] = struct{}{}
	}
	out := make([]string, 0, len(picked))
	for _, choice := range field.Choices {
		if _, ok := picked[choice.Value]; ok {
			out = append(out, choice.Value)
		}
	}
	return out, nil
}

func coerceUpload(field ast.Field, raw any) (any, *FieldError) {
	var upload Upload
	switch v := raw.(type) {
	case Upload:
		upload = v
	case *Upload:
		upload = *v
	default:
		return nil, invalid(field, "expected a file upload")
	}
	if upload.Filename == "" {
		return nil, invalid(field, "missing file name")
	}
	if !extensionAllowed(field.Type.Extensions, upload.Filename) {
		return nil, &FieldError{
			FieldID: field.ID,
			Code:    CodeInvalidExtension,
			Message: fmt.Sprintf("allowed file types: %s", strings.Join(field.Type.Extensions, ", ")),
		}
	}
	upload.Content = append([]byte(nil), upload.Content...)
	return upload, nil
}

func extensionAllowed(allowed []string, filename string) bool {
	if len(allowed) == 0 {
		return true
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	for _, candidate := range allowed {
		if candidate == ext {
			return true
		}
	}
	return false
}

func invalid(field ast.Field, message string) *FieldError {
	return &FieldError{FieldID: field.ID, Code: CodeInvalid, Message: message}
}
