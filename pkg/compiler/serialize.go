package compiler

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/goliatone/go-formcode/pkg/ast"
)

// Serialize converts typed values into a flat, JSON-friendly map keyed by
// field id. Unknown ids and nil values are dropped.
func (f *Form) Serialize(values Values) map[string]any {
	out := make(map[string]any, len(values))
	for _, field := range f.fields {
		value, ok := values[field.ID]
		if !ok || value == nil {
			continue
		}
		out[field.ID] = serializeValue(field, value)
	}
	return out
}

func serializeValue(field ast.Field, value any) any {
	switch v := value.(type) {
	case string:
		if field.Type.Kind == ast.KindTextarea {
			return normalizeNewlines(v)
		}
		return v
	case time.Time:
		return formatTime(field.Type.Kind, v)
	case int64:
		return v
	case decimal.Decimal:
		return valueStrings(field, v)[0]
	case []string:
		return append([]string(nil), v...)
	case Upload:
		return map[string]any{
			"filename": v.Filename,
			"mimetype": v.MimeType,
			"size":     int64(len(v.Content)),
			"data":     base64.StdEncoding.EncodeToString(v.Content),
		}
	default:
		return v
	}
}

// Deserialize turns a map produced by Serialize, possibly after a JSON round
// trip, back into typed values. Problems are reported per field as
// ValidationErrors.
func (f *Form) Deserialize(data map[string]any) (Values, error) {
	values := make(Values, len(data))
	var errs ValidationErrors
	for _, field := range f.fields {
		raw, ok := data[field.ID]
		if !ok || raw == nil {
			continue
		}
		value, err := f.deserializeValue(field, raw)
		if err != nil {
			errs = append(errs, FieldError{FieldID: field.ID, Code: CodeInvalid, Message: err.Error()})
			continue
		}
		values[field.ID] = value
	}
	if len(errs) > 0 {
		return values, errs
	}
	return values, nil
}

func (f *Form) deserializeValue(field ast.Field, raw any) (any, error) {
	switch field.Type.Kind {
	case ast.KindInteger:
		return toInt64(raw)
	case ast.KindDecimal:
		text, err := numberText(raw)
		if err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(text)
		if err != nil {
			return nil, err
		}
		return d.Round(f.ranges[field.ID].precision), nil
	case ast.KindDate, ast.KindTime, ast.KindDateTime:
		text, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string, got %T", raw)
		}
		layout := map[ast.Kind]string{ast.KindDate: DateLayout, ast.KindTime: TimeLayout, ast.KindDateTime: DateTimeLayout}[field.Type.Kind]
		return time.Parse(layout, text)
	case ast.KindCheckbox:
		return toStrings(raw)
	case ast.KindFile:
		return toUpload(raw)
	case ast.KindTextarea:
		text, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string, got %T", raw)
		}
		return normalizeNewlines(text), nil
	default:
		text, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string, got %T", raw)
		}
		return text, nil
	}
}

func toInt64(raw any) (int64, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%v is not a whole number", v)
		}
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("expected a number, got %T", raw)
	}
}

func numberText(raw any) (string, error) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case int:
		return strconv.Itoa(v), nil
	default:
		return "", fmt.Errorf("expected a number, got %T", raw)
	}
}

func toStrings(raw any) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		return append([]string(nil), v...), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			text, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected strings, got %T", item)
			}
			out = append(out, text)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list, got %T", raw)
	}
}

func toUpload(raw any) (Upload, error) {
	if upload, ok := raw.(Upload); ok {
		return upload, nil
	}
	entry, ok := raw.(map[string]any)
	if !ok {
		return Upload{}, fmt.Errorf("expected a file object, got %T", raw)
	}
	upload := Upload{}
	upload.Filename, _ = entry["filename"].(string)
	upload.MimeType, _ = entry["mimetype"].(string)
	if data, _ := entry["data"].(string); data != "" {
		content, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return Upload{}, fmt.Errorf("decode file data: %w", err)
		}
		upload.Content = content
	}
	return upload, nil
}
