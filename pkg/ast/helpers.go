package ast

import "fmt"

// Position selects where Move places a field relative to its target.
type Position string

const (
	Before Position = "before"
	After  Position = "after"
)

// Flatten returns every field in document order: fieldsets left to right,
// fields top to bottom. The returned fields are copies.
func Flatten(form Form) []Field {
	var out []Field
	for _, set := range form.Fieldsets {
		for _, field := range set.Fields {
			out = append(out, field.Clone())
		}
	}
	return out
}

// Find returns a copy of the field with the given id.
func Find(form Form, id string) (Field, bool) {
	for _, set := range form.Fieldsets {
		for _, field := range set.Fields {
			if field.ID == id {
				return field.Clone(), true
			}
		}
	}
	return Field{}, false
}

// Move returns a copy of form where the field id sits directly before or
// after the field target. The target may live in another fieldset, in which
// case the field changes fieldset. Moving a field relative to itself returns
// an unchanged copy. A move that would leave a fieldset empty fails with
// EmptyFieldsetError.
func Move(form Form, id, target string, position Position) (Form, error) {
	if position != Before && position != After {
		return Form{}, fmt.Errorf("ast: unknown move position %q", position)
	}
	out := form.Clone()
	if id == target {
		if _, ok := Find(out, id); !ok {
			return Form{}, fmt.Errorf("ast: field %q not found", id)
		}
		return out, nil
	}

	srcSet, srcIdx := locate(out, id)
	if srcSet < 0 {
		return Form{}, fmt.Errorf("ast: field %q not found", id)
	}
	if dstSet, _ := locate(out, target); dstSet < 0 {
		return Form{}, fmt.Errorf("ast: target field %q not found", target)
	}

	moved := out.Fieldsets[srcSet].Fields[srcIdx]
	remaining := append(out.Fieldsets[srcSet].Fields[:srcIdx:srcIdx], out.Fieldsets[srcSet].Fields[srcIdx+1:]...)
	if len(remaining) == 0 {
		return Form{}, EmptyFieldsetError{FieldName: out.Fieldsets[srcSet].Title}
	}
	out.Fieldsets[srcSet].Fields = remaining

	dstSet, dstIdx := locate(out, target)
	if position == After {
		dstIdx++
	}
	fields := out.Fieldsets[dstSet].Fields
	inserted := make([]Field, 0, len(fields)+1)
	inserted = append(inserted, fields[:dstIdx]...)
	inserted = append(inserted, moved)
	inserted = append(inserted, fields[dstIdx:]...)
	out.Fieldsets[dstSet].Fields = inserted
	return out, nil
}

func locate(form Form, id string) (int, int) {
	for i, set := range form.Fieldsets {
		for j, field := range set.Fields {
			if field.ID == id {
				return i, j
			}
		}
	}
	return -1, -1
}
