package ast

// Kind identifies the resolved type of a field.
type Kind string

const (
	KindText      Kind = "text"
	KindTextarea  Kind = "textarea"
	KindPassword  Kind = "password"
	KindEmail     Kind = "email"
	KindURL       Kind = "url"
	KindDate      Kind = "date"
	KindTime      Kind = "time"
	KindDateTime  Kind = "datetime"
	KindInteger   Kind = "integer_range"
	KindDecimal   Kind = "decimal_range"
	KindFile      Kind = "file"
	KindValidated Kind = "validated"
	KindRadio     Kind = "radio"
	KindCheckbox  Kind = "checkbox"
)

// Named validators recognised by the `# name` pattern.
const (
	ValidatorIBAN  = "iban"
	ValidatorCHSSN = "ch.ssn"
	ValidatorCHUID = "ch.uid"
	ValidatorCHVAT = "ch.vat"
)

// IsChoice reports whether the kind is backed by an option block.
func (k Kind) IsChoice() bool {
	return k == KindRadio || k == KindCheckbox
}

// IsRange reports whether the kind carries numeric bounds.
func (k Kind) IsRange() bool {
	return k == KindInteger || k == KindDecimal
}

// FieldType describes the concrete type resolved from a pattern token. Only
// the attributes relevant to Kind are populated: MaxLength for text, Rows for
// textarea, Extensions for file (nil means any extension) and Validator for
// named validators.
type FieldType struct {
	Kind       Kind     `json:"kind" yaml:"kind"`
	MaxLength  int      `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Rows       int      `json:"rows,omitempty" yaml:"rows,omitempty"`
	Extensions []string `json:"extensions,omitempty" yaml:"extensions,omitempty"`
	Validator  string   `json:"validator,omitempty" yaml:"validator,omitempty"`
}

// Choice is a single option of a radio or checkbox field. Value equals the
// option label as written in the source.
type Choice struct {
	Value    string `json:"value" yaml:"value"`
	Label    string `json:"label" yaml:"label"`
	Selected bool   `json:"selected,omitempty" yaml:"selected,omitempty"`
}

// Bounds stores the inclusive limits of a range field in canonical decimal
// text. Precision is the number of fractional digits (zero for integers).
type Bounds struct {
	Min       string `json:"min" yaml:"min"`
	Max       string `json:"max" yaml:"max"`
	Precision int    `json:"precision,omitempty" yaml:"precision,omitempty"`
}

// Dependency makes a field active only while the referenced field holds
// Value. Reference keeps the text written in the source so the document can
// be printed back unchanged.
type Dependency struct {
	FieldID   string `json:"fieldId" yaml:"fieldId"`
	Value     string `json:"value" yaml:"value"`
	Reference string `json:"reference,omitempty" yaml:"reference,omitempty"`
}

// Field is a single input of a form.
type Field struct {
	ID         string      `json:"id" yaml:"id"`
	Label      string      `json:"label" yaml:"label"`
	Type       FieldType   `json:"type" yaml:"type"`
	Required   bool        `json:"required" yaml:"required"`
	Dependency *Dependency `json:"dependency,omitempty" yaml:"dependency,omitempty"`
	Choices    []Choice    `json:"choices,omitempty" yaml:"choices,omitempty"`
	Bounds     *Bounds     `json:"bounds,omitempty" yaml:"bounds,omitempty"`
	Hint       string      `json:"hint,omitempty" yaml:"hint,omitempty"`
}

// Fieldset groups fields. The default fieldset has an empty title.
type Fieldset struct {
	Title  string  `json:"title,omitempty" yaml:"title,omitempty"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// Form is the root of the tree.
type Form struct {
	Fieldsets []Fieldset `json:"fieldsets" yaml:"fieldsets"`
}

// Clone returns a deep copy of the field.
func (f Field) Clone() Field {
	out := f
	if f.Type.Extensions != nil {
		out.Type.Extensions = append([]string(nil), f.Type.Extensions...)
	}
	if f.Dependency != nil {
		dep := *f.Dependency
		out.Dependency = &dep
	}
	if f.Choices != nil {
		out.Choices = append([]Choice(nil), f.Choices...)
	}
	if f.Bounds != nil {
		bounds := *f.Bounds
		out.Bounds = &bounds
	}
	return out
}

// Clone returns a deep copy of the form.
func (f Form) Clone() Form {
	out := Form{Fieldsets: make([]Fieldset, len(f.Fieldsets))}
	for i, set := range f.Fieldsets {
		fields := make([]Field, len(set.Fields))
		for j, field := range set.Fields {
			fields[j] = field.Clone()
		}
		out.Fieldsets[i] = Fieldset{Title: set.Title, Fields: fields}
	}
	return out
}

// IDs returns every field id in document order.
func (f Form) IDs() []string {
	var ids []string
	for _, set := range f.Fieldsets {
		for _, field := range set.Fields {
			ids = append(ids, field.ID)
		}
	}
	return ids
}

// SelectedValues returns the values of the pre-selected choices.
func (f Field) SelectedValues() []string {
	var out []string
	for _, choice := range f.Choices {
		if choice.Selected {
			out = append(out, choice.Value)
		}
	}
	return out
}

// HasChoice reports whether value is one of the field's options.
func (f Field) HasChoice(value string) bool {
	for _, choice := range f.Choices {
		if choice.Value == value {
			return true
		}
	}
	return false
}
