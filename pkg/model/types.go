package model

// FieldType is the simplified enum for form-friendly field kinds.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeArray   FieldType = "array"
	FieldTypeObject  FieldType = "object"
)

// Option is a selectable value offered by enum and multi-choice controls. The
// label falls back to the value when empty.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label,omitempty"`
}

// Field models an individual input inside the form. Struct fields are
// annotated so renderers can serialise them directly when needed.
type Field struct {
	Name        string            `json:"name"`
	Type        FieldType         `json:"type"`
	Format      string            `json:"format,omitempty"`
	Required    bool              `json:"required"`
	ReadOnly    bool              `json:"readOnly,omitempty"`
	Label       string            `json:"label,omitempty"`
	Placeholder string            `json:"placeholder,omitempty"`
	Description string            `json:"description,omitempty"`
	Default     any               `json:"default,omitempty"`
	Enum        []any             `json:"enum,omitempty"`
	Options     []Option          `json:"options,omitempty"`
	Items       *Field            `json:"items,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	UIHints     map[string]string `json:"uiHints,omitempty"`
}

// FormModel is the top-level representation renderers consume.
type FormModel struct {
	OperationID string            `json:"operationId"`
	Endpoint    string            `json:"endpoint"`
	Method      string            `json:"method"`
	Summary     string            `json:"summary,omitempty"`
	Description string            `json:"description,omitempty"`
	Fields      []Field           `json:"fields"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Field returns the named top-level field.
func (f FormModel) Field(name string) (Field, bool) {
	for _, field := range f.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// OptionsOrEnum returns the explicit options when present, otherwise the enum
// values rendered as options. Array fields fall back to their item enum.
func (f Field) OptionsOrEnum() []Option {
	if len(f.Options) > 0 {
		return append([]Option(nil), f.Options...)
	}
	enum := f.Enum
	if len(enum) == 0 && f.Items != nil {
		if len(f.Items.Options) > 0 {
			return append([]Option(nil), f.Items.Options...)
		}
		enum = f.Items.Enum
	}
	if len(enum) == 0 {
		return nil
	}
	out := make([]Option, 0, len(enum))
	for _, value := range enum {
		s, ok := value.(string)
		if !ok {
			continue
		}
		out = append(out, Option{Value: s, Label: s})
	}
	return out
}
