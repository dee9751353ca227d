package model

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	pkgopenapi "github.com/goliatone/go-queryform/pkg/openapi"
)

const (
	extensionNamespace = "x-formgen"
	orderExtensionKey  = "x-formgen-order"
)

var (
	errOperationIDMissing = errors.New("model builder: operation id is required")
	errRequestBodyMissing = errors.New("model builder: operation has no request body schema")
)

// Builder converts OpenAPI operations into form models.
type Builder struct {
	labeler Labeler
}

// NewBuilder creates a Builder. A nil labeler falls back to DefaultLabeler.
func NewBuilder(labeler Labeler) *Builder {
	if labeler == nil {
		labeler = DefaultLabeler
	}
	return &Builder{labeler: labeler}
}

// Build transforms an operation's request body into a FormModel. Properties
// listed in the schema's x-formgen-order extension come first, in that order;
// the rest follow alphabetically.
func (b *Builder) Build(op pkgopenapi.Operation) (FormModel, error) {
	if strings.TrimSpace(op.ID) == "" {
		return FormModel{}, errOperationIDMissing
	}
	if op.RequestSchema == nil {
		return FormModel{}, errRequestBodyMissing
	}

	form := FormModel{
		OperationID: op.ID,
		Endpoint:    op.Path,
		Method:      strings.ToUpper(op.Method),
		Summary:     op.Summary,
		Description: op.Description,
	}

	fields, err := b.Fields(op.RequestSchema)
	if err != nil {
		return FormModel{}, fmt.Errorf("model builder: %s: %w", op.ID, err)
	}
	form.Fields = fields
	return form, nil
}

// Fields builds the top-level fields of an object schema.
func (b *Builder) Fields(schema *openapi3.Schema) ([]Field, error) {
	if schema == nil {
		return nil, errors.New("schema is nil")
	}
	if t := schemaType(schema); t != "" && t != "object" {
		return nil, fmt.Errorf("expected object schema, got %q", t)
	}

	required := make(map[string]struct{}, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = struct{}{}
	}

	fields := make([]Field, 0, len(schema.Properties))
	for _, name := range propertyOrder(schema) {
		ref := schema.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		_, isRequired := required[name]
		field, err := b.field(name, ref.Value, isRequired)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	return fields, nil
}

func (b *Builder) field(name string, schema *openapi3.Schema, required bool) (Field, error) {
	field := Field{
		Name:        name,
		Format:      schema.Format,
		Required:    required,
		ReadOnly:    schema.ReadOnly,
		Description: schema.Description,
		Default:     schema.Default,
	}
	if len(schema.Enum) > 0 {
		field.Enum = append([]any(nil), schema.Enum...)
	}

	switch t := schemaType(schema); t {
	case "string", "":
		field.Type = FieldTypeString
	case "boolean":
		field.Type = FieldTypeBoolean
	case "object":
		field.Type = FieldTypeObject
	case "array":
		field.Type = FieldTypeArray
		if schema.Items == nil || schema.Items.Value == nil {
			return Field{}, fmt.Errorf("array field %q requires items", name)
		}
		item, err := b.field(name+"[]", schema.Items.Value, false)
		if err != nil {
			return Field{}, err
		}
		field.Items = &item
		if schema.MinItems > 0 {
			field.setMetadata("minItems", strconv.FormatUint(schema.MinItems, 10))
		}
	default:
		return Field{}, fmt.Errorf("field %q has unsupported type %q", name, t)
	}

	for key, value := range formgenExtensions(schema.Extensions) {
		switch key {
		case "label":
			field.Label = value
		case "placeholder":
			field.Placeholder = value
		case "readonly":
			field.ReadOnly = field.ReadOnly || value == "true"
		case "widget":
			field.setUIHint("widget", value)
		default:
			field.setMetadata(key, value)
		}
	}
	if field.Label == "" {
		field.Label = b.labeler(name)
	}
	return field, nil
}

func (f *Field) setMetadata(key, value string) {
	if f.Metadata == nil {
		f.Metadata = make(map[string]string)
	}
	f.Metadata[key] = value
}

func (f *Field) setUIHint(key, value string) {
	if f.UIHints == nil {
		f.UIHints = make(map[string]string)
	}
	f.UIHints[key] = value
}

func schemaType(schema *openapi3.Schema) string {
	if schema == nil || schema.Type == nil {
		return ""
	}
	values := schema.Type.Slice()
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func propertyOrder(schema *openapi3.Schema) []string {
	seen := make(map[string]struct{}, len(schema.Properties))
	order := make([]string, 0, len(schema.Properties))

	if raw, ok := schema.Extensions[orderExtensionKey].([]any); ok {
		for _, entry := range raw {
			name, ok := entry.(string)
			if !ok {
				continue
			}
			if _, exists := schema.Properties[name]; !exists {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			order = append(order, name)
		}
	}

	var rest []string
	for name := range schema.Properties {
		if _, ok := seen[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

func formgenExtensions(ext map[string]any) map[string]string {
	nested, ok := ext[extensionNamespace].(map[string]any)
	if !ok || len(nested) == 0 {
		return nil
	}
	out := make(map[string]string, len(nested))
	for key, value := range nested {
		switch v := value.(type) {
		case string:
			out[key] = strings.TrimSpace(v)
		case bool:
			out[key] = strconv.FormatBool(v)
		case float64:
			out[key] = strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return out
}
