package queryform

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-queryform/pkg/catalog"
	"github.com/goliatone/go-queryform/pkg/model"
	pkgopenapi "github.com/goliatone/go-queryform/pkg/openapi"
)

//go:embed schema/queryform.yaml
var schemaFS embed.FS

const (
	schemaFile = "schema/queryform.yaml"
	// ComponentName is the schema component describing the form record.
	ComponentName = "QueryForm"
	// OperationID identifies the submit operation in the schema document.
	OperationID = "submitQuery"
)

// Schema validates candidate states against the QueryForm OpenAPI component
// and exposes the renderer-facing model derived from it.
type Schema struct {
	root    *openapi3.Schema
	catalog *catalog.Catalog
	form    model.FormModel
	order   map[string]int
}

// SchemaOption customises schema construction.
type SchemaOption func(*schemaConfig)

type schemaConfig struct {
	document []byte
	catalog  *catalog.Catalog
	labeler  model.Labeler
}

// WithSchemaDocument replaces the embedded OpenAPI document. The document must
// define the QueryForm component and the submitQuery operation.
func WithSchemaDocument(data []byte) SchemaOption {
	return func(cfg *schemaConfig) {
		if len(data) > 0 {
			cfg.document = data
		}
	}
}

// WithSchemaCatalog binds the text identifiers accepted by selectedTexts.
func WithSchemaCatalog(c *catalog.Catalog) SchemaOption {
	return func(cfg *schemaConfig) {
		if c != nil {
			cfg.catalog = c
		}
	}
}

// WithSchemaLabeler overrides how labels are derived for fields without an
// explicit x-formgen label.
func WithSchemaLabeler(labeler model.Labeler) SchemaOption {
	return func(cfg *schemaConfig) {
		cfg.labeler = labeler
	}
}

// NewSchema loads the schema document and binds the text catalog.
func NewSchema(ctx context.Context, options ...SchemaOption) (*Schema, error) {
	cfg := schemaConfig{catalog: catalog.Default()}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	var (
		doc *pkgopenapi.Document
		err error
	)
	if len(cfg.document) > 0 {
		doc, err = pkgopenapi.LoadData(ctx, cfg.document)
	} else {
		doc, err = pkgopenapi.LoadFS(ctx, schemaFS, schemaFile)
	}
	if err != nil {
		return nil, fmt.Errorf("queryform schema: %w", err)
	}

	root, err := doc.Component(ComponentName)
	if err != nil {
		return nil, fmt.Errorf("queryform schema: %w", err)
	}
	if err := bindCatalog(root, cfg.catalog); err != nil {
		return nil, fmt.Errorf("queryform schema: %w", err)
	}

	op, err := doc.Operation(OperationID)
	if err != nil {
		return nil, fmt.Errorf("queryform schema: %w", err)
	}
	form, err := model.NewBuilder(cfg.labeler).Build(op)
	if err != nil {
		return nil, fmt.Errorf("queryform schema: %w", err)
	}
	applyCatalogOptions(&form, cfg.catalog)

	order := make(map[string]int, len(form.Fields))
	for idx, field := range form.Fields {
		order[field.Name] = idx
	}

	return &Schema{
		root:    root,
		catalog: cfg.catalog,
		form:    form,
		order:   order,
	}, nil
}

func bindCatalog(root *openapi3.Schema, c *catalog.Catalog) error {
	ref, ok := root.Properties[FieldSelectedTexts]
	if !ok || ref == nil || ref.Value == nil || ref.Value.Items == nil || ref.Value.Items.Value == nil {
		return errors.New("selectedTexts must be an array of strings")
	}
	ids := c.IDs()
	enum := make([]any, len(ids))
	for i, id := range ids {
		enum[i] = id
	}
	ref.Value.Items.Value.Enum = enum
	return nil
}

func applyCatalogOptions(form *model.FormModel, c *catalog.Catalog) {
	for idx := range form.Fields {
		field := &form.Fields[idx]
		if field.Name != FieldSelectedTexts {
			continue
		}
		field.Options = make([]model.Option, 0, c.Len())
		for _, text := range c.Texts() {
			field.Options = append(field.Options, model.Option{Value: text.ID, Label: text.Label})
		}
	}
}

// Model returns the full form model, every field included.
func (s *Schema) Model() model.FormModel {
	out := s.form
	out.Fields = append([]model.Field(nil), s.form.Fields...)
	return out
}

// Catalog returns the bound text catalog.
func (s *Schema) Catalog() *catalog.Catalog {
	return s.catalog
}

// Validate checks a full state. The text selection is only checked when the
// scope is restricted.
func (s *Schema) Validate(state State) ValidationErrors {
	return s.ValidateValues(statePayload(state))
}

// ValidateValues checks a raw record such as a decoded JSON submission.
// Optional fields may be absent.
func (s *Schema) ValidateValues(values map[string]any) ValidationErrors {
	payload := make(map[string]any, len(values))
	for key, value := range values {
		payload[key] = value
	}
	if allTexts, ok := payload[FieldIsAllTexts].(bool); !ok || allTexts {
		delete(payload, FieldSelectedTexts)
	}

	errs := s.mapErrors(s.root.VisitJSON(payload, openapi3.MultiErrors()), "")
	sort.SliceStable(errs, func(i, j int) bool {
		return s.rank(errs[i].Field) < s.rank(errs[j].Field)
	})
	return errs
}

// ValidateField checks one field of state in isolation. Hidden text
// selections and an unset input script are always accepted.
func (s *Schema) ValidateField(name string, state State) *FieldValidationError {
	ref, ok := s.root.Properties[name]
	if !ok || ref == nil || ref.Value == nil {
		return nil
	}
	if name == FieldSelectedTexts && state.IsAllTexts {
		return nil
	}
	value, present := statePayload(state)[name]
	if !present {
		return nil
	}
	errs := s.mapErrors(ref.Value.VisitJSON(value, openapi3.MultiErrors()), name)
	if len(errs) == 0 {
		return nil
	}
	return errs[0]
}

func statePayload(state State) map[string]any {
	payload := map[string]any{
		FieldQuery:        state.Query,
		FieldIndicQuery:   state.IndicQuery,
		FieldDisplayQuery: state.DisplayQuery,
		FieldIsIndic:      state.IsIndic,
		FieldIsAllTexts:   state.IsAllTexts,
	}
	if state.InputScript != "" {
		payload[FieldInputScript] = string(state.InputScript)
	}
	if !state.IsAllTexts {
		texts := make([]any, len(state.SelectedTexts))
		for i, id := range state.SelectedTexts {
			texts[i] = id
		}
		payload[FieldSelectedTexts] = texts
	}
	return payload
}

func (s *Schema) rank(field string) int {
	if idx, ok := s.order[field]; ok {
		return idx
	}
	return len(s.order)
}

func (s *Schema) mapErrors(err error, fallback string) ValidationErrors {
	if err == nil {
		return nil
	}
	var out ValidationErrors
	for _, item := range flattenErrors(err) {
		var schemaErr *openapi3.SchemaError
		if !errors.As(item, &schemaErr) {
			out = append(out, &FieldValidationError{Field: fallback, Message: strings.TrimSpace(item.Error())})
			continue
		}
		field := s.fieldFromPointer(schemaErr.JSONPointer(), fallback)
		if field == "" && schemaErr.SchemaField == "required" {
			field = missingProperty(schemaErr.Reason)
		}
		out = append(out, &FieldValidationError{Field: field, Message: s.message(field, schemaErr)})
	}
	return out
}

func flattenErrors(err error) []error {
	var multi openapi3.MultiError
	if !errors.As(err, &multi) {
		return []error{err}
	}
	var out []error
	for _, item := range multi {
		out = append(out, flattenErrors(item)...)
	}
	return out
}

func (s *Schema) fieldFromPointer(pointer []string, fallback string) string {
	if len(pointer) > 0 {
		if _, ok := s.root.Properties[pointer[0]]; ok {
			return pointer[0]
		}
	}
	return fallback
}

// missingProperty extracts the name from kin-openapi's
// `property "x" is missing` reason.
func missingProperty(reason string) string {
	start := strings.Index(reason, `"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(reason[start+1:], `"`)
	if end < 0 {
		return ""
	}
	return reason[start+1 : start+1+end]
}

func (s *Schema) message(field string, err *openapi3.SchemaError) string {
	switch err.SchemaField {
	case "required":
		return "is required"
	case "enum":
		if field == FieldSelectedTexts {
			return fmt.Sprintf("%v is not a known text", err.Value)
		}
		if err.Schema != nil && len(err.Schema.Enum) > 0 {
			allowed := make([]string, 0, len(err.Schema.Enum))
			for _, value := range err.Schema.Enum {
				allowed = append(allowed, fmt.Sprint(value))
			}
			return "must be one of " + strings.Join(allowed, ", ")
		}
	case "minItems":
		if field == FieldSelectedTexts {
			return "select at least one text"
		}
	case "type":
		if err.Schema != nil && err.Schema.Type != nil {
			return "must be a " + strings.Join(err.Schema.Type.Slice(), " or ")
		}
	}
	return strings.TrimSpace(err.Reason)
}
