package queryform

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/goliatone/go-queryform/pkg/catalog"
	"github.com/goliatone/go-queryform/pkg/model"
)

// SubmitHandler receives the validated record. It has no way to feed back
// into the form.
type SubmitHandler func(ctx context.Context, record State)

// Change describes one applied edit.
type Change struct {
	Field        string
	Value        any
	DisplayQuery string
	Layout       Layout
	Err          *FieldValidationError
}

// ChangeListener is notified after every applied edit.
type ChangeListener func(Change)

// Option configures a Form.
type Option func(*Form)

// WithSchema supplies a prebuilt schema. When omitted New builds one from the
// embedded document and the configured catalog.
func WithSchema(schema *Schema) Option {
	return func(f *Form) {
		if schema != nil {
			f.schema = schema
		}
	}
}

// WithCatalog sets the text catalog used when New builds the schema.
func WithCatalog(c *catalog.Catalog) Option {
	return func(f *Form) {
		if c != nil {
			f.catalog = c
		}
	}
}

// WithSubmitHandler replaces the default logging handler.
func WithSubmitHandler(fn SubmitHandler) Option {
	return func(f *Form) {
		if fn != nil {
			f.onSubmit = fn
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Form) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithInitialState seeds the form instead of DefaultState. The display query
// is re-derived from the seeded values.
func WithInitialState(state State) Option {
	return func(f *Form) {
		seeded := state.Clone()
		f.initial = &seeded
	}
}

// Form owns one QueryFormState. All mutation goes through its update entry
// points, which keep the display query derived and field errors current.
// A Form is not safe for concurrent use.
type Form struct {
	schema    *Schema
	catalog   *catalog.Catalog
	state     State
	initial   *State
	errors    map[string]*FieldValidationError
	listeners []listenerEntry
	nextID    int
	onSubmit  SubmitHandler
	logger    *slog.Logger
}

type listenerEntry struct {
	id int
	fn ChangeListener
}

// New constructs a form in its mount state.
func New(ctx context.Context, options ...Option) (*Form, error) {
	f := &Form{
		errors: make(map[string]*FieldValidationError),
		logger: slog.Default(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(f)
		}
	}

	if f.schema == nil {
		schema, err := NewSchema(ctx, WithSchemaCatalog(f.catalog))
		if err != nil {
			return nil, err
		}
		f.schema = schema
	}
	if f.onSubmit == nil {
		f.onSubmit = LogSubmit(f.logger)
	}

	f.state = DefaultState()
	if f.initial != nil {
		f.state = *f.initial
		f.initial = nil
	}
	f.state.SelectedTexts = normalizeSelection(f.state.SelectedTexts)
	f.state.DisplayQuery = DeriveDisplay(f.state.IsIndic, f.state.Query, f.state.IndicQuery)
	return f, nil
}

// LogSubmit returns a handler that logs the submitted record.
func LogSubmit(logger *slog.Logger) SubmitHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, record State) {
		logger.InfoContext(ctx, "query form submitted",
			"displayQuery", record.DisplayQuery,
			"isIndic", record.IsIndic,
			"inputScript", string(record.InputScript),
			"isAllTexts", record.IsAllTexts,
			"selectedTexts", record.SelectedTexts,
		)
	}
}

// Schema returns the schema the form validates against.
func (f *Form) Schema() *Schema {
	return f.schema
}

// State returns a snapshot of the current values.
func (f *Form) State() State {
	return f.state.Clone()
}

// Layout returns the current layout decision.
func (f *Form) Layout() Layout {
	return f.state.Layout()
}

// Values returns the current values keyed by field name.
func (f *Form) Values() map[string]any {
	return f.state.Values()
}

// Errors returns the current field errors in field order, followed by the
// errors not attributed to any field.
func (f *Form) Errors() ValidationErrors {
	out := make(ValidationErrors, 0, len(f.errors))
	seen := make(map[string]bool, len(f.errors))
	for _, field := range f.schema.Model().Fields {
		if err, ok := f.errors[field.Name]; ok {
			out = append(out, err)
			seen[field.Name] = true
		}
	}
	rest := make([]string, 0, len(f.errors)-len(seen))
	for name := range f.errors {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)
	for _, name := range rest {
		out = append(out, f.errors[name])
	}
	return out
}

// FormErrors returns the messages of errors that belong to the record as a
// whole rather than to one field.
func (f *Form) FormErrors() []string {
	var out []string
	for _, err := range f.Errors() {
		if _, ok := f.schema.Model().Field(err.Field); !ok {
			out = append(out, err.Message)
		}
	}
	return out
}

// Model returns the form model restricted to the visible fields, in layout
// order.
func (f *Form) Model() model.FormModel {
	full := f.schema.Model()
	visible := f.Layout().Fields()
	fields := make([]model.Field, 0, len(visible))
	for _, name := range visible {
		if field, ok := full.Field(name); ok {
			fields = append(fields, field)
		}
	}
	full.Fields = fields
	return full
}

// Subscribe registers a change listener and returns a function removing it.
func (f *Form) Subscribe(fn ChangeListener) func() {
	if fn == nil {
		return func() {}
	}
	f.nextID++
	id := f.nextID
	f.listeners = append(f.listeners, listenerEntry{id: id, fn: fn})
	return func() {
		f.listeners = slices.DeleteFunc(f.listeners, func(entry listenerEntry) bool {
			return entry.id == id
		})
	}
}

// SetQuery edits the romanized query.
func (f *Form) SetQuery(value string) {
	if f.state.Query == value {
		return
	}
	f.state.Query = value
	f.apply(FieldQuery, value, true)
}

// SetIndicQuery edits the native-script query.
func (f *Form) SetIndicQuery(value string) {
	if f.state.IndicQuery == value {
		return
	}
	f.state.IndicQuery = value
	f.apply(FieldIndicQuery, value, true)
}

// SetIndic flips the input mode.
func (f *Form) SetIndic(value bool) {
	if f.state.IsIndic == value {
		return
	}
	f.state.IsIndic = value
	f.apply(FieldIsIndic, value, true)
}

// SetInputScript stores the declared script. Unknown scripts are kept so the
// error can be shown against the field; submission stays blocked until fixed.
func (f *Form) SetInputScript(value string) {
	script := InputScript(strings.TrimSpace(value))
	if f.state.InputScript == script {
		return
	}
	f.state.InputScript = script
	f.apply(FieldInputScript, string(script), false)
}

// SetAllTexts toggles the text scope restriction. Turning it on drops any
// pending selection error since the selection is no longer enforced.
func (f *Form) SetAllTexts(value bool) {
	if f.state.IsAllTexts == value {
		return
	}
	f.state.IsAllTexts = value
	if value {
		delete(f.errors, FieldSelectedTexts)
	}
	f.apply(FieldIsAllTexts, value, false)
}

// SetSelectedTexts replaces the text selection. Identifiers are trimmed and
// de-duplicated, keeping first-seen order.
func (f *Form) SetSelectedTexts(ids []string) {
	normalized := normalizeSelection(ids)
	if slices.Equal(f.state.SelectedTexts, normalized) {
		return
	}
	f.state.SelectedTexts = normalized
	f.apply(FieldSelectedTexts, append([]string(nil), normalized...), false)
}

// Set routes a generic edit to the typed entry point. Renderers use it to
// stay independent of the concrete field set.
func (f *Form) Set(field string, value any) error {
	switch field {
	case FieldQuery, FieldIndicQuery, FieldInputScript:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("queryform: %s expects a string, got %T", field, value)
		}
		switch field {
		case FieldQuery:
			f.SetQuery(s)
		case FieldIndicQuery:
			f.SetIndicQuery(s)
		default:
			f.SetInputScript(s)
		}
	case FieldIsIndic, FieldIsAllTexts:
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("queryform: %s expects a bool, got %T", field, value)
		}
		if field == FieldIsIndic {
			f.SetIndic(b)
		} else {
			f.SetAllTexts(b)
		}
	case FieldSelectedTexts:
		ids, err := stringList(value)
		if err != nil {
			return fmt.Errorf("queryform: %s: %w", field, err)
		}
		f.SetSelectedTexts(ids)
	case FieldDisplayQuery:
		return ErrReadOnly
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// Submit validates the whole state. While any field fails it returns a
// *SubmitBlockedError and the handler is not called; otherwise the record is
// handed to the submit handler and returned.
func (f *Form) Submit(ctx context.Context) (State, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return State{}, err
	}

	errs := f.schema.Validate(f.state)
	clear(f.errors)
	for _, err := range errs {
		if _, exists := f.errors[err.Field]; !exists {
			f.errors[err.Field] = err
		}
	}
	if len(errs) > 0 {
		f.logger.DebugContext(ctx, "query form submit blocked", "fields", errs.Fields())
		return State{}, &SubmitBlockedError{Errors: errs}
	}

	record := f.state.record()
	f.onSubmit(ctx, record.Clone())
	return record, nil
}

func (f *Form) apply(field string, value any, derives bool) {
	if derives {
		f.state.DisplayQuery = DeriveDisplay(f.state.IsIndic, f.state.Query, f.state.IndicQuery)
	}

	err := f.schema.ValidateField(field, f.state)
	if err != nil {
		f.errors[field] = err
	} else {
		delete(f.errors, field)
	}

	change := Change{
		Field:        field,
		Value:        value,
		DisplayQuery: f.state.DisplayQuery,
		Layout:       f.state.Layout(),
		Err:          err,
	}
	for _, entry := range slices.Clone(f.listeners) {
		entry.fn(change)
	}
}

func stringList(value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string identifiers, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list of identifiers, got %T", value)
	}
}
