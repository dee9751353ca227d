package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-queryform/pkg/model"
	"github.com/goliatone/go-queryform/pkg/queryform"
	"github.com/goliatone/go-queryform/pkg/render"
	"github.com/goliatone/go-queryform/pkg/widgets"
)

// Renderer implements render.Renderer for terminal sessions. Every answer is
// routed through the form's setters, so the display query and the visible
// fields follow the user's edits as they happen.
type Renderer struct {
	driver       PromptDriver
	outputFormat OutputFormat
	theme        Theme
	maxAttempts  int
	formOptions  []queryform.Option
	widgets      *widgets.Registry
	policy       *bluemonday.Policy
	logger       *slog.Logger
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		outputFormat: OutputFormatJSON,
		theme:        Theme{InfoPrefix: "i ", ErrorPrefix: "! "},
		maxAttempts:  3,
		logger:       slog.Default(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	switch r.outputFormat {
	case OutputFormatJSON, OutputFormatFormURLEncoded, OutputFormatPrettyText:
	default:
		return nil, fmt.Errorf("tui: unsupported output format %q", r.outputFormat)
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(nil)
	}
	if r.widgets == nil {
		r.widgets = widgets.NewRegistry()
	}
	r.policy = bluemonday.StrictPolicy()
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// Render runs an interactive session seeded from opts.Values and serializes
// the submitted record. The supplied model fixes prompt order and labels;
// an empty model falls back to the form's schema.
func (r *Renderer) Render(ctx context.Context, form model.FormModel, opts render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	formOptions := append([]queryform.Option{queryform.WithLogger(r.logger)}, r.formOptions...)
	if len(opts.Values) > 0 {
		seed, err := queryform.StateFromValues(opts.Values)
		if err != nil {
			return nil, fmt.Errorf("tui: seed values: %w", err)
		}
		formOptions = append(formOptions, queryform.WithInitialState(seed))
	}
	session, err := queryform.New(ctx, formOptions...)
	if err != nil {
		return nil, fmt.Errorf("tui: build form: %w", err)
	}

	if err := r.reportInitial(ctx, opts); err != nil {
		return nil, err
	}
	if len(form.Fields) == 0 {
		form = session.Schema().Model()
	}
	record, err := r.run(ctx, session, form)
	if err != nil {
		return nil, err
	}
	return r.Serialize(record)
}

// Run prompts for every visible field of an existing form and submits it.
// A blocked submit re-prompts only the failing fields, hidden ones included,
// up to the configured number of attempts.
func (r *Renderer) Run(ctx context.Context, form *queryform.Form) (queryform.State, error) {
	if form == nil {
		return queryform.State{}, errors.New("tui: form is nil")
	}
	return r.run(ctx, form, form.Schema().Model())
}

func (r *Renderer) run(ctx context.Context, form *queryform.Form, fm model.FormModel) (queryform.State, error) {
	if r.driver == nil {
		return queryform.State{}, errors.New("tui: prompt driver is nil")
	}
	r.widgets.Decorate(&fm)

	var echoErr error
	unsubscribe := form.Subscribe(func(change queryform.Change) {
		if change.Err == nil || echoErr != nil {
			return
		}
		echoErr = r.driver.Info(ctx, r.theme.ErrorPrefix+change.Err.Message)
	})
	defer unsubscribe()

	var pending map[string]bool
	var blocked *queryform.SubmitBlockedError
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		for _, field := range fm.Fields {
			switch {
			case pending == nil && !form.Layout().Visible(field.Name):
				continue
			case pending != nil && !pending[field.Name]:
				continue
			}
			if err := r.promptField(ctx, form, field); err != nil {
				return queryform.State{}, err
			}
			if echoErr != nil {
				return queryform.State{}, echoErr
			}
		}

		record, err := form.Submit(ctx)
		if err == nil {
			r.logger.DebugContext(ctx, "tui session submitted", "attempts", attempt+1)
			return record, nil
		}
		if !errors.As(err, &blocked) {
			return queryform.State{}, err
		}

		pending = make(map[string]bool, len(blocked.Errors))
		for _, fieldErr := range blocked.Errors {
			pending[fieldErr.Field] = true
			msg := fieldErr.Message
			if fieldErr.Field != "" {
				msg = fieldErr.Field + ": " + msg
			}
			if err := r.driver.Info(ctx, r.theme.ErrorPrefix+msg); err != nil {
				return queryform.State{}, err
			}
		}
		r.logger.DebugContext(ctx, "tui submit blocked", "attempt", attempt+1, "fields", blocked.Errors.Fields())
	}
	return queryform.State{}, fmt.Errorf("%w after %d attempt(s): %w", ErrTooManyAttempts, r.maxAttempts, blocked)
}

func (r *Renderer) reportInitial(ctx context.Context, opts render.RenderOptions) error {
	messages := append([]string(nil), opts.FormErrors...)
	names := make([]string, 0, len(opts.Errors))
	for name := range opts.Errors {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, msg := range opts.Errors[name] {
			messages = append(messages, name+": "+msg)
		}
	}
	for _, msg := range messages {
		if strings.TrimSpace(msg) == "" {
			continue
		}
		if err := r.driver.Info(ctx, r.theme.ErrorPrefix+msg); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) promptField(ctx context.Context, form *queryform.Form, field model.Field) error {
	values := form.Values()
	label := displayLabel(field)
	help := r.displayHelp(field)

	switch widgets.Widget(field) {
	case widgets.WidgetReadOnly:
		return r.driver.Info(ctx, fmt.Sprintf("%s%s: %v", r.theme.InfoPrefix, label, values[field.Name]))

	case widgets.WidgetToggle:
		current, _ := values[field.Name].(bool)
		answer, err := r.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: current, Help: help})
		if err != nil {
			return err
		}
		return form.Set(field.Name, answer)

	case widgets.WidgetSelect:
		options := field.OptionsOrEnum()
		defaultIndex := optionIndex(options, fmt.Sprint(values[field.Name]))
		if defaultIndex < 0 && field.Default != nil {
			defaultIndex = optionIndex(options, fmt.Sprint(field.Default))
		}
		idx, err := r.driver.Select(ctx, SelectConfig{
			Message:      label,
			Options:      optionLabels(options),
			DefaultIndex: defaultIndex,
			Help:         help,
		})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(options) {
			return fmt.Errorf("tui: %s: selection out of range", field.Name)
		}
		return form.Set(field.Name, options[idx].Value)

	case widgets.WidgetMultiSelect:
		options := field.OptionsOrEnum()
		var defaults []int
		for _, id := range form.State().SelectedTexts {
			if idx := optionIndex(options, id); idx >= 0 {
				defaults = append(defaults, idx)
			}
		}
		indices, err := r.driver.MultiSelect(ctx, SelectConfig{
			Message:  label,
			Options:  optionLabels(options),
			Defaults: defaults,
			Help:     help,
		})
		if err != nil {
			return err
		}
		chosen := make([]string, 0, len(indices))
		for _, idx := range indices {
			if idx >= 0 && idx < len(options) {
				chosen = append(chosen, options[idx].Value)
			}
		}
		return form.Set(field.Name, chosen)

	default:
		current, _ := values[field.Name].(string)
		answer, err := r.driver.Input(ctx, InputConfig{Message: label, Default: current, Help: help})
		if err != nil {
			return err
		}
		return form.Set(field.Name, answer)
	}
}

func displayLabel(field model.Field) string {
	if field.Label != "" {
		return field.Label
	}
	return field.Name
}

// displayHelp strips markup from descriptions; terminals show plain text.
func (r *Renderer) displayHelp(field model.Field) string {
	if h := field.Metadata["cli.help"]; h != "" {
		return h
	}
	return strings.TrimSpace(r.policy.Sanitize(field.Description))
}

func optionLabels(options []model.Option) []string {
	out := make([]string, len(options))
	for i, option := range options {
		out[i] = option.Label
		if out[i] == "" {
			out[i] = option.Value
		}
	}
	return out
}

func optionIndex(options []model.Option, value string) int {
	for i, option := range options {
		if option.Value == value {
			return i
		}
	}
	return -1
}

// Serialize encodes a submitted record in the configured output format.
func (r *Renderer) Serialize(record queryform.State) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return []byte(flattenForm(recordValues(record))), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(recordValues(record))), nil
	default:
		return json.Marshal(record)
	}
}

// WriteRecord serializes the record to w followed by a newline.
func (r *Renderer) WriteRecord(w io.Writer, record queryform.State) error {
	payload, err := r.Serialize(record)
	if err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	if len(payload) > 0 && payload[len(payload)-1] == '\n' {
		return nil
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// recordValues keeps the keys the JSON record carries.
func recordValues(record queryform.State) map[string]any {
	values := record.Values()
	if len(record.SelectedTexts) == 0 {
		delete(values, queryform.FieldSelectedTexts)
	}
	for _, key := range []string{queryform.FieldQuery, queryform.FieldIndicQuery, queryform.FieldInputScript} {
		if values[key] == "" {
			delete(values, key)
		}
	}
	return values
}

func flattenForm(values map[string]any) string {
	flattened := url.Values{}
	for key, value := range values {
		switch v := value.(type) {
		case []any:
			for _, item := range v {
				flattened.Add(key+"[]", fmt.Sprint(item))
			}
		default:
			flattened.Set(key, fmt.Sprint(v))
		}
	}
	return flattened.Encode()
}

func prettyPrint(values map[string]any) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		switch v := values[key].(type) {
		case []any:
			for idx, item := range v {
				fmt.Fprintf(&b, "%s[%d]=%v\n", key, idx, item)
			}
		default:
			fmt.Fprintf(&b, "%s=%v\n", key, v)
		}
	}
	return b.String()
}
