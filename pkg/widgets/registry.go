package widgets

import (
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-queryform/pkg/model"
)

// Built-in widget identifiers. Renderers branch on these names.
const (
	WidgetReadOnly    = "readonly"
	WidgetToggle      = "toggle"
	WidgetMultiSelect = "multiselect"
	WidgetSelect      = "select"
	WidgetText        = "text"
)

// Matcher decides whether a widget should handle the supplied field.
type Matcher func(field model.Field) bool

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// Registry picks a widget for each field from explicit hints or registered
// matchers. Higher priority wins; ties fall back to registration order.
type Registry struct {
	mu    sync.RWMutex
	rules []rule
}

// NewRegistry returns a registry with the built-in matchers.
func NewRegistry() *Registry {
	reg := &Registry{}
	reg.registerBuiltins()
	return reg
}

// Register adds a matcher. Blank names and nil matchers are ignored.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Resolve returns the widget for a field. A `widget` UI hint or metadata entry
// is honoured before any matcher runs.
func (r *Registry) Resolve(field model.Field) (string, bool) {
	if explicit := explicitWidget(field); explicit != "" {
		return explicit, true
	}
	if r == nil {
		return "", false
	}
	r.mu.RLock()
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()
	if len(rules) == 0 {
		return "", false
	}
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(field) {
			return entry.name, true
		}
	}
	return "", false
}

// Decorate stamps the resolved widget into every field's UIHints so
// renderers never re-run resolution.
func (r *Registry) Decorate(form *model.FormModel) {
	if r == nil || form == nil {
		return
	}
	fields := make([]model.Field, len(form.Fields))
	for idx, field := range form.Fields {
		fields[idx] = r.decorateField(field)
	}
	form.Fields = fields
}

func (r *Registry) decorateField(field model.Field) model.Field {
	widget, ok := r.Resolve(field)
	if !ok || widget == "" {
		return field
	}
	hints := make(map[string]string, len(field.UIHints)+1)
	for key, value := range field.UIHints {
		hints[key] = value
	}
	if hints["widget"] == "" {
		hints["widget"] = widget
	}
	field.UIHints = hints
	return field
}

// Widget returns the widget recorded on a decorated field, or the text
// widget when none was recorded.
func Widget(field model.Field) string {
	if explicit := explicitWidget(field); explicit != "" {
		return explicit
	}
	return WidgetText
}

func explicitWidget(field model.Field) string {
	if field.UIHints != nil {
		if widget := strings.TrimSpace(field.UIHints["widget"]); widget != "" {
			return widget
		}
	}
	if field.Metadata != nil {
		if widget := strings.TrimSpace(field.Metadata["widget"]); widget != "" {
			return widget
		}
	}
	return ""
}

func (r *Registry) registerBuiltins() {
	r.Register(WidgetReadOnly, 100, func(field model.Field) bool {
		return field.ReadOnly
	})

	r.Register(WidgetToggle, 90, func(field model.Field) bool {
		return field.Type == model.FieldTypeBoolean
	})

	r.Register(WidgetMultiSelect, 80, func(field model.Field) bool {
		return field.Type == model.FieldTypeArray && len(field.OptionsOrEnum()) > 0
	})

	r.Register(WidgetSelect, 70, func(field model.Field) bool {
		if field.Type == model.FieldTypeArray || field.Type == model.FieldTypeObject {
			return false
		}
		return len(field.Enum) > 0 || len(field.Options) > 0
	})

	r.Register(WidgetText, 10, func(field model.Field) bool {
		return field.Type == model.FieldTypeString
	})
}
