package vanilla

import (
	"fmt"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-queryform/pkg/model"
	"github.com/goliatone/go-queryform/pkg/render"
	"github.com/goliatone/go-queryform/pkg/widgets"
)

// view flattens the model into plain maps so templates never call into Go.
func (r *Renderer) view(form model.FormModel, options render.RenderOptions) map[string]any {
	fields := make([]any, 0, len(form.Fields))
	for _, field := range form.Fields {
		fields = append(fields, r.fieldView(field, options))
	}

	hidden := make([]any, 0, len(options.HiddenFields))
	for _, field := range render.SortedHiddenFields(options.HiddenFields) {
		hidden = append(hidden, map[string]any{"name": field.Name, "value": field.Value})
	}

	formID := form.OperationID
	if formID == "" {
		formID = "queryform"
	}
	method := strings.ToLower(strings.TrimSpace(form.Method))
	if method != "get" {
		method = "post"
	}

	stylesheets := append([]string(nil), r.stylesheets...)
	themed := themeView(options.Theme)
	if href, _ := themed["stylesheet"].(string); href != "" {
		stylesheets = append(stylesheets, href)
	}

	return map[string]any{
		"form": map[string]any{
			"id":          formID,
			"action":      form.Endpoint,
			"method":      method,
			"title":       form.Summary,
			"description": form.Description,
		},
		"fields":       fields,
		"hiddenFields": hidden,
		"formErrors":   render.MergeFormErrors(options.FormErrors),
		"classes":      chromeClasses(),
		"theme":        themed,
		"stylesheet":   r.stylesheet,
		"stylesheets":  stylesheets,
		"submitLabel":  r.submitLabel,
	}
}

func (r *Renderer) fieldView(field model.Field, options render.RenderOptions) map[string]any {
	widget := widgets.Widget(field)
	value, hasValue := options.Values[field.Name]
	if !hasValue {
		value = field.Default
	}
	errs := render.MergeFormErrors(options.Errors[field.Name])

	view := map[string]any{
		"name":        field.Name,
		"id":          controlID(field.Name),
		"labelId":     labelID(field.Name),
		"label":       fieldLabel(field),
		"widget":      widget,
		"placeholder": field.Placeholder,
		"description": r.policy.Sanitize(field.Description),
		"required":    field.Required && !field.ReadOnly,
		"errors":      errs,
		"invalid":     len(errs) > 0,
		"value":       scalarString(value),
		"minItems":    field.Metadata["minItems"],
	}

	switch widget {
	case widgets.WidgetToggle:
		checked, _ := value.(bool)
		view["checked"] = checked
	case widgets.WidgetSelect, widgets.WidgetMultiSelect:
		selected := selectedSet(value)
		choices := make([]any, 0, len(field.OptionsOrEnum()))
		for _, option := range field.OptionsOrEnum() {
			label := option.Label
			if label == "" {
				label = option.Value
			}
			_, isSelected := selected[option.Value]
			choices = append(choices, map[string]any{
				"value":    option.Value,
				"label":    label,
				"selected": isSelected,
			})
		}
		view["options"] = choices
	}
	return view
}

func fieldLabel(field model.Field) string {
	if field.Label != "" {
		return field.Label
	}
	return field.Name
}

func scalarString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []any, []string:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func selectedSet(value any) map[string]struct{} {
	out := make(map[string]struct{})
	switch v := value.(type) {
	case string:
		if v != "" {
			out[v] = struct{}{}
		}
	case []string:
		for _, item := range v {
			out[item] = struct{}{}
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				out[s] = struct{}{}
			}
		}
	}
	return out
}

func themeView(cfg *theme.RendererConfig) map[string]any {
	if cfg == nil {
		return map[string]any{}
	}
	view := map[string]any{
		"name":    cfg.Theme,
		"variant": cfg.Variant,
		"style":   cssVarsStyle(cfg.CSSVars),
	}
	if cfg.AssetURL != nil {
		view["stylesheet"] = cfg.AssetURL("stylesheet")
	}
	return view
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+vars[key])
	}
	return strings.Join(parts, "; ")
}
