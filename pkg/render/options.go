package render

import theme "github.com/goliatone/go-theme"

// RenderOptions carry per-render data that customise output without changing
// the form model.
type RenderOptions struct {
	// Values pre-populates controls, keyed by field name.
	Values map[string]any
	// Errors holds inline messages keyed by field name.
	Errors map[string][]string
	// FormErrors are shown above the fields.
	FormErrors []string
	// HiddenFields are emitted as hidden inputs, for example a CSRF token or
	// the values of fields the layout currently hides.
	HiddenFields map[string]string
	// Theme is the resolved go-theme configuration. Nil renders unthemed.
	Theme *theme.RendererConfig
}
