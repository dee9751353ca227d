// Package template defines the template engine contract HTML renderers
// depend on.
package template

import "io"

// TemplateRenderer executes named or inline templates. Every method returns
// the rendered text and also copies it to any writers supplied.
type TemplateRenderer interface {
	// Render treats name as inline content when it holds template tags.
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	// RegisterFilter exposes fn to templates as a filter named name.
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	// GlobalContext merges data into what every template sees.
	GlobalContext(data any) error
}
