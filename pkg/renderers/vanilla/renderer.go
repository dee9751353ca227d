package vanilla

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-queryform/pkg/model"
	"github.com/goliatone/go-queryform/pkg/render"
	rendertemplate "github.com/goliatone/go-queryform/pkg/render/template"
	gotemplate "github.com/goliatone/go-queryform/pkg/render/template/gotemplate"
	"github.com/goliatone/go-queryform/pkg/widgets"
)

// Option configures the renderer.
type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	widgets          *widgets.Registry
	policy           *bluemonday.Policy
	inlineStyles     bool
	stylesheets      []string
	submitLabel      string
}

// WithTemplatesFS supplies an alternate template bundle.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a template engine.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithWidgetRegistry replaces the widget registry used to pick controls.
func WithWidgetRegistry(registry *widgets.Registry) Option {
	return func(cfg *config) {
		if registry != nil {
			cfg.widgets = registry
		}
	}
}

// WithSanitizer replaces the policy applied to field descriptions.
func WithSanitizer(policy *bluemonday.Policy) Option {
	return func(cfg *config) {
		if policy != nil {
			cfg.policy = policy
		}
	}
}

// WithDefaultStyles inlines the embedded stylesheet.
func WithDefaultStyles() Option {
	return func(cfg *config) {
		cfg.inlineStyles = true
	}
}

// WithStylesheet links an external stylesheet.
func WithStylesheet(href string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(href); trimmed != "" {
			cfg.stylesheets = append(cfg.stylesheets, trimmed)
		}
	}
}

// WithSubmitLabel overrides the submit button text.
func WithSubmitLabel(label string) Option {
	return func(cfg *config) {
		if trimmed := strings.TrimSpace(label); trimmed != "" {
			cfg.submitLabel = trimmed
		}
	}
}

// DescriptionPolicy allows inline emphasis in descriptions and strips
// everything else.
func DescriptionPolicy() *bluemonday.Policy {
	policy := bluemonday.StrictPolicy()
	policy.AllowElements("em", "strong", "b", "i", "code")
	return policy
}

// Renderer produces a plain HTML form.
type Renderer struct {
	templates   rendertemplate.TemplateRenderer
	widgets     *widgets.Registry
	policy      *bluemonday.Policy
	stylesheet  string
	stylesheets []string
	submitLabel string
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the renderer.
func New(options ...Option) (*Renderer, error) {
	cfg := config{
		templateFS:  TemplatesFS(),
		submitLabel: "Search",
	}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}
	if cfg.widgets == nil {
		cfg.widgets = widgets.NewRegistry()
	}
	if cfg.policy == nil {
		cfg.policy = DescriptionPolicy()
	}

	templates := cfg.templateRenderer
	if templates == nil {
		engine, err := gotemplate.New(
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		templates = engine
	}

	renderer := &Renderer{
		templates:   templates,
		widgets:     cfg.widgets,
		policy:      cfg.policy,
		stylesheets: cfg.stylesheets,
		submitLabel: cfg.submitLabel,
	}
	if cfg.inlineStyles {
		renderer.stylesheet = defaultStylesheet()
	}
	return renderer, nil
}

func (r *Renderer) Name() string {
	return "vanilla"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render writes the form. Fields render in model order; a theme partial
// registered under FormPartial replaces the built-in template.
func (r *Renderer) Render(ctx context.Context, form model.FormModel, options render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("vanilla renderer: template renderer is nil")
	}
	if ctx == nil {
		return nil, errors.New("vanilla renderer: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.widgets.Decorate(&form)
	data := r.view(form, options)

	name := defaultFormTemplate
	if options.Theme != nil {
		if partial := strings.TrimSpace(options.Theme.Partials[FormPartial]); partial != "" {
			name = partial
		}
	}
	result, err := r.templates.RenderTemplate(name, data)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render template: %w", err)
	}
	return []byte(result), nil
}
