package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	theme "github.com/goliatone/go-theme"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-queryform/pkg/model"
	"github.com/goliatone/go-queryform/pkg/queryform"
	"github.com/goliatone/go-queryform/pkg/render"
	"github.com/goliatone/go-queryform/pkg/renderers/tui"
	"github.com/goliatone/go-queryform/pkg/renderers/vanilla"
)

type renderFlags struct {
	state      stateFlags
	out        string
	errorsFile string
	validate   bool
	csrfField  string
	csrfToken  string
}

func newRenderCommand() *cobra.Command {
	flags := &renderFlags{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the query form with the configured renderer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRender(cmd, flags)
		},
	}
	flags.state.bind(cmd)
	cmd.Flags().StringVar(&flags.out, "out", "", "write to a file instead of stdout")
	cmd.Flags().StringVar(&flags.errorsFile, "errors", "", "JSON file of server-side errors keyed by field or JSON pointer")
	cmd.Flags().BoolVar(&flags.validate, "validate", false, "show validation errors for the seeded state")
	cmd.Flags().StringVar(&flags.csrfField, "csrf-field", "_csrf", "hidden input name for the CSRF token")
	cmd.Flags().StringVar(&flags.csrfToken, "csrf-token", "", "CSRF token emitted as a hidden input")
	return cmd
}

func runRender(cmd *cobra.Command, flags *renderFlags) error {
	a := appFrom(cmd)
	ctx := cmd.Context()

	seed, err := flags.state.seed(cmd)
	if err != nil {
		return err
	}
	form, err := a.newForm(ctx, seed)
	if err != nil {
		return err
	}

	registry, err := a.renderers(form.Schema())
	if err != nil {
		return err
	}
	renderer, err := registry.Get(a.cfg.Renderer)
	if err != nil {
		return err
	}

	opts, err := a.renderOptions(form, flags)
	if err != nil {
		return err
	}

	// The terminal renderer walks every field itself; HTML only shows the
	// visible ones.
	formModel := form.Model()
	if renderer.Name() == "tui" {
		formModel = form.Schema().Model()
	}

	output, err := renderer.Render(ctx, formModel, opts)
	if err != nil {
		return err
	}
	a.logger.DebugContext(ctx, "form rendered", "renderer", renderer.Name(), "content_type", renderer.ContentType(), "bytes", len(output))
	return writeOutput(cmd.OutOrStdout(), flags.out, output)
}

func (a *app) renderers(schema *queryform.Schema) (*render.Registry, error) {
	vanillaOptions := []vanilla.Option{vanilla.WithSubmitLabel(a.cfg.SubmitLabel)}
	if a.cfg.Theme.DefaultStyles {
		vanillaOptions = append(vanillaOptions, vanilla.WithDefaultStyles())
	}
	if a.cfg.Theme.Stylesheet != "" {
		vanillaOptions = append(vanillaOptions, vanilla.WithStylesheet(a.cfg.Theme.Stylesheet))
	}
	html, err := vanilla.New(vanillaOptions...)
	if err != nil {
		return nil, err
	}

	terminal, err := a.terminal(schema)
	if err != nil {
		return nil, err
	}

	registry := render.NewRegistry()
	if err := registry.Register(html); err != nil {
		return nil, err
	}
	if err := registry.Register(terminal); err != nil {
		return nil, err
	}
	return registry, nil
}

func (a *app) terminal(schema *queryform.Schema) (*tui.Renderer, error) {
	options := []tui.Option{
		tui.WithOutputFormat(tui.OutputFormat(a.cfg.Output)),
		tui.WithMaxAttempts(a.cfg.MaxAttempts),
		tui.WithLogger(a.logger),
		tui.WithFormOptions(a.formOptions(schema)...),
	}
	if a.driver != nil {
		options = append(options, tui.WithPromptDriver(a.driver))
	}
	return tui.New(options...)
}

func (a *app) renderOptions(form *queryform.Form, flags *renderFlags) (render.RenderOptions, error) {
	values := form.Values()
	opts := render.RenderOptions{Values: values}

	// Hidden fields keep their values so toggling back restores them.
	var hidden []string
	for _, field := range form.Schema().Model().Fields {
		if !form.Layout().Visible(field.Name) {
			hidden = append(hidden, field.Name)
		}
	}
	fields := render.HiddenValues(values, hidden...)
	if flags.csrfToken != "" {
		fields = append(fields, render.CSRFToken(flags.csrfField, flags.csrfToken))
	}
	if len(fields) > 0 {
		opts.HiddenFields = render.MergeHiddenFields(nil, fields...)
	}

	if flags.validate {
		errs := form.Schema().Validate(form.State())
		opts.Errors = errs.ByField()
		delete(opts.Errors, "")
		opts.FormErrors = render.MergeFormErrors(opts.FormErrors, errs.Messages("")...)
	}
	if flags.errorsFile != "" {
		mapping, err := loadErrorPayload(flags.errorsFile, form.Schema().Model())
		if err != nil {
			return opts, err
		}
		opts.Errors = mergeFieldErrors(opts.Errors, mapping.Fields)
		opts.FormErrors = render.MergeFormErrors(opts.FormErrors, mapping.Form...)
	}

	themeConfig, err := a.themeConfig()
	if err != nil {
		return opts, err
	}
	opts.Theme = themeConfig
	return opts, nil
}

func (a *app) themeConfig() (*theme.RendererConfig, error) {
	selector, err := render.NewManifestSelector("", "", vanilla.DefaultTheme())
	if err != nil {
		return nil, err
	}
	selection, err := selector.Select(a.cfg.Theme.Name, a.cfg.Theme.Variant)
	if err != nil {
		return nil, err
	}
	return render.OverrideTokens(render.ThemeConfig(selection, vanilla.ThemeFallbacks()), a.cfg.Theme.Tokens), nil
}

func loadErrorPayload(path string, form model.FormModel) (render.ErrorMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return render.ErrorMapping{}, fmt.Errorf("read errors: %w", err)
	}
	var payload map[string][]string
	if err := json.Unmarshal(data, &payload); err != nil {
		return render.ErrorMapping{}, fmt.Errorf("decode errors %s: %w", path, err)
	}
	return render.MapErrorPayload(form, payload), nil
}

func mergeFieldErrors(base, extra map[string][]string) map[string][]string {
	if len(extra) == 0 {
		return base
	}
	out := make(map[string][]string, len(base)+len(extra))
	for field, messages := range base {
		out[field] = slices.Clone(messages)
	}
	for field, messages := range extra {
		for _, msg := range messages {
			if !slices.Contains(out[field], msg) {
				out[field] = append(out[field], msg)
			}
		}
	}
	return out
}

func writeOutput(stdout io.Writer, path string, output []byte) error {
	if path == "" {
		_, err := stdout.Write(output)
		return err
	}
	if err := os.WriteFile(path, output, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
