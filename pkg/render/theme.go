package render

import (
	"fmt"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// ManifestSelector resolves theme and variant names against a fixed set of
// manifests. It satisfies theme.ThemeSelector.
type ManifestSelector struct {
	manifests      map[string]*theme.Manifest
	defaultTheme   string
	defaultVariant string
}

var _ theme.ThemeSelector = (*ManifestSelector)(nil)

// NewManifestSelector validates the manifests through a go-theme registry and
// returns a selector defaulting to defaultTheme/defaultVariant. An empty
// defaultTheme picks the first manifest.
func NewManifestSelector(defaultTheme, defaultVariant string, manifests ...*theme.Manifest) (*ManifestSelector, error) {
	registry := theme.NewRegistry()
	selector := &ManifestSelector{
		manifests:      make(map[string]*theme.Manifest, len(manifests)),
		defaultTheme:   strings.TrimSpace(defaultTheme),
		defaultVariant: strings.TrimSpace(defaultVariant),
	}
	for _, manifest := range manifests {
		if manifest == nil {
			continue
		}
		if err := registry.Register(manifest); err != nil {
			return nil, fmt.Errorf("render: register theme %q: %w", manifest.Name, err)
		}
		selector.manifests[manifest.Name] = manifest
		if selector.defaultTheme == "" {
			selector.defaultTheme = manifest.Name
		}
	}
	if len(selector.manifests) == 0 {
		return nil, fmt.Errorf("render: at least one theme manifest is required")
	}
	if _, ok := selector.manifests[selector.defaultTheme]; !ok {
		return nil, fmt.Errorf("render: default theme %q not registered", selector.defaultTheme)
	}
	return selector, nil
}

// Select returns the named theme and variant. Blank names use the defaults;
// the default variant only applies when the manifest defines it.
func (s *ManifestSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	name = strings.TrimSpace(name)
	variant = strings.TrimSpace(variant)
	if name == "" {
		name = s.defaultTheme
	}
	manifest, ok := s.manifests[name]
	if !ok {
		return nil, fmt.Errorf("render: theme %q not found", name)
	}
	if variant == "" && name == s.defaultTheme {
		if _, ok := manifest.Variants[s.defaultVariant]; ok {
			variant = s.defaultVariant
		}
	}
	if variant != "" {
		if _, ok := manifest.Variants[variant]; !ok {
			return nil, fmt.Errorf("render: theme %q has no variant %q", name, variant)
		}
	}
	return &theme.Selection{
		Theme:    name,
		Variant:  variant,
		Manifest: manifest,
	}, nil
}

// Themes lists the registered theme names.
func (s *ManifestSelector) Themes() []string {
	names := make([]string, 0, len(s.manifests))
	for name := range s.manifests {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ThemeConfig flattens a selection into the renderer configuration. Variant
// tokens, templates and assets override the manifest's; fallbacks fill
// partials neither defines. Every token is also exposed as a `--name` CSS
// custom property.
func ThemeConfig(selection *theme.Selection, fallbacks map[string]string) *theme.RendererConfig {
	if selection == nil || selection.Manifest == nil {
		return nil
	}
	manifest := selection.Manifest
	variant, hasVariant := manifest.Variants[selection.Variant]

	partials := mergeStrings(fallbacks, manifest.Templates)
	tokens := mergeStrings(nil, manifest.Tokens)
	prefix := manifest.Assets.Prefix
	files := mergeStrings(nil, manifest.Assets.Files)
	if hasVariant {
		partials = mergeStrings(partials, variant.Templates)
		tokens = mergeStrings(tokens, variant.Tokens)
		files = mergeStrings(files, variant.Assets.Files)
		if variant.Assets.Prefix != "" {
			prefix = variant.Assets.Prefix
		}
	}

	var cssVars map[string]string
	if len(tokens) > 0 {
		cssVars = make(map[string]string, len(tokens))
		for key, value := range tokens {
			cssVars["--"+strings.TrimPrefix(key, "--")] = value
		}
	}

	return &theme.RendererConfig{
		Theme:    selection.Theme,
		Variant:  selection.Variant,
		Partials: partials,
		Tokens:   tokens,
		CSSVars:  cssVars,
		AssetURL: assetResolver(prefix, files),
	}
}

func assetResolver(prefix string, files map[string]string) func(string) string {
	return func(key string) string {
		file, ok := files[key]
		if !ok || file == "" {
			return ""
		}
		if strings.Contains(file, "://") || strings.HasPrefix(file, "/") || prefix == "" {
			return file
		}
		return strings.TrimRight(prefix, "/") + "/" + file
	}
}

func mergeStrings(base, overrides map[string]string) map[string]string {
	if len(base) == 0 && len(overrides) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(overrides))
	for key, value := range base {
		out[key] = value
	}
	for key, value := range overrides {
		if value != "" {
			out[key] = value
		}
	}
	return out
}

// OverrideTokens returns a copy of cfg with tokens applied on top. The CSS
// custom properties follow the merged tokens.
func OverrideTokens(cfg *theme.RendererConfig, tokens map[string]string) *theme.RendererConfig {
	if cfg == nil || len(tokens) == 0 {
		return cfg
	}
	out := *cfg
	out.Tokens = mergeStrings(cfg.Tokens, tokens)
	out.CSSVars = mergeStrings(nil, cfg.CSSVars)
	if out.CSSVars == nil {
		out.CSSVars = make(map[string]string, len(tokens))
	}
	for key, value := range tokens {
		if value != "" {
			out.CSSVars["--"+strings.TrimPrefix(key, "--")] = value
		}
	}
	return &out
}
