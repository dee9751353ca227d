package render_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-queryform/pkg/render"
)

func testManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    "acme",
		Version: "1.0.0",
		Tokens: map[string]string{
			"brand":   "#123456",
			"surface": "#ffffff",
		},
		Templates: map[string]string{
			"forms.input": "themes/acme/input.tmpl",
		},
		Assets: theme.Assets{
			Prefix: "/assets/themes/acme",
			Files: map[string]string{
				"stylesheet": "theme.css",
				"logo":       "https://cdn.example.com/logo.svg",
			},
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens: map[string]string{
					"surface": "#111111",
				},
				Templates: map[string]string{
					"forms.toggle": "themes/acme/dark/toggle.tmpl",
				},
				Assets: theme.Assets{
					Files: map[string]string{
						"stylesheet": "theme.dark.css",
					},
				},
			},
		},
	}
}

func TestManifestSelector_Select(t *testing.T) {
	selector, err := render.NewManifestSelector("", "dark", testManifest())
	if err != nil {
		t.Fatalf("selector: %v", err)
	}

	selection, err := selector.Select("", "")
	if err != nil {
		t.Fatalf("select defaults: %v", err)
	}
	if selection.Theme != "acme" || selection.Variant != "dark" {
		t.Fatalf("unexpected default selection %s/%s", selection.Theme, selection.Variant)
	}

	if _, err := selector.Select("missing", ""); err == nil {
		t.Fatalf("expected unknown theme error")
	}
	if _, err := selector.Select("acme", "sepia"); err == nil {
		t.Fatalf("expected unknown variant error")
	}
	if diff := cmp.Diff([]string{"acme"}, selector.Themes()); diff != "" {
		t.Fatalf("themes mismatch (-want +got):\n%s", diff)
	}
}

func TestNewManifestSelector_Errors(t *testing.T) {
	if _, err := render.NewManifestSelector("", ""); err == nil {
		t.Fatalf("expected error without manifests")
	}
	if _, err := render.NewManifestSelector("other", "", testManifest()); err == nil {
		t.Fatalf("expected error for unknown default theme")
	}
}

func TestThemeConfig_MergesVariant(t *testing.T) {
	selection := &theme.Selection{Theme: "acme", Variant: "dark", Manifest: testManifest()}
	cfg := render.ThemeConfig(selection, map[string]string{
		"forms.input":  "fallback/input.tmpl",
		"forms.select": "fallback/select.tmpl",
	})

	if cfg.Theme != "acme" || cfg.Variant != "dark" {
		t.Fatalf("unexpected identity %s/%s", cfg.Theme, cfg.Variant)
	}
	wantPartials := map[string]string{
		"forms.input":  "themes/acme/input.tmpl",
		"forms.select": "fallback/select.tmpl",
		"forms.toggle": "themes/acme/dark/toggle.tmpl",
	}
	if diff := cmp.Diff(wantPartials, cfg.Partials); diff != "" {
		t.Fatalf("partials mismatch (-want +got):\n%s", diff)
	}
	wantVars := map[string]string{
		"--brand":   "#123456",
		"--surface": "#111111",
	}
	if diff := cmp.Diff(wantVars, cfg.CSSVars); diff != "" {
		t.Fatalf("css vars mismatch (-want +got):\n%s", diff)
	}
	if got := cfg.AssetURL("stylesheet"); got != "/assets/themes/acme/theme.dark.css" {
		t.Fatalf("unexpected stylesheet url %q", got)
	}
	if got := cfg.AssetURL("logo"); got != "https://cdn.example.com/logo.svg" {
		t.Fatalf("absolute urls should pass through, got %q", got)
	}
	if got := cfg.AssetURL("missing"); got != "" {
		t.Fatalf("unknown asset should resolve empty, got %q", got)
	}
}

func TestThemeConfig_BaseOnly(t *testing.T) {
	cfg := render.ThemeConfig(&theme.Selection{Theme: "acme", Manifest: testManifest()}, nil)
	if cfg.CSSVars["--surface"] != "#ffffff" {
		t.Fatalf("expected base token, got %q", cfg.CSSVars["--surface"])
	}
	if got := cfg.AssetURL("stylesheet"); got != "/assets/themes/acme/theme.css" {
		t.Fatalf("unexpected stylesheet url %q", got)
	}
	if render.ThemeConfig(nil, nil) != nil {
		t.Fatalf("nil selection should yield nil config")
	}
}

func TestOverrideTokens(t *testing.T) {
	base := render.ThemeConfig(&theme.Selection{Theme: "acme", Manifest: testManifest()}, nil)
	cfg := render.OverrideTokens(base, map[string]string{"brand": "#000000", "accent": "red"})

	want := map[string]string{
		"--brand":   "#000000",
		"--surface": "#ffffff",
		"--accent":  "red",
	}
	if diff := cmp.Diff(want, cfg.CSSVars); diff != "" {
		t.Fatalf("css vars mismatch (-want +got):\n%s", diff)
	}
	if base.Tokens["brand"] != "#123456" {
		t.Fatalf("override mutated the base config")
	}
	if render.OverrideTokens(base, nil) != base {
		t.Fatalf("empty overrides should return the input")
	}
}
