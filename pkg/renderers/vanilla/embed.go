package vanilla

import (
	"embed"
	"io/fs"

	theme "github.com/goliatone/go-theme"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

//go:embed assets/*
var embeddedAssets embed.FS

const (
	// StylesheetName is the embedded stylesheet inlined by WithDefaultStyles.
	StylesheetName = "queryform.css"
	// FormPartial is the theme partial key naming the form template.
	FormPartial = "forms.query"

	defaultFormTemplate = "templates/form.tmpl"
)

// TemplatesFS exposes the embedded template bundle.
func TemplatesFS() fs.FS {
	return embeddedTemplates
}

// AssetsFS exposes the embedded stylesheet so callers can serve or copy it.
func AssetsFS() fs.FS {
	sub, err := fs.Sub(embeddedAssets, "assets")
	if err != nil {
		return embeddedAssets
	}
	return sub
}

// ThemeFallbacks are the partials used when a theme does not override them.
func ThemeFallbacks() map[string]string {
	return map[string]string{FormPartial: defaultFormTemplate}
}

// DefaultTheme is the built-in theme manifest with light and dark variants.
func DefaultTheme() *theme.Manifest {
	return &theme.Manifest{
		Name:    "queryform",
		Version: "1.0.0",
		Tokens: map[string]string{
			"qf-accent":  "#b5532b",
			"qf-surface": "#fffdf8",
			"qf-text":    "#2b2118",
			"qf-error":   "#b00020",
		},
		Variants: map[string]theme.Variant{
			"light": {
				Tokens: map[string]string{
					"qf-surface": "#fffdf8",
				},
			},
			"dark": {
				Tokens: map[string]string{
					"qf-accent":  "#f0a35e",
					"qf-surface": "#1d1a17",
					"qf-text":    "#f3ece4",
					"qf-error":   "#ff7a85",
				},
			},
		},
	}
}

func defaultStylesheet() string {
	data, err := fs.ReadFile(embeddedAssets, "assets/"+StylesheetName)
	if err != nil {
		return ""
	}
	return string(data)
}
