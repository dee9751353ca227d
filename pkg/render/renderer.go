package render

import (
	"context"

	"github.com/goliatone/go-queryform/pkg/model"
)

// Renderer converts a FormModel into a byte representation such as HTML.
// The model passed in carries only the fields the current layout exposes.
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, form model.FormModel, options RenderOptions) ([]byte, error)
}
