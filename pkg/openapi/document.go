package openapi

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// Operation captures the pieces of an OpenAPI operation the form builder
// needs: identity, routing and the request body schema.
type Operation struct {
	ID            string
	Method        string
	Path          string
	Summary       string
	Description   string
	RequestSchema *openapi3.Schema
}

// Document wraps a parsed OpenAPI specification.
type Document struct {
	spec *openapi3.T
}

// LoadData parses an OpenAPI document (JSON or YAML) and resolves its internal
// references.
func LoadData(ctx context.Context, data []byte) (*Document, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	return &Document{spec: spec}, nil
}

// LoadFS reads name from fsys and parses it.
func LoadFS(ctx context.Context, fsys fs.FS, name string) (*Document, error) {
	if fsys == nil {
		return nil, errors.New("openapi: file system is nil")
	}
	data, err := fs.ReadFile(fsys, strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("openapi: read %s: %w", name, err)
	}
	return LoadData(ctx, data)
}

// LoadFile reads a document from disk.
func LoadFile(ctx context.Context, path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("openapi: read %s: %w", path, err)
	}
	return LoadData(ctx, data)
}

// Spec exposes the underlying kin-openapi document.
func (d *Document) Spec() *openapi3.T {
	if d == nil {
		return nil
	}
	return d.spec
}

// Component returns the named schema from components.schemas.
func (d *Document) Component(name string) (*openapi3.Schema, error) {
	if d == nil || d.spec == nil || d.spec.Components == nil {
		return nil, fmt.Errorf("openapi: component %q not found", name)
	}
	ref, ok := d.spec.Components.Schemas[name]
	if !ok || ref == nil || ref.Value == nil {
		return nil, fmt.Errorf("openapi: component %q not found", name)
	}
	return ref.Value, nil
}

// Operations lists operation ids in sorted order.
func (d *Document) Operations() []string {
	ops := d.collect()
	ids := make([]string, 0, len(ops))
	for id := range ops {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Operation resolves an operation by id.
func (d *Document) Operation(id string) (Operation, error) {
	op, ok := d.collect()[id]
	if !ok {
		return Operation{}, fmt.Errorf("openapi: operation %q not found", id)
	}
	return op, nil
}

func (d *Document) collect() map[string]Operation {
	out := make(map[string]Operation)
	if d == nil || d.spec == nil || d.spec.Paths == nil {
		return out
	}
	for path, item := range d.spec.Paths.Map() {
		if item == nil {
			continue
		}
		for method, operation := range item.Operations() {
			if operation == nil {
				continue
			}
			id := operation.OperationID
			if id == "" {
				id = strings.ToLower(method) + ":" + path
			}
			out[id] = Operation{
				ID:            id,
				Method:        strings.ToUpper(method),
				Path:          path,
				Summary:       operation.Summary,
				Description:   operation.Description,
				RequestSchema: requestSchema(operation.RequestBody),
			}
		}
	}
	return out
}

func requestSchema(body *openapi3.RequestBodyRef) *openapi3.Schema {
	if body == nil || body.Value == nil {
		return nil
	}
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded"} {
		if mt, ok := body.Value.Content[mediaType]; ok && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	return nil
}
