// Package testsupport holds fixtures shared by renderer tests.
package testsupport

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-queryform/internal/testutil"
	"github.com/goliatone/go-queryform/pkg/queryform"
)

// MustNewForm builds a query form that logs through t.
func MustNewForm(t *testing.T, options ...queryform.Option) *queryform.Form {
	t.Helper()
	options = append([]queryform.Option{queryform.WithLogger(testutil.NewTestLogger(t))}, options...)
	form, err := queryform.New(context.Background(), options...)
	if err != nil {
		t.Fatalf("new query form: %v", err)
	}
	return form
}

// MustReadGoldenString reads a golden file.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return string(data)
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set and
// reports whether it did, in which case the test should stop.
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// CaptureTemplateOutput runs render against a buffer and returns both the
// returned string and what was written.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	return out, buf.String()
}
