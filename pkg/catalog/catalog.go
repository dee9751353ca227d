// Package catalog describes the named text collections a query can be scoped
// to. Catalogs are ordered; the order drives how selectors list the texts.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Text is a single searchable text collection.
type Text struct {
	ID    string `yaml:"id" json:"id"`
	Label string `yaml:"label,omitempty" json:"label,omitempty"`
}

// Catalog is an ordered, duplicate-free list of texts.
type Catalog struct {
	texts []Text
	index map[string]int
}

type document struct {
	Texts []Text `yaml:"texts"`
}

// Default returns the built-in three-text catalog.
func Default() *Catalog {
	c, _ := New(
		Text{ID: "Text1", Label: "Text 1"},
		Text{ID: "Text2", Label: "Text 2"},
		Text{ID: "Text3", Label: "Text 3"},
	)
	return c
}

// New builds a catalog, rejecting empty or duplicate identifiers.
func New(texts ...Text) (*Catalog, error) {
	c := &Catalog{index: make(map[string]int, len(texts))}
	for i, text := range texts {
		id := strings.TrimSpace(text.ID)
		if id == "" {
			return nil, fmt.Errorf("catalog: text %d has an empty id", i)
		}
		if _, exists := c.index[id]; exists {
			return nil, fmt.Errorf("catalog: duplicate text id %q", id)
		}
		label := strings.TrimSpace(text.Label)
		if label == "" {
			label = id
		}
		c.index[id] = len(c.texts)
		c.texts = append(c.texts, Text{ID: id, Label: label})
	}
	return c, nil
}

// Parse decodes a YAML catalog of the form:
//
//	texts:
//	  - id: rigveda
//	    label: Rig Veda
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: decode yaml: %w", err)
	}
	if len(doc.Texts) == 0 {
		return nil, errors.New("catalog: no texts defined")
	}
	return New(doc.Texts...)
}

// LoadFile reads and parses a YAML catalog from disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(data)
}

// Texts returns a copy of the catalog entries in order.
func (c *Catalog) Texts() []Text {
	if c == nil {
		return nil
	}
	return append([]Text(nil), c.texts...)
}

// IDs returns the identifiers in catalog order.
func (c *Catalog) IDs() []string {
	if c == nil {
		return nil
	}
	ids := make([]string, len(c.texts))
	for i, text := range c.texts {
		ids[i] = text.ID
	}
	return ids
}

// Contains reports whether id belongs to the catalog.
func (c *Catalog) Contains(id string) bool {
	if c == nil {
		return false
	}
	_, ok := c.index[id]
	return ok
}

// Label returns the display label for id, or id itself when unknown.
func (c *Catalog) Label(id string) string {
	if c == nil {
		return id
	}
	if idx, ok := c.index[id]; ok {
		return c.texts[idx].Label
	}
	return id
}

// Len reports the number of texts.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.texts)
}
