// Package columns maps localized spreadsheet headers onto canonical field
// names using data-driven variant tables.
package columns

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed variants.yaml
var defaultVariants []byte

// Field is a canonical field and the header labels known to denote it, in
// priority order.
type Field struct {
	Name     string   `yaml:"name"`
	Variants []string `yaml:"variants"`
}

// FieldTable describes one provider export.
type FieldTable struct {
	Required []string `yaml:"required"`
	Fields   []Field  `yaml:"fields"`

	normalized [][]string
}

// Tables is the versioned set of provider tables.
type Tables struct {
	Version   int                    `yaml:"version"`
	Providers map[string]*FieldTable `yaml:"providers"`
}

// DefaultTables returns the tables compiled into the binary.
func DefaultTables() *Tables {
	t, err := parseTables(defaultVariants)
	if err != nil {
		panic(fmt.Sprintf("columns: embedded variants: %v", err))
	}
	return t
}

// LoadTables reads tables from path. An empty path yields the defaults.
func LoadTables(path string) (*Tables, error) {
	if path == "" {
		return DefaultTables(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read variants %s: %w", path, err)
	}
	t, err := parseTables(data)
	if err != nil {
		return nil, fmt.Errorf("variants %s: %w", path, err)
	}
	return t, nil
}

func parseTables(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if len(t.Providers) == 0 {
		return nil, fmt.Errorf("no providers defined")
	}
	for name, ft := range t.Providers {
		if ft == nil || len(ft.Fields) == 0 {
			return nil, fmt.Errorf("provider %s: no fields", name)
		}
		known := make(map[string]bool, len(ft.Fields))
		for _, f := range ft.Fields {
			known[f.Name] = true
		}
		for _, r := range ft.Required {
			if !known[r] {
				return nil, fmt.Errorf("provider %s: required field %q has no variants", name, r)
			}
		}
		ft.prepare()
	}
	return &t, nil
}

// For returns the table for provider.
func (t *Tables) For(provider string) (*FieldTable, bool) {
	ft, ok := t.Providers[provider]
	return ft, ok
}

func (ft *FieldTable) prepare() {
	ft.normalized = normalizeVariants(ft.Fields)
}

// variants returns the normalized variants, computing them for tables that
// were built in code rather than loaded.
func (ft *FieldTable) variants() [][]string {
	if ft.normalized != nil {
		return ft.normalized
	}
	return normalizeVariants(ft.Fields)
}

func normalizeVariants(fields []Field) [][]string {
	out := make([][]string, len(fields))
	for i, f := range fields {
		vs := make([]string, 0, len(f.Variants))
		for _, v := range f.Variants {
			if n := Normalize(v); n != "" {
				vs = append(vs, n)
			}
		}
		out[i] = vs
	}
	return out
}
