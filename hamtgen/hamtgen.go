// SPDX-FileCopyrightText: 2024 - 2025 Mass Labs
//
// SPDX-License-Identifier: MIT

// Package hamtgen is the idiomatic Go stand-in for a const-evaluated
// HAMT build: it parses a literal key/value table, runs the ordinary
// runtime construction path over it once, ahead of time, and renders
// the resulting storage vectors as Go source. The generated file's
// constructor calls the exact same FromParts/Get the runtime package
// uses, so a table built this way is indistinguishable at query time
// from one built by hamt.Build.
package hamtgen

import (
	"bytes"
	"fmt"
	"io"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/travisstaloch/hamt"
	"github.com/travisstaloch/hamt/ill"
)

// Table is the literal key/value input, loaded from YAML. Keys and
// values are both strings: the common "keyword map" case the spec's
// "literal key/value table" describes. Callers needing other value
// types can still hand-write a FromParts call using this package's
// rendering as a template.
type Table struct {
	Entries []TableEntry `yaml:"entries"`
}

// TableEntry is one row of a Table.
type TableEntry struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

// ParseTable decodes a YAML document into a Table.
func ParseTable(data []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("hamtgen: parsing table: %w", err)
	}
	return t, nil
}

// Config controls the rendered output.
type Config struct {
	// Package is the generated file's package clause.
	Package string
	// FuncName is the exported constructor function name, e.g.
	// "NewColorNames". The vectors backing it are unexported and named
	// after it.
	FuncName string
	// MaxCollisions overrides hamt.DefaultMaxCollisions for the build
	// pass that resolves the table. Zero means use the default.
	MaxCollisions uint8
}

// Generate builds a *hamt.Map[string, string] from t using the ordinary
// runtime Build path, then renders it as a standalone Go source file
// per cfg. Construction failures (too many collisions, an internal
// leaf-on-path error) are returned with the offending key named, the
// Go analogue of elevating them to compile errors.
func Generate(w io.Writer, t Table, cfg Config) error {
	opts := hamt.DefaultOptions[string]()
	if cfg.MaxCollisions != 0 {
		opts.MaxCollisions = cfg.MaxCollisions
	}

	// StringContext, not AutoContext: AutoContext hashes through a
	// per-process hash/maphash seed, so a Map built with it in this
	// process could never be correctly re-queried in another. The
	// vectors rendered below are only valid if the generated
	// constructor hashes keys exactly the way this build pass did.
	ctx := hamt.StringContext{}
	m := hamt.New[string, string](ctx, opts)
	for i, e := range t.Entries {
		if err := m.Put(e.Key, e.Value); err != nil {
			return fmt.Errorf("hamtgen: entry %d (key %q): %w", i, e.Key, err)
		}
	}

	data := renderData{
		Package:  cfg.Package,
		FuncName: cfg.FuncName,
		Branches: m.Branches(),
		Nodes:    m.Nodes(),
		Leaves:   m.Leaves(),
		ILLNodes: m.ChildrenNodes(),
	}

	var buf bytes.Buffer
	if err := genTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("hamtgen: rendering template: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

type renderData struct {
	Package  string
	FuncName string
	Branches []hamt.Branch
	Nodes    []uint32
	Leaves   []hamt.Leaf[string, string]
	ILLNodes []ill.Node
}

var genTemplate = template.Must(template.New("hamtgen").Funcs(template.FuncMap{
	"hexID": func(id uint32) string { return fmt.Sprintf("0x%08X", id) },
}).Parse(`// Code generated by hamtgen. DO NOT EDIT.

package {{.Package}}

import (
	"github.com/travisstaloch/hamt"
	"github.com/travisstaloch/hamt/ill"
)

var {{.FuncName}}Branches = []hamt.Branch{
{{- range .Branches}}
	{Bits: {{hexID .Bits}}, First: {{hexID .First}}},
{{- end}}
}

var {{.FuncName}}Nodes = []uint32{
{{- range .Nodes}}
	{{hexID .}},
{{- end}}
}

var {{.FuncName}}Leaves = []hamt.Leaf[string, string]{
{{- range .Leaves}}
	{Key: {{printf "%q" .Key}}, Value: {{printf "%q" .Value}}},
{{- end}}
}

var {{.FuncName}}ILLNodes = []ill.Node{
{{- range .ILLNodes}}
	{Value: {{hexID .Value}}, Next: {{hexID .Next}}},
{{- end}}
}

// {{.FuncName}} reconstructs the table hamtgen resolved at build time.
// It answers Get/GetIndex identically to a hamt.Build over the same
// entries; the only difference is that no insertion work happens at
// program startup.
func {{.FuncName}}() *hamt.Map[string, string] {
	return hamt.FromParts[string, string](
		hamt.StringContext{},
		hamt.DefaultOptions[string](),
		{{.FuncName}}Branches,
		{{.FuncName}}Nodes,
		{{.FuncName}}Leaves,
		{{.FuncName}}ILLNodes,
	)
}
`))
