// Package fixture loads YAML graph fixtures into a hypergraph.
//
// Fixtures are a development aid for seeding graphs from the command line and
// in tests. They are not a persistence format: nothing is written back.
//
// Example fixture:
//
//	indexes:
//	  - name: person_name
//	    label: Person
//	    properties: [name]
//	constraints:
//	  - name: person_name_unique
//	    type: unique
//	    label: Person
//	    properties: [name]
//	vertices:
//	  - key: alice
//	    label: Person
//	    properties: {name: Alice}
//	  - key: bob
//	    id: "2"
//	    label: Person
//	    properties: {name: Bob}
//	edges:
//	  - label: knows
//	    tail: alice
//	    head: bob
//	    properties: {since: 2020}
//	hyperedges:
//	  - label: team
//	    vertices: [alice, bob]
//	multiedges:
//	  - label: social
//	    hosts: [alice]
//	    edge_labels: [knows]
//
// Vertex references (tail, head, vertices, hosts) name a vertex key from any
// loaded document, or the identifier of a vertex already in the graph.
package fixture

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is one decoded fixture file.
type Document struct {
	// Source names where the document came from, for error messages.
	Source string `yaml:"-"`

	Indexes     []IndexDef      `yaml:"indexes"`
	Constraints []ConstraintDef `yaml:"constraints"`
	Vertices    []VertexDef     `yaml:"vertices"`
	Edges       []EdgeDef       `yaml:"edges"`
	HyperEdges  []HyperEdgeDef  `yaml:"hyperedges"`
	MultiEdges  []MultiEdgeDef  `yaml:"multiedges"`
}

// VertexDef declares a vertex. Key is a fixture-local name used by
// references; ID is an optional explicit identifier.
type VertexDef struct {
	Key        string         `yaml:"key"`
	ID         string         `yaml:"id"`
	Label      string         `yaml:"label"`
	Properties map[string]any `yaml:"properties"`
}

// EdgeDef declares a directed edge between two vertex references.
type EdgeDef struct {
	ID         string         `yaml:"id"`
	Label      string         `yaml:"label"`
	Tail       string         `yaml:"tail"`
	Head       string         `yaml:"head"`
	Properties map[string]any `yaml:"properties"`
}

// HyperEdgeDef declares a hyperedge; the first reference is its tail.
type HyperEdgeDef struct {
	ID         string         `yaml:"id"`
	Label      string         `yaml:"label"`
	Vertices   []string       `yaml:"vertices"`
	Properties map[string]any `yaml:"properties"`
}

// MultiEdgeDef declares a multiedge hosted by one or more vertices. Its
// selector matches edges whose label is in EdgeLabels (any label when empty)
// and whose properties equal every entry of Where.
type MultiEdgeDef struct {
	ID         string         `yaml:"id"`
	Label      string         `yaml:"label"`
	Hosts      []string       `yaml:"hosts"`
	EdgeLabels []string       `yaml:"edge_labels"`
	Where      map[string]any `yaml:"where"`
	Properties map[string]any `yaml:"properties"`
}

// IndexDef declares a property index over vertices with Label. More than
// one property builds a composite index.
type IndexDef struct {
	Name       string   `yaml:"name"`
	Label      string   `yaml:"label"`
	Properties []string `yaml:"properties"`
}

// ConstraintDef declares a unique or exists constraint.
type ConstraintDef struct {
	Name       string   `yaml:"name"`
	Type       string   `yaml:"type"`
	Label      string   `yaml:"label"`
	Properties []string `yaml:"properties"`
}

// Parse decodes one fixture document. Unknown keys are rejected and an empty
// input yields an empty document.
func Parse(r io.Reader) (*Document, error) {
	doc := &Document{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return doc, nil
}

// ParseFile reads and decodes the fixture at path.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	doc, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

func (d *Document) name() string {
	if d.Source == "" {
		return "<inline>"
	}
	return d.Source
}
