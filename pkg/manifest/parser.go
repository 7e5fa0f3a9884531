// Package manifest parses YAML entity manifests for adminctl create/update.
//
// A manifest holds one or more documents separated by ---. Each document is
// a flat mapping with a kind plus the entity's fields:
//
//	kind: articles
//	title: Using testing-playground with React Testing Library
//	url: https://dev.to/katieraby/using-testing-playground
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// KindField is the document key naming the entity kind.
const KindField = "kind"

// Document is one entity from a manifest. Values holds every field except
// kind, as the strings a user would type into a form.
type Document struct {
	Kind   string
	Values map[string]string
	// Line is where the document starts in the source.
	Line int
}

// ParseFile reads a YAML file at the given path and parses its documents.
func ParseFile(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest file %s: %w", path, err)
	}
	return ParseBytes(data)
}

// ParseBytes parses raw YAML bytes. Multi-document YAML (separated by ---)
// is supported.
func ParseBytes(data []byte) ([]Document, error) {
	return parseDocuments(data)
}

func parseDocuments(data []byte) ([]Document, error) {
	var docs []Document

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var node yaml.Node
		if err := decoder.Decode(&node); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("decoding yaml document: %w", err)
		}

		// Skip empty documents.
		if node.Kind == 0 || len(node.Content) == 0 {
			continue
		}
		root := node.Content[0]
		if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
			continue
		}

		doc, err := decodeDocument(root)
		if err != nil {
			return nil, fmt.Errorf("document at line %d: %w", root.Line, err)
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

func decodeDocument(root *yaml.Node) (Document, error) {
	if root.Kind != yaml.MappingNode {
		return Document{}, fmt.Errorf("expected a mapping, got %s", nodeKind(root))
	}

	doc := Document{Values: make(map[string]string), Line: root.Line}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return Document{}, fmt.Errorf("field %q: expected a scalar, got %s", key.Value, nodeKind(val))
		}
		if _, dup := doc.Values[key.Value]; dup || (key.Value == KindField && doc.Kind != "") {
			return Document{}, fmt.Errorf("field %q: duplicated", key.Value)
		}

		value := val.Value
		if val.Tag == "!!null" {
			value = ""
		}
		if key.Value == KindField {
			doc.Kind = value
			continue
		}
		doc.Values[key.Value] = value
	}

	if doc.Kind == "" {
		return Document{}, fmt.Errorf("validation failed: %s must not be empty", KindField)
	}
	return doc, nil
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.SequenceNode:
		return "a sequence"
	case yaml.MappingNode:
		return "a mapping"
	case yaml.AliasNode:
		return "an alias"
	default:
		return "a scalar"
	}
}
