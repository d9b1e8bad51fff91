// Package load reads and writes collection definitions documents.
package load

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/modernmen/collectiongen/schema"
)

// Format is the encoding of a definitions document.
type Format string

// Supported formats.
const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// Document is a definitions file: the collections to generate plus the
// names of collections declared elsewhere that relations may target.
type Document struct {
	Collections []*schema.Collection `json:"collections" yaml:"collections"`
	// External lists collections owned by the host CMS or another
	// definitions file, such as a built-in Users collection.
	External []string `json:"external,omitempty" yaml:"external,omitempty"`
}

// Collection returns the collection with the given name.
func (d *Document) Collection(name string) (*schema.Collection, bool) {
	for _, c := range d.Collections {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Names returns the collection names in document order.
func (d *Document) Names() []string {
	names := make([]string, len(d.Collections))
	for i, c := range d.Collections {
		names[i] = c.Name
	}
	return names
}

// FormatOf returns the format implied by the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("load: unsupported definitions file extension %q (want .json, .yaml or .yml)", filepath.Ext(path))
	}
}

// LoadFile reads and parses the definitions file at path.
func LoadFile(path string) (*Document, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	doc, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("load: %s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes a definitions document. Unknown keys are rejected so that
// a misspelled attribute fails loudly instead of being dropped.
func Parse(data []byte, format Format) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("empty document")
	}
	doc := &Document{}
	switch format {
	case JSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(doc); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		if _, err := dec.Token(); !errors.Is(err, io.EOF) {
			return nil, errors.New("decode json: trailing data after document")
		}
	case YAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(doc); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
	for i, c := range doc.Collections {
		if c == nil {
			return nil, fmt.Errorf("collections[%d]: empty collection", i)
		}
		for j, f := range c.Fields {
			if f == nil {
				return nil, fmt.Errorf("collections[%d].fields[%d]: empty field", i, j)
			}
		}
	}
	return doc, nil
}

// Marshal encodes doc in the given format. The output is canonical: the
// same document always encodes to the same bytes.
func Marshal(doc *Document, format Format) ([]byte, error) {
	switch format {
	case JSON:
		b, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(b, '\n'), nil
	case YAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("load: unsupported format %q", format)
	}
}
