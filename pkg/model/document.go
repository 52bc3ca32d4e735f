package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/annoview/pkg/errors"
)

// Record is one positional input record such as [id, type, from, to].
type Record []any

// Document is the raw annotation document consumed by [Build].
type Document struct {
	Text          string              `json:"text" yaml:"text"`
	Offset        int                 `json:"offset,omitempty" yaml:"offset,omitempty"`
	Entities      []Record            `json:"entities,omitempty" yaml:"entities,omitempty"`
	Triggers      []Record            `json:"triggers,omitempty" yaml:"triggers,omitempty"`
	Events        []Record            `json:"events,omitempty" yaml:"events,omitempty"`
	Relations     []Record            `json:"relations,omitempty" yaml:"relations,omitempty"`
	Modifications []Record            `json:"modifications,omitempty" yaml:"modifications,omitempty"`
	Equivs        []Record            `json:"equivs,omitempty" yaml:"equivs,omitempty"`
	Comments      []Record            `json:"comments,omitempty" yaml:"comments,omitempty"`
	Labels        map[string][]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Edited        []string            `json:"edited,omitempty" yaml:"edited,omitempty"`
}

// Format identifies a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the encoding from a file extension. Unknown
// extensions are treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ReadDocument loads a document from disk.
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := UnmarshalDocument(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// DecodeDocument reads and decodes a document from r.
func DecodeDocument(r io.Reader, format Format) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return UnmarshalDocument(data, format)
}

// UnmarshalDocument decodes a document in the given format.
func UnmarshalDocument(data []byte, format Format) (*Document, error) {
	var doc Document
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedDocument, err, "decode yaml document")
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMalformedDocument, err, "decode json document")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown document format %q", format)
	}
	return &doc, nil
}

// MarshalDocument encodes a document as JSON. The output is stable for
// identical input and is used as a cache key source.
func MarshalDocument(doc *Document) ([]byte, error) {
	return json.Marshal(doc)
}

// =============================================================================
// Record field access
// =============================================================================

func (r Record) str(i int) (string, bool) {
	if i >= len(r) {
		return "", false
	}
	s, ok := r[i].(string)
	return s, ok
}

func (r Record) integer(i int) (int, bool) {
	if i >= len(r) {
		return 0, false
	}
	return toInt(r[i])
}

func (r Record) list(i int) ([]any, bool) {
	if i >= len(r) {
		return nil, false
	}
	return toList(r[i])
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n != float64(int(n)) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	}
	return 0, false
}

func toList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case Record:
		return l, true
	}
	return nil, false
}
