package pipeline

import (
	"fmt"
	"os"

	"github.com/matzehuels/annoview/pkg/cache"
	"github.com/matzehuels/annoview/pkg/model"
)

// ParseFile reads a document from disk. The format follows the extension.
func ParseFile(path string) (*model.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return Parse(data, model.FormatFromPath(path))
}

// Parse decodes a document.
func Parse(data []byte, format model.Format) (*model.Document, error) {
	doc, err := model.UnmarshalDocument(data, format)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// DocumentHash hashes the canonical JSON form of doc, so that the same
// content read from JSON or YAML shares cache entries.
func DocumentHash(doc *model.Document) (string, error) {
	data, err := model.MarshalDocument(doc)
	if err != nil {
		return "", err
	}
	return cache.Hash(data), nil
}
