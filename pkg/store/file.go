package store

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/matzehuels/annoview/pkg/errors"
	"github.com/matzehuels/annoview/pkg/model"
)

var extensions = []string{".json", ".yaml", ".yml"}

// FileStore keeps documents as <root>/<collection>/<document>.{json,yaml,yml}.
type FileStore struct {
	root string
}

// NewFileStore opens root, creating it if needed.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "create store root")
	}
	return &FileStore{root: root}, nil
}

// Root returns the store directory.
func (s *FileStore) Root() string { return s.root }

// Collections implements [Store].
func (s *FileStore) Collections(context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read store root")
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() && errors.ValidateName(e.Name()) == nil {
			out = append(out, e.Name())
		}
	}
	return out, nil
}

// List implements [Store].
func (s *FileStore) List(_ context.Context, collection string) ([]string, error) {
	if err := validate(collection); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(s.root, collection))
	if os.IsNotExist(err) {
		return nil, notFound(collection, "")
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "read collection %s", collection)
	}

	var out []string
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || !slices.Contains(extensions, strings.ToLower(ext)) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ext)
		if errors.ValidateName(name) == nil && !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out, nil
}

// Get implements [Store].
func (s *FileStore) Get(_ context.Context, collection, document string) (*model.Document, error) {
	if err := validate(collection, document); err != nil {
		return nil, err
	}
	path, ok := s.find(collection, document)
	if !ok {
		return nil, notFound(collection, document)
	}
	return model.ReadDocument(path)
}

// Put implements [Store]. Documents are always written as JSON; a YAML
// file of the same name is removed so that Get sees the new content.
func (s *FileStore) Put(_ context.Context, collection, document string, doc *model.Document) error {
	if err := validate(collection, document); err != nil {
		return err
	}
	data, err := model.MarshalDocument(doc)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "encode document")
	}
	dir := filepath.Join(s.root, collection)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create collection %s", collection)
	}

	tmp, err := os.CreateTemp(dir, ".put-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write document")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeInternal, err, "write document")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write document")
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, document+".json")); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write document")
	}
	for _, ext := range extensions[1:] {
		_ = os.Remove(filepath.Join(dir, document+ext))
	}
	return nil
}

// Path returns the file backing a document.
func (s *FileStore) Path(collection, document string) (string, bool) {
	if validate(collection, document) != nil {
		return "", false
	}
	return s.find(collection, document)
}

// Close implements [Store].
func (s *FileStore) Close() error { return nil }

func (s *FileStore) find(collection, document string) (string, bool) {
	for _, ext := range extensions {
		p := filepath.Join(s.root, collection, document+ext)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}

var _ Store = (*FileStore)(nil)
