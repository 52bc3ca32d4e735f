// Package store persists annotation documents by collection and name.
//
// [FileStore] reads a directory tree and backs the CLI and small servers.
// [MongoStore] keeps documents in MongoDB for shared deployments. Both
// validate names with [errors.ValidateName] before touching storage, and
// both report a missing document as NOT_FOUND.
package store

import (
	"context"

	"github.com/matzehuels/annoview/pkg/errors"
	"github.com/matzehuels/annoview/pkg/model"
)

// Store is a document repository.
type Store interface {
	// Collections lists collection names in sorted order.
	Collections(ctx context.Context) ([]string, error)
	// List returns the document names of a collection in sorted order.
	List(ctx context.Context, collection string) ([]string, error)
	// Get loads one document.
	Get(ctx context.Context, collection, document string) (*model.Document, error)
	// Put creates or replaces a document.
	Put(ctx context.Context, collection, document string, doc *model.Document) error
	// Close releases backend resources.
	Close() error
}

func validate(names ...string) error {
	for _, n := range names {
		if err := errors.ValidateName(n); err != nil {
			return err
		}
	}
	return nil
}

func notFound(collection, document string) error {
	if document == "" {
		return errors.New(errors.ErrCodeNotFound, "collection %s not found", collection)
	}
	return errors.New(errors.ErrCodeNotFound, "document %s/%s not found", collection, document)
}
