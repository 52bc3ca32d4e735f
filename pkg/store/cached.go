package store

import (
	"context"
	"time"

	"github.com/matzehuels/annoview/pkg/cache"
	"github.com/matzehuels/annoview/pkg/model"
	"github.com/matzehuels/annoview/pkg/observability"
)

// Cached serves Get from a cache in front of a slower store. Put writes
// through and drops the cached copy. Listings are never cached.
type Cached struct {
	Store
	cache cache.Cache
	keyer cache.Keyer
	ttl   time.Duration
}

// NewCached wraps inner. A nil keyer selects the default keyer and a
// non-positive ttl selects [cache.DocumentTTL].
func NewCached(inner Store, c cache.Cache, keyer cache.Keyer, ttl time.Duration) *Cached {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if ttl <= 0 {
		ttl = cache.DocumentTTL
	}
	return &Cached{Store: inner, cache: c, keyer: keyer, ttl: ttl}
}

func (s *Cached) Get(ctx context.Context, collection, document string) (*model.Document, error) {
	if err := validate(collection, document); err != nil {
		return nil, err
	}
	key := s.keyer.DocumentKey(collection, document)
	if data, hit, err := s.cache.Get(ctx, key); err == nil && hit {
		if doc, err := model.UnmarshalDocument(data, model.FormatJSON); err == nil {
			observability.Cache().OnCacheHit(ctx, "document")
			return doc, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "document")

	doc, err := s.Store.Get(ctx, collection, document)
	if err != nil {
		return nil, err
	}
	if data, err := model.MarshalDocument(doc); err == nil {
		if s.cache.Set(ctx, key, data, s.ttl) == nil {
			observability.Cache().OnCacheSet(ctx, "document", len(data))
		}
	}
	return doc, nil
}

func (s *Cached) Put(ctx context.Context, collection, document string, doc *model.Document) error {
	if err := s.Store.Put(ctx, collection, document, doc); err != nil {
		return err
	}
	return s.cache.Delete(ctx, s.keyer.DocumentKey(collection, document))
}

// Close closes the inner store. The cache is owned by the caller.
func (s *Cached) Close() error { return s.Store.Close() }

var _ Store = (*Cached)(nil)
