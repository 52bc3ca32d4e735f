package cache

// ScopedKeyer prefixes every key of an inner [Keyer]. Servers sharing one
// Redis instance use it to keep their namespaces apart:
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "annoview:staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or a DefaultKeyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// DocumentKey implements [Keyer].
func (k *ScopedKeyer) DocumentKey(collection, document string) string {
	return k.prefix + k.inner.DocumentKey(collection, document)
}

// LayoutKey implements [Keyer].
func (k *ScopedKeyer) LayoutKey(docHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(docHash, opts)
}

// ArtifactKey implements [Keyer].
func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}
