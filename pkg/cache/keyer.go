package cache

// Keyer builds cache keys. Implementations must map every distinct input
// to a distinct key.
type Keyer interface {
	// DocumentKey addresses a fetched document.
	DocumentKey(collection, document string) string
	// LayoutKey addresses a layout computed from a document hash.
	LayoutKey(docHash string, opts LayoutKeyOpts) string
	// ArtifactKey addresses rendered output of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts are the layout inputs besides the document.
type LayoutKeyOpts struct {
	Width float64 `json:"width"`
	// Params is a hash of the full visual parameter set.
	Params string `json:"params"`
	// Measurer names the text measurer; different fonts give different
	// geometry.
	Measurer string `json:"measurer"`
}

// ArtifactKeyOpts are the render inputs besides the layout.
type ArtifactKeyOpts struct {
	Format  string  `json:"format"`
	VizType string  `json:"viz_type"`
	Scale   float64 `json:"scale,omitempty"`
}

// DefaultKeyer is the stock [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// DocumentKey implements [Keyer].
func (DefaultKeyer) DocumentKey(collection, document string) string {
	return "doc:" + collection + "/" + document
}

// LayoutKey implements [Keyer].
func (DefaultKeyer) LayoutKey(docHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", docHash, opts)
}

// ArtifactKey implements [Keyer].
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
