package pipeline

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/annoview/pkg/errors"
	"github.com/matzehuels/annoview/pkg/fonts"
	"github.com/matzehuels/annoview/pkg/layout"
	"github.com/matzehuels/annoview/pkg/model"
	"github.com/matzehuels/annoview/pkg/observability"
)

// Source fetches documents by collection and name.
type Source interface {
	Fetch(ctx context.Context, collection, document string) (*model.Document, error)
}

// SourceFunc adapts a function to [Source].
type SourceFunc func(ctx context.Context, collection, document string) (*model.Document, error)

// Fetch implements [Source].
func (f SourceFunc) Fetch(ctx context.Context, collection, document string) (*model.Document, error) {
	return f(ctx, collection, document)
}

// Identity names a document within a collection.
type Identity struct {
	Collection string
	Document   string
}

type fetchResult struct {
	id  Identity
	doc *model.Document
	err error
}

// Controller runs layout passes for an interactive view.
//
// All passes run on the goroutine that called [Controller.Run]. Redraw
// requests made while a pass is running collapse into one follow-up pass.
// Fetches run in the background; a result is applied only if its identity
// is still the one most recently opened.
type Controller struct {
	src     Source
	measure fonts.Measurer
	logger  *log.Logger
	display func(*layout.Layout)
	report  func(error)

	redraw  chan struct{}
	opened  chan struct{}
	fetched chan fetchResult

	mu      sync.Mutex
	params  layout.Params
	want    Identity
	pending *model.Document

	current atomic.Pointer[layout.Layout]

	// Loop-owned.
	active Identity
	doc    *model.Document
	dead   error
}

// ControllerOption configures a [Controller].
type ControllerOption func(*Controller)

// WithSource sets where [Controller.Open] fetches documents from.
func WithSource(s Source) ControllerOption { return func(c *Controller) { c.src = s } }

// WithDisplay sets the callback that receives every finished layout.
// It runs on the loop goroutine.
func WithDisplay(f func(*layout.Layout)) ControllerOption {
	return func(c *Controller) { c.display = f }
}

// WithErrorHandler sets the callback for faults. It runs on the loop goroutine.
func WithErrorHandler(f func(error)) ControllerOption {
	return func(c *Controller) { c.report = f }
}

// WithControllerLogger sets the logger.
func WithControllerLogger(l *log.Logger) ControllerOption {
	return func(c *Controller) { c.logger = l }
}

// WithControllerMeasurer sets the text measurer.
func WithControllerMeasurer(m fonts.Measurer) ControllerOption {
	return func(c *Controller) { c.measure = m }
}

// NewController creates a controller laying out with p.
func NewController(p layout.Params, opts ...ControllerOption) *Controller {
	c := &Controller{
		params:  p,
		measure: fonts.Fixed{},
		logger:  log.Default(),
		display: func(*layout.Layout) {},
		report:  func(error) {},
		redraw:  make(chan struct{}, 1),
		opened:  make(chan struct{}, 1),
		fetched: make(chan fetchResult),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run processes requests until ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.opened:
			c.startFetch(ctx)
		case res := <-c.fetched:
			c.applyFetch(res)
		case <-c.redraw:
			c.pass(ctx)
		}
	}
}

// Redraw requests a pass. It never blocks; requests made before the loop
// gets to them are merged.
func (c *Controller) Redraw() {
	select {
	case c.redraw <- struct{}{}:
	default:
	}
}

// Open makes id the active document and fetches it in the background.
func (c *Controller) Open(collection, document string) {
	c.mu.Lock()
	c.want = Identity{Collection: collection, Document: document}
	c.mu.Unlock()
	select {
	case c.opened <- struct{}{}:
	default:
	}
}

// SetDocument replaces the active document with doc and requests a pass.
// Any fetch still in flight is discarded when it completes.
func (c *Controller) SetDocument(doc *model.Document) {
	c.mu.Lock()
	c.pending = doc
	c.want = Identity{}
	c.mu.Unlock()
	c.Redraw()
}

// Resize changes the canvas width and requests a pass.
func (c *Controller) Resize(width float64) {
	if width <= 0 {
		return
	}
	c.mu.Lock()
	c.params.CanvasWidth = width
	c.mu.Unlock()
	c.Redraw()
}

// Current returns the last layout that completed, or nil.
func (c *Controller) Current() *layout.Layout { return c.current.Load() }

func (c *Controller) startFetch(ctx context.Context) {
	c.mu.Lock()
	id := c.want
	c.mu.Unlock()

	if c.dead != nil {
		c.logger.Debug("fetch suppressed after protocol fault", "collection", id.Collection, "document", id.Document)
		return
	}
	if c.src == nil {
		c.report(errors.New(errors.ErrCodeInvalidInput, "no document source configured"))
		return
	}
	c.active = id

	go func() {
		hooks := observability.Pipeline()
		hooks.OnFetchStart(ctx, id.Collection, id.Document)
		start := time.Now()
		doc, err := c.src.Fetch(ctx, id.Collection, id.Document)
		hooks.OnFetchComplete(ctx, id.Collection, id.Document, time.Since(start), err)

		select {
		case c.fetched <- fetchResult{id: id, doc: doc, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (c *Controller) applyFetch(res fetchResult) {
	c.mu.Lock()
	stale := res.id != c.want || res.id != c.active
	c.mu.Unlock()
	if stale {
		c.logger.Debug("discarding stale fetch", "collection", res.id.Collection, "document", res.id.Document)
		return
	}

	if res.err != nil {
		if errors.Is(res.err, errors.ErrCodeProtocol) {
			c.dead = res.err
		}
		c.report(res.err)
		return
	}

	c.mu.Lock()
	c.pending = res.doc
	c.mu.Unlock()
	c.Redraw()
}

// pass runs one full layout. A failed pass leaves the previous layout in
// place.
func (c *Controller) pass(ctx context.Context) {
	c.mu.Lock()
	if c.pending != nil {
		c.doc, c.pending = c.pending, nil
	}
	p := c.params
	c.mu.Unlock()

	if c.doc == nil {
		return
	}

	passID := uuid.NewString()
	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, passID, len(c.doc.Entities)+len(c.doc.Triggers))
	start := time.Now()

	l, err := c.build(p)
	hooks.OnLayoutComplete(ctx, passID, time.Since(start), err)
	if err != nil {
		if code := errors.GetCode(err); code != "" {
			hooks.OnFault(ctx, string(code), errors.OffendingID(err))
		}
		c.report(err)
		return
	}

	c.current.Store(l)
	c.display(l)
}

func (c *Controller) build(p layout.Params) (*layout.Layout, error) {
	m, err := model.Build(c.doc)
	if err != nil {
		return nil, err
	}
	return layout.Build(m, layout.WithParams(p), layout.WithMeasurer(c.measure))
}
