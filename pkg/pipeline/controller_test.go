package pipeline

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/annoview/pkg/errors"
	"github.com/matzehuels/annoview/pkg/fonts"
	"github.com/matzehuels/annoview/pkg/layout"
	"github.com/matzehuels/annoview/pkg/model"
)

// harness runs a controller and records what it shows and reports.
type harness struct {
	c      *Controller
	frames chan *layout.Layout
	faults chan error
	cancel context.CancelFunc
	done   chan struct{}
}

func newHarness(t *testing.T, opts ...ControllerOption) *harness {
	t.Helper()
	h := &harness{
		frames: make(chan *layout.Layout, 16),
		faults: make(chan error, 16),
		done:   make(chan struct{}),
	}
	opts = append([]ControllerOption{
		WithControllerMeasurer(fonts.Fixed{}),
		WithControllerLogger(log.New(io.Discard)),
		WithDisplay(func(l *layout.Layout) { h.frames <- l }),
		WithErrorHandler(func(err error) { h.faults <- err }),
	}, opts...)
	h.c = NewController(layout.DefaultParams(), opts...)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() {
		defer close(h.done)
		_ = h.c.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-h.done
	})
	return h
}

func (h *harness) frame(t *testing.T) *layout.Layout {
	t.Helper()
	select {
	case l := <-h.frames:
		return l
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a frame")
		return nil
	}
}

func (h *harness) fault(t *testing.T) error {
	t.Helper()
	select {
	case err := <-h.faults:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a fault")
		return nil
	}
}

func (h *harness) quiet(t *testing.T) {
	t.Helper()
	select {
	case l := <-h.frames:
		t.Fatalf("unexpected frame with %d rows", len(l.Rows))
	case err := <-h.faults:
		t.Fatalf("unexpected fault: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
}

func doc(t *testing.T, src string) *model.Document {
	t.Helper()
	d, err := model.UnmarshalDocument([]byte(src), model.FormatJSON)
	require.NoError(t, err)
	return d
}

func TestControllerShowsDocument(t *testing.T) {
	h := newHarness(t)
	h.c.SetDocument(doc(t, givingDoc))

	l := h.frame(t)
	assert.Len(t, l.Arcs, 2)
	assert.Same(t, l, h.c.Current())
}

func TestControllerIntegrityFaultKeepsLastLayout(t *testing.T) {
	h := newHarness(t)
	h.c.SetDocument(doc(t, givingDoc))
	good := h.frame(t)

	h.c.SetDocument(doc(t, `{
  "text": "John gave Mary a book.",
  "entities": [["T1", "Person", 0, 4]],
  "modifications": [["M1", "Negation", "E9"]]
}`))
	err := h.fault(t)

	assert.True(t, errors.Is(err, errors.ErrCodeDocumentIntegrity))
	assert.Equal(t, "E9", errors.OffendingID(err))
	assert.Same(t, good, h.c.Current(), "previous layout stays on screen")
}

// blockingDisplay holds the first frame until released.
type blockingDisplay struct {
	mu      sync.Mutex
	count   int
	entered chan struct{}
	release chan struct{}
}

func (b *blockingDisplay) show(*layout.Layout) {
	b.mu.Lock()
	b.count++
	first := b.count == 1
	b.mu.Unlock()
	if first {
		close(b.entered)
		<-b.release
	}
}

func (b *blockingDisplay) frames() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

func TestControllerCoalescesRedraws(t *testing.T) {
	bd := &blockingDisplay{entered: make(chan struct{}), release: make(chan struct{})}
	h := newHarness(t, WithDisplay(bd.show))

	h.c.SetDocument(doc(t, givingDoc))
	<-bd.entered
	for range 10 {
		h.c.Redraw()
	}
	close(bd.release)

	require.Eventually(t, func() bool { return bd.frames() == 2 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 2, bd.frames(), "pending redraws collapse into one pass")
}

func TestControllerResize(t *testing.T) {
	h := newHarness(t)
	h.c.SetDocument(doc(t, givingDoc))
	wide := h.frame(t)

	h.c.Resize(120)
	narrow := h.frame(t)

	assert.Equal(t, 800.0, wide.Width)
	assert.Equal(t, 120.0, narrow.Width)
	assert.Greater(t, len(narrow.Rows), len(wide.Rows))
}

// gatedSource returns documents only when the test releases them.
type gatedSource struct {
	mu    sync.Mutex
	gates map[Identity]chan fetchResult
}

func newGatedSource() *gatedSource {
	return &gatedSource{gates: make(map[Identity]chan fetchResult)}
}

func (g *gatedSource) gate(id Identity) chan fetchResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[id]
	if !ok {
		ch = make(chan fetchResult, 1)
		g.gates[id] = ch
	}
	return ch
}

func (g *gatedSource) Fetch(ctx context.Context, collection, document string) (*model.Document, error) {
	select {
	case res := <-g.gate(Identity{collection, document}):
		return res.doc, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *gatedSource) release(collection, document string, d *model.Document, err error) {
	g.gate(Identity{collection, document}) <- fetchResult{doc: d, err: err}
}

func TestControllerDiscardsStaleFetch(t *testing.T) {
	src := newGatedSource()
	h := newHarness(t, WithSource(src))

	h.c.Open("news", "a")
	time.Sleep(20 * time.Millisecond)
	h.c.Open("news", "b")
	time.Sleep(20 * time.Millisecond)

	src.release("news", "a", doc(t, `{"text": "stale document"}`), nil)
	h.quiet(t)

	src.release("news", "b", doc(t, givingDoc), nil)
	l := h.frame(t)
	assert.Equal(t, "John", l.Chunks[0].Text)
}

func TestControllerProtocolFaultSuppressesFetches(t *testing.T) {
	calls := 0
	var mu sync.Mutex
	src := SourceFunc(func(context.Context, string, string) (*model.Document, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil, errors.New(errors.ErrCodeProtocol, "server speaks protocol 2")
	})
	h := newHarness(t, WithSource(src))

	h.c.Open("news", "a")
	err := h.fault(t)
	assert.True(t, errors.Is(err, errors.ErrCodeProtocol))

	h.c.Open("news", "b")
	h.quiet(t)
	mu.Lock()
	assert.Equal(t, 1, calls, "no fetch after a protocol fault")
	mu.Unlock()
}

func TestControllerTransportFaultIsTransient(t *testing.T) {
	src := newGatedSource()
	h := newHarness(t, WithSource(src))

	h.c.Open("news", "a")
	src.release("news", "a", nil, errors.New(errors.ErrCodeTransport, "connection refused"))
	err := h.fault(t)
	assert.True(t, errors.Transient(err))

	h.c.Open("news", "b")
	src.release("news", "b", doc(t, givingDoc), nil)
	h.frame(t)
}

func TestDispatcher(t *testing.T) {
	h := newHarness(t)
	d := NewDispatcher()
	d.Bind(h.c)
	ctx := context.Background()

	require.NoError(t, d.Dispatch(ctx, Message{Kind: MsgSetDocument, Doc: doc(t, givingDoc)}))
	h.frame(t)
	require.NoError(t, d.Dispatch(ctx, Message{Kind: MsgResize, Width: 400}))
	assert.Equal(t, 400.0, h.frame(t).Width)

	assert.Error(t, d.Dispatch(ctx, Message{Kind: MsgResize}))
	assert.Error(t, d.Dispatch(ctx, Message{Kind: MsgOpen}))
	assert.ErrorIs(t, NewDispatcher().Dispatch(ctx, Message{Kind: MsgRedraw}), ErrNoHandler)
	assert.Equal(t, "resize", MsgResize.String())
}
