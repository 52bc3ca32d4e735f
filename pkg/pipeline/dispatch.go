package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/matzehuels/annoview/pkg/model"
)

// MessageKind enumerates the requests a front end can send.
type MessageKind int

const (
	// MsgOpen fetches and shows Collection/Document.
	MsgOpen MessageKind = iota + 1
	// MsgRedraw re-runs the layout on the current document.
	MsgRedraw
	// MsgResize changes the canvas width to Width.
	MsgResize
	// MsgSetDocument shows Doc directly.
	MsgSetDocument
)

func (k MessageKind) String() string {
	switch k {
	case MsgOpen:
		return "open"
	case MsgRedraw:
		return "redraw"
	case MsgResize:
		return "resize"
	case MsgSetDocument:
		return "set-document"
	default:
		return fmt.Sprintf("MessageKind(%d)", int(k))
	}
}

// Message is one request. Only the fields its Kind needs are read.
type Message struct {
	Kind       MessageKind
	Collection string
	Document   string
	Width      float64
	Doc        *model.Document
}

// Handler processes a message synchronously.
type Handler func(ctx context.Context, msg Message) error

// ErrNoHandler is returned by [Dispatcher.Dispatch] for unregistered kinds.
var ErrNoHandler = fmt.Errorf("no handler registered")

// Dispatcher routes messages to the handler registered for their kind.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[MessageKind]Handler
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[MessageKind]Handler)}
}

// Register sets the handler for kind, replacing any previous one.
func (d *Dispatcher) Register(kind MessageKind, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[kind] = h
}

// Dispatch calls the handler for msg.Kind and returns its error.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) error {
	d.mu.RLock()
	h, ok := d.handlers[msg.Kind]
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w for %s", ErrNoHandler, msg.Kind)
	}
	return h(ctx, msg)
}

// Bind registers handlers that forward every message kind to c.
func (d *Dispatcher) Bind(c *Controller) {
	d.Register(MsgOpen, func(_ context.Context, m Message) error {
		if m.Collection == "" || m.Document == "" {
			return fmt.Errorf("open: collection and document are required")
		}
		c.Open(m.Collection, m.Document)
		return nil
	})
	d.Register(MsgRedraw, func(context.Context, Message) error {
		c.Redraw()
		return nil
	})
	d.Register(MsgResize, func(_ context.Context, m Message) error {
		if m.Width <= 0 {
			return fmt.Errorf("resize: width must be positive, got %v", m.Width)
		}
		c.Resize(m.Width)
		return nil
	})
	d.Register(MsgSetDocument, func(_ context.Context, m Message) error {
		if m.Doc == nil {
			return fmt.Errorf("set-document: document is nil")
		}
		c.SetDocument(m.Doc)
		return nil
	})
}
