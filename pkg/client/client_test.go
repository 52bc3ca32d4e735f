package client

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/annoview/pkg/buildinfo"
	"github.com/matzehuels/annoview/pkg/errors"
	"github.com/matzehuels/annoview/pkg/fonts"
	"github.com/matzehuels/annoview/pkg/model"
	"github.com/matzehuels/annoview/pkg/pipeline"
	"github.com/matzehuels/annoview/pkg/server"
	"github.com/matzehuels/annoview/pkg/store"
)

var _ pipeline.Source = (*Client)(nil)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	st, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	doc := &model.Document{
		Text:     "John slept.",
		Entities: []model.Record{{"T1", "Person", 0, 4}},
	}
	if err := st.Put(context.Background(), "news", "d1", doc); err != nil {
		t.Fatal(err)
	}
	runner := pipeline.NewRunner(nil, nil, log.New(io.Discard))
	runner.Measurer = fonts.Fixed{}
	ts := httptest.NewServer(server.New(st, runner, log.New(io.Discard)).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestFetch(t *testing.T) {
	ts := newServer(t)
	c, err := New(ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	doc, err := c.Fetch(ctx, "news", "d1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if doc.Text != "John slept." {
		t.Errorf("Text = %q", doc.Text)
	}

	names, err := c.List(ctx, "news")
	if err != nil || len(names) != 1 {
		t.Errorf("List() = %v, %v", names, err)
	}

	l, err := c.Layout(ctx, "news", "d1", 400)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if l.Width != 400 {
		t.Errorf("Width = %v", l.Width)
	}
}

func TestFetchNotFound(t *testing.T) {
	c, _ := New(newServer(t).URL)
	_, err := c.Fetch(context.Background(), "news", "nope")
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

func TestTransportFault(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	c, _ := New(url)
	_, err := c.Fetch(context.Background(), "news", "d1")
	if !errors.Transient(err) {
		t.Errorf("error = %v, want TRANSPORT", err)
	}
}

func TestServerErrorIsTransport(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer ts.Close()

	c, _ := New(ts.URL)
	_, err := c.Fetch(context.Background(), "news", "d1")
	if !errors.Is(err, errors.ErrCodeTransport) {
		t.Errorf("error = %v, want TRANSPORT", err)
	}
}

func TestProtocolMismatch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(buildinfo.ProtocolHeader, "0")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success": true, "data": {}}`))
	}))
	defer ts.Close()

	c, _ := New(ts.URL)
	_, err := c.Fetch(context.Background(), "news", "d1")
	if !errors.Is(err, errors.ErrCodeProtocol) {
		t.Errorf("error = %v, want PROTOCOL", err)
	}
}

func TestConflictIsProtocol(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer ts.Close()

	c, _ := New(ts.URL)
	_, err := c.Fetch(context.Background(), "news", "d1")
	if !errors.Is(err, errors.ErrCodeProtocol) {
		t.Errorf("error = %v, want PROTOCOL", err)
	}
}

func TestNewRejectsBadURL(t *testing.T) {
	if _, err := New("ftp://example.org"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}
