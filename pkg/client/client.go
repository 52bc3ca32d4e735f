// Package client fetches documents from an annoview server.
//
// Failures are classified for the caller: network errors and 5xx replies
// are TRANSPORT faults, a protocol version mismatch is a PROTOCOL fault,
// and server-side error envelopes keep their original code. The client
// never retries; a caller that wants another attempt issues a new request.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/annoview/pkg/buildinfo"
	"github.com/matzehuels/annoview/pkg/errors"
	"github.com/matzehuels/annoview/pkg/layout"
	"github.com/matzehuels/annoview/pkg/model"
	"github.com/matzehuels/annoview/pkg/observability"
	"github.com/matzehuels/annoview/pkg/server"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 10 * time.Second

// Client talks to one server.
type Client struct {
	base *url.URL
	http *http.Client
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if err := errors.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse server url")
	}
	c := &Client{base: u, http: &http.Client{Timeout: DefaultTimeout}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Fetch loads a document. It satisfies pipeline.Source.
func (c *Client) Fetch(ctx context.Context, collection, document string) (*model.Document, error) {
	var raw json.RawMessage
	if err := c.get(ctx, "/api/v1/documents/"+url.PathEscape(collection)+"/"+url.PathEscape(document), nil, &raw); err != nil {
		return nil, err
	}
	return model.UnmarshalDocument(raw, model.FormatJSON)
}

// Collections lists the server's collections.
func (c *Client) Collections(ctx context.Context) ([]string, error) {
	var out []string
	err := c.get(ctx, "/api/v1/collections", nil, &out)
	return out, err
}

// List lists the documents of a collection.
func (c *Client) List(ctx context.Context, collection string) ([]string, error) {
	var out []string
	err := c.get(ctx, "/api/v1/collections/"+url.PathEscape(collection), nil, &out)
	return out, err
}

// Layout asks the server to lay out a stored document.
func (c *Client) Layout(ctx context.Context, collection, document string, width float64) (*layout.Layout, error) {
	q := url.Values{}
	if width > 0 {
		q.Set("width", fmt.Sprint(width))
	}
	var l layout.Layout
	path := "/api/v1/documents/" + url.PathEscape(collection) + "/" + url.PathEscape(document) + "/layout"
	if err := c.get(ctx, path, q, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := *c.base
	u.Path += path
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "build request")
	}
	req.Header.Set(buildinfo.ProtocolHeader, buildinfo.Protocol)
	req.Header.Set("Accept", "application/json")

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, u.Host, u.Path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, u.Host, u.Path, err)
		return errors.Wrap(errors.ErrCodeTransport, err, "request %s", u.Path)
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, u.Host, u.Path, resp.StatusCode, time.Since(start))

	if v := resp.Header.Get(buildinfo.ProtocolHeader); v != "" && v != buildinfo.Protocol {
		return errors.New(errors.ErrCodeProtocol, "server speaks protocol %s, client speaks %s", v, buildinfo.Protocol)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(errors.ErrCodeTransport, err, "read response")
	}

	var env server.Response
	if err := json.Unmarshal(body, &env); err != nil {
		if resp.StatusCode >= 300 {
			return errors.New(server.CodeFor(resp.StatusCode), "server returned %s", resp.Status)
		}
		return errors.Wrap(errors.ErrCodeTransport, err, "decode response")
	}
	if !env.Success {
		return envelopeError(resp, env)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return errors.Wrap(errors.ErrCodeTransport, err, "decode response data")
	}
	return nil
}

func envelopeError(resp *http.Response, env server.Response) error {
	if env.Error == nil {
		return errors.New(server.CodeFor(resp.StatusCode), "server returned %s", resp.Status)
	}
	code := errors.Code(env.Error.Code)
	if code == "" || code == errors.ErrCodeInternal {
		code = server.CodeFor(resp.StatusCode)
	}
	if code == errors.ErrCodeDocumentIntegrity && env.Error.ID != "" {
		return errors.Integrity(env.Error.ID, "%s", env.Error.Message)
	}
	return errors.New(code, "%s", env.Error.Message)
}
