// Package server exposes documents and layouts over HTTP.
//
// Routes live under /api/v1 and answer with a [Response] envelope. Every
// response carries the [buildinfo.ProtocolHeader]; a request announcing a
// different protocol version is refused with 409 and code PROTOCOL.
//
//	GET  /health
//	GET  /api/v1/collections
//	GET  /api/v1/collections/{collection}
//	GET  /api/v1/documents/{collection}/{document}
//	PUT  /api/v1/documents/{collection}/{document}
//	GET  /api/v1/documents/{collection}/{document}/layout?width=
//	GET  /api/v1/documents/{collection}/{document}/svg?width=
//	POST /api/v1/layout?width=
//
// [buildinfo.ProtocolHeader]: github.com/matzehuels/annoview/pkg/buildinfo.ProtocolHeader
package server

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/annoview/pkg/buildinfo"
	"github.com/matzehuels/annoview/pkg/errors"
	"github.com/matzehuels/annoview/pkg/model"
	"github.com/matzehuels/annoview/pkg/pipeline"
	"github.com/matzehuels/annoview/pkg/store"
)

// maxBodyBytes bounds uploaded documents.
const maxBodyBytes = 8 << 20

// Server serves one store through one pipeline runner.
type Server struct {
	store  store.Store
	runner *pipeline.Runner
	logger *log.Logger
	router chi.Router
}

// New builds the router.
func New(st store.Store, runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{store: st, runner: runner, logger: logger}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(protocol)

	r.Get("/health", s.health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/collections", s.listCollections)
		r.Get("/collections/{collection}", s.listDocuments)
		r.Route("/documents/{collection}/{document}", func(r chi.Router) {
			r.Get("/", s.getDocument)
			r.Put("/", s.putDocument)
			r.Get("/layout", s.getLayout)
			r.Get("/svg", s.getSVG)
		})
		r.Post("/layout", s.postLayout)
	})
	return r
}

// protocol stamps the protocol version on responses and refuses requests
// that announce another one.
func protocol(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(buildinfo.ProtocolHeader, buildinfo.Protocol)
		if v := r.Header.Get(buildinfo.ProtocolHeader); v != "" && v != buildinfo.Protocol {
			writeError(w, errors.New(errors.ErrCodeProtocol,
				"client speaks protocol %s, server speaks %s", v, buildinfo.Protocol))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"version":  buildinfo.Version,
		"protocol": buildinfo.Protocol,
	})
}

func (s *Server) listCollections(w http.ResponseWriter, r *http.Request) {
	cols, err := s.store.Collections(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(cols))
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.List(r.Context(), chi.URLParam(r, "collection"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(docs))
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.document(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) putDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := readDocument(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.Put(r.Context(), chi.URLParam(r, "collection"), chi.URLParam(r, "document"), doc); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "stored"})
}

func (s *Server) getLayout(w http.ResponseWriter, r *http.Request) {
	doc, err := s.document(r)
	if err != nil {
		writeError(w, err)
		return
	}
	s.layout(w, r, doc)
}

func (s *Server) postLayout(w http.ResponseWriter, r *http.Request) {
	doc, err := readDocument(r)
	if err != nil {
		writeError(w, err)
		return
	}
	s.layout(w, r, doc)
}

func (s *Server) layout(w http.ResponseWriter, r *http.Request, doc *model.Document) {
	opts, err := options(r)
	if err != nil {
		writeError(w, err)
		return
	}
	l, err := s.runner.Layout(r.Context(), doc, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) getSVG(w http.ResponseWriter, r *http.Request) {
	doc, err := s.document(r)
	if err != nil {
		writeError(w, err)
		return
	}
	opts, err := options(r)
	if err != nil {
		writeError(w, err)
		return
	}
	opts.Formats = []string{pipeline.FormatSVG}
	res, err := s.runner.Execute(r.Context(), doc, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[pipeline.FormatSVG])
}

func (s *Server) document(r *http.Request) (*model.Document, error) {
	return s.store.Get(r.Context(), chi.URLParam(r, "collection"), chi.URLParam(r, "document"))
}

func readDocument(r *http.Request) (*model.Document, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body")
	}
	format := model.FormatJSON
	if ct := r.Header.Get("Content-Type"); ct == "application/yaml" || ct == "application/x-yaml" {
		format = model.FormatYAML
	}
	return model.UnmarshalDocument(data, format)
}

func options(r *http.Request) (pipeline.Options, error) {
	var opts pipeline.Options
	if v := r.URL.Query().Get("width"); v != "" {
		w, err := strconv.ParseFloat(v, 64)
		if err != nil || w <= 0 {
			return opts, errors.New(errors.ErrCodeInvalidInput, "width must be a positive number, got %q", v)
		}
		opts.Width = w
	}
	return opts, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("serving", "addr", addr, "protocol", buildinfo.Protocol)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
