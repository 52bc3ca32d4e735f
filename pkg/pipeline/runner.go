package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/annoview/pkg/cache"
	"github.com/matzehuels/annoview/pkg/errors"
	"github.com/matzehuels/annoview/pkg/fonts"
	"github.com/matzehuels/annoview/pkg/layout"
	"github.com/matzehuels/annoview/pkg/model"
	"github.com/matzehuels/annoview/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache, measurer and logger. It
// doesn't store pipeline results, so multiple goroutines can share one.
type Runner struct {
	Cache    cache.Cache
	Keyer    cache.Keyer
	Measurer fonts.Measurer
	Logger   *log.Logger
	// LayoutTTL overrides cache.LayoutTTL when positive.
	LayoutTTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// Text is measured with the embedded Go Regular font.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	var m fonts.Measurer = fonts.Fixed{}
	if ot, err := fonts.GoRegular(); err == nil {
		m = ot
	}
	return &Runner{
		Cache:    c,
		Keyer:    keyer,
		Measurer: m,
		Logger:   logger,
	}
}

// Execute runs layout and render for doc with caching.
func (r *Runner) Execute(ctx context.Context, doc *model.Document, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{
		PassID:   uuid.NewString(),
		Document: doc,
	}
	logger := r.Logger.With("pass", result.PassID[:8])

	hash, err := DocumentHash(doc)
	if err != nil {
		return nil, fmt.Errorf("hash document: %w", err)
	}
	result.DocHash = hash

	layoutStart := time.Now()
	l, hit, err := r.layout(ctx, result.PassID, doc, hash, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = l
	result.Stats.LayoutStats = l.Stats
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = hit

	logger.Info("computed layout",
		"rows", l.Stats.Rows,
		"spans", l.Stats.Spans,
		"arcs", l.Stats.Arcs,
		"cached", hit,
		"duration", result.Stats.LayoutTime)
	for _, w := range l.Warnings {
		logger.Warn(w)
	}

	renderStart := time.Now()
	artifacts, hit, err := r.RenderWithCacheInfo(ctx, l, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = hit

	logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", hit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// LayoutWithCacheInfo computes a layout with caching and reports whether it
// came from the cache.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, doc *model.Document, opts Options) (*layout.Layout, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	hash, err := DocumentHash(doc)
	if err != nil {
		return nil, false, fmt.Errorf("hash document: %w", err)
	}
	return r.layout(ctx, uuid.NewString(), doc, hash, opts)
}

// Layout is LayoutWithCacheInfo without the cache hit info.
func (r *Runner) Layout(ctx context.Context, doc *model.Document, opts Options) (*layout.Layout, error) {
	l, _, err := r.LayoutWithCacheInfo(ctx, doc, opts)
	return l, err
}

func (r *Runner) layout(ctx context.Context, passID string, doc *model.Document, hash string, opts Options) (*layout.Layout, bool, error) {
	hooks := observability.Pipeline()
	cacheKey := r.Keyer.LayoutKey(hash, opts.LayoutKeyOpts(fmt.Sprintf("%T", r.Measurer)))

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached layout.Layout
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return &cached, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	hooks.OnLayoutStart(ctx, passID, len(doc.Entities)+len(doc.Triggers))
	start := time.Now()
	l, err := GenerateLayout(doc, r.Measurer, opts)
	hooks.OnLayoutComplete(ctx, passID, time.Since(start), err)
	if err != nil {
		if code := errors.GetCode(err); code != "" {
			hooks.OnFault(ctx, string(code), errors.OffendingID(err))
		}
		return nil, false, err
	}

	if data, err := json.Marshal(l); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, r.layoutTTL()); err == nil {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		} else {
			r.Logger.Debug("cache write failed", "key", cacheKey, "error", err)
		}
	}
	return l, false, nil
}

// RenderWithCacheInfo generates artifacts with caching and reports whether
// every format came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l *layout.Layout, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	layoutData, err := json.Marshal(l)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(layoutData)

	artifacts := make(map[string][]byte)
	if !opts.Refresh {
		for _, format := range opts.Formats {
			key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, key)
			if err != nil || !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return artifacts, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	rendered, err := Render(ctx, l, r.Measurer, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		key := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, data, cache.ArtifactTTL); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}
	return rendered, false, nil
}

// Render is RenderWithCacheInfo without the cache hit info.
func (r *Runner) Render(ctx context.Context, l *layout.Layout, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, l, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) layoutTTL() time.Duration {
	if r.LayoutTTL > 0 {
		return r.LayoutTTL
	}
	return cache.LayoutTTL
}
