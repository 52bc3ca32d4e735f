// Package observability provides hooks for metrics, tracing, and logging.
//
// Libraries never import a metrics backend. They call the registered hooks,
// which default to no-ops; main registers real implementations at startup.
//
//	func main() {
//	    observability.SetPipelineHooks(observability.NewLogPipelineHooks(logger))
//	    // ... run application
//	}
//
// Libraries emit events through the accessors:
//
//	observability.Pipeline().OnLayoutStart(ctx, passID, len(m.Spans))
//	l, err := layout.Build(m)
//	observability.Pipeline().OnLayoutComplete(ctx, passID, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// PipelineHooks receives events from document fetches, layout passes and
// rendering.
type PipelineHooks interface {
	OnFetchStart(ctx context.Context, collection, document string)
	OnFetchComplete(ctx context.Context, collection, document string, duration time.Duration, err error)

	OnLayoutStart(ctx context.Context, passID string, spans int)
	OnLayoutComplete(ctx context.Context, passID string, duration time.Duration, err error)

	OnRenderStart(ctx context.Context, formats []string)
	OnRenderComplete(ctx context.Context, formats []string, duration time.Duration, err error)

	// OnFault records a classified pipeline fault. id names the offending
	// span or event for integrity faults and is empty otherwise.
	OnFault(ctx context.Context, code, id string)
}

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives events from the document client.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)
	OnError(ctx context.Context, method, host, path string, err error)
}

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnFetchStart(context.Context, string, string)                          {}
func (NoopPipelineHooks) OnFetchComplete(context.Context, string, string, time.Duration, error) {}
func (NoopPipelineHooks) OnLayoutStart(context.Context, string, int)                            {}
func (NoopPipelineHooks) OnLayoutComplete(context.Context, string, time.Duration, error)        {}
func (NoopPipelineHooks) OnRenderStart(context.Context, []string)                               {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, []string, time.Duration, error)      {}
func (NoopPipelineHooks) OnFault(context.Context, string, string)                               {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers pipeline hooks. Nil is ignored.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers HTTP hooks. Nil is ignored.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
