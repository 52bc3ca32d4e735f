package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogPipelineHooks writes pipeline events to a logger at debug level.
// Faults are logged as warnings.
type LogPipelineHooks struct {
	logger *log.Logger
}

// NewLogPipelineHooks creates hooks that log to logger.
func NewLogPipelineHooks(logger *log.Logger) *LogPipelineHooks {
	return &LogPipelineHooks{logger: logger}
}

func (h *LogPipelineHooks) OnFetchStart(_ context.Context, collection, document string) {
	h.logger.Debug("fetch started", "collection", collection, "document", document)
}

func (h *LogPipelineHooks) OnFetchComplete(_ context.Context, collection, document string, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("fetch failed", "collection", collection, "document", document, "elapsed", d, "err", err)
		return
	}
	h.logger.Debug("fetch done", "collection", collection, "document", document, "elapsed", d)
}

func (h *LogPipelineHooks) OnLayoutStart(_ context.Context, passID string, spans int) {
	h.logger.Debug("layout started", "pass", passID, "spans", spans)
}

func (h *LogPipelineHooks) OnLayoutComplete(_ context.Context, passID string, d time.Duration, err error) {
	h.logger.Debug("layout done", "pass", passID, "elapsed", d, "ok", err == nil)
}

func (h *LogPipelineHooks) OnRenderStart(_ context.Context, formats []string) {
	h.logger.Debug("render started", "formats", formats)
}

func (h *LogPipelineHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	h.logger.Debug("render done", "formats", formats, "elapsed", d, "ok", err == nil)
}

func (h *LogPipelineHooks) OnFault(_ context.Context, code, id string) {
	if id != "" {
		h.logger.Warn("pipeline fault", "code", code, "id", id)
		return
	}
	h.logger.Warn("pipeline fault", "code", code)
}

// LogCacheHooks writes cache events to a logger at debug level.
type LogCacheHooks struct {
	logger *log.Logger
}

// NewLogCacheHooks creates hooks that log to logger.
func NewLogCacheHooks(logger *log.Logger) *LogCacheHooks {
	return &LogCacheHooks{logger: logger}
}

func (h *LogCacheHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogCacheHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogCacheHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

var (
	_ PipelineHooks = (*LogPipelineHooks)(nil)
	_ CacheHooks    = (*LogCacheHooks)(nil)
)

// LogHTTPHooks writes client requests to a logger at debug level.
type LogHTTPHooks struct {
	logger *log.Logger
}

// NewLogHTTPHooks creates hooks that log to logger.
func NewLogHTTPHooks(logger *log.Logger) *LogHTTPHooks {
	return &LogHTTPHooks{logger: logger}
}

func (h *LogHTTPHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("request", "method", method, "host", host, "path", path)
}

func (h *LogHTTPHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("response", "method", method, "path", path, "status", status, "elapsed", d)
}

func (h *LogHTTPHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Warn("request failed", "method", method, "host", host, "path", path, "err", err)
}

var _ HTTPHooks = (*LogHTTPHooks)(nil)
