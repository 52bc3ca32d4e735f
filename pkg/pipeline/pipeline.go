// Package pipeline runs documents through parse, layout and render.
//
// This package implements the parse → layout → render pipeline shared by the
// CLI commands and the HTTP server, so that every entry point caches and
// renders the same way.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Parse: decode a JSON or YAML annotation document
//  2. Layout: build the model and compute geometry with [layout.Build]
//  3. Render: produce SVG, PNG, PDF or JSON from the geometry
//
// [Runner] executes the stages with caching. [Controller] drives repeated
// passes for interactive front ends: it coalesces redraw requests, fetches
// documents asynchronously and keeps the last good layout when a pass fails.
// [Dispatcher] routes typed messages from a front end to their handlers.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, doc, pipeline.Options{Formats: []string{"svg"}})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/annoview/pkg/cache"
	"github.com/matzehuels/annoview/pkg/layout"
	"github.com/matzehuels/annoview/pkg/model"
)

// Visualization types.
const (
	// VizText draws arcs above the running text.
	VizText = "text"
	// VizNodelink draws spans as a Graphviz graph.
	VizNodelink = "nodelink"
)

// DefaultVizType is the default visualization type.
const DefaultVizType = VizText

// DefaultScale is the PNG scale factor.
const DefaultScale = 2.0

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
}

// ValidVizTypes is the set of supported visualization types.
var ValidVizTypes = map[string]bool{
	VizText:     true,
	VizNodelink: true,
}

// Options contains all configuration for a pipeline run.
type Options struct {
	// Layout options
	VizType string         `json:"viz_type,omitempty"`
	Width   float64        `json:"width,omitempty"`
	Params  *layout.Params `json:"params,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Scale    float64  `json:"scale,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`

	// Refresh skips cache reads.
	Refresh bool `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// PassID identifies this run in logs.
	PassID string

	Document *model.Document

	// DocHash is the content hash of the canonical document JSON.
	DocHash string

	Layout *layout.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	layout.LayoutStats
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool
	RenderHit bool
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: svg, png, pdf, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateVizType checks that a visualization type is valid.
func ValidateVizType(vizType string) error {
	if !ValidVizTypes[vizType] {
		return fmt.Errorf("invalid viz_type: %q (must be one of: text, nodelink)", vizType)
	}
	return nil
}

// ValidateAndSetDefaults applies defaults and checks every field.
// Calling it more than once has no further effect.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetDefaults()
	if err := ValidateVizType(o.VizType); err != nil {
		return err
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Width < 0 {
		return fmt.Errorf("invalid width: %v", o.Width)
	}
	if err := o.LayoutParams().Validate(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetDefaults fills zero fields.
func (o *Options) SetDefaults() {
	if o.VizType == "" {
		o.VizType = DefaultVizType
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// LayoutParams returns the effective visual constants, with Width applied.
func (o *Options) LayoutParams() layout.Params {
	p := layout.DefaultParams()
	if o.Params != nil {
		p = *o.Params
	}
	if o.Width > 0 {
		p.CanvasWidth = o.Width
	}
	return p
}

// IsNodelink reports whether this is a node-link visualization.
func (o *Options) IsNodelink() bool {
	return o.VizType == VizNodelink
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts(measurer string) cache.LayoutKeyOpts {
	p := o.LayoutParams()
	data, _ := json.Marshal(p)
	return cache.LayoutKeyOpts{
		Width:    p.CanvasWidth,
		Params:   cache.Hash(data),
		Measurer: measurer,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format, VizType: o.VizType}
	if format == FormatPNG {
		k.Scale = o.Scale
	}
	return k
}
