// Package pipeline provides the compile → relax → export pipeline for plushie.
//
// This package is shared by the CLI and the HTTP server so both produce the
// same graphs and results from the same pattern, and share one cache.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Compile: parse the pattern text and run the hook to get a stitch graph
//  2. Relax: seed positions and step the simulation until the shape settles
//  3. Render: produce artifacts (graph JSON, DOT, SVG, STL, point clouds)
//
// Compile and Relax results are cached by content: the same pattern with the
// same params is never simulated twice.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Source:  "mr(6) 6*inc 12*sc 6*dec fo",
//	    Formats: []string{"stl"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	stl := result.Artifacts["stl"]
//
// Run individual stages:
//
//	sg, err := runner.Compile(ctx, opts)
//	res, err := runner.Relax(ctx, sg, opts)
//	artifacts, err := pipeline.Render(sg, res, opts)
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/plushie/pkg/cache"
	"github.com/matzehuels/plushie/pkg/errors"
	"github.com/matzehuels/plushie/pkg/graph"
	"github.com/matzehuels/plushie/pkg/plushie"
)

// Format constants for output formats.
const (
	FormatJSON   = "json"   // stitch graph
	FormatDOT    = "dot"    // Graphviz source of the stitch graph
	FormatSVG    = "svg"    // rendered stitch graph
	FormatResult = "result" // relaxed result as JSON
	FormatSTL    = "stl"    // binary STL mesh
	FormatPoints = "points" // point cloud as JSON
	FormatXYZ    = "xyz"    // point cloud as x y z lines
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON:   true,
	FormatDOT:    true,
	FormatSVG:    true,
	FormatResult: true,
	FormatSTL:    true,
	FormatPoints: true,
	FormatXYZ:    true,
}

// GraphFormats only need a compiled graph; every other format needs a
// relaxed result.
var GraphFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// DefaultFormats is used when no format is requested.
var DefaultFormats = []string{FormatResult}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Compile options
	Source  string          `json:"source"`
	Params  *plushie.Params `json:"params,omitempty"`
	Refresh bool            `json:"refresh,omitempty"` // Skip cache reads

	// Relax options
	Steps int `json:"steps,omitempty"` // Fixed step count; 0 relaxes until settled

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"` // Detailed DOT labels
	Rounds   bool     `json:"rounds,omitempty"`   // One DOT rank per round

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the compiled stitch graph.
	Graph graph.StitchGraph

	// GraphHash is the content hash of the graph.
	GraphHash string

	// Relaxed holds the final positions.
	Relaxed *graph.Result

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount   int
	EdgeCount   int
	Steps       int
	CompileTime time.Duration
	RelaxTime   time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	CompileHit bool // Whether the graph came from cache
	RelaxHit   bool // Whether the relaxed result came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: json, dot, svg, result, stl, points, xyz)", format)
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

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForCompile(); err != nil {
		return err
	}
	if err := o.ValidateForRelax(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForCompile checks the pattern source and params.
func (o *Options) ValidateForCompile() error {
	if err := errors.ValidatePatternSource(o.Source); err != nil {
		return err
	}
	o.SetParamsDefaults()
	return o.Params.Validate()
}

// SetParamsDefaults fills in default params and logger.
func (o *Options) SetParamsDefaults() {
	if o.Params == nil {
		p := plushie.DefaultParams()
		o.Params = &p
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRelax validates and sets defaults for relaxation.
func (o *Options) ValidateForRelax() error {
	o.SetParamsDefaults()
	if o.Steps < 0 {
		return errors.New(errors.ErrCodeInvalidParams, "steps must not be negative, got %d", o.Steps)
	}
	return o.Params.Validate()
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = slices.Clone(DefaultFormats)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

// NeedsRelax reports whether any requested format needs a relaxed result.
func (o *Options) NeedsRelax() bool {
	for _, f := range o.Formats {
		if !GraphFormats[f] {
			return true
		}
	}
	return false
}

// GraphKeyOpts returns cache key options for compilation.
func (o *Options) GraphKeyOpts() cache.GraphKeyOpts {
	o.SetParamsDefaults()
	return cache.GraphKeyOpts{
		Leniency:  o.Params.HookLeniency.String(),
		TipFromFO: o.Params.TipFromFO,
	}
}

// ResultKeyOpts returns cache key options for relaxation.
func (o *Options) ResultKeyOpts() (cache.ResultKeyOpts, error) {
	o.SetParamsDefaults()
	data, err := jsonBytes(o.Params)
	if err != nil {
		return cache.ResultKeyOpts{}, fmt.Errorf("encode params for cache key: %w", err)
	}
	return cache.ResultKeyOpts{Params: data, Steps: o.Steps}, nil
}
