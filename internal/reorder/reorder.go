// Package reorder rewrites the layers of a sliced plate so that the sections
// printing helper meshes run before or after every other section of their
// layer, inserting the travel, hop and retraction moves the new order needs.
package reorder

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/piwi3910/spoonorder/internal/gcode"
	"github.com/piwi3910/spoonorder/internal/model"
)

// ErrRewriteAborted is returned when a pass fails part way through. No
// layers are returned with it, so the caller keeps the original gcode.
var ErrRewriteAborted = errors.New("rewrite aborted")

// Options configure a Rewriter.
type Options struct {
	Mode             model.ReorderMode
	Marker           string
	Config           model.MachineConfig
	DeferredCommands []string // nil means model.DefaultDeferredCommands

	// Logger receives per-layer debug output. Nil discards it.
	Logger *log.Logger

	// OnLayer, if set, is called after each layer block has been handled.
	OnLayer func(model.LayerReport)
}

// Rewriter runs reorder passes over plates.
type Rewriter struct {
	opts Options
	gen  *gcode.Generator
	log  *log.Logger
}

// New creates a Rewriter.
func New(opts Options) *Rewriter {
	if opts.Marker == "" {
		opts.Marker = model.DefaultTargetMarker
	}
	if opts.Mode == "" {
		opts.Mode = model.ModeSpoonsFirst
	}
	if opts.DeferredCommands == nil {
		opts.DeferredCommands = model.DefaultDeferredCommands
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Rewriter{opts: opts, gen: gcode.New(opts.Config), log: logger}
}

// Rewrite runs one pass over the blocks of a plate, as produced by
// gcode.SplitPlate, and returns the rewritten blocks. Blocks that are not
// layers, or layers without a target section, come back unchanged. The pass
// is all or nothing: on error the returned blocks are nil.
func (r *Rewriter) Rewrite(blocks []string) (out []string, report model.Report, err error) {
	report = model.NewReport(r.opts.Mode, r.opts.Marker)
	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = fmt.Errorf("%w: %v", ErrRewriteAborted, rec)
		}
	}()

	out = make([]string, len(blocks))
	if r.opts.Mode == model.ModeUnchanged {
		copy(out, blocks)
		for i, block := range blocks {
			report.Layers = append(report.Layers, r.skipped(i, gcode.SplitLines(block)))
		}
		r.log.Printf("mode %s: %d blocks left as sliced", r.opts.Mode, len(blocks))
		return out, report, nil
	}

	lines := make([][]string, len(blocks))
	layers := make([]model.Layer, len(blocks))
	applicable := make([]bool, len(blocks))
	for i, block := range blocks {
		lines[i] = gcode.SplitLines(block)
		layers[i], applicable[i] = Split(i, lines[i], r.opts.Marker, r.opts.DeferredCommands)
	}

	var prev, prevEmitted []string
	firstProcessed := true
	for i := range blocks {
		out[i] = blocks[i]
		row := r.skipped(i, lines[i])
		emitted := lines[i]
		if applicable[i] {
			nextApplicable := i+1 < len(blocks) && applicable[i+1]
			emitted, row = r.rewriteLayer(layers[i], lines[i], prev, prevEmitted, firstProcessed, nextApplicable)
			out[i] = gcode.JoinLines(emitted)
			firstProcessed = false
		}
		prev, prevEmitted = lines[i], emitted

		report.Layers = append(report.Layers, row)
		if r.opts.OnLayer != nil {
			r.opts.OnLayer(row)
		}
	}
	r.log.Printf("rewrote %d of %d blocks (%s, marker %q)",
		report.RewrittenLayers(), len(blocks), r.opts.Mode, r.opts.Marker)
	return out, report, nil
}

func (r *Rewriter) skipped(index int, lines []string) model.LayerReport {
	number, ok := gcode.LayerNumber(lines)
	if !ok {
		number = -1
	}
	return model.LayerReport{Index: index, Number: number}
}

// rewriteLayer rewrites one applicable layer. prev is the previous block as
// sliced and prevEmitted the same block as it was output.
func (r *Rewriter) rewriteLayer(layer model.Layer, lines, prev, prevEmitted []string, firstProcessed, nextApplicable bool) ([]string, model.LayerReport) {
	cfg := r.opts.Config
	z, ok := layerZ(layer.Number, firstProcessed, lines, prev, cfg)
	if !ok {
		r.log.Printf("layer %d: no Z found, starting sections at 0", layer.Number)
	}
	ctx := layerContext{cfg: cfg, lines: lines, prev: prev, z: z}

	layer.Header = prepareSection(layer.Header, ctx)
	for j, s := range layer.Body {
		layer.Body[j] = prepareSection(s, ctx)
	}
	if layer.Footer != nil {
		footer := prepareSection(*layer.Footer, ctx)
		layer.Footer = &footer
	}

	start := gcode.EndState(prevEmitted, cfg.RelativeExtrusion)
	a := &assembler{cfg: cfg, gen: r.gen, mode: r.opts.Mode, marker: r.opts.Marker}
	result := a.assemble(layer, lines, start, headZ{}.after(prevEmitted), nextApplicable)

	row := model.LayerReport{
		Index:          layer.Index,
		Number:         layer.Number,
		Rewritten:      true,
		TargetSections: len(layer.Targets(r.opts.Marker)),
		OtherSections:  len(layer.Others(r.opts.Marker)),
		PreambleLines:  result.preamble,
		DeferredLines:  len(layer.Deferred),
	}

	startE := 0.0
	if e, ok := gcode.LastE(prevEmitted); ok && !cfg.RelativeExtrusion {
		startE = e
	}
	warnings := gcode.CheckMotion(layer.Index, gcode.JoinLines(result.lines), cfg.RelativeExtrusion, start, startE)
	row.Warnings = gcode.FormatMotionWarnings(warnings)
	for _, w := range row.Warnings {
		r.log.Printf("warning: %s", w)
	}

	r.log.Printf("layer %d: %d target and %d other sections, %d preamble lines, %d deferred, z=%g",
		layer.Number, row.TargetSections, row.OtherSections, row.PreambleLines, row.DeferredLines, z)
	return result.lines, row
}
