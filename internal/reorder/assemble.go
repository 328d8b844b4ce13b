package reorder

import (
	"strings"

	"github.com/piwi3910/spoonorder/internal/gcode"
	"github.com/piwi3910/spoonorder/internal/model"
)

// assembler puts the sections of a prepared layer back together in the
// configured order, with a synthesized travel in front of each body section.
type assembler struct {
	cfg    model.MachineConfig
	gen    *gcode.Generator
	mode   model.ReorderMode
	marker string
}

// assembly is the outcome of reassembling one layer.
type assembly struct {
	lines    []string
	preamble int // synthesized lines inserted
}

// order returns the body sections in emission order for the mode. Targets
// and others each keep their original relative order.
func (a *assembler) order(layer model.Layer) []model.Section {
	targets, others := layer.Targets(a.marker), layer.Others(a.marker)
	if a.mode == model.ModeSpoonsLast {
		return append(others, targets...)
	}
	return append(targets, others...)
}

// headZ is the height the head was last sent to, if any move set one.
type headZ struct {
	z     float64
	known bool
}

// after returns the height the head is left at once lines have run.
func (h headZ) after(lines []string) headZ {
	if z, ok := gcode.ExecutedZ(lines); ok {
		return headZ{z: z, known: true}
	}
	return h
}

// assemble emits the header, the ordered body sections, the deferred
// control commands and the footer. start and z are the state and height the
// head is left in by whatever was emitted before the layer. When
// nextApplicable is true the footer's motion is commented out, because the
// next layer's rewrite starts the head where it needs to be. Otherwise a
// closing correction restores the extruder register and retraction state
// the sliced layer ended with. The correction goes after the last footer
// move but ahead of the footer's closing comments, so the layer still ends
// with its ;TIME_ELAPSED: marker.
func (a *assembler) assemble(layer model.Layer, original []string, start model.MotionState, z headZ, nextApplicable bool) assembly {
	relative := a.cfg.RelativeExtrusion
	var out assembly
	state := start

	header := layer.Header
	header.StartsRetracted, header.StartsHopped = state.Retracted, state.Hopped
	header.HeadZ, header.HasHeadZ = z.z, z.known
	chunk := header.Lines
	if firstExtrusion(header.Lines) >= 0 {
		pre := a.gen.Travel(header)
		out.preamble += len(pre)
		chunk = insertAfterLayerMarker(header.Lines, pre)
	}
	state = gcode.EndStateFrom(chunk, relative, state)
	z = z.after(chunk)
	out.lines = append(out.lines, chunk...)

	for _, s := range a.order(layer) {
		s.StartsRetracted, s.StartsHopped = state.Retracted, state.Hopped
		s.HeadZ, s.HasHeadZ = z.z, z.known
		pre := a.gen.Travel(s)
		out.preamble += len(pre)

		chunk := make([]string, 0, len(pre)+len(s.Lines))
		chunk = append(chunk, pre...)
		chunk = append(chunk, s.Lines...)
		state = gcode.EndStateFrom(chunk, relative, state)
		z = z.after(chunk)
		out.lines = append(out.lines, chunk...)
	}

	out.lines = append(out.lines, layer.Deferred...)

	footerAt := len(out.lines)
	if layer.Footer != nil {
		footer := layer.Footer.Lines
		switch {
		case nextApplicable:
			footer = commentOutMotion(footer)
		case !relative && movesExtruder(footer):
			out.lines = append(out.lines, a.gen.Reset(layer.Footer.StartE))
		}
		state = gcode.EndStateFrom(footer, relative, state)
		out.lines = append(out.lines, footer...)
	}

	if !nextApplicable {
		correction := a.correction(original, state)
		if len(correction) > 0 {
			out.lines = insertBeforeTrailingComments(out.lines, correction, footerAt)
		}
	}
	return out
}

// correction returns the lines that leave the extruder as the sliced layer
// left it, for a layer followed by one that is not rewritten.
func (a *assembler) correction(original []string, emitted model.MotionState) []string {
	relative := a.cfg.RelativeExtrusion
	restoreRetraction := a.cfg.RetractionEnabled &&
		gcode.EndState(original, relative).Retracted && !emitted.Retracted

	if relative {
		if restoreRetraction {
			return []string{a.gen.Retract(0)}
		}
		return nil
	}
	if restoreRetraction {
		if e, ok := gcode.LastENonRetract(original); ok {
			return []string{a.gen.Reset(e), a.gen.Retract(e)}
		}
	}
	if e, ok := gcode.LastE(original); ok {
		return []string{a.gen.Reset(e)}
	}
	return nil
}

// insertAfterLayerMarker returns lines with pre inserted right after the
// layer marker line, or at the front when there is none.
func insertAfterLayerMarker(lines, pre []string) []string {
	at := 0
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), gcode.LayerMarker) {
			at = i + 1
			break
		}
	}
	result := make([]string, 0, len(lines)+len(pre))
	result = append(result, lines[:at]...)
	result = append(result, pre...)
	return append(result, lines[at:]...)
}

// insertBeforeTrailingComments inserts extra ahead of the comment lines that
// end lines, but never before index floor.
func insertBeforeTrailingComments(lines, extra []string, floor int) []string {
	at := len(lines)
	for at > floor && gcode.Tokenize(lines[at-1]).Kind == gcode.KindComment {
		at--
	}
	result := make([]string, 0, len(lines)+len(extra))
	result = append(result, lines[:at]...)
	result = append(result, extra...)
	return append(result, lines[at:]...)
}

// movesExtruder reports whether any executed motion line sets E.
func movesExtruder(lines []string) bool {
	for _, raw := range lines {
		l := gcode.Tokenize(raw)
		if l.IsMotion() && l.Has('E') {
			return true
		}
	}
	return false
}
