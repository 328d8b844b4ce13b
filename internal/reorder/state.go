package reorder

import (
	"github.com/piwi3910/spoonorder/internal/gcode"
	"github.com/piwi3910/spoonorder/internal/model"
)

// zTolerance separates a hop back down to layer height from a hop up.
const zTolerance = 1e-6

// layerContext is what the deriver may look back into while it works on
// the sections of one layer. Both line slices are the text as sliced, never
// the rewritten text.
type layerContext struct {
	cfg   model.MachineConfig
	lines []string // the current layer
	prev  []string // the layer before it
	z     float64  // height every section of the layer starts at
}

// layerZ resolves the height of a layer. The first layer processed uses the
// configured initial layer height when it is layer 0. Otherwise the lowest Z
// any move in the layer goes to is the layer height, falling back to the
// last Z of the previous layer.
func layerZ(number int, firstProcessed bool, lines, prev []string, cfg model.MachineConfig) (float64, bool) {
	if firstProcessed && number == 0 && cfg.InitialLayerHeight > 0 {
		return cfg.InitialLayerHeight, true
	}
	if z, ok := gcode.MinZ(lines); ok {
		return z, true
	}
	if z, ok := gcode.LastZ(prev); ok {
		return z, true
	}
	return 0, false
}

// prepareSection trims a section's trailing moves, derives its start state
// and collapses its leading travel moves.
func prepareSection(s model.Section, ctx layerContext) model.Section {
	s.Lines = trimTrailing(s.Lines, ctx.cfg)
	s = derive(s, ctx)
	if !s.IsFooter {
		s.Lines = collapseLeadingTravel(s.Lines)
	}
	return s
}

// derive fills in the position, extruder register, end state and
// self-sufficiency flags of s. The retraction and hop state s starts in
// depends on what is emitted before it and is set during reassembly.
func derive(s model.Section, ctx layerContext) model.Section {
	s.StartZ = ctx.z
	s.StartX, s.StartY = startXY(s, ctx)
	if !ctx.cfg.RelativeExtrusion {
		s.StartE = startE(s, ctx)
		s.EndE = s.StartE
		if e, ok := gcode.LastENonRetract(s.Lines); ok {
			s.EndE = e
		}
	}
	end := gcode.EndState(s.Lines, ctx.cfg.RelativeExtrusion)
	s.EndsRetracted, s.EndsHopped = end.Retracted, end.Hopped
	return ownLeading(s, ctx.cfg)
}

func startXY(s model.Section, ctx layerContext) (float64, float64) {
	if x, y, ok := gcode.LeadingXY(s.Lines); ok {
		return x, y
	}
	if x, y, ok := gcode.FirstXY(s.Lines); ok {
		return x, y
	}
	if !s.IsHeader {
		if x, y, ok := gcode.LastXY(before(ctx.lines, s.StartLineIndex)); ok {
			return x, y
		}
	}
	if x, y, ok := gcode.LastXY(ctx.prev); ok {
		return x, y
	}
	return 0, 0
}

func startE(s model.Section, ctx layerContext) float64 {
	if e, ok := gcode.LastENonRetract(before(ctx.lines, s.StartLineIndex)); ok {
		return e
	}
	if e, ok := gcode.LastENonRetract(ctx.prev); ok {
		return e
	}
	return 0
}

func before(lines []string, idx int) []string {
	return lines[:max(0, min(idx, len(lines)))]
}

// ownLeading inspects the lines before the first extrusion for travel, hop
// and filament moves the section already makes itself. Sections that never
// extrude have no leading lines.
func ownLeading(s model.Section, cfg model.MachineConfig) model.Section {
	first := firstExtrusion(s.Lines)
	if first < 0 {
		return s
	}
	lead := s.Lines[:first]

	e := s.StartE
	lastTravel := ""
	for _, raw := range lead {
		l := gcode.Tokenize(raw)
		switch {
		case gcode.IsTravelMove(raw):
			lastTravel = raw
		case gcode.IsRetractionMove(raw):
			if gcode.IsRetraction(raw, e, true, cfg.RelativeExtrusion) {
				s.HasOwnLeadingRetraction = true
			} else {
				s.HasOwnLeadingPrime = true
			}
			v, _ := l.Value('E')
			if cfg.RelativeExtrusion {
				e += v
			} else {
				e = v
			}
		case gcode.IsHopMove(raw):
			z, _ := l.Value('Z')
			if z > s.StartZ+zTolerance {
				s.HasOwnLeadingHopUp = true
			} else {
				s.HasOwnLeadingHopDown = true
			}
		case l.Kind == gcode.KindSetPosition:
			if v, ok := l.Value('E'); ok {
				e = v
			}
		}
	}
	if lastTravel != "" {
		t := gcode.Tokenize(lastTravel)
		s.HasOwnLeadingTravel = t.Has('X') && t.Has('Y')
	}
	return s
}
