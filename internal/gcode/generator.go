package gcode

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/piwi3910/spoonorder/internal/model"
)

// Marker comments written into rewritten gcode.
const (
	TravelMarker = ";SPOONORDER:TRAVEL"
	ResetMarker  = "SPOONORDER:RESET"
)

// zTolerance is how far apart two heights must be to need a Z move.
const zTolerance = 1e-6

// Decimal places used when formatting synthesized moves.
const (
	xyPlaces = 3
	zPlaces  = 2
	ePlaces  = 5
)

// Generator produces the motion commands the rewriter inserts between
// reordered sections.
type Generator struct {
	Config model.MachineConfig
}

func New(cfg model.MachineConfig) *Generator {
	return &Generator{Config: cfg}
}

// Travel returns the preamble that takes the head from wherever the previous
// section left it to the start of s. Steps run in a fixed order: reset the
// extruder register, retract, hop up, travel, hop down, prime. With hops
// disabled, a head left at another height than s.StartZ is first moved to
// it at the maximum Z feedrate, so the section never prints at the height
// of the layer below. Steps whose
// effect is already present, either because of the state s starts in or
// because s performs the step itself, are left out. The first line is
// always TravelMarker.
func (g *Generator) Travel(s model.Section) []string {
	c := g.Config
	lines := []string{TravelMarker}

	e := s.StartE
	if c.RelativeExtrusion {
		e = 0
	}

	ownFilament := s.HasOwnLeadingRetraction && s.HasOwnLeadingPrime
	ownHop := s.HasOwnLeadingHopUp && s.HasOwnLeadingHopDown
	retract := c.RetractionEnabled && !s.StartsRetracted && !ownFilament
	hopUp := c.HopEnabled && !s.StartsHopped && !ownHop
	hopDown := c.HopEnabled && !s.HasOwnLeadingHopDown
	// Without its own hop-down a section's own travel would run at layer
	// height, so the preamble travels at hop height instead.
	travel := !s.HasOwnLeadingTravel || (c.HopEnabled && !s.HasOwnLeadingHopDown)
	prime := c.RetractionEnabled && !s.HasOwnLeadingPrime
	moveZ := !c.HopEnabled && s.HasHeadZ && math.Abs(s.HeadZ-s.StartZ) > zTolerance

	if !c.RelativeExtrusion {
		reset := e
		if s.StartsRetracted {
			reset = e - c.RetractionLength
		}
		lines = append(lines, "G92 E"+format(reset, ePlaces))
	}
	if retract {
		lines = append(lines, fmt.Sprintf("G1 F%s E%s", format(c.RetractFeedrate, 0), format(e-c.RetractionLength, ePlaces)))
	}
	if hopUp {
		lines = append(lines, fmt.Sprintf("G1 F%s Z%s", format(c.HopFeedrate, 0), format(s.StartZ+c.HopHeight, zPlaces)))
	}
	if moveZ {
		lines = append(lines, g.moveZ(s.StartZ))
	}
	if travel {
		lines = append(lines, fmt.Sprintf("G0 F%s X%s Y%s", format(c.TravelFeedrate, 0), format(s.StartX, xyPlaces), format(s.StartY, xyPlaces)))
	}
	if hopDown {
		lines = append(lines, fmt.Sprintf("G1 F%s Z%s", format(c.HopFeedrate, 0), format(s.StartZ, zPlaces)))
	}
	if prime {
		primeE := e
		if c.RelativeExtrusion {
			primeE = c.RetractionLength
		}
		lines = append(lines, fmt.Sprintf("G1 F%s E%s", format(c.PrimeFeedrate, 0), format(primeE, ePlaces)))
	}
	return lines
}

// moveZ returns a Z-only move to z at the maximum Z feedrate. A profile
// without one leaves the feedrate to the firmware.
func (g *Generator) moveZ(z float64) string {
	if g.Config.MaxZFeedrate <= 0 {
		return "G1 Z" + format(z, zPlaces)
	}
	return fmt.Sprintf("G1 F%s Z%s", format(g.Config.MaxZFeedrate, 0), format(z, zPlaces))
}

// Reset returns a G92 line setting the extruder register to e.
func (g *Generator) Reset(e float64) string {
	return fmt.Sprintf("G92 E%s ;%s", format(e, ePlaces), ResetMarker)
}

// Retract returns a retraction from register e. In relative mode e is ignored.
func (g *Generator) Retract(e float64) string {
	target := e - g.Config.RetractionLength
	if g.Config.RelativeExtrusion {
		target = -g.Config.RetractionLength
	}
	return fmt.Sprintf("G1 F%s E%s", format(g.Config.RetractFeedrate, 0), format(target, ePlaces))
}

// IsSynthesized reports whether line was written by a Generator.
func IsSynthesized(line string) bool {
	return line == TravelMarker || strings.HasSuffix(line, ";"+ResetMarker)
}

// format rounds v to the given decimal places and drops trailing zeros.
func format(v float64, places int) string {
	p := math.Pow(10, float64(places))
	r := math.Round(v*p) / p
	if r == 0 {
		r = 0 // no "-0"
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
