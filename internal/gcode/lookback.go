package gcode

import (
	"math"

	"github.com/piwi3910/spoonorder/internal/model"
)

// LastXY scans lines backwards and returns the most recent X and Y values
// found on moves, including moves that were commented out. Both axes must be
// found for the result to be valid.
func LastXY(lines []string) (x, y float64, ok bool) {
	var haveX, haveY bool
	for i := len(lines) - 1; i >= 0; i-- {
		l := Tokenize(Uncomment(lines[i]))
		if !l.IsMotion() {
			continue
		}
		if !haveX {
			x, haveX = l.Value('X')
		}
		if !haveY {
			y, haveY = l.Value('Y')
		}
		if haveX && haveY {
			return x, y, true
		}
	}
	return 0, 0, false
}

// LeadingXY returns the position reached by the travel moves at the start of
// lines, before anything extrudes or moves with a controlled XY feed.
func LeadingXY(lines []string) (x, y float64, ok bool) {
	var haveX, haveY bool
	for _, raw := range lines {
		l := Tokenize(raw)
		if isExtrusion(l) {
			break
		}
		if !isTravel(l) {
			continue
		}
		if v, found := l.Value('X'); found {
			x, haveX = v, true
		}
		if v, found := l.Value('Y'); found {
			y, haveY = v, true
		}
	}
	if haveX && haveY {
		return x, y, true
	}
	return 0, 0, false
}

// FirstXY returns the destination of the first move in lines that sets
// both X and Y.
func FirstXY(lines []string) (x, y float64, ok bool) {
	for _, raw := range lines {
		l := Tokenize(raw)
		if !l.IsMotion() {
			continue
		}
		x, okX := l.Value('X')
		y, okY := l.Value('Y')
		if okX && okY {
			return x, y, true
		}
	}
	return 0, 0, false
}

// LastZ returns the most recent Z value on a move, including commented-out moves.
func LastZ(lines []string) (float64, bool) {
	for i := len(lines) - 1; i >= 0; i-- {
		l := Tokenize(Uncomment(lines[i]))
		if !l.IsMotion() {
			continue
		}
		if z, ok := l.Value('Z'); ok {
			return z, true
		}
	}
	return 0, false
}

// MinZ returns the lowest Z value any move in lines goes to, including
// commented-out moves. Hops raise Z, so the minimum is the layer height.
func MinZ(lines []string) (float64, bool) {
	minZ := math.Inf(1)
	for _, raw := range lines {
		l := Tokenize(Uncomment(raw))
		if !l.IsMotion() {
			continue
		}
		if z, ok := l.Value('Z'); ok && z < minZ {
			minZ = z
		}
	}
	if math.IsInf(minZ, 1) {
		return 0, false
	}
	return minZ, true
}

// LastE returns the most recent extruder register value set by a move or a
// G92 in lines.
func LastE(lines []string) (float64, bool) {
	for i := len(lines) - 1; i >= 0; i-- {
		if e, ok := registerE(Tokenize(lines[i])); ok {
			return e, true
		}
	}
	return 0, false
}

// LastENonRetract is LastE ignoring extruder-only moves, so the value is the
// register as it stood after the last real extrusion, travel or reset.
func LastENonRetract(lines []string) (float64, bool) {
	for i := len(lines) - 1; i >= 0; i-- {
		l := Tokenize(lines[i])
		if isRetraction(l) {
			continue
		}
		if e, ok := registerE(l); ok {
			return e, true
		}
	}
	return 0, false
}

func registerE(l Line) (float64, bool) {
	if !l.IsMotion() && l.Kind != KindSetPosition {
		return 0, false
	}
	return l.Value('E')
}

// EndState scans lines backwards and reports whether the filament is left
// retracted and the nozzle left hopped. Each state is decided by the nearest
// relevant move: an extrusion clears both, an extruder-only move sets the
// retraction state by its direction, and a Z-only move sets the hop state by
// its direction. Commented-out moves never executed and are ignored.
func EndState(lines []string, relative bool) model.MotionState {
	return EndStateFrom(lines, relative, model.MotionState{})
}

// EndStateFrom is EndState for lines that run after the head was left in
// start. A state nothing in lines decides is carried over from start.
func EndStateFrom(lines []string, relative bool, start model.MotionState) model.MotionState {
	st := start
	if v, ok := endsRetracted(lines, relative); ok {
		st.Retracted = v
	}
	if v, ok := endsHopped(lines); ok {
		st.Hopped = v
	}
	return st
}

func endsRetracted(lines []string, relative bool) (retracted, decided bool) {
	for i := len(lines) - 1; i >= 0; i-- {
		l := Tokenize(lines[i])
		if isExtrusion(l) {
			return false, true
		}
		if isRetraction(l) {
			prevE, hasPrev := LastE(lines[:i])
			return IsRetraction(lines[i], prevE, hasPrev, relative), true
		}
	}
	return false, false
}

func endsHopped(lines []string) (hopped, decided bool) {
	for i := len(lines) - 1; i >= 0; i-- {
		l := Tokenize(lines[i])
		if isExtrusion(l) {
			return false, true
		}
		if !l.IsMotion() || !l.Has('Z') {
			continue
		}
		if !isHop(l) {
			// A travel that also sets Z is a layer change, not a hop.
			return false, true
		}
		z, _ := l.Value('Z')
		prevZ, ok := ExecutedZ(lines[:i])
		if !ok {
			return false, false
		}
		return z > prevZ, true
	}
	return false, false
}

// ExecutedZ returns the most recent Z value on a move that runs, ignoring
// commented-out moves. It is the height the head is left at.
func ExecutedZ(lines []string) (float64, bool) {
	for i := len(lines) - 1; i >= 0; i-- {
		l := Tokenize(lines[i])
		if !l.IsMotion() {
			continue
		}
		if z, ok := l.Value('Z'); ok {
			return z, true
		}
	}
	return 0, false
}
