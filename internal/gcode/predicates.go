package gcode

import (
	"math"
	"strings"
)

// feedrateTolerance is how close two feedrates must be to count as equal,
// so that "F2700" and "F2700.0" both match a configured 2700.
const feedrateTolerance = 1e-6

// ExtractParam finds the first occurrence of key in line and parses the
// numeric run that follows it. It reports false when key is missing, only
// appears inside a comment, or is not followed by a number.
func ExtractParam(line, key string) (float64, bool) {
	if key == "" {
		return 0, false
	}
	idx := strings.Index(line, key)
	if idx < 0 {
		return 0, false
	}
	if c := strings.IndexByte(line, ';'); c >= 0 && c < idx {
		return 0, false
	}
	return parseNumber(line[idx+len(key):])
}

// IsRetractionMove reports whether line is a G1 that only moves the extruder:
// it has an E parameter and no X, Y or Z. Retractions and primes both match.
func IsRetractionMove(line string) bool {
	return isRetraction(Tokenize(line))
}

// IsRetractionMoveAt is IsRetractionMove restricted to moves whose feedrate
// equals speed.
func IsRetractionMoveAt(line string, speed float64) bool {
	l := Tokenize(line)
	return isRetraction(l) && feedrateIs(l, speed)
}

// IsHopMove reports whether line is a G1 that only moves Z: it has a Z
// parameter and no E, X or Y. Hops up and down both match.
func IsHopMove(line string) bool {
	return isHop(Tokenize(line))
}

// IsHopMoveAt is IsHopMove restricted to moves whose feedrate equals speed.
func IsHopMoveAt(line string, speed float64) bool {
	l := Tokenize(line)
	return isHop(l) && feedrateIs(l, speed)
}

// IsExtrusionMove reports whether line is a G1/G2/G3 that extrudes while
// moving in X or Y.
func IsExtrusionMove(line string) bool {
	return isExtrusion(Tokenize(line))
}

// IsTravelMove reports whether line moves the head in X or Y without
// extruding.
func IsTravelMove(line string) bool {
	return isTravel(Tokenize(line))
}

func isRetraction(l Line) bool {
	return l.Kind == KindLinear && l.Has('E') && !l.Has('X') && !l.Has('Y') && !l.Has('Z')
}

func isHop(l Line) bool {
	return l.Kind == KindLinear && l.Has('Z') && !l.Has('E') && !l.Has('X') && !l.Has('Y')
}

func isExtrusion(l Line) bool {
	return (l.Kind == KindLinear || l.Kind == KindArc) && l.Has('E') && (l.Has('X') || l.Has('Y'))
}

func isTravel(l Line) bool {
	return l.IsMotion() && !l.Has('E') && (l.Has('X') || l.Has('Y'))
}

func feedrateIs(l Line, speed float64) bool {
	f, ok := l.Value('F')
	return ok && math.Abs(f-speed) < feedrateTolerance
}

// IsRetraction decides whether an extruder-only move withdraws filament
// (true) or primes it (false). prevE is the extruder register before the
// move and is only consulted in absolute mode.
func IsRetraction(line string, prevE float64, hasPrev, relative bool) bool {
	l := Tokenize(line)
	e, ok := l.Value('E')
	if !ok {
		return false
	}
	if relative || !hasPrev {
		return e < 0
	}
	return e < prevE
}

// HasCommand reports whether line issues one of the given commands, e.g.
// "M104". Comments never match.
func HasCommand(line string, commands []string) bool {
	l := Tokenize(line)
	if l.Command == "" {
		return false
	}
	for _, c := range commands {
		if l.Command == normalizeCommand(c) {
			return true
		}
	}
	return false
}
