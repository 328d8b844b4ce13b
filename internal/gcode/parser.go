package gcode

import (
	"strings"
)

// MoveType represents the type of printer head movement.
type MoveType int

const (
	MoveTravel  MoveType = iota // XY motion without extrusion
	MoveExtrude                 // XY motion while extruding
	MoveRetract                 // Extruder-only move withdrawing filament
	MovePrime                   // Extruder-only move re-extending filament
	MoveHopUp                   // Z-only move raising the nozzle
	MoveHopDown                 // Z-only move lowering the nozzle
	MoveOther                   // Anything else (no-op retractions or hops, feedrate-only moves)
)

// GCodeMove represents a single parsed movement from gcode.
type GCodeMove struct {
	Type     MoveType
	Line     int // index of the source line
	FromX    float64
	FromY    float64
	FromZ    float64
	FromE    float64
	ToX      float64
	ToY      float64
	ToZ      float64
	ToE      float64
	FeedRate float64
}

// ParseGCode replays gcode and returns its moves. It tracks absolute XYZ
// position, the extruder register (honouring M82/M83 and G92) and the
// sticky feedrate, and classifies each G0-G3 command. relative selects the
// extrusion mode in effect at the start of code.
func ParseGCode(code string, relative bool) []GCodeMove {
	return ParseGCodeFrom(code, relative, 0)
}

// ParseGCodeFrom is ParseGCode starting from an extruder register of startE.
func ParseGCodeFrom(code string, relative bool, startE float64) []GCodeMove {
	var moves []GCodeMove
	replay(code, relative, func(m GCodeMove) {
		moves = append(moves, m)
	}, withStartE(startE))
	return moves
}

// FinalExtruder returns the extruder register after replaying code from a
// register of start.
func FinalExtruder(code string, relative bool, start float64) float64 {
	st := replay(code, relative, nil, withStartE(start))
	return st.e
}

type replayState struct {
	x, y, z, e, f float64
	relative      bool
}

type replayOption func(*replayState)

func withStartE(e float64) replayOption {
	return func(s *replayState) { s.e = e }
}

func replay(code string, relative bool, emit func(GCodeMove), opts ...replayOption) replayState {
	st := replayState{relative: relative}
	for _, opt := range opts {
		opt(&st)
	}

	for i, raw := range strings.Split(code, "\n") {
		l := Tokenize(strings.TrimSpace(raw))
		switch {
		case l.Command == "M82":
			st.relative = false
			continue
		case l.Command == "M83":
			st.relative = true
			continue
		case l.Kind == KindSetPosition:
			if v, ok := l.Value('X'); ok {
				st.x = v
			}
			if v, ok := l.Value('Y'); ok {
				st.y = v
			}
			if v, ok := l.Value('Z'); ok {
				st.z = v
			}
			if v, ok := l.Value('E'); ok {
				st.e = v
			}
			continue
		case !l.IsMotion():
			continue
		}

		m := GCodeMove{
			Line:     i,
			FromX:    st.x,
			FromY:    st.y,
			FromZ:    st.z,
			FromE:    st.e,
			ToX:      st.x,
			ToY:      st.y,
			ToZ:      st.z,
			ToE:      st.e,
			FeedRate: st.f,
		}
		if v, ok := l.Value('X'); ok {
			m.ToX = v
		}
		if v, ok := l.Value('Y'); ok {
			m.ToY = v
		}
		if v, ok := l.Value('Z'); ok {
			m.ToZ = v
		}
		if v, ok := l.Value('F'); ok {
			m.FeedRate = v
		}
		if v, ok := l.Value('E'); ok {
			if st.relative {
				m.ToE = st.e + v
			} else {
				m.ToE = v
			}
		}

		m.Type = classifyMove(l, m)
		if emit != nil {
			emit(m)
		}
		st.x, st.y, st.z, st.e, st.f = m.ToX, m.ToY, m.ToZ, m.ToE, m.FeedRate
	}
	return st
}

// classifyMove determines the MoveType of a parsed motion line.
func classifyMove(l Line, m GCodeMove) MoveType {
	switch {
	case isExtrusion(l):
		return MoveExtrude
	case isRetraction(l) && m.ToE < m.FromE:
		return MoveRetract
	case isRetraction(l) && m.ToE > m.FromE:
		return MovePrime
	case isHop(l) && m.ToZ > m.FromZ:
		return MoveHopUp
	case isHop(l) && m.ToZ < m.FromZ:
		return MoveHopDown
	case isTravel(l):
		return MoveTravel
	default:
		return MoveOther
	}
}
