package gcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractParam(t *testing.T) {
	tests := []struct {
		name string
		line string
		key  string
		want float64
		ok   bool
	}{
		{"integer", "G1 X100 Y20", "X", 100, true},
		{"float", "G1 X1.5 Y20", "X", 1.5, true},
		{"negative", "G1 F2700 E-5", "E", -5, true},
		{"missing", "G1 X100", "Y", 0, false},
		{"only in comment", "G1 X100 ; Y20", "Y", 0, false},
		{"before comment", "G1 Y20 ; note", "Y", 20, true},
		{"non numeric", "G1 Xabc", "X", 0, false},
		{"commented line", ";G1 X10", "X", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractParam(tt.line, tt.key)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestIsRetractionMove(t *testing.T) {
	assert.True(t, IsRetractionMove("G1 F2700 E95"))
	assert.True(t, IsRetractionMove("G1 E-5"))
	assert.False(t, IsRetractionMove("G0 F2700 E95"), "must be a controlled linear move")
	assert.False(t, IsRetractionMove("G1 F2700 X1 E95"))
	assert.False(t, IsRetractionMove("G1 F2700 Z1 E95"))
	assert.False(t, IsRetractionMove("G1 F2700"))
	assert.False(t, IsRetractionMove("; G1 E5"))
}

func TestIsRetractionMoveAt_SpeedTolerance(t *testing.T) {
	assert.True(t, IsRetractionMoveAt("G1 F2700 E95", 2700))
	assert.True(t, IsRetractionMoveAt("G1 F2700.0 E95", 2700))
	assert.True(t, IsRetractionMoveAt("G1 F1500.5 E95", 1500.5))
	assert.False(t, IsRetractionMoveAt("G1 F27000 E95", 2700))
	assert.False(t, IsRetractionMoveAt("G1 E95", 2700), "no feedrate cannot match a speed")
}

func TestIsHopMove(t *testing.T) {
	assert.True(t, IsHopMove("G1 F600 Z0.6"))
	assert.True(t, IsHopMoveAt("G1 F600 Z0.6", 600))
	assert.True(t, IsHopMoveAt("G1 F600.0 Z0.2", 600))
	assert.False(t, IsHopMoveAt("G1 F300 Z0.6", 600))
	assert.False(t, IsHopMove("G1 F600 X1 Z0.6"))
	assert.False(t, IsHopMove("G1 F600 Z0.6 E1"))
	assert.False(t, IsHopMove("G0 F600 Z0.6"))
}

func TestIsExtrusionMove(t *testing.T) {
	assert.True(t, IsExtrusionMove("G1 X10 Y10 E5"))
	assert.True(t, IsExtrusionMove("G1 X10 E5"))
	assert.True(t, IsExtrusionMove("G2 X10 Y10 I1 J0 E5"))
	assert.False(t, IsExtrusionMove("G1 X10 Y10"))
	assert.False(t, IsExtrusionMove("G1 E5"))
	assert.False(t, IsExtrusionMove(";G1 X10 Y10 E5"))
}

func TestIsTravelMove(t *testing.T) {
	assert.True(t, IsTravelMove("G0 F9000 X10 Y10"))
	assert.True(t, IsTravelMove("G1 X10 Y10"))
	assert.True(t, IsTravelMove("G3 X10 Y10 I1 J1"))
	assert.False(t, IsTravelMove("G0 Z5"))
	assert.False(t, IsTravelMove("G1 X10 Y10 E5"))
}

func TestIsRetraction(t *testing.T) {
	// absolute: direction against the previous register value
	assert.True(t, IsRetraction("G1 F2700 E95", 100, true, false))
	assert.False(t, IsRetraction("G1 F2700 E100", 95, true, false))
	// absolute without history falls back to the sign
	assert.True(t, IsRetraction("G1 F2700 E-5", 0, false, false))
	// relative: sign of the delta
	assert.True(t, IsRetraction("G1 F2700 E-0.8", 0, false, true))
	assert.False(t, IsRetraction("G1 F2700 E0.8", 100, true, true))
	assert.False(t, IsRetraction("G1 F2700", 0, false, false))
}

func TestHasCommand(t *testing.T) {
	cmds := []string{"M104", "M109", "M140"}
	assert.True(t, HasCommand("M104 S200", cmds))
	assert.True(t, HasCommand("m140 S60 ; bed", cmds))
	assert.False(t, HasCommand("M1040 S200", cmds))
	assert.False(t, HasCommand(";M104 S200", cmds))
	assert.False(t, HasCommand("M106 S255", cmds))
}
