package gcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/spoonorder/internal/model"
)

func TestCheckMotion_Clean(t *testing.T) {
	code := `G1 X1 Y1 E10
G1 F2700 E5
G0 X5 Y5
G1 F1500 E10
G1 X6 Y6 E11
`
	warnings := CheckMotion(3, code, false, model.MotionState{}, 0)
	assert.Empty(t, warnings)
}

func TestCheckMotion_RedundantRetraction(t *testing.T) {
	code := `G1 F2700 E5
G1 F2700 E0
`
	warnings := CheckMotion(2, code, false, model.MotionState{}, 10)
	require.Len(t, warnings, 1)
	assert.Equal(t, model.WarnRedundantRetraction, warnings[0].Kind)
	assert.Equal(t, 2, warnings[0].LayerIndex)
	assert.Equal(t, 1, warnings[0].Line)
	assert.Equal(t, "G1 F2700 E0", warnings[0].Text)
}

func TestCheckMotion_PrimeWithoutRetract(t *testing.T) {
	warnings := CheckMotion(0, "G1 F1500 E12\n", false, model.MotionState{}, 10)
	require.Len(t, warnings, 1)
	assert.Equal(t, model.WarnPrimeWithoutRetract, warnings[0].Kind)
}

func TestCheckMotion_StartState(t *testing.T) {
	warnings := CheckMotion(0, "G1 F1500 E10\n", false, model.MotionState{Retracted: true}, 5)
	assert.Empty(t, warnings, "a layer starting retracted may prime")

	warnings = CheckMotion(0, "G1 F2700 E-5\n", true, model.MotionState{Retracted: true}, 0)
	require.Len(t, warnings, 1)
	assert.Equal(t, model.WarnRedundantRetraction, warnings[0].Kind)
}

func TestFormatMotionWarnings(t *testing.T) {
	msgs := FormatMotionWarnings([]model.MotionWarning{
		{LayerIndex: 4, Line: 0, Kind: model.WarnRedundantRetraction, Text: "G1 F2700 E0"},
		{LayerIndex: 4, Line: 6, Kind: model.WarnPrimeWithoutRetract, Text: "G1 F1500 E9"},
	})
	require.Len(t, msgs, 2)
	assert.Equal(t, `block 4 line 1: "G1 F2700 E0" retracts filament that is already retracted`, msgs[0])
	assert.Contains(t, msgs[1], "primes filament that was not retracted")
}

func TestDeduplicateWarnings(t *testing.T) {
	in := []model.MotionWarning{
		{LayerIndex: 1, Line: 2},
		{LayerIndex: 1, Line: 2},
		{LayerIndex: 2, Line: 2},
	}
	assert.Len(t, deduplicateWarnings(in), 2)
}
