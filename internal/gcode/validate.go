package gcode

import (
	"fmt"
	"strings"

	"github.com/piwi3910/spoonorder/internal/model"
)

// CheckMotion replays one layer block of rewritten gcode and reports
// filament moves that contradict the retraction state: a retraction while
// the filament is already retracted, or a prime while it is not. start is
// the state the layer begins in and startE its extruder register. Findings
// are advisory; they never make the rewrite fail.
func CheckMotion(layerIndex int, code string, relative bool, start model.MotionState, startE float64) []model.MotionWarning {
	lines := strings.Split(code, "\n")
	retracted := start.Retracted

	var warnings []model.MotionWarning
	for _, m := range ParseGCodeFrom(code, relative, startE) {
		switch m.Type {
		case MoveRetract:
			if retracted {
				warnings = append(warnings, model.MotionWarning{
					LayerIndex: layerIndex,
					Line:       m.Line,
					Kind:       model.WarnRedundantRetraction,
					Text:       strings.TrimSpace(lines[m.Line]),
				})
			}
			retracted = true
		case MovePrime:
			if !retracted {
				warnings = append(warnings, model.MotionWarning{
					LayerIndex: layerIndex,
					Line:       m.Line,
					Kind:       model.WarnPrimeWithoutRetract,
					Text:       strings.TrimSpace(lines[m.Line]),
				})
			}
			retracted = false
		case MoveExtrude:
			retracted = false
		}
	}
	return deduplicateWarnings(warnings)
}

// deduplicateWarnings keeps at most one warning per (layer, line) pair.
func deduplicateWarnings(warnings []model.MotionWarning) []model.MotionWarning {
	type key struct {
		layer int
		line  int
	}
	seen := make(map[key]bool)
	var result []model.MotionWarning

	for _, w := range warnings {
		k := key{w.LayerIndex, w.Line}
		if !seen[k] {
			seen[k] = true
			result = append(result, w)
		}
	}
	return result
}

// FormatMotionWarnings produces human-readable warning messages.
func FormatMotionWarnings(warnings []model.MotionWarning) []string {
	var messages []string
	for _, w := range warnings {
		var what string
		switch w.Kind {
		case model.WarnRedundantRetraction:
			what = "retracts filament that is already retracted"
		case model.WarnPrimeWithoutRetract:
			what = "primes filament that was not retracted"
		default:
			what = w.Kind
		}
		messages = append(messages, fmt.Sprintf("block %d line %d: %q %s", w.LayerIndex, w.Line+1, w.Text, what))
	}
	return messages
}
