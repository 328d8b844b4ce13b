package reorder

import (
	"github.com/piwi3910/spoonorder/internal/gcode"
	"github.com/piwi3910/spoonorder/internal/model"
)

// trimTrailing drops hop, retraction and prime moves that come after the
// last extrusion of a section. The preamble of whichever section runs next
// regenerates them in the right order. Only moves at the configured hop,
// retraction or prime feedrate are dropped, and only for features that are
// enabled. Every other line stays where it is.
func trimTrailing(lines []string, cfg model.MachineConfig) []string {
	last := -1
	for i, line := range lines {
		if gcode.IsExtrusionMove(line) {
			last = i
		}
	}

	result := make([]string, 0, len(lines))
	for i, line := range lines {
		if i > last && isTrailingMove(line, cfg) {
			continue
		}
		result = append(result, line)
	}
	return result
}

func isTrailingMove(line string, cfg model.MachineConfig) bool {
	if cfg.HopEnabled && gcode.IsHopMoveAt(line, cfg.HopFeedrate) {
		return true
	}
	if cfg.RetractionEnabled &&
		(gcode.IsRetractionMoveAt(line, cfg.RetractFeedrate) || gcode.IsRetractionMoveAt(line, cfg.PrimeFeedrate)) {
		return true
	}
	return false
}

// firstExtrusion returns the index of the first extrusion move in lines,
// or -1 when there is none.
func firstExtrusion(lines []string) int {
	for i, line := range lines {
		if gcode.IsExtrusionMove(line) {
			return i
		}
	}
	return -1
}

// collapseLeadingTravel keeps only the travel move closest to the first
// extrusion when a section opens with several travel moves. The others are
// combing moves the preamble makes redundant.
func collapseLeadingTravel(lines []string) []string {
	first := firstExtrusion(lines)
	if first < 0 {
		return lines
	}
	keep := -1
	travels := 0
	for i, line := range lines[:first] {
		if gcode.IsTravelMove(line) {
			keep = i
			travels++
		}
	}
	if travels <= 1 {
		return lines
	}

	result := make([]string, 0, len(lines)-travels+1)
	for i, line := range lines {
		if i < first && i != keep && gcode.IsTravelMove(line) {
			continue
		}
		result = append(result, line)
	}
	return result
}

// commentOutMotion disables every motion line. The coordinates stay in the
// text for later lookback.
func commentOutMotion(lines []string) []string {
	result := make([]string, len(lines))
	for i, line := range lines {
		result[i] = gcode.CommentOut(line)
	}
	return result
}
