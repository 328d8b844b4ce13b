package gcode

import (
	"strconv"
	"strings"
)

// Markers the slicer writes into sliced gcode.
const (
	LayerMarker   = ";LAYER:"
	MeshMarker    = ";MESH:"
	TypeMarker    = ";TYPE:"
	TimeMarker    = ";TIME_"
	ElapsedMarker = ";TIME_ELAPSED:"
	NonMeshName   = "NONMESH"
)

// SplitPlate divides a sliced gcode file into blocks: the start block
// (everything before the first layer marker), one block per layer, and an
// end block holding whatever follows the last layer's final elapsed-time
// marker. Concatenating the blocks gives back code unchanged.
func SplitPlate(code string) []string {
	if code == "" {
		return nil
	}
	lines := strings.SplitAfter(code, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	var blocks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			blocks = append(blocks, cur.String())
			cur.Reset()
		}
	}

	lastLayerStart := -1
	for i, line := range lines {
		if strings.HasPrefix(line, LayerMarker) {
			lastLayerStart = i
		}
	}
	endStart := len(lines)
	if lastLayerStart >= 0 {
		for i := len(lines) - 1; i > lastLayerStart; i-- {
			if strings.HasPrefix(lines[i], ElapsedMarker) {
				endStart = i + 1
				break
			}
		}
	}

	for i, line := range lines {
		if strings.HasPrefix(line, LayerMarker) || i == endStart {
			flush()
		}
		cur.WriteString(line)
	}
	flush()
	return blocks
}

// JoinPlate concatenates plate blocks back into a single gcode text.
func JoinPlate(blocks []string) string {
	return strings.Join(blocks, "")
}

// SplitLines splits a block into lines without their terminators. A
// trailing newline does not produce an empty last line.
func SplitLines(block string) []string {
	if block == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(block, "\n"), "\n")
}

// JoinLines joins lines into a newline-terminated block.
func JoinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// LayerNumber returns the value of the first layer marker in lines.
func LayerNumber(lines []string) (int, bool) {
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, LayerMarker) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(trimmed[len(LayerMarker):]))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
