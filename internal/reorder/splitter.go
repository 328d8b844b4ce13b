package reorder

import (
	"strconv"
	"strings"

	"github.com/piwi3910/spoonorder/internal/gcode"
	"github.com/piwi3910/spoonorder/internal/model"
)

// Split divides one layer's lines into sections. The header runs from the
// start of the layer to the first mesh marker. Each mesh marker opens a new
// body section, except a NONMESH marker that is followed by another NONMESH
// marker later in the layer, which opens the footer. A time marker opens the
// footer when there is none yet; once the footer is open every remaining line
// belongs to it. Lines issuing one of the deferred commands are pulled out of
// whatever section they appear in.
//
// ok is false when the layer has no layer marker, no footer or no body
// section whose name contains marker; such layers are passed through
// untouched.
func Split(index int, lines []string, marker string, deferred []string) (layer model.Layer, ok bool) {
	number, found := gcode.LayerNumber(lines)
	if !found {
		return model.Layer{}, false
	}
	layer = model.Layer{Index: index, Number: number}

	var sections []model.Section
	cur := model.Section{IsHeader: true, LayerIndex: index, Name: "LAYER:" + strconv.Itoa(number)}
	inFooter := false

	open := func(at int, name string, footer bool) {
		sections = append(sections, cur)
		cur = model.Section{Name: name, IsFooter: footer, LayerIndex: index, StartLineIndex: at}
	}

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !inFooter {
			switch {
			case strings.HasPrefix(trimmed, gcode.MeshMarker):
				name := strings.TrimPrefix(trimmed, ";")
				footer := strings.Contains(trimmed, gcode.NonMeshName) && anotherNonMesh(lines[i+1:])
				open(i, name, footer)
				inFooter = footer
			case strings.HasPrefix(trimmed, gcode.TimeMarker):
				open(i, strings.TrimPrefix(trimmed, ";"), true)
				inFooter = true
			}
		}
		if gcode.HasCommand(line, deferred) {
			layer.Deferred = append(layer.Deferred, line)
			continue
		}
		cur.Lines = append(cur.Lines, line)
	}
	sections = append(sections, cur)
	carryTypeMarkers(sections)

	layer.Header = sections[0]
	for _, s := range sections[1:] {
		if s.IsFooter {
			footer := s
			layer.Footer = &footer
			continue
		}
		layer.Body = append(layer.Body, s)
	}
	return layer, layer.Footer != nil && len(layer.Targets(marker)) > 0
}

func anotherNonMesh(lines []string) bool {
	for _, line := range lines {
		if strings.Contains(line, gcode.NonMeshName) {
			return true
		}
	}
	return false
}

// carryTypeMarkers moves a feature-type comment that ends a section to just
// after the marker line of the section that follows it, so each section
// keeps the annotation for the feature it prints once reordered.
func carryTypeMarkers(sections []model.Section) {
	for i := 1; i < len(sections); i++ {
		prev := &sections[i-1]
		n := len(prev.Lines)
		if n == 0 || !strings.HasPrefix(strings.TrimSpace(prev.Lines[n-1]), gcode.TypeMarker) {
			continue
		}
		typeLine := prev.Lines[n-1]
		prev.Lines = prev.Lines[:n-1]

		next := sections[i].Lines
		at := min(1, len(next))
		lines := make([]string, 0, len(next)+1)
		lines = append(lines, next[:at]...)
		lines = append(lines, typeLine)
		sections[i].Lines = append(lines, next[at:]...)
	}
}
