package model

import (
	"fmt"
	"strings"
)

// ReorderMode selects where target sections go within each layer.
type ReorderMode string

const (
	ModeUnchanged   ReorderMode = "unchanged"    // Leave every layer as sliced
	ModeSpoonsFirst ReorderMode = "spoons-first" // Target sections before all others
	ModeSpoonsLast  ReorderMode = "spoons-last"  // Target sections after all others
)

// ParseReorderMode converts a user supplied mode name into a ReorderMode.
func ParseReorderMode(s string) (ReorderMode, error) {
	switch ReorderMode(s) {
	case ModeUnchanged, ModeSpoonsFirst, ModeSpoonsLast:
		return ReorderMode(s), nil
	case "first":
		return ModeSpoonsFirst, nil
	case "last":
		return ModeSpoonsLast, nil
	}
	return "", fmt.Errorf("unknown reorder mode %q (want %s, %s or %s)",
		s, ModeSpoonsFirst, ModeSpoonsLast, ModeUnchanged)
}

// DefaultTargetMarker is the mesh name fragment the helper-mesh tool gives
// every spoon it creates.
const DefaultTargetMarker = "SpoonTab"

// MotionState is the retraction and Z-hop state of the head at a point in
// the gcode stream.
type MotionState struct {
	Retracted bool
	Hopped    bool
}

// Section is one contiguous run of lines of a layer, from one delimiter
// marker up to the next, together with the motion state derived for it.
// Sections are values: the deriver and filter return modified copies.
type Section struct {
	Lines    []string
	Name     string
	IsHeader bool
	IsFooter bool

	LayerIndex     int // index of the layer block within the plate
	StartLineIndex int // index of the section's first line within its layer

	StartX float64
	StartY float64
	StartZ float64
	StartE float64

	HasOwnLeadingTravel     bool
	HasOwnLeadingRetraction bool
	HasOwnLeadingHopUp      bool
	HasOwnLeadingHopDown    bool
	HasOwnLeadingPrime      bool

	// Set during reassembly from whatever is emitted ahead of the section.
	StartsRetracted bool
	StartsHopped    bool
	HeadZ           float64 // height the head is left at before the section
	HasHeadZ        bool

	// EndE, EndsRetracted and EndsHopped describe the section as sliced and
	// are kept for reports and tests. Reassembly recomputes the running
	// state from the emitted lines, preambles included.
	EndE          float64
	EndsRetracted bool
	EndsHopped    bool
}

// IsTarget reports whether the section is a reorderable helper-mesh section.
func (s Section) IsTarget(marker string) bool {
	return !s.IsHeader && !s.IsFooter && marker != "" && strings.Contains(s.Name, marker)
}

// Layer is one layer block split into sections, plus the control commands
// that are held back until the layer's motion has been emitted.
type Layer struct {
	Index    int // block index within the plate
	Number   int // value of the ;LAYER: marker
	Header   Section
	Body     []Section
	Footer   *Section
	Deferred []string
}

// Targets returns the body sections whose name contains marker, in order.
func (l Layer) Targets(marker string) []Section {
	var result []Section
	for _, s := range l.Body {
		if s.IsTarget(marker) {
			result = append(result, s)
		}
	}
	return result
}

// Others returns the body sections that are not targets, in order.
func (l Layer) Others(marker string) []Section {
	var result []Section
	for _, s := range l.Body {
		if !s.IsTarget(marker) {
			result = append(result, s)
		}
	}
	return result
}
