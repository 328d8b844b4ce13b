package model

import (
	"time"

	"github.com/google/uuid"
)

// LayerReport summarises what the rewriter did with one layer block.
type LayerReport struct {
	Index          int      `json:"index"`        // block index within the plate
	Number         int      `json:"layer_number"` // ;LAYER: value, -1 when the block has none
	Rewritten      bool     `json:"rewritten"`
	TargetSections int      `json:"target_sections"`
	OtherSections  int      `json:"other_sections"`
	PreambleLines  int      `json:"preamble_lines"` // synthesized travel lines added
	DeferredLines  int      `json:"deferred_lines"` // control commands moved to the layer end
	Warnings       []string `json:"warnings,omitempty"`
}

// Report is the outcome of one rewrite pass over a plate.
type Report struct {
	JobID     string        `json:"job_id"`
	Source    string        `json:"source"`
	Profile   string        `json:"profile"`
	Mode      ReorderMode   `json:"mode"`
	Marker    string        `json:"marker"`
	CreatedAt time.Time     `json:"created_at"`
	Layers    []LayerReport `json:"layers"`
}

// NewReport starts a report for a pass with a fresh job id.
func NewReport(mode ReorderMode, marker string) Report {
	return Report{
		JobID:     uuid.New().String(),
		Mode:      mode,
		Marker:    marker,
		CreatedAt: time.Now().UTC(),
	}
}

// RewrittenLayers returns the number of layers that were rewritten.
func (r Report) RewrittenLayers() int {
	n := 0
	for _, l := range r.Layers {
		if l.Rewritten {
			n++
		}
	}
	return n
}

// TotalTargetSections returns the number of target sections moved across all layers.
func (r Report) TotalTargetSections() int {
	n := 0
	for _, l := range r.Layers {
		n += l.TargetSections
	}
	return n
}

// TotalWarnings returns the number of warnings raised across all layers.
func (r Report) TotalWarnings() int {
	n := 0
	for _, l := range r.Layers {
		n += len(l.Warnings)
	}
	return n
}

// MotionWarning describes a suspicious motion command found in rewritten gcode.
type MotionWarning struct {
	LayerIndex int    `json:"layer_index"`
	Line       int    `json:"line"` // index within the layer block
	Kind       string `json:"kind"`
	Text       string `json:"text"`
}

// Motion warning kinds
const (
	WarnRedundantRetraction = "redundant-retraction"
	WarnPrimeWithoutRetract = "prime-without-retraction"
)
