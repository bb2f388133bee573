// Package rules defines the design rules a routing grid is built for and
// the small text format they can be loaded from.
package rules

import (
	"fmt"
	"math"

	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing"
)

// DesignRules are the physical and cost parameters of one routing session.
// They are fixed for a grid instance: the grid precomputes cell radii from
// them, so changing rules means building a new grid.
type DesignRules struct {
	TraceWidth     float64 `json:"trace_width"`
	TraceClearance float64 `json:"trace_clearance"`
	ViaDrill       float64 `json:"via_drill"`
	ViaDiameter    float64 `json:"via_diameter"`
	ViaClearance   float64 `json:"via_clearance"`
	// Resolution is the edge length of one grid cell in mm.
	Resolution float64 `json:"resolution"`

	StraightCost float64 `json:"straight_cost"`
	TurnCost     float64 `json:"turn_cost"`
	ViaCost      float64 `json:"via_cost"`
	// CongestionThreshold is the fraction of blocked cells in a congestion
	// block above which the penalty applies.
	CongestionThreshold float64 `json:"congestion_threshold"`
	CongestionPenalty   float64 `json:"congestion_penalty"`
}

// Default returns rules matching a common low-cost fab process.
func Default() DesignRules {
	return DesignRules{
		TraceWidth:          0.25,
		TraceClearance:      0.2,
		ViaDrill:            0.3,
		ViaDiameter:         0.6,
		ViaClearance:        0.2,
		Resolution:          0.1,
		StraightCost:        1.0,
		TurnCost:            0.5,
		ViaCost:             10.0,
		CongestionThreshold: 0.6,
		CongestionPenalty:   5.0,
	}
}

// Validate rejects rules that cannot describe a manufacturable board.
func (r DesignRules) Validate() error {
	dims := []struct {
		name string
		v    float64
	}{
		{"trace_width", r.TraceWidth},
		{"trace_clearance", r.TraceClearance},
		{"via_drill", r.ViaDrill},
		{"via_diameter", r.ViaDiameter},
		{"via_clearance", r.ViaClearance},
		{"resolution", r.Resolution},
		{"straight_cost", r.StraightCost},
	}
	for _, d := range dims {
		if !(d.v > 0) || math.IsInf(d.v, 0) {
			return fmt.Errorf("rules: %s must be positive, got %g: %w", d.name, d.v, routing.ErrInvalidRules)
		}
	}

	weights := []struct {
		name string
		v    float64
	}{
		{"turn_cost", r.TurnCost},
		{"via_cost", r.ViaCost},
		{"congestion_penalty", r.CongestionPenalty},
	}
	for _, w := range weights {
		if w.v < 0 || math.IsNaN(w.v) || math.IsInf(w.v, 0) {
			return fmt.Errorf("rules: %s must be non-negative, got %g: %w", w.name, w.v, routing.ErrInvalidRules)
		}
	}

	if r.ViaDrill >= r.ViaDiameter {
		return fmt.Errorf("rules: via_drill %g must be smaller than via_diameter %g: %w",
			r.ViaDrill, r.ViaDiameter, routing.ErrInvalidRules)
	}
	if r.CongestionThreshold < 0 || r.CongestionThreshold > 1 || math.IsNaN(r.CongestionThreshold) {
		return fmt.Errorf("rules: congestion_threshold must be within [0, 1], got %g: %w",
			r.CongestionThreshold, routing.ErrInvalidRules)
	}
	return nil
}

// TraceRadiusCells is the radius, in cells, of the disc a trace blocks
// around its centre line. It is the smallest radius for which any two
// traces of different nets whose discs share no cell keep a full
// TraceClearance between their copper, diagonal runs included.
func (r DesignRules) TraceRadiusCells() int {
	return traceRadius(r.traceSpacing())
}

// ViaRadiusCells is the blocked radius around a via centre: vias keep
// ViaClearance between each other and the larger of both clearances to
// traces.
func (r DesignRules) ViaRadiusCells() int {
	return viaRadius(r.viaSpacing(), r.mixedSpacing(), r.TraceRadiusCells())
}

// Footprint is the cell geometry a grid derives from its rules.
type Footprint struct {
	TraceRadius int
	ViaRadius   int
	// Keepout is the distance in mm from fixed copper within which cell
	// centres are blocked. Traces and vias placed outside it keep their
	// clearance to that copper.
	Keepout float64
}

// Footprint computes the trace and via radii and the keepout distance.
func (r DesignRules) Footprint() Footprint {
	rt := traceRadius(r.traceSpacing())
	rv := viaRadius(r.viaSpacing(), r.mixedSpacing(), rt)
	clearance := math.Max(r.TraceClearance, r.ViaClearance)
	k := keepoutCells(
		(r.TraceWidth/2+r.TraceClearance)/r.Resolution,
		(r.ViaDiameter/2+clearance)/r.Resolution,
		rt, rv)
	return Footprint{TraceRadius: rt, ViaRadius: rv, Keepout: k * r.Resolution}
}

// centre-line spacings in cells
func (r DesignRules) traceSpacing() float64 {
	return (r.TraceWidth + r.TraceClearance) / r.Resolution
}

func (r DesignRules) viaSpacing() float64 {
	return (r.ViaDiameter + r.ViaClearance) / r.Resolution
}

func (r DesignRules) mixedSpacing() float64 {
	return (r.TraceWidth/2 + r.ViaDiameter/2 + math.Max(r.TraceClearance, r.ViaClearance)) / r.Resolution
}
