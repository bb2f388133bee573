package rules

import (
	"errors"
	"math"
	"testing"

	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default() invalid: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		modify func(r *DesignRules)
	}{
		{"zero width", func(r *DesignRules) { r.TraceWidth = 0 }},
		{"negative clearance", func(r *DesignRules) { r.TraceClearance = -0.1 }},
		{"zero resolution", func(r *DesignRules) { r.Resolution = 0 }},
		{"NaN resolution", func(r *DesignRules) { r.Resolution = math.NaN() }},
		{"zero straight cost", func(r *DesignRules) { r.StraightCost = 0 }},
		{"negative via cost", func(r *DesignRules) { r.ViaCost = -1 }},
		{"drill not smaller than pad", func(r *DesignRules) { r.ViaDrill = r.ViaDiameter }},
		{"threshold above one", func(r *DesignRules) { r.CongestionThreshold = 1.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Default()
			tt.modify(&r)
			err := r.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, routing.ErrInvalidRules) {
				t.Errorf("error %v does not wrap ErrInvalidRules", err)
			}
		})
	}
}

func TestRadiusCells(t *testing.T) {
	tests := []struct {
		name      string
		width     float64
		clearance float64
		res       float64
		want      int
	}{
		{"sub-cell trace", 0.1, 0.1, 1.0, 0},
		{"one cell spacing", 0.5, 0.5, 1.0, 1},
		{"default rules at 0.1", 0.25, 0.2, 0.1, 3},
		{"default rules at 0.25", 0.25, 0.2, 0.25, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Default()
			r.TraceWidth = tt.width
			r.TraceClearance = tt.clearance
			r.Resolution = tt.res
			if got := r.TraceRadiusCells(); got != tt.want {
				t.Errorf("TraceRadiusCells() = %d, want %d", got, tt.want)
			}
		})
	}

	for _, tt := range []struct {
		res  float64
		want int
	}{
		// via centres 3.2 cells apart, trace to via 2.5
		{0.25, 2},
		// via centres 8 cells apart, trace to via 6.25
		{0.1, 5},
	} {
		r := Default()
		r.Resolution = tt.res
		if got := r.ViaRadiusCells(); got != tt.want {
			t.Errorf("ViaRadiusCells() at %v = %d, want %d", tt.res, got, tt.want)
		}
	}
}

func TestFootprint(t *testing.T) {
	fp := Default().Footprint()
	if fp.TraceRadius != 3 || fp.ViaRadius != 5 {
		t.Errorf("radii = %d, %d, want 3, 5", fp.TraceRadius, fp.ViaRadius)
	}
	// sqrt(3.25^2 + 0.5) - (3 - sqrt2) cells
	if math.Abs(fp.Keepout-0.17402) > 1e-4 {
		t.Errorf("Keepout = %v, want about 0.174mm", fp.Keepout)
	}

	r := Default()
	r.Resolution = 1
	r.TraceWidth = 0.1
	r.TraceClearance = 0.1
	if got := r.Footprint().Keepout; got != 0.75 {
		t.Errorf("coarse grid Keepout = %v, want the 0.75 cell floor", got)
	}
}

func TestParseString(t *testing.T) {
	input := `
# fab house minimums
trace_width     0.2 mm;
trace_clearance 10 mil;
via_cost        12;
resolution      50 um;
`
	r, err := ParseString(input, Default())
	if err != nil {
		t.Fatalf("ParseString() error = %v", err)
	}

	if r.TraceWidth != 0.2 {
		t.Errorf("TraceWidth = %g, want 0.2", r.TraceWidth)
	}
	if math.Abs(r.TraceClearance-0.254) > 1e-12 {
		t.Errorf("TraceClearance = %g, want 0.254", r.TraceClearance)
	}
	if r.ViaCost != 12 {
		t.Errorf("ViaCost = %g, want 12", r.ViaCost)
	}
	if math.Abs(r.Resolution-0.05) > 1e-12 {
		t.Errorf("Resolution = %g, want 0.05", r.Resolution)
	}
	if r.ViaDrill != Default().ViaDrill {
		t.Errorf("ViaDrill changed to %g", r.ViaDrill)
	}
}

func TestParseStringErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown key", "trace_thickness 0.2;"},
		{"unknown unit", "trace_width 0.2 furlong;"},
		{"unit on cost", "via_cost 3 mm;"},
		{"missing semicolon", "trace_width 0.2"},
		{"invalid result", "trace_width -1;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := Default()
			got, err := ParseString(tt.input, base)
			if err == nil {
				t.Fatal("expected error")
			}
			if got != base {
				t.Errorf("failed parse modified rules: %+v", got)
			}
		})
	}
}
