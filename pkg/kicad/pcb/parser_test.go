package pcb

import (
	"math"
	"strings"
	"testing"

	"github.com/OpenTraceLab/OpenTraceRoute/pkg/kicad/sexp/kicadsexp"
)

// Test parseHeader function
func TestParseHeader(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantVersion int
		wantGen     string
		wantErr     bool
	}{
		{
			name:        "valid KiCad 6.0 with generator",
			input:       "(kicad_pcb (version 20211014) (generator pcbnew))",
			wantVersion: 20211014,
			wantGen:     "pcbnew",
		},
		{
			name:        "valid KiCad 6.0 with host",
			input:       "(kicad_pcb (version 20221018) (host pcbnew \"(6.0.10)\"))",
			wantVersion: 20221018,
			wantGen:     "pcbnew",
		},
		{
			name:        "quoted generator (KiCad 8)",
			input:       `(kicad_pcb (version 20240108) (generator "pcbnew"))`,
			wantVersion: 20240108,
			wantGen:     "pcbnew",
		},
		{
			name:    "missing version",
			input:   "(kicad_pcb (generator pcbnew))",
			wantErr: true,
		},
		{
			name:    "old version (KiCad 5)",
			input:   "(kicad_pcb (version 20171130))",
			wantErr: true,
		},
		{
			name:        "no generator (should default to unknown)",
			input:       "(kicad_pcb (version 20211014))",
			wantVersion: 20211014,
			wantGen:     "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sexps, err := kicadsexp.ParseString(tt.input)
			if err != nil {
				t.Fatalf("Failed to parse s-expression: %v", err)
			}

			version, gen, err := parseHeader(sexps[0])

			if tt.wantErr {
				if err == nil {
					t.Errorf("parseHeader() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseHeader() unexpected error: %v", err)
			}
			if version != tt.wantVersion {
				t.Errorf("parseHeader() version = %d, want %d", version, tt.wantVersion)
			}
			if gen != tt.wantGen {
				t.Errorf("parseHeader() generator = %q, want %q", gen, tt.wantGen)
			}
		})
	}
}

func TestParseInvalid(t *testing.T) {
	tests := map[string]string{
		"empty":          "",
		"not a board":    `(kicad_sch (version 20230121))`,
		"broken sexp":    `(kicad_pcb (version 20221018)`,
		"no layers":      `(kicad_pcb (version 20221018) (layers))`,
		"pad without at": `(kicad_pcb (version 20221018) (footprint "x" (layer "F.Cu") (at 0 0) (pad "1" smd rect (size 1 1) (layers "F.Cu"))))`,
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(in)); err == nil {
				t.Errorf("Parse() expected error")
			}
		})
	}
}

func TestParseLayersAndNets(t *testing.T) {
	board, err := ParseFile("testdata/simple.kicad_pcb")
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	if board.Version != 20221018 || board.Generator != "pcbnew" {
		t.Errorf("header = %d %q", board.Version, board.Generator)
	}
	if board.Thickness != 1.6 {
		t.Errorf("Thickness = %v, want 1.6", board.Thickness)
	}
	if len(board.Layers) != 5 {
		t.Fatalf("Layers count = %d, want 5", len(board.Layers))
	}

	copper := board.CopperLayers()
	if len(copper) != 2 || copper[0].Name != "F.Cu" || copper[1].Name != "B.Cu" {
		t.Errorf("CopperLayers() = %+v", copper)
	}

	lm := NewLayerMap(board.Layers)
	if l, ok := lm.GetByNumber(44); !ok || l.Name != "Edge.Cuts" || l.IsCopper() {
		t.Errorf("layer 44 = %+v, %v", l, ok)
	}

	if len(board.Nets) != 3 {
		t.Fatalf("Nets count = %d, want 3", len(board.Nets))
	}
	nm := NewNetMap(board.Nets)
	if n, ok := nm.GetByName("SIG"); !ok || n.Number != 2 {
		t.Errorf("GetByName(SIG) = %+v, %v", n, ok)
	}
	if _, ok := nm.GetByName(""); ok {
		t.Error("empty net name indexed")
	}
	if board.GetNet("GND") == nil || board.GetNet("VCC") != nil {
		t.Error("GetNet() lookup wrong")
	}
}

func TestParseFootprints(t *testing.T) {
	board, err := ParseFile("testdata/simple.kicad_pcb")
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if len(board.Footprints) != 2 {
		t.Fatalf("Footprints count = %d, want 2", len(board.Footprints))
	}

	r1 := board.Footprints[0]
	if r1.Library != "Resistor_SMD" || r1.Name != "R_0603_1608Metric" {
		t.Errorf("R1 name = %q:%q", r1.Library, r1.Name)
	}
	if r1.Reference != "R1" || r1.Value != "10k" {
		t.Errorf("R1 fp_text = %q %q", r1.Reference, r1.Value)
	}
	if len(r1.Pads) != 2 {
		t.Fatalf("R1 pads = %d, want 2", len(r1.Pads))
	}
	pad := r1.Pads[0]
	if pad.Type != "smd" || pad.Shape != "roundrect" || pad.Size != (Size{Width: 0.8, Height: 0.9}) {
		t.Errorf("R1 pad 1 = %+v", pad)
	}
	if pad.Net == nil || pad.Net.Name != "GND" {
		t.Errorf("R1 pad 1 net = %+v", pad.Net)
	}
	if !pad.Layers.Has("F.Cu") || pad.Layers.Has("B.Cu") {
		t.Errorf("R1 pad 1 layers = %v", pad.Layers)
	}

	j1 := board.Footprints[1]
	if j1.Reference != "J1" || j1.Value != "Conn_01x02" {
		t.Errorf("J1 properties = %q %q", j1.Reference, j1.Value)
	}
	if j1.Position.Angle != 90 {
		t.Errorf("J1 angle = %v", j1.Position.Angle)
	}
	if j1.Pads[1].Drill != 1 || !j1.Pads[1].Layers.Has("B.Cu") {
		t.Errorf("J1 pad 2 = %+v", j1.Pads[1])
	}

	// Rotated footprint: pad 2 sits 2.54mm to the right of the anchor.
	c := j1.TransformPosition(j1.Pads[1].Position)
	if math.Abs(c.X-117.54) > 1e-9 || math.Abs(c.Y-105) > 1e-9 {
		t.Errorf("J1 pad 2 centre = %v, want (117.54, 105)", c)
	}
}

func TestParseTracksAndVias(t *testing.T) {
	board, err := ParseFile("testdata/simple.kicad_pcb")
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}

	if len(board.Tracks) != 2 {
		t.Fatalf("Tracks count = %d, want 2", len(board.Tracks))
	}
	track := board.Tracks[0]
	if track.Start != (Position{X: 110, Y: 102}) || track.End != (Position{X: 112, Y: 102}) {
		t.Errorf("Track 0 = %v -> %v", track.Start, track.End)
	}
	if track.Width != 0.25 || track.Layer != "F.Cu" || track.Locked {
		t.Errorf("Track 0 = %+v", track)
	}
	if track.Net == nil || track.Net.Number != 1 {
		t.Errorf("Track 0 net = %+v, want 1", track.Net)
	}
	if !board.Tracks[1].Locked {
		t.Error("Track 1 should be locked")
	}

	if len(board.Vias) != 1 {
		t.Fatalf("Vias count = %d, want 1", len(board.Vias))
	}
	via := board.Vias[0]
	if via.Size != 0.6 || via.Drill != 0.3 || len(via.Layers) != 2 || via.Net.Number != 2 {
		t.Errorf("Via 0 = %+v", via)
	}
}

func TestOutline(t *testing.T) {
	board, err := ParseFile("testdata/simple.kicad_pcb")
	if err != nil {
		t.Fatalf("ParseFile failed: %v", err)
	}
	if len(board.Edges.Rects) != 1 || len(board.Edges.Lines) != 0 {
		t.Fatalf("Edges = %+v, silkscreen line must not count", board.Edges)
	}
	o := board.Outline(OutlineMargin)
	if o.Min != (Position{X: 100, Y: 100}) || o.Max != (Position{X: 120, Y: 110}) {
		t.Errorf("Outline() = %+v", o)
	}

	// Without Edge.Cuts the copper extent plus margin is used.
	board.Edges = Edges{}
	o = board.Outline(1)
	if !o.Contains(Position{X: 102.8 - 0.9, Y: 105}) {
		t.Errorf("fallback outline %+v misses the R1 pads", o)
	}
}

func TestLayerSetHas(t *testing.T) {
	tests := []struct {
		set   LayerSet
		layer string
		want  bool
	}{
		{LayerSet{"*.Cu", "*.Mask"}, "In1.Cu", true},
		{LayerSet{"F&B.Cu"}, "B.Cu", true},
		{LayerSet{"F&B.Cu"}, "In1.Cu", false},
		{LayerSet{"F.Cu", "F.Mask"}, "B.Cu", false},
	}
	for _, tt := range tests {
		if got := tt.set.Has(tt.layer); got != tt.want {
			t.Errorf("%v.Has(%q) = %v, want %v", tt.set, tt.layer, got, tt.want)
		}
	}
}
