package pcb

// Board is the part of a KiCad PCB the router needs.
type Board struct {
	Version    int         // File format version
	Generator  string      // Generator info (e.g., "pcbnew")
	Thickness  float64     // Board thickness in mm, 0 when absent
	Layers     []Layer     // Layer definitions
	Nets       []Net       // Electrical nets
	Footprints []Footprint // Component footprints
	Tracks     []Track     // Track segments
	Vias       []Via       // Vias
	Edges      Edges       // Board outline graphics
}

// Footprint represents a component footprint
type Footprint struct {
	Library   string        // Library name
	Name      string        // Footprint name
	Layer     string        // Layer (F.Cu or B.Cu typically)
	Position  PositionAngle // Position and rotation
	Pads      []Pad         // Pads
	Reference string        // Reference designator (e.g., "R1")
	Value     string        // Component value
}

// Pad represents a footprint pad. Position is relative to the footprint.
type Pad struct {
	Number   string        // Pad number/name
	Type     string        // Pad type (thru_hole, smd, connect, np_thru_hole)
	Shape    string        // Pad shape (circle, rect, oval, etc.)
	Position PositionAngle // Position and rotation
	Size     Size          // Pad size
	Drill    float64       // Drill diameter (0 for SMD)
	Layers   LayerSet      // Layers the pad appears on
	Net      *Net          // Connected net (if any)
}

// Track represents a copper track segment
type Track struct {
	Start  Position // Start point
	End    Position // End point
	Width  float64  // Track width in mm
	Layer  string   // Layer name
	Net    *Net     // Connected net
	Locked bool     // Whether track is locked
}

// Via represents a via
type Via struct {
	Position Position // Via position
	Size     float64  // Via diameter
	Drill    float64  // Drill diameter
	Layers   LayerSet // Layer pair
	Net      *Net     // Connected net
	Locked   bool     // Whether via is locked
}

// Edges holds the Edge.Cuts graphics.
type Edges struct {
	Lines []GrLine
	Rects []GrRect
}

// CopperLayers returns the copper layers in stack order (front first).
func (b *Board) CopperLayers() []Layer {
	var out []Layer
	for _, l := range b.Layers {
		if l.IsCopper() {
			out = append(out, l)
		}
	}
	return out
}

// GetNet returns a net by name, or nil if not found
func (b *Board) GetNet(name string) *Net {
	for i := range b.Nets {
		if b.Nets[i].Name == name {
			return &b.Nets[i]
		}
	}
	return nil
}

// PadRef is a pad placed on the board.
type PadRef struct {
	Footprint *Footprint
	Pad       *Pad
	Center    Position // Absolute pad centre
}

// GetNetPads returns all pads connected to a net number, in file order.
func (b *Board) GetNetPads(number int) []PadRef {
	var pads []PadRef
	for i := range b.Footprints {
		fp := &b.Footprints[i]
		for j := range fp.Pads {
			pad := &fp.Pads[j]
			if pad.Net != nil && pad.Net.Number == number {
				pads = append(pads, PadRef{Footprint: fp, Pad: pad, Center: fp.TransformPosition(pad.Position)})
			}
		}
	}
	return pads
}
