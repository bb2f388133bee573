package pcb

import (
	"strings"

	"github.com/OpenTraceLab/OpenTraceRoute/pkg/kicad/sexp"
)

// Shared geometry (aliases to the sexp package)
type (
	Position      = sexp.Position
	Angle         = sexp.Angle
	PositionAngle = sexp.PositionAngle
	Size          = sexp.Size
	BoundingBox   = sexp.BoundingBox
	GrLine        = sexp.GrLine
	GrRect        = sexp.GrRect
)

// NewBoundingBox re-exports the empty box constructor.
var NewBoundingBox = sexp.NewBoundingBox

// Layer represents a PCB layer
type Layer struct {
	Number int    // Layer number (ordinal)
	Name   string // Layer name (e.g., "F.Cu", "B.Cu", "F.SilkS")
	Type   string // Layer type (e.g., "signal", "user")
}

// IsCopper reports whether the layer carries copper.
func (l Layer) IsCopper() bool {
	if !strings.HasSuffix(l.Name, ".Cu") {
		return false
	}
	switch l.Type {
	case "signal", "power", "mixed", "jumper":
		return true
	}
	return false
}

// Net represents an electrical net
type Net struct {
	Number int    // Net number (ordinal)
	Name   string // Net name
}

// LayerSet represents a set of layer names as written in the file,
// wildcards included (e.g. "*.Cu").
type LayerSet []string

// Has reports whether the set names layer, directly or by wildcard.
func (ls LayerSet) Has(layer string) bool {
	for _, name := range ls {
		if name == layer {
			return true
		}
		if strings.HasPrefix(name, "*.") && strings.HasSuffix(layer, name[1:]) {
			return true
		}
		// KiCad writes "F&B.Cu" for the two outer layers
		if name == "F&B.Cu" && (layer == "F.Cu" || layer == "B.Cu") {
			return true
		}
	}
	return false
}

// LayerMap provides efficient lookup of layers by number or name
type LayerMap struct {
	byNumber map[int]*Layer
	byName   map[string]*Layer
}

// NewLayerMap creates a LayerMap from a slice of layers
func NewLayerMap(layers []Layer) *LayerMap {
	lm := &LayerMap{
		byNumber: make(map[int]*Layer),
		byName:   make(map[string]*Layer),
	}

	for i := range layers {
		layer := &layers[i]
		lm.byNumber[layer.Number] = layer
		lm.byName[layer.Name] = layer
	}

	return lm
}

// GetByName retrieves a layer by its name (e.g., "F.Cu")
func (lm *LayerMap) GetByName(name string) (*Layer, bool) {
	layer, ok := lm.byName[name]
	return layer, ok
}

// GetByNumber retrieves a layer by its number
func (lm *LayerMap) GetByNumber(num int) (*Layer, bool) {
	layer, ok := lm.byNumber[num]
	return layer, ok
}

// NetMap provides efficient lookup of nets by number or name
type NetMap struct {
	byNumber map[int]*Net
	byName   map[string]*Net
}

// NewNetMap creates a NetMap from a slice of nets
func NewNetMap(nets []Net) *NetMap {
	nm := &NetMap{
		byNumber: make(map[int]*Net),
		byName:   make(map[string]*Net),
	}

	for i := range nets {
		net := &nets[i]
		nm.byNumber[net.Number] = net
		// Only index non-empty names
		if net.Name != "" {
			nm.byName[net.Name] = net
		}
	}

	return nm
}

// GetByName retrieves a net by its name (e.g., "GND", "+5V")
func (nm *NetMap) GetByName(name string) (*Net, bool) {
	net, ok := nm.byName[name]
	return net, ok
}

// GetByNumber retrieves a net by its number
func (nm *NetMap) GetByNumber(num int) (*Net, bool) {
	net, ok := nm.byNumber[num]
	return net, ok
}

// IsUnconnected checks if a net number represents an unconnected net
// In KiCad, net 0 is reserved for unconnected pins
func (nm *NetMap) IsUnconnected(num int) bool {
	return num == 0
}
