package pcb

import (
	"fmt"
	"strings"

	"github.com/OpenTraceLab/OpenTraceRoute/pkg/kicad/sexp"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/kicad/sexp/kicadsexp"
)

// parsePad extracts a pad definition from a footprint
// Expected format: (pad "number" type shape (at x y [angle]) (size w h) (layers ...) (net n) ...)
func parsePad(node *kicadsexp.List, netMap *NetMap) (*Pad, error) {
	pad := &Pad{}

	number, err := sexp.GetString(node, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pad number: %w", err)
	}
	pad.Number = number

	if pad.Type, err = sexp.GetString(node, 2); err != nil {
		return nil, fmt.Errorf("failed to parse pad type: %w", err)
	}
	if pad.Shape, err = sexp.GetString(node, 3); err != nil {
		return nil, fmt.Errorf("failed to parse pad shape: %w", err)
	}

	atNode, found := sexp.FindNode(node, "at")
	if !found {
		return nil, fmt.Errorf("missing required 'at' position")
	}
	if pad.Position, err = sexp.GetPosition(atNode); err != nil {
		return nil, fmt.Errorf("failed to parse pad position: %w", err)
	}

	sizeNode, found := sexp.FindNode(node, "size")
	if !found {
		return nil, fmt.Errorf("missing required 'size' field")
	}
	width, err := sexp.GetFloat(sizeNode, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pad width: %w", err)
	}
	height, err := sexp.GetFloat(sizeNode, 2)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pad height: %w", err)
	}
	pad.Size = Size{Width: width, Height: height}

	// Drill is (drill d) or (drill oval w h); the first number is enough
	if drillNode, found := sexp.FindNode(node, "drill"); found {
		for i := 1; i < drillNode.Len(); i++ {
			if d, err := sexp.GetFloat(drillNode, i); err == nil {
				pad.Drill = d
				break
			}
		}
	}

	layersNode, found := sexp.FindNode(node, "layers")
	if !found {
		return nil, fmt.Errorf("missing required 'layers' field")
	}
	pad.Layers = LayerSet(sexp.GetStrings(layersNode))

	pad.Net = lookupNet(node, netMap)
	return pad, nil
}

// parseFootprint extracts a footprint (component) definition
// Expected format: (footprint "library:name" (layer "layer") (at x y [angle]) ...)
func parseFootprint(node *kicadsexp.List, netMap *NetMap) (*Footprint, error) {
	footprint := &Footprint{}

	fpName, err := sexp.GetString(node, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to parse footprint name: %w", err)
	}
	// "Resistor_SMD:R_0603_1608Metric"
	if lib, name, ok := strings.Cut(fpName, ":"); ok && lib != "" {
		footprint.Library, footprint.Name = lib, name
	} else {
		footprint.Name = fpName
	}

	layerNode, found := sexp.FindNode(node, "layer")
	if !found {
		return nil, fmt.Errorf("missing required 'layer' field")
	}
	if footprint.Layer, err = sexp.GetString(layerNode, 1); err != nil {
		return nil, fmt.Errorf("failed to parse layer: %w", err)
	}

	atNode, found := sexp.FindNode(node, "at")
	if !found {
		return nil, fmt.Errorf("missing required 'at' position")
	}
	if footprint.Position, err = sexp.GetPosition(atNode); err != nil {
		return nil, fmt.Errorf("failed to parse position: %w", err)
	}

	// KiCad 8 uses (property "Reference" "R1"), KiCad 6/7 (fp_text reference "R1")
	for _, propNode := range sexp.FindAllNodes(node, "property") {
		key, err1 := sexp.GetString(propNode, 1)
		value, err2 := sexp.GetString(propNode, 2)
		if err1 != nil || err2 != nil {
			continue
		}
		switch key {
		case "Reference":
			footprint.Reference = value
		case "Value":
			footprint.Value = value
		}
	}
	for _, textNode := range sexp.FindAllNodes(node, "fp_text") {
		kind, _ := sexp.GetString(textNode, 1)
		text, _ := sexp.GetString(textNode, 2)
		switch {
		case kind == "reference" && footprint.Reference == "":
			footprint.Reference = text
		case kind == "value" && footprint.Value == "":
			footprint.Value = text
		}
	}

	for i, padNode := range sexp.FindAllNodes(node, "pad") {
		pad, err := parsePad(padNode, netMap)
		if err != nil {
			return nil, fmt.Errorf("pad %d: %w", i, err)
		}
		footprint.Pads = append(footprint.Pads, *pad)
	}

	return footprint, nil
}

// parseFootprints extracts all footprint definitions from the root node
func parseFootprints(root kicadsexp.Sexp, netMap *NetMap) ([]Footprint, error) {
	footprints := []Footprint{}
	for i, fpNode := range sexp.FindAllNodes(root, "footprint") {
		footprint, err := parseFootprint(fpNode, netMap)
		if err != nil {
			return nil, fmt.Errorf("footprint %d: %w", i, err)
		}
		footprints = append(footprints, *footprint)
	}
	return footprints, nil
}
