// Package pcb reads KiCad 6+ board files into the subset of the board
// model the router needs, turns a board into a routing problem, and writes
// routed copper back as KiCad forms.
package pcb

import (
	"fmt"
	"io"
	"os"

	"github.com/OpenTraceLab/OpenTraceRoute/pkg/kicad/sexp"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/kicad/sexp/kicadsexp"
)

// Minimum supported KiCad version (6.0 = 20211014)
const MinSupportedVersion = 20211014

// ParseFile reads and parses a KiCad board file
func ParseFile(filename string) (*Board, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads and parses a KiCad board from an io.Reader
func Parse(r io.Reader) (*Board, error) {
	sexps, err := kicadsexp.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse s-expression: %w", err)
	}

	if len(sexps) == 0 {
		return nil, fmt.Errorf("empty file or no valid s-expressions found")
	}

	root := sexps[0]
	if name := kicadsexp.Head(root); name != "kicad_pcb" {
		return nil, fmt.Errorf("not a KiCad PCB file: expected 'kicad_pcb', got '%s'", name)
	}

	version, generator, err := parseHeader(root)
	if err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	board := &Board{
		Version:   version,
		Generator: generator,
	}

	if general, found := sexp.FindNode(root, "general"); found {
		if thickness, found := sexp.FindNode(general, "thickness"); found {
			board.Thickness, _ = sexp.GetFloat(thickness, 1)
		}
	}

	if layersNode, found := sexp.FindNode(root, "layers"); found {
		layers, err := parseLayers(layersNode)
		if err != nil {
			return nil, fmt.Errorf("failed to parse layers section: %w", err)
		}
		board.Layers = layers
	}

	nets, err := parseNets(root)
	if err != nil {
		return nil, fmt.Errorf("failed to parse nets: %w", err)
	}
	board.Nets = nets
	netMap := NewNetMap(board.Nets)

	if board.Tracks, err = parseTracks(root, netMap); err != nil {
		return nil, fmt.Errorf("failed to parse tracks: %w", err)
	}
	if board.Vias, err = parseVias(root, netMap); err != nil {
		return nil, fmt.Errorf("failed to parse vias: %w", err)
	}
	if board.Footprints, err = parseFootprints(root, netMap); err != nil {
		return nil, fmt.Errorf("failed to parse footprints: %w", err)
	}
	board.Edges = parseEdges(root)

	return board, nil
}

// parseHeader extracts version and generator information from the root node
// Expected format: (kicad_pcb (version 20221018) (generator pcbnew) ...)
func parseHeader(root kicadsexp.Sexp) (version int, generator string, err error) {
	versionNode, found := sexp.FindNode(root, "version")
	if !found {
		return 0, "", fmt.Errorf("missing required 'version' field")
	}

	ver, err := sexp.GetInt(versionNode, 1)
	if err != nil {
		return 0, "", fmt.Errorf("failed to parse version: %w", err)
	}

	if ver < MinSupportedVersion {
		return 0, "", fmt.Errorf("unsupported KiCad version: %d (minimum required: %d / KiCad 6.0)", ver, MinSupportedVersion)
	}

	gen := "unknown"
	if hostNode, found := sexp.FindNode(root, "host"); found {
		// (host pcbnew "(6.0.0)")
		if toolName, err := sexp.GetString(hostNode, 1); err == nil {
			gen = toolName
		}
	} else if genNode, found := sexp.FindNode(root, "generator"); found {
		if name, err := sexp.GetString(genNode, 1); err == nil {
			gen = name
		}
	}

	return ver, gen, nil
}

// parseLayers extracts layer definitions
// Expected format: (layers (0 "F.Cu" signal) (31 "B.Cu" signal) ...)
func parseLayers(node *kicadsexp.List) ([]Layer, error) {
	var layers []Layer

	for _, item := range node.Items()[1:] {
		if item.IsLeaf() {
			continue
		}

		number, err := sexp.GetInt(item, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to parse layer number: %w", err)
		}

		name, err := sexp.GetString(item, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to parse layer name: %w", err)
		}

		layerType, err := sexp.GetString(item, 2)
		if err != nil {
			layerType = "user"
		}

		layers = append(layers, Layer{Number: number, Name: name, Type: layerType})
	}

	if len(layers) == 0 {
		return nil, fmt.Errorf("no layers defined")
	}
	return layers, nil
}

// parseNets extracts the top-level (net <number> "<name>") declarations.
func parseNets(root kicadsexp.Sexp) ([]Net, error) {
	nets := []Net{}
	for _, netNode := range sexp.FindAllNodes(root, "net") {
		number, err := sexp.GetInt(netNode, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to parse net number: %w", err)
		}

		// Name is optional (net 0 often has empty name)
		name, _ := sexp.GetString(netNode, 2)

		nets = append(nets, Net{Number: number, Name: name})
	}
	return nets, nil
}

func lookupNet(node kicadsexp.Sexp, netMap *NetMap) *Net {
	netNode, found := sexp.FindNode(node, "net")
	if !found {
		return nil
	}
	num, err := sexp.GetInt(netNode, 1)
	if err != nil || netMap.IsUnconnected(num) {
		return nil
	}
	net, _ := netMap.GetByNumber(num)
	return net
}
