package pcb

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceRoute/pkg/kicad/sexp"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/kicad/sexp/kicadsexp"
)

// parseSegment extracts a track segment
// Expected format: (segment (start x y) (end x y) (width w) (layer "F.Cu") (net n) [locked])
func parseSegment(node *kicadsexp.List, netMap *NetMap) (*Track, error) {
	track := &Track{}

	startNode, found := sexp.FindNode(node, "start")
	if !found {
		return nil, fmt.Errorf("missing required 'start' position")
	}
	start, err := sexp.GetPositionXY(startNode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse start: %w", err)
	}
	track.Start = start

	endNode, found := sexp.FindNode(node, "end")
	if !found {
		return nil, fmt.Errorf("missing required 'end' position")
	}
	end, err := sexp.GetPositionXY(endNode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse end: %w", err)
	}
	track.End = end

	widthNode, found := sexp.FindNode(node, "width")
	if !found {
		return nil, fmt.Errorf("missing required 'width' field")
	}
	if track.Width, err = sexp.GetFloat(widthNode, 1); err != nil {
		return nil, fmt.Errorf("failed to parse width: %w", err)
	}

	layerNode, found := sexp.FindNode(node, "layer")
	if !found {
		return nil, fmt.Errorf("missing required 'layer' field")
	}
	if track.Layer, err = sexp.GetString(layerNode, 1); err != nil {
		return nil, fmt.Errorf("failed to parse layer: %w", err)
	}

	track.Net = lookupNet(node, netMap)
	track.Locked = isLocked(node)
	return track, nil
}

// parseVia extracts a via
// Expected format: (via (at x y) (size s) (drill d) (layers "F.Cu" "B.Cu") (net n) [locked])
func parseVia(node *kicadsexp.List, netMap *NetMap) (*Via, error) {
	via := &Via{}

	atNode, found := sexp.FindNode(node, "at")
	if !found {
		return nil, fmt.Errorf("missing required 'at' position")
	}
	pos, err := sexp.GetPositionXY(atNode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse position: %w", err)
	}
	via.Position = pos

	sizeNode, found := sexp.FindNode(node, "size")
	if !found {
		return nil, fmt.Errorf("missing required 'size' field")
	}
	if via.Size, err = sexp.GetFloat(sizeNode, 1); err != nil {
		return nil, fmt.Errorf("failed to parse size: %w", err)
	}

	if drillNode, found := sexp.FindNode(node, "drill"); found {
		via.Drill, _ = sexp.GetFloat(drillNode, 1)
	}

	if layersNode, found := sexp.FindNode(node, "layers"); found {
		via.Layers = LayerSet(sexp.GetStrings(layersNode))
	} else {
		via.Layers = LayerSet{"F.Cu", "B.Cu"}
	}

	via.Net = lookupNet(node, netMap)
	via.Locked = isLocked(node)
	return via, nil
}

// KiCad 6/7 write a bare "locked" atom, KiCad 8 a (locked yes) node.
func isLocked(node *kicadsexp.List) bool {
	if sexp.HasSymbol(node, "locked") {
		return true
	}
	if l, found := sexp.FindNode(node, "locked"); found {
		v, _ := sexp.GetString(l, 1)
		return v == "yes"
	}
	return false
}

func parseTracks(root kicadsexp.Sexp, netMap *NetMap) ([]Track, error) {
	tracks := []Track{}
	for i, node := range sexp.FindAllNodes(root, "segment") {
		track, err := parseSegment(node, netMap)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		tracks = append(tracks, *track)
	}
	return tracks, nil
}

func parseVias(root kicadsexp.Sexp, netMap *NetMap) ([]Via, error) {
	vias := []Via{}
	for i, node := range sexp.FindAllNodes(root, "via") {
		via, err := parseVia(node, netMap)
		if err != nil {
			return nil, fmt.Errorf("via %d: %w", i, err)
		}
		vias = append(vias, *via)
	}
	return vias, nil
}

// parseEdges collects gr_line and gr_rect graphics on Edge.Cuts. Malformed
// graphics are skipped: the outline only bounds the routing area.
func parseEdges(root kicadsexp.Sexp) Edges {
	var e Edges
	read := func(node *kicadsexp.List) (start, end Position, ok bool) {
		layerNode, found := sexp.FindNode(node, "layer")
		if !found {
			return
		}
		if layer, _ := sexp.GetString(layerNode, 1); layer != "Edge.Cuts" {
			return
		}
		s, found1 := sexp.FindNode(node, "start")
		en, found2 := sexp.FindNode(node, "end")
		if !found1 || !found2 {
			return
		}
		var err1, err2 error
		start, err1 = sexp.GetPositionXY(s)
		end, err2 = sexp.GetPositionXY(en)
		return start, end, err1 == nil && err2 == nil
	}

	for _, node := range sexp.FindAllNodes(root, "gr_line") {
		if start, end, ok := read(node); ok {
			e.Lines = append(e.Lines, GrLine{Start: start, End: end, Layer: "Edge.Cuts"})
		}
	}
	for _, node := range sexp.FindAllNodes(root, "gr_rect") {
		if start, end, ok := read(node); ok {
			e.Rects = append(e.Rects, GrRect{Start: start, End: end, Layer: "Edge.Cuts"})
		}
	}
	return e
}
