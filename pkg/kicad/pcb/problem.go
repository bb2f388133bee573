package pcb

import (
	"errors"
	"fmt"
	"math"

	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/grid"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/rules"
)

// OutlineMargin pads the copper extent when a board has no Edge.Cuts.
const OutlineMargin = 2.0

// Obstacle is a rectangle of fixed copper on one grid layer.
type Obstacle struct {
	Min   routing.Point `json:"min"`
	Max   routing.Point `json:"max"`
	Layer int           `json:"layer"`
	Net   int           `json:"net"`
}

// Problem is a board reduced to what the router consumes. Layer indices
// refer to CopperLayers; net ids are KiCad net numbers.
type Problem struct {
	Origin       routing.Point     `json:"origin"`
	Width        float64           `json:"width"`
	Height       float64           `json:"height"`
	CopperLayers []string          `json:"copper_layers"`
	Obstacles    []Obstacle        `json:"obstacles"`
	Traces       []routing.Segment `json:"traces,omitempty"`
	Nets         []routing.Net     `json:"nets"`
}

// RoutingProblem converts the board. Pads, vias and existing tracks become
// obstacles owned by their net; every net with two or more pads becomes a
// routing.Net whose terminals are the pad centres. Through-hole pads are
// reachable on every copper layer, SMD pads on their own.
func (b *Board) RoutingProblem(r rules.DesignRules) (*Problem, error) {
	copper := b.CopperLayers()
	if len(copper) == 0 {
		return nil, errors.New("pcb: board has no copper layers")
	}
	outline := b.Outline(OutlineMargin)
	if outline.IsEmpty() || outline.Width() <= 0 || outline.Height() <= 0 {
		return nil, errors.New("pcb: board has no outline and no copper")
	}

	p := &Problem{
		Origin: routing.Point{X: outline.Min.X, Y: outline.Min.Y},
		Width:  outline.Width(),
		Height: outline.Height(),
	}
	index := make(map[string]int, len(copper))
	for i, l := range copper {
		p.CopperLayers = append(p.CopperLayers, l.Name)
		index[l.Name] = i
	}
	all := make([]int, len(copper))
	for i := range all {
		all[i] = i
	}

	padLayers := func(pad *Pad) []int {
		if pad.Type == "thru_hole" || pad.Type == "np_thru_hole" {
			return all
		}
		var out []int
		for i, name := range p.CopperLayers {
			if pad.Layers.Has(name) {
				out = append(out, i)
			}
		}
		return out
	}

	for i := range b.Footprints {
		fp := &b.Footprints[i]
		for j := range fp.Pads {
			pad := &fp.Pads[j]
			box := fp.PadBox(pad)
			for _, l := range padLayers(pad) {
				p.Obstacles = append(p.Obstacles, Obstacle{
					Min:   routing.Point{X: box.Min.X, Y: box.Min.Y},
					Max:   routing.Point{X: box.Max.X, Y: box.Max.Y},
					Layer: l,
					Net:   netID(pad.Net),
				})
			}
		}
	}

	for _, v := range b.Vias {
		hr := v.Size / 2
		for _, l := range all {
			p.Obstacles = append(p.Obstacles, Obstacle{
				Min:   routing.Point{X: v.Position.X - hr, Y: v.Position.Y - hr},
				Max:   routing.Point{X: v.Position.X + hr, Y: v.Position.Y + hr},
				Layer: l,
				Net:   netID(v.Net),
			})
		}
	}

	for _, t := range b.Tracks {
		l, ok := index[t.Layer]
		if !ok {
			continue
		}
		p.Traces = append(p.Traces, routing.Segment{
			Start: routing.Point{X: t.Start.X, Y: t.Start.Y},
			End:   routing.Point{X: t.End.X, Y: t.End.Y},
			Width: t.Width,
			Layer: l,
			Net:   netID(t.Net),
		})
	}

	for _, n := range b.Nets {
		if n.Number == 0 {
			continue
		}
		var terms []routing.Terminal
		for _, ref := range b.GetNetPads(n.Number) {
			layers := padLayers(ref.Pad)
			if len(layers) == 0 {
				continue
			}
			terms = append(terms, routing.Terminal{
				Pos:    routing.Point{X: ref.Center.X, Y: ref.Center.Y},
				Layers: append([]int(nil), layers...),
			})
		}
		if len(terms) < 2 {
			continue
		}
		p.Nets = append(p.Nets, routing.Net{ID: n.Number, Name: n.Name, Terminals: terms})
	}

	return p, nil
}

func netID(n *Net) int {
	if n == nil {
		return routing.NoNet
	}
	return n.Number
}

// Apply marks the problem's fixed copper on g. Every obstacle and trace
// first blocks its keepout, then its copper is handed to its net, so
// routes keep their clearance to copper of other nets and still reach
// their own pads.
func (p *Problem) Apply(g *grid.Grid) {
	for _, o := range p.Obstacles {
		g.MarkRectKeepout(o.Min, o.Max, o.Layer, o.Net)
	}
	for _, t := range p.Traces {
		g.MarkSegmentKeepout(t)
	}

	res := g.Rules().Resolution
	for _, o := range p.Obstacles {
		g.MarkRectBlocked(o.Min, o.Max, o.Layer, o.Net)
	}
	for _, t := range p.Traces {
		radius := int(math.Max(0, math.Ceil(t.Width/2/res-0.5)))
		g.MarkSegmentBlocked(t, radius)
	}
}

// NewGrid builds a grid covering the problem and applies its obstacles.
func (p *Problem) NewGrid(r rules.DesignRules) (*grid.Grid, error) {
	g, err := grid.New(p.Width, p.Height, len(p.CopperLayers), r, p.Origin)
	if err != nil {
		return nil, fmt.Errorf("pcb: %w", err)
	}
	p.Apply(g)
	return g, nil
}

// NetNames maps net id to name.
func (p *Problem) NetNames() map[int]string {
	names := make(map[int]string, len(p.Nets))
	for _, n := range p.Nets {
		names[n.ID] = n.Name
	}
	return names
}
