// Package render draws a routed grid to an image with gonum/plot.
package render

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/grid"
)

// Options controls the picture.
type Options struct {
	Title  string
	Width  vg.Length // default 10in
	Height vg.Length // default: Width scaled to the board's aspect ratio
	Layers []string  // legend names per grid layer; "L0", "L1"... when nil
}

// Plot builds the picture: obstacle cells as small squares and routed
// copper as lines, one colour per layer, with vias as rings. Board Y grows
// downwards, as in KiCad.
func Plot(g *grid.Grid, routes []routing.RouteResult, opts Options) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "X (mm)"
	p.Y.Label.Text = "Y (mm)"
	p.Y.Scale = plot.InvertedScale{Normalizer: p.Y.Scale}

	o := g.Origin()
	p.X.Min, p.X.Max = o.X, o.X+g.Width()
	p.Y.Min, p.Y.Max = o.Y, o.Y+g.Height()

	colors := layerColors(g.Layers())
	name := func(l int) string {
		if l < len(opts.Layers) {
			return opts.Layers[l]
		}
		return fmt.Sprintf("L%d", l)
	}

	// Obstacles, one scatter per layer, back layers first.
	obstacles := make([]plotter.XYs, g.Layers())
	for idx := 0; idx < g.Size(); idx++ {
		if !g.CellAt(idx).Obstacle {
			continue
		}
		x, y, l := g.Coords(idx)
		pt := g.GridToWorld(x, y)
		obstacles[l] = append(obstacles[l], plotter.XY{X: pt.X, Y: pt.Y})
	}
	for l := g.Layers() - 1; l >= 0; l-- {
		if len(obstacles[l]) == 0 {
			continue
		}
		s, err := plotter.NewScatter(obstacles[l])
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Shape = draw.BoxGlyph{}
		s.GlyphStyle.Radius = vg.Points(0.6)
		s.GlyphStyle.Color = fade(colors[l])
		p.Add(s)
	}

	legend := make([]bool, g.Layers())
	var vias plotter.XYs
	for _, rr := range routes {
		if !rr.Success {
			continue
		}
		for _, seg := range rr.Segments {
			line, err := plotter.NewLine(plotter.XYs{
				{X: seg.Start.X, Y: seg.Start.Y},
				{X: seg.End.X, Y: seg.End.Y},
			})
			if err != nil {
				return nil, err
			}
			line.Color = colors[seg.Layer%len(colors)]
			line.Width = vg.Points(1.5)
			p.Add(line)
			if seg.Layer < len(legend) && !legend[seg.Layer] {
				legend[seg.Layer] = true
				p.Legend.Add(name(seg.Layer), line)
			}
		}
		for _, v := range rr.Vias {
			vias = append(vias, plotter.XY{X: v.Pos.X, Y: v.Pos.Y})
		}
	}
	if len(vias) > 0 {
		s, err := plotter.NewScatter(vias)
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Shape = draw.RingGlyph{}
		s.GlyphStyle.Radius = vg.Points(2.5)
		s.GlyphStyle.Color = color.Black
		p.Add(s)
		p.Legend.Add("via", s)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// PNG renders the picture to w.
func PNG(w io.Writer, g *grid.Grid, routes []routing.RouteResult, opts Options) error {
	p, err := Plot(g, routes, opts)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	width, height := size(g, opts)
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// Save renders to a file; the format follows the extension (png, svg, pdf).
func Save(path string, g *grid.Grid, routes []routing.RouteResult, opts Options) error {
	p, err := Plot(g, routes, opts)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	width, height := size(g, opts)
	if err := p.Save(width, height, path); err != nil {
		return fmt.Errorf("render: save %s: %w", path, err)
	}
	return nil
}

func size(g *grid.Grid, opts Options) (vg.Length, vg.Length) {
	width := opts.Width
	if width <= 0 {
		width = 10 * vg.Inch
	}
	height := opts.Height
	if height <= 0 {
		aspect := 1.0
		if g.Width() > 0 {
			aspect = g.Height() / g.Width()
		}
		// leave room for title and axes
		height = vg.Length(math.Max(2, aspect*float64(width/vg.Inch)+1)) * vg.Inch
	}
	return width, height
}

// layerColors spreads n hues around the colour wheel, front layer red.
func layerColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		r, g, b := hslToRGB(float64(i)/float64(n), 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

func fade(c color.Color) color.Color {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 70}
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q
	conv := func(t float64) uint8 {
		if t < 0 {
			t++
		}
		if t > 1 {
			t--
		}
		var v float64
		switch {
		case t < 1.0/6:
			v = p + (q-p)*6*t
		case t < 0.5:
			v = q
		case t < 2.0/3:
			v = p + (q-p)*(2.0/3-t)*6
		default:
			v = p
		}
		return uint8(math.Round(v * 255))
	}
	return conv(h + 1.0/3), conv(h), conv(h - 1.0/3)
}
