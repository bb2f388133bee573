package viewer

import (
	"image"
	"image/color"
	"math"

	"gioui.org/f32"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
)

// drawScene paints the board substrate, obstacles, tracks and vias, back
// layers first so the front layer ends on top.
func drawScene(gtx layout.Context, cam *Camera, s *Scene, lc *LayerConfig) {
	min, max := s.Bounds()
	x0, y0 := cam.WorldToScreen(min)
	x1, y1 := cam.WorldToScreen(max)
	fillRect(gtx, x0, y0, x1, y1, ColorSubstrate)

	res := s.Grid.Rules().Resolution
	half := res / 2
	for l := s.Grid.Layers() - 1; l >= 0; l-- {
		if !lc.IsVisible(l) {
			continue
		}
		col := ObstacleColor(l, lc.Name(l))
		for _, r := range s.runs {
			if r.Layer != l {
				continue
			}
			ax, ay := cam.WorldToScreen(r.From)
			bx, by := cam.WorldToScreen(r.To)
			pad := half * cam.Zoom
			fillRect(gtx, ax-pad, ay-pad, bx+pad, by+pad, col)
		}
	}

	if s.Result == nil {
		return
	}
	conflict := make(map[int]bool, len(s.Result.Conflicts))
	for _, n := range s.Result.Conflicts {
		conflict[n] = true
	}

	for l := s.Grid.Layers() - 1; l >= 0; l-- {
		if !lc.IsVisible(l) {
			continue
		}
		col := LayerColor(l, lc.Name(l))
		for _, rr := range s.Result.Routes {
			c := col
			if conflict[rr.Net] {
				c = ColorConflict
			}
			for _, seg := range rr.Segments {
				if seg.Layer != l {
					continue
				}
				ax, ay := cam.WorldToScreen(seg.Start)
				bx, by := cam.WorldToScreen(seg.End)
				renderLine(gtx, ax, ay, bx, by, math.Max(1, seg.Width*cam.Zoom), c)
			}
		}
	}

	for _, rr := range s.Result.Routes {
		for _, v := range rr.Vias {
			x, y := cam.WorldToScreen(v.Pos)
			radius := math.Max(2, v.Diameter/2*cam.Zoom)
			renderCircle(gtx, x, y, radius, ColorVia)
			drill := math.Max(1, v.Drill/2*cam.Zoom)
			if drill < radius {
				renderCircle(gtx, x, y, drill, ColorViaDrill)
			}
		}
	}
}

func fillRect(gtx layout.Context, x0, y0, x1, y1 float64, c color.NRGBA) {
	r := image.Rect(int(math.Floor(math.Min(x0, x1))), int(math.Floor(math.Min(y0, y1))),
		int(math.Ceil(math.Max(x0, x1))), int(math.Ceil(math.Max(y0, y1))))
	paint.FillShape(gtx.Ops, c, clip.Rect(r).Op())
}

func renderCircle(gtx layout.Context, x, y, radius float64, c color.NRGBA) {
	stack := op.Affine(f32.Affine2D{}.Offset(f32.Pt(float32(x), float32(y)))).Push(gtx.Ops)
	defer stack.Pop()

	rect := image.Rectangle{
		Min: image.Pt(int(-radius), int(-radius)),
		Max: image.Pt(int(radius), int(radius)),
	}
	paint.FillShape(gtx.Ops, c, clip.Ellipse(rect).Op(gtx.Ops))
}

func renderLine(gtx layout.Context, x1, y1, x2, y2, width float64, c color.NRGBA) {
	var path clip.Path
	path.Begin(gtx.Ops)
	path.MoveTo(f32.Pt(float32(x1), float32(y1)))
	path.LineTo(f32.Pt(float32(x2), float32(y2)))

	stroke := clip.Stroke{
		Path:  path.End(),
		Width: float32(width),
	}.Op()
	paint.FillShape(gtx.Ops, c, stroke)
}
