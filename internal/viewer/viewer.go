// Package viewer shows a routed grid in a Gio window.
//
// Controls: wheel zooms at the cursor, dragging pans, F fits the board,
// B flips to the bottom view, 1-9 toggle layers, 0 shows all layers and
// Escape or Q closes the window.
package viewer

import (
	"image"
	"math"

	"gioui.org/app"
	"gioui.org/io/event"
	"gioui.org/io/key"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"github.com/oligo/gioview/theme"
	"golang.org/x/exp/shiny/materialdesign/icons"

	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing"
)

// Viewer holds the interactive state of one window.
type Viewer struct {
	scene  *Scene
	camera *Camera
	layers *LayerConfig
	theme  *theme.Theme

	fitBtn, flipBtn, zoomInBtn, zoomOutBtn widget.Clickable
	fitIcon, flipIcon, zoomInIcon, zoomOutIcon *widget.Icon

	dragging bool
	last     [2]float32
	fitted   bool
}

// New creates a viewer for scene.
func New(scene *Scene) *Viewer {
	v := &Viewer{
		scene:  scene,
		camera: NewCamera(1000, 800),
		layers: NewLayerConfig(scene.Layers),
	}
	if icon, err := widget.NewIcon(icons.NavigationFullscreen); err == nil {
		v.fitIcon = icon
	}
	if icon, err := widget.NewIcon(icons.ImageFlip); err == nil {
		v.flipIcon = icon
	}
	if icon, err := widget.NewIcon(icons.ActionZoomIn); err == nil {
		v.zoomInIcon = icon
	}
	if icon, err := widget.NewIcon(icons.ActionZoomOut); err == nil {
		v.zoomOutIcon = icon
	}
	return v
}

// Camera returns the viewer's camera.
func (v *Viewer) Camera() *Camera { return v.camera }

// Layers returns the layer visibility state.
func (v *Viewer) Layers() *LayerConfig { return v.layers }

// Fit frames the whole board.
func (v *Viewer) Fit() {
	min, max := v.scene.Bounds()
	v.camera.Fit(min, max)
}

// HandleKey applies a key press and reports whether the window should
// close.
func (v *Viewer) HandleKey(name key.Name) bool {
	switch name {
	case key.NameEscape, "Q":
		return true
	case "F":
		v.Fit()
	case "B":
		v.camera.Flip()
	case "0":
		v.layers.ShowAll()
	case "+", "=":
		v.camera.ZoomAt(float64(v.camera.ScreenWidth)/2, float64(v.camera.ScreenHeight)/2, 1.25)
	case "-":
		v.camera.ZoomAt(float64(v.camera.ScreenWidth)/2, float64(v.camera.ScreenHeight)/2, 0.8)
	default:
		if len(name) == 1 && name[0] >= '1' && name[0] <= '9' {
			l := int(name[0] - '1')
			if l < v.scene.Grid.Layers() {
				shown := v.layers.Toggle(l)
				routing.Tracef("viewer: layer %s visible=%v", v.layers.Name(l), shown)
			}
		}
	}
	return false
}

// Run drives w until it is closed.
func (v *Viewer) Run(w *app.Window) error {
	v.theme = theme.NewTheme("", nil, true)
	var ops op.Ops
	for {
		switch e := w.Event().(type) {
		case app.DestroyEvent:
			return e.Err

		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)

			for {
				ev, ok := gtx.Event(key.Filter{})
				if !ok {
					break
				}
				if ke, ok := ev.(key.Event); ok && ke.State == key.Press {
					if v.HandleKey(ke.Name) {
						return nil
					}
				}
			}

			paint.Fill(gtx.Ops, ColorBackground)
			layout.Flex{Axis: layout.Vertical}.Layout(gtx,
				layout.Rigid(v.layoutToolbar),
				layout.Flexed(1, v.layoutCanvas),
			)
			e.Frame(gtx.Ops)
		}
	}
}

func (v *Viewer) layoutToolbar(gtx layout.Context) layout.Dimensions {
	th := v.theme.Theme
	if v.fitBtn.Clicked(gtx) {
		v.Fit()
	}
	if v.flipBtn.Clicked(gtx) {
		v.camera.Flip()
	}
	if v.zoomInBtn.Clicked(gtx) {
		v.HandleKey("+")
	}
	if v.zoomOutBtn.Clicked(gtx) {
		v.HandleKey("-")
	}

	button := func(btn *widget.Clickable, icon *widget.Icon, desc string) layout.FlexChild {
		return layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			if icon == nil {
				return material.Button(th, btn, desc).Layout(gtx)
			}
			b := material.IconButton(th, btn, icon, desc)
			b.Size = unit.Dp(18)
			b.Inset = layout.UniformInset(unit.Dp(6))
			return layout.Inset{Right: unit.Dp(4)}.Layout(gtx, b.Layout)
		})
	}

	return layout.UniformInset(unit.Dp(6)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
			button(&v.fitBtn, v.fitIcon, "Fit"),
			button(&v.flipBtn, v.flipIcon, "Flip"),
			button(&v.zoomInBtn, v.zoomInIcon, "Zoom in"),
			button(&v.zoomOutBtn, v.zoomOutIcon, "Zoom out"),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				lbl := material.Caption(th, v.scene.Caption()+"  "+v.layerSummary())
				lbl.Color = ColorVia
				return layout.Inset{Left: unit.Dp(8)}.Layout(gtx, lbl.Layout)
			}),
		)
	})
}

func (v *Viewer) layerSummary() string {
	out := ""
	for l := 0; l < v.scene.Grid.Layers(); l++ {
		mark := "-"
		if v.layers.IsVisible(l) {
			mark = "+"
		}
		out += " " + mark + v.layers.Name(l)
	}
	return out
}

func (v *Viewer) layoutCanvas(gtx layout.Context) layout.Dimensions {
	size := gtx.Constraints.Max
	v.camera.UpdateScreenSize(size.X, size.Y)
	if !v.fitted && size.X > 0 && size.Y > 0 {
		v.Fit()
		v.fitted = true
	}

	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target:  v,
			Kinds:   pointer.Press | pointer.Drag | pointer.Release | pointer.Scroll,
			ScrollY: pointer.ScrollRange{Min: -100, Max: 100},
		})
		if !ok {
			break
		}
		pe, ok := ev.(pointer.Event)
		if !ok {
			continue
		}
		switch pe.Kind {
		case pointer.Press:
			v.dragging = true
			v.last = [2]float32{pe.Position.X, pe.Position.Y}
		case pointer.Drag:
			if v.dragging {
				v.camera.Pan(float64(pe.Position.X-v.last[0]), float64(pe.Position.Y-v.last[1]))
				v.last = [2]float32{pe.Position.X, pe.Position.Y}
			}
		case pointer.Release:
			v.dragging = false
		case pointer.Scroll:
			factor := math.Exp(-float64(pe.Scroll.Y) * 0.02)
			v.camera.ZoomAt(float64(pe.Position.X), float64(pe.Position.Y), factor)
		}
	}

	defer clip.Rect(image.Rectangle{Max: size}).Push(gtx.Ops).Pop()
	event.Op(gtx.Ops, v)
	drawScene(gtx, v.camera, v.scene, v.layers)
	return layout.Dimensions{Size: size}
}
