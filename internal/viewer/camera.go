package viewer

import (
	"math"

	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing"
)

// Zoom limits in pixels per mm.
const (
	MinZoom = 0.1
	MaxZoom = 1000.0
)

// Camera maps board millimetres onto window pixels. Board Y grows
// downward like screen Y, so no axis inversion is needed.
type Camera struct {
	// Center position in board coordinates (mm)
	CenterX float64
	CenterY float64

	// Zoom level (pixels per mm)
	Zoom float64

	ScreenWidth  int
	ScreenHeight int

	// Mirrored shows the board from the bottom side.
	Mirrored bool
}

// NewCamera creates a camera with default settings.
func NewCamera(screenWidth, screenHeight int) *Camera {
	return &Camera{
		Zoom:         10.0,
		ScreenWidth:  screenWidth,
		ScreenHeight: screenHeight,
	}
}

// WorldToScreen converts board coordinates (mm) to screen pixels.
func (c *Camera) WorldToScreen(p routing.Point) (float64, float64) {
	x := p.X - c.CenterX
	y := p.Y - c.CenterY
	if c.Mirrored {
		x = -x
	}
	return x*c.Zoom + float64(c.ScreenWidth)/2, y*c.Zoom + float64(c.ScreenHeight)/2
}

// ScreenToWorld converts screen pixels to board coordinates (mm).
func (c *Camera) ScreenToWorld(sx, sy float64) routing.Point {
	x := (sx - float64(c.ScreenWidth)/2) / c.Zoom
	y := (sy - float64(c.ScreenHeight)/2) / c.Zoom
	if c.Mirrored {
		x = -x
	}
	return routing.Point{X: x + c.CenterX, Y: y + c.CenterY}
}

// Pan moves the camera by screen pixel offsets.
func (c *Camera) Pan(dx, dy float64) {
	if c.Mirrored {
		dx = -dx
	}
	c.CenterX -= dx / c.Zoom
	c.CenterY -= dy / c.Zoom
}

// ZoomAt zooms around a screen position, keeping the board point under it
// fixed. factor > 1 zooms in.
func (c *Camera) ZoomAt(sx, sy, factor float64) {
	before := c.ScreenToWorld(sx, sy)
	c.Zoom = math.Min(MaxZoom, math.Max(MinZoom, c.Zoom*factor))
	after := c.ScreenToWorld(sx, sy)
	c.CenterX += before.X - after.X
	c.CenterY += before.Y - after.Y
}

// Fit centres the rectangle min..max and zooms so it fills 90% of the
// smaller screen dimension.
func (c *Camera) Fit(min, max routing.Point) {
	width := max.X - min.X
	height := max.Y - min.Y
	if width <= 0 || height <= 0 || c.ScreenWidth <= 0 || c.ScreenHeight <= 0 {
		return
	}
	c.CenterX = (min.X + max.X) / 2
	c.CenterY = (min.Y + max.Y) / 2
	c.Zoom = math.Min(float64(c.ScreenWidth)*0.9/width, float64(c.ScreenHeight)*0.9/height)
}

// UpdateScreenSize updates camera when window is resized
func (c *Camera) UpdateScreenSize(width, height int) {
	c.ScreenWidth = width
	c.ScreenHeight = height
}

// Flip toggles between top and bottom view.
func (c *Camera) Flip() {
	c.Mirrored = !c.Mirrored
}

// Visible returns the board rectangle currently on screen.
func (c *Camera) Visible() (min, max routing.Point) {
	a := c.ScreenToWorld(0, 0)
	b := c.ScreenToWorld(float64(c.ScreenWidth), float64(c.ScreenHeight))
	return routing.Point{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y)},
		routing.Point{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y)}
}
