package viewer

import "image/color"

// KiCad classic copper colours, by layer name.
var copperColors = map[string]color.NRGBA{
	"F.Cu":   {R: 200, G: 52, B: 52, A: 255},
	"B.Cu":   {R: 77, G: 127, B: 196, A: 255},
	"In1.Cu": {R: 127, G: 200, B: 127, A: 255},
	"In2.Cu": {R: 206, G: 125, B: 44, A: 255},
	"In3.Cu": {R: 194, G: 194, B: 0, A: 255},
	"In4.Cu": {R: 194, G: 0, B: 194, A: 255},
}

// Used for layers without a name or a classic colour.
var fallbackColors = []color.NRGBA{
	{R: 200, G: 52, B: 52, A: 255},
	{R: 77, G: 127, B: 196, A: 255},
	{R: 127, G: 200, B: 127, A: 255},
	{R: 206, G: 125, B: 44, A: 255},
	{R: 136, G: 192, B: 208, A: 255},
	{R: 180, G: 142, B: 173, A: 255},
}

var (
	ColorBackground = color.NRGBA{R: 0, G: 16, B: 35, A: 255}
	ColorSubstrate  = color.NRGBA{R: 20, G: 90, B: 50, A: 255}
	ColorVia        = color.NRGBA{R: 236, G: 236, B: 236, A: 255}
	ColorViaDrill   = color.NRGBA{R: 227, G: 183, B: 46, A: 255}
	ColorConflict   = color.NRGBA{R: 255, G: 255, B: 0, A: 255}
)

// LayerColor returns the track colour of layer i named name.
func LayerColor(i int, name string) color.NRGBA {
	if c, ok := copperColors[name]; ok {
		return c
	}
	return fallbackColors[i%len(fallbackColors)]
}

// ObstacleColor is the layer colour faded for fixed copper.
func ObstacleColor(i int, name string) color.NRGBA {
	c := LayerColor(i, name)
	c.A = 90
	return c
}
