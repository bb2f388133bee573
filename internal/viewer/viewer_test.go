package viewer

import (
	"testing"

	"gioui.org/io/key"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/grid"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/negotiate"
	"github.com/OpenTraceLab/OpenTraceRoute/pkg/routing/rules"
)

func testGrid(t *testing.T) *grid.Grid {
	t.Helper()
	r := rules.Default()
	r.Resolution = 1
	g, err := grid.New(10, 5, 2, r, routing.Point{X: 100, Y: 50})
	require.NoError(t, err)
	return g
}

func TestCameraRoundTrip(t *testing.T) {
	for _, mirrored := range []bool{false, true} {
		cam := NewCamera(800, 600)
		cam.CenterX, cam.CenterY, cam.Zoom, cam.Mirrored = 12, -3, 7, mirrored

		p := routing.Point{X: 15.5, Y: 2.25}
		sx, sy := cam.WorldToScreen(p)
		got := cam.ScreenToWorld(sx, sy)
		assert.InDelta(t, p.X, got.X, 1e-9)
		assert.InDelta(t, p.Y, got.Y, 1e-9)
	}
}

func TestCameraFit(t *testing.T) {
	cam := NewCamera(1000, 500)
	cam.Fit(routing.Point{X: 0, Y: 0}, routing.Point{X: 100, Y: 20})

	assert.Equal(t, 50.0, cam.CenterX)
	assert.Equal(t, 10.0, cam.CenterY)
	assert.InDelta(t, 9.0, cam.Zoom, 1e-9)

	min, max := cam.Visible()
	assert.Less(t, min.X, 0.0)
	assert.Greater(t, max.X, 100.0)
}

func TestCameraZoomAtKeepsPoint(t *testing.T) {
	cam := NewCamera(400, 400)
	before := cam.ScreenToWorld(100, 300)
	cam.ZoomAt(100, 300, 3)
	after := cam.ScreenToWorld(100, 300)
	assert.InDelta(t, before.X, after.X, 1e-9)
	assert.InDelta(t, before.Y, after.Y, 1e-9)
	assert.Equal(t, 30.0, cam.Zoom)

	cam.ZoomAt(0, 0, 1e9)
	assert.Equal(t, MaxZoom, cam.Zoom)
}

func TestCameraPan(t *testing.T) {
	cam := NewCamera(400, 400)
	cam.Pan(20, -10)
	assert.Equal(t, -2.0, cam.CenterX)
	assert.Equal(t, 1.0, cam.CenterY)

	cam.Flip()
	cam.Pan(20, 0)
	assert.Equal(t, 0.0, cam.CenterX)
}

func TestLayerConfig(t *testing.T) {
	lc := NewLayerConfig([]string{"F.Cu", "B.Cu"})
	assert.True(t, lc.IsVisible(0))
	assert.False(t, lc.Toggle(1))
	assert.False(t, lc.IsVisible(1))
	assert.Equal(t, "B.Cu", lc.Name(1))
	assert.Equal(t, "L5", lc.Name(5))

	lc.ShowOnly(1)
	assert.False(t, lc.IsVisible(0))
	assert.True(t, lc.IsVisible(1))
	lc.ShowAll()
	assert.True(t, lc.IsVisible(0))
}

func TestObstacleRuns(t *testing.T) {
	g := testGrid(t)
	g.MarkRectBlocked(routing.Point{X: 102, Y: 51}, routing.Point{X: 104, Y: 51}, 1, 3)
	g.MarkBlocked(9, 4, 0, 1)

	runs := ObstacleRuns(g)
	require.Len(t, runs, 2)
	assert.Equal(t, Run{Layer: 0, From: routing.Point{X: 109, Y: 54}, To: routing.Point{X: 109, Y: 54}}, runs[0])
	assert.Equal(t, Run{Layer: 1, From: routing.Point{X: 102, Y: 51}, To: routing.Point{X: 104, Y: 51}}, runs[1])
}

func TestSceneCaption(t *testing.T) {
	g := testGrid(t)
	s := NewScene(g, nil, []string{"F.Cu", "B.Cu"})
	assert.Equal(t, "11x6 cells, 2 layers", s.Caption())

	min, max := s.Bounds()
	assert.Equal(t, routing.Point{X: 100, Y: 50}, min)
	assert.Equal(t, routing.Point{X: 110, Y: 55}, max)

	s.Result = &negotiate.Result{Rounds: 4, Stats: negotiate.Stats{NetsRouted: 1, NetsTotal: 2, Vias: 3, TotalLength: 12.5, Overflow: 2}}
	assert.Equal(t, "1/2 nets  3 vias  12.50 mm  4 rounds  overflow 2", s.Caption())
}

func TestHandleKey(t *testing.T) {
	v := New(NewScene(testGrid(t), nil, []string{"F.Cu", "B.Cu"}))
	v.Camera().UpdateScreenSize(200, 100)

	assert.True(t, v.HandleKey(key.NameEscape))
	assert.False(t, v.HandleKey("2"))
	assert.False(t, v.Layers().IsVisible(1))
	v.HandleKey("9")
	assert.True(t, v.Layers().IsVisible(8))
	v.HandleKey("0")
	assert.True(t, v.Layers().IsVisible(1))

	v.HandleKey("F")
	assert.Equal(t, 105.0, v.Camera().CenterX)
	assert.InDelta(t, 18.0, v.Camera().Zoom, 1e-9)
	v.HandleKey("B")
	assert.True(t, v.Camera().Mirrored)
}
