package pcb

import "math"

// GetBoundingBox calculates the bounding box of all copper on the board:
// tracks, vias and pads.
func (b *Board) GetBoundingBox() BoundingBox {
	bbox := NewBoundingBox()

	for _, track := range b.Tracks {
		hw := track.Width / 2
		for _, p := range []Position{track.Start, track.End} {
			bbox.Expand(Position{X: p.X - hw, Y: p.Y - hw})
			bbox.Expand(Position{X: p.X + hw, Y: p.Y + hw})
		}
	}

	for _, via := range b.Vias {
		radius := via.Size / 2.0
		bbox.Expand(Position{X: via.Position.X - radius, Y: via.Position.Y - radius})
		bbox.Expand(Position{X: via.Position.X + radius, Y: via.Position.Y + radius})
	}

	for i := range b.Footprints {
		bbox.ExpandBox(b.Footprints[i].GetBoundingBox())
	}

	return bbox
}

// Outline returns the board area: the extent of the Edge.Cuts graphics,
// or the copper bounding box grown by margin when there are none.
func (b *Board) Outline(margin float64) BoundingBox {
	bbox := NewBoundingBox()
	for _, l := range b.Edges.Lines {
		bbox.Expand(l.Start)
		bbox.Expand(l.End)
	}
	for _, r := range b.Edges.Rects {
		bbox.Expand(r.Start)
		bbox.Expand(r.End)
	}
	if !bbox.IsEmpty() {
		return bbox
	}
	bbox = b.GetBoundingBox()
	if bbox.IsEmpty() {
		return bbox
	}
	return bbox.Grow(margin)
}

// GetBoundingBox returns the extent of the footprint's pads, or its
// anchor point when it has none.
func (fp *Footprint) GetBoundingBox() BoundingBox {
	bbox := NewBoundingBox()

	for i := range fp.Pads {
		bbox.ExpandBox(fp.PadBox(&fp.Pads[i]))
	}

	if len(fp.Pads) == 0 {
		bbox.Expand(fp.Position.Position)
	}

	return bbox
}

// PadBox returns the axis-aligned box around a pad of fp, taking the
// pad's absolute rotation into account.
func (fp *Footprint) PadBox(pad *Pad) BoundingBox {
	c := fp.TransformPosition(pad.Position)

	// Pad angles in KiCad 6+ files are absolute.
	rad := pad.Position.Angle.Radians()
	cos, sin := math.Abs(math.Cos(rad)), math.Abs(math.Sin(rad))
	hw := (pad.Size.Width*cos + pad.Size.Height*sin) / 2
	hh := (pad.Size.Width*sin + pad.Size.Height*cos) / 2

	return BoundingBox{
		Min: Position{X: c.X - hw, Y: c.Y - hh},
		Max: Position{X: c.X + hw, Y: c.Y + hh},
	}
}

// TransformPosition transforms a position relative to the footprint into
// board coordinates.
func (fp *Footprint) TransformPosition(relPos PositionAngle) Position {
	return relPos.Position.Rotate(fp.Position.Angle).Add(fp.Position.Position)
}
