// Package sexp holds the geometry types and S-expression navigation
// helpers shared by the KiCad readers. Coordinates are millimetres, angles
// degrees, as written in KiCad 6+ files.
package sexp

import "math"

// Position represents a 2D coordinate in the KiCad coordinate system (Y
// grows downwards).
type Position struct {
	X float64
	Y float64
}

// Angle represents rotation in degrees
type Angle float64

// Radians converts the angle.
func (a Angle) Radians() float64 { return float64(a) * math.Pi / 180 }

// PositionAngle combines position with rotation
type PositionAngle struct {
	Position
	Angle Angle
}

// Rotate turns p about the origin the way KiCad rotates footprint
// children: a positive angle is counter-clockwise on screen.
func (p Position) Rotate(a Angle) Position {
	if a == 0 {
		return p
	}
	rad := -a.Radians()
	cos, sin := math.Cos(rad), math.Sin(rad)
	return Position{X: p.X*cos - p.Y*sin, Y: p.X*sin + p.Y*cos}
}

// Add returns p translated by q.
func (p Position) Add(q Position) Position {
	return Position{X: p.X + q.X, Y: p.Y + q.Y}
}

// Size represents dimensions
type Size struct {
	Width  float64
	Height float64
}

// BoundingBox represents a rectangular boundary
type BoundingBox struct {
	Min Position // Minimum (top-left) corner
	Max Position // Maximum (bottom-right) corner
}

// NewBoundingBox creates an empty bounding box
func NewBoundingBox() BoundingBox {
	return BoundingBox{
		Min: Position{X: math.Inf(1), Y: math.Inf(1)},
		Max: Position{X: math.Inf(-1), Y: math.Inf(-1)},
	}
}

// IsEmpty checks if the bounding box is empty
func (bb BoundingBox) IsEmpty() bool {
	return bb.Min.X > bb.Max.X || bb.Min.Y > bb.Max.Y
}

// Expand expands the bounding box to include a position
func (bb *BoundingBox) Expand(pos Position) {
	bb.Min.X = math.Min(bb.Min.X, pos.X)
	bb.Min.Y = math.Min(bb.Min.Y, pos.Y)
	bb.Max.X = math.Max(bb.Max.X, pos.X)
	bb.Max.Y = math.Max(bb.Max.Y, pos.Y)
}

// ExpandBox expands to include another bounding box
func (bb *BoundingBox) ExpandBox(other BoundingBox) {
	if !other.IsEmpty() {
		bb.Expand(other.Min)
		bb.Expand(other.Max)
	}
}

// Grow returns the box enlarged by d on every side.
func (bb BoundingBox) Grow(d float64) BoundingBox {
	return BoundingBox{
		Min: Position{X: bb.Min.X - d, Y: bb.Min.Y - d},
		Max: Position{X: bb.Max.X + d, Y: bb.Max.Y + d},
	}
}

// Intersects checks if two bounding boxes intersect
func (bb BoundingBox) Intersects(other BoundingBox) bool {
	return bb.Min.X <= other.Max.X && bb.Max.X >= other.Min.X &&
		bb.Min.Y <= other.Max.Y && bb.Max.Y >= other.Min.Y
}

// Contains checks if a position is within the bounding box
func (bb BoundingBox) Contains(pos Position) bool {
	return pos.X >= bb.Min.X && pos.X <= bb.Max.X &&
		pos.Y >= bb.Min.Y && pos.Y <= bb.Max.Y
}

// Width returns the width of the bounding box
func (bb BoundingBox) Width() float64 {
	return bb.Max.X - bb.Min.X
}

// Height returns the height of the bounding box
func (bb BoundingBox) Height() float64 {
	return bb.Max.Y - bb.Min.Y
}

// Center returns the center point of the bounding box
func (bb BoundingBox) Center() Position {
	return Position{
		X: (bb.Min.X + bb.Max.X) / 2.0,
		Y: (bb.Min.Y + bb.Max.Y) / 2.0,
	}
}

// GrLine represents a line graphic element
type GrLine struct {
	Start Position
	End   Position
	Width float64
	Layer string
}

// GrRect represents a rectangle graphic element
type GrRect struct {
	Start Position // One corner
	End   Position // The opposite corner
	Width float64
	Layer string
}
