// Package geometry provides the pure measurement functions behind shape
// construction and reconciliation: distances, angles, bounding boxes, polygon
// area and perimeter, and alignment snapping.
//
// Every function is total. Degenerate input (too few points, zero-size boxes)
// yields a neutral zero value rather than an error, so callers never need a
// failure path for geometry.
package geometry

import (
	"math"

	"github.com/plansketch/plansketch/internal/types"
)

// Distance returns the Euclidean distance between two points. It is symmetric
// and zero for equal points.
func Distance(p1, p2 types.Point) float64 {
	return math.Hypot(p2.X-p1.X, p2.Y-p1.Y)
}

// Angle returns the direction from p1 to p2 in radians, per math.Atan2.
func Angle(p1, p2 types.Point) float64 {
	return math.Atan2(p2.Y-p1.Y, p2.X-p1.X)
}

// AngleDegrees returns the direction from p1 to p2 in degrees, normalized to
// [0, 360).
func AngleDegrees(p1, p2 types.Point) float64 {
	deg := Angle(p1, p2) * 180 / math.Pi
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// Rect is an axis-aligned box.
type Rect struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// Width returns the horizontal extent of the box.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns the vertical extent of the box.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Center returns the midpoint of the box.
func (r Rect) Center() types.Point {
	return types.Point{X: (r.MinX + r.MaxX) / 2, Y: (r.MinY + r.MaxY) / 2}
}

// RectangleBounds returns the axis-aligned box spanned by two opposite
// corners, regardless of which corner is which.
func RectangleBounds(p1, p2 types.Point) Rect {
	return Rect{
		MinX: math.Min(p1.X, p2.X),
		MinY: math.Min(p1.Y, p2.Y),
		MaxX: math.Max(p1.X, p2.X),
		MaxY: math.Max(p1.Y, p2.Y),
	}
}

// SquareBounds returns the square spanned from the anchor p1 toward p2. The
// side is the larger of the two displacements; the square grows toward the
// lower-coordinate corner when p2 is below or left of the anchor.
func SquareBounds(p1, p2 types.Point) Rect {
	side := math.Max(math.Abs(p2.X-p1.X), math.Abs(p2.Y-p1.Y))
	minX, minY := p1.X, p1.Y
	if p2.X < p1.X {
		minX = p1.X - side
	}
	if p2.Y < p1.Y {
		minY = p1.Y - side
	}
	return Rect{MinX: minX, MinY: minY, MaxX: minX + side, MaxY: minY + side}
}

// PolygonArea returns the area enclosed by the point sequence via the shoelace
// formula, treating the sequence as closed (last point connects back to the
// first). Fewer than 3 points yield 0. The result is unit-agnostic.
func PolygonArea(points []types.Point) float64 {
	if len(points) < 3 {
		return 0
	}
	sum := 0.0
	for i := range points {
		j := (i + 1) % len(points)
		sum += points[i].X*points[j].Y - points[j].X*points[i].Y
	}
	return math.Abs(sum) / 2
}

// Perimeter returns the total edge length of the closed point sequence,
// including the closure edge back to the first point. Fewer than 2 points
// yield 0.
func Perimeter(points []types.Point) float64 {
	if len(points) < 2 {
		return 0
	}
	total := 0.0
	for i := range points {
		j := (i + 1) % len(points)
		total += Distance(points[i], points[j])
	}
	return total
}

// RadiusFromPoints returns the distance from the first point (center) to the
// second (edge), or 0 when fewer than 2 points are given.
func RadiusFromPoints(points []types.Point) float64 {
	if len(points) < 2 {
		return 0
	}
	return Distance(points[0], points[1])
}

// CircleArea returns the area of a circle with the given radius, rounded to 2
// decimals.
func CircleArea(radius float64) float64 {
	return Round2(math.Pi * radius * radius)
}

// Round2 rounds to 2 decimal places. Non-finite values pass through.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return math.Round(v*100) / 100
}

// SnapResult reports the per-axis outcome of an alignment search. Each axis is
// independent: X/Y hold the snapped center coordinate and are meaningful only
// when the corresponding Snapped flag is set.
type SnapResult struct {
	X        float64
	Y        float64
	SnappedX bool
	SnappedY bool
}

// AlignmentSnap searches the other boxes for the coordinate nearest the moving
// box's center, independently per axis. Candidates per box are its minimum,
// center, and maximum on each axis. A candidate wins only if within threshold;
// the globally closest candidate per axis is chosen.
func AlignmentSnap(box Rect, others []Rect, threshold float64) SnapResult {
	center := box.Center()
	res := SnapResult{}
	bestX, bestY := threshold, threshold
	for _, o := range others {
		oc := o.Center()
		for _, cx := range [3]float64{o.MinX, oc.X, o.MaxX} {
			if d := math.Abs(cx - center.X); d <= bestX {
				bestX = d
				res.X = cx
				res.SnappedX = true
			}
		}
		for _, cy := range [3]float64{o.MinY, oc.Y, o.MaxY} {
			if d := math.Abs(cy - center.Y); d <= bestY {
				bestY = d
				res.Y = cy
				res.SnappedY = true
			}
		}
	}
	return res
}
