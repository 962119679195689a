package engine

import (
	"github.com/plansketch/plansketch/internal/geometry"
	"github.com/plansketch/plansketch/internal/types"
)

// lockedAxis tracks the orthogonal-line constraint for the current drag.
type lockedAxis int

const (
	axisNone lockedAxis = iota
	axisHorizontal
	axisVertical
)

// maxPoints returns the point capacity of a mode while collecting. Once at
// capacity, further samples update the last point (the drag position).
// Freehand is unbounded.
func maxPoints(mode types.ShapeMode) int {
	switch mode {
	case types.ModeFreehand:
		return 0
	case types.ModeCurve:
		return 3
	default:
		return 2
	}
}

// applyPoint folds one pointer sample into the in-progress shape under the
// mode's point semantics. The shape is mutated in place; callers pass a
// fresh clone. Returns the possibly updated axis lock.
func applyPoint(cur *types.Shape, p types.Point, axis lockedAxis) lockedAxis {
	if cur.Mode == types.ModeOrthogonalLine && len(cur.Points) >= 1 {
		p, axis = constrainOrthogonal(cur.Points[0], p, axis)
	}

	capacity := maxPoints(cur.Mode)
	if capacity == 0 || len(cur.Points) < capacity {
		cur.Points = append(cur.Points, p)
	} else {
		cur.Points[len(cur.Points)-1] = p
	}
	return axis
}

// constrainOrthogonal forces p to share the anchor's x or y. The axis is
// chosen by the larger displacement the first time the point moves off the
// anchor, then held for the rest of the drag.
func constrainOrthogonal(anchor, p types.Point, axis lockedAxis) (types.Point, lockedAxis) {
	dx := p.X - anchor.X
	dy := p.Y - anchor.Y

	if axis == axisNone && (dx != 0 || dy != 0) {
		if abs(dx) >= abs(dy) {
			axis = axisHorizontal
		} else {
			axis = axisVertical
		}
	}

	switch axis {
	case axisHorizontal:
		p.Y = anchor.Y
	case axisVertical:
		p.X = anchor.X
	}
	return p, axis
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// canComplete reports whether the in-progress shape has enough points to be
// frozen. Completion with fewer is a silent no-op.
func canComplete(cur *types.Shape) bool {
	return cur != nil && len(cur.Points) >= cur.Mode.MinPoints()
}

// computeProperties derives the completion measurements for a shape. Areas
// are rounded to 2 decimals; angles and lengths keep full precision.
// Existing legacy-origin Extra fields are preserved.
func computeProperties(mode types.ShapeMode, points []types.Point, base types.ShapeProperties) types.ShapeProperties {
	props := base.Clone()

	switch mode {
	case types.ModeRectangle:
		if len(points) >= 2 {
			r := geometry.RectangleBounds(points[0], points[1])
			props.Width = r.Width()
			props.Height = r.Height()
			props.Area = geometry.Round2(props.Width * props.Height)
		}
	case types.ModeSquare:
		if len(points) >= 2 {
			r := geometry.SquareBounds(points[0], points[1])
			props.Width = r.Width()
			props.Height = r.Height()
			props.Area = geometry.Round2(props.Width * props.Height)
		}
	case types.ModeCircle, types.ModeCurve:
		props.Radius = geometry.RadiusFromPoints(points)
		props.Area = geometry.CircleArea(props.Radius)
	default:
		if len(points) >= 2 {
			props.Angle = geometry.AngleDegrees(points[0], points[1])
			props.Length = geometry.Distance(points[0], points[1])
		}
		if len(points) >= 3 {
			props.Area = geometry.Round2(geometry.PolygonArea(points))
		}
	}

	return props
}
