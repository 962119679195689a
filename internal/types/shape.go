// Package types provides common type definitions used throughout plansketch.
// This package contains shared types to avoid circular dependencies between packages.
package types

import "time"

// Point is a real-valued position on the drawing plane. Points are treated as
// immutable values; operations that move geometry produce new points.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ShapeMode identifies the construction protocol a shape was drawn with.
type ShapeMode string

const (
	ModeFreehand       ShapeMode = "freehand"
	ModeLine           ShapeMode = "line"
	ModeOrthogonalLine ShapeMode = "orthogonal-line"
	ModeRectangle      ShapeMode = "rectangle"
	ModeSquare         ShapeMode = "square"
	ModeCircle         ShapeMode = "circle"
	ModeAngle          ShapeMode = "angle"
	ModeCurve          ShapeMode = "curve"

	// ModeNone is the sentinel for legacy records whose type name is not
	// recognized. Conversion degrades to it rather than failing.
	ModeNone ShapeMode = ""
)

// Modes lists the closed set of drawable modes, in a stable order.
var Modes = []ShapeMode{
	ModeFreehand,
	ModeLine,
	ModeOrthogonalLine,
	ModeRectangle,
	ModeSquare,
	ModeCircle,
	ModeAngle,
	ModeCurve,
}

// MinPoints returns the number of points a shape of this mode needs before it
// can be completed.
func (m ShapeMode) MinPoints() int {
	if m == ModeCurve {
		return 3
	}
	return 2
}

// IsLineLike reports whether the mode produces a two-point segment with angle
// and length properties.
func (m ShapeMode) IsLineLike() bool {
	switch m {
	case ModeLine, ModeOrthogonalLine, ModeAngle, ModeFreehand:
		return true
	default:
		return false
	}
}

// ShapeProperties holds the derived and legacy-origin measurements of a shape.
// The fixed fields cover every value the engine computes; Extra is reserved for
// unrecognized legacy fields that must survive a round-trip through the
// external record schema.
type ShapeProperties struct {
	// Length is the segment length for line-like modes
	Length float64 `json:"length,omitempty"`
	// Angle is the segment direction in degrees, normalized to [0,360)
	Angle float64 `json:"angle,omitempty"`
	// Width and Height are the axis-aligned extents for rectangle/square modes
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	// Radius is the center-to-edge distance for circle/curve modes
	Radius float64 `json:"radius,omitempty"`
	// Area is the enclosed area, rounded to 2 decimals
	Area float64 `json:"area,omitempty"`
	// Closed records the legacy closure flag (two legacy booleans OR-reduced)
	Closed bool `json:"closed,omitempty"`
	// Sweep is the normalized arc direction, "clockwise" or "counterclockwise"
	Sweep string `json:"sweep,omitempty"`
	// Extra carries unrecognized legacy fields for round-trip fidelity only
	Extra map[string]string `json:"extra,omitempty"`
}

// Clone returns a deep copy of the properties.
func (p ShapeProperties) Clone() ShapeProperties {
	out := p
	if p.Extra != nil {
		out.Extra = make(map[string]string, len(p.Extra))
		for k, v := range p.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// Shape is one completed or in-progress user-drawn figure. Completed shapes
// are frozen: mutating commands replace them wholesale rather than editing
// fields in place.
type Shape struct {
	// ID is an opaque identifier, unique within a canvas
	ID string `json:"id"`
	// Mode is the construction protocol the shape was drawn with
	Mode ShapeMode `json:"mode"`
	// Points is the ordered defining point sequence, never empty for a
	// completed shape
	Points []Point `json:"points"`
	// Props holds derived measurements plus legacy-origin fields
	Props ShapeProperties `json:"props"`
	// CreatedAt records completion time
	CreatedAt time.Time `json:"createdAt"`
	// Legacy preserves the originating external record, if the shape was
	// imported, so exports can round-trip fields the engine does not model
	Legacy *LegacyRecord `json:"legacy,omitempty"`
}

// Clone returns a deep copy of the shape.
func (s Shape) Clone() Shape {
	out := s
	out.Points = make([]Point, len(s.Points))
	copy(out.Points, s.Points)
	out.Props = s.Props.Clone()
	if s.Legacy != nil {
		rec := *s.Legacy
		out.Legacy = &rec
	}
	return out
}

// Bounds returns the axis-aligned bounding box of the shape's points.
func (s Shape) Bounds() (minX, minY, maxX, maxY float64) {
	if len(s.Points) == 0 {
		return 0, 0, 0, 0
	}
	minX, minY = s.Points[0].X, s.Points[0].Y
	maxX, maxY = minX, minY
	for _, p := range s.Points[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return minX, minY, maxX, maxY
}

// CanvasState is the complete drawing surface state: the committed object
// collection (insertion order meaningful), at most one in-progress shape, and
// at most one selection. Readers treat any returned state as an immutable
// snapshot; every mutation produces a new value.
type CanvasState struct {
	Objects    []Shape `json:"objects"`
	Current    *Shape  `json:"currentObject,omitempty"`
	SelectedID string  `json:"selectedId,omitempty"`
}

// Clone returns a deep copy of the state.
func (c CanvasState) Clone() CanvasState {
	out := CanvasState{SelectedID: c.SelectedID}
	out.Objects = make([]Shape, len(c.Objects))
	for i, s := range c.Objects {
		out.Objects[i] = s.Clone()
	}
	if c.Current != nil {
		cur := c.Current.Clone()
		out.Current = &cur
	}
	return out
}

// FindShape returns the index of the shape with the given id, or -1.
func (c CanvasState) FindShape(id string) int {
	for i := range c.Objects {
		if c.Objects[i].ID == id {
			return i
		}
	}
	return -1
}
