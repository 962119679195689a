// Package legacy converts between internal shapes and the flat record schema
// of the external sketch store. Conversion degrades instead of failing:
// unrecognized mode names map to sentinels, malformed numeric text parses to
// 0, and unknown fields survive in the shape's overflow map so a record can
// round-trip untouched.
package legacy

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/plansketch/plansketch/internal/geometry"
	"github.com/plansketch/plansketch/internal/precision"
	"github.com/plansketch/plansketch/internal/types"
)

// UnknownTypeName is the export sentinel for internal modes the store has no
// name for.
const UnknownTypeName = "Unknown"

// Sweep direction buckets. Every store string normalizes to one of these.
const (
	SweepClockwise        = "clockwise"
	SweepCounterClockwise = "counterclockwise"
)

// ModeToTypeName maps an internal mode to its fixed store type name.
// Unrecognized modes map to the Unknown sentinel; the mapping never fails.
func ModeToTypeName(mode types.ShapeMode) string {
	switch mode {
	case types.ModeFreehand:
		return "FreeHand"
	case types.ModeLine:
		return "Line"
	case types.ModeOrthogonalLine:
		return "OrthoLine"
	case types.ModeRectangle:
		return "Rectangle"
	case types.ModeSquare:
		return "Square"
	case types.ModeCircle:
		return "Circle"
	case types.ModeAngle:
		return "Angle"
	case types.ModeCurve:
		return "Curve"
	default:
		return UnknownTypeName
	}
}

// TypeNameToMode maps a store type name back to the internal mode.
// Unrecognized names map to ModeNone; the mapping never fails.
func TypeNameToMode(name string) types.ShapeMode {
	switch name {
	case "FreeHand":
		return types.ModeFreehand
	case "Line":
		return types.ModeLine
	case "OrthoLine":
		return types.ModeOrthogonalLine
	case "Rectangle":
		return types.ModeRectangle
	case "Square":
		return types.ModeSquare
	case "Circle":
		return types.ModeCircle
	case "Angle":
		return types.ModeAngle
	case "Curve":
		return types.ModeCurve
	default:
		return types.ModeNone
	}
}

// NormalizeSweep folds the store's free-text rotation strings into exactly
// two buckets, case-insensitively. "counter" wins before "clock" so
// "CounterClockwise" lands in the right bucket; anything else is clockwise.
func NormalizeSweep(text string) string {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "counter") {
		return SweepCounterClockwise
	}
	return SweepClockwise
}

// FromRecord builds a shape from a store record. The base position always
// becomes point 0; mode-specific endpoint or arc fields append further
// points. A record with no usable mode fields still yields a single-point
// shape, never an empty point list. The original record is retained on the
// shape for round-trip fidelity.
func FromRecord(rec types.LegacyRecord) types.Shape {
	mode := TypeNameToMode(rec.ShapeType)

	points := []types.Point{{
		X: precision.ParseFeet(rec.PosX),
		Y: precision.ParseFeet(rec.PosY),
	}}

	switch mode {
	case types.ModeLine, types.ModeOrthogonalLine, types.ModeAngle, types.ModeFreehand:
		if rec.LineStartX != "" || rec.LineStartY != "" || rec.LineEndX != "" || rec.LineEndY != "" {
			points = append(points,
				types.Point{X: precision.ParseFeet(rec.LineStartX), Y: precision.ParseFeet(rec.LineStartY)},
				types.Point{X: precision.ParseFeet(rec.LineEndX), Y: precision.ParseFeet(rec.LineEndY)},
			)
		}
	case types.ModeCircle, types.ModeCurve:
		arcFields := [][2]string{
			{rec.ArcStartX, rec.ArcStartY},
			{rec.ArcEndX, rec.ArcEndY},
			{rec.ArcControlX, rec.ArcControlY},
		}
		for _, f := range arcFields {
			if f[0] == "" && f[1] == "" {
				continue
			}
			points = append(points, types.Point{
				X: precision.ParseFeet(f[0]),
				Y: precision.ParseFeet(f[1]),
			})
		}
	}

	id := rec.RecordID
	if id == "" {
		id = uuid.NewString()
	}

	keep := rec
	shape := types.Shape{
		ID:        id,
		Mode:      mode,
		Points:    points,
		CreatedAt: parseModifiedAt(rec.ModifiedAt),
		Legacy:    &keep,
	}

	props := types.ShapeProperties{
		Closed: rec.Closed || rec.IsClosed,
	}
	if rec.SweepDirection != "" {
		props.Sweep = NormalizeSweep(rec.SweepDirection)
	}
	if rec.Width != "" {
		props.Width = precision.ParseFeet(rec.Width)
	}
	if rec.Height != "" {
		props.Height = precision.ParseFeet(rec.Height)
	}
	shape.Props = computeImportProperties(mode, points, props)
	return shape
}

// computeImportProperties derives the same measurements completion would,
// from the imported point geometry.
func computeImportProperties(mode types.ShapeMode, points []types.Point, props types.ShapeProperties) types.ShapeProperties {
	switch mode {
	case types.ModeCircle, types.ModeCurve:
		props.Radius = geometry.RadiusFromPoints(points)
		props.Area = geometry.CircleArea(props.Radius)
	case types.ModeRectangle, types.ModeSquare:
		if props.Width != 0 || props.Height != 0 {
			props.Area = geometry.Round2(props.Width * props.Height)
		}
	default:
		if len(points) >= 3 {
			// Endpoint geometry starts after the base position
			props.Angle = geometry.AngleDegrees(points[1], points[2])
			props.Length = geometry.Distance(points[1], points[2])
		}
	}
	return props
}

func parseModifiedAt(text string) time.Time {
	if text == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, text); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// ExportOptions control numeric text rendering on export.
type ExportOptions struct {
	// UseFractions renders quarter-granular measurements as mixed fractions
	UseFractions bool
}

// ToRecord flattens a shape into a store record. When the shape carries its
// originating record, unmodeled fields are copied from it so a pure
// import/export cycle is lossless. The active flag defaults to true unless
// explicitly false, and version to 1 when absent.
func ToRecord(shape types.Shape, opts ExportOptions) types.LegacyRecord {
	var rec types.LegacyRecord
	if shape.Legacy != nil {
		rec = *shape.Legacy
	}

	rec.RecordID = shape.ID
	rec.ShapeType = ModeToTypeName(shape.Mode)

	feet := func(v float64) string { return precision.FormatFeet(v, opts.UseFractions) }

	if len(shape.Points) > 0 {
		rec.PosX = feet(shape.Points[0].X)
		rec.PosY = feet(shape.Points[0].Y)
	}

	switch shape.Mode {
	case types.ModeLine, types.ModeOrthogonalLine, types.ModeAngle, types.ModeFreehand:
		if len(shape.Points) >= 3 {
			rec.LineStartX = feet(shape.Points[1].X)
			rec.LineStartY = feet(shape.Points[1].Y)
			rec.LineEndX = feet(shape.Points[2].X)
			rec.LineEndY = feet(shape.Points[2].Y)
		} else if len(shape.Points) == 2 {
			rec.LineStartX = feet(shape.Points[0].X)
			rec.LineStartY = feet(shape.Points[0].Y)
			rec.LineEndX = feet(shape.Points[1].X)
			rec.LineEndY = feet(shape.Points[1].Y)
		}
	case types.ModeCircle, types.ModeCurve:
		// Base position occupies point 0; arc fields carry the rest
		arc := shape.Points
		if len(arc) >= 1 {
			arc = arc[1:]
		}
		if len(arc) >= 1 {
			rec.ArcStartX = feet(arc[0].X)
			rec.ArcStartY = feet(arc[0].Y)
		}
		if len(arc) >= 2 {
			rec.ArcEndX = feet(arc[1].X)
			rec.ArcEndY = feet(arc[1].Y)
		}
		if len(arc) >= 3 {
			rec.ArcControlX = feet(arc[2].X)
			rec.ArcControlY = feet(arc[2].Y)
		}
	}

	if shape.Props.Width != 0 {
		rec.Width = feet(shape.Props.Width)
	}
	if shape.Props.Height != 0 {
		rec.Height = feet(shape.Props.Height)
	}
	if shape.Props.Sweep != "" {
		rec.SweepDirection = shape.Props.Sweep
	}

	// The internal closure flag replicates to both store booleans
	rec.Closed = shape.Props.Closed
	rec.IsClosed = shape.Props.Closed

	if !shape.CreatedAt.IsZero() {
		rec.ModifiedAt = shape.CreatedAt.UTC().Format(time.RFC3339)
	}
	if rec.Version == 0 {
		rec.Version = 1
	}
	if rec.Active == nil {
		active := true
		rec.Active = &active
	}
	return rec
}

// BuildContext aggregates a group of shapes belonging to one structure:
// declared figures from their legacy records against geometrically computed
// ones. Class and condition come from the first record carrying them.
func BuildContext(shapes []types.Shape) types.BuildingContext {
	ctx := types.BuildingContext{ShapeCount: len(shapes)}
	for _, s := range shapes {
		ctx.ComputedArea += s.Props.Area
		ctx.Perimeter += geometry.Perimeter(s.Points)
		if s.Legacy == nil {
			continue
		}
		ctx.DeclaredArea += precision.ParseFeet(s.Legacy.DeclaredArea)
		if ctx.Class == "" {
			ctx.Class = s.Legacy.BuildingClass
		}
		if ctx.ConditionPct == 0 {
			ctx.ConditionPct = s.Legacy.ConditionPct
		}
	}
	ctx.ComputedArea = geometry.Round2(ctx.ComputedArea)
	ctx.Perimeter = geometry.Round2(ctx.Perimeter)
	return ctx
}
