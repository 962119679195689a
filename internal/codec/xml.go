package codec

import (
	"encoding/xml"
	"strconv"
	"strings"

	"github.com/plansketch/plansketch/internal/errors"
	"github.com/plansketch/plansketch/internal/legacy"
	"github.com/plansketch/plansketch/internal/types"
)

// xmlShape is the tagged-markup form of one shape: scalar fields as
// attributes, adjustment text as the element body. Every attribute is a
// string so a malformed value degrades during mapping instead of failing the
// parse; unknown attributes are ignored by encoding/xml, and missing ones
// stay empty.
type xmlShape struct {
	XMLName xml.Name `xml:"shape"`

	RecordID  string `xml:"recordId,attr,omitempty"`
	ShapeType string `xml:"shapeType,attr,omitempty"`
	PosX      string `xml:"posX,attr,omitempty"`
	PosY      string `xml:"posY,attr,omitempty"`
	Width     string `xml:"width,attr,omitempty"`
	Height    string `xml:"height,attr,omitempty"`

	LineStartX string `xml:"lineStartX,attr,omitempty"`
	LineStartY string `xml:"lineStartY,attr,omitempty"`
	LineEndX   string `xml:"lineEndX,attr,omitempty"`
	LineEndY   string `xml:"lineEndY,attr,omitempty"`

	ArcStartX   string `xml:"arcStartX,attr,omitempty"`
	ArcStartY   string `xml:"arcStartY,attr,omitempty"`
	ArcEndX     string `xml:"arcEndX,attr,omitempty"`
	ArcEndY     string `xml:"arcEndY,attr,omitempty"`
	ArcControlX string `xml:"arcControlX,attr,omitempty"`
	ArcControlY string `xml:"arcControlY,attr,omitempty"`

	SweepDirection string `xml:"sweepDirection,attr,omitempty"`
	Closed         string `xml:"closed,attr,omitempty"`
	IsClosed       string `xml:"isClosed,attr,omitempty"`

	LineColor   string `xml:"lineColor,attr,omitempty"`
	LineWeight  string `xml:"lineWeight,attr,omitempty"`
	FillPattern string `xml:"fillPattern,attr,omitempty"`

	BuildingClass string `xml:"buildingClass,attr,omitempty"`
	ConditionPct  string `xml:"conditionPct,attr,omitempty"`
	DeclaredArea  string `xml:"declaredArea,attr,omitempty"`
	DeclaredPerim string `xml:"declaredPerimeter,attr,omitempty"`
	Notes         string `xml:"notes,attr,omitempty"`
	Page          string `xml:"page,attr,omitempty"`

	ModifiedBy string `xml:"modifiedBy,attr,omitempty"`
	ModifiedAt string `xml:"modifiedAt,attr,omitempty"`
	Version    string `xml:"version,attr,omitempty"`
	Active     string `xml:"active,attr,omitempty"`

	Adjustment string `xml:",chardata"`
}

// xmlDocument is the root collection element wrapping per-shape elements.
type xmlDocument struct {
	XMLName    xml.Name   `xml:"sketch"`
	SelectedID string     `xml:"selectedId,attr,omitempty"`
	Shapes     []xmlShape `xml:"shape"`
}

func recordToXML(rec types.LegacyRecord) xmlShape {
	s := xmlShape{
		RecordID:       rec.RecordID,
		ShapeType:      rec.ShapeType,
		PosX:           rec.PosX,
		PosY:           rec.PosY,
		Width:          rec.Width,
		Height:         rec.Height,
		LineStartX:     rec.LineStartX,
		LineStartY:     rec.LineStartY,
		LineEndX:       rec.LineEndX,
		LineEndY:       rec.LineEndY,
		ArcStartX:      rec.ArcStartX,
		ArcStartY:      rec.ArcStartY,
		ArcEndX:        rec.ArcEndX,
		ArcEndY:        rec.ArcEndY,
		ArcControlX:    rec.ArcControlX,
		ArcControlY:    rec.ArcControlY,
		SweepDirection: rec.SweepDirection,
		LineColor:      rec.LineColor,
		LineWeight:     rec.LineWeight,
		FillPattern:    rec.FillPattern,
		BuildingClass:  rec.BuildingClass,
		DeclaredArea:   rec.DeclaredArea,
		DeclaredPerim:  rec.DeclaredPerim,
		Notes:          rec.Notes,
		Page:           rec.Page,
		ModifiedBy:     rec.ModifiedBy,
		ModifiedAt:     rec.ModifiedAt,
		Adjustment:     rec.Adjustment,
	}
	if rec.Closed {
		s.Closed = "true"
	}
	if rec.IsClosed {
		s.IsClosed = "true"
	}
	if rec.ConditionPct != 0 {
		s.ConditionPct = strconv.FormatFloat(rec.ConditionPct, 'f', -1, 64)
	}
	if rec.Version != 0 {
		s.Version = strconv.Itoa(rec.Version)
	}
	if rec.Active != nil {
		s.Active = strconv.FormatBool(*rec.Active)
	}
	return s
}

func xmlToRecord(s xmlShape) types.LegacyRecord {
	rec := types.LegacyRecord{
		RecordID:       s.RecordID,
		ShapeType:      s.ShapeType,
		PosX:           s.PosX,
		PosY:           s.PosY,
		Width:          s.Width,
		Height:         s.Height,
		LineStartX:     s.LineStartX,
		LineStartY:     s.LineStartY,
		LineEndX:       s.LineEndX,
		LineEndY:       s.LineEndY,
		ArcStartX:      s.ArcStartX,
		ArcStartY:      s.ArcStartY,
		ArcEndX:        s.ArcEndX,
		ArcEndY:        s.ArcEndY,
		ArcControlX:    s.ArcControlX,
		ArcControlY:    s.ArcControlY,
		SweepDirection: s.SweepDirection,
		LineColor:      s.LineColor,
		LineWeight:     s.LineWeight,
		FillPattern:    s.FillPattern,
		BuildingClass:  s.BuildingClass,
		DeclaredArea:   s.DeclaredArea,
		DeclaredPerim:  s.DeclaredPerim,
		Notes:          s.Notes,
		Page:           s.Page,
		ModifiedBy:     s.ModifiedBy,
		ModifiedAt:     s.ModifiedAt,
		Adjustment:     strings.TrimSpace(s.Adjustment),
	}
	// Lenient scalar mapping: bad values degrade rather than fail
	rec.Closed = strings.EqualFold(s.Closed, "true")
	rec.IsClosed = strings.EqualFold(s.IsClosed, "true")
	if v, err := strconv.ParseFloat(s.ConditionPct, 64); err == nil {
		rec.ConditionPct = v
	}
	if v, err := strconv.Atoi(s.Version); err == nil {
		rec.Version = v
	}
	if s.Active != "" {
		if v, err := strconv.ParseBool(s.Active); err == nil {
			rec.Active = &v
		}
	}
	return rec
}

func encodeShapeXML(shape types.Shape, opts legacy.ExportOptions) ([]byte, error) {
	return xml.MarshalIndent(recordToXML(legacy.ToRecord(shape, opts)), "", "  ")
}

func encodeShapesXML(shapes []types.Shape, opts legacy.ExportOptions) ([]byte, error) {
	doc := xmlDocument{Shapes: make([]xmlShape, len(shapes))}
	for i, s := range shapes {
		doc.Shapes[i] = recordToXML(legacy.ToRecord(s, opts))
	}
	return xml.MarshalIndent(doc, "", "  ")
}

func encodeStateXML(state types.CanvasState, opts legacy.ExportOptions) ([]byte, error) {
	doc := xmlDocument{
		SelectedID: state.SelectedID,
		Shapes:     make([]xmlShape, len(state.Objects)),
	}
	for i, s := range state.Objects {
		doc.Shapes[i] = recordToXML(legacy.ToRecord(s, opts))
	}
	return xml.MarshalIndent(doc, "", "  ")
}

func decodeShapeXML(data []byte) (types.Shape, error) {
	var s xmlShape
	if err := xml.Unmarshal(data, &s); err != nil {
		return types.Shape{}, errors.NewDecodeError(string(FormatTaggedMarkup), err)
	}
	return legacy.FromRecord(xmlToRecord(s)), nil
}

func decodeShapesXML(data []byte, collector *errors.RecordCollector) ([]types.Shape, error) {
	var doc xmlDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewDecodeError(string(FormatTaggedMarkup), err)
	}

	shapes := make([]types.Shape, 0, len(doc.Shapes))
	for i, xs := range doc.Shapes {
		rec := xmlToRecord(xs)
		if rec.ShapeType == "" && rec.RecordID == "" {
			collector.Add(errors.RecordError{
				Index:    i,
				Message:  "shape element carries neither a type nor an id",
				Severity: errors.SeverityWarning,
			})
			continue
		}
		shapes = append(shapes, legacy.FromRecord(rec))
	}
	return shapes, nil
}

func decodeStateXML(data []byte) (types.CanvasState, error) {
	var doc xmlDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return types.CanvasState{}, errors.NewDecodeError(string(FormatTaggedMarkup), err)
	}

	state := types.CanvasState{SelectedID: doc.SelectedID}
	for _, xs := range doc.Shapes {
		state.Objects = append(state.Objects, legacy.FromRecord(xmlToRecord(xs)))
	}
	if state.SelectedID != "" && state.FindShape(state.SelectedID) < 0 {
		state.SelectedID = ""
	}
	return state, nil
}
