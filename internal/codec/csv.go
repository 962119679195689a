package codec

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/plansketch/plansketch/internal/legacy"
	"github.com/plansketch/plansketch/internal/types"
)

// tabularColumns is the fixed export column order: identity, type, position,
// line and arc fields, closure, styling, declared/computed area, audit.
var tabularColumns = []string{
	"recordId", "shapeType",
	"posX", "posY", "width", "height",
	"lineStartX", "lineStartY", "lineEndX", "lineEndY",
	"arcStartX", "arcStartY", "arcEndX", "arcEndY", "arcControlX", "arcControlY",
	"sweepDirection", "closed", "isClosed",
	"lineColor", "lineWeight", "fillPattern",
	"buildingClass", "conditionPct", "declaredArea", "declaredPerimeter", "computedArea",
	"notes", "page", "adjustment",
	"modifiedBy", "modifiedAt", "version", "active",
}

// encodeShapesCSV renders the tabular export: a header row then one row per
// shape. encoding/csv quote-wraps fields containing the delimiter, quotes, or
// line breaks, doubling internal quotes.
func encodeShapesCSV(shapes []types.Shape, opts legacy.ExportOptions) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(tabularColumns); err != nil {
		return nil, err
	}
	for _, shape := range shapes {
		rec := legacy.ToRecord(shape, opts)
		if err := w.Write(tabularRow(rec, shape.Props.Area)); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func tabularRow(rec types.LegacyRecord, computedArea float64) []string {
	active := "true"
	if rec.Active != nil && !*rec.Active {
		active = "false"
	}
	return []string{
		rec.RecordID, rec.ShapeType,
		rec.PosX, rec.PosY, rec.Width, rec.Height,
		rec.LineStartX, rec.LineStartY, rec.LineEndX, rec.LineEndY,
		rec.ArcStartX, rec.ArcStartY, rec.ArcEndX, rec.ArcEndY, rec.ArcControlX, rec.ArcControlY,
		rec.SweepDirection, strconv.FormatBool(rec.Closed), strconv.FormatBool(rec.IsClosed),
		rec.LineColor, rec.LineWeight, rec.FillPattern,
		rec.BuildingClass, formatFloat(rec.ConditionPct), rec.DeclaredArea, rec.DeclaredPerim,
		formatFloat(computedArea),
		rec.Notes, rec.Page, rec.Adjustment,
		rec.ModifiedBy, rec.ModifiedAt, strconv.Itoa(rec.Version), active,
	}
}

func formatFloat(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
