// Package codec serializes shapes and canvas state in the three legacy wire
// formats: hierarchical (JSON), tagged-markup (XML), and tabular (CSV,
// encode-only). All formats translate through the legacy record schema.
//
// Decode tolerance follows the store's contract: a malformed individual field
// degrades to its zero value, and in batch decodes a malformed record is
// collected and skipped; only a structurally unparseable envelope is a hard
// failure, surfaced as *errors.DecodeError.
package codec

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/plansketch/plansketch/internal/errors"
	"github.com/plansketch/plansketch/internal/legacy"
	"github.com/plansketch/plansketch/internal/types"
)

// Format identifies a wire format.
type Format string

const (
	FormatHierarchical Format = "hierarchical"
	FormatTaggedMarkup Format = "tagged-markup"
	FormatTabular      Format = "tabular"
)

// Formats lists every known format.
var Formats = []Format{FormatHierarchical, FormatTaggedMarkup, FormatTabular}

// ParseFormat resolves a format name, accepting the common aliases used on
// the command line.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "hierarchical", "json":
		return FormatHierarchical, nil
	case "tagged-markup", "xml":
		return FormatTaggedMarkup, nil
	case "tabular", "csv":
		return FormatTabular, nil
	default:
		return "", fmt.Errorf("unknown format %q (expected hierarchical, tagged-markup, or tabular)", name)
	}
}

// DetectFormat infers a format from a file path's extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatHierarchical, nil
	case ".xml":
		return FormatTaggedMarkup, nil
	case ".csv":
		return FormatTabular, nil
	default:
		return "", fmt.Errorf("cannot infer format from %q, use an explicit format flag", path)
	}
}

// EncodeShape renders one shape in the given format.
func EncodeShape(shape types.Shape, format Format, opts legacy.ExportOptions) ([]byte, error) {
	switch format {
	case FormatHierarchical:
		return encodeShapeJSON(shape, opts)
	case FormatTaggedMarkup:
		return encodeShapeXML(shape, opts)
	case FormatTabular:
		return encodeShapesCSV([]types.Shape{shape}, opts)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// EncodeShapes renders a shape collection in the given format.
func EncodeShapes(shapes []types.Shape, format Format, opts legacy.ExportOptions) ([]byte, error) {
	switch format {
	case FormatHierarchical:
		return encodeShapesJSON(shapes, opts)
	case FormatTaggedMarkup:
		return encodeShapesXML(shapes, opts)
	case FormatTabular:
		return encodeShapesCSV(shapes, opts)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// EncodeState renders a full canvas state, including the selection id and the
// aggregate building context. The tabular format carries rows only and is
// rejected here.
func EncodeState(state types.CanvasState, format Format, opts legacy.ExportOptions) ([]byte, error) {
	switch format {
	case FormatHierarchical:
		return encodeStateJSON(state, opts)
	case FormatTaggedMarkup:
		return encodeStateXML(state, opts)
	case FormatTabular:
		return nil, fmt.Errorf("tabular format carries shape rows only, not full canvas state")
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// DecodeShape parses one shape. The tabular format is export-only.
func DecodeShape(data []byte, format Format) (types.Shape, error) {
	switch format {
	case FormatHierarchical:
		return decodeShapeJSON(data)
	case FormatTaggedMarkup:
		return decodeShapeXML(data)
	case FormatTabular:
		return types.Shape{}, fmt.Errorf("tabular format is export-only")
	default:
		return types.Shape{}, fmt.Errorf("unknown format %q", format)
	}
}

// DecodeShapes parses a shape collection. Malformed individual records are
// reported through the collector and skipped; the batch continues. A nil
// collector discards per-record failures.
func DecodeShapes(data []byte, format Format, collector *errors.RecordCollector) ([]types.Shape, error) {
	if collector == nil {
		collector = errors.NewRecordCollector()
	}
	switch format {
	case FormatHierarchical:
		return decodeShapesJSON(data, collector)
	case FormatTaggedMarkup:
		return decodeShapesXML(data, collector)
	case FormatTabular:
		return nil, fmt.Errorf("tabular format is export-only")
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// DecodeState parses a full canvas state.
func DecodeState(data []byte, format Format) (types.CanvasState, error) {
	switch format {
	case FormatHierarchical:
		return decodeStateJSON(data)
	case FormatTaggedMarkup:
		return decodeStateXML(data)
	case FormatTabular:
		return types.CanvasState{}, fmt.Errorf("tabular format is export-only")
	default:
		return types.CanvasState{}, fmt.Errorf("unknown format %q", format)
	}
}
