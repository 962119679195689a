package codec

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/plansketch/plansketch/internal/errors"
	"github.com/plansketch/plansketch/internal/legacy"
	"github.com/plansketch/plansketch/internal/types"
)

// hierarchicalState is the full-canvas JSON form: the shape records plus the
// selection and the aggregate building context.
type hierarchicalState struct {
	Shapes     []types.LegacyRecord  `json:"shapes"`
	SelectedID string                `json:"selectedId,omitempty"`
	Building   types.BuildingContext `json:"buildingContext"`
}

func encodeShapeJSON(shape types.Shape, opts legacy.ExportOptions) ([]byte, error) {
	return json.MarshalIndent(legacy.ToRecord(shape, opts), "", "  ")
}

func encodeShapesJSON(shapes []types.Shape, opts legacy.ExportOptions) ([]byte, error) {
	records := make([]types.LegacyRecord, len(shapes))
	for i, s := range shapes {
		records[i] = legacy.ToRecord(s, opts)
	}
	return json.MarshalIndent(records, "", "  ")
}

func encodeStateJSON(state types.CanvasState, opts legacy.ExportOptions) ([]byte, error) {
	doc := hierarchicalState{
		Shapes:     make([]types.LegacyRecord, len(state.Objects)),
		SelectedID: state.SelectedID,
		Building:   legacy.BuildContext(state.Objects),
	}
	for i, s := range state.Objects {
		doc.Shapes[i] = legacy.ToRecord(s, opts)
	}
	return json.MarshalIndent(doc, "", "  ")
}

// lenientUnmarshal decodes JSON into v, tolerating field-level type
// mismatches: encoding/json fills every well-formed field and reports the
// first mismatch, which we treat as a degraded field rather than a failure.
// Structural errors are returned as-is.
func lenientUnmarshal(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		if _, ok := err.(*json.UnmarshalTypeError); ok {
			return nil
		}
		return err
	}
	return nil
}

func decodeShapeJSON(data []byte) (types.Shape, error) {
	var rec types.LegacyRecord
	if err := lenientUnmarshal(data, &rec); err != nil {
		return types.Shape{}, errors.NewDecodeError(string(FormatHierarchical), err)
	}
	return legacy.FromRecord(rec), nil
}

func decodeShapesJSON(data []byte, collector *errors.RecordCollector) ([]types.Shape, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.NewDecodeError(string(FormatHierarchical), err)
	}

	shapes := make([]types.Shape, 0, len(raw))
	for i, msg := range raw {
		var rec types.LegacyRecord
		if err := lenientUnmarshal(msg, &rec); err != nil {
			collector.Add(errors.RecordError{
				Index:    i,
				Message:  err.Error(),
				Severity: errors.SeverityError,
			})
			continue
		}
		shapes = append(shapes, legacy.FromRecord(rec))
	}
	return shapes, nil
}

func decodeStateJSON(data []byte) (types.CanvasState, error) {
	var doc hierarchicalState
	if err := lenientUnmarshal(data, &doc); err != nil {
		return types.CanvasState{}, errors.NewDecodeError(string(FormatHierarchical), err)
	}

	state := types.CanvasState{SelectedID: doc.SelectedID}
	for _, rec := range doc.Shapes {
		state.Objects = append(state.Objects, legacy.FromRecord(rec))
	}
	// The selection invariant holds even against inconsistent documents
	if state.SelectedID != "" && state.FindShape(state.SelectedID) < 0 {
		state.SelectedID = ""
	}
	return state, nil
}

// Envelope is the persisted-state wrapper. Undo/redo depths are recorded as
// metadata only; history never survives a reload.
type Envelope struct {
	FormatVersion int              `json:"formatVersion"`
	Timestamp     time.Time        `json:"timestamp"`
	State         EnvelopeState    `json:"state"`
	Metadata      EnvelopeMetadata `json:"metadata"`
}

// EnvelopeState carries the canvas content.
type EnvelopeState struct {
	Objects       []types.Shape `json:"objects"`
	CurrentObject *types.Shape  `json:"currentObject,omitempty"`
	SelectedID    string        `json:"selectedId,omitempty"`
}

// EnvelopeMetadata summarizes the canvas at save time.
type EnvelopeMetadata struct {
	ObjectCount   int  `json:"objectCount"`
	HasInProgress bool `json:"hasInProgress"`
	UndoDepth     int  `json:"undoDepth"`
	RedoDepth     int  `json:"redoDepth"`
}

// EnvelopeFormatVersion is the current persisted-state schema version.
const EnvelopeFormatVersion = 2

// EncodeEnvelope renders the persisted-state envelope for a canvas snapshot.
func EncodeEnvelope(state types.CanvasState, undoDepth, redoDepth int) ([]byte, error) {
	env := Envelope{
		FormatVersion: EnvelopeFormatVersion,
		Timestamp:     time.Now().UTC(),
		State: EnvelopeState{
			Objects:       state.Objects,
			CurrentObject: state.Current,
			SelectedID:    state.SelectedID,
		},
		Metadata: EnvelopeMetadata{
			ObjectCount:   len(state.Objects),
			HasInProgress: state.Current != nil,
			UndoDepth:     undoDepth,
			RedoDepth:     redoDepth,
		},
	}
	return json.MarshalIndent(env, "", "  ")
}

// DecodeEnvelope parses a persisted-state document. Both the current envelope
// and the legacy form (a bare objects array with no metadata) are accepted;
// either way the loaded canvas starts with empty undo/redo history.
func DecodeEnvelope(data []byte) (types.CanvasState, error) {
	var probe interface{}
	if err := json.Unmarshal(data, &probe); err != nil {
		return types.CanvasState{}, errors.NewDecodeError("envelope", err)
	}

	switch probe.(type) {
	case []interface{}:
		// Legacy envelope: a bare objects array
		var objects []types.Shape
		if err := lenientUnmarshal(data, &objects); err != nil {
			return types.CanvasState{}, errors.NewDecodeError("envelope", err)
		}
		return types.CanvasState{Objects: objects}, nil
	case map[string]interface{}:
		var env Envelope
		if err := lenientUnmarshal(data, &env); err != nil {
			return types.CanvasState{}, errors.NewDecodeError("envelope", err)
		}
		state := types.CanvasState{
			Objects:    env.State.Objects,
			Current:    env.State.CurrentObject,
			SelectedID: env.State.SelectedID,
		}
		if state.SelectedID != "" && state.FindShape(state.SelectedID) < 0 {
			state.SelectedID = ""
		}
		return state, nil
	default:
		return types.CanvasState{}, errors.NewDecodeError("envelope",
			fmt.Errorf("expected object or array, got %T", probe))
	}
}
