// Package engine implements the drawing-canvas core: the shape construction
// state machine, the undo/redo history over the canvas object collection, and
// the command/query API external surfaces consume.
//
// The engine is single-writer: commands run synchronously on the calling
// goroutine and every mutation is one atomic replacement of the whole canvas
// state, so readers (served snapshots, event watchers) never observe a
// half-applied transition.
package engine

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/plansketch/plansketch/internal/geometry"
	"github.com/plansketch/plansketch/internal/logging"
	"github.com/plansketch/plansketch/internal/types"
)

// Canvas is the drawing surface engine. All exported methods are safe for
// concurrent use; mutations serialize on the internal lock.
type Canvas struct {
	mutex    sync.RWMutex
	history  *History
	tool     types.ShapeMode
	axis     lockedAxis
	snap     float64
	logger   logging.Logger
	watchers []chan types.CanvasEvent
}

// NewCanvas creates an empty canvas. A nil logger discards log output.
func NewCanvas(logger logging.Logger) *Canvas {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Canvas{
		history: NewHistory(types.CanvasState{}),
		tool:    types.ModeLine,
		logger:  logger.WithComponent("engine"),
	}
}

// SetTool selects the construction mode for subsequent points. Switching
// tools discards any in-progress shape; committed history is untouched.
func (c *Canvas) SetTool(mode types.ShapeMode) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.tool = mode
	c.axis = axisNone
	st := c.history.Present()
	if st.Current != nil && st.Current.Mode != mode {
		next := st.Clone()
		next.Current = nil
		c.history.Replace(next)
	}
}

// Tool returns the active construction mode.
func (c *Canvas) Tool() types.ShapeMode {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.tool
}

// AddPoint feeds one pointer sample into the construction machine. The first
// sample seeds a new in-progress shape in the active mode; later samples
// append or update points under the mode's semantics. In-progress edits are
// not history entries; cancel or complete ends the collection.
func (c *Canvas) AddPoint(p types.Point) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	next := c.history.Present().Clone()
	if next.Current == nil {
		if c.tool == types.ModeNone {
			return
		}
		next.Current = &types.Shape{
			ID:     uuid.NewString(),
			Mode:   c.tool,
			Points: []types.Point{p},
		}
		c.axis = axisNone
	} else {
		c.axis = applyPoint(next.Current, p, c.axis)
	}
	c.history.Replace(next)
}

// CompleteShape freezes the in-progress shape: derived properties are
// computed, the shape joins the object collection, and exactly one history
// entry is pushed. With too few points the call is a silent no-op and the
// machine stays collecting, so the caller may add more points and retry.
func (c *Canvas) CompleteShape() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	st := c.history.Present()
	if !canComplete(st.Current) {
		return false
	}

	next := st.Clone()
	shape := *next.Current
	shape.Props = computeProperties(shape.Mode, shape.Points, shape.Props)
	shape.CreatedAt = time.Now()
	next.Objects = append(next.Objects, shape)
	next.Current = nil

	c.history.Commit(next)
	c.axis = axisNone
	c.logger.Debug(context.Background(), "shape completed",
		"shape_id", shape.ID, "mode", string(shape.Mode), "points", len(shape.Points))
	c.notify(types.EventTypeAdded, shape.ID, len(next.Objects))
	return true
}

// CancelShape discards the in-progress shape without touching committed
// history. It is the only explicit abort path.
func (c *Canvas) CancelShape() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	st := c.history.Present()
	if st.Current == nil {
		return
	}
	next := st.Clone()
	next.Current = nil
	c.history.Replace(next)
	c.axis = axisNone
}

// ClearCanvas removes every object, the in-progress shape, and the selection
// as one recorded mutation.
func (c *Canvas) ClearCanvas() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.history.Commit(types.CanvasState{})
	c.axis = axisNone
	c.notify(types.EventTypeCleared, "", 0)
}

// DeleteShape removes the identified object. Unknown ids are a no-op with no
// history entry. A selection pointing at the deleted shape is cleared so it
// always references a live object.
func (c *Canvas) DeleteShape(id string) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	st := c.history.Present()
	idx := st.FindShape(id)
	if idx < 0 {
		return false
	}

	next := st.Clone()
	next.Objects = append(next.Objects[:idx], next.Objects[idx+1:]...)
	if next.SelectedID == id {
		next.SelectedID = ""
	}
	c.history.Commit(next)
	c.notify(types.EventTypeRemoved, id, len(next.Objects))
	return true
}

// SelectShape sets the selection to the given id, or clears it when id is
// empty. Ids not referencing a live object are ignored. Selection never
// creates a history entry.
func (c *Canvas) SelectShape(id string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	st := c.history.Present()
	if id != "" && st.FindShape(id) < 0 {
		return
	}
	next := st.Clone()
	next.SelectedID = id
	c.history.Replace(next)
}

// SetSnapThreshold enables alignment snapping on moves. A zero or negative
// threshold disables it.
func (c *Canvas) SetSnapThreshold(threshold float64) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.snap = threshold
}

// MoveShapeBy translates a committed shape. Derived measurements are
// translation-invariant and left as computed. When a snap threshold is set,
// the moved shape additionally aligns to the nearest edge or center of the
// other shapes within the threshold, per axis.
func (c *Canvas) MoveShapeBy(id string, dx, dy float64) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	st := c.history.Present()
	idx := st.FindShape(id)
	if idx < 0 {
		return false
	}

	next := st.Clone()
	shape := &next.Objects[idx]
	for i := range shape.Points {
		shape.Points[i].X += dx
		shape.Points[i].Y += dy
	}

	if c.snap > 0 {
		others := make([]geometry.Rect, 0, len(next.Objects)-1)
		for i := range next.Objects {
			if i == idx {
				continue
			}
			others = append(others, shapeRect(next.Objects[i]))
		}
		box := shapeRect(*shape)
		res := geometry.AlignmentSnap(box, others, c.snap)
		center := box.Center()
		if res.SnappedX {
			shift := res.X - center.X
			for i := range shape.Points {
				shape.Points[i].X += shift
			}
		}
		if res.SnappedY {
			shift := res.Y - center.Y
			for i := range shape.Points {
				shape.Points[i].Y += shift
			}
		}
	}

	c.history.Commit(next)
	c.notify(types.EventTypeUpdated, id, len(next.Objects))
	return true
}

func shapeRect(s types.Shape) geometry.Rect {
	minX, minY, maxX, maxY := s.Bounds()
	return geometry.Rect{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}
}

// ResizeShape replaces a committed shape's defining points and recomputes its
// derived properties. An empty point list is rejected as a no-op: a shape
// never has zero points.
func (c *Canvas) ResizeShape(id string, newPoints []types.Point) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if len(newPoints) == 0 {
		return false
	}
	st := c.history.Present()
	idx := st.FindShape(id)
	if idx < 0 {
		return false
	}

	next := st.Clone()
	shape := &next.Objects[idx]
	shape.Points = make([]types.Point, len(newPoints))
	copy(shape.Points, newPoints)
	shape.Props = computeProperties(shape.Mode, shape.Points, shape.Props)
	c.history.Commit(next)
	c.notify(types.EventTypeUpdated, id, len(next.Objects))
	return true
}

// UpdateShapeProperties applies a bulk property update to a committed shape
// as one recorded mutation. Recognized numeric keys update the fixed fields;
// everything else lands in the overflow map for round-trip fidelity.
func (c *Canvas) UpdateShapeProperties(id string, updates map[string]string) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	st := c.history.Present()
	idx := st.FindShape(id)
	if idx < 0 || len(updates) == 0 {
		return false
	}

	next := st.Clone()
	next.Objects[idx].Props = mergeProperties(next.Objects[idx].Props, updates)
	c.history.Commit(next)
	c.notify(types.EventTypeUpdated, id, len(next.Objects))
	return true
}

// UpdateInProgressProperties merges properties into the in-progress shape.
// Like all in-progress edits it is excluded from undo.
func (c *Canvas) UpdateInProgressProperties(updates map[string]string) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	st := c.history.Present()
	if st.Current == nil || len(updates) == 0 {
		return false
	}
	next := st.Clone()
	next.Current.Props = mergeProperties(next.Current.Props, updates)
	c.history.Replace(next)
	return true
}

// mergeProperties folds a string-keyed update map into fixed properties,
// routing unrecognized keys to Extra.
func mergeProperties(props types.ShapeProperties, updates map[string]string) types.ShapeProperties {
	out := props.Clone()
	for key, val := range updates {
		switch key {
		case "length":
			out.Length = parseFloatOrZero(val)
		case "angle":
			out.Angle = parseFloatOrZero(val)
		case "width":
			out.Width = parseFloatOrZero(val)
		case "height":
			out.Height = parseFloatOrZero(val)
		case "radius":
			out.Radius = parseFloatOrZero(val)
		case "area":
			out.Area = parseFloatOrZero(val)
		case "closed":
			out.Closed = val == "true"
		case "sweep":
			out.Sweep = val
		default:
			if out.Extra == nil {
				out.Extra = make(map[string]string)
			}
			out.Extra[key] = val
		}
	}
	return out
}

func parseFloatOrZero(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// ImportShapes appends a batch of already-built shapes as a single recorded
// mutation, so one undo reverts the whole import.
func (c *Canvas) ImportShapes(shapes []types.Shape) {
	if len(shapes) == 0 {
		return
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()

	next := c.history.Present().Clone()
	for _, s := range shapes {
		next.Objects = append(next.Objects, s.Clone())
	}
	c.history.Commit(next)
	c.logger.Info(context.Background(), "shapes imported", "count", len(shapes))
	c.notify(types.EventTypeRestored, "", len(next.Objects))
}

// RestoreState installs a loaded canvas state. With resetHistory set the
// undo/redo stacks start empty, as required for legacy envelopes that carry
// no metadata; otherwise the restore itself is undoable.
func (c *Canvas) RestoreState(state types.CanvasState, resetHistory bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	snapshot := state.Clone()
	if resetHistory {
		c.history = NewHistory(snapshot)
	} else {
		c.history.Commit(snapshot)
	}
	c.axis = axisNone
	c.notify(types.EventTypeRestored, "", len(snapshot.Objects))
}

// Undo reverts the latest committed mutation. No-op when nothing to undo.
func (c *Canvas) Undo() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.history.Undo() {
		return false
	}
	st := c.history.Present()
	c.notify(types.EventTypeRestored, "", len(st.Objects))
	return true
}

// Redo re-applies the latest undone mutation. No-op when nothing to redo.
func (c *Canvas) Redo() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.history.Redo() {
		return false
	}
	st := c.history.Present()
	c.notify(types.EventTypeRestored, "", len(st.Objects))
	return true
}

// CurrentState returns an immutable snapshot of the canvas.
func (c *Canvas) CurrentState() types.CanvasState {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.history.Present().Clone()
}

// CanUndo reports whether an undo step exists.
func (c *Canvas) CanUndo() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.history.CanUndo()
}

// CanRedo reports whether a redo step exists.
func (c *Canvas) CanRedo() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.history.CanRedo()
}

// UndoDepth returns the number of undoable steps.
func (c *Canvas) UndoDepth() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.history.UndoDepth()
}

// RedoDepth returns the number of redoable steps.
func (c *Canvas) RedoDepth() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.history.RedoDepth()
}

// Watch returns a channel that receives canvas events for committed changes.
func (c *Canvas) Watch() <-chan types.CanvasEvent {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	ch := make(chan types.CanvasEvent, 100)
	c.watchers = append(c.watchers, ch)
	return ch
}

// Unwatch removes a watcher channel and closes it.
func (c *Canvas) Unwatch(ch <-chan types.CanvasEvent) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for i, watcher := range c.watchers {
		if watcher == ch {
			close(watcher)
			c.watchers = append(c.watchers[:i], c.watchers[i+1:]...)
			break
		}
	}
}

// notify fans an event out to all watchers. Callers hold the lock. Sends are
// non-blocking; a full watcher misses the event rather than stalling the
// command path.
func (c *Canvas) notify(eventType types.EventType, shapeID string, count int) {
	event := types.CanvasEvent{
		Type:        eventType,
		ShapeID:     shapeID,
		ObjectCount: count,
		Timestamp:   time.Now(),
	}
	for _, watcher := range c.watchers {
		select {
		case watcher <- event:
		default:
		}
	}
}
