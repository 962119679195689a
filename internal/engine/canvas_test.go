package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plansketch/plansketch/internal/types"
)

func newTestCanvas(mode types.ShapeMode) *Canvas {
	c := NewCanvas(nil)
	c.SetTool(mode)
	return c
}

func TestCompleteLineWithOnePointIsRejected(t *testing.T) {
	c := newTestCanvas(types.ModeLine)
	c.AddPoint(types.Point{X: 1, Y: 1})

	assert.False(t, c.CompleteShape())

	st := c.CurrentState()
	assert.Len(t, st.Objects, 0)
	// Machine stays collecting so the caller may add more points
	require.NotNil(t, st.Current)
	assert.Len(t, st.Current.Points, 1)

	// Adding the second point makes completion succeed
	c.AddPoint(types.Point{X: 4, Y: 5})
	assert.True(t, c.CompleteShape())
	st = c.CurrentState()
	assert.Len(t, st.Objects, 1)
	assert.Nil(t, st.Current)
}

func TestCompleteLineProperties(t *testing.T) {
	c := newTestCanvas(types.ModeLine)
	c.AddPoint(types.Point{X: 0, Y: 0})
	c.AddPoint(types.Point{X: 3, Y: 4})
	require.True(t, c.CompleteShape())

	shape := c.CurrentState().Objects[0]
	assert.NotEmpty(t, shape.ID)
	assert.False(t, shape.CreatedAt.IsZero())
	assert.InDelta(t, 5.0, shape.Props.Length, 1e-9)
	assert.InDelta(t, 53.13010235415598, shape.Props.Angle, 1e-9)
}

func TestCompleteCurveRequiresThreePoints(t *testing.T) {
	c := newTestCanvas(types.ModeCurve)
	c.AddPoint(types.Point{X: 0, Y: 0})
	c.AddPoint(types.Point{X: 10, Y: 0})
	assert.False(t, c.CompleteShape())

	c.AddPoint(types.Point{X: 5, Y: 5})
	require.True(t, c.CompleteShape())

	st := c.CurrentState()
	require.Len(t, st.Objects, 1)
	shape := st.Objects[0]
	assert.Equal(t, types.ModeCurve, shape.Mode)
	assert.Len(t, shape.Points, 3)
	assert.InDelta(t, 10.0, shape.Props.Radius, 1e-9)
	assert.InDelta(t, 314.16, shape.Props.Area, 1e-9)
}

func TestCurveExtraSamplesUpdateControlPoint(t *testing.T) {
	c := newTestCanvas(types.ModeCurve)
	c.AddPoint(types.Point{X: 0, Y: 0})
	c.AddPoint(types.Point{X: 10, Y: 0})
	c.AddPoint(types.Point{X: 5, Y: 5})
	c.AddPoint(types.Point{X: 6, Y: 8}) // drag adjusts the control point

	st := c.CurrentState()
	require.NotNil(t, st.Current)
	require.Len(t, st.Current.Points, 3)
	assert.Equal(t, types.Point{X: 6, Y: 8}, st.Current.Points[2])
}

func TestTwoPointModesDragUpdatesSecondPoint(t *testing.T) {
	c := newTestCanvas(types.ModeRectangle)
	c.AddPoint(types.Point{X: 0, Y: 0})
	c.AddPoint(types.Point{X: 5, Y: 5})
	c.AddPoint(types.Point{X: 10, Y: 20})

	st := c.CurrentState()
	require.NotNil(t, st.Current)
	require.Len(t, st.Current.Points, 2)
	assert.Equal(t, types.Point{X: 10, Y: 20}, st.Current.Points[1])

	require.True(t, c.CompleteShape())
	shape := c.CurrentState().Objects[0]
	assert.Equal(t, 10.0, shape.Props.Width)
	assert.Equal(t, 20.0, shape.Props.Height)
	assert.Equal(t, 200.0, shape.Props.Area)
}

func TestFreehandCollectsUnboundedAndGetsShoelaceArea(t *testing.T) {
	c := newTestCanvas(types.ModeFreehand)
	c.AddPoint(types.Point{X: 0, Y: 0})
	c.AddPoint(types.Point{X: 10, Y: 0})
	c.AddPoint(types.Point{X: 10, Y: 20})
	c.AddPoint(types.Point{X: 0, Y: 20})

	require.True(t, c.CompleteShape())
	shape := c.CurrentState().Objects[0]
	assert.Len(t, shape.Points, 4)
	assert.Equal(t, 200.0, shape.Props.Area)
}

func TestOrthogonalLineLocksAxis(t *testing.T) {
	c := newTestCanvas(types.ModeOrthogonalLine)
	c.AddPoint(types.Point{X: 10, Y: 10})
	// Larger horizontal displacement locks the horizontal axis
	c.AddPoint(types.Point{X: 30, Y: 14})

	st := c.CurrentState()
	require.NotNil(t, st.Current)
	assert.Equal(t, types.Point{X: 30, Y: 10}, st.Current.Points[1])

	// Later drag samples keep the locked axis even when vertical displacement
	// grows larger
	c.AddPoint(types.Point{X: 12, Y: 90})
	st = c.CurrentState()
	assert.Equal(t, types.Point{X: 12, Y: 10}, st.Current.Points[1])

	require.True(t, c.CompleteShape())
	shape := c.CurrentState().Objects[0]
	assert.Equal(t, 0.0, shape.Props.Angle)
	assert.InDelta(t, 2.0, shape.Props.Length, 1e-9)
}

func TestOrthogonalLineVerticalLock(t *testing.T) {
	c := newTestCanvas(types.ModeOrthogonalLine)
	c.AddPoint(types.Point{X: 10, Y: 10})
	c.AddPoint(types.Point{X: 12, Y: 40})

	st := c.CurrentState()
	assert.Equal(t, types.Point{X: 10, Y: 40}, st.Current.Points[1])
}

func TestCancelShape(t *testing.T) {
	c := newTestCanvas(types.ModeLine)
	c.AddPoint(types.Point{X: 0, Y: 0})
	c.AddPoint(types.Point{X: 1, Y: 1})
	c.CancelShape()

	st := c.CurrentState()
	assert.Nil(t, st.Current)
	assert.Len(t, st.Objects, 0)
	// Cancel never touches history
	assert.False(t, c.CanUndo())
}

func TestUndoRedoAroundCompletion(t *testing.T) {
	c := newTestCanvas(types.ModeLine)
	c.AddPoint(types.Point{X: 0, Y: 0})
	c.AddPoint(types.Point{X: 3, Y: 4})
	require.True(t, c.CompleteShape())

	require.True(t, c.Undo())
	st := c.CurrentState()
	assert.Len(t, st.Objects, 0)
	// The in-progress shape reappears with its original points
	require.NotNil(t, st.Current)
	assert.Equal(t, []types.Point{{X: 0, Y: 0}, {X: 3, Y: 4}}, st.Current.Points)

	require.True(t, c.Redo())
	st = c.CurrentState()
	assert.Len(t, st.Objects, 1)
	assert.Nil(t, st.Current)
}

func TestNewMutationClearsRedo(t *testing.T) {
	c := newTestCanvas(types.ModeLine)
	c.AddPoint(types.Point{X: 0, Y: 0})
	c.AddPoint(types.Point{X: 1, Y: 0})
	require.True(t, c.CompleteShape())
	require.True(t, c.Undo())
	assert.True(t, c.CanRedo())

	// Completing a different shape forks the timeline
	c.CancelShape()
	c.AddPoint(types.Point{X: 5, Y: 5})
	c.AddPoint(types.Point{X: 9, Y: 5})
	require.True(t, c.CompleteShape())
	assert.False(t, c.CanRedo())
}

func TestDeleteShapeUndoRestoresPosition(t *testing.T) {
	c := newTestCanvas(types.ModeLine)
	var ids []string
	for i := 0; i < 3; i++ {
		c.AddPoint(types.Point{X: float64(i), Y: 0})
		c.AddPoint(types.Point{X: float64(i), Y: 5})
		require.True(t, c.CompleteShape())
		st := c.CurrentState()
		ids = append(ids, st.Objects[len(st.Objects)-1].ID)
	}

	require.True(t, c.DeleteShape(ids[1]))
	st := c.CurrentState()
	require.Len(t, st.Objects, 2)
	assert.Equal(t, ids[0], st.Objects[0].ID)
	assert.Equal(t, ids[2], st.Objects[1].ID)

	require.True(t, c.Undo())
	st = c.CurrentState()
	require.Len(t, st.Objects, 3)
	// Restored at its original sequence position
	assert.Equal(t, ids[1], st.Objects[1].ID)
}

func TestDeleteUnknownShapeIsNoOp(t *testing.T) {
	c := newTestCanvas(types.ModeLine)
	assert.False(t, c.DeleteShape("missing"))
	assert.False(t, c.CanUndo())
}

func TestSelectionExcludedFromHistory(t *testing.T) {
	c := newTestCanvas(types.ModeLine)
	c.AddPoint(types.Point{})
	c.AddPoint(types.Point{X: 1})
	require.True(t, c.CompleteShape())
	id := c.CurrentState().Objects[0].ID
	depth := c.UndoDepth()

	c.SelectShape(id)
	assert.Equal(t, id, c.CurrentState().SelectedID)
	assert.Equal(t, depth, c.UndoDepth())

	c.SelectShape("")
	assert.Empty(t, c.CurrentState().SelectedID)
	assert.Equal(t, depth, c.UndoDepth())
}

func TestSelectUnknownIDIgnored(t *testing.T) {
	c := newTestCanvas(types.ModeLine)
	c.SelectShape("ghost")
	assert.Empty(t, c.CurrentState().SelectedID)
}

func TestDeleteClearsDanglingSelection(t *testing.T) {
	c := newTestCanvas(types.ModeLine)
	c.AddPoint(types.Point{})
	c.AddPoint(types.Point{X: 1})
	require.True(t, c.CompleteShape())
	id := c.CurrentState().Objects[0].ID
	c.SelectShape(id)

	require.True(t, c.DeleteShape(id))
	assert.Empty(t, c.CurrentState().SelectedID)
}

func TestMoveShapeBy(t *testing.T) {
	c := newTestCanvas(types.ModeRectangle)
	c.AddPoint(types.Point{X: 0, Y: 0})
	c.AddPoint(types.Point{X: 10, Y: 20})
	require.True(t, c.CompleteShape())
	id := c.CurrentState().Objects[0].ID

	require.True(t, c.MoveShapeBy(id, 5, -3))
	shape := c.CurrentState().Objects[0]
	assert.Equal(t, types.Point{X: 5, Y: -3}, shape.Points[0])
	assert.Equal(t, types.Point{X: 15, Y: 17}, shape.Points[1])
	// Translation leaves measurements intact
	assert.Equal(t, 200.0, shape.Props.Area)

	require.True(t, c.Undo())
	assert.Equal(t, types.Point{X: 0, Y: 0}, c.CurrentState().Objects[0].Points[0])
}

func TestResizeShapeRecomputesProperties(t *testing.T) {
	c := newTestCanvas(types.ModeRectangle)
	c.AddPoint(types.Point{X: 0, Y: 0})
	c.AddPoint(types.Point{X: 10, Y: 10})
	require.True(t, c.CompleteShape())
	id := c.CurrentState().Objects[0].ID

	require.True(t, c.ResizeShape(id, []types.Point{{X: 0, Y: 0}, {X: 4, Y: 8}}))
	shape := c.CurrentState().Objects[0]
	assert.Equal(t, 4.0, shape.Props.Width)
	assert.Equal(t, 8.0, shape.Props.Height)
	assert.Equal(t, 32.0, shape.Props.Area)

	assert.False(t, c.ResizeShape(id, nil))
}

func TestUpdateShapeProperties(t *testing.T) {
	c := newTestCanvas(types.ModeLine)
	c.AddPoint(types.Point{})
	c.AddPoint(types.Point{X: 1})
	require.True(t, c.CompleteShape())
	id := c.CurrentState().Objects[0].ID

	require.True(t, c.UpdateShapeProperties(id, map[string]string{
		"area":          "42.5",
		"closed":        "true",
		"buildingClass": "C4", // unrecognized, lands in the overflow map
	}))

	shape := c.CurrentState().Objects[0]
	assert.Equal(t, 42.5, shape.Props.Area)
	assert.True(t, shape.Props.Closed)
	assert.Equal(t, "C4", shape.Props.Extra["buildingClass"])

	// Bulk property updates are undoable
	require.True(t, c.Undo())
	assert.False(t, c.CurrentState().Objects[0].Props.Closed)
}

func TestUpdateInProgressPropertiesNotRecorded(t *testing.T) {
	c := newTestCanvas(types.ModeLine)
	c.AddPoint(types.Point{})
	depth := c.UndoDepth()

	require.True(t, c.UpdateInProgressProperties(map[string]string{"sweep": "clockwise"}))
	assert.Equal(t, depth, c.UndoDepth())
	assert.Equal(t, "clockwise", c.CurrentState().Current.Props.Sweep)
}

func TestClearCanvasIsUndoable(t *testing.T) {
	c := newTestCanvas(types.ModeLine)
	c.AddPoint(types.Point{})
	c.AddPoint(types.Point{X: 2})
	require.True(t, c.CompleteShape())

	c.ClearCanvas()
	assert.Len(t, c.CurrentState().Objects, 0)

	require.True(t, c.Undo())
	assert.Len(t, c.CurrentState().Objects, 1)
}

func TestSetToolDiscardsInProgress(t *testing.T) {
	c := newTestCanvas(types.ModeLine)
	c.AddPoint(types.Point{})
	c.SetTool(types.ModeCircle)

	assert.Nil(t, c.CurrentState().Current)
	assert.Equal(t, types.ModeCircle, c.Tool())
}

func TestImportShapesSingleHistoryEntry(t *testing.T) {
	c := newTestCanvas(types.ModeLine)
	shapes := []types.Shape{
		{ID: "s1", Mode: types.ModeLine, Points: []types.Point{{}, {X: 1}}},
		{ID: "s2", Mode: types.ModeCircle, Points: []types.Point{{}, {X: 2}}},
	}
	c.ImportShapes(shapes)

	assert.Len(t, c.CurrentState().Objects, 2)
	require.True(t, c.Undo())
	assert.Len(t, c.CurrentState().Objects, 0)
	assert.False(t, c.CanUndo())
}

func TestRestoreStateResetsHistory(t *testing.T) {
	c := newTestCanvas(types.ModeLine)
	c.AddPoint(types.Point{})
	c.AddPoint(types.Point{X: 2})
	require.True(t, c.CompleteShape())
	assert.True(t, c.CanUndo())

	c.RestoreState(stateWithIDs("x", "y"), true)
	assert.Len(t, c.CurrentState().Objects, 2)
	assert.False(t, c.CanUndo())
	assert.False(t, c.CanRedo())
}

func TestSnapshotIsolation(t *testing.T) {
	c := newTestCanvas(types.ModeLine)
	c.AddPoint(types.Point{})
	c.AddPoint(types.Point{X: 2})
	require.True(t, c.CompleteShape())

	snap := c.CurrentState()
	snap.Objects[0].Points[0].X = 999
	snap.Objects[0].Props.Extra = map[string]string{"mutated": "yes"}

	fresh := c.CurrentState()
	assert.Equal(t, 0.0, fresh.Objects[0].Points[0].X)
	assert.Empty(t, fresh.Objects[0].Props.Extra)
}

func TestWatchReceivesEvents(t *testing.T) {
	c := newTestCanvas(types.ModeLine)
	ch := c.Watch()

	c.AddPoint(types.Point{})
	c.AddPoint(types.Point{X: 2})
	require.True(t, c.CompleteShape())

	select {
	case ev := <-ch:
		assert.Equal(t, types.EventTypeAdded, ev.Type)
		assert.NotEmpty(t, ev.ShapeID)
		assert.Equal(t, 1, ev.ObjectCount)
	default:
		t.Fatal("expected a canvas event")
	}

	c.Unwatch(ch)
	_, open := <-ch
	assert.False(t, open)
}

func TestMoveShapeSnapsToNeighborEdge(t *testing.T) {
	c := NewCanvas(nil)
	c.ImportShapes([]types.Shape{
		{
			ID:     "anchor",
			Mode:   types.ModeRectangle,
			Points: []types.Point{{X: 100, Y: 100}, {X: 200, Y: 200}},
		},
		{
			ID:     "mover",
			Mode:   types.ModeRectangle,
			Points: []types.Point{{X: 0, Y: 0}, {X: 10, Y: 10}},
		},
	})
	c.SetSnapThreshold(10)

	// Move so the mover's center lands at (97, 50): within threshold of the
	// anchor's left edge x=100 but nothing on the y axis
	require.True(t, c.MoveShapeBy("mover", 92, 45))

	st := c.CurrentState()
	mover := st.Objects[st.FindShape("mover")]
	assert.InDelta(t, 95.0, mover.Points[0].X, 1e-9)
	assert.InDelta(t, 105.0, mover.Points[1].X, 1e-9)
	assert.InDelta(t, 45.0, mover.Points[0].Y, 1e-9)

	// Without a threshold the translation is exact
	c.SetSnapThreshold(0)
	require.True(t, c.MoveShapeBy("mover", 1, 1))
	st = c.CurrentState()
	mover = st.Objects[st.FindShape("mover")]
	assert.InDelta(t, 96.0, mover.Points[0].X, 1e-9)
}
