package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/plansketch/plansketch/internal/types"
)

func stateWithIDs(ids ...string) types.CanvasState {
	st := types.CanvasState{}
	for _, id := range ids {
		st.Objects = append(st.Objects, types.Shape{ID: id, Mode: types.ModeLine, Points: []types.Point{{}, {X: 1}}})
	}
	return st
}

func TestHistoryCommitUndoRedo(t *testing.T) {
	h := NewHistory(stateWithIDs())

	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())

	h.Commit(stateWithIDs("a"))
	h.Commit(stateWithIDs("a", "b"))

	assert.Equal(t, 2, h.UndoDepth())
	assert.Equal(t, 0, h.RedoDepth())

	assert.True(t, h.Undo())
	assert.Len(t, h.Present().Objects, 1)
	assert.Equal(t, 1, h.RedoDepth())

	assert.True(t, h.Redo())
	assert.Len(t, h.Present().Objects, 2)
	assert.Equal(t, "b", h.Present().Objects[1].ID)
}

func TestHistoryUndoRedoNoOp(t *testing.T) {
	h := NewHistory(stateWithIDs("a"))

	assert.False(t, h.Undo())
	assert.Len(t, h.Present().Objects, 1)

	assert.False(t, h.Redo())
	assert.Len(t, h.Present().Objects, 1)
}

func TestHistoryCommitClearsFuture(t *testing.T) {
	h := NewHistory(stateWithIDs())
	h.Commit(stateWithIDs("a"))
	h.Commit(stateWithIDs("a", "b"))
	h.Undo()
	assert.True(t, h.CanRedo())

	// A new mutation forks the timeline
	h.Commit(stateWithIDs("a", "c"))
	assert.False(t, h.CanRedo())
	assert.Equal(t, "c", h.Present().Objects[1].ID)
}

func TestHistoryReplaceIsNotRecorded(t *testing.T) {
	h := NewHistory(stateWithIDs("a"))
	h.Replace(stateWithIDs("a", "b"))

	assert.False(t, h.CanUndo())
	assert.Len(t, h.Present().Objects, 2)
}

func TestHistoryUndoOrder(t *testing.T) {
	h := NewHistory(stateWithIDs())
	h.Commit(stateWithIDs("a"))
	h.Commit(stateWithIDs("a", "b"))
	h.Commit(stateWithIDs("a", "b", "c"))

	h.Undo()
	h.Undo()
	assert.Len(t, h.Present().Objects, 1)

	// Redo walks forward in the same order
	h.Redo()
	assert.Equal(t, "b", h.Present().Objects[1].ID)
	h.Redo()
	assert.Equal(t, "c", h.Present().Objects[2].ID)
}
