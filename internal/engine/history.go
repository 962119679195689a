package engine

import "github.com/plansketch/plansketch/internal/types"

// History is the transactional past/present/future triple over canvas states.
// Committed mutations push the old present onto past and clear future; undo
// and redo shuttle states between the stacks. States held here are immutable
// snapshots; History never edits them.
type History struct {
	past    []types.CanvasState
	present types.CanvasState
	future  []types.CanvasState
}

// NewHistory creates a history rooted at the given state with empty stacks.
func NewHistory(initial types.CanvasState) *History {
	return &History{present: initial}
}

// Present returns the current state. Callers must treat it as read-only;
// Canvas clones before handing it out.
func (h *History) Present() types.CanvasState {
	return h.present
}

// Commit installs next as the present state, recording the old present for
// undo. Any redo states are discarded: a new mutation forks the timeline.
func (h *History) Commit(next types.CanvasState) {
	h.past = append(h.past, h.present)
	h.present = next
	h.future = nil
}

// Replace installs next as the present state without recording history.
// Used for in-progress edits, selection, and tool changes, which are
// explicitly excluded from undo.
func (h *History) Replace(next types.CanvasState) {
	h.present = next
}

// Undo steps back one committed mutation. Returns false (and changes
// nothing) when there is no past.
func (h *History) Undo() bool {
	if len(h.past) == 0 {
		return false
	}
	h.future = append([]types.CanvasState{h.present}, h.future...)
	h.present = h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	return true
}

// Redo steps forward one undone mutation. Returns false (and changes
// nothing) when there is no future.
func (h *History) Redo() bool {
	if len(h.future) == 0 {
		return false
	}
	h.past = append(h.past, h.present)
	h.present = h.future[0]
	h.future = h.future[1:]
	return true
}

// CanUndo reports whether an undo step exists.
func (h *History) CanUndo() bool { return len(h.past) > 0 }

// CanRedo reports whether a redo step exists.
func (h *History) CanRedo() bool { return len(h.future) > 0 }

// UndoDepth returns the number of undoable steps.
func (h *History) UndoDepth() int { return len(h.past) }

// RedoDepth returns the number of redoable steps.
func (h *History) RedoDepth() int { return len(h.future) }
