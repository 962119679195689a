package types

import "time"

// EventType represents the type of canvas change event.
type EventType string

const (
	EventTypeAdded    EventType = "added"
	EventTypeUpdated  EventType = "updated"
	EventTypeRemoved  EventType = "removed"
	EventTypeCleared  EventType = "cleared"
	EventTypeRestored EventType = "restored"
)

// CanvasEvent represents a committed change to the canvas, used for real-time
// notifications to watchers like the live-update server.
type CanvasEvent struct {
	// Type indicates the kind of change
	Type EventType `json:"type"`
	// ShapeID identifies the affected shape (empty for clear/restore)
	ShapeID string `json:"shapeId,omitempty"`
	// ObjectCount is the committed object count after the change
	ObjectCount int `json:"objectCount"`
	// Timestamp records when the change was committed
	Timestamp time.Time `json:"timestamp"`
}
