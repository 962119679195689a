package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plansketch/plansketch/internal/config"
	"github.com/plansketch/plansketch/internal/engine"
	"github.com/plansketch/plansketch/internal/logging"
	"github.com/plansketch/plansketch/internal/types"
)

func newTestServer(t *testing.T) (*SketchServer, *engine.Canvas) {
	t.Helper()
	cfg := config.Default()
	canvas := engine.NewCanvas(logging.NopLogger{})
	srv := New(cfg, canvas, logging.NopLogger{})
	t.Cleanup(srv.hub.Shutdown)
	return srv, canvas
}

func drawLine(t *testing.T, canvas *engine.Canvas) string {
	t.Helper()
	canvas.SetTool(types.ModeLine)
	canvas.AddPoint(types.Point{X: 0, Y: 0})
	canvas.AddPoint(types.Point{X: 3, Y: 4})
	require.True(t, canvas.CompleteShape())
	state := canvas.CurrentState()
	return state.Objects[len(state.Objects)-1].ID
}

func TestOriginList(t *testing.T) {
	assert.True(t, OriginList(nil).IsAllowedOrigin("http://anywhere"))

	origins := OriginList{"http://localhost:7331"}
	assert.True(t, origins.IsAllowedOrigin("http://localhost:7331"))
	assert.False(t, origins.IsAllowedOrigin("http://evil.example"))
}

func TestHealthEndpoint(t *testing.T) {
	srv, canvas := newTestServer(t)
	drawLine(t, canvas)

	rec := httptest.NewRecorder()
	srv.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, 1.0, body["objects"])
}

func TestStateRoundTripOverHTTP(t *testing.T) {
	srv, canvas := newTestServer(t)
	drawLine(t, canvas)

	rec := httptest.NewRecorder()
	srv.handleState(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"formatVersion"`)

	// Restore the same envelope into a fresh server
	srv2, canvas2 := newTestServer(t)
	rec2 := httptest.NewRecorder()
	srv2.handleState(rec2, httptest.NewRequest(http.MethodPut, "/api/state", strings.NewReader(rec.Body.String())))
	require.Equal(t, http.StatusOK, rec2.Code)
	assert.Len(t, canvas2.CurrentState().Objects, 1)
}

func TestShapeEndpoints(t *testing.T) {
	srv, canvas := newTestServer(t)
	id := drawLine(t, canvas)

	rec := httptest.NewRecorder()
	srv.handleShape(rec, httptest.NewRequest(http.MethodGet, "/api/shapes/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), id)

	rec = httptest.NewRecorder()
	srv.handleShape(rec, httptest.NewRequest(http.MethodGet, "/api/shapes/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	srv.handleShape(rec, httptest.NewRequest(http.MethodDelete, "/api/shapes/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, canvas.CurrentState().Objects)
}

func TestImportShapesOverHTTP(t *testing.T) {
	srv, canvas := newTestServer(t)

	body := `[{"recordId":"r1","shapeType":"Line","posX":"1","posY":"2","lineStartX":"1","lineStartY":"2","lineEndX":"5","lineEndY":"2"}]`
	rec := httptest.NewRecorder()
	srv.handleShapes(rec, httptest.NewRequest(http.MethodPost, "/api/shapes", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, canvas.CurrentState().Objects, 1)
	assert.Equal(t, "r1", canvas.CurrentState().Objects[0].ID)
}

func TestUndoRedoEndpoints(t *testing.T) {
	srv, canvas := newTestServer(t)
	drawLine(t, canvas)

	rec := httptest.NewRecorder()
	srv.handleUndo(rec, httptest.NewRequest(http.MethodPost, "/api/undo", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, canvas.CurrentState().Objects)

	rec = httptest.NewRecorder()
	srv.handleRedo(rec, httptest.NewRequest(http.MethodPost, "/api/redo", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, canvas.CurrentState().Objects, 1)

	rec = httptest.NewRecorder()
	srv.handleUndo(rec, httptest.NewRequest(http.MethodGet, "/api/undo", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestExportEndpointFormats(t *testing.T) {
	srv, canvas := newTestServer(t)
	drawLine(t, canvas)

	tests := []struct {
		format      string
		contentType string
	}{
		{"json", "application/json"},
		{"xml", "application/xml"},
		{"csv", "text/csv"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.handleExport(rec, httptest.NewRequest(http.MethodGet, "/api/export?format="+tt.format, nil))
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
		})
	}

	rec := httptest.NewRecorder()
	srv.handleExport(rec, httptest.NewRequest(http.MethodGet, "/api/export?format=protobuf", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReconcileEndpoint(t *testing.T) {
	srv, canvas := newTestServer(t)
	canvas.ImportShapes([]types.Shape{{
		ID:     "s1",
		Mode:   types.ModeRectangle,
		Points: []types.Point{{X: 0, Y: 0}, {X: 10, Y: 10}},
		Props:  types.ShapeProperties{Area: 1010},
		Legacy: &types.LegacyRecord{DeclaredArea: "1000"},
	}})

	rec := httptest.NewRecorder()
	srv.handleReconcile(rec, httptest.NewRequest(http.MethodGet, "/api/reconcile", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Shapes []struct {
			ShapeID string
		}
		Total types.ReconciliationResult
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Shapes, 1)
	assert.True(t, body.Total.Pass)
}

func TestWebSocketBroadcast(t *testing.T) {
	srv, canvas := newTestServer(t)
	srv.events = canvas.Watch()
	go srv.pumpEvents()
	defer srv.Shutdown(context.Background())

	ts := httptest.NewServer(http.HandlerFunc(srv.hub.HandleWebSocket))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	// Wait for registration before mutating the canvas
	require.Eventually(t, func() bool {
		return srv.hub.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	drawLine(t, canvas)

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)

	var event types.CanvasEvent
	require.NoError(t, json.Unmarshal(data, &event))
	assert.Equal(t, types.EventTypeAdded, event.Type)
	assert.Equal(t, 1, event.ObjectCount)
}

func TestWebSocketRejectsBadOrigin(t *testing.T) {
	hub := NewHub(OriginList{"http://allowed.example"}, logging.NopLogger{})
	defer hub.Shutdown()

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec := httptest.NewRecorder()

	hub.HandleWebSocket(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMoveEndpoint(t *testing.T) {
	srv, canvas := newTestServer(t)
	id := drawLine(t, canvas)

	body := strings.NewReader(`{"dx":10,"dy":-5}`)
	rec := httptest.NewRecorder()
	srv.handleShape(rec, httptest.NewRequest(http.MethodPost, "/api/shapes/"+id+"/move", body))
	require.Equal(t, http.StatusOK, rec.Code)

	state := canvas.CurrentState()
	moved := state.Objects[state.FindShape(id)]
	assert.Equal(t, 10.0, moved.Points[0].X)
	assert.Equal(t, -5.0, moved.Points[0].Y)

	rec = httptest.NewRecorder()
	srv.handleShape(rec, httptest.NewRequest(http.MethodPost, "/api/shapes/ghost/move", strings.NewReader(`{"dx":1,"dy":1}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
