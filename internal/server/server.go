// Package server exposes a canvas over HTTP: JSON endpoints for state,
// editing, and reconciliation, plus a websocket feed of canvas events for
// live clients.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/plansketch/plansketch/internal/codec"
	"github.com/plansketch/plansketch/internal/config"
	"github.com/plansketch/plansketch/internal/engine"
	sketcherrors "github.com/plansketch/plansketch/internal/errors"
	"github.com/plansketch/plansketch/internal/legacy"
	"github.com/plansketch/plansketch/internal/logging"
	"github.com/plansketch/plansketch/internal/reconcile"
	"github.com/plansketch/plansketch/internal/types"
)

// maxBodyBytes caps request bodies to keep a single bad upload from
// exhausting memory.
const maxBodyBytes = 32 << 20

// SketchServer serves a single shared canvas.
type SketchServer struct {
	config *config.Config
	canvas *engine.Canvas
	hub    *Hub
	logger logging.Logger

	httpServer  *http.Server
	serverMutex sync.RWMutex

	events       <-chan types.CanvasEvent
	shutdownOnce sync.Once
	done         chan struct{}
}

// New creates a server around an existing canvas. The canvas is shared: CLI
// commands and the file watcher may mutate it concurrently.
func New(cfg *config.Config, canvas *engine.Canvas, logger logging.Logger) *SketchServer {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &SketchServer{
		config: cfg,
		canvas: canvas,
		hub:    NewHub(OriginList(cfg.Server.AllowedOrigins), logger),
		logger: logger.WithComponent("server"),
		done:   make(chan struct{}),
	}
}

// Hub exposes the websocket hub, mainly for tests and shared broadcasting.
func (s *SketchServer) Hub() *Hub {
	return s.hub
}

// Start runs the HTTP server until the context is cancelled.
func (s *SketchServer) Start(ctx context.Context) error {
	s.events = s.canvas.Watch()
	go s.pumpEvents()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.hub.HandleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/api/shapes", s.handleShapes)
	mux.HandleFunc("/api/shapes/", s.handleShape)
	mux.HandleFunc("/api/undo", s.handleUndo)
	mux.HandleFunc("/api/redo", s.handleRedo)
	mux.HandleFunc("/api/export", s.handleExport)
	mux.HandleFunc("/api/reconcile", s.handleReconcile)

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	srv := s.httpServer
	s.serverMutex.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// pumpEvents forwards canvas events to the websocket hub.
func (s *SketchServer) pumpEvents() {
	for {
		select {
		case event, ok := <-s.events:
			if !ok {
				return
			}
			s.hub.Broadcast(event)
		case <-s.done:
			return
		}
	}
}

// Shutdown stops the HTTP server and the websocket hub.
func (s *SketchServer) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		close(s.done)
		s.canvas.Unwatch(s.events)
		s.hub.Shutdown()

		s.serverMutex.RLock()
		srv := s.httpServer
		s.serverMutex.RUnlock()
		if srv != nil {
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			err = srv.Shutdown(shutdownCtx)
		}
	})
	return err
}

func (s *SketchServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"clients": s.hub.ClientCount(),
		"objects": len(s.canvas.CurrentState().Objects),
	})
}

// handleState returns the full persistence envelope on GET and replaces the
// canvas from one on PUT.
func (s *SketchServer) handleState(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		state := s.canvas.CurrentState()
		data, err := codec.EncodeEnvelope(state, s.canvas.UndoDepth(), s.canvas.RedoDepth())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)

	case http.MethodPut, http.MethodPost:
		data, err := readBody(r)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		state, err := codec.DecodeEnvelope(data)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		s.canvas.RestoreState(state, true)
		s.writeJSON(w, http.StatusOK, map[string]any{"objects": len(state.Objects)})

	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// handleShapes lists shapes on GET and imports legacy records on POST. The
// request format is selected by the Content-Type header, defaulting to
// hierarchical JSON.
func (s *SketchServer) handleShapes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		state := s.canvas.CurrentState()
		data, err := codec.EncodeShapes(state.Objects, codec.FormatHierarchical, s.exportOptions())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)

	case http.MethodPost:
		data, err := readBody(r)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		format := codec.FormatHierarchical
		if strings.Contains(r.Header.Get("Content-Type"), "xml") {
			format = codec.FormatTaggedMarkup
		}

		collector := sketcherrors.NewRecordCollector()
		shapes, err := codec.DecodeShapes(data, format, collector)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		s.canvas.ImportShapes(shapes)
		s.writeJSON(w, http.StatusOK, map[string]any{
			"imported": len(shapes),
			"warnings": len(collector.RecordErrors()),
		})

	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// handleShape serves /api/shapes/{id}: GET one, DELETE one, POST {id}/move.
func (s *SketchServer) handleShape(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/shapes/")
	if id == "" {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	if moveID, ok := strings.CutSuffix(id, "/move"); ok {
		s.handleMove(w, r, moveID)
		return
	}

	switch r.Method {
	case http.MethodGet:
		state := s.canvas.CurrentState()
		idx := state.FindShape(id)
		if idx < 0 {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		data, err := codec.EncodeShape(state.Objects[idx], codec.FormatHierarchical, s.exportOptions())
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(data)

	case http.MethodDelete:
		if !s.canvas.DeleteShape(id) {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"deleted": id})

	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

// handleMove translates a shape by a delta. Alignment snapping applies if the
// canvas has a snap threshold configured.
func (s *SketchServer) handleMove(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	var delta struct {
		DX float64 `json:"dx"`
		DY float64 `json:"dy"`
	}
	data, err := readBody(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := json.Unmarshal(data, &delta); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	if !s.canvas.MoveShapeBy(id, delta.DX, delta.DY) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"moved": id})
}

func (s *SketchServer) handleUndo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	ok := s.canvas.Undo()
	s.writeJSON(w, http.StatusOK, map[string]any{"undone": ok, "undoDepth": s.canvas.UndoDepth()})
}

func (s *SketchServer) handleRedo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	ok := s.canvas.Redo()
	s.writeJSON(w, http.StatusOK, map[string]any{"redone": ok, "redoDepth": s.canvas.RedoDepth()})
}

// handleExport renders the canvas in the requested format, e.g.
// /api/export?format=csv.
func (s *SketchServer) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := codec.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	state := s.canvas.CurrentState()
	data, err := codec.EncodeShapes(state.Objects, format, s.exportOptions())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	switch format {
	case codec.FormatTaggedMarkup:
		w.Header().Set("Content-Type", "application/xml")
	case codec.FormatTabular:
		w.Header().Set("Content-Type", "text/csv")
	default:
		w.Header().Set("Content-Type", "application/json")
	}
	_, _ = w.Write(data)
}

func (s *SketchServer) handleReconcile(w http.ResponseWriter, r *http.Request) {
	state := s.canvas.CurrentState()
	collector := sketcherrors.NewRecordCollector()
	results := reconcile.ReconcileShapes(state.Objects, s.config.Reconcile.Tolerance, collector)
	total := reconcile.ReconcileContext(state.Objects, s.config.Reconcile.Tolerance)

	s.writeJSON(w, http.StatusOK, map[string]any{
		"shapes":  results,
		"total":   total,
		"skipped": len(collector.RecordErrors()),
	})
}

func (s *SketchServer) exportOptions() legacy.ExportOptions {
	return legacy.ExportOptions{UseFractions: s.config.Canvas.UseFractions}
}

func (s *SketchServer) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error(context.Background(), err, "failed to write response")
	}
}

func (s *SketchServer) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func readBody(r *http.Request) ([]byte, error) {
	defer func() { _ = r.Body.Close() }()
	return io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
}
