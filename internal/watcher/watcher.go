// Package watcher re-imports legacy export files into a canvas when they
// change on disk. Rapid bursts of filesystem events are debounced so one save
// produces one import and one history entry.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/plansketch/plansketch/internal/codec"
	"github.com/plansketch/plansketch/internal/engine"
	sketcherrors "github.com/plansketch/plansketch/internal/errors"
	"github.com/plansketch/plansketch/internal/logging"
)

// ChangeEvent is a debounced file change.
type ChangeEvent struct {
	Path    string
	ModTime time.Time
}

// ChangeHandler receives a batch of debounced changes.
type ChangeHandler func(events []ChangeEvent)

// ImportWatcher watches legacy export files and feeds them back into the
// canvas.
type ImportWatcher struct {
	watcher  *fsnotify.Watcher
	canvas   *engine.Canvas
	logger   logging.Logger
	debounce time.Duration

	handlers []ChangeHandler
	mutex    sync.Mutex

	pending map[string]ChangeEvent
	timer   *time.Timer

	closeOnce sync.Once
}

// New creates a watcher over the given canvas. debounce controls how long to
// wait after the last event before re-importing.
func New(canvas *engine.Canvas, debounce time.Duration, logger logging.Logger) (*ImportWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NopLogger{}
	}
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}

	return &ImportWatcher{
		watcher:  fsw,
		canvas:   canvas,
		logger:   logger.WithComponent("watcher"),
		debounce: debounce,
		pending:  make(map[string]ChangeEvent),
	}, nil
}

// AddPath registers a file or directory to watch. For directories, only
// files with a recognized export extension trigger imports.
func (iw *ImportWatcher) AddPath(path string) error {
	return iw.watcher.Add(filepath.Clean(path))
}

// AddHandler registers a callback invoked after each debounced batch, after
// the re-import has run.
func (iw *ImportWatcher) AddHandler(handler ChangeHandler) {
	iw.mutex.Lock()
	defer iw.mutex.Unlock()
	iw.handlers = append(iw.handlers, handler)
}

// Start runs the watch loop until the context is cancelled.
func (iw *ImportWatcher) Start(ctx context.Context) {
	go iw.watchLoop(ctx)
}

// Stop closes the underlying filesystem watcher.
func (iw *ImportWatcher) Stop() error {
	var err error
	iw.closeOnce.Do(func() {
		iw.mutex.Lock()
		if iw.timer != nil {
			iw.timer.Stop()
		}
		iw.mutex.Unlock()
		err = iw.watcher.Close()
	})
	return err
}

func (iw *ImportWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-iw.watcher.Events:
			if !ok {
				return
			}
			iw.handleEvent(event)
		case err, ok := <-iw.watcher.Errors:
			if !ok {
				return
			}
			iw.logger.Error(ctx, err, "filesystem watcher error")
		}
	}
}

// importExtensions maps file extensions to decode formats. Tabular exports
// are intentionally absent: that format has no import path.
var importExtensions = map[string]codec.Format{
	".json": codec.FormatHierarchical,
	".xml":  codec.FormatTaggedMarkup,
}

func (iw *ImportWatcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	if _, ok := importExtensions[strings.ToLower(filepath.Ext(event.Name))]; !ok {
		return
	}

	change := ChangeEvent{Path: event.Name}
	if info, err := os.Stat(event.Name); err == nil {
		change.ModTime = info.ModTime()
	}

	iw.mutex.Lock()
	defer iw.mutex.Unlock()
	iw.pending[change.Path] = change

	if iw.timer != nil {
		iw.timer.Stop()
	}
	iw.timer = time.AfterFunc(iw.debounce, iw.flush)
}

func (iw *ImportWatcher) flush() {
	iw.mutex.Lock()
	if len(iw.pending) == 0 {
		iw.mutex.Unlock()
		return
	}
	events := make([]ChangeEvent, 0, len(iw.pending))
	for _, e := range iw.pending {
		events = append(events, e)
	}
	iw.pending = make(map[string]ChangeEvent)
	handlers := make([]ChangeHandler, len(iw.handlers))
	copy(handlers, iw.handlers)
	iw.mutex.Unlock()

	for _, event := range events {
		iw.importFile(event.Path)
	}
	for _, handler := range handlers {
		handler(events)
	}
}

// importFile decodes a legacy export and replaces matching shapes on the
// canvas in a single history entry. Per-record failures are logged and
// skipped; only an unreadable or structurally broken file aborts.
func (iw *ImportWatcher) importFile(path string) {
	ctx := context.Background()

	data, err := os.ReadFile(path)
	if err != nil {
		iw.logger.Error(ctx, err, "failed to read changed export", "path", path)
		return
	}

	format := importExtensions[strings.ToLower(filepath.Ext(path))]
	collector := sketcherrors.NewRecordCollector()
	shapes, err := codec.DecodeShapes(data, format, collector)
	if err != nil {
		iw.logger.Error(ctx, err, "failed to decode changed export", "path", path)
		return
	}

	for _, recErr := range collector.RecordErrors() {
		iw.logger.Warn(ctx, nil, "record skipped during re-import",
			"path", path, "record", recErr.RecordID, "reason", recErr.Message)
	}

	iw.canvas.ImportShapes(shapes)
	iw.logger.Info(ctx, "re-imported legacy export",
		"path", path, "shapes", len(shapes), "warnings", len(collector.RecordErrors()))
}
