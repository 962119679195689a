package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/plansketch/plansketch/internal/codec"
	"github.com/plansketch/plansketch/internal/config"
	"github.com/plansketch/plansketch/internal/engine"
	sketcherrors "github.com/plansketch/plansketch/internal/errors"
	"github.com/plansketch/plansketch/internal/server"
	"github.com/plansketch/plansketch/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Start the canvas server",
	Long: `Start the canvas server with a JSON API and a websocket event feed.

The server holds a single shared canvas. Files listed under import.watch_paths
are re-imported into the canvas whenever they change on disk, debounced so one
save is one undo entry.

Examples:
  plansketch serve                          # Serve on the configured host/port
  plansketch serve --port 8080              # Override the port
  plansketch serve --load sketch.json       # Seed the canvas from an export`,
	RunE: runServe,
}

var serveLoadFile string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 0, "Port to serve on (overrides config)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides config)")
	serveCmd.Flags().StringVar(&serveLoadFile, "load", "", "Seed the canvas from an export file before serving")

	bindFlag("server.port", serveCmd.Flags().Lookup("port"))
	bindFlag("server.host", serveCmd.Flags().Lookup("host"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := newLogger(cfg)
	canvas := engine.NewCanvas(logger)
	canvas.SetSnapThreshold(cfg.Canvas.SnapThreshold)

	if serveLoadFile != "" {
		if err := seedCanvas(canvas, serveLoadFile); err != nil {
			return fmt.Errorf("failed to load %s: %w", serveLoadFile, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(cfg.Import.WatchPaths) > 0 {
		iw, err := watcher.New(canvas, time.Duration(cfg.Import.DebounceMs)*time.Millisecond, logger)
		if err != nil {
			return fmt.Errorf("failed to create import watcher: %w", err)
		}
		defer func() { _ = iw.Stop() }()

		for _, path := range cfg.Import.WatchPaths {
			if err := iw.AddPath(path); err != nil {
				logger.Warn(ctx, err, "cannot watch path", "path", path)
			}
		}
		iw.Start(ctx)
	}

	srv := server.New(cfg, canvas, logger)
	return srv.Start(ctx)
}

// seedCanvas loads an export file into a fresh canvas. Envelope files restore
// full state; bare shape arrays and XML documents import as shapes.
func seedCanvas(canvas *engine.Canvas, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	format, err := codec.DetectFormat(path)
	if err != nil {
		return err
	}

	if format == codec.FormatHierarchical {
		if state, err := codec.DecodeEnvelope(data); err == nil {
			canvas.RestoreState(state, true)
			return nil
		}
	}

	collector := sketcherrors.NewRecordCollector()
	shapes, err := codec.DecodeShapes(data, format, collector)
	if err != nil {
		return err
	}
	canvas.ImportShapes(shapes)
	return nil
}
