package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/plansketch/plansketch/internal/codec"
	"github.com/plansketch/plansketch/internal/config"
	sketcherrors "github.com/plansketch/plansketch/internal/errors"
	"github.com/plansketch/plansketch/internal/reconcile"
)

var reconcileCmd = &cobra.Command{
	Use:     "reconcile <file>",
	Aliases: []string{"r"},
	Short:   "Check declared measurements against computed geometry",
	Long: `Reconcile the declared areas in a legacy export against the areas computed
from the shapes' geometry. Each shape gets a pass/fail verdict and a
recommendation bracket; a building-level total is reported at the end.

Examples:
  plansketch reconcile export.json
  plansketch reconcile export.xml --tolerance 0.02`,
	Args: cobra.ExactArgs(1),
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().Float64P("tolerance", "t", 0, "Relative tolerance for a match (overrides config)")
	bindFlag("reconcile.tolerance", reconcileCmd.Flags().Lookup("tolerance"))
}

func runReconcile(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	format, err := codec.DetectFormat(args[0])
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	collector := sketcherrors.NewRecordCollector()
	shapes, err := codec.DecodeShapes(data, format, collector)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", args[0], err)
	}

	results := reconcile.ReconcileShapes(shapes, cfg.Reconcile.Tolerance, collector)
	if len(results) == 0 {
		fmt.Println("No shapes with declared measurements found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "SHAPE\tDECLARED\tCOMPUTED\tDIFF\tREL\tVERDICT\tRECOMMENDATION")
	failures := 0
	for _, r := range results {
		verdict := "pass"
		if !r.Result.Pass {
			verdict = "FAIL"
			failures++
		}
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%+.2f\t%.1f%%\t%s\t%s\n",
			r.ShapeID, r.Result.Declared, r.Result.Computed,
			r.Result.AbsoluteDiff, r.Result.RelativeDiff*100,
			verdict, r.Result.Recommendation)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	total := reconcile.ReconcileContext(shapes, cfg.Reconcile.Tolerance)
	fmt.Printf("\nBuilding total: declared %.2f, computed %.2f (%s)\n",
		total.Declared, total.Computed, total.Recommendation)

	if failures > 0 {
		return fmt.Errorf("%d of %d shapes outside tolerance", failures, len(results))
	}
	return nil
}
