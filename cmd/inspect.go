package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/plansketch/plansketch/internal/codec"
	"github.com/plansketch/plansketch/internal/config"
	sketcherrors "github.com/plansketch/plansketch/internal/errors"
	"github.com/plansketch/plansketch/internal/legacy"
	"github.com/plansketch/plansketch/internal/precision"
	"github.com/plansketch/plansketch/internal/types"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Summarize the shapes in a legacy export",
	Long: `Inspect a legacy export and summarize its shapes: mode, point count,
computed properties, and the aggregate building context.

Measurements are reported in drawing pixels by default; --feet converts them
through the drawing scale (5 px per foot, 10x finer when canvas.by_tenths is
set).

Examples:
  plansketch inspect export.json           # Table summary
  plansketch inspect export.xml -f json    # Machine-readable JSON
  plansketch inspect export.json --feet    # Lengths and areas in feet`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

var (
	inspectFormat string
	inspectFeet   bool
)

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVarP(&inspectFormat, "format", "f", "table", "Output format (table, json, yaml)")
	inspectCmd.Flags().BoolVar(&inspectFeet, "feet", false, "Report measurements in feet instead of drawing pixels")
}

type shapeSummary struct {
	ID     string  `json:"id" yaml:"id"`
	Mode   string  `json:"mode" yaml:"mode"`
	Points int     `json:"points" yaml:"points"`
	Length float64 `json:"length,omitempty" yaml:"length,omitempty"`
	Area   float64 `json:"area,omitempty" yaml:"area,omitempty"`
	Closed bool    `json:"closed" yaml:"closed"`
}

type inspectReport struct {
	File    string                `json:"file" yaml:"file"`
	Shapes  []shapeSummary        `json:"shapes" yaml:"shapes"`
	Context types.BuildingContext `json:"context" yaml:"context"`
	Skipped int                   `json:"skipped" yaml:"skipped"`
}

func runInspect(cmd *cobra.Command, args []string) error {
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

	report := inspectReport{
		File:    args[0],
		Shapes:  make([]shapeSummary, 0, len(shapes)),
		Context: legacy.BuildContext(shapes),
		Skipped: len(collector.RecordErrors()),
	}
	for _, shape := range shapes {
		length, area := shape.Props.Length, shape.Props.Area
		if inspectFeet {
			length = precision.PixelsToFeet(length, cfg.Canvas.ByTenths)
			// Area scales with the square of the ratio
			area = precision.PixelsToFeet(precision.PixelsToFeet(area, cfg.Canvas.ByTenths), cfg.Canvas.ByTenths)
		}
		report.Shapes = append(report.Shapes, shapeSummary{
			ID:     shape.ID,
			Mode:   string(shape.Mode),
			Points: len(shape.Points),
			Length: length,
			Area:   area,
			Closed: shape.Props.Closed,
		})
	}

	switch inspectFormat {
	case "json":
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	case "yaml":
		out, err := yaml.Marshal(report)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
	case "table":
		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tMODE\tPOINTS\tLENGTH\tAREA\tCLOSED")
		for _, s := range report.Shapes {
			fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%.2f\t%v\n",
				s.ID, s.Mode, s.Points, s.Length, s.Area, s.Closed)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\n%d shapes (%d skipped), total area %.2f, total perimeter %.2f\n",
			len(report.Shapes), report.Skipped,
			report.Context.ComputedArea, report.Context.Perimeter)
	default:
		return fmt.Errorf("unsupported format: %s (supported: table, json, yaml)", inspectFormat)
	}
	return nil
}
