package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/plansketch/plansketch/internal/codec"
	"github.com/plansketch/plansketch/internal/config"
	sketcherrors "github.com/plansketch/plansketch/internal/errors"
	"github.com/plansketch/plansketch/internal/legacy"
)

var convertCmd = &cobra.Command{
	Use:     "convert <input> <output>",
	Aliases: []string{"c"},
	Short:   "Convert a legacy export between wire formats",
	Long: `Convert a legacy export between the hierarchical (JSON), tagged-markup
(XML), and tabular (CSV) formats. Formats are inferred from file extensions
unless overridden with flags. The tabular format is export-only.

Records with malformed fields are carried through leniently; records that
cannot be decoded at all are skipped with a warning rather than aborting the
conversion.

Examples:
  plansketch convert export.xml export.json
  plansketch convert export.json report.csv
  plansketch convert -i xml -o json legacy.dat out.dat`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

var (
	convertInFormat  string
	convertOutFormat string
)

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVarP(&convertInFormat, "in-format", "i", "", "Input format (json, xml)")
	convertCmd.Flags().StringVarP(&convertOutFormat, "out-format", "o", "", "Output format (json, xml, csv)")
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	inFormat, err := resolveFormat(convertInFormat, args[0])
	if err != nil {
		return err
	}
	outFormat, err := resolveFormat(convertOutFormat, args[1])
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	collector := sketcherrors.NewRecordCollector()
	shapes, err := codec.DecodeShapes(data, inFormat, collector)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", args[0], err)
	}
	for _, recErr := range collector.RecordErrors() {
		fmt.Fprintf(os.Stderr, "Warning: record %q skipped: %s\n", recErr.RecordID, recErr.Message)
	}

	opts := legacy.ExportOptions{UseFractions: cfg.Canvas.UseFractions}
	out, err := codec.EncodeShapes(shapes, outFormat, opts)
	if err != nil {
		return fmt.Errorf("failed to encode: %w", err)
	}

	if err := os.WriteFile(args[1], out, 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	fmt.Printf("Converted %d shapes (%d skipped) from %s to %s\n",
		len(shapes), len(collector.RecordErrors()), inFormat, outFormat)
	return nil
}

func resolveFormat(flag, path string) (codec.Format, error) {
	if flag != "" {
		return codec.ParseFormat(flag)
	}
	return codec.DetectFormat(path)
}
