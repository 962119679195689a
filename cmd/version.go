package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Populated at build time via -ldflags.
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var versionFormat string

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for plansketch.

Examples:
  plansketch version               # Show version
  plansketch version --format json # Output as JSON`,
	RunE: runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringVarP(&versionFormat, "format", "f", "text", "Output format (text, json)")
}

func runVersion(cmd *cobra.Command, args []string) error {
	switch versionFormat {
	case "json":
		info := map[string]string{
			"version":   version,
			"commit":    gitCommit,
			"buildDate": buildDate,
			"goVersion": runtime.Version(),
			"platform":  runtime.GOOS + "/" + runtime.GOARCH,
		}
		out, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	case "text":
		fmt.Printf("plansketch %s (commit %s, built %s, %s %s/%s)\n",
			version, gitCommit, buildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json)", versionFormat)
	}
	return nil
}
