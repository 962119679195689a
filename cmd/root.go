// Package cmd provides the command-line interface for plansketch with
// configuration management supporting multiple sources.
//
// Configuration precedence, highest first:
//  1. Command-line flags (--config, --port, etc.)
//  2. PLANSKETCH_CONFIG_FILE environment variable - custom config file path
//  3. Individual environment variables (PLANSKETCH_SERVER_PORT, etc.)
//  4. Configuration file (.plansketch.yml)
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/plansketch/plansketch/internal/config"
	"github.com/plansketch/plansketch/internal/logging"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "plansketch",
	Short: "A drawing-canvas engine for building footprint sketches",
	Long: `Plansketch captures building footprint sketches as precise geometry and
bridges them to legacy appraisal records.

Key Features:
  • Shape construction with line, rectangle, square, circle, and curve tools
  • Undo/redo over complete canvas snapshots
  • Legacy record import/export in JSON, XML, and CSV
  • Declared-vs-computed measurement reconciliation
  • Live canvas server with websocket updates

Quick Start:
  plansketch init                 Write a default configuration file
  plansketch serve                Start the canvas server
  plansketch convert -i a.xml -o a.json
  plansketch reconcile export.json
  plansketch inspect export.json`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .plansketch.yml, can also use PLANSKETCH_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	bindFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
}

// bindFlag wires a cobra flag into viper so the merged configuration sees it.
func bindFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		fmt.Fprintf(os.Stderr, "failed to bind flag %s: %v\n", key, err)
	}
}

// initConfig initializes viper from flag, environment, and file sources.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("PLANSKETCH_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".plansketch")
	}

	// PLANSKETCH_SERVER_PORT, PLANSKETCH_RECONCILE_TOLERANCE, etc.
	viper.SetEnvPrefix("PLANSKETCH")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing or broken config file degrades to defaults
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger builds the process logger from loaded configuration.
func newLogger(cfg *config.Config) logging.Logger {
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  logging.ParseLevel(cfg.LogLevel),
		Format: cfg.LogFormat,
		Output: os.Stderr,
	})
}
