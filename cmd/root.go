package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/trendscope-cli/internal/config"
	"github.com/KaramelBytes/trendscope-cli/internal/logger"
)

var (
	// Global flags
	cfgFile string
	debug   bool

	// Loaded configuration
	cfg    *cfgpkg.Global
	cfgErr error
)

var rootCmd = &cobra.Command{
	Use:   "trendscope",
	Short: "trendscope: exploratory analysis of trending-video datasets",
	Long: `trendscope loads a trending-video dataset (CSV, TSV, XLSX or Parquet), cleans and
enriches it, prints stage diagnostics, computes grouped aggregates and the
views/likes correlation, and renders a fixed set of charts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.trendscope/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func loadConfig() {
	cfg, cfgErr = cfgpkg.Load(cfgFile)
}

// requireConfig returns a copy of the loaded configuration.
func requireConfig() (cfgpkg.Global, error) {
	if cfgErr != nil {
		return cfgpkg.Global{}, fmt.Errorf("load config: %w", cfgErr)
	}
	if cfg == nil {
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			return cfgpkg.Global{}, fmt.Errorf("load config: %w", err)
		}
		cfg = c
	}
	return *cfg, nil
}

// newLogger builds the command logger. Logs go to the command's stderr so
// stdout carries only reports.
func newLogger(cmd *cobra.Command, c cfgpkg.Global) (*logger.Logger, error) {
	level := c.LogLevel
	if debug {
		level = "debug"
	}
	return logger.New(logger.Config{
		Level:  level,
		Format: c.LogFormat,
		File:   c.LogFile,
		Output: cmd.ErrOrStderr(),
	})
}
