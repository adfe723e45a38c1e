package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/trendscope-cli/internal/analysis"
	"github.com/KaramelBytes/trendscope-cli/internal/dataset"
	"github.com/KaramelBytes/trendscope-cli/internal/trending"
	"github.com/KaramelBytes/trendscope-cli/internal/utils"
)

var (
	descOutputPath string
	descStage      string
	descSampleRows int
	descCorr       bool
	descOutliers   bool
	descOutlierThr float64
	descDelimiter  string
	descSheet      string
)

var describeCmd = &cobra.Command{
	Use:   "describe <file>",
	Short: "Print head, schema and describe statistics for a dataset",
	Long: `Describe loads a dataset and prints a Markdown diagnostics report. With
--stage cleaned or --stage enriched the table is cleaned (and enriched)
first, so parse errors surface here exactly as in run.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("delimiter") {
			c.Delimiter = descDelimiter
		}
		if cmd.Flags().Changed("sheet") {
			c.Sheet = descSheet
		}
		delim, err := c.DelimiterRune()
		if err != nil {
			return err
		}
		log, err := newLogger(cmd, c)
		if err != nil {
			return err
		}
		defer func() { _ = log.Close() }()

		path, err := utils.ResolveDataset(args[0])
		if err != nil {
			return err
		}
		table, err := dataset.Load(path, dataset.Options{Delimiter: delim, Sheet: c.Sheet})
		if err != nil {
			return err
		}

		switch descStage {
		case stageLoaded:
		case "cleaned", stageEnriched:
			frame, err := trending.NewCleaner(log.WithComponent("cleaner").Logger).Clean(table)
			if err != nil {
				return err
			}
			if descStage == stageEnriched {
				frame = trending.Enrich(frame)
			}
			table = frame.Table()
		default:
			return fmt.Errorf("unsupported --stage: %s (use loaded|cleaned|enriched)", descStage)
		}

		opt := analysis.DefaultOptions()
		opt.SampleRows = descSampleRows
		opt.Correlations = descCorr
		opt.Outliers = descOutliers
		if descOutlierThr > 0 {
			opt.OutlierThreshold = descOutlierThr
		}
		md := analysis.Describe(table, descStage, opt).Markdown()

		if descOutputPath != "" {
			if err := utils.SafeWriteFile(descOutputPath, []byte(md)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote diagnostics to %s\n", descOutputPath)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), md)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)
	describeCmd.Flags().StringVarP(&descOutputPath, "output", "o", "", "optional path to write diagnostics (Markdown)")
	describeCmd.Flags().StringVar(&descStage, "stage", stageLoaded, "table to describe: loaded|cleaned|enriched")
	describeCmd.Flags().IntVar(&descSampleRows, "sample-rows", 5, "number of head rows to include")
	describeCmd.Flags().BoolVar(&descCorr, "correlations", false, "compute Pearson correlations among numeric columns")
	describeCmd.Flags().BoolVar(&descOutliers, "outliers", false, "compute robust outlier counts (MAD)")
	describeCmd.Flags().Float64Var(&descOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	describeCmd.Flags().StringVar(&descDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
	describeCmd.Flags().StringVar(&descSheet, "sheet", "", "XLSX: sheet name")
}
