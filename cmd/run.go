package cmd

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/plot/vg"

	"github.com/KaramelBytes/trendscope-cli/internal/aggregate"
	"github.com/KaramelBytes/trendscope-cli/internal/analysis"
	cfgpkg "github.com/KaramelBytes/trendscope-cli/internal/config"
	"github.com/KaramelBytes/trendscope-cli/internal/dataset"
	"github.com/KaramelBytes/trendscope-cli/internal/render"
	"github.com/KaramelBytes/trendscope-cli/internal/trending"
	"github.com/KaramelBytes/trendscope-cli/internal/utils"
)

// outputMode selects what a pipeline run prints on stdout.
type outputMode int

const (
	outputText outputMode = iota
	outputJSON
	outputQuiet
)

// Stage labels for diagnostics outside the cleaner.
const (
	stageLoaded   = "loaded"
	stageEnriched = "enriched"
)

var (
	runOutputDir   string
	runFormat      string
	runDiagnostics bool
	runSampleRows  int
	runDelimiter   string
	runSheet       string
	runTop         int
	runJSON        bool
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run the full analysis pipeline and render charts",
	Long: `Load, clean and enrich a trending-video dataset, print diagnostics after each
stage, report the views/likes correlation and write the charts.

The file defaults to input_path from the configuration. A directory is
accepted if it holds USvideos.csv or exactly one data file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		applyRunFlags(cmd, &c)
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		input := c.InputPath
		if len(args) == 1 {
			input = args[0]
		}
		mode := outputText
		if runJSON {
			mode = outputJSON
		}
		_, err = runPipeline(cmd, input, c, mode)
		return err
	},
}

func applyRunFlags(cmd *cobra.Command, c *cfgpkg.Global) {
	f := cmd.Flags()
	if f.Changed("output-dir") {
		c.OutputDir = runOutputDir
	}
	if f.Changed("format") {
		c.ChartFormat = runFormat
	}
	if f.Changed("diagnostics") {
		c.Diagnostics = runDiagnostics
	}
	if f.Changed("sample-rows") {
		c.SampleRows = runSampleRows
	}
	if f.Changed("delimiter") {
		c.Delimiter = runDelimiter
	}
	if f.Changed("sheet") {
		c.Sheet = runSheet
	}
	if f.Changed("top") {
		c.TopCategories = runTop
	}
}

// chartOutcome is the JSON form of one render result.
type chartOutcome struct {
	Chart string `json:"chart"`
	Path  string `json:"path,omitempty"`
	Error string `json:"error,omitempty"`
}

type runReport struct {
	RunID   string             `json:"run_id"`
	Input   string             `json:"input"`
	Summary *aggregate.Summary `json:"summary"`
	Charts  []chartOutcome     `json:"charts"`
}

// runPipeline loads, cleans, enriches, aggregates and renders one dataset.
// Warnings go to stderr in every mode.
func runPipeline(cmd *cobra.Command, input string, c cfgpkg.Global, mode outputMode) (*runReport, error) {
	log, err := newLogger(cmd, c)
	if err != nil {
		return nil, err
	}
	defer func() { _ = log.Close() }()
	runID := uuid.NewString()
	log = log.WithRunID(runID)
	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()

	path, err := utils.ResolveDataset(input)
	if err != nil {
		return nil, err
	}
	delim, err := c.DelimiterRune()
	if err != nil {
		return nil, err
	}

	loadLog := log.WithComponent("loader")
	loadLog.Info("loading dataset", zap.String("path", path))
	table, err := dataset.Load(path, dataset.Options{Delimiter: delim, Sheet: c.Sheet})
	if err != nil {
		return nil, err
	}
	loadLog.Info("loaded dataset", zap.Int("rows", table.Len()), zap.Int("columns", len(table.Columns)))

	diagOpt := analysis.DefaultOptions()
	diagOpt.SampleRows = c.SampleRows
	diagnose := func(stage string, t *dataset.Table) {
		if !c.Diagnostics || mode != outputText {
			return
		}
		fmt.Fprintln(out, analysis.Describe(t, stage, diagOpt).Markdown())
	}
	diagnose(stageLoaded, table)

	cleaner := trending.NewCleaner(log.WithComponent("cleaner").Logger)
	cleaner.OnStage = diagnose
	frame, err := cleaner.Clean(table)
	if err != nil {
		return nil, err
	}
	enriched := trending.Enrich(frame)
	diagnose(stageEnriched, enriched.Table())

	summary := aggregate.Summarize(enriched, c.TopCategories)
	log.WithComponent("aggregate").Info("aggregated",
		zap.Int("videos", summary.Videos),
		zap.Int("years", len(summary.YearlyCounts)),
		zap.Int("categories", len(summary.CategoryCounts)),
		zap.Int("correlation_pairs", summary.Correlation.Pairs))
	if mode == outputText {
		printCorrelation(out, errOut, summary.Correlation)
	}

	renderer, err := render.New(render.Options{
		OutDir: c.OutputDir,
		Format: c.ChartFormat,
		Width:  vg.Length(c.ChartWidthIn) * vg.Inch,
		Height: vg.Length(c.ChartHeightIn) * vg.Inch,
	}, log.WithComponent("render").Logger)
	if err != nil {
		return nil, err
	}
	results := renderer.RenderAll(enriched, summary)

	rep := runReport{RunID: runID, Input: path, Summary: summary}
	var failed int
	for _, res := range results {
		co := chartOutcome{Chart: res.Chart, Path: res.Path}
		if res.Err != nil {
			failed++
			co.Error = res.Err.Error()
			fmt.Fprintf(errOut, "⚠ Warning: chart %s not written: %v\n", res.Chart, res.Err)
		} else if mode == outputText {
			fmt.Fprintf(out, "✓ Wrote chart %s\n", res.Path)
		}
		rep.Charts = append(rep.Charts, co)
	}
	log.Info("run complete", zap.Int("charts", len(results)-failed), zap.Int("chart_failures", failed))

	if mode == outputJSON {
		b, err := utils.PrettyJSON(rep)
		if err != nil {
			return nil, err
		}
		fmt.Fprintln(out, string(b))
	}
	return &rep, nil
}

func printCorrelation(out, errOut io.Writer, c aggregate.Correlation) {
	if c.Defined {
		fmt.Fprintf(out, "Correlation between views and likes: %.4f\n", c.R)
		return
	}
	fmt.Fprintln(out, "Correlation between views and likes: NaN")
	fmt.Fprintf(errOut, "⚠ Warning: correlation undefined (%d complete pairs, or a constant column)\n", c.Pairs)
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runOutputDir, "output-dir", "o", "charts", "directory for chart files")
	runCmd.Flags().StringVar(&runFormat, "format", "png", "chart format: png|svg|pdf|jpg")
	runCmd.Flags().BoolVar(&runDiagnostics, "diagnostics", true, "print head/describe/info after each stage")
	runCmd.Flags().IntVar(&runSampleRows, "sample-rows", 5, "head rows shown in diagnostics")
	runCmd.Flags().StringVar(&runDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (default from extension)")
	runCmd.Flags().StringVar(&runSheet, "sheet", "", "XLSX: sheet name (default first sheet)")
	runCmd.Flags().IntVar(&runTop, "top", 5, "number of categories in the views ranking")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the run summary as JSON instead of diagnostics")
}
