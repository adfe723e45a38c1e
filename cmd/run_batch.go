package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/trendscope-cli/internal/utils"
)

var (
	rbOutputDir string
	rbFormat    string
	rbDelimiter string
	rbSheet     string
	rbTop       int
	rbKeepGoing bool
	rbQuiet     bool
)

var runBatchCmd = &cobra.Command{
	Use:   "run-batch <files...>",
	Short: "Run the pipeline over several datasets (e.g. one per country)",
	Long: `Run the pipeline for every file or glob match. Each dataset gets its own
chart directory under --output-dir, named after the file, plus a summary.json.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		c, err := requireConfig()
		if err != nil {
			return err
		}
		f := cmd.Flags()
		if f.Changed("output-dir") {
			c.OutputDir = rbOutputDir
		}
		if f.Changed("format") {
			c.ChartFormat = rbFormat
		}
		if f.Changed("delimiter") {
			c.Delimiter = rbDelimiter
		}
		if f.Changed("sheet") {
			c.Sheet = rbSheet
		}
		if f.Changed("top") {
			c.TopCategories = rbTop
		}
		c.Diagnostics = false
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		out := cmd.OutOrStdout()
		root := c.OutputDir
		var failures []string
		total := len(files)
		for i, path := range files {
			if !rbQuiet {
				fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			dir := batchDir(root, path)
			if !rbQuiet && filepath.Base(dir) != datasetBase(path) {
				fmt.Fprintf(out, "⚠ Detected existing output, writing to %s to avoid overwrite.\n", filepath.Base(dir))
			}
			fc := c
			fc.OutputDir = dir
			mode := outputText
			if rbQuiet {
				mode = outputQuiet
			}
			rep, err := runPipeline(cmd, path, fc, mode)
			if err == nil {
				var b []byte
				if b, err = utils.PrettyJSON(rep); err == nil {
					err = utils.SafeWriteFile(filepath.Join(dir, "summary.json"), b)
				}
			}
			if err != nil {
				if !rbKeepGoing {
					return fmt.Errorf("%s: %w", path, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "✗ %s: %v\n", path, err)
				failures = append(failures, path)
				continue
			}
			if !rbQuiet {
				fmt.Fprintf(out, "✓ Wrote %s\n", dir)
			}
		}
		if len(failures) > 0 {
			return fmt.Errorf("%d of %d datasets failed: %s", len(failures), total, strings.Join(failures, ", "))
		}
		return nil
	},
}

// expandInputs resolves globs and literal paths, dropping duplicates.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

func datasetBase(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// batchDir picks root/<name>, suffixing __2, __3... if it already exists.
func batchDir(root, path string) string {
	base := datasetBase(path)
	dir := filepath.Join(root, base)
	if _, err := os.Stat(dir); err != nil {
		return dir
	}
	for idx := 2; ; idx++ {
		cand := filepath.Join(root, fmt.Sprintf("%s__%d", base, idx))
		if _, err := os.Stat(cand); os.IsNotExist(err) {
			return cand
		}
	}
}

func init() {
	rootCmd.AddCommand(runBatchCmd)
	runBatchCmd.Flags().StringVarP(&rbOutputDir, "output-dir", "o", "charts", "root directory; one subdirectory per dataset")
	runBatchCmd.Flags().StringVar(&rbFormat, "format", "png", "chart format: png|svg|pdf|jpg")
	runBatchCmd.Flags().StringVar(&rbDelimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab'")
	runBatchCmd.Flags().StringVar(&rbSheet, "sheet", "", "XLSX: sheet name")
	runBatchCmd.Flags().IntVar(&rbTop, "top", 5, "number of categories in the views ranking")
	runBatchCmd.Flags().BoolVar(&rbKeepGoing, "keep-going", false, "continue with the next dataset after a failure")
	runBatchCmd.Flags().BoolVar(&rbQuiet, "quiet", false, "suppress progress and non-essential output")
}
