package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/trendscope-cli/internal/dataset"
	"github.com/KaramelBytes/trendscope-cli/internal/render"
	"github.com/KaramelBytes/trendscope-cli/internal/trending"
)

const videosHeader = "video_id,trending_date,title,channel_title,category_id,publish_time,tags,views,likes,dislikes,comment_count,thumbnail_link,comments_disabled,ratings_disabled,video_error_or_removed,description\n"

var videosCSV = videosHeader +
	`v1,17.14.11,"Title, one",Chan A,10,2017-11-13T17:13:01.000Z,a|b,1000,100,5,20,http://t/1,False,False,False,desc one` + "\n" +
	`v1,17.14.11,"Title, one",Chan A,10,2017-11-13T17:13:01.000Z,a|b,1000,100,5,20,http://t/1b,False,False,False,another description` + "\n" +
	`v2,17.15.11,Two,Chan B,24,2017-11-12T08:00:00.000Z,c,5000,400,10,50,http://t/2,True,False,False,"multi` + "\n" + `line"` + "\n" +
	`v3,18.01.02,Three,Chan C,999,2018-01-31T23:30:00.000Z,d,300,,1,2,http://t/3,False,True,False,three` + "\n" +
	`v4,18.02.02,Four,Chan D,20,2018-02-01T12:00:00.000Z,e,800,90,2,4,http://t/4,False,False,False,four` + "\n"

// resetFlags restores every flag to its default; cobra keeps parsed values
// between Execute calls.
func resetFlags(c *cobra.Command) {
	for _, fs := range []*pflag.FlagSet{c.Flags(), c.PersistentFlags()} {
		fs.VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args and captures its output.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	resetFlags(rootCmd)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func setup(t *testing.T, csv string) (dir, path string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	path = filepath.Join(home, "USvideos.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))
	return home, path
}

func TestCLI_RunWritesChartsAndDiagnostics(t *testing.T) {
	home, path := setup(t, videosCSV)
	charts := filepath.Join(home, "charts")

	stdout, stderr, err := execute(t, "run", path, "--output-dir", charts, "--sample-rows", "2")
	require.NoError(t, err, stderr)

	for _, stage := range []string{"loaded", trending.StagePruned, trending.StageDeduplicated, "enriched"} {
		assert.Contains(t, stdout, "Stage: "+stage)
	}
	assert.Contains(t, stdout, "[DESCRIBE]")
	assert.Contains(t, stdout, "category_name")
	assert.Contains(t, stdout, "Correlation between views and likes: 0.")
	assert.Less(t, strings.Index(stdout, "Stage: pruned"), strings.Index(stdout, "Stage: deduplicated"))

	for _, chart := range render.Charts {
		p := filepath.Join(charts, chart+".png")
		_, err := os.Stat(p)
		assert.NoError(t, err, chart)
		assert.Contains(t, stdout, "✓ Wrote chart "+p)
	}
	assert.Contains(t, stderr, "deduplicated rows")
}

func TestCLI_RunJSON(t *testing.T) {
	home, path := setup(t, videosCSV)

	stdout, stderr, err := execute(t, "run", path, "-o", filepath.Join(home, "out"), "--format", "svg", "--json", "--top", "2")
	require.NoError(t, err, stderr)

	var rep struct {
		RunID   string `json:"run_id"`
		Summary struct {
			Videos        int `json:"videos"`
			TopCategories []struct {
				Category string `json:"category"`
				Views    int64  `json:"views"`
			} `json:"top_categories"`
			Correlation struct {
				R       *float64 `json:"r"`
				Pairs   int      `json:"pairs"`
				Defined bool     `json:"defined"`
			} `json:"views_likes_correlation"`
		} `json:"summary"`
		Charts []struct {
			Chart string `json:"chart"`
			Path  string `json:"path"`
			Error string `json:"error"`
		} `json:"charts"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &rep), stdout)
	assert.NotEmpty(t, rep.RunID)
	assert.Equal(t, 4, rep.Summary.Videos)
	require.Len(t, rep.Summary.TopCategories, 2)
	assert.Equal(t, "Entertainment", rep.Summary.TopCategories[0].Category)
	assert.Equal(t, int64(5000), rep.Summary.TopCategories[0].Views)
	assert.True(t, rep.Summary.Correlation.Defined)
	assert.Equal(t, 3, rep.Summary.Correlation.Pairs)
	require.NotNil(t, rep.Summary.Correlation.R)
	require.Len(t, rep.Charts, len(render.Charts))
	for _, c := range rep.Charts {
		assert.Empty(t, c.Error, c.Chart)
		assert.Equal(t, ".svg", filepath.Ext(c.Path))
	}
	assert.Contains(t, stderr, rep.RunID)
}

func TestCLI_RunParseErrorIsFatal(t *testing.T) {
	bad := videosHeader + `v9,not-a-date,T,C,10,2017-11-13T17:13:01.000Z,x,1,1,1,1,http://t/9,False,False,False,d` + "\n"
	home, path := setup(t, bad)
	charts := filepath.Join(home, "charts")

	_, _, err := execute(t, "run", path, "-o", charts)
	var pe *trending.ParseError
	require.True(t, errors.As(err, &pe), "got %v", err)
	assert.Equal(t, 1, pe.Row)
	assert.Equal(t, trending.ColTrendingDate, pe.Column)
	_, statErr := os.Stat(charts)
	assert.True(t, os.IsNotExist(statErr), "no chart output after a parse error")
}

func TestCLI_RunMissingFile(t *testing.T) {
	home, _ := setup(t, videosCSV)
	_, _, err := execute(t, "run", filepath.Join(home, "missing.csv"))
	var de *dataset.DataSourceError
	assert.True(t, errors.As(err, &de), "got %v", err)
}

func TestCLI_RunMissingColumnIsSchemaError(t *testing.T) {
	_, path := setup(t, "video_id,thumbnail_link\nv1,http://t/1\n")
	_, _, err := execute(t, "run", path)
	var se *dataset.SchemaError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, trending.ColDescription, se.Column)
}

func TestCLI_RunEmptyDatasetWarnsPerChart(t *testing.T) {
	home, path := setup(t, videosHeader)
	stdout, stderr, err := execute(t, "run", path, "-o", filepath.Join(home, "charts"), "--diagnostics=false")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Correlation between views and likes: NaN")
	assert.Equal(t, len(render.Charts), strings.Count(stderr, "⚠ Warning: chart "))
	assert.Contains(t, stderr, "correlation undefined")
}

func TestCLI_ConfigDrivesRun(t *testing.T) {
	home, path := setup(t, videosCSV)
	charts := filepath.Join(home, "from-config")

	_, _, err := execute(t, "config", "set", "input_path", path)
	require.NoError(t, err)
	_, _, err = execute(t, "config", "set", "output_dir", charts)
	require.NoError(t, err)
	_, _, err = execute(t, "config", "set", "diagnostics", "false")
	require.NoError(t, err)

	show, _, err := execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, show, "input_path: "+path)
	assert.Contains(t, show, "diagnostics: false")
	assert.Contains(t, show, "chart_format: png")

	stdout, stderr, err := execute(t, "run")
	require.NoError(t, err, stderr)
	assert.NotContains(t, stdout, "[DATASET SUMMARY]")
	_, err = os.Stat(filepath.Join(charts, render.ChartViewsLikes+".png"))
	assert.NoError(t, err)

	// a directory argument resolves to USvideos.csv
	_, stderr, err = execute(t, "run", home, "--diagnostics=false")
	require.NoError(t, err, stderr)
}

func TestCLI_ConfigSetRejectsBadValues(t *testing.T) {
	setup(t, videosCSV)
	_, _, err := execute(t, "config", "set", "chart_format", "bmp")
	assert.Error(t, err)
	_, _, err = execute(t, "config", "set", "colour", "red")
	assert.Error(t, err)
	_, _, err = execute(t, "config", "set", "sample_rows", "many")
	assert.Error(t, err)
}

func TestCLI_DescribeWritesOutput(t *testing.T) {
	home, path := setup(t, videosCSV)
	out := filepath.Join(home, "reports", "enriched.md")

	stdout, stderr, err := execute(t, "describe", path, "--stage", "enriched", "--correlations", "-o", out)
	require.NoError(t, err, stderr)
	assert.Contains(t, stdout, "✓ Wrote diagnostics to "+out)

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	md := string(b)
	assert.Contains(t, md, "Stage: enriched")
	assert.Contains(t, md, "Rows: 4")
	assert.Contains(t, md, "category_name")
	assert.Contains(t, md, "[CORRELATIONS]")
	assert.NotContains(t, md, "thumbnail_link")

	stdout, _, err = execute(t, "describe", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Rows: 5")
	assert.Contains(t, stdout, "thumbnail_link")

	_, _, err = execute(t, "describe", path, "--stage", "raw")
	assert.Error(t, err)
}
