package render

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/trendscope-cli/internal/aggregate"
	"github.com/KaramelBytes/trendscope-cli/internal/trending"
)

func enriched() *trending.Frame {
	var vs []trending.Video
	for i, c := range []string{"Music", "Gaming", "Music", "Comedy", "Sports", "Music"} {
		pt := time.Date(2018+i%2, 5, 1+i, 3*i, 0, 0, 0, time.UTC)
		vs = append(vs, trending.Video{
			PublishTime:      pt,
			PublishYear:      pt.Year(),
			PublishMonth:     int(pt.Month()),
			PublishDay:       pt.Day(),
			PublishHour:      pt.Hour(),
			PublishDate:      time.Date(pt.Year(), pt.Month(), pt.Day(), 0, 0, 0, 0, time.UTC),
			CategoryName:     c,
			Views:            trending.Count{N: int64(100 * (i + 1)), Valid: true},
			Likes:            trending.Count{N: int64(7 * (i + 1)), Valid: true},
			CommentsDisabled: i == 2,
		})
	}
	return &trending.Frame{Name: "test", Videos: vs, Enriched: true}
}

func newRenderer(t *testing.T, format string) *Renderer {
	t.Helper()
	r, err := New(Options{OutDir: filepath.Join(t.TempDir(), "charts"), Format: format}, nil)
	require.NoError(t, err)
	return r
}

func TestRenderAllWritesEveryChart(t *testing.T) {
	f := enriched()
	r := newRenderer(t, "png")
	results := r.RenderAll(f, aggregate.Summarize(f, 3))
	require.Len(t, results, len(Charts))
	for i, res := range results {
		assert.Equal(t, Charts[i], res.Chart)
		require.NoError(t, res.Err, res.Chart)
		st, err := os.Stat(res.Path)
		require.NoError(t, err, res.Chart)
		assert.Greater(t, st.Size(), int64(0), res.Chart)
		assert.Equal(t, ".png", filepath.Ext(res.Path))
	}
}

func TestRenderSVG(t *testing.T) {
	f := enriched()
	r := newRenderer(t, "SVG")
	require.NoError(t, r.YearlyCounts(r.Path(ChartYearlyCounts), aggregate.YearlyCounts(f)))
	require.NoError(t, r.FlagCounts(r.Path(ChartFlagCounts), aggregate.Summarize(f, 5).Flags))
	b, err := os.ReadFile(r.Path(ChartYearlyCounts))
	require.NoError(t, err)
	assert.Contains(t, string(b), "<svg")
}

func TestChartMethodsCreateOutputDir(t *testing.T) {
	f := enriched()
	s := aggregate.Summarize(f, 5)
	r := newRenderer(t, "png")
	require.NoError(t, r.FlagCounts(r.Path(ChartFlagCounts), s.Flags))
	require.NoError(t, r.HourlyCounts(r.Path(ChartHourlyCounts), s.HourlyCounts))

	nested := filepath.Join(t.TempDir(), "a", "b", "views.png")
	require.NoError(t, r.ViewsLikes(nested, f))
	for _, p := range []string{r.Path(ChartFlagCounts), r.Path(ChartHourlyCounts), nested} {
		_, err := os.Stat(p)
		assert.NoError(t, err, p)
	}
}

func TestRenderEmptyFrameIsolatesFailures(t *testing.T) {
	f := &trending.Frame{Name: "empty", Enriched: true}
	r := newRenderer(t, "png")
	results := r.RenderAll(f, aggregate.Summarize(f, 5))
	require.Len(t, results, len(Charts))
	for _, res := range results {
		var re *RenderError
		require.True(t, errors.As(res.Err, &re), "%s: %v", res.Chart, res.Err)
		assert.Equal(t, res.Chart, re.Chart)
		assert.Empty(t, res.Path)
	}
}

func TestRenderSingleDateLineFails(t *testing.T) {
	r := newRenderer(t, "png")
	err := r.DailyCounts(r.Path(ChartDailyCounts), []aggregate.DateCount{{Date: time.Now(), Count: 1}})
	var re *RenderError
	require.True(t, errors.As(err, &re))
	assert.Contains(t, re.Error(), "at least 2")

	// a single bar is fine
	require.NoError(t, r.CategoryCounts(r.Path(ChartCategoryCounts), []aggregate.CategoryCount{{Category: "Music", Count: 1}}))
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := New(Options{Format: "bmp"}, nil)
	assert.Error(t, err)

	r, err := New(Options{}, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("charts", "views_vs_likes.png"), r.Path(ChartViewsLikes))
}
