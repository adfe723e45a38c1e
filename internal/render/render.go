package render

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/KaramelBytes/trendscope-cli/internal/aggregate"
	"github.com/KaramelBytes/trendscope-cli/internal/trending"
)

// Chart names, also used as file base names.
const (
	ChartYearlyCounts   = "yearly_publish_count"
	ChartYearlyViews    = "yearly_views"
	ChartTopCategories  = "top_categories_by_views"
	ChartCategoryCounts = "category_counts"
	ChartHourlyCounts   = "hourly_publish_count"
	ChartDailyCounts    = "daily_publish_count"
	ChartViewsLikes     = "views_vs_likes"
	ChartFlagCounts     = "flag_counts"
)

// Charts lists every chart in render order.
var Charts = []string{
	ChartYearlyCounts, ChartYearlyViews, ChartTopCategories, ChartCategoryCounts,
	ChartHourlyCounts, ChartDailyCounts, ChartViewsLikes, ChartFlagCounts,
}

var formats = map[string]bool{"png": true, "svg": true, "pdf": true, "jpg": true, "jpeg": true}

// RenderError reports a chart that could not be produced from its input.
type RenderError struct {
	Chart  string
	Reason string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %s", e.Chart, e.Reason)
}

// Options controls chart output.
type Options struct {
	OutDir string
	Format string
	Width  vg.Length
	Height vg.Length
}

// DefaultOptions returns 10x6 inch PNG charts in ./charts.
func DefaultOptions() Options {
	return Options{OutDir: "charts", Format: "png", Width: 10 * vg.Inch, Height: 6 * vg.Inch}
}

// ValidFormat reports whether the chart format is supported.
func ValidFormat(format string) bool { return formats[strings.ToLower(format)] }

// Result is the outcome of one chart.
type Result struct {
	Chart string
	Path  string
	Err   error
}

// Renderer writes chart files.
type Renderer struct {
	opt    Options
	logger *zap.Logger
}

// New creates a Renderer. Zero sizes and an empty format fall back to the
// defaults.
func New(opt Options, logger *zap.Logger) (*Renderer, error) {
	def := DefaultOptions()
	if opt.OutDir == "" {
		opt.OutDir = def.OutDir
	}
	if opt.Format == "" {
		opt.Format = def.Format
	}
	opt.Format = strings.ToLower(opt.Format)
	if !ValidFormat(opt.Format) {
		return nil, fmt.Errorf("unsupported chart format: %s (use png|svg|pdf|jpg)", opt.Format)
	}
	if opt.Width <= 0 {
		opt.Width = def.Width
	}
	if opt.Height <= 0 {
		opt.Height = def.Height
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{opt: opt, logger: logger}, nil
}

// RenderAll produces every chart. A failing chart does not stop the
// others; its error is carried in the returned Result.
func (r *Renderer) RenderAll(f *trending.Frame, s *aggregate.Summary) []Result {
	if err := os.MkdirAll(r.opt.OutDir, 0o755); err != nil {
		out := make([]Result, len(Charts))
		for i, c := range Charts {
			out[i] = Result{Chart: c, Err: fmt.Errorf("create output dir: %w", err)}
		}
		return out
	}
	jobs := []struct {
		name string
		fn   func(path string) error
	}{
		{ChartYearlyCounts, func(p string) error { return r.YearlyCounts(p, s.YearlyCounts) }},
		{ChartYearlyViews, func(p string) error { return r.YearlyViews(p, s.YearlyViews) }},
		{ChartTopCategories, func(p string) error { return r.TopCategories(p, s.TopCategories) }},
		{ChartCategoryCounts, func(p string) error { return r.CategoryCounts(p, s.CategoryCounts) }},
		{ChartHourlyCounts, func(p string) error { return r.HourlyCounts(p, s.HourlyCounts) }},
		{ChartDailyCounts, func(p string) error { return r.DailyCounts(p, s.DailyCounts) }},
		{ChartViewsLikes, func(p string) error { return r.ViewsLikes(p, f) }},
		{ChartFlagCounts, func(p string) error { return r.FlagCounts(p, s.Flags) }},
	}
	out := make([]Result, 0, len(jobs))
	for _, j := range jobs {
		path := r.Path(j.name)
		err := j.fn(path)
		if err != nil {
			r.logger.Warn("chart failed", zap.String("chart", j.name), zap.Error(err))
			path = ""
		} else {
			r.logger.Debug("chart written", zap.String("chart", j.name), zap.String("path", path))
		}
		out = append(out, Result{Chart: j.name, Path: path, Err: err})
	}
	return out
}

// Path returns the output file for a chart.
func (r *Renderer) Path(chart string) string {
	return filepath.Join(r.opt.OutDir, chart+"."+r.opt.Format)
}

// YearlyCounts draws total published videos per year.
func (r *Renderer) YearlyCounts(path string, data []aggregate.YearCount) error {
	if len(data) == 0 {
		return &RenderError{Chart: ChartYearlyCounts, Reason: "no data"}
	}
	vals := make(plotter.Values, len(data))
	labels := make([]string, len(data))
	for i, d := range data {
		vals[i] = float64(d.Count)
		labels[i] = strconv.Itoa(d.Year)
	}
	return r.bars(path, ChartYearlyCounts, "Total Publish Video Per Year", "Year", "Total Publish Count", vals, labels, false)
}

// YearlyViews draws summed views per year.
func (r *Renderer) YearlyViews(path string, data []aggregate.YearViews) error {
	if len(data) == 0 {
		return &RenderError{Chart: ChartYearlyViews, Reason: "no data"}
	}
	vals := make(plotter.Values, len(data))
	labels := make([]string, len(data))
	for i, d := range data {
		vals[i] = float64(d.Views)
		labels[i] = strconv.Itoa(d.Year)
	}
	return r.bars(path, ChartYearlyViews, "Total Views per Year", "Year", "Total Views", vals, labels, false)
}

// TopCategories draws the category ranking by views.
func (r *Renderer) TopCategories(path string, data []aggregate.CategoryViews) error {
	if len(data) == 0 {
		return &RenderError{Chart: ChartTopCategories, Reason: "no data"}
	}
	vals := make(plotter.Values, len(data))
	labels := make([]string, len(data))
	for i, d := range data {
		vals[i] = float64(d.Views)
		labels[i] = d.Category
	}
	title := fmt.Sprintf("Top %d Categories by Views", len(data))
	return r.bars(path, ChartTopCategories, title, "Category Name", "Total Views", vals, labels, false)
}

// CategoryCounts draws a count plot of every category, most frequent first.
func (r *Renderer) CategoryCounts(path string, data []aggregate.CategoryCount) error {
	if len(data) == 0 {
		return &RenderError{Chart: ChartCategoryCounts, Reason: "no data"}
	}
	vals := make(plotter.Values, len(data))
	labels := make([]string, len(data))
	for i, d := range data {
		vals[i] = float64(d.Count)
		labels[i] = d.Category
	}
	return r.bars(path, ChartCategoryCounts, "Video Count by Category", "Category Name", "count", vals, labels, true)
}

// HourlyCounts draws published videos per hour of day.
func (r *Renderer) HourlyCounts(path string, data []aggregate.HourCount) error {
	if len(data) == 0 {
		return &RenderError{Chart: ChartHourlyCounts, Reason: "no data"}
	}
	vals := make(plotter.Values, len(data))
	labels := make([]string, len(data))
	for i, d := range data {
		vals[i] = float64(d.Count)
		labels[i] = strconv.Itoa(d.Hour)
	}
	return r.bars(path, ChartHourlyCounts, "Number of Videos Published per Hour", "Hour of Day", "Number of Videos", vals, labels, false)
}

// DailyCounts draws published videos per day as a line over time.
func (r *Renderer) DailyCounts(path string, data []aggregate.DateCount) error {
	if len(data) < 2 {
		return &RenderError{Chart: ChartDailyCounts, Reason: fmt.Sprintf("need at least 2 dates, have %d", len(data))}
	}
	pts := make(plotter.XYs, len(data))
	for i, d := range data {
		pts[i].X = float64(d.Date.Unix())
		pts[i].Y = float64(d.Count)
	}
	p := r.newPlot("Video Publish Over Time", "Publish Date", "Number of Videos")
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	rotate(&p.X.Tick.Label, math.Pi/4)
	line, err := plotter.NewLine(pts)
	if err != nil {
		return &RenderError{Chart: ChartDailyCounts, Reason: err.Error()}
	}
	line.LineStyle.Color = plotutil.Color(0)
	line.LineStyle.Width = vg.Points(1.5)
	p.Add(line)
	return r.save(p, path)
}

// ViewsLikes draws a scatter of views against likes, one point per video
// with both values.
func (r *Renderer) ViewsLikes(path string, f *trending.Frame) error {
	views, likes := aggregate.ViewsLikes(f)
	if len(views) == 0 {
		return &RenderError{Chart: ChartViewsLikes, Reason: "no points"}
	}
	pts := make(plotter.XYs, len(views))
	for i := range views {
		pts[i].X = views[i]
		pts[i].Y = likes[i]
	}
	p := r.newPlot("Views vs Likes", "Views", "Likes")
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return &RenderError{Chart: ChartViewsLikes, Reason: err.Error()}
	}
	sc.GlyphStyle.Color = plotutil.Color(0)
	sc.GlyphStyle.Radius = vg.Points(2)
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(sc)
	return r.save(p, path)
}

var flagTitles = map[trending.Flag]string{
	trending.FlagCommentsDisabled:    "Comments Disabled",
	trending.FlagRatingsDisabled:     "Rating Disabled",
	trending.FlagVideoErrorOrRemoved: "Video Error or Removed",
}

// FlagCounts draws a 2x2 grid of count plots, one per flag column.
func (r *Renderer) FlagCounts(path string, flags []aggregate.FlagSummary) error {
	if len(flags) == 0 {
		return &RenderError{Chart: ChartFlagCounts, Reason: "no flags"}
	}
	const rows, cols = 2, 2
	if len(flags) > rows*cols {
		return &RenderError{Chart: ChartFlagCounts, Reason: fmt.Sprintf("%d flags do not fit a %dx%d grid", len(flags), rows, cols)}
	}
	plots := make([][]*plot.Plot, rows)
	for j := range plots {
		plots[j] = make([]*plot.Plot, cols)
		for i := range plots[j] {
			k := j*cols + i
			if k >= len(flags) {
				blank := plot.New()
				blank.HideAxes()
				plots[j][i] = blank
				continue
			}
			fs := flags[k]
			if len(fs.Counts) == 0 {
				return &RenderError{Chart: ChartFlagCounts, Reason: fmt.Sprintf("no data for %s", fs.Flag)}
			}
			vals := make(plotter.Values, len(fs.Counts))
			labels := make([]string, len(fs.Counts))
			for n, c := range fs.Counts {
				vals[n] = float64(c.Count)
				labels[n] = boolLabel(c.Value)
			}
			title := flagTitles[fs.Flag]
			if title == "" {
				title = string(fs.Flag)
			}
			p := r.newPlot(title, string(fs.Flag), "count")
			p.Title.TextStyle.Font.Size = vg.Points(16)
			bars, err := plotter.NewBarChart(vals, vg.Points(40))
			if err != nil {
				return &RenderError{Chart: ChartFlagCounts, Reason: err.Error()}
			}
			bars.Color = plotutil.Color(k)
			bars.LineStyle.Width = 0
			p.Add(bars)
			p.NominalX(labels...)
			plots[j][i] = p
		}
	}

	w, h := r.opt.Width*1.4, r.opt.Height*1.33
	c, err := draw.NewFormattedCanvas(w, h, r.opt.Format)
	if err != nil {
		return fmt.Errorf("canvas: %w", err)
	}
	tiles := draw.Tiles{
		Rows:      rows,
		Cols:      cols,
		PadX:      vg.Millimeter * 8,
		PadY:      vg.Millimeter * 12,
		PadTop:    vg.Millimeter * 4,
		PadBottom: vg.Millimeter * 4,
		PadLeft:   vg.Millimeter * 4,
		PadRight:  vg.Millimeter * 4,
	}
	canvases := plot.Align(plots, tiles, draw.New(c))
	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			plots[j][i].Draw(canvases[j][i])
		}
	}
	if err := ensureParent(path); err != nil {
		return err
	}
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := c.WriteTo(fh); err != nil {
		fh.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return fh.Close()
}

func (r *Renderer) bars(path, chart, title, xlabel, ylabel string, vals plotter.Values, labels []string, vertical bool) error {
	p := r.newPlot(title, xlabel, ylabel)
	width := r.opt.Width / vg.Length(2*len(vals)+1)
	if width > vg.Points(60) {
		width = vg.Points(60)
	}
	bars, err := plotter.NewBarChart(vals, width)
	if err != nil {
		return &RenderError{Chart: chart, Reason: err.Error()}
	}
	bars.Color = plotutil.Color(0)
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(labels...)
	if vertical {
		rotate(&p.X.Tick.Label, math.Pi/2)
	}
	return r.save(p, path)
}

func (r *Renderer) newPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(15)
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	p.BackgroundColor = color.White
	return p
}

func (r *Renderer) save(p *plot.Plot, path string) error {
	if err := ensureParent(path); err != nil {
		return err
	}
	if err := p.Save(r.opt.Width, r.opt.Height, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func ensureParent(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}

func boolLabel(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func rotate(s *text.Style, angle float64) {
	s.Rotation = angle
	s.XAlign = text.XRight
	s.YAlign = text.YCenter
}
