package trending

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/KaramelBytes/trendscope-cli/internal/dataset"
)

// ParseError reports a cell that does not match its expected format.
// Row is the 1-based data row of the input file, header excluded.
type ParseError struct {
	Row     int
	VideoID string
	Column  string
	Value   string
	Err     error
}

func (e *ParseError) Error() string {
	if e.VideoID != "" {
		return fmt.Sprintf("parse %s at row %d (video_id %s): invalid value %q: %v", e.Column, e.Row, e.VideoID, e.Value, e.Err)
	}
	return fmt.Sprintf("parse %s at row %d: invalid value %q: %v", e.Column, e.Row, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Stage names passed to Cleaner.OnStage.
const (
	StageDeduplicated = "deduplicated"
	StagePruned       = "pruned"
)

// TrendingDateLayout is the YY.DD.MM pattern of trending_date.
const TrendingDateLayout = "06.02.01"

var publishLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

var errNoLayout = errors.New("does not match any timestamp layout")

// Cleaner turns a loaded table into a typed Frame.
type Cleaner struct {
	logger *zap.Logger
	// OnStage, if set, observes the table after each cleaning step.
	OnStage func(stage string, t *dataset.Table)
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *zap.Logger) *Cleaner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cleaner{logger: logger}
}

// Clean prunes the fixed columns, removes duplicate rows and parses dates,
// counts and flags. Pruning runs first so that no two retained rows are
// identical. Any malformed cell aborts with a *ParseError.
func (c *Cleaner) Clean(t *dataset.Table) (*Frame, error) {
	pruned, err := dataset.DropColumns(t, PrunedColumns...)
	if err != nil {
		return nil, err
	}
	c.stage(StagePruned, pruned)

	deduped := dataset.Deduplicate(pruned)
	c.logger.Info("deduplicated rows",
		zap.Int("before", pruned.Len()),
		zap.Int("after", deduped.Len()),
		zap.Int("dropped", pruned.Len()-deduped.Len()))
	c.stage(StageDeduplicated, deduped)

	for _, col := range RequiredColumns {
		if !deduped.Has(col) {
			return nil, &dataset.SchemaError{Column: col, Op: "clean"}
		}
	}
	f, err := parseFrame(deduped)
	if err != nil {
		return nil, err
	}
	c.logger.Info("parsed frame", zap.Int("videos", f.Len()), zap.Int("columns", len(f.Columns)))
	return f, nil
}

func (c *Cleaner) stage(name string, t *dataset.Table) {
	c.logger.Debug("cleaning stage", zap.String("stage", name), zap.Int("rows", t.Len()), zap.Int("columns", len(t.Columns)))
	if c.OnStage != nil {
		c.OnStage(name, t)
	}
}

func parseFrame(t *dataset.Table) (*Frame, error) {
	idx := make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		idx[c] = i
	}
	cell := func(r []string, name string) string {
		if i, ok := idx[name]; ok {
			return r[i]
		}
		return ""
	}
	f := &Frame{Name: t.Name, Columns: append([]string(nil), t.Columns...), Videos: make([]Video, 0, t.Len())}
	for i, r := range t.Rows {
		v := Video{
			Raw:          append([]string(nil), r...),
			VideoID:      cell(r, ColVideoID),
			Title:        cell(r, ColTitle),
			ChannelTitle: cell(r, ColChannelTitle),
			CategoryID:   strings.TrimSpace(cell(r, ColCategoryID)),
			Tags:         cell(r, ColTags),
		}
		fail := func(col string, err error) error {
			return &ParseError{Row: t.SourceRow(i), VideoID: v.VideoID, Column: col, Value: cell(r, col), Err: err}
		}
		var err error
		if v.TrendingDate, err = ParseTrendingDate(cell(r, ColTrendingDate)); err != nil {
			return nil, fail(ColTrendingDate, err)
		}
		if v.PublishTime, err = ParsePublishTime(cell(r, ColPublishTime)); err != nil {
			return nil, fail(ColPublishTime, err)
		}
		counts := []struct {
			col string
			dst *Count
		}{
			{ColViews, &v.Views},
			{ColLikes, &v.Likes},
			{ColDislikes, &v.Dislikes},
			{ColCommentCount, &v.CommentCount},
		}
		for _, c := range counts {
			if *c.dst, err = parseCount(cell(r, c.col)); err != nil {
				return nil, fail(c.col, err)
			}
		}
		flags := []struct {
			col string
			dst *bool
		}{
			{ColCommentsDisabled, &v.CommentsDisabled},
			{ColRatingsDisabled, &v.RatingsDisabled},
			{ColVideoErrorOrRemoved, &v.VideoErrorOrRemoved},
		}
		for _, fl := range flags {
			if *fl.dst, err = strconv.ParseBool(strings.TrimSpace(cell(r, fl.col))); err != nil {
				return nil, fail(fl.col, err)
			}
		}
		f.Videos = append(f.Videos, v)
	}
	return f, nil
}

// ParseTrendingDate parses the YY.DD.MM trending_date format.
func ParseTrendingDate(s string) (time.Time, error) {
	return time.Parse(TrendingDateLayout, strings.TrimSpace(s))
}

// ParsePublishTime parses an ISO-like publish timestamp. Values without a
// zone are taken as UTC.
func ParsePublishTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, l := range publishLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errNoLayout
}

func parseCount(s string) (Count, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Count{}, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// tolerate float-rendered integers such as "100.0"
		fv, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || fv != float64(int64(fv)) {
			return Count{}, err
		}
		n = int64(fv)
	}
	return Count{N: n, Valid: true}, nil
}
