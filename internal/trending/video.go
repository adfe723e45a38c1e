package trending

import (
	"fmt"
	"strconv"
	"time"

	"github.com/KaramelBytes/trendscope-cli/internal/dataset"
)

// Column names of the trending-videos schema.
const (
	ColVideoID             = "video_id"
	ColTrendingDate        = "trending_date"
	ColTitle               = "title"
	ColChannelTitle        = "channel_title"
	ColCategoryID          = "category_id"
	ColPublishTime         = "publish_time"
	ColTags                = "tags"
	ColViews               = "views"
	ColLikes               = "likes"
	ColDislikes            = "dislikes"
	ColCommentCount        = "comment_count"
	ColThumbnailLink       = "thumbnail_link"
	ColCommentsDisabled    = "comments_disabled"
	ColRatingsDisabled     = "ratings_disabled"
	ColVideoErrorOrRemoved = "video_error_or_removed"
	ColDescription         = "description"

	ColPublishMonth = "publish_month"
	ColPublishDay   = "publish_day"
	ColPublishHour  = "publish_hour"
	ColPublishYear  = "publish_year"
	ColPublishDate  = "publish_date"
	ColCategoryName = "category_name"
)

// PrunedColumns are removed by the Cleaner.
var PrunedColumns = []string{ColThumbnailLink, ColDescription}

// RequiredColumns must be present after pruning.
var RequiredColumns = []string{
	ColVideoID, ColTrendingDate, ColCategoryID, ColPublishTime,
	ColViews, ColLikes, ColDislikes, ColCommentCount,
	ColCommentsDisabled, ColRatingsDisabled, ColVideoErrorOrRemoved,
}

// DerivedColumns are appended by Frame.Table after enrichment.
var DerivedColumns = []string{
	ColPublishMonth, ColPublishDay, ColPublishHour, ColPublishYear, ColPublishDate, ColCategoryName,
}

// Count is a non-negative counter that may be missing in the source.
type Count struct {
	N     int64
	Valid bool
}

func (c Count) String() string {
	if !c.Valid {
		return ""
	}
	return strconv.FormatInt(c.N, 10)
}

// Video is one cleaned trending-video observation.
type Video struct {
	// Raw holds the retained cells, aligned with Frame.Columns.
	Raw []string

	VideoID      string
	Title        string
	ChannelTitle string
	CategoryID   string
	Tags         string

	TrendingDate time.Time
	PublishTime  time.Time

	Views        Count
	Likes        Count
	Dislikes     Count
	CommentCount Count

	CommentsDisabled    bool
	RatingsDisabled     bool
	VideoErrorOrRemoved bool

	// Set by Enrich.
	PublishMonth int
	PublishDay   int
	PublishHour  int
	PublishYear  int
	PublishDate  time.Time
	CategoryName string
}

// Flag names one of the boolean columns.
type Flag string

const (
	FlagCommentsDisabled    Flag = ColCommentsDisabled
	FlagRatingsDisabled     Flag = ColRatingsDisabled
	FlagVideoErrorOrRemoved Flag = ColVideoErrorOrRemoved
)

// Flags lists the boolean columns in display order.
var Flags = []Flag{FlagCommentsDisabled, FlagRatingsDisabled, FlagVideoErrorOrRemoved}

// Value returns the flag's value for v.
func (v *Video) Value(f Flag) bool {
	switch f {
	case FlagCommentsDisabled:
		return v.CommentsDisabled
	case FlagRatingsDisabled:
		return v.RatingsDisabled
	case FlagVideoErrorOrRemoved:
		return v.VideoErrorOrRemoved
	}
	return false
}

// Frame is the typed view of a cleaned table.
type Frame struct {
	Name     string
	Columns  []string
	Videos   []Video
	Enriched bool
}

// Len returns the number of videos.
func (f *Frame) Len() int { return len(f.Videos) }

// Table renders the frame as a string table. Parsed timestamps replace the
// raw date cells; derived columns are appended once the frame is enriched.
func (f *Frame) Table() *dataset.Table {
	cols := append([]string(nil), f.Columns...)
	if f.Enriched {
		cols = append(cols, DerivedColumns...)
	}
	td, pt := indexOf(f.Columns, ColTrendingDate), indexOf(f.Columns, ColPublishTime)
	rows := make([][]string, len(f.Videos))
	for i := range f.Videos {
		v := &f.Videos[i]
		r := make([]string, 0, len(cols))
		r = append(r, v.Raw...)
		if td >= 0 {
			r[td] = v.TrendingDate.Format("2006-01-02")
		}
		if pt >= 0 {
			r[pt] = v.PublishTime.Format("2006-01-02 15:04:05")
		}
		if f.Enriched {
			r = append(r,
				strconv.Itoa(v.PublishMonth),
				strconv.Itoa(v.PublishDay),
				strconv.Itoa(v.PublishHour),
				strconv.Itoa(v.PublishYear),
				v.PublishDate.Format("2006-01-02"),
				v.CategoryName,
			)
		}
		rows[i] = r
	}
	return &dataset.Table{Name: f.Name, Columns: cols, Rows: rows}
}

func (f *Frame) String() string {
	return fmt.Sprintf("%s: %d videos, %d columns", f.Name, len(f.Videos), len(f.Columns))
}

func indexOf(cols []string, name string) int {
	for i, c := range cols {
		if c == name {
			return i
		}
	}
	return -1
}
