package aggregate

import (
	"encoding/json"
	"math"

	"github.com/KaramelBytes/trendscope-cli/internal/trending"
)

// FlagSummary holds the count plot data for one flag column.
type FlagSummary struct {
	Flag   trending.Flag `json:"flag"`
	Counts []ValueCount  `json:"counts"`
}

// Summary bundles every aggregate the renderer and the CLI consume.
type Summary struct {
	Videos         int             `json:"videos"`
	YearlyCounts   []YearCount     `json:"yearly_counts"`
	YearlyViews    []YearViews     `json:"yearly_views"`
	TopCategories  []CategoryViews `json:"top_categories"`
	CategoryCounts []CategoryCount `json:"category_counts"`
	HourlyCounts   []HourCount     `json:"hourly_counts"`
	DailyCounts    []DateCount     `json:"daily_counts"`
	Flags          []FlagSummary   `json:"flags"`
	Correlation    Correlation     `json:"views_likes_correlation"`
}

// Correlation keeps NaN visible in JSON as a null value with Defined=false.
type Correlation struct {
	R       float64 `json:"-"`
	Pairs   int     `json:"pairs"`
	Defined bool    `json:"defined"`
}

func (c Correlation) MarshalJSON() ([]byte, error) {
	type out struct {
		R       *float64 `json:"r"`
		Pairs   int      `json:"pairs"`
		Defined bool     `json:"defined"`
	}
	o := out{Pairs: c.Pairs, Defined: c.Defined}
	if c.Defined {
		r := c.R
		o.R = &r
	}
	return json.Marshal(o)
}

// Summarize runs every aggregate over an enriched frame.
func Summarize(f *trending.Frame, topN int) *Summary {
	if topN <= 0 {
		topN = DefaultTopCategories
	}
	views, likes := ViewsLikes(f)
	r := Pearson(views, likes)
	s := &Summary{
		Videos:         f.Len(),
		YearlyCounts:   YearlyCounts(f),
		YearlyViews:    YearlyViews(f),
		TopCategories:  TopCategoriesByViews(f, topN),
		CategoryCounts: CategoryCounts(f),
		HourlyCounts:   HourlyCounts(f),
		DailyCounts:    DailyCounts(f),
		Correlation:    Correlation{R: r, Pairs: len(views), Defined: !math.IsNaN(r)},
	}
	for _, fl := range trending.Flags {
		s.Flags = append(s.Flags, FlagSummary{Flag: fl, Counts: FlagCounts(f, fl)})
	}
	return s
}
