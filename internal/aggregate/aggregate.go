// Package aggregate computes the grouped reductions and the views/likes
// correlation over an enriched trending frame.
package aggregate

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/trendscope-cli/internal/trending"
)

// DefaultTopCategories is the size of the category ranking.
const DefaultTopCategories = 5

type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

type YearViews struct {
	Year  int   `json:"year"`
	Views int64 `json:"views"`
}

type CategoryViews struct {
	Category string `json:"category"`
	Views    int64  `json:"views"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

type DateCount struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

// ValueCount is one bar of a boolean count plot.
type ValueCount struct {
	Value bool `json:"value"`
	Count int  `json:"count"`
}

// YearlyCounts counts videos per publish year, ascending by year.
func YearlyCounts(f *trending.Frame) []YearCount {
	m := map[int]int{}
	for i := range f.Videos {
		m[f.Videos[i].PublishYear]++
	}
	out := make([]YearCount, 0, len(m))
	for y, c := range m {
		out = append(out, YearCount{Year: y, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// YearlyViews sums views per publish year, ascending by year. Missing
// views contribute nothing.
func YearlyViews(f *trending.Frame) []YearViews {
	m := map[int]int64{}
	for i := range f.Videos {
		v := &f.Videos[i]
		if _, ok := m[v.PublishYear]; !ok {
			m[v.PublishYear] = 0
		}
		if v.Views.Valid {
			m[v.PublishYear] += v.Views.N
		}
	}
	out := make([]YearViews, 0, len(m))
	for y, s := range m {
		out = append(out, YearViews{Year: y, Views: s})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// TopCategoriesByViews ranks categories by summed views, descending, and
// keeps the first n. Ties keep first-encountered order.
func TopCategoriesByViews(f *trending.Frame, n int) []CategoryViews {
	out := []CategoryViews{}
	pos := map[string]int{}
	for i := range f.Videos {
		v := &f.Videos[i]
		p, ok := pos[v.CategoryName]
		if !ok {
			p = len(out)
			pos[v.CategoryName] = p
			out = append(out, CategoryViews{Category: v.CategoryName})
		}
		if v.Views.Valid {
			out[p].Views += v.Views.N
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Views > out[j].Views })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// CategoryCounts counts videos per category, descending by count. Ties
// keep first-encountered order.
func CategoryCounts(f *trending.Frame) []CategoryCount {
	out := []CategoryCount{}
	pos := map[string]int{}
	for i := range f.Videos {
		name := f.Videos[i].CategoryName
		p, ok := pos[name]
		if !ok {
			p = len(out)
			pos[name] = p
			out = append(out, CategoryCount{Category: name})
		}
		out[p].Count++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// HourlyCounts counts videos per publish hour, ascending. Hours without
// videos are absent.
func HourlyCounts(f *trending.Frame) []HourCount {
	var hours [24]int
	for i := range f.Videos {
		hours[f.Videos[i].PublishHour]++
	}
	out := []HourCount{}
	for h, c := range hours {
		if c > 0 {
			out = append(out, HourCount{Hour: h, Count: c})
		}
	}
	return out
}

// DailyCounts counts videos per publish date, chronologically.
func DailyCounts(f *trending.Frame) []DateCount {
	m := map[time.Time]int{}
	for i := range f.Videos {
		m[f.Videos[i].PublishDate]++
	}
	out := make([]DateCount, 0, len(m))
	for d, c := range m {
		out = append(out, DateCount{Date: d, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// FlagCounts counts False and True values of a flag column; values that
// never occur are omitted.
func FlagCounts(f *trending.Frame, flag trending.Flag) []ValueCount {
	var n [2]int
	for i := range f.Videos {
		if f.Videos[i].Value(flag) {
			n[1]++
		} else {
			n[0]++
		}
	}
	out := make([]ValueCount, 0, 2)
	if n[0] > 0 {
		out = append(out, ValueCount{Value: false, Count: n[0]})
	}
	if n[1] > 0 {
		out = append(out, ValueCount{Value: true, Count: n[1]})
	}
	return out
}

// ViewsLikes returns the paired views and likes of rows where both are
// present.
func ViewsLikes(f *trending.Frame) (views, likes []float64) {
	for i := range f.Videos {
		v := &f.Videos[i]
		if !v.Views.Valid || !v.Likes.Valid {
			continue
		}
		views = append(views, float64(v.Views.N))
		likes = append(likes, float64(v.Likes.N))
	}
	return views, likes
}

// ViewsLikesCorrelation is the Pearson coefficient between views and likes.
// It is NaN when fewer than two complete rows exist or either column is
// constant.
func ViewsLikesCorrelation(f *trending.Frame) float64 {
	views, likes := ViewsLikes(f)
	return Pearson(views, likes)
}

// Pearson returns the correlation of x and y, or NaN when undefined.
func Pearson(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return math.NaN()
	}
	if constant(x) || constant(y) {
		return math.NaN()
	}
	r := stat.Correlation(x, y, nil)
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}

func constant(vs []float64) bool {
	for _, v := range vs[1:] {
		if v != vs[0] {
			return false
		}
	}
	return true
}
