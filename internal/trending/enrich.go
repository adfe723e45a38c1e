package trending

import "time"

// Enrich returns a copy of f with the calendar fields of publish_time and
// the category name filled in. It never fails; unmapped category ids get
// UnknownCategory.
func Enrich(f *Frame) *Frame {
	out := &Frame{
		Name:     f.Name,
		Columns:  append([]string(nil), f.Columns...),
		Videos:   make([]Video, len(f.Videos)),
		Enriched: true,
	}
	for i, v := range f.Videos {
		pt := v.PublishTime
		v.PublishMonth = int(pt.Month())
		v.PublishDay = pt.Day()
		v.PublishHour = pt.Hour()
		v.PublishYear = pt.Year()
		v.PublishDate = time.Date(pt.Year(), pt.Month(), pt.Day(), 0, 0, 0, 0, time.UTC)
		v.CategoryName = CategoryName(v.CategoryID)
		out.Videos[i] = v
	}
	return out
}
