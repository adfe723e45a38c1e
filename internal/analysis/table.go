package analysis

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/trendscope-cli/internal/dataset"
)

// Options controls the diagnostics report.
type Options struct {
	// SampleRows determines how many head rows to include in the report.
	SampleRows int
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
}

// DefaultOptions returns reasonable defaults for stage diagnostics.
func DefaultOptions() Options {
	return Options{SampleRows: 5}
}

// Report is a markdown-friendly head/info/describe view of a table.
type Report struct {
	Name     string
	Stage    string
	Rows     int
	Cols     []ColumnSummary
	Samples  [][]string
	Warnings []string
	Corr     *CorrMatrix
}

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    string // numeric|datetime|categorical|text|unknown
	NonNull int
	Missing int
	Unique  int
	// Numeric stats
	Count int
	Min   float64
	Q25   float64
	Q50   float64
	Q75   float64
	Max   float64
	Mean  float64
	Std   float64
	// Outliers (robust Z via MAD)
	OutliersCount    int
	OutliersMaxAbsZ  float64
	OutlierThreshold float64
	// Categorical top values
	TopValues    []CategoryCount
	ExampleTexts []string
}

type CategoryCount struct {
	Value string
	Count int
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric
// columns. Undefined coefficients are NaN.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

// Describe analyzes an in-memory table. The stage label, if set, is shown
// in the report header.
func Describe(t *dataset.Table, stage string, opt Options) *Report {
	rep := &Report{Name: t.Name, Stage: stage, Rows: t.Len()}
	sampleRows := opt.SampleRows
	if sampleRows < 0 {
		sampleRows = 0
	}
	for _, row := range t.Head(sampleRows).Rows {
		rep.Samples = append(rep.Samples, append([]string(nil), row...))
	}

	type colAcc struct {
		nonNil int
		miss   int
		nums   []float64
		numRow []int
		dtCnt  int
		txtCnt int
		cats   map[string]int
		exText []string
	}
	ncol := len(t.Columns)
	cols := make([]*colAcc, ncol)
	for j := range cols {
		cols[j] = &colAcc{cats: map[string]int{}}
	}
	for i, rec := range t.Rows {
		for j := 0; j < ncol && j < len(rec); j++ {
			c := cols[j]
			v := strings.TrimSpace(rec[j])
			if v == "" {
				c.miss++
				continue
			}
			c.nonNil++
			if x, ok := parseNumeric(v); ok {
				c.nums = append(c.nums, x)
				c.numRow = append(c.numRow, i)
				continue
			}
			if _, ok := parseTimeMaybe(v); ok {
				c.dtCnt++
				continue
			}
			c.txtCnt++
			if len(c.cats) <= 10000 && len(v) <= 64 {
				c.cats[v]++
			}
			if len(c.exText) < 3 {
				c.exText = append(c.exText, v)
			}
		}
	}

	rep.Cols = make([]ColumnSummary, 0, ncol)
	var numCols []int
	for idx, c := range cols {
		s := ColumnSummary{Name: t.Columns[idx], NonNull: c.nonNil, Missing: c.miss}
		numCnt := len(c.nums)
		kind := "unknown"
		switch {
		case numCnt > 0 && numCnt >= c.dtCnt && numCnt >= c.txtCnt:
			kind = "numeric"
			describeNumeric(&s, c.nums, opt)
			numCols = append(numCols, idx)
		case c.dtCnt > 0 && c.dtCnt >= c.txtCnt:
			kind = "datetime"
		case len(c.cats) > 0:
			kind = "categorical"
			tops := make([]CategoryCount, 0, len(c.cats))
			for k, v := range c.cats {
				tops = append(tops, CategoryCount{Value: k, Count: v})
			}
			sort.Slice(tops, func(i, j int) bool {
				if tops[i].Count == tops[j].Count {
					return tops[i].Value < tops[j].Value
				}
				return tops[i].Count > tops[j].Count
			})
			if len(tops) > 8 {
				tops = tops[:8]
			}
			s.TopValues = tops
			s.Unique = len(c.cats)
		case c.txtCnt > 0:
			kind = "text"
			s.ExampleTexts = c.exText
		}
		s.Kind = kind
		rep.Cols = append(rep.Cols, s)
	}

	if opt.Correlations && len(numCols) >= 2 {
		// align numeric values by row so each pair uses rows where both are present
		byRow := make([]map[int]float64, len(numCols))
		for a, idx := range numCols {
			m := make(map[int]float64, len(cols[idx].nums))
			for k, r := range cols[idx].numRow {
				m[r] = cols[idx].nums[k]
			}
			byRow[a] = m
		}
		n := len(numCols)
		names := make([]string, n)
		mat := make([][]float64, n)
		for a := range mat {
			names[a] = t.Columns[numCols[a]]
			mat[a] = make([]float64, n)
			mat[a][a] = 1
		}
		for a := 0; a < n; a++ {
			for b := a + 1; b < n; b++ {
				var x, y []float64
				for _, r := range cols[numCols[a]].numRow {
					if yv, ok := byRow[b][r]; ok {
						x = append(x, byRow[a][r])
						y = append(y, yv)
					}
				}
				r := pearson(x, y)
				mat[a][b], mat[b][a] = r, r
			}
		}
		rep.Corr = &CorrMatrix{Columns: names, Values: mat}
	}
	if rep.Rows == 0 {
		rep.Warnings = append(rep.Warnings, "table has no rows")
	}
	return rep
}

func describeNumeric(s *ColumnSummary, vals []float64, opt Options) {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	s.Count = len(sorted)
	s.Min = sorted[0]
	s.Max = sorted[len(sorted)-1]
	s.Q25 = quantile(sorted, 0.25)
	s.Q50 = quantile(sorted, 0.5)
	s.Q75 = quantile(sorted, 0.75)
	if len(sorted) > 1 {
		s.Mean, s.Std = stat.MeanStdDev(sorted, nil)
	} else {
		s.Mean, s.Std = sorted[0], math.NaN()
	}
	if opt.Outliers && len(sorted) >= 8 {
		median, mad := medianMAD(sorted)
		thr := opt.OutlierThreshold
		if thr <= 0 {
			thr = 3.5
		}
		var cnt int
		maxAbsZ := 0.0
		if mad > 0 {
			for _, v := range sorted {
				az := math.Abs(0.6745 * (v - median) / mad)
				if az > thr {
					cnt++
				}
				if az > maxAbsZ {
					maxAbsZ = az
				}
			}
		}
		s.OutliersCount = cnt
		s.OutliersMaxAbsZ = maxAbsZ
		s.OutlierThreshold = thr
	}
}

func pearson(x, y []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	r := stat.Correlation(x, y, nil)
	if math.IsInf(r, 0) {
		return math.NaN()
	}
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}

func parseTimeMaybe(s string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339, "2006-01-02T15:04:05", "2006-01-02", "2006/01/02",
		"2006-01-02 15:04", "2006-01-02 15:04:05", "06.02.01",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseNumeric accepts plain numbers and numbers with ',' or ' ' thousands
// separators. Booleans are not numeric.
func parseNumeric(s string) (float64, bool) {
	raw := strings.ReplaceAll(strings.TrimSpace(s), "\u00a0", " ")
	if strings.ContainsAny(raw, ", ") {
		raw = strings.NewReplacer(",", "", " ", "").Replace(raw)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Markdown renders the report as plain-text sections.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	if r.Stage != "" {
		b.WriteString(fmt.Sprintf("Stage: %s\n", r.Stage))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", len(r.Cols)))

	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString("| ")
		for i, c := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n| ")
		for i := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i := range r.Cols {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := ""
				if i < len(row) {
					val = row[i]
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}

	b.WriteString("\n[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeName(c.Name), c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case "numeric":
			if c.OutlierThreshold > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold))
				if c.OutliersMaxAbsZ > 0 {
					b.WriteString(fmt.Sprintf(" (max |z|≈%.2f)", c.OutliersMaxAbsZ))
				}
			}
		case "categorical":
			if len(c.TopValues) > 0 {
				b.WriteString("; top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
				if c.Unique > len(c.TopValues) {
					b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
				}
			}
		case "text":
			if len(c.ExampleTexts) > 0 {
				b.WriteString("; e.g., ")
				for i, ex := range c.ExampleTexts {
					if i > 0 {
						b.WriteString(" | ")
					}
					b.WriteString(safeVal(ex))
				}
			}
		}
		b.WriteString("\n")
	}

	var numeric []ColumnSummary
	for _, c := range r.Cols {
		if c.Kind == "numeric" {
			numeric = append(numeric, c)
		}
	}
	if len(numeric) > 0 {
		b.WriteString("\n[DESCRIBE]\n")
		b.WriteString("| column | count | mean | std | min | 25% | 50% | 75% | max |\n")
		b.WriteString("| --- | --- | --- | --- | --- | --- | --- | --- | --- |\n")
		for _, c := range numeric {
			b.WriteString(fmt.Sprintf("| %s | %d | %s | %s | %s | %s | %s | %s | %s |\n",
				safeName(c.Name), c.Count, num(c.Mean), num(c.Std), num(c.Min), num(c.Q25), num(c.Q50), num(c.Q75), num(c.Max)))
		}
	}

	if r.Corr != nil && len(r.Corr.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		type pr struct {
			A, B string
			R    float64
		}
		var pairs []pr
		n := len(r.Corr.Columns)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				pairs = append(pairs, pr{A: r.Corr.Columns[i], B: r.Corr.Columns[j], R: r.Corr.Values[i][j]})
			}
		}
		sort.SliceStable(pairs, func(i, j int) bool {
			ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
			// undefined pairs sort last
			if math.IsNaN(ai) != math.IsNaN(aj) {
				return !math.IsNaN(ai)
			}
			if ai == aj || (math.IsNaN(ai) && math.IsNaN(aj)) {
				return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
			}
			return ai > aj
		})
		if len(pairs) > 10 {
			pairs = pairs[:10]
		}
		for _, p := range pairs {
			if math.IsNaN(p.R) {
				b.WriteString(fmt.Sprintf("- %s ~ %s: r=NaN (undefined)\n", p.A, p.B))
				continue
			}
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", p.A, p.B, p.R))
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func num(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	return fmt.Sprintf("%.4g", f)
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

// medianMAD computes median and MAD (median absolute deviation) of sorted values.
func medianMAD(sorted []float64) (median, mad float64) {
	if len(sorted) == 0 {
		return 0, 0
	}
	median = quantile(sorted, 0.5)
	dev := make([]float64, len(sorted))
	for i, v := range sorted {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}

// quantile interpolates linearly between closest ranks.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
