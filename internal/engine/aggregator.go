package engine

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"salarydash/internal/models"
)

// SeniorityOrder is the display order of the seniority categories.
var SeniorityOrder = []string{"Junior", "Pleno", "Senior", "Expert"}

const (
	DefaultTopN = 10
	DefaultBins = 20
)

func (v *View) salaries() []float64 {
	out := make([]float64, len(v.rows))
	for i, r := range v.rows {
		out[i] = v.ds.Salaries[r]
	}
	return out
}

// Summarize computes the headline metrics. ok is false when the view is
// empty: no statistic is defined then, and none is reported.
func Summarize(v *View) (s models.Summary, ok bool) {
	if v.Empty() {
		return models.Summary{}, false
	}
	ds := v.ds
	salaries := v.salaries()

	counts := make([]int, len(ds.TitleDict))
	maxCount := 0
	for _, r := range v.rows {
		tid := ds.TitleIDs[r]
		counts[tid]++
		if counts[tid] > maxCount {
			maxCount = counts[tid]
		}
	}
	// Ties go to the title seen first in view order.
	var mode string
	for _, r := range v.rows {
		if counts[ds.TitleIDs[r]] == maxCount {
			mode = ds.TitleDict[ds.TitleIDs[r]]
			break
		}
	}

	return models.Summary{
		MeanSalary:        stat.Mean(salaries, nil),
		MaxSalary:         floats.Max(salaries),
		Count:             v.Len(),
		MostFrequentTitle: mode,
	}, true
}

type groupAcc struct {
	id    int32
	sum   float64
	count int
}

// groupBy accumulates salaries per dictionary ID in first-encountered order.
func (v *View) groupBy(ids []int32, dictLen int) []*groupAcc {
	index := make([]*groupAcc, dictLen)
	order := make([]*groupAcc, 0)
	for _, r := range v.rows {
		id := ids[r]
		g := index[id]
		if g == nil {
			g = &groupAcc{id: id}
			index[id] = g
			order = append(order, g)
		}
		g.sum += v.ds.Salaries[r]
		g.count++
	}
	return order
}

// TopTitles returns the n job titles with the highest mean salary, ordered
// ascending by mean so a horizontal bar chart draws the largest on top.
// Equal means keep the order in which the titles were first encountered.
func TopTitles(v *View, n int) []models.TitleMean {
	out := make([]models.TitleMean, 0)
	if v.Empty() || n <= 0 {
		return out
	}
	for _, g := range v.groupBy(v.ds.TitleIDs, len(v.ds.TitleDict)) {
		out = append(out, models.TitleMean{
			JobTitle:   v.ds.TitleDict[g.id],
			MeanSalary: g.sum / float64(g.count),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MeanSalary > out[j].MeanSalary })
	if len(out) > n {
		out = out[:n]
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].MeanSalary < out[j].MeanSalary })
	return out
}

// CountryMeans returns the mean salary per residence country present in the
// view, in first-encountered order.
func CountryMeans(v *View) []models.CountryMean {
	out := make([]models.CountryMean, 0)
	for _, g := range v.groupBy(v.ds.CountryIDs, len(v.ds.CountryDict)) {
		out = append(out, models.CountryMean{
			ISO3:       v.ds.CountryDict[g.id],
			MeanSalary: g.sum / float64(g.count),
			Count:      g.count,
		})
	}
	return out
}

// SeniorityGroups returns every salary per seniority. Groups follow
// SeniorityOrder; categories outside it come after, in first-seen order.
// Categories with no rows are omitted.
func SeniorityGroups(v *View) []models.SeniorityGroup {
	ds := v.ds
	byID := make([][]float64, len(ds.SeniorityDict))
	seen := make([]int32, 0)
	for _, r := range v.rows {
		id := ds.SeniorityIDs[r]
		if byID[id] == nil {
			seen = append(seen, id)
		}
		byID[id] = append(byID[id], ds.Salaries[r])
	}

	out := make([]models.SeniorityGroup, 0, len(seen))
	placed := make([]bool, len(ds.SeniorityDict))
	for _, name := range SeniorityOrder {
		for id, s := range ds.SeniorityDict {
			if s == name && byID[id] != nil {
				out = append(out, models.SeniorityGroup{Seniority: s, Salaries: byID[id]})
				placed[id] = true
			}
		}
	}
	for _, id := range seen {
		if !placed[id] {
			out = append(out, models.SeniorityGroup{Seniority: ds.SeniorityDict[id], Salaries: byID[id]})
		}
	}
	return out
}

// SeniorityBoxes summarizes each seniority group as a box: quartiles, whisker
// ends at the most extreme values within 1.5 IQR, and the outliers beyond.
func SeniorityBoxes(v *View) []models.SeniorityBox {
	groups := SeniorityGroups(v)
	out := make([]models.SeniorityBox, 0, len(groups))
	for _, g := range groups {
		out = append(out, box(g))
	}
	return out
}

func box(g models.SeniorityGroup) models.SeniorityBox {
	sorted := make([]float64, len(g.Salaries))
	copy(sorted, g.Salaries)
	sort.Float64s(sorted)

	q1 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
	med := stat.Quantile(0.5, stat.Empirical, sorted, nil)
	q3 := stat.Quantile(0.75, stat.Empirical, sorted, nil)
	iqr := q3 - q1
	lo, hi := q1-1.5*iqr, q3+1.5*iqr

	b := models.SeniorityBox{
		Seniority: g.Seniority,
		Count:     len(sorted),
		Q1:        q1,
		Median:    med,
		Q3:        q3,
		Min:       math.Inf(1),
		Max:       math.Inf(-1),
		Outliers:  make([]float64, 0),
	}
	for _, x := range sorted {
		if x < lo || x > hi {
			b.Outliers = append(b.Outliers, x)
			continue
		}
		b.Min = math.Min(b.Min, x)
		b.Max = math.Max(b.Max, x)
	}
	return b
}

// Histogram splits the salary range of the view into bins equal-width bins.
func Histogram(v *View, bins int) []models.HistogramBin {
	out := make([]models.HistogramBin, 0)
	if v.Empty() || bins <= 0 {
		return out
	}
	sorted := v.salaries()
	sort.Float64s(sorted)
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		return append(out, models.HistogramBin{Lower: lo, Upper: hi, Count: len(sorted)})
	}

	dividers := make([]float64, bins+1)
	floats.Span(dividers, lo, hi)
	// The top edge is exclusive; nudge it so the maximum lands in the last bin.
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, dividers, sorted, nil)

	for i, c := range counts {
		upper := dividers[i+1]
		if i == bins-1 {
			upper = hi
		}
		out = append(out, models.HistogramBin{Lower: dividers[i], Upper: upper, Count: int(c)})
	}
	return out
}

// BuildOptions sizes the derived views.
type BuildOptions struct {
	TopN int
	Bins int
}

// Build derives every dashboard view from v in one call. An empty view yields
// Empty=true and no chart data.
func Build(v *View, opts BuildOptions) models.DashboardData {
	data := models.DashboardData{Count: v.Len()}
	summary, ok := Summarize(v)
	if !ok {
		data.Empty = true
		return data
	}
	if opts.TopN == 0 {
		opts.TopN = DefaultTopN
	}
	if opts.Bins == 0 {
		opts.Bins = DefaultBins
	}

	data.Summary = &summary
	data.TopTitles = TopTitles(v, opts.TopN)
	data.CountryMeans = CountryMeans(v)
	data.SeniorityGroups = SeniorityGroups(v)
	data.SeniorityBoxes = SeniorityBoxes(v)
	data.Histogram = Histogram(v, opts.Bins)
	return data
}
