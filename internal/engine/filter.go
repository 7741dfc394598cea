package engine

import (
	"strings"

	"golang.org/x/text/cases"

	"salarydash/internal/models"
)

// View is a filtered subset of a Dataset: row indices in dataset order.
// Views are never mutated after Filter returns them.
type View struct {
	ds   *Dataset
	rows []int32
}

func (v *View) Dataset() *Dataset { return v.ds }

func (v *View) Len() int { return len(v.rows) }

func (v *View) Empty() bool { return len(v.rows) == 0 }

// Index returns the dataset row backing position i of the view.
func (v *View) Index(i int) int { return int(v.rows[i]) }

func (v *View) Record(i int) models.Record {
	return v.ds.Record(int(v.rows[i]))
}

func (v *View) Records() []models.Record {
	out := make([]models.Record, len(v.rows))
	for i, r := range v.rows {
		out[i] = v.ds.Record(int(r))
	}
	return out
}

// Page returns up to limit records starting at offset.
func (v *View) Page(offset, limit int) []models.Record {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(v.rows) || limit <= 0 {
		return []models.Record{}
	}
	end := offset + limit
	if end > len(v.rows) {
		end = len(v.rows)
	}
	out := make([]models.Record, 0, end-offset)
	for _, r := range v.rows[offset:end] {
		out = append(out, v.ds.Record(int(r)))
	}
	return out
}

// Filter keeps the rows whose year is in c.Years AND whose seniority is in
// c.Seniorities AND whose job title contains c.TitleQuery, ignoring case.
// An empty Years or Seniorities set matches nothing.
func Filter(ds *Dataset, c models.Criteria) *View {
	v := &View{ds: ds, rows: make([]int32, 0)}
	if len(c.Years) == 0 || len(c.Seniorities) == 0 {
		return v
	}

	years := make(map[int]struct{}, len(c.Years))
	for _, y := range c.Years {
		years[y] = struct{}{}
	}

	// Masks over the dictionaries so the row loop is index lookups only.
	senOK := make([]bool, len(ds.SeniorityDict))
	for _, want := range c.Seniorities {
		for id, s := range ds.SeniorityDict {
			if s == want {
				senOK[id] = true
			}
		}
	}

	titleOK := make([]bool, len(ds.TitleDict))
	if c.TitleQuery == "" {
		for i := range titleOK {
			titleOK[i] = true
		}
	} else {
		fold := cases.Fold()
		q := fold.String(c.TitleQuery)
		for id, t := range ds.TitleDict {
			titleOK[id] = strings.Contains(fold.String(t), q)
		}
	}

	for i := 0; i < ds.Len(); i++ {
		if _, ok := years[int(ds.Years[i])]; !ok {
			continue
		}
		if !senOK[ds.SeniorityIDs[i]] || !titleOK[ds.TitleIDs[i]] {
			continue
		}
		v.rows = append(v.rows, int32(i))
	}
	return v
}
