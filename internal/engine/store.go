package engine

import (
	"sort"
	"time"

	"salarydash/internal/models"
)

// Required CSV columns.
const (
	ColYear      = "ano"
	ColSeniority = "senioridade"
	ColTitle     = "cargo"
	ColSalary    = "usd"
	ColCountry   = "residencia_iso3"
)

// RequiredColumns lists the columns the pipeline reads, in export order.
var RequiredColumns = []string{ColYear, ColSeniority, ColTitle, ColSalary, ColCountry}

// Column is a pass-through column the pipeline never interprets.
type Column struct {
	Name   string
	Values []string
}

// Dataset holds the salary table in Struct-of-Arrays format. It is built once
// by the loader and must not be mutated afterwards.
type Dataset struct {
	// Data Columns (Flat Arrays)
	Years    []int32
	Salaries []float64

	// Dictionary Encoded IDs (0..N)
	SeniorityIDs []int32
	TitleIDs     []int32
	CountryIDs   []int32

	// Dictionaries (ID -> String), first-seen order
	SeniorityDict []string
	TitleDict     []string
	CountryDict   []string

	Extra  []Column
	Header []string

	Source   string
	Version  string
	LoadedAt time.Time
}

func (ds *Dataset) Len() int {
	return len(ds.Years)
}

// Record materializes row i.
func (ds *Dataset) Record(i int) models.Record {
	r := models.Record{
		Year:          int(ds.Years[i]),
		Seniority:     ds.SeniorityDict[ds.SeniorityIDs[i]],
		JobTitle:      ds.TitleDict[ds.TitleIDs[i]],
		SalaryUSD:     ds.Salaries[i],
		ResidenceISO3: ds.CountryDict[ds.CountryIDs[i]],
	}
	if len(ds.Extra) > 0 {
		r.Extra = make(map[string]string, len(ds.Extra))
		for _, col := range ds.Extra {
			r.Extra[col.Name] = col.Values[i]
		}
	}
	return r
}

// Cell returns the raw string form of column name at row i, in the same shape
// the value had in the source.
func (ds *Dataset) Cell(i int, name string) string {
	switch name {
	case ColYear:
		return formatInt(int(ds.Years[i]))
	case ColSeniority:
		return ds.SeniorityDict[ds.SeniorityIDs[i]]
	case ColTitle:
		return ds.TitleDict[ds.TitleIDs[i]]
	case ColSalary:
		return formatFloat(ds.Salaries[i])
	case ColCountry:
		return ds.CountryDict[ds.CountryIDs[i]]
	}
	for _, col := range ds.Extra {
		if col.Name == name {
			return col.Values[i]
		}
	}
	return ""
}

// Options returns the distinct years (ascending) and seniorities (sorted),
// which are the default selections of the filter controls.
func (ds *Dataset) Options() models.Options {
	seen := make(map[int32]struct{})
	years := make([]int, 0)
	for _, y := range ds.Years {
		if _, ok := seen[y]; ok {
			continue
		}
		seen[y] = struct{}{}
		years = append(years, int(y))
	}
	sort.Ints(years)

	seniorities := make([]string, len(ds.SeniorityDict))
	copy(seniorities, ds.SeniorityDict)
	sort.Strings(seniorities)

	return models.Options{
		Years:       years,
		Seniorities: seniorities,
		Version:     ds.Version,
		Rows:        ds.Len(),
	}
}

// AllCriteria selects every row: all years, all seniorities, no text filter.
func (ds *Dataset) AllCriteria() models.Criteria {
	opts := ds.Options()
	return models.Criteria{Years: opts.Years, Seniorities: opts.Seniorities}
}
