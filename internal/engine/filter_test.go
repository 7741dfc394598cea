package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salarydash/internal/models"
)

const filterCSV = `ano,senioridade,cargo,usd,residencia_iso3
2022,Junior,Data Analyst,40000,BRA
2023,Senior,Data Scientist,150000,USA
2023,Junior,Analyst,50000,BRA
2024,Pleno,Data Engineer,90000,BRA
2024,Expert,Machine Learning Engineer,210000,DEU
2024,Senior,DATA SCIENTIST,140000,USA
2023,Pleno,BI Analyst,60000,PRT
`

func mustParse(t *testing.T, csv string) *Dataset {
	t.Helper()
	ds, err := Parse([]byte(csv), "test.csv")
	require.NoError(t, err)
	return ds
}

func titles(v *View) []string {
	out := make([]string, 0, v.Len())
	for _, r := range v.Records() {
		out = append(out, r.JobTitle)
	}
	return out
}

func TestFilter(t *testing.T) {
	ds := mustParse(t, filterCSV)
	all := ds.Options()

	tests := []struct {
		name     string
		criteria models.Criteria
		want     []string
	}{
		{
			name:     "everything selected",
			criteria: models.Criteria{Years: all.Years, Seniorities: all.Seniorities},
			want: []string{"Data Analyst", "Data Scientist", "Analyst", "Data Engineer",
				"Machine Learning Engineer", "DATA SCIENTIST", "BI Analyst"},
		},
		{
			name:     "single year",
			criteria: models.Criteria{Years: []int{2023}, Seniorities: all.Seniorities},
			want:     []string{"Data Scientist", "Analyst", "BI Analyst"},
		},
		{
			name:     "years are OR-ed",
			criteria: models.Criteria{Years: []int{2022, 2024}, Seniorities: []string{"Junior", "Expert"}},
			want:     []string{"Data Analyst", "Machine Learning Engineer"},
		},
		{
			name:     "title query ignores case",
			criteria: models.Criteria{Years: all.Years, Seniorities: all.Seniorities, TitleQuery: "data scientist"},
			want:     []string{"Data Scientist", "DATA SCIENTIST"},
		},
		{
			name:     "title query is a substring",
			criteria: models.Criteria{Years: all.Years, Seniorities: all.Seniorities, TitleQuery: "ANALYST"},
			want:     []string{"Data Analyst", "Analyst", "BI Analyst"},
		},
		{
			name:     "title query is literal",
			criteria: models.Criteria{Years: all.Years, Seniorities: all.Seniorities, TitleQuery: "Data.*"},
			want:     []string{},
		},
		{
			name:     "all groups combined",
			criteria: models.Criteria{Years: []int{2023, 2024}, Seniorities: []string{"Senior"}, TitleQuery: "scien"},
			want:     []string{"Data Scientist", "DATA SCIENTIST"},
		},
		{
			name:     "unknown values match nothing",
			criteria: models.Criteria{Years: []int{1999}, Seniorities: []string{"Intern"}},
			want:     []string{},
		},
		{
			name:     "years outside the stored range do not wrap",
			criteria: models.Criteria{Years: []int{2023 + 1<<32, 2024 - 1<<32}, Seniorities: all.Seniorities},
			want:     []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Filter(ds, tt.criteria)
			assert.Equal(t, tt.want, titles(v))
		})
	}
}

func TestFilterEmptySetsMatchNothing(t *testing.T) {
	ds := mustParse(t, filterCSV)
	all := ds.Options()

	v := Filter(ds, models.Criteria{Years: []int{}, Seniorities: all.Seniorities})
	assert.True(t, v.Empty())

	v = Filter(ds, models.Criteria{Years: all.Years, Seniorities: nil})
	assert.True(t, v.Empty())

	v = Filter(ds, models.Criteria{Years: nil, Seniorities: nil, TitleQuery: "data"})
	assert.True(t, v.Empty())
}

func TestFilterRowsSatisfyCriteria(t *testing.T) {
	ds := mustParse(t, filterCSV)
	c := models.Criteria{Years: []int{2023, 2024}, Seniorities: []string{"Senior", "Pleno"}, TitleQuery: "a"}

	v := Filter(ds, c)
	require.False(t, v.Empty())

	kept := make(map[int]bool)
	for i := 0; i < v.Len(); i++ {
		kept[v.Index(i)] = true
		r := v.Record(i)
		assert.Contains(t, c.Years, r.Year)
		assert.Contains(t, c.Seniorities, r.Seniority)
		assert.Contains(t, strings.ToLower(r.JobTitle), "a")
	}
	// Every excluded row violates at least one criterion.
	for i := 0; i < ds.Len(); i++ {
		if kept[i] {
			continue
		}
		r := ds.Record(i)
		matches := (r.Year == 2023 || r.Year == 2024) &&
			(r.Seniority == "Senior" || r.Seniority == "Pleno") &&
			strings.Contains(strings.ToLower(r.JobTitle), "a")
		assert.False(t, matches, "row %d wrongly excluded", i)
	}
}

func TestFilterIsIdempotent(t *testing.T) {
	ds := mustParse(t, filterCSV)
	c := models.Criteria{Years: []int{2023, 2024}, Seniorities: []string{"Senior", "Junior"}}

	a := Filter(ds, c)
	b := Filter(ds, c)
	assert.Equal(t, a.Records(), b.Records())
	assert.NotSame(t, a, b)
}

func TestViewPage(t *testing.T) {
	ds := mustParse(t, filterCSV)
	v := Filter(ds, ds.AllCriteria())

	page := v.Page(5, 10)
	require.Len(t, page, 2)
	assert.Equal(t, "DATA SCIENTIST", page[0].JobTitle)

	assert.Empty(t, v.Page(100, 10))
	assert.Empty(t, v.Page(0, 0))
	assert.Len(t, v.Page(-3, 2), 2)
}

func TestOptions(t *testing.T) {
	ds := mustParse(t, filterCSV)
	opts := ds.Options()

	assert.Equal(t, []int{2022, 2023, 2024}, opts.Years)
	assert.Equal(t, []string{"Expert", "Junior", "Pleno", "Senior"}, opts.Seniorities)
	assert.Equal(t, 7, opts.Rows)
	assert.Equal(t, ds.Version, opts.Version)
}
