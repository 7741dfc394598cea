package models

// Record is one row of the salary dataset. Columns the pipeline does not read
// are carried in Extra, keyed by their header name.
type Record struct {
	Year          int               `json:"ano"`
	Seniority     string            `json:"senioridade"`
	JobTitle      string            `json:"cargo"`
	SalaryUSD     float64           `json:"usd"`
	ResidenceISO3 string            `json:"residencia_iso3"`
	Extra         map[string]string `json:"extra,omitempty"`
}

// Criteria is the user's current filter selection.
type Criteria struct {
	Years       []int    `json:"years"`
	Seniorities []string `json:"seniorities"`
	TitleQuery  string   `json:"title_query,omitempty"`
}

// Options are the distinct values offered by the multi-select controls.
type Options struct {
	Years       []int    `json:"years"`
	Seniorities []string `json:"seniorities"`
	Version     string   `json:"version"`
	Rows        int      `json:"rows"`
}

type Summary struct {
	MeanSalary        float64 `json:"mean_salary"`
	MaxSalary         float64 `json:"max_salary"`
	Count             int     `json:"count"`
	MostFrequentTitle string  `json:"most_frequent_title"`
}

type TitleMean struct {
	JobTitle   string  `json:"cargo"`
	MeanSalary float64 `json:"usd"`
}

type CountryMean struct {
	ISO3       string  `json:"residencia_iso3"`
	MeanSalary float64 `json:"usd"`
	Count      int     `json:"count"`
}

// SeniorityGroup holds every salary of one seniority, in view order.
type SeniorityGroup struct {
	Seniority string    `json:"senioridade"`
	Salaries  []float64 `json:"usd"`
}

type SeniorityBox struct {
	Seniority string    `json:"senioridade"`
	Count     int       `json:"count"`
	Min       float64   `json:"min"`
	Q1        float64   `json:"q1"`
	Median    float64   `json:"median"`
	Q3        float64   `json:"q3"`
	Max       float64   `json:"max"`
	Outliers  []float64 `json:"outliers"`
}

type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// DashboardData is everything one render pass needs. When Empty is set, no
// statistics were computed and every chart field is nil.
type DashboardData struct {
	Count           int              `json:"count"`
	Empty           bool             `json:"empty"`
	Summary         *Summary         `json:"summary,omitempty"`
	TopTitles       []TitleMean      `json:"top_titles,omitempty"`
	CountryMeans    []CountryMean    `json:"country_means,omitempty"`
	SeniorityGroups []SeniorityGroup `json:"seniority_groups,omitempty"`
	SeniorityBoxes  []SeniorityBox   `json:"seniority_boxes,omitempty"`
	Histogram       []HistogramBin   `json:"histogram,omitempty"`
}
