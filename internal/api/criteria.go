package api

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"salarydash/internal/engine"
	"salarydash/internal/models"
)

// Query parameters carrying the filter selection.
const (
	ParamYear      = "year"
	ParamSeniority = "seniority"
	ParamQuery     = "q"
)

// ParseCriteria reads the filter selection from the query string. A
// multi-select parameter that is absent means the default selection (every
// distinct value in ds); one that is present but empty, as in "year=", is
// the empty set and matches nothing. Years may repeat or be comma separated.
// Seniorities are categories taken from the data and may contain commas, so
// each one is its own repeated parameter.
func ParseCriteria(q url.Values, ds *engine.Dataset) (models.Criteria, error) {
	opts := ds.Options()
	c := models.Criteria{
		Years:       opts.Years,
		Seniorities: opts.Seniorities,
		TitleQuery:  q.Get(ParamQuery),
	}

	if raw, ok := q[ParamYear]; ok {
		years := make([]int, 0)
		for _, s := range splitValues(raw) {
			y, err := strconv.Atoi(s)
			if err != nil {
				return models.Criteria{}, errors.Newf("invalid year %q", s)
			}
			years = append(years, y)
		}
		c.Years = years
	}
	if raw, ok := q[ParamSeniority]; ok {
		c.Seniorities = nonEmpty(raw)
	}
	return c, nil
}

func nonEmpty(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func splitValues(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
