package engine

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	gbytes "github.com/labstack/gommon/bytes"
	"github.com/zeebo/xxh3"
)

// DefaultMaxBytes bounds a single source read.
const DefaultMaxBytes = 256 << 20

// Loader reads a Source into a Dataset.
type Loader struct {
	MaxBytes int64
	Logger   *slog.Logger
}

func NewLoader(maxBytes int64, logger *slog.Logger) *Loader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{MaxBytes: maxBytes, Logger: logger.With(slog.String("component", "loader"))}
}

// Load performs one read of src and parses it. Every failure is returned as a
// *DataUnavailableError.
func (l *Loader) Load(ctx context.Context, src Source) (*Dataset, error) {
	start := time.Now()
	l.Logger.InfoContext(ctx, "loading dataset", slog.String("source", src.ID()))

	rc, err := src.Open(ctx)
	if err != nil {
		return nil, unavailable(src.ID(), err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(io.LimitReader(rc, l.MaxBytes+1))
	if err != nil {
		return nil, unavailable(src.ID(), errors.Wrap(err, "read"))
	}
	if int64(len(raw)) > l.MaxBytes {
		return nil, unavailable(src.ID(), errors.Newf("source exceeds %s", gbytes.Format(l.MaxBytes)))
	}

	ds, err := Parse(raw, src.ID())
	if err != nil {
		return nil, err
	}

	l.Logger.InfoContext(ctx, "dataset loaded",
		slog.String("source", src.ID()),
		slog.Int("rows", ds.Len()),
		slog.String("size", gbytes.Format(int64(len(raw)))),
		slog.String("version", ds.Version),
		slog.Duration("duration", time.Since(start)))
	return ds, nil
}

// Parse validates raw CSV bytes and builds the column store. Only the required
// columns are interpreted; the rest are kept verbatim.
func Parse(raw []byte, source string) (*Dataset, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, unavailable(source, errors.New("empty input"))
	}

	df := dataframe.ReadCSV(bytes.NewReader(raw),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return nil, unavailable(source, errors.Wrap(df.Err, "parse csv"))
	}

	header := df.Names()
	present := make(map[string]bool, len(header))
	for _, name := range header {
		present[name] = true
	}
	var missing []string
	for _, name := range RequiredColumns {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, unavailable(source, errors.Newf("missing required columns: %s", strings.Join(missing, ", ")))
	}

	years := df.Col(ColYear).Records()
	seniorities := df.Col(ColSeniority).Records()
	titles := df.Col(ColTitle).Records()
	salaries := df.Col(ColSalary).Records()
	countries := df.Col(ColCountry).Records()

	n := df.Nrow()
	ds := &Dataset{
		Years:        make([]int32, n),
		Salaries:     make([]float64, n),
		SeniorityIDs: make([]int32, n),
		TitleIDs:     make([]int32, n),
		CountryIDs:   make([]int32, n),
		Header:       header,
		Source:       source,
		Version:      strconv.FormatUint(xxh3.Hash(raw), 16),
		LoadedAt:     time.Now(),
	}

	senDict := newDictionary()
	titleDict := newDictionary()
	ctryDict := newDictionary()

	for i := 0; i < n; i++ {
		row := i + 1
		y, err := parseYear(years[i])
		if err != nil {
			return nil, unavailable(source, errors.Wrapf(err, "row %d: column %s", row, ColYear))
		}
		usd, err := parseSalary(salaries[i])
		if err != nil {
			return nil, unavailable(source, errors.Wrapf(err, "row %d: column %s", row, ColSalary))
		}
		sen := strings.TrimSpace(seniorities[i])
		if sen == "" {
			return nil, unavailable(source, errors.Newf("row %d: column %s is empty", row, ColSeniority))
		}
		ctry := strings.TrimSpace(countries[i])
		if ctry == "" {
			return nil, unavailable(source, errors.Newf("row %d: column %s is empty", row, ColCountry))
		}

		ds.Years[i] = y
		ds.Salaries[i] = usd
		ds.SeniorityIDs[i] = senDict.id(sen)
		ds.TitleIDs[i] = titleDict.id(titles[i])
		ds.CountryIDs[i] = ctryDict.id(ctry)
	}

	ds.SeniorityDict = senDict.list
	ds.TitleDict = titleDict.list
	ds.CountryDict = ctryDict.list

	for _, name := range header {
		if isRequired(name) {
			continue
		}
		ds.Extra = append(ds.Extra, Column{Name: name, Values: df.Col(name).Records()})
	}

	return ds, nil
}

// dictionary assigns dense IDs in first-seen order.
type dictionary struct {
	ids  map[string]int32
	list []string
}

func newDictionary() *dictionary {
	return &dictionary{ids: make(map[string]int32)}
}

func (d *dictionary) id(s string) int32 {
	if id, ok := d.ids[s]; ok {
		return id
	}
	id := int32(len(d.list))
	d.list = append(d.list, s)
	d.ids[s] = id
	return id
}

func isRequired(name string) bool {
	for _, r := range RequiredColumns {
		if r == name {
			return true
		}
	}
	return false
}

// parseYear accepts "2023" and integral floats such as "2023.0".
func parseYear(s string) (int32, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 32); err == nil {
		return int32(n), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.Trunc(f) != f || math.Abs(f) > math.MaxInt32 {
		return 0, errors.Newf("invalid year %q", s)
	}
	return int32(f), nil
}

func parseSalary(s string) (float64, error) {
	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.Newf("invalid salary %q", s)
	}
	if f < 0 {
		return 0, errors.Newf("negative salary %q", s)
	}
	return f, nil
}

func formatInt(n int) string {
	return strconv.Itoa(n)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
