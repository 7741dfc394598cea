package api

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/zeebo/xxh3"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"salarydash/internal/engine"
	"salarydash/internal/exporter"
	"salarydash/internal/metrics"
	"salarydash/internal/models"
)

// NoDataMessage accompanies every empty result.
const NoDataMessage = "no data found for the selected filters"

const (
	contentTypeXLSX  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeArrow = "application/vnd.apache.arrow.stream"

	headerETag        = "ETag"
	headerIfNoneMatch = "If-None-Match"
)

type Handler struct {
	cache   *engine.Cache
	metrics *metrics.Metrics
	opts    engine.BuildOptions
	logger  *slog.Logger
}

func NewHandler(cache *engine.Cache, m *metrics.Metrics, opts engine.BuildOptions, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TopN <= 0 {
		opts.TopN = engine.DefaultTopN
	}
	if opts.Bins <= 0 {
		opts.Bins = engine.DefaultBins
	}
	return &Handler{
		cache:   cache,
		metrics: m,
		opts:    opts,
		logger:  logger.With(slog.String("component", "api")),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/health", h.GetHealth)
	api.GET("/options", h.GetOptions)
	api.GET("/dashboard", h.GetDashboard)
	api.GET("/summary", h.GetSummary)
	api.GET("/titles/top", h.GetTopTitles)
	api.GET("/countries", h.GetCountryMeans)
	api.GET("/seniority", h.GetSeniority)
	api.GET("/histogram", h.GetHistogram)
	api.GET("/records", h.GetRecords)
	api.GET("/records/export.xlsx", h.ExportXLSX)
	api.GET("/records/export.arrow", h.ExportArrow)
	api.POST("/cache/invalidate", h.InvalidateCache)
}

// --- RESPONSES ---

// SummaryLabels are the headline metrics formatted for display.
type SummaryLabels struct {
	MeanSalary string `json:"mean_salary"`
	MaxSalary  string `json:"max_salary"`
	Count      string `json:"count"`
}

type SummaryResponse struct {
	Empty   bool            `json:"empty"`
	Message string          `json:"message,omitempty"`
	Summary *models.Summary `json:"summary,omitempty"`
	Labels  *SummaryLabels  `json:"labels,omitempty"`
}

type DashboardResponse struct {
	models.DashboardData
	Criteria models.Criteria `json:"criteria"`
	Version  string          `json:"version"`
	Message  string          `json:"message,omitempty"`
	Labels   *SummaryLabels  `json:"labels,omitempty"`
}

type SeniorityResponse struct {
	Groups []models.SeniorityGroup `json:"groups"`
	Boxes  []models.SeniorityBox   `json:"boxes"`
}

type HealthResponse struct {
	Status   string     `json:"status"`
	Ready    bool       `json:"ready"`
	Source   string     `json:"source"`
	Version  string     `json:"version,omitempty"`
	Rows     int        `json:"rows"`
	LoadedAt *time.Time `json:"loaded_at,omitempty"`
}

func labels(s models.Summary) *SummaryLabels {
	p := message.NewPrinter(language.English)
	return &SummaryLabels{
		MeanSalary: p.Sprintf("$%.0f", s.MeanSalary),
		MaxSalary:  p.Sprintf("$%.0f", s.MaxSalary),
		Count:      p.Sprintf("%d", s.Count),
	}
}

// --- HANDLERS ---

type topParams struct {
	N int `query:"n" validate:"min=1,max=100"`
}

type histogramParams struct {
	Bins int `query:"bins" validate:"min=1,max=200"`
}

type pageParams struct {
	Limit  int `query:"limit" validate:"min=0,max=10000"`
	Offset int `query:"offset" validate:"min=0"`
}

// view loads the dataset, filters it by the request's criteria and sets the
// ETag. notModified is true when the client already holds this response.
func (h *Handler) view(c echo.Context, route string) (*engine.View, models.Criteria, bool, error) {
	ds, err := h.cache.GetOrLoad(c.Request().Context())
	if err != nil {
		return nil, models.Criteria{}, false, err
	}
	criteria, err := ParseCriteria(c.QueryParams(), ds)
	if err != nil {
		return nil, models.Criteria{}, false, invalidParameter(err)
	}

	etag := `"` + ds.Version + "-" + strconv.FormatUint(xxh3.HashString(c.Request().URL.Path+"?"+c.QueryParams().Encode()), 16) + `"`
	c.Response().Header().Set(headerETag, etag)
	if c.Request().Header.Get(headerIfNoneMatch) == etag {
		return nil, criteria, true, nil
	}

	v := engine.Filter(ds, criteria)
	h.metrics.ObservePipeline(route, v.Len())
	return v, criteria, false, nil
}

func (h *Handler) bindQuery(c echo.Context, dst interface{}) error {
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, dst); err != nil {
		return err
	}
	return c.Validate(dst)
}

func (h *Handler) GetHealth(c echo.Context) error {
	resp := HealthResponse{Status: "ok", Source: h.cache.Source().ID()}
	if ds := h.cache.Current(); ds != nil {
		resp.Ready = true
		resp.Version = ds.Version
		resp.Rows = ds.Len()
		loadedAt := ds.LoadedAt
		resp.LoadedAt = &loadedAt
	}
	return c.JSON(http.StatusOK, resp)
}

// default selections for the filter controls
func (h *Handler) GetOptions(c echo.Context) error {
	ds, err := h.cache.GetOrLoad(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ds.Options())
}

func (h *Handler) GetDashboard(c echo.Context) error {
	v, criteria, notModified, err := h.view(c, "dashboard")
	if err != nil {
		return err
	}
	if notModified {
		return c.NoContent(http.StatusNotModified)
	}

	resp := DashboardResponse{
		DashboardData: engine.Build(v, h.opts),
		Criteria:      criteria,
		Version:       v.Dataset().Version,
	}
	if resp.Empty {
		resp.Message = NoDataMessage
	} else {
		resp.Labels = labels(*resp.Summary)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetSummary(c echo.Context) error {
	v, _, notModified, err := h.view(c, "summary")
	if err != nil {
		return err
	}
	if notModified {
		return c.NoContent(http.StatusNotModified)
	}

	s, ok := engine.Summarize(v)
	if !ok {
		return c.JSON(http.StatusOK, SummaryResponse{Empty: true, Message: NoDataMessage})
	}
	return c.JSON(http.StatusOK, SummaryResponse{Summary: &s, Labels: labels(s)})
}

// returns the n best paid titles, ascending
func (h *Handler) GetTopTitles(c echo.Context) error {
	p := topParams{N: h.opts.TopN}
	if err := h.bindQuery(c, &p); err != nil {
		return err
	}
	v, _, notModified, err := h.view(c, "titles_top")
	if err != nil {
		return err
	}
	if notModified {
		return c.NoContent(http.StatusNotModified)
	}
	return c.JSON(http.StatusOK, engine.TopTitles(v, p.N))
}

func (h *Handler) GetCountryMeans(c echo.Context) error {
	v, _, notModified, err := h.view(c, "countries")
	if err != nil {
		return err
	}
	if notModified {
		return c.NoContent(http.StatusNotModified)
	}
	return c.JSON(http.StatusOK, engine.CountryMeans(v))
}

func (h *Handler) GetSeniority(c echo.Context) error {
	v, _, notModified, err := h.view(c, "seniority")
	if err != nil {
		return err
	}
	if notModified {
		return c.NoContent(http.StatusNotModified)
	}
	return c.JSON(http.StatusOK, SeniorityResponse{
		Groups: engine.SeniorityGroups(v),
		Boxes:  engine.SeniorityBoxes(v),
	})
}

func (h *Handler) GetHistogram(c echo.Context) error {
	p := histogramParams{Bins: h.opts.Bins}
	if err := h.bindQuery(c, &p); err != nil {
		return err
	}
	v, _, notModified, err := h.view(c, "histogram")
	if err != nil {
		return err
	}
	if notModified {
		return c.NoContent(http.StatusNotModified)
	}
	return c.JSON(http.StatusOK, engine.Histogram(v, p.Bins))
}

// GetRecords returns the filtered table a page at a time.
func (h *Handler) GetRecords(c echo.Context) error {
	p := pageParams{Limit: 100}
	if err := h.bindQuery(c, &p); err != nil {
		return err
	}
	v, _, notModified, err := h.view(c, "records")
	if err != nil {
		return err
	}
	if notModified {
		return c.NoContent(http.StatusNotModified)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":   v.Page(p.Offset, p.Limit),
		"total":  v.Len(),
		"limit":  p.Limit,
		"offset": p.Offset,
	})
}

func (h *Handler) ExportXLSX(c echo.Context) error {
	v, _, notModified, err := h.view(c, "export_xlsx")
	if err != nil {
		return err
	}
	if notModified {
		return c.NoContent(http.StatusNotModified)
	}
	var buf bytes.Buffer
	if err := exporter.WriteXLSX(&buf, v); err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="salarios.xlsx"`)
	return c.Blob(http.StatusOK, contentTypeXLSX, buf.Bytes())
}

func (h *Handler) ExportArrow(c echo.Context) error {
	v, _, notModified, err := h.view(c, "export_arrow")
	if err != nil {
		return err
	}
	if notModified {
		return c.NoContent(http.StatusNotModified)
	}
	var buf bytes.Buffer
	if err := exporter.WriteArrow(&buf, v); err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="salarios.arrow"`)
	return c.Blob(http.StatusOK, contentTypeArrow, buf.Bytes())
}

// InvalidateCache drops the memoized dataset and loads it again.
func (h *Handler) InvalidateCache(c echo.Context) error {
	h.cache.Invalidate()
	ds, err := h.cache.GetOrLoad(c.Request().Context())
	if err != nil {
		return err
	}
	h.logger.InfoContext(c.Request().Context(), "cache invalidated via api", slog.String("version", ds.Version))
	return c.JSON(http.StatusOK, map[string]interface{}{
		"reloaded": true,
		"version":  ds.Version,
		"rows":     ds.Len(),
	})
}
