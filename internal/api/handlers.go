package api

import (
	"bytes"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/zeebo/xxh3"

	"f1insights/internal/charts"
	"f1insights/internal/dashboard"
	"f1insights/internal/engine"
	"f1insights/internal/export"
	"f1insights/internal/models"
	"f1insights/internal/refresh"
)

// Snapshots is the read side of the refresh scheduler.
type Snapshots interface {
	Snapshot() *refresh.Snapshot
	LastFailure() *refresh.Failure
	Interval() time.Duration
}

type Handler struct {
	data Snapshots
}

func NewHandler(data Snapshots) *Handler {
	return &Handler{data: data}
}

// RegisterRoutes mounts the pages, the chart images and the JSON API. apiMW
// only wraps the /api group.
func (h *Handler) RegisterRoutes(e *echo.Echo, apiMW ...echo.MiddlewareFunc) {
	e.GET("/", h.GetPage)
	e.GET("/section/:section", h.GetPage)
	e.GET("/charts/:id", h.GetChart)

	api := e.Group("/api", apiMW...)
	api.GET("/status", h.GetStatus)
	api.GET("/sections", h.GetSections)
	api.GET("/data", h.GetData)
	api.GET("/data.arrow", h.GetDataArrow)
	api.GET("/summary", h.GetSummary)
	api.GET("/charts", h.GetCharts)
}

// --- HELPERS ---
func getPaginationParams(c echo.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// parseQuery reads the Data Analysis selections.
func parseQuery(c echo.Context) (dashboard.Query, error) {
	q := dashboard.Query{Nationality: c.QueryParam("nationality")}
	for name, dst := range map[string]**float64{"min": &q.Min, "max": &q.Max} {
		raw := c.QueryParam(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) {
			return q, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid %s %q", name, raw))
		}
		*dst = &v
	}
	if raw := c.QueryParam("podiums"); raw != "" {
		show, err := strconv.ParseBool(raw)
		if err != nil {
			return q, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid podiums %q", raw))
		}
		q.ShowPodiums = show
	}
	return q, nil
}

// snapshot returns the installed snapshot or a 503 while the first load is running.
func (h *Handler) snapshot() (*refresh.Snapshot, error) {
	snap := h.data.Snapshot()
	if snap == nil {
		return nil, echo.NewHTTPError(http.StatusServiceUnavailable, "data is loading")
	}
	return snap, nil
}

// dataError maps view errors onto HTTP statuses. Unprocessable data is
// reported against the section that needed it.
func dataError(section dashboard.Section, err error) error {
	var se *engine.SchemaError
	switch {
	case errors.As(err, &se), errors.Is(err, charts.ErrNoData):
		msg := (&dashboard.SectionError{Section: section, Err: err}).Error()
		return echo.NewHTTPError(http.StatusUnprocessableEntity, msg).SetInternal(err)
	case errors.Is(err, charts.ErrUnknownChart):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return err
}

// notModified sets the ETag of a response derived from snap and the request
// query, and reports whether the client already holds it.
func notModified(c echo.Context, snap *refresh.Snapshot) bool {
	etag := fmt.Sprintf(`"%x-%x"`, snap.Table.Checksum, xxh3.HashString(c.Request().URL.RawQuery))
	c.Response().Header().Set("ETag", etag)
	return c.Request().Header.Get("If-None-Match") == etag
}

// --- PAGES ---
func (h *Handler) GetPage(c echo.Context) error {
	section, err := dashboard.ParseSection(c.Param("section"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	q, err := parseQuery(c)
	if err != nil {
		return err
	}

	view := dashboard.Render(dashboard.State{
		Section:  section,
		Snapshot: h.data.Snapshot(),
		Failure:  h.data.LastFailure(),
		Query:    q,
	})
	return c.Render(http.StatusOK, "page.html", Page{View: view, RefreshMillis: h.data.Interval().Milliseconds()})
}

func (h *Handler) GetChart(c echo.Context) error {
	snap, err := h.snapshot()
	if err != nil {
		return err
	}
	format, err := charts.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if notModified(c, snap) {
		return c.NoContent(http.StatusNotModified)
	}

	img, err := charts.Render(snap.Table, c.Param("id"), format)
	if err != nil {
		return dataError(dashboard.Visualizations, err)
	}
	return c.Blob(http.StatusOK, format.ContentType(), img)
}

// --- API ---
func (h *Handler) GetStatus(c echo.Context) error {
	st := models.Status{}
	if snap := h.data.Snapshot(); snap != nil {
		st.Ready = true
		st.Version = snap.Version
		st.Checksum = fmt.Sprintf("%x", snap.Table.Checksum)
		st.FetchID = snap.FetchID.String()
		st.FetchedAt = snap.FetchedAt
		st.Rows = snap.Table.Rows
		st.Columns = snap.Table.Names()
	}
	if f := h.data.LastFailure(); f != nil {
		st.LastFailure = &models.Failure{At: f.At, FetchID: f.FetchID.String(), Error: f.Err.Error()}
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) GetSections(c echo.Context) error {
	return c.JSON(http.StatusOK, dashboard.Menu())
}

// GetData returns the filtered rows of the Data Analysis page, paginated.
func (h *Handler) GetData(c echo.Context) error {
	snap, err := h.snapshot()
	if err != nil {
		return err
	}
	q, err := parseQuery(c)
	if err != nil {
		return err
	}
	if notModified(c, snap) {
		return c.NoContent(http.StatusNotModified)
	}
	av, err := dashboard.Analyze(snap.Table, q)
	if err != nil {
		return dataError(dashboard.DataAnalysis, err)
	}

	result := av.Result
	total := result.Rows
	limit, offset := getPaginationParams(c, total)
	page := models.DataPage{Columns: result.Names(), Rows: []map[string]any{}, Total: total, Limit: limit, Offset: offset}
	if offset >= total {
		return c.JSON(http.StatusOK, page)
	}

	end := total
	if limit < total-offset {
		end = offset + limit
	}
	for r := offset; r < end; r++ {
		page.Rows = append(page.Rows, record(result, r))
	}
	return c.JSON(http.StatusOK, page)
}

// record renders one row as a JSON object; missing numbers become null.
func record(cs *engine.ColumnStore, row int) map[string]any {
	out := make(map[string]any, len(cs.Columns))
	for _, col := range cs.Columns {
		if col.Kind == engine.Text {
			out[col.Name] = col.String(row)
			continue
		}
		if v, ok := col.Float(row); ok {
			out[col.Name] = v
		} else {
			out[col.Name] = nil
		}
	}
	return out
}

// GetDataArrow streams the filtered rows as Arrow IPC.
func (h *Handler) GetDataArrow(c echo.Context) error {
	snap, err := h.snapshot()
	if err != nil {
		return err
	}
	q, err := parseQuery(c)
	if err != nil {
		return err
	}
	av, err := dashboard.Analyze(snap.Table, q)
	if err != nil {
		return dataError(dashboard.DataAnalysis, err)
	}

	var buf bytes.Buffer
	if err := export.WriteArrow(&buf, av.Result); err != nil {
		return err
	}
	return c.Blob(http.StatusOK, export.ContentType, buf.Bytes())
}

func (h *Handler) GetSummary(c echo.Context) error {
	snap, err := h.snapshot()
	if err != nil {
		return err
	}
	if notModified(c, snap) {
		return c.NoContent(http.StatusNotModified)
	}
	return c.JSON(http.StatusOK, engine.Describe(snap.Table))
}

// GetCharts lists the gallery with the render status of every chart.
func (h *Handler) GetCharts(c echo.Context) error {
	snap, err := h.snapshot()
	if err != nil {
		return err
	}
	rendered := charts.RenderAll(snap.Table, charts.PNG)
	out := make([]models.ChartInfo, len(rendered))
	for i, r := range rendered {
		out[i] = models.ChartInfo{
			ID:    r.Spec.ID,
			Kind:  string(r.Spec.Kind),
			X:     r.Spec.X,
			Y:     r.Spec.Y,
			Title: r.Spec.Title,
			URL:   "/charts/" + r.Spec.ID,
		}
		if r.Err != nil {
			out[i].Error = r.Err.Error()
		}
	}
	return c.JSON(http.StatusOK, out)
}
