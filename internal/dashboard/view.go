// Package dashboard holds the navigation shell: which section is shown, and a
// pure Render that turns the current snapshot and the request's selections
// into a View for the templates and the JSON API.
package dashboard

import (
	"encoding/base64"
	"fmt"
	"html/template"
	"time"

	"f1insights/internal/charts"
	"f1insights/internal/engine"
	"f1insights/internal/models"
	"f1insights/internal/refresh"
	"f1insights/internal/report"
)

// Query is the user's selection on the Data Analysis page. Nil bounds select
// the observed range.
type Query struct {
	Nationality string
	Min, Max    *float64
	ShowPodiums bool
}

// State is everything one render cycle reads.
type State struct {
	Section  Section
	Snapshot *refresh.Snapshot
	Failure  *refresh.Failure
	Query    Query
}

// SectionError reports a section that could not be rendered.
type SectionError struct {
	Section Section
	Err     error
}

func (e *SectionError) Error() string { return fmt.Sprintf("%s: %v", e.Section, e.Err) }

func (e *SectionError) Unwrap() error { return e.Err }

type MenuItem struct {
	models.Section
	Active bool
}

type HomeView struct {
	Title    string
	Subtitle string
	Intro    string
	ImageURL string
}

type AnalysisView struct {
	Nationalities []string
	Criteria      engine.Criteria
	Lo, Hi        int
	Result        *engine.ColumnStore
	Columns       []string
	Rows          [][]string
}

type SummaryView struct {
	Summary models.Summary
	Header  []string
	Rows    [][]string
}

type ChartView struct {
	Spec  charts.Spec
	Src   template.URL
	Error string
}

// View is the rendered page model.
type View struct {
	Section   Section
	Menu      []MenuItem
	Notice    string
	Error     *SectionError
	Version   uint64
	Checksum  string
	FetchedAt time.Time

	Home     *HomeView
	Analysis *AnalysisView
	Summary  *SummaryView
	Charts   []ChartView
}

var home = HomeView{
	Title:    "F1 Insights Application",
	Subtitle: "Welcome to the F1 Data Analysis App",
	Intro: "Explore the performance trends of F1 drivers, analyze race statistics, and uncover patterns. " +
		"Use the navigation menu to explore different sections of the app.",
	ImageURL: "https://upload.wikimedia.org/wikipedia/commons/thumb/3/33/F1.svg/1200px-F1.svg.png",
}

// Render builds the view of st. It has no side effects.
func Render(st State) View {
	v := View{Section: st.Section, Menu: menu(st.Section)}

	snap := st.Snapshot
	if snap != nil {
		v.Version = snap.Version
		v.Checksum = fmt.Sprintf("%x", snap.Table.Checksum)
		v.FetchedAt = snap.FetchedAt
	}
	switch {
	case st.Failure != nil && snap != nil:
		v.Notice = fmt.Sprintf("Showing data from %s; the last refresh failed: %v",
			snap.FetchedAt.Format(time.RFC3339), st.Failure.Err)
	case st.Failure != nil:
		v.Notice = fmt.Sprintf("Data source unavailable: %v", st.Failure.Err)
	case snap == nil && st.Section.NeedsData():
		v.Notice = "Loading data..."
	}

	if st.Section == Home {
		h := home
		v.Home = &h
		return v
	}
	if snap == nil {
		return v
	}

	var err error
	switch st.Section {
	case DataAnalysis:
		v.Analysis, err = Analyze(snap.Table, st.Query)
	case EDA:
		v.Summary = Summarize(snap.Table)
	case Visualizations:
		v.Charts = Gallery(snap.Table)
	}
	if err != nil {
		v.Error = &SectionError{Section: st.Section, Err: err}
	}
	return v
}

func menu(active Section) []MenuItem {
	items := make([]MenuItem, len(Sections))
	for i, s := range Sections {
		items[i] = MenuItem{Section: sectionInfo[s], Active: s == active}
	}
	return items
}

// Analyze runs the Data Analysis page: it derives the selector options from
// the unfiltered table, clamps the requested range to them and filters.
func Analyze(t *engine.ColumnStore, q Query) (*AnalysisView, error) {
	nats, err := engine.Nationalities(t)
	if err != nil {
		return nil, err
	}
	lo, hi, err := engine.EntryBounds(t)
	if err != nil {
		return nil, err
	}

	c := engine.Criteria{
		Nationality: q.Nationality,
		MinEntries:  float64(lo),
		MaxEntries:  float64(hi),
		ShowPodiums: q.ShowPodiums,
	}
	if c.Nationality == "" && len(nats) > 0 {
		c.Nationality = nats[0]
	}
	if q.Min != nil {
		c.MinEntries = *q.Min
	}
	if q.Max != nil {
		c.MaxEntries = *q.Max
	}
	c = c.Clamp(lo, hi)

	result, err := engine.Filter(t, c)
	if err != nil {
		return nil, err
	}

	av := &AnalysisView{
		Nationalities: nats,
		Criteria:      c,
		Lo:            lo,
		Hi:            hi,
		Result:        result,
		Columns:       result.Names(),
		Rows:          make([][]string, result.Rows),
	}
	for r := range av.Rows {
		av.Rows[r] = result.Row(r)
	}
	return av, nil
}

// Summarize runs the EDA page over the unfiltered table.
func Summarize(t *engine.ColumnStore) *SummaryView {
	s := engine.Describe(t)
	header, rows := report.Grid(s)
	return &SummaryView{Summary: s, Header: header, Rows: rows}
}

// Gallery renders the four charts as inline PNGs.
func Gallery(t *engine.ColumnStore) []ChartView {
	rendered := charts.RenderAll(t, charts.PNG)
	out := make([]ChartView, len(rendered))
	for i, r := range rendered {
		out[i] = ChartView{Spec: r.Spec}
		if r.Err != nil {
			out[i].Error = r.Err.Error()
			continue
		}
		out[i].Src = template.URL("data:" + r.Format.ContentType() + ";base64," + base64.StdEncoding.EncodeToString(r.Image))
	}
	return out
}
