// Package charts renders the fixed chart gallery of the Visualizations page
// with go-chart. Every chart reads the full, unfiltered table.
package charts

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/pkg/errors"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"f1insights/internal/engine"
)

type Kind string

const (
	Histogram Kind = "histogram"
	Bar       Kind = "bar"
	Scatter   Kind = "scatter"
)

// Spec is one entry of the gallery.
type Spec struct {
	ID    string
	Kind  Kind
	X     string
	Y     string
	Title string
}

// Gallery is the fixed list of charts, in grid order.
var Gallery = []Spec{
	{ID: "race-entries-histogram", Kind: Histogram, X: "Race_Entries", Title: "Race Entries Distribution"},
	{ID: "podiums-by-nationality", Kind: Bar, X: "Nationality", Y: "Podiums", Title: "Podiums by Nationality"},
	{ID: "entries-vs-podiums", Kind: Scatter, X: "Race_Entries", Y: "Podiums", Title: "Race Entries vs Podiums"},
	{ID: "entries-by-decade", Kind: Bar, X: "Decade", Y: "Race_Entries", Title: "Race Entries Over Time"},
}

var (
	ErrUnknownChart = errors.New("unknown chart")
	ErrNoData       = errors.New("no data to plot")
)

// Format selects the image encoding.
type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

// ParseFormat maps a query value to a Format; empty means PNG.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", PNG:
		return PNG, nil
	case SVG:
		return SVG, nil
	}
	return "", errors.Errorf("unsupported image format %q", s)
}

// ContentType returns the MIME type of the encoding.
func (f Format) ContentType() string {
	if f == SVG {
		return "image/svg+xml"
	}
	return "image/png"
}

func (f Format) provider() chart.RendererProvider {
	if f == SVG {
		return chart.SVG
	}
	return chart.PNG
}

const (
	width  = 640
	height = 400

	minBarWidth = 4
	maxBarWidth = 60
	barSpacing  = 4
	// room go-chart takes left of the bars for the y axis
	axisWidth = 80
)

var (
	f1Red   = drawing.ColorFromHex("e10600")
	padding = chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}
)

// Rendered is the outcome of one chart. Exactly one of Image and Err is set.
type Rendered struct {
	Spec   Spec
	Format Format
	Image  []byte
	Err    error
}

// Lookup finds a gallery entry by ID.
func Lookup(id string) (Spec, bool) {
	for _, s := range Gallery {
		if s.ID == id {
			return s, true
		}
	}
	return Spec{}, false
}

// RenderAll renders every gallery chart independently; a failing chart only
// sets its own Err.
func RenderAll(cs *engine.ColumnStore, f Format) []Rendered {
	out := make([]Rendered, len(Gallery))
	for i, spec := range Gallery {
		img, err := render(cs, spec, f)
		out[i] = Rendered{Spec: spec, Format: f, Image: img, Err: err}
	}
	return out
}

// Render renders the gallery chart called id.
func Render(cs *engine.ColumnStore, id string, f Format) ([]byte, error) {
	spec, ok := Lookup(id)
	if !ok {
		return nil, errors.Wrap(ErrUnknownChart, id)
	}
	return render(cs, spec, f)
}

func render(cs *engine.ColumnStore, spec Spec, f Format) (img []byte, err error) {
	// go-chart panics on some degenerate inputs.
	defer func() {
		if r := recover(); r != nil {
			img, err = nil, errors.Errorf("rendering %s: %v", spec.ID, r)
		}
	}()

	var r interface {
		Render(chart.RendererProvider, io.Writer) error
	}
	switch spec.Kind {
	case Histogram:
		r, err = histogram(cs, spec)
	case Bar:
		r, err = categoryBars(cs, spec)
	case Scatter:
		r, err = scatter(cs, spec)
	default:
		err = errors.Errorf("chart kind %q", spec.Kind)
	}
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := r.Render(f.provider(), &buf); err != nil {
		return nil, errors.Wrapf(err, "rendering %s", spec.ID)
	}
	return buf.Bytes(), nil
}

func numbers(cs *engine.ColumnStore, name string) ([]float64, error) {
	if err := cs.Require(engine.Requirement{Name: name, Kind: engine.Number}); err != nil {
		return nil, err
	}
	col, _ := cs.Column(name)
	return col.Numbers, nil
}

// barCanvasWidth grows the canvas past width when n bars of minBarWidth would
// not fit, so go-chart never squeezes bars down to nothing.
func barCanvasWidth(n int) int {
	return max(width, padding.Left+padding.Right+axisWidth+n*(minBarWidth+barSpacing))
}

func barChart(spec Spec, bars []chart.Value) *chart.BarChart {
	canvas := barCanvasWidth(len(bars))
	barWidth := (canvas-padding.Left-padding.Right-axisWidth)/len(bars) - barSpacing
	barWidth = max(minBarWidth, min(barWidth, maxBarWidth))
	top := 0.0
	for i := range bars {
		bars[i].Style = chart.Style{FillColor: f1Red, StrokeColor: f1Red}
		top = math.Max(top, bars[i].Value)
	}
	if top == 0 {
		top = 1
	}
	return &chart.BarChart{
		Title:      spec.Title,
		Width:      canvas,
		Height:     height,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		Background: chart.Style{Padding: padding},
		XAxis:      chart.Style{TextRotationDegrees: 45},
		YAxis:      chart.YAxis{Name: yLabel(spec), Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1}},
		Bars:       bars,
	}
}

func yLabel(spec Spec) string {
	if spec.Kind == Histogram {
		return "count"
	}
	return spec.Y
}

// histogram buckets the X column with Sturges' rule, rounded to a readable width.
func histogram(cs *engine.ColumnStore, spec Spec) (*chart.BarChart, error) {
	col, err := numbers(cs, spec.X)
	if err != nil {
		return nil, err
	}
	buckets := Buckets(col)
	if len(buckets) == 0 {
		return nil, ErrNoData
	}
	bars := make([]chart.Value, len(buckets))
	for i, b := range buckets {
		bars[i] = chart.Value{Label: b.Label(), Value: float64(b.Count)}
	}
	return barChart(spec, bars), nil
}

// categoryBars draws one bar per distinct X value in order of first
// appearance. Rows sharing a category are summed into a single bar.
func categoryBars(cs *engine.ColumnStore, spec Spec) (*chart.BarChart, error) {
	if err := cs.Require(engine.Requirement{Name: spec.X}); err != nil {
		return nil, err
	}
	ys, err := numbers(cs, spec.Y)
	if err != nil {
		return nil, err
	}
	xs, _ := cs.Column(spec.X)

	groups := GroupSum(xs, ys)
	if len(groups) == 0 {
		return nil, ErrNoData
	}
	bars := make([]chart.Value, len(groups))
	for i, g := range groups {
		bars[i] = chart.Value{Label: g.Label, Value: g.Sum}
	}
	return barChart(spec, bars), nil
}

func scatter(cs *engine.ColumnStore, spec Spec) (*chart.Chart, error) {
	xcol, err := numbers(cs, spec.X)
	if err != nil {
		return nil, err
	}
	ycol, err := numbers(cs, spec.Y)
	if err != nil {
		return nil, err
	}

	var xs, ys []float64
	for i := range xcol {
		if math.IsNaN(xcol[i]) || math.IsNaN(ycol[i]) {
			continue
		}
		xs = append(xs, xcol[i])
		ys = append(ys, ycol[i])
	}
	if len(xs) == 0 {
		return nil, ErrNoData
	}

	return &chart.Chart{
		Title:      spec.Title,
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: padding},
		XAxis:      chart.XAxis{Name: spec.X, Range: axisRange(xs)},
		YAxis:      chart.YAxis{Name: spec.Y, Range: axisRange(ys)},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    fmt.Sprintf("%s vs %s", spec.X, spec.Y),
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    4,
					DotColor:    f1Red,
				},
			},
		},
	}, nil
}

// axisRange pads a degenerate range so a single point still has an axis.
func axisRange(vs []float64) chart.Range {
	lo, hi := vs[0], vs[0]
	for _, v := range vs {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		lo, hi = lo-1, hi+1
	}
	return &chart.ContinuousRange{Min: lo, Max: hi}
}
