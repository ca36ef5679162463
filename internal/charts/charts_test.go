package charts

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	chart "github.com/wcharczuk/go-chart/v2"

	"f1insights/internal/engine"
)

const driversCSV = `Driver,Nationality,Race_Entries,Podiums,Decade
Lewis Hamilton,British,356,202,2020s
Michael Schumacher,German,308,155,2000s
Kimi Raikkonen,Finnish,353,103,2000s
Jim Clark,British,73,32,1960s
Sebastian Vettel,German,300,122,2010s
Juan Manuel Fangio,Argentine,52,35,1950s
`

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func load(t *testing.T, doc string) *engine.ColumnStore {
	t.Helper()
	store, err := engine.LoadCSV(strings.NewReader(doc))
	require.NoError(t, err)
	return store
}

func TestGalleryIsFixed(t *testing.T) {
	require.Len(t, Gallery, 4)
	ids := map[string]bool{}
	for _, s := range Gallery {
		assert.False(t, ids[s.ID], "duplicate id %s", s.ID)
		ids[s.ID] = true
		got, ok := Lookup(s.ID)
		assert.True(t, ok)
		assert.Equal(t, s, got)
	}
	_, ok := Lookup("pie")
	assert.False(t, ok)
}

func TestRenderAll(t *testing.T) {
	out := RenderAll(load(t, driversCSV), PNG)

	require.Len(t, out, len(Gallery))
	for i, r := range out {
		assert.Equal(t, Gallery[i], r.Spec)
		require.NoError(t, r.Err, r.Spec.ID)
		assert.True(t, bytes.HasPrefix(r.Image, pngMagic), r.Spec.ID)
	}
}

func TestRenderAllIsolatesFailures(t *testing.T) {
	// No Decade column: only the decade chart can fail.
	doc := "Nationality,Race_Entries,Podiums\nBritish,356,202\nGerman,308,155\nBritish,73,32\n"
	out := RenderAll(load(t, doc), PNG)

	for _, r := range out {
		if r.Spec.ID == "entries-by-decade" {
			var se *engine.SchemaError
			require.ErrorAs(t, r.Err, &se)
			assert.Equal(t, "Decade", se.Column)
			assert.Nil(t, r.Image)
			continue
		}
		assert.NoError(t, r.Err, r.Spec.ID)
		assert.NotEmpty(t, r.Image, r.Spec.ID)
	}
}

func TestRenderEmptyTable(t *testing.T) {
	out := RenderAll(load(t, "Nationality,Race_Entries,Podiums,Decade\n"), PNG)
	for _, r := range out {
		assert.ErrorIs(t, r.Err, ErrNoData, r.Spec.ID)
	}
}

func TestRenderOne(t *testing.T) {
	store := load(t, driversCSV)

	img, err := Render(store, "entries-vs-podiums", SVG)
	require.NoError(t, err)
	assert.Contains(t, string(img), "<svg")

	_, err = Render(store, "pie", PNG)
	assert.ErrorIs(t, err, ErrUnknownChart)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, PNG, f)
	assert.Equal(t, "image/png", f.ContentType())

	f, err = ParseFormat("svg")
	require.NoError(t, err)
	assert.Equal(t, "image/svg+xml", f.ContentType())

	_, err = ParseFormat("gif")
	assert.Error(t, err)
}

func TestBuckets(t *testing.T) {
	got := Buckets([]float64{356, 308, 353, 73, 300, 52})
	// 6 values -> 4 bins by Sturges, (356-52)/4 = 76 rounds to 100.
	assert.Equal(t, []Bucket{
		{Lo: 0, Hi: 100, Count: 2},
		{Lo: 100, Hi: 200, Count: 0},
		{Lo: 200, Hi: 300, Count: 0},
		{Lo: 300, Hi: 400, Count: 4},
	}, got)
	assert.Equal(t, "300-400", got[3].Label())

	total := 0
	for _, b := range Buckets([]float64{1, 2, 2, 3, 5, 8, 13, 21, 34}) {
		total += b.Count
	}
	assert.Equal(t, 9, total)

	assert.Nil(t, Buckets(nil))
	single := Buckets([]float64{7})
	require.Len(t, single, 1)
	assert.Equal(t, 1, single[0].Count)
}

func TestGroupSum(t *testing.T) {
	store := load(t, driversCSV)
	nat, _ := store.Column("Nationality")
	podiums, _ := store.Column("Podiums")

	assert.Equal(t, []Group{
		{Label: "British", Sum: 234},
		{Label: "German", Sum: 277},
		{Label: "Finnish", Sum: 103},
		{Label: "Argentine", Sum: 35},
	}, GroupSum(nat, podiums.Numbers))
}

func TestBarChartWidensForManyCategories(t *testing.T) {
	spec, _ := Lookup("podiums-by-nationality")

	few := barChart(spec, []chart.Value{{Label: "British", Value: 1}, {Label: "German", Value: 2}})
	assert.Equal(t, width, few.Width)
	assert.Equal(t, maxBarWidth, few.BarWidth)

	var b strings.Builder
	b.WriteString("Nationality,Race_Entries,Podiums,Decade\n")
	for i := 0; i < 300; i++ {
		fmt.Fprintf(&b, "N%03d,%d,%d,1950s\n", i, i+1, i%7)
	}
	store, err := engine.LoadCSV(strings.NewReader(b.String()))
	require.NoError(t, err)

	bc, err := categoryBars(store, spec)
	require.NoError(t, err)
	require.Len(t, bc.Bars, 300)
	assert.GreaterOrEqual(t, bc.BarWidth, minBarWidth)
	assert.LessOrEqual(t, padding.Left+padding.Right+axisWidth+300*(bc.BarWidth+barSpacing), bc.Width)

	img, err := Render(store, spec.ID, PNG)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, pngMagic))
}
