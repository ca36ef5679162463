package charts

import (
	"math"
	"strconv"

	"f1insights/internal/engine"
)

// Bucket is one histogram bin covering [Lo, Hi).
type Bucket struct {
	Lo, Hi float64
	Count  int
}

func (b Bucket) Label() string {
	return strconv.FormatFloat(b.Lo, 'f', -1, 64) + "-" + strconv.FormatFloat(b.Hi, 'f', -1, 64)
}

// Buckets bins the non-missing values. The bin count follows Sturges' rule and
// the width is rounded up to 1, 2 or 5 times a power of ten.
func Buckets(vals []float64) []Bucket {
	var present []float64
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		present = append(present, v)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if len(present) == 0 {
		return nil
	}

	k := math.Ceil(math.Log2(float64(len(present)))) + 1
	w := niceWidth((hi - lo) / k)
	start := math.Floor(lo/w) * w
	n := int(math.Floor((hi-start)/w)) + 1

	out := make([]Bucket, n)
	for i := range out {
		out[i].Lo = start + float64(i)*w
		out[i].Hi = out[i].Lo + w
	}
	for _, v := range present {
		i := min(int(math.Floor((v-start)/w)), n-1)
		out[i].Count++
	}
	return out
}

func niceWidth(raw float64) float64 {
	if raw <= 0 || math.IsNaN(raw) {
		return 1
	}
	exp := math.Pow(10, math.Floor(math.Log10(raw)))
	switch f := raw / exp; {
	case f <= 1:
		return exp
	case f <= 2:
		return 2 * exp
	case f <= 5:
		return 5 * exp
	}
	return 10 * exp
}

// Group is the total of one category.
type Group struct {
	Label string
	Sum   float64
}

// GroupSum totals ys per distinct label of xs, in order of first appearance.
// Missing y values add nothing.
func GroupSum(xs *engine.Column, ys []float64) []Group {
	index := make(map[string]int)
	var out []Group
	for r := 0; r < xs.Len(); r++ {
		label := xs.String(r)
		i, ok := index[label]
		if !ok {
			i = len(out)
			index[label] = i
			out = append(out, Group{Label: label})
		}
		if !math.IsNaN(ys[r]) {
			out[i].Sum += ys[r]
		}
	}
	return out
}
