package engine

import (
	"math"
	"sort"

	"f1insights/internal/models"
)

// Describe computes count, mean, sample std, min, quartiles and max for every
// numeric column, in header order. Missing cells are skipped. Text columns are
// left out.
func Describe(cs *ColumnStore) models.Summary {
	out := models.Summary{Rows: cs.Rows, Columns: make([]models.ColumnStats, 0, len(cs.Columns))}
	for _, c := range cs.Columns {
		if c.Kind != Number {
			continue
		}
		out.Columns = append(out.Columns, describeColumn(c))
	}
	return out
}

func describeColumn(c *Column) models.ColumnStats {
	vals := make([]float64, 0, len(c.Numbers))
	for _, v := range c.Numbers {
		if !math.IsNaN(v) {
			vals = append(vals, v)
		}
	}
	st := models.ColumnStats{Column: c.Name, Count: len(vals)}
	if len(vals) == 0 {
		return st
	}
	sort.Float64s(vals)

	var sum float64
	for _, v := range vals {
		sum += v
	}
	mean := sum / float64(len(vals))
	st.Mean = ptr(mean)

	if len(vals) > 1 {
		var ss float64
		for _, v := range vals {
			d := v - mean
			ss += d * d
		}
		st.Std = ptr(math.Sqrt(ss / float64(len(vals)-1)))
	}

	st.Min = ptr(vals[0])
	st.P25 = ptr(quantile(vals, 0.25))
	st.P50 = ptr(quantile(vals, 0.50))
	st.P75 = ptr(quantile(vals, 0.75))
	st.Max = ptr(vals[len(vals)-1])
	return st
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func ptr(v float64) *float64 { return &v }
