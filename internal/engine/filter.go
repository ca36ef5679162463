package engine

import "math"

// Criteria is the predicate set of one Data Analysis render.
type Criteria struct {
	Nationality string
	MinEntries  float64
	MaxEntries  float64
	ShowPodiums bool
}

// Clamp pulls the race entry range into [lo, hi].
func (c Criteria) Clamp(lo, hi int) Criteria {
	c.MinEntries = math.Min(math.Max(c.MinEntries, float64(lo)), float64(hi))
	c.MaxEntries = math.Min(math.Max(c.MaxEntries, float64(lo)), float64(hi))
	return c
}

// Filter applies the criteria in order: nationality equality, inclusive race
// entry range, then the podium column projection. Row order is preserved.
// A nationality that does not occur yields an empty store with every column.
func Filter(cs *ColumnStore, c Criteria) (*ColumnStore, error) {
	reqs := []Requirement{NationalityCol, RaceEntriesCol}
	if !c.ShowPodiums {
		reqs = append(reqs, PodiumsCol)
	}
	if err := cs.Require(reqs...); err != nil {
		return nil, err
	}
	nat, _ := cs.Column(NationalityCol.Name)
	entries, _ := cs.Column(RaceEntriesCol.Name)

	// 1. Nationality (exact match on the dictionary id)
	var rows []int
	if id, ok := nat.Lookup(c.Nationality); ok {
		for r := 0; r < cs.Rows; r++ {
			if nat.IDs[r] == id {
				rows = append(rows, r)
			}
		}
	}

	// 2. Race entries range, NaN never matches
	kept := rows[:0]
	for _, r := range rows {
		v := entries.Numbers[r]
		if v >= c.MinEntries && v <= c.MaxEntries {
			kept = append(kept, r)
		}
	}

	out := cs.take(kept)

	// 3. Podiums column
	if !c.ShowPodiums {
		out = out.without(PodiumsCol.Name)
	}
	return out, nil
}

// EntryBounds returns the observed race entry range, widened to whole numbers.
// An empty column yields (0, 0).
func EntryBounds(cs *ColumnStore) (lo, hi int, err error) {
	if err := cs.Require(RaceEntriesCol); err != nil {
		return 0, 0, err
	}
	entries, _ := cs.Column(RaceEntriesCol.Name)
	minV, maxV := math.Inf(1), math.Inf(-1)
	for _, v := range entries.Numbers {
		if math.IsNaN(v) {
			continue
		}
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	if math.IsInf(minV, 1) {
		return 0, 0, nil
	}
	return int(math.Floor(minV)), int(math.Ceil(maxV)), nil
}

// Nationalities returns the distinct nationalities in order of first appearance.
func Nationalities(cs *ColumnStore) ([]string, error) {
	if err := cs.Require(NationalityCol); err != nil {
		return nil, err
	}
	nat, _ := cs.Column(NationalityCol.Name)
	seen := make([]bool, len(nat.Dict))
	var out []string
	for _, id := range nat.IDs {
		if !seen[id] {
			seen[id] = true
			out = append(out, nat.Dict[id])
		}
	}
	return out, nil
}
