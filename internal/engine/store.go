package engine

import (
	"math"
	"strconv"
)

// Kind is the type a column was inferred as at load time.
type Kind uint8

const (
	// Number columns hold float64 values, NaN marks a missing cell.
	Number Kind = iota + 1
	// Text columns are dictionary encoded.
	Text
)

func (k Kind) String() string {
	switch k {
	case Number:
		return "number"
	case Text:
		return "text"
	}
	return "any"
}

// Column is one named column of a ColumnStore.
type Column struct {
	Name string
	Kind Kind

	// Number data (Flat Array)
	Numbers []float64

	// Dictionary Encoded IDs (0..N) and ID -> String
	IDs  []int32
	Dict []string
}

// Len returns the number of cells in the column.
func (c *Column) Len() int {
	if c.Kind == Number {
		return len(c.Numbers)
	}
	return len(c.IDs)
}

// Float returns the numeric value at row. ok is false for text columns and
// missing cells.
func (c *Column) Float(row int) (v float64, ok bool) {
	if c.Kind != Number {
		return 0, false
	}
	v = c.Numbers[row]
	return v, !math.IsNaN(v)
}

// String renders the cell at row for display. Missing numbers render empty.
func (c *Column) String(row int) string {
	if c.Kind == Text {
		return c.Dict[c.IDs[row]]
	}
	v := c.Numbers[row]
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Lookup returns the dictionary id of s in a text column.
func (c *Column) Lookup(s string) (int32, bool) {
	for id, v := range c.Dict {
		if v == s {
			return int32(id), true
		}
	}
	return -1, false
}

// take gathers rows into a new column. Dictionaries are shared, never copied.
func (c *Column) take(rows []int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind, Dict: c.Dict}
	if c.Kind == Number {
		out.Numbers = make([]float64, len(rows))
		for i, r := range rows {
			out.Numbers[i] = c.Numbers[r]
		}
		return out
	}
	out.IDs = make([]int32, len(rows))
	for i, r := range rows {
		out.IDs[i] = c.IDs[r]
	}
	return out
}

// ColumnStore holds data in Struct-of-Arrays format. A store is immutable once
// built; Filter and friends return new stores.
type ColumnStore struct {
	Columns []*Column
	Rows    int

	// Checksum of the raw document the store was loaded from.
	Checksum uint64

	index map[string]int
}

// NewColumnStore indexes cols by name. Every column must hold rows cells.
func NewColumnStore(cols []*Column, rows int, checksum uint64) *ColumnStore {
	cs := &ColumnStore{
		Columns:  cols,
		Rows:     rows,
		Checksum: checksum,
		index:    make(map[string]int, len(cols)),
	}
	for i, c := range cols {
		cs.index[c.Name] = i
	}
	return cs
}

// Column returns the column called name.
func (cs *ColumnStore) Column(name string) (*Column, bool) {
	i, ok := cs.index[name]
	if !ok {
		return nil, false
	}
	return cs.Columns[i], true
}

// Names returns the column names in header order.
func (cs *ColumnStore) Names() []string {
	names := make([]string, len(cs.Columns))
	for i, c := range cs.Columns {
		names[i] = c.Name
	}
	return names
}

// Row renders one row for display, in header order.
func (cs *ColumnStore) Row(row int) []string {
	out := make([]string, len(cs.Columns))
	for i, c := range cs.Columns {
		out[i] = c.String(row)
	}
	return out
}

func (cs *ColumnStore) take(rows []int) *ColumnStore {
	cols := make([]*Column, len(cs.Columns))
	for i, c := range cs.Columns {
		cols[i] = c.take(rows)
	}
	return NewColumnStore(cols, len(rows), cs.Checksum)
}

func (cs *ColumnStore) without(name string) *ColumnStore {
	cols := make([]*Column, 0, len(cs.Columns))
	for _, c := range cs.Columns {
		if c.Name != name {
			cols = append(cols, c)
		}
	}
	return NewColumnStore(cols, cs.Rows, cs.Checksum)
}
