package models

import "time"

type Summary struct {
	Rows    int           `json:"rows"`
	Columns []ColumnStats `json:"columns"`
}

// ColumnStats describes one numeric column. Nil fields are undefined for the
// column (no values, or a single value for Std).
type ColumnStats struct {
	Column string   `json:"column"`
	Count  int      `json:"count"`
	Mean   *float64 `json:"mean"`
	Std    *float64 `json:"std"`
	Min    *float64 `json:"min"`
	P25    *float64 `json:"p25"`
	P50    *float64 `json:"p50"`
	P75    *float64 `json:"p75"`
	Max    *float64 `json:"max"`
}

type Status struct {
	Ready       bool      `json:"ready"`
	Version     uint64    `json:"version"`
	Checksum    string    `json:"checksum,omitempty"`
	FetchID     string    `json:"fetch_id,omitempty"`
	FetchedAt   time.Time `json:"fetched_at,omitempty"`
	Rows        int       `json:"rows"`
	Columns     []string  `json:"columns,omitempty"`
	LastFailure *Failure  `json:"last_failure,omitempty"`
}

type Failure struct {
	At      time.Time `json:"at"`
	FetchID string    `json:"fetch_id"`
	Error   string    `json:"error"`
}

type Section struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

type DataPage struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
	Total   int              `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

type ChartInfo struct {
	ID    string `json:"id"`
	Kind  string `json:"kind"`
	X     string `json:"x"`
	Y     string `json:"y,omitempty"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Error string `json:"error,omitempty"`
}
