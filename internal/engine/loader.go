package engine

import (
	"bytes"
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/zeebo/xxh3"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// parseNumber parses a numeric cell. Empty and non-finite cells ("inf",
// "NaN") are missing.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return math.NaN(), true
	}
	return v, true
}

// inferKind returns Number when every non-empty cell of column i parses as a
// float. Columns without a single value take the kind the schema expects.
func inferKind(name string, records [][]string, i int) Kind {
	seen := false
	for _, rec := range records {
		if strings.TrimSpace(rec[i]) != "" {
			seen = true
		}
		if _, ok := parseNumber(rec[i]); !ok {
			return Text
		}
	}
	if !seen {
		for _, r := range []Requirement{NationalityCol, RaceEntriesCol, PodiumsCol, DecadeCol} {
			if r.Name == name && r.Kind != 0 {
				return r.Kind
			}
		}
	}
	return Number
}

func buildColumn(name string, records [][]string, i int) *Column {
	col := &Column{Name: name, Kind: inferKind(name, records, i)}
	if col.Kind == Number {
		col.Numbers = make([]float64, len(records))
		for r, rec := range records {
			col.Numbers[r], _ = parseNumber(rec[i])
		}
		return col
	}

	dict := make(map[string]int32)
	col.IDs = make([]int32, len(records))
	for r, rec := range records {
		s := rec[i]
		id, ok := dict[s]
		if !ok {
			id = int32(len(col.Dict))
			col.Dict = append(col.Dict, s)
			dict[s] = id
		}
		col.IDs[r] = id
	}
	return col
}

// LoadCSV reads a CSV document with a header row into a ColumnStore.
func LoadCSV(r io.Reader) (*ColumnStore, error) {
	start := time.Now()

	content, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading csv body")
	}
	checksum := xxh3.Hash(content)
	content = bytes.TrimPrefix(content, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(content))
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "parsing csv")
	}
	if len(records) == 0 {
		return nil, errors.New("csv document is empty")
	}

	header := records[0]
	rows := records[1:]
	seen := make(map[string]bool, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, errors.Errorf("csv header column %d has no name", i)
		}
		if seen[name] {
			return nil, errors.Errorf("csv header repeats column %q", name)
		}
		seen[name] = true
		header[i] = name
	}

	// Columns are independent, build them in parallel.
	cols := make([]*Column, len(header))
	var wg sync.WaitGroup
	for i, name := range header {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			cols[i] = buildColumn(name, rows, i)
		}(i, name)
	}
	wg.Wait()

	logrus.WithFields(logrus.Fields{
		"rows":    len(rows),
		"columns": len(cols),
		"elapsed": time.Since(start),
	}).Debug("csv loaded")

	return NewColumnStore(cols, len(rows), checksum), nil
}
