// Package reference holds the static historical datasets used for nearby
// counts and feature defaults. Tables are immutable after construction.
package reference

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Dataset names of the three bundled tables.
const (
	Earthquakes = "earthquakes"
	Floods      = "floods"
	Wildfires   = "wildfires"
)

// Table is an in-memory CSV table with string cells.
type Table struct {
	name   string
	header []string
	rows   [][]string
	index  map[string]int

	// source line of the header and of each row, when read from CSV
	headerLine int
	lines      []int
}

// NewTable builds a table from a header and rows. Short rows are padded with
// empty cells and long rows truncated to the header width.
func NewTable(name string, header []string, rows [][]string) *Table {
	t := &Table{
		name:   name,
		header: make([]string, len(header)),
		rows:   make([][]string, 0, len(rows)),
		index:  make(map[string]int, len(header)),
	}
	for i, h := range header {
		h = strings.TrimSpace(h)
		t.header[i] = h
		key := strings.ToLower(h)
		if _, dup := t.index[key]; !dup {
			t.index[key] = i
		}
	}
	for _, r := range rows {
		row := make([]string, len(header))
		for i := range row {
			if i < len(r) {
				row[i] = strings.TrimSpace(r[i])
			}
		}
		t.rows = append(t.rows, row)
	}
	return t
}

// Empty returns a table with no columns and no rows.
func Empty(name string) *Table {
	return NewTable(name, nil, nil)
}

// Name returns the dataset name, e.g. "earthquakes".
func (t *Table) Name() string { return t.name }

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.rows) }

// Columns returns a copy of the header in file order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.header))
	copy(out, t.header)
	return out
}

// Column returns the index of a column, matched case-insensitively. When
// several headers differ only by case the first one wins.
func (t *Table) Column(name string) (int, bool) {
	i, ok := t.index[strings.ToLower(strings.TrimSpace(name))]
	return i, ok
}

// Cell returns the cell at row r, column c.
func (t *Table) Cell(r, c int) string { return t.rows[r][c] }

// HeaderLine returns the 1-based source line of the header.
func (t *Table) HeaderLine() int {
	if t.headerLine == 0 {
		return 1
	}
	return t.headerLine
}

// Line returns the 1-based source line where row r starts. Tables not read
// from a file number rows directly after the header.
func (t *Table) Line(r int) int {
	if r < len(t.lines) {
		return t.lines[r]
	}
	return t.HeaderLine() + 1 + r
}

// Mean averages a numeric column. Empty cells are skipped. Without Coerce any
// other unparsable cell fails the whole column with ErrNonNumericValue.
func (t *Table) Mean(column string, opts ...MeanOption) (float64, error) {
	var o meanOptions
	for _, opt := range opts {
		opt(&o)
	}

	c, ok := t.Column(column)
	if !ok {
		return 0, fmt.Errorf("%s.%s: %w", t.name, column, ErrColumnNotFound)
	}

	var strip *strings.Replacer
	if o.strip != "" {
		strip = strings.NewReplacer(o.stripPairs()...)
	}

	var sum float64
	var n int
	for _, row := range t.rows {
		cell := row[c]
		if strip != nil {
			cell = strings.TrimSpace(strip.Replace(cell))
		}
		if cell == "" {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			if o.coerce {
				continue
			}
			return 0, fmt.Errorf("%s.%s: %q: %w", t.name, column, row[c], ErrNonNumericValue)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, fmt.Errorf("%s.%s: %w", t.name, column, ErrNoValues)
	}
	return sum / float64(n), nil
}

// MeanOption tunes Table.Mean.
type MeanOption func(*meanOptions)

type meanOptions struct {
	strip  string
	coerce bool
}

func (o meanOptions) stripPairs() []string {
	pairs := make([]string, 0, 2*len(o.strip))
	for _, r := range o.strip {
		pairs = append(pairs, string(r), "")
	}
	return pairs
}

// StripChars removes every character in chars from a cell before parsing,
// e.g. thousands separators.
func StripChars(chars string) MeanOption {
	return func(o *meanOptions) { o.strip += chars }
}

// Coerce skips unparsable cells instead of failing.
func Coerce() MeanOption {
	return func(o *meanOptions) { o.coerce = true }
}
