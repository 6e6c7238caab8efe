// Copyright 2019 eBay Inc.
// Primary authors: Simon Fell, Diego Ongaro,
//                  Raymond Kroeker, and Sathish Kandasamy.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package inttable provides an immutable table of integer tuples that is
// indexed on every column. It supports the existence checks, slices and
// sorted merge joins that rule evaluation is built on.
package inttable

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"
)

var (
	// ErrEmpty is returned by Build when it is given no rows.
	ErrEmpty = errors.New("inttable: no rows")
	// ErrArity is returned by Build when the rows don't all have the same,
	// non-zero, number of columns.
	ErrArity = errors.New("inttable: inconsistent arity")
	// ErrDuplicateRow is returned by Build when two rows are identical.
	ErrDuplicateRow = errors.New("inttable: duplicate row")
)

// Table is an immutable set of distinct integer rows, all of the same arity.
// For every column it keeps the rows sorted by that column, the distinct
// values of that column and the offset at which each value's run of rows
// starts. Slices returned from a Table share its storage and must not be
// modified.
type Table struct {
	arity int
	// rows in canonical order: lexicographic, column 0 first.
	rows    [][]int
	columns []column
}

// column is the index of one column of a Table.
type column struct {
	// rows sorted by this column's value. The sort is stable with respect to
	// the canonical order.
	rows [][]int
	// values contains the distinct values of this column, in ascending order.
	values []int
	// offsets[i] is the index in rows of the first row with values[i].
	// offsets[len(values)] is len(rows).
	offsets []int
}

// Build returns a new Table containing 'rows'. The Table takes ownership of
// the row slices; they must not be modified afterwards. It returns an error if
// there are no rows, if the rows have different (or zero) arity, or if any row
// appears more than once.
func Build(rows [][]int) (*Table, error) {
	if len(rows) == 0 {
		return nil, ErrEmpty
	}
	arity := len(rows[0])
	if arity == 0 {
		return nil, fmt.Errorf("%w: rows have no columns", ErrArity)
	}
	for i, row := range rows {
		if len(row) != arity {
			return nil, fmt.Errorf("%w: row %d has %d columns, expected %d",
				ErrArity, i, len(row), arity)
		}
	}
	canonical := make([][]int, len(rows))
	copy(canonical, rows)
	sort.Slice(canonical, func(i, j int) bool {
		return Compare(canonical[i], canonical[j]) < 0
	})
	for i := 1; i < len(canonical); i++ {
		if Compare(canonical[i-1], canonical[i]) == 0 {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateRow, canonical[i])
		}
	}
	t := &Table{
		arity:   arity,
		rows:    canonical,
		columns: make([]column, arity),
	}
	// the canonical order is already sorted by column 0
	t.columns[0] = newColumn(canonical, 0)
	for col := 1; col < arity; col++ {
		sorted := make([][]int, len(canonical))
		copy(sorted, canonical)
		c := col
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i][c] < sorted[j][c]
		})
		t.columns[col] = newColumn(sorted, col)
	}
	return t, nil
}

// MustBuild is like Build but panics if the rows are not a valid table. It's
// intended for rows that are known to be distinct, such as a subset of an
// existing Table.
func MustBuild(rows [][]int) *Table {
	t, err := Build(rows)
	if err != nil {
		log.Panicf("inttable.MustBuild: %v", err)
	}
	return t
}

func newColumn(sorted [][]int, col int) column {
	c := column{rows: sorted}
	for i, row := range sorted {
		if i == 0 || row[col] != c.values[len(c.values)-1] {
			c.values = append(c.values, row[col])
			c.offsets = append(c.offsets, i)
		}
	}
	c.offsets = append(c.offsets, len(sorted))
	return c
}

// Compare orders two rows lexicographically. It returns a negative number if
// a < b, 0 if they're equal and a positive number if a > b.
func Compare(a, b []int) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return len(a) - len(b)
}

// RowKey returns a compact string that uniquely identifies the row's values.
// It's useful as a map key when de-duplicating rows.
func RowKey(row []int) string {
	buf := make([]byte, 0, len(row)*2)
	for _, v := range row {
		buf = binary.AppendUvarint(buf, uint64(v))
	}
	return string(buf)
}

// Arity returns the number of columns in the table.
func (t *Table) Arity() int {
	return t.arity
}

// Len returns the number of rows in the table.
func (t *Table) Len() int {
	return len(t.rows)
}

// Rows returns all the rows in canonical order.
func (t *Table) Rows() [][]int {
	return t.rows[:len(t.rows):len(t.rows)]
}

// SortedRows returns all the rows ordered by the value of column 'col'.
func (t *Table) SortedRows(col int) [][]int {
	c := t.column(col)
	return c.rows[:len(c.rows):len(c.rows)]
}

// ValuesInColumn returns the distinct values of column 'col' in ascending
// order.
func (t *Table) ValuesInColumn(col int) []int {
	c := t.column(col)
	return c.values[:len(c.values):len(c.values)]
}

// RowIndex returns the position of 'row' in the canonical order, or -1 if the
// table doesn't contain it.
func (t *Table) RowIndex(row []int) int {
	if len(row) != t.arity {
		return -1
	}
	i := sort.Search(len(t.rows), func(i int) bool {
		return Compare(t.rows[i], row) >= 0
	})
	if i < len(t.rows) && Compare(t.rows[i], row) == 0 {
		return i
	}
	return -1
}

// HasRow returns true if the table contains 'row'.
func (t *Table) HasRow(row []int) bool {
	return t.RowIndex(row) >= 0
}

// Slice returns the rows whose column 'col' has 'value', or nil if there are
// none.
func (t *Table) Slice(col, value int) [][]int {
	c := t.column(col)
	i := sort.SearchInts(c.values, value)
	if i == len(c.values) || c.values[i] != value {
		return nil
	}
	return c.run(i)
}

// FilterEqual returns the rows in which all the columns in 'cols' hold the
// same value, in canonical order.
func (t *Table) FilterEqual(cols ...int) [][]int {
	for _, col := range cols {
		t.column(col)
	}
	if len(cols) < 2 {
		return t.Rows()
	}
	var res [][]int
	for _, row := range t.rows {
		equal := true
		for _, col := range cols[1:] {
			if row[col] != row[cols[0]] {
				equal = false
				break
			}
		}
		if equal {
			res = append(res, row)
		}
	}
	return res
}

func (c *column) run(i int) [][]int {
	start, end := c.offsets[i], c.offsets[i+1]
	return c.rows[start:end:end]
}

func (t *Table) column(col int) *column {
	if t == nil {
		log.Panicf("inttable: column %d requested from a nil table", col)
	}
	if col < 0 || col >= t.arity {
		log.Panicf("inttable: column %d out of range for a table of arity %d", col, t.arity)
	}
	return &t.columns[col]
}
