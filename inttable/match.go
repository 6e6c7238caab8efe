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

package inttable

import (
	"sort"

	log "github.com/sirupsen/logrus"
)

// Match describes one value that appears in every matched column. Slices[i]
// holds exactly the rows of the i-th input table whose matched column equals
// Value.
type Match struct {
	Value  int
	Slices [][][]int
}

// MatchSlices performs a sorted merge walk over the distinct values of
// column 'colA' of 'a' and column 'colB' of 'b'. It returns one Match per
// value present in both columns, in ascending value order. Each Match has
// exactly 2 slices, the first from 'a' and the second from 'b'.
func MatchSlices(a *Table, colA int, b *Table, colB int) []Match {
	ca, cb := a.column(colA), b.column(colB)
	var res []Match
	i, j := 0, 0
	for i < len(ca.values) && j < len(cb.values) {
		switch {
		case ca.values[i] == cb.values[j]:
			res = append(res, Match{
				Value:  ca.values[i],
				Slices: [][][]int{ca.run(i), cb.run(j)},
			})
			i++
			j++
		case ca.values[i] < cb.values[j]:
			i++
		default:
			j++
		}
	}
	return res
}

// MatchSlicesN is the n-way version of MatchSlices: it returns one Match for
// every value that appears in column cols[i] of tables[i] for all i. It
// repeatedly advances the lagging columns to the largest current candidate
// value until all of them agree. With a single table it returns the run of
// every distinct value in the column.
func MatchSlicesN(tables []*Table, cols []int) []Match {
	if len(tables) != len(cols) {
		log.Panicf("inttable.MatchSlicesN: %d tables but %d columns", len(tables), len(cols))
	}
	if len(tables) == 0 {
		return nil
	}
	columns := make([]*column, len(tables))
	for i, t := range tables {
		columns[i] = t.column(cols[i])
	}
	positions := make([]int, len(tables))
	var res []Match
	for {
		candidate := 0
		for i, c := range columns {
			if positions[i] == len(c.values) {
				return res
			}
			if v := c.values[positions[i]]; i == 0 || v > candidate {
				candidate = v
			}
		}
		agreed := true
		for i, c := range columns {
			p := positions[i]
			if c.values[p] < candidate {
				p += sort.SearchInts(c.values[p:], candidate)
				positions[i] = p
				if p == len(c.values) {
					return res
				}
			}
			if c.values[p] != candidate {
				agreed = false
			}
		}
		if !agreed {
			continue
		}
		m := Match{Value: candidate, Slices: make([][][]int, len(columns))}
		for i, c := range columns {
			m.Slices[i] = c.run(positions[i])
			positions[i]++
		}
		res = append(res, m)
	}
}

// Join performs an equi-join of 'a' and 'b' on a.colA = b.colB. Each joined
// pair of rows is projected onto the columns 'selA' of the row from 'a'
// followed by the columns 'selB' of the row from 'b'. The result contains no
// duplicate rows and is sorted.
func Join(a *Table, colA int, selA []int, b *Table, colB int, selB []int) [][]int {
	for _, col := range selA {
		a.column(col)
	}
	for _, col := range selB {
		b.column(col)
	}
	seen := make(map[string]struct{})
	var res [][]int
	for _, m := range MatchSlices(a, colA, b, colB) {
		for _, ra := range m.Slices[0] {
			for _, rb := range m.Slices[1] {
				projected := make([]int, 0, len(selA)+len(selB))
				for _, col := range selA {
					projected = append(projected, ra[col])
				}
				for _, col := range selB {
					projected = append(projected, rb[col])
				}
				key := RowKey(projected)
				if _, exists := seen[key]; exists {
					continue
				}
				seen[key] = struct{}{}
				res = append(res, projected)
			}
		}
	}
	sort.Slice(res, func(i, j int) bool {
		return Compare(res[i], res[j]) < 0
	})
	return res
}

// Intersection returns the values that appear in column cols[i] of
// tables[i] for every i, in ascending order.
func Intersection(tables []*Table, cols []int) []int {
	matches := MatchSlicesN(tables, cols)
	res := make([]int, len(matches))
	for i, m := range matches {
		res[i] = m.Value
	}
	return res
}

// ColumnSimilarity returns the fraction of the distinct values of column
// 'colA' of 'a' that also appear in column 'colB' of 'b'. It's 1 when every
// value of a.colA is present in b.colB.
func ColumnSimilarity(a *Table, colA int, b *Table, colB int) float64 {
	values := a.ValuesInColumn(colA)
	common := 0
	other := b.column(colB).values
	for _, v := range values {
		i := sort.SearchInts(other, v)
		if i < len(other) && other[i] == v {
			common++
		}
	}
	return float64(common) / float64(len(values))
}
