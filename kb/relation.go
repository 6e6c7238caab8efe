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

package kb

import (
	"fmt"
	"math"

	"github.com/bits-and-blooms/bitset"
	"github.com/ebay/kbcompress/inttable"
)

// Relation is a named, immutable set of facts of one arity. The only mutable
// part of a Relation is its entailment set, which records the facts that an
// accepted rule already explains. Entailment only ever grows.
//
// Reading a Relation is safe for concurrent use. Marking entailment is not:
// calls to EntailIfNot must not run concurrently with each other or with
// readers of the entailment set.
type Relation struct {
	id       int
	name     string
	table    *inttable.Table
	entailed *bitset.BitSet
}

// NewRelation returns a new Relation containing 'rows'. It takes ownership of
// the rows. It returns an error if 'rows' is not a valid inttable.
func NewRelation(id int, name string, rows [][]int) (*Relation, error) {
	table, err := inttable.Build(rows)
	if err != nil {
		return nil, fmt.Errorf("unable to build relation %v: %w", name, err)
	}
	return &Relation{
		id:       id,
		name:     name,
		table:    table,
		entailed: bitset.New(uint(table.Len())),
	}, nil
}

// ID returns the relation's identifier within its KB.
func (r *Relation) ID() int {
	return r.id
}

// Name returns the relation's name.
func (r *Relation) Name() string {
	return r.name
}

// Arity returns the number of arguments of the relation.
func (r *Relation) Arity() int {
	return r.table.Arity()
}

// Len returns the number of facts in the relation.
func (r *Relation) Len() int {
	return r.table.Len()
}

// Table returns the index over the relation's facts.
func (r *Relation) Table() *inttable.Table {
	return r.table
}

// AllRows returns all the facts in canonical order.
func (r *Relation) AllRows() [][]int {
	return r.table.Rows()
}

// HasRow returns true if 'row' is a fact of the relation.
func (r *Relation) HasRow(row []int) bool {
	return r.table.HasRow(row)
}

// RowIndex returns the position of 'row' in canonical order, or -1.
func (r *Relation) RowIndex(row []int) int {
	return r.table.RowIndex(row)
}

// ValuesInColumn returns the distinct values of argument 'col'.
func (r *Relation) ValuesInColumn(col int) []int {
	return r.table.ValuesInColumn(col)
}

// IsEntailed returns true if 'row' is a fact that's already been marked as
// entailed.
func (r *Relation) IsEntailed(row []int) bool {
	idx := r.table.RowIndex(row)
	return idx >= 0 && r.entailed.Test(uint(idx))
}

// IsEntailedAt is like IsEntailed but takes the position of the row in the
// canonical order.
func (r *Relation) IsEntailedAt(idx int) bool {
	return r.entailed.Test(uint(idx))
}

// EntailIfNot marks 'row' as entailed. It returns true if 'row' is a fact of
// this relation that wasn't marked before, false otherwise.
func (r *Relation) EntailIfNot(row []int) bool {
	idx := r.table.RowIndex(row)
	if idx < 0 || r.entailed.Test(uint(idx)) {
		return false
	}
	r.entailed.Set(uint(idx))
	return true
}

// EntailedCount returns the number of facts that are marked as entailed.
func (r *Relation) EntailedCount() int {
	return int(r.entailed.Count())
}

// PromisingConstants returns the values of argument 'col' that appear in at
// least 'minCoverage' (a fraction between 0 and 1) of the relation's facts, in
// ascending order.
func (r *Relation) PromisingConstants(col int, minCoverage float64) []int {
	threshold := int(math.Ceil(minCoverage * float64(r.Len())))
	if threshold < 1 {
		threshold = 1
	}
	var res []int
	for _, v := range r.table.ValuesInColumn(col) {
		if len(r.table.Slice(col, v)) >= threshold {
			res = append(res, v)
		}
	}
	return res
}

func (r *Relation) String() string {
	return fmt.Sprintf("%s/%d", r.name, r.Arity())
}
