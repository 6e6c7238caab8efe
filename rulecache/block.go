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

package rulecache

import (
	"fmt"

	"github.com/ebay/kbcompress/inttable"
	"github.com/ebay/kbcompress/kb"
	log "github.com/sirupsen/logrus"
)

// block holds the rows of one relation that comply with the constraints a
// cache entry places on one predicate. Blocks are immutable once built, apart
// from the lazily built index, and are shared freely between entries, caches
// and cloned rules.
type block struct {
	rel *kb.Relation
	// par is the partial assignment record: par[i] is the value every row of
	// cs holds in column i, or 0 if the rows aren't constrained there.
	par []int
	// cs is the compliance set. It's never empty.
	cs [][]int
	// index is built over cs on demand by buildIndexIfAbsent, it's nil until
	// then.
	index *inttable.Table
}

// wholeRelation returns a block holding every row of 'rel'. It reuses the
// relation's table as its index.
func wholeRelation(rel *kb.Relation) *block {
	return &block{
		rel:   rel,
		par:   make([]int, rel.Arity()),
		cs:    rel.AllRows(),
		index: rel.Table(),
	}
}

// bind returns a new block whose compliance set is 'rows' and whose record
// has 'value' in each of 'cols'. 'rows' must be a non-empty subset of b.cs
// that agrees with the new record.
func (b *block) bind(cols []int, value int, rows [][]int) *block {
	if len(rows) == 0 {
		log.Panicf("rulecache: binding %v of %v to %d leaves no rows", cols, b, value)
	}
	par := make([]int, len(b.par))
	copy(par, b.par)
	for _, col := range cols {
		par[col] = value
	}
	return &block{rel: b.rel, par: par, cs: rows}
}

// buildIndexIfAbsent builds the index over the compliance set. It's not safe
// to call concurrently on a shared block; callers build indexes in a
// dedicated pass before handing a cache to other goroutines.
func (b *block) buildIndexIfAbsent() {
	if b.index == nil {
		b.index = inttable.MustBuild(b.cs)
	}
}

// mustIndex returns the block's index, which must have been built already.
func (b *block) mustIndex() *inttable.Table {
	if b.index == nil {
		log.Panicf("rulecache: block %v is used as a join side before its index was built", b)
	}
	return b.index
}

func (b *block) String() string {
	return fmt.Sprintf("%v%v[%d rows]", b.rel.Name(), b.par, len(b.cs))
}
