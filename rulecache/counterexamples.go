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
	"github.com/ebay/kbcompress/inttable"
	"github.com/ebay/kbcompress/kb"
	"github.com/google/btree"
)

// tupleItem is a head tuple stored in a btree, ordered lexicographically.
type tupleItem []int

// Less implements btree.Item.
func (t tupleItem) Less(other btree.Item) bool {
	return inttable.Compare(t, other.(tupleItem)) < 0
}

// counterexamples returns the head tuples entailed through the all cache that
// aren't facts of 'head', without duplicates and in ascending order. Free
// head values range over the constants 1 to 'numConstants'.
func (c *Cache) counterexamples(p *headPlan, head *kb.Relation, numConstants int) [][]int {
	found := btree.New(16)
	tuple := p.newTuple()
	out := make([]int, len(p.slots))
	free := make([]int, p.free)
	for _, e := range c.all {
		p.forEachGrounding(e, tuple, func() {
			if p.free > 0 && numConstants == 0 {
				return
			}
			for i := range free {
				free[i] = 1
			}
			for {
				for j, s := range p.slots {
					switch s.kind {
					case slotConstant:
						out[j] = s.value
					case slotGV, slotPLV:
						out[j] = tuple[s.value]
					case slotFree:
						out[j] = free[s.value]
					}
				}
				if !head.HasRow(out) {
					found.ReplaceOrInsert(tupleItem(append([]int(nil), out...)))
				}
				// advance the free values, last one fastest
				i := len(free) - 1
				for ; i >= 0; i-- {
					free[i]++
					if free[i] <= numConstants {
						break
					}
					free[i] = 1
				}
				if i < 0 {
					return
				}
			}
		})
	}
	res := make([][]int, 0, found.Len())
	found.Ascend(func(item btree.Item) bool {
		res = append(res, item.(tupleItem))
		return true
	})
	return res
}
