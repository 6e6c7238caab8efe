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
	"math"

	"github.com/bits-and-blooms/bitset"
	"github.com/ebay/kbcompress/inttable"
	"github.com/ebay/kbcompress/kb"
	"github.com/ebay/kbcompress/rule"
	log "github.com/sirupsen/logrus"
)

type slotKind uint8

const (
	slotConstant slotKind = iota
	// the value is read from the record of an all cache block.
	slotGV
	// the value is enumerated from the compliance set of a body block.
	slotPLV
	// any constant of the KB.
	slotFree
)

// slot describes how one head argument is grounded.
type slot struct {
	kind slotKind
	// value is the constant for slotConstant, otherwise the position of the
	// value in the grounding tuple (for slotGV and slotPLV) or in the free
	// values (for slotFree).
	value int
}

// plvGroup lists the private variables bound within one body predicate. They
// are enumerated together, as they must come from the same row.
type plvGroup struct {
	pred int
	args []int
	// at[i] is the position in the grounding tuple of the variable found in
	// args[i].
	at []int
}

// headPlan describes how to derive head tuples from an entry of the all
// cache. The grounding tuple of an entry holds the values of the general
// variables in the head, followed by the values of the private variables.
type headPlan struct {
	slots []slot
	// gvs holds the first body location of each general head variable.
	gvs       []rule.Location
	numPLVs   int
	plvGroups []plvGroup
	// free is the number of distinct unconstrained head values: empty head
	// arguments and variables that occur only in the head.
	free int
}

func newHeadPlan(r *rule.Rule, c *Cache) *headPlan {
	head := r.Head()
	p := &headPlan{slots: make([]slot, len(head.Args))}
	gvAt := make(map[int]int)
	freeAt := make(map[int]int)
	var plvs []int
	for j, a := range head.Args {
		switch a.Kind {
		case rule.Empty:
			p.slots[j] = slot{kind: slotFree, value: p.free}
			p.free++
		case rule.Constant:
			p.slots[j] = slot{kind: slotConstant, value: a.Value}
		case rule.Variable:
			v := a.Value
			if _, isPLV := c.PLV(v); isPLV {
				p.slots[j] = slot{kind: slotPLV, value: len(plvs)}
				plvs = append(plvs, v)
				continue
			}
			if body := r.BodyLocations(v); len(body) > 0 {
				at, exists := gvAt[v]
				if !exists {
					at = len(p.gvs)
					gvAt[v] = at
					p.gvs = append(p.gvs, body[0])
				}
				p.slots[j] = slot{kind: slotGV, value: at}
				continue
			}
			at, exists := freeAt[v]
			if !exists {
				at = p.free
				freeAt[v] = at
				p.free++
			}
			p.slots[j] = slot{kind: slotFree, value: at}
		}
	}
	// PLV values follow the GV values in the grounding tuple.
	for j := range p.slots {
		if p.slots[j].kind == slotPLV {
			p.slots[j].value += len(p.gvs)
		}
	}
	p.numPLVs = len(plvs)
	for i, v := range plvs {
		loc, _ := c.PLV(v)
		g := p.group(loc.Pred)
		g.args = append(g.args, loc.Arg)
		g.at = append(g.at, len(p.gvs)+i)
	}
	return p
}

func (p *headPlan) group(pred int) *plvGroup {
	for i := range p.plvGroups {
		if p.plvGroups[i].pred == pred {
			return &p.plvGroups[i]
		}
	}
	p.plvGroups = append(p.plvGroups, plvGroup{pred: pred})
	return &p.plvGroups[len(p.plvGroups)-1]
}

// newTuple returns a buffer for grounding tuples.
func (p *headPlan) newTuple() []int {
	return make([]int, len(p.gvs)+p.numPLVs)
}

// forEachGrounding fills 'tuple' with each distinct grounding of entry 'e'
// and calls 'fn' after each. 'tuple' is reused between calls.
func (p *headPlan) forEachGrounding(e entry, tuple []int, fn func()) {
	for i, l := range p.gvs {
		tuple[i] = e[l.Pred].par[l.Arg]
	}
	if len(p.plvGroups) == 0 {
		fn()
		return
	}
	options := make([][][]int, len(p.plvGroups))
	for i, g := range p.plvGroups {
		options[i] = distinctProjections(e[g.pred].cs, g.args)
	}
	// odometer over the options of each group
	digits := make([]int, len(options))
	for {
		for i, g := range p.plvGroups {
			for k, at := range g.at {
				tuple[at] = options[i][digits[i]][k]
			}
		}
		fn()
		i := len(digits) - 1
		for ; i >= 0; i-- {
			digits[i]++
			if digits[i] < len(options[i]) {
				break
			}
			digits[i] = 0
		}
		if i < 0 {
			return
		}
	}
}

// distinctProjections returns the distinct projections of 'rows' onto
// 'cols', in order of first appearance.
func distinctProjections(rows [][]int, cols []int) [][]int {
	seen := make(map[string]struct{})
	var res [][]int
	for _, row := range rows {
		proj := make([]int, len(cols))
		for i, col := range cols {
			proj[i] = row[col]
		}
		key := inttable.RowKey(proj)
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		res = append(res, proj)
	}
	return res
}

// coveredCounts returns the number of distinct head facts reached through
// the pos cache, split into those not yet entailed and those already
// entailed.
func (c *Cache) coveredCounts(head *kb.Relation) (pos, already int) {
	seen := bitset.New(uint(head.Len()))
	for _, e := range c.pos {
		for _, row := range e[0].cs {
			idx := head.RowIndex(row)
			if idx < 0 {
				log.Panicf("rulecache: pos cache row %v is not a fact of %v", row, head)
			}
			if seen.Test(uint(idx)) {
				continue
			}
			seen.Set(uint(idx))
			if head.IsEntailedAt(idx) {
				already++
			} else {
				pos++
			}
		}
	}
	return pos, already
}

// countAll returns the number of distinct head tuples entailed through the
// all cache, where 'numConstants' is the size of the constant domain.
func (c *Cache) countAll(p *headPlan, numConstants int) float64 {
	groundings := make(map[string]struct{})
	tuple := p.newTuple()
	for _, e := range c.all {
		p.forEachGrounding(e, tuple, func() {
			groundings[inttable.RowKey(tuple)] = struct{}{}
		})
	}
	return float64(len(groundings)) * math.Pow(float64(numConstants), float64(p.free))
}
