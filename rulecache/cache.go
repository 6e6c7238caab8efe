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
	"github.com/ebay/kbcompress/rule"
	log "github.com/sirupsen/logrus"
)

// entry is one way of satisfying the body of a rule: entry[i] holds the rows
// of predicate i that are compatible with it. Entries are never modified once
// built.
type entry []*block

// Cache holds the compliance sets of a rule, split into entries such that
// evaluation can read counts off them without joining relations again.
//
// The pos cache includes the head predicate and is split on every variable,
// so every variable holds a single value within an entry. It covers the head
// relation facts the rule entails.
//
// The all cache leaves the head predicate out (its slot is nil) and is only
// split on body occurrences: it describes every head tuple the rule entails,
// whether or not it's a fact. Private variables (one head occurrence, one body
// occurrence) aren't split on there; their body location is recorded in plvs
// instead, and their values are enumerated when counting.
//
// A Cache is immutable: every operation returns a new Cache sharing what it
// can with the receiver.
type Cache struct {
	pos  []entry
	all  []entry
	plvs []*rule.Location
}

// New returns the cache of a rule whose body is empty and whose head of
// relation 'head' has no constraints.
func New(head *kb.Relation) *Cache {
	return &Cache{
		pos: []entry{{wholeRelation(head)}},
		all: []entry{{nil}},
	}
}

// Construct builds the cache of 'r' from scratch, applying the constants and
// then each variable in turn. It panics if the rule doesn't match the
// relations in 'k'.
func Construct(k *kb.KB, r *rule.Rule) *Cache {
	rels := make([]*kb.Relation, r.Len())
	for i := range rels {
		rels[i] = relation(k, r.Relation(i), r.Arity(i))
	}
	c := New(rels[0])
	for _, rel := range rels[1:] {
		c = c.appendPredicate(rel)
	}
	for p := 0; p < r.Len(); p++ {
		for a := 0; a < r.Arity(p); a++ {
			loc := rule.Location{Pred: p, Arg: a}
			if arg := r.Arg(loc); arg.Kind == rule.Constant {
				c.buildIndices()
				c = c.assign(loc, arg.Value)
			}
		}
	}
	for v := 0; v < r.NumVars(); v++ {
		c.buildIndices()
		c = c.splitPos(r.Locations(v))
		body := r.BodyLocations(v)
		switch {
		case r.IsPLV(v):
			c = c.withPLV(v, &body[0])
		case len(body) > 0:
			c = c.splitAll(body)
		}
	}
	return c
}

// relation returns relation 'id' of 'k', which must have the given arity.
func relation(k *kb.KB, id, arity int) *kb.Relation {
	rel := k.Relation(id)
	if rel == nil {
		log.Panicf("rulecache: unknown relation %d", id)
	}
	if rel.Arity() != arity {
		log.Panicf("rulecache: relation %v used with %d arguments", rel, arity)
	}
	return rel
}

// NumPosEntries returns the number of entries in the pos cache.
func (c *Cache) NumPosEntries() int {
	return len(c.pos)
}

// NumAllEntries returns the number of entries in the all cache.
func (c *Cache) NumAllEntries() int {
	return len(c.all)
}

// PLV returns the body location of variable 'v' if it's recorded as a
// private variable.
func (c *Cache) PLV(v int) (rule.Location, bool) {
	if v < len(c.plvs) && c.plvs[v] != nil {
		return *c.plvs[v], true
	}
	return rule.Location{}, false
}

// buildIndices builds the index of every block in the cache. It must be
// called before splitting or assigning on the cache.
func (c *Cache) buildIndices() {
	for _, entries := range [][]entry{c.pos, c.all} {
		for _, e := range entries {
			for _, b := range e {
				if b != nil {
					b.buildIndexIfAbsent()
				}
			}
		}
	}
}

// appendPredicate returns a cache with a new body predicate of relation
// 'rel', unconstrained, at the end of every entry.
func (c *Cache) appendPredicate(rel *kb.Relation) *Cache {
	b := wholeRelation(rel)
	return &Cache{
		pos:  appendEntries(c.pos, b),
		all:  appendEntries(c.all, b),
		plvs: c.plvs,
	}
}

// assign returns a cache in which argument 'loc' is bound to 'value'. The
// all cache is only constrained when 'loc' is in the body.
func (c *Cache) assign(loc rule.Location, value int) *Cache {
	res := &Cache{
		pos:  assignEntries(c.pos, loc, value),
		all:  c.all,
		plvs: c.plvs,
	}
	if !loc.InHead() {
		res.all = assignEntries(c.all, loc, value)
	}
	return res
}

// splitPos returns a cache whose pos entries are split such that all of
// 'locs' hold the same value within each entry.
func (c *Cache) splitPos(locs []rule.Location) *Cache {
	return &Cache{
		pos:  splitEntries(c.pos, locs),
		all:  c.all,
		plvs: c.plvs,
	}
}

// splitAll is like splitPos for the all cache. 'locs' must all be in the
// body.
func (c *Cache) splitAll(locs []rule.Location) *Cache {
	for _, l := range locs {
		if l.InHead() {
			log.Panicf("rulecache: can't split the all cache on head location %v", l)
		}
	}
	return &Cache{
		pos:  c.pos,
		all:  splitEntries(c.all, locs),
		plvs: c.plvs,
	}
}

// withPLV returns a cache that records 'loc' as the body location of private
// variable 'v', or forgets 'v' if 'loc' is nil.
func (c *Cache) withPLV(v int, loc *rule.Location) *Cache {
	plvs := make([]*rule.Location, max(len(c.plvs), v+1))
	copy(plvs, c.plvs)
	plvs[v] = loc
	return &Cache{pos: c.pos, all: c.all, plvs: plvs}
}

func appendEntries(entries []entry, b *block) []entry {
	res := make([]entry, len(entries))
	for i, e := range entries {
		ne := make(entry, len(e), len(e)+1)
		copy(ne, e)
		res[i] = append(ne, b)
	}
	return res
}

func assignEntries(entries []entry, loc rule.Location, value int) []entry {
	var res []entry
	for _, e := range entries {
		b := e[loc.Pred]
		rows := b.mustIndex().Slice(loc.Arg, value)
		if len(rows) == 0 {
			continue
		}
		ne := make(entry, len(e))
		copy(ne, e)
		ne[loc.Pred] = b.bind([]int{loc.Arg}, value, rows)
		res = append(res, ne)
	}
	return res
}

// predArgs lists the arguments of one predicate.
type predArgs struct {
	pred int
	args []int
}

// groupByPred groups 'locs' by predicate, in order of first appearance.
func groupByPred(locs []rule.Location) []predArgs {
	var res []predArgs
outer:
	for _, l := range locs {
		for i := range res {
			if res[i].pred == l.Pred {
				res[i].args = append(res[i].args, l.Arg)
				continue outer
			}
		}
		res = append(res, predArgs{pred: l.Pred, args: []int{l.Arg}})
	}
	return res
}

// splitEntries replaces each entry with one entry per value that all of
// 'locs' can take together in it. Entries where the locations can't agree on
// any value are dropped. With a single location, the entry is split by the
// distinct values of that argument.
func splitEntries(entries []entry, locs []rule.Location) []entry {
	groups := groupByPred(locs)
	tables := make([]*inttable.Table, len(groups))
	cols := make([]int, len(groups))
	var res []entry
	for _, e := range entries {
		matchable := true
		for i, g := range groups {
			t := e[g.pred].mustIndex()
			if len(g.args) > 1 {
				rows := t.FilterEqual(g.args...)
				if len(rows) == 0 {
					matchable = false
					break
				}
				t = inttable.MustBuild(rows)
			}
			tables[i] = t
			cols[i] = g.args[0]
		}
		if !matchable {
			continue
		}
		for _, m := range inttable.MatchSlicesN(tables, cols) {
			ne := make(entry, len(e))
			copy(ne, e)
			for i, g := range groups {
				ne[g.pred] = e[g.pred].bind(g.args, m.Value, m.Slices[i])
			}
			res = append(res, ne)
		}
	}
	return res
}
