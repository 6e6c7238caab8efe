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

package miner

import (
	"github.com/ebay/kbcompress/rule"
	"github.com/ebay/kbcompress/rulecache"
)

// move is one refinement of a beam rule. apply runs it on a clone of base.
type move struct {
	base  *rulecache.CachedRule
	apply func(*rulecache.CachedRule) rule.UpdateStatus
}

// appendMoves appends to 'moves' every refinement of 'base': binding each
// empty argument to an existing variable, a fresh variable shared with another
// empty argument or a new predicate, or a promising constant, and adding a
// predicate that shares an existing variable.
func (m *Miner) appendMoves(moves []move, base *rulecache.CachedRule) []move {
	r := base.Rule()
	add := func(apply func(*rulecache.CachedRule) rule.UpdateStatus) {
		moves = append(moves, move{base: base, apply: apply})
	}
	rels := m.kb.Relations()
	for v := 0; v < r.NumVars(); v++ {
		for _, rel := range rels {
			for arg := 0; arg < rel.Arity(); arg++ {
				v, rel, arg := v, rel, arg
				add(func(cr *rulecache.CachedRule) rule.UpdateStatus {
					return cr.BindExistingNewPredicate(rel.ID(), rel.Arity(), arg, v)
				})
			}
		}
	}
	empty := r.EmptyLocations()
	for i, loc := range empty {
		loc := loc
		for v := 0; v < r.NumVars(); v++ {
			v := v
			add(func(cr *rulecache.CachedRule) rule.UpdateStatus {
				return cr.BindExisting(loc, v)
			})
		}
		for _, other := range empty[i+1:] {
			other := other
			add(func(cr *rulecache.CachedRule) rule.UpdateStatus {
				return cr.BindFresh(loc, other)
			})
		}
		for _, rel := range rels {
			for arg := 0; arg < rel.Arity(); arg++ {
				rel, arg := rel, arg
				add(func(cr *rulecache.CachedRule) rule.UpdateStatus {
					return cr.BindFreshNewPredicate(loc, rel.ID(), rel.Arity(), arg)
				})
			}
		}
		for _, c := range m.promisingConstants(r.Relation(loc.Pred), loc.Arg) {
			c := c
			add(func(cr *rulecache.CachedRule) rule.UpdateStatus {
				return cr.BindConstant(loc, c)
			})
		}
	}
	return moves
}
