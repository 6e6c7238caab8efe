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
	"sync"

	"github.com/ebay/kbcompress/rule"
)

// tabuTable remembers rules whose coverage was insufficient. Coverage only
// shrinks as rules are refined and as facts get entailed, so any rule that
// one of these subsumes can be pruned without evaluating it. Rules are grouped
// by their relation multiset. A rule can only be subsumed by rules whose
// relations are a sub-multiset of its own, so only those groups are searched.
// It's safe for concurrent use.
type tabuTable struct {
	lock  sync.RWMutex
	rules map[string][]*rule.Rule
	size  int
}

func newTabuTable() *tabuTable {
	return &tabuTable{rules: make(map[string][]*rule.Rule)}
}

// add records 'r' as having insufficient coverage.
func (t *tabuTable) add(r *rule.Rule) {
	key := r.RelationMultiset()
	t.lock.Lock()
	t.rules[key] = append(t.rules[key], r)
	t.size++
	size := t.size
	t.lock.Unlock()
	metrics.tabuRules.Set(float64(size))
}

// prunes returns true if a recorded rule subsumes 'r'.
func (t *tabuTable) prunes(r *rule.Rule) bool {
	t.lock.RLock()
	defer t.lock.RUnlock()
	if len(t.rules) == 0 {
		return false
	}
	for _, key := range r.SubRelationMultisets() {
		for _, general := range t.rules[key] {
			if rule.Subsumes(general, r) {
				return true
			}
		}
	}
	return false
}

func (t *tabuTable) len() int {
	t.lock.RLock()
	defer t.lock.RUnlock()
	return t.size
}

// reset forgets every recorded rule. The table must be reset when the head
// relation changes.
func (t *tabuTable) reset() {
	t.lock.Lock()
	t.rules = make(map[string][]*rule.Rule)
	t.size = 0
	t.lock.Unlock()
	metrics.tabuRules.Set(0)
}
