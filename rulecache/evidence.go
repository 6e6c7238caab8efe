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
	"github.com/ebay/kbcompress/kb"
)

// Evidence lists the groundings through which a rule entails facts of its
// head relation for the first time.
type Evidence struct {
	// Relations holds the relation id of each predicate of the rule, head
	// first.
	Relations []int
	// Groundings holds one grounding per newly entailed fact. A grounding is
	// the head fact followed by one row for each body predicate.
	Groundings [][][]int
}

// evidenceAndMarkEntailment marks every head fact reached through the pos
// cache as entailed, and returns a grounding for each fact that wasn't
// already marked. Within an entry every variable has a single value, so any
// row of each body block completes the grounding of any head row.
func (c *Cache) evidenceAndMarkEntailment(head *kb.Relation, relations []int) Evidence {
	ev := Evidence{Relations: relations}
	for _, e := range c.pos {
		body := make([][]int, len(e)-1)
		for i, b := range e[1:] {
			body[i] = b.cs[0]
		}
		for _, row := range e[0].cs {
			if !head.EntailIfNot(row) {
				continue
			}
			grounding := make([][]int, 0, len(e))
			grounding = append(grounding, row)
			grounding = append(grounding, body...)
			ev.Groundings = append(ev.Groundings, grounding)
		}
	}
	return ev
}
