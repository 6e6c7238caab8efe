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

package rule

import (
	"sort"
	"strconv"
	"strings"

	"github.com/ebay/kbcompress/util/cmp"
)

// class is a set of argument slots that the rule constrains to hold the same
// value: the slots of one variable, or a slot bound to a constant.
type class struct {
	// constant is the constant the slots are bound to, 0 for a variable.
	constant int
	// labels are the sorted labels of the slots, see label.
	labels []string
}

func (c class) String() string {
	s := strings.Join(c.labels, ",")
	if c.constant != 0 {
		s += "=" + strconv.Itoa(c.constant)
	}
	return s
}

// label names an argument slot by its relation and argument index, rather
// than its predicate position, so that it's independent of the order of the
// body predicates. Head slots are prefixed with 'H'.
func (r *Rule) label(l Location) string {
	s := strconv.Itoa(r.preds[l.Pred].Relation) + "." + strconv.Itoa(l.Arg)
	if l.InHead() {
		return "H" + s
	}
	return s
}

func (r *Rule) classes() []class {
	res := make([]class, 0, len(r.occurrences)+r.constants)
	for _, locs := range r.occurrences {
		c := class{labels: make([]string, len(locs))}
		for i, l := range locs {
			c.labels[i] = r.label(l)
		}
		sort.Strings(c.labels)
		res = append(res, c)
	}
	for p, pred := range r.preds {
		for a, arg := range pred.Args {
			if arg.Kind == Constant {
				res = append(res, class{
					constant: arg.Value,
					labels:   []string{r.label(Location{Pred: p, Arg: a})},
				})
			}
		}
	}
	return res
}

// Fingerprint returns a canonical description of the rule's constraints. It
// doesn't depend on variable ids or on the order of the body predicates, so
// equivalent rules reached by different refinement paths have the same
// fingerprint. Rules with repeated body relations may collide even though
// they're not equivalent.
func (r *Rule) Fingerprint() string {
	return cmp.GetKey(r)
}

// Key implements cmp.Key.
func (r *Rule) Key(b *strings.Builder) {
	classes := r.classes()
	strs := make([]string, len(classes))
	for i, c := range classes {
		strs[i] = c.String()
	}
	sort.Strings(strs)
	b.WriteString("H")
	b.WriteString(strconv.Itoa(r.preds[0].Relation))
	b.WriteByte('/')
	b.WriteString(strconv.Itoa(len(r.preds[0].Args)))
	b.WriteByte('|')
	b.WriteString(strings.Join(strs, ";"))
}

// RelationMultiset returns a key listing the head relation followed by the
// sorted body relations.
func (r *Rule) RelationMultiset() string {
	return multisetKey(r.preds[0].Relation, r.bodyRelations())
}

// SubRelationMultisets returns the RelationMultiset keys of every rule with
// the same head relation whose body relations are a sub-multiset of r's,
// including r's own key and the key of an empty body. Only such rules may
// subsume r.
func (r *Rule) SubRelationMultisets() []string {
	body := r.bodyRelations()
	var keys []string
	var walk func(i int, picked []int)
	walk = func(i int, picked []int) {
		if i == len(body) {
			keys = append(keys, multisetKey(r.preds[0].Relation, picked))
			return
		}
		// Take 0 to n copies of body[i], then move past all of them.
		j := i
		for j < len(body) && body[j] == body[i] {
			j++
		}
		for n := 0; n <= j-i; n++ {
			walk(j, append(picked, body[i:i+n]...))
		}
	}
	walk(0, make([]int, 0, len(body)))
	return keys
}

// bodyRelations returns the sorted relations of r's body predicates.
func (r *Rule) bodyRelations() []int {
	body := make([]int, 0, len(r.preds)-1)
	for _, p := range r.preds[1:] {
		body = append(body, p.Relation)
	}
	sort.Ints(body)
	return body
}

func multisetKey(head int, body []int) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(head))
	b.WriteByte(':')
	for i, rel := range body {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(rel))
	}
	return b.String()
}

func (r *Rule) hasRepeatedBodyRelation() bool {
	seen := make(map[int]bool, len(r.preds))
	for _, p := range r.preds[1:] {
		if seen[p.Relation] {
			return true
		}
		seen[p.Relation] = true
	}
	return false
}

// Subsumes returns true if every constraint of 'general' is also a constraint
// of 'specific', which means every grounding of 'specific' is a grounding of
// 'general'. It's conservative: when either rule repeats a body relation it
// returns false, as slots can't be matched up by relation alone.
func Subsumes(general, specific *Rule) bool {
	if general.preds[0].Relation != specific.preds[0].Relation {
		return false
	}
	if general.hasRepeatedBodyRelation() || specific.hasRepeatedBodyRelation() {
		return false
	}
	specificClasses := specific.classes()
	classOf := make(map[string]int)
	for i, c := range specificClasses {
		for _, l := range c.labels {
			classOf[l] = i
		}
	}
	for _, c := range general.classes() {
		first, exists := classOf[c.labels[0]]
		if !exists {
			return false
		}
		for _, l := range c.labels[1:] {
			if i, exists := classOf[l]; !exists || i != first {
				return false
			}
		}
		if c.constant != 0 && specificClasses[first].constant != c.constant {
			return false
		}
	}
	return true
}
