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
	"math/rand"
	"testing"

	"github.com/ebay/kbcompress/eval"
	"github.com/ebay/kbcompress/kb"
	"github.com/ebay/kbcompress/rule"
	"github.com/stretchr/testify/require"
)

// Relation ids in familyKB.
const (
	parent = iota
	father
	mother
)

// familyKB returns a KB of 16 constants: 4 fathers f1-f4 (ids 1-4), 4 mothers
// m1-m4 (ids 5-8) and 8 children s1-s8 (ids 9-16). fi is the father of si,
// and mi is the mother of s(i+4).
func familyKB(t *testing.T) *kb.KB {
	k := kb.New("family")
	var names []string
	for _, prefix := range []string{"f", "m"} {
		for i := 1; i <= 4; i++ {
			names = append(names, fmt.Sprintf("%s%d", prefix, i))
		}
	}
	for i := 1; i <= 8; i++ {
		names = append(names, fmt.Sprintf("s%d", i))
	}
	k.Numerate(names...)
	var parents, fathers, mothers [][]int
	for i := 1; i <= 4; i++ {
		fathers = append(fathers, []int{i, 8 + i})
		mothers = append(mothers, []int{4 + i, 12 + i})
	}
	parents = append(parents, fathers...)
	parents = append(parents, mothers...)
	for _, rel := range []struct {
		name string
		rows [][]int
	}{{"parent", parents}, {"father", fathers}, {"mother", mothers}} {
		_, err := k.AddRelation(rel.name, clone(rel.rows))
		require.NoError(t, err)
	}
	return k
}

// randomKB returns a KB of 'numConstants' constants with 3 binary relations
// and 1 ternary relation of random rows. About a third of the facts are
// already marked as entailed.
func randomKB(t *testing.T, rng *rand.Rand, numConstants int) *kb.KB {
	k := kb.New("random")
	for i := 1; i <= numConstants; i++ {
		k.Numerate(fmt.Sprintf("c%d", i))
	}
	for i, arity := range []int{2, 2, 2, 3} {
		seen := make(map[string]bool)
		var rows [][]int
		for len(rows) < 10 {
			row := make([]int, arity)
			for j := range row {
				row[j] = 1 + rng.Intn(numConstants)
			}
			if key := fmt.Sprint(row); !seen[key] {
				seen[key] = true
				rows = append(rows, row)
			}
		}
		rel, err := k.AddRelation(fmt.Sprintf("r%d", i), rows)
		require.NoError(t, err)
		for _, row := range rel.AllRows() {
			if rng.Intn(3) == 0 {
				rel.EntailIfNot(row)
			}
		}
	}
	return k
}

func clone(rows [][]int) [][]int {
	res := make([][]int, len(rows))
	for i, row := range rows {
		res[i] = append([]int(nil), row...)
	}
	return res
}

func mustParse(t *testing.T, k *kb.KB, text string) *rule.Rule {
	t.Helper()
	r, err := rule.Parse(text, k)
	require.NoError(t, err)
	return r
}

// bruteForce evaluates a rule by enumerating every possible head tuple and
// searching the body for a grounding.
type bruteForce struct {
	k *kb.KB
	r *rule.Rule
	// entailed holds every head tuple the rule entails, in ascending order.
	entailed        [][]int
	pos, already    int
	counterexamples [][]int
}

var _ eval.Strategy = (*bruteForce)(nil)

func newBruteForce(k *kb.KB, r *rule.Rule) *bruteForce {
	b := &bruteForce{k: k, r: r}
	head := k.Relation(r.Relation(0))
	tuple := make([]int, r.Arity(0))
	var walk func(i int)
	walk = func(i int) {
		if i == len(tuple) {
			if b.holds(tuple) {
				b.entailed = append(b.entailed, append([]int(nil), tuple...))
			}
			return
		}
		for c := 1; c <= k.TotalConstants(); c++ {
			tuple[i] = c
			walk(i + 1)
		}
	}
	walk(0)
	for _, t := range b.entailed {
		switch {
		case !head.HasRow(t):
			b.counterexamples = append(b.counterexamples, t)
		case head.IsEntailed(t):
			b.already++
		default:
			b.pos++
		}
	}
	return b
}

func (b *bruteForce) holds(tuple []int) bool {
	binding := make(map[int]int)
	if _, ok := match(b.r.Head(), tuple, binding); !ok {
		return false
	}
	return b.body(1, binding)
}

func (b *bruteForce) body(i int, binding map[int]int) bool {
	if i == b.r.Len() {
		return true
	}
	p := b.r.Pred(i)
	for _, row := range b.k.Relation(p.Relation).AllRows() {
		bound, ok := match(p, row, binding)
		if !ok {
			continue
		}
		if b.body(i+1, binding) {
			return true
		}
		for _, v := range bound {
			delete(binding, v)
		}
	}
	return false
}

// match extends 'binding' so that predicate 'p' holds for 'row'. It returns
// the variables it bound. On failure 'binding' is left unchanged.
func match(p rule.Predicate, row []int, binding map[int]int) ([]int, bool) {
	var bound []int
	for j, a := range p.Args {
		ok := true
		switch a.Kind {
		case rule.Constant:
			ok = row[j] == a.Value
		case rule.Variable:
			if v, exists := binding[a.Value]; exists {
				ok = v == row[j]
			} else {
				binding[a.Value] = row[j]
				bound = append(bound, a.Value)
			}
		}
		if !ok {
			for _, v := range bound {
				delete(binding, v)
			}
			return nil, false
		}
	}
	return bound, true
}

func (b *bruteForce) EvidenceCount() int {
	return b.pos
}

func (b *bruteForce) CounterexampleCount() float64 {
	return float64(len(b.counterexamples))
}

func (b *bruteForce) FactCoverage() float64 {
	return float64(b.pos) / float64(b.k.Relation(b.r.Relation(0)).Len())
}

func (b *bruteForce) AlreadyEntailedCount() int {
	return b.already
}
