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
	"testing"

	"github.com/ebay/kbcompress/rule"
	"github.com/stretchr/testify/assert"
)

func Test_New(t *testing.T) {
	k := familyKB(t)
	c := New(k.Relation(parent))
	assert.Equal(t, 1, c.NumPosEntries())
	assert.Equal(t, 1, c.NumAllEntries())
	assert.Nil(t, c.all[0][0], "the all cache has no head block")
	assert.Same(t, k.Relation(parent).Table(), c.pos[0][0].index)
}

func Test_Construct(t *testing.T) {
	k := familyKB(t)
	tests := []struct {
		rule     string
		pos, all int
		plvs     []int
	}{
		{"parent(X,?):-father(X,?)", 4, 1, []int{0}},
		{"parent(X,Y):-father(X,Y)", 4, 1, []int{0, 1}},
		{"parent(X,?):-father(X,Y),mother(?,Y)", 0, 0, []int{0}},
		{"parent(X,?):-father(X,m1)", 0, 0, []int{0}},
		{"parent(X,?):-father(X,s2)", 1, 1, []int{0}},
		{"parent(X,X):-father(X,?)", 0, 4, nil},
		{"parent(f1,?):-father(X,X)", 0, 0, nil},
	}
	for _, test := range tests {
		t.Run(test.rule, func(t *testing.T) {
			c := Construct(k, mustParse(t, k, test.rule))
			assert.Equal(t, test.pos, c.NumPosEntries())
			assert.Equal(t, test.all, c.NumAllEntries())
			var plvs []int
			for v := range c.plvs {
				if _, isPLV := c.PLV(v); isPLV {
					plvs = append(plvs, v)
				}
			}
			assert.Equal(t, test.plvs, plvs)
		})
	}
	assert.Panics(t, func() {
		Construct(k, rule.New(7, 2))
	})
	assert.Panics(t, func() {
		Construct(k, rule.New(parent, 3))
	})
}

func Test_groupByPred(t *testing.T) {
	locs := []rule.Location{{Pred: 0, Arg: 1}, {Pred: 2, Arg: 0}, {Pred: 0, Arg: 0}, {Pred: 2, Arg: 1}}
	assert.Equal(t, []predArgs{
		{pred: 0, args: []int{1, 0}},
		{pred: 2, args: []int{0, 1}},
	}, groupByPred(locs))
}

func Test_splitEntriesSamePredicate(t *testing.T) {
	k := familyKB(t)
	rel, err := k.AddRelation("likes", [][]int{{1, 1}, {1, 2}, {2, 2}, {3, 4}})
	if !assert.NoError(t, err) {
		return
	}
	entries := []entry{{wholeRelation(rel)}}
	split := splitEntries(entries, []rule.Location{{Pred: 0, Arg: 0}, {Pred: 0, Arg: 1}})
	if assert.Len(t, split, 2) {
		assert.Equal(t, [][]int{{1, 1}}, split[0][0].cs)
		assert.Equal(t, []int{1, 1}, split[0][0].par)
		assert.Equal(t, [][]int{{2, 2}}, split[1][0].cs)
	}
	grouped := splitEntries(entries, []rule.Location{{Pred: 0, Arg: 0}})
	if assert.Len(t, grouped, 3) {
		assert.Equal(t, [][]int{{1, 1}, {1, 2}}, grouped[0][0].cs)
		assert.Equal(t, []int{1, 0}, grouped[0][0].par)
		assert.Nil(t, grouped[0][0].index)
	}
	assert.Equal(t, [][]int{{1, 1}, {1, 2}, {2, 2}, {3, 4}}, entries[0][0].cs, "the input is unchanged")
}
