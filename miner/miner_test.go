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
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/ebay/kbcompress/config"
	"github.com/ebay/kbcompress/kb"
	"github.com/ebay/kbcompress/rule"
	"github.com/ebay/kbcompress/rulecache"
	"github.com/ebay/kbcompress/util/clocks"
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// familyKB returns a KB of 16 constants: fathers f1-f4, mothers m1-m4 and
// children s1-s8. fi is the father of si, and mi is the mother of s(i+4).
// parent is the union of father and mother.
func familyKB(t *testing.T) *kb.KB {
	k := kb.New("family")
	var fathers, mothers [][]string
	for i := 1; i <= 4; i++ {
		fathers = append(fathers, []string{fmt.Sprintf("f%d", i), fmt.Sprintf("s%d", i)})
		mothers = append(mothers, []string{fmt.Sprintf("m%d", i), fmt.Sprintf("s%d", i+4)})
	}
	parents := append(append([][]string(nil), fathers...), mothers...)
	for _, rel := range []struct {
		name  string
		facts [][]string
	}{{"parent", parents}, {"father", fathers}, {"mother", mothers}} {
		_, err := k.AddNamedRelation(rel.name, rel.facts)
		require.NoError(t, err)
	}
	return k
}

func mustParse(t *testing.T, k *kb.KB, text string) *rule.Rule {
	t.Helper()
	r, err := rule.Parse(text, k)
	require.NoError(t, err)
	return r
}

func relation(t *testing.T, k *kb.KB, name string) *kb.Relation {
	rel, exists := k.RelationByName(name)
	require.True(t, exists, "relation %v", name)
	return rel
}

func Test_MineRelation(t *testing.T) {
	k := familyKB(t)
	clock := clocks.NewMock()
	clock.SetStep(time.Millisecond)
	m, err := New(k, config.Miner{Workers: 4}, clock)
	require.NoError(t, err)
	parent := relation(t, k, "parent")
	res, err := m.MineRelation(context.Background(), parent)
	require.NoError(t, err)
	require.Len(t, res.Hypotheses, 2, spew.Sdump(res.Hypotheses))

	var found []string
	for _, h := range res.Hypotheses {
		found = append(found, h.Rule.Fingerprint())
		assert.Len(t, h.Evidence.Groundings, 4)
		assert.Empty(t, h.Counterexamples)
		assert.Equal(t, 4.0, h.Eval.Pos)
		assert.Equal(t, 0.0, h.Eval.Neg)
	}
	expected := []string{
		mustParse(t, k, "parent(X0,X1):-father(X0,X1)").Fingerprint(),
		mustParse(t, k, "parent(X0,X1):-mother(X0,X1)").Fingerprint(),
	}
	sort.Strings(found)
	sort.Strings(expected)
	assert.Equal(t, expected, found)

	assert.Equal(t, 8, parent.EntailedCount())
	assert.Equal(t, 8, res.EntailedFacts())
	assert.Equal(t, 0, res.Counterexamples())
	assert.Equal(t, 4, res.CompressedSize())
	assert.Equal(t, 2.0, res.CompressionRatio())
	assert.True(t, res.Elapsed > 0)

	// Everything is entailed now, so mining again finds nothing.
	res, err = m.MineRelation(context.Background(), parent)
	require.NoError(t, err)
	assert.Empty(t, res.Hypotheses)
}

func Test_MineRelationSpans(t *testing.T) {
	tracer := mocktracer.New()
	opentracing.SetGlobalTracer(tracer)
	defer opentracing.SetGlobalTracer(opentracing.NoopTracer{})

	k := familyKB(t)
	m, err := New(k, config.Miner{Workers: 2}, clocks.NewMock())
	require.NoError(t, err)
	res, err := m.MineRelation(context.Background(), relation(t, k, "parent"))
	require.NoError(t, err)
	require.Len(t, res.Hypotheses, 2)

	byName := make(map[string][]*mocktracer.MockSpan)
	for _, span := range tracer.FinishedSpans() {
		byName[span.OperationName] = append(byName[span.OperationName], span)
	}
	require.Len(t, byName["mine relation"], 1)
	top := byName["mine relation"][0]
	assert.Equal(t, "parent", top.Tag("relation"))
	assert.Equal(t, 2, top.Tag("rules"))

	finds := make(map[int]bool)
	require.Len(t, byName["find rule"], 2)
	for _, span := range byName["find rule"] {
		assert.Equal(t, top.SpanContext.SpanID, span.ParentID)
		steps, ok := span.Tag("steps").(int)
		if assert.True(t, ok, "steps tag: %v", span.Tag("steps")) {
			assert.True(t, steps >= 1, "steps: %v", steps)
		}
		finds[span.SpanContext.SpanID] = true
	}
	require.NotEmpty(t, byName["refine beam"])
	for _, span := range byName["refine beam"] {
		assert.True(t, finds[span.ParentID], "refine beam should be a child of find rule")
		moves, ok := span.Tag("moves").(int)
		if assert.True(t, ok, "moves tag: %v", span.Tag("moves")) {
			assert.True(t, moves > 0, "moves: %v", moves)
		}
	}
}

func Test_MineNothingUseful(t *testing.T) {
	k := kb.New("tiny")
	_, err := k.AddNamedRelation("likes", [][]string{{"a", "b"}, {"c", "d"}})
	require.NoError(t, err)
	m, err := New(k, config.Miner{}, clocks.NewMock())
	require.NoError(t, err)
	results, err := m.Mine(context.Background(), k.Relations())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Hypotheses)
	assert.Equal(t, 0, results[0].Relation.EntailedCount())
	assert.Equal(t, 1.0, results[0].CompressionRatio())
}

func Test_MineCanceled(t *testing.T) {
	k := familyKB(t)
	m, err := New(k, config.Miner{}, clocks.NewMock())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := m.MineRelation(ctx, relation(t, k, "parent"))
	assert.Equal(t, context.Canceled, err)
	assert.Empty(t, res.Hypotheses)
	assert.Equal(t, 0, relation(t, k, "parent").EntailedCount())
}

func Test_MaxRuleLength(t *testing.T) {
	k := familyKB(t)
	m, err := New(k, config.Miner{MaxRuleLength: 1}, clocks.NewMock())
	require.NoError(t, err)
	res, err := m.MineRelation(context.Background(), relation(t, k, "parent"))
	require.NoError(t, err)
	// The useful rules all have length 2.
	assert.Empty(t, res.Hypotheses)
}

func Test_NewInvalidConfig(t *testing.T) {
	_, err := New(familyKB(t), config.Miner{Workers: -1}, clocks.Wall)
	assert.EqualError(t, err, "invalid miner settings: workers must be at least 1, got -1")
}

func Test_appendMoves(t *testing.T) {
	k := familyKB(t)
	m, err := New(k, config.Miner{}, clocks.NewMock())
	require.NoError(t, err)
	env := &rulecache.Env{KB: k}
	root := rulecache.NewCachedRule(env, rule.New(0, 2))
	// Each of the 2 empty arguments can get a fresh variable shared with the
	// other one, or with any argument of a new predicate of each of the 3
	// relations. No parent constant is frequent enough.
	assert.Len(t, m.appendMoves(nil, root), 1+2*6)

	r := rulecache.NewCachedRule(env, mustParse(t, k, "parent(X0,?):-father(X0,?)"))
	moves := m.appendMoves(nil, r)
	// 6 new predicates sharing X0, then 8 moves for the head's empty argument
	// and 11 for father's, which has 4 frequent constants.
	assert.Len(t, moves, 6+8+11)
	r.UpdateCacheIndices()
	statuses := make(map[rule.UpdateStatus]int)
	for _, mv := range moves {
		statuses[mv.apply(mv.base.Clone())]++
	}
	assert.Equal(t, len(moves), statuses[rule.Normal]+statuses[rule.InsufficientCoverage]+statuses[rule.Invalid])
	assert.True(t, statuses[rule.Normal] > 0)
	assert.Equal(t, "parent(X0,?):-father(X0,?)", r.String())
}

func Test_tabuTable(t *testing.T) {
	k := familyKB(t)
	tabu := newTabuTable()
	tabu.add(mustParse(t, k, "parent(X0,?):-father(X0,?)"))
	assert.Equal(t, 1, tabu.len())
	assert.True(t, tabu.prunes(mustParse(t, k, "parent(X0,X1):-father(X0,X1)")))
	assert.True(t, tabu.prunes(mustParse(t, k, "parent(X0,?):-father(X0,s1)")))
	assert.False(t, tabu.prunes(mustParse(t, k, "parent(X0,?):-mother(X0,?)")))
	assert.False(t, tabu.prunes(mustParse(t, k, "parent(?,X0):-father(?,X0)")))
	assert.True(t, tabu.prunes(mustParse(t, k, "parent(X0,?):-father(X0,?),mother(?,?)")))
	assert.True(t, tabu.prunes(mustParse(t, k, "parent(X0,X1):-mother(X1,?),father(X0,?)")))
	assert.False(t, tabu.prunes(mustParse(t, k, "parent(X0,?):-mother(X0,?),parent(?,X0)")))
	assert.False(t, tabu.prunes(mustParse(t, k, "father(X0,?):-father(X0,?)")))
	tabu.reset()
	assert.Equal(t, 0, tabu.len())
	assert.False(t, tabu.prunes(mustParse(t, k, "parent(X0,X1):-father(X0,X1)")))
}

func Test_ResultCompressionRatio(t *testing.T) {
	k := familyKB(t)
	res := Result{Relation: relation(t, k, "parent")}
	assert.Equal(t, 8, res.CompressedSize())
	assert.Equal(t, 1.0, res.CompressionRatio())
	res.Hypotheses = []Hypothesis{{
		Rule:            mustParse(t, k, "parent(X0,?):-father(X0,?)"),
		Evidence:        rulecache.Evidence{Groundings: make([][][]int, 4)},
		Counterexamples: make([][]int, 2),
	}}
	// 8 - 4 entailed + 2 counterexamples + 1 for the rule.
	assert.Equal(t, 7, res.CompressedSize())
	assert.InDelta(t, 8.0/7.0, res.CompressionRatio(), 1e-9)
}
