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

// Package miner searches a KB for rules that compress it. For each target
// relation it repeatedly runs a beam search over refinements of the rule with
// an empty body, and accepts the best rule found as long as that shrinks the
// KB. The facts an accepted rule entails are marked as such, so later rules
// are scored on what remains.
package miner

import (
	"context"
	"fmt"
	"sort"

	"github.com/ebay/kbcompress/config"
	"github.com/ebay/kbcompress/eval"
	"github.com/ebay/kbcompress/kb"
	"github.com/ebay/kbcompress/rule"
	"github.com/ebay/kbcompress/rulecache"
	"github.com/ebay/kbcompress/util/clocks"
	"github.com/ebay/kbcompress/util/parallel"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/opentracing/opentracing-go"
	log "github.com/sirupsen/logrus"
)

// Miner finds rules for the relations of a KB. A Miner marks facts of the KB
// as entailed, and it's not safe for concurrent use.
type Miner struct {
	kb    *kb.KB
	cfg   config.Miner
	clock clocks.Source
	env   *rulecache.Env
	// explored holds the fingerprints of the rules seen during the current
	// search.
	explored *lru.Cache[string, struct{}]
	tabu     *tabuTable
	// promising caches kb.Relation.PromisingConstants by relation id and
	// column.
	promising map[[2]int][]int
}

// New returns a Miner for 'k'. Zero settings in 'cfg' take their default
// values.
func New(k *kb.KB, cfg config.Miner, clock clocks.Source) (*Miner, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid miner settings: %w", err)
	}
	explored, err := lru.New[string, struct{}](cfg.ExploredCacheSize)
	if err != nil {
		return nil, err
	}
	m := &Miner{
		kb:        k,
		cfg:       cfg,
		clock:     clock,
		explored:  explored,
		tabu:      newTabuTable(),
		promising: make(map[[2]int][]int),
	}
	m.env = &rulecache.Env{
		KB:              k,
		MinFactCoverage: cfg.MinFactCoverage,
		Explored:        m.seen,
		Tabu:            m.tabu.prunes,
	}
	return m, nil
}

// seen records the fingerprint and returns true if it was already recorded.
// It's called concurrently from candidate evaluations.
func (m *Miner) seen(fingerprint string) bool {
	found, _ := m.explored.ContainsOrAdd(fingerprint, struct{}{})
	return found
}

// Mine runs MineRelation for each of the given relations in turn. It returns
// the results gathered so far along with the first error.
func (m *Miner) Mine(ctx context.Context, relations []*kb.Relation) ([]*Result, error) {
	results := make([]*Result, 0, len(relations))
	for _, rel := range relations {
		res, err := m.MineRelation(ctx, rel)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// MineRelation accepts rules with 'head' as their head relation until no
// useful rule remains. The facts of 'head' that the accepted rules entail are
// marked as entailed. If 'ctx' expires, MineRelation returns the rules
// accepted so far and the context's error.
func (m *Miner) MineRelation(ctx context.Context, head *kb.Relation) (*Result, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "mine relation")
	span.SetTag("relation", head.Name())
	defer span.Finish()
	start := m.clock.Now()
	m.tabu.reset()
	res := &Result{Relation: head}
	defer func() {
		res.Elapsed = m.clock.Now().Sub(start)
		metrics.relationLatency.Observe(res.Elapsed.Seconds())
	}()
	for head.EntailedCount() < head.Len() {
		best, err := m.findRule(ctx, head)
		if err != nil {
			return res, err
		}
		if best == nil {
			break
		}
		h := m.accept(best)
		res.Hypotheses = append(res.Hypotheses, h)
		log.WithFields(log.Fields{
			"relation":        head.Name(),
			"rule":            h.Rule.Format(m.kb),
			"eval":            h.Eval,
			"entailed":        len(h.Evidence.Groundings),
			"counterexamples": len(h.Counterexamples),
		}).Info("Accepted rule")
	}
	span.SetTag("rules", len(res.Hypotheses))
	return res, nil
}

// candidate is a refined rule and its score.
type candidate struct {
	cr   *rulecache.CachedRule
	eval eval.Eval
}

// findRule beam searches for the best rule with 'head' as its head relation.
// It returns nil if no useful rule was found.
func (m *Miner) findRule(ctx context.Context, head *kb.Relation) (*candidate, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "find rule")
	defer span.Finish()
	start := m.clock.Now()
	defer func() {
		metrics.searchLatency.Observe(m.clock.Now().Sub(start).Seconds())
	}()
	// Entailment marks changed since the last search, so earlier scores are
	// stale.
	m.explored.Purge()
	root := rulecache.NewCachedRule(m.env, rule.New(head.ID(), head.Arity()))
	m.seen(root.Rule().Fingerprint())
	best := candidate{cr: root, eval: root.Evaluate()}
	beam := []candidate{best}
	steps := 0
	for !m.good(best.eval) {
		next, err := m.refine(ctx, beam)
		if err != nil {
			return nil, err
		}
		steps++
		if len(next) == 0 || !next[0].eval.Better(best.eval, m.cfg.Metric) {
			break
		}
		best, beam = next[0], next
	}
	metrics.beamSteps.Observe(float64(steps))
	span.SetTag("steps", steps)
	if !best.eval.Useful() {
		log.WithFields(log.Fields{
			"relation": head.Name(),
			"best":     best.cr,
			"eval":     best.eval,
		}).Debug("No useful rule left")
		return nil, nil
	}
	return &best, nil
}

// good returns true if a rule scoring 'e' should be accepted without trying to
// refine it further.
func (m *Miner) good(e eval.Eval) bool {
	return e.Useful() && e.Value(eval.CompressionRatio) >= m.cfg.StopCompressionRatio
}

// refine applies every refinement move to each rule of the beam, and returns
// the best resulting rules, at most BeamWidth of them, best first. Rules at
// the maximum length aren't refined.
func (m *Miner) refine(ctx context.Context, beam []candidate) ([]candidate, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "refine beam")
	defer span.Finish()
	var moves []move
	for _, c := range beam {
		if c.cr.Rule().Length() >= m.cfg.MaxRuleLength {
			continue
		}
		// Moves on clones run concurrently below, so the shared indexes are
		// built now.
		c.cr.UpdateCacheIndices()
		moves = m.appendMoves(moves, c.cr)
	}
	span.SetTag("moves", len(moves))
	results := make([]candidate, len(moves))
	err := parallel.InvokeN(ctx, len(moves), m.cfg.Workers, func(ctx context.Context, i int) error {
		cr := moves[i].base.Clone()
		status := moves[i].apply(cr)
		metrics.candidates.WithLabelValues(status.String()).Inc()
		switch status {
		case rule.Normal:
			results[i] = candidate{cr: cr, eval: cr.Evaluate()}
		case rule.InsufficientCoverage:
			m.tabu.add(cr.Rule())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	next := results[:0]
	for _, c := range results {
		if c.cr != nil {
			next = append(next, c)
		}
	}
	sort.SliceStable(next, func(i, j int) bool {
		return next[i].eval.Better(next[j].eval, m.cfg.Metric)
	})
	if len(next) > m.cfg.BeamWidth {
		next = next[:m.cfg.BeamWidth]
	}
	return next, nil
}

// accept marks the facts the rule entails and releases its caches. It must
// not run concurrently with any rule evaluation.
//
// TODO: record which facts each accepted rule used as evidence, so that facts
// entailed only through a cycle of rules can be kept in the remaining KB.
func (m *Miner) accept(c *candidate) Hypothesis {
	h := Hypothesis{
		Rule:            c.cr.Rule(),
		Eval:            c.eval,
		Counterexamples: c.cr.Counterexamples(),
		Evidence:        c.cr.EvidenceAndMarkEntailment(),
	}
	c.cr.ReleaseCaches()
	metrics.acceptedRules.Inc()
	return h
}

// promisingConstants returns the constants worth trying in column 'col' of
// relation 'rel'.
func (m *Miner) promisingConstants(rel, col int) []int {
	key := [2]int{rel, col}
	consts, cached := m.promising[key]
	if !cached {
		consts = m.kb.Relation(rel).PromisingConstants(col, m.cfg.MinConstantCoverage)
		m.promising[key] = consts
	}
	return consts
}

