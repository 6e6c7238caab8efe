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
	"time"

	"github.com/ebay/kbcompress/eval"
	"github.com/ebay/kbcompress/kb"
	"github.com/ebay/kbcompress/rule"
	"github.com/ebay/kbcompress/rulecache"
)

// Hypothesis is an accepted rule.
type Hypothesis struct {
	Rule *rule.Rule
	// Eval is the score of the rule when it was accepted.
	Eval eval.Eval
	// Evidence holds a grounding for each fact the rule newly entailed.
	Evidence rulecache.Evidence
	// Counterexamples are the tuples the rule entails that aren't facts, in
	// ascending order. They must be kept alongside the rule to reconstruct
	// the relation.
	Counterexamples [][]int
}

// Result lists the rules accepted for one head relation.
type Result struct {
	Relation   *kb.Relation
	Hypotheses []Hypothesis
	// Elapsed is how long mining the relation took.
	Elapsed time.Duration
}

// EntailedFacts returns the number of facts the accepted rules entail.
func (r *Result) EntailedFacts() int {
	n := 0
	for _, h := range r.Hypotheses {
		n += len(h.Evidence.Groundings)
	}
	return n
}

// Counterexamples returns the total number of counterexamples of the
// accepted rules.
func (r *Result) Counterexamples() int {
	n := 0
	for _, h := range r.Hypotheses {
		n += len(h.Counterexamples)
	}
	return n
}

// CompressedSize returns the size of the relation once compressed: its facts
// that no rule entails, plus the counterexamples and the length of each rule.
func (r *Result) CompressedSize() int {
	size := r.Relation.Len() - r.EntailedFacts() + r.Counterexamples()
	for _, h := range r.Hypotheses {
		size += h.Rule.Length()
	}
	return size
}

// CompressionRatio returns the size of the relation divided by its compressed
// size. Values above 1 mean the rules shrink the relation.
func (r *Result) CompressionRatio() float64 {
	compressed := r.CompressedSize()
	if compressed == 0 {
		return 1
	}
	return float64(r.Relation.Len()) / float64(compressed)
}
