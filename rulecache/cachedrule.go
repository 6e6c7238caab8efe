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

// Package rulecache evaluates rules incrementally. A CachedRule pairs a rule
// with the compliance sets of its predicates, and each refinement move
// updates those sets from the previous ones rather than joining the
// relations again. The sets are then enough to count the facts a rule
// entails, extract its evidence, and list its counterexamples.
//
// Caches are copy-on-write: Clone is cheap, and a move on a clone never
// affects the original. Caches aren't safe for concurrent moves until their
// indexes are built, see UpdateCacheIndices.
package rulecache

import (
	"github.com/ebay/kbcompress/eval"
	"github.com/ebay/kbcompress/kb"
	"github.com/ebay/kbcompress/rule"
	log "github.com/sirupsen/logrus"
)

// Env holds the settings and shared state of the rules refined against one
// KB.
type Env struct {
	KB *kb.KB
	// A move whose resulting rule covers a smaller fraction of the head
	// relation than this returns InsufficientCoverage.
	MinFactCoverage float64
	// Explored, if set, is called with the fingerprint of the rule resulting
	// from each move. It returns true if an equivalent rule was seen before,
	// in which case the move returns Duplicate. It should record the
	// fingerprint otherwise.
	Explored func(fingerprint string) bool
	// Tabu, if set, is called with the rule resulting from each move. If it
	// returns true, the move returns TabuPruned.
	Tabu func(*rule.Rule) bool
}

// CachedRule is a rule together with its cache. It's not safe for concurrent
// use, but distinct clones can be used from different goroutines once
// UpdateCacheIndices has been called on the original.
type CachedRule struct {
	env   *Env
	rule  *rule.Rule
	head  *kb.Relation
	cache *Cache

	// covered is set once pos and already are computed.
	covered bool
	pos     int
	already int
	// allCounted is set once all is computed.
	allCounted bool
	all        float64
}

// NewCachedRule builds the cache of 'r' from scratch. The relations of 'r'
// must exist in env.KB.
func NewCachedRule(env *Env, r *rule.Rule) *CachedRule {
	return &CachedRule{
		env:   env,
		rule:  r,
		head:  relation(env.KB, r.Relation(0), r.Arity(0)),
		cache: Construct(env.KB, r),
	}
}

// Clone returns a copy of the cached rule sharing its cache. Moves on the
// copy leave the receiver untouched.
func (cr *CachedRule) Clone() *CachedRule {
	c := *cr
	return &c
}

// Rule returns the current rule.
func (cr *CachedRule) Rule() *rule.Rule {
	return cr.rule
}

// Cache returns the current cache.
func (cr *CachedRule) Cache() *Cache {
	return cr.mustCache()
}

func (cr *CachedRule) String() string {
	return cr.rule.Format(cr.env.KB)
}

func (cr *CachedRule) mustCache() *Cache {
	if cr.cache == nil {
		log.Panicf("rulecache: caches of %v were released", cr)
	}
	return cr.cache
}

// UpdateCacheIndices builds the indexes the next moves need. It must be
// called before applying moves to the rule or its clones, and must not run
// concurrently with moves on any rule sharing the cache.
func (cr *CachedRule) UpdateCacheIndices() {
	cr.mustCache().buildIndices()
}

// ReleaseCaches drops the rule's reference to its cache. Counts that were
// already computed are kept, but no further move or extraction is possible.
func (cr *CachedRule) ReleaseCaches() {
	cr.cache = nil
}

// check returns the status of a move to 'next' that can be determined
// without updating the cache.
func (cr *CachedRule) check(next *rule.Rule) rule.UpdateStatus {
	if next.Invalid() {
		return rule.Invalid
	}
	if cr.env.Explored != nil && cr.env.Explored(next.Fingerprint()) {
		return rule.Duplicate
	}
	if cr.env.Tabu != nil && cr.env.Tabu(next) {
		return rule.TabuPruned
	}
	return rule.Normal
}

// apply moves to rule 'next' if check allows it, computing its cache with
// 'update'. The receiver keeps its previous state unless the status is Normal
// or InsufficientCoverage.
func (cr *CachedRule) apply(move string, next *rule.Rule, update func(*Cache) *Cache) rule.UpdateStatus {
	status := cr.check(next)
	if status == rule.Normal {
		c := update(cr.mustCache())
		cr.rule, cr.cache = next, c
		cr.covered, cr.allCounted = false, false
		metrics.entries.WithLabelValues("pos").Observe(float64(len(c.pos)))
		metrics.entries.WithLabelValues("all").Observe(float64(len(c.all)))
		if cr.FactCoverage() < cr.env.MinFactCoverage {
			status = rule.InsufficientCoverage
		}
	}
	metrics.moves.WithLabelValues(move, status.String()).Inc()
	if log.IsLevelEnabled(log.DebugLevel) {
		log.WithFields(log.Fields{
			"move":   move,
			"rule":   next.Format(cr.env.KB),
			"status": status,
		}).Debug("Applied move")
	}
	return status
}

// BindExisting binds the empty argument at 'loc' to the existing variable
// 'v'.
func (cr *CachedRule) BindExisting(loc rule.Location, v int) rule.UpdateStatus {
	r := cr.rule
	next := r.BindExisting(loc, v)
	return cr.apply("BindExisting", next, func(c *Cache) *Cache {
		c = c.splitPos([]rule.Location{r.Locations(v)[0], loc})
		return c.bindExistingAll(r, v, loc)
	})
}

// BindExistingNewPredicate adds a body predicate of relation 'rel' whose
// argument 'arg' is bound to the existing variable 'v'.
func (cr *CachedRule) BindExistingNewPredicate(rel, arity, arg, v int) rule.UpdateStatus {
	r := cr.rule
	next := r.BindExistingNewPredicate(rel, arity, arg, v)
	loc := rule.Location{Pred: r.Len(), Arg: arg}
	return cr.apply("BindExistingNewPredicate", next, func(c *Cache) *Cache {
		c = c.appendPredicate(relation(cr.env.KB, rel, arity))
		c = c.splitPos([]rule.Location{r.Locations(v)[0], loc})
		return c.bindExistingAll(r, v, loc)
	})
}

// BindFresh binds the empty arguments at 'a' and 'b' to a new variable.
func (cr *CachedRule) BindFresh(a, b rule.Location) rule.UpdateStatus {
	r := cr.rule
	next := r.BindFresh(a, b)
	return cr.apply("BindFresh", next, func(c *Cache) *Cache {
		c = c.splitPos([]rule.Location{a, b})
		return c.bindFreshAll(r.NumVars(), a, b)
	})
}

// BindFreshNewPredicate adds a body predicate of relation 'rel', and binds
// the empty argument at 'loc' and argument 'arg' of the new predicate to a
// new variable.
func (cr *CachedRule) BindFreshNewPredicate(loc rule.Location, rel, arity, arg int) rule.UpdateStatus {
	r := cr.rule
	next := r.BindFreshNewPredicate(loc, rel, arity, arg)
	newLoc := rule.Location{Pred: r.Len(), Arg: arg}
	return cr.apply("BindFreshNewPredicate", next, func(c *Cache) *Cache {
		c = c.appendPredicate(relation(cr.env.KB, rel, arity))
		c = c.splitPos([]rule.Location{loc, newLoc})
		return c.bindFreshAll(r.NumVars(), loc, newLoc)
	})
}

// BindConstant binds the empty argument at 'loc' to constant 'value'.
func (cr *CachedRule) BindConstant(loc rule.Location, value int) rule.UpdateStatus {
	next := cr.rule.BindConstant(loc, value)
	return cr.apply("BindConstant", next, func(c *Cache) *Cache {
		return c.assign(loc, value)
	})
}

// Generalize would remove the argument at 'loc'. Caches can't be updated
// that way, so it always returns Invalid and leaves the rule unchanged.
func (cr *CachedRule) Generalize(loc rule.Location) rule.UpdateStatus {
	metrics.moves.WithLabelValues("Generalize", rule.Invalid.String()).Inc()
	return rule.Invalid
}

// bindExistingAll updates the all cache after variable 'v' of rule 'r' gains
// an occurrence at 'loc'.
func (c *Cache) bindExistingAll(r *rule.Rule, v int, loc rule.Location) *Cache {
	if plv, isPLV := c.PLV(v); isPLV {
		// v is no longer private: its value must come from the body.
		c = c.withPLV(v, nil)
		if loc.InHead() {
			return c.splitAll([]rule.Location{plv})
		}
		return c.splitAll([]rule.Location{plv, loc})
	}
	if loc.InHead() {
		return c
	}
	body := r.BodyLocations(v)
	if len(body) == 0 {
		// v occurred only in the head until now.
		return c.splitAll([]rule.Location{loc})
	}
	return c.splitAll([]rule.Location{body[0], loc})
}

// bindFreshAll updates the all cache after the new variable 'v' is placed at
// 'a' and 'b'.
func (c *Cache) bindFreshAll(v int, a, b rule.Location) *Cache {
	switch {
	case a.InHead() && b.InHead():
		return c
	case a.InHead():
		return c.withPLV(v, &b)
	case b.InHead():
		return c.withPLV(v, &a)
	}
	return c.splitAll([]rule.Location{a, b})
}

// FactCoverage returns the fraction of the head relation's facts that the
// rule entails and that aren't yet entailed.
func (cr *CachedRule) FactCoverage() float64 {
	cr.countCovered()
	return float64(cr.pos) / float64(cr.head.Len())
}

// EvidenceCount returns the number of head facts the rule entails that
// aren't yet entailed.
func (cr *CachedRule) EvidenceCount() int {
	cr.countCovered()
	return cr.pos
}

// AlreadyEntailedCount returns the number of head facts the rule entails that
// are already entailed.
func (cr *CachedRule) AlreadyEntailedCount() int {
	cr.countCovered()
	return cr.already
}

// AllEntailmentCount returns the number of distinct head tuples the rule
// entails, facts or not.
func (cr *CachedRule) AllEntailmentCount() float64 {
	if !cr.allCounted {
		c := cr.mustCache()
		cr.all = c.countAll(newHeadPlan(cr.rule, c), cr.env.KB.TotalConstants())
		cr.allCounted = true
		metrics.evaluations.Inc()
	}
	return cr.all
}

// CounterexampleCount returns the number of tuples the rule entails that are
// not facts of the head relation.
func (cr *CachedRule) CounterexampleCount() float64 {
	return cr.AllEntailmentCount() - float64(cr.EvidenceCount()) - float64(cr.AlreadyEntailedCount())
}

func (cr *CachedRule) countCovered() {
	if !cr.covered {
		cr.pos, cr.already = cr.mustCache().coveredCounts(cr.head)
		cr.covered = true
	}
}

// Evaluate returns the Eval of the rule.
func (cr *CachedRule) Evaluate() eval.Eval {
	return eval.Evaluate(cr, cr.rule.Length())
}

// EvidenceAndMarkEntailment marks the head facts the rule entails as
// entailed, and returns a grounding for each fact that wasn't marked before.
// It must not run concurrently with any other use of the head relation.
func (cr *CachedRule) EvidenceAndMarkEntailment() Evidence {
	relations := make([]int, cr.rule.Len())
	for i := range relations {
		relations[i] = cr.rule.Relation(i)
	}
	ev := cr.mustCache().evidenceAndMarkEntailment(cr.head, relations)
	cr.covered = false
	metrics.entailedFacts.Add(float64(len(ev.Groundings)))
	return ev
}

// Counterexamples returns the tuples the rule entails that are not facts of
// the head relation, in ascending order.
func (cr *CachedRule) Counterexamples() [][]int {
	c := cr.mustCache()
	res := c.counterexamples(newHeadPlan(cr.rule, c), cr.head, cr.env.KB.TotalConstants())
	metrics.counterexamples.Add(float64(len(res)))
	return res
}

var _ eval.Strategy = (*CachedRule)(nil)
