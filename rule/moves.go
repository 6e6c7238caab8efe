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
	log "github.com/sirupsen/logrus"
)

// UpdateStatus reports the outcome of applying a refinement move to a rule.
// Only a Normal rule may be evaluated or refined further.
type UpdateStatus int

// Possible outcomes of a refinement move.
const (
	// Normal means the move was applied and the rule is usable.
	Normal UpdateStatus = iota
	// Invalid means the resulting rule is outside of the search space, or
	// the move isn't supported.
	Invalid
	// Duplicate means an equivalent rule was already explored.
	Duplicate
	// InsufficientCoverage means the resulting rule covers too few new facts.
	InsufficientCoverage
	// TabuPruned means the resulting rule specializes a rule already known to
	// have insufficient coverage.
	TabuPruned
)

func (s UpdateStatus) String() string {
	switch s {
	case Normal:
		return "Normal"
	case Invalid:
		return "Invalid"
	case Duplicate:
		return "Duplicate"
	case InsufficientCoverage:
		return "InsufficientCoverage"
	case TabuPruned:
		return "TabuPruned"
	}
	return "UpdateStatus(?)"
}

// BindExisting returns a new rule in which the empty argument at 'loc' is
// bound to the existing variable 'v'.
func (r *Rule) BindExisting(loc Location, v int) *Rule {
	r.checkVar(v)
	preds := r.clonePreds()
	setEmpty(preds, loc, Var(v))
	return newRule(preds)
}

// BindExistingNewPredicate returns a new rule with an extra body predicate of
// relation 'rel', whose argument 'arg' is bound to the existing variable 'v'.
// The new predicate is the last one of the new rule.
func (r *Rule) BindExistingNewPredicate(rel, arity, arg, v int) *Rule {
	r.checkVar(v)
	preds := append(r.clonePreds(), Predicate{Relation: rel, Args: make([]Argument, arity)})
	setEmpty(preds, Location{Pred: len(preds) - 1, Arg: arg}, Var(v))
	return newRule(preds)
}

// BindFresh returns a new rule in which the empty arguments at 'a' and 'b'
// are bound to a new variable. The new variable's id is NumVars().
func (r *Rule) BindFresh(a, b Location) *Rule {
	if a == b {
		log.Panicf("rule.BindFresh: both locations are %v", a)
	}
	v := r.NumVars()
	preds := r.clonePreds()
	setEmpty(preds, a, Var(v))
	setEmpty(preds, b, Var(v))
	return newRule(preds)
}

// BindFreshNewPredicate returns a new rule with an extra body predicate of
// relation 'rel'. The empty argument at 'loc' and argument 'arg' of the new
// predicate are bound to a new variable, whose id is NumVars().
func (r *Rule) BindFreshNewPredicate(loc Location, rel, arity, arg int) *Rule {
	v := r.NumVars()
	preds := r.clonePreds()
	setEmpty(preds, loc, Var(v))
	preds = append(preds, Predicate{Relation: rel, Args: make([]Argument, arity)})
	setEmpty(preds, Location{Pred: len(preds) - 1, Arg: arg}, Var(v))
	return newRule(preds)
}

// BindConstant returns a new rule in which the empty argument at 'loc' is
// bound to constant 'c'.
func (r *Rule) BindConstant(loc Location, c int) *Rule {
	if c < 1 {
		log.Panicf("rule.BindConstant: constant ids must be positive, got %d", c)
	}
	preds := r.clonePreds()
	setEmpty(preds, loc, Const(c))
	return newRule(preds)
}

// Generalize returns a new rule in which the argument at 'loc' is empty. A
// variable left with a single occurrence is removed, and body predicates left
// with only empty arguments are dropped. Variable ids are renumbered to stay
// dense.
func (r *Rule) Generalize(loc Location) *Rule {
	if r.Arg(loc).Kind == Empty {
		log.Panicf("rule.Generalize: argument %v is already empty", loc)
	}
	preds := r.clonePreds()
	old := preds[loc.Pred].Args[loc.Arg]
	preds[loc.Pred].Args[loc.Arg] = Argument{}
	if old.Kind == Variable && len(r.occurrences[old.Value]) == 2 {
		for _, l := range r.occurrences[old.Value] {
			preds[l.Pred].Args[l.Arg] = Argument{}
		}
	}
	kept := preds[:1]
	for _, p := range preds[1:] {
		for _, a := range p.Args {
			if a.Kind != Empty {
				kept = append(kept, p)
				break
			}
		}
	}
	renumber := make(map[int]int)
	for _, p := range kept {
		for i, a := range p.Args {
			if a.Kind != Variable {
				continue
			}
			id, exists := renumber[a.Value]
			if !exists {
				id = len(renumber)
				renumber[a.Value] = id
			}
			p.Args[i] = Var(id)
		}
	}
	return newRule(kept)
}

func (r *Rule) checkVar(v int) {
	if v < 0 || v >= r.NumVars() {
		log.Panicf("rule: variable %d out of range for a rule with %d variables", v, r.NumVars())
	}
}

func (r *Rule) clonePreds() []Predicate {
	preds := make([]Predicate, len(r.preds), len(r.preds)+1)
	for i, p := range r.preds {
		preds[i] = p.clone()
	}
	return preds
}

func setEmpty(preds []Predicate, loc Location, arg Argument) {
	if loc.Pred < 0 || loc.Pred >= len(preds) || loc.Arg < 0 || loc.Arg >= len(preds[loc.Pred].Args) {
		log.Panicf("rule: location %v out of range", loc)
	}
	if preds[loc.Pred].Args[loc.Arg].Kind != Empty {
		log.Panicf("rule: argument %v is not empty", loc)
	}
	preds[loc.Pred].Args[loc.Arg] = arg
}
