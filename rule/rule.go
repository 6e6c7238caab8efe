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

// Package rule describes the structure of a Horn rule: a head predicate and a
// body of predicates whose arguments are empty, constants or variables.
//
// Rules are immutable. Each refinement move returns a new Rule and leaves the
// original untouched, so rules can be shared freely between goroutines.
package rule

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// ArgKind identifies what an Argument holds.
type ArgKind uint8

// Kinds of Argument.
const (
	// Empty is an argument with no constraint.
	Empty ArgKind = iota
	// Variable is an argument bound to a variable shared with other arguments.
	Variable
	// Constant is an argument bound to a KB constant.
	Constant
)

// Argument is one argument slot of a Predicate. For a Variable, Value is the
// variable id; for a Constant, Value is the constant id.
type Argument struct {
	Kind  ArgKind
	Value int
}

// Var returns a Variable argument.
func Var(id int) Argument {
	return Argument{Kind: Variable, Value: id}
}

// Const returns a Constant argument.
func Const(c int) Argument {
	return Argument{Kind: Constant, Value: c}
}

// Predicate is a relation applied to a list of arguments.
type Predicate struct {
	Relation int
	Args     []Argument
}

func (p Predicate) clone() Predicate {
	args := make([]Argument, len(p.Args))
	copy(args, p.Args)
	return Predicate{Relation: p.Relation, Args: args}
}

func (p Predicate) equal(other Predicate) bool {
	if p.Relation != other.Relation || len(p.Args) != len(other.Args) {
		return false
	}
	for i := range p.Args {
		if p.Args[i] != other.Args[i] {
			return false
		}
	}
	return true
}

// Location identifies an argument slot within a rule. Pred 0 is the head.
type Location struct {
	Pred int
	Arg  int
}

// InHead returns true if the location is in the head predicate.
func (l Location) InHead() bool {
	return l.Pred == 0
}

func (l Location) String() string {
	return fmt.Sprintf("%d.%d", l.Pred, l.Arg)
}

// Rule is an immutable Horn rule. The head is predicate 0, the body is
// predicates 1..Len()-1. Variable ids are dense: 0 to NumVars()-1.
type Rule struct {
	preds []Predicate
	// occurrences[v] lists the locations of variable v, ordered by predicate
	// then argument.
	occurrences [][]Location
	constants   int
}

// New returns a rule with an empty body and a head of relation 'rel' whose
// 'arity' arguments are all empty.
func New(rel, arity int) *Rule {
	return newRule([]Predicate{{Relation: rel, Args: make([]Argument, arity)}})
}

// FromPredicates returns a rule made of the given predicates, the first being
// the head. Variable ids must be dense and every variable must occur at least
// twice.
func FromPredicates(preds ...Predicate) (*Rule, error) {
	if len(preds) == 0 {
		return nil, fmt.Errorf("a rule needs a head predicate")
	}
	cloned := make([]Predicate, len(preds))
	counts := make(map[int]int)
	maxVar := -1
	for i, p := range preds {
		cloned[i] = p.clone()
		for _, a := range p.Args {
			switch a.Kind {
			case Variable:
				if a.Value < 0 {
					return nil, fmt.Errorf("negative variable id %d", a.Value)
				}
				counts[a.Value]++
				maxVar = max(maxVar, a.Value)
			case Constant:
				if a.Value < 1 {
					return nil, fmt.Errorf("constant ids must be positive, got %d", a.Value)
				}
			}
		}
	}
	for v := 0; v <= maxVar; v++ {
		switch counts[v] {
		case 0:
			return nil, fmt.Errorf("variable ids must be dense, X%d is missing", v)
		case 1:
			return nil, fmt.Errorf("variable X%d occurs only once", v)
		}
	}
	return newRule(cloned), nil
}

// newRule takes ownership of preds and builds the derived indexes.
func newRule(preds []Predicate) *Rule {
	r := &Rule{preds: preds}
	for p, pred := range preds {
		for a, arg := range pred.Args {
			switch arg.Kind {
			case Variable:
				for len(r.occurrences) <= arg.Value {
					r.occurrences = append(r.occurrences, nil)
				}
				r.occurrences[arg.Value] = append(r.occurrences[arg.Value], Location{Pred: p, Arg: a})
			case Constant:
				r.constants++
			}
		}
	}
	return r
}

// Len returns the number of predicates, including the head.
func (r *Rule) Len() int {
	return len(r.preds)
}

// Pred returns a copy of predicate 'i'.
func (r *Rule) Pred(i int) Predicate {
	return r.pred(i).clone()
}

// Head returns a copy of the head predicate.
func (r *Rule) Head() Predicate {
	return r.Pred(0)
}

// Relation returns the relation id of predicate 'i'.
func (r *Rule) Relation(i int) int {
	return r.pred(i).Relation
}

// Arity returns the number of arguments of predicate 'i'.
func (r *Rule) Arity(i int) int {
	return len(r.pred(i).Args)
}

// Arg returns the argument at 'loc'.
func (r *Rule) Arg(loc Location) Argument {
	p := r.pred(loc.Pred)
	if loc.Arg < 0 || loc.Arg >= len(p.Args) {
		log.Panicf("rule: argument %d out of range for predicate %d of arity %d", loc.Arg, loc.Pred, len(p.Args))
	}
	return p.Args[loc.Arg]
}

func (r *Rule) pred(i int) *Predicate {
	if i < 0 || i >= len(r.preds) {
		log.Panicf("rule: predicate %d out of range for a rule of %d predicates", i, len(r.preds))
	}
	return &r.preds[i]
}

// NumVars returns the number of distinct variables in the rule.
func (r *Rule) NumVars() int {
	return len(r.occurrences)
}

// Locations returns the locations of variable 'v'.
func (r *Rule) Locations(v int) []Location {
	locs := r.occurrences[v]
	return locs[:len(locs):len(locs)]
}

// HeadLocations returns the locations of variable 'v' within the head.
func (r *Rule) HeadLocations(v int) []Location {
	var res []Location
	for _, l := range r.occurrences[v] {
		if l.InHead() {
			res = append(res, l)
		}
	}
	return res
}

// BodyLocations returns the locations of variable 'v' within the body.
func (r *Rule) BodyLocations(v int) []Location {
	var res []Location
	for _, l := range r.occurrences[v] {
		if !l.InHead() {
			res = append(res, l)
		}
	}
	return res
}

// IsPLV returns true if variable 'v' is a private variable: it occurs exactly
// once in the head and exactly once in the body.
func (r *Rule) IsPLV(v int) bool {
	locs := r.occurrences[v]
	return len(locs) == 2 && locs[0].InHead() && !locs[1].InHead()
}

// IsHeadOnly returns true if variable 'v' occurs only in the head.
func (r *Rule) IsHeadOnly(v int) bool {
	for _, l := range r.occurrences[v] {
		if !l.InHead() {
			return false
		}
	}
	return true
}

// EmptyLocations returns the locations of all empty arguments.
func (r *Rule) EmptyLocations() []Location {
	var res []Location
	for p, pred := range r.preds {
		for a, arg := range pred.Args {
			if arg.Kind == Empty {
				res = append(res, Location{Pred: p, Arg: a})
			}
		}
	}
	return res
}

// Length returns the number of constraints the rule adds: one for each
// constant, and for each variable one fewer than its number of occurrences.
func (r *Rule) Length() int {
	l := r.constants
	for _, locs := range r.occurrences {
		l += len(locs) - 1
	}
	return l
}

// Invalid returns true if the rule is outside of the space of useful rules:
// the body is not empty but the head has no variable, or a body predicate is
// identical to the head.
func (r *Rule) Invalid() bool {
	if len(r.preds) == 1 {
		return false
	}
	headHasVar := false
	for _, a := range r.preds[0].Args {
		if a.Kind == Variable {
			headHasVar = true
			break
		}
	}
	if !headHasVar {
		return true
	}
	for _, p := range r.preds[1:] {
		if p.equal(r.preds[0]) {
			return true
		}
	}
	return false
}
