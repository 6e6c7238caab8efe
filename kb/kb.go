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

// Package kb holds a relational knowledge base: a set of named relations over
// a shared domain of constants. Constants are numbered 1..N in the order they
// are first seen; relations store these numbers rather than names.
package kb

import (
	"fmt"

	"github.com/ebay/kbcompress/inttable"
)

// KB is a knowledge base. Adding relations or constants is not safe for
// concurrent use; once loaded, a KB can be read concurrently.
type KB struct {
	name      string
	relations []*Relation
	byName    map[string]*Relation
	// constants[i] is the name of the constant with id i+1.
	constants   []string
	constantIDs map[string]int
}

// New returns a new, empty KB.
func New(name string) *KB {
	return &KB{
		name:        name,
		byName:      make(map[string]*Relation),
		constantIDs: make(map[string]int),
	}
}

// Name returns the name of the KB.
func (k *KB) Name() string {
	return k.name
}

// Numerate returns the ids of the named constants, assigning new ids to names
// not seen before.
func (k *KB) Numerate(names ...string) []int {
	ids := make([]int, len(names))
	for i, name := range names {
		id, exists := k.constantIDs[name]
		if !exists {
			k.constants = append(k.constants, name)
			id = len(k.constants)
			k.constantIDs[name] = id
		}
		ids[i] = id
	}
	return ids
}

// ConstantID returns the id of the named constant, if it exists.
func (k *KB) ConstantID(name string) (int, bool) {
	id, exists := k.constantIDs[name]
	return id, exists
}

// ConstantName returns the name of the constant with the given id. Unknown ids
// are formatted as "#id".
func (k *KB) ConstantName(id int) string {
	if id < 1 || id > len(k.constants) {
		return fmt.Sprintf("#%d", id)
	}
	return k.constants[id-1]
}

// TotalConstants returns the size of the constant domain. Constant ids range
// from 1 to TotalConstants() inclusive.
func (k *KB) TotalConstants() int {
	return len(k.constants)
}

// AddRelation adds a new relation to the KB. Every value in 'rows' must be a
// constant id already known to the KB. The relation's id is the number of
// relations added before it.
func (k *KB) AddRelation(name string, rows [][]int) (*Relation, error) {
	if _, exists := k.byName[name]; exists {
		return nil, fmt.Errorf("relation %v already exists in KB %v", name, k.name)
	}
	for _, row := range rows {
		for _, v := range row {
			if v < 1 || v > len(k.constants) {
				return nil, fmt.Errorf("relation %v contains unknown constant id %d", name, v)
			}
		}
	}
	rel, err := NewRelation(len(k.relations), name, rows)
	if err != nil {
		return nil, err
	}
	k.relations = append(k.relations, rel)
	k.byName[name] = rel
	return rel, nil
}

// AddNamedRelation adds a new relation whose facts are given as constant
// names. Names are numerated as needed. Repeated facts are only added once.
// If the relation can't be added, the names it introduced are forgotten.
func (k *KB) AddNamedRelation(name string, facts [][]string) (*Relation, error) {
	known := len(k.constants)
	rows := make([][]int, 0, len(facts))
	seen := make(map[string]struct{}, len(facts))
	for _, fact := range facts {
		row := k.Numerate(fact...)
		key := inttable.RowKey(row)
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		rows = append(rows, row)
	}
	rel, err := k.AddRelation(name, rows)
	if err != nil {
		k.forgetConstants(known)
		return nil, err
	}
	return rel, nil
}

// forgetConstants drops the constants numerated after the first 'n'.
func (k *KB) forgetConstants(n int) {
	for _, name := range k.constants[n:] {
		delete(k.constantIDs, name)
	}
	k.constants = k.constants[:n]
}

// Relation returns the relation with the given id, or nil.
func (k *KB) Relation(id int) *Relation {
	if id < 0 || id >= len(k.relations) {
		return nil
	}
	return k.relations[id]
}

// RelationByName returns the named relation, if it exists.
func (k *KB) RelationByName(name string) (*Relation, bool) {
	rel, exists := k.byName[name]
	return rel, exists
}

// Relations returns all the relations in id order.
func (k *KB) Relations() []*Relation {
	return k.relations[:len(k.relations):len(k.relations)]
}

// TotalFacts returns the number of facts across all relations.
func (k *KB) TotalFacts() int {
	total := 0
	for _, r := range k.relations {
		total += r.Len()
	}
	return total
}

// RelationName returns the name of the relation with the given id. Unknown ids
// are formatted as "#id".
func (k *KB) RelationName(id int) string {
	if rel := k.Relation(id); rel != nil {
		return rel.Name()
	}
	return fmt.Sprintf("#%d", id)
}

// ResolveRelation returns the id and arity of the named relation.
func (k *KB) ResolveRelation(name string) (id, arity int, exists bool) {
	rel, exists := k.byName[name]
	if !exists {
		return 0, 0, false
	}
	return rel.ID(), rel.Arity(), true
}
