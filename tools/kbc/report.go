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

package main

import (
	"fmt"

	"github.com/ebay/kbcompress/eval"
	"github.com/ebay/kbcompress/kb"
	"github.com/ebay/kbcompress/rule"
	"github.com/ebay/kbcompress/rulecache"
)

// statsTable lists the relations of 'k' with their sizes.
func statsTable(k *kb.KB) [][]string {
	t := [][]string{{"relation", "arity", "facts", "constants"}}
	for _, rel := range k.Relations() {
		seen := make(map[int]bool)
		for col := 0; col < rel.Arity(); col++ {
			for _, v := range rel.ValuesInColumn(col) {
				seen[v] = true
			}
		}
		t = append(t, []string{
			rel.Name(),
			fmtr.Sprintf("%d", rel.Arity()),
			fmtr.Sprintf("%d", rel.Len()),
			fmtr.Sprintf("%d", len(seen)),
		})
	}
	t = append(t, []string{
		fmt.Sprintf("%d relations", len(k.Relations())),
		"",
		fmtr.Sprintf("%d", k.TotalFacts()),
		fmtr.Sprintf("%d", k.TotalConstants()),
	})
	return t
}

// evalTable parses 'text' as a rule over 'k' and lists its scores.
func evalTable(k *kb.KB, text string) ([][]string, error) {
	r, err := rule.Parse(text, k)
	if err != nil {
		return nil, err
	}
	if r.Invalid() {
		return nil, fmt.Errorf("rule %v can't entail anything useful", r.Format(k))
	}
	cr := rulecache.NewCachedRule(&rulecache.Env{KB: k}, r)
	e := cr.Evaluate()
	return [][]string{
		{"rule", cr.String()},
		{"length", fmtr.Sprintf("%d", e.Length)},
		{"entailed facts", fmtr.Sprintf("%.0f", e.Pos)},
		{"already entailed", fmtr.Sprintf("%d", cr.AlreadyEntailedCount())},
		{"counterexamples", fmtr.Sprintf("%.0f", e.Neg)},
		{"coverage", fmtr.Sprintf("%.1f%%", 100*e.Coverage)},
		{"compression ratio", fmtr.Sprintf("%.4f", e.Value(eval.CompressionRatio))},
		{"compression capacity", fmtr.Sprintf("%.0f", e.Value(eval.CompressionCapacity))},
		{"info gain", fmtr.Sprintf("%.4f", e.Value(eval.InfoGain))},
		{"useful", fmt.Sprint(e.Useful())},
	}, nil
}
