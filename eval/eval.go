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

// Package eval scores rules by how much they would compress a relation.
//
// A rule that entails 'Pos' facts of its head relation that are not yet
// entailed, and 'Neg' tuples that are absent from it, lets the compressor
// drop the Pos facts from the relation at the price of storing the rule and
// its Neg counterexamples. The metrics here weigh those quantities.
package eval

import (
	"fmt"
	"math"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Metric selects how an Eval is reduced to a single score. Higher scores are
// better for every metric.
type Metric int

// Supported metrics.
const (
	// CompressionRatio is Pos / All.
	CompressionRatio Metric = iota
	// CompressionCapacity is Pos - Neg - Length: the net number of facts
	// saved by the rule.
	CompressionCapacity
	// InfoGain is Pos * log2(Pos / All), the information term of FOIL's gain.
	InfoGain
)

var metricNames = []string{
	CompressionRatio:    "CompressionRatio",
	CompressionCapacity: "CompressionCapacity",
	InfoGain:            "InfoGain",
}

func (m Metric) String() string {
	if m < 0 || int(m) >= len(metricNames) {
		return fmt.Sprintf("Metric(%d)", int(m))
	}
	return metricNames[m]
}

// ParseMetric returns the metric with the given name. Matching is case
// insensitive, and the abbreviations "cr", "cc" and "ig" are accepted.
func ParseMetric(name string) (Metric, error) {
	switch strings.ToLower(name) {
	case "cr":
		return CompressionRatio, nil
	case "cc":
		return CompressionCapacity, nil
	case "ig":
		return InfoGain, nil
	}
	for m, n := range metricNames {
		if strings.EqualFold(n, name) {
			return Metric(m), nil
		}
	}
	return 0, fmt.Errorf("unknown metric %q", name)
}

// MarshalText implements encoding.TextMarshaler, so that metrics are written
// by name in config files.
func (m Metric) MarshalText() ([]byte, error) {
	if m < 0 || int(m) >= len(metricNames) {
		return nil, fmt.Errorf("unknown metric %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Metric) UnmarshalText(text []byte) error {
	parsed, err := ParseMetric(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Eval is the outcome of evaluating a rule. Counts are floats as All may
// include a power of the constant domain size.
type Eval struct {
	// Pos is the number of head relation facts the rule entails that are not
	// entailed by any previously accepted rule.
	Pos float64
	// Neg is the number of tuples the rule entails that are not in the head
	// relation.
	Neg float64
	// All is Pos + Neg: every new tuple the rule entails.
	All float64
	// Length is the number of constraints in the rule, see rule.Length.
	Length int
	// Coverage is Pos divided by the size of the head relation.
	Coverage float64
	// min is only set on Min.
	min bool
}

// Min compares lower than the Eval of any rule, under every metric.
var Min = Eval{min: true}

// Value reduces the Eval to a score under the given metric.
func (e Eval) Value(metric Metric) float64 {
	if e.min {
		return math.Inf(-1)
	}
	switch metric {
	case CompressionRatio:
		if e.All <= 0 {
			return 0
		}
		return e.Pos / e.All
	case CompressionCapacity:
		return e.Pos - e.Neg - float64(e.Length)
	case InfoGain:
		if e.Pos <= 0 || e.All <= 0 {
			// Any rule that entails something new beats one that doesn't.
			return -math.MaxFloat64
		}
		return e.Pos * math.Log2(e.Pos/e.All)
	}
	log.Panicf("eval: unknown metric %v", metric)
	return 0
}

// Useful returns true if accepting the rule would shrink the KB, that is its
// compression capacity is positive.
func (e Eval) Useful() bool {
	return !e.min && e.Value(CompressionCapacity) > 0
}

// Better returns true if e scores strictly higher than other under the given
// metric. Ties are broken by compression capacity, then by shorter length.
func (e Eval) Better(other Eval, metric Metric) bool {
	a, b := e.Value(metric), other.Value(metric)
	if a != b {
		return a > b
	}
	if metric != CompressionCapacity {
		a, b = e.Value(CompressionCapacity), other.Value(CompressionCapacity)
		if a != b {
			return a > b
		}
	}
	return e.Length < other.Length
}

func (e Eval) String() string {
	if e.min {
		return "Eval(min)"
	}
	return fmt.Sprintf("Eval(pos=%v neg=%v all=%v len=%d cov=%.3f)",
		e.Pos, e.Neg, e.All, e.Length, e.Coverage)
}

// Strategy computes the counts that an Eval is made of for some rule. The
// incremental cache in package rulecache is the main implementation; tests
// also use a brute-force one.
type Strategy interface {
	// EvidenceCount returns the number of head relation facts that the rule
	// entails and that aren't yet entailed.
	EvidenceCount() int
	// CounterexampleCount returns the number of tuples the rule entails that
	// are absent from the head relation.
	CounterexampleCount() float64
	// FactCoverage returns EvidenceCount divided by the size of the head
	// relation.
	FactCoverage() float64
	// AlreadyEntailedCount returns the number of head relation facts that the
	// rule entails but were already entailed.
	AlreadyEntailedCount() int
}

// Evaluate builds the Eval of a rule of the given length from the counts
// reported by 's'.
func Evaluate(s Strategy, length int) Eval {
	pos := float64(s.EvidenceCount())
	neg := s.CounterexampleCount()
	return Eval{
		Pos:      pos,
		Neg:      neg,
		All:      pos + neg,
		Length:   length,
		Coverage: s.FactCoverage(),
	}
}
