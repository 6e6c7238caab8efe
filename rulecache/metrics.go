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
	metricsutil "github.com/ebay/kbcompress/util/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type rulecacheMetrics struct {
	moves           *prometheus.CounterVec
	entries         *prometheus.HistogramVec
	evaluations     prometheus.Counter
	entailedFacts   prometheus.Counter
	counterexamples prometheus.Counter
}

var metrics rulecacheMetrics

func init() {
	mr := metricsutil.Registry{R: prometheus.DefaultRegisterer}
	metrics = rulecacheMetrics{
		moves: mr.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kbc",
			Subsystem: "rulecache",
			Name:      "moves_total",
			Help: `The number of refinement moves applied to cached rules, by move and
outcome.`,
		}, []string{"move", "status"}),
		entries: mr.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "kbc",
			Subsystem: "rulecache",
			Name:      "entries",
			Help:      `The number of cache entries of a rule after a successful move.`,
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}, []string{"cache"}),
		evaluations: mr.NewCounter(prometheus.CounterOpts{
			Namespace: "kbc",
			Subsystem: "rulecache",
			Name:      "evaluations_total",
			Help:      `The number of times a rule's entailment counts were computed.`,
		}),
		entailedFacts: mr.NewCounter(prometheus.CounterOpts{
			Namespace: "kbc",
			Subsystem: "rulecache",
			Name:      "entailed_facts_total",
			Help:      `The number of facts marked as entailed by accepted rules.`,
		}),
		counterexamples: mr.NewCounter(prometheus.CounterOpts{
			Namespace: "kbc",
			Subsystem: "rulecache",
			Name:      "counterexamples_total",
			Help:      `The number of counterexamples extracted from accepted rules.`,
		}),
	}
}
