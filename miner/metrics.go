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
	metricsutil "github.com/ebay/kbcompress/util/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type minerMetrics struct {
	candidates      *prometheus.CounterVec
	acceptedRules   prometheus.Counter
	tabuRules       prometheus.Gauge
	beamSteps       prometheus.Histogram
	searchLatency   prometheus.Summary
	relationLatency prometheus.Summary
}

var metrics minerMetrics

func init() {
	mr := metricsutil.Registry{R: prometheus.DefaultRegisterer}
	metrics = minerMetrics{
		candidates: mr.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kbc",
			Subsystem: "miner",
			Name:      "candidates_total",
			Help:      `The number of candidate rules generated, by the outcome of their move.`,
		}, []string{"status"}),
		acceptedRules: mr.NewCounter(prometheus.CounterOpts{
			Namespace: "kbc",
			Subsystem: "miner",
			Name:      "accepted_rules_total",
			Help:      `The number of rules accepted.`,
		}),
		tabuRules: mr.NewGauge(prometheus.GaugeOpts{
			Namespace: "kbc",
			Subsystem: "miner",
			Name:      "tabu_rules",
			Help:      `The number of rules with insufficient coverage recorded for the current relation.`,
		}),
		beamSteps: mr.NewHistogram(prometheus.HistogramOpts{
			Namespace: "kbc",
			Subsystem: "miner",
			Name:      "beam_steps",
			Help:      `The number of refinement steps a rule search took.`,
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}),
		searchLatency: mr.NewSummary(prometheus.SummaryOpts{
			Namespace:  "kbc",
			Subsystem:  "miner",
			Name:       "search_latency_seconds",
			Help:       `The time it takes to search for one rule.`,
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}),
		relationLatency: mr.NewSummary(prometheus.SummaryOpts{
			Namespace:  "kbc",
			Subsystem:  "miner",
			Name:       "relation_latency_seconds",
			Help:       `The time it takes to mine all the rules of one relation.`,
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}),
	}
}
