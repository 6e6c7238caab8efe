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

// Package metrics aids in defining Prometheus metrics. Each package that
// exports metrics declares them in its own metrics.go, creating them through a
// Registry from an init function.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry creates metrics and registers them with R. Registration failures
// such as duplicate names panic.
type Registry struct {
	R prometheus.Registerer
}

// NewCounter returns a new registered Counter.
func (mr Registry) NewCounter(c prometheus.CounterOpts) prometheus.Counter {
	pm := prometheus.NewCounter(c)
	mr.R.MustRegister(pm)
	return pm
}

// NewCounterVec returns a new registered CounterVec partitioned by 'labels'.
func (mr Registry) NewCounterVec(c prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	pm := prometheus.NewCounterVec(c, labels)
	mr.R.MustRegister(pm)
	return pm
}

// NewGauge returns a new registered Gauge.
func (mr Registry) NewGauge(g prometheus.GaugeOpts) prometheus.Gauge {
	pm := prometheus.NewGauge(g)
	mr.R.MustRegister(pm)
	return pm
}

// NewGaugeVec returns a new registered GaugeVec partitioned by 'labels'.
func (mr Registry) NewGaugeVec(g prometheus.GaugeOpts, labels []string) *prometheus.GaugeVec {
	pm := prometheus.NewGaugeVec(g, labels)
	mr.R.MustRegister(pm)
	return pm
}

// NewSummary returns a new registered Summary.
func (mr Registry) NewSummary(s prometheus.SummaryOpts) prometheus.Summary {
	pm := prometheus.NewSummary(s)
	mr.R.MustRegister(pm)
	return pm
}

// NewHistogram returns a new registered Histogram.
func (mr Registry) NewHistogram(h prometheus.HistogramOpts) prometheus.Histogram {
	pm := prometheus.NewHistogram(h)
	mr.R.MustRegister(pm)
	return pm
}

// NewHistogramVec returns a new registered HistogramVec partitioned by
// 'labels'.
func (mr Registry) NewHistogramVec(h prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	pm := prometheus.NewHistogramVec(h, labels)
	mr.R.MustRegister(pm)
	return pm
}
